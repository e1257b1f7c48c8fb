package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "VISRANGE"

// setting ties a config key to its default value.
type setting struct {
	key   string
	value func(*Config) any
}

// settings lists every key that can come from a file or the environment.
// Binding each key explicitly lets viper merge env vars into nested structs.
var settings = []setting{
	{"global.data_dir", func(c *Config) any { return c.Global.DataDir }},
	{"global.config_dir", func(c *Config) any { return c.Global.ConfigDir }},
	{"database.path", func(c *Config) any { return c.Database.Path }},
	{"database.max_connections", func(c *Config) any { return c.Database.MaxConnections }},
	{"database.busy_timeout_ms", func(c *Config) any { return c.Database.BusyTimeoutMs }},
	{"logging.level", func(c *Config) any { return c.Logging.Level }},
	{"logging.format", func(c *Config) any { return c.Logging.Format }},
	{"logging.file", func(c *Config) any { return c.Logging.File }},
	{"logging.enable_caller", func(c *Config) any { return c.Logging.EnableCaller }},
	{"resolver.default_timeline", func(c *Config) any { return c.Resolver.DefaultTimeline }},
	{"resolver.timeline_kind", func(c *Config) any { return string(c.Resolver.TimelineKind) }},
	{"tui.theme", func(c *Config) any { return c.TUI.Theme }},
	{"tui.cursor_step", func(c *Config) any { return c.TUI.CursorStep }},
	{"tui.show_source", func(c *Config) any { return c.TUI.ShowSource }},
}

// Loader reads configuration from defaults, an optional YAML file and
// VISRANGE_* environment variables, in increasing precedence.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a loader that searches the standard config paths.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile pins the config file. A pinned file that cannot be read is an
// error; a missing file on the search path is not.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load builds and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	defaults := DefaultConfig()
	l.prepare(defaults)

	if err := l.readFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Global.DataDir = expandHome(cfg.Global.DataDir)
	cfg.Global.ConfigDir = expandHome(cfg.Global.ConfigDir)
	cfg.Database.Path = expandHome(cfg.Database.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (l *Loader) prepare(defaults *Config) {
	v := l.v
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range searchPaths() {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, s := range settings {
		v.SetDefault(s.key, s.value(defaults))
		_ = v.BindEnv(s.key, EnvVar(s.key))
	}
	v.AutomaticEnv()
}

func searchPaths() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "visrange"))
	}
	if home, _ := os.UserHomeDir(); home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "visrange"))
	}
	return append(dirs, ".")
}

func (l *Loader) readFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		return l.v.ReadInConfig()
	}
	err := l.v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// ConfigFileUsed returns the file Load read, or "" when none was found.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Set overrides a key ahead of Load, above every other source.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration from the standard search paths.
func LoadDefault() (*Config, error) {
	return NewLoader().Load()
}

// EnvVar returns the environment variable that overrides a config key,
// e.g. database.path becomes VISRANGE_DATABASE_PATH.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
