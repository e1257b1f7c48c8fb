// Package config loads visrange settings and the persisted view selection.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/tOgg1/visrange/internal/models"
)

// Config is the root configuration.
type Config struct {
	Global   GlobalConfig   `yaml:"global" mapstructure:"global"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	TUI      TUIConfig      `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig holds the data and config directories.
type GlobalConfig struct {
	DataDir   string `yaml:"data_dir" mapstructure:"data_dir"`
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// DatabaseConfig configures the SQLite layout store.
type DatabaseConfig struct {
	// Path defaults to <data_dir>/visrange.db.
	Path           string `yaml:"path" mapstructure:"path"`
	MaxConnections int    `yaml:"max_connections" mapstructure:"max_connections"`
	BusyTimeoutMs  int    `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level        string `yaml:"level" mapstructure:"level"`
	Format       string `yaml:"format" mapstructure:"format"` // json or console
	File         string `yaml:"file" mapstructure:"file"`
	EnableCaller bool   `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// ResolverConfig holds defaults for resolve, query and inspect.
type ResolverConfig struct {
	// DefaultTimeline is used when --timeline is not given.
	DefaultTimeline string `yaml:"default_timeline" mapstructure:"default_timeline"`

	// TimelineKind decides whether boundaries like "rel:-5s" parse as
	// durations or as plain integers.
	TimelineKind models.TimelineKind `yaml:"timeline_kind" mapstructure:"timeline_kind"`
}

// TUIConfig configures the inspector.
type TUIConfig struct {
	Theme      string `yaml:"theme" mapstructure:"theme"`
	CursorStep int64  `yaml:"cursor_step" mapstructure:"cursor_step"`
	ShowSource bool   `yaml:"show_source" mapstructure:"show_source"`
}

var themes = []string{"default", "mono"}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(home, ".local", "share", "visrange"),
			ConfigDir: filepath.Join(home, ".config", "visrange"),
		},
		Database: DatabaseConfig{MaxConnections: 10, BusyTimeoutMs: 5000},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Resolver: ResolverConfig{DefaultTimeline: "log_time", TimelineKind: models.TimelineKindTime},
		TUI:      TUIConfig{Theme: themes[0], CursorStep: 1, ShowSource: true},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs models.ValidationErrors
	if c.Database.MaxConnections < 1 {
		errs.Addf("database.max_connections", "must be at least 1, got %d", c.Database.MaxConnections)
	}
	if c.Database.BusyTimeoutMs < 0 {
		errs.Addf("database.busy_timeout_ms", "must not be negative")
	}
	if c.Resolver.DefaultTimeline == "" {
		errs.Addf("resolver.default_timeline", "is required")
	}
	errs.Add("resolver.timeline_kind", c.Resolver.TimelineKind.Validate())
	if c.TUI.CursorStep < 1 {
		errs.Addf("tui.cursor_step", "must be at least 1, got %d", c.TUI.CursorStep)
	}
	if !slices.Contains(themes, c.TUI.Theme) {
		errs.Addf("tui.theme", "must be one of %v, got %q", themes, c.TUI.Theme)
	}
	return errs.Err()
}

// EnsureDirectories creates the data and config directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Global.DataDir, c.Global.ConfigDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file to open.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "visrange.db")
}
