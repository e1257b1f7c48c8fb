// Package cli implements the visrange command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/tOgg1/visrange/internal/config"
	"github.com/tOgg1/visrange/internal/logging"
)

var (
	cfgFile        string
	jsonOutput     bool
	jsonlOutput    bool
	quiet          bool
	nonInteractive bool
	logLevel       string
	logFormat      string
	metricsOutput  bool

	appConfig *config.Config
	logFile   *os.File

	// metricsRegistry collects store metrics for --metrics.
	metricsRegistry = prometheus.NewRegistry()
)

var rootCmd = &cobra.Command{
	Use:   "visrange",
	Short: "Configure and resolve visible time ranges",
	Long: `visrange manages view layouts and resolves, for each (view, entity, timeline),
which time window of data a view should query at a given cursor.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  initConfig,
	PersistentPostRunE: finish,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ~/.config/visrange/config.yaml)")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "never prompt or start the TUI")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "log format (console, json)")
	flags.BoolVar(&metricsOutput, "metrics", false, "print store metrics to stderr on exit")
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

func initConfig(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return &PreflightError{
			Message:  err.Error(),
			Hint:     "Fix the config file or the VISRANGE_* environment variables",
			NextStep: "visrange --config <path> --help",
		}
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       os.Stderr,
		EnableCaller: cfg.Logging.EnableCaller,
	}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		logCfg.Output = f
	}
	logging.Init(logCfg)

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	appConfig = cfg
	logging.Debug().Str("config_file", loader.ConfigFileUsed()).Msg("configuration loaded")
	return nil
}

func finish(cmd *cobra.Command, args []string) error {
	if logFile != nil {
		defer func() {
			_ = logFile.Close()
			logFile = nil
		}()
	}
	if !metricsOutput {
		return nil
	}
	return writeMetrics(os.Stderr, metricsRegistry)
}

func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return appConfig
}

// IsJSONOutput reports whether --json was given.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsJSONLOutput reports whether --jsonl was given.
func IsJSONLOutput() bool {
	return jsonlOutput
}

// IsQuiet reports whether --quiet was given.
func IsQuiet() bool {
	return quiet
}

// IsNonInteractive reports whether prompts and the TUI are disabled.
func IsNonInteractive() bool {
	return nonInteractive || !hasTTY()
}

// WriteOutput writes v as JSON. With --jsonl, slices are written one
// element per line.
func WriteOutput(w io.Writer, v any) error {
	if IsJSONLOutput() {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			enc := json.NewEncoder(w)
			for i := 0; i < rv.Len(); i++ {
				if err := enc.Encode(rv.Index(i).Interface()); err != nil {
					return err
				}
			}
			return nil
		}
		return json.NewEncoder(w).Encode(v)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PreflightError is an error with a hint on how to fix it.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}
	if e.NextStep != "" {
		b.WriteString("\n  try:  ")
		b.WriteString(e.NextStep)
	}
	return b.String()
}
