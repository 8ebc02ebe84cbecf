// Package config defines the runtime configuration shared by cmd/findexd
// and cmd/findex, following the teacher's pattern of binding a flat
// struct to cobra persistent flags in main's init, rather than a
// separate file-based config loader.
package config

import "github.com/spf13/pflag"

// Config holds the settings that control where the index lives and how
// the daemon behaves.
type Config struct {
	// Path is the on-disk location of the index database file.
	Path string

	// IndexHidden is the external crawler's toggle for indexing dot-files
	// and dot-directories. Nothing in this repository reads it.
	IndexHidden bool

	// IndexOnBattery is the external scheduler's toggle for indexing while
	// running on battery power. Nothing in this repository reads it.
	IndexOnBattery bool

	// DebugMode enables verbose diagnostic behavior in the external
	// crawler/extractor/scheduler components (e.g. per-file trace
	// logging). The core storage engine itself has no debug-mode
	// branches; this toggle only exists to be threaded through to those
	// collaborators, per the external configuration surface.
	DebugMode bool

	// LogLevel is the minimum severity emitted by the structured logger.
	LogLevel string

	// LogJSON selects JSON-formatted log output over the human-readable
	// console writer.
	LogJSON bool

	// MetricsAddr is the listen address for the /metrics, /healthz,
	// /readyz, and /livez HTTP endpoints. Empty disables the server.
	MetricsAddr string
}

// Default returns the baseline configuration before flags are applied.
func Default() Config {
	return Config{
		Path:           "index.db",
		IndexHidden:    false,
		IndexOnBattery: true,
		DebugMode:      false,
		LogLevel:       "info",
		LogJSON:        false,
		MetricsAddr:    "",
	}
}

// BindFlags registers cfg's fields against fs, the same PersistentFlags
// binding the root command uses for global flags.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Path, "path", cfg.Path, "Path to the index database file")
	fs.BoolVar(&cfg.IndexHidden, "index-hidden", cfg.IndexHidden, "Index hidden files and directories")
	fs.BoolVar(&cfg.IndexOnBattery, "index-on-battery", cfg.IndexOnBattery, "Keep indexing while on battery power")
	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "Enable verbose diagnostics in the crawler/extractor/scheduler")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Output logs in JSON format")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Listen address for metrics and health endpoints (empty disables)")
}
