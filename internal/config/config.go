package config

import (
	"errors"
	"os"
)

// ErrNoExportTarget is returned when neither an output folder nor a database
// path is configured; the pipeline has nowhere to write.
var ErrNoExportTarget = errors.New("no export target selected: set an output folder and/or a database path")

// Config holds all application configuration
type Config struct {
	// Export targets (both optional, at least one required to run)
	OutputDir    string
	DatabasePath string

	// Logging configuration
	LogLevel string

	// MetricsAddr, when set, exposes Prometheus metrics over HTTP for the
	// duration of the run.
	MetricsAddr string
}

// ExportTargets names the writer destinations explicitly. An empty field
// short-circuits that writer only.
type ExportTargets struct {
	OutputDir    string
	DatabasePath string
}

// HasFolder reports whether the GPX/CSV writer has a destination.
func (t ExportTargets) HasFolder() bool { return t.OutputDir != "" }

// HasStore reports whether the spatial store writer has a destination.
func (t ExportTargets) HasStore() bool { return t.DatabasePath != "" }

// Load reads configuration from environment variables. All values are
// optional here; Targets validates that at least one export target exists
// once flag overrides have been applied.
func Load() (*Config, error) {
	cfg := &Config{
		OutputDir:    getEnv("FIT_OUTPUT_DIR", ""),
		DatabasePath: getEnv("FIT_DATABASE_PATH", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		MetricsAddr:  getEnv("FIT_METRICS_ADDR", ""),
	}
	return cfg, nil
}

// Targets resolves the configured export targets, failing when both are
// absent.
func (c *Config) Targets() (ExportTargets, error) {
	t := ExportTargets{OutputDir: c.OutputDir, DatabasePath: c.DatabasePath}
	if !t.HasFolder() && !t.HasStore() {
		return ExportTargets{}, ErrNoExportTarget
	}
	return t, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
