package config

import (
	"errors"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FIT_OUTPUT_DIR", "")
	t.Setenv("FIT_DATABASE_PATH", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.OutputDir != "" {
		t.Errorf("Expected empty output dir, got %q", cfg.OutputDir)
	}
	if cfg.DatabasePath != "" {
		t.Errorf("Expected empty database path, got %q", cfg.DatabasePath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %q", cfg.LogLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FIT_OUTPUT_DIR", "/tmp/out")
	t.Setenv("FIT_DATABASE_PATH", "/tmp/fit.sqlite")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("Expected /tmp/out, got %q", cfg.OutputDir)
	}
	if cfg.DatabasePath != "/tmp/fit.sqlite" {
		t.Errorf("Expected /tmp/fit.sqlite, got %q", cfg.DatabasePath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug, got %q", cfg.LogLevel)
	}
}

func TestTargets(t *testing.T) {
	t.Run("NoTarget", func(t *testing.T) {
		cfg := &Config{}
		_, err := cfg.Targets()
		if !errors.Is(err, ErrNoExportTarget) {
			t.Fatalf("Expected ErrNoExportTarget, got %v", err)
		}
	})

	t.Run("FolderOnly", func(t *testing.T) {
		cfg := &Config{OutputDir: "/tmp/out"}
		targets, err := cfg.Targets()
		if err != nil {
			t.Fatalf("Failed to resolve targets: %v", err)
		}
		if !targets.HasFolder() || targets.HasStore() {
			t.Errorf("Expected folder target only, got %+v", targets)
		}
	})

	t.Run("StoreOnly", func(t *testing.T) {
		cfg := &Config{DatabasePath: "/tmp/fit.sqlite"}
		targets, err := cfg.Targets()
		if err != nil {
			t.Fatalf("Failed to resolve targets: %v", err)
		}
		if targets.HasFolder() || !targets.HasStore() {
			t.Errorf("Expected store target only, got %+v", targets)
		}
	})
}
