package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Forecast.Horizon != 5 || cfg.Model.Seed != 42 || cfg.Model.Trees != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg.Model)
	}
	if cfg.Location().String() != "Africa/Cairo" {
		t.Fatalf("unexpected location %s", cfg.Location())
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecaster.yaml")
	body := []byte(`
forecast:
  horizon: 3
  timezone: Europe/Prague
model:
  trees: 20
runHistory:
  retention: 2h
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv("MODEL_SEED", "7")
	t.Setenv("FORECAST_HORIZON", "4")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Forecast.Horizon != 4 {
		t.Fatalf("env should override file horizon, got %d", cfg.Forecast.Horizon)
	}
	if cfg.Model.Trees != 20 {
		t.Fatalf("file should set trees, got %d", cfg.Model.Trees)
	}
	if cfg.Model.Seed != 7 {
		t.Fatalf("env should set seed, got %d", cfg.Model.Seed)
	}
	if cfg.RunHistory.Retention != 2*time.Hour {
		t.Fatalf("unexpected retention %s", cfg.RunHistory.Retention)
	}
	if cfg.Location().String() != "Europe/Prague" {
		t.Fatalf("unexpected location %s", cfg.Location())
	}
	if cfg.Model.TestFraction != 0.2 {
		t.Fatalf("default test fraction lost: %v", cfg.Model.TestFraction)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"horizon", func(c *Config) { c.Forecast.Horizon = 0 }},
		{"trees", func(c *Config) { c.Model.Trees = -1 }},
		{"fraction", func(c *Config) { c.Model.TestFraction = 1 }},
		{"timezone", func(c *Config) { c.Forecast.Timezone = "Mars/Olympus" }},
		{"history", func(c *Config) { c.History.Source = "" }},
	}

	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tt.name)
		}
	}
}
