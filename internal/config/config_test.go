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
	if cfg.Scorecard.DefaultRate != 170 || cfg.Scorecard.ReconcileThreshold != 20 || cfg.Scorecard.DefaultFunction != "ENGINEERING" {
		t.Errorf("unexpected scorecard defaults: %+v", cfg.Scorecard)
	}
	if cfg.MinIO.Enabled() {
		t.Error("archive storage should be disabled by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"default rate", func(c *Config) { c.Scorecard.DefaultRate = -1 }},
		{"threshold", func(c *Config) { c.Scorecard.ReconcileThreshold = -0.5 }},
		{"timezone", func(c *Config) { c.Scorecard.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLocation(t *testing.T) {
	loc, err := ScorecardConfig{Timezone: "Local"}.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Local = %v, %v", loc, err)
	}
	loc, err = ScorecardConfig{Timezone: "UTC"}.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("UTC = %v, %v", loc, err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `database:
  driver: sqlite
  path: test.db
scorecard:
  default_rate: 155
  reconcile_threshold: 12.5
  timezone: UTC
minio:
  endpoint: localhost:9000
  bucket: reports
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("SCORECARD_RECONCILE_THRESHOLD", "30")
	t.Setenv("IMPORT_ENCODING", "windows-1252")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "test.db" || cfg.Scorecard.DefaultRate != 155 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Scorecard.ReconcileThreshold != 30 {
		t.Errorf("env override not applied: %v", cfg.Scorecard.ReconcileThreshold)
	}
	if cfg.Import.Encoding != "windows-1252" {
		t.Errorf("import encoding = %s", cfg.Import.Encoding)
	}
	if cfg.Scorecard.DefaultFunction != "ENGINEERING" || cfg.Database.MaxOpenConns != 1 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !cfg.MinIO.Enabled() {
		t.Error("expected archive storage to be enabled")
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("SCORECARD_TEST_KEY", "set")
	if v := GetEnvOrDefault("SCORECARD_TEST_KEY", "fallback"); v != "set" {
		t.Errorf("got %s", v)
	}
	if v := GetEnvOrDefault("SCORECARD_TEST_MISSING", "fallback"); v != "fallback" {
		t.Errorf("got %s", v)
	}
}
