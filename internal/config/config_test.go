package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenvote.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected defaults %+v, got %+v", Default(), cfg)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
listenAddress: "127.0.0.1:9000"
databasePath: "/var/lib/tokenvote/votes.db"
baseURL: "https://vote.example.org"
logLevel: debug
logFormat: json
sweepInterval: 5s
autoAdvance: false
shutdownTimeout: 1m
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	expected := &Config{
		ListenAddress:   "127.0.0.1:9000",
		DatabasePath:    "/var/lib/tokenvote/votes.db",
		BaseURL:         "https://vote.example.org",
		LogLevel:        "debug",
		LogFormat:       "json",
		SweepInterval:   5 * time.Second,
		AutoAdvance:     false,
		MetricsEnabled:  true,
		ShutdownTimeout: time.Minute,
	}
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf("expected %+v, got %+v", expected, cfg)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "listenAddress: \":7000\"\nsweepInterval: 5s\n")
	t.Setenv("TOKENVOTE_LISTEN_ADDRESS", ":7001")
	t.Setenv("TOKENVOTE_SWEEP_INTERVAL", "2m")
	t.Setenv("TOKENVOTE_METRICS_ENABLED", "false")
	t.Setenv("TOKENVOTE_HTTP_LOGGING", "true")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ListenAddress != ":7001" {
		t.Errorf("expected env listen address, got %s", cfg.ListenAddress)
	}
	if cfg.SweepInterval != 2*time.Minute {
		t.Errorf("expected 2m sweep interval, got %s", cfg.SweepInterval)
	}
	if cfg.MetricsEnabled || !cfg.HTTPLogging {
		t.Errorf("expected metrics off and HTTP logging on, got %+v", cfg)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "listenAddress: [unterminated\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero sweep interval", func(c *Config) { c.SweepInterval = 0 }},
		{"negative shutdown timeout", func(c *Config) { c.ShutdownTimeout = -time.Second }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
		{"empty listen address", func(c *Config) { c.ListenAddress = "" }},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoggerOptions(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"

	opts := cfg.LoggerOptions()

	if opts.Level != slog.LevelWarn || opts.Format != "json" {
		t.Errorf("unexpected logger options %+v", opts)
	}
}
