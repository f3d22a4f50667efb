package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/abrezinsky/tokenvote/internal/logger"
)

// EnvPrefix is the prefix of every environment override, e.g.
// TOKENVOTE_LISTEN_ADDRESS
const EnvPrefix = "tokenvote"

// Config holds the server settings. Values are layered: defaults, then the
// YAML file, then environment variables, then command-line flags.
type Config struct {
	ListenAddress   string        `yaml:"listenAddress"   split_words:"true"`
	DatabasePath    string        `yaml:"databasePath"    split_words:"true"`
	BaseURL         string        `yaml:"baseURL"         envconfig:"BASE_URL"`
	LogLevel        string        `yaml:"logLevel"        split_words:"true"`
	LogFormat       string        `yaml:"logFormat"       split_words:"true"`
	SweepInterval   time.Duration `yaml:"sweepInterval"   split_words:"true"`
	AutoAdvance     bool          `yaml:"autoAdvance"     split_words:"true"`
	MetricsEnabled  bool          `yaml:"metricsEnabled"  split_words:"true"`
	HTTPLogging     bool          `yaml:"httpLogging"     envconfig:"HTTP_LOGGING"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		ListenAddress:   ":8081",
		DatabasePath:    "tokenvote.db",
		LogLevel:        "info",
		LogFormat:       string(logger.FormatText),
		SweepInterval:   30 * time.Second,
		AutoAdvance:     true,
		MetricsEnabled:  true,
		HTTPLogging:     false,
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at configFile and TOKENVOTE_* environment variables
func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	switch logger.Format(c.LogFormat) {
	case logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// LoggerOptions returns the logger settings this configuration selects
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:  logger.ParseLevel(c.LogLevel),
		Format: logger.Format(c.LogFormat),
	}
}
