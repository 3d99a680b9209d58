package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/nkiru/internal/core/retry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Backend.Driver == "" {
		switch {
		case cfg.Backend.URL != "":
			cfg.Backend.Driver = BackendREST
		case cfg.Database.URL != "":
			cfg.Backend.Driver = BackendPostgres
		default:
			cfg.Backend.Driver = BackendMemory
		}
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}

	// Unset retry fields fall back individually.
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = retry.DefaultPolicy.MaxAttempts
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = retry.DefaultPolicy.InitialDelay
	}
	if cfg.Retry.BackoffMultiplier == 0 {
		cfg.Retry.BackoffMultiplier = retry.DefaultPolicy.BackoffMultiplier
	}

	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 5 * time.Minute
	}
	if cfg.Analytics.Endpoint == "" {
		cfg.Analytics.Endpoint = "https://www.google-analytics.com/mp/collect"
	}
}

// Validate checks the settings the selected backend needs.
func (c *AppConfig) Validate() error {
	switch c.Backend.Driver {
	case BackendREST:
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required for the rest backend")
		}
		u, err := url.Parse(c.Backend.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("backend.url must be a valid URL: %q", c.Backend.URL)
		}
		if c.Backend.AnonKey == "" {
			return fmt.Errorf("backend.anon_key is required for the rest backend")
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend driver %q", c.Backend.Driver)
	}

	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}
