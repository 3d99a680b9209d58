package config

import (
	"time"

	"github.com/vietddude/nkiru/internal/analytics"
	"github.com/vietddude/nkiru/internal/core/retry"
	"github.com/vietddude/nkiru/internal/infra/postgrest"
	redisclient "github.com/vietddude/nkiru/internal/infra/redis"
	"github.com/vietddude/nkiru/internal/infra/storage/postgres"
)

// Backend drivers.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	Backend   BackendConfig    `yaml:"backend"`
	Database  postgres.Config  `yaml:"database"`
	Redis     RedisConfig      `yaml:"redis"`
	Retry     retry.Policy     `yaml:"retry"`
	Analytics analytics.Config `yaml:"analytics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// BackendConfig selects where rows live.
type BackendConfig struct {
	Driver           string `yaml:"driver"` // rest, postgres, memory
	postgrest.Config `yaml:",inline"`
}

// RedisConfig enables the project cache when URL is set.
type RedisConfig struct {
	redisclient.Config `yaml:",inline"`
}
