// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	GitHub   GitHubConfig
	Auth     AuthConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            string        `env:"POAC_PORT" envDefault:"8080"`
	CORSOrigins     string        `env:"POAC_CORS_ORIGINS" envDefault:"*"`
	ShutdownTimeout time.Duration `env:"POAC_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	DSN             string        `env:"POAC_DATABASE_DSN,required"`
	MaxOpenConns    int           `env:"POAC_DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"POAC_DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"POAC_DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig configures the catalog cache.
type RedisConfig struct {
	Addr     string        `env:"POAC_REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"POAC_REDIS_PASSWORD"`
	DB       int           `env:"POAC_REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"POAC_REDIS_CACHE_TTL" envDefault:"5m"`
}

// GitHubConfig configures the OAuth application used for logins.
type GitHubConfig struct {
	ClientID     string `env:"POAC_GITHUB_CLIENT_ID,required"`
	ClientSecret string `env:"POAC_GITHUB_CLIENT_SECRET,required"`
}

// AuthConfig configures the login callback behavior.
type AuthConfig struct {
	// RedirectBase is the frontend URL that receives the access token
	// and the encoded user payload after a successful login.
	RedirectBase string `env:"POAC_AUTH_REDIRECT_BASE" envDefault:"https://poac.pm/api/auth"`

	// CallTimeout bounds each provider and store call inside the
	// login callback.
	CallTimeout time.Duration `env:"POAC_AUTH_CALL_TIMEOUT" envDefault:"10s"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
