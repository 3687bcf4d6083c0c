// Package config provides configuration loading using koanf.
// Precedence: environment variables, then compiled defaults.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/aelexs/todo-session-client/internal/domain"
)

// EnvPrefix is stripped from environment variable names. A double
// underscore separates nesting levels: TODO_API__BASE_URL sets api.base_url.
const EnvPrefix = "TODO_"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds all client configuration.
type Config struct {
	// Environment identifier: "local", "dev", "prod"
	Environment string `koanf:"environment"`

	// Logging configuration
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	API   APIConfig   `koanf:"api"`
	Store StoreConfig `koanf:"store"`
	Redis RedisConfig `koanf:"redis"`
	Web   WebConfig   `koanf:"web"`

	// OpenTelemetry configuration
	OTEL OTELConfig `koanf:"otel"`
}

// APIConfig locates the remote auth and todo services.
type APIConfig struct {
	BaseURL string        `koanf:"base_url"` // Required
	Timeout time.Duration `koanf:"timeout"`
}

// StoreConfig selects where the credential pair is kept.
type StoreConfig struct {
	Backend   string `koanf:"backend"`    // memory, file or redis
	Path      string `koanf:"path"`       // File backend; empty uses the user config dir
	KeyPrefix string `koanf:"key_prefix"` // Redis backend
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string        `koanf:"addr"` // Required for the redis backend
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Timeout  time.Duration `koanf:"timeout"`
}

// WebConfig holds the local view host configuration.
type WebConfig struct {
	HTTPPort int `koanf:"http_port"`
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Endpoint    string `koanf:"endpoint"` // Empty disables OTLP export
	ServiceName string `koanf:"service_name"`
}

// defaults returns a Config with compiled default values.
func defaults() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		LogFormat:   "json",

		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: domain.DefaultAPITimeout,
		},
		Store: StoreConfig{
			Backend:   StoreFile,
			KeyPrefix: "todo:session:",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			DB:      0,
			Timeout: domain.RedisTimeout,
		},
		Web: WebConfig{
			HTTPPort: 8080,
		},
	}
}

// Load loads configuration from TODO_* environment variables over compiled
// defaults. A missing or invalid required key is a startup failure.
func Load(ctx context.Context) (*Config, error) {
	k := koanf.New(".")

	// Start with compiled defaults
	cfg := defaults()

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps TODO_API__BASE_URL to api.base_url.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// validate checks required keys and value formats.
func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url", domain.ErrConfigRequired)
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q must be an absolute http(s) url", domain.ErrConfigInvalid, cfg.API.BaseURL)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", domain.ErrConfigInvalid)
	}

	switch cfg.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr", domain.ErrConfigRequired)
		}
	default:
		return fmt.Errorf("%w: store.backend %q", domain.ErrConfigInvalid, cfg.Store.Backend)
	}

	if cfg.Web.HTTPPort < 0 || cfg.Web.HTTPPort > 65535 {
		return fmt.Errorf("%w: web.http_port %d", domain.ErrConfigInvalid, cfg.Web.HTTPPort)
	}

	return nil
}

// StorePath returns the credential file location, defaulting to
// <user config dir>/todo-session/credentials.json.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve credential file: %w", err)
	}
	return filepath.Join(dir, "todo-session", "credentials.json"), nil
}

// IsLocal returns true if running in local development environment.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
