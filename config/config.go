// Package config loads the affilify-gate server configuration.
//
// Values are resolved in increasing priority: built-in defaults, the YAML
// file, then environment variables (optionally seeded from .env files).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jassus213/affilify-gate/ratelimiter"
)

// MinSecretLength is the shortest accepted JWT signing secret.
const MinSecretLength = 32

// Config is the full server configuration.
type Config struct {
	Addr string `yaml:"addr"`

	JWTSecret  string        `yaml:"jwt_secret"`
	JWTIssuer  string        `yaml:"jwt_issuer"`
	CookieName string        `yaml:"cookie_name"`
	TokenTTL   time.Duration `yaml:"token_ttl"`

	// RedisURL selects the Redis window store when set; otherwise the
	// in-memory store is used.
	RedisURL        string        `yaml:"redis_url"`
	RedisKeyPrefix  string        `yaml:"redis_key_prefix"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	// StoreFailureMode is "open" (default) or "closed".
	StoreFailureMode string `yaml:"store_failure_mode"`

	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`

	// Users seeds the in-memory user store when no database is configured.
	Users []SeedUser `yaml:"users"`
}

// DatabaseConfig selects the SQL user store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	// Backend selects the library behind admission-layer logs: zap
	// (default), zerolog, logrus or std. Server logs always use zap.
	Backend string `yaml:"backend"`
}

// Log backends accepted by LogConfig.Backend.
const (
	LogBackendZap     = "zap"
	LogBackendZerolog = "zerolog"
	LogBackendLogrus  = "logrus"
	LogBackendStd     = "std"
)

// SeedUser is a development profile.
type SeedUser struct {
	ID       string `yaml:"id"`
	Email    string `yaml:"email"`
	Plan     string `yaml:"plan"`
	Verified bool   `yaml:"verified"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Addr:             ":8080",
		CookieName:       "auth-token",
		TokenTTL:         7 * 24 * time.Hour,
		RedisKeyPrefix:   "affilify:",
		CleanupInterval:  time.Minute,
		StoreFailureMode: "open",
		Log:              LogConfig{Level: "info", Backend: LogBackendZap},
	}
}

// Load builds the configuration from path (optional) and the process
// environment.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg, os.Environ()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping unset fields.
func Parse(data []byte, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < MinSecretLength {
		return fmt.Errorf("config: jwt_secret must be at least %d bytes", MinSecretLength)
	}
	if c.Addr == "" {
		return errors.New("config: addr is required")
	}
	if _, err := c.FailureMode(); err != nil {
		return err
	}
	switch c.Log.Backend {
	case "", LogBackendZap, LogBackendZerolog, LogBackendLogrus, LogBackendStd:
	default:
		return fmt.Errorf("config: unknown log backend %q", c.Log.Backend)
	}
	if (c.Database.Driver == "") != (c.Database.DSN == "") {
		return errors.New("config: database driver and dsn must be set together")
	}
	return nil
}

// FailureMode converts StoreFailureMode.
func (c *Config) FailureMode() (ratelimiter.FailureMode, error) {
	switch c.StoreFailureMode {
	case "", "open":
		return ratelimiter.FailOpen, nil
	case "closed":
		return ratelimiter.FailClosed, nil
	default:
		return ratelimiter.FailOpen, fmt.Errorf("config: store_failure_mode must be open or closed, got %q", c.StoreFailureMode)
	}
}

// UsesRedis reports whether the shared Redis store is configured.
func (c *Config) UsesRedis() bool {
	return c.RedisURL != ""
}
