package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads environment variables from .env files.
// Loads in priority order: .env.local (highest) → .env. Variables already
// present in the process environment are never overwritten.
func LoadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config, environ []string) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	values := envMap(environ)

	str := func(dst *string, names ...string) {
		for _, name := range names {
			if value, ok := values[name]; ok {
				*dst = value
				return
			}
		}
	}

	str(&cfg.Addr, "AFFILIFY_ADDR")
	str(&cfg.JWTSecret, "AFFILIFY_JWT_SECRET", "JWT_SECRET")
	str(&cfg.JWTIssuer, "AFFILIFY_JWT_ISSUER")
	str(&cfg.CookieName, "AFFILIFY_COOKIE_NAME")
	str(&cfg.RedisURL, "AFFILIFY_REDIS_URL", "REDIS_URL")
	str(&cfg.RedisKeyPrefix, "AFFILIFY_REDIS_KEY_PREFIX")
	str(&cfg.StoreFailureMode, "AFFILIFY_STORE_FAILURE_MODE")
	str(&cfg.Database.Driver, "AFFILIFY_DATABASE_DRIVER")
	str(&cfg.Database.DSN, "AFFILIFY_DATABASE_DSN", "DATABASE_URL")
	str(&cfg.Log.Level, "AFFILIFY_LOG_LEVEL")
	str(&cfg.Log.Backend, "AFFILIFY_LOG_BACKEND")

	if value, ok := values["AFFILIFY_LOG_DEVELOPMENT"]; ok {
		parsed, err := parseBoolEnv("AFFILIFY_LOG_DEVELOPMENT", value)
		if err != nil {
			return err
		}
		cfg.Log.Development = parsed
	}
	if value, ok := values["AFFILIFY_TOKEN_TTL"]; ok {
		parsed, err := parseDurationEnv("AFFILIFY_TOKEN_TTL", value)
		if err != nil {
			return err
		}
		cfg.TokenTTL = parsed
	}
	if value, ok := values["AFFILIFY_CLEANUP_INTERVAL"]; ok {
		parsed, err := parseDurationEnv("AFFILIFY_CLEANUP_INTERVAL", value)
		if err != nil {
			return err
		}
		cfg.CleanupInterval = parsed
	}
	return nil
}

func envMap(environ []string) map[string]string {
	values := make(map[string]string)
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = value
	}
	return values
}

func parseBoolEnv(name, value string) (bool, error) {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, errors.New("invalid env value for " + name)
	}
	return parsed, nil
}

func parseDurationEnv(name, value string) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.New("invalid env value for " + name)
	}
	return parsed, nil
}
