package config

import (
	"os"
	"strconv"
	"time"

	"labrat/internal/errors"
)

// SessionBackend selects the keyed blob store implementation.
type SessionBackend string

const (
	BackendMemory   SessionBackend = "memory"
	BackendRedis    SessionBackend = "redis"
	BackendPostgres SessionBackend = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Ops     OpsConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
}

// SessionConfig holds dataset session store settings
type SessionConfig struct {
	Backend     SessionBackend
	TTL         time.Duration
	RedisAddr   string
	RedisDB     int
	DatabaseURL string
}

// OpsConfig holds health/pprof sidecar settings
type OpsConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:        getEnvOrDefault("PORT", "8080"),
			GinMode:     getEnvOrDefault("GIN_MODE", "debug"),
			CORSOrigins: []string{getEnvOrDefault("CORS_ORIGIN", "http://localhost:5173")},
		},
		Session: SessionConfig{
			Backend:     SessionBackend(getEnvOrDefault("SESSION_BACKEND", string(BackendMemory))),
			TTL:         getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
			RedisAddr:   getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisDB:     getEnvIntOrDefault("REDIS_DB", 0),
			DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Ops: OpsConfig{
			Port:    getEnvOrDefault("OPS_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("OPS_ENABLED", true),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	switch config.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if config.Session.RedisAddr == "" {
			return errors.ConfigInvalid("REDIS_ADDR is required for the redis session backend")
		}
	case BackendPostgres:
		if config.Session.DatabaseURL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the postgres session backend")
		}
	default:
		return errors.ConfigInvalid("SESSION_BACKEND must be one of memory, redis, postgres")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
