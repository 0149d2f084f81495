package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultDSN         = "host=localhost user=postgres password=postgres dbname=wastetracker port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
	minJWTSecretLength = 32
)

type Config struct {
	HTTPPort         string
	DatabaseDSN      string
	StoreDriver      string
	JWTSecret        string
	CORSOrigins      string
	LogLevel         string
	LogFormat        string
	DBConnectRetries uint64
	ShutdownTimeout  time.Duration

	// Warnings are non-fatal findings about the loaded values, e.g. defaults left in place.
	Warnings []string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	cfg := &Config{
		HTTPPort:         v.GetString("HTTP_PORT"),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		StoreDriver:      strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		JWTSecret:        v.GetString("JWT_SECRET"),
		CORSOrigins:      v.GetString("CORS_ALLOWED_ORIGINS"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		DBConnectRetries: v.GetUint64("DB_CONNECT_RETRIES"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}

	if cfg.StoreDriver == StoreDriverPostgres && cfg.DatabaseDSN == defaultDSN {
		cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN uses the default value; set your own Postgres connection for production")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		cfg.Warnings = append(cfg.Warnings, "CORS_ALLOWED_ORIGINS uses the default value; set your own domain for production")
	}

	return cfg, nil
}

// CORSOriginList splits the comma separated origins.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
