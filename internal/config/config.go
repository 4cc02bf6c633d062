// Package config loads process configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vatix-Protocol/vatix-backend/internal/auditlog"
	"github.com/Vatix-Protocol/vatix-backend/internal/persistence"
)

// Config is the top-level process configuration: environment variables
// plus the per-subsystem sub-configs they seed.
type Config struct {
	DatabaseURL       string
	RedisURL          string
	SigningPrivateKey string
	Host              string
	Port              int
	LogLevel          string
	OracleAddress     string
	AdmissionLockTTL  time.Duration
	Persistence       persistence.Config
	AuditLog          auditlog.Config
}

// Load reads process env vars (after loading a .env file, if present) into
// a Config, applying defaults for every optional variable.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		SigningPrivateKey: os.Getenv("SIGNING_PRIVATE_KEY"),
		Host:              envOr("HOST", "0.0.0.0"),
		Port:              envIntOr("PORT", 8080),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		OracleAddress:     os.Getenv("ORACLE_ADDRESS"),
		AdmissionLockTTL:  envMillisOr("ADMISSION_LOCK_TTL_MS", 5*time.Second),
		Persistence:       persistence.NewDefaultConfig(),
		AuditLog:          auditlog.NewDefaultConfig(),
	}
	cfg.Persistence.DatabaseURL = cfg.DatabaseURL

	if max := os.Getenv("MAX_AUDIT_ENTRIES_PER_MARKET"); max != "" {
		n, err := strconv.ParseInt(max, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: MAX_AUDIT_ENTRIES_PER_MARKET: %w", err)
		}
		cfg.AuditLog.MaxEntriesPerMarket = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("config: REDIS_URL is required")
	}
	if c.SigningPrivateKey == "" {
		return fmt.Errorf("config: SIGNING_PRIVATE_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envMillisOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}
