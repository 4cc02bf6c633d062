package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("SIGNING_PRIVATE_KEY", "deadbeef")
}

func TestLoad_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.AdmissionLockTTL)
	assert.Equal(t, int64(100_000), cfg.AuditLog.MaxEntriesPerMarket)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ADMISSION_LOCK_TTL_MS", "2000")
	t.Setenv("MAX_AUDIT_ENTRIES_PER_MARKET", "500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.AdmissionLockTTL)
	assert.Equal(t, int64(500), cfg.AuditLog.MaxEntriesPerMarket)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("SIGNING_PRIVATE_KEY", "deadbeef")
	_, err := Load()
	assert.Error(t, err)
}
