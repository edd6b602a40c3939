package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "STORE_BACKEND", "KAFKA_BROKERS", "SESSION_TTL", "AUDIT_WORKERS", "PASSWORD_HASHER", "SEED_CATALOG"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendBadger, cfg.StoreBackend)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 4, cfg.AuditWorkers)
	assert.Equal(t, "sha256", cfg.PasswordHasher)
	assert.Equal(t, "changeme123", cfg.ImportDefaultPassword)
	assert.True(t, cfg.SeedCatalog)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("AUDIT_WORKERS", "12")
	t.Setenv("SEED_CATALOG", "false")

	cfg := Load()
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 12, cfg.AuditWorkers)
	assert.False(t, cfg.SeedCatalog)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("AUDIT_WORKERS", "-3")

	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 4, cfg.AuditWorkers)
}
