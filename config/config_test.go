package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_PATH", "RECOMPUTE_WORKERS", "ENABLE_ADMIN_GUARD", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "plant.db", cfg.DBPath)
	assert.Equal(t, 4, cfg.RecomputeWorkers)
	assert.Equal(t, 200, cfg.RecomputePageSize)
	assert.False(t, cfg.EnableAdminGuard)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/plant")
	t.Setenv("RECOMPUTE_WORKERS", "16")
	t.Setenv("RECOMPUTE_PAGE_SIZE", "-3")
	t.Setenv("ENABLE_ADMIN_GUARD", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 16, cfg.RecomputeWorkers)
	assert.Equal(t, 200, cfg.RecomputePageSize)
	assert.True(t, cfg.EnableAdminGuard)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "***", cfg.Redacted().DatabaseURL)
	assert.Equal(t, "postgres://u:p@localhost/plant", cfg.DatabaseURL)
}
