package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string
	Timezone    string
	Environment string
	LogLevel    string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	SeedFile          string
	RecomputeWorkers  int
	RecomputePageSize int
	EnableAdminGuard  bool

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

func Load() AppConfig {
	loaded := godotenv.Load() == nil

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	getInt := func(k string, def int) int {
		if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
			return v
		}
		return def
	}
	getBool := func(k string, def bool) bool {
		if v, err := strconv.ParseBool(os.Getenv(k)); err == nil {
			return v
		}
		return def
	}

	return AppConfig{
		Port:              get("PORT", "8080"),
		Timezone:          get("TZ", "Asia/Kolkata"),
		Environment:       get("ENVIRONMENT", "development"),
		LogLevel:          strings.ToLower(get("LOG_LEVEL", "info")),
		DBDriver:          strings.ToLower(get("DB_DRIVER", "sqlite")),
		DBPath:            get("DB_PATH", "plant.db"),
		DatabaseURL:       get("DATABASE_URL", ""),
		SeedFile:          get("SEED_FILE", ""),
		RecomputeWorkers:  getInt("RECOMPUTE_WORKERS", 4),
		RecomputePageSize: getInt("RECOMPUTE_PAGE_SIZE", 200),
		EnableAdminGuard:  getBool("ENABLE_ADMIN_GUARD", false),
		EnvFileLoaded:     loaded,
	}
}

// Redacted returns a copy safe to log.
func (c AppConfig) Redacted() AppConfig {
	if c.DatabaseURL != "" {
		c.DatabaseURL = "***"
	}
	return c
}
