package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "DATABASE_URL", "DATABASE_SQL_DRIVER",
	"HTTP_ADDR", "BETTER_AUTH_SECRET", "CORS_ORIGINS", "TELEGRAM_TOKEN",
	"REPORT_INTERVAL_HOURS", "REPORT_AT",
}

// clearEnv blanks every key Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BETTER_AUTH_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "sqlite://todo.db", cfg.DatabaseURL)
	assert.Equal(t, "pgx", cfg.DatabaseSQLDriver)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval)
	assert.False(t, cfg.BotEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BETTER_AUTH_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://todo@db/todo")
	t.Setenv("DATABASE_SQL_DRIVER", "postgres")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TELEGRAM_TOKEN", " 123:abc ")
	t.Setenv("REPORT_INTERVAL_HOURS", "1.5")
	t.Setenv("REPORT_AT", "08:30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "postgres", cfg.DatabaseSQLDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, 90*time.Minute, cfg.ReportInterval)
	assert.Equal(t, "08:30", cfg.ReportAt)
}

func TestLoad_RequiresAuthSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.ErrorContains(t, err, "BETTER_AUTH_SECRET")
}

func TestParseInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseInterval(""))
	assert.Equal(t, time.Duration(0), parseInterval("-2"))
	assert.Equal(t, time.Duration(0), parseInterval("soon"))
	assert.Equal(t, 3*time.Hour, parseInterval("3"))
}
