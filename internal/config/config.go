package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the API server and the optional bot.
type Config struct {
	AppEnv   string
	LogLevel string
	// LogFormat is text or json; production defaults to json.
	LogFormat string

	DatabaseURL       string
	DatabaseSQLDriver string

	HTTPAddr    string
	AuthSecret  string
	CORSOrigins []string

	TelegramToken  string
	ReportInterval time.Duration
	// ReportAt (HH:MM) switches the digest to a daily schedule.
	ReportAt string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DatabaseURL:       getEnv("DATABASE_URL", "sqlite://todo.db"),
		DatabaseSQLDriver: getEnv("DATABASE_SQL_DRIVER", "pgx"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
		AuthSecret:        getEnv("BETTER_AUTH_SECRET", ""),
		CORSOrigins:       getListEnv("CORS_ORIGINS", []string{"http://localhost:3000"}),
		TelegramToken:     getEnv("TELEGRAM_TOKEN", ""),
		ReportInterval:    parseInterval(getEnv("REPORT_INTERVAL_HOURS", "")),
		ReportAt:          getEnv("REPORT_AT", ""),
	}

	defaultFormat := "text"
	if cfg.IsProduction() {
		defaultFormat = "json"
	}
	cfg.LogFormat = getEnv("LOG_FORMAT", defaultFormat)

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if cfg.AuthSecret == "" {
		return cfg, fmt.Errorf("BETTER_AUTH_SECRET is required")
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// BotEnabled reports whether a Telegram token was configured.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil || hours <= 0 {
		return 0
	}
	return time.Duration(hours * float64(time.Hour))
}
