// Package config provides application configuration loaded from
// environment variables with defaults and validation. It centralizes
// the bot token, database path, default language, presentation flags,
// outbound rate limiting, and logging settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Config holds all configuration values for the application.
type Config struct {
	// Telegram
	BotToken  string  // TELEGRAM_TOKEN
	SendRPS   float64 // outbound messages per second (> 0)
	SendBurst int     // token bucket size (>= 1)

	// App
	DBPath          string       // SQLite path
	DefaultLanguage language.Tag // fallback for users without a language code
	FullOrderInfo   bool         // include buyer identity/date in customer receipts

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Observability
	MetricsAddr string // listen address for /metrics, empty disables it
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies
// defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		BotToken:  getenv("TELEGRAM_TOKEN", ""),
		SendRPS:   getfloat("SEND_RPS", 25.0),
		SendBurst: getint("SEND_BURST", 5),

		DBPath:        getenv("DB_PATH", "store.db"),
		FullOrderInfo: getbool("FULL_ORDER_INFO", true),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		MetricsAddr: getenv("METRICS_ADDR", ":9090"),
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.SendRPS <= 0 {
		return cfg, errors.New("SEND_RPS must be > 0")
	}
	if cfg.SendBurst < 1 {
		return cfg, errors.New("SEND_BURST must be >= 1")
	}

	raw := getenv("DEFAULT_LANGUAGE", "en")
	tag, err := language.Parse(raw)
	if err != nil {
		return cfg, errors.New("DEFAULT_LANGUAGE must be a valid BCP-47 tag")
	}
	cfg.DefaultLanguage = tag

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
