package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

const DefaultSessionTTL = 24 * time.Hour

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Redis session store
	RedisURL   string
	SessionTTL time.Duration

	// OpenRouter credentials. The key never appears in session state,
	// snapshots, or share links.
	OpenRouterAPIKey string
	ModelName        string

	// BaseURL is the public URL share links are built against.
	BaseURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		SessionTTL:       DefaultSessionTTL,
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		ModelName:        getEnv("MODEL_NAME", "mistralai/mistral-small-3.1-24b-instruct:free"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
	}

	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", ttl, err)
		}
		cfg.SessionTTL = d
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
