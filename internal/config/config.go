package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL         string
	RedisURL            string
	ServerAddr          string
	LogLevel            slog.Level
	ConsistencyInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            envOrDefault("REDIS_URL", "redis://localhost:6379"),
		ServerAddr:          envOrDefault("SERVER_ADDR", ":8080"),
		LogLevel:            parseLogLevel(os.Getenv("LOG_LEVEL")),
		ConsistencyInterval: parseDuration(os.Getenv("CONSISTENCY_INTERVAL"), 5*time.Minute),
	}

	if cfg.DatabaseURL == "" {
		panic("required environment variable not set: DATABASE_URL")
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
