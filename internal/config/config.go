package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL    string
	DataDir     string
	PresetsFile string

	// Tier is the default hardest difficulty preset for requests that do
	// not name one.
	Tier string

	MaxMapAttempts  int
	MaxItemAttempts int
	// AttemptWorkers is how many map attempts a worker runs at once.
	AttemptWorkers int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    ParseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		DataDir:     getEnv("DATA_DIR", "./data"),
		PresetsFile: getEnv("PRESETS_FILE", ""),
		Tier:        getEnv("TIER", "Default"),
	}

	var err error
	if cfg.MaxMapAttempts, err = getEnvInt("MAX_MAP_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if cfg.MaxItemAttempts, err = getEnvInt("MAX_ITEM_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if cfg.AttemptWorkers, err = getEnvInt("ATTEMPT_WORKERS", 4); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseLogLevel maps a level name to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
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

// getEnvInt reads a positive integer.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s %q: must be at least 1", key, value)
	}
	return n, nil
}
