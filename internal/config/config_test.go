package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "DATA_DIR", "PRESETS_FILE", "TIER",
		"MAX_MAP_ATTEMPTS", "MAX_ITEM_ATTEMPTS", "ATTEMPT_WORKERS"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "Default", cfg.Tier)
	assert.Equal(t, 10, cfg.MaxMapAttempts)
	assert.Equal(t, 10, cfg.MaxItemAttempts)
	assert.Equal(t, 4, cfg.AttemptWorkers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("TIER", "Expert")
	t.Setenv("MAX_MAP_ATTEMPTS", "3")
	t.Setenv("MAX_ITEM_ATTEMPTS", "7")
	t.Setenv("ATTEMPT_WORKERS", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "Expert", cfg.Tier)
	assert.Equal(t, 3, cfg.MaxMapAttempts)
	assert.Equal(t, 7, cfg.MaxItemAttempts)
	assert.Equal(t, 1, cfg.AttemptWorkers)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"MAX_MAP_ATTEMPTS", "many"},
		{"MAX_ITEM_ATTEMPTS", "0"},
		{"ATTEMPT_WORKERS", "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
