package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/rando-engine/pkg/randomize"
	store "github.com/jwebster45206/rando-engine/pkg/storage"
)

const seedTTL = 24 * time.Hour

// RedisStorage implements the Storage interface using Redis for seeds
// and filesystem for logic data (maps, presets)
type RedisStorage struct {
	client      *redis.Client
	logger      *slog.Logger
	dataDir     string
	presetsFile string

	maps *MapDir
}

// Ensure RedisStorage implements Storage interface
var _ store.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. presetsFile defaults
// to presets.yaml in dataDir.
func NewRedisStorage(redisURL, dataDir, presetsFile string, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:      redis.NewClient(opt),
		logger:      logger,
		dataDir:     dataDir,
		presetsFile: presetsFile,
		maps:        NewMapDir(filepath.Join(dataDir, "maps"), logger),
	}, nil
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Seed operations (Redis-backed)

func seedKey(id uuid.UUID) string   { return "seed:" + id.String() }
func statusKey(id uuid.UUID) string { return "seed-status:" + id.String() }

func (r *RedisStorage) SaveRandomization(ctx context.Context, id uuid.UUID, res *randomize.Randomization) error {
	if res == nil {
		return errors.New("randomization cannot be nil")
	}
	res.ID = id.String()
	data, err := json.Marshal(res)
	if err != nil {
		r.logger.Error("Failed to marshal randomization", "seed_id", id, "error", err)
		return fmt.Errorf("failed to marshal randomization: %w", err)
	}

	if err := r.client.Set(ctx, seedKey(id), data, seedTTL).Err(); err != nil {
		r.logger.Error("Failed to save randomization", "seed_id", id, "error", err)
		return fmt.Errorf("failed to save randomization: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadRandomization(ctx context.Context, id uuid.UUID) (*randomize.Randomization, error) {
	data, err := r.client.Get(ctx, seedKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load randomization", "seed_id", id, "error", err)
		return nil, fmt.Errorf("failed to load randomization: %w", err)
	}

	var res randomize.Randomization
	if err := json.Unmarshal(data, &res); err != nil {
		r.logger.Error("Failed to unmarshal randomization", "seed_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal randomization: %w", err)
	}
	return &res, nil
}

func (r *RedisStorage) SetStatus(ctx context.Context, status *store.SeedStatus) error {
	if status == nil {
		return errors.New("status cannot be nil")
	}
	status.UpdatedAt = time.Now()
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal seed status: %w", err)
	}
	if err := r.client.Set(ctx, statusKey(status.ID), data, seedTTL).Err(); err != nil {
		r.logger.Error("Failed to save seed status", "seed_id", status.ID, "error", err)
		return fmt.Errorf("failed to save seed status: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetStatus(ctx context.Context, id uuid.UUID) (*store.SeedStatus, error) {
	data, err := r.client.Get(ctx, statusKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load seed status: %w", err)
	}

	var status store.SeedStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed status: %w", err)
	}
	return &status, nil
}
