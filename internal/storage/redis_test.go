package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/resource"
	store "github.com/jwebster45206/rando-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	s, err := NewRedisStorage("redis://"+mr.Addr(), "../../data", "", testLogger())
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
		mr.Close()
	})
	return s, mr
}

func TestRandomizationRoundTrip(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()
	id := uuid.New()

	missing, err := s.LoadRandomization(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	res := &randomize.Randomization{
		Seed:       7,
		ItemSeed:   11,
		Map:        "crateria-demo",
		Difficulty: "Default",
		Start:      "Ship",
		Placement: []randomize.Placement{
			{Location: "Landing Site Pedestal", Room: 1, Node: 0, Item: resource.Morph},
		},
	}
	require.NoError(t, s.SaveRandomization(ctx, id, res))
	assert.True(t, mr.Exists("seed:"+id.String()))
	assert.Greater(t, mr.TTL("seed:"+id.String()), time.Hour)

	loaded, err := s.LoadRandomization(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, id.String(), loaded.ID)
	assert.Equal(t, res.Placement, loaded.Placement)
	assert.Equal(t, "Ship", loaded.Start)

	assert.Error(t, s.SaveRandomization(ctx, id, nil))
}

func TestStatusRoundTrip(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()
	id := uuid.New()

	missing, err := s.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.SetStatus(ctx, &store.SeedStatus{ID: id, State: store.SeedQueued, Seed: 5, Tier: "Expert"}))
	require.NoError(t, s.SetStatus(ctx, &store.SeedStatus{ID: id, State: store.SeedFailed, Seed: 5, Error: "stuck", Attempts: 100}))
	assert.True(t, mr.Exists("seed-status:"+id.String()))

	status, err := s.GetStatus(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, store.SeedFailed, status.State)
	assert.Equal(t, 100, status.Attempts)
	assert.Equal(t, "stuck", status.Error)
	assert.False(t, status.UpdatedAt.IsZero())

	mr.Set("seed-status:"+id.String(), "{not json")
	_, err = s.GetStatus(ctx, id)
	assert.Error(t, err)
}

func TestPingAndWaitForConnection(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.WaitForConnection(ctx))

	mr.Close()
	assert.Error(t, s.Ping(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := s.WaitForConnection(cancelled)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewRedisStorageRejectsBadURL(t *testing.T) {
	_, err := NewRedisStorage("://nope", "", "", testLogger())
	assert.Error(t, err)
}
