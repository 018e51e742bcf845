package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client, err := NewClient("redis://"+mr.Addr(), logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create queue client: %v", err)
	}

	return client, mr
}

func TestSeedQueue_EnqueueAndDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	sq := NewSeedQueue(client)
	ctx := context.Background()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, id := range ids {
		req, err := sq.Enqueue(ctx, id, uint64(100+i), "Expert")
		require.NoError(t, err)
		assert.NotEmpty(t, req.RequestID)
		assert.False(t, req.EnqueuedAt.IsZero())
	}

	depth, err := sq.RequestQueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, depth)

	// First in, first out.
	for i, id := range ids {
		req, err := sq.DequeueRequest(ctx)
		require.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, id, req.SeedID)
		assert.Equal(t, uint64(100+i), req.Seed)
		assert.Equal(t, "Expert", req.Tier)
	}

	req, err := sq.DequeueRequest(ctx)
	require.NoError(t, err)
	assert.Nil(t, req, "empty queue")
}

func TestSeedQueue_BlockingDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	sq := NewSeedQueue(client)
	ctx := context.Background()

	req, err := sq.BlockingDequeueRequest(ctx, time.Second)
	require.NoError(t, err)
	assert.Nil(t, req, "timeout on an empty queue is not an error")

	id := uuid.New()
	_, err = sq.Enqueue(ctx, id, 9, "")
	require.NoError(t, err)

	req, err = sq.BlockingDequeueRequest(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, id, req.SeedID)
}

func TestSeedQueue_SkipsGarbage(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	sq := NewSeedQueue(client)
	_, err := mr.Push(RequestsKey, "not json")
	require.NoError(t, err)

	_, err = sq.DequeueRequest(context.Background())
	assert.ErrorContains(t, err, "failed to parse request")

	depth, err := sq.RequestQueueDepth(context.Background())
	require.NoError(t, err)
	assert.Zero(t, depth, "a bad request is dropped, not retried forever")
}
