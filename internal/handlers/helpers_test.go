package handlers

import (
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/rando-engine/internal/services/events"
	"github.com/jwebster45206/rando-engine/internal/services/queue"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

type fixture struct {
	mr          *miniredis.Miniredis
	client      *queue.Client
	queue       *queue.SeedQueue
	broadcaster *events.Broadcaster
	store       *storage.MockStorage
}

func tinyMap(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	hub := graph.VertexKey{Room: 1, Node: 0}
	b.AddItemLocation("Hub Item", 1, 0)
	b.AddStartLocation("Hub", hub)
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := queue.NewClient("redis://"+mr.Addr(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := storage.NewMockStorage()
	store.AddMap("tiny", tinyMap(t))
	return &fixture{
		mr:          mr,
		client:      client,
		queue:       queue.NewSeedQueue(client),
		broadcaster: events.NewBroadcaster(client.GetRedisClient(), testLogger()),
		store:       store,
	}
}

