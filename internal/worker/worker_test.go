package worker

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

	"github.com/jwebster45206/rando-engine/internal/services/queue"
	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	queuePkg "github.com/jwebster45206/rando-engine/pkg/queue"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/requirement"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func key(room, node int) graph.VertexKey { return graph.VertexKey{Room: room, Node: node} }

// twoRoomMap has two free item locations next to the hub and, when sealed is
// set, a third that can never be reached.
func twoRoomMap(t *testing.T, sealed bool) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	b.AddLink(key(1, 0), key(1, 1), requirement.Free(), "Walk", "")
	b.AddLink(key(1, 1), key(1, 0), requirement.Free(), "Walk Back", "")
	b.AddItemLocation("Hub Item", 1, 0)
	b.AddItemLocation("Side Item", 1, 1)
	if sealed {
		b.AddLink(key(1, 0), key(2, 0), requirement.Never(), "Sealed Door", "")
		b.AddItemLocation("Vault", 2, 0)
	}
	b.AddStartLocation("Hub", key(1, 0))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

type fixture struct {
	mr     *miniredis.Miniredis
	store  *storage.MockStorage
	queue  *queue.SeedQueue
	worker *Worker
}

func setup(t *testing.T, g *graph.Graph) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := queue.NewClient("redis://"+mr.Addr(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := storage.NewMockStorage()
	store.AddMap("only", g)
	expert := difficulty.Default()
	expert.Name = "Expert"
	store.SetPresets([]difficulty.Config{difficulty.Default(), expert})

	budget := randomize.Budget{MapAttempts: 2, ItemAttempts: 3}
	processor := NewSeedProcessor(store, "Default", budget, 2, testLogger())
	sq := queue.NewSeedQueue(client)
	w := New(sq, processor, store, client.GetRedisClient(), testLogger(), "worker-test")
	t.Cleanup(w.Stop)
	return &fixture{mr: mr, store: store, queue: sq, worker: w}
}

func TestWorkerGeneratesSeed(t *testing.T) {
	f := setup(t, twoRoomMap(t, false))
	ctx := context.Background()
	id := uuid.New()
	_, err := f.queue.Enqueue(ctx, id, 42, "")
	require.NoError(t, err)

	require.NoError(t, f.worker.processNextRequest())

	status, err := f.store.GetStatus(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, storage.SeedCompleted, status.State)
	assert.Equal(t, "worker-test", status.WorkerID)
	assert.GreaterOrEqual(t, status.Attempts, 1)

	res, err := f.store.LoadRandomization(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, id.String(), res.ID)
	assert.Equal(t, uint64(42), res.Seed)
	assert.Equal(t, "only", res.Map)
	assert.Len(t, res.Placement, 2)

	assert.False(t, f.mr.Exists(lockKey(id)), "lock released")
}

func TestWorkerRecordsFailures(t *testing.T) {
	tests := []struct {
		name     string
		sealed   bool
		tier     string
		attempts int
		errText  string
	}{
		{name: "unknown tier", tier: "Nightmare", errText: "unknown tier"},
		{name: "budget exhausted", sealed: true, tier: "Expert", attempts: 6, errText: "attempt budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, twoRoomMap(t, tt.sealed))
			ctx := context.Background()
			id := uuid.New()
			_, err := f.queue.Enqueue(ctx, id, 7, tt.tier)
			require.NoError(t, err)

			require.NoError(t, f.worker.processNextRequest())

			status, err := f.store.GetStatus(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, status)
			assert.Equal(t, storage.SeedFailed, status.State)
			assert.Contains(t, status.Error, tt.errText)
			assert.Equal(t, tt.attempts, status.Attempts)

			res, err := f.store.LoadRandomization(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, res)
		})
	}
}

func TestWorkerRequeuesLockedSeed(t *testing.T) {
	f := setup(t, twoRoomMap(t, false))
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, f.mr.Set(lockKey(id), "someone-else"))
	_, err := f.queue.Enqueue(ctx, id, 1, "")
	require.NoError(t, err)

	lockRetryDelay = 50 * time.Millisecond
	t.Cleanup(func() { lockRetryDelay = 2 * time.Second })

	started := time.Now()
	require.NoError(t, f.worker.processNextRequest())
	assert.GreaterOrEqual(t, time.Since(started), lockRetryDelay, "waits before re-queueing")

	depth, err := f.queue.RequestQueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
	status, err := f.store.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, status)

	// Releasing someone else's lock must leave it in place.
	f.worker.releaseSeedLock(id)
	owner, err := f.mr.Get(lockKey(id))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", owner)
}

func TestWorkerRequeuesLockedSeedOnShutdown(t *testing.T) {
	f := setup(t, twoRoomMap(t, false))
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, f.mr.Set(lockKey(id), "someone-else"))
	_, err := f.queue.Enqueue(ctx, id, 1, "")
	require.NoError(t, err)

	lockRetryDelay = time.Minute
	t.Cleanup(func() { lockRetryDelay = 2 * time.Second })

	done := make(chan error, 1)
	go func() { done <- f.worker.processNextRequest() }()
	require.Eventually(t, func() bool {
		depth, err := f.queue.RequestQueueDepth(ctx)
		return err == nil && depth == 0
	}, time.Second, 5*time.Millisecond)
	f.worker.cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker kept waiting after shutdown")
	}
	depth, err := f.queue.RequestQueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth, "the request is back on the queue")
}

func TestWorkerAppliesOverrides(t *testing.T) {
	f := setup(t, twoRoomMap(t, false))
	doors := "ammo"
	start := true
	tiers, err := f.worker.processor.Tiers(context.Background(), &queuePkg.Request{Tier: "Expert", DoorsMode: &doors, RandomizedStart: &start})
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, difficulty.DoorsAmmo, tiers[1].DoorsMode)
	assert.True(t, tiers[1].RandomizedStart)

	presets, err := f.store.LoadPresets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, difficulty.DoorsBlue, presets[1].DoorsMode, "presets are not modified")
}

func TestWorkerStartStop(t *testing.T) {
	f := setup(t, twoRoomMap(t, false))
	done := make(chan error, 1)
	go func() { done <- f.worker.Start() }()

	id := uuid.New()
	_, err := f.queue.Enqueue(context.Background(), id, 3, "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		status, _ := f.store.GetStatus(context.Background(), id)
		return status != nil && status.State == storage.SeedCompleted
	}, 10*time.Second, 50*time.Millisecond)

	f.worker.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop")
	}
}
