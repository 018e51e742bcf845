package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/rando-engine/internal/logger"
	"github.com/jwebster45206/rando-engine/internal/services/events"
	"github.com/jwebster45206/rando-engine/internal/services/queue"
	queuePkg "github.com/jwebster45206/rando-engine/pkg/queue"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

const (
	dequeueTimeout = 5 * time.Second
	lockTTL        = 10 * time.Minute
)

// lockRetryDelay is how long a request for a locked seed waits before it goes
// back on the queue.
var lockRetryDelay = 2 * time.Second

// releaseLock deletes a lock only if the worker still owns it.
var releaseLock = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Worker processes seed requests from the queue
type Worker struct {
	id          string
	queue       *queue.SeedQueue
	processor   *SeedProcessor
	storage     storage.Storage
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(seedQueue *queue.SeedQueue, processor *SeedProcessor, store storage.Storage, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       seedQueue,
		processor:   processor,
		storage:     store,
		broadcaster: events.NewBroadcaster(redisClient, log),
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the worker id used as lock owner
func (w *Worker) ID() string { return w.id }

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				select {
				case <-w.ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// Stop gracefully shuts down the worker. A generation in progress is
// cancelled between attempts.
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	req, err := w.queue.BlockingDequeueRequest(w.ctx, dequeueTimeout)
	if err != nil {
		if w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		// Timeout with an empty queue
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"seed_id", req.SeedID.String(),
	)

	locked, err := w.acquireSeedLock(req.SeedID)
	if err != nil {
		return fmt.Errorf("failed to acquire seed lock: %w", err)
	}
	if !locked {
		// Another worker holds this seed id; re-queue at the end after a pause
		w.log.Info("Seed already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"seed_id", req.SeedID.String(),
			"delay", lockRetryDelay,
		)
		select {
		case <-time.After(lockRetryDelay):
		case <-w.ctx.Done():
		}
		// The request must survive shutdown, so it is not tied to the worker context.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := w.queue.EnqueueRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	defer w.releaseSeedLock(req.SeedID)
	return w.processRequest(req)
}

func lockKey(seedID uuid.UUID) string {
	return fmt.Sprintf("seed-lock:%s", seedID.String())
}

// acquireSeedLock returns true if the lock was acquired, false if already locked
func (w *Worker) acquireSeedLock(seedID uuid.UUID) (bool, error) {
	return w.redisClient.SetNX(w.ctx, lockKey(seedID), w.id, lockTTL).Result()
}

// releaseSeedLock releases the lock for a seed
func (w *Worker) releaseSeedLock(seedID uuid.UUID) {
	// The worker context may already be cancelled during shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseLock.Run(ctx, w.redisClient, []string{lockKey(seedID)}, w.id).Err(); err != nil {
		w.log.Error("Failed to release seed lock", "error", err, "seed_id", seedID.String())
	}
}

// processRequest generates one seed and records the outcome. Generation
// failures are stored on the seed status; only infrastructure errors are
// returned.
func (w *Worker) processRequest(req *queuePkg.Request) error {
	log := logger.WithRequestID(logger.WithSeed(w.log, req.SeedID, req.Seed), req.RequestID)
	log.Info("Processing request", "worker_id", w.id, "tier", req.Tier)
	start := time.Now()

	status := &storage.SeedStatus{
		ID:       req.SeedID,
		State:    storage.SeedProcessing,
		Seed:     req.Seed,
		Tier:     req.Tier,
		WorkerID: w.id,
	}
	if err := w.storage.SetStatus(w.ctx, status); err != nil {
		return fmt.Errorf("failed to update seed status: %w", err)
	}
	if err := w.broadcaster.PublishSeedProcessing(w.ctx, req.SeedID, req.RequestID, w.id); err != nil {
		log.Error("Failed to publish processing event", "error", err)
	}

	var attempts atomic.Int64
	observe := func(a randomize.Attempt) {
		attempts.Add(1)
		if err := w.broadcaster.PublishSeedAttempt(w.ctx, req.SeedID, req.RequestID, a.MapAttempt, a.ItemAttempt, a.Map, attemptOutcome(a.Err)); err != nil {
			log.Debug("Failed to publish attempt event", "error", err)
		}
	}

	res, err := w.processor.Process(w.ctx, req, observe)
	status.Attempts = int(attempts.Load())
	if err != nil {
		if errors.Is(err, context.Canceled) && w.ctx.Err() != nil {
			// Shutting down: hand the job to another worker.
			jobsTotal.WithLabelValues(jobRequeued).Inc()
			log.Info("Generation interrupted, re-queueing request")
			return w.queue.EnqueueRequest(context.Background(), req)
		}

		jobsTotal.WithLabelValues(jobFailed).Inc()
		logger.WithError(log, err).Warn("Seed generation failed", "attempts", status.Attempts)
		status.State = storage.SeedFailed
		status.Error = err.Error()
		if serr := w.storage.SetStatus(w.ctx, status); serr != nil {
			return fmt.Errorf("failed to update seed status: %w", serr)
		}
		if perr := w.broadcaster.PublishSeedFailed(w.ctx, req.SeedID, req.RequestID, err.Error()); perr != nil {
			log.Error("Failed to publish failure event", "error", perr)
		}
		return nil
	}

	if err := w.storage.SaveRandomization(w.ctx, req.SeedID, res); err != nil {
		return fmt.Errorf("failed to save randomization: %w", err)
	}
	status.State = storage.SeedCompleted
	if err := w.storage.SetStatus(w.ctx, status); err != nil {
		return fmt.Errorf("failed to update seed status: %w", err)
	}
	jobsTotal.WithLabelValues(jobCompleted).Inc()

	log.Info("Seed request processed successfully",
		"worker_id", w.id,
		"map", res.Map,
		"attempts", status.Attempts,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	result := map[string]any{
		"map":         res.Map,
		"difficulty":  res.Difficulty,
		"start":       res.Start,
		"steps":       len(res.SpoilerLog.Summary),
		"attempts":    status.Attempts,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err := w.broadcaster.PublishSeedCompleted(w.ctx, req.SeedID, req.RequestID, result); err != nil {
		log.Error("Failed to publish completion event", "error", err)
	}
	return nil
}

func attemptOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, randomize.ErrStuck):
		return "stuck"
	case errors.Is(err, randomize.ErrStartRejected):
		return "start_rejected"
	default:
		return "error"
	}
}
