package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/rando-engine/pkg/queue"
)

// RequestsKey is the Redis list holding pending seed jobs.
const RequestsKey = "rando:requests"

// SeedQueue is the global FIFO of seed generation jobs
type SeedQueue struct {
	client *Client
}

func NewSeedQueue(client *Client) *SeedQueue {
	return &SeedQueue{client: client}
}

// Enqueue builds a request for a new seed job and appends it to the queue
func (sq *SeedQueue) Enqueue(ctx context.Context, seedID uuid.UUID, seed uint64, tier string) (*queue.Request, error) {
	req := &queue.Request{
		RequestID:  uuid.New().String(),
		SeedID:     seedID,
		Seed:       seed,
		Tier:       tier,
		EnqueuedAt: time.Now(),
	}
	if err := sq.EnqueueRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// EnqueueRequest appends a request to the end of the queue
func (sq *SeedQueue) EnqueueRequest(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := sq.client.rdb.RPush(ctx, RequestsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	sq.client.logger.Debug("Seed request enqueued", "request_id", req.RequestID, "seed_id", req.SeedID.String())
	return nil
}

// DequeueRequest removes and returns the next request from the queue
// Returns nil if queue is empty
func (sq *SeedQueue) DequeueRequest(ctx context.Context) (*queue.Request, error) {
	result, err := sq.client.rdb.LPop(ctx, RequestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	req, err := queue.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// BlockingDequeueRequest waits up to timeout for a request. It returns nil
// when the timeout passes with the queue still empty.
func (sq *SeedQueue) BlockingDequeueRequest(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := sq.client.rdb.BLPop(ctx, timeout, RequestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// RequestQueueDepth returns the number of requests in the queue
func (sq *SeedQueue) RequestQueueDepth(ctx context.Context) (int, error) {
	count, err := sq.client.rdb.LLen(ctx, RequestsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request queue depth: %w", err)
	}
	return int(count), nil
}
