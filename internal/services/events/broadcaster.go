package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSeedQueued     EventType = "seed.queued"
	EventTypeSeedProcessing EventType = "seed.processing"
	EventTypeSeedAttempt    EventType = "seed.attempt"
	EventTypeSeedCompleted  EventType = "seed.completed"
	EventTypeSeedFailed     EventType = "seed.failed"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	SeedID    string         `json:"seed_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel is the Pub/Sub channel carrying the events of one seed job.
func Channel(seedID uuid.UUID) string {
	return fmt.Sprintf("seed-events:%s", seedID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishSeedQueued publishes a seed.queued event
func (b *Broadcaster) PublishSeedQueued(ctx context.Context, seedID uuid.UUID, requestID string, seed uint64) error {
	return b.publish(ctx, seedID, Event{
		Type:      EventTypeSeedQueued,
		RequestID: requestID,
		Data: map[string]any{
			"status": "queued",
			"seed":   seed,
		},
	})
}

// PublishSeedProcessing publishes a seed.processing event
func (b *Broadcaster) PublishSeedProcessing(ctx context.Context, seedID uuid.UUID, requestID, workerID string) error {
	return b.publish(ctx, seedID, Event{
		Type:      EventTypeSeedProcessing,
		RequestID: requestID,
		Data: map[string]any{
			"status":    "processing",
			"worker_id": workerID,
		},
	})
}

// PublishSeedAttempt reports one finished item attempt
func (b *Broadcaster) PublishSeedAttempt(ctx context.Context, seedID uuid.UUID, requestID string, mapAttempt, itemAttempt int, mapName, outcome string) error {
	return b.publish(ctx, seedID, Event{
		Type:      EventTypeSeedAttempt,
		RequestID: requestID,
		Data: map[string]any{
			"map_attempt":  mapAttempt,
			"item_attempt": itemAttempt,
			"map":          mapName,
			"outcome":      outcome,
		},
	})
}

// PublishSeedCompleted publishes a seed.completed event
func (b *Broadcaster) PublishSeedCompleted(ctx context.Context, seedID uuid.UUID, requestID string, result map[string]any) error {
	return b.publish(ctx, seedID, Event{
		Type:      EventTypeSeedCompleted,
		RequestID: requestID,
		Data: map[string]any{
			"status": "completed",
			"result": result,
		},
	})
}

// PublishSeedFailed publishes a seed.failed event
func (b *Broadcaster) PublishSeedFailed(ctx context.Context, seedID uuid.UUID, requestID, errorMsg string) error {
	return b.publish(ctx, seedID, Event{
		Type:      EventTypeSeedFailed,
		RequestID: requestID,
		Data: map[string]any{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

// publish sends an event to the seed-specific channel
func (b *Broadcaster) publish(ctx context.Context, seedID uuid.UUID, event Event) error {
	event.SeedID = seedID.String()
	channel := Channel(seedID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)
	return nil
}
