package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
)

// SeedState is the lifecycle stage of a seed job.
type SeedState string

const (
	SeedQueued     SeedState = "queued"
	SeedProcessing SeedState = "processing"
	SeedCompleted  SeedState = "completed"
	SeedFailed     SeedState = "failed"
)

// SeedStatus tracks a seed job from enqueue to result.
type SeedStatus struct {
	ID        uuid.UUID `json:"id"`
	State     SeedState `json:"state"`
	Seed      uint64    `json:"seed"`
	Tier      string    `json:"tier,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
	Error     string    `json:"error,omitempty"`
	WorkerID  string    `json:"worker_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Maps is a named collection of logic files. ListMaps is sorted by name.
type Maps interface {
	ListMaps(ctx context.Context) ([]string, error)
	LoadMap(ctx context.Context, name string) (*graph.Graph, error)
}

// Storage defines a unified interface for all storage operations
// This interface combines seed persistence (Redis) with logic data loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Seed operations (Redis-backed). Loads return nil, nil when nothing is stored.
	SaveRandomization(ctx context.Context, id uuid.UUID, r *randomize.Randomization) error
	LoadRandomization(ctx context.Context, id uuid.UUID) (*randomize.Randomization, error)
	SetStatus(ctx context.Context, status *SeedStatus) error
	GetStatus(ctx context.Context, id uuid.UUID) (*SeedStatus, error)

	// Map operations (filesystem-backed)
	Maps

	// Difficulty presets (filesystem-backed), easiest first.
	LoadPresets(ctx context.Context) ([]difficulty.Config, error)
}
