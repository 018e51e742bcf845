package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Request is a seed generation job in the queue.
type Request struct {
	RequestID string    `json:"request_id"`
	SeedID    uuid.UUID `json:"seed_id"`

	// Seed is the root seed of the generation. Every map, door and item seed
	// is derived from it.
	Seed uint64 `json:"seed"`
	// Tier names the hardest difficulty preset to use. Empty means the
	// worker's default tier.
	Tier string `json:"tier,omitempty"`

	// Overrides of the hardest tier's policy.
	RandomizedStart *bool   `json:"randomized_start,omitempty"`
	DoorsMode       *string `json:"doors_mode,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// MarshalJSON serializes the request to JSON for Redis storage
func (r *Request) MarshalJSON() ([]byte, error) {
	type Alias Request
	return json.Marshal(&struct {
		SeedID string `json:"seed_id"`
		*Alias
	}{
		SeedID: r.SeedID.String(),
		Alias:  (*Alias)(r),
	})
}

// UnmarshalJSON deserializes the request from JSON in Redis
func (r *Request) UnmarshalJSON(data []byte) error {
	type Alias Request
	aux := &struct {
		SeedID string `json:"seed_id"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	seedID, err := uuid.Parse(aux.SeedID)
	if err != nil {
		return fmt.Errorf("invalid seed_id: %w", err)
	}

	r.SeedID = seedID
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
