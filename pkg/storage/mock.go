package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	seeds     map[uuid.UUID]*randomize.Randomization
	statuses  map[uuid.UUID]*SeedStatus
	maps      map[string]*graph.Graph
	presets   []difficulty.Config
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		seeds:    make(map[uuid.UUID]*randomize.Randomization),
		statuses: make(map[uuid.UUID]*SeedStatus),
		maps:     make(map[string]*graph.Graph),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveRandomization mocks saving a generated seed
func (m *MockStorage) SaveRandomization(ctx context.Context, id uuid.UUID, r *randomize.Randomization) error {
	if r == nil {
		return errors.New("randomization cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeds[id] = r
	return nil
}

// LoadRandomization mocks loading a generated seed
func (m *MockStorage) LoadRandomization(ctx context.Context, id uuid.UUID) (*randomize.Randomization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seeds[id], nil
}

// SetStatus mocks recording a seed job status
func (m *MockStorage) SetStatus(ctx context.Context, status *SeedStatus) error {
	if status == nil {
		return errors.New("status cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *status
	m.statuses[status.ID] = &cp
	return nil
}

// GetStatus mocks loading a seed job status
func (m *MockStorage) GetStatus(ctx context.Context, id uuid.UUID) (*SeedStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[id]
	if !ok {
		return nil, nil
	}
	cp := *status
	return &cp, nil
}

// ListMaps mocks listing maps
func (m *MockStorage) ListMaps(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.maps))
	for name := range m.maps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// LoadMap mocks loading a map by name
func (m *MockStorage) LoadMap(ctx context.Context, name string) (*graph.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.maps[name]
	if !ok {
		return nil, fmt.Errorf("map not found: %s", name)
	}
	return g, nil
}

// AddMap adds a map to the mock storage (for testing)
func (m *MockStorage) AddMap(name string, g *graph.Graph) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maps[name] = g
}

// LoadPresets mocks loading difficulty presets
func (m *MockStorage) LoadPresets(ctx context.Context) ([]difficulty.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.presets) == 0 {
		return []difficulty.Config{difficulty.Default()}, nil
	}
	return slices.Clone(m.presets), nil
}

// SetPresets replaces the presets returned by LoadPresets (for testing)
func (m *MockStorage) SetPresets(tiers []difficulty.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets = slices.Clone(tiers)
}
