package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/zyedidia/generic/cache"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	store "github.com/jwebster45206/rando-engine/pkg/storage"
)

// ErrMapNotFound is returned when no logic file exists for a map name.
var ErrMapNotFound = errors.New("map not found")

// Map operations (filesystem-backed)

const mapCacheSize = 16

// MapDir serves logic files from one directory. Compiled graphs are
// immutable, so the most recently used ones are kept and shared.
type MapDir struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	cache *cache.Cache[string, *graph.Graph]
}

var _ store.Maps = (*MapDir)(nil)

func NewMapDir(dir string, logger *slog.Logger) *MapDir {
	if logger == nil {
		logger = slog.Default()
	}
	return &MapDir{
		dir:    dir,
		logger: logger,
		cache:  cache.New[string, *graph.Graph](mapCacheSize),
	}
}

// ListMaps returns the names of the logic files in the directory, sorted. A
// missing directory holds no maps.
func (m *MapDir) ListMaps(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read maps directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	slices.Sort(names)
	return names, nil
}

// LoadMap reads and compiles a logic file, or returns the cached graph.
func (m *MapDir) LoadMap(ctx context.Context, name string) (*graph.Graph, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid map name %q", name)
	}

	m.mu.Lock()
	g, ok := m.cache.Get(name)
	m.mu.Unlock()
	if ok {
		return g, nil
	}

	g, err := LoadMapFile(filepath.Join(m.dir, name+".json"))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache.Put(name, g)
	m.mu.Unlock()
	m.logger.Debug("Map compiled", "map", name, "vertices", g.NumVertices(), "links", len(g.Links))
	return g, nil
}

func (r *RedisStorage) ListMaps(ctx context.Context) ([]string, error) {
	return r.maps.ListMaps(ctx)
}

func (r *RedisStorage) LoadMap(ctx context.Context, name string) (*graph.Graph, error) {
	return r.maps.LoadMap(ctx, name)
}

// LoadMapFile reads and compiles one logic file.
func LoadMapFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrMapNotFound, filepath.Base(path), err)
		}
		return nil, fmt.Errorf("failed to open map file: %w", err)
	}
	defer f.Close()

	g, err := graph.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", filepath.Base(path), err)
	}
	return g, nil
}

// Difficulty presets (filesystem-backed)

func (r *RedisStorage) LoadPresets(ctx context.Context) ([]difficulty.Config, error) {
	path := r.presetsFile
	if path == "" {
		path = filepath.Join(r.dataDir, "presets.yaml")
	}
	return LoadPresetsFile(path)
}

// LoadPresetsFile reads a presets YAML file.
func LoadPresetsFile(path string) ([]difficulty.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open presets file: %w", err)
	}
	defer f.Close()

	tiers, err := difficulty.LoadPresets(f)
	if err != nil {
		return nil, fmt.Errorf("presets %s: %w", filepath.Base(path), err)
	}
	return tiers, nil
}
