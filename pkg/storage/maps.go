package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
)

// ErrNoMaps is returned when the map repository is empty.
var ErrNoMaps = errors.New("no maps available")

// mapRepository selects maps by seed.
type mapRepository struct {
	maps Maps
}

var _ randomize.MapSource = (*mapRepository)(nil)

// MapSource returns a randomize.MapSource that picks map seed % len(maps)
// from the sorted map list.
func MapSource(maps Maps) randomize.MapSource {
	return &mapRepository{maps: maps}
}

func (m *mapRepository) Map(ctx context.Context, seed uint64) (string, *graph.Graph, error) {
	names, err := m.maps.ListMaps(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list maps: %w", err)
	}
	if len(names) == 0 {
		return "", nil, ErrNoMaps
	}
	name := names[seed%uint64(len(names))]
	g, err := m.maps.LoadMap(ctx, name)
	if err != nil {
		return "", nil, err
	}
	return name, g, nil
}
