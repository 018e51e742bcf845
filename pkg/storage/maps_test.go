package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/rando-engine/pkg/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	b.AddStartLocation("Hub", graph.VertexKey{Room: 1, Node: 0})
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestMapSourceSelectsBySeed(t *testing.T) {
	store := NewMockStorage()
	ctx := context.Background()

	_, _, err := MapSource(store).Map(ctx, 1)
	assert.ErrorIs(t, err, ErrNoMaps)

	a, b, c := testGraph(t), testGraph(t), testGraph(t)
	store.AddMap("c-map", c)
	store.AddMap("a-map", a)
	store.AddMap("b-map", b)

	tests := []struct {
		seed uint64
		name string
		g    *graph.Graph
	}{
		{0, "a-map", a},
		{1, "b-map", b},
		{2, "c-map", c},
		{3, "a-map", a},
		{18446744073709551615, "a-map", a},
	}
	for _, tt := range tests {
		name, g, err := MapSource(store).Map(ctx, tt.seed)
		require.NoError(t, err)
		assert.Equal(t, tt.name, name, "seed %d", tt.seed)
		assert.Same(t, tt.g, g)
	}
}
