package graph

import (
	"github.com/jwebster45206/rando-engine/pkg/requirement"
)

// Well-known tech registered by every builder ahead of any other tech.
const (
	TechCanManageReserves = "canManageReserves"
	TechCanBeVeryPatient  = "canBeVeryPatient"
)

// VertexKey identifies a vertex. The same room node yields one vertex per
// combination of cleared obstacles.
type VertexKey struct {
	Room      int    `json:"room"`
	Node      int    `json:"node"`
	Obstacles uint32 `json:"obstacles,omitempty"`
}

// Base returns the key of the same node with no obstacles cleared.
func (k VertexKey) Base() VertexKey {
	return VertexKey{Room: k.Room, Node: k.Node}
}

// Link is a directed, requirement-gated edge between two vertices.
type Link struct {
	From        int
	To          int
	Requirement requirement.Requirement
	StratName   string
	// NotableStrat is the strat index the link depends on, or -1.
	NotableStrat int
}

// Door is a room transition. Doors are not part of the base links; the
// door-lock generator turns each one into a seed link.
type Door struct {
	Name string
	From int
	To   int
}

// ItemLocation is a node holding an item to be placed.
type ItemLocation struct {
	Name     string
	Room     int
	Node     int
	Vertices []int
}

// FlagLocation is a node where a one-shot flag is obtained, such as a boss kill.
type FlagLocation struct {
	Room     int
	Node     int
	Flag     int
	Vertices []int
}

// SaveLocation is a save station.
type SaveLocation struct {
	Name     string
	Room     int
	Node     int
	Vertices []int
}

// StartLocation is a hub the player may begin at.
type StartLocation struct {
	Name   string
	Room   int
	Node   int
	Vertex int
}

// Graph is a compiled logic graph. It is immutable once built and safe to
// share between goroutines.
type Graph struct {
	Tech   []string
	Strats []string
	Flags  []string

	Vertices []VertexKey
	Links    []Link
	Doors    []Door

	ItemLocations  []ItemLocation
	FlagLocations  []FlagLocation
	SaveLocations  []SaveLocation
	StartLocations []StartLocation
	Objectives     []int

	vertexIndex map[VertexKey]int
	techIndex   map[string]int
	stratIndex  map[string]int
	flagIndex   map[string]int
	out         [][]int
	in          [][]int
}

// NumVertices is the number of dense vertex indices.
func (g *Graph) NumVertices() int { return len(g.Vertices) }

// VertexID looks up a vertex by key.
func (g *Graph) VertexID(key VertexKey) (int, bool) {
	id, ok := g.vertexIndex[key]
	return id, ok
}

// Outgoing returns the indices of base links leaving v.
func (g *Graph) Outgoing(v int) []int { return g.out[v] }

// Incoming returns the indices of base links entering v.
func (g *Graph) Incoming(v int) []int { return g.in[v] }

func (g *Graph) TechIndex(name string) (int, bool) {
	i, ok := g.techIndex[name]
	return i, ok
}

func (g *Graph) StratIndex(name string) (int, bool) {
	i, ok := g.stratIndex[name]
	return i, ok
}

func (g *Graph) FlagIndex(name string) (int, bool) {
	i, ok := g.flagIndex[name]
	return i, ok
}

// Counts bounds the indices requirements on this graph may use.
func (g *Graph) Counts() requirement.Counts {
	return requirement.Counts{Tech: len(g.Tech), Strats: len(g.Strats), Flags: len(g.Flags)}
}

// TechVector enables the named tech. Names the graph does not know are
// ignored, since a tier may list tech that no link in this map uses.
func (g *Graph) TechVector(names []string) []bool {
	return vector(g.techIndex, len(g.Tech), names)
}

// StratVector enables the named notable strats.
func (g *Graph) StratVector(names []string) []bool {
	return vector(g.stratIndex, len(g.Strats), names)
}

func vector(index map[string]int, n int, names []string) []bool {
	v := make([]bool, n)
	for _, name := range names {
		if i, ok := index[name]; ok {
			v[i] = true
		}
	}
	return v
}

// ObjectiveFlagLocations returns the indices of flag locations whose flag is
// required for victory.
func (g *Graph) ObjectiveFlagLocations() []int {
	var out []int
	for i, loc := range g.FlagLocations {
		for _, f := range g.Objectives {
			if loc.Flag == f {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
