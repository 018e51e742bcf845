// Package whatif edits an inventory by hand and recomputes what it reaches.
// It backs the inspect tooling and never takes part in randomization.
package whatif

import (
	"fmt"

	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/resource"
	"github.com/jwebster45206/rando-engine/pkg/traverse"
)

// State is an inventory under edit on top of a prepared Randomizer.
type State struct {
	r      *randomize.Randomizer
	Global resource.GlobalState
	// Tier is the index of the difficulty tier traversals use.
	Tier int
}

// New starts from an empty inventory at the hardest tier.
func New(r *randomize.Randomizer) *State {
	return &State{r: r, Global: r.EmptyGlobal(), Tier: len(r.Tiers()) - 1}
}

func (s *State) AddItem(item resource.Item)    { s.Global.Collect(item) }
func (s *State) RemoveItem(item resource.Item) { s.Global.Remove(item) }

// AddFlag sets a flag by name.
func (s *State) AddFlag(name string) error {
	idx, ok := s.r.Graph().FlagIndex(name)
	if !ok {
		return fmt.Errorf("unknown flag %q", name)
	}
	s.Global.SetFlag(idx)
	return nil
}

// RemoveFlag clears a flag by name.
func (s *State) RemoveFlag(name string) error {
	idx, ok := s.r.Graph().FlagIndex(name)
	if !ok {
		return fmt.Errorf("unknown flag %q", name)
	}
	s.Global.ClearFlag(idx)
	return nil
}

// Copy returns an independent State over the same Randomizer.
func (s *State) Copy() *State {
	return &State{r: s.r, Global: s.Global.Clone(), Tier: s.Tier}
}

// Reachability is the result of UpdateReachability. The vectors are indexed
// like Nodes: every obstacle variant of a node is folded into it.
type Reachability struct {
	Nodes       []graph.VertexKey
	Forward     []bool
	Reverse     []bool
	Bireachable []bool
	Fwd, Rev    *traverse.Result
}

// UpdateReachability traverses from the hub with the current inventory.
func (s *State) UpdateReachability() *Reachability {
	g := s.r.Graph()
	fwd, rev := s.r.Reachability(s.Tier, &s.Global)
	out := &Reachability{Fwd: fwd, Rev: rev}

	node := make(map[graph.VertexKey]int)
	for v, key := range g.Vertices {
		base := key.Base()
		i, ok := node[base]
		if !ok {
			i = len(out.Nodes)
			node[base] = i
			out.Nodes = append(out.Nodes, base)
			out.Forward = append(out.Forward, false)
			out.Reverse = append(out.Reverse, false)
			out.Bireachable = append(out.Bireachable, false)
		}
		out.Forward[i] = out.Forward[i] || fwd.Reached(v)
		out.Reverse[i] = out.Reverse[i] || rev.Reached(v)
		out.Bireachable[i] = out.Bireachable[i] || traverse.Bireachable(fwd, rev, v)
	}
	return out
}

// LocationStatus is the reachability of one item location or save station.
type LocationStatus struct {
	Name        string
	Room, Node  int
	Save        bool
	Reachable   bool
	Bireachable bool
}

// Locations reports every item location, then every save station, against a
// reachability result.
func (s *State) Locations(reach *Reachability) []LocationStatus {
	g := s.r.Graph()
	out := make([]LocationStatus, 0, len(g.ItemLocations)+len(g.SaveLocations))
	for _, loc := range g.ItemLocations {
		out = append(out, status(reach, loc.Name, loc.Room, loc.Node, loc.Vertices, false))
	}
	for _, loc := range g.SaveLocations {
		out = append(out, status(reach, loc.Name, loc.Room, loc.Node, loc.Vertices, true))
	}
	return out
}

func status(reach *Reachability, name string, room, node int, vertices []int, save bool) LocationStatus {
	return LocationStatus{
		Name:        name,
		Room:        room,
		Node:        node,
		Save:        save,
		Reachable:   traverse.AnyReachable(reach.Fwd, vertices),
		Bireachable: traverse.AnyBireachable(reach.Fwd, reach.Rev, vertices),
	}
}

// DescribeLink renders a base or seed link with its requirement.
func (s *State) DescribeLink(idx int) string {
	g := s.r.Graph()
	link := traverse.LinkAt(g, s.r.SeedLinks(), idx)
	return fmt.Sprintf("from:%+v to:%+v using %s: %s", g.Vertices[link.From], g.Vertices[link.To], link.StratName, link.Requirement)
}
