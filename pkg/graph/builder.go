package graph

import (
	"fmt"

	"github.com/jwebster45206/rando-engine/pkg/requirement"
)

// Builder assembles a Graph. Methods record the first error encountered and
// Build reports it, so callers can chain additions without checking each one.
type Builder struct {
	g   *Graph
	err error
}

// NewBuilder returns a builder with the well-known tech already registered.
func NewBuilder() *Builder {
	b := &Builder{g: &Graph{
		vertexIndex: make(map[VertexKey]int),
		techIndex:   make(map[string]int),
		stratIndex:  make(map[string]int),
		flagIndex:   make(map[string]int),
	}}
	b.AddTech(TechCanManageReserves)
	b.AddTech(TechCanBeVeryPatient)
	return b
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
	}
}

// AddTech registers a tech name and returns its index.
func (b *Builder) AddTech(name string) int {
	return b.register(&b.g.Tech, b.g.techIndex, "tech", name)
}

// AddStrat registers a notable strat and returns its index.
func (b *Builder) AddStrat(name string) int {
	return b.register(&b.g.Strats, b.g.stratIndex, "strat", name)
}

// AddFlag registers a flag and returns its index.
func (b *Builder) AddFlag(name string) int {
	return b.register(&b.g.Flags, b.g.flagIndex, "flag", name)
}

func (b *Builder) register(names *[]string, index map[string]int, what, name string) int {
	if name == "" {
		b.fail("empty %s name", what)
		return -1
	}
	if i, ok := index[name]; ok {
		if what == "tech" && i < 2 {
			return i
		}
		b.fail("%s %q registered twice", what, name)
		return i
	}
	index[name] = len(*names)
	*names = append(*names, name)
	return index[name]
}

// Vertex returns the index of key, adding the vertex if it is new.
func (b *Builder) Vertex(key VertexKey) int {
	if id, ok := b.g.vertexIndex[key]; ok {
		return id
	}
	id := len(b.g.Vertices)
	b.g.Vertices = append(b.g.Vertices, key)
	b.g.vertexIndex[key] = id
	return id
}

// AddLink adds a base link. notable names the strat the link depends on, or
// is empty.
func (b *Builder) AddLink(from, to VertexKey, req requirement.Requirement, stratName, notable string) {
	link := Link{
		From:         b.Vertex(from),
		To:           b.Vertex(to),
		Requirement:  req,
		StratName:    stratName,
		NotableStrat: -1,
	}
	if notable != "" {
		idx, ok := b.g.stratIndex[notable]
		if !ok {
			b.fail("link %q uses unknown strat %q", stratName, notable)
			return
		}
		link.NotableStrat = idx
	}
	b.g.Links = append(b.g.Links, link)
}

// AddDoor adds a door crossing.
func (b *Builder) AddDoor(name string, from, to VertexKey) {
	b.g.Doors = append(b.g.Doors, Door{Name: name, From: b.Vertex(from), To: b.Vertex(to)})
}

func (b *Builder) AddItemLocation(name string, room, node int) {
	b.g.ItemLocations = append(b.g.ItemLocations, ItemLocation{Name: name, Room: room, Node: node})
}

// AddFlagLocation ties a registered flag to the node where it is obtained.
func (b *Builder) AddFlagLocation(flag string, room, node int) {
	idx, ok := b.g.flagIndex[flag]
	if !ok {
		b.fail("flag location uses unknown flag %q", flag)
		return
	}
	b.g.FlagLocations = append(b.g.FlagLocations, FlagLocation{Room: room, Node: node, Flag: idx})
}

func (b *Builder) AddSaveLocation(name string, room, node int) {
	b.g.SaveLocations = append(b.g.SaveLocations, SaveLocation{Name: name, Room: room, Node: node})
}

// AddStartLocation adds a hub candidate at the given vertex.
func (b *Builder) AddStartLocation(name string, key VertexKey) {
	b.g.StartLocations = append(b.g.StartLocations, StartLocation{
		Name: name, Room: key.Room, Node: key.Node, Vertex: b.Vertex(key),
	})
}

// AddObjective marks a flag as required for victory.
func (b *Builder) AddObjective(flag string) {
	idx, ok := b.g.flagIndex[flag]
	if !ok {
		b.fail("objective uses unknown flag %q", flag)
		return
	}
	b.g.Objectives = append(b.g.Objectives, idx)
}

// Build validates the graph, resolves location vertices and freezes the
// adjacency. The builder must not be used afterwards.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	g := b.g
	b.g = nil

	for _, key := range g.Vertices {
		if key.Obstacles == 0 {
			continue
		}
		if _, ok := g.vertexIndex[key.Base()]; !ok {
			return nil, fmt.Errorf("%w: vertex %+v has no obstacle-free base vertex", ErrMalformed, key)
		}
	}

	counts := g.Counts()
	for i := range g.Links {
		link := &g.Links[i]
		if err := requirement.Validate(&link.Requirement, counts); err != nil {
			return nil, fmt.Errorf("%w: link %d (%s): %v", ErrMalformed, i, link.StratName, err)
		}
		if link.NotableStrat >= 0 {
			link.Requirement = requirement.And(requirement.Strat(link.NotableStrat), link.Requirement)
		}
	}

	byNode := make(map[[2]int][]int)
	for id, key := range g.Vertices {
		node := [2]int{key.Room, key.Node}
		byNode[node] = append(byNode[node], id)
	}
	resolve := func(what, name string, room, node int) ([]int, error) {
		ids := byNode[[2]int{room, node}]
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: %s %q at room %d node %d has no vertex", ErrMalformed, what, name, room, node)
		}
		return ids, nil
	}

	var err error
	for i := range g.ItemLocations {
		loc := &g.ItemLocations[i]
		if loc.Vertices, err = resolve("item location", loc.Name, loc.Room, loc.Node); err != nil {
			return nil, err
		}
	}
	for i := range g.FlagLocations {
		loc := &g.FlagLocations[i]
		if loc.Vertices, err = resolve("flag location", g.Flags[loc.Flag], loc.Room, loc.Node); err != nil {
			return nil, err
		}
	}
	for i := range g.SaveLocations {
		loc := &g.SaveLocations[i]
		if loc.Vertices, err = resolve("save location", loc.Name, loc.Room, loc.Node); err != nil {
			return nil, err
		}
	}
	if len(g.StartLocations) == 0 {
		return nil, fmt.Errorf("%w: no start location", ErrMalformed)
	}

	g.out = make([][]int, len(g.Vertices))
	g.in = make([][]int, len(g.Vertices))
	for i, link := range g.Links {
		g.out[link.From] = append(g.out[link.From], i)
		g.in[link.To] = append(g.in[link.To], i)
	}
	return g, nil
}
