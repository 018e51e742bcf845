package traverse

import (
	"github.com/zyedidia/generic/heap"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/requirement"
	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// Result holds the cheapest resource state found for every vertex.
type Result struct {
	// LocalStates is nil at vertices that were not reached.
	LocalStates []*resource.LocalState
	// PrevLink is the link that produced each vertex's state, or -1. Base links
	// are numbered first, followed by the seed links of the call.
	PrevLink []int
	Reverse  bool
	Start    int
}

// Reached reports whether v has a state.
func (r *Result) Reached(v int) bool {
	return r.LocalStates[v] != nil
}

type entry struct {
	cost   resource.Cost
	vertex int
}

func entryLess(a, b entry) bool {
	if c := a.cost.Compare(b.cost); c != 0 {
		return c < 0
	}
	return a.vertex < b.vertex
}

// Traverse runs a label-correcting search from start over the base links of g
// plus seedLinks. A vertex's state is replaced only by a strictly cheaper one,
// and the search ends at the fixed point. In reverse mode links are walked
// from their destination to their source and requirements are evaluated as
// reverse.
//
// Work is ordered by (cost, vertex), never by link index, so the result does
// not depend on the order links were declared in.
func Traverse(g *graph.Graph, seedLinks []graph.Link, global *resource.GlobalState, init resource.LocalState, start int, reverse bool, diff *difficulty.Config) *Result {
	n := g.NumVertices()
	best := make([]resource.LocalState, n)
	reached := make([]bool, n)
	prev := make([]int, n)
	for i := range prev {
		prev[i] = -1
	}
	seedAdj := make([][]int, n)
	for i, link := range seedLinks {
		src := link.From
		if reverse {
			src = link.To
		}
		seedAdj[src] = append(seedAdj[src], i)
	}

	best[start] = init
	reached[start] = true
	work := heap.New(entryLess)
	work.Push(entry{cost: resource.CostOf(init), vertex: start})

	relax := func(from resource.LocalState, idx int, link *graph.Link) {
		dst := link.To
		if reverse {
			dst = link.From
		}
		next, ok := requirement.Evaluate(&link.Requirement, global, from, reverse, diff)
		if !ok || !next.Fits(global) {
			return
		}
		if reached[dst] && !resource.Less(next, best[dst]) {
			return
		}
		best[dst] = next
		reached[dst] = true
		prev[dst] = idx
		work.Push(entry{cost: resource.CostOf(next), vertex: dst})
	}

	for work.Size() > 0 {
		e, _ := work.Pop()
		v := e.vertex
		if resource.CostOf(best[v]) != e.cost {
			continue
		}
		// A self-loop may improve v while its links are being relaxed; the
		// improved state is handled when its own entry is popped.
		from := best[v]
		links := g.Outgoing(v)
		if reverse {
			links = g.Incoming(v)
		}
		for _, i := range links {
			relax(from, i, &g.Links[i])
		}
		for _, i := range seedAdj[v] {
			relax(from, len(g.Links)+i, &seedLinks[i])
		}
	}

	res := &Result{
		LocalStates: make([]*resource.LocalState, n),
		PrevLink:    prev,
		Reverse:     reverse,
		Start:       start,
	}
	for v := range best {
		if reached[v] {
			s := best[v]
			res.LocalStates[v] = &s
		}
	}
	return res
}

// IsBireachable reports whether a vertex has both a forward and a reverse
// state under the same capabilities.
func IsBireachable(fwd, rev *resource.LocalState) bool {
	return fwd != nil && rev != nil
}

// Bireachable applies IsBireachable to vertex v of a forward and reverse result.
func Bireachable(fwd, rev *Result, v int) bool {
	return IsBireachable(fwd.LocalStates[v], rev.LocalStates[v])
}

// AnyBireachable reports whether any of the vertices is bireachable.
func AnyBireachable(fwd, rev *Result, vertices []int) bool {
	for _, v := range vertices {
		if Bireachable(fwd, rev, v) {
			return true
		}
	}
	return false
}

// AnyReachable reports whether any of the vertices has a forward state.
func AnyReachable(fwd *Result, vertices []int) bool {
	for _, v := range vertices {
		if fwd.Reached(v) {
			return true
		}
	}
	return false
}

// Route returns the link indices walked from the start to v, in walking
// order. It is nil when v was not reached or is the start.
func Route(r *Result, g *graph.Graph, seedLinks []graph.Link, v int) []int {
	if !r.Reached(v) {
		return nil
	}
	var route []int
	for cur := v; cur != r.Start && len(route) <= len(r.PrevLink); {
		idx := r.PrevLink[cur]
		if idx < 0 {
			return nil
		}
		route = append(route, idx)
		link := LinkAt(g, seedLinks, idx)
		if r.Reverse {
			cur = link.To
		} else {
			cur = link.From
		}
	}
	if !r.Reverse {
		for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
			route[i], route[j] = route[j], route[i]
		}
	}
	return route
}

// LinkAt resolves an index from Result.PrevLink or Route.
func LinkAt(g *graph.Graph, seedLinks []graph.Link, idx int) *graph.Link {
	if idx < len(g.Links) {
		return &g.Links[idx]
	}
	return &seedLinks[idx-len(g.Links)]
}
