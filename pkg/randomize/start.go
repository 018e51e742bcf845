package randomize

import (
	"fmt"
	"math/rand/v2"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/resource"
	"github.com/jwebster45206/rando-engine/pkg/traverse"
)

// minStartLocations is the number of item locations a hub must offer before
// any item is collected.
const minStartLocations = 2

// maxStartAttempts bounds how many hub candidates a randomized start tries.
const maxStartAttempts = 10

// ValidateStart rejects a hub from which fewer than two item locations are
// bireachable with an empty inventory at the given tier.
func ValidateStart(g *graph.Graph, seedLinks []graph.Link, tier *difficulty.Config, start graph.StartLocation) error {
	global := emptyGlobal(g, tier)
	fwd := traverse.Traverse(g, seedLinks, &global, resource.LocalState{}, start.Vertex, false, tier)
	rev := traverse.Traverse(g, seedLinks, &global, resource.LocalState{}, start.Vertex, true, tier)
	count := 0
	for _, loc := range g.ItemLocations {
		if traverse.AnyBireachable(fwd, rev, loc.Vertices) {
			count++
		}
	}
	if count < minStartLocations {
		return fmt.Errorf("%w: %s has %d bireachable item locations", ErrStartRejected, start.Name, count)
	}
	return nil
}

// DetermineStart picks the hub for an attempt. Without a randomized start the
// first start location is used and must pass ValidateStart. With one, up to
// maxStartAttempts candidates are tried in an order drawn from seed.
func DetermineStart(g *graph.Graph, seedLinks []graph.Link, tier *difficulty.Config, seed uint64) (graph.StartLocation, error) {
	if !tier.RandomizedStart {
		start := g.StartLocations[0]
		if err := ValidateStart(g, seedLinks, tier, start); err != nil {
			return graph.StartLocation{}, err
		}
		return start, nil
	}

	rng := rand.New(rand.NewPCG(seed, seed^startStream))
	order := rng.Perm(len(g.StartLocations))
	for i, idx := range order {
		if i == maxStartAttempts {
			break
		}
		start := g.StartLocations[idx]
		if err := ValidateStart(g, seedLinks, tier, start); err == nil {
			return start, nil
		}
	}
	return graph.StartLocation{}, fmt.Errorf("%w: no valid hub among %d candidates", ErrStartRejected, min(len(order), maxStartAttempts))
}

func emptyGlobal(g *graph.Graph, tier *difficulty.Config) resource.GlobalState {
	return resource.NewGlobalState(g.TechVector(tier.Tech), g.StratVector(tier.NotableStrats), len(g.Flags), tier.ShineChargeTiles)
}
