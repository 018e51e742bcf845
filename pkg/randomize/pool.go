package randomize

import (
	"math/rand/v2"
	"slices"

	"github.com/zyedidia/generic/mapset"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// uniqueItems lists the one-of-a-kind items, most essential first. Pools for
// maps with fewer locations keep a prefix of this list.
var uniqueItems = []resource.Item{
	resource.Morph, resource.Bombs, resource.Charge, resource.Varia, resource.SpeedBooster,
	resource.HiJump, resource.Grapple, resource.Gravity, resource.Wave, resource.Ice,
	resource.SpaceJump, resource.SpringBall, resource.ScrewAttack, resource.Spazer,
	resource.Plasma, resource.XRayScope,
}

// expansionWeights follows the vanilla 100-location distribution.
var expansionWeights = []struct {
	item   resource.Item
	weight int
}{
	{resource.Missile, 46},
	{resource.ETank, 14},
	{resource.Super, 10},
	{resource.PowerBomb, 10},
	{resource.ReserveTank, 4},
}

// DefaultItemPool returns one item per location: the unique items first, then
// expansions in vanilla proportions.
func DefaultItemPool(numLocations int) []resource.Item {
	if numLocations <= 0 {
		return nil
	}
	if numLocations <= len(uniqueItems) {
		return slices.Clone(uniqueItems[:numLocations])
	}
	pool := slices.Clone(uniqueItems)
	remaining := numLocations - len(uniqueItems)

	total := 0
	for _, e := range expansionWeights {
		total += e.weight
	}
	// Largest-remainder allocation keeps the counts deterministic.
	counts := make([]int, len(expansionWeights))
	rems := make([]int, len(expansionWeights))
	assigned := 0
	for i, e := range expansionWeights {
		counts[i] = remaining * e.weight / total
		rems[i] = remaining * e.weight % total
		assigned += counts[i]
	}
	for assigned < remaining {
		best := 0
		for i := range rems {
			if rems[i] > rems[best] {
				best = i
			}
		}
		counts[best]++
		rems[best] = -1
		assigned++
	}
	for i, e := range expansionWeights {
		for range counts[i] {
			pool = append(pool, e.item)
		}
	}
	return pool
}

// itemPrecedence orders the distinct items of pool for key-item selection.
// Priority groups come first in their listed order, each shuffled by rng.
// Items that no group names follow, also shuffled.
func itemPrecedence(settings *difficulty.Config, pool []resource.Item, rng *rand.Rand) []resource.Item {
	inPool := mapset.New[resource.Item]()
	for _, item := range pool {
		inPool.Put(item)
	}
	listed := mapset.New[resource.Item]()
	var order []resource.Item
	for _, group := range settings.ItemPriorities {
		var members []resource.Item
		for _, item := range group.Items {
			listed.Put(item)
			if inPool.Has(item) {
				members = append(members, item)
			}
		}
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		order = append(order, members...)
	}
	var rest []resource.Item
	for _, item := range resource.AllItems() {
		if inPool.Has(item) && !listed.Has(item) {
			rest = append(rest, item)
		}
	}
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	return append(order, rest...)
}

// fillerRank orders pool items for filler placement: early filler, filler,
// semi-filler, then anything else.
func fillerRank(settings *difficulty.Config, item resource.Item) int {
	switch {
	case slices.Contains(settings.EarlyFillerItems, item):
		return 0
	case slices.Contains(settings.FillerItems, item):
		return 1
	case slices.Contains(settings.SemiFillerItems, item):
		return 2
	default:
		return 3
	}
}
