package randomize

import (
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/resource"
	"github.com/jwebster45206/rando-engine/pkg/traverse"
)

// Randomization is the output of a successful attempt.
type Randomization struct {
	ID          string `json:"id,omitempty"`
	Seed        uint64 `json:"seed"`
	DisplaySeed uint64 `json:"display_seed"`
	MapSeed     uint64 `json:"map_seed"`
	DoorSeed    uint64 `json:"door_seed"`
	ItemSeed    uint64 `json:"item_seed"`

	Map        string      `json:"map,omitempty"`
	Difficulty string      `json:"difficulty"`
	Start      string      `json:"start"`
	Placement  []Placement `json:"placement"`
	Doors      []DoorLock  `json:"doors,omitempty"`
	SpoilerLog SpoilerLog  `json:"spoiler_log"`
}

// Placement is the item put at one item location.
type Placement struct {
	Location string        `json:"location"`
	Room     int           `json:"room"`
	Node     int           `json:"node"`
	Item     resource.Item `json:"item"`
}

// SpoilerLog describes the order in which locations were filled.
type SpoilerLog struct {
	Summary  []SpoilerSummary  `json:"summary"`
	Details  []SpoilerDetails  `json:"details"`
	AllItems []SpoilerLocation `json:"all_items"`
}

// SpoilerSummary is one step in short form.
type SpoilerSummary struct {
	Step  int                  `json:"step"`
	Flags []string             `json:"flags,omitempty"`
	Items []SpoilerItemSummary `json:"items"`
	// Inventory is every item held once the step is committed.
	Inventory []resource.Item `json:"inventory"`
}

type SpoilerItemSummary struct {
	Item     resource.Item `json:"item"`
	Location string        `json:"location"`
	Key      bool          `json:"key,omitempty"`
	// Tier is the easiest tier at which the key item opened new locations.
	// It is empty for filler and for key items placed without lookahead.
	Tier string `json:"tier,omitempty"`
}

// SpoilerDetails carries the routes to and from each location of a step,
// and the item and flag locations that first became reachable or
// bireachable in it.
type SpoilerDetails struct {
	Step             int                  `json:"step"`
	Reachable        []string             `json:"reachable,omitempty"`
	Bireachable      []string             `json:"bireachable,omitempty"`
	ReachableSaves   []string             `json:"reachable_saves,omitempty"`
	BireachableSaves []string             `json:"bireachable_saves,omitempty"`
	Items            []SpoilerItemDetails `json:"items"`
}

type SpoilerItemDetails struct {
	Item        resource.Item       `json:"item"`
	Location    string              `json:"location"`
	Room        int                 `json:"room"`
	Node        int                 `json:"node"`
	Tier        string              `json:"tier,omitempty"`
	ObtainRoute []SpoilerRouteEntry `json:"obtain_route"`
	ReturnRoute []SpoilerRouteEntry `json:"return_route"`
}

// SpoilerRouteEntry is one link of a route. On an obtain route Resources is
// what has been spent once the link is walked; on a return route it is what
// the rest of the trip back to the hub costs from the link's source.
type SpoilerRouteEntry struct {
	Strat     string              `json:"strat"`
	From      graph.VertexKey     `json:"from"`
	To        graph.VertexKey     `json:"to"`
	Resources resource.LocalState `json:"resources"`
}

// SpoilerLocation is the final content of an item location.
type SpoilerLocation struct {
	Location string        `json:"location"`
	Room     int           `json:"room"`
	Node     int           `json:"node"`
	Item     resource.Item `json:"item"`
	Step     int           `json:"step"`
}

// route renders the path to v of a traversal result. Forward routes are
// listed from the hub outwards, reverse routes from v back to the hub.
func route(g *graph.Graph, seedLinks []graph.Link, r *traverse.Result, v int) []SpoilerRouteEntry {
	idxs := traverse.Route(r, g, seedLinks, v)
	entries := make([]SpoilerRouteEntry, 0, len(idxs))
	for _, idx := range idxs {
		link := traverse.LinkAt(g, seedLinks, idx)
		at := link.To
		if r.Reverse {
			at = link.From
		}
		entries = append(entries, SpoilerRouteEntry{
			Strat:     link.StratName,
			From:      g.Vertices[link.From],
			To:        g.Vertices[link.To],
			Resources: *r.LocalStates[at],
		})
	}
	return entries
}

func inventory(g *resource.GlobalState) []resource.Item {
	var items []resource.Item
	for _, item := range resource.AllItems() {
		if g.Has(item) {
			items = append(items, item)
		}
	}
	return items
}
