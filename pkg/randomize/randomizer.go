package randomize

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/resource"
	"github.com/jwebster45206/rando-engine/pkg/traverse"
)

// Stream selectors keep the PCG streams derived from one seed apart.
const (
	itemStream  uint64 = 0x9e3779b97f4a7c15
	doorStream  uint64 = 0xbf58476d1ce4e5b9
	startStream uint64 = 0x94d049bb133111eb
	planStream  uint64 = 0x2545f4914f6cdd1d
)

// Randomizer places an item pool onto the item locations of one map with one
// door configuration and hub. It holds no per-attempt state, so one
// Randomizer may run several attempts, one at a time or concurrently.
type Randomizer struct {
	graph     *graph.Graph
	seedLinks []graph.Link
	tiers     []difficulty.Config
	views     []tierView
	pool      []resource.Item
	start     graph.StartLocation
	logger    *slog.Logger
}

// tierView is the tech and strat vectors a tier enables on this graph.
type tierView struct {
	tech   []bool
	strats []bool
}

// New checks the inputs and prepares per-tier views of the graph. tiers are
// ordered easiest first; the last one is the selected difficulty and its
// placement policy applies.
func New(g *graph.Graph, seedLinks []graph.Link, tiers []difficulty.Config, pool []resource.Item, start graph.StartLocation, logger *slog.Logger) (*Randomizer, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no difficulty tiers", ErrMalformed)
	}
	for i := range tiers {
		if err := tiers[i].Validate(); err != nil {
			return nil, err
		}
	}
	if len(pool) != len(g.ItemLocations) {
		return nil, fmt.Errorf("%w: item pool has %d items for %d locations", ErrMalformed, len(pool), len(g.ItemLocations))
	}
	for _, item := range pool {
		if !item.Valid() {
			return nil, fmt.Errorf("%w: invalid item %d in pool", ErrMalformed, int(item))
		}
	}
	if start.Vertex < 0 || start.Vertex >= g.NumVertices() {
		return nil, fmt.Errorf("%w: start %q has no vertex", ErrMalformed, start.Name)
	}
	for _, link := range seedLinks {
		if link.From < 0 || link.From >= g.NumVertices() || link.To < 0 || link.To >= g.NumVertices() {
			return nil, fmt.Errorf("%w: seed link %q leaves the graph", ErrMalformed, link.StratName)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	views := make([]tierView, len(tiers))
	for i := range tiers {
		views[i] = tierView{
			tech:   g.TechVector(tiers[i].Tech),
			strats: g.StratVector(tiers[i].NotableStrats),
		}
	}
	return &Randomizer{
		graph:     g,
		seedLinks: seedLinks,
		tiers:     tiers,
		views:     views,
		pool:      slices.Clone(pool),
		start:     start,
		logger:    logger,
	}, nil
}

func (r *Randomizer) Graph() *graph.Graph          { return r.graph }
func (r *Randomizer) SeedLinks() []graph.Link      { return r.seedLinks }
func (r *Randomizer) Tiers() []difficulty.Config   { return r.tiers }
func (r *Randomizer) Start() graph.StartLocation   { return r.start }
func (r *Randomizer) settings() *difficulty.Config { return &r.tiers[len(r.tiers)-1] }
func (r *Randomizer) hardest() int                 { return len(r.tiers) - 1 }

// EmptyGlobal returns an empty inventory with the hardest tier's tech.
func (r *Randomizer) EmptyGlobal() resource.GlobalState {
	view := r.views[r.hardest()]
	return resource.NewGlobalState(view.tech, view.strats, len(r.graph.Flags), r.settings().ShineChargeTiles)
}

// Reachability runs the forward and reverse traversal from the hub with the
// items and flags of global and the tech of the given tier.
func (r *Randomizer) Reachability(tier int, global *resource.GlobalState) (fwd, rev *traverse.Result) {
	started := time.Now()
	view := *global
	view.Tech = r.views[tier].tech
	view.NotableStrats = r.views[tier].strats
	view.ShineChargeTiles = r.tiers[tier].ShineChargeTiles
	diff := &r.tiers[tier]
	fwd = traverse.Traverse(r.graph, r.seedLinks, &view, resource.LocalState{}, r.start.Vertex, false, diff)
	rev = traverse.Traverse(r.graph, r.seedLinks, &view, resource.LocalState{}, r.start.Vertex, true, diff)
	traversalDuration.Observe(time.Since(started).Seconds())
	return fwd, rev
}

type itemLocationState struct {
	placed          bool
	item            resource.Item
	placedStep      int
	reachableStep   int
	bireachableStep int
}

type flagLocationState struct {
	reachableStep   int
	bireachableStep int
}

type saveLocationState struct {
	reachableStep   int
	bireachableStep int
}

// state is everything one attempt mutates.
type state struct {
	step       int
	global     resource.GlobalState
	items      []itemLocationState
	flags      []flagLocationState
	saves      []saveLocationState
	pool       []resource.Item
	precedence []resource.Item
	locOrder   []int
	fwd, rev   *traverse.Result
	spoiler    SpoilerLog
}

// placement is one item chosen for one location in a step.
type placement struct {
	loc     int
	poolIdx int
	item    resource.Item
	key     bool
	tier    int
}

func (r *Randomizer) newState(rng *rand.Rand) *state {
	st := &state{
		global: r.EmptyGlobal(),
		items:  make([]itemLocationState, len(r.graph.ItemLocations)),
		flags:  make([]flagLocationState, len(r.graph.FlagLocations)),
		saves:  make([]saveLocationState, len(r.graph.SaveLocations)),
		pool:   slices.Clone(r.pool),
	}
	for i := range st.items {
		st.items[i] = itemLocationState{placedStep: -1, reachableStep: -1, bireachableStep: -1}
	}
	for i := range st.flags {
		st.flags[i] = flagLocationState{reachableStep: -1, bireachableStep: -1}
	}
	for i := range st.saves {
		st.saves[i] = saveLocationState{reachableStep: -1, bireachableStep: -1}
	}
	rng.Shuffle(len(st.pool), func(i, j int) { st.pool[i], st.pool[j] = st.pool[j], st.pool[i] })
	st.locOrder = rng.Perm(len(st.items))
	st.precedence = itemPrecedence(r.settings(), st.pool, rng)
	st.spoiler = SpoilerLog{Summary: []SpoilerSummary{}, Details: []SpoilerDetails{}}
	return st
}

// Randomize runs one attempt. The item seed fixes every choice, so the same
// seed on the same Randomizer yields the same result. ErrStuck is returned
// when a step can neither collect a flag nor place an item while work remains.
func (r *Randomizer) Randomize(attemptNum int, itemSeed, displaySeed uint64) (*Randomization, error) {
	log := r.logger.With("attempt", attemptNum, "item_seed", itemSeed)
	rng := rand.New(rand.NewPCG(itemSeed, itemSeed^itemStream))
	st := r.newState(rng)

	for {
		r.updateReachability(st)
		flags := r.collectFlags(st)
		if r.finished(st) {
			if len(flags) > 0 {
				r.commit(st, flags, nil)
			}
			break
		}
		placements := r.plan(st)
		if len(flags) == 0 && len(placements) == 0 {
			attemptSteps.Observe(float64(st.step))
			attemptsTotal.WithLabelValues(resultStuck).Inc()
			log.Debug("Randomization stuck", "step", st.step, "unplaced", len(st.pool))
			return nil, fmt.Errorf("%w: attempt %d at step %d with %d items unplaced", ErrStuck, attemptNum, st.step, len(st.pool))
		}
		r.commit(st, flags, placements)
		log.Debug("Step committed", "step", st.step-1, "placed", len(placements), "flags", len(flags))
	}

	attemptSteps.Observe(float64(st.step))
	attemptsTotal.WithLabelValues(resultSuccess).Inc()
	log.Info("Randomization succeeded", "steps", st.step)
	return r.result(st, itemSeed, displaySeed), nil
}

// updateReachability classifies every location at the hardest tier.
func (r *Randomizer) updateReachability(st *state) {
	st.fwd, st.rev = r.Reachability(r.hardest(), &st.global)
	for i, loc := range r.graph.ItemLocations {
		is := &st.items[i]
		if is.reachableStep < 0 && traverse.AnyReachable(st.fwd, loc.Vertices) {
			is.reachableStep = st.step
		}
		if is.bireachableStep < 0 && traverse.AnyBireachable(st.fwd, st.rev, loc.Vertices) {
			is.bireachableStep = st.step
		}
	}
	for i, loc := range r.graph.FlagLocations {
		fs := &st.flags[i]
		if fs.reachableStep < 0 && traverse.AnyReachable(st.fwd, loc.Vertices) {
			fs.reachableStep = st.step
		}
		if fs.bireachableStep < 0 && traverse.AnyBireachable(st.fwd, st.rev, loc.Vertices) {
			fs.bireachableStep = st.step
		}
	}
	for i, loc := range r.graph.SaveLocations {
		ss := &st.saves[i]
		if ss.reachableStep < 0 && traverse.AnyReachable(st.fwd, loc.Vertices) {
			ss.reachableStep = st.step
		}
		if ss.bireachableStep < 0 && traverse.AnyBireachable(st.fwd, st.rev, loc.Vertices) {
			ss.bireachableStep = st.step
		}
	}
}

// collectFlags sets every flag whose location is bireachable, repeating until
// no new flag opens up. It returns the flags gained.
func (r *Randomizer) collectFlags(st *state) []int {
	var collected []int
	for {
		var gained []int
		for _, loc := range r.graph.FlagLocations {
			if !st.global.HasFlag(loc.Flag) && traverse.AnyBireachable(st.fwd, st.rev, loc.Vertices) {
				st.global.SetFlag(loc.Flag)
				gained = append(gained, loc.Flag)
			}
		}
		if len(gained) == 0 {
			return collected
		}
		collected = append(collected, gained...)
		r.updateReachability(st)
	}
}

func (r *Randomizer) finished(st *state) bool {
	if len(st.pool) > 0 {
		return false
	}
	for _, f := range r.graph.Objectives {
		if !st.global.HasFlag(f) {
			return false
		}
	}
	return true
}

// candidates lists the unplaced, currently bireachable locations in the
// attempt's location order.
func (r *Randomizer) candidates(st *state) []int {
	var out []int
	for _, i := range st.locOrder {
		if !st.items[i].placed && traverse.AnyBireachable(st.fwd, st.rev, r.graph.ItemLocations[i].Vertices) {
			out = append(out, i)
		}
	}
	return out
}

// keyCandidates lists the item kinds still in the pool and not yet held, in
// precedence order.
func (r *Randomizer) keyCandidates(st *state) []resource.Item {
	var out []resource.Item
	for _, item := range st.precedence {
		if !st.global.Has(item) && slices.Contains(st.pool, item) {
			out = append(out, item)
		}
	}
	return out
}

// progress counts unplaced item locations and uncollected flags that are
// bireachable at a tier with the given inventory.
func (r *Randomizer) progress(st *state, tier int, global *resource.GlobalState) int {
	fwd, rev := r.Reachability(tier, global)
	n := 0
	for i, loc := range r.graph.ItemLocations {
		if !st.items[i].placed && traverse.AnyBireachable(fwd, rev, loc.Vertices) {
			n++
		}
	}
	for _, loc := range r.graph.FlagLocations {
		if !global.HasFlag(loc.Flag) && traverse.AnyBireachable(fwd, rev, loc.Vertices) {
			n++
		}
	}
	return n
}

// lookahead finds the first key item, in precedence order, whose collection
// opens something at the easiest tier possible.
func (r *Randomizer) lookahead(st *state, hypo *resource.GlobalState, keys []resource.Item) (resource.Item, int, bool) {
	for t := range r.tiers {
		base := r.progress(st, t, hypo)
		for _, item := range keys {
			h := hypo.Clone()
			h.Collect(item)
			if r.progress(st, t, &h) > base {
				return item, t, true
			}
		}
	}
	return 0, -1, false
}

// selectKeys picks the key items of a step. When lookahead finds nothing the
// first remaining key item is placed anyway so the pool keeps draining. The
// second result reports whether key items remain for later steps.
func (r *Randomizer) selectKeys(st *state, slots int) ([]placement, bool) {
	remaining := r.keyCandidates(st)
	limit := min(r.settings().KeyItemsPerStep(), slots)
	hypo := st.global.Clone()
	var keys []placement
	for len(keys) < limit && len(remaining) > 0 {
		item, tier, ok := r.lookahead(st, &hypo, remaining)
		if !ok {
			break
		}
		keys = append(keys, placement{item: item, key: true, tier: tier})
		hypo.Collect(item)
		remaining = slices.DeleteFunc(remaining, func(i resource.Item) bool { return i == item })
	}
	if len(keys) == 0 && len(remaining) > 0 && slots > 0 {
		keys = append(keys, placement{item: remaining[0], key: true, tier: -1})
		remaining = remaining[1:]
	}
	return keys, len(remaining) > 0
}

// plan chooses the placements of the current step.
func (r *Randomizer) plan(st *state) []placement {
	cands := r.candidates(st)
	if len(cands) == 0 {
		return nil
	}

	// Once every unplaced location is bireachable the rest of the pool goes
	// in directly.
	if len(cands) == len(st.pool) {
		held := st.global.Clone()
		out := make([]placement, len(cands))
		for i, loc := range cands {
			item := st.pool[i]
			out[i] = placement{loc: loc, poolIdx: i, item: item, key: !held.Has(item), tier: -1}
			held.Collect(item)
		}
		return out
	}

	settings := r.settings()
	keys, keysRemain := r.selectKeys(st, len(cands))
	taken := make([]bool, len(st.pool))
	for i := range keys {
		for j, item := range st.pool {
			if !taken[j] && item == keys[i].item {
				taken[j] = true
				keys[i].poolIdx = j
				break
			}
		}
	}

	avail := len(cands) - len(keys)
	num, den := settings.FillerShare()
	n := avail * num / den
	if keysRemain && n > avail-1 {
		n = avail - 1
	}
	if len(keys) == 0 && n == 0 && avail > 0 {
		n = 1
	}

	var filler []placement
	if n > 0 {
		isKey := make(map[resource.Item]bool)
		for _, item := range r.keyCandidates(st) {
			isKey[item] = true
		}
		var eligible []int
		for j, item := range st.pool {
			if taken[j] {
				continue
			}
			if fillerRank(settings, item) == 3 && isKey[item] {
				continue
			}
			eligible = append(eligible, j)
		}
		slices.SortStableFunc(eligible, func(a, b int) int {
			return fillerRank(settings, st.pool[a]) - fillerRank(settings, st.pool[b])
		})
		for _, j := range eligible[:min(n, len(eligible))] {
			filler = append(filler, placement{poolIdx: j, item: st.pool[j], tier: -1})
		}
	}

	// Keys go first into the preferred locations, filler into the rest.
	order := slices.Clone(cands)
	if settings.ItemPlacementStyle == difficulty.PlacementForced {
		slices.SortStableFunc(order, func(a, b int) int {
			return boolRank(st.items[a].bireachableStep != st.step) - boolRank(st.items[b].bireachableStep != st.step)
		})
	}
	for i := range keys {
		keys[i].loc = order[i]
	}
	used := order[:len(keys)]
	rest := make([]int, 0, len(cands))
	for _, loc := range cands {
		if !slices.Contains(used, loc) {
			rest = append(rest, loc)
		}
	}
	for i := range filler {
		filler[i].loc = rest[i]
	}
	return append(keys, filler...)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// commit applies a step: placed items are collected, the spoiler gains the
// step and the step counter advances.
func (r *Randomizer) commit(st *state, flags []int, placements []placement) {
	summary := SpoilerSummary{Step: st.step, Items: []SpoilerItemSummary{}}
	details := SpoilerDetails{Step: st.step, Items: []SpoilerItemDetails{}}
	for _, f := range flags {
		summary.Flags = append(summary.Flags, r.graph.Flags[f])
	}
	for i, loc := range r.graph.ItemLocations {
		if st.items[i].reachableStep == st.step {
			details.Reachable = append(details.Reachable, loc.Name)
		}
		if st.items[i].bireachableStep == st.step {
			details.Bireachable = append(details.Bireachable, loc.Name)
		}
	}
	for i, loc := range r.graph.FlagLocations {
		if st.flags[i].reachableStep == st.step {
			details.Reachable = append(details.Reachable, r.graph.Flags[loc.Flag])
		}
		if st.flags[i].bireachableStep == st.step {
			details.Bireachable = append(details.Bireachable, r.graph.Flags[loc.Flag])
		}
	}
	for i, loc := range r.graph.SaveLocations {
		if st.saves[i].reachableStep == st.step {
			details.ReachableSaves = append(details.ReachableSaves, loc.Name)
		}
		if st.saves[i].bireachableStep == st.step {
			details.BireachableSaves = append(details.BireachableSaves, loc.Name)
		}
	}

	taken := make([]bool, len(st.pool))
	for _, p := range placements {
		loc := r.graph.ItemLocations[p.loc]
		is := &st.items[p.loc]
		is.placed, is.item, is.placedStep = true, p.item, st.step
		taken[p.poolIdx] = true

		tierName := ""
		if p.tier >= 0 {
			tierName = r.tiers[p.tier].Name
		}
		summary.Items = append(summary.Items, SpoilerItemSummary{
			Item: p.item, Location: loc.Name, Key: p.key, Tier: tierName,
		})
		detail := SpoilerItemDetails{
			Item: p.item, Location: loc.Name, Room: loc.Room, Node: loc.Node, Tier: tierName,
			ObtainRoute: []SpoilerRouteEntry{}, ReturnRoute: []SpoilerRouteEntry{},
		}
		for _, v := range loc.Vertices {
			if traverse.Bireachable(st.fwd, st.rev, v) {
				detail.ObtainRoute = route(r.graph, r.seedLinks, st.fwd, v)
				detail.ReturnRoute = route(r.graph, r.seedLinks, st.rev, v)
				break
			}
		}
		details.Items = append(details.Items, detail)
	}

	for _, p := range placements {
		st.global.Collect(p.item)
	}
	pool := make([]resource.Item, 0, len(st.pool))
	for j, item := range st.pool {
		if !taken[j] {
			pool = append(pool, item)
		}
	}
	st.pool = pool

	summary.Inventory = inventory(&st.global)
	st.spoiler.Summary = append(st.spoiler.Summary, summary)
	st.spoiler.Details = append(st.spoiler.Details, details)
	st.step++
}

func (r *Randomizer) result(st *state, itemSeed, displaySeed uint64) *Randomization {
	res := &Randomization{
		DisplaySeed: displaySeed,
		ItemSeed:    itemSeed,
		Difficulty:  r.settings().Name,
		Start:       r.start.Name,
		Placement:   make([]Placement, 0, len(st.items)),
		SpoilerLog:  st.spoiler,
	}
	res.SpoilerLog.AllItems = make([]SpoilerLocation, 0, len(st.items))
	for i, loc := range r.graph.ItemLocations {
		is := st.items[i]
		res.Placement = append(res.Placement, Placement{Location: loc.Name, Room: loc.Room, Node: loc.Node, Item: is.item})
		res.SpoilerLog.AllItems = append(res.SpoilerLog.AllItems, SpoilerLocation{
			Location: loc.Name, Room: loc.Room, Node: loc.Node, Item: is.item, Step: is.placedStep,
		})
	}
	return res
}
