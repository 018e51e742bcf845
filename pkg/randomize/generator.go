package randomize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// MapSource provides the logic graph for a map seed.
type MapSource interface {
	// Map returns the graph selected by seed and a name for it. Errors other
	// than context cancellation abort generation.
	Map(ctx context.Context, seed uint64) (name string, g *graph.Graph, err error)
}

// Budget bounds the attempts of one generation: MapAttempts map and door
// layouts, each with up to ItemAttempts item seeds.
type Budget struct {
	MapAttempts  int `json:"map_attempts"`
	ItemAttempts int `json:"item_attempts"`
}

// Max is the number of item attempts the budget allows.
func (b Budget) Max() int { return b.MapAttempts * b.ItemAttempts }

// Attempt reports the outcome of one item attempt, or of a map whose hub was
// rejected, in which case ItemAttempt is -1.
type Attempt struct {
	MapAttempt  int
	ItemAttempt int
	Map         string
	MapSeed     uint64
	DoorSeed    uint64
	ItemSeed    uint64
	Err         error
}

// Generator retries randomization over fresh seeds until an attempt succeeds
// or the budget runs out.
type Generator struct {
	Maps   MapSource
	Tiers  []difficulty.Config
	Budget Budget
	Logger *slog.Logger
	// Pool builds the item pool of a map. DefaultItemPool is used when nil.
	Pool func(numLocations int) []resource.Item
	// Observe is called after every attempt. GenerateParallel calls it from
	// several goroutines.
	Observe func(Attempt)
}

// mapPlan is the seeds of one map attempt.
type mapPlan struct {
	mapSeed   uint64
	doorSeed  uint64
	itemSeeds []uint64
}

// plan derives every seed of a generation from the root seed up front, so
// sequential and parallel runs try the same combinations.
func (gen *Generator) plan(seed uint64) []mapPlan {
	rng := rand.New(rand.NewPCG(seed, seed^planStream))
	plans := make([]mapPlan, gen.Budget.MapAttempts)
	for i := range plans {
		p := mapPlan{
			mapSeed:   rng.Uint64(),
			doorSeed:  rng.Uint64(),
			itemSeeds: make([]uint64, gen.Budget.ItemAttempts),
		}
		for j := range p.itemSeeds {
			p.itemSeeds[j] = rng.Uint64()
		}
		plans[i] = p
	}
	return plans
}

func (gen *Generator) check() error {
	if gen.Maps == nil {
		return fmt.Errorf("%w: no map source", ErrMalformed)
	}
	if len(gen.Tiers) == 0 {
		return fmt.Errorf("%w: no difficulty tiers", ErrMalformed)
	}
	if gen.Budget.MapAttempts < 1 || gen.Budget.ItemAttempts < 1 {
		return fmt.Errorf("%w: attempt budget %+v", ErrMalformed, gen.Budget)
	}
	for i := range gen.Tiers {
		if err := gen.Tiers[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (gen *Generator) logger() *slog.Logger {
	if gen.Logger == nil {
		return slog.Default()
	}
	return gen.Logger
}

// Generate tries the planned seeds in order and returns the first success.
// Malformed input and cancellation end the run at once.
func (gen *Generator) Generate(ctx context.Context, seed uint64) (*Randomization, error) {
	started := time.Now()
	if err := gen.check(); err != nil {
		return nil, gen.finish(started, nil, err)
	}
	for i, p := range gen.plan(seed) {
		res, err := gen.attemptMap(ctx, i, p, seed)
		if err != nil || res != nil {
			return res, gen.finish(started, res, err)
		}
	}
	return nil, gen.finish(started, nil, gen.exhausted())
}

// GenerateParallel spreads map attempts over up to workers goroutines. The
// success with the lowest map attempt index wins, which is the one Generate
// would return for the same seed.
func (gen *Generator) GenerateParallel(ctx context.Context, seed uint64, workers int) (*Randomization, error) {
	started := time.Now()
	if err := gen.check(); err != nil {
		return nil, gen.finish(started, nil, err)
	}
	plans := gen.plan(seed)

	type outcome struct {
		res *Randomization
		err error
	}
	outcomes := make([]outcome, len(plans))
	var first atomic.Int64
	first.Store(int64(len(plans)))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, p := range plans {
		g.Go(func() error {
			// A decided lower index makes this attempt irrelevant.
			if int64(i) > first.Load() {
				return nil
			}
			res, err := gen.attemptMap(ctx, i, p, seed)
			outcomes[i] = outcome{res: res, err: err}
			if res != nil || err != nil {
				for {
					cur := first.Load()
					if int64(i) >= cur || first.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, gen.finish(started, nil, err)
	}
	for _, o := range outcomes {
		if o.res != nil || o.err != nil {
			return o.res, gen.finish(started, o.res, o.err)
		}
	}
	return nil, gen.finish(started, nil, gen.exhausted())
}

func (gen *Generator) exhausted() error {
	return fmt.Errorf("%w: %d map attempts with %d item attempts each",
		ErrAttemptsExhausted, gen.Budget.MapAttempts, gen.Budget.ItemAttempts)
}

func (gen *Generator) finish(started time.Time, res *Randomization, err error) error {
	result := resultSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrAttemptsExhausted):
		result = resultExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = resultCanceled
	default:
		result = resultMalformed
	}
	generateDuration.WithLabelValues(result).Observe(time.Since(started).Seconds())
	if err != nil {
		gen.logger().Warn("Seed generation failed", "result", result, "error", err)
		return err
	}
	gen.logger().Info("Seed generated", "map", res.Map, "map_seed", res.MapSeed, "item_seed", res.ItemSeed)
	return nil
}

// attemptMap runs the item attempts of one map. It returns (nil, nil) when
// every attempt failed in a way a new map may fix.
func (gen *Generator) attemptMap(ctx context.Context, idx int, p mapPlan, seed uint64) (*Randomization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := gen.logger().With("map_attempt", idx, "map_seed", p.mapSeed)
	name, g, err := gen.Maps.Map(ctx, p.mapSeed)
	if err != nil {
		attemptsTotal.WithLabelValues(resultMalformed).Inc()
		return nil, fmt.Errorf("failed to load map for seed %d: %w", p.mapSeed, err)
	}

	hardest := &gen.Tiers[len(gen.Tiers)-1]
	seedLinks, locks := LockDoors(g, hardest.DoorsMode, p.doorSeed)
	start, err := DetermineStart(g, seedLinks, hardest, p.doorSeed)
	if err != nil {
		if errors.Is(err, ErrStartRejected) {
			attemptsTotal.WithLabelValues(resultStartRejected).Inc()
			log.Debug("Start rejected", "map", name, "error", err)
			gen.observe(Attempt{MapAttempt: idx, ItemAttempt: -1, Map: name, MapSeed: p.mapSeed, DoorSeed: p.doorSeed, Err: err})
			return nil, nil
		}
		return nil, err
	}

	poolFn := gen.Pool
	if poolFn == nil {
		poolFn = DefaultItemPool
	}
	r, err := New(g, seedLinks, gen.Tiers, poolFn(len(g.ItemLocations)), start, log)
	if err != nil {
		attemptsTotal.WithLabelValues(resultMalformed).Inc()
		return nil, fmt.Errorf("failed to prepare map %s: %w", name, err)
	}

	for j, itemSeed := range p.itemSeeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.Randomize(idx*len(p.itemSeeds)+j, itemSeed, seed)
		gen.observe(Attempt{MapAttempt: idx, ItemAttempt: j, Map: name, MapSeed: p.mapSeed, DoorSeed: p.doorSeed, ItemSeed: itemSeed, Err: err})
		if err == nil {
			res.Seed = seed
			res.MapSeed = p.mapSeed
			res.DoorSeed = p.doorSeed
			res.Map = name
			res.Doors = locks
			return res, nil
		}
		if !errors.Is(err, ErrStuck) {
			return nil, err
		}
	}
	return nil, nil
}

func (gen *Generator) observe(a Attempt) {
	if gen.Observe != nil {
		gen.Observe(a)
	}
}
