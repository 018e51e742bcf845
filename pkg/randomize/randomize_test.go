package randomize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/requirement"
	"github.com/jwebster45206/rando-engine/pkg/resource"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newRand(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }

func key(room, node int) graph.VertexKey { return graph.VertexKey{Room: room, Node: node} }

func tiers() []difficulty.Config {
	return []difficulty.Config{difficulty.Default()}
}

// testWorld is a small map where every key item opens a location on its own.
func testWorld(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	b.AddFlag("f_DefeatedBoss")

	both := func(a, c graph.VertexKey, req requirement.Requirement, name string) {
		b.AddLink(a, c, req, name, "")
		b.AddLink(c, a, req, name+" Back", "")
	}
	both(key(1, 0), key(1, 1), requirement.Free(), "Hub Walk")
	both(key(1, 1), key(2, 0), requirement.Item(resource.Morph), "Morph Tunnel")
	both(key(2, 0), key(3, 0), requirement.Or(requirement.Item(resource.Bombs), requirement.PowerBombs(1)), "Bomb Wall")
	b.AddLink(key(3, 0), key(3, 1), requirement.And(requirement.Item(resource.Varia), requirement.Missiles(2)), "Boss Fight", "")
	b.AddLink(key(3, 1), key(3, 0), requirement.Free(), "Boss Exit", "")
	both(key(1, 0), key(4, 0), requirement.HeatFrames(420), "Hot Corridor")
	b.AddLink(key(4, 0), key(4, 1), requirement.Item(resource.Grapple), "Grapple Ledge", "")
	b.AddLink(key(4, 1), key(4, 0), requirement.Free(), "Drop Down", "")
	both(key(1, 1), key(5, 0), requirement.Item(resource.SpeedBooster), "Speed Hall")

	b.AddItemLocation("Hub Left", 1, 0)
	b.AddItemLocation("Hub Right", 1, 1)
	b.AddItemLocation("Tunnel", 2, 0)
	b.AddItemLocation("Bomb Room", 3, 0)
	b.AddItemLocation("Hot Room", 4, 0)
	b.AddItemLocation("Ledge", 4, 1)
	b.AddItemLocation("Speed Room", 5, 0)
	b.AddFlagLocation("f_DefeatedBoss", 3, 1)
	b.AddSaveLocation("Landing Save", 1, 0)
	b.AddSaveLocation("Tunnel Save", 2, 0)
	b.AddObjective("f_DefeatedBoss")
	b.AddStartLocation("Landing Site", key(1, 0))

	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func worldPool() []resource.Item {
	return []resource.Item{
		resource.Morph, resource.Bombs, resource.Varia, resource.SpeedBooster,
		resource.Grapple, resource.Missile, resource.ETank,
	}
}

func newWorldRandomizer(t *testing.T, cfg difficulty.Config) *Randomizer {
	t.Helper()
	g := testWorld(t)
	r, err := New(g, nil, []difficulty.Config{cfg}, worldPool(), g.StartLocations[0], testLogger())
	require.NoError(t, err)
	return r
}

func stepOf(res *Randomization, item resource.Item) (int, string) {
	for _, loc := range res.SpoilerLog.AllItems {
		if loc.Item == item {
			return loc.Step, loc.Location
		}
	}
	return -1, ""
}

func TestRandomizeSucceeds(t *testing.T) {
	variants := []struct {
		name  string
		apply func(*difficulty.Config)
	}{
		{"normal neutral", func(*difficulty.Config) {}},
		{"slow", func(c *difficulty.Config) { c.ProgressionRate = difficulty.ProgressionSlow }},
		{"fast", func(c *difficulty.Config) { c.ProgressionRate = difficulty.ProgressionFast }},
		{"forced", func(c *difficulty.Config) { c.ItemPlacementStyle = difficulty.PlacementForced }},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			cfg := difficulty.Default()
			v.apply(&cfg)
			r := newWorldRandomizer(t, cfg)
			for seed := uint64(1); seed <= 20; seed++ {
				res, err := r.Randomize(int(seed), seed, 99)
				require.NoError(t, err, "seed %d", seed)

				require.Len(t, res.Placement, 7)
				placed := make([]resource.Item, 0, len(res.Placement))
				for _, p := range res.Placement {
					placed = append(placed, p.Item)
				}
				assert.ElementsMatch(t, worldPool(), placed)

				// Morph has to come out before anything behind the tunnel.
				morphStep, _ := stepOf(res, resource.Morph)
				for _, loc := range res.SpoilerLog.AllItems {
					if loc.Location == "Tunnel" || loc.Location == "Bomb Room" {
						assert.Greater(t, loc.Step, morphStep, "seed %d", seed)
					}
				}
				assert.Equal(t, "Default", res.Difficulty)
				assert.Equal(t, "Landing Site", res.Start)
			}
		})
	}
}

func TestItemNeededForEdgeIsPlacedBeforeIt(t *testing.T) {
	b := graph.NewBuilder()
	b.AddLink(key(1, 0), key(1, 1), requirement.Free(), "Walk", "")
	b.AddLink(key(1, 1), key(1, 0), requirement.Free(), "Walk Back", "")
	b.AddLink(key(1, 0), key(2, 0), requirement.Item(resource.Grapple), "Grapple Gap", "")
	b.AddLink(key(2, 0), key(1, 0), requirement.Free(), "Return", "")
	b.AddItemLocation("Start A", 1, 0)
	b.AddItemLocation("Start B", 1, 1)
	b.AddItemLocation("Across", 2, 0)
	b.AddStartLocation("Hub", key(1, 0))
	g, err := b.Build()
	require.NoError(t, err)

	r, err := New(g, nil, tiers(), []resource.Item{resource.Grapple, resource.Missile, resource.ETank}, g.StartLocations[0], testLogger())
	require.NoError(t, err)

	for seed := uint64(0); seed < 16; seed++ {
		res, err := r.Randomize(0, seed, seed)
		require.NoError(t, err)
		grappleStep, grappleLoc := stepOf(res, resource.Grapple)
		assert.Contains(t, []string{"Start A", "Start B"}, grappleLoc)
		for _, loc := range res.SpoilerLog.AllItems {
			if loc.Location == "Across" {
				assert.Greater(t, loc.Step, grappleStep)
			}
		}
		first := res.SpoilerLog.Summary[0].Items
		require.NotEmpty(t, first)
		assert.Equal(t, resource.Grapple, first[0].Item)
		assert.True(t, first[0].Key)
		assert.Equal(t, "Default", first[0].Tier)
	}
}

func TestSameSeedsSameResult(t *testing.T) {
	r := newWorldRandomizer(t, difficulty.Default())
	a, err := r.Randomize(0, 1234, 5)
	require.NoError(t, err)
	b, err := r.Randomize(1, 1234, 5)
	require.NoError(t, err)
	assert.Equal(t, a.Placement, b.Placement)
	assert.Equal(t, a.SpoilerLog, b.SpoilerLog)
}

func TestInventoryOnlyGrows(t *testing.T) {
	r := newWorldRandomizer(t, difficulty.Default())
	for seed := uint64(0); seed < 10; seed++ {
		res, err := r.Randomize(0, seed, 0)
		require.NoError(t, err)

		var prevItems []resource.Item
		var flags []string
		for _, step := range res.SpoilerLog.Summary {
			for _, item := range prevItems {
				assert.Contains(t, step.Inventory, item, "seed %d step %d", seed, step.Step)
			}
			prevItems = step.Inventory
			for _, f := range step.Flags {
				assert.NotContains(t, flags, f, "flag collected twice")
				flags = append(flags, f)
			}
		}
		assert.Equal(t, []string{"f_DefeatedBoss"}, flags)
		assert.Len(t, prevItems, len(worldPool()))
	}
}

func TestSpoilerRoutes(t *testing.T) {
	r := newWorldRandomizer(t, difficulty.Default())
	res, err := r.Randomize(0, 3, 0)
	require.NoError(t, err)

	for _, step := range res.SpoilerLog.Details {
		for _, item := range step.Items {
			if item.Location != "Bomb Room" {
				continue
			}
			require.NotEmpty(t, item.ObtainRoute)
			assert.Equal(t, key(1, 0), item.ObtainRoute[0].From)
			assert.Equal(t, key(3, 0), item.ObtainRoute[len(item.ObtainRoute)-1].To)
			require.NotEmpty(t, item.ReturnRoute)
			assert.Equal(t, key(3, 0), item.ReturnRoute[0].From)
			assert.Equal(t, key(1, 0), item.ReturnRoute[len(item.ReturnRoute)-1].To)
		}
	}
	assert.Contains(t, res.SpoilerLog.Details[0].Bireachable, "Hub Left")
}

func TestSaveStationsTracked(t *testing.T) {
	r := newWorldRandomizer(t, difficulty.Default())
	for seed := uint64(1); seed <= 10; seed++ {
		res, err := r.Randomize(0, seed, 0)
		require.NoError(t, err)

		saveStep := func(name string) int {
			for _, d := range res.SpoilerLog.Details {
				if slices.Contains(d.BireachableSaves, name) {
					return d.Step
				}
			}
			return -1
		}
		assert.Equal(t, 0, saveStep("Landing Save"), "seed %d", seed)
		morphStep, _ := stepOf(res, resource.Morph)
		assert.Equal(t, morphStep+1, saveStep("Tunnel Save"), "seed %d", seed)
		assert.Contains(t, res.SpoilerLog.Details[0].ReachableSaves, "Landing Save")
		assert.NotContains(t, res.SpoilerLog.Details[0].Bireachable, "Landing Save")
	}
}

func TestNewRejectsMalformedInput(t *testing.T) {
	g := testWorld(t)
	_, err := New(g, nil, tiers(), worldPool()[:3], g.StartLocations[0], nil)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = New(g, nil, nil, worldPool(), g.StartLocations[0], nil)
	assert.ErrorIs(t, err, ErrMalformed)

	bad := difficulty.Default()
	bad.ResourceMultiplier = 0
	_, err = New(g, nil, []difficulty.Config{bad}, worldPool(), g.StartLocations[0], nil)
	assert.ErrorIs(t, err, difficulty.ErrInvalidConfig)
}

func TestValidateStart(t *testing.T) {
	b := graph.NewBuilder()
	b.AddLink(key(1, 0), key(1, 1), requirement.Free(), "Walk", "")
	b.AddLink(key(1, 1), key(1, 0), requirement.Free(), "Walk Back", "")
	// A one-way drop: reachable, but there is no way back.
	b.AddLink(key(1, 0), key(2, 0), requirement.Free(), "Drop", "")
	b.AddLink(key(2, 0), key(2, 1), requirement.Free(), "Pit Walk", "")
	b.AddLink(key(2, 1), key(2, 0), requirement.Free(), "Pit Walk Back", "")
	b.AddItemLocation("Hub Item", 1, 1)
	b.AddItemLocation("Pit Item", 2, 0)
	b.AddItemLocation("Pit Item 2", 2, 1)
	b.AddStartLocation("Hub", key(1, 0))
	b.AddStartLocation("Pit", key(2, 0))
	g, err := b.Build()
	require.NoError(t, err)
	cfg := difficulty.Default()

	err = ValidateStart(g, nil, &cfg, g.StartLocations[0])
	assert.ErrorIs(t, err, ErrStartRejected, "only one item location is bireachable from the hub")
	assert.NoError(t, ValidateStart(g, nil, &cfg, g.StartLocations[1]))

	_, err = DetermineStart(g, nil, &cfg, 1)
	assert.ErrorIs(t, err, ErrStartRejected)

	cfg.RandomizedStart = true
	for seed := uint64(0); seed < 8; seed++ {
		start, err := DetermineStart(g, nil, &cfg, seed)
		require.NoError(t, err)
		assert.Equal(t, "Pit", start.Name)
	}
}

func TestLockDoors(t *testing.T) {
	b := graph.NewBuilder()
	for i := 0; i < 200; i++ {
		b.AddDoor(fmt.Sprintf("Door %d", i), key(i, 0), key(i+1, 1))
	}
	b.AddStartLocation("Hub", key(0, 0))
	g, err := b.Build()
	require.NoError(t, err)

	links, locks := LockDoors(g, difficulty.DoorsBlue, 7)
	require.Len(t, links, 200)
	for i, link := range links {
		assert.Equal(t, requirement.Free(), link.Requirement)
		assert.Equal(t, DoorBlue, locks[i].Color)
		assert.Equal(t, g.Doors[i].From, link.From)
		assert.Equal(t, -1, link.NotableStrat)
	}

	a, aLocks := LockDoors(g, difficulty.DoorsAmmo, 7)
	b2, bLocks := LockDoors(g, difficulty.DoorsAmmo, 7)
	assert.Equal(t, a, b2)
	assert.Equal(t, aLocks, bLocks)

	colors := make(map[DoorColor]int)
	for i, lock := range aLocks {
		colors[lock.Color]++
		assert.Equal(t, lock.Color.Requirement(), a[i].Requirement)
	}
	assert.Greater(t, colors[DoorBlue], 100)
	assert.Greater(t, colors[DoorRed]+colors[DoorGreen]+colors[DoorYellow], 0)
}

func TestDefaultItemPool(t *testing.T) {
	pool := DefaultItemPool(100)
	require.Len(t, pool, 100)
	count := func(item resource.Item) int {
		n := 0
		for _, i := range pool {
			if i == item {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 46, count(resource.Missile))
	assert.Equal(t, 14, count(resource.ETank))
	assert.Equal(t, 10, count(resource.Super))
	assert.Equal(t, 10, count(resource.PowerBomb))
	assert.Equal(t, 4, count(resource.ReserveTank))
	assert.Equal(t, 1, count(resource.Morph))

	assert.Equal(t, []resource.Item{resource.Morph, resource.Bombs, resource.Charge}, DefaultItemPool(3))
	for _, n := range []int{0, 1, 16, 17, 23, 57} {
		assert.Len(t, DefaultItemPool(n), n)
	}
}

func TestItemPrecedenceKeepsGroupOrder(t *testing.T) {
	cfg := difficulty.Default()
	pool := DefaultItemPool(40)
	order := itemPrecedence(&cfg, pool, newRand(9))

	early := cfg.ItemPriorities[0].Items
	assert.ElementsMatch(t, early, order[:len(early)])
	assert.Contains(t, order, resource.ETank, "items outside every group are appended")
	assert.Equal(t, len(order), len(slices.Compact(slices.Sorted(slices.Values(order)))))
}

// fixedMaps serves one graph for every seed and counts loads.
type fixedMaps struct {
	g     *graph.Graph
	err   error
	loads atomic.Int64
}

func (m *fixedMaps) Map(_ context.Context, seed uint64) (string, *graph.Graph, error) {
	m.loads.Add(1)
	if m.err != nil {
		return "", nil, m.err
	}
	return fmt.Sprintf("map-%d", seed%3), m.g, nil
}

// stuckWorld has one item location that can never be reached.
func stuckWorld(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	b.AddLink(key(1, 0), key(1, 1), requirement.Free(), "Walk", "")
	b.AddLink(key(1, 1), key(1, 0), requirement.Free(), "Walk Back", "")
	b.AddLink(key(1, 0), key(2, 0), requirement.Never(), "Sealed", "")
	b.AddItemLocation("A", 1, 0)
	b.AddItemLocation("B", 1, 1)
	b.AddItemLocation("Sealed", 2, 0)
	b.AddStartLocation("Hub", key(1, 0))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestGeneratorRespectsBudget(t *testing.T) {
	maps := &fixedMaps{g: stuckWorld(t)}
	var mu sync.Mutex
	var attempts []Attempt
	gen := &Generator{
		Maps:   maps,
		Tiers:  tiers(),
		Budget: Budget{MapAttempts: 3, ItemAttempts: 4},
		Logger: testLogger(),
		Observe: func(a Attempt) {
			mu.Lock()
			defer mu.Unlock()
			attempts = append(attempts, a)
		},
	}

	_, err := gen.Generate(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Len(t, attempts, gen.Budget.Max())
	assert.Equal(t, int64(3), maps.loads.Load())
	for _, a := range attempts {
		assert.ErrorIs(t, a.Err, ErrStuck)
	}

	attempts = nil
	_, err = gen.GenerateParallel(context.Background(), 42, 4)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Len(t, attempts, gen.Budget.Max())
}

func TestGeneratorStopsOnMalformedMap(t *testing.T) {
	maps := &fixedMaps{err: fmt.Errorf("bad file: %w", graph.ErrMalformed)}
	gen := &Generator{Maps: maps, Tiers: tiers(), Budget: Budget{MapAttempts: 5, ItemAttempts: 5}, Logger: testLogger()}

	_, err := gen.Generate(context.Background(), 1)
	assert.ErrorIs(t, err, graph.ErrMalformed)
	assert.Equal(t, int64(1), maps.loads.Load())
}

func TestGeneratorRejectsBadBudget(t *testing.T) {
	gen := &Generator{Maps: &fixedMaps{}, Tiers: tiers(), Budget: Budget{MapAttempts: 0, ItemAttempts: 1}}
	_, err := gen.Generate(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestGeneratorHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &Generator{Maps: &fixedMaps{g: stuckWorld(t)}, Tiers: tiers(), Budget: Budget{MapAttempts: 2, ItemAttempts: 2}, Logger: testLogger()}
	_, err := gen.Generate(ctx, 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerateIsDeterministic(t *testing.T) {
	world := testWorld(t)
	gen := &Generator{
		Maps:   &fixedMaps{g: world},
		Tiers:  tiers(),
		Budget: Budget{MapAttempts: 2, ItemAttempts: 3},
		Logger: testLogger(),
		Pool:   func(int) []resource.Item { return worldPool() },
	}

	a, err := gen.Generate(context.Background(), 777)
	require.NoError(t, err)
	b, err := gen.Generate(context.Background(), 777)
	require.NoError(t, err)
	c, err := gen.GenerateParallel(context.Background(), 777, 3)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.Equal(t, uint64(777), a.Seed)
	assert.Equal(t, fmt.Sprintf("map-%d", a.MapSeed%3), a.Map)
}
