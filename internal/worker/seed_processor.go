package worker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	queuePkg "github.com/jwebster45206/rando-engine/pkg/queue"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

// SeedProcessor turns a seed request into a Randomization
type SeedProcessor struct {
	storage     storage.Storage
	maps        randomize.MapSource
	defaultTier string
	budget      randomize.Budget
	workers     int
	logger      *slog.Logger
}

// NewSeedProcessor creates a processor that draws maps and presets from store
func NewSeedProcessor(store storage.Storage, defaultTier string, budget randomize.Budget, workers int, logger *slog.Logger) *SeedProcessor {
	return &SeedProcessor{
		storage:     store,
		maps:        storage.MapSource(store),
		defaultTier: defaultTier,
		budget:      budget,
		workers:     workers,
		logger:      logger,
	}
}

// Tiers resolves the tier list of a request, easiest first, with the
// request's overrides applied to the hardest tier.
func (p *SeedProcessor) Tiers(ctx context.Context, req *queuePkg.Request) ([]difficulty.Config, error) {
	presets, err := p.storage.LoadPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}
	name := req.Tier
	if name == "" {
		name = p.defaultTier
	}
	tiers, err := difficulty.Find(presets, name)
	if err != nil {
		return nil, err
	}

	tiers = slices.Clone(tiers)
	hardest := &tiers[len(tiers)-1]
	if req.RandomizedStart != nil {
		hardest.RandomizedStart = *req.RandomizedStart
	}
	if req.DoorsMode != nil {
		hardest.DoorsMode = difficulty.DoorsMode(*req.DoorsMode)
	}
	return tiers, nil
}

// Process runs the generator for req. observe, when set, sees every attempt.
func (p *SeedProcessor) Process(ctx context.Context, req *queuePkg.Request, observe func(randomize.Attempt)) (*randomize.Randomization, error) {
	tiers, err := p.Tiers(ctx, req)
	if err != nil {
		return nil, err
	}

	gen := &randomize.Generator{
		Maps:    p.maps,
		Tiers:   tiers,
		Budget:  p.budget,
		Logger:  p.logger.With("seed_id", req.SeedID.String()),
		Observe: observe,
	}
	res, err := gen.GenerateParallel(ctx, req.Seed, p.workers)
	if err != nil {
		return nil, err
	}
	res.ID = req.SeedID.String()
	return res, nil
}
