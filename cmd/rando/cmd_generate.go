package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/spoilertext"
	store "github.com/jwebster45206/rando-engine/pkg/storage"
)

func runGenerate(cmd *cobra.Command, args []string) error {
	tiers, err := loadTiers()
	if err != nil {
		return err
	}

	seed := seedFlag
	if !cmd.Flags().Changed("seed") {
		seed = rand.Uint64()
	}

	gen := &randomize.Generator{
		Maps:   store.MapSource(openMaps(mapName)),
		Tiers:  tiers,
		Budget: randomize.Budget{MapAttempts: cfg.MaxMapAttempts, ItemAttempts: cfg.MaxItemAttempts},
		Logger: log,
		Observe: func(a randomize.Attempt) {
			if a.Err != nil {
				log.Debug("Attempt failed", "map", a.Map, "map_attempt", a.MapAttempt, "item_attempt", a.ItemAttempt, "error", a.Err)
			}
		},
	}
	log.Info("Generating seed", "seed", seed, "tier", cfg.Tier, "budget", gen.Budget.Max())

	res, err := gen.GenerateParallel(cmd.Context(), seed, cfg.AttemptWorkers)
	if err != nil {
		return fmt.Errorf("seed %d: %w", seed, err)
	}

	if outPath != "" {
		if err := writeResult(cmd.OutOrStdout(), outPath, res); err != nil {
			return err
		}
	}
	if outPath != "-" {
		if showSpoiler {
			fmt.Fprint(cmd.OutOrStdout(), spoilertext.Render(res, spoilerWidth))
		} else {
			fmt.Fprint(cmd.OutOrStdout(), spoilertext.Summary(res))
		}
	}

	if copySummary {
		if err := clipboard.WriteAll(spoilertext.Summary(res)); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		log.Info("Summary copied to clipboard")
	}
	return nil
}

// writeResult writes res as indented JSON to path, or to stdout for "-".
func writeResult(stdout io.Writer, path string, res *randomize.Randomization) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal randomization: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info("Randomization written", "path", path)
	return nil
}
