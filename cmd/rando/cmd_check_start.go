package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
)

// runCheckStart validates every start location of a map against the
// hardest configured tier with all doors blue.
func runCheckStart(cmd *cobra.Command, args []string) error {
	tiers, err := loadTiers()
	if err != nil {
		return err
	}
	tier := &tiers[len(tiers)-1]

	g, err := openMaps("").LoadMap(cmd.Context(), mapName)
	if err != nil {
		return err
	}
	if len(g.StartLocations) == 0 {
		return fmt.Errorf("map %s has no start locations", mapName)
	}
	seedLinks, _ := randomize.LockDoors(g, difficulty.DoorsBlue, 0)

	out := cmd.OutOrStdout()
	rejected := 0
	for _, start := range g.StartLocations {
		if err := randomize.ValidateStart(g, seedLinks, tier, start); err != nil {
			rejected++
			fmt.Fprintf(out, "rejected  %s: %v\n", start.Name, err)
			continue
		}
		fmt.Fprintf(out, "ok        %s\n", start.Name)
	}
	if rejected == len(g.StartLocations) {
		return fmt.Errorf("no valid start location in %s at tier %s", mapName, tier.Name)
	}
	return nil
}
