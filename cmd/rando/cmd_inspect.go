package main

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
)

func runInspect(cmd *cobra.Command, args []string) error {
	r, err := newInspectRandomizer()
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewInspectUI(r, clipboard.WriteAll),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running inspector: %w", err)
	}
	return nil
}

// newInspectRandomizer prepares the selected map with blue doors and the
// default item pool. The start location has to be a valid hub.
func newInspectRandomizer() (*randomize.Randomizer, error) {
	tiers, err := loadTiers()
	if err != nil {
		return nil, err
	}
	g, err := openMaps("").LoadMap(context.Background(), mapName)
	if err != nil {
		return nil, err
	}
	start, err := findStart(g, startName)
	if err != nil {
		return nil, err
	}
	seedLinks, _ := randomize.LockDoors(g, difficulty.DoorsBlue, 0)
	if err := randomize.ValidateStart(g, seedLinks, &tiers[len(tiers)-1], start); err != nil {
		return nil, err
	}
	return randomize.New(g, seedLinks, tiers, randomize.DefaultItemPool(len(g.ItemLocations)), start, log)
}

func findStart(g *graph.Graph, name string) (graph.StartLocation, error) {
	if len(g.StartLocations) == 0 {
		return graph.StartLocation{}, fmt.Errorf("map has no start locations")
	}
	if name == "" {
		return g.StartLocations[0], nil
	}
	for _, start := range g.StartLocations {
		if start.Name == name {
			return start, nil
		}
	}
	return graph.StartLocation{}, fmt.Errorf("unknown start location %q", name)
}
