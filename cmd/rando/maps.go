package main

import (
	"context"
	"path/filepath"

	"github.com/jwebster45206/rando-engine/internal/storage"
	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	store "github.com/jwebster45206/rando-engine/pkg/storage"
)

// pinnedMap restricts a map collection to the one map named on the command line.
type pinnedMap struct {
	store.Maps
	name string
}

func (p pinnedMap) ListMaps(context.Context) ([]string, error) {
	return []string{p.name}, nil
}

// openMaps serves the data directory's logic files. A non-empty only pins
// selection to that map.
func openMaps(only string) store.Maps {
	maps := storage.NewMapDir(mapsDir(), log)
	if only != "" {
		return pinnedMap{Maps: maps, name: only}
	}
	return maps
}

func mapsDir() string {
	return filepath.Join(cfg.DataDir, "maps")
}

// loadTiers reads the presets and returns the configured tier with every
// easier one.
func loadTiers() ([]difficulty.Config, error) {
	path := cfg.PresetsFile
	if path == "" {
		path = filepath.Join(cfg.DataDir, "presets.yaml")
	}
	presets, err := storage.LoadPresetsFile(path)
	if err != nil {
		return nil, err
	}
	return difficulty.Find(presets, cfg.Tier)
}
