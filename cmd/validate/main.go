package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <map.json|presets.yaml>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		v := &LogicValidator{}
		if err := v.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

// LogicValidator checks logic files beyond what decoding enforces.
type LogicValidator struct {
	errors []string
}

func (v *LogicValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	v.errors = nil

	baseName := filepath.Base(filename)
	switch ext := filepath.Ext(baseName); ext {
	case ".json":
		if !isValidMapFilename(strings.TrimSuffix(baseName, ext)) {
			return fmt.Errorf("map filename '%s' must be lowercase kebab-case (e.g., lower-norfair.json)", baseName)
		}
		if !json.Valid(data) {
			return fmt.Errorf("file %s contains invalid JSON", filename)
		}
		g, err := graph.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("file %s failed to compile: %w", filename, err)
		}
		v.validateMap(g)
	case ".yaml", ".yml":
		tiers, err := difficulty.LoadPresets(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("file %s failed to load: %w", filename, err)
		}
		v.validatePresets(tiers)
	default:
		return fmt.Errorf("unsupported file type %q: expected .json map or .yaml presets", ext)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *LogicValidator) validateMap(g *graph.Graph) {
	if len(g.StartLocations) == 0 {
		v.addError("map has no start locations")
	}
	if len(g.ItemLocations) < 2 {
		v.addError(fmt.Sprintf("map has %d item locations, at least 2 are needed", len(g.ItemLocations)))
	}
	if len(g.Objectives) == 0 {
		v.addError("map has no objectives")
	}

	seen := make(map[string]bool)
	for _, loc := range g.ItemLocations {
		if seen[loc.Name] {
			v.addError(fmt.Sprintf("item location '%s' is listed twice", loc.Name))
		}
		seen[loc.Name] = true
	}
	doors := make(map[string]bool)
	for _, door := range g.Doors {
		if door.Name == "" {
			v.addError(fmt.Sprintf("door from vertex %d to %d has no name", door.From, door.To))
		} else if doors[door.Name] {
			v.addError(fmt.Sprintf("door '%s' is listed twice", door.Name))
		}
		doors[door.Name] = true
	}

	// Every hub has to work for the easiest sensible tier.
	tier := difficulty.Default()
	seedLinks, _ := randomize.LockDoors(g, difficulty.DoorsBlue, 0)
	for _, start := range g.StartLocations {
		if err := randomize.ValidateStart(g, seedLinks, &tier, start); err != nil {
			v.addError(fmt.Sprintf("start '%s': %v", start.Name, err))
		}
	}
}

func (v *LogicValidator) validatePresets(tiers []difficulty.Config) {
	if len(tiers) == 0 {
		v.addError("presets file defines no tiers")
	}
	// Tiers are listed easiest first; a later tier may not assume less
	// efficient play than an earlier one.
	for i := 1; i < len(tiers); i++ {
		prev, cur := tiers[i-1], tiers[i]
		if cur.ResourceMultiplier < prev.ResourceMultiplier {
			v.addError(fmt.Sprintf("tier '%s' has resource_multiplier %.2f, below '%s' (%.2f)",
				cur.Name, cur.ResourceMultiplier, prev.Name, prev.ResourceMultiplier))
		}
	}
}

func (v *LogicValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

func isValidMapFilename(name string) bool {
	// Allow 'x.' prefix for experimental maps
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
