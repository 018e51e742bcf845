package difficulty

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// presetFile is the on-disk layout of a presets file.
type presetFile struct {
	// ImplicitTech is enabled in every tier, ahead of any preset's own tech.
	ImplicitTech []string `yaml:"implicit_tech"`
	Presets      []Config `yaml:"presets"`
}

// LoadPresets reads tiers from YAML, easiest first as listed. Tech and notable
// strats are cumulative: each tier also enables the implicit tech and
// everything enabled by the tiers before it. Listing the same tech twice is an
// error.
func LoadPresets(r io.Reader) ([]Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file presetFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty presets file", ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: failed to decode presets: %v", ErrInvalidConfig, err)
	}
	if len(file.Presets) == 0 {
		return nil, fmt.Errorf("%w: no presets defined", ErrInvalidConfig)
	}

	var tech, strats []string
	techOwner := make(map[string]string)
	for _, t := range file.ImplicitTech {
		if _, ok := techOwner[t]; ok {
			return nil, fmt.Errorf("%w: implicit tech %q listed twice", ErrInvalidConfig, t)
		}
		techOwner[t] = "implicit"
		tech = append(tech, t)
	}
	stratOwner := make(map[string]string)
	tiers := make([]Config, 0, len(file.Presets))
	for _, p := range file.Presets {
		for _, t := range p.Tech {
			if owner, ok := techOwner[t]; ok {
				return nil, fmt.Errorf("%w: tech %q in presets %q and %q", ErrInvalidConfig, t, owner, p.Name)
			}
			techOwner[t] = p.Name
		}
		for _, s := range p.NotableStrats {
			if owner, ok := stratOwner[s]; ok {
				return nil, fmt.Errorf("%w: strat %q in presets %q and %q", ErrInvalidConfig, s, owner, p.Name)
			}
			stratOwner[s] = p.Name
		}
		tech = append(tech, p.Tech...)
		strats = append(strats, p.NotableStrats...)

		p.Tech = slices.Clone(tech)
		p.NotableStrats = slices.Clone(strats)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		tiers = append(tiers, p)
	}
	return tiers, nil
}

// Find returns the tier with the given name and every tier easier than it.
func Find(tiers []Config, name string) ([]Config, error) {
	for i := range tiers {
		if tiers[i].Name == name {
			return tiers[:i+1], nil
		}
	}
	return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidConfig, name)
}
