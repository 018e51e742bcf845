package difficulty

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// ProgressionRate controls how many key items are placed per step and how much
// filler accompanies them.
type ProgressionRate string

const (
	ProgressionSlow   ProgressionRate = "slow"
	ProgressionNormal ProgressionRate = "normal"
	ProgressionFast   ProgressionRate = "fast"
)

// PlacementStyle controls which locations key items are put in.
type PlacementStyle string

const (
	// PlacementNeutral draws locations uniformly from the bireachable set.
	PlacementNeutral PlacementStyle = "neutral"
	// PlacementForced prefers locations that only just became bireachable.
	PlacementForced PlacementStyle = "forced"
)

// DoorsMode selects how doors are locked at seed time.
type DoorsMode string

const (
	DoorsBlue DoorsMode = "blue"
	DoorsAmmo DoorsMode = "ammo"
)

// ItemPriorityGroup is a set of items that share placement precedence.
// Groups listed first are placed first.
type ItemPriorityGroup struct {
	Name  string          `yaml:"name" json:"name" validate:"required"`
	Items []resource.Item `yaml:"items" json:"items" validate:"required,min=1"`
}

// Config is one difficulty tier. A Config is treated as immutable once validated.
type Config struct {
	Name          string   `yaml:"name" json:"name" validate:"required"`
	Tech          []string `yaml:"tech" json:"tech"`
	NotableStrats []string `yaml:"notable_strats" json:"notable_strats"`

	ShineChargeTiles   float32 `yaml:"shine_charge_tiles" json:"shine_charge_tiles" validate:"gte=0"`
	ResourceMultiplier float32 `yaml:"resource_multiplier" json:"resource_multiplier" validate:"gt=0"`
	GateGlitchLeniency int     `yaml:"gate_glitch_leniency" json:"gate_glitch_leniency" validate:"gte=0"`

	PhantoonProficiency    float32 `yaml:"phantoon_proficiency" json:"phantoon_proficiency" validate:"gte=0,lte=1"`
	DraygonProficiency     float32 `yaml:"draygon_proficiency" json:"draygon_proficiency" validate:"gte=0,lte=1"`
	RidleyProficiency      float32 `yaml:"ridley_proficiency" json:"ridley_proficiency" validate:"gte=0,lte=1"`
	BotwoonProficiency     float32 `yaml:"botwoon_proficiency" json:"botwoon_proficiency" validate:"gte=0,lte=1"`
	MotherBrainProficiency float32 `yaml:"mother_brain_proficiency" json:"mother_brain_proficiency" validate:"gte=0,lte=1"`
	SupersDouble           bool    `yaml:"supers_double" json:"supers_double"`

	ProgressionRate    ProgressionRate     `yaml:"progression_rate" json:"progression_rate" validate:"oneof=slow normal fast"`
	ItemPlacementStyle PlacementStyle      `yaml:"item_placement_style" json:"item_placement_style" validate:"oneof=neutral forced"`
	ItemPriorities     []ItemPriorityGroup `yaml:"item_priorities" json:"item_priorities" validate:"dive"`
	FillerItems        []resource.Item     `yaml:"filler_items" json:"filler_items"`
	EarlyFillerItems   []resource.Item     `yaml:"early_filler_items" json:"early_filler_items"`
	SemiFillerItems    []resource.Item     `yaml:"semi_filler_items" json:"semi_filler_items"`

	RandomizedStart bool      `yaml:"randomized_start" json:"randomized_start"`
	DoorsMode       DoorsMode `yaml:"doors_mode" json:"doors_mode" validate:"oneof=blue ammo"`
}

var validate = validator.New()

// Validate checks field ranges and cross-field consistency. Every failure wraps
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: tier %q: %s", ErrInvalidConfig, c.Name, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: tier %q: %v", ErrInvalidConfig, c.Name, err)
	}

	seen := make(map[resource.Item]string)
	for _, group := range c.ItemPriorities {
		for _, item := range group.Items {
			if !item.Valid() {
				return fmt.Errorf("%w: tier %q: invalid item in priority group %q", ErrInvalidConfig, c.Name, group.Name)
			}
			if prev, ok := seen[item]; ok {
				return fmt.Errorf("%w: tier %q: item %s in priority groups %q and %q", ErrInvalidConfig, c.Name, item, prev, group.Name)
			}
			seen[item] = group.Name
		}
	}

	for _, list := range [][]resource.Item{c.FillerItems, c.EarlyFillerItems, c.SemiFillerItems} {
		for _, item := range list {
			if !item.Valid() {
				return fmt.Errorf("%w: tier %q: invalid filler item %d", ErrInvalidConfig, c.Name, int(item))
			}
		}
	}

	if dup := firstDuplicate(c.Tech); dup != "" {
		return fmt.Errorf("%w: tier %q: tech %q listed twice", ErrInvalidConfig, c.Name, dup)
	}
	if dup := firstDuplicate(c.NotableStrats); dup != "" {
		return fmt.Errorf("%w: tier %q: strat %q listed twice", ErrInvalidConfig, c.Name, dup)
	}
	return nil
}

// IsFiller reports whether item is listed in any filler category.
func (c *Config) IsFiller(item resource.Item) bool {
	return slices.Contains(c.FillerItems, item) ||
		slices.Contains(c.EarlyFillerItems, item) ||
		slices.Contains(c.SemiFillerItems, item)
}

// KeyItemsPerStep is the maximum number of key items committed in one step.
func (c *Config) KeyItemsPerStep() int {
	if c.ProgressionRate == ProgressionFast {
		return 2
	}
	return 1
}

// FillerShare returns the fraction of remaining bireachable locations that
// receive filler in one step, as numerator and denominator.
func (c *Config) FillerShare() (num, den int) {
	switch c.ProgressionRate {
	case ProgressionSlow:
		return 1, 1
	case ProgressionFast:
		return 1, 4
	default:
		return 1, 2
	}
}

func firstDuplicate(names []string) string {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n
		}
		seen[n] = struct{}{}
	}
	return ""
}

// Default returns a moderate tier with the well-known leniency tech enabled.
func Default() Config {
	return Config{
		Name:                   "Default",
		Tech:                   []string{"canManageReserves", "canBeVeryPatient"},
		ShineChargeTiles:       32,
		ResourceMultiplier:     1,
		GateGlitchLeniency:     2,
		PhantoonProficiency:    0.5,
		DraygonProficiency:     0.5,
		RidleyProficiency:      0.5,
		BotwoonProficiency:     0.5,
		MotherBrainProficiency: 0.5,
		ProgressionRate:        ProgressionNormal,
		ItemPlacementStyle:     PlacementNeutral,
		ItemPriorities: []ItemPriorityGroup{
			{Name: "Early", Items: []resource.Item{resource.Morph, resource.Missile, resource.Bombs}},
			{Name: "Default", Items: []resource.Item{
				resource.Charge, resource.Super, resource.PowerBomb, resource.Varia, resource.Gravity,
				resource.SpeedBooster, resource.HiJump, resource.Grapple, resource.Wave, resource.Ice,
				resource.SpaceJump, resource.SpringBall, resource.ScrewAttack, resource.Spazer,
			}},
			{Name: "Late", Items: []resource.Item{resource.Plasma, resource.XRayScope, resource.ReserveTank}},
		},
		FillerItems:      []resource.Item{resource.Missile},
		EarlyFillerItems: []resource.Item{resource.ETank},
		SemiFillerItems:  []resource.Item{resource.Super, resource.PowerBomb},
		DoorsMode:        DoorsBlue,
	}
}
