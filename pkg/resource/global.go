package resource

import "slices"

// Base capacities before any item is collected.
const (
	BaseEnergy        = 99
	EnergyPerTank     = 100
	ReservePerTank    = 100
	AmmoPerExpansion  = 5
	TechManageReserve = 0 // canManageReserves
	TechVeryPatient   = 1 // canBeVeryPatient
)

// GlobalState is what the player currently has: items, enabled tech and strats,
// one-shot flags, and the capacities derived from the items.
type GlobalState struct {
	Items         []bool `json:"items"`
	Tech          []bool `json:"tech"`
	NotableStrats []bool `json:"notable_strats"`
	Flags         []bool `json:"flags"`

	MaxEnergy     int `json:"max_energy"`
	MaxReserves   int `json:"max_reserves"`
	MaxMissiles   int `json:"max_missiles"`
	MaxSupers     int `json:"max_supers"`
	MaxPowerBombs int `json:"max_power_bombs"`

	WeaponMask       uint64  `json:"weapon_mask"`
	ShineChargeTiles float32 `json:"shine_charge_tiles"`
}

// NewGlobalState returns an empty inventory for a graph with the given tech,
// strat and flag counts.
func NewGlobalState(tech, strats []bool, numFlags int, shineChargeTiles float32) GlobalState {
	items := make([]bool, NumItems)
	return GlobalState{
		Items:            items,
		Tech:             slices.Clone(tech),
		NotableStrats:    slices.Clone(strats),
		Flags:            make([]bool, numFlags),
		MaxEnergy:        BaseEnergy,
		WeaponMask:       WeaponMask(items),
		ShineChargeTiles: shineChargeTiles,
	}
}

// Clone deep-copies the state so it can be mutated independently.
func (g GlobalState) Clone() GlobalState {
	g.Items = slices.Clone(g.Items)
	g.Tech = slices.Clone(g.Tech)
	g.NotableStrats = slices.Clone(g.NotableStrats)
	g.Flags = slices.Clone(g.Flags)
	return g
}

// Has reports whether item is held.
func (g *GlobalState) Has(item Item) bool {
	return int(item) < len(g.Items) && g.Items[item]
}

// HasTech reports whether tech index idx is enabled.
func (g *GlobalState) HasTech(idx int) bool {
	return idx >= 0 && idx < len(g.Tech) && g.Tech[idx]
}

// HasStrat reports whether notable strat idx is enabled.
func (g *GlobalState) HasStrat(idx int) bool {
	return idx >= 0 && idx < len(g.NotableStrats) && g.NotableStrats[idx]
}

// HasFlag reports whether flag idx is set.
func (g *GlobalState) HasFlag(idx int) bool {
	return idx >= 0 && idx < len(g.Flags) && g.Flags[idx]
}

// Collect adds an item and grows the capacities it provides.
func (g *GlobalState) Collect(item Item) {
	g.Items[item] = true
	switch item {
	case Missile:
		g.MaxMissiles += AmmoPerExpansion
	case Super:
		g.MaxSupers += AmmoPerExpansion
	case PowerBomb:
		g.MaxPowerBombs += AmmoPerExpansion
	case ETank:
		g.MaxEnergy += EnergyPerTank
	case ReserveTank:
		g.MaxReserves += ReservePerTank
	}
	g.WeaponMask = WeaponMask(g.Items)
}

// Remove undoes one Collect. It is only used for what-if recomputation.
func (g *GlobalState) Remove(item Item) {
	switch item {
	case Missile:
		g.MaxMissiles = max(g.MaxMissiles-AmmoPerExpansion, 0)
		g.Items[item] = g.MaxMissiles > 0
	case Super:
		g.MaxSupers = max(g.MaxSupers-AmmoPerExpansion, 0)
		g.Items[item] = g.MaxSupers > 0
	case PowerBomb:
		g.MaxPowerBombs = max(g.MaxPowerBombs-AmmoPerExpansion, 0)
		g.Items[item] = g.MaxPowerBombs > 0
	case ETank:
		g.MaxEnergy = max(g.MaxEnergy-EnergyPerTank, BaseEnergy)
		g.Items[item] = g.MaxEnergy > BaseEnergy
	case ReserveTank:
		g.MaxReserves = max(g.MaxReserves-ReservePerTank, 0)
		g.Items[item] = g.MaxReserves > 0
	default:
		g.Items[item] = false
	}
	g.WeaponMask = WeaponMask(g.Items)
}

// SetFlag marks a one-shot flag as obtained.
func (g *GlobalState) SetFlag(idx int) {
	g.Flags[idx] = true
}

// ClearFlag unsets a flag. Only used for what-if recomputation.
func (g *GlobalState) ClearFlag(idx int) {
	g.Flags[idx] = false
}

// Covers reports whether every capability in other is also present in g.
// It is used to check that capabilities only grow across randomization steps.
func (g *GlobalState) Covers(other *GlobalState) bool {
	return covers(g.Items, other.Items) &&
		covers(g.Tech, other.Tech) &&
		covers(g.NotableStrats, other.NotableStrats) &&
		covers(g.Flags, other.Flags) &&
		g.MaxEnergy >= other.MaxEnergy &&
		g.MaxReserves >= other.MaxReserves &&
		g.MaxMissiles >= other.MaxMissiles &&
		g.MaxSupers >= other.MaxSupers &&
		g.MaxPowerBombs >= other.MaxPowerBombs &&
		g.WeaponMask&other.WeaponMask == other.WeaponMask
}

func covers(a, b []bool) bool {
	for i, v := range b {
		if v && (i >= len(a) || !a[i]) {
			return false
		}
	}
	return true
}
