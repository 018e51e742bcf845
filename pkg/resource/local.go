package resource

import "cmp"

// LocalState is the ledger of resources consumed along one traversal path.
// The zero value is the state at the traversal source.
type LocalState struct {
	EnergyUsed     int `json:"energy_used"`
	ReservesUsed   int `json:"reserves_used"`
	MissilesUsed   int `json:"missiles_used"`
	SupersUsed     int `json:"supers_used"`
	PowerBombsUsed int `json:"power_bombs_used"`
}

// Fits reports whether the ledger is within the capacities of g with the player alive.
func (l LocalState) Fits(g *GlobalState) bool {
	return l.EnergyUsed >= 0 && l.EnergyUsed < g.MaxEnergy &&
		l.ReservesUsed >= 0 && l.ReservesUsed <= g.MaxReserves &&
		l.MissilesUsed >= 0 && l.MissilesUsed <= g.MaxMissiles &&
		l.SupersUsed >= 0 && l.SupersUsed <= g.MaxSupers &&
		l.PowerBombsUsed >= 0 && l.PowerBombsUsed <= g.MaxPowerBombs
}

// Cost is the ordering key of a LocalState. Total energy dominates, then the
// scarcer ammo types.
type Cost [5]int

// CostOf returns the ordering key for l.
func CostOf(l LocalState) Cost {
	return Cost{
		l.EnergyUsed + l.ReservesUsed,
		l.PowerBombsUsed,
		l.SupersUsed,
		l.MissilesUsed,
		l.ReservesUsed,
	}
}

// Compare orders two costs lexicographically.
func (c Cost) Compare(o Cost) int {
	for i := range c {
		if r := cmp.Compare(c[i], o[i]); r != 0 {
			return r
		}
	}
	return 0
}

// Less reports whether a is strictly cheaper than b.
func Less(a, b LocalState) bool {
	return CostOf(a).Compare(CostOf(b)) < 0
}

// Dominates reports whether a consumes no more of any resource than b.
func (l LocalState) Dominates(b LocalState) bool {
	return l.EnergyUsed <= b.EnergyUsed &&
		l.ReservesUsed <= b.ReservesUsed &&
		l.MissilesUsed <= b.MissilesUsed &&
		l.SupersUsed <= b.SupersUsed &&
		l.PowerBombsUsed <= b.PowerBombsUsed
}
