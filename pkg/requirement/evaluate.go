package requirement

import (
	"math"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// maxFrontier bounds the number of non-dominated states carried through a
// composite clause. Beyond it only the cheapest states are kept.
const maxFrontier = 32

// Evaluate applies r to an incoming resource state. It returns the cheapest
// resulting state and true, or false when r cannot be satisfied. Failure is a
// normal outcome and is never reported as an error.
func Evaluate(r *Requirement, global *resource.GlobalState, local resource.LocalState, reverse bool, diff *difficulty.Config) (resource.LocalState, bool) {
	e := evaluator{global: global, reverse: reverse, diff: diff}
	out := e.eval(r, frontier{local})
	if len(out) == 0 {
		return resource.LocalState{}, false
	}
	return out.cheapest(), true
}

type evaluator struct {
	global  *resource.GlobalState
	reverse bool
	diff    *difficulty.Config
}

// frontier is a set of mutually non-dominated states in insertion order.
type frontier []resource.LocalState

func (f frontier) add(s resource.LocalState) frontier {
	for _, have := range f {
		if have.Dominates(s) {
			return f
		}
	}
	kept := f[:0]
	for _, have := range f {
		if !s.Dominates(have) {
			kept = append(kept, have)
		}
	}
	return append(kept, s)
}

// cheapest returns the lowest-cost state, earliest on ties.
func (f frontier) cheapest() resource.LocalState {
	best := f[0]
	for _, s := range f[1:] {
		if resource.Less(s, best) {
			best = s
		}
	}
	return best
}

func (f frontier) trim() frontier {
	for len(f) > maxFrontier {
		worst := 0
		for i := range f {
			if resource.Less(f[worst], f[i]) {
				worst = i
			}
		}
		f = append(f[:worst], f[worst+1:]...)
	}
	return f
}

func (e *evaluator) eval(r *Requirement, in frontier) frontier {
	switch r.Kind {
	case KindAnd:
		return e.evalAnd(r, in)
	case KindOr:
		var out frontier
		for i := range r.Children {
			for _, s := range e.eval(&r.Children[i], in) {
				out = out.add(s)
			}
		}
		return out.trim()
	case KindAtLeast:
		return e.evalAtLeast(r, in)
	}

	var out frontier
	for _, s := range in {
		if next, ok := e.leaf(r, s); ok {
			out = out.add(next)
		}
	}
	return out
}

// evalAnd applies the children in declaration order. When any child depends on
// its position, the reversed order is tried as well and both results are kept.
func (e *evaluator) evalAnd(r *Requirement, in frontier) frontier {
	out := e.sequence(r.Children, in, false)
	if !r.orderSensitive() || len(r.Children) < 2 {
		return out
	}
	for _, s := range e.sequence(r.Children, in, true) {
		out = out.add(s)
	}
	return out.trim()
}

func (e *evaluator) sequence(children []Requirement, in frontier, backwards bool) frontier {
	cur := in
	for i := range children {
		idx := i
		if backwards {
			idx = len(children) - 1 - i
		}
		cur = e.eval(&children[idx], cur)
		if len(cur) == 0 {
			return nil
		}
	}
	return cur.trim()
}

// evalAtLeast is satisfied by any N children applied in declaration order.
// done[k] holds the states reachable after satisfying exactly k children.
func (e *evaluator) evalAtLeast(r *Requirement, in frontier) frontier {
	n := r.Count
	if n <= 0 {
		return in
	}
	done := make([]frontier, n+1)
	done[0] = in
	for i := range r.Children {
		for k := min(i, n-1); k >= 0; k-- {
			if len(done[k]) == 0 {
				continue
			}
			for _, s := range e.eval(&r.Children[i], done[k]) {
				done[k+1] = done[k+1].add(s)
			}
			done[k+1] = done[k+1].trim()
		}
	}
	return done[n]
}

func (e *evaluator) leaf(r *Requirement, s resource.LocalState) (resource.LocalState, bool) {
	g := e.global
	switch r.Kind {
	case KindFree:
		return s, true
	case KindNever:
		return s, false
	case KindTech:
		return s, g.HasTech(r.Index)
	case KindStrat:
		return s, g.HasStrat(r.Index)
	case KindItem:
		return s, g.Has(resource.Item(r.Index))
	case KindFlag:
		return s, g.HasFlag(r.Index)
	case KindHeatFrames:
		if g.Has(resource.Varia) {
			return s, true
		}
		return e.damage(s, e.scale(float64(r.Count)/4))
	case KindLavaFrames:
		switch {
		case g.Has(resource.Gravity) && g.Has(resource.Varia):
			return s, true
		case g.Has(resource.Gravity) || g.Has(resource.Varia):
			return e.damage(s, e.scale(float64(r.Count)/4))
		default:
			return e.damage(s, e.scale(float64(r.Count)/2))
		}
	case KindDamage:
		return e.damage(s, e.scale(float64(r.Count)*suitFactor(g)))
	case KindMissiles:
		s.MissilesUsed += e.scale(float64(r.Count))
		return s, s.MissilesUsed <= g.MaxMissiles
	case KindSupers:
		s.SupersUsed += e.scale(float64(r.Count))
		return s, s.SupersUsed <= g.MaxSupers
	case KindPowerBombs:
		s.PowerBombsUsed += e.scale(float64(r.Count))
		return s, s.PowerBombsUsed <= g.MaxPowerBombs
	case KindEnergyRefill:
		s.EnergyUsed = 0
		return s, true
	case KindAmmoRefill:
		s.MissilesUsed, s.SupersUsed, s.PowerBombsUsed = 0, 0, 0
		return s, true
	case KindShineCharge:
		return s, g.Has(resource.SpeedBooster) && g.ShineChargeTiles <= float32(r.Count)
	case KindEnemyKill:
		return s, g.WeaponMask&r.Mask != 0
	case KindEnergyAtMost:
		if e.reverse {
			if s.EnergyUsed >= r.Count {
				return s, false
			}
			s.EnergyUsed = 0
			return s, true
		}
		if r.Count <= 0 {
			return s, false
		}
		s.EnergyUsed = max(s.EnergyUsed, g.MaxEnergy-r.Count)
		return s, s.EnergyUsed < g.MaxEnergy
	case KindItemPickup:
		if e.reverse {
			return s, g.Has(resource.Item(r.Index))
		}
		return s, true
	case KindGateGlitch:
		return e.gateGlitch(r, s)
	case KindPhantoon:
		return ApplyPhantoon(g, s, e.diff.PhantoonProficiency, e.manageReserves())
	case KindDraygon:
		return ApplyDraygon(g, s, e.diff.DraygonProficiency, e.manageReserves(), e.veryPatient())
	case KindRidley:
		return ApplyRidley(g, s, e.diff.RidleyProficiency, e.manageReserves(), e.veryPatient())
	case KindBotwoon:
		return ApplyBotwoon(g, s, e.diff.BotwoonProficiency, r.Phase, e.manageReserves())
	case KindMotherBrain2:
		return ApplyMotherBrain2(g, s, e.diff.MotherBrainProficiency, e.diff.SupersDouble,
			e.manageReserves(), e.veryPatient(), r.Phase)
	}
	return s, false
}

// gateGlitch pays for one clean try plus the tier's spare tries.
func (e *evaluator) gateGlitch(r *Requirement, s resource.LocalState) (resource.LocalState, bool) {
	g := e.global
	tries := 1
	if e.diff != nil {
		tries += e.diff.GateGlitchLeniency
	}
	if r.Phase {
		s.SupersUsed += e.scale(float64(tries))
		if s.SupersUsed > g.MaxSupers {
			return s, false
		}
	} else {
		s.MissilesUsed += e.scale(float64(tries))
		if s.MissilesUsed > g.MaxMissiles {
			return s, false
		}
	}
	if r.Count > 0 && !g.Has(resource.Varia) {
		return e.damage(s, e.scale(float64(r.Count*tries)/4))
	}
	return s, true
}

func (e *evaluator) manageReserves() bool { return e.global.HasTech(resource.TechManageReserve) }
func (e *evaluator) veryPatient() bool    { return e.global.HasTech(resource.TechVeryPatient) }

// scale divides a raw cost by the tier's resource multiplier, rounding up.
func (e *evaluator) scale(cost float64) int {
	mult := float64(1)
	if e.diff != nil && e.diff.ResourceMultiplier > 0 {
		mult = float64(e.diff.ResourceMultiplier)
	}
	return int(math.Ceil(cost/mult - 1e-9))
}

// damage takes energy from the tank, spilling into reserves once only one
// point of regular energy is left.
func (e *evaluator) damage(s resource.LocalState, amount int) (resource.LocalState, bool) {
	return takeEnergy(e.global, s, amount, true)
}

func takeEnergy(g *resource.GlobalState, s resource.LocalState, amount int, useReserves bool) (resource.LocalState, bool) {
	if amount <= 0 {
		return s, true
	}
	s.EnergyUsed += amount
	if s.EnergyUsed < g.MaxEnergy {
		return s, true
	}
	if !useReserves {
		return s, false
	}
	overflow := s.EnergyUsed - (g.MaxEnergy - 1)
	s.EnergyUsed = g.MaxEnergy - 1
	s.ReservesUsed += overflow
	return s, s.ReservesUsed <= g.MaxReserves
}

// suitFactor is the share of environmental and enemy damage that gets
// through the best suit held.
func suitFactor(g *resource.GlobalState) float64 {
	switch {
	case g.Has(resource.Gravity):
		return 0.25
	case g.Has(resource.Varia):
		return 0.5
	default:
		return 1
	}
}
