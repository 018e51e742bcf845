package requirement

import (
	"math"
	"slices"
	"sort"

	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// Fight timing in seconds. A fight that cannot finish within the limit is
// treated as lost.
const (
	superPeriod       = 0.5
	missilePeriod     = 0.34
	chargePeriod      = 1.2
	beamPeriod        = 0.5
	grappleKillTime   = 40.0
	normalTimeLimit   = 180.0
	patientTimeLimit  = 1800.0
	superDamage       = 300.0
	missileDamage     = 100.0
	chargedMultiplier = 3.0
)

type boss struct {
	hp float64
	// dps is the damage per second the boss deals to an unsuited player at
	// proficiency 0.
	dps         float64
	beamImmune  bool
	superDamage float64
	grapple     bool
	underwater  bool
}

var (
	phantoon     = boss{hp: 2500, dps: 6, beamImmune: true, superDamage: superDamage}
	draygon      = boss{hp: 6000, dps: 8, superDamage: superDamage, grapple: true, underwater: true}
	ridley       = boss{hp: 18000, dps: 15, superDamage: superDamage}
	botwoon1     = boss{hp: 3000, dps: 5, superDamage: superDamage}
	botwoon2     = boss{hp: 1500, dps: 8, superDamage: superDamage}
	motherBrain2 = boss{hp: 18000, dps: 10, superDamage: superDamage}
)

// ApplyPhantoon models the Phantoon fight. Phantoon ignores uncharged beam.
func ApplyPhantoon(g *resource.GlobalState, local resource.LocalState, proficiency float32, canManageReserves bool) (resource.LocalState, bool) {
	return fight(phantoon, g, local, proficiency, canManageReserves, false, false)
}

// ApplyDraygon models the Draygon fight. Holding Grapple allows the turret
// kill; fighting without Gravity halves accuracy.
func ApplyDraygon(g *resource.GlobalState, local resource.LocalState, proficiency float32, canManageReserves, canBeVeryPatient bool) (resource.LocalState, bool) {
	return fight(draygon, g, local, proficiency, canManageReserves, canBeVeryPatient, false)
}

// ApplyRidley models the Ridley fight.
func ApplyRidley(g *resource.GlobalState, local resource.LocalState, proficiency float32, canManageReserves, canBeVeryPatient bool) (resource.LocalState, bool) {
	return fight(ridley, g, local, proficiency, canManageReserves, canBeVeryPatient, false)
}

// ApplyBotwoon models the Botwoon fight. The second phase has less health
// left but hits harder.
func ApplyBotwoon(g *resource.GlobalState, local resource.LocalState, proficiency float32, secondPhase, canManageReserves bool) (resource.LocalState, bool) {
	b := botwoon1
	if secondPhase {
		b = botwoon2
	}
	return fight(b, g, local, proficiency, canManageReserves, false, false)
}

// ApplyMotherBrain2 models the second Mother Brain phase. In R-mode the player
// has no regular energy to spare and every hit is paid from reserves.
func ApplyMotherBrain2(g *resource.GlobalState, local resource.LocalState, proficiency float32, supersDouble, canManageReserves, canBeVeryPatient, rMode bool) (resource.LocalState, bool) {
	b := motherBrain2
	if supersDouble {
		b.superDamage = 2 * superDamage
	}
	return fight(b, g, local, proficiency, canManageReserves, canBeVeryPatient, rMode)
}

// NominalRequirement is the item requirement under which the fight never
// fails at full proficiency with every leniency flag set.
func NominalRequirement(k Kind) Requirement {
	switch k {
	case KindPhantoon, KindRidley, KindBotwoon, KindMotherBrain2:
		return Item(resource.Charge)
	case KindDraygon:
		return And(Item(resource.Gravity), Or(Item(resource.Charge), Item(resource.Grapple)))
	}
	return Never()
}

type ammo int

const (
	noAmmo ammo = iota
	superAmmo
	missileAmmo
)

type source struct {
	ammo    ammo
	dps     float64
	perShot float64
	pool    float64 // damage the source can deal before running out
}

type outcome struct {
	seconds  float64
	supers   int
	missiles int
	ok       bool
}

type encounter struct {
	b        boss
	g        *resource.GlobalState
	accuracy float64
	patient  bool
}

// run fights with at most supersCap supers and missilesCap missiles, always
// using the fastest source available. With fractional damage this greedy order
// minimises the fight length, so giving the player more ammo or better beams
// never makes the fight longer.
func (e *encounter) run(supersCap, missilesCap int) outcome {
	superShot := e.b.superDamage * e.accuracy
	missileShot := missileDamage * e.accuracy
	sources := []source{
		{ammo: superAmmo, dps: superShot / superPeriod, perShot: superShot, pool: float64(supersCap) * superShot},
		{ammo: missileAmmo, dps: missileShot / missilePeriod, perShot: missileShot, pool: float64(missilesCap) * missileShot},
	}
	beam := beamDamage(e.g) * e.accuracy
	if e.g.Has(resource.Charge) {
		sources = append(sources, source{dps: beam * chargedMultiplier / chargePeriod, pool: math.Inf(1)})
	}
	if e.patient && !e.b.beamImmune {
		sources = append(sources, source{dps: beam / beamPeriod, pool: math.Inf(1)})
	}
	if e.b.grapple && e.g.Has(resource.Grapple) {
		sources = append(sources, source{dps: e.b.hp / grappleKillTime, pool: math.Inf(1)})
	}
	slices.SortStableFunc(sources, func(a, b source) int {
		switch {
		case a.dps > b.dps:
			return -1
		case a.dps < b.dps:
			return 1
		}
		return 0
	})

	var out outcome
	remaining := e.b.hp
	for _, src := range sources {
		if remaining <= 0 {
			break
		}
		if src.pool <= 0 || src.dps <= 0 {
			continue
		}
		dealt := math.Min(remaining, src.pool)
		out.seconds += dealt / src.dps
		remaining -= dealt
		switch src.ammo {
		case superAmmo:
			out.supers += int(math.Ceil(dealt/src.perShot - 1e-9))
		case missileAmmo:
			out.missiles += int(math.Ceil(dealt/src.perShot - 1e-9))
		}
	}
	out.ok = remaining <= 1e-9
	return out
}

func fight(b boss, g *resource.GlobalState, local resource.LocalState, proficiency float32, canManageReserves, canBeVeryPatient, rMode bool) (resource.LocalState, bool) {
	prof := math.Min(math.Max(float64(proficiency), 0), 1)
	e := encounter{b: b, g: g, accuracy: 0.5 + 0.5*prof, patient: canBeVeryPatient}
	if b.underwater && !g.Has(resource.Gravity) {
		e.accuracy *= 0.5
	}
	limit := normalTimeLimit
	if canBeVeryPatient {
		limit = patientTimeLimit
	}
	damageRate := b.dps * (1 - prof) * suitFactor(g)
	energyFor := func(seconds float64) int {
		return int(math.Ceil(damageRate*seconds - 1e-9))
	}

	availSupers := max(g.MaxSupers-local.SupersUsed, 0)
	availMissiles := max(g.MaxMissiles-local.MissilesUsed, 0)

	full := e.run(availSupers, availMissiles)
	if !full.ok || full.seconds > limit {
		return local, false
	}
	target := energyFor(full.seconds)
	// Among the strategies that take the least damage, spend as few supers
	// and then as few missiles as possible.
	acceptable := func(o outcome) bool {
		return o.ok && o.seconds <= limit && energyFor(o.seconds) == target
	}
	supersCap := sort.Search(availSupers+1, func(c int) bool {
		return acceptable(e.run(c, availMissiles))
	})
	missilesCap := sort.Search(availMissiles+1, func(c int) bool {
		return acceptable(e.run(supersCap, c))
	})
	best := e.run(supersCap, missilesCap)

	local.SupersUsed += best.supers
	local.MissilesUsed += best.missiles
	if rMode {
		if target == 0 {
			return local, true
		}
		local.ReservesUsed += target
		return local, local.ReservesUsed < g.MaxReserves
	}
	return takeEnergy(g, local, target, canManageReserves)
}

// beamDamage is the uncharged damage of one beam shot with the beams held.
func beamDamage(g *resource.GlobalState) float64 {
	dmg := 20.0
	switch {
	case g.Has(resource.Plasma):
		dmg = 150
	case g.Has(resource.Spazer):
		dmg = 40
	}
	if g.Has(resource.Wave) {
		dmg += 10
	}
	if g.Has(resource.Ice) {
		dmg += 10
	}
	return dmg
}
