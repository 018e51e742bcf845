package requirement

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// Kind enumerates the closed set of requirement clauses.
type Kind uint8

const (
	KindFree Kind = iota
	KindNever
	KindTech
	KindStrat
	KindItem
	KindFlag
	KindAnd
	KindOr
	KindAtLeast
	KindHeatFrames
	KindLavaFrames
	KindDamage
	KindMissiles
	KindSupers
	KindPowerBombs
	KindEnergyRefill
	KindAmmoRefill
	KindShineCharge
	KindEnemyKill
	KindEnergyAtMost
	KindItemPickup
	KindPhantoon
	KindDraygon
	KindRidley
	KindBotwoon
	KindMotherBrain2
	KindGateGlitch

	numKinds
)

var kindNames = [numKinds]string{
	"free", "never", "tech", "strat", "item", "flag", "and", "or", "atLeast",
	"heatFrames", "lavaFrames", "damage", "missiles", "supers", "powerBombs",
	"energyRefill", "ammoRefill", "shineCharge", "enemyKill", "energyAtMost",
	"itemPickup", "phantoon", "draygon", "ridley", "botwoon", "motherBrain2",
	"gateGlitch",
}

func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// KindByName resolves the name used in logic files.
func KindByName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// Requirement is one node of a requirement tree. Which payload fields are
// meaningful depends on Kind:
//
//	Tech, Strat, Flag        Index
//	Item, ItemPickup         Index (a resource.Item)
//	AtLeast                  Count (N) and Children (M)
//	And, Or                  Children
//	HeatFrames, LavaFrames   Count (frames)
//	Damage, ammo clauses     Count
//	ShineCharge              Count (runway tiles)
//	EnemyKill                Mask (weapon mask, any bit suffices)
//	EnergyAtMost             Count
//	Botwoon, MotherBrain2    Phase (second phase / R-mode)
//	GateGlitch               Phase (green gate), Count (heat frames per try)
type Requirement struct {
	Kind     Kind
	Index    int
	Count    int
	Mask     uint64
	Phase    bool
	Children []Requirement
}

func Free() Requirement  { return Requirement{Kind: KindFree} }
func Never() Requirement { return Requirement{Kind: KindNever} }

func Tech(idx int) Requirement  { return Requirement{Kind: KindTech, Index: idx} }
func Strat(idx int) Requirement { return Requirement{Kind: KindStrat, Index: idx} }
func Flag(idx int) Requirement  { return Requirement{Kind: KindFlag, Index: idx} }

func Item(item resource.Item) Requirement {
	return Requirement{Kind: KindItem, Index: int(item)}
}

func And(children ...Requirement) Requirement {
	return Requirement{Kind: KindAnd, Children: children}
}

func Or(children ...Requirement) Requirement {
	return Requirement{Kind: KindOr, Children: children}
}

// AtLeast is satisfied when n of the children can be satisfied in sequence.
func AtLeast(n int, children ...Requirement) Requirement {
	return Requirement{Kind: KindAtLeast, Count: n, Children: children}
}

func HeatFrames(frames int) Requirement { return Requirement{Kind: KindHeatFrames, Count: frames} }
func LavaFrames(frames int) Requirement { return Requirement{Kind: KindLavaFrames, Count: frames} }
func Damage(energy int) Requirement     { return Requirement{Kind: KindDamage, Count: energy} }
func Missiles(n int) Requirement        { return Requirement{Kind: KindMissiles, Count: n} }
func Supers(n int) Requirement          { return Requirement{Kind: KindSupers, Count: n} }
func PowerBombs(n int) Requirement      { return Requirement{Kind: KindPowerBombs, Count: n} }
func EnergyRefill() Requirement         { return Requirement{Kind: KindEnergyRefill} }
func AmmoRefill() Requirement           { return Requirement{Kind: KindAmmoRefill} }

func ShineCharge(tiles int) Requirement { return Requirement{Kind: KindShineCharge, Count: tiles} }

// EnemyKill needs at least one weapon from mask.
func EnemyKill(mask uint64) Requirement { return Requirement{Kind: KindEnemyKill, Mask: mask} }

// EnergyAtMost leaves the player with at most n energy, as for a forced
// low-energy state before a crystal flash or an R-mode transition.
func EnergyAtMost(n int) Requirement { return Requirement{Kind: KindEnergyAtMost, Count: n} }

// ItemPickup collects the item at the current node before moving on. Walked in
// reverse it means the item must already be held.
func ItemPickup(item resource.Item) Requirement {
	return Requirement{Kind: KindItemPickup, Index: int(item)}
}

func Phantoon() Requirement { return Requirement{Kind: KindPhantoon} }
func Draygon() Requirement  { return Requirement{Kind: KindDraygon} }
func Ridley() Requirement   { return Requirement{Kind: KindRidley} }

func Botwoon(secondPhase bool) Requirement {
	return Requirement{Kind: KindBotwoon, Phase: secondPhase}
}

func MotherBrain2(rMode bool) Requirement {
	return Requirement{Kind: KindMotherBrain2, Phase: rMode}
}

// GateGlitch opens a gate from the wrong side by shooting it through the
// door transition. Each try costs a missile, or a super for a green gate,
// plus heatFrames of heat in a heated room.
func GateGlitch(green bool, heatFrames int) Requirement {
	return Requirement{Kind: KindGateGlitch, Phase: green, Count: heatFrames}
}

// orderSensitive reports whether the result of r depends on where it sits in
// an And sequence.
func (r *Requirement) orderSensitive() bool {
	switch r.Kind {
	case KindEnergyRefill, KindAmmoRefill, KindEnergyAtMost:
		return true
	case KindAnd, KindOr, KindAtLeast:
		for i := range r.Children {
			if r.Children[i].orderSensitive() {
				return true
			}
		}
	}
	return false
}

// String renders r in a compact prefix form for logs and the inspector.
func (r Requirement) String() string {
	var b strings.Builder
	r.write(&b)
	return b.String()
}

func (r *Requirement) write(b *strings.Builder) {
	switch r.Kind {
	case KindFree, KindNever, KindEnergyRefill, KindAmmoRefill, KindPhantoon, KindDraygon, KindRidley:
		b.WriteString(r.Kind.String())
	case KindItem, KindItemPickup:
		fmt.Fprintf(b, "%s(%s)", r.Kind, resource.Item(r.Index))
	case KindTech, KindStrat, KindFlag:
		fmt.Fprintf(b, "%s(#%d)", r.Kind, r.Index)
	case KindEnemyKill:
		fmt.Fprintf(b, "%s(%#x)", r.Kind, r.Mask)
	case KindBotwoon, KindMotherBrain2:
		fmt.Fprintf(b, "%s(%t)", r.Kind, r.Phase)
	case KindGateGlitch:
		fmt.Fprintf(b, "%s(%t, %d)", r.Kind, r.Phase, r.Count)
	case KindAnd, KindOr, KindAtLeast:
		b.WriteString(r.Kind.String())
		b.WriteByte('(')
		if r.Kind == KindAtLeast {
			fmt.Fprintf(b, "%d; ", r.Count)
		}
		for i := range r.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			r.Children[i].write(b)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%s(%d)", r.Kind, r.Count)
	}
}
