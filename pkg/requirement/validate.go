package requirement

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// ErrInvalid is returned by Validate for a requirement tree that references
// something that does not exist or carries an impossible payload.
var ErrInvalid = errors.New("invalid requirement")

// Counts bounds the indices a requirement may reference.
type Counts struct {
	Tech   int
	Strats int
	Flags  int
}

// Validate walks the tree and rejects unknown kinds, out-of-range indices,
// negative counts and N-of-M clauses with N > M.
func Validate(r *Requirement, counts Counts) error {
	switch r.Kind {
	case KindFree, KindNever, KindEnergyRefill, KindAmmoRefill,
		KindPhantoon, KindDraygon, KindRidley, KindBotwoon, KindMotherBrain2:
		return nil
	case KindTech:
		return checkIndex(r, counts.Tech)
	case KindStrat:
		return checkIndex(r, counts.Strats)
	case KindFlag:
		return checkIndex(r, counts.Flags)
	case KindItem, KindItemPickup:
		if !resource.Item(r.Index).Valid() {
			return fmt.Errorf("%w: %s references unknown item %d", ErrInvalid, r.Kind, r.Index)
		}
		return nil
	case KindEnemyKill:
		if r.Mask == 0 || r.Mask>>uint(resource.NumWeapons) != 0 {
			return fmt.Errorf("%w: enemyKill mask %#x", ErrInvalid, r.Mask)
		}
		return nil
	case KindHeatFrames, KindLavaFrames, KindDamage, KindMissiles, KindSupers,
		KindPowerBombs, KindShineCharge, KindEnergyAtMost, KindGateGlitch:
		if r.Count < 0 {
			return fmt.Errorf("%w: %s has negative count %d", ErrInvalid, r.Kind, r.Count)
		}
		return nil
	case KindAtLeast:
		if r.Count < 0 || r.Count > len(r.Children) {
			return fmt.Errorf("%w: atLeast(%d) of %d", ErrInvalid, r.Count, len(r.Children))
		}
		fallthrough
	case KindAnd, KindOr:
		for i := range r.Children {
			if err := Validate(&r.Children[i], counts); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown clause kind %d", ErrInvalid, uint8(r.Kind))
	}
}

func checkIndex(r *Requirement, n int) error {
	if r.Index < 0 || r.Index >= n {
		return fmt.Errorf("%w: %s index %d out of range [0,%d)", ErrInvalid, r.Kind, r.Index, n)
	}
	return nil
}
