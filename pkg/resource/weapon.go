package resource

// Weapon is a way of damaging enemies. Each weapon owns one bit of a weapon mask.
type Weapon int

const (
	PowerBeam Weapon = iota
	ChargeBeam
	IceBeam
	WaveBeam
	SpazerBeam
	PlasmaBeam
	MissileWeapon
	SuperWeapon
	PowerBombWeapon
	BombWeapon
	ScrewAttackWeapon
	SpeedBoosterWeapon

	NumWeapons = int(SpeedBoosterWeapon) + 1
)

var weaponNames = [NumWeapons]string{
	"PowerBeam",
	"Charge",
	"Ice",
	"Wave",
	"Spazer",
	"Plasma",
	"Missile",
	"Super",
	"PowerBomb",
	"Bomb",
	"ScrewAttack",
	"SpeedBooster",
}

func (w Weapon) String() string {
	if w < 0 || int(w) >= NumWeapons {
		return "Weapon(?)"
	}
	return weaponNames[w]
}

// Bit returns the mask bit for w.
func (w Weapon) Bit() uint64 {
	return 1 << uint(w)
}

// ParseWeapon resolves a weapon by name.
func ParseWeapon(name string) (Weapon, bool) {
	for i, n := range weaponNames {
		if n == name {
			return Weapon(i), true
		}
	}
	return 0, false
}

// weaponItems lists, per weapon, the items that must all be held for it to be usable.
var weaponItems = [NumWeapons][]Item{
	PowerBeam:          nil,
	ChargeBeam:         {Charge},
	IceBeam:            {Ice},
	WaveBeam:           {Wave},
	SpazerBeam:         {Spazer},
	PlasmaBeam:         {Plasma},
	MissileWeapon:      {Missile},
	SuperWeapon:        {Super},
	PowerBombWeapon:    {Morph, PowerBomb},
	BombWeapon:         {Morph, Bombs},
	ScrewAttackWeapon:  {ScrewAttack},
	SpeedBoosterWeapon: {SpeedBooster},
}

// WeaponMask computes the set of usable weapons for the held items.
func WeaponMask(items []bool) uint64 {
	var mask uint64
	for w := 0; w < NumWeapons; w++ {
		usable := true
		for _, item := range weaponItems[w] {
			if int(item) >= len(items) || !items[item] {
				usable = false
				break
			}
		}
		if usable {
			mask |= Weapon(w).Bit()
		}
	}
	return mask
}
