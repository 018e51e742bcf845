package resource

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectGrowsCapacity(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		check func(t *testing.T, g GlobalState)
	}{
		{
			name:  "energy tanks",
			items: []Item{ETank, ETank},
			check: func(t *testing.T, g GlobalState) {
				assert.Equal(t, 299, g.MaxEnergy)
			},
		},
		{
			name:  "ammo expansions",
			items: []Item{Missile, Missile, Super, PowerBomb},
			check: func(t *testing.T, g GlobalState) {
				assert.Equal(t, 10, g.MaxMissiles)
				assert.Equal(t, 5, g.MaxSupers)
				assert.Equal(t, 5, g.MaxPowerBombs)
			},
		},
		{
			name:  "reserve tank",
			items: []Item{ReserveTank},
			check: func(t *testing.T, g GlobalState) {
				assert.Equal(t, 100, g.MaxReserves)
				assert.Equal(t, BaseEnergy, g.MaxEnergy)
			},
		},
		{
			name:  "power bombs need morph to be a weapon",
			items: []Item{PowerBomb},
			check: func(t *testing.T, g GlobalState) {
				assert.Zero(t, g.WeaponMask&PowerBombWeapon.Bit())
				g.Collect(Morph)
				assert.NotZero(t, g.WeaponMask&PowerBombWeapon.Bit())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGlobalState(nil, nil, 0, 0)
			for _, item := range tt.items {
				g.Collect(item)
			}
			tt.check(t, g)
		})
	}
}

func TestRemoveIsInverseOfCollect(t *testing.T) {
	g := NewGlobalState([]bool{true}, nil, 2, 0)
	before := g.Clone()

	g.Collect(ETank)
	g.Collect(Missile)
	g.Collect(Missile)
	g.Collect(Charge)

	g.Remove(Missile)
	assert.True(t, g.Has(Missile), "one expansion should still be held")
	assert.Equal(t, 5, g.MaxMissiles)

	g.Remove(Missile)
	g.Remove(ETank)
	g.Remove(Charge)
	assert.Equal(t, before, g)

	// Removing below base never goes negative.
	g.Remove(ETank)
	g.Remove(Super)
	assert.Equal(t, BaseEnergy, g.MaxEnergy)
	assert.Equal(t, 0, g.MaxSupers)
}

func TestCovers(t *testing.T) {
	a := NewGlobalState([]bool{true, false}, nil, 1, 0)
	b := a.Clone()
	b.Collect(Morph)
	b.SetFlag(0)

	assert.True(t, b.Covers(&a))
	assert.False(t, a.Covers(&b))
	assert.True(t, a.Covers(&a))
}

func TestCloneIsIndependent(t *testing.T) {
	a := NewGlobalState(nil, nil, 1, 0)
	b := a.Clone()
	b.Collect(Varia)
	b.SetFlag(0)
	assert.False(t, a.Has(Varia))
	assert.False(t, a.HasFlag(0))
}

func TestCostOrdering(t *testing.T) {
	tests := []struct {
		name string
		a, b LocalState
		less bool
	}{
		{"energy dominates ammo", LocalState{EnergyUsed: 10}, LocalState{EnergyUsed: 20}, true},
		{"less energy wins despite ammo", LocalState{EnergyUsed: 10, MissilesUsed: 5}, LocalState{EnergyUsed: 20}, true},
		{"reserves count as energy", LocalState{ReservesUsed: 30}, LocalState{EnergyUsed: 20}, false},
		{"power bombs before supers", LocalState{SupersUsed: 5}, LocalState{PowerBombsUsed: 1}, true},
		{"supers before missiles", LocalState{MissilesUsed: 5}, LocalState{SupersUsed: 1}, true},
		{"equal is not less", LocalState{MissilesUsed: 1}, LocalState{MissilesUsed: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.less, Less(tt.a, tt.b))
		})
	}
}

func TestFits(t *testing.T) {
	g := NewGlobalState(nil, nil, 0, 0)
	g.Collect(Missile)

	assert.True(t, LocalState{}.Fits(&g))
	assert.True(t, LocalState{EnergyUsed: 98, MissilesUsed: 5}.Fits(&g))
	assert.False(t, LocalState{EnergyUsed: 99}.Fits(&g), "zero energy is dead")
	assert.False(t, LocalState{MissilesUsed: 6}.Fits(&g))
	assert.False(t, LocalState{ReservesUsed: 1}.Fits(&g))
}

func TestItemJSON(t *testing.T) {
	data, err := json.Marshal([]Item{Morph, SpaceJump})
	require.NoError(t, err)
	assert.JSONEq(t, `["Morph","SpaceJump"]`, string(data))

	var items []Item
	require.NoError(t, json.Unmarshal(data, &items))
	assert.Equal(t, []Item{Morph, SpaceJump}, items)

	assert.Error(t, json.Unmarshal([]byte(`["Screw"]`), &items))
}

func TestWeaponMask(t *testing.T) {
	items := make([]bool, NumItems)
	mask := WeaponMask(items)
	assert.Equal(t, PowerBeam.Bit(), mask, "power beam is always available")

	items[Charge] = true
	items[Plasma] = true
	mask = WeaponMask(items)
	assert.NotZero(t, mask&ChargeBeam.Bit())
	assert.NotZero(t, mask&PlasmaBeam.Bit())
	assert.Zero(t, mask&BombWeapon.Bit())
}
