package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/rando-engine/pkg/requirement"
	"github.com/jwebster45206/rando-engine/pkg/resource"
)

const logicJSON = `{
  "name": "test",
  "tech": ["canWallJump", "canManageReserves"],
  "strats": ["IceClip"],
  "flags": ["f_DefeatedPhantoon"],
  "requirements": {
    "canBomb": {"and": [{"item": "Morph"}, {"or": [{"item": "Bombs"}, {"item": "PowerBomb"}]}]},
    "canPassBombPassages": "canBomb"
  },
  "links": [
    {"from": {"room": 1, "node": 1}, "to": {"room": 1, "node": 2}, "strat": "Base"},
    {"from": {"room": 1, "node": 2}, "to": {"room": 1, "node": 1}, "strat": "Base", "requires": "free"},
    {"from": {"room": 1, "node": 2}, "to": {"room": 2, "node": 1}, "strat": "Bomb Wall", "requires": "canPassBombPassages"},
    {"from": {"room": 2, "node": 1}, "to": {"room": 2, "node": 1, "obstacles": 1}, "strat": "Kill Phantoon", "requires": "phantoon"},
    {"from": {"room": 2, "node": 1, "obstacles": 1}, "to": {"room": 1, "node": 2}, "strat": "Ice Clip", "notable": "IceClip",
     "requires": {"atLeast": {"count": 1, "of": [{"tech": "canWallJump"}, {"enemyKill": ["Ice", "Wave"]}, {"heatFrames": 60}]}}},
    {"from": {"room": 2, "node": 1}, "to": {"room": 1, "node": 2}, "strat": "Return", "requires": {"botwoon": true}}
  ],
  "doors": [{"name": "Left", "from": {"room": 1, "node": 1}, "to": {"room": 3, "node": 1}}],
  "items": [{"name": "Morph Pedestal", "room": 1, "node": 2}, {"name": "Boss Item", "room": 2, "node": 1}],
  "flagLocations": [{"flag": "f_DefeatedPhantoon", "room": 2, "node": 1}],
  "saves": [{"name": "Landing Save", "room": 1, "node": 1}],
  "starts": [{"name": "Ship", "vertex": {"room": 1, "node": 1}}],
  "objectives": ["f_DefeatedPhantoon"]
}`

func TestDecode(t *testing.T) {
	g, err := Decode(strings.NewReader(logicJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{TechCanManageReserves, TechCanBeVeryPatient, "canWallJump"}, g.Tech)
	assert.Equal(t, 5, g.NumVertices())
	require.Len(t, g.Links, 6)

	bomb := g.Links[2].Requirement
	want := requirement.And(requirement.Item(resource.Morph),
		requirement.Or(requirement.Item(resource.Bombs), requirement.Item(resource.PowerBomb)))
	assert.Equal(t, want, bomb)

	clip := g.Links[4]
	assert.Equal(t, 0, clip.NotableStrat)
	assert.Equal(t, requirement.KindAnd, clip.Requirement.Kind)
	assert.Equal(t, requirement.Strat(0), clip.Requirement.Children[0])
	atLeast := clip.Requirement.Children[1]
	assert.Equal(t, requirement.KindAtLeast, atLeast.Kind)
	assert.Equal(t, resource.IceBeam.Bit()|resource.WaveBeam.Bit(), atLeast.Children[1].Mask)

	assert.Equal(t, requirement.Botwoon(true), g.Links[5].Requirement)

	boss, ok := g.VertexID(VertexKey{Room: 2, Node: 1})
	require.True(t, ok)
	cleared, ok := g.VertexID(VertexKey{Room: 2, Node: 1, Obstacles: 1})
	require.True(t, ok)
	assert.ElementsMatch(t, []int{boss, cleared}, g.ItemLocations[1].Vertices)
	assert.Equal(t, []int{0}, g.ObjectiveFlagLocations())

	require.Len(t, g.Doors, 1)
	assert.Len(t, g.Incoming(g.Doors[0].To), 0, "doors are not base links")

	hub := g.StartLocations[0].Vertex
	assert.Len(t, g.Outgoing(hub), 1)
	assert.Len(t, g.Incoming(hub), 1)
}

func TestDecodeGateGlitch(t *testing.T) {
	g, err := Decode(strings.NewReader(`{
  "links": [
    {"from": {"room": 1, "node": 1}, "to": {"room": 1, "node": 2}, "strat": "Green Gate Glitch", "requires": {"gateGlitch": {"green": true, "heatFrames": 45}}},
    {"from": {"room": 1, "node": 2}, "to": {"room": 1, "node": 1}, "strat": "Gate Glitch", "requires": {"gateGlitch": {}}}
  ],
  "starts": [{"name": "s", "vertex": {"room": 1, "node": 1}}]
}`))
	require.NoError(t, err)
	require.Len(t, g.Links, 2)
	assert.Equal(t, requirement.GateGlitch(true, 45), g.Links[0].Requirement)
	assert.Equal(t, requirement.GateGlitch(false, 0), g.Links[1].Requirement)

	_, err = Decode(strings.NewReader(`{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2},"requires":{"gateGlitch":{"heatFrames":-1}}}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown field", `{"bogus": 1}`},
		{"unknown item", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2},"requires":{"item":"Rocket"}}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"unknown clause", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2},"requires":{"teleport":1}}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"two keys", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2},"requires":{"item":"Morph","tech":"x"}}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"unknown tech", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2},"requires":{"tech":"canFly"}}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"unknown named requirement", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2},"requires":"canFly"}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"cyclic named requirement", `{"requirements":{"a":"b","b":{"and":["a"]}},"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"unknown weapon", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2},"requires":{"enemyKill":["Laser"]}}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"n greater than m", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2},"requires":{"atLeast":{"count":2,"of":["free"]}}}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"unknown strat", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2},"notable":"Nope"}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"obstacle without base", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2,"obstacles":2}}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"item without vertex", `{"items":[{"name":"x","room":9,"node":9}],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"unknown objective", `{"objectives":["f_Nope"],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
		{"no start", `{"links":[{"from":{"room":1,"node":1},"to":{"room":1,"node":2}}]}`},
		{"duplicate flag", `{"flags":["a","a"],"starts":[{"name":"s","vertex":{"room":1,"node":1}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.json))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder()
	flag := b.AddFlag("f_Done")
	a := VertexKey{Room: 1, Node: 1}
	c := VertexKey{Room: 1, Node: 2}
	b.AddLink(a, c, requirement.Item(resource.Morph), "Morph Tunnel", "")
	b.AddLink(c, a, requirement.Free(), "Back", "")
	b.AddItemLocation("Item", 1, 2)
	b.AddFlagLocation("f_Done", 1, 2)
	b.AddStartLocation("Hub", a)
	b.AddObjective("f_Done")

	g, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, flag, g.Objectives[0])
	assert.Equal(t, -1, g.Links[0].NotableStrat)
	assert.Equal(t, []bool{true, false}, g.TechVector([]string{TechCanManageReserves, "unknownTech"}))
	assert.Equal(t, []int{0}, g.Outgoing(0))
	assert.Equal(t, []int{1}, g.Incoming(0))

	idx, ok := g.FlagIndex("f_Done")
	require.True(t, ok)
	assert.Equal(t, flag, idx)
}

func TestBuilderRejectsInvalidRequirement(t *testing.T) {
	b := NewBuilder()
	b.AddLink(VertexKey{Room: 1, Node: 1}, VertexKey{Room: 1, Node: 2}, requirement.Flag(3), "Bad", "")
	b.AddStartLocation("Hub", VertexKey{Room: 1, Node: 1})
	_, err := b.Build()
	assert.ErrorIs(t, err, ErrMalformed)
}
