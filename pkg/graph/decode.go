package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jwebster45206/rando-engine/pkg/requirement"
	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// File is the JSON layout of a logic file.
type File struct {
	Name         string                     `json:"name"`
	Tech         []string                   `json:"tech"`
	Strats       []string                   `json:"strats"`
	Flags        []string                   `json:"flags"`
	Requirements map[string]json.RawMessage `json:"requirements"`
	Links        []FileLink                 `json:"links"`
	Doors        []FileDoor                 `json:"doors"`
	Items        []FileNode                 `json:"items"`
	FlagNodes    []FileFlagNode             `json:"flagLocations"`
	Saves        []FileNode                 `json:"saves"`
	Starts       []FileStart                `json:"starts"`
	Objectives   []string                   `json:"objectives"`
}

type FileLink struct {
	From     VertexKey       `json:"from"`
	To       VertexKey       `json:"to"`
	Strat    string          `json:"strat"`
	Notable  string          `json:"notable,omitempty"`
	Requires json.RawMessage `json:"requires,omitempty"`
}

type FileDoor struct {
	Name string    `json:"name"`
	From VertexKey `json:"from"`
	To   VertexKey `json:"to"`
}

type FileNode struct {
	Name string `json:"name"`
	Room int    `json:"room"`
	Node int    `json:"node"`
}

type FileFlagNode struct {
	Flag string `json:"flag"`
	Room int    `json:"room"`
	Node int    `json:"node"`
}

type FileStart struct {
	Name   string    `json:"name"`
	Vertex VertexKey `json:"vertex"`
}

// Decode reads a logic file and compiles it. Unknown fields, names and clause
// kinds are reported as ErrMalformed.
func Decode(r io.Reader) (*Graph, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: failed to decode logic file: %v", ErrMalformed, err)
	}
	return f.Compile()
}

// Compile turns a decoded file into a Graph.
func (f *File) Compile() (*Graph, error) {
	b := NewBuilder()
	for _, t := range f.Tech {
		b.AddTech(t)
	}
	for _, s := range f.Strats {
		b.AddStrat(s)
	}
	for _, fl := range f.Flags {
		b.AddFlag(fl)
	}
	if b.err != nil {
		return nil, b.err
	}

	p := &parser{g: b.g, named: f.Requirements, resolved: make(map[string]requirement.Requirement), active: make(map[string]bool)}
	// Resolve named requirements up front in a stable order so that errors
	// are reported deterministically.
	names := make([]string, 0, len(f.Requirements))
	for name := range f.Requirements {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := p.ref(name); err != nil {
			return nil, err
		}
	}

	for i, l := range f.Links {
		req := requirement.Free()
		if len(l.Requires) > 0 {
			var err error
			if req, err = p.parse(l.Requires); err != nil {
				return nil, fmt.Errorf("link %d (%s): %w", i, l.Strat, err)
			}
		}
		b.AddLink(l.From, l.To, req, l.Strat, l.Notable)
	}
	for _, d := range f.Doors {
		b.AddDoor(d.Name, d.From, d.To)
	}
	for _, n := range f.Items {
		b.AddItemLocation(n.Name, n.Room, n.Node)
	}
	for _, n := range f.FlagNodes {
		b.AddFlagLocation(n.Flag, n.Room, n.Node)
	}
	for _, n := range f.Saves {
		b.AddSaveLocation(n.Name, n.Room, n.Node)
	}
	for _, s := range f.Starts {
		b.AddStartLocation(s.Name, s.Vertex)
	}
	for _, o := range f.Objectives {
		b.AddObjective(o)
	}
	return b.Build()
}

type parser struct {
	g        *Graph
	named    map[string]json.RawMessage
	resolved map[string]requirement.Requirement
	active   map[string]bool
}

func (p *parser) ref(name string) (requirement.Requirement, error) {
	if req, ok := p.resolved[name]; ok {
		return req, nil
	}
	raw, ok := p.named[name]
	if !ok {
		return requirement.Requirement{}, fmt.Errorf("%w: unknown requirement %q", ErrMalformed, name)
	}
	if p.active[name] {
		return requirement.Requirement{}, fmt.Errorf("%w: requirement %q refers to itself", ErrMalformed, name)
	}
	p.active[name] = true
	req, err := p.parse(raw)
	delete(p.active, name)
	if err != nil {
		return requirement.Requirement{}, fmt.Errorf("requirement %q: %w", name, err)
	}
	p.resolved[name] = req
	return req, nil
}

// parse decodes one requirement. A bare string is either a payload-free
// clause or the name of a named requirement; an object has exactly one key
// naming the clause.
func (p *parser) parse(raw json.RawMessage) (requirement.Requirement, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return requirement.Requirement{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch name {
		case "free":
			return requirement.Free(), nil
		case "never":
			return requirement.Never(), nil
		case "energyRefill":
			return requirement.EnergyRefill(), nil
		case "ammoRefill":
			return requirement.AmmoRefill(), nil
		case "phantoon":
			return requirement.Phantoon(), nil
		case "draygon":
			return requirement.Draygon(), nil
		case "ridley":
			return requirement.Ridley(), nil
		}
		return p.ref(name)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return requirement.Requirement{}, fmt.Errorf("%w: requirement must be a string or object: %v", ErrMalformed, err)
	}
	if len(obj) != 1 {
		return requirement.Requirement{}, fmt.Errorf("%w: requirement object must have exactly one key, got %d", ErrMalformed, len(obj))
	}
	for key, val := range obj {
		return p.clause(key, val)
	}
	panic("unreachable")
}

func (p *parser) clause(key string, val json.RawMessage) (requirement.Requirement, error) {
	kind, ok := requirement.KindByName(key)
	if !ok {
		return requirement.Requirement{}, fmt.Errorf("%w: unknown clause %q", ErrMalformed, key)
	}
	switch kind {
	case requirement.KindTech:
		return p.named1(val, p.g.techIndex, "tech", requirement.Tech)
	case requirement.KindStrat:
		return p.named1(val, p.g.stratIndex, "strat", requirement.Strat)
	case requirement.KindFlag:
		return p.named1(val, p.g.flagIndex, "flag", requirement.Flag)
	case requirement.KindItem, requirement.KindItemPickup:
		var item resource.Item
		if err := json.Unmarshal(val, &item); err != nil {
			return requirement.Requirement{}, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
		}
		if kind == requirement.KindItem {
			return requirement.Item(item), nil
		}
		return requirement.ItemPickup(item), nil
	case requirement.KindAnd, requirement.KindOr:
		children, err := p.list(val)
		if err != nil {
			return requirement.Requirement{}, err
		}
		if kind == requirement.KindAnd {
			return requirement.And(children...), nil
		}
		return requirement.Or(children...), nil
	case requirement.KindAtLeast:
		var body struct {
			Count int             `json:"count"`
			Of    json.RawMessage `json:"of"`
		}
		if err := json.Unmarshal(val, &body); err != nil {
			return requirement.Requirement{}, fmt.Errorf("%w: atLeast: %v", ErrMalformed, err)
		}
		children, err := p.list(body.Of)
		if err != nil {
			return requirement.Requirement{}, err
		}
		return requirement.AtLeast(body.Count, children...), nil
	case requirement.KindEnemyKill:
		var weapons []string
		if err := json.Unmarshal(val, &weapons); err != nil {
			return requirement.Requirement{}, fmt.Errorf("%w: enemyKill: %v", ErrMalformed, err)
		}
		var mask uint64
		for _, w := range weapons {
			weapon, ok := resource.ParseWeapon(w)
			if !ok {
				return requirement.Requirement{}, fmt.Errorf("%w: unknown weapon %q", ErrMalformed, w)
			}
			mask |= weapon.Bit()
		}
		return requirement.EnemyKill(mask), nil
	case requirement.KindBotwoon, requirement.KindMotherBrain2:
		var phase bool
		if err := json.Unmarshal(val, &phase); err != nil {
			return requirement.Requirement{}, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
		}
		if kind == requirement.KindBotwoon {
			return requirement.Botwoon(phase), nil
		}
		return requirement.MotherBrain2(phase), nil
	case requirement.KindGateGlitch:
		var body struct {
			Green      bool `json:"green"`
			HeatFrames int  `json:"heatFrames"`
		}
		if err := json.Unmarshal(val, &body); err != nil {
			return requirement.Requirement{}, fmt.Errorf("%w: gateGlitch: %v", ErrMalformed, err)
		}
		return requirement.GateGlitch(body.Green, body.HeatFrames), nil
	case requirement.KindHeatFrames, requirement.KindLavaFrames, requirement.KindDamage,
		requirement.KindMissiles, requirement.KindSupers, requirement.KindPowerBombs,
		requirement.KindShineCharge, requirement.KindEnergyAtMost:
		var n int
		if err := json.Unmarshal(val, &n); err != nil {
			return requirement.Requirement{}, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
		}
		return requirement.Requirement{Kind: kind, Count: n}, nil
	}
	// Payload-free clauses may also be written as objects, e.g. {"free": true}.
	return requirement.Requirement{Kind: kind}, nil
}

func (p *parser) named1(val json.RawMessage, index map[string]int, what string, mk func(int) requirement.Requirement) (requirement.Requirement, error) {
	var name string
	if err := json.Unmarshal(val, &name); err != nil {
		return requirement.Requirement{}, fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
	}
	idx, ok := index[name]
	if !ok {
		return requirement.Requirement{}, fmt.Errorf("%w: unknown %s %q", ErrMalformed, what, name)
	}
	return mk(idx), nil
}

func (p *parser) list(val json.RawMessage) ([]requirement.Requirement, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(val, &raws); err != nil {
		return nil, fmt.Errorf("%w: expected a list of requirements: %v", ErrMalformed, err)
	}
	out := make([]requirement.Requirement, 0, len(raws))
	for _, raw := range raws {
		req, err := p.parse(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}
