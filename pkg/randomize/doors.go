package randomize

import (
	"fmt"
	"math/rand/v2"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/graph"
	"github.com/jwebster45206/rando-engine/pkg/requirement"
	"github.com/jwebster45206/rando-engine/pkg/resource"
)

// DoorColor is the lock put on a door at seed time.
type DoorColor string

const (
	DoorBlue   DoorColor = "blue"
	DoorRed    DoorColor = "red"
	DoorGreen  DoorColor = "green"
	DoorYellow DoorColor = "yellow"
)

// Chance per color of locking a door in ammo mode.
const lockChance = 0.05

// DoorLock records the lock chosen for one door.
type DoorLock struct {
	Door  string    `json:"door"`
	Color DoorColor `json:"color"`
}

// Requirement is what it takes to open a door of this color.
func (c DoorColor) Requirement() requirement.Requirement {
	switch c {
	case DoorRed:
		return requirement.Or(requirement.Missiles(5), requirement.Supers(1))
	case DoorGreen:
		return requirement.Supers(1)
	case DoorYellow:
		return requirement.And(requirement.Item(resource.Morph), requirement.PowerBombs(1))
	default:
		return requirement.Free()
	}
}

// LockDoors turns every door of g into a seed link. In blue mode all doors
// are free. In ammo mode each door is red, green or yellow with a small
// chance, drawn from seed in door order.
func LockDoors(g *graph.Graph, mode difficulty.DoorsMode, seed uint64) ([]graph.Link, []DoorLock) {
	rng := rand.New(rand.NewPCG(seed, seed^doorStream))
	links := make([]graph.Link, 0, len(g.Doors))
	locks := make([]DoorLock, 0, len(g.Doors))
	for _, door := range g.Doors {
		color := DoorBlue
		if mode == difficulty.DoorsAmmo {
			switch roll := rng.Float64(); {
			case roll < lockChance:
				color = DoorRed
			case roll < 2*lockChance:
				color = DoorGreen
			case roll < 3*lockChance:
				color = DoorYellow
			}
		}
		links = append(links, graph.Link{
			From:         door.From,
			To:           door.To,
			Requirement:  color.Requirement(),
			StratName:    fmt.Sprintf("Door: %s (%s)", door.Name, color),
			NotableStrat: -1,
		})
		locks = append(locks, DoorLock{Door: door.Name, Color: color})
	}
	return links, locks
}
