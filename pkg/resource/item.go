package resource

import (
	"encoding/json"
	"fmt"
)

// Item is a collectible that can be placed at an item location.
type Item int

const (
	ETank Item = iota
	Missile
	Super
	PowerBomb
	Bombs
	Charge
	Ice
	HiJump
	SpeedBooster
	Wave
	Spazer
	SpringBall
	Varia
	Gravity
	XRayScope
	Plasma
	Grapple
	SpaceJump
	ScrewAttack
	Morph
	ReserveTank

	// NumItems is the number of distinct items.
	NumItems = int(ReserveTank) + 1
)

var itemNames = [NumItems]string{
	"ETank",
	"Missile",
	"Super",
	"PowerBomb",
	"Bombs",
	"Charge",
	"Ice",
	"HiJump",
	"SpeedBooster",
	"Wave",
	"Spazer",
	"SpringBall",
	"Varia",
	"Gravity",
	"XRayScope",
	"Plasma",
	"Grapple",
	"SpaceJump",
	"ScrewAttack",
	"Morph",
	"ReserveTank",
}

var itemsByName = func() map[string]Item {
	m := make(map[string]Item, NumItems)
	for i, name := range itemNames {
		m[name] = Item(i)
	}
	return m
}()

func (i Item) String() string {
	if i < 0 || int(i) >= NumItems {
		return fmt.Sprintf("Item(%d)", int(i))
	}
	return itemNames[i]
}

// Valid reports whether i is one of the enumerated items.
func (i Item) Valid() bool {
	return i >= 0 && int(i) < NumItems
}

// ParseItem resolves an item by its canonical name.
func ParseItem(name string) (Item, error) {
	item, ok := itemsByName[name]
	if !ok {
		return 0, fmt.Errorf("unrecognized item %q", name)
	}
	return item, nil
}

// AllItems returns every item in enumeration order.
func AllItems() []Item {
	items := make([]Item, NumItems)
	for i := range items {
		items[i] = Item(i)
	}
	return items
}

func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	item, err := ParseItem(name)
	if err != nil {
		return err
	}
	*i = item
	return nil
}

// MarshalYAML/UnmarshalYAML let preset files name items directly.
func (i Item) MarshalYAML() (interface{}, error) {
	return i.String(), nil
}

func (i *Item) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	item, err := ParseItem(name)
	if err != nil {
		return err
	}
	*i = item
	return nil
}
