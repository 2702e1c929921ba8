// Package catalog provides the static, read-only game content: items,
// materials, spells, locations, enemy definitions, encounter pools, item
// level tables, synthesis recipes and the starting party.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Slot is an equipment slot.
type Slot string

const (
	SlotKeyblade  Slot = "keyblade"
	SlotArmor     Slot = "armor"
	SlotAccessory Slot = "accessory"
)

// Slots lists every equipment slot in display order.
var Slots = []Slot{SlotKeyblade, SlotArmor, SlotAccessory}

// Valid reports whether s is one of the known slots.
func (s Slot) Valid() bool {
	switch s {
	case SlotKeyblade, SlotArmor, SlotAccessory:
		return true
	}
	return false
}

// ParseSlot converts a raw slot name into a Slot.
//
// Postcondition: Returns a valid Slot or a LookupError.
func ParseSlot(raw string) (Slot, error) {
	s := Slot(raw)
	if !s.Valid() {
		return "", &LookupError{Kind: KindSlot, ID: raw}
	}
	return s, nil
}

// Item is an equippable item definition.
type Item struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Slot    Slot   `yaml:"slot"`
	Atk     int    `yaml:"atk"`
	Defense int    `yaml:"defense"`
	MP      int    `yaml:"mp"`
}

// Material is a crafting material definition.
type Material struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Spell sets an actor's burst damage and mana pool size.
type Spell struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	MPMax  int    `yaml:"mp_max"`
	Damage int    `yaml:"damage"`
}

// Location is a travel destination bound to an encounter pool.
type Location struct {
	ID            string `yaml:"id"`
	World         string `yaml:"world"`
	Title         string `yaml:"title"`
	Subtitle      string `yaml:"subtitle"`
	EncounterPool string `yaml:"encounter_pool"`
	Background    string `yaml:"background"`
}

// Drop is one entry of an enemy drop table. Exactly one of ItemID and
// MaterialID is set.
type Drop struct {
	ItemID     string  `yaml:"item"`
	MaterialID string  `yaml:"material"`
	Chance     float64 `yaml:"chance"`
	Amount     int     `yaml:"amount"`
}

// EnemyDefinition is the base definition an encounter template may refer to.
type EnemyDefinition struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	PortraitPath string  `yaml:"portrait"`
	MaxHP        int     `yaml:"max_hp"`
	Atk          int     `yaml:"atk"`
	Defense      int     `yaml:"defense"`
	Speed        int     `yaml:"speed"`
	MPMax        int     `yaml:"mp_max"`
	CooldownS    float64 `yaml:"cooldown_s"`
	XPReward     int     `yaml:"xp_reward"`
	MunnyReward  int     `yaml:"munny_reward"`
	Drops        []Drop  `yaml:"drops"`
}

// EncounterTemplate describes one entry of an encounter pool. When EnemyID is
// set, every non-nil field overrides the referenced definition. A nil Drops
// slice inherits the definition's drop table.
type EncounterTemplate struct {
	EnemyID      string   `yaml:"enemy_id"`
	Name         *string  `yaml:"name"`
	PortraitPath *string  `yaml:"portrait"`
	Level        *int     `yaml:"level"`
	MaxHP        *int     `yaml:"max_hp"`
	Atk          *int     `yaml:"atk"`
	Defense      *int     `yaml:"defense"`
	Speed        *int     `yaml:"speed"`
	MPMax        *int     `yaml:"mp_max"`
	CooldownS    *float64 `yaml:"cooldown_s"`
	XPReward     *int     `yaml:"xp_reward"`
	MunnyReward  *int     `yaml:"munny_reward"`
	Drops        []Drop   `yaml:"drops"`
}

// EncounterPool is a named list of templates.
type EncounterPool struct {
	ID        string              `yaml:"id"`
	Templates []EncounterTemplate `yaml:"templates"`
}

// LevelRequirement is the cost of raising an item to Level.
type LevelRequirement struct {
	Level     int            `yaml:"level"`
	ItemCost  int            `yaml:"item_cost"`
	Materials map[string]int `yaml:"materials"`
}

// LevelTable is the ordered upgrade path for one item.
type LevelTable struct {
	ItemID       string             `yaml:"item"`
	Requirements []LevelRequirement `yaml:"levels"`
}

// MaxLevel returns the highest reachable level, 1 if the table is empty.
func (t LevelTable) MaxLevel() int {
	top := 1
	for _, r := range t.Requirements {
		if r.Level > top {
			top = r.Level
		}
	}
	return top
}

// Requirement returns the requirement for reaching level, if any.
func (t LevelTable) Requirement(level int) (LevelRequirement, bool) {
	for _, r := range t.Requirements {
		if r.Level == level {
			return r, true
		}
	}
	return LevelRequirement{}, false
}

// Recipe converts materials into an item.
type Recipe struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Materials   map[string]int `yaml:"materials"`
	Output      string         `yaml:"output"`
}

// PartyMember is a starting party template.
type PartyMember struct {
	Name         string   `yaml:"name"`
	PortraitPath string   `yaml:"portrait"`
	CooldownS    float64  `yaml:"cooldown_s"`
	Atk          int      `yaml:"atk"`
	SpellID      string   `yaml:"spell"`
	Loadout      []string `yaml:"loadout"`
}

// Seconds converts a float second count from content files into a Duration,
// rounded to the nearest nanosecond.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Lookup kinds reported by LookupError.
const (
	KindItem     = "item"
	KindMaterial = "material"
	KindSpell    = "spell"
	KindLocation = "location"
	KindEnemy    = "enemy definition"
	KindPool     = "encounter pool"
	KindRecipe   = "recipe"
	KindSlot     = "slot"
	KindLevels   = "item level table"
)

// ErrNotFound matches every LookupError via errors.Is.
var ErrNotFound = errors.New("catalog: not found")

// LookupError reports an unknown content id.
type LookupError struct {
	Kind string
	ID   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("catalog: unknown %s %q", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true for every LookupError.
func (e *LookupError) Is(target error) bool {
	return target == ErrNotFound
}
