package character

import (
	"fmt"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
)

// Combatant is a unit taking part in combat. Exactly one of Actor and Enemy
// is non-nil; combat and leveling logic branch on which extension is present.
type Combatant struct {
	Name          string
	PortraitPath  string
	Stats         Stats
	Health        Health
	AttackProfile AttackProfile
	AttackState   AttackState

	Actor *ActorExt
	Enemy *EnemyExt
}

// ActorExt carries the party-member-only state.
type ActorExt struct {
	Mana        Mana
	Level       int
	XP          int
	XPToLevel   int
	MagicDamage int
	// SpellID survives a failed catalog resolution on load; Spell is nil then.
	SpellID   string
	Spell     *catalog.Spell
	Equipment Equipment
}

// EnemyExt carries the enemy-only state.
type EnemyExt struct {
	InstanceID   string
	DefinitionID string
	Level        int
	// BaseStats are the unscaled stats captured at construction.
	BaseStats   Stats
	XPReward    int
	MunnyReward int
	Drops       []catalog.Drop
}

// EquippedItem is an item owned by an actor's equipment slot. Item holds
// the deltas applied at Level; they stay fixed until the item is re-equipped.
type EquippedItem struct {
	ItemID string
	Level  int
	Item   catalog.Item
}

// Equipment holds at most one item per slot.
type Equipment struct {
	Keyblade  *EquippedItem
	Armor     *EquippedItem
	Accessory *EquippedItem
}

// Get returns the item equipped in slot, or nil.
func (e *Equipment) Get(slot catalog.Slot) *EquippedItem {
	switch slot {
	case catalog.SlotKeyblade:
		return e.Keyblade
	case catalog.SlotArmor:
		return e.Armor
	case catalog.SlotAccessory:
		return e.Accessory
	}
	return nil
}

// Set replaces the entry for slot. A nil item clears the slot.
//
// Precondition: slot.Valid().
func (e *Equipment) Set(slot catalog.Slot, item *EquippedItem) {
	switch slot {
	case catalog.SlotKeyblade:
		e.Keyblade = item
	case catalog.SlotArmor:
		e.Armor = item
	case catalog.SlotAccessory:
		e.Accessory = item
	default:
		panic(fmt.Sprintf("character: Equipment.Set: invalid slot %q", slot))
	}
}

// IsDead reports whether the combatant has no health left.
func (c *Combatant) IsDead() bool { return c.Health.IsDead() }

// IsActor reports whether c is a party member.
func (c *Combatant) IsActor() bool { return c.Actor != nil }

// IsEnemy reports whether c is an enemy.
func (c *Combatant) IsEnemy() bool { return c.Enemy != nil }

// HasManaPool reports whether c has a usable mana pool. A pool with a zero
// maximum counts as absent.
func (c *Combatant) HasManaPool() bool {
	return c.Actor != nil && c.Actor.Mana.Max > 0
}

// MagicDamage returns the burst damage added when the mana pool is full, or 0
// for combatants without one.
func (c *Combatant) MagicDamage() int {
	if c.Actor == nil {
		return 0
	}
	return c.Actor.MagicDamage
}

func (c *Combatant) String() string {
	switch {
	case c.Actor != nil:
		return fmt.Sprintf("%s(HP=%d, MP=%d)", c.Name, c.Health.Current, c.Actor.Mana.Current)
	case c.Enemy != nil:
		return fmt.Sprintf("%s(Lv%d HP=%d)", c.Name, c.Enemy.Level, c.Health.Current)
	}
	return fmt.Sprintf("%s(HP=%d)", c.Name, c.Health.Current)
}
