package character

import (
	"errors"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
)

// ErrNotActor is returned by actor-only operations invoked on an enemy.
var ErrNotActor = errors.New("character: combatant is not an actor")

// Growth applied on every level up.
const (
	GrowthMaxHP   = 5
	GrowthAtk     = 2
	GrowthDefense = 1
	GrowthSpeed   = 1
	GrowthMPMax   = 2
)

// XPToLevel returns the experience needed to leave level.
//
// Postcondition: XPToLevel(level) == 100 + (level-1)*50.
func XPToLevel(level int) int {
	return 100 + (level-1)*50
}

// SpellBook resolves spell ids.
type SpellBook interface {
	Spell(id string) (catalog.Spell, error)
}

// GainXP adds amount to an actor's experience and applies every level up it
// triggers. Non-actors are unaffected.
//
// Postcondition: 0 <= XP < XPToLevel; each level up adds the fixed growth and
// fully heals. Returns the number of levels gained.
func (c *Combatant) GainXP(amount int) int {
	a := c.Actor
	if a == nil {
		return 0
	}
	a.XP += amount
	if a.XP < 0 {
		a.XP = 0
	}
	gained := 0
	for a.XP >= a.XPToLevel {
		a.XP -= a.XPToLevel
		a.Level++
		c.Stats.MaxHP += GrowthMaxHP
		c.Stats.Atk += GrowthAtk
		c.Stats.Defense += GrowthDefense
		c.Stats.Speed += GrowthSpeed
		c.Stats.MPMax += GrowthMPMax
		c.Health.Max += GrowthMaxHP
		c.Health.Heal()
		a.XPToLevel = XPToLevel(a.Level)
		gained++
	}
	return gained
}

// SetSpell resolves id through book and makes it the actor's current spell.
// An empty id clears the spell.
//
// Postcondition: returns ErrNotActor for enemies; on success MagicDamage == spell.Damage and
// Stats.MPMax == Mana.Max == spell.MPMax with mana clamped; on a
// *catalog.LookupError the actor is unchanged.
func (c *Combatant) SetSpell(book SpellBook, id string) error {
	if c.Actor == nil {
		return ErrNotActor
	}
	if id == "" {
		c.ClearSpell()
		return nil
	}
	spell, err := book.Spell(id)
	if err != nil {
		return err
	}
	a := c.Actor
	a.SpellID = id
	a.Spell = &spell
	a.MagicDamage = spell.Damage
	c.Stats.MPMax = spell.MPMax
	a.Mana.Max = spell.MPMax
	a.Mana.Clamp()
	return nil
}

// ClearSpell removes the current spell without touching the mana pool.
func (c *Combatant) ClearSpell() {
	if c.Actor == nil {
		return
	}
	c.Actor.SpellID = ""
	c.Actor.Spell = nil
}
