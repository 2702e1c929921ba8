// Package party builds the starting party from catalog content.
package party

import (
	"fmt"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/game/character"
	"github.com/cory-johannsen/incremental/internal/game/inventory"
)

// Roster is the catalog surface Build reads.
type Roster interface {
	Party() []catalog.PartyMember
	Spell(id string) (catalog.Spell, error)
}

// Build constructs one actor per roster entry, in roster order. Each member
// starts from DefaultActorParams, takes the entry's overrides, learns its
// spell, and equips its loadout after the loadout is added to inv.
//
// Precondition: inv has free capacity for every loadout item.
// Postcondition: returns the party, or the first error encountered wrapped
// with the member's name.
func Build(roster Roster, inv *inventory.Inventory) ([]*character.Combatant, error) {
	members := roster.Party()
	out := make([]*character.Combatant, 0, len(members))
	for _, m := range members {
		actor, err := buildMember(roster, inv, m)
		if err != nil {
			return nil, fmt.Errorf("building party member %q: %w", m.Name, err)
		}
		out = append(out, actor)
	}
	return out, nil
}

func buildMember(roster Roster, inv *inventory.Inventory, m catalog.PartyMember) (*character.Combatant, error) {
	p := character.DefaultActorParams(m.Name)
	p.PortraitPath = m.PortraitPath
	if m.Atk > 0 {
		p.Atk = m.Atk
	}
	if m.CooldownS > 0 {
		p.Cooldown = catalog.Seconds(m.CooldownS)
	}
	actor := character.NewActor(p)
	if err := actor.SetSpell(roster, m.SpellID); err != nil {
		return nil, err
	}
	for _, id := range m.Loadout {
		if err := inv.AddItem(id); err != nil {
			return nil, err
		}
		if err := inv.EquipItem(actor, id); err != nil {
			return nil, err
		}
	}
	return actor, nil
}
