package combat

import "github.com/cory-johannsen/incremental/internal/game/character"

// TargetSelector chooses the defender for an attacker that is ready to strike.
// Returning nil skips the attack without resetting the attacker's timer.
type TargetSelector interface {
	Select(attacker *character.Combatant, party []*character.Combatant, enemy *character.Combatant) *character.Combatant
}

// SelectorFunc adapts a function to TargetSelector.
type SelectorFunc func(attacker *character.Combatant, party []*character.Combatant, enemy *character.Combatant) *character.Combatant

// Select calls f.
func (f SelectorFunc) Select(attacker *character.Combatant, party []*character.Combatant, enemy *character.Combatant) *character.Combatant {
	return f(attacker, party, enemy)
}

// FixedEnemy targets the current enemy. It is the default for party members.
type FixedEnemy struct{}

// Select returns enemy.
func (FixedEnemy) Select(_ *character.Combatant, _ []*character.Combatant, enemy *character.Combatant) *character.Combatant {
	return enemy
}

// FirstLiving targets the first living party member in list order. It is the
// default for the enemy.
type FirstLiving struct{}

// Select returns the first party member that is not dead, or nil.
func (FirstLiving) Select(_ *character.Combatant, party []*character.Combatant, _ *character.Combatant) *character.Combatant {
	for _, a := range party {
		if a != nil && !a.IsDead() {
			return a
		}
	}
	return nil
}
