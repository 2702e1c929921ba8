package encounter

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/incremental/internal/game/character"
	"github.com/cory-johannsen/incremental/internal/game/dice"
	"github.com/cory-johannsen/incremental/internal/game/inventory"
)

// Bag is the inventory surface Grant credits.
type Bag interface {
	AddMunny(n int) error
	AddMaterial(id string, amount int) error
	AddItem(id string) error
}

// LootDrop is one drop that passed its chance roll.
type LootDrop struct {
	// InstanceID identifies this drop in logs and reward summaries.
	InstanceID string
	ItemID     string
	MaterialID string
	Amount     int
}

// Reward summarises what a defeated enemy granted.
type Reward struct {
	XP    int
	Munny int
	// LevelUps maps actor name to levels gained from the XP award.
	LevelUps map[string]int
	Drops    []LootDrop
	// Lost lists item drops discarded because their slot was full.
	Lost []string
}

// Grant awards enemy's rewards to party and bag.
//
// Every actor in party, living or not, gains the enemy's XP. Munny is
// credited. Each drop is rolled against its chance and skipped when the draw
// exceeds it; material drops add max(1, amount) units and item drops add one
// copy. A full slot records the item in Reward.Lost instead of failing.
//
// Precondition: enemy.IsEnemy(); rng must be non-nil.
// Postcondition: any error other than a *inventory.CapacityError is returned
// and stops further grants; earlier grants remain applied.
func Grant(enemy *character.Combatant, party []*character.Combatant, bag Bag, rng dice.Source) (Reward, error) {
	if !enemy.IsEnemy() {
		return Reward{}, fmt.Errorf("granting rewards: %q is not an enemy", enemy.Name)
	}
	ext := enemy.Enemy
	r := Reward{XP: max(0, ext.XPReward), Munny: max(0, ext.MunnyReward), LevelUps: map[string]int{}}

	if r.XP > 0 {
		for _, actor := range party {
			if actor == nil || !actor.IsActor() {
				continue
			}
			if n := actor.GainXP(r.XP); n > 0 {
				r.LevelUps[actor.Name] += n
			}
		}
	}
	if r.Munny > 0 {
		if err := bag.AddMunny(r.Munny); err != nil {
			return r, fmt.Errorf("granting munny: %w", err)
		}
	}

	for _, drop := range ext.Drops {
		if !dice.Succeeds(rng, drop.Chance) {
			continue
		}
		switch {
		case drop.MaterialID != "":
			amount := max(1, drop.Amount)
			if err := bag.AddMaterial(drop.MaterialID, amount); err != nil {
				return r, fmt.Errorf("granting material %q: %w", drop.MaterialID, err)
			}
			r.Drops = append(r.Drops, LootDrop{InstanceID: uuid.New().String(), MaterialID: drop.MaterialID, Amount: amount})
		case drop.ItemID != "":
			err := bag.AddItem(drop.ItemID)
			var capErr *inventory.CapacityError
			if errors.As(err, &capErr) {
				r.Lost = append(r.Lost, drop.ItemID)
				continue
			}
			if err != nil {
				return r, fmt.Errorf("granting item %q: %w", drop.ItemID, err)
			}
			r.Drops = append(r.Drops, LootDrop{InstanceID: uuid.New().String(), ItemID: drop.ItemID, Amount: 1})
		}
	}
	return r, nil
}
