package character

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
)

// ActorParams configures NewActor. Start from DefaultActorParams.
type ActorParams struct {
	Name         string
	PortraitPath string
	MaxHP        int
	Atk          int
	Defense      int
	Speed        int
	MPMax        int
	Cooldown     time.Duration
	MPGain       int
	Level        int
	XP           int
}

// DefaultActorParams returns the baseline party member configuration.
//
// Postcondition: hp 10, atk 5, defense 1, speed 1, mp 10, 200ms cooldown,
// mp gain 1, level 1, xp 0.
func DefaultActorParams(name string) ActorParams {
	return ActorParams{
		Name:     name,
		MaxHP:    10,
		Atk:      5,
		Defense:  1,
		Speed:    1,
		MPMax:    10,
		Cooldown: 200 * time.Millisecond,
		MPGain:   1,
		Level:    1,
	}
}

// DefaultMagicDamage is the burst damage of an actor without a spell.
const DefaultMagicDamage = 12

// NewActor builds a party member at full health with an empty mana pool.
//
// Postcondition: Level >= 1; XP >= 0; XPToLevel == XPToLevel(Level);
// Mana.Current == 0; equipment is empty and no spell is set.
func NewActor(p ActorParams) *Combatant {
	level := max(1, p.Level)
	return &Combatant{
		Name:          p.Name,
		PortraitPath:  p.PortraitPath,
		Stats:         Stats{MaxHP: p.MaxHP, Atk: p.Atk, Defense: p.Defense, Speed: p.Speed, MPMax: p.MPMax},
		Health:        Health{Current: p.MaxHP, Max: p.MaxHP},
		AttackProfile: AttackProfile{Cooldown: p.Cooldown, MPGain: p.MPGain},
		Actor: &ActorExt{
			Mana:        Mana{Current: 0, Max: p.MPMax},
			Level:       level,
			XP:          max(0, p.XP),
			XPToLevel:   XPToLevel(level),
			MagicDamage: DefaultMagicDamage,
		},
	}
}

// EnemyParams configures NewEnemy. Start from DefaultEnemyParams.
type EnemyParams struct {
	DefinitionID string
	Name         string
	PortraitPath string
	MaxHP        int
	Atk          int
	Defense      int
	Speed        int
	MPMax        int
	Cooldown     time.Duration
	MPGain       int
	Level        int
	XPReward     int
	MunnyReward  int
	Drops        []catalog.Drop
}

// DefaultEnemyParams returns the baseline enemy configuration.
//
// Postcondition: "Enemy", hp 20, atk 3, defense 2, speed 1, mp 0, 800ms
// cooldown, level 1, xp reward 50, munny reward 0, no drops.
func DefaultEnemyParams() EnemyParams {
	return EnemyParams{
		Name:     "Enemy",
		MaxHP:    20,
		Atk:      3,
		Defense:  2,
		Speed:    1,
		Cooldown: 800 * time.Millisecond,
		Level:    1,
		XPReward: 50,
	}
}

// NewEnemy builds an enemy and applies its one-time level scaling.
//
// Precondition: none; a level below 1 is treated as 1.
// Postcondition: Enemy.BaseStats holds the unscaled stats; for Level > 1,
// MaxHP, Atk, Defense and Speed are ScaleStat(base, Level); Health is full.
func NewEnemy(p EnemyParams) *Combatant {
	base := Stats{MaxHP: p.MaxHP, Atk: p.Atk, Defense: p.Defense, Speed: p.Speed, MPMax: p.MPMax}
	drops := make([]catalog.Drop, len(p.Drops))
	copy(drops, p.Drops)

	c := &Combatant{
		Name:          p.Name,
		PortraitPath:  p.PortraitPath,
		Stats:         base,
		Health:        Health{Current: p.MaxHP, Max: p.MaxHP},
		AttackProfile: AttackProfile{Cooldown: p.Cooldown, MPGain: p.MPGain},
		Enemy: &EnemyExt{
			InstanceID:   uuid.New().String(),
			DefinitionID: p.DefinitionID,
			Level:        max(1, p.Level),
			BaseStats:    base,
			XPReward:     p.XPReward,
			MunnyReward:  p.MunnyReward,
			Drops:        drops,
		},
	}
	c.applyLevelScaling()
	return c
}

// ScaleStat returns max(1, round(v * level)).
func ScaleStat(v, level int) int {
	return max(1, int(math.Round(float64(v)*float64(level))))
}

func (c *Combatant) applyLevelScaling() {
	level := c.Enemy.Level
	if level <= 1 {
		return
	}
	base := c.Enemy.BaseStats
	c.Stats.MaxHP = ScaleStat(base.MaxHP, level)
	c.Stats.Atk = ScaleStat(base.Atk, level)
	c.Stats.Defense = ScaleStat(base.Defense, level)
	c.Stats.Speed = ScaleStat(base.Speed, level)
	c.Health.Max = c.Stats.MaxHP
	c.Health.Heal()
}
