package combat

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/game/character"
)

// AttackEvent describes one resolved attack.
type AttackEvent struct {
	Attacker *character.Combatant
	Defender *character.Combatant
	// Damage is the raw damage dealt, which may exceed the health removed.
	Damage int
	// Burst is true when the attacker's full mana pool was discharged.
	Burst bool
	// Killed is true when this attack reduced the defender to zero health.
	Killed bool
}

// Option configures a System.
type Option func(*System)

// WithActorSelector overrides the party's target policy.
func WithActorSelector(sel TargetSelector) Option {
	return func(s *System) { s.actorSel = sel }
}

// WithEnemySelector overrides the enemy's target policy.
func WithEnemySelector(sel TargetSelector) Option {
	return func(s *System) { s.enemySel = sel }
}

// WithLogger sets the logger used for per-attack debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *System) { s.logger = logger }
}

// WithObserver registers fn to receive every AttackEvent synchronously.
func WithObserver(fn func(AttackEvent)) Option {
	return func(s *System) { s.observers = append(s.observers, fn) }
}

// System resolves attacks between an ordered party and one enemy.
//
// Not safe for concurrent use; callers serialize OnTick with every other
// mutation of the combatants it holds.
type System struct {
	party     []*character.Combatant
	enemy     *character.Combatant
	actorSel  TargetSelector
	enemySel  TargetSelector
	logger    *zap.Logger
	observers []func(AttackEvent)
}

// NewSystem builds a System over party and enemy. Party order is the attack
// order within a tick.
//
// Postcondition: actors target FixedEnemy and the enemy targets FirstLiving
// unless overridden by opts.
func NewSystem(party []*character.Combatant, enemy *character.Combatant, opts ...Option) *System {
	s := &System{
		party:    party,
		enemy:    enemy,
		actorSel: FixedEnemy{},
		enemySel: FirstLiving{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Party returns the party slice held by the system.
func (s *System) Party() []*character.Combatant { return s.party }

// Enemy returns the current enemy, possibly nil.
func (s *System) Enemy() *character.Combatant { return s.enemy }

// SetEnemy replaces the current enemy.
func (s *System) SetEnemy(enemy *character.Combatant) { s.enemy = enemy }

// PartyDefeated reports whether no party member is alive.
func (s *System) PartyDefeated() bool {
	return FirstLiving{}.Select(nil, s.party, nil) == nil
}

// OnTick advances the simulation by one tick of length dt.
//
// Order: each living party member in list order advances its timer and, when
// ready and given a living target, attacks; then, if the enemy is alive, the
// enemy does the same. Dead combatants do not advance their timers. An
// attacker whose selector yields no living target keeps its accumulated time.
func (s *System) OnTick(dt time.Duration) {
	for _, actor := range s.party {
		if actor == nil || actor.IsDead() {
			continue
		}
		actor.AttackState.Advance(dt)
		if !actor.AttackState.Ready(actor.AttackProfile.Cooldown) {
			continue
		}
		target := s.actorSel.Select(actor, s.party, s.enemy)
		if target == nil || target.IsDead() {
			continue
		}
		s.BasicAttack(actor, target)
	}

	enemy := s.enemy
	if enemy == nil || enemy.IsDead() {
		return
	}
	enemy.AttackState.Advance(dt)
	if !enemy.AttackState.Ready(enemy.AttackProfile.Cooldown) {
		return
	}
	target := s.enemySel.Select(enemy, s.party, enemy)
	if target == nil || target.IsDead() {
		return
	}
	s.BasicAttack(enemy, target)
}

// CalcDamage returns max(1, atk - defense).
func CalcDamage(atk, defense int) int {
	return max(1, atk-defense)
}

// BasicAttack resolves one attack from attacker against defender.
//
// Postcondition: returns the raw damage max(1, atk-defense), plus the
// attacker's magic damage when its mana pool was full. A full pool is emptied
// before the attack's mana gain is added, so a bursting attacker ends at
// exactly MPGain mana. Defender health is clamped to [0, max]; the attacker's
// timer is reset.
func (s *System) BasicAttack(attacker, defender *character.Combatant) int {
	damage := CalcDamage(attacker.Stats.Atk, defender.Stats.Defense)
	burst := false
	if attacker.HasManaPool() && attacker.Actor.Mana.Full() {
		damage += attacker.MagicDamage()
		attacker.Actor.Mana.Current = 0
		burst = true
	}

	wasAlive := !defender.IsDead()
	defender.Health.Current -= damage
	defender.Health.Clamp()

	if attacker.HasManaPool() {
		attacker.Actor.Mana.Current += attacker.AttackProfile.MPGain
		attacker.Actor.Mana.Clamp()
	}
	attacker.AttackState.Reset()

	ev := AttackEvent{
		Attacker: attacker,
		Defender: defender,
		Damage:   damage,
		Burst:    burst,
		Killed:   wasAlive && defender.IsDead(),
	}
	s.logger.Debug("attack",
		zap.String("attacker", attacker.Name),
		zap.String("defender", defender.Name),
		zap.Int("damage", damage),
		zap.Bool("burst", burst),
		zap.Int("defender_hp", defender.Health.Current),
	)
	for _, fn := range s.observers {
		fn(ev)
	}
	return damage
}

func (s *System) String() string {
	name := "none"
	if s.enemy != nil {
		name = s.enemy.Name
	}
	return fmt.Sprintf("CombatSystem(actors=%d, enemy=%s)", len(s.party), name)
}
