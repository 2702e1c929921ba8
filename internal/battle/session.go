// Package battle drives a saved game's endless fight: it feeds frame deltas
// to the fixed-step combat loop, grants rewards, draws the next enemy and
// revives downed party members.
package battle

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/game/character"
	"github.com/cory-johannsen/incremental/internal/game/combat"
	"github.com/cory-johannsen/incremental/internal/game/dice"
	"github.com/cory-johannsen/incremental/internal/game/encounter"
	"github.com/cory-johannsen/incremental/internal/savegame"
)

// Content is the catalog surface a Session reads.
type Content interface {
	encounter.Content
	Location(id string) (catalog.Location, error)
}

// Tally accumulates what a session has achieved since it started.
type Tally struct {
	Ticks   int
	Attacks int
	Kills   int
	Downs   int
	XP      int
	Munny   int
	Drops   int
	// Lost counts item drops discarded for lack of storage.
	Lost int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option { return func(s *Session) { s.logger = logger } }

// WithSource sets the random source used for encounter draws and loot.
func WithSource(src dice.Source) Option { return func(s *Session) { s.rng = src } }

// WithReviveDelay sets how long a downed party member stays down.
func WithReviveDelay(d time.Duration) Option { return func(s *Session) { s.reviveDelay = d } }

// WithRespawnDelay sets the pause between a kill and the next enemy.
func WithRespawnDelay(d time.Duration) Option { return func(s *Session) { s.respawnDelay = d } }

// WithCombatOptions forwards options to the combat system.
func WithCombatOptions(opts ...combat.Option) Option {
	return func(s *Session) { s.combatOpts = append(s.combatOpts, opts...) }
}

// WithNotify registers fn to receive human-readable battle log lines.
func WithNotify(fn func(line string)) Option { return func(s *Session) { s.notify = fn } }

// DefaultReviveDelay is how long a downed party member stays down.
const DefaultReviveDelay = 10 * time.Second

// Session owns the live simulation for one GameState.
//
// Not safe for concurrent use.
type Session struct {
	content Content
	state   *savegame.GameState
	ticks   *combat.TickController
	combat  *combat.System
	pool    *encounter.Pool
	rng     dice.Source
	logger  *zap.Logger
	notify  func(string)

	combatOpts   []combat.Option
	reviveDelay  time.Duration
	respawnDelay time.Duration

	reviving    map[*character.Combatant]time.Duration
	respawnLeft time.Duration
	rewarded    bool
	tally       Tally
	tickErr     error
}

// NewSession builds a session for state at state.LocationID and draws the
// first enemy.
//
// Precondition: state has a non-nil Inventory and at least one actor.
// Postcondition: returns an error wrapping combat.ErrInvalidTickLength for a
// non-positive tick, a *catalog.LookupError for an unknown location, or an
// *encounter.ConfigurationError for an unusable pool.
func NewSession(content Content, state *savegame.GameState, tick time.Duration, opts ...Option) (*Session, error) {
	ticks, err := combat.NewTickController(tick)
	if err != nil {
		return nil, err
	}
	s := &Session{
		content:     content,
		state:       state,
		ticks:       ticks,
		logger:      zap.NewNop(),
		notify:      func(string) {},
		reviveDelay: DefaultReviveDelay,
		reviving:    make(map[*character.Combatant]time.Duration),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = dice.NewCryptoSource()
	}

	loc, err := content.Location(state.LocationID)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	pool, err := encounter.NewPool(content, loc.EncounterPool, s.rng, encounter.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("starting session at %q: %w", loc.ID, err)
	}
	s.pool = pool

	opts2 := append([]combat.Option{
		combat.WithLogger(s.logger),
		combat.WithObserver(func(combat.AttackEvent) { s.tally.Attacks++ }),
	}, s.combatOpts...)
	s.combat = combat.NewSystem(state.Actors, nil, opts2...)
	if err := s.spawn(); err != nil {
		return nil, err
	}
	s.trackDowns()
	return s, nil
}

// State returns the game state the session mutates.
func (s *Session) State() *savegame.GameState { return s.state }

// Enemy returns the current enemy.
func (s *Session) Enemy() *character.Combatant { return s.combat.Enemy() }

// Tally returns the session totals so far.
func (s *Session) Tally() Tally { return s.tally }

// Reviving reports how long actor has left before reviving, and whether it
// is down at all.
func (s *Session) Reviving(actor *character.Combatant) (time.Duration, bool) {
	d, ok := s.reviving[actor]
	return d, ok
}

// Frame advances the session by one frame of length dt.
//
// Order: revive timers, the respawn timer, a pending kill from a previous
// frame, then whole ticks. A kill inside a tick grants its reward once and
// either draws the next enemy at once or starts the respawn timer.
func (s *Session) Frame(dt time.Duration) error {
	if dt < 0 {
		dt = 0
	}
	s.updateRevives(dt)
	if err := s.updateRespawn(dt); err != nil {
		return err
	}
	if s.respawnLeft <= 0 && s.combat.Enemy().IsDead() {
		if err := s.finishEnemy(); err != nil {
			return err
		}
	}
	if s.respawnLeft > 0 {
		return nil
	}

	s.tickErr = nil
	s.ticks.Update(dt, s.onTick)
	return s.tickErr
}

func (s *Session) onTick(dt time.Duration) {
	if s.tickErr != nil || s.respawnLeft > 0 {
		return
	}
	s.tally.Ticks++
	if s.combat.Enemy().IsDead() {
		s.tickErr = s.finishEnemy()
		return
	}
	s.combat.OnTick(dt)
	s.trackDowns()
	if s.combat.Enemy().IsDead() {
		s.tickErr = s.finishEnemy()
	}
}

// finishEnemy grants the dead enemy's reward and queues the next one.
func (s *Session) finishEnemy() error {
	if err := s.applyRewards(); err != nil {
		return err
	}
	if s.respawnDelay > 0 {
		s.respawnLeft = s.respawnDelay
		return nil
	}
	return s.spawn()
}

func (s *Session) applyRewards() error {
	if s.rewarded {
		return nil
	}
	enemy := s.combat.Enemy()
	r, err := encounter.Grant(enemy, s.state.Actors, s.state.Inventory, s.rng)
	s.rewarded = true
	if err != nil {
		return fmt.Errorf("rewarding %s: %w", enemy.Name, err)
	}
	s.tally.Kills++
	s.tally.XP += r.XP
	s.tally.Munny += r.Munny
	s.tally.Drops += len(r.Drops)
	s.tally.Lost += len(r.Lost)

	s.logger.Info("enemy defeated",
		zap.String("enemy", enemy.Name),
		zap.Int("level", enemy.Enemy.Level),
		zap.Int("xp", r.XP),
		zap.Int("munny", r.Munny),
		zap.Int("drops", len(r.Drops)),
	)
	s.notify(fmt.Sprintf("%s defeated!", enemy.Name))
	if r.XP > 0 {
		s.notify(fmt.Sprintf("Party gained %d XP each.", r.XP))
	}
	for name, n := range r.LevelUps {
		s.notify(fmt.Sprintf("%s gained %d level(s).", name, n))
	}
	if r.Munny > 0 {
		s.notify(fmt.Sprintf("Gained %d munny.", r.Munny))
	}
	for _, d := range r.Drops {
		if d.MaterialID != "" {
			s.notify(fmt.Sprintf("Found %dx %s.", d.Amount, d.MaterialID))
		} else {
			s.notify(fmt.Sprintf("Found item %s.", d.ItemID))
		}
	}
	for _, id := range r.Lost {
		s.notify(fmt.Sprintf("Found item %s, but inventory is full.", id))
	}
	return nil
}

func (s *Session) spawn() error {
	enemy, err := s.pool.NextEnemy()
	if err != nil {
		return fmt.Errorf("drawing enemy: %w", err)
	}
	s.combat.SetEnemy(enemy)
	s.rewarded = false
	s.respawnLeft = 0
	s.notify(fmt.Sprintf("A %s (Lv%d) appears!", enemy.Name, enemy.Enemy.Level))
	return nil
}

func (s *Session) updateRespawn(dt time.Duration) error {
	if s.respawnLeft <= 0 {
		return nil
	}
	s.respawnLeft -= dt
	if s.respawnLeft > 0 {
		return nil
	}
	return s.spawn()
}

func (s *Session) trackDowns() {
	for _, a := range s.state.Actors {
		if !a.IsDead() {
			continue
		}
		if _, down := s.reviving[a]; down {
			continue
		}
		s.reviving[a] = s.reviveDelay
		s.tally.Downs++
		s.logger.Info("party member down", zap.String("actor", a.Name), zap.Duration("revive_in", s.reviveDelay))
		s.notify(fmt.Sprintf("%s is down! Revive in %s.", a.Name, s.reviveDelay))
	}
}

func (s *Session) updateRevives(dt time.Duration) {
	for a, left := range s.reviving {
		left -= dt
		if left > 0 {
			s.reviving[a] = left
			continue
		}
		a.Health.Heal()
		if a.IsActor() {
			a.Actor.Mana.Current = 0
		}
		a.AttackState.Reset()
		delete(s.reviving, a)
		s.notify(fmt.Sprintf("%s revived.", a.Name))
	}
}

// Travel moves the party to locationID and draws an enemy from its pool.
// Any pending reward for a dead enemy is forfeited.
//
// Postcondition: on error the location, pool and enemy are unchanged.
func (s *Session) Travel(locationID string) error {
	loc, err := s.content.Location(locationID)
	if err != nil {
		return fmt.Errorf("travelling: %w", err)
	}
	prev := s.pool.Current()
	if err := s.pool.SetPool(loc.EncounterPool); err != nil {
		return fmt.Errorf("travelling to %q: %w", locationID, err)
	}
	if err := s.spawn(); err != nil {
		_ = s.pool.SetPool(prev)
		return err
	}
	s.state.LocationID = loc.ID
	s.ticks.Reset()
	s.logger.Info("travelled", zap.String("location", loc.ID), zap.String("pool", loc.EncounterPool))
	s.notify(fmt.Sprintf("Arrived at %s: %s.", loc.Title, loc.Subtitle))
	return nil
}

// Run advances the session by total simulated time in frames of length
// frame, without waiting on a wall clock.
//
// Precondition: frame > 0.
func (s *Session) Run(total, frame time.Duration) error {
	if frame <= 0 {
		return fmt.Errorf("battle: frame length must be > 0, got %s", frame)
	}
	for total > 0 {
		dt := min(frame, total)
		if err := s.Frame(dt); err != nil {
			return err
		}
		total -= dt
	}
	return nil
}
