package scripting

import (
	"errors"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/game/character"
	"github.com/cory-johannsen/incremental/internal/game/combat"
	"github.com/cory-johannsen/incremental/internal/game/dice"
)

// HookName is the global function a targeting script must define:
//
//	select_target(attacker, candidates) -> index | nil
//
// attacker and every candidate are tables with the fields name, is_enemy,
// dead, hp, max_hp, atk, defense, speed, level, mana and mana_max.
// Party members see the single enemy as their candidate; the enemy sees the
// whole party in list order. The returned index is 1-based.
const HookName = "select_target"

// ErrNoHook is returned when a script does not define select_target.
var ErrNoHook = errors.New("scripting: script does not define " + HookName)

// Option configures a TargetScript.
type Option func(*TargetScript)

// WithLogger sets the logger used for script diagnostics and engine.log.
func WithLogger(logger *zap.Logger) Option { return func(s *TargetScript) { s.logger = logger } }

// WithSource sets the random source behind engine.dice.
func WithSource(src dice.Source) Option { return func(s *TargetScript) { s.rng = src } }

// WithInstructionLimit sets the opcode budget of each call; 0 uses
// DefaultInstructionLimit.
func WithInstructionLimit(n int) Option { return func(s *TargetScript) { s.limit = n } }

// TargetScript is a loaded targeting script. It is safe for concurrent use;
// calls are serialised on the single VM.
type TargetScript struct {
	mu     sync.Mutex
	L      *lua.LState
	name   string
	limit  int
	logger *zap.Logger
	rng    dice.Source
}

// LoadTargetScript reads and runs the script at path.
//
// Postcondition: returns a script whose select_target is defined, or an
// error for an unreadable file, a Lua error, or ErrNoHook.
func LoadTargetScript(path string, opts ...Option) (*TargetScript, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return LoadTargetScriptString(path, string(src), opts...)
}

// LoadTargetScriptString runs src under name.
func LoadTargetScriptString(name, src string, opts ...Option) (*TargetScript, error) {
	s := &TargetScript{name: name, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = dice.NewCryptoSource()
	}

	s.L = NewSandboxedState(s.limit)
	registerModules(s.L, s.logger, s.rng)
	if err := s.L.DoString(src); err != nil {
		s.L.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	if _, ok := s.L.GetGlobal(HookName).(*lua.LFunction); !ok {
		s.L.Close()
		return nil, fmt.Errorf("%w: %q", ErrNoHook, name)
	}
	return s, nil
}

// Close releases the VM.
func (s *TargetScript) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
}

// Selector returns a combat.TargetSelector backed by the script. A call
// that errors, exceeds its budget, or returns anything but an in-range
// index is logged and answered by fallback.
func (s *TargetScript) Selector(fallback combat.TargetSelector) combat.TargetSelector {
	return combat.SelectorFunc(func(attacker *character.Combatant, party []*character.Combatant, enemy *character.Combatant) *character.Combatant {
		candidates := party
		if !attacker.IsEnemy() {
			candidates = []*character.Combatant{enemy}
		}
		idx, err := s.choose(attacker, candidates)
		if err != nil {
			s.logger.Warn("target script failed, using fallback",
				zap.String("script", s.name),
				zap.String("attacker", attacker.Name),
				zap.Error(err),
			)
			return fallback.Select(attacker, party, enemy)
		}
		return candidates[idx]
	})
}

// choose returns the 0-based candidate index picked by the script.
func (s *TargetScript) choose(attacker *character.Combatant, candidates []*character.Combatant) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	release := withBudget(s.L, s.limit)
	defer release()

	list := s.L.NewTable()
	for _, c := range candidates {
		list.Append(s.combatantTable(c))
	}
	err := s.L.CallByParam(lua.P{
		Fn:      s.L.GetGlobal(HookName),
		NRet:    1,
		Protect: true,
	}, s.combatantTable(attacker), list)
	if err != nil {
		return 0, err
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("%s returned %s, want a number", HookName, ret.Type())
	}
	idx := int(n)
	if lua.LNumber(idx) != n || idx < 1 || idx > len(candidates) {
		return 0, fmt.Errorf("%s returned %v, want 1..%d", HookName, n, len(candidates))
	}
	return idx - 1, nil
}

func (s *TargetScript) combatantTable(c *character.Combatant) *lua.LTable {
	t := s.L.NewTable()
	if c == nil {
		t.RawSetString("dead", lua.LTrue)
		return t
	}
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("is_enemy", lua.LBool(c.IsEnemy()))
	t.RawSetString("dead", lua.LBool(c.IsDead()))
	t.RawSetString("hp", lua.LNumber(c.Health.Current))
	t.RawSetString("max_hp", lua.LNumber(c.Health.Max))
	t.RawSetString("atk", lua.LNumber(c.Stats.Atk))
	t.RawSetString("defense", lua.LNumber(c.Stats.Defense))
	t.RawSetString("speed", lua.LNumber(c.Stats.Speed))
	switch {
	case c.IsActor():
		t.RawSetString("level", lua.LNumber(c.Actor.Level))
		t.RawSetString("mana", lua.LNumber(c.Actor.Mana.Current))
		t.RawSetString("mana_max", lua.LNumber(c.Actor.Mana.Max))
	case c.IsEnemy():
		t.RawSetString("level", lua.LNumber(c.Enemy.Level))
		t.RawSetString("mana", lua.LNumber(0))
		t.RawSetString("mana_max", lua.LNumber(0))
	}
	return t
}
