// Package encounter draws enemies from location-bound pools and grants the
// rewards of a defeated enemy.
package encounter

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/game/character"
	"github.com/cory-johannsen/incremental/internal/game/dice"
)

// ConfigurationError reports an unusable encounter pool: unknown or empty.
type ConfigurationError struct {
	Pool   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("encounter pool %q: %s", e.Pool, e.Reason)
}

// Content is the catalog surface the pool reads.
type Content interface {
	Enemy(id string) (catalog.EnemyDefinition, error)
	Pool(id string) (catalog.EncounterPool, error)
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithLogger sets the logger used for draw output.
func WithLogger(logger *zap.Logger) PoolOption {
	return func(p *Pool) { p.logger = logger }
}

// Pool holds the active encounter pool and builds enemies from its templates.
//
// Not safe for concurrent use.
type Pool struct {
	content Content
	rng     dice.Source
	logger  *zap.Logger
	current string
	// extra holds pools extended through AddTemplate, seeded from the catalog.
	extra map[string][]catalog.EncounterTemplate
}

// NewPool returns a Pool whose active pool is name.
//
// Precondition: content and rng must be non-nil.
// Postcondition: returns a *ConfigurationError when name is not a known pool.
func NewPool(content Content, name string, rng dice.Source, opts ...PoolOption) (*Pool, error) {
	p := &Pool{
		content: content,
		rng:     rng,
		logger:  zap.NewNop(),
		extra:   make(map[string][]catalog.EncounterTemplate),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.SetPool(name); err != nil {
		return nil, err
	}
	return p, nil
}

// Current returns the active pool name.
func (p *Pool) Current() string { return p.current }

// SetPool switches the active pool.
//
// Postcondition: on error the active pool is unchanged.
func (p *Pool) SetPool(name string) error {
	if _, ok := p.templates(name); !ok {
		return &ConfigurationError{Pool: name, Reason: "unknown pool"}
	}
	p.current = name
	return nil
}

// AddTemplate appends tmpl to the named pool, creating the pool if needed.
func (p *Pool) AddTemplate(name string, tmpl catalog.EncounterTemplate) {
	existing, _ := p.templates(name)
	p.extra[name] = append(slices.Clone(existing), tmpl)
}

func (p *Pool) templates(name string) ([]catalog.EncounterTemplate, bool) {
	if t, ok := p.extra[name]; ok {
		return t, true
	}
	pool, err := p.content.Pool(name)
	if err != nil {
		return nil, false
	}
	return pool.Templates, true
}

// NextEnemy draws a template uniformly from the active pool and builds its
// enemy.
//
// Postcondition: returns a *ConfigurationError when the pool is missing or
// empty, and a *catalog.LookupError when the drawn template references an
// unknown enemy definition.
func (p *Pool) NextEnemy() (*character.Combatant, error) {
	candidates, ok := p.templates(p.current)
	if !ok {
		return nil, &ConfigurationError{Pool: p.current, Reason: "unknown pool"}
	}
	if len(candidates) == 0 {
		return nil, &ConfigurationError{Pool: p.current, Reason: "pool is empty"}
	}
	tmpl := candidates[dice.Pick(p.rng, len(candidates))]
	params, err := p.Resolve(tmpl)
	if err != nil {
		return nil, err
	}
	enemy := character.NewEnemy(params)
	p.logger.Debug("enemy drawn",
		zap.String("pool", p.current),
		zap.String("enemy", enemy.Name),
		zap.String("definition", params.DefinitionID),
		zap.Int("level", enemy.Enemy.Level),
		zap.String("instance", enemy.Enemy.InstanceID),
	)
	return enemy, nil
}

// Resolve merges tmpl over its referenced definition. Template fields win;
// a template without an enemy id starts from DefaultEnemyParams.
func (p *Pool) Resolve(tmpl catalog.EncounterTemplate) (character.EnemyParams, error) {
	params := character.DefaultEnemyParams()
	params.XPReward = 0
	if tmpl.EnemyID != "" {
		def, err := p.content.Enemy(tmpl.EnemyID)
		if err != nil {
			return character.EnemyParams{}, err
		}
		params = fromDefinition(def)
	}
	applyTemplate(&params, tmpl)
	return params, nil
}

func fromDefinition(def catalog.EnemyDefinition) character.EnemyParams {
	return character.EnemyParams{
		DefinitionID: def.ID,
		Name:         def.Name,
		PortraitPath: def.PortraitPath,
		MaxHP:        def.MaxHP,
		Atk:          def.Atk,
		Defense:      def.Defense,
		Speed:        def.Speed,
		MPMax:        def.MPMax,
		Cooldown:     catalog.Seconds(def.CooldownS),
		Level:        1,
		XPReward:     def.XPReward,
		MunnyReward:  def.MunnyReward,
		Drops:        slices.Clone(def.Drops),
	}
}

func applyTemplate(p *character.EnemyParams, t catalog.EncounterTemplate) {
	setIf(&p.Name, t.Name)
	setIf(&p.PortraitPath, t.PortraitPath)
	setIf(&p.Level, t.Level)
	setIf(&p.MaxHP, t.MaxHP)
	setIf(&p.Atk, t.Atk)
	setIf(&p.Defense, t.Defense)
	setIf(&p.Speed, t.Speed)
	setIf(&p.MPMax, t.MPMax)
	setIf(&p.XPReward, t.XPReward)
	setIf(&p.MunnyReward, t.MunnyReward)
	if t.CooldownS != nil {
		p.Cooldown = catalog.Seconds(*t.CooldownS)
	}
	if t.Drops != nil {
		p.Drops = slices.Clone(t.Drops)
	}
	if p.Level < 1 {
		p.Level = 1
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
