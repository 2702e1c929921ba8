// Package savegame persists game state to versioned JSON records held in an
// injected Storage, one record per save slot.
package savegame

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/game/character"
	"github.com/cory-johannsen/incremental/internal/game/inventory"
	"github.com/cory-johannsen/incremental/internal/game/party"
)

// Record format constants.
const (
	Version           = 2
	DefaultKeyPrefix  = "incremental_save:"
	DefaultMaxSlots   = 3
	DefaultLocationID = "destiny_islands_beach"
)

// ErrNoSlotID is returned when saving a state without a slot id.
var ErrNoSlotID = errors.New("savegame: slot id must be set before saving")

// Storage is a string key/value store. Get reports ok=false for absent keys.
//
// Implementations must be safe for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Content is the catalog surface the codec reads.
type Content interface {
	inventory.Content
	party.Roster
	Location(id string) (catalog.Location, error)
}

// Summary is the denormalised slot listing data stored next to the state.
type Summary struct {
	PartyNames []string
	Munny      int
}

// GameState is everything persisted for one slot.
type GameState struct {
	SlotID     string
	LocationID string
	Inventory  *inventory.Inventory
	Actors     []*character.Combatant
	// CreatedAt is zero until the first save.
	CreatedAt time.Time
	UpdatedAt time.Time
	// Summary is nil for a state that was never saved or whose record had
	// none.
	Summary *Summary
}

// Option configures a Codec.
type Option func(*Codec)

// WithKeyPrefix sets the storage key prefix.
func WithKeyPrefix(prefix string) Option { return func(c *Codec) { c.prefix = prefix } }

// WithMaxSlots sets the number of slots ListSlots enumerates.
func WithMaxSlots(n int) Option { return func(c *Codec) { c.maxSlots = n } }

// WithClock sets the time source used for save timestamps.
func WithClock(now func() time.Time) Option { return func(c *Codec) { c.now = now } }

// WithLogger sets the codec logger.
func WithLogger(logger *zap.Logger) Option { return func(c *Codec) { c.logger = logger } }

// Codec saves and loads GameState through a Storage.
type Codec struct {
	store    Storage
	content  Content
	prefix   string
	maxSlots int
	now      func() time.Time
	logger   *zap.Logger
}

// NewCodec returns a codec over store that resolves ids through content.
//
// Precondition: store and content must be non-nil.
func NewCodec(store Storage, content Content, opts ...Option) *Codec {
	c := &Codec{
		store:    store,
		content:  content,
		prefix:   DefaultKeyPrefix,
		maxSlots: DefaultMaxSlots,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the storage key of slotID.
func (c *Codec) Key(slotID string) string { return c.prefix + slotID }

// SlotID returns the id of the 1-based slot index.
func SlotID(index int) string { return "slot" + strconv.Itoa(index) }

// CreateDefaultState returns a fresh game: default capacity, the default party
// with its loadout equipped, and the default location.
func (c *Codec) CreateDefaultState(slotID string) (*GameState, error) {
	inv := inventory.New(c.content, inventory.DefaultCapacity())
	actors, err := party.Build(c.content, inv)
	if err != nil {
		return nil, fmt.Errorf("creating default state: %w", err)
	}
	return &GameState{
		SlotID:     slotID,
		LocationID: DefaultLocationID,
		Inventory:  inv,
		Actors:     actors,
	}, nil
}

// Save writes state to its slot.
//
// Precondition: state.SlotID is non-empty, otherwise ErrNoSlotID.
// Postcondition: CreatedAt is set if it was zero; UpdatedAt is now truncated
// to the second in UTC; Summary is rebuilt from the actors and inventory.
func (c *Codec) Save(ctx context.Context, state *GameState) error {
	if state.SlotID == "" {
		return ErrNoSlotID
	}
	now := c.now().UTC().Truncate(time.Second)
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.UpdatedAt = now
	state.Summary = summarize(state)

	rec := record{
		Version:    Version,
		SlotID:     state.SlotID,
		CreatedAt:  formatTime(state.CreatedAt),
		UpdatedAt:  formatTime(state.UpdatedAt),
		LocationID: state.LocationID,
		Inventory:  encodeInventory(state.Inventory),
		Actors:     make([]actorRecord, 0, len(state.Actors)),
		Summary: &summaryRecord{
			PartyNames: state.Summary.PartyNames,
			Munny:      ptr(state.Summary.Munny),
		},
	}
	for _, a := range state.Actors {
		if !a.IsActor() {
			return fmt.Errorf("saving slot %q: %q is not an actor", state.SlotID, a.Name)
		}
		rec.Actors = append(rec.Actors, encodeActor(a))
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding slot %q: %w", state.SlotID, err)
	}
	if err := c.store.Set(ctx, c.Key(state.SlotID), string(raw)); err != nil {
		return fmt.Errorf("writing slot %q: %w", state.SlotID, err)
	}
	c.logger.Debug("slot saved", zap.String("slot", state.SlotID), zap.Int("bytes", len(raw)))
	return nil
}

func summarize(state *GameState) *Summary {
	names := make([]string, 0, len(state.Actors))
	for _, a := range state.Actors {
		names = append(names, a.Name)
	}
	return &Summary{PartyNames: names, Munny: state.Inventory.Munny()}
}

// Load reads slotID.
//
// Postcondition: returns (nil, nil) when the slot is empty or its record
// cannot be parsed; storage errors are returned. Equipment whose item no
// longer resolves is dropped and the rest resolves at the level it was
// equipped at. An unresolvable spell keeps its id with a nil Spell, and every
// attack timer starts at zero.
func (c *Codec) Load(ctx context.Context, slotID string) (*GameState, error) {
	raw, ok, err := c.store.Get(ctx, c.Key(slotID))
	if err != nil {
		return nil, fmt.Errorf("reading slot %q: %w", slotID, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		c.logger.Warn("discarding unreadable save", zap.String("slot", slotID), zap.Error(err))
		return nil, nil
	}
	if rec.Version != Version {
		c.logger.Warn("save version mismatch",
			zap.String("slot", slotID),
			zap.Int("version", rec.Version),
			zap.Int("expected", Version),
		)
	}

	inv := decodeInventory(c.content, rec.Inventory)
	state := &GameState{
		SlotID:     slotID,
		LocationID: rec.LocationID,
		Inventory:  inv,
		Actors:     make([]*character.Combatant, 0, len(rec.Actors)),
		CreatedAt:  parseTime(rec.CreatedAt),
		UpdatedAt:  parseTime(rec.UpdatedAt),
	}
	if state.LocationID == "" {
		state.LocationID = DefaultLocationID
	}
	for _, ar := range rec.Actors {
		state.Actors = append(state.Actors, c.decodeActor(slotID, ar, inv))
	}
	if rec.Summary != nil {
		s := summarize(state)
		if rec.Summary.PartyNames != nil {
			s.PartyNames = rec.Summary.PartyNames
		}
		if rec.Summary.Munny != nil {
			s.Munny = *rec.Summary.Munny
		}
		state.Summary = s
	}
	c.logger.Debug("slot loaded", zap.String("slot", slotID), zap.Int("actors", len(state.Actors)))
	return state, nil
}

func (c *Codec) decodeActor(slotID string, r actorRecord, inv *inventory.Inventory) *character.Combatant {
	p := character.DefaultActorParams(r.Name)
	p.PortraitPath = r.PortraitPath
	p.MaxHP = r.Stats.MaxHP
	p.Atk = r.Stats.Atk
	p.Defense = r.Stats.Defense
	p.Speed = r.Stats.Speed
	p.MPMax = r.Stats.MPMax
	p.Cooldown = catalog.Seconds(r.AttackProfile.CooldownS)
	p.MPGain = r.AttackProfile.MPGain
	p.Level = r.Level
	p.XP = r.XP
	a := character.NewActor(p)
	ext := a.Actor

	a.Health.Max = valueOr(r.Health.Max, a.Health.Max)
	a.Health.Current = valueOr(r.Health.Current, a.Health.Max)
	ext.Mana.Max = valueOr(r.Mana.Max, ext.Mana.Max)
	ext.Mana.Current = valueOr(r.Mana.Current, ext.Mana.Current)
	ext.MagicDamage = r.MagicDamage
	ext.XPToLevel = valueOr(r.XPToLevel, ext.XPToLevel)

	if r.SpellID != nil && *r.SpellID != "" {
		ext.SpellID = *r.SpellID
		if spell, err := c.content.Spell(ext.SpellID); err == nil {
			ext.Spell = &spell
		} else {
			c.logger.Warn("unknown spell in save",
				zap.String("slot", slotID), zap.String("actor", a.Name), zap.String("spell", ext.SpellID))
		}
	}

	for rawSlot, itemID := range r.Equipment {
		slot := catalog.Slot(rawSlot)
		level, ok := r.EquipmentLevels[rawSlot]
		if !ok || level < 1 {
			level = inv.ItemLevel(itemID)
		}
		item, err := inv.LeveledItemAtLevel(itemID, level)
		if err != nil || !slot.Valid() || item.Slot != slot {
			c.logger.Warn("dropping unresolvable equipment",
				zap.String("slot", slotID),
				zap.String("actor", a.Name),
				zap.String("equipment_slot", rawSlot),
				zap.String("item", itemID),
			)
			continue
		}
		ext.Equipment.Set(slot, &character.EquippedItem{ItemID: itemID, Level: level, Item: item})
	}

	a.AttackState.Reset()
	a.Health.Clamp()
	ext.Mana.Clamp()
	return a
}

// Delete removes the record of slotID. Deleting an empty slot is not an error.
func (c *Codec) Delete(ctx context.Context, slotID string) error {
	if err := c.store.Remove(ctx, c.Key(slotID)); err != nil {
		return fmt.Errorf("deleting slot %q: %w", slotID, err)
	}
	return nil
}
