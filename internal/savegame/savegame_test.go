package savegame_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/savegame"
	"github.com/cory-johannsen/incremental/internal/storage/memory"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 535_897_932, time.FixedZone("X", 3600))

func newCodec(t *testing.T, opts ...savegame.Option) (*savegame.Codec, *memory.Store) {
	t.Helper()
	store := memory.New()
	opts = append([]savegame.Option{savegame.WithClock(func() time.Time { return fixedNow })}, opts...)
	return savegame.NewCodec(store, catalog.Default(), opts...), store
}

// rewrite applies fn to the stored JSON document of key.
func rewrite(t *testing.T, store *memory.Store, key string, fn func(doc map[string]any)) {
	t.Helper()
	ctx := context.Background()
	raw, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	fn(doc)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, key, string(out)))
}

func TestCreateDefaultState(t *testing.T) {
	c, _ := newCodec(t)
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)

	assert.Equal(t, "slot1", s.SlotID)
	assert.Equal(t, savegame.DefaultLocationID, s.LocationID)
	require.Len(t, s.Actors, 3)
	assert.Equal(t, 3, s.Inventory.Capacity(catalog.SlotKeyblade))
	assert.Equal(t, 10, s.Inventory.Capacity(catalog.SlotArmor))
	assert.Equal(t, 10, s.Inventory.Capacity(catalog.SlotAccessory))
	assert.True(t, s.CreatedAt.IsZero())
	assert.Nil(t, s.Summary)
}

func TestSave_RequiresSlotID(t *testing.T) {
	c, _ := newCodec(t)
	s, err := c.CreateDefaultState("")
	require.NoError(t, err)
	require.ErrorIs(t, c.Save(context.Background(), s), savegame.ErrNoSlotID)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newCodec(t)
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	s.LocationID = "traverse_town_first_district"
	require.NoError(t, s.Inventory.AddMunny(125))
	require.NoError(t, s.Inventory.AddMaterial("dark_shard", 4))
	require.NoError(t, s.Inventory.AddItem("champion_belt"))
	require.NoError(t, s.Inventory.SetItemLevel("champion_belt", 3))
	s.Actors[0].GainXP(130)
	s.Actors[1].Health.Current = 4
	s.Actors[2].Actor.Mana.Current = 7
	s.Actors[0].AttackState.Elapsed = 150 * time.Millisecond

	require.NoError(t, c.Save(ctx, s))
	want := fixedNow.UTC().Truncate(time.Second)
	assert.Equal(t, want, s.CreatedAt)
	assert.Equal(t, want, s.UpdatedAt)

	got, err := c.Load(ctx, "slot1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "slot1", got.SlotID)
	assert.Equal(t, "traverse_town_first_district", got.LocationID)
	assert.True(t, want.Equal(got.CreatedAt))
	assert.True(t, want.Equal(got.UpdatedAt))
	assert.Equal(t, s.Inventory.Snapshot(), got.Inventory.Snapshot())

	require.Len(t, got.Actors, len(s.Actors))
	for i, a := range s.Actors {
		b := got.Actors[i]
		assert.Equal(t, a.Name, b.Name)
		assert.Equal(t, a.PortraitPath, b.PortraitPath)
		assert.Equal(t, a.Stats, b.Stats)
		assert.Equal(t, a.Health, b.Health)
		assert.Equal(t, a.AttackProfile, b.AttackProfile)
		assert.Equal(t, a.Actor.Mana, b.Actor.Mana)
		assert.Equal(t, a.Actor.Level, b.Actor.Level)
		assert.Equal(t, a.Actor.XP, b.Actor.XP)
		assert.Equal(t, a.Actor.XPToLevel, b.Actor.XPToLevel)
		assert.Equal(t, a.Actor.MagicDamage, b.Actor.MagicDamage)
		assert.Equal(t, a.Actor.SpellID, b.Actor.SpellID)
		require.NotNil(t, b.Actor.Spell)
		assert.Equal(t, a.Actor.Equipment, b.Actor.Equipment)
		assert.Equal(t, time.Duration(0), b.AttackState.Elapsed)
	}
	require.NotNil(t, got.Summary)
	assert.Equal(t, []string{"Sora", "Donald", "Goofy"}, got.Summary.PartyNames)
	assert.Equal(t, 125, got.Summary.Munny)
}

func TestSave_CreatedAtOnlyOnFirstSave(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	c := savegame.NewCodec(memory.New(), catalog.Default(), savegame.WithClock(func() time.Time { return now }))
	s, err := c.CreateDefaultState("slot2")
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, s))
	created := s.CreatedAt

	now = now.Add(90 * time.Minute)
	require.NoError(t, c.Save(ctx, s))
	assert.Equal(t, created, s.CreatedAt)
	assert.Equal(t, now.UTC().Truncate(time.Second), s.UpdatedAt)
}

func TestSave_WritesVersionedSnakeCaseRecord(t *testing.T) {
	ctx := context.Background()
	c, store := newCodec(t, savegame.WithKeyPrefix("test:"))
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, s))

	raw, ok, err := store.Get(ctx, "test:slot1")
	require.NoError(t, err)
	require.True(t, ok)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.EqualValues(t, savegame.Version, doc["version"])
	assert.Equal(t, "2026-03-14T14:09:26Z", doc["updated_at"])
	assert.Contains(t, doc, "inventory")
	actors := doc["actors"].([]any)
	first := actors[0].(map[string]any)
	assert.Equal(t, "fire", first["spell_id"])
	assert.Equal(t, map[string]any{"keyblade": "kingdom_key"}, first["equipment"])
	assert.Equal(t, map[string]any{"keyblade": float64(1)}, first["equipment_levels"])
	assert.EqualValues(t, 0.2, first["attack_profile"].(map[string]any)["cooldown_s"])
	assert.Contains(t, first, "xp_to_level")
}

func TestLoad_MissingSlot(t *testing.T) {
	c, _ := newCodec(t)
	got, err := c.Load(context.Background(), "slot3")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad_CorruptRecordIsNoSave(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	c, store := newCodec(t, savegame.WithLogger(zap.New(core)))
	require.NoError(t, store.Set(ctx, c.Key("slot1"), "{not json"))

	got, err := c.Load(ctx, "slot1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, logs.FilterMessage("discarding unreadable save").Len())
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error         { return f.err }
func (f failingStore) Remove(context.Context, string) error              { return f.err }

func TestLoad_StorageErrorPropagates(t *testing.T) {
	boom := errors.New("disk on fire")
	c := savegame.NewCodec(failingStore{err: boom}, catalog.Default())

	_, err := c.Load(context.Background(), "slot1")
	require.ErrorIs(t, err, boom)
	_, err = c.ListSlots(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, c.Delete(context.Background(), "slot1"), boom)

	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	require.ErrorIs(t, c.Save(context.Background(), s), boom)
}

func TestLoad_DropsUnknownEquipment(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	c, store := newCodec(t, savegame.WithLogger(zap.New(core)))
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, s))

	rewrite(t, store, c.Key("slot1"), func(doc map[string]any) {
		sora := doc["actors"].([]any)[0].(map[string]any)
		sora["equipment"] = map[string]any{"keyblade": "ghost_blade"}
		donald := doc["actors"].([]any)[1].(map[string]any)
		donald["equipment"] = map[string]any{"armor": "mages_staff"}
	})

	got, err := c.Load(ctx, "slot1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Actors[0].Actor.Equipment.Keyblade)
	assert.Nil(t, got.Actors[1].Actor.Equipment.Armor)
	assert.Nil(t, got.Actors[1].Actor.Equipment.Keyblade)
	require.NotNil(t, got.Actors[2].Actor.Equipment.Keyblade)
	assert.Equal(t, 2, logs.FilterMessage("dropping unresolvable equipment").Len())
}

func TestLoad_LeveledWhileEquippedKeepsAppliedDeltas(t *testing.T) {
	ctx := context.Background()
	c, _ := newCodec(t)
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	sora := s.Actors[0]
	require.NotNil(t, sora.Actor.Equipment.Keyblade)
	require.Equal(t, "kingdom_key", sora.Actor.Equipment.Keyblade.ItemID)

	base := sora.Stats
	baseMana := sora.Actor.Mana.Max
	bare, err := s.Inventory.LeveledItemAtLevel("kingdom_key", 1)
	require.NoError(t, err)
	base.Atk -= bare.Atk
	base.MPMax -= bare.MP
	baseMana -= bare.MP

	require.NoError(t, s.Inventory.AddItem("kingdom_key"))
	require.NoError(t, s.Inventory.AddMaterial("bright_shard", 1))
	_, err = s.Inventory.LevelUpItem("kingdom_key")
	require.NoError(t, err)
	require.Equal(t, 2, s.Inventory.ItemLevel("kingdom_key"))
	require.NoError(t, c.Save(ctx, s))

	got, err := c.Load(ctx, "slot1")
	require.NoError(t, err)
	require.NotNil(t, got)
	loaded := got.Actors[0]
	require.NotNil(t, loaded.Actor.Equipment.Keyblade)
	assert.Equal(t, 1, loaded.Actor.Equipment.Keyblade.Level)
	assert.Equal(t, bare, loaded.Actor.Equipment.Keyblade.Item)

	require.NoError(t, got.Inventory.UnequipSlot(loaded, catalog.SlotKeyblade))
	assert.Equal(t, base, loaded.Stats)
	assert.Equal(t, baseMana, loaded.Actor.Mana.Max)

	require.NoError(t, got.Inventory.EquipItem(loaded, "kingdom_key"))
	require.NotNil(t, loaded.Actor.Equipment.Keyblade)
	assert.Equal(t, 2, loaded.Actor.Equipment.Keyblade.Level)
	assert.Equal(t, base.Atk+bare.Atk+1, loaded.Stats.Atk)
}

func TestLoad_EquipmentWithoutLevelsUsesStoredLevel(t *testing.T) {
	ctx := context.Background()
	c, store := newCodec(t)
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	require.NoError(t, s.Inventory.SetItemLevel("kingdom_key", 3))
	require.NoError(t, c.Save(ctx, s))

	rewrite(t, store, c.Key("slot1"), func(doc map[string]any) {
		for _, a := range doc["actors"].([]any) {
			delete(a.(map[string]any), "equipment_levels")
		}
	})

	got, err := c.Load(ctx, "slot1")
	require.NoError(t, err)
	require.NotNil(t, got)
	key := got.Actors[0].Actor.Equipment.Keyblade
	require.NotNil(t, key)
	assert.Equal(t, 3, key.Level)
	want, err := got.Inventory.LeveledItem("kingdom_key")
	require.NoError(t, err)
	assert.Equal(t, want, key.Item)
}

func TestLoad_UnknownSpellKeepsID(t *testing.T) {
	ctx := context.Background()
	c, store := newCodec(t)
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, s))

	rewrite(t, store, c.Key("slot1"), func(doc map[string]any) {
		doc["actors"].([]any)[0].(map[string]any)["spell_id"] = "meteor"
	})

	got, err := c.Load(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, "meteor", got.Actors[0].Actor.SpellID)
	assert.Nil(t, got.Actors[0].Actor.Spell)
}

func TestLoad_VersionMismatchWarns(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	c, store := newCodec(t, savegame.WithLogger(zap.New(core)))
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, s))
	rewrite(t, store, c.Key("slot1"), func(doc map[string]any) { doc["version"] = 1 })

	got, err := c.Load(ctx, "slot1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, logs.FilterMessage("save version mismatch").Len())
}

func TestLoad_MinimalRecordUsesDefaults(t *testing.T) {
	ctx := context.Background()
	c, store := newCodec(t)
	require.NoError(t, store.Set(ctx, c.Key("slot1"), `{"version":2,"actors":[{"name":"Kairi","health":{"current":99}}]}`))

	got, err := c.Load(ctx, "slot1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, savegame.DefaultLocationID, got.LocationID)
	assert.Nil(t, got.Summary)
	require.Len(t, got.Actors, 1)
	k := got.Actors[0]
	assert.Equal(t, 5, k.Stats.Atk)
	assert.Equal(t, 10, k.Health.Current, "health is clamped to max")
	assert.Equal(t, 200*time.Millisecond, k.AttackProfile.Cooldown)
	assert.Equal(t, 1, k.AttackProfile.MPGain)
	assert.Equal(t, 100, k.Actor.XPToLevel)
	assert.True(t, got.CreatedAt.IsZero())
}

func TestListSlots_Empty(t *testing.T) {
	c, _ := newCodec(t, savegame.WithMaxSlots(2))
	slots, err := c.ListSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 2)
	for i, s := range slots {
		assert.False(t, s.Exists)
		assert.Equal(t, savegame.SlotID(i+1), s.SlotID)
		assert.Equal(t, "Unknown", s.LocationDisplay)
		assert.True(t, s.UpdatedAt.IsZero())
	}
	assert.Equal(t, "Slot 1", slots[0].Title)
	assert.Equal(t, "Slot 2", slots[1].Title)
}

func TestListSlots_PrefersSummary(t *testing.T) {
	ctx := context.Background()
	c, store := newCodec(t)
	s, err := c.CreateDefaultState("slot2")
	require.NoError(t, err)
	require.NoError(t, s.Inventory.AddMunny(40))
	require.NoError(t, c.Save(ctx, s))

	rewrite(t, store, c.Key("slot2"), func(doc map[string]any) {
		doc["summary"] = map[string]any{"party_names": []any{"Riku"}, "munny": 999}
	})

	slots, err := c.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, savegame.DefaultMaxSlots)
	assert.False(t, slots[0].Exists)
	got := slots[1]
	assert.True(t, got.Exists)
	assert.Equal(t, []string{"Riku"}, got.PartyNames)
	assert.Equal(t, 999, got.Munny)
	assert.Equal(t, "Destiny Islands", got.LocationDisplay)
	assert.Equal(t, fixedNow.UTC().Truncate(time.Second), got.UpdatedAt)
}

func TestListSlots_FallsBackWithoutSummary(t *testing.T) {
	ctx := context.Background()
	c, store := newCodec(t)
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	require.NoError(t, s.Inventory.AddMunny(40))
	s.LocationID = "atlantica"
	require.NoError(t, c.Save(ctx, s))
	rewrite(t, store, c.Key("slot1"), func(doc map[string]any) { delete(doc, "summary") })

	slots, err := c.ListSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sora", "Donald", "Goofy"}, slots[0].PartyNames)
	assert.Equal(t, 40, slots[0].Munny)
	assert.Equal(t, "atlantica", slots[0].LocationDisplay)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newCodec(t)
	s, err := c.CreateDefaultState("slot1")
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, s))
	require.NoError(t, c.Delete(ctx, "slot1"))

	got, err := c.Load(ctx, "slot1")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, c.Delete(ctx, "slot1"))
}

func TestProperty_SaveLoad_PreservesProgress(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		c := savegame.NewCodec(memory.New(), catalog.Default())
		s, err := c.CreateDefaultState("slot1")
		if err != nil {
			rt.Fatal(err)
		}
		munny := rapid.IntRange(0, 1_000_000).Draw(rt, "munny")
		xp := rapid.IntRange(0, 5000).Draw(rt, "xp")
		if err := s.Inventory.AddMunny(munny); err != nil {
			rt.Fatal(err)
		}
		for _, a := range s.Actors {
			a.GainXP(xp)
		}
		if err := c.Save(ctx, s); err != nil {
			rt.Fatal(err)
		}
		got, err := c.Load(ctx, "slot1")
		if err != nil || got == nil {
			rt.Fatalf("load: %v", err)
		}
		if got.Inventory.Munny() != munny {
			rt.Fatalf("munny = %d, want %d", got.Inventory.Munny(), munny)
		}
		for i, a := range s.Actors {
			b := got.Actors[i]
			if a.Stats != b.Stats || a.Actor.Level != b.Actor.Level || a.Actor.XP != b.Actor.XP {
				rt.Fatalf("actor %s changed: %+v -> %+v", a.Name, a.Stats, b.Stats)
			}
		}
	})
}

func TestLocationDisplay(t *testing.T) {
	c, _ := newCodec(t)
	assert.Equal(t, "Unknown", c.LocationDisplay(""))
	assert.Equal(t, "nowhere", c.LocationDisplay("nowhere"))
	assert.False(t, strings.Contains(c.LocationDisplay("destiny_islands_beach"), "_"))
}
