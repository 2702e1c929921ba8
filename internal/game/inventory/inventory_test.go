package inventory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/game/character"
	"github.com/cory-johannsen/incremental/internal/game/inventory"
)

func newInventory() *inventory.Inventory {
	return inventory.New(catalog.Default(), inventory.DefaultCapacity())
}

func newActor() *character.Combatant {
	return character.NewActor(character.DefaultActorParams("Sora"))
}

type actorState struct {
	Stats     character.Stats
	Mana      character.Mana
	Equipment character.Equipment
}

func stateOf(a *character.Combatant) actorState {
	eq := a.Actor.Equipment
	clone := func(e *character.EquippedItem) *character.EquippedItem {
		if e == nil {
			return nil
		}
		c := *e
		return &c
	}
	return actorState{
		Stats: a.Stats,
		Mana:  a.Actor.Mana,
		Equipment: character.Equipment{
			Keyblade:  clone(eq.Keyblade),
			Armor:     clone(eq.Armor),
			Accessory: clone(eq.Accessory),
		},
	}
}

func TestAddItem_StoresInSlotAndList(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddItem("kingdom_key"))
	require.NoError(t, inv.AddItem("heros_crest"))
	require.NoError(t, inv.AddItem("kingdom_key"))

	assert.Equal(t, []string{"kingdom_key", "kingdom_key"}, inv.Items(catalog.SlotKeyblade))
	assert.Equal(t, []string{"heros_crest"}, inv.Items(catalog.SlotArmor))
	assert.Equal(t, []string{"kingdom_key", "heros_crest", "kingdom_key"}, inv.ItemList())
	assert.Equal(t, 2, inv.Count("kingdom_key"))
	assert.Equal(t, 1, inv.FreeSlots(catalog.SlotKeyblade))
}

func TestAddItem_UnknownID(t *testing.T) {
	inv := newInventory()
	err := inv.AddItem("excalibur")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Empty(t, inv.ItemList())
}

func TestAddItem_FullSlot(t *testing.T) {
	inv := newInventory()
	for i := 0; i < 3; i++ {
		require.NoError(t, inv.AddItem("kingdom_key"))
	}
	err := inv.AddItem("mages_staff")
	var capErr *inventory.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, catalog.SlotKeyblade, capErr.Slot)
	assert.Len(t, inv.ItemList(), 3)
}

func TestEquipItem_AppliesDeltas(t *testing.T) {
	inv := newInventory()
	a := newActor()
	require.NoError(t, inv.AddItem("mages_staff"))

	require.NoError(t, inv.EquipItem(a, "mages_staff"))

	assert.Equal(t, 7, a.Stats.Atk)
	assert.Equal(t, 12, a.Stats.MPMax)
	assert.Equal(t, 12, a.Actor.Mana.Max)
	require.NotNil(t, a.Actor.Equipment.Keyblade)
	assert.Equal(t, "mages_staff", a.Actor.Equipment.Keyblade.ItemID)
	assert.Empty(t, inv.ItemList())
}

func TestEquipItem_ReplacesPrevious(t *testing.T) {
	inv := newInventory()
	a := newActor()
	require.NoError(t, inv.AddItem("kingdom_key"))
	require.NoError(t, inv.AddItem("knights_shield"))
	require.NoError(t, inv.EquipItem(a, "kingdom_key"))

	require.NoError(t, inv.EquipItem(a, "knights_shield"))

	assert.Equal(t, "knights_shield", a.Actor.Equipment.Keyblade.ItemID)
	assert.Equal(t, []string{"kingdom_key"}, inv.Items(catalog.SlotKeyblade))
	assert.Equal(t, []string{"kingdom_key"}, inv.ItemList())
	assert.Equal(t, 6, a.Stats.Atk)
	assert.Equal(t, 2, a.Stats.Defense)
	assert.Equal(t, 10, a.Stats.MPMax)
}

func TestEquipItem_NotInStorage(t *testing.T) {
	inv := newInventory()
	a := newActor()
	err := inv.EquipItem(a, "kingdom_key")
	var le *catalog.LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "kingdom_key", le.ID)
	assert.Nil(t, a.Actor.Equipment.Keyblade)
}

func TestEquipItem_EnemyRejected(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddItem("kingdom_key"))
	e := character.NewEnemy(character.DefaultEnemyParams())
	assert.ErrorIs(t, inv.EquipItem(e, "kingdom_key"), character.ErrNotActor)
	assert.Equal(t, 1, inv.Count("kingdom_key"))
}

func TestEquipItem_FullStorageIsAtomic(t *testing.T) {
	inv := newInventory()
	a := newActor()
	require.NoError(t, inv.AddItem("kingdom_key"))
	require.NoError(t, inv.EquipItem(a, "kingdom_key"))
	require.NoError(t, inv.AddItem("mages_staff"))
	require.NoError(t, inv.AddItem("knights_shield"))
	inv.SetCapacity(catalog.SlotKeyblade, 1)

	invBefore := inv.Snapshot()
	actorBefore := stateOf(a)

	err := inv.EquipItem(a, "mages_staff")

	var capErr *inventory.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, catalog.SlotKeyblade, capErr.Slot)
	assert.Equal(t, "kingdom_key", capErr.ItemID)
	assert.Equal(t, invBefore, inv.Snapshot())
	assert.Equal(t, actorBefore, stateOf(a))
}

func TestEquipItem_SwapIntoExactlyFullSlot(t *testing.T) {
	inv := newInventory()
	inv.SetCapacity(catalog.SlotKeyblade, 1)
	a := newActor()
	require.NoError(t, inv.AddItem("kingdom_key"))
	require.NoError(t, inv.EquipItem(a, "kingdom_key"))
	require.NoError(t, inv.AddItem("mages_staff"))

	require.NoError(t, inv.EquipItem(a, "mages_staff"))
	assert.Equal(t, []string{"kingdom_key"}, inv.Items(catalog.SlotKeyblade))
}

func TestUnequipSlot_RestoresStats(t *testing.T) {
	inv := newInventory()
	a := newActor()
	before := stateOf(a)
	require.NoError(t, inv.AddItem("knights_shield"))
	require.NoError(t, inv.EquipItem(a, "knights_shield"))

	require.NoError(t, inv.UnequipSlot(a, catalog.SlotKeyblade))

	assert.Equal(t, before, stateOf(a))
	assert.Equal(t, []string{"knights_shield"}, inv.ItemList())
}

func TestUnequipSlot_EmptyIsNoop(t *testing.T) {
	inv := newInventory()
	a := newActor()
	assert.NoError(t, inv.UnequipSlot(a, catalog.SlotArmor))
}

func TestUnequipSlot_InvalidSlot(t *testing.T) {
	inv := newInventory()
	assert.ErrorIs(t, inv.UnequipSlot(newActor(), catalog.Slot("head")), catalog.ErrNotFound)
}

func TestUnequipSlot_FullStorageIsAtomic(t *testing.T) {
	inv := newInventory()
	inv.SetCapacity(catalog.SlotArmor, 1)
	a := newActor()
	require.NoError(t, inv.AddItem("heros_crest"))
	require.NoError(t, inv.EquipItem(a, "heros_crest"))
	require.NoError(t, inv.AddItem("champion_belt"))

	invBefore := inv.Snapshot()
	actorBefore := stateOf(a)

	err := inv.UnequipSlot(a, catalog.SlotArmor)
	var capErr *inventory.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, invBefore, inv.Snapshot())
	assert.Equal(t, actorBefore, stateOf(a))
}

func TestMunny(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddMunny(30))
	assert.ErrorIs(t, inv.AddMunny(-1), inventory.ErrInvalidAmount)
	require.NoError(t, inv.SpendMunny(10))
	assert.Equal(t, 20, inv.Munny())

	err := inv.SpendMunny(21)
	var ire *inventory.InsufficientResourceError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, inventory.ResourceMunny, ire.Resource)
	assert.Equal(t, 20, inv.Munny())
	assert.ErrorIs(t, inv.SpendMunny(-5), inventory.ErrInvalidAmount)
}

func TestMaterials_AddAndSpend(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddMaterial("dark_shard", 3))
	require.NoError(t, inv.AddMaterial("bright_shard", 1))
	assert.ErrorIs(t, inv.AddMaterial("dark_shard", 0), inventory.ErrInvalidAmount)
	assert.ErrorIs(t, inv.AddMaterial("moon_rock", 1), catalog.ErrNotFound)

	require.NoError(t, inv.SpendMaterials(map[string]int{"dark_shard": 1, "bright_shard": 1}))
	assert.Equal(t, map[string]int{"dark_shard": 2}, inv.Materials())
	assert.Equal(t, 0, inv.MaterialCount("bright_shard"))
}

func TestMaterials_SpendIsAllOrNothing(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddMaterial("dark_shard", 3))
	require.NoError(t, inv.AddMaterial("bright_shard", 1))

	err := inv.SpendMaterials(map[string]int{"dark_shard": 2, "bright_shard": 2})

	var ire *inventory.InsufficientResourceError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, "bright_shard", ire.ID)
	assert.Equal(t, 2, ire.Need)
	assert.Equal(t, 1, ire.Have)
	assert.Equal(t, map[string]int{"dark_shard": 3, "bright_shard": 1}, inv.Materials())
}

func TestLeveledItemAtLevel_OnlyPositiveAttributesGrow(t *testing.T) {
	inv := newInventory()
	item, err := inv.LeveledItemAtLevel("kingdom_key", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Atk)
	assert.Equal(t, 0, item.Defense)
	assert.Equal(t, 4, item.MP)

	item, err = inv.LeveledItemAtLevel("heros_crest", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Defense)
}

func TestLevelUpItem_Success(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddItem("kingdom_key"))
	require.NoError(t, inv.AddItem("kingdom_key"))
	require.NoError(t, inv.AddMaterial("bright_shard", 2))
	require.True(t, inv.CanLevelItem("kingdom_key"))

	req, err := inv.LevelUpItem("kingdom_key")

	require.NoError(t, err)
	assert.Equal(t, 2, req.Level)
	assert.Equal(t, 2, inv.ItemLevel("kingdom_key"))
	assert.Equal(t, 1, inv.Count("kingdom_key"))
	assert.Equal(t, 1, inv.MaterialCount("bright_shard"))
	assert.Equal(t, map[string]int{"kingdom_key": 2}, inv.ItemLevels())

	item, err := inv.LeveledItem("kingdom_key")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Atk)
}

func TestLevelUpItem_InsufficientDuplicates(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddMaterial("bright_shard", 5))
	before := inv.Snapshot()

	_, err := inv.LevelUpItem("kingdom_key")

	var ire *inventory.InsufficientResourceError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, inventory.ResourceDuplicate, ire.Resource)
	assert.Equal(t, before, inv.Snapshot())
}

func TestLevelUpItem_InsufficientMaterials(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddItem("mages_staff"))
	require.NoError(t, inv.AddItem("mages_staff"))
	require.NoError(t, inv.SetItemLevel("mages_staff", 2))
	require.NoError(t, inv.AddMaterial("bright_shard", 1))
	require.NoError(t, inv.AddMaterial("dark_shard", 1))
	before := inv.Snapshot()

	_, err := inv.LevelUpItem("mages_staff")

	var ire *inventory.InsufficientResourceError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, inventory.ResourceMaterial, ire.Resource)
	assert.Equal(t, "mythril_fragment", ire.ID)
	assert.Equal(t, before, inv.Snapshot())
	assert.Equal(t, 2, inv.ItemLevel("mages_staff"))
}

func TestLevelUpItem_MaxLevel(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.SetItemLevel("elven_bandana", 5))
	_, ok := inv.NextLevelRequirement("elven_bandana")
	assert.False(t, ok)
	_, err := inv.LevelUpItem("elven_bandana")
	assert.ErrorIs(t, err, inventory.ErrMaxLevel)
}

func TestLevelUpItem_UnknownItem(t *testing.T) {
	_, err := newInventory().LevelUpItem("excalibur")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSetItemLevel(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.SetItemLevel("heros_crest", 3))
	require.NoError(t, inv.SetItemLevel("heros_crest", 1))
	assert.Empty(t, inv.ItemLevels())
	assert.ErrorIs(t, inv.SetItemLevel("heros_crest", 0), inventory.ErrInvalidAmount)
}

func TestSynthesize(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddMaterial("dark_shard", 2))
	require.NoError(t, inv.AddMaterial("bright_shard", 1))

	recipe, err := inv.Synthesize("bandana_upgrade")

	require.NoError(t, err)
	assert.Equal(t, "Warded Bandana", recipe.Name)
	assert.Equal(t, []string{"elven_bandana"}, inv.Items(catalog.SlotAccessory))
	assert.Empty(t, inv.Materials())
}

func TestSynthesize_FailuresChangeNothing(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddMaterial("dark_shard", 1))
	require.NoError(t, inv.AddMaterial("mythril_fragment", 2))
	inv.SetCapacity(catalog.SlotArmor, 0)
	before := inv.Snapshot()

	_, err := inv.Synthesize("champion_belt")
	var capErr *inventory.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, before, inv.Snapshot())

	_, err = inv.Synthesize("bandana_upgrade")
	var ire *inventory.InsufficientResourceError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, before, inv.Snapshot())

	_, err = inv.Synthesize("potion")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRestore_RoundTripsSnapshot(t *testing.T) {
	inv := newInventory()
	require.NoError(t, inv.AddItem("kingdom_key"))
	require.NoError(t, inv.AddItem("elven_bandana"))
	require.NoError(t, inv.AddMunny(42))
	require.NoError(t, inv.AddMaterial("dark_shard", 4))
	require.NoError(t, inv.SetItemLevel("kingdom_key", 3))

	restored := inventory.Restore(catalog.Default(), inv.Snapshot())

	assert.Equal(t, inv.Snapshot(), restored.Snapshot())
}

func TestRestore_RebuildsInconsistentList(t *testing.T) {
	snap := inventory.Snapshot{
		Capacity:    inventory.DefaultCapacity(),
		ItemsBySlot: map[catalog.Slot][]string{catalog.SlotArmor: {"heros_crest"}},
		ItemList:    []string{"kingdom_key"},
		Munny:       -5,
		Materials:   map[string]int{"dark_shard": 0},
		ItemLevels:  map[string]int{"heros_crest": 1},
	}
	inv := inventory.Restore(catalog.Default(), snap)
	assert.Equal(t, []string{"heros_crest"}, inv.ItemList())
	assert.Equal(t, 0, inv.Munny())
	assert.Empty(t, inv.Materials())
	assert.Empty(t, inv.ItemLevels())
}

func TestProperty_EquipUnequipRoundTrip(t *testing.T) {
	items := catalog.Default().ItemIDs()
	rapid.Check(t, func(rt *rapid.T) {
		inv := newInventory()
		a := newActor()
		a.Actor.Mana.Current = rapid.IntRange(0, 10).Draw(rt, "mana")
		id := rapid.SampledFrom(items).Draw(rt, "item")
		level := rapid.IntRange(1, 5).Draw(rt, "level")
		require.NoError(rt, inv.SetItemLevel(id, level))
		require.NoError(rt, inv.AddItem(id))
		item, err := catalog.Default().Item(id)
		require.NoError(rt, err)

		before := stateOf(a)
		require.NoError(rt, inv.EquipItem(a, id))
		require.NoError(rt, inv.UnequipSlot(a, item.Slot))

		assert.Equal(rt, before, stateOf(a))
		assert.Equal(rt, []string{id}, inv.ItemList())
	})
}

func TestProperty_ListMatchesSlots(t *testing.T) {
	items := catalog.Default().ItemIDs()
	rapid.Check(t, func(rt *rapid.T) {
		inv := newInventory()
		a := newActor()
		ops := rapid.SliceOfN(rapid.SampledFrom(items), 0, 30).Draw(rt, "ops")
		for i, id := range ops {
			switch i % 3 {
			case 0, 1:
				_ = inv.AddItem(id)
			case 2:
				_ = inv.EquipItem(a, id)
			}
		}
		var union []string
		for _, slot := range catalog.Slots {
			assert.LessOrEqual(rt, len(inv.Items(slot)), inv.Capacity(slot))
			union = append(union, inv.Items(slot)...)
		}
		assert.ElementsMatch(rt, union, inv.ItemList())
	})
}
