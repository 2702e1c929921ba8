package party_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/game/inventory"
	"github.com/cory-johannsen/incremental/internal/game/party"
)

func TestBuild_DefaultParty(t *testing.T) {
	cat := catalog.Default()
	inv := inventory.New(cat, inventory.DefaultCapacity())

	members, err := party.Build(cat, inv)
	require.NoError(t, err)
	require.Len(t, members, 3)

	sora, donald, goofy := members[0], members[1], members[2]
	assert.Equal(t, "Sora", sora.Name)
	assert.Equal(t, 200*time.Millisecond, sora.AttackProfile.Cooldown)
	assert.Equal(t, 300*time.Millisecond, donald.AttackProfile.Cooldown)
	assert.Equal(t, 400*time.Millisecond, goofy.AttackProfile.Cooldown)

	// Base atk plus keyblade bonus; spell sets mp pool before the keyblade mp.
	assert.Equal(t, 6, sora.Stats.Atk)
	assert.Equal(t, "fire", sora.Actor.SpellID)
	assert.Equal(t, 18, sora.Actor.MagicDamage)
	assert.Equal(t, 11, sora.Actor.Mana.Max)
	assert.Equal(t, 11, sora.Stats.MPMax)
	require.NotNil(t, sora.Actor.Equipment.Keyblade)
	assert.Equal(t, "kingdom_key", sora.Actor.Equipment.Keyblade.ItemID)

	assert.Equal(t, 6, donald.Stats.Atk)
	assert.Equal(t, 16, donald.Actor.Mana.Max)

	assert.Equal(t, 4, goofy.Stats.Atk)
	assert.Equal(t, 2, goofy.Stats.Defense)
	assert.Equal(t, 12, goofy.Actor.Mana.Max)

	assert.Empty(t, inv.ItemList(), "loadout items are equipped, not stored")
	assert.Equal(t, "assets/portraits/sora.png", sora.PortraitPath)
}

func TestBuild_UnknownSpell(t *testing.T) {
	c := catalog.New()
	c.AddPartyMember(catalog.PartyMember{Name: "Riku", SpellID: "dark_aura"})
	inv := inventory.New(c, inventory.DefaultCapacity())

	_, err := party.Build(c, inv)
	require.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Contains(t, err.Error(), "Riku")
}

func TestBuild_LoadoutWithoutCapacity(t *testing.T) {
	c := catalog.New()
	require.NoError(t, c.RegisterItem(catalog.Item{ID: "oathkeeper", Name: "Oathkeeper", Slot: catalog.SlotKeyblade, Atk: 3}))
	c.AddPartyMember(catalog.PartyMember{Name: "Roxas", Loadout: []string{"oathkeeper"}})
	inv := inventory.New(c, map[catalog.Slot]int{})

	_, err := party.Build(c, inv)
	var capErr *inventory.CapacityError
	require.ErrorAs(t, err, &capErr)
}
