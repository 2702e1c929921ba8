// Package inventory provides slot-capacity item storage, equipment with
// additive stat deltas, the munny and material ledgers, item leveling by
// duplicate consumption, and material synthesis.
//
// Every mutating operation that returns an error leaves the inventory and any
// actor it touches exactly as they were before the call.
package inventory

import (
	"maps"
	"slices"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
	"github.com/cory-johannsen/incremental/internal/game/character"
)

// Content is the catalog view the inventory depends on.
type Content interface {
	Item(id string) (catalog.Item, error)
	Material(id string) (catalog.Material, error)
	LevelTable(itemID string) catalog.LevelTable
	Recipe(id string) (catalog.Recipe, error)
}

// DefaultCapacity returns the per-slot capacity of a new game.
func DefaultCapacity() map[catalog.Slot]int {
	return map[catalog.Slot]int{
		catalog.SlotKeyblade:  3,
		catalog.SlotArmor:     10,
		catalog.SlotAccessory: 10,
	}
}

// Inventory holds unequipped items, currency, materials and item levels.
//
// Invariant: itemList is the same multiset as the union of itemsBySlot.
// Invariant: materials and itemLevels never hold zero or default entries.
//
// Not safe for concurrent use.
type Inventory struct {
	content     Content
	capacity    map[catalog.Slot]int
	itemsBySlot map[catalog.Slot][]string
	itemList    []string
	munny       int
	materials   map[string]int
	itemLevels  map[string]int
}

// New returns an empty inventory with the given per-slot capacity. Slots
// absent from capacity have capacity 0.
//
// Precondition: content must be non-nil.
func New(content Content, capacity map[catalog.Slot]int) *Inventory {
	inv := &Inventory{
		content:     content,
		capacity:    make(map[catalog.Slot]int, len(catalog.Slots)),
		itemsBySlot: make(map[catalog.Slot][]string, len(catalog.Slots)),
		materials:   make(map[string]int),
		itemLevels:  make(map[string]int),
	}
	for slot, n := range capacity {
		inv.capacity[slot] = max(0, n)
	}
	return inv
}

// Capacity returns the unequipped storage capacity of slot.
func (inv *Inventory) Capacity(slot catalog.Slot) int { return inv.capacity[slot] }

// SetCapacity changes the capacity of slot. Items already stored are kept
// even if they exceed the new capacity.
func (inv *Inventory) SetCapacity(slot catalog.Slot, n int) {
	inv.capacity[slot] = max(0, n)
}

// FreeSlots returns how many more items slot can store, never negative.
func (inv *Inventory) FreeSlots(slot catalog.Slot) int {
	return max(0, inv.capacity[slot]-len(inv.itemsBySlot[slot]))
}

func (inv *Inventory) full(slot catalog.Slot) bool {
	return len(inv.itemsBySlot[slot]) >= inv.capacity[slot]
}

// Items returns a copy of the unequipped item ids stored in slot.
func (inv *Inventory) Items(slot catalog.Slot) []string {
	return slices.Clone(inv.itemsBySlot[slot])
}

// ItemList returns a copy of every unequipped item id in insertion order.
func (inv *Inventory) ItemList() []string {
	return slices.Clone(inv.itemList)
}

// Count returns the number of unequipped copies of id.
func (inv *Inventory) Count(id string) int {
	n := 0
	for _, entry := range inv.itemList {
		if entry == id {
			n++
		}
	}
	return n
}

// AddItem stores one copy of id.
//
// Postcondition: on success id is appended to its slot and to the flat list;
// returns a *catalog.LookupError for unknown ids and a *CapacityError when
// the slot is full.
func (inv *Inventory) AddItem(id string) error {
	item, err := inv.LeveledItem(id)
	if err != nil {
		return err
	}
	if inv.full(item.Slot) {
		return &CapacityError{Slot: item.Slot, ItemID: id}
	}
	inv.store(item.Slot, id)
	return nil
}

func (inv *Inventory) store(slot catalog.Slot, id string) {
	inv.itemsBySlot[slot] = append(inv.itemsBySlot[slot], id)
	inv.itemList = append(inv.itemList, id)
}

// take removes up to n copies of id from slot storage and the flat list.
func (inv *Inventory) take(slot catalog.Slot, id string, n int) {
	for removed := 0; removed < n; removed++ {
		i := slices.Index(inv.itemsBySlot[slot], id)
		if i < 0 {
			return
		}
		inv.itemsBySlot[slot] = slices.Delete(inv.itemsBySlot[slot], i, i+1)
		if j := slices.Index(inv.itemList, id); j >= 0 {
			inv.itemList = slices.Delete(inv.itemList, j, j+1)
		}
	}
}

// EquipItem moves one stored copy of id onto actor, returning any item the
// actor had in that slot to storage.
//
// Precondition: actor must be non-nil.
// Postcondition: on success the previous item's deltas are removed, the new
// item's deltas are added and the equipment entry is replaced. Returns
// character.ErrNotActor for enemies, a *catalog.LookupError when id is not in
// storage, and a *CapacityError when the replaced item has nowhere to go.
func (inv *Inventory) EquipItem(actor *character.Combatant, id string) error {
	if actor.Actor == nil {
		return character.ErrNotActor
	}
	level := inv.ItemLevel(id)
	item, err := inv.LeveledItemAtLevel(id, level)
	if err != nil {
		return err
	}
	slot := item.Slot
	if !slices.Contains(inv.itemsBySlot[slot], id) {
		return &catalog.LookupError{Kind: kindStoredItem, ID: id}
	}

	equipment := &actor.Actor.Equipment
	prev := equipment.Get(slot)
	// The incoming copy frees one slot before the previous item is stored.
	if prev != nil && len(inv.itemsBySlot[slot])-1 >= inv.capacity[slot] {
		return &CapacityError{Slot: slot, ItemID: prev.ItemID}
	}

	inv.take(slot, id, 1)
	if prev != nil {
		applyDeltas(actor, prev.Item, -1)
		inv.store(slot, prev.ItemID)
	}
	applyDeltas(actor, item, 1)
	equipment.Set(slot, &character.EquippedItem{ItemID: id, Level: level, Item: item})
	return nil
}

// UnequipSlot returns the item equipped in slot to storage. It is a no-op
// when nothing is equipped there.
//
// Postcondition: on success the item's deltas are removed exactly as they were
// applied. Returns a *CapacityError when storage for slot is full.
func (inv *Inventory) UnequipSlot(actor *character.Combatant, slot catalog.Slot) error {
	if actor.Actor == nil {
		return character.ErrNotActor
	}
	if !slot.Valid() {
		return &catalog.LookupError{Kind: catalog.KindSlot, ID: string(slot)}
	}
	equipment := &actor.Actor.Equipment
	entry := equipment.Get(slot)
	if entry == nil {
		return nil
	}
	if inv.full(slot) {
		return &CapacityError{Slot: slot, ItemID: entry.ItemID}
	}
	equipment.Set(slot, nil)
	inv.store(slot, entry.ItemID)
	applyDeltas(actor, entry.Item, -1)
	return nil
}

func applyDeltas(actor *character.Combatant, item catalog.Item, sign int) {
	actor.Stats.Atk += sign * item.Atk
	actor.Stats.Defense += sign * item.Defense
	actor.Stats.MPMax += sign * item.MP
	actor.Actor.Mana.Max += sign * item.MP
	actor.Actor.Mana.Clamp()
}

// Munny returns the currency balance.
func (inv *Inventory) Munny() int { return inv.munny }

// AddMunny credits n munny.
//
// Postcondition: returns ErrInvalidAmount and changes nothing when n < 0.
func (inv *Inventory) AddMunny(n int) error {
	if n < 0 {
		return ErrInvalidAmount
	}
	inv.munny += n
	return nil
}

// SpendMunny debits n munny.
//
// Postcondition: returns ErrInvalidAmount when n < 0 and an
// *InsufficientResourceError when n exceeds the balance; the balance is
// unchanged on error.
func (inv *Inventory) SpendMunny(n int) error {
	if n < 0 {
		return ErrInvalidAmount
	}
	if n > inv.munny {
		return &InsufficientResourceError{Resource: ResourceMunny, Need: n, Have: inv.munny}
	}
	inv.munny -= n
	return nil
}

// AddMaterial credits amount units of material id.
//
// Precondition: amount > 0, otherwise ErrInvalidAmount.
// Postcondition: returns a *catalog.LookupError for unknown ids.
func (inv *Inventory) AddMaterial(id string, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := inv.content.Material(id); err != nil {
		return err
	}
	inv.materials[id] += amount
	return nil
}

// MaterialCount returns the units held of id; absent ids count as 0.
func (inv *Inventory) MaterialCount(id string) int { return inv.materials[id] }

// Materials returns a copy of the material ledger.
func (inv *Inventory) Materials() map[string]int { return maps.Clone(inv.materials) }

func (inv *Inventory) checkMaterials(costs map[string]int) error {
	for _, id := range slices.Sorted(maps.Keys(costs)) {
		need := costs[id]
		if need > 0 && inv.materials[id] < need {
			return &InsufficientResourceError{Resource: ResourceMaterial, ID: id, Need: need, Have: inv.materials[id]}
		}
	}
	return nil
}

// SpendMaterials debits every cost, or none of them.
//
// Postcondition: on an *InsufficientResourceError no material is deducted;
// on success entries reaching zero are deleted.
func (inv *Inventory) SpendMaterials(costs map[string]int) error {
	if err := inv.checkMaterials(costs); err != nil {
		return err
	}
	for id, need := range costs {
		if need <= 0 {
			continue
		}
		inv.materials[id] -= need
		if inv.materials[id] <= 0 {
			delete(inv.materials, id)
		}
	}
	return nil
}
