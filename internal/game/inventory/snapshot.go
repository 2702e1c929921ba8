package inventory

import (
	"maps"
	"slices"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
)

// Snapshot is a detached copy of an inventory's persistent state.
type Snapshot struct {
	Capacity    map[catalog.Slot]int
	ItemsBySlot map[catalog.Slot][]string
	ItemList    []string
	Munny       int
	Materials   map[string]int
	// ItemLevels holds only levels above 1.
	ItemLevels map[string]int
}

// Snapshot returns a deep copy of the inventory state. Empty slots are omitted
// from ItemsBySlot.
func (inv *Inventory) Snapshot() Snapshot {
	bySlot := make(map[catalog.Slot][]string, len(inv.itemsBySlot))
	for slot, ids := range inv.itemsBySlot {
		if len(ids) > 0 {
			bySlot[slot] = slices.Clone(ids)
		}
	}
	return Snapshot{
		Capacity:    maps.Clone(inv.capacity),
		ItemsBySlot: bySlot,
		ItemList:    slices.Clone(inv.itemList),
		Munny:       inv.munny,
		Materials:   maps.Clone(inv.materials),
		ItemLevels:  maps.Clone(inv.itemLevels),
	}
}

// Restore builds an inventory from s without capacity or catalog checks, so
// persisted state round-trips even when it exceeds current limits.
//
// Postcondition: negative munny becomes 0; non-positive materials and levels
// <= 1 are dropped; when ItemList disagrees with ItemsBySlot it is rebuilt
// from ItemsBySlot.
func Restore(content Content, s Snapshot) *Inventory {
	inv := New(content, s.Capacity)
	for _, slot := range catalog.Slots {
		if ids := s.ItemsBySlot[slot]; len(ids) > 0 {
			inv.itemsBySlot[slot] = slices.Clone(ids)
		}
	}
	inv.itemList = slices.Clone(s.ItemList)
	if !sameMultiset(inv.itemList, inv.itemsBySlot) {
		inv.itemList = nil
		for _, slot := range catalog.Slots {
			inv.itemList = append(inv.itemList, inv.itemsBySlot[slot]...)
		}
	}
	inv.munny = max(0, s.Munny)
	for id, n := range s.Materials {
		if n > 0 {
			inv.materials[id] = n
		}
	}
	for id, level := range s.ItemLevels {
		if level > 1 {
			inv.itemLevels[id] = level
		}
	}
	return inv
}

func sameMultiset(list []string, bySlot map[catalog.Slot][]string) bool {
	counts := make(map[string]int, len(list))
	for _, id := range list {
		counts[id]++
	}
	total := 0
	for _, ids := range bySlot {
		for _, id := range ids {
			counts[id]--
			total++
		}
	}
	if total != len(list) {
		return false
	}
	for _, n := range counts {
		if n != 0 {
			return false
		}
	}
	return true
}
