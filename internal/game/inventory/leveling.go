package inventory

import (
	"fmt"
	"maps"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
)

// ItemLevel returns the stored level of id, 1 when none is stored.
func (inv *Inventory) ItemLevel(id string) int {
	if level, ok := inv.itemLevels[id]; ok && level > 0 {
		return level
	}
	return 1
}

// SetItemLevel records level for id. Level 1 removes the entry.
//
// Precondition: level >= 1, otherwise ErrInvalidAmount.
func (inv *Inventory) SetItemLevel(id string, level int) error {
	if level < 1 {
		return ErrInvalidAmount
	}
	if level == 1 {
		delete(inv.itemLevels, id)
		return nil
	}
	inv.itemLevels[id] = level
	return nil
}

// ItemLevels returns a copy of the stored levels; every value is > 1.
func (inv *Inventory) ItemLevels() map[string]int { return maps.Clone(inv.itemLevels) }

// LeveledItemAtLevel returns the catalog item id with the bonus of level
// applied: level-1 is added to each of atk, defense and mp whose base value is
// already positive.
//
// Postcondition: levels below 1 are treated as 1; returns a
// *catalog.LookupError for unknown ids.
func (inv *Inventory) LeveledItemAtLevel(id string, level int) (catalog.Item, error) {
	item, err := inv.content.Item(id)
	if err != nil {
		return catalog.Item{}, err
	}
	bonus := max(level, 1) - 1
	if bonus == 0 {
		return item, nil
	}
	if item.Atk > 0 {
		item.Atk += bonus
	}
	if item.Defense > 0 {
		item.Defense += bonus
	}
	if item.MP > 0 {
		item.MP += bonus
	}
	return item, nil
}

// LeveledItem returns id at its stored level.
func (inv *Inventory) LeveledItem(id string) (catalog.Item, error) {
	return inv.LeveledItemAtLevel(id, inv.ItemLevel(id))
}

// NextLevelRequirement returns the cost of raising id one level, or false when
// id is at its maximum level.
func (inv *Inventory) NextLevelRequirement(id string) (catalog.LevelRequirement, bool) {
	table := inv.content.LevelTable(id)
	target := inv.ItemLevel(id) + 1
	if target > table.MaxLevel() {
		return catalog.LevelRequirement{}, false
	}
	return table.Requirement(target)
}

// CanLevelItem reports whether LevelUpItem(id) would succeed.
func (inv *Inventory) CanLevelItem(id string) bool {
	return inv.checkLevelUp(id) == nil
}

func (inv *Inventory) checkLevelUp(id string) error {
	if _, err := inv.content.Item(id); err != nil {
		return err
	}
	req, ok := inv.NextLevelRequirement(id)
	if !ok {
		return fmt.Errorf("%w: %q at level %d", ErrMaxLevel, id, inv.ItemLevel(id))
	}
	if have := inv.Count(id); have < req.ItemCost {
		return &InsufficientResourceError{Resource: ResourceDuplicate, ID: id, Need: req.ItemCost, Have: have}
	}
	return inv.checkMaterials(req.Materials)
}

// LevelUpItem consumes duplicates of id and materials to raise its level by
// one.
//
// Postcondition: on success ItemCost stored copies are removed, the materials
// are spent and the stored level is incremented; on any error (ErrMaxLevel,
// *InsufficientResourceError, *catalog.LookupError) nothing changes.
func (inv *Inventory) LevelUpItem(id string) (catalog.LevelRequirement, error) {
	if err := inv.checkLevelUp(id); err != nil {
		return catalog.LevelRequirement{}, err
	}
	req, _ := inv.NextLevelRequirement(id)
	item, _ := inv.content.Item(id)

	inv.take(item.Slot, id, req.ItemCost)
	if err := inv.SpendMaterials(req.Materials); err != nil {
		// checkLevelUp already covered materials.
		panic("inventory: LevelUpItem: materials vanished after check: " + err.Error())
	}
	inv.itemLevels[id] = req.Level
	return req, nil
}

// Synthesize spends a recipe's materials and stores its output item.
//
// Postcondition: returns a *catalog.LookupError for unknown recipes, an
// *InsufficientResourceError when materials are short and a *CapacityError
// when the output has no free slot; nothing changes on error.
func (inv *Inventory) Synthesize(recipeID string) (catalog.Recipe, error) {
	recipe, err := inv.content.Recipe(recipeID)
	if err != nil {
		return catalog.Recipe{}, err
	}
	out, err := inv.LeveledItem(recipe.Output)
	if err != nil {
		return catalog.Recipe{}, err
	}
	if err := inv.checkMaterials(recipe.Materials); err != nil {
		return catalog.Recipe{}, err
	}
	if inv.full(out.Slot) {
		return catalog.Recipe{}, &CapacityError{Slot: out.Slot, ItemID: recipe.Output}
	}
	if err := inv.SpendMaterials(recipe.Materials); err != nil {
		return catalog.Recipe{}, err
	}
	inv.store(out.Slot, recipe.Output)
	return recipe, nil
}
