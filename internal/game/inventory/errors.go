package inventory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/incremental/internal/game/catalog"
)

// ErrMaxLevel is returned when levelling an item already at its maximum level.
var ErrMaxLevel = errors.New("inventory: item is already at max level")

// ErrInvalidAmount is returned for negative munny or non-positive material amounts.
var ErrInvalidAmount = errors.New("inventory: invalid amount")

// CapacityError reports that a slot's unequipped storage is full.
type CapacityError struct {
	Slot   catalog.Slot
	ItemID string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("inventory: no free %s slots for item %q", e.Slot, e.ItemID)
}

// Resource kinds reported by InsufficientResourceError.
const (
	ResourceMunny     = "munny"
	ResourceMaterial  = "material"
	ResourceDuplicate = "duplicate item"
)

// InsufficientResourceError reports a munny, material or duplicate shortfall.
type InsufficientResourceError struct {
	Resource string
	ID       string
	Need     int
	Have     int
}

func (e *InsufficientResourceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("inventory: insufficient %s: need %d, have %d", e.Resource, e.Need, e.Have)
	}
	return fmt.Sprintf("inventory: insufficient %s %q: need %d, have %d", e.Resource, e.ID, e.Need, e.Have)
}

// kindStoredItem is the LookupError kind for ids absent from unequipped storage.
const kindStoredItem = "stored item"
