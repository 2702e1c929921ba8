package savegame

import (
	"context"
	"strconv"
	"time"
)

// SlotInfo describes one save slot for a slot picker.
type SlotInfo struct {
	SlotID string
	Title  string
	Exists bool
	// UpdatedAt is zero for empty slots.
	UpdatedAt       time.Time
	LocationID      string
	LocationDisplay string
	PartyNames      []string
	Munny           int
}

// ListSlots reports slot1 through slotN, where N is the configured maximum.
// Party names and munny come from the stored summary when the record has one
// and are recomputed from the loaded state otherwise.
//
// Postcondition: returns exactly N entries in slot order, or the first
// storage error.
func (c *Codec) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	out := make([]SlotInfo, 0, c.maxSlots)
	for i := 1; i <= c.maxSlots; i++ {
		id := SlotID(i)
		info := SlotInfo{SlotID: id, Title: "Slot " + strconv.Itoa(i), PartyNames: []string{}}

		state, err := c.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if state != nil {
			info.Exists = true
			info.UpdatedAt = state.UpdatedAt
			info.LocationID = state.LocationID
			summary := state.Summary
			if summary == nil {
				summary = summarize(state)
			}
			info.PartyNames = summary.PartyNames
			info.Munny = summary.Munny
		}
		info.LocationDisplay = c.LocationDisplay(info.LocationID)
		out = append(out, info)
	}
	return out, nil
}

// LocationDisplay returns the title of locationID, "Unknown" when it is empty,
// or the raw id when the catalog does not know it.
func (c *Codec) LocationDisplay(locationID string) string {
	if locationID == "" {
		return "Unknown"
	}
	loc, err := c.content.Location(locationID)
	if err != nil {
		return locationID
	}
	return loc.Title
}
