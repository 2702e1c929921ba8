// Package combat provides the fixed-step simulation driver and the per-tick
// attack resolution between a party and a single enemy.
package combat

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTickLength is returned when a tick length is not positive.
var ErrInvalidTickLength = errors.New("combat: tick length must be > 0")

// TickController converts an irregular stream of frame deltas into whole
// fixed-length ticks.
//
// Invariant: across any sequence of Update calls whose positive deltas sum to
// T, onTick has been invoked exactly floor(T/L) times in total.
//
// Not safe for concurrent use.
type TickController struct {
	length time.Duration
	accum  time.Duration
}

// NewTickController returns a controller emitting ticks of length.
//
// Precondition: length > 0.
// Postcondition: Returns a controller with an empty accumulator, or an error
// wrapping ErrInvalidTickLength.
func NewTickController(length time.Duration) (*TickController, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTickLength, length)
	}
	return &TickController{length: length}, nil
}

// TickLength returns the fixed tick length L.
func (t *TickController) TickLength() time.Duration { return t.length }

// Pending returns the accumulated time not yet emitted as a tick.
//
// Postcondition: 0 <= Pending() < TickLength().
func (t *TickController) Pending() time.Duration { return t.accum }

// Update adds dt to the accumulator and calls onTick(L) once per whole tick.
// Non-positive dt is ignored. Returns the number of ticks emitted.
func (t *TickController) Update(dt time.Duration, onTick func(time.Duration)) int {
	if dt > 0 {
		t.accum += dt
	}
	n := 0
	for t.accum >= t.length {
		onTick(t.length)
		t.accum -= t.length
		n++
	}
	return n
}

// Reset discards any accumulated partial tick.
func (t *TickController) Reset() { t.accum = 0 }

func (t *TickController) String() string {
	return fmt.Sprintf("TickController(dt=%s, accum=%s)", t.length, t.accum)
}
