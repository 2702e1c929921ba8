// Package character defines the combatant model shared by party members and
// enemies: stat blocks, attack timing, leveling and enemy level scaling.
package character

import "time"

// Stats holds the integer attributes of a combatant.
type Stats struct {
	MaxHP   int
	Atk     int
	Defense int
	Speed   int
	MPMax   int
}

// Health is a current/max hit point pair.
//
// Invariant: 0 <= Current <= Max after every Clamp.
type Health struct {
	Current int
	Max     int
}

// Clamp restores 0 <= Current <= Max.
func (h *Health) Clamp() {
	if h.Current > h.Max {
		h.Current = h.Max
	}
	if h.Current < 0 {
		h.Current = 0
	}
}

// IsDead reports whether Current has reached zero.
func (h Health) IsDead() bool { return h.Current <= 0 }

// Heal restores Current to Max.
func (h *Health) Heal() { h.Current = h.Max }

// Mana is a current/max mana pair. A zero Max means no mana pool.
//
// Invariant: 0 <= Current <= Max after every Clamp.
type Mana struct {
	Current int
	Max     int
}

// Clamp restores 0 <= Current <= Max.
func (m *Mana) Clamp() {
	if m.Current > m.Max {
		m.Current = m.Max
	}
	if m.Current < 0 {
		m.Current = 0
	}
}

// Full reports whether Current has reached Max.
func (m Mana) Full() bool { return m.Current >= m.Max }

// AttackProfile configures how often a combatant attacks and how much mana
// each attack generates.
type AttackProfile struct {
	Cooldown time.Duration
	MPGain   int
}

// AttackState accumulates simulated time since the last attack.
//
// Invariant: Elapsed >= 0.
type AttackState struct {
	Elapsed time.Duration
}

// Advance adds dt to the accumulator. Negative dt is ignored.
func (s *AttackState) Advance(dt time.Duration) {
	if dt > 0 {
		s.Elapsed += dt
	}
}

// Ready reports whether at least cooldown has elapsed.
func (s AttackState) Ready(cooldown time.Duration) bool {
	return s.Elapsed >= cooldown
}

// Reset zeroes the accumulator.
func (s *AttackState) Reset() { s.Elapsed = 0 }
