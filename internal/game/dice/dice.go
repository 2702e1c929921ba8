// Package dice provides the randomness abstraction used by encounter draws
// and loot rolls, so tests can substitute a deterministic source.
package dice

// Source is the randomness provider for encounter draws and drop chances.
//
// Implementations returned by this package are safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0.0, 1.0).
	Float64() float64
}

// Succeeds reports whether a roll against chance succeeds. A roll fails only
// when the drawn value is strictly greater than chance.
//
// Precondition: src must be non-nil.
// Postcondition: chance >= 1 always succeeds.
func Succeeds(src Source, chance float64) bool {
	return src.Float64() <= chance
}

// Pick returns a uniformly drawn index into a collection of length n.
//
// Precondition: n > 0.
// Postcondition: 0 <= result < n.
func Pick(src Source, n int) int {
	return src.Intn(n)
}
