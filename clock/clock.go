// Package clock provides the simulated monotonic timestamp a fuzzing sequence runs against. The clock is the only
// notion of time in the harness: the vault under test reads it, while only the sequence driver and its handlers
// hold a reference capable of advancing it.
package clock

// Reader is the read-only view of a Clock handed to components which must observe time but never move it.
type Reader interface {
	// Now returns the current simulated unix timestamp, in seconds.
	Now() uint64
}

// Clock is a simulated monotonic clock. It only ever moves forward.
type Clock struct {
	// now is the current simulated unix timestamp, in seconds.
	now uint64
}

// NewClock creates a Clock starting at the provided unix timestamp.
func NewClock(start uint64) *Clock {
	return &Clock{now: start}
}

// Now returns the current simulated unix timestamp, in seconds.
func (c *Clock) Now() uint64 {
	return c.now
}

// Advance moves the clock forward by the provided number of seconds. Advancing by zero is a no-op.
func (c *Clock) Advance(seconds uint64) {
	c.now += seconds
}

// AdvanceTo moves the clock forward to the provided timestamp. If the target is not in the future, the clock is
// left untouched, preserving monotonicity.
func (c *Clock) AdvanceTo(timestamp uint64) {
	if timestamp > c.now {
		c.now = timestamp
	}
}
