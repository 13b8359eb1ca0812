package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClockAdvance tests forward advancement and the zero-advance no-op.
func TestClockAdvance(t *testing.T) {
	c := NewClock(1_700_000_000)
	assert.EqualValues(t, 1_700_000_000, c.Now())

	c.Advance(60)
	assert.EqualValues(t, 1_700_000_060, c.Now())

	// Advancing by zero must not move the clock
	c.Advance(0)
	assert.EqualValues(t, 1_700_000_060, c.Now())
}

// TestClockAdvanceTo tests that AdvanceTo never moves the clock backwards.
func TestClockAdvanceTo(t *testing.T) {
	c := NewClock(1000)

	// A future target moves the clock
	c.AdvanceTo(2000)
	assert.EqualValues(t, 2000, c.Now())

	// A past or present target is ignored
	c.AdvanceTo(1500)
	assert.EqualValues(t, 2000, c.Now())
	c.AdvanceTo(2000)
	assert.EqualValues(t, 2000, c.Now())
}
