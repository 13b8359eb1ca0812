package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClampBigIntToRange tests that arbitrary integers wrap into the provided interval via remainder clamping.
func TestClampBigIntToRange(t *testing.T) {
	testCases := []struct {
		value    int64
		min      int64
		max      int64
		expected int64
	}{
		{5, 0, 10, 5},      // in range, untouched
		{11, 0, 10, 0},     // one above max wraps to min
		{-1, 0, 10, 10},    // one below min wraps to max
		{25, 0, 10, 3},     // multiple wrap-arounds
		{7, 7, 7, 7},       // single-element interval
		{100, 50, 60, 55},  // offset interval
		{-100, 50, 60, 54}, // negative into offset interval
	}

	for _, tc := range testCases {
		actual := ClampBigIntToRange(big.NewInt(tc.value), big.NewInt(tc.min), big.NewInt(tc.max))
		assert.EqualValues(t, tc.expected, actual.Int64(), "ClampBigIntToRange(%d, %d, %d)", tc.value, tc.min, tc.max)
	}
}

// TestClampUint64ToRange tests the uint64 variant of remainder clamping, including boundary intervals.
func TestClampUint64ToRange(t *testing.T) {
	assert.EqualValues(t, 5, ClampUint64ToRange(5, 0, 10))
	assert.EqualValues(t, 0, ClampUint64ToRange(11, 0, 10))
	assert.EqualValues(t, 3, ClampUint64ToRange(25, 0, 10))
	assert.EqualValues(t, 7, ClampUint64ToRange(12345, 7, 7))

	// Results must always land inside the interval.
	for raw := uint64(0); raw < 1000; raw += 13 {
		v := ClampUint64ToRange(raw, 100, 200)
		assert.True(t, v >= 100 && v <= 200)
	}
}
