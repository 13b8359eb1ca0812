package utils

import (
	"math/big"

	"golang.org/x/exp/constraints"
)

// ClampBigIntToRange takes a provided big integer and minimum/maximum bounds (inclusive) and maps the value into
// that closed interval using remainder-based wrapping rather than truncation, so a uniformly distributed input
// remains uniformly distributed over the interval. In effect, this simulates overflow and underflow.
// Returns the clamped integer.
func ClampBigIntToRange(b *big.Int, min *big.Int, max *big.Int) *big.Int {
	// Get the bounding range
	boundingRange := new(big.Int).Add(new(big.Int).Sub(max, min), big.NewInt(1))

	// Wrap the distance from the minimum around the bounding range. Go's big.Int Mod always returns a
	// non-negative result for a positive modulus, so underflowing values wrap back from the maximum.
	offset := new(big.Int).Mod(new(big.Int).Sub(b, min), boundingRange)
	return new(big.Int).Add(min, offset)
}

// ClampUint64ToRange maps a raw uint64 value into the closed interval [min, max] using remainder-based wrapping.
// The resulting distribution remains uniform when the raw value is uniform over a range much larger than the
// interval. Returns the clamped value.
func ClampUint64ToRange(raw uint64, min uint64, max uint64) uint64 {
	if min > max {
		min, max = max, min
	}
	boundingRange := max - min + 1
	if boundingRange == 0 {
		// [0, math.MaxUint64] covers the whole domain.
		return raw
	}
	return min + raw%boundingRange
}

// AbsDiff provides a way of taking the absolute difference between two integers
func AbsDiff[T constraints.Integer](x T, y T) T {
	if x >= y {
		return x - y
	}
	return y - x
}

// Min returns the smaller of two ordered values.
func Min[T constraints.Ordered](x T, y T) T {
	if x < y {
		return x
	}
	return y
}

// Max returns the larger of two ordered values.
func Max[T constraints.Ordered](x T, y T) T {
	if x > y {
		return x
	}
	return y
}
