package calls

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// FormatAssets renders an underlying asset amount (6 decimal base units) as a human-readable decimal string.
func FormatAssets(amount *uint256.Int) string {
	return decimal.NewFromBigInt(amount.ToBig(), -6).String()
}

// FormatShares renders a claim token amount (18 decimal base units) as a human-readable decimal string.
func FormatShares(amount *uint256.Int) string {
	return decimal.NewFromBigInt(amount.ToBig(), -18).String()
}

// FormatWad renders a wad fraction (1e18 = 1.0) as a human-readable decimal string.
func FormatWad(fraction *uint256.Int) string {
	return decimal.NewFromBigInt(fraction.ToBig(), -18).String()
}
