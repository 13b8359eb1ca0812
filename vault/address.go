package vault

import (
	"crypto/sha256"
	"encoding/hex"
)

// Address is an opaque 20-byte account identity used by the vault, token mocks, and the fuzzing harness.
type Address [20]byte

// ZeroAddress is the empty identity. Withdrawal queue slots below the index frontier must never report it as
// their owner.
var ZeroAddress = Address{}

// DeriveAddress deterministically derives an Address from a label. The same label always yields the same
// identity, which keeps fuzzing campaigns reproducible across runs and replays.
func DeriveAddress(label string) Address {
	digest := sha256.Sum256([]byte(label))
	var addr Address
	copy(addr[:], digest[:20])
	return addr
}

// String returns the hex representation of the address, prefixed with 0x.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero indicates whether the address is the empty identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}
