package actors

import (
	"testing"

	"github.com/crytic/charybdis/vault"
	"github.com/stretchr/testify/assert"
)

func TestRegistryDeterminism(t *testing.T) {
	a := NewRegistry(5)
	b := NewRegistry(5)
	assert.Equal(t, a.Governor, b.Governor)
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, a.ActorAt(i), b.ActorAt(i))
	}

	// Distinct addresses across the whole cast.
	seen := map[vault.Address]struct{}{a.Governor: {}, a.Operator: {}, a.Treasury: {}, a.Dead: {}}
	assert.Len(t, seen, 4)
	for _, actor := range a.All() {
		_, duplicate := seen[actor]
		assert.False(t, duplicate)
		seen[actor] = struct{}{}
	}
}

func TestScanFromWrapsAround(t *testing.T) {
	r := NewRegistry(4)
	target := r.ActorAt(1)

	actor, ok := r.ScanFrom(3, func(a vault.Address) bool { return a == target })
	assert.True(t, ok)
	assert.Equal(t, target, actor)

	_, ok = r.ScanFrom(0, func(vault.Address) bool { return false })
	assert.False(t, ok)
}
