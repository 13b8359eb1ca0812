package ghost

import (
	"testing"

	"github.com/crytic/charybdis/vault"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAppendAndRemove(t *testing.T) {
	store := NewStore()
	alice := vault.DeriveAddress("ghost/alice")
	bob := vault.DeriveAddress("ghost/bob")

	store.Append(Request{Owner: alice, Index: 0, MaturityTimestamp: 100})
	store.Append(Request{Owner: alice, Index: 2, MaturityTimestamp: 150})
	store.Append(Request{Owner: bob, Index: 1, MaturityTimestamp: 120})

	assert.Equal(t, 2, store.Count(alice))
	assert.Equal(t, 1, store.Count(bob))
	assert.Equal(t, 3, store.TotalCount())
	assert.Len(t, store.Owners(), 2)

	require.NoError(t, store.Remove(alice, 0))
	assert.Equal(t, 1, store.Count(alice))
	assert.Equal(t, uint64(2), store.PendingFor(alice)[0].Index)

	require.NoError(t, store.Remove(alice, 2))
	require.NoError(t, store.Remove(bob, 1))
	assert.Equal(t, 0, store.TotalCount())
}

func TestRemoveUntrackedIsDesync(t *testing.T) {
	store := NewStore()
	alice := vault.DeriveAddress("ghost/alice")

	err := store.Remove(alice, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDesync))
}
