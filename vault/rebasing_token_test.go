package vault

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wads(whole uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(whole), wadUnit)
}

func TestRebasingTokenMintAndBurn(t *testing.T) {
	token := NewRebasingToken()
	alice := DeriveAddress("rebasing/alice")

	token.Mint(alice, wads(100))
	assert.Equal(t, wads(100), token.BalanceOf(alice))
	assert.Equal(t, wads(100), token.TotalSupply())

	require.NoError(t, token.Burn(alice, wads(40)))
	assert.Equal(t, wads(60), token.BalanceOf(alice))

	err := token.Burn(alice, wads(100))
	require.Error(t, err)
	rejection, ok := err.(*Rejection)
	require.True(t, ok)
	assert.Equal(t, RejectionInsufficientBalance, rejection.Code)
}

func TestRebasingTokenFullBurnLeavesExactZero(t *testing.T) {
	token := NewRebasingToken()
	alice := DeriveAddress("rebasing/alice")

	token.Mint(alice, wads(1_000))
	token.ChangeSupply(wads(1_100))

	// After the supply change the balance carries rounding; a full-balance burn must still zero out.
	balance := token.BalanceOf(alice)
	require.NoError(t, token.Burn(alice, balance))
	assert.True(t, token.BalanceOf(alice).IsZero())
}

func TestRebasingTokenChangeSupplyScalesProRata(t *testing.T) {
	token := NewRebasingToken()
	alice := DeriveAddress("rebasing/alice")
	bob := DeriveAddress("rebasing/bob")

	token.Mint(alice, wads(300))
	token.Mint(bob, wads(100))
	token.ChangeSupply(wads(800))

	assert.Equal(t, wads(800), token.TotalSupply())

	// Alice keeps 3x Bob's balance through the rebase, within a unit of rounding.
	aliceBalance := token.BalanceOf(alice)
	three := new(uint256.Int).Mul(token.BalanceOf(bob), uint256.NewInt(3))
	diff := new(uint256.Int)
	if aliceBalance.Gt(three) {
		diff.Sub(aliceBalance, three)
	} else {
		diff.Sub(three, aliceBalance)
	}
	assert.True(t, diff.CmpUint64(4) <= 0, "pro-rata skew too large: %s", diff)
}
