package calls

import (
	"testing"

	"github.com/crytic/charybdis/vault"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestCallSequenceString(t *testing.T) {
	sequence := CallSequence{
		{HandlerID: "deposit", Seed: 1, Actor: vault.DeriveAddress("calls/alice"), Summary: "deposited 5 USDC", Outcome: OutcomeSuccess},
		{HandlerID: "rebase", Seed: 2, Outcome: OutcomeDeclined, Summary: "yield below threshold"},
		{HandlerID: "claimWithdrawal", Seed: 3, Outcome: OutcomeNoOp},
	}

	rendered := sequence.String()
	assert.Contains(t, rendered, "1) deposit [success] deposited 5 USDC")
	assert.Contains(t, rendered, "2) rebase [declined] yield below threshold")
	assert.Contains(t, rendered, "3) claimWithdrawal [no-op]")

	assert.Equal(t, "<empty call sequence>", CallSequence{}.String())
}

func TestCloneIsIndependent(t *testing.T) {
	sequence := CallSequence{{HandlerID: "deposit"}, {HandlerID: "rebase"}}
	cloned := sequence.Clone()
	cloned[0] = &HandlerCall{HandlerID: "timeJump"}
	assert.Equal(t, "deposit", sequence[0].HandlerID)
}

func TestFormatAmounts(t *testing.T) {
	assert.Equal(t, "1.5", FormatAssets(uint256.NewInt(1_500_000)))
	assert.Equal(t, "2.25", FormatShares(uint256.NewInt(2_250_000_000_000_000_000)))
	assert.Equal(t, "0.1", FormatWad(uint256.NewInt(100_000_000_000_000_000)))
}
