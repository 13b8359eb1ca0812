// Package calls defines the call sequence representation driven against the vault: each element records which
// handler ran, the seed its randomness derived from, and what the call did, so sequences replay and shrink
// deterministically.
package calls

import (
	"fmt"
	"strings"

	"github.com/crytic/charybdis/vault"
)

// Outcome classifies how a handler call resolved.
type Outcome int

const (
	// OutcomeSuccess indicates the vault accepted and applied the operation.
	OutcomeSuccess Outcome = iota

	// OutcomeDeclined indicates the vault rejected the operation for an anticipated reason (insufficient
	// claimable liquidity, pending liquidity, below threshold).
	OutcomeDeclined

	// OutcomeNoOp indicates the handler found no eligible actor or amount and did nothing.
	OutcomeNoOp
)

// String obtains a display string of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDeclined:
		return "declined"
	case OutcomeNoOp:
		return "no-op"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// HandlerCall is one executed element of a call sequence.
type HandlerCall struct {
	// HandlerID identifies the handler which ran.
	HandlerID string

	// Seed is the value the handler's random source was seeded with. Replaying the handler with the same
	// seed against the same state reproduces the call exactly.
	Seed int64

	// Actor is the account the handler acted as, if any.
	Actor vault.Address

	// Summary is a human-readable description of what the call did.
	Summary string

	// Outcome is the call's resolution class.
	Outcome Outcome
}

// String obtains a display string of the call.
func (c *HandlerCall) String() string {
	if c.Summary == "" {
		return fmt.Sprintf("%s [%s]", c.HandlerID, c.Outcome)
	}
	return fmt.Sprintf("%s [%s] %s", c.HandlerID, c.Outcome, c.Summary)
}

// CallSequence is an ordered list of executed handler calls.
type CallSequence []*HandlerCall

// Clone returns a shallow copy of the sequence, suitable for shrinking cuts.
func (s CallSequence) Clone() CallSequence {
	cloned := make(CallSequence, len(s))
	copy(cloned, s)
	return cloned
}

// String obtains a numbered, line-per-call display string of the sequence.
func (s CallSequence) String() string {
	if len(s) == 0 {
		return "<empty call sequence>"
	}
	var builder strings.Builder
	for i, call := range s {
		builder.WriteString(fmt.Sprintf("%d) %s\n", i+1, call.String()))
	}
	return strings.TrimRight(builder.String(), "\n")
}
