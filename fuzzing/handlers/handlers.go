// Package handlers implements the operation generators a fuzzing campaign draws from. Each handler derives its
// choices from a dedicated random source seeded per call, clamps generated amounts into the currently valid
// range, drives one vault operation, and classifies the result. A handler never returns an error for an
// anticipated decline; errors signal unexpected vault behavior or a harness bug.
package handlers

import (
	"math/big"
	"math/rand"

	"github.com/crytic/charybdis/clock"
	"github.com/crytic/charybdis/fuzzing/actors"
	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/fuzzing/ghost"
	"github.com/crytic/charybdis/utils"
	"github.com/crytic/charybdis/vault"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// SUT is the vault surface handlers drive. *vault.Vault satisfies it.
type SUT interface {
	Deposit(caller vault.Address, assets *uint256.Int) (*uint256.Int, error)
	RequestWithdrawal(caller vault.Address, shareAmount *uint256.Int) (uint64, error)
	ClaimWithdrawal(caller vault.Address, index uint64) (*uint256.Int, error)
	ClaimWithdrawalBatch(caller vault.Address, indices []uint64) (*uint256.Int, error)
	Rebase(caller vault.Address) (*uint256.Int, error)
	Allocate(caller vault.Address) (*uint256.Int, error)
	DepositToStrategy(caller vault.Address, index int, assets *uint256.Int) error
	WithdrawFromStrategy(caller vault.Address, index int, assets *uint256.Int) error
	WithdrawAllFromStrategy(caller vault.Address, index int) (*uint256.Int, error)
	WithdrawAllFromStrategies(caller vault.Address) (*uint256.Int, error)
	SetAutoAllocateThreshold(caller vault.Address, threshold *uint256.Int) error
	SetDripDuration(caller vault.Address, seconds uint64) error
	SetMaxSupplyDiff(caller vault.Address, fraction *uint256.Int) error
	SetRebaseRateCeiling(caller vault.Address, fraction *uint256.Int) error
	SetRebaseThreshold(caller vault.Address, threshold *uint256.Int) error
	SetTrusteeFee(caller vault.Address, bps uint64) error
	SetVaultBuffer(caller vault.Address, fraction *uint256.Int) error
	SetWithdrawClaimDelay(caller vault.Address, seconds uint64) error

	ShareBalanceOf(account vault.Address) *uint256.Int
	RawBalance() *uint256.Int
	StrategyCount() int
	StrategyAt(index int) (vault.Strategy, error)
	StrategyBalance(index int) (*uint256.Int, error)
	Request(index uint64) (*vault.WithdrawalRequest, error)
	QueueMetadata() vault.QueueMetadata
	Config() vault.Config
}

// Context carries the campaign state a handler operates on.
type Context struct {
	// SUT is the vault under test.
	SUT SUT

	// VaultAddress is the vault's own asset-holding address.
	VaultAddress vault.Address

	// Underlying is the asset token mock, used to read actor balances and to mint simulated yield.
	Underlying *vault.Token

	// Actors is the campaign's account set.
	Actors *actors.Registry

	// Ghost tracks outstanding withdrawal requests per actor.
	Ghost *ghost.Store

	// Clock is the writable simulated time source.
	Clock *clock.Clock
}

// Result describes a resolved handler call.
type Result struct {
	// Outcome is the call's resolution class.
	Outcome calls.Outcome

	// Actor is the account the handler acted as, if any.
	Actor vault.Address

	// Summary is a human-readable description of what happened.
	Summary string
}

// noOp returns a no-op result with the provided summary.
func noOp(summary string) *Result {
	return &Result{Outcome: calls.OutcomeNoOp, Summary: summary}
}

// Handler is one weighted operation generator.
type Handler struct {
	// ID is the handler's stable identifier, used for weighting, replay, and reporting.
	ID string

	// Weight is the handler's default selection weight.
	Weight uint64

	// Run executes one call against the context, deriving all choices from the provided random source.
	Run func(ctx *Context, rng *rand.Rand) (*Result, error)
}

// All returns the full handler set in a stable order.
func All() []*Handler {
	handlers := []*Handler{
		depositHandler(),
		requestWithdrawalHandler(),
		claimWithdrawalHandler(),
		claimWithdrawalBatchHandler(),
		rebaseHandler(),
		allocateHandler(),
		depositToStrategyHandler(),
		withdrawFromStrategyHandler(),
		withdrawAllFromStrategyHandler(),
		withdrawAllFromStrategiesHandler(),
		timeJumpHandler(),
		yieldToStrategyHandler(),
		yieldToVaultHandler(),
	}
	return append(handlers, configHandlers()...)
}

// ByID returns the handler with the provided identifier.
func ByID(id string) (*Handler, error) {
	for _, handler := range All() {
		if handler.ID == id {
			return handler, nil
		}
	}
	return nil, errors.Errorf("unknown handler %q", id)
}

// expectedDecline reports whether the error is a vault rejection a well-formed call may legitimately receive:
// liquidity not yet claimable, liquidity reserved for pending claims, or an amount below an operational
// threshold. Every other rejection from a handler's pre-clamped call indicates a bug.
func expectedDecline(err error) (*vault.Rejection, bool) {
	rejection, ok := err.(*vault.Rejection)
	if !ok {
		return nil, false
	}
	switch rejection.Code {
	case vault.RejectionInsufficientClaimableLiquidity, vault.RejectionPendingLiquidity, vault.RejectionBelowThreshold:
		return rejection, true
	default:
		return nil, false
	}
}

// resolve classifies a completed vault call: nil errors succeed, allow-listed rejections decline, and anything
// else propagates as an unexpected failure.
func resolve(actor vault.Address, err error, successSummary string) (*Result, error) {
	if err == nil {
		return &Result{Outcome: calls.OutcomeSuccess, Actor: actor, Summary: successSummary}, nil
	}
	if rejection, ok := expectedDecline(err); ok {
		return &Result{Outcome: calls.OutcomeDeclined, Actor: actor, Summary: rejection.Error()}, nil
	}
	return nil, errors.Wrap(err, "unexpected vault rejection")
}

// randBigInRange draws a raw 256-bit value and wraps it into [min, max] via remainder-based clamping.
func randBigInRange(rng *rand.Rand, min *big.Int, max *big.Int) *uint256.Int {
	raw := new(big.Int).Rand(rng, new(big.Int).Lsh(big.NewInt(1), 256))
	clamped, _ := uint256.FromBig(utils.ClampBigIntToRange(raw, min, max))
	return clamped
}

// randAmount returns a uniform amount in [1, max]. max must be non-zero.
func randAmount(rng *rand.Rand, max *uint256.Int) *uint256.Int {
	return randBigInRange(rng, big.NewInt(1), max.ToBig())
}

// randUint64InRange returns a uniform value in [min, max].
func randUint64InRange(rng *rand.Rand, min uint64, max uint64) uint64 {
	return utils.ClampUint64ToRange(rng.Uint64(), min, max)
}

// randWadFraction returns a uniform wad fraction in [0, 1e18].
func randWadFraction(rng *rand.Rand) *uint256.Int {
	return randBigInRange(rng, big.NewInt(0), vault.Wad().ToBig())
}

// pickActor scans the actor pool cyclically from a random offset and returns the first actor satisfying the
// predicate.
func pickActor(ctx *Context, rng *rand.Rand, predicate func(vault.Address) bool) (vault.Address, bool) {
	return ctx.Actors.ScanFrom(rng.Intn(ctx.Actors.Len()), predicate)
}
