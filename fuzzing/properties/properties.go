// Package properties implements the invariant oracle checked after every call of a fuzzing campaign. Each
// property is a pure predicate over a read-only view of the vault; a violation is reported as an error
// describing the broken relation.
package properties

import (
	"github.com/crytic/charybdis/clock"
	"github.com/crytic/charybdis/fuzzing/actors"
	"github.com/crytic/charybdis/vault"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// ApproxTolerance is the fixed absolute slack (claim token units) allowed on approximate equality checks,
// covering rebasing credit rounding. 1e13 units is 0.00001 claim tokens.
var ApproxTolerance = uint256.NewInt(10_000_000_000_000)

// StateReader is the read-only view of vault state the oracle consumes. *vault.Vault satisfies it.
type StateReader interface {
	TotalSupply() *uint256.Int
	TotalValue() *uint256.Int
	RawBalance() *uint256.Int
	StrategyCount() int
	StrategyBalance(index int) (*uint256.Int, error)
	ShareBalanceOf(account vault.Address) *uint256.Int
	QueueMetadata() vault.QueueMetadata
	Request(index uint64) (*vault.WithdrawalRequest, error)
	LastRebase() uint64
	Config() vault.Config
}

// Context carries the state the oracle evaluates against.
type Context struct {
	// State is the vault under test.
	State StateReader

	// Clock is the simulated time source.
	Clock clock.Reader

	// Actors is the campaign's account set, used to enumerate claim token holders.
	Actors *actors.Registry

	// PreviousQueue is the queue counter tuple observed at the previous oracle pass, or nil on the first
	// pass. The driver refreshes it after each check.
	PreviousQueue *vault.QueueMetadata
}

// Property is one invariant of the oracle.
type Property struct {
	// ID is the property's stable identifier, reported on failure.
	ID string

	// Description states the invariant in prose.
	Description string

	// Check evaluates the invariant, returning a descriptive error when it is violated.
	Check func(ctx *Context) error
}

// All returns the full oracle property set.
func All() []*Property {
	return []*Property{
		vaultSolvency(),
		supplyClosure(),
		queueOrdering(),
		queueBounds(),
		queueDensity(),
		queueMonotonicity(),
		queueLiquidity(),
		clockSanity(),
		configBounds(),
		valueConsistency(),
	}
}

// approxLte reports whether a <= b + ApproxTolerance.
func approxLte(a *uint256.Int, b *uint256.Int) bool {
	return a.Cmp(new(uint256.Int).Add(b, ApproxTolerance)) <= 0
}

// approxEq reports whether |a - b| <= ApproxTolerance.
func approxEq(a *uint256.Int, b *uint256.Int) bool {
	return approxLte(a, b) && approxLte(b, a)
}

// vaultSolvency: issued claim token supply never exceeds total vault value.
func vaultSolvency() *Property {
	return &Property{
		ID:          "VAULT-SOLVENCY",
		Description: "total claim token supply never exceeds total vault value",
		Check: func(ctx *Context) error {
			supply := ctx.State.TotalSupply()
			value := ctx.State.TotalValue()
			if !approxLte(supply, value) {
				return errors.Errorf("supply %s exceeds value %s", supply, value)
			}
			return nil
		},
	}
}

// supplyClosure: the sum of all holder balances matches the reported total supply.
func supplyClosure() *Property {
	return &Property{
		ID:          "SUPPLY-CLOSURE",
		Description: "sum of holder balances equals total claim token supply",
		Check: func(ctx *Context) error {
			sum := uint256.NewInt(0)
			for _, actor := range ctx.Actors.All() {
				sum.Add(sum, ctx.State.ShareBalanceOf(actor))
			}
			for _, account := range []vault.Address{ctx.Actors.Governor, ctx.Actors.Operator, ctx.Actors.Treasury, ctx.Actors.Dead} {
				sum.Add(sum, ctx.State.ShareBalanceOf(account))
			}
			supply := ctx.State.TotalSupply()
			if !approxEq(sum, supply) {
				return errors.Errorf("holder balances sum to %s, supply is %s", sum, supply)
			}
			return nil
		},
	}
}

// queueOrdering: each request's cumulative queued snapshot is exactly the previous snapshot plus its amount.
func queueOrdering() *Property {
	return &Property{
		ID:          "QUEUE-ORDERING",
		Description: "cumulative queued snapshots advance by exactly each request's amount",
		Check: func(ctx *Context) error {
			meta := ctx.State.QueueMetadata()
			running := uint256.NewInt(0)
			for index := uint64(0); index < meta.NextIndex; index++ {
				request, err := ctx.State.Request(index)
				if err != nil {
					return errors.Wrapf(err, "request %d unreadable below frontier", index)
				}
				running.Add(running, request.Amount)
				if !running.Eq(request.CumulativeQueued) {
					return errors.Errorf("request %d snapshot %s, expected running total %s", index, request.CumulativeQueued, running)
				}
			}
			return nil
		},
	}
}

// queueBounds: claimed <= claimable <= queued.
func queueBounds() *Property {
	return &Property{
		ID:          "QUEUE-BOUNDS",
		Description: "queue counters satisfy claimed <= claimable <= queued",
		Check: func(ctx *Context) error {
			meta := ctx.State.QueueMetadata()
			if meta.Claimed.Gt(meta.Claimable) {
				return errors.Errorf("claimed %s exceeds claimable %s", meta.Claimed, meta.Claimable)
			}
			if meta.Claimable.Gt(meta.Queued) {
				return errors.Errorf("claimable %s exceeds queued %s", meta.Claimable, meta.Queued)
			}
			return nil
		},
	}
}

// queueDensity: every slot below the request frontier is populated with an owned request, and the queued and
// claimed counters equal the sums over the request list.
func queueDensity() *Property {
	return &Property{
		ID:          "QUEUE-DENSITY",
		Description: "every request below the frontier has an owner and counters equal request sums",
		Check: func(ctx *Context) error {
			meta := ctx.State.QueueMetadata()
			queuedSum := uint256.NewInt(0)
			claimedSum := uint256.NewInt(0)
			for index := uint64(0); index < meta.NextIndex; index++ {
				request, err := ctx.State.Request(index)
				if err != nil {
					return errors.Wrapf(err, "request %d unreadable below frontier", index)
				}
				if request.Owner.IsZero() {
					return errors.Errorf("request %d below frontier %d has an empty owner", index, meta.NextIndex)
				}
				queuedSum.Add(queuedSum, request.Amount)
				if request.Claimed {
					claimedSum.Add(claimedSum, request.Amount)
				}
			}
			if !queuedSum.Eq(meta.Queued) {
				return errors.Errorf("request amounts sum to %s, queued counter is %s", queuedSum, meta.Queued)
			}
			if !claimedSum.Eq(meta.Claimed) {
				return errors.Errorf("claimed request amounts sum to %s, claimed counter is %s", claimedSum, meta.Claimed)
			}
			return nil
		},
	}
}

// queueMonotonicity: queue counters and the request frontier never move backwards.
func queueMonotonicity() *Property {
	return &Property{
		ID:          "QUEUE-MONOTONICITY",
		Description: "queue counters and the request frontier never decrease",
		Check: func(ctx *Context) error {
			if ctx.PreviousQueue == nil {
				return nil
			}
			meta := ctx.State.QueueMetadata()
			previous := ctx.PreviousQueue
			if meta.Queued.Lt(previous.Queued) {
				return errors.Errorf("queued regressed from %s to %s", previous.Queued, meta.Queued)
			}
			if meta.Claimable.Lt(previous.Claimable) {
				return errors.Errorf("claimable regressed from %s to %s", previous.Claimable, meta.Claimable)
			}
			if meta.Claimed.Lt(previous.Claimed) {
				return errors.Errorf("claimed regressed from %s to %s", previous.Claimed, meta.Claimed)
			}
			if meta.NextIndex < previous.NextIndex {
				return errors.Errorf("request frontier regressed from %d to %d", previous.NextIndex, meta.NextIndex)
			}
			return nil
		},
	}
}

// queueLiquidity: the vault's raw balance always covers claimable-but-unclaimed withdrawals.
func queueLiquidity() *Property {
	return &Property{
		ID:          "QUEUE-LIQUIDITY",
		Description: "raw vault liquidity covers claimable-but-unclaimed withdrawals",
		Check: func(ctx *Context) error {
			meta := ctx.State.QueueMetadata()
			unclaimed := new(uint256.Int).Sub(meta.Claimable, meta.Claimed)
			cover := new(uint256.Int).Mul(ctx.State.RawBalance(), vault.DecimalScale)
			if !approxLte(unclaimed, cover) {
				return errors.Errorf("claimable backlog %s exceeds raw cover %s", unclaimed, cover)
			}
			return nil
		},
	}
}

// clockSanity: recorded timestamps stay within the simulated clock's reach.
func clockSanity() *Property {
	return &Property{
		ID:          "CLOCK-SANITY",
		Description: "recorded timestamps are consistent with the simulated clock",
		Check: func(ctx *Context) error {
			now := ctx.Clock.Now()
			if lastRebase := ctx.State.LastRebase(); lastRebase > now {
				return errors.Errorf("last rebase %d is in the future (now %d)", lastRebase, now)
			}
			meta := ctx.State.QueueMetadata()
			horizon := now + vault.MaxWithdrawClaimDelay
			for index := uint64(0); index < meta.NextIndex; index++ {
				request, err := ctx.State.Request(index)
				if err != nil {
					return errors.Wrapf(err, "request %d unreadable below frontier", index)
				}
				if request.MaturityTimestamp > horizon {
					return errors.Errorf("request %d maturity %d beyond horizon %d", index, request.MaturityTimestamp, horizon)
				}
			}
			return nil
		},
	}
}

// configBounds: every configuration field stays within its documented range.
func configBounds() *Property {
	return &Property{
		ID:          "CONFIG-BOUNDS",
		Description: "configuration fields stay within their documented ranges",
		Check: func(ctx *Context) error {
			config := ctx.State.Config()
			wad := vault.Wad()
			if config.DripDuration < vault.MinDripDuration || config.DripDuration > vault.MaxDripDuration {
				return errors.Errorf("drip duration %d out of range", config.DripDuration)
			}
			if config.MaxSupplyDiff.Gt(wad) {
				return errors.Errorf("max supply diff %s out of range", config.MaxSupplyDiff)
			}
			if config.RebaseRateCeiling.Gt(wad) {
				return errors.Errorf("rebase rate ceiling %s out of range", config.RebaseRateCeiling)
			}
			if config.TrusteeFeeBps > vault.MaxTrusteeFeeBps {
				return errors.Errorf("trustee fee %d bps out of range", config.TrusteeFeeBps)
			}
			if config.VaultBuffer.Gt(wad) {
				return errors.Errorf("vault buffer %s out of range", config.VaultBuffer)
			}
			if config.WithdrawClaimDelay > vault.MaxWithdrawClaimDelay {
				return errors.Errorf("withdraw claim delay %d out of range", config.WithdrawClaimDelay)
			}
			return nil
		},
	}
}

// valueConsistency: the reported total value matches an independent recomputation from asset balances and the
// outstanding withdrawal liability.
func valueConsistency() *Property {
	return &Property{
		ID:          "VALUE-CONSISTENCY",
		Description: "reported total value matches recomputation from balances and queue liability",
		Check: func(ctx *Context) error {
			gross := new(uint256.Int).Set(ctx.State.RawBalance())
			for i := 0; i < ctx.State.StrategyCount(); i++ {
				balance, err := ctx.State.StrategyBalance(i)
				if err != nil {
					return errors.Wrapf(err, "strategy %d unreadable", i)
				}
				gross.Add(gross, balance)
			}
			gross.Mul(gross, vault.DecimalScale)

			meta := ctx.State.QueueMetadata()
			outstanding := new(uint256.Int).Sub(meta.Queued, meta.Claimed)
			if gross.Lt(outstanding) {
				return errors.Errorf("outstanding liability %s exceeds gross assets %s", outstanding, gross)
			}
			expected := gross.Sub(gross, outstanding)

			value := ctx.State.TotalValue()
			if !value.Eq(expected) {
				return errors.Errorf("reported value %s, recomputed %s", value, expected)
			}
			return nil
		},
	}
}
