package handlers

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/vault"
	"github.com/holiman/uint256"
)

// configHandlers returns the governor parameter-change handlers. Each generates a value inside the setter's
// documented range, so a rejection from any of them is a bug.
func configHandlers() []*Handler {
	return []*Handler{
		setAutoAllocateThresholdHandler(),
		setDripDurationHandler(),
		setMaxSupplyDiffHandler(),
		setRebaseRateCeilingHandler(),
		setRebaseThresholdHandler(),
		setTrusteeFeeHandler(),
		setVaultBufferHandler(),
		setWithdrawClaimDelayHandler(),
	}
}

const configHandlerWeight = 10

// randThresholdAmount returns an amount in [0, 1e24], spanning from dust to far above any campaign balance so
// threshold-gated operations exercise both sides of the gate.
func randThresholdAmount(rng *rand.Rand) *uint256.Int {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)
	return randBigInRange(rng, big.NewInt(0), bound)
}

func setAutoAllocateThresholdHandler() *Handler {
	return &Handler{
		ID:     "setAutoAllocateThreshold",
		Weight: configHandlerWeight,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			governor := ctx.Actors.Governor
			threshold := randThresholdAmount(rng)
			err := ctx.SUT.SetAutoAllocateThreshold(governor, threshold)
			return resolve(governor, err, fmt.Sprintf("set auto-allocate threshold to %s %s", calls.FormatAssets(threshold), ctx.Underlying.Symbol()))
		},
	}
}

func setDripDurationHandler() *Handler {
	return &Handler{
		ID:     "setDripDuration",
		Weight: configHandlerWeight,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			governor := ctx.Actors.Governor
			seconds := randUint64InRange(rng, vault.MinDripDuration, vault.MaxDripDuration)
			err := ctx.SUT.SetDripDuration(governor, seconds)
			return resolve(governor, err, fmt.Sprintf("set drip duration to %ds", seconds))
		},
	}
}

func setMaxSupplyDiffHandler() *Handler {
	return &Handler{
		ID:     "setMaxSupplyDiff",
		Weight: configHandlerWeight,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			governor := ctx.Actors.Governor
			fraction := randWadFraction(rng)
			err := ctx.SUT.SetMaxSupplyDiff(governor, fraction)
			return resolve(governor, err, fmt.Sprintf("set max supply diff to %s", calls.FormatWad(fraction)))
		},
	}
}

func setRebaseRateCeilingHandler() *Handler {
	return &Handler{
		ID:     "setRebaseRateCeiling",
		Weight: configHandlerWeight,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			governor := ctx.Actors.Governor
			fraction := randWadFraction(rng)
			err := ctx.SUT.SetRebaseRateCeiling(governor, fraction)
			return resolve(governor, err, fmt.Sprintf("set rebase rate ceiling to %s/day", calls.FormatWad(fraction)))
		},
	}
}

func setRebaseThresholdHandler() *Handler {
	return &Handler{
		ID:     "setRebaseThreshold",
		Weight: configHandlerWeight,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			governor := ctx.Actors.Governor
			threshold := randThresholdAmount(rng)
			err := ctx.SUT.SetRebaseThreshold(governor, threshold)
			return resolve(governor, err, fmt.Sprintf("set rebase threshold to %s shares", calls.FormatShares(threshold)))
		},
	}
}

func setTrusteeFeeHandler() *Handler {
	return &Handler{
		ID:     "setTrusteeFee",
		Weight: configHandlerWeight,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			governor := ctx.Actors.Governor
			bps := randUint64InRange(rng, 0, vault.MaxTrusteeFeeBps)
			err := ctx.SUT.SetTrusteeFee(governor, bps)
			return resolve(governor, err, fmt.Sprintf("set trustee fee to %d bps", bps))
		},
	}
}

func setVaultBufferHandler() *Handler {
	return &Handler{
		ID:     "setVaultBuffer",
		Weight: configHandlerWeight,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			governor := ctx.Actors.Governor
			fraction := randWadFraction(rng)
			err := ctx.SUT.SetVaultBuffer(governor, fraction)
			return resolve(governor, err, fmt.Sprintf("set vault buffer to %s", calls.FormatWad(fraction)))
		},
	}
}

func setWithdrawClaimDelayHandler() *Handler {
	return &Handler{
		ID:     "setWithdrawClaimDelay",
		Weight: configHandlerWeight,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			governor := ctx.Actors.Governor
			seconds := randUint64InRange(rng, 0, vault.MaxWithdrawClaimDelay)
			err := ctx.SUT.SetWithdrawClaimDelay(governor, seconds)
			return resolve(governor, err, fmt.Sprintf("set withdraw claim delay to %ds", seconds))
		},
	}
}
