package handlers

import (
	"fmt"
	"math/rand"

	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/holiman/uint256"
)

// timeJumpHandler advances the simulated clock by a random interval between one second and three days.
func timeJumpHandler() *Handler {
	return &Handler{
		ID:     "timeJump",
		Weight: 60,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			seconds := randUint64InRange(rng, 1, 3*24*3600)
			ctx.Clock.Advance(seconds)
			return &Result{Outcome: calls.OutcomeSuccess, Summary: fmt.Sprintf("advanced time by %ds", seconds)}, nil
		},
	}
}

// yieldBound returns the upper bound for a simulated yield event: roughly 2% of gross vault assets, with a
// floor so yield can accrue even on an empty vault.
func yieldBound(ctx *Context) *uint256.Int {
	gross := ctx.SUT.RawBalance()
	for i := 0; i < ctx.SUT.StrategyCount(); i++ {
		balance, _ := ctx.SUT.StrategyBalance(i)
		if balance != nil {
			gross.Add(gross, balance)
		}
	}
	bound := gross.Div(gross, uint256.NewInt(50))
	if bound.IsZero() {
		bound = uint256.NewInt(1_000_000)
	}
	return bound
}

// yieldToStrategyHandler simulates strategy profit by minting assets directly to a random strategy address.
func yieldToStrategyHandler() *Handler {
	return &Handler{
		ID:     "yieldToStrategy",
		Weight: 30,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			index := rng.Intn(ctx.SUT.StrategyCount())
			strategy, err := ctx.SUT.StrategyAt(index)
			if err != nil {
				return nil, err
			}
			amount := randAmount(rng, yieldBound(ctx))
			ctx.Underlying.Mint(strategy.Addr, amount)
			return &Result{Outcome: calls.OutcomeSuccess, Summary: fmt.Sprintf("strategy %d earned %s %s", index, calls.FormatAssets(amount), ctx.Underlying.Symbol())}, nil
		},
	}
}

// yieldToVaultHandler simulates an airdrop or donation by minting assets directly to the vault address.
func yieldToVaultHandler() *Handler {
	return &Handler{
		ID:     "yieldToVault",
		Weight: 15,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			amount := randAmount(rng, yieldBound(ctx))
			ctx.Underlying.Mint(ctx.VaultAddress, amount)
			return &Result{Outcome: calls.OutcomeSuccess, Summary: fmt.Sprintf("vault received %s %s directly", calls.FormatAssets(amount), ctx.Underlying.Symbol())}, nil
		},
	}
}
