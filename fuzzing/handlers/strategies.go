package handlers

import (
	"fmt"
	"math/rand"

	"github.com/crytic/charybdis/fuzzing/calls"
)

// rebaseHandler has the operator recognize accrued yield. Declines when nothing has vested.
func rebaseHandler() *Handler {
	return &Handler{
		ID:     "rebase",
		Weight: 60,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			operator := ctx.Actors.Operator
			recognized, err := ctx.SUT.Rebase(operator)
			if err != nil {
				return resolve(operator, err, "")
			}
			return resolve(operator, nil, fmt.Sprintf("rebase recognized %s shares of yield", calls.FormatShares(recognized)))
		},
	}
}

// allocateHandler has the operator sweep idle capital into the default strategy.
func allocateHandler() *Handler {
	return &Handler{
		ID:     "allocate",
		Weight: 40,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			operator := ctx.Actors.Operator
			allocated, err := ctx.SUT.Allocate(operator)
			if err != nil {
				return resolve(operator, err, "")
			}
			return resolve(operator, nil, fmt.Sprintf("allocated %s %s to the default strategy", calls.FormatAssets(allocated), ctx.Underlying.Symbol()))
		},
	}
}

// depositToStrategyHandler moves a random asset amount from the vault into a random strategy. Amounts beyond
// the transferable balance decline against the claim reserve.
func depositToStrategyHandler() *Handler {
	return &Handler{
		ID:     "depositToStrategy",
		Weight: 40,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			operator := ctx.Actors.Operator
			raw := ctx.SUT.RawBalance()
			if raw.IsZero() {
				return noOp("vault holds no raw assets"), nil
			}

			index := rng.Intn(ctx.SUT.StrategyCount())
			amount := randAmount(rng, raw)
			err := ctx.SUT.DepositToStrategy(operator, index, amount)
			return resolve(operator, err, fmt.Sprintf("deposited %s %s to strategy %d", calls.FormatAssets(amount), ctx.Underlying.Symbol(), index))
		},
	}
}

// withdrawFromStrategyHandler pulls a random asset amount from a funded strategy back into the vault.
func withdrawFromStrategyHandler() *Handler {
	return &Handler{
		ID:     "withdrawFromStrategy",
		Weight: 40,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			operator := ctx.Actors.Operator

			// Scan strategies from a random offset for one holding assets.
			count := ctx.SUT.StrategyCount()
			offset := rng.Intn(count)
			for i := 0; i < count; i++ {
				index := (offset + i) % count
				balance, err := ctx.SUT.StrategyBalance(index)
				if err != nil {
					return nil, err
				}
				if balance.IsZero() {
					continue
				}
				amount := randAmount(rng, balance)
				err = ctx.SUT.WithdrawFromStrategy(operator, index, amount)
				return resolve(operator, err, fmt.Sprintf("withdrew %s %s from strategy %d", calls.FormatAssets(amount), ctx.Underlying.Symbol(), index))
			}
			return noOp("no strategy holds assets"), nil
		},
	}
}

// withdrawAllFromStrategyHandler drains one random strategy entirely.
func withdrawAllFromStrategyHandler() *Handler {
	return &Handler{
		ID:     "withdrawAllFromStrategy",
		Weight: 15,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			operator := ctx.Actors.Operator
			index := rng.Intn(ctx.SUT.StrategyCount())
			drained, err := ctx.SUT.WithdrawAllFromStrategy(operator, index)
			if err != nil {
				return resolve(operator, err, "")
			}
			return resolve(operator, nil, fmt.Sprintf("drained %s %s from strategy %d", calls.FormatAssets(drained), ctx.Underlying.Symbol(), index))
		},
	}
}

// withdrawAllFromStrategiesHandler drains every strategy back into the vault.
func withdrawAllFromStrategiesHandler() *Handler {
	return &Handler{
		ID:     "withdrawAllFromStrategies",
		Weight: 10,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			operator := ctx.Actors.Operator
			drained, err := ctx.SUT.WithdrawAllFromStrategies(operator)
			if err != nil {
				return resolve(operator, err, "")
			}
			return resolve(operator, nil, fmt.Sprintf("drained %s %s from all strategies", calls.FormatAssets(drained), ctx.Underlying.Symbol()))
		},
	}
}
