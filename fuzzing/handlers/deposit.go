package handlers

import (
	"fmt"
	"math/rand"

	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/vault"
)

// depositHandler deposits a random portion of an actor's asset balance into the vault.
func depositHandler() *Handler {
	return &Handler{
		ID:     "deposit",
		Weight: 100,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			actor, ok := pickActor(ctx, rng, func(a vault.Address) bool {
				return !ctx.Underlying.BalanceOf(a).IsZero()
			})
			if !ok {
				return noOp("no actor holds underlying assets"), nil
			}

			amount := randAmount(rng, ctx.Underlying.BalanceOf(actor))
			_, err := ctx.SUT.Deposit(actor, amount)
			return resolve(actor, err, fmt.Sprintf("%s deposited %s %s", actor, calls.FormatAssets(amount), ctx.Underlying.Symbol()))
		},
	}
}
