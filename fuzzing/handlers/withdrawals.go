package handlers

import (
	"fmt"
	"math/rand"

	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/fuzzing/ghost"
	"github.com/crytic/charybdis/utils"
	"github.com/crytic/charybdis/vault"
	"github.com/pkg/errors"
)

// requestWithdrawalHandler queues a withdrawal of a random portion of an actor's claim token balance. One in
// eight requests burns the actor's exact full balance to probe the rebasing dust boundary.
func requestWithdrawalHandler() *Handler {
	return &Handler{
		ID:     "requestWithdrawal",
		Weight: 80,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			actor, ok := pickActor(ctx, rng, func(a vault.Address) bool {
				return !ctx.SUT.ShareBalanceOf(a).IsZero()
			})
			if !ok {
				return noOp("no actor holds claim tokens"), nil
			}

			balance := ctx.SUT.ShareBalanceOf(actor)
			amount := balance
			if rng.Intn(8) != 0 {
				amount = randAmount(rng, balance)
			}

			index, err := ctx.SUT.RequestWithdrawal(actor, amount)
			if err != nil {
				return resolve(actor, err, "")
			}

			// Mirror the accepted request into the ghost store, reading the maturity back from the vault.
			request, err := ctx.SUT.Request(index)
			if err != nil {
				return nil, errors.Wrapf(err, "accepted request %d not readable", index)
			}
			ctx.Ghost.Append(ghost.Request{Owner: actor, Index: index, MaturityTimestamp: request.MaturityTimestamp})
			return resolve(actor, nil, fmt.Sprintf("%s queued withdrawal #%d of %s shares", actor, index, calls.FormatShares(amount)))
		},
	}
}

// maturedRequests returns the actor's ghost-tracked requests whose maturity has passed.
func maturedRequests(ctx *Context, actor vault.Address) []ghost.Request {
	return utils.SliceWhere(ctx.Ghost.PendingFor(actor), func(r ghost.Request) bool {
		return r.MaturityTimestamp <= ctx.Clock.Now()
	})
}

// claimWithdrawalHandler claims one matured withdrawal request. Requests awaiting vault liquidity decline and
// stay tracked for a later attempt.
func claimWithdrawalHandler() *Handler {
	return &Handler{
		ID:     "claimWithdrawal",
		Weight: 80,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			actor, ok := pickActor(ctx, rng, func(a vault.Address) bool {
				return len(maturedRequests(ctx, a)) > 0
			})
			if !ok {
				return noOp("no matured withdrawal requests"), nil
			}

			matured := maturedRequests(ctx, actor)
			request := matured[rng.Intn(len(matured))]

			paid, err := ctx.SUT.ClaimWithdrawal(actor, request.Index)
			if err != nil {
				return resolve(actor, err, "")
			}
			if err := ctx.Ghost.Remove(actor, request.Index); err != nil {
				return nil, err
			}
			return resolve(actor, nil, fmt.Sprintf("%s claimed withdrawal #%d for %s %s", actor, request.Index, calls.FormatAssets(paid), ctx.Underlying.Symbol()))
		},
	}
}

// claimWithdrawalBatchHandler claims a random subset of an actor's outstanding requests atomically. The subset
// is drawn from a shuffled copy of the actor's tracked requests, and the clock is advanced past the latest
// selected maturity so the batch is claimable on the time axis by construction.
func claimWithdrawalBatchHandler() *Handler {
	return &Handler{
		ID:     "claimWithdrawalBatch",
		Weight: 30,
		Run: func(ctx *Context, rng *rand.Rand) (*Result, error) {
			actor, ok := pickActor(ctx, rng, func(a vault.Address) bool {
				return ctx.Ghost.Count(a) > 0
			})
			if !ok {
				return noOp("no outstanding withdrawal requests"), nil
			}

			pending := ctx.Ghost.PendingFor(actor)
			rng.Shuffle(len(pending), func(i, j int) {
				pending[i], pending[j] = pending[j], pending[i]
			})
			selected := pending[:1+rng.Intn(len(pending))]

			latestMaturity := uint64(0)
			for _, request := range selected {
				latestMaturity = utils.Max(latestMaturity, request.MaturityTimestamp)
			}
			ctx.Clock.AdvanceTo(latestMaturity + 1)

			indices := utils.SliceSelect(selected, func(r ghost.Request) uint64 { return r.Index })

			paid, err := ctx.SUT.ClaimWithdrawalBatch(actor, indices)
			if err != nil {
				return resolve(actor, err, "")
			}
			for _, index := range indices {
				if err := ctx.Ghost.Remove(actor, index); err != nil {
					return nil, err
				}
			}
			return resolve(actor, nil, fmt.Sprintf("%s batch-claimed %d withdrawals for %s %s", actor, len(indices), calls.FormatAssets(paid), ctx.Underlying.Symbol()))
		},
	}
}
