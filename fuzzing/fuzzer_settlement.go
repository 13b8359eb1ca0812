package fuzzing

import (
	"github.com/crytic/charybdis/fuzzing/ghost"
	"github.com/crytic/charybdis/vault"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// settlementRebaseRounds bounds the drip cycles run while recognizing residual yield during settlement.
const settlementRebaseRounds = 8

// isSettlementDecline reports whether the error is a rejection settlement may legitimately receive.
func isSettlementDecline(err error) bool {
	rejection, ok := err.(*vault.Rejection)
	return ok && rejection.Code == vault.RejectionBelowThreshold
}

// settleEnvironment runs the post-sequence liquidation check: it widens the vault's configuration, drains the
// strategies, recognizes residual yield, queues a full withdrawal for every user actor, and claims the entire
// queue. A healthy vault must fully pay out; anything left stuck indicates a liveness bug the per-call oracle
// cannot see.
func settleEnvironment(env *environment) error {
	governor := env.registry.Governor

	// Widen the configuration so nothing throttles the wind-down.
	if err := env.vault.SetVaultBuffer(governor, uint256.NewInt(0)); err != nil {
		return errors.Wrap(err, "settlement could not clear vault buffer")
	}
	if err := env.vault.SetRebaseThreshold(governor, uint256.NewInt(0)); err != nil {
		return errors.Wrap(err, "settlement could not clear rebase threshold")
	}
	if err := env.vault.SetWithdrawClaimDelay(governor, 0); err != nil {
		return errors.Wrap(err, "settlement could not clear withdraw claim delay")
	}
	if err := env.vault.SetMaxSupplyDiff(governor, vault.Wad()); err != nil {
		return errors.Wrap(err, "settlement could not widen max supply diff")
	}
	if err := env.vault.SetRebaseRateCeiling(governor, vault.Wad()); err != nil {
		return errors.Wrap(err, "settlement could not widen rebase rate ceiling")
	}
	if err := env.vault.SetDripDuration(governor, vault.MinDripDuration); err != nil {
		return errors.Wrap(err, "settlement could not shorten drip duration")
	}

	// Pull every asset back into the vault and recognize whatever yield remains.
	if _, err := env.vault.WithdrawAllFromStrategies(governor); err != nil {
		return errors.Wrap(err, "settlement could not drain strategies")
	}
	for i := 0; i < settlementRebaseRounds; i++ {
		env.clk.Advance(vault.MinDripDuration)
		if _, err := env.vault.Rebase(governor); err != nil {
			if isSettlementDecline(err) {
				break
			}
			return errors.Wrap(err, "settlement rebase failed")
		}
	}

	// Queue a full-balance withdrawal for every user actor still holding claim tokens.
	for _, actor := range env.registry.All() {
		balance := env.vault.ShareBalanceOf(actor)
		if balance.IsZero() {
			continue
		}
		index, err := env.vault.RequestWithdrawal(actor, balance)
		if err != nil {
			return errors.Wrapf(err, "settlement could not queue full withdrawal for %s", actor)
		}
		request, err := env.vault.Request(index)
		if err != nil {
			return errors.Wrapf(err, "settlement request %d not readable", index)
		}
		env.ghostStore.Append(ghost.Request{Owner: actor, Index: index, MaturityTimestamp: request.MaturityTimestamp})
	}

	// Outstanding requests from the sequence may carry maturities up to the maximum claim delay out.
	env.clk.Advance(vault.MaxWithdrawClaimDelay + 1)

	// Claim the whole queue, owner by owner.
	for _, owner := range env.ghostStore.Owners() {
		pending := env.ghostStore.PendingFor(owner)
		indices := make([]uint64, 0, len(pending))
		for _, request := range pending {
			indices = append(indices, request.Index)
		}
		if _, err := env.vault.ClaimWithdrawalBatch(owner, indices); err != nil {
			return errors.Wrapf(err, "settlement could not claim queue for %s", owner)
		}
		for _, index := range indices {
			if err := env.ghostStore.Remove(owner, index); err != nil {
				return err
			}
		}
	}

	// The queue must be fully drained and every user actor paid out.
	meta := env.vault.QueueMetadata()
	if !meta.Queued.Eq(meta.Claimed) || !meta.Claimable.Eq(meta.Claimed) {
		return errors.Errorf("settlement left the queue undrained: queued %s, claimable %s, claimed %s", meta.Queued, meta.Claimable, meta.Claimed)
	}
	if env.ghostStore.TotalCount() != 0 {
		return errors.Errorf("settlement left %d tracked requests unclaimed", env.ghostStore.TotalCount())
	}
	for _, actor := range env.registry.All() {
		if balance := env.vault.ShareBalanceOf(actor); !balance.IsZero() {
			return errors.Errorf("settlement left actor %s holding %s claim token units", actor, balance)
		}
	}
	return nil
}
