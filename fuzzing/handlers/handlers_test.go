package handlers

import (
	"math/rand"
	"testing"

	"github.com/crytic/charybdis/clock"
	"github.com/crytic/charybdis/fuzzing/actors"
	"github.com/crytic/charybdis/fuzzing/calls"
	"github.com/crytic/charybdis/fuzzing/ghost"
	"github.com/crytic/charybdis/vault"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHandlerContext builds a live vault context with funded actors.
func newHandlerContext(t *testing.T) *Context {
	t.Helper()
	clk := clock.NewClock(1_700_000_000)
	asset := vault.NewToken("USDC", 6)
	registry := actors.NewRegistry(4)

	v, err := vault.NewVault(vault.Params{
		Asset:          asset,
		Clock:          clk,
		Governor:       registry.Governor,
		Operator:       registry.Operator,
		Treasury:       registry.Treasury,
		Dead:           registry.Dead,
		StrategyCount:  3,
		InitialDeposit: uint256.NewInt(100_000_000),
		Config: vault.Config{
			AutoAllocateThreshold: uint256.NewInt(1_000_000),
			DripDuration:          24 * 3600,
			MaxSupplyDiff:         uint256.NewInt(100_000_000_000_000_000),
			RebaseRateCeiling:     vault.Wad(),
			RebaseThreshold:       uint256.NewInt(0),
			TrusteeFeeBps:         1_000,
			VaultBuffer:           uint256.NewInt(0),
			WithdrawClaimDelay:    3_600,
		},
	})
	require.NoError(t, err)

	for _, actor := range registry.All() {
		asset.Mint(actor, uint256.NewInt(10_000_000_000))
	}

	return &Context{
		SUT:          v,
		VaultAddress: v.Address(),
		Underlying:   asset,
		Actors:       registry,
		Ghost:        ghost.NewStore(),
		Clock:        clk,
	}
}

func TestEveryHandlerRunsCleanly(t *testing.T) {
	ctx := newHandlerContext(t)
	rng := rand.New(rand.NewSource(42))

	// Interleave every handler repeatedly; no call may surface an unexpected error.
	handlers := All()
	for round := 0; round < 50; round++ {
		for _, handler := range handlers {
			result, err := handler.Run(ctx, rng)
			require.NoError(t, err, "handler %s round %d", handler.ID, round)
			require.NotNil(t, result, "handler %s round %d", handler.ID, round)
		}
	}
}

func TestHandlerDeterminism(t *testing.T) {
	run := func() []string {
		ctx := newHandlerContext(t)
		var summaries []string
		for i, handler := range All() {
			rng := rand.New(rand.NewSource(int64(1000 + i)))
			result, err := handler.Run(ctx, rng)
			require.NoError(t, err)
			summaries = append(summaries, handler.ID+": "+result.Summary)
		}
		return summaries
	}
	assert.Equal(t, run(), run())
}

func TestDepositHandlerMovesAssets(t *testing.T) {
	ctx := newHandlerContext(t)
	rng := rand.New(rand.NewSource(7))

	before := ctx.SUT.RawBalance()
	result, err := depositHandler().Run(ctx, rng)
	require.NoError(t, err)
	require.Equal(t, calls.OutcomeSuccess, result.Outcome)
	assert.True(t, ctx.SUT.RawBalance().Gt(before))
	assert.False(t, ctx.SUT.ShareBalanceOf(result.Actor).IsZero())
}

func TestWithdrawalHandlersKeepGhostInSync(t *testing.T) {
	ctx := newHandlerContext(t)
	rng := rand.New(rand.NewSource(11))

	// Seed deposits so requests have something to burn.
	for i := 0; i < 4; i++ {
		_, err := depositHandler().Run(ctx, rng)
		require.NoError(t, err)
	}

	requested := 0
	for i := 0; i < 6; i++ {
		result, err := requestWithdrawalHandler().Run(ctx, rng)
		require.NoError(t, err)
		if result.Outcome == calls.OutcomeSuccess {
			requested++
		}
	}
	require.Equal(t, requested, ctx.Ghost.TotalCount())

	// Nothing matured yet, so the claim handler no-ops.
	result, err := claimWithdrawalHandler().Run(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, calls.OutcomeNoOp, result.Outcome)

	ctx.Clock.Advance(3_601)
	for ctx.Ghost.TotalCount() > 0 {
		result, err = claimWithdrawalHandler().Run(ctx, rng)
		require.NoError(t, err)
		require.Equal(t, calls.OutcomeSuccess, result.Outcome)
	}

	meta := ctx.SUT.QueueMetadata()
	assert.Equal(t, meta.Queued, meta.Claimed)
}

// seedRequests queues count withdrawal requests for the actor, mirroring each into the ghost store.
func seedRequests(t *testing.T, ctx *Context, actor vault.Address, count int) {
	t.Helper()
	_, err := ctx.SUT.Deposit(actor, uint256.NewInt(10_000_000))
	require.NoError(t, err)

	slice := new(uint256.Int).Div(ctx.SUT.ShareBalanceOf(actor), uint256.NewInt(uint64(count+1)))
	for i := 0; i < count; i++ {
		index, err := ctx.SUT.RequestWithdrawal(actor, slice)
		require.NoError(t, err)
		request, err := ctx.SUT.Request(index)
		require.NoError(t, err)
		ctx.Ghost.Append(ghost.Request{Owner: actor, Index: index, MaturityTimestamp: request.MaturityTimestamp})
	}
}

func TestBatchClaimAdvancesClockForUnmaturedRequests(t *testing.T) {
	ctx := newHandlerContext(t)
	actor := ctx.Actors.ActorAt(0)
	seedRequests(t, ctx, actor, 3)

	// All three requests mature at now + 3600; the handler must jump past the latest one rather than no-op.
	result, err := claimWithdrawalBatchHandler().Run(ctx, rand.New(rand.NewSource(17)))
	require.NoError(t, err)
	require.Equal(t, calls.OutcomeSuccess, result.Outcome)
	assert.Equal(t, uint64(1_700_003_601), ctx.Clock.Now())
	assert.Less(t, ctx.Ghost.Count(actor), 3)
}

func TestBatchClaimSelectsNonPrefixSubsets(t *testing.T) {
	// A shuffled draw must eventually claim the newest request while leaving an older one outstanding.
	sawNonPrefix := false
	for trial := 0; trial < 200 && !sawNonPrefix; trial++ {
		ctx := newHandlerContext(t)
		actor := ctx.Actors.ActorAt(0)
		seedRequests(t, ctx, actor, 5)

		result, err := claimWithdrawalBatchHandler().Run(ctx, rand.New(rand.NewSource(int64(5000+trial))))
		require.NoError(t, err)
		require.Equal(t, calls.OutcomeSuccess, result.Outcome)

		remaining := make(map[uint64]bool)
		for _, request := range ctx.Ghost.PendingFor(actor) {
			remaining[request.Index] = true
		}
		if !remaining[4] {
			for index := uint64(0); index < 4; index++ {
				if remaining[index] {
					sawNonPrefix = true
					break
				}
			}
		}
	}
	assert.True(t, sawNonPrefix, "batch claims only ever drew prefixes of the request list")
}

func TestRebaseHandlerDeclinesWithoutYield(t *testing.T) {
	ctx := newHandlerContext(t)
	rng := rand.New(rand.NewSource(3))

	result, err := rebaseHandler().Run(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, calls.OutcomeDeclined, result.Outcome)

	// Yield plus a drip window turns the decline into a success.
	_, err = yieldToVaultHandler().Run(ctx, rng)
	require.NoError(t, err)
	ctx.Clock.Advance(24 * 3600)
	result, err = rebaseHandler().Run(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, calls.OutcomeSuccess, result.Outcome)
}

func TestByID(t *testing.T) {
	handler, err := ByID("deposit")
	require.NoError(t, err)
	assert.Equal(t, "deposit", handler.ID)

	_, err = ByID("nonsense")
	assert.Error(t, err)
}
