package vault

import (
	"testing"

	"github.com/crytic/charybdis/clock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFixture bundles a vault with its collaborators for direct operation tests.
type testFixture struct {
	clk      *clock.Clock
	asset    *Token
	vault    *Vault
	governor Address
	operator Address
	treasury Address
	alice    Address
	bob      Address
}

// million asset base units at 6 decimals.
func assets(whole uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(whole), uint256.NewInt(1_000_000))
}

func newTestFixture(t *testing.T) *testFixture {
	f := &testFixture{
		clk:      clock.NewClock(1_700_000_000),
		asset:    NewToken("USDC", 6),
		governor: DeriveAddress("test/governor"),
		operator: DeriveAddress("test/operator"),
		treasury: DeriveAddress("test/treasury"),
		alice:    DeriveAddress("test/alice"),
		bob:      DeriveAddress("test/bob"),
	}

	v, err := NewVault(Params{
		Asset:          f.asset,
		Clock:          f.clk,
		Governor:       f.governor,
		Operator:       f.operator,
		Treasury:       f.treasury,
		Dead:           DeriveAddress("test/dead"),
		StrategyCount:  2,
		InitialDeposit: assets(100),
		Config: Config{
			AutoAllocateThreshold: assets(1),
			DripDuration:          24 * 3600,
			MaxSupplyDiff:         uint256.NewInt(100_000_000_000_000_000), // 10%
			RebaseRateCeiling:     Wad(),
			RebaseThreshold:       uint256.NewInt(0),
			TrusteeFeeBps:         1_000, // 10%
			VaultBuffer:           uint256.NewInt(0),
			WithdrawClaimDelay:    60,
		},
	})
	require.NoError(t, err)
	f.vault = v

	f.asset.Mint(f.alice, assets(1_000))
	f.asset.Mint(f.bob, assets(1_000))
	return f
}

// requireRejection asserts the error is a vault rejection carrying the expected code.
func requireRejection(t *testing.T, err error, code RejectionCode) {
	t.Helper()
	require.Error(t, err)
	rejection, ok := err.(*Rejection)
	require.True(t, ok, "expected *Rejection, got %T: %v", err, err)
	assert.Equal(t, code, rejection.Code)
}

func TestDepositMintsScaledShares(t *testing.T) {
	f := newTestFixture(t)

	minted, err := f.vault.Deposit(f.alice, assets(250))
	require.NoError(t, err)

	// 250e6 asset units at 6 decimals become 250e18 claim token units.
	expected := new(uint256.Int).Mul(assets(250), DecimalScale)
	assert.Equal(t, expected, minted)
	assert.Equal(t, expected, f.vault.ShareBalanceOf(f.alice))
	assert.Equal(t, assets(750), f.asset.BalanceOf(f.alice))

	// Supply and value stay closed over the deposit.
	assert.Equal(t, f.vault.TotalValue(), f.vault.TotalSupply())

	_, err = f.vault.Deposit(f.alice, uint256.NewInt(0))
	requireRejection(t, err, RejectionZeroAmount)

	_, err = f.vault.Deposit(f.alice, assets(10_000))
	requireRejection(t, err, RejectionInsufficientBalance)
}

func TestWithdrawalRoundtrip(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(100))
	require.NoError(t, err)

	shareAmount := new(uint256.Int).Mul(assets(40), DecimalScale)
	index, err := f.vault.RequestWithdrawal(f.alice, shareAmount)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), index)

	request, err := f.vault.Request(index)
	require.NoError(t, err)
	assert.Equal(t, f.alice, request.Owner)
	assert.Equal(t, shareAmount, request.Amount)
	assert.Equal(t, f.clk.Now()+60, request.MaturityTimestamp)
	assert.False(t, request.Claimed)

	// Liquidity covers the request so it is claimable immediately, but maturity still gates it.
	meta := f.vault.QueueMetadata()
	assert.Equal(t, shareAmount, meta.Queued)
	assert.Equal(t, shareAmount, meta.Claimable)
	assert.True(t, meta.Claimed.IsZero())

	_, err = f.vault.ClaimWithdrawal(f.alice, index)
	requireRejection(t, err, RejectionMaturityNotReached)

	f.clk.Advance(61)
	paid, err := f.vault.ClaimWithdrawal(f.alice, index)
	require.NoError(t, err)
	assert.Equal(t, assets(40), paid)
	assert.Equal(t, assets(940), f.asset.BalanceOf(f.alice))

	meta = f.vault.QueueMetadata()
	assert.Equal(t, meta.Queued, meta.Claimed)

	_, err = f.vault.ClaimWithdrawal(f.alice, index)
	requireRejection(t, err, RejectionAlreadyClaimed)
	_, err = f.vault.ClaimWithdrawal(f.bob, index)
	requireRejection(t, err, RejectionNotRequestOwner)
	_, err = f.vault.ClaimWithdrawal(f.alice, 99)
	requireRejection(t, err, RejectionUnknownRequest)
}

func TestFullBalanceWithdrawalLeavesZero(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(100))
	require.NoError(t, err)

	balance := f.vault.ShareBalanceOf(f.alice)
	_, err = f.vault.RequestWithdrawal(f.alice, balance)
	require.NoError(t, err)
	assert.True(t, f.vault.ShareBalanceOf(f.alice).IsZero())
}

func TestClaimGatedOnVaultLiquidity(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(100))
	require.NoError(t, err)

	// Drain the vault's raw balance into a strategy before any request exists, so the queue has no
	// liquidity to ratchet against.
	raw := f.vault.RawBalance()
	require.NoError(t, f.vault.DepositToStrategy(f.operator, 0, raw))
	assert.True(t, f.vault.RawBalance().IsZero())

	shareAmount := new(uint256.Int).Mul(assets(50), DecimalScale)
	index, err := f.vault.RequestWithdrawal(f.alice, shareAmount)
	require.NoError(t, err)

	f.clk.Advance(120)
	_, err = f.vault.ClaimWithdrawal(f.alice, index)
	requireRejection(t, err, RejectionInsufficientClaimableLiquidity)

	// Pulling assets back from the strategy makes the request claimable.
	require.NoError(t, f.vault.WithdrawFromStrategy(f.operator, 0, assets(50)))
	paid, err := f.vault.ClaimWithdrawal(f.alice, index)
	require.NoError(t, err)
	assert.Equal(t, assets(50), paid)
}

func TestClaimReserveBlocksStrategyDeposit(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(100))
	require.NoError(t, err)
	_, err = f.vault.RequestWithdrawal(f.alice, new(uint256.Int).Mul(assets(80), DecimalScale))
	require.NoError(t, err)

	// 80 of the 200 raw assets are reserved for the claimable request; moving more than 120 pends.
	err = f.vault.DepositToStrategy(f.operator, 0, assets(150))
	requireRejection(t, err, RejectionPendingLiquidity)
	require.NoError(t, f.vault.DepositToStrategy(f.operator, 0, assets(120)))
}

func TestBatchClaimIsAtomic(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(100))
	require.NoError(t, err)

	shareAmount := new(uint256.Int).Mul(assets(10), DecimalScale)
	first, err := f.vault.RequestWithdrawal(f.alice, shareAmount)
	require.NoError(t, err)
	second, err := f.vault.RequestWithdrawal(f.alice, shareAmount)
	require.NoError(t, err)
	f.clk.Advance(120)

	// One bad index rejects the whole batch without paying the good ones.
	before := f.vault.QueueMetadata()
	_, err = f.vault.ClaimWithdrawalBatch(f.alice, []uint64{first, 42})
	requireRejection(t, err, RejectionUnknownRequest)
	_, err = f.vault.ClaimWithdrawalBatch(f.alice, []uint64{first, first})
	requireRejection(t, err, RejectionAlreadyClaimed)
	assert.Equal(t, before.Claimed, f.vault.QueueMetadata().Claimed)

	paid, err := f.vault.ClaimWithdrawalBatch(f.alice, []uint64{first, second})
	require.NoError(t, err)
	assert.Equal(t, assets(20), paid)
}

func TestRebaseRecognizesYieldWithFee(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(900))
	require.NoError(t, err)

	// Simulate strategy yield and let a full drip window pass.
	strategy, err := f.vault.StrategyAt(0)
	require.NoError(t, err)
	f.asset.Mint(strategy.Addr, assets(10))
	f.clk.Advance(24 * 3600)

	supplyBefore := f.vault.TotalSupply()
	recognized, err := f.vault.Rebase(f.operator)
	require.NoError(t, err)

	// 10 assets of yield are 1% of supply, inside the 10% diff cap, so everything vests.
	expectedYield := new(uint256.Int).Mul(assets(10), DecimalScale)
	assert.Equal(t, expectedYield, recognized)

	supplyAfter := f.vault.TotalSupply()
	assert.Equal(t, new(uint256.Int).Add(supplyBefore, recognized), supplyAfter)
	assert.True(t, supplyAfter.Cmp(f.vault.TotalValue()) <= 0, "supply must not exceed value")

	// Trustee received 10% of the recognized yield. The fee is minted before the supply change, so the
	// treasury rebases along with everyone and lands slightly above the nominal fee.
	expectedFee := new(uint256.Int).Div(expectedYield, uint256.NewInt(10))
	fee := f.vault.ShareBalanceOf(f.treasury)
	assert.True(t, fee.Cmp(expectedFee) >= 0, "fee %s below nominal %s", fee, expectedFee)
	upper := new(uint256.Int).Mul(expectedFee, uint256.NewInt(2))
	assert.True(t, fee.Lt(upper), "fee %s implausibly above nominal %s", fee, expectedFee)
	assert.Equal(t, f.clk.Now(), f.vault.LastRebase())

	// A second rebase with no new yield declines.
	_, err = f.vault.Rebase(f.operator)
	requireRejection(t, err, RejectionBelowThreshold)
}

func TestRebaseCappedBySupplyDiff(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(100))
	require.NoError(t, err)

	// 100 assets of yield against 200 of supply is 50%, far beyond the 10% diff cap.
	f.asset.Mint(f.vault.Address(), assets(100))
	f.clk.Advance(24 * 3600)

	supplyBefore := f.vault.TotalSupply()
	recognized, err := f.vault.Rebase(f.operator)
	require.NoError(t, err)

	cap := new(uint256.Int).Div(supplyBefore, uint256.NewInt(10))
	assert.Equal(t, cap, recognized)
}

func TestRebaseDripsLinearly(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(900))
	require.NoError(t, err)
	f.asset.Mint(f.vault.Address(), assets(10))

	// Half the drip window has passed, so half the yield vests.
	f.clk.Advance(12 * 3600)
	recognized, err := f.vault.Rebase(f.operator)
	require.NoError(t, err)
	expected := new(uint256.Int).Mul(assets(5), DecimalScale)
	assert.Equal(t, expected, recognized)
}

func TestRebaseImmediatelyAfterPreviousVestsNothing(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(900))
	require.NoError(t, err)
	f.asset.Mint(f.vault.Address(), assets(10))

	_, err = f.vault.Rebase(f.operator)
	requireRejection(t, err, RejectionBelowThreshold)
}

func TestAllocateMovesIdleToDefaultStrategy(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(f.alice, assets(400))
	require.NoError(t, err)

	allocated, err := f.vault.Allocate(f.operator)
	require.NoError(t, err)
	assert.Equal(t, assets(500), allocated)

	balance, err := f.vault.StrategyBalance(0)
	require.NoError(t, err)
	assert.Equal(t, assets(500), balance)

	// Nothing idle remains.
	_, err = f.vault.Allocate(f.operator)
	requireRejection(t, err, RejectionBelowThreshold)
}

func TestAllocateHonorsBuffer(t *testing.T) {
	f := newTestFixture(t)

	// Keep half of gross assets in the vault.
	half := new(uint256.Int).Div(Wad(), uint256.NewInt(2))
	require.NoError(t, f.vault.SetVaultBuffer(f.governor, half))

	_, err := f.vault.Deposit(f.alice, assets(100))
	require.NoError(t, err)

	allocated, err := f.vault.Allocate(f.operator)
	require.NoError(t, err)
	assert.Equal(t, assets(100), allocated)
	assert.Equal(t, assets(100), f.vault.RawBalance())
}

func TestStrategyDrain(t *testing.T) {
	f := newTestFixture(t)

	require.NoError(t, f.vault.DepositToStrategy(f.operator, 0, assets(30)))
	require.NoError(t, f.vault.DepositToStrategy(f.operator, 1, assets(20)))

	drained, err := f.vault.WithdrawAllFromStrategies(f.operator)
	require.NoError(t, err)
	assert.Equal(t, assets(50), drained)
	assert.Equal(t, assets(100), f.vault.RawBalance())

	err = f.vault.DepositToStrategy(f.operator, 5, assets(1))
	requireRejection(t, err, RejectionUnknownStrategy)
}

func TestConfigSetterRanges(t *testing.T) {
	f := newTestFixture(t)

	requireRejection(t, f.vault.SetTrusteeFee(f.governor, 5_001), RejectionInvalidConfiguration)
	require.NoError(t, f.vault.SetTrusteeFee(f.governor, 5_000))

	requireRejection(t, f.vault.SetDripDuration(f.governor, 0), RejectionInvalidConfiguration)
	requireRejection(t, f.vault.SetDripDuration(f.governor, MaxDripDuration+1), RejectionInvalidConfiguration)
	require.NoError(t, f.vault.SetDripDuration(f.governor, MaxDripDuration))

	over := new(uint256.Int).AddUint64(Wad(), 1)
	requireRejection(t, f.vault.SetMaxSupplyDiff(f.governor, over), RejectionInvalidConfiguration)
	requireRejection(t, f.vault.SetRebaseRateCeiling(f.governor, over), RejectionInvalidConfiguration)
	requireRejection(t, f.vault.SetVaultBuffer(f.governor, over), RejectionInvalidConfiguration)
	requireRejection(t, f.vault.SetWithdrawClaimDelay(f.governor, MaxWithdrawClaimDelay+1), RejectionInvalidConfiguration)

	require.NoError(t, f.vault.SetRebaseThreshold(f.governor, Wad()))
	require.NoError(t, f.vault.SetAutoAllocateThreshold(f.governor, assets(5)))

	config := f.vault.Config()
	assert.Equal(t, uint64(5_000), config.TrusteeFeeBps)
	assert.Equal(t, uint64(MaxDripDuration), config.DripDuration)
}

func TestRoleChecks(t *testing.T) {
	f := newTestFixture(t)

	requireRejection(t, f.vault.SetTrusteeFee(f.alice, 100), RejectionUnauthorized)
	requireRejection(t, f.vault.SetTrusteeFee(f.operator, 100), RejectionUnauthorized)
	_, err := f.vault.Allocate(f.alice)
	requireRejection(t, err, RejectionUnauthorized)

	// The governor also holds the operator powers.
	require.NoError(t, f.vault.DepositToStrategy(f.governor, 0, assets(10)))
}

func TestNewVaultRejectsBadConfig(t *testing.T) {
	f := newTestFixture(t)

	config := f.vault.Config()
	config.TrusteeFeeBps = 9_999
	_, err := NewVault(Params{
		Asset:          f.asset,
		Clock:          f.clk,
		Governor:       f.governor,
		Operator:       f.operator,
		Treasury:       f.treasury,
		Dead:           DeriveAddress("test/dead"),
		StrategyCount:  1,
		InitialDeposit: assets(1),
		Config:         config,
	})
	requireRejection(t, err, RejectionInvalidConfiguration)
}
