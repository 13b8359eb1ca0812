// Package vault implements the reference system under test driven by the fuzzing harness: a rebasing vault which
// accepts deposits of an underlying asset, issues rebasing claim tokens, queues asynchronous withdrawals behind a
// claim delay, allocates idle capital to yield strategies, and periodically recognizes accrued yield through a
// dripped rebase with a trustee fee.
package vault

import (
	"fmt"

	"github.com/crytic/charybdis/clock"
	"github.com/holiman/uint256"
)

const (
	// BpsDenominator is the denominator used for basis point fee math.
	BpsDenominator = 10_000

	// MaxTrusteeFeeBps is the highest trustee fee the vault accepts (50%).
	MaxTrusteeFeeBps = 5_000

	// MinDripDuration is the shortest accepted drip duration, in seconds.
	MinDripDuration = 1

	// MaxDripDuration is the longest accepted drip duration (7 days), in seconds.
	MaxDripDuration = 7 * 24 * 3600

	// MaxWithdrawClaimDelay is the longest accepted withdrawal claim delay (30 days), in seconds.
	MaxWithdrawClaimDelay = 30 * 24 * 3600

	// secondsPerDay scales the rebase rate ceiling, which is expressed as a wad fraction per day.
	secondsPerDay = 24 * 3600
)

// DecimalScale converts underlying asset base units (6 decimals) to claim token units (18 decimals).
var DecimalScale = uint256.NewInt(1_000_000_000_000)

// Wad returns the fixed-point base (1e18) used for fraction-valued configuration.
func Wad() *uint256.Int {
	return new(uint256.Int).Set(wadUnit)
}

// Config holds the vault's governor-tunable parameters. Each field documents its closed valid range; setters
// reject out-of-range values with RejectionInvalidConfiguration.
type Config struct {
	// AutoAllocateThreshold is the minimum idle asset amount (base units) Allocate will move. Any value.
	AutoAllocateThreshold *uint256.Int

	// DripDuration is the vesting window for recognized yield, in seconds. Range [1, 7 days].
	DripDuration uint64

	// MaxSupplyDiff caps the supply growth of a single rebase as a wad fraction of supply. Range [0, 1e18].
	MaxSupplyDiff *uint256.Int

	// RebaseRateCeiling caps recognized yield as a wad fraction of supply per day. Range [0, 1e18].
	RebaseRateCeiling *uint256.Int

	// RebaseThreshold is the minimum unrecognized yield (claim token units) required to rebase. Any value.
	RebaseThreshold *uint256.Int

	// TrusteeFeeBps is the trustee's cut of recognized yield in basis points. Range [0, 5000].
	TrusteeFeeBps uint64

	// VaultBuffer is the wad fraction of total assets kept out of strategies. Range [0, 1e18].
	VaultBuffer *uint256.Int

	// WithdrawClaimDelay is the maturity delay applied to withdrawal requests, in seconds. Range [0, 30 days].
	WithdrawClaimDelay uint64
}

// clone returns a deep copy of the configuration.
func (c Config) clone() Config {
	return Config{
		AutoAllocateThreshold: new(uint256.Int).Set(c.AutoAllocateThreshold),
		DripDuration:          c.DripDuration,
		MaxSupplyDiff:         new(uint256.Int).Set(c.MaxSupplyDiff),
		RebaseRateCeiling:     new(uint256.Int).Set(c.RebaseRateCeiling),
		RebaseThreshold:       new(uint256.Int).Set(c.RebaseThreshold),
		TrusteeFeeBps:         c.TrusteeFeeBps,
		VaultBuffer:           new(uint256.Int).Set(c.VaultBuffer),
		WithdrawClaimDelay:    c.WithdrawClaimDelay,
	}
}

// validate checks every configuration field against its documented range.
func (c Config) validate() error {
	if c.DripDuration < MinDripDuration || c.DripDuration > MaxDripDuration {
		return NewRejection(RejectionInvalidConfiguration, "drip duration %d outside [%d, %d]", c.DripDuration, MinDripDuration, MaxDripDuration)
	}
	if c.MaxSupplyDiff.Gt(wadUnit) {
		return NewRejection(RejectionInvalidConfiguration, "max supply diff %s exceeds 1e18", c.MaxSupplyDiff)
	}
	if c.RebaseRateCeiling.Gt(wadUnit) {
		return NewRejection(RejectionInvalidConfiguration, "rebase rate ceiling %s exceeds 1e18", c.RebaseRateCeiling)
	}
	if c.TrusteeFeeBps > MaxTrusteeFeeBps {
		return NewRejection(RejectionInvalidConfiguration, "trustee fee %d bps exceeds maximum %d", c.TrusteeFeeBps, MaxTrusteeFeeBps)
	}
	if c.VaultBuffer.Gt(wadUnit) {
		return NewRejection(RejectionInvalidConfiguration, "vault buffer %s exceeds 1e18", c.VaultBuffer)
	}
	if c.WithdrawClaimDelay > MaxWithdrawClaimDelay {
		return NewRejection(RejectionInvalidConfiguration, "withdraw claim delay %d exceeds maximum %d", c.WithdrawClaimDelay, MaxWithdrawClaimDelay)
	}
	return nil
}

// WithdrawalRequest describes one entry of the asynchronous withdrawal queue.
type WithdrawalRequest struct {
	// Owner is the account which burned claim tokens to create the request.
	Owner Address

	// Amount is the claim token amount queued by this request.
	Amount *uint256.Int

	// CumulativeQueued is the queue's total queued counter immediately after this request was appended. It is
	// non-decreasing across the queue and is the value claims are gated against.
	CumulativeQueued *uint256.Int

	// MaturityTimestamp is the earliest timestamp at which the request can be claimed.
	MaturityTimestamp uint64

	// Claimed indicates whether the request was paid out.
	Claimed bool
}

// clone returns a deep copy of the request.
func (r *WithdrawalRequest) clone() *WithdrawalRequest {
	return &WithdrawalRequest{
		Owner:             r.Owner,
		Amount:            new(uint256.Int).Set(r.Amount),
		CumulativeQueued:  new(uint256.Int).Set(r.CumulativeQueued),
		MaturityTimestamp: r.MaturityTimestamp,
		Claimed:           r.Claimed,
	}
}

// QueueMetadata is the withdrawal queue's counter tuple. All three amount counters are monotonically
// non-decreasing and satisfy claimed <= claimable <= queued.
type QueueMetadata struct {
	// Queued is the total claim token amount ever requested for withdrawal.
	Queued *uint256.Int

	// Claimable is the portion of Queued covered by liquidity and eligible for claiming (maturity permitting).
	Claimable *uint256.Int

	// Claimed is the portion of Claimable already paid out.
	Claimed *uint256.Int

	// NextIndex is the index the next withdrawal request will be assigned.
	NextIndex uint64
}

// Strategy identifies a yield strategy sub-account. Strategies hold underlying asset at their own address.
type Strategy struct {
	// Name is a short display label.
	Name string

	// Addr is the asset-holding address of the strategy.
	Addr Address
}

// Params bundles the collaborators and initial state needed to construct a Vault.
type Params struct {
	// Asset is the underlying asset token mock.
	Asset *Token

	// Clock is the read-only simulated time source.
	Clock clock.Reader

	// Governor may change configuration. Operator may move capital. Treasury receives trustee fees. Dead holds
	// the genesis deposit so supply never reaches zero.
	Governor Address
	Operator Address
	Treasury Address
	Dead     Address

	// StrategyCount is the number of strategy sub-accounts to create. The first is the default allocation target.
	StrategyCount int

	// InitialDeposit is the genesis asset amount (base units) seeded into the vault and credited to Dead.
	InitialDeposit *uint256.Int

	// Config is the initial configuration.
	Config Config
}

// Vault is the reference implementation of the ledger system under test.
type Vault struct {
	address    Address
	governor   Address
	operator   Address
	treasury   Address
	dead       Address
	asset      *Token
	shares     *RebasingToken
	clk        clock.Reader
	strategies []Strategy
	config     Config

	// Withdrawal queue state.
	queued    *uint256.Int
	claimable *uint256.Int
	claimed   *uint256.Int
	requests  []*WithdrawalRequest

	// lastRebase is the timestamp of the most recent successful rebase (or genesis).
	lastRebase uint64
}

// NewVault constructs a Vault from the provided parameters, creating its strategies and seeding the genesis
// deposit. Returns an error if the initial configuration is out of range.
func NewVault(params Params) (*Vault, error) {
	if err := params.Config.validate(); err != nil {
		return nil, err
	}
	if params.StrategyCount <= 0 {
		return nil, NewRejection(RejectionInvalidConfiguration, "strategy count must be positive")
	}

	v := &Vault{
		address:    DeriveAddress("charybdis/vault"),
		governor:   params.Governor,
		operator:   params.Operator,
		treasury:   params.Treasury,
		dead:       params.Dead,
		asset:      params.Asset,
		shares:     NewRebasingToken(),
		clk:        params.Clock,
		config:     params.Config.clone(),
		queued:     uint256.NewInt(0),
		claimable:  uint256.NewInt(0),
		claimed:    uint256.NewInt(0),
		requests:   make([]*WithdrawalRequest, 0),
		lastRebase: params.Clock.Now(),
	}

	for i := 0; i < params.StrategyCount; i++ {
		v.strategies = append(v.strategies, Strategy{
			Name: fmt.Sprintf("strategy-%d", i),
			Addr: DeriveAddress(fmt.Sprintf("charybdis/strategy/%d", i)),
		})
	}

	// Genesis deposit: seed assets into the vault and credit the claim tokens to the dead sink so the rebasing
	// supply never reaches zero during a campaign.
	if params.InitialDeposit != nil && !params.InitialDeposit.IsZero() {
		v.asset.Mint(v.address, params.InitialDeposit)
		v.shares.Mint(v.dead, scaleUp(params.InitialDeposit))
	}
	return v, nil
}

// scaleUp converts asset base units to claim token units.
func scaleUp(assets *uint256.Int) *uint256.Int {
	return new(uint256.Int).Mul(assets, DecimalScale)
}

// scaleDown converts claim token units to asset base units, truncating.
func scaleDown(shares *uint256.Int) *uint256.Int {
	return new(uint256.Int).Div(shares, DecimalScale)
}

// scaleDownCeil converts claim token units to asset base units, rounding up.
func scaleDownCeil(shares *uint256.Int) *uint256.Int {
	down := new(uint256.Int).Div(shares, DecimalScale)
	if !new(uint256.Int).Mod(shares, DecimalScale).IsZero() {
		down.AddUint64(down, 1)
	}
	return down
}

// Address returns the vault's own asset-holding address.
func (v *Vault) Address() Address {
	return v.address
}

// TotalSupply returns the total issued claim token supply.
func (v *Vault) TotalSupply() *uint256.Int {
	return v.shares.TotalSupply()
}

// ShareBalanceOf returns the claim token balance of the provided account.
func (v *Vault) ShareBalanceOf(account Address) *uint256.Int {
	return v.shares.BalanceOf(account)
}

// RawBalance returns the underlying asset held directly by the vault, in base units.
func (v *Vault) RawBalance() *uint256.Int {
	return v.asset.BalanceOf(v.address)
}

// StrategyCount returns the number of configured strategies.
func (v *Vault) StrategyCount() int {
	return len(v.strategies)
}

// StrategyAt returns the strategy descriptor at the provided index.
func (v *Vault) StrategyAt(index int) (Strategy, error) {
	if index < 0 || index >= len(v.strategies) {
		return Strategy{}, NewRejection(RejectionUnknownStrategy, "strategy index %d out of range", index)
	}
	return v.strategies[index], nil
}

// StrategyBalance returns the underlying asset held by the strategy at the provided index, in base units.
func (v *Vault) StrategyBalance(index int) (*uint256.Int, error) {
	strategy, err := v.StrategyAt(index)
	if err != nil {
		return nil, err
	}
	return v.asset.BalanceOf(strategy.Addr), nil
}

// grossAssets returns the vault's directly-held plus strategy-held asset, in base units.
func (v *Vault) grossAssets() *uint256.Int {
	total := v.RawBalance()
	for _, strategy := range v.strategies {
		total.Add(total, v.asset.BalanceOf(strategy.Addr))
	}
	return total
}

// TotalValue returns the vault's total reported value in claim token units: gross assets scaled up, minus the
// outstanding (queued but unclaimed) withdrawal liability whose claim tokens were already burned.
func (v *Vault) TotalValue() *uint256.Int {
	gross := scaleUp(v.grossAssets())
	outstanding := new(uint256.Int).Sub(v.queued, v.claimed)
	if gross.Lt(outstanding) {
		// Outstanding liability exceeding assets indicates corrupted accounting; report zero value so the
		// solvency property trips rather than wrap around.
		return uint256.NewInt(0)
	}
	return gross.Sub(gross, outstanding)
}

// QueueMetadata returns a copy of the withdrawal queue counter tuple.
func (v *Vault) QueueMetadata() QueueMetadata {
	return QueueMetadata{
		Queued:    new(uint256.Int).Set(v.queued),
		Claimable: new(uint256.Int).Set(v.claimable),
		Claimed:   new(uint256.Int).Set(v.claimed),
		NextIndex: uint64(len(v.requests)),
	}
}

// Request returns a copy of the withdrawal request at the provided index.
func (v *Vault) Request(index uint64) (*WithdrawalRequest, error) {
	if index >= uint64(len(v.requests)) {
		return nil, NewRejection(RejectionUnknownRequest, "request index %d beyond frontier %d", index, len(v.requests))
	}
	return v.requests[index].clone(), nil
}

// LastRebase returns the timestamp of the most recent successful rebase.
func (v *Vault) LastRebase() uint64 {
	return v.lastRebase
}

// Config returns a copy of the current configuration.
func (v *Vault) Config() Config {
	return v.config.clone()
}

// refreshClaimable ratchets the claimable counter up to the portion of the queue covered by current vault
// liquidity. The counter never decreases.
func (v *Vault) refreshClaimable() {
	cover := new(uint256.Int).Add(v.claimed, scaleUp(v.RawBalance()))
	if cover.Gt(v.queued) {
		cover = new(uint256.Int).Set(v.queued)
	}
	if cover.Gt(v.claimable) {
		v.claimable = cover
	}
}

// claimReserve returns the asset base units which must stay in the vault to honor claimable-but-unclaimed
// withdrawal requests.
func (v *Vault) claimReserve() *uint256.Int {
	return scaleDownCeil(new(uint256.Int).Sub(v.claimable, v.claimed))
}

// Deposit pulls assets (base units) from the caller and mints the scaled claim token amount to them.
// Returns the minted claim token amount.
func (v *Vault) Deposit(caller Address, assets *uint256.Int) (*uint256.Int, error) {
	if assets.IsZero() {
		return nil, NewRejection(RejectionZeroAmount, "deposit of zero assets")
	}
	if err := v.asset.Transfer(caller, v.address, assets); err != nil {
		return nil, err
	}
	minted := scaleUp(assets)
	v.shares.Mint(caller, minted)
	v.refreshClaimable()
	return minted, nil
}

// RequestWithdrawal burns the caller's claim tokens and appends a withdrawal request maturing after the
// configured claim delay. Returns the assigned request index.
func (v *Vault) RequestWithdrawal(caller Address, shareAmount *uint256.Int) (uint64, error) {
	if shareAmount.IsZero() {
		return 0, NewRejection(RejectionZeroAmount, "withdrawal request of zero")
	}
	if err := v.shares.Burn(caller, shareAmount); err != nil {
		return 0, err
	}

	v.queued = new(uint256.Int).Add(v.queued, shareAmount)
	request := &WithdrawalRequest{
		Owner:             caller,
		Amount:            new(uint256.Int).Set(shareAmount),
		CumulativeQueued:  new(uint256.Int).Set(v.queued),
		MaturityTimestamp: v.clk.Now() + v.config.WithdrawClaimDelay,
	}
	v.requests = append(v.requests, request)
	v.refreshClaimable()
	return uint64(len(v.requests) - 1), nil
}

// checkClaim validates a single claim without mutating state.
func (v *Vault) checkClaim(caller Address, index uint64) (*WithdrawalRequest, error) {
	if index >= uint64(len(v.requests)) {
		return nil, NewRejection(RejectionUnknownRequest, "request index %d beyond frontier %d", index, len(v.requests))
	}
	request := v.requests[index]
	if request.Owner != caller {
		return nil, NewRejection(RejectionNotRequestOwner, "request %d owned by %s, not %s", index, request.Owner, caller)
	}
	if request.Claimed {
		return nil, NewRejection(RejectionAlreadyClaimed, "request %d already claimed", index)
	}
	if v.clk.Now() < request.MaturityTimestamp {
		return nil, NewRejection(RejectionMaturityNotReached, "request %d matures at %d, now %d", index, request.MaturityTimestamp, v.clk.Now())
	}
	if request.CumulativeQueued.Gt(v.claimable) {
		return nil, NewRejection(RejectionInsufficientClaimableLiquidity, "request %d needs claimable %s, have %s", index, request.CumulativeQueued, v.claimable)
	}
	return request, nil
}

// payClaim applies a validated claim: marks the request claimed, advances the claimed counter, and pays the
// truncated asset amount to the owner.
func (v *Vault) payClaim(request *WithdrawalRequest) (*uint256.Int, error) {
	payout := scaleDown(request.Amount)
	request.Claimed = true
	v.claimed = new(uint256.Int).Add(v.claimed, request.Amount)
	if err := v.asset.Transfer(v.address, request.Owner, payout); err != nil {
		return nil, err
	}
	v.refreshClaimable()
	return payout, nil
}

// ClaimWithdrawal pays out a single matured, claimable withdrawal request.
// Returns the asset base units paid.
func (v *Vault) ClaimWithdrawal(caller Address, index uint64) (*uint256.Int, error) {
	request, err := v.checkClaim(caller, index)
	if err != nil {
		return nil, err
	}
	return v.payClaim(request)
}

// ClaimWithdrawalBatch pays out several withdrawal requests atomically: every index is validated before any is
// paid, so a rejection leaves the queue untouched. Returns the total asset base units paid.
func (v *Vault) ClaimWithdrawalBatch(caller Address, indices []uint64) (*uint256.Int, error) {
	if len(indices) == 0 {
		return nil, NewRejection(RejectionZeroAmount, "empty claim batch")
	}

	// Validate every index up front, rejecting duplicates within the batch.
	seen := make(map[uint64]struct{}, len(indices))
	requests := make([]*WithdrawalRequest, 0, len(indices))
	for _, index := range indices {
		if _, duplicate := seen[index]; duplicate {
			return nil, NewRejection(RejectionAlreadyClaimed, "request %d duplicated in batch", index)
		}
		seen[index] = struct{}{}
		request, err := v.checkClaim(caller, index)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	total := uint256.NewInt(0)
	for _, request := range requests {
		payout, err := v.payClaim(request)
		if err != nil {
			return nil, err
		}
		total.Add(total, payout)
	}
	return total, nil
}

// Rebase recognizes yield accrued since the last rebase: the difference between total value and issued supply,
// vested linearly across the drip duration and capped by the max supply diff and the rate ceiling. The trustee
// fee portion is minted to the treasury before the proportional supply change.
// Returns the recognized claim token amount.
func (v *Vault) Rebase(caller Address) (*uint256.Int, error) {
	supply := v.shares.TotalSupply()
	value := v.TotalValue()
	if !value.Gt(supply) {
		return nil, NewRejection(RejectionBelowThreshold, "no unrecognized yield (supply %s, value %s)", supply, value)
	}
	yield := new(uint256.Int).Sub(value, supply)
	if yield.Lt(v.config.RebaseThreshold) {
		return nil, NewRejection(RejectionBelowThreshold, "yield %s below rebase threshold %s", yield, v.config.RebaseThreshold)
	}

	// Vest the yield linearly across the drip duration.
	elapsed := v.clk.Now() - v.lastRebase
	recognized := new(uint256.Int).Set(yield)
	if elapsed < v.config.DripDuration {
		recognized.Mul(recognized, uint256.NewInt(elapsed))
		recognized.Div(recognized, uint256.NewInt(v.config.DripDuration))
	}

	// Cap by the max supply diff fraction.
	diffCap := new(uint256.Int).Mul(supply, v.config.MaxSupplyDiff)
	diffCap.Div(diffCap, wadUnit)
	if recognized.Gt(diffCap) {
		recognized = diffCap
	}

	// Cap by the per-day rate ceiling, scaled by elapsed time.
	rateCap := new(uint256.Int).Mul(supply, v.config.RebaseRateCeiling)
	rateCap.Div(rateCap, wadUnit)
	rateCap.Mul(rateCap, uint256.NewInt(elapsed))
	rateCap.Div(rateCap, uint256.NewInt(secondsPerDay))
	if recognized.Gt(rateCap) {
		recognized = rateCap
	}

	if recognized.IsZero() {
		return nil, NewRejection(RejectionBelowThreshold, "no yield vested after %d seconds", elapsed)
	}

	// Mint the trustee fee, then rebase everyone (including the treasury) to the new supply.
	fee := new(uint256.Int).Mul(recognized, uint256.NewInt(v.config.TrusteeFeeBps))
	fee.Div(fee, uint256.NewInt(BpsDenominator))
	if !fee.IsZero() {
		v.shares.Mint(v.treasury, fee)
	}
	v.shares.ChangeSupply(new(uint256.Int).Add(supply, recognized))
	v.lastRebase = v.clk.Now()
	v.refreshClaimable()
	return recognized, nil
}

// transferableAssets returns the asset base units movable out of the vault once the claim reserve is honored.
func (v *Vault) transferableAssets() *uint256.Int {
	raw := v.RawBalance()
	reserve := v.claimReserve()
	if raw.Lt(reserve) {
		return uint256.NewInt(0)
	}
	return raw.Sub(raw, reserve)
}

// Allocate moves idle assets above the buffer and claim reserve into the default strategy, when the idle amount
// meets the auto-allocate threshold. Privileged: governor or operator.
// Returns the allocated asset base units.
func (v *Vault) Allocate(caller Address) (*uint256.Int, error) {
	if err := v.requireOperator(caller); err != nil {
		return nil, err
	}

	// Idle capital is what remains after the claim reserve and the configured buffer fraction of gross assets.
	idle := v.transferableAssets()
	buffer := new(uint256.Int).Mul(v.grossAssets(), v.config.VaultBuffer)
	buffer.Div(buffer, wadUnit)
	if idle.Lt(buffer) {
		return nil, NewRejection(RejectionBelowThreshold, "idle %s within buffer %s", idle, buffer)
	}
	idle.Sub(idle, buffer)

	if idle.IsZero() || idle.Lt(v.config.AutoAllocateThreshold) {
		return nil, NewRejection(RejectionBelowThreshold, "idle %s below auto-allocate threshold %s", idle, v.config.AutoAllocateThreshold)
	}
	if err := v.asset.Transfer(v.address, v.strategies[0].Addr, idle); err != nil {
		return nil, err
	}
	return idle, nil
}

// DepositToStrategy moves assets from the vault into the strategy at the provided index. Privileged: governor or
// operator. The claim reserve can never be moved.
func (v *Vault) DepositToStrategy(caller Address, index int, assets *uint256.Int) error {
	if err := v.requireOperator(caller); err != nil {
		return err
	}
	strategy, err := v.StrategyAt(index)
	if err != nil {
		return err
	}
	if assets.IsZero() {
		return NewRejection(RejectionZeroAmount, "strategy deposit of zero assets")
	}
	if assets.Gt(v.transferableAssets()) {
		return NewRejection(RejectionPendingLiquidity, "deposit of %s exceeds transferable %s (claim reserve held back)", assets, v.transferableAssets())
	}
	return v.asset.Transfer(v.address, strategy.Addr, assets)
}

// WithdrawFromStrategy moves assets from the strategy at the provided index back into the vault. Privileged:
// governor or operator.
func (v *Vault) WithdrawFromStrategy(caller Address, index int, assets *uint256.Int) error {
	if err := v.requireOperator(caller); err != nil {
		return err
	}
	strategy, err := v.StrategyAt(index)
	if err != nil {
		return err
	}
	if assets.IsZero() {
		return NewRejection(RejectionZeroAmount, "strategy withdrawal of zero assets")
	}
	if err := v.asset.Transfer(strategy.Addr, v.address, assets); err != nil {
		return err
	}
	v.refreshClaimable()
	return nil
}

// WithdrawAllFromStrategy drains the strategy at the provided index back into the vault. Privileged: governor or
// operator. Returns the drained asset base units.
func (v *Vault) WithdrawAllFromStrategy(caller Address, index int) (*uint256.Int, error) {
	if err := v.requireOperator(caller); err != nil {
		return nil, err
	}
	strategy, err := v.StrategyAt(index)
	if err != nil {
		return nil, err
	}
	balance := v.asset.BalanceOf(strategy.Addr)
	if !balance.IsZero() {
		if err := v.asset.Transfer(strategy.Addr, v.address, balance); err != nil {
			return nil, err
		}
		v.refreshClaimable()
	}
	return balance, nil
}

// WithdrawAllFromStrategies drains every strategy back into the vault. Privileged: governor or operator.
// Returns the total drained asset base units.
func (v *Vault) WithdrawAllFromStrategies(caller Address) (*uint256.Int, error) {
	if err := v.requireOperator(caller); err != nil {
		return nil, err
	}
	total := uint256.NewInt(0)
	for i := range v.strategies {
		drained, err := v.WithdrawAllFromStrategy(caller, i)
		if err != nil {
			return nil, err
		}
		total.Add(total, drained)
	}
	return total, nil
}

// SetAutoAllocateThreshold updates the auto-allocate threshold. Privileged: governor.
func (v *Vault) SetAutoAllocateThreshold(caller Address, threshold *uint256.Int) error {
	if err := v.requireGovernor(caller); err != nil {
		return err
	}
	v.config.AutoAllocateThreshold = new(uint256.Int).Set(threshold)
	return nil
}

// SetDripDuration updates the drip duration. Privileged: governor. Range [1, 7 days].
func (v *Vault) SetDripDuration(caller Address, seconds uint64) error {
	if err := v.requireGovernor(caller); err != nil {
		return err
	}
	if seconds < MinDripDuration || seconds > MaxDripDuration {
		return NewRejection(RejectionInvalidConfiguration, "drip duration %d outside [%d, %d]", seconds, MinDripDuration, MaxDripDuration)
	}
	v.config.DripDuration = seconds
	return nil
}

// SetMaxSupplyDiff updates the max supply diff fraction. Privileged: governor. Range [0, 1e18].
func (v *Vault) SetMaxSupplyDiff(caller Address, fraction *uint256.Int) error {
	if err := v.requireGovernor(caller); err != nil {
		return err
	}
	if fraction.Gt(wadUnit) {
		return NewRejection(RejectionInvalidConfiguration, "max supply diff %s exceeds 1e18", fraction)
	}
	v.config.MaxSupplyDiff = new(uint256.Int).Set(fraction)
	return nil
}

// SetRebaseRateCeiling updates the per-day rebase rate ceiling. Privileged: governor. Range [0, 1e18].
func (v *Vault) SetRebaseRateCeiling(caller Address, fraction *uint256.Int) error {
	if err := v.requireGovernor(caller); err != nil {
		return err
	}
	if fraction.Gt(wadUnit) {
		return NewRejection(RejectionInvalidConfiguration, "rebase rate ceiling %s exceeds 1e18", fraction)
	}
	v.config.RebaseRateCeiling = new(uint256.Int).Set(fraction)
	return nil
}

// SetRebaseThreshold updates the rebase threshold. Privileged: governor.
func (v *Vault) SetRebaseThreshold(caller Address, threshold *uint256.Int) error {
	if err := v.requireGovernor(caller); err != nil {
		return err
	}
	v.config.RebaseThreshold = new(uint256.Int).Set(threshold)
	return nil
}

// SetTrusteeFee updates the trustee fee. Privileged: governor. Range [0, 5000] basis points.
func (v *Vault) SetTrusteeFee(caller Address, bps uint64) error {
	if err := v.requireGovernor(caller); err != nil {
		return err
	}
	if bps > MaxTrusteeFeeBps {
		return NewRejection(RejectionInvalidConfiguration, "trustee fee %d bps exceeds maximum %d", bps, MaxTrusteeFeeBps)
	}
	v.config.TrusteeFeeBps = bps
	return nil
}

// SetVaultBuffer updates the vault buffer fraction. Privileged: governor. Range [0, 1e18].
func (v *Vault) SetVaultBuffer(caller Address, fraction *uint256.Int) error {
	if err := v.requireGovernor(caller); err != nil {
		return err
	}
	if fraction.Gt(wadUnit) {
		return NewRejection(RejectionInvalidConfiguration, "vault buffer %s exceeds 1e18", fraction)
	}
	v.config.VaultBuffer = new(uint256.Int).Set(fraction)
	return nil
}

// SetWithdrawClaimDelay updates the withdrawal claim delay. Privileged: governor. Range [0, 30 days].
func (v *Vault) SetWithdrawClaimDelay(caller Address, seconds uint64) error {
	if err := v.requireGovernor(caller); err != nil {
		return err
	}
	if seconds > MaxWithdrawClaimDelay {
		return NewRejection(RejectionInvalidConfiguration, "withdraw claim delay %d exceeds maximum %d", seconds, MaxWithdrawClaimDelay)
	}
	v.config.WithdrawClaimDelay = seconds
	return nil
}

// requireGovernor rejects callers lacking the governor role.
func (v *Vault) requireGovernor(caller Address) error {
	if caller != v.governor {
		return NewRejection(RejectionUnauthorized, "%s is not the governor", caller)
	}
	return nil
}

// requireOperator rejects callers lacking the operator or governor role.
func (v *Vault) requireOperator(caller Address) error {
	if caller != v.operator && caller != v.governor {
		return NewRejection(RejectionUnauthorized, "%s is neither operator nor governor", caller)
	}
	return nil
}
