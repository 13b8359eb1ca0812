package vault

import (
	"github.com/holiman/uint256"
)

// wadUnit is the fixed-point base (1e18) used for credit accounting and fraction configuration values.
var wadUnit = uint256.NewInt(1_000_000_000_000_000_000)

// RebasingToken is the vault's claim token. Balances rebase: the vault adjusts the total supply after accruing
// yield and every holder's balance scales proportionally. This is implemented with credit accounting - each
// account holds credits, and a global credits-per-token ratio converts credits to balances.
type RebasingToken struct {
	// creditBalances maps an account to its credit balance.
	creditBalances map[Address]*uint256.Int

	// totalCredits is the sum of all credit balances.
	totalCredits *uint256.Int

	// creditsPerToken is the wad-scaled ratio converting token balances to credits. It only ever decreases as
	// supply grows through rebasing.
	creditsPerToken *uint256.Int

	// totalSupply is the reported total token supply.
	totalSupply *uint256.Int
}

// NewRebasingToken creates a RebasingToken with no supply and a 1:1 credit ratio.
func NewRebasingToken() *RebasingToken {
	return &RebasingToken{
		creditBalances:  make(map[Address]*uint256.Int),
		totalCredits:    uint256.NewInt(0),
		creditsPerToken: new(uint256.Int).Set(wadUnit),
		totalSupply:     uint256.NewInt(0),
	}
}

// TotalSupply returns the reported total token supply.
func (t *RebasingToken) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(t.totalSupply)
}

// BalanceOf returns the token balance of the provided account, derived from its credits.
func (t *RebasingToken) BalanceOf(account Address) *uint256.Int {
	credits, ok := t.creditBalances[account]
	if !ok || credits.IsZero() {
		return uint256.NewInt(0)
	}
	// balance = credits * 1e18 / creditsPerToken
	balance := new(uint256.Int).Mul(credits, wadUnit)
	return balance.Div(balance, t.creditsPerToken)
}

// creditsForAmount converts a token amount to credits at the current ratio, rounding up so that minted or burned
// balances always cover the requested amount.
func (t *RebasingToken) creditsForAmount(amount *uint256.Int) *uint256.Int {
	// credits = ceil(amount * creditsPerToken / 1e18)
	numerator := new(uint256.Int).Mul(amount, t.creditsPerToken)
	credits := new(uint256.Int).Div(numerator, wadUnit)
	if !new(uint256.Int).Mod(numerator, wadUnit).IsZero() {
		credits.AddUint64(credits, 1)
	}
	return credits
}

// Mint credits the provided account with the given token amount.
func (t *RebasingToken) Mint(account Address, amount *uint256.Int) {
	credits := t.creditsForAmount(amount)
	current, ok := t.creditBalances[account]
	if !ok {
		current = uint256.NewInt(0)
	}
	t.creditBalances[account] = new(uint256.Int).Add(current, credits)
	t.totalCredits = new(uint256.Int).Add(t.totalCredits, credits)
	t.totalSupply = new(uint256.Int).Add(t.totalSupply, amount)
}

// Burn removes the given token amount from the provided account. Burning the account's exact full balance removes
// all of its credits, leaving the balance at exactly zero.
// Returns a Rejection error if the account balance cannot cover the amount.
func (t *RebasingToken) Burn(account Address, amount *uint256.Int) error {
	balance := t.BalanceOf(account)
	if balance.Lt(amount) {
		return NewRejection(RejectionInsufficientBalance, "burn of %s exceeds balance %s", amount, balance)
	}

	var credits *uint256.Int
	if balance.Eq(amount) {
		// Full-balance burn removes every credit so no dust balance survives the conversion rounding.
		credits = new(uint256.Int).Set(t.creditBalances[account])
	} else {
		credits = t.creditsForAmount(amount)
		if t.creditBalances[account].Lt(credits) {
			credits = new(uint256.Int).Set(t.creditBalances[account])
		}
	}

	t.creditBalances[account] = new(uint256.Int).Sub(t.creditBalances[account], credits)
	t.totalCredits = new(uint256.Int).Sub(t.totalCredits, credits)
	if t.totalSupply.Lt(amount) {
		t.totalSupply = uint256.NewInt(0)
	} else {
		t.totalSupply = new(uint256.Int).Sub(t.totalSupply, amount)
	}
	return nil
}

// ChangeSupply rebases the token to the provided new total supply by recomputing the credits-per-token ratio.
// Every holder's balance scales proportionally. A zero-credit token cannot rebase and the call is a no-op.
func (t *RebasingToken) ChangeSupply(newSupply *uint256.Int) {
	if t.totalCredits.IsZero() || newSupply.IsZero() {
		return
	}

	// creditsPerToken = totalCredits * 1e18 / newSupply
	ratio := new(uint256.Int).Mul(t.totalCredits, wadUnit)
	ratio.Div(ratio, newSupply)
	if ratio.IsZero() {
		// The ratio floor must stay non-zero to keep balances derivable.
		ratio = uint256.NewInt(1)
	}
	t.creditsPerToken = ratio
	t.totalSupply = new(uint256.Int).Set(newSupply)
}
