package vault

import (
	"github.com/holiman/uint256"
)

// Token is a minimal fungible token mock with 1:1 unit accounting and no transfer fees. It backs the vault's
// underlying asset during fuzzing campaigns and unit tests.
type Token struct {
	// symbol is a short identifier used in logs and call summaries.
	symbol string

	// decimals describes the unit scaling of the token for display purposes only; all amounts are base units.
	decimals uint8

	// balances maps an account to its base-unit balance.
	balances map[Address]*uint256.Int

	// allowances maps an owner to spender approvals.
	allowances map[Address]map[Address]*uint256.Int

	// totalSupply is the sum of all balances.
	totalSupply *uint256.Int
}

// NewToken creates a Token mock with the provided symbol and decimals and no initial supply.
func NewToken(symbol string, decimals uint8) *Token {
	return &Token{
		symbol:      symbol,
		decimals:    decimals,
		balances:    make(map[Address]*uint256.Int),
		allowances:  make(map[Address]map[Address]*uint256.Int),
		totalSupply: uint256.NewInt(0),
	}
}

// Symbol returns the token's display symbol.
func (t *Token) Symbol() string {
	return t.symbol
}

// Decimals returns the token's display decimals.
func (t *Token) Decimals() uint8 {
	return t.decimals
}

// TotalSupply returns the sum of all minted balances.
func (t *Token) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(t.totalSupply)
}

// BalanceOf returns the base-unit balance of the provided account.
func (t *Token) BalanceOf(account Address) *uint256.Int {
	if balance, ok := t.balances[account]; ok {
		return new(uint256.Int).Set(balance)
	}
	return uint256.NewInt(0)
}

// Mint credits the provided account with the given amount of base units out of thin air.
func (t *Token) Mint(account Address, amount *uint256.Int) {
	t.balances[account] = new(uint256.Int).Add(t.BalanceOf(account), amount)
	t.totalSupply = new(uint256.Int).Add(t.totalSupply, amount)
}

// Transfer moves amount base units from one account to another.
// Returns a Rejection error if the sender balance cannot cover the amount.
func (t *Token) Transfer(from Address, to Address, amount *uint256.Int) error {
	fromBalance := t.BalanceOf(from)
	if fromBalance.Lt(amount) {
		return NewRejection(RejectionInsufficientBalance, "transfer of %s %s exceeds balance %s", amount, t.symbol, fromBalance)
	}
	t.balances[from] = new(uint256.Int).Sub(fromBalance, amount)
	t.balances[to] = new(uint256.Int).Add(t.BalanceOf(to), amount)
	return nil
}

// Approve sets the allowance granted by owner to spender.
func (t *Token) Approve(owner Address, spender Address, amount *uint256.Int) {
	if _, ok := t.allowances[owner]; !ok {
		t.allowances[owner] = make(map[Address]*uint256.Int)
	}
	t.allowances[owner][spender] = new(uint256.Int).Set(amount)
}

// Allowance returns the allowance granted by owner to spender.
func (t *Token) Allowance(owner Address, spender Address) *uint256.Int {
	if spenders, ok := t.allowances[owner]; ok {
		if allowance, ok := spenders[spender]; ok {
			return new(uint256.Int).Set(allowance)
		}
	}
	return uint256.NewInt(0)
}

// TransferFrom moves amount base units from owner to recipient, consuming the spender's allowance.
// Returns a Rejection error if the allowance or balance cannot cover the amount.
func (t *Token) TransferFrom(spender Address, owner Address, to Address, amount *uint256.Int) error {
	allowance := t.Allowance(owner, spender)
	if allowance.Lt(amount) {
		return NewRejection(RejectionInsufficientBalance, "transfer of %s %s exceeds allowance %s", amount, t.symbol, allowance)
	}
	if err := t.Transfer(owner, to, amount); err != nil {
		return err
	}
	t.allowances[owner][spender] = new(uint256.Int).Sub(allowance, amount)
	return nil
}
