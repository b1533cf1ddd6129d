package types

import "math/big"

// Account captures the balance sheet for a single address across the three
// protocol assets. LST is the restaked collateral asset, PUSD the borrowed
// stable asset, and USD the reserve asset backing PUSD redemptions.
type Account struct {
	Nonce       uint64   `json:"nonce"`
	BalanceLST  *big.Int `json:"balanceLST"`
	BalancePUSD *big.Int `json:"balancePUSD"`
	BalanceUSD  *big.Int `json:"balanceUSD"`
}

// NewAccount returns an account with all balances set to zero.
func NewAccount() *Account {
	return &Account{
		BalanceLST:  big.NewInt(0),
		BalancePUSD: big.NewInt(0),
		BalanceUSD:  big.NewInt(0),
	}
}

// EnsureDefaults replaces nil balance fields with zero values so decoded
// accounts are always safe to do arithmetic on.
func (a *Account) EnsureDefaults() {
	if a.BalanceLST == nil {
		a.BalanceLST = big.NewInt(0)
	}
	if a.BalancePUSD == nil {
		a.BalancePUSD = big.NewInt(0)
	}
	if a.BalanceUSD == nil {
		a.BalanceUSD = big.NewInt(0)
	}
}
