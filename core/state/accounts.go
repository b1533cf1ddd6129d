package state

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"pharos/core/types"
)

// storedAccount is the RLP wire form of an account record.
type storedAccount struct {
	Nonce       uint64
	BalanceLST  *big.Int
	BalancePUSD *big.Int
	BalanceUSD  *big.Int
}

// GetAccount reconstructs the account stored under addr. Unknown addresses
// yield a zeroed account rather than an error so balance reads never fail on
// fresh identities.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	var stored storedAccount
	ok, err := m.getRLP(accountKey(addr), &stored)
	if err != nil {
		return nil, err
	}
	account := types.NewAccount()
	if ok {
		account.Nonce = stored.Nonce
		if stored.BalanceLST != nil {
			account.BalanceLST = new(big.Int).Set(stored.BalanceLST)
		}
		if stored.BalancePUSD != nil {
			account.BalancePUSD = new(big.Int).Set(stored.BalancePUSD)
		}
		if stored.BalanceUSD != nil {
			account.BalanceUSD = new(big.Int).Set(stored.BalanceUSD)
		}
	}
	account.EnsureDefaults()
	return account, nil
}

// PutAccount persists the account record under addr. Balances are range
// checked against the 256-bit ledger word before they are written.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	account.EnsureDefaults()
	for _, balance := range []*big.Int{account.BalanceLST, account.BalancePUSD, account.BalanceUSD} {
		if balance.Sign() < 0 {
			return fmt.Errorf("state: negative balance for %x", addr)
		}
		if _, overflow := uint256.FromBig(balance); overflow {
			return fmt.Errorf("state: balance overflows 256 bits for %x", addr)
		}
	}
	stored := storedAccount{
		Nonce:       account.Nonce,
		BalanceLST:  account.BalanceLST,
		BalancePUSD: account.BalancePUSD,
		BalanceUSD:  account.BalanceUSD,
	}
	return m.putRLP(accountKey(addr), &stored)
}
