package state

import (
	"errors"
	"fmt"
	"math/big"

	"pharos/core/types"
)

// Token symbols recognised by the ledger.
const (
	TokenLST  = "LST"
	TokenPUSD = "PUSD"
	TokenUSD  = "USD"
)

var (
	// ErrUnknownToken is returned for symbols outside the protocol set.
	ErrUnknownToken = errors.New("state: unknown token symbol")
	// ErrTokenPaused is returned when minting against a paused token.
	ErrTokenPaused = errors.New("state: token minting paused")
	// ErrNotMintAuthority is returned when the minter lacks the token role.
	ErrNotMintAuthority = errors.New("state: caller is not the mint authority")
	// ErrInsufficientTokenBalance is returned on debits exceeding a balance.
	ErrInsufficientTokenBalance = errors.New("state: insufficient token balance")
	// ErrInsufficientAllowance is returned on pulls exceeding an allowance.
	ErrInsufficientAllowance = errors.New("state: insufficient allowance")
)

// TokenMetadata describes a registered protocol token.
type TokenMetadata struct {
	Symbol        string
	Name          string
	Decimals      uint8
	MintAuthority []byte
	MintPaused    bool
}

// RegisterToken stores metadata for a protocol token. Registration happens at
// genesis; re-registration overwrites the previous entry.
func (m *Manager) RegisterToken(meta *TokenMetadata) error {
	if meta == nil {
		return fmt.Errorf("state: nil token metadata")
	}
	if err := validSymbol(meta.Symbol); err != nil {
		return err
	}
	return m.putRLP(tokenKey(meta.Symbol), meta)
}

// Token loads the metadata for symbol. The boolean reports registration.
func (m *Manager) Token(symbol string) (*TokenMetadata, bool, error) {
	if err := validSymbol(symbol); err != nil {
		return nil, false, err
	}
	meta := new(TokenMetadata)
	ok, err := m.getRLP(tokenKey(symbol), meta)
	if err != nil || !ok {
		return nil, ok, err
	}
	return meta, true, nil
}

// SetTokenMintPaused toggles the privileged mint path for symbol.
func (m *Manager) SetTokenMintPaused(symbol string, paused bool) error {
	meta, ok, err := m.Token(symbol)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownToken
	}
	meta.MintPaused = paused
	return m.putRLP(tokenKey(symbol), meta)
}

func validSymbol(symbol string) error {
	switch symbol {
	case TokenLST, TokenPUSD, TokenUSD:
		return nil
	}
	return ErrUnknownToken
}

func balanceField(account *types.Account, symbol string) (*big.Int, error) {
	switch symbol {
	case TokenLST:
		return account.BalanceLST, nil
	case TokenPUSD:
		return account.BalancePUSD, nil
	case TokenUSD:
		return account.BalanceUSD, nil
	}
	return nil, ErrUnknownToken
}

func setBalanceField(account *types.Account, symbol string, value *big.Int) error {
	switch symbol {
	case TokenLST:
		account.BalanceLST = value
	case TokenPUSD:
		account.BalancePUSD = value
	case TokenUSD:
		account.BalanceUSD = value
	default:
		return ErrUnknownToken
	}
	return nil
}

// TokenBalance reads the balance of addr in symbol.
func (m *Manager) TokenBalance(symbol string, addr [20]byte) (*big.Int, error) {
	account, err := m.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	balance, err := balanceField(account, symbol)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(balance), nil
}

// TokenTransfer moves amount of symbol from one address to another.
func (m *Manager) TokenTransfer(symbol string, from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: transfer amount must be positive")
	}
	fromAcc, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	fromBalance, err := balanceField(fromAcc, symbol)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientTokenBalance
	}
	toAcc, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	toBalance, _ := balanceField(toAcc, symbol)
	if err := setBalanceField(fromAcc, symbol, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	if err := setBalanceField(toAcc, symbol, new(big.Int).Add(toBalance, amount)); err != nil {
		return err
	}
	if err := m.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return m.PutAccount(to, toAcc)
}

// TokenMint credits freshly minted symbol to addr through the privileged mint
// path. The minter must match the registered mint authority.
func (m *Manager) TokenMint(symbol string, minter, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: mint amount must be positive")
	}
	meta, ok, err := m.Token(symbol)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownToken
	}
	if meta.MintPaused {
		return ErrTokenPaused
	}
	if len(meta.MintAuthority) != 20 || string(meta.MintAuthority) != string(minter[:]) {
		return ErrNotMintAuthority
	}
	account, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	balance, err := balanceField(account, symbol)
	if err != nil {
		return err
	}
	if err := setBalanceField(account, symbol, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	return m.PutAccount(to, account)
}

// TokenBurn destroys amount of symbol held by from.
func (m *Manager) TokenBurn(symbol string, from [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: burn amount must be positive")
	}
	account, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	balance, err := balanceField(account, symbol)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientTokenBalance
	}
	if err := setBalanceField(account, symbol, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	return m.PutAccount(from, account)
}

// TokenApprove records an allowance permitting spender to pull up to amount of
// symbol from owner.
func (m *Manager) TokenApprove(symbol string, owner, spender [20]byte, amount *big.Int) error {
	if err := validSymbol(symbol); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: allowance must not be negative")
	}
	return m.putRLP(allowanceKey(symbol, owner, spender), amount)
}

// TokenAllowance reads the remaining allowance from owner to spender.
func (m *Manager) TokenAllowance(symbol string, owner, spender [20]byte) (*big.Int, error) {
	if err := validSymbol(symbol); err != nil {
		return nil, err
	}
	allowance := new(big.Int)
	ok, err := m.getRLP(allowanceKey(symbol, owner, spender), allowance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return allowance, nil
}

// TokenPull spends allowance and moves amount of symbol from owner to spender.
func (m *Manager) TokenPull(symbol string, owner, spender [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: pull amount must be positive")
	}
	allowance, err := m.TokenAllowance(symbol, owner, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := m.TokenTransfer(symbol, owner, spender, amount); err != nil {
		return err
	}
	return m.putRLP(allowanceKey(symbol, owner, spender), new(big.Int).Sub(allowance, amount))
}
