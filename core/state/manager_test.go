package state

import (
	"errors"
	"math/big"
	"testing"

	"pharos/native/loan"
	"pharos/storage"
)

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newManager(t *testing.T) (*Manager, *storage.MemDB) {
	t.Helper()
	db := storage.NewMemDB()
	return NewManager(db), db
}

func registerTestToken(t *testing.T, m *Manager, symbol string, authority [20]byte) {
	t.Helper()
	if err := m.RegisterToken(&TokenMetadata{
		Symbol:        symbol,
		Name:          symbol,
		Decimals:      18,
		MintAuthority: authority[:],
	}); err != nil {
		t.Fatalf("register %s: %v", symbol, err)
	}
}

func TestOverlayCommitAndDiscard(t *testing.T) {
	m, db := newManager(t)

	if err := m.ParamStoreSet("answer", []byte{42}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !m.Dirty() {
		t.Fatalf("expected pending writes")
	}
	// The write is visible through the manager before commit.
	value, ok, err := m.ParamStoreGet("answer")
	if err != nil || !ok {
		t.Fatalf("get before commit: %v ok=%v", err, ok)
	}
	if len(value) != 1 || value[0] != 42 {
		t.Fatalf("unexpected value %v", value)
	}

	m.Discard()
	if m.Dirty() {
		t.Fatalf("expected overlay cleared")
	}
	if _, ok, _ := m.ParamStoreGet("answer"); ok {
		t.Fatalf("expected discarded write invisible")
	}

	if err := m.ParamStoreSet("answer", []byte{42}); err != nil {
		t.Fatalf("set again: %v", err)
	}
	if err := m.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if m.Dirty() {
		t.Fatalf("expected overlay flushed")
	}

	// A fresh manager over the same database sees the committed value.
	fresh := NewManager(db)
	value, ok, err = fresh.ParamStoreGet("answer")
	if err != nil || !ok {
		t.Fatalf("get after commit: %v ok=%v", err, ok)
	}
	if len(value) != 1 || value[0] != 42 {
		t.Fatalf("unexpected committed value %v", value)
	}
}

func TestGetAccountDefaultsToZero(t *testing.T) {
	m, _ := newManager(t)
	account, err := m.GetAccount(addr(0x01))
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.BalanceLST.Sign() != 0 || account.BalancePUSD.Sign() != 0 || account.BalanceUSD.Sign() != 0 {
		t.Fatalf("expected zero balances, got %+v", account)
	}
}

func TestPutAccountRejectsNegativeBalance(t *testing.T) {
	m, _ := newManager(t)
	account, err := m.GetAccount(addr(0x01))
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	account.BalanceLST = big.NewInt(-1)
	if err := m.PutAccount(addr(0x01), account); err == nil {
		t.Fatalf("expected rejection of negative balance")
	}
}

func TestTokenMintAuthority(t *testing.T) {
	m, _ := newManager(t)
	authority, alice := addr(0xAA), addr(0x01)
	registerTestToken(t, m, TokenPUSD, authority)

	if err := m.TokenMint(TokenPUSD, authority, alice, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	balance, err := m.TokenBalance(TokenPUSD, alice)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected 500, got %s", balance)
	}

	if err := m.TokenMint(TokenPUSD, alice, alice, big.NewInt(1)); !errors.Is(err, ErrNotMintAuthority) {
		t.Fatalf("expected ErrNotMintAuthority, got %v", err)
	}
}

func TestTokenMintPause(t *testing.T) {
	m, _ := newManager(t)
	authority := addr(0xAA)
	registerTestToken(t, m, TokenPUSD, authority)

	if err := m.SetTokenMintPaused(TokenPUSD, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := m.TokenMint(TokenPUSD, authority, addr(0x01), big.NewInt(1)); !errors.Is(err, ErrTokenPaused) {
		t.Fatalf("expected ErrTokenPaused, got %v", err)
	}
	if err := m.SetTokenMintPaused(TokenPUSD, false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := m.TokenMint(TokenPUSD, authority, addr(0x01), big.NewInt(1)); err != nil {
		t.Fatalf("mint after unpause: %v", err)
	}
}

func TestTokenTransfer(t *testing.T) {
	m, _ := newManager(t)
	authority, alice, bob := addr(0xAA), addr(0x01), addr(0x02)
	registerTestToken(t, m, TokenLST, authority)
	if err := m.TokenMint(TokenLST, authority, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := m.TokenTransfer(TokenLST, alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	aliceBalance, _ := m.TokenBalance(TokenLST, alice)
	bobBalance, _ := m.TokenBalance(TokenLST, bob)
	if aliceBalance.Cmp(big.NewInt(60)) != 0 || bobBalance.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("unexpected balances %s / %s", aliceBalance, bobBalance)
	}

	if err := m.TokenTransfer(TokenLST, alice, bob, big.NewInt(61)); !errors.Is(err, ErrInsufficientTokenBalance) {
		t.Fatalf("expected ErrInsufficientTokenBalance, got %v", err)
	}
	if err := m.TokenTransfer("XYZ", alice, bob, big.NewInt(1)); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestTokenAllowancePull(t *testing.T) {
	m, _ := newManager(t)
	authority, owner, spender := addr(0xAA), addr(0x01), addr(0x02)
	registerTestToken(t, m, TokenPUSD, authority)
	if err := m.TokenMint(TokenPUSD, authority, owner, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := m.TokenPull(TokenPUSD, owner, spender, big.NewInt(10)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	if err := m.TokenApprove(TokenPUSD, owner, spender, big.NewInt(50)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := m.TokenPull(TokenPUSD, owner, spender, big.NewInt(30)); err != nil {
		t.Fatalf("pull: %v", err)
	}
	remaining, err := m.TokenAllowance(TokenPUSD, owner, spender)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if remaining.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("expected allowance 20, got %s", remaining)
	}
	spenderBalance, _ := m.TokenBalance(TokenPUSD, spender)
	if spenderBalance.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("expected spender balance 30, got %s", spenderBalance)
	}

	if err := m.TokenPull(TokenPUSD, owner, spender, big.NewInt(21)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance on exhausted allowance, got %v", err)
	}
}

func TestTokenBurn(t *testing.T) {
	m, _ := newManager(t)
	authority, alice := addr(0xAA), addr(0x01)
	registerTestToken(t, m, TokenLST, authority)
	if err := m.TokenMint(TokenLST, authority, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := m.TokenBurn(TokenLST, alice, big.NewInt(60)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	balance, _ := m.TokenBalance(TokenLST, alice)
	if balance.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected 40 after burn, got %s", balance)
	}
	if err := m.TokenBurn(TokenLST, alice, big.NewInt(41)); !errors.Is(err, ErrInsufficientTokenBalance) {
		t.Fatalf("expected ErrInsufficientTokenBalance, got %v", err)
	}
}

func TestPauseSwitches(t *testing.T) {
	m, _ := newManager(t)
	if m.IsPaused("loan") {
		t.Fatalf("expected modules running by default")
	}
	if err := m.SetPaused("loan", true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !m.IsPaused("loan") {
		t.Fatalf("expected loan paused")
	}
	if m.IsPaused("restaking") {
		t.Fatalf("expected restaking unaffected")
	}
}

func TestLoanRecordRoundTrip(t *testing.T) {
	m, db := newManager(t)

	record, err := m.LoanRecord()
	if err != nil {
		t.Fatalf("empty read: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record on fresh state")
	}

	stored := &loan.Loan{
		Principal:               big.NewInt(1234),
		InterestRateBps:         500,
		StartTime:               1_700_000_000,
		DueTime:                 1_700_100_000,
		CollateralAtOrigination: big.NewInt(5000),
	}
	if err := m.PutLoanRecord(stored); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := m.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	fresh := NewManager(db)
	loaded, err := fresh.LoanRecord()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil || loaded.Principal.Cmp(stored.Principal) != 0 ||
		loaded.InterestRateBps != stored.InterestRateBps ||
		loaded.DueTime != stored.DueTime ||
		loaded.CollateralAtOrigination.Cmp(stored.CollateralAtOrigination) != 0 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if loaded.Status() != loan.StatusActive {
		t.Fatalf("expected active status, got %v", loaded.Status())
	}
}

func TestDelegationBookkeeping(t *testing.T) {
	m, _ := newManager(t)
	alice, bob := addr(0x01), addr(0x02)

	if err := m.SetDelegation(alice, big.NewInt(100)); err != nil {
		t.Fatalf("set delegation: %v", err)
	}
	if err := m.SetDelegatorList([][20]byte{alice, bob}); err != nil {
		t.Fatalf("set list: %v", err)
	}
	if err := m.SetDelegatorMember(alice, true); err != nil {
		t.Fatalf("set member: %v", err)
	}
	if err := m.SetTotalDelegated(big.NewInt(100)); err != nil {
		t.Fatalf("set total: %v", err)
	}

	amount, err := m.DelegationAmount(alice)
	if err != nil || amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("delegation amount: %s err=%v", amount, err)
	}
	if amount, _ := m.DelegationAmount(bob); amount.Sign() != 0 {
		t.Fatalf("expected zero for unknown delegator, got %s", amount)
	}
	list, err := m.DelegatorList()
	if err != nil || len(list) != 2 || list[0] != alice || list[1] != bob {
		t.Fatalf("list round trip: %v err=%v", list, err)
	}
	member, err := m.IsDelegatorMember(alice)
	if err != nil || !member {
		t.Fatalf("expected alice member, err=%v", err)
	}
	if member, _ := m.IsDelegatorMember(bob); member {
		t.Fatalf("expected bob not yet flagged")
	}
}
