package core

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"pharos/core/state"
)

// moduleAddress derives the deterministic account address for a protocol
// module. Module accounts have no key material; only engine code moves their
// balances.
func moduleAddress(name string) [20]byte {
	hash := ethcrypto.Keccak256([]byte("module/" + name))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

var (
	restakingCustody = moduleAddress("restaking/custody")
	loanCustody      = moduleAddress("loan/custody")
	reserveAccount   = moduleAddress("reserve")
	mintAuthority    = moduleAddress("mint-authority")
)

// collateralLedger adapts the token state to the delegation engine's
// collateral interface. Delegated balances sit in the restaking custody
// account.
type collateralLedger struct {
	state   *state.Manager
	custody [20]byte
}

func (l collateralLedger) BalanceOf(addr [20]byte) (*big.Int, error) {
	return l.state.TokenBalance(state.TokenLST, addr)
}

func (l collateralLedger) MoveIn(from [20]byte, amount *big.Int) error {
	return l.state.TokenTransfer(state.TokenLST, from, l.custody, amount)
}

func (l collateralLedger) MoveOut(to [20]byte, amount *big.Int) error {
	return l.state.TokenTransfer(state.TokenLST, l.custody, to, amount)
}

// stableLedger adapts the token state to the loan engine's stable asset
// interface. Principal is released from and repayment pulled into the loan
// custody account; the pull spends an allowance the agent places first.
type stableLedger struct {
	state   *state.Manager
	custody [20]byte
}

func (l stableLedger) BalanceOf(addr [20]byte) (*big.Int, error) {
	return l.state.TokenBalance(state.TokenPUSD, addr)
}

func (l stableLedger) MoveTo(to [20]byte, amount *big.Int) error {
	return l.state.TokenTransfer(state.TokenPUSD, l.custody, to, amount)
}

func (l stableLedger) PullFrom(from [20]byte, amount *big.Int) error {
	return l.state.TokenPull(state.TokenPUSD, from, l.custody, amount)
}

// Approve satisfies the agent's approver interface: the owner authorizes the
// custody account to pull the settlement amount.
func (l stableLedger) Approve(owner [20]byte, amount *big.Int) error {
	return l.state.TokenApprove(state.TokenPUSD, owner, l.custody, amount)
}
