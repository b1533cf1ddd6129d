package core

import (
	"errors"
	"fmt"
	"math/big"

	"pharos/core/state"
	"pharos/native/loan"
)

const genesisFlag = "genesis/initialised"

var errNoOperator = errors.New("core: genesis operator not configured")

// GenesisAllocation is an initial token balance minted at genesis.
type GenesisAllocation struct {
	Address [20]byte
	Token   string
	Amount  *big.Int
}

// GenesisConfig seeds a fresh chain: the administrative owner, the bonded
// operator, the initial balances, and the origination parameters. It is
// applied once; subsequent starts load the persisted state instead.
type GenesisConfig struct {
	Owner       [20]byte
	Operator    [20]byte
	Allocations []GenesisAllocation
	// StablePool is the stable asset minted into loan custody; it is the
	// liquidity loans are drawn from.
	StablePool *big.Int
	// ReserveBalance is the reserve dollar balance backing the stable
	// asset.
	ReserveBalance *big.Int
	LoanParams     *loan.Params
}

func (g *GenesisConfig) validate() error {
	if g.Operator == ([20]byte{}) {
		return errNoOperator
	}
	if g.LoanParams != nil {
		if err := g.LoanParams.Validate(); err != nil {
			return err
		}
	}
	for _, alloc := range g.Allocations {
		if alloc.Amount == nil || alloc.Amount.Sign() < 0 {
			return fmt.Errorf("core: invalid genesis allocation for token %s", alloc.Token)
		}
	}
	return nil
}

// initialised reports whether genesis has already been applied to the
// underlying database.
func (n *Node) initialised() (bool, error) {
	_, ok, err := n.state.ParamStoreGet(genesisFlag)
	return ok, err
}

// applyGenesis writes the genesis state inside the current session. The
// caller commits.
func (n *Node) applyGenesis(genesis GenesisConfig) error {
	if err := genesis.validate(); err != nil {
		return err
	}
	tokens := []state.TokenMetadata{
		{Symbol: state.TokenLST, Name: "Liquid Staking Token", Decimals: 18, MintAuthority: mintAuthority[:]},
		{Symbol: state.TokenPUSD, Name: "Pharos USD", Decimals: 18, MintAuthority: mintAuthority[:]},
		{Symbol: state.TokenUSD, Name: "Reserve Dollar", Decimals: 18, MintAuthority: mintAuthority[:]},
	}
	for i := range tokens {
		if err := n.state.RegisterToken(&tokens[i]); err != nil {
			return err
		}
	}
	if genesis.LoanParams != nil {
		if err := n.state.PutLoanParams(genesis.LoanParams); err != nil {
			return err
		}
	}
	if err := n.directory.Register(genesis.Owner, genesis.Operator, n.nowUnix()); err != nil {
		return err
	}
	if genesis.StablePool != nil && genesis.StablePool.Sign() > 0 {
		if err := n.state.TokenMint(state.TokenPUSD, mintAuthority, loanCustody, genesis.StablePool); err != nil {
			return fmt.Errorf("core: genesis stable pool: %w", err)
		}
	}
	if genesis.ReserveBalance != nil && genesis.ReserveBalance.Sign() > 0 {
		if err := n.state.TokenMint(state.TokenUSD, mintAuthority, reserveAccount, genesis.ReserveBalance); err != nil {
			return fmt.Errorf("core: genesis reserve: %w", err)
		}
	}
	for _, alloc := range genesis.Allocations {
		if alloc.Amount.Sign() == 0 {
			continue
		}
		if err := n.state.TokenMint(alloc.Token, mintAuthority, alloc.Address, alloc.Amount); err != nil {
			return fmt.Errorf("core: genesis allocation: %w", err)
		}
	}
	return n.state.ParamStoreSet(genesisFlag, []byte{1})
}
