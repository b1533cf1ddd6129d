package reserve

import (
	"errors"
	"fmt"
	"math/big"
)

var errNilState = errors.New("reserve: state not configured")

// converterState is the token-ledger slice the converter needs: the burn
// side for seized collateral and the privileged mint side for replacement
// stable asset.
type converterState interface {
	TokenBurn(symbol string, from [20]byte, amount *big.Int) error
	TokenMint(symbol string, minter, to [20]byte, amount *big.Int) error
}

// Converter makes the stable-asset side whole after a slash: the seized
// collateral held in ledger custody is burned and an equivalent amount of
// stable asset is minted to the reserve account. Collateral is valued 1:1
// against the stable asset; there is no oracle in this protocol.
type Converter struct {
	state            converterState
	collateralSymbol string
	stableSymbol     string
	custody          [20]byte
	reserveAccount   [20]byte
	minter           [20]byte
}

// NewConverter wires the conversion collaborator invoked from slashing.
func NewConverter(collateralSymbol, stableSymbol string, custody, reserveAccount, minter [20]byte) *Converter {
	return &Converter{
		collateralSymbol: collateralSymbol,
		stableSymbol:     stableSymbol,
		custody:          custody,
		reserveAccount:   reserveAccount,
		minter:           minter,
	}
}

// SetState wires the converter to the token ledger.
func (c *Converter) SetState(state converterState) { c.state = state }

// AbsorbSlashedCollateral burns the seized collateral and mints replacement
// stable asset to the reserve. Either both steps land or neither does; the
// caller runs the conversion inside the same state session as the ledger
// purge.
func (c *Converter) AbsorbSlashedCollateral(amount *big.Int) error {
	if c == nil || c.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if err := c.state.TokenBurn(c.collateralSymbol, c.custody, amount); err != nil {
		return fmt.Errorf("reserve: burn seized collateral: %w", err)
	}
	if err := c.state.TokenMint(c.stableSymbol, c.minter, c.reserveAccount, amount); err != nil {
		return fmt.Errorf("reserve: mint replacement stable: %w", err)
	}
	return nil
}
