package restaking

import "math/big"

// SlashCapability authorizes its holder to trigger the full collateral wipe.
// The ledger trusts whoever holds a granted capability rather than checking
// caller identity, so tests and alternative wirings can substitute their own
// holder. The zero value grants nothing.
type SlashCapability struct {
	engine *Engine
}

// GrantSlashCapability hands out the slashing capability for this ledger.
// The node grants it to the loan engine at construction time.
func (e *Engine) GrantSlashCapability() SlashCapability {
	return SlashCapability{engine: e}
}

// Slash executes the full wipe and returns the seized aggregate.
func (c SlashCapability) Slash() (*big.Int, error) {
	if c.engine == nil {
		return nil, ErrUnauthorized
	}
	return c.engine.slash()
}
