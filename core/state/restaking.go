package state

import "math/big"

// DelegationAmount reads the delegated collateral recorded for addr. Unknown
// delegators read as zero.
func (m *Manager) DelegationAmount(addr [20]byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := m.getRLP(delegationKey(addr), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// SetDelegation persists the delegated collateral for addr. Records are
// zeroed, never deleted, so slashed delegators remain auditable.
func (m *Manager) SetDelegation(addr [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.putRLP(delegationKey(addr), amount)
}

// DelegatorList returns the ordered set of addresses holding (or having held)
// a non-zero delegation.
func (m *Manager) DelegatorList() ([][20]byte, error) {
	var stored [][]byte
	ok, err := m.getRLP(delegatorListKey, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	list := make([][20]byte, 0, len(stored))
	for _, raw := range stored {
		var addr [20]byte
		copy(addr[:], raw)
		list = append(list, addr)
	}
	return list, nil
}

// SetDelegatorList replaces the stored delegator set.
func (m *Manager) SetDelegatorList(list [][20]byte) error {
	stored := make([][]byte, 0, len(list))
	for _, addr := range list {
		stored = append(stored, append([]byte(nil), addr[:]...))
	}
	return m.putRLP(delegatorListKey, stored)
}

// IsDelegatorMember reports the membership flag for addr. The flag and the
// list must agree; the restaking engine maintains both together.
func (m *Manager) IsDelegatorMember(addr [20]byte) (bool, error) {
	var member bool
	ok, err := m.getRLP(delegatorFlagKey(addr), &member)
	if err != nil || !ok {
		return false, err
	}
	return member, nil
}

// SetDelegatorMember persists the membership flag for addr.
func (m *Manager) SetDelegatorMember(addr [20]byte, member bool) error {
	return m.putRLP(delegatorFlagKey(addr), member)
}

// TotalDelegated reads the aggregate delegated collateral.
func (m *Manager) TotalDelegated() (*big.Int, error) {
	total := new(big.Int)
	ok, err := m.getRLP(totalDelegatedKey, total)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return total, nil
}

// SetTotalDelegated persists the aggregate delegated collateral.
func (m *Manager) SetTotalDelegated(total *big.Int) error {
	if total == nil {
		total = big.NewInt(0)
	}
	return m.putRLP(totalDelegatedKey, total)
}
