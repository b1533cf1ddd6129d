package state

import (
	"math/big"

	"pharos/native/operator"
)

// storedOperator is the RLP wire form of the operator directory entry.
type storedOperator struct {
	Address        [20]byte
	Active         bool
	DelegatedTotal *big.Int
	RegisteredAt   uint64
}

// OperatorRecord loads the directory entry for the bonded operator. Nil
// means no operator has been registered.
func (m *Manager) OperatorRecord() (*operator.Record, error) {
	var stored storedOperator
	ok, err := m.getRLP(operatorRecordKey, &stored)
	if err != nil || !ok {
		return nil, err
	}
	record := &operator.Record{
		Address:        stored.Address,
		Active:         stored.Active,
		DelegatedTotal: stored.DelegatedTotal,
		RegisteredAt:   stored.RegisteredAt,
	}
	record.EnsureDefaults()
	return record, nil
}

// PutOperatorRecord persists the directory entry.
func (m *Manager) PutOperatorRecord(record *operator.Record) error {
	record.EnsureDefaults()
	stored := storedOperator{
		Address:        record.Address,
		Active:         record.Active,
		DelegatedTotal: record.DelegatedTotal,
		RegisteredAt:   record.RegisteredAt,
	}
	return m.putRLP(operatorRecordKey, &stored)
}
