package state

import (
	"math/big"

	"pharos/native/loan"
)

// storedLoan is the RLP wire form of the loan record.
type storedLoan struct {
	Principal               *big.Int
	InterestRateBps         uint64
	StartTime               uint64
	DueTime                 uint64
	CollateralAtOrigination *big.Int
	Repaid                  bool
	Slashed                 bool
}

// LoanRecord loads the single loan record. Nil means no loan has been
// created yet.
func (m *Manager) LoanRecord() (*loan.Loan, error) {
	var stored storedLoan
	ok, err := m.getRLP(loanRecordKey, &stored)
	if err != nil || !ok {
		return nil, err
	}
	record := &loan.Loan{
		Principal:               stored.Principal,
		InterestRateBps:         stored.InterestRateBps,
		StartTime:               stored.StartTime,
		DueTime:                 stored.DueTime,
		CollateralAtOrigination: stored.CollateralAtOrigination,
		Repaid:                  stored.Repaid,
		Slashed:                 stored.Slashed,
	}
	record.EnsureDefaults()
	return record, nil
}

// PutLoanRecord persists the loan record.
func (m *Manager) PutLoanRecord(record *loan.Loan) error {
	record.EnsureDefaults()
	stored := storedLoan{
		Principal:               record.Principal,
		InterestRateBps:         record.InterestRateBps,
		StartTime:               record.StartTime,
		DueTime:                 record.DueTime,
		CollateralAtOrigination: record.CollateralAtOrigination,
		Repaid:                  record.Repaid,
		Slashed:                 record.Slashed,
	}
	return m.putRLP(loanRecordKey, &stored)
}

// LoanParams loads the origination parameters. Nil means the defaults have
// never been overridden.
func (m *Manager) LoanParams() (*loan.Params, error) {
	params := new(loan.Params)
	ok, err := m.getRLP(loanParamsKey, params)
	if err != nil || !ok {
		return nil, err
	}
	return params, nil
}

// PutLoanParams persists the origination parameters.
func (m *Manager) PutLoanParams(params *loan.Params) error {
	return m.putRLP(loanParamsKey, params)
}
