package operator

import (
	"math/big"

	"pharos/native/loan"
)

// StableApprover places the approve-style allowance the loan engine pulls
// repayment funds through.
type StableApprover interface {
	Approve(owner [20]byte, amount *big.Int) error
}

// Agent is the capability wrapper around the bonded operator identity. It is
// the only caller permitted through the loan engine's borrow and repay
// gates, and it authorizes the repayment pull. No business logic beyond
// authorization and call delegation.
type Agent struct {
	operator [20]byte
	loans    *loan.Engine
	stable   StableApprover
}

// NewAgent binds the agent to the bonded identity fixed at construction.
func NewAgent(operator [20]byte, loans *loan.Engine, stable StableApprover) *Agent {
	return &Agent{operator: operator, loans: loans, stable: stable}
}

// Address returns the bonded operator identity.
func (a *Agent) Address() [20]byte {
	return a.operator
}

// Borrow opens a loan in the operator's name.
func (a *Agent) Borrow(amount *big.Int) (*loan.Loan, error) {
	return a.loans.CreateLoan(a.operator, amount)
}

// Repay approves the settlement pull and settles the active loan.
func (a *Agent) Repay() (*big.Int, error) {
	repayment, err := a.loans.Repayment()
	if err != nil {
		return nil, err
	}
	if a.stable != nil && repayment.Sign() > 0 {
		if err := a.stable.Approve(a.operator, repayment); err != nil {
			return nil, err
		}
	}
	return a.loans.RepayLoan(a.operator)
}
