package events

import (
	"math/big"
	"strconv"

	"pharos/core/types"
)

const (
	// TypeLoanCreated marks a new active loan released to the operator.
	TypeLoanCreated = "loan.created"
	// TypeLoanRepaid marks a loan settled by the operator.
	TypeLoanRepaid = "loan.repaid"
	// TypeLoanSlashed marks a loan closed by seizing delegated collateral.
	TypeLoanSlashed = "loan.slashed"
	// TypeLoanParamsUpdated marks an administrative parameter change.
	TypeLoanParamsUpdated = "loan.paramsUpdated"
)

// LoanCreated captures the terms snapshotted at origination.
type LoanCreated struct {
	Operator   [20]byte
	Principal  *big.Int
	RateBps    uint64
	StartTime  uint64
	DueTime    uint64
	Collateral *big.Int
}

// EventType satisfies the Event interface.
func (LoanCreated) EventType() string { return TypeLoanCreated }

// Event converts the structured payload into a broadcastable event.
func (e LoanCreated) Event() *types.Event {
	return &types.Event{Type: TypeLoanCreated, Attributes: map[string]string{
		"operator":   formatAddress(e.Operator),
		"principal":  formatAmount(e.Principal),
		"rateBps":    strconv.FormatUint(e.RateBps, 10),
		"startTime":  strconv.FormatUint(e.StartTime, 10),
		"dueTime":    strconv.FormatUint(e.DueTime, 10),
		"collateral": formatAmount(e.Collateral),
	}}
}

// LoanRepaid captures the settlement pulled from the operator.
type LoanRepaid struct {
	Operator [20]byte
	Amount   *big.Int
}

// EventType satisfies the Event interface.
func (LoanRepaid) EventType() string { return TypeLoanRepaid }

// Event converts the structured payload into a broadcastable event.
func (e LoanRepaid) Event() *types.Event {
	return &types.Event{Type: TypeLoanRepaid, Attributes: map[string]string{
		"operator": formatAddress(e.Operator),
		"amount":   formatAmount(e.Amount),
	}}
}

// LoanSlashed captures the forced closure of a defaulted loan.
type LoanSlashed struct {
	Operator         [20]byte
	Principal        *big.Int
	CollateralSeized *big.Int
}

// EventType satisfies the Event interface.
func (LoanSlashed) EventType() string { return TypeLoanSlashed }

// Event converts the structured payload into a broadcastable event.
func (e LoanSlashed) Event() *types.Event {
	return &types.Event{Type: TypeLoanSlashed, Attributes: map[string]string{
		"operator":         formatAddress(e.Operator),
		"principal":        formatAmount(e.Principal),
		"collateralSeized": formatAmount(e.CollateralSeized),
	}}
}

// LoanParamsUpdated captures an owner-gated configuration change.
type LoanParamsUpdated struct {
	Param string
	Value uint64
}

// EventType satisfies the Event interface.
func (LoanParamsUpdated) EventType() string { return TypeLoanParamsUpdated }

// Event converts the structured payload into a broadcastable event.
func (e LoanParamsUpdated) Event() *types.Event {
	return &types.Event{Type: TypeLoanParamsUpdated, Attributes: map[string]string{
		"param": e.Param,
		"value": strconv.FormatUint(e.Value, 10),
	}}
}
