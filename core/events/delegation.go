package events

import (
	"math/big"
	"strconv"

	"pharos/core/types"
)

const (
	// TypeDelegationAdded captures collateral moved under ledger custody.
	TypeDelegationAdded = "restaking.delegated"
	// TypeDelegationRemoved captures collateral released back to a delegator.
	TypeDelegationRemoved = "restaking.undelegated"
	// TypeCollateralSlashed captures the full wipe of the delegation ledger.
	TypeCollateralSlashed = "restaking.slashed"
)

// DelegationAdded is emitted once per successful delegate call.
type DelegationAdded struct {
	Delegator      [20]byte
	Amount         *big.Int
	NewAmount      *big.Int
	TotalDelegated *big.Int
}

// EventType satisfies the Event interface.
func (DelegationAdded) EventType() string { return TypeDelegationAdded }

// Event converts the structured payload into a broadcastable event.
func (e DelegationAdded) Event() *types.Event {
	return &types.Event{Type: TypeDelegationAdded, Attributes: map[string]string{
		"delegator":      formatAddress(e.Delegator),
		"amount":         formatAmount(e.Amount),
		"newAmount":      formatAmount(e.NewAmount),
		"totalDelegated": formatAmount(e.TotalDelegated),
	}}
}

// DelegationRemoved is emitted once per successful undelegate call.
type DelegationRemoved struct {
	Delegator      [20]byte
	Amount         *big.Int
	NewAmount      *big.Int
	TotalDelegated *big.Int
}

// EventType satisfies the Event interface.
func (DelegationRemoved) EventType() string { return TypeDelegationRemoved }

// Event converts the structured payload into a broadcastable event.
func (e DelegationRemoved) Event() *types.Event {
	return &types.Event{Type: TypeDelegationRemoved, Attributes: map[string]string{
		"delegator":      formatAddress(e.Delegator),
		"amount":         formatAmount(e.Amount),
		"newAmount":      formatAmount(e.NewAmount),
		"totalDelegated": formatAmount(e.TotalDelegated),
	}}
}

// CollateralSlashed is emitted exactly once when the ledger is purged.
type CollateralSlashed struct {
	Total      *big.Int
	Delegators uint64
}

// EventType satisfies the Event interface.
func (CollateralSlashed) EventType() string { return TypeCollateralSlashed }

// Event converts the structured payload into a broadcastable event.
func (e CollateralSlashed) Event() *types.Event {
	return &types.Event{Type: TypeCollateralSlashed, Attributes: map[string]string{
		"total":      formatAmount(e.Total),
		"delegators": strconv.FormatUint(e.Delegators, 10),
	}}
}
