package events

import (
	"strconv"

	"pharos/core/types"
)

const (
	// TypeOperatorRegistered marks the bonded operator entering the directory.
	TypeOperatorRegistered = "operator.registered"
	// TypeOperatorStatusChanged marks an activation toggle on the operator.
	TypeOperatorStatusChanged = "operator.statusChanged"
)

// OperatorRegistered is emitted when the bonded operator is registered.
type OperatorRegistered struct {
	Operator [20]byte
}

// EventType satisfies the Event interface.
func (OperatorRegistered) EventType() string { return TypeOperatorRegistered }

// Event converts the structured payload into a broadcastable event.
func (e OperatorRegistered) Event() *types.Event {
	return &types.Event{Type: TypeOperatorRegistered, Attributes: map[string]string{
		"operator": formatAddress(e.Operator),
	}}
}

// OperatorStatusChanged is emitted when the operator active flag flips.
type OperatorStatusChanged struct {
	Operator [20]byte
	Active   bool
}

// EventType satisfies the Event interface.
func (OperatorStatusChanged) EventType() string { return TypeOperatorStatusChanged }

// Event converts the structured payload into a broadcastable event.
func (e OperatorStatusChanged) Event() *types.Event {
	return &types.Event{Type: TypeOperatorStatusChanged, Attributes: map[string]string{
		"operator": formatAddress(e.Operator),
		"active":   strconv.FormatBool(e.Active),
	}}
}
