package operator

import (
	"errors"
	"math/big"
	"sync"

	"pharos/core/events"
)

var (
	// ErrUnauthorized is returned when a directory mutation comes from
	// anyone but the administrative identity.
	ErrUnauthorized = errors.New("operator: caller not authorized")
	// ErrNotRegistered is returned when reading the directory before the
	// bonded operator has been registered.
	ErrNotRegistered = errors.New("operator: no operator registered")
	// ErrAlreadyRegistered rejects a second registration; the protocol
	// bonds exactly one operator.
	ErrAlreadyRegistered = errors.New("operator: operator already registered")

	errNilState = errors.New("operator: state not configured")
)

// Record is the directory entry for the bonded operator.
type Record struct {
	Address        [20]byte
	Active         bool
	DelegatedTotal *big.Int
	RegisteredAt   uint64
}

// EnsureDefaults replaces nil amount fields with zero values.
func (r *Record) EnsureDefaults() {
	if r.DelegatedTotal == nil {
		r.DelegatedTotal = big.NewInt(0)
	}
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := &Record{
		Address:      r.Address,
		Active:       r.Active,
		RegisteredAt: r.RegisteredAt,
	}
	if r.DelegatedTotal != nil {
		clone.DelegatedTotal = new(big.Int).Set(r.DelegatedTotal)
	}
	clone.EnsureDefaults()
	return clone
}

// directoryState is the slice of protocol state the directory owns.
type directoryState interface {
	OperatorRecord() (*Record, error)
	PutOperatorRecord(r *Record) error
}

// Directory registers and flags the single operator allowed to borrow.
type Directory struct {
	mu      sync.Mutex
	state   directoryState
	admin   [20]byte
	emitter events.Emitter
}

// NewDirectory constructs an operator directory with no-op event emission.
func NewDirectory() *Directory {
	return &Directory{emitter: events.NoopEmitter{}}
}

// SetState wires the directory to the persistence layer.
func (d *Directory) SetState(state directoryState) { d.state = state }

// SetAdmin records the administrative identity allowed to mutate the
// directory.
func (d *Directory) SetAdmin(admin [20]byte) { d.admin = admin }

// SetEmitter configures the event emitter. Passing nil restores the no-op
// emitter.
func (d *Directory) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		d.emitter = events.NoopEmitter{}
		return
	}
	d.emitter = emitter
}

// Register bonds the operator identity. Exactly one registration is allowed
// for the lifetime of the directory; the operator starts active.
func (d *Directory) Register(caller, addr [20]byte, now uint64) error {
	if d == nil || d.state == nil {
		return errNilState
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if caller != d.admin {
		return ErrUnauthorized
	}
	existing, err := d.state.OperatorRecord()
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyRegistered
	}
	record := &Record{
		Address:        addr,
		Active:         true,
		DelegatedTotal: big.NewInt(0),
		RegisteredAt:   now,
	}
	if err := d.state.PutOperatorRecord(record); err != nil {
		return err
	}
	d.emitter.Emit(events.OperatorRegistered{Operator: addr})
	return nil
}

// SetActive toggles the operator's active flag. The loan engine refuses
// borrow and repay while the flag is down.
func (d *Directory) SetActive(caller [20]byte, active bool) error {
	if d == nil || d.state == nil {
		return errNilState
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if caller != d.admin {
		return ErrUnauthorized
	}
	record, err := d.state.OperatorRecord()
	if err != nil {
		return err
	}
	if record == nil {
		return ErrNotRegistered
	}
	if record.Active == active {
		return nil
	}
	record.Active = active
	if err := d.state.PutOperatorRecord(record); err != nil {
		return err
	}
	d.emitter.Emit(events.OperatorStatusChanged{Operator: record.Address, Active: active})
	return nil
}

// IsActive reports whether addr is the registered, active bonded operator.
// Satisfies the loan engine's Directory interface.
func (d *Directory) IsActive(addr [20]byte) (bool, error) {
	if d == nil || d.state == nil {
		return false, errNilState
	}
	record, err := d.state.OperatorRecord()
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	return record.Active && record.Address == addr, nil
}

// GetDelegatedTotal reads the delegated-total mirror for addr.
func (d *Directory) GetDelegatedTotal(addr [20]byte) (*big.Int, error) {
	if d == nil || d.state == nil {
		return nil, errNilState
	}
	record, err := d.state.OperatorRecord()
	if err != nil {
		return nil, err
	}
	if record == nil || record.Address != addr {
		return big.NewInt(0), nil
	}
	record.EnsureDefaults()
	return new(big.Int).Set(record.DelegatedTotal), nil
}

// SetDelegatedTotal updates the delegated-total mirror kept alongside the
// operator entry. The node refreshes it after every delegation mutation.
func (d *Directory) SetDelegatedTotal(addr [20]byte, total *big.Int) error {
	if d == nil || d.state == nil {
		return errNilState
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	record, err := d.state.OperatorRecord()
	if err != nil {
		return err
	}
	if record == nil || record.Address != addr {
		return ErrNotRegistered
	}
	if total == nil {
		total = big.NewInt(0)
	}
	record.DelegatedTotal = new(big.Int).Set(total)
	return d.state.PutOperatorRecord(record)
}

// Info returns a copy of the directory entry, or nil when no operator is
// registered.
func (d *Directory) Info() (*Record, error) {
	if d == nil || d.state == nil {
		return nil, errNilState
	}
	record, err := d.state.OperatorRecord()
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}
