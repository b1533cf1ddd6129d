package loan

import (
	"errors"
	"math/big"
)

// ErrInvalidState marks a lifecycle transition attempted from the wrong
// state: creating while a loan is active, repaying or slashing with none
// active, or slashing twice.
var ErrInvalidState = errors.New("loan: invalid lifecycle state for transition")

// Status enumerates the reachable lifecycle states of the single loan slot.
type Status uint8

const (
	// StatusNone means no loan has ever been created, or the slot was
	// cleared by slashing.
	StatusNone Status = iota
	// StatusActive means principal is outstanding and unrepaid.
	StatusActive
	// StatusRepaid means the last loan settled normally; the slot can be
	// reused.
	StatusRepaid
	// StatusSlashed means the last loan was closed by seizing collateral;
	// the slot can be reused.
	StatusSlashed
)

// String returns the lowercase status label.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusRepaid:
		return "repaid"
	case StatusSlashed:
		return "slashed"
	default:
		return "none"
	}
}

// Loan is the single mutable loan record. The protocol supports exactly one
// loan at a time; terms are snapshotted at origination and never re-read from
// configuration afterwards.
type Loan struct {
	Principal               *big.Int
	InterestRateBps         uint64
	StartTime               uint64
	DueTime                 uint64
	CollateralAtOrigination *big.Int
	Repaid                  bool
	Slashed                 bool
}

// EnsureDefaults replaces nil amount fields with zero values.
func (l *Loan) EnsureDefaults() {
	if l.Principal == nil {
		l.Principal = big.NewInt(0)
	}
	if l.CollateralAtOrigination == nil {
		l.CollateralAtOrigination = big.NewInt(0)
	}
}

// Clone returns a deep copy of the loan record.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := &Loan{
		InterestRateBps: l.InterestRateBps,
		StartTime:       l.StartTime,
		DueTime:         l.DueTime,
		Repaid:          l.Repaid,
		Slashed:         l.Slashed,
	}
	if l.Principal != nil {
		clone.Principal = new(big.Int).Set(l.Principal)
	}
	if l.CollateralAtOrigination != nil {
		clone.CollateralAtOrigination = new(big.Int).Set(l.CollateralAtOrigination)
	}
	clone.EnsureDefaults()
	return clone
}

// Status derives the lifecycle state from the record. A nil record means no
// loan exists.
func (l *Loan) Status() Status {
	if l == nil {
		return StatusNone
	}
	if l.Slashed {
		return StatusSlashed
	}
	if l.Repaid {
		return StatusRepaid
	}
	if l.Principal != nil && l.Principal.Sign() > 0 {
		return StatusActive
	}
	return StatusNone
}

// Active reports whether principal is outstanding and unrepaid.
func (l *Loan) Active() bool {
	return l.Status() == StatusActive
}

// Terms carries the origination inputs snapshotted into a new loan.
type Terms struct {
	Principal       *big.Int
	InterestRateBps uint64
	StartTime       uint64
	DurationSeconds uint64
	Collateral      *big.Int
}

// The lifecycle transitions below are pure: they take the previous record and
// return the next one without touching persistence, tokens, or events. The
// engine owns those side effects.

// Open produces a fresh active loan from terms. It fails with ErrInvalidState
// when the previous loan is still active.
func Open(prev *Loan, terms Terms) (*Loan, error) {
	if prev.Active() {
		return nil, ErrInvalidState
	}
	next := &Loan{
		Principal:               new(big.Int).Set(terms.Principal),
		InterestRateBps:         terms.InterestRateBps,
		StartTime:               terms.StartTime,
		DueTime:                 terms.StartTime + terms.DurationSeconds,
		CollateralAtOrigination: new(big.Int).Set(terms.Collateral),
		Repaid:                  false,
		Slashed:                 false,
	}
	return next, nil
}

// MarkRepaid settles the active loan. It fails with ErrInvalidState when no
// active loan exists.
func MarkRepaid(prev *Loan) (*Loan, error) {
	if !prev.Active() {
		return nil, ErrInvalidState
	}
	next := prev.Clone()
	next.Repaid = true
	next.Slashed = false
	return next, nil
}

// MarkSlashed closes the active loan by seizure. Principal is reset to zero
// so a new loan can be opened afterwards. It fails with ErrInvalidState when
// no active loan exists or the loan was already slashed.
func MarkSlashed(prev *Loan) (*Loan, error) {
	if !prev.Active() || (prev != nil && prev.Slashed) {
		return nil, ErrInvalidState
	}
	next := prev.Clone()
	next.Repaid = true
	next.Slashed = true
	next.Principal = big.NewInt(0)
	return next, nil
}
