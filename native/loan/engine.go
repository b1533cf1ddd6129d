package loan

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"pharos/core/events"
	nativecommon "pharos/native/common"
)

const moduleName = "loan"

var (
	// ErrInvalidAmount rejects zero-principal loan requests.
	ErrInvalidAmount = errors.New("loan: amount must be positive")
	// ErrExceedsLTV is returned when the requested principal is above the
	// loan-to-value cap against the delegated collateral.
	ErrExceedsLTV = errors.New("loan: amount exceeds ltv cap")
	// ErrInsufficientFunds is returned when the operator's stable balance
	// cannot cover the repayment.
	ErrInsufficientFunds = errors.New("loan: insufficient funds to repay")
	// ErrTransferFailed wraps a failure reported by the stable asset ledger.
	ErrTransferFailed = errors.New("loan: asset transfer failed")
	// ErrUnauthorized is returned when the caller fails an identity gate:
	// borrow/repay from anyone but the active bonded operator, or admin
	// operations from anyone but the owner.
	ErrUnauthorized = errors.New("loan: caller not authorized")

	errNilState      = errors.New("loan: state not configured")
	errNilCollateral = errors.New("loan: collateral view not configured")
	errNilStable     = errors.New("loan: stable token not configured")
	errNilSlasher    = errors.New("loan: slash capability not configured")
)

// engineState is the slice of protocol state the loan engine owns: the single
// loan record and the origination parameters.
type engineState interface {
	LoanRecord() (*Loan, error)
	PutLoanRecord(l *Loan) error
	LoanParams() (*Params, error)
	PutLoanParams(p *Params) error
}

// CollateralView is the read-only window into the delegation ledger used to
// size new loans. The value must not be cached across operations.
type CollateralView interface {
	TotalDelegated() (*big.Int, error)
}

// StableToken is the external stable asset ledger.
type StableToken interface {
	BalanceOf(addr [20]byte) (*big.Int, error)
	// MoveTo releases amount from module custody to the recipient.
	MoveTo(to [20]byte, amount *big.Int) error
	// PullFrom pulls an approved amount from the holder into module custody.
	PullFrom(from [20]byte, amount *big.Int) error
}

// Slasher is the injected capability that wipes the delegation ledger. It is
// satisfied by restaking.SlashCapability.
type Slasher interface {
	Slash() (*big.Int, error)
}

// Directory answers whether an identity is the registered, active bonded
// operator.
type Directory interface {
	IsActive(addr [20]byte) (bool, error)
}

// Engine is the loan lifecycle state machine. Lifecycle transitions are the
// pure functions in state.go; the engine wraps them with authorization,
// persistence, asset movement, and event emission.
type Engine struct {
	mu         sync.Mutex
	state      engineState
	collateral CollateralView
	stable     StableToken
	slasher    Slasher
	directory  Directory
	owner      [20]byte
	emitter    events.Emitter
	pauses     nativecommon.PauseView
	nowFn      func() time.Time
}

// NewEngine constructs a loan engine with default no-op dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetState wires the engine to the persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCollateralView wires the delegation aggregate read.
func (e *Engine) SetCollateralView(view CollateralView) { e.collateral = view }

// SetStableToken wires the external stable asset ledger.
func (e *Engine) SetStableToken(token StableToken) { e.stable = token }

// SetSlasher wires the injected slash capability.
func (e *Engine) SetSlasher(slasher Slasher) { e.slasher = slasher }

// SetDirectory wires the operator directory consulted on borrow and repay.
// A nil directory disables the check, which collapses the gate to the single
// hardcoded operator wiring of the minimal variant.
func (e *Engine) SetDirectory(directory Directory) { e.directory = directory }

// SetOwner records the administrative identity allowed to slash and retune
// parameters.
func (e *Engine) SetOwner(owner [20]byte) { e.owner = owner }

// SetEmitter configures the event emitter. Passing nil restores the no-op
// emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the module pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetNowFunc overrides the time source used to stamp loans. Nil restores the
// default UTC clock.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	return uint64(e.nowFn().Unix())
}

func (e *Engine) requireOperator(caller [20]byte) error {
	if e.directory == nil {
		return nil
	}
	active, err := e.directory.IsActive(caller)
	if err != nil {
		return err
	}
	if !active {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) requireOwner(caller [20]byte) error {
	if caller != e.owner {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) params() (*Params, error) {
	p, err := e.state.LoanParams()
	if err != nil {
		return nil, err
	}
	if p == nil {
		defaults := DefaultParams()
		p = &defaults
	}
	return p, nil
}

// CreateLoan opens a new loan for the operator, sized against the current
// delegation aggregate, and releases the principal in stable asset. The
// collateral snapshot is taken at origination and never re-checked.
func (e *Engine) CreateLoan(caller [20]byte, amount *big.Int) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.collateral == nil {
		return nil, errNilCollateral
	}
	if e.stable == nil {
		return nil, errNilStable
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.requireOperator(caller); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	prev, err := e.state.LoanRecord()
	if err != nil {
		return nil, err
	}
	params, err := e.params()
	if err != nil {
		return nil, err
	}
	delegatedTotal, err := e.collateral.TotalDelegated()
	if err != nil {
		return nil, err
	}
	if amount.Cmp(MaxLoanAmount(delegatedTotal, params.LTVRatioPercent)) > 0 {
		return nil, ErrExceedsLTV
	}

	next, err := Open(prev, Terms{
		Principal:       amount,
		InterestRateBps: params.BaseInterestRateBps,
		StartTime:       e.now(),
		DurationSeconds: params.LoanDurationSeconds,
		Collateral:      delegatedTotal,
	})
	if err != nil {
		return nil, err
	}
	if err := e.state.PutLoanRecord(next); err != nil {
		return nil, err
	}

	if err := e.stable.MoveTo(caller, amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	e.emitter.Emit(events.LoanCreated{
		Operator:   caller,
		Principal:  new(big.Int).Set(next.Principal),
		RateBps:    next.InterestRateBps,
		StartTime:  next.StartTime,
		DueTime:    next.DueTime,
		Collateral: new(big.Int).Set(next.CollateralAtOrigination),
	})
	return next.Clone(), nil
}

// RepayLoan settles the active loan by pulling the flat repayment from the
// operator and marking the record repaid.
func (e *Engine) RepayLoan(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.stable == nil {
		return nil, errNilStable
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.requireOperator(caller); err != nil {
		return nil, err
	}

	prev, err := e.state.LoanRecord()
	if err != nil {
		return nil, err
	}
	if !prev.Active() {
		return nil, ErrInvalidState
	}
	repayment := RepaymentAmount(prev)

	balance, err := e.stable.BalanceOf(caller)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(repayment) < 0 {
		return nil, ErrInsufficientFunds
	}

	next, err := MarkRepaid(prev)
	if err != nil {
		return nil, err
	}
	if err := e.state.PutLoanRecord(next); err != nil {
		return nil, err
	}

	if err := e.stable.PullFrom(caller, repayment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	e.emitter.Emit(events.LoanRepaid{
		Operator: caller,
		Amount:   new(big.Int).Set(repayment),
	})
	return repayment, nil
}

// SlashLoan forcibly closes the active loan: the delegation ledger is wiped
// through the injected capability and the record is marked repaid and
// slashed with zero principal. The due date is advisory data; no time gate
// applies here. Irreversible.
func (e *Engine) SlashLoan(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.slasher == nil {
		return nil, errNilSlasher
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}

	prev, err := e.state.LoanRecord()
	if err != nil {
		return nil, err
	}
	next, err := MarkSlashed(prev)
	if err != nil {
		return nil, err
	}

	seized, err := e.slasher.Slash()
	if err != nil {
		return nil, err
	}
	if err := e.state.PutLoanRecord(next); err != nil {
		return nil, err
	}

	e.emitter.Emit(events.LoanSlashed{
		Operator:         caller,
		Principal:        new(big.Int).Set(prev.Principal),
		CollateralSeized: new(big.Int).Set(seized),
	})
	return seized, nil
}

// UpdateBaseRate retunes the base interest rate applied to future loans.
func (e *Engine) UpdateBaseRate(caller [20]byte, bps uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	params, err := e.params()
	if err != nil {
		return err
	}
	params.BaseInterestRateBps = bps
	if err := e.state.PutLoanParams(params); err != nil {
		return err
	}
	e.emitter.Emit(events.LoanParamsUpdated{Param: "baseInterestRateBps", Value: bps})
	return nil
}

// UpdateLTVRatio retunes the loan-to-value cap applied to future loans.
func (e *Engine) UpdateLTVRatio(caller [20]byte, percent uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	params, err := e.params()
	if err != nil {
		return err
	}
	params.LTVRatioPercent = percent
	if err := params.Validate(); err != nil {
		return err
	}
	if err := e.state.PutLoanParams(params); err != nil {
		return err
	}
	e.emitter.Emit(events.LoanParamsUpdated{Param: "ltvRatioPercent", Value: percent})
	return nil
}

// Loan returns a copy of the current loan record, or nil when none exists.
func (e *Engine) Loan() (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, err := e.state.LoanRecord()
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// Params returns the origination parameters currently in force.
func (e *Engine) Params() (Params, error) {
	if e == nil || e.state == nil {
		return Params{}, errNilState
	}
	params, err := e.params()
	if err != nil {
		return Params{}, err
	}
	return *params, nil
}

// Repayment returns the flat settlement owed on the current loan: zero when
// no loan is active.
func (e *Engine) Repayment() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, err := e.state.LoanRecord()
	if err != nil {
		return nil, err
	}
	return RepaymentAmount(record), nil
}

// DueAmount returns the interest-bearing amount owed at the current time:
// zero when no loan is active.
func (e *Engine) DueAmount() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, err := e.state.LoanRecord()
	if err != nil {
		return nil, err
	}
	return DueAmountAt(record, e.now()), nil
}
