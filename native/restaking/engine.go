package restaking

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"pharos/core/events"
	nativecommon "pharos/native/common"
)

const moduleName = "restaking"

var (
	// ErrInvalidAmount rejects zero delegation amounts.
	ErrInvalidAmount = errors.New("restaking: amount must be positive")
	// ErrInsufficientBalance is returned when the delegator's collateral
	// balance cannot cover the delegation.
	ErrInsufficientBalance = errors.New("restaking: insufficient collateral balance")
	// ErrInsufficientDelegation is returned when undelegating more than the
	// recorded delegation.
	ErrInsufficientDelegation = errors.New("restaking: insufficient delegation")
	// ErrUnauthorized is returned when slash is invoked without a granted
	// capability.
	ErrUnauthorized = errors.New("restaking: caller not authorized to slash")

	errNilState     = errors.New("restaking: state not configured")
	errNilToken     = errors.New("restaking: collateral token not configured")
	errNilConverter = errors.New("restaking: converter not configured")
)

// engineState is the slice of protocol state the ledger owns. The per
// delegator records, the membership flags, the ordered delegator list, and
// the aggregate are mutated only through this engine.
type engineState interface {
	DelegationAmount(addr [20]byte) (*big.Int, error)
	SetDelegation(addr [20]byte, amount *big.Int) error
	DelegatorList() ([][20]byte, error)
	SetDelegatorList(list [][20]byte) error
	IsDelegatorMember(addr [20]byte) (bool, error)
	SetDelegatorMember(addr [20]byte, member bool) error
	TotalDelegated() (*big.Int, error)
	SetTotalDelegated(total *big.Int) error
}

// CollateralToken is the external collateral asset ledger. Every call either
// succeeds completely or reports failure; there is no partial transfer.
type CollateralToken interface {
	BalanceOf(addr [20]byte) (*big.Int, error)
	// MoveIn pulls amount from the delegator into ledger custody.
	MoveIn(from [20]byte, amount *big.Int) error
	// MoveOut releases amount from ledger custody back to the delegator.
	MoveOut(to [20]byte, amount *big.Int) error
}

// Converter absorbs seized collateral during slashing: it is expected to burn
// the custody balance and make the stable-asset side whole. A converter error
// aborts the slash with no partial purge; the node rolls the state session
// back as a unit.
type Converter interface {
	AbsorbSlashedCollateral(amount *big.Int) error
}

// Engine is the delegation bookkeeping ledger. It accepts and releases
// collateral on behalf of delegators, maintains the aggregate, and executes
// the destructive slash transition.
type Engine struct {
	mu        sync.Mutex
	state     engineState
	token     CollateralToken
	converter Converter
	emitter   events.Emitter
	pauses    nativecommon.PauseView
}

// NewEngine constructs a restaking engine with no-op event emission. State,
// token, and converter are wired by the node before use.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCollateralToken wires the external collateral asset ledger.
func (e *Engine) SetCollateralToken(token CollateralToken) { e.token = token }

// SetConverter wires the slashing conversion collaborator.
func (e *Engine) SetConverter(converter Converter) { e.converter = converter }

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

// Delegate pulls amount of collateral from the delegator into ledger custody
// and updates the per-delegator and aggregate totals. All bookkeeping
// completes before the external transfer; any error unwinds the enclosing
// state session.
func (e *Engine) Delegate(delegator [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.token == nil {
		return errNilToken
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	balance, err := e.token.BalanceOf(delegator)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	current, err := e.state.DelegationAmount(delegator)
	if err != nil {
		return err
	}
	total, err := e.state.TotalDelegated()
	if err != nil {
		return err
	}

	newAmount := new(big.Int).Add(current, amount)
	if err := e.state.SetDelegation(delegator, newAmount); err != nil {
		return err
	}
	if err := e.addMember(delegator); err != nil {
		return err
	}
	newTotal := new(big.Int).Add(total, amount)
	if err := e.state.SetTotalDelegated(newTotal); err != nil {
		return err
	}

	if err := e.token.MoveIn(delegator, amount); err != nil {
		return fmt.Errorf("restaking: collateral transfer failed: %w", err)
	}

	e.emitter.Emit(events.DelegationAdded{
		Delegator:      delegator,
		Amount:         new(big.Int).Set(amount),
		NewAmount:      newAmount,
		TotalDelegated: newTotal,
	})
	return nil
}

// Undelegate releases amount of collateral back to the delegator and removes
// them from the delegator set when their record reaches zero.
func (e *Engine) Undelegate(delegator [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.token == nil {
		return errNilToken
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	current, err := e.state.DelegationAmount(delegator)
	if err != nil {
		return err
	}
	if current.Cmp(amount) < 0 {
		return ErrInsufficientDelegation
	}
	total, err := e.state.TotalDelegated()
	if err != nil {
		return err
	}

	newAmount := new(big.Int).Sub(current, amount)
	if err := e.state.SetDelegation(delegator, newAmount); err != nil {
		return err
	}
	if newAmount.Sign() == 0 {
		if err := e.removeMember(delegator); err != nil {
			return err
		}
	}
	newTotal := new(big.Int).Sub(total, amount)
	if err := e.state.SetTotalDelegated(newTotal); err != nil {
		return err
	}

	if err := e.token.MoveOut(delegator, amount); err != nil {
		return fmt.Errorf("restaking: collateral transfer failed: %w", err)
	}

	e.emitter.Emit(events.DelegationRemoved{
		Delegator:      delegator,
		Amount:         new(big.Int).Set(amount),
		NewAmount:      newAmount,
		TotalDelegated: newTotal,
	})
	return nil
}

// TotalDelegated reads the aggregate delegated collateral. Pure read, no
// side effects.
func (e *Engine) TotalDelegated() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TotalDelegated()
}

// DelegationOf reads the delegation recorded for addr.
func (e *Engine) DelegationOf(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.DelegationAmount(addr)
}

// Delegators returns the current delegator set.
func (e *Engine) Delegators() ([][20]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.DelegatorList()
}

func (e *Engine) addMember(addr [20]byte) error {
	member, err := e.state.IsDelegatorMember(addr)
	if err != nil {
		return err
	}
	if member {
		return nil
	}
	list, err := e.state.DelegatorList()
	if err != nil {
		return err
	}
	list = append(list, addr)
	if err := e.state.SetDelegatorList(list); err != nil {
		return err
	}
	return e.state.SetDelegatorMember(addr, true)
}

func (e *Engine) removeMember(addr [20]byte) error {
	member, err := e.state.IsDelegatorMember(addr)
	if err != nil {
		return err
	}
	if !member {
		return nil
	}
	list, err := e.state.DelegatorList()
	if err != nil {
		return err
	}
	filtered := make([][20]byte, 0, len(list))
	for _, entry := range list {
		if entry != addr {
			filtered = append(filtered, entry)
		}
	}
	if err := e.state.SetDelegatorList(filtered); err != nil {
		return err
	}
	return e.state.SetDelegatorMember(addr, false)
}

// slash captures the aggregate, zeroes every delegation record and membership
// flag, clears the set and the aggregate, then hands the captured total to the
// converter. One-way, full-wipe, not re-entrant: callers reach it only through
// a granted SlashCapability and the engine mutex.
func (e *Engine) slash() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.converter == nil {
		return nil, errNilConverter
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	total, err := e.state.TotalDelegated()
	if err != nil {
		return nil, err
	}
	seized := new(big.Int).Set(total)

	list, err := e.state.DelegatorList()
	if err != nil {
		return nil, err
	}
	for _, addr := range list {
		if err := e.state.SetDelegation(addr, big.NewInt(0)); err != nil {
			return nil, err
		}
		if err := e.state.SetDelegatorMember(addr, false); err != nil {
			return nil, err
		}
	}
	if err := e.state.SetDelegatorList(nil); err != nil {
		return nil, err
	}
	if err := e.state.SetTotalDelegated(big.NewInt(0)); err != nil {
		return nil, err
	}

	if seized.Sign() > 0 {
		if err := e.converter.AbsorbSlashedCollateral(seized); err != nil {
			return nil, fmt.Errorf("restaking: convert seized collateral: %w", err)
		}
	}

	e.emitter.Emit(events.CollateralSlashed{
		Total:      new(big.Int).Set(seized),
		Delegators: uint64(len(list)),
	})
	return seized, nil
}
