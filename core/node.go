package core

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"pharos/core/events"
	"pharos/core/state"
	"pharos/native/loan"
	"pharos/native/operator"
	"pharos/native/reserve"
	"pharos/native/restaking"
	"pharos/storage"
)

// ErrUnauthorized is returned when a node-level administrative operation is
// invoked by anyone but the owner.
var ErrUnauthorized = errors.New("core: caller not authorized")

// Node owns the protocol state and serializes every mutating operation. Each
// operation runs inside a single state session: on success the session is
// committed and the buffered events are published, on failure the session is
// discarded and the database is left byte for byte unchanged.
type Node struct {
	mu    sync.Mutex
	db    storage.Database
	state *state.Manager

	restaking *restaking.Engine
	loans     *loan.Engine
	directory *operator.Directory
	converter *reserve.Converter
	agent     *operator.Agent

	owner  [20]byte
	buffer *events.Buffer
	nowFn  func() time.Time

	subMu sync.Mutex
	subs  map[int]chan events.Event
	nexts int
	sinks []events.Emitter
}

// NewNode opens the protocol state on db and applies genesis when the
// database is fresh.
func NewNode(db storage.Database, genesis GenesisConfig) (*Node, error) {
	n := &Node{
		db:     db,
		state:  state.NewManager(db),
		owner:  genesis.Owner,
		buffer: &events.Buffer{},
		nowFn:  func() time.Time { return time.Now().UTC() },
		subs:   make(map[int]chan events.Event),
	}

	n.restaking = restaking.NewEngine()
	n.restaking.SetState(n.state)
	n.restaking.SetEmitter(n.buffer)
	n.restaking.SetPauses(n.state)
	n.restaking.SetCollateralToken(collateralLedger{state: n.state, custody: restakingCustody})

	n.converter = reserve.NewConverter(state.TokenLST, state.TokenPUSD, restakingCustody, reserveAccount, mintAuthority)
	n.converter.SetState(n.state)
	n.restaking.SetConverter(n.converter)

	n.directory = operator.NewDirectory()
	n.directory.SetState(n.state)
	n.directory.SetAdmin(genesis.Owner)
	n.directory.SetEmitter(n.buffer)

	stable := stableLedger{state: n.state, custody: loanCustody}
	n.loans = loan.NewEngine()
	n.loans.SetState(n.state)
	n.loans.SetEmitter(n.buffer)
	n.loans.SetPauses(n.state)
	n.loans.SetCollateralView(n.restaking)
	n.loans.SetStableToken(stable)
	n.loans.SetSlasher(n.restaking.GrantSlashCapability())
	n.loans.SetDirectory(n.directory)
	n.loans.SetOwner(genesis.Owner)
	n.loans.SetNowFunc(n.nowFn)

	n.agent = operator.NewAgent(genesis.Operator, n.loans, stable)

	done, err := n.initialised()
	if err != nil {
		return nil, err
	}
	if !done {
		if err := n.withMutation(func() error {
			return n.applyGenesis(genesis)
		}); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// SetNowFunc overrides the time source. Nil restores the UTC clock.
func (n *Node) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	n.nowFn = now
	n.loans.SetNowFunc(now)
}

func (n *Node) nowUnix() uint64 {
	return uint64(n.nowFn().Unix())
}

// AddEventSink attaches an additional synchronous event consumer, invoked
// after each successful operation for every event it produced.
func (n *Node) AddEventSink(sink events.Emitter) {
	if sink == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sinks = append(n.sinks, sink)
}

// Subscribe registers a buffered event channel. Slow subscribers miss events
// rather than block operations. The returned cancel func drops the
// subscription and closes the channel.
func (n *Node) Subscribe(buffer int) (<-chan events.Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan events.Event, buffer)
	n.subMu.Lock()
	id := n.nexts
	n.nexts++
	n.subs[id] = ch
	n.subMu.Unlock()
	cancel := func() {
		n.subMu.Lock()
		if existing, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(existing)
		}
		n.subMu.Unlock()
	}
	return ch, cancel
}

func (n *Node) publish(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	for _, sink := range n.sinks {
		for _, evt := range evts {
			sink.Emit(evt)
		}
	}
	n.subMu.Lock()
	defer n.subMu.Unlock()
	for _, ch := range n.subs {
		for _, evt := range evts {
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

// withMutation runs fn as one all-or-nothing state transition.
func (n *Node) withMutation(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := fn(); err != nil {
		n.state.Discard()
		n.buffer.Reset()
		return err
	}
	if err := n.state.Commit(); err != nil {
		n.state.Discard()
		n.buffer.Reset()
		return err
	}
	n.publish(n.buffer.Drain())
	return nil
}

// Delegate locks amount of the delegator's collateral and refreshes the
// directory's delegated-total mirror.
func (n *Node) Delegate(delegator [20]byte, amount *big.Int) error {
	return n.withMutation(func() error {
		if err := n.restaking.Delegate(delegator, amount); err != nil {
			return err
		}
		return n.refreshDelegatedMirror()
	})
}

// Undelegate releases amount of the delegator's collateral and refreshes the
// directory's delegated-total mirror.
func (n *Node) Undelegate(delegator [20]byte, amount *big.Int) error {
	return n.withMutation(func() error {
		if err := n.restaking.Undelegate(delegator, amount); err != nil {
			return err
		}
		return n.refreshDelegatedMirror()
	})
}

func (n *Node) refreshDelegatedMirror() error {
	total, err := n.restaking.TotalDelegated()
	if err != nil {
		return err
	}
	return n.directory.SetDelegatedTotal(n.agent.Address(), total)
}

// CreateLoan opens a loan for caller against the current delegation
// aggregate.
func (n *Node) CreateLoan(caller [20]byte, amount *big.Int) (*loan.Loan, error) {
	var created *loan.Loan
	err := n.withMutation(func() error {
		var err error
		if caller == n.agent.Address() {
			created, err = n.agent.Borrow(amount)
		} else {
			created, err = n.loans.CreateLoan(caller, amount)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RepayLoan settles the active loan from caller's stable balance. The agent
// path places the settlement allowance before the pull.
func (n *Node) RepayLoan(caller [20]byte) (*big.Int, error) {
	var repaid *big.Int
	err := n.withMutation(func() error {
		var err error
		if caller == n.agent.Address() {
			repaid, err = n.agent.Repay()
		} else {
			repaid, err = n.loans.RepayLoan(caller)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return repaid, nil
}

// SlashLoan wipes the delegation ledger, converts the seized collateral, and
// closes the loan. Owner only. Irreversible.
func (n *Node) SlashLoan(caller [20]byte) (*big.Int, error) {
	var seized *big.Int
	err := n.withMutation(func() error {
		var err error
		seized, err = n.loans.SlashLoan(caller)
		if err != nil {
			return err
		}
		return n.refreshDelegatedMirror()
	})
	if err != nil {
		return nil, err
	}
	return seized, nil
}

// UpdateBaseRate retunes the base interest rate. Owner only.
func (n *Node) UpdateBaseRate(caller [20]byte, bps uint64) error {
	return n.withMutation(func() error {
		return n.loans.UpdateBaseRate(caller, bps)
	})
}

// UpdateLTVRatio retunes the loan-to-value cap. Owner only.
func (n *Node) UpdateLTVRatio(caller [20]byte, percent uint64) error {
	return n.withMutation(func() error {
		return n.loans.UpdateLTVRatio(caller, percent)
	})
}

// SetOperatorActive toggles the bonded operator's active flag. Owner only.
func (n *Node) SetOperatorActive(caller [20]byte, active bool) error {
	return n.withMutation(func() error {
		return n.directory.SetActive(caller, active)
	})
}

// SetPaused flips a module pause switch. Owner only.
func (n *Node) SetPaused(caller [20]byte, module string, paused bool) error {
	return n.withMutation(func() error {
		if caller != n.owner {
			return ErrUnauthorized
		}
		return n.state.SetPaused(module, paused)
	})
}

// SetTokenMintPaused flips a token's mint pause switch. Owner only.
func (n *Node) SetTokenMintPaused(caller [20]byte, symbol string, paused bool) error {
	return n.withMutation(func() error {
		if caller != n.owner {
			return ErrUnauthorized
		}
		return n.state.SetTokenMintPaused(symbol, paused)
	})
}

// TotalDelegated returns the delegation aggregate.
func (n *Node) TotalDelegated() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.restaking.TotalDelegated()
}

// DelegationOf returns addr's recorded delegation.
func (n *Node) DelegationOf(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.restaking.DelegationOf(addr)
}

// Delegators returns the delegator set in first-delegation order.
func (n *Node) Delegators() ([][20]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.restaking.Delegators()
}

// GetLoan returns a copy of the loan record, or nil when none exists.
func (n *Node) GetLoan() (*loan.Loan, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loans.Loan()
}

// LoanParams returns the origination parameters currently in force.
func (n *Node) LoanParams() (loan.Params, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loans.Params()
}

// Repayment returns the flat settlement owed on the current loan.
func (n *Node) Repayment() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loans.Repayment()
}

// DueAmount returns the interest-bearing amount owed at the current time.
func (n *Node) DueAmount() (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loans.DueAmount()
}

// OperatorInfo returns the bonded operator's directory entry.
func (n *Node) OperatorInfo() (*operator.Record, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.directory.Info()
}

// Balance returns addr's balance in the given token.
func (n *Node) Balance(symbol string, addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.TokenBalance(symbol, addr)
}

// OperatorAddress returns the bonded operator identity fixed at genesis.
func (n *Node) OperatorAddress() [20]byte {
	return n.agent.Address()
}

// Owner returns the administrative identity fixed at genesis.
func (n *Node) Owner() [20]byte {
	return n.owner
}
