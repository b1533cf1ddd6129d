package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"pharos/storage"
)

// Manager reads and writes protocol state against the backing database. All
// writes land in an in-memory overlay first; Commit flushes the overlay and
// Discard drops it, which is what gives every public node operation its
// all-or-nothing semantics. The manager expects a single serialized caller
// and performs no locking of its own.
type Manager struct {
	db      storage.Database
	overlay map[string][]byte
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		overlay: make(map[string][]byte),
	}
}

var errNilManager = errors.New("state: manager not initialised")

func (m *Manager) rawPut(key []byte, value []byte) error {
	if m == nil {
		return errNilManager
	}
	m.overlay[string(key)] = append([]byte(nil), value...)
	return nil
}

// rawGet returns nil with no error when the key is absent.
func (m *Manager) rawGet(key []byte) ([]byte, error) {
	if m == nil {
		return nil, errNilManager
	}
	if value, ok := m.overlay[string(key)]; ok {
		return append([]byte(nil), value...), nil
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Commit flushes all pending writes to the backing database and clears the
// overlay. Writes are flushed in deterministic key order.
func (m *Manager) Commit() error {
	if m == nil {
		return errNilManager
	}
	keys := make([]string, 0, len(m.overlay))
	for key := range m.overlay {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := m.db.Put([]byte(key), m.overlay[key]); err != nil {
			return fmt.Errorf("state: commit %x: %w", key, err)
		}
	}
	m.overlay = make(map[string][]byte)
	return nil
}

// Discard drops all pending writes, rolling the visible state back to the
// last commit.
func (m *Manager) Discard() {
	if m == nil {
		return
	}
	m.overlay = make(map[string][]byte)
}

// Dirty reports whether uncommitted writes are pending.
func (m *Manager) Dirty() bool {
	return m != nil && len(m.overlay) > 0
}

func (m *Manager) putRLP(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	return m.rawPut(key, encoded)
}

// getRLP decodes the value under key into out. The boolean reports whether a
// value was present.
func (m *Manager) getRLP(key []byte, out interface{}) (bool, error) {
	data, err := m.rawGet(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode: %w", err)
	}
	return true, nil
}

// --- Parameter store ---

// ParamStoreSet persists a named parameter blob.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	return m.putRLP(paramKey(name), value)
}

// ParamStoreGet retrieves a named parameter blob. The boolean reports whether
// the parameter exists.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	var value []byte
	ok, err := m.getRLP(paramKey(name), &value)
	if err != nil || !ok {
		return nil, ok, err
	}
	return value, true, nil
}

// --- Pause switches ---

// SetPaused toggles the pause switch for a native module.
func (m *Manager) SetPaused(module string, paused bool) error {
	return m.putRLP(pauseKey(module), paused)
}

// IsPaused implements the native/common PauseView interface. Lookup failures
// report the module as running; pauses are an operational convenience, not a
// safety gate.
func (m *Manager) IsPaused(module string) bool {
	var paused bool
	ok, err := m.getRLP(pauseKey(module), &paused)
	if err != nil || !ok {
		return false
	}
	return paused
}
