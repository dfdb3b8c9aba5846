package state

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"milkfactory/core/events"
	"milkfactory/storage"
)

// ErrReadOnly is returned when a write is attempted inside View.
var ErrReadOnly = errors.New("state: read-only transaction")

// Manager serialises every ledger operation behind a single lock. Writes are
// staged in a Tx overlay and reach the database in one batch only when the
// operation succeeds, so a failed operation never leaves partial state behind.
type Manager struct {
	mu      sync.Mutex
	db      storage.Database
	emitter events.Emitter
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the emitter that receives events staged by committed
// transactions. Passing nil resets the emitter to a no-op implementation.
// Emitters run while the state lock is held and must not call back into the
// manager.
func (m *Manager) SetEmitter(emitter events.Emitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

// Update runs fn inside a writable transaction. The staged writes are
// committed and the staged events emitted only if fn returns nil.
func (m *Manager) Update(fn func(tx *Tx) error) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not configured")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := newTx(m.db, true)
	if err := fn(tx); err != nil {
		return err
	}
	if err := m.db.WriteBatch(tx.batch()); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	for _, evt := range tx.events {
		m.emitter.Emit(evt)
	}
	return nil
}

// View runs fn inside a read-only transaction.
func (m *Manager) View(fn func(tx *Tx) error) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not configured")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(newTx(m.db, false))
}

// Tx is the staged view of state used by a single operation.
type Tx struct {
	db       storage.Database
	writable bool
	pending  map[string][]byte
	deleted  map[string]bool
	order    []string
	events   []events.Event
}

func newTx(db storage.Database, writable bool) *Tx {
	return &Tx{
		db:       db,
		writable: writable,
		pending:  make(map[string][]byte),
		deleted:  make(map[string]bool),
	}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (tx *Tx) get(key []byte) ([]byte, error) {
	k := string(key)
	if tx.deleted[k] {
		return nil, nil
	}
	if value, ok := tx.pending[k]; ok {
		return value, nil
	}
	value, err := tx.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (tx *Tx) put(key, value []byte) error {
	if !tx.writable {
		return ErrReadOnly
	}
	k := string(key)
	if _, staged := tx.pending[k]; !staged && !tx.deleted[k] {
		tx.order = append(tx.order, k)
	}
	delete(tx.deleted, k)
	tx.pending[k] = append([]byte(nil), value...)
	return nil
}

func (tx *Tx) remove(key []byte) error {
	if !tx.writable {
		return ErrReadOnly
	}
	k := string(key)
	if _, staged := tx.pending[k]; !staged && !tx.deleted[k] {
		tx.order = append(tx.order, k)
	}
	delete(tx.pending, k)
	tx.deleted[k] = true
	return nil
}

func (tx *Tx) batch() *storage.Batch {
	b := new(storage.Batch)
	for _, k := range tx.order {
		if tx.deleted[k] {
			b.Delete([]byte(k))
			continue
		}
		b.Put([]byte(k), tx.pending[k])
	}
	return b
}

// Emit stages an event that is delivered once the transaction commits.
func (tx *Tx) Emit(evt events.Event) {
	if tx == nil || evt == nil || !tx.writable {
		return
	}
	tx.events = append(tx.events, evt)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before it reaches the database.
func (tx *Tx) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return tx.put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (tx *Tx) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := tx.get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under key.
func (tx *Tx) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return tx.remove(kvKey(key))
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice to avoid nil
// surprises for callers.
func (tx *Tx) KVGetList(key []byte, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("kv: destination must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Slice {
		return fmt.Errorf("kv: destination must point to a slice")
	}
	found, err := tx.KVGet(key, out)
	if err != nil {
		return err
	}
	if !found {
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	}
	return nil
}
