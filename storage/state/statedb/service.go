// Package statedb is the ledger state the bridge mutates. All writes go
// through a badger transaction and reach the database only on Commit, so a
// call that fails leaves no trace once its Tx is discarded.
package statedb

import (
	"encoding/binary"

	"github.com/pkg/errors"
	amino "github.com/tendermint/go-amino"

	"github.com/herdius/herdius-bridge/storage/db"
	"github.com/herdius/herdius-bridge/types"
)

var cdc = amino.NewCodec()

func init() {
	RegisterStateAmino(cdc)
}

// RegisterStateAmino registers everything persisted in state.
func RegisterStateAmino(cdc *amino.Codec) {
	types.RegisterEventsAmino(cdc)
}

var (
	// ErrReadOnly is returned when writing through a snapshot.
	ErrReadOnly = errors.New("state snapshot is read-only")
	// ErrCommitted is returned when committing a finished transaction.
	ErrCommitted = errors.New("state transaction already finished")
)

// Store is the committed ledger state.
type Store struct {
	db db.DB
}

// New wraps a database.
func New(database db.DB) *Store {
	return &Store{db: database}
}

// Height returns the last committed block height.
func (s *Store) Height() uint64 {
	return decodeUint64(s.db.Get(keyHeight))
}

// Begin opens a writable transaction for the block at height.
func (s *Store) Begin(height uint64) *Tx {
	return &Tx{txn: s.db.NewTransaction(true), height: height}
}

// Snapshot opens a read-only view of the committed state. Callers must
// Discard it.
func (s *Store) Snapshot() *Tx {
	txn := s.db.NewTransaction(false)
	return &Tx{txn: txn, height: decodeUint64(txn.Get(keyHeight)), readOnly: true}
}

// Tx is a database transaction on Store.
type Tx struct {
	txn      db.Txn
	height   uint64
	readOnly bool
	done     bool
	events   []types.Event
	detaches []types.DetachRequest
}

// Height is the block height the transaction writes at.
func (tx *Tx) Height() uint64 {
	return tx.height
}

func (tx *Tx) get(key []byte) []byte {
	return tx.txn.Get(key)
}

func (tx *Tx) has(key []byte) bool {
	return tx.txn.Has(key)
}

func (tx *Tx) set(key, value []byte) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	return tx.txn.Set(key, value)
}

func (tx *Tx) del(key []byte) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	return tx.txn.Delete(key)
}

// iterate visits committed and pending keys under prefix in ascending order.
// fn must not write.
func (tx *Tx) iterate(prefix []byte, fn func(key, value []byte) bool) error {
	return errors.Wrap(tx.txn.IteratePrefix(prefix, fn), "iterate state")
}

// Emit records an event to be persisted on Commit.
func (tx *Tx) Emit(ev types.Event) {
	tx.events = append(tx.events, ev)
}

// Events returns the events emitted so far.
func (tx *Tx) Events() []types.Event {
	return tx.events
}

// QueueDetach hands a request to the node-local detach queue once the
// transaction commits. It is not part of ledger state.
func (tx *Tx) QueueDetach(req types.DetachRequest) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	tx.detaches = append(tx.detaches, req)
	return nil
}

// DetachRequests returns the requests queued so far.
func (tx *Tx) DetachRequests() []types.DetachRequest {
	return tx.detaches
}

// Commit writes the transaction atomically. Events and queued detach
// requests stay readable afterwards.
func (tx *Tx) Commit() error {
	if tx.readOnly {
		return ErrReadOnly
	}
	if tx.done {
		return ErrCommitted
	}
	defer tx.Discard()
	if len(tx.events) > 0 {
		seq := tx.eventCount()
		for _, ev := range tx.events {
			bz, err := cdc.MarshalBinaryBare(ev)
			if err != nil {
				return errors.Wrap(err, "encode event")
			}
			if err := tx.txn.Set(eventKey(tx.height, seq), bz); err != nil {
				return errors.Wrap(err, "write event")
			}
			seq++
		}
	}
	if tx.height > decodeUint64(tx.txn.Get(keyHeight)) {
		if err := tx.txn.Set(keyHeight, encodeUint64(tx.height)); err != nil {
			return errors.Wrap(err, "write height")
		}
	}
	if err := tx.txn.Commit(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	return nil
}

// Discard drops uncommitted writes and releases the transaction. It is safe
// to call more than once.
func (tx *Tx) Discard() {
	if tx.done {
		return
	}
	tx.done = true
	tx.txn.Discard()
}

func (tx *Tx) eventCount() uint32 {
	var n uint32
	_ = tx.txn.IteratePrefix(eventPrefix(tx.height), func(_, _ []byte) bool {
		n++
		return true
	})
	return n
}

// EventsAt returns the events committed at height, in emission order.
func (s *Store) EventsAt(height uint64) ([]types.Event, error) {
	var (
		out    []types.Event
		decErr error
	)
	err := s.db.IteratePrefix(eventPrefix(height), func(_, v []byte) bool {
		var ev types.Event
		if decErr = cdc.UnmarshalBinaryBare(v, &ev); decErr != nil {
			return false
		}
		out = append(out, ev)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decErr != nil {
		return nil, errors.Wrap(decErr, "decode event")
	}
	return out, nil
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeUint64(bz []byte) uint64 {
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}
