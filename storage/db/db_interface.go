package db

import "io"

// DB ...
// A nil key is interpreted as an empty byteslice.
type DB interface {

	// Get returns nil if key doesn't exist.
	// CONTRACT: key, value readonly []byte
	Get([]byte) []byte

	// Has checks if a key exists.
	// CONTRACT: key, value readonly []byte
	Has(key []byte) bool

	// Set sets the key.
	// CONTRACT: key, value readonly []byte
	Set([]byte, []byte)
	SetSync([]byte, []byte)

	// Delete deletes the key.
	// CONTRACT: key readonly []byte
	Delete([]byte)
	DeleteSync([]byte)

	// IteratePrefix calls fn for every key with the given prefix in ascending
	// order until fn returns false.
	// CONTRACT: No writes may happen within the prefix while iterating.
	IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error

	// NewBatch starts a write batch that is applied atomically by Write.
	NewBatch() Batch

	// NewTransaction opens a transaction over a consistent view of the
	// database. Read-only transactions reject writes.
	NewTransaction(update bool) Txn

	// Backup streams a full backup of the database.
	Backup(w io.Writer) error

	// Load restores a stream written by Backup.
	Load(r io.Reader) error

	// Closes the connection.
	Close()
}

//----------------------------------------
// Txn

// Txn reads its own pending writes; nothing reaches the database until
// Commit. Every transaction must end in Commit or Discard.
type Txn interface {
	// Get returns nil if key doesn't exist.
	Get(key []byte) []byte
	Has(key []byte) bool
	Set(key, value []byte) error
	Delete(key []byte) error

	// IteratePrefix sees pending writes.
	// CONTRACT: fn must not write through the same Txn.
	IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error

	Commit() error
	// Discard is a no-op after Commit.
	Discard()
}

//----------------------------------------
// Batch

// Batch collects writes; nothing is visible until Write succeeds.
type Batch interface {
	SetDeleter
	Write() error
}

type SetDeleter interface {
	Set(key, value []byte) // CONTRACT: key, value readonly []byte
	Delete(key []byte)     // CONTRACT: key readonly []byte
}

// Turn nil keys or values into []byte{}
func nonNilBytes(bz []byte) []byte {
	if bz == nil {
		return []byte{}
	}
	return bz
}
