package db

import (
	"io"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	cmn "github.com/herdius/herdius-bridge/libs/common"
)

var _ DB = (*BadgerDB)(nil)

// BadgerDB ...
type BadgerDB struct {
	db *badger.DB
}

// NewBadgerDB opens (or creates) a badger database in dir.
func NewBadgerDB(dir string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	return NewBadgerDBWithOpts(opts)
}

// NewMemDB opens an in-memory badger database, used by tests and dry runs.
func NewMemDB() (*BadgerDB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return NewBadgerDBWithOpts(opts)
}

// NewBadgerDBWithOpts ...
func NewBadgerDBWithOpts(opts badger.Options) (*BadgerDB, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &BadgerDB{db: db}, nil
}

// GetBadgerDB ...
func (db *BadgerDB) GetBadgerDB() *badger.DB {
	return db.db
}

func (db *BadgerDB) Get(key []byte) []byte {
	var value []byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nonNilBytes(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			cmn.PanicCrisis(err)
		}
		return nil
	}
	return value
}

func (db *BadgerDB) Has(key []byte) bool {
	err := db.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(nonNilBytes(key))
		return err
	})
	if err != nil && err != badger.ErrKeyNotFound {
		cmn.PanicCrisis(err)
	}
	return err == nil
}

func (db *BadgerDB) Set(key []byte, value []byte) {
	db.SetSync(key, value)
}

func (db *BadgerDB) SetSync(key []byte, value []byte) {
	err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nonNilBytes(key), nonNilBytes(value))
	})
	if err != nil {
		cmn.PanicCrisis(err)
	}
}

func (db *BadgerDB) Delete(key []byte) {
	db.DeleteSync(key)
}

func (db *BadgerDB) DeleteSync(key []byte) {
	err := db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nonNilBytes(key))
	})
	if err != nil {
		cmn.PanicCrisis(err)
	}
}

func (db *BadgerDB) IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error {
	return db.db.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, prefix, fn)
	})
}

func iteratePrefix(txn *badger.Txn, prefix []byte, fn func(key, value []byte) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if !fn(item.KeyCopy(nil), v) {
			return nil
		}
	}
	return nil
}

func (db *BadgerDB) NewTransaction(update bool) Txn {
	return &badgerTxn{txn: db.db.NewTransaction(update)}
}

func (db *BadgerDB) NewBatch() Batch {
	return &badgerBatch{db: db.db}
}

func (db *BadgerDB) Backup(w io.Writer) error {
	_, err := db.db.Backup(w, 0)
	return errors.Wrap(err, "badger backup")
}

func (db *BadgerDB) Load(r io.Reader) error {
	return errors.Wrap(db.db.Load(r, 256), "badger load")
}

func (db *BadgerDB) Close() {
	if err := db.db.Close(); err != nil {
		cmn.PanicCrisis(err)
	}
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) Get(key []byte) []byte {
	item, err := t.txn.Get(nonNilBytes(key))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		cmn.PanicCrisis(err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		cmn.PanicCrisis(err)
	}
	return value
}

func (t *badgerTxn) Has(key []byte) bool {
	_, err := t.txn.Get(nonNilBytes(key))
	if err != nil && err != badger.ErrKeyNotFound {
		cmn.PanicCrisis(err)
	}
	return err == nil
}

func (t *badgerTxn) Set(key, value []byte) error {
	return errors.Wrap(t.txn.Set(nonNilBytes(key), nonNilBytes(value)), "txn set")
}

func (t *badgerTxn) Delete(key []byte) error {
	return errors.Wrap(t.txn.Delete(nonNilBytes(key)), "txn delete")
}

func (t *badgerTxn) IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error {
	return iteratePrefix(t.txn, prefix, fn)
}

func (t *badgerTxn) Commit() error {
	return errors.Wrap(t.txn.Commit(), "txn commit")
}

func (t *badgerTxn) Discard() {
	t.txn.Discard()
}

type batchOp struct {
	key, value []byte
	delete     bool
}

type badgerBatch struct {
	db  *badger.DB
	ops []batchOp
}

func (b *badgerBatch) Set(key, value []byte) {
	b.ops = append(b.ops, batchOp{key: nonNilBytes(key), value: nonNilBytes(value)})
}

func (b *badgerBatch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: nonNilBytes(key), delete: true})
}

// Write applies all operations in one badger transaction.
func (b *badgerBatch) Write() error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			if op.delete {
				if err := txn.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "write batch")
	}
	b.ops = nil
	return nil
}
