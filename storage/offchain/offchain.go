// Package offchain is node-local storage used by the bridge workers: the
// per-contract sync cursor, the pending detach queue and the derived detach
// key cache. None of it is consensus state and nodes never share it.
package offchain

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	amino "github.com/tendermint/go-amino"

	"github.com/herdius/herdius-bridge/storage/cache"
	"github.com/herdius/herdius-bridge/storage/db"
	"github.com/herdius/herdius-bridge/types"
)

var cdc = amino.NewCodec()

var (
	prefixCursor  = []byte("cursor/")
	prefixDetach  = []byte("detach/")
	prefixDerived = []byte("derived/")
	keyDetachSeq  = []byte("meta/detach-seq")
)

// Store is the node-local off-chain store.
type Store struct {
	db    db.DB
	cache *cache.Cache
}

// New wraps a database with an in-memory cache for derived keys.
func New(database db.DB) *Store {
	return &Store{db: database, cache: cache.New()}
}

func key(prefix, k []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(k))
	return append(append(out, prefix...), k...)
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// Cursor returns the last external block synced for contract.
func (s *Store) Cursor(contract common.Address) (uint64, bool) {
	bz := s.db.Get(key(prefixCursor, contract[:]))
	if len(bz) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(bz), true
}

// SetCursor records the last external block synced for contract.
func (s *Store) SetCursor(contract common.Address, block uint64) {
	s.db.SetSync(key(prefixCursor, contract[:]), encodeUint64(block))
}

// EnqueueDetach appends requests to the detach queue in one batch.
func (s *Store) EnqueueDetach(reqs ...types.DetachRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	var seq uint64
	if bz := s.db.Get(keyDetachSeq); len(bz) == 8 {
		seq = binary.BigEndian.Uint64(bz)
	}
	batch := s.db.NewBatch()
	for _, req := range reqs {
		bz, err := cdc.MarshalBinaryBare(req)
		if err != nil {
			return errors.Wrap(err, "encode detach request")
		}
		batch.Set(key(prefixDetach, encodeUint64(seq)), bz)
		seq++
	}
	batch.Set(keyDetachSeq, encodeUint64(seq))
	return errors.Wrap(batch.Write(), "enqueue detach requests")
}

// PendingDetach lists the queued requests in order without removing them.
func (s *Store) PendingDetach() ([]types.DetachRequest, error) {
	reqs, _, err := s.pending()
	return reqs, err
}

// DrainDetach removes and returns every queued request.
func (s *Store) DrainDetach() ([]types.DetachRequest, error) {
	reqs, keys, err := s.pending()
	if err != nil || len(keys) == 0 {
		return reqs, err
	}
	batch := s.db.NewBatch()
	for _, k := range keys {
		batch.Delete(k)
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "drain detach queue")
	}
	return reqs, nil
}

func (s *Store) pending() ([]types.DetachRequest, [][]byte, error) {
	var (
		reqs   []types.DetachRequest
		keys   [][]byte
		decErr error
	)
	err := s.db.IteratePrefix(prefixDetach, func(k, v []byte) bool {
		var req types.DetachRequest
		if decErr = cdc.UnmarshalBinaryBare(v, &req); decErr != nil {
			return false
		}
		reqs = append(reqs, req)
		keys = append(keys, append([]byte(nil), k...))
		return true
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "read detach queue")
	}
	if decErr != nil {
		return nil, nil, errors.Wrap(decErr, "decode detach request")
	}
	return reqs, keys, nil
}

// DerivedKey returns the cached derived public key for an identity key.
func (s *Store) DerivedKey(identity []byte) ([]byte, bool) {
	k := string(key(prefixDerived, identity))
	if v, ok := s.cache.Get(k); ok {
		return v.([]byte), true
	}
	bz := s.db.Get([]byte(k))
	if bz == nil {
		return nil, false
	}
	s.cache.Set(k, bz)
	return bz, true
}

// SetDerivedKey stores the derived public key for an identity key.
func (s *Store) SetDerivedKey(identity, derived []byte) error {
	k := key(prefixDerived, identity)
	s.db.SetSync(k, derived)
	s.cache.Set(string(k), append([]byte(nil), derived...))
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() {
	s.db.Close()
}
