// Package blockchain executes blocks of bridge transactions. It stands in for
// the ledger's block production: each block drains the pool, applies every
// transaction in its own state transaction and then hands a read-only view to
// the off-chain workers.
package blockchain

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/herdius/herdius-bridge/bridge"
	cmn "github.com/herdius/herdius-bridge/libs/common"
	"github.com/herdius/herdius-bridge/libs/log"
	"github.com/herdius/herdius-bridge/storage/db"
	"github.com/herdius/herdius-bridge/storage/mempool"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
)

// Hook runs after a block is committed. It must not mutate state; anything it
// wants changed goes through the pool.
type Hook func(ctx context.Context, height uint64, snap *statedb.Tx)

// DetachQueue receives detach requests from committed transactions.
type DetachQueue interface {
	EnqueueDetach(reqs ...types.DetachRequest) error
}

// ServiceI is blockchain service interface
type ServiceI interface {
	ProduceBlock(ctx context.Context) (*Block, error)
	GetBlockByHeight(height uint64) (*Block, error)
	GetLastBlock() (*Block, error)
	GetTx(hash []byte) (*Block, int, error)
}

var _ ServiceI = (*Service)(nil)

var (
	prefixBlock = []byte("block/")
	prefixTx    = []byte("tx/")
)

// Service executes blocks.
type Service struct {
	chain  db.DB
	state  *statedb.Store
	pool   *mempool.MemPool
	bridge *bridge.Bridge
	queue  DetachQueue
	hooks  []Hook
	log    zerolog.Logger
}

// NewService wires the harness.
func NewService(chain db.DB, state *statedb.Store, pool *mempool.MemPool, b *bridge.Bridge, queue DetachQueue) *Service {
	return &Service{
		chain:  chain,
		state:  state,
		pool:   pool,
		bridge: b,
		queue:  queue,
		log:    log.Component("blockchain"),
	}
}

// AddHook registers a post-block hook.
func (s *Service) AddHook(h Hook) {
	s.hooks = append(s.hooks, h)
}

// InitGenesis installs the genesis authorities at height 0 unless state
// already exists.
func (s *Service) InitGenesis(lockKeys, detachKeys [][]byte) error {
	if s.state.Height() > 0 || s.chain.Has(blockKey(0)) {
		return nil
	}
	st := s.state.Begin(0)
	defer st.Discard()
	if err := s.bridge.InitGenesis(st, lockKeys, detachKeys); err != nil {
		return errors.Wrap(err, "genesis authorities")
	}
	if err := st.Commit(); err != nil {
		return err
	}
	snap := s.state.Snapshot()
	defer snap.Discard()
	genesis := &Block{Height: 0, Time: time.Now().UTC()}
	if err := s.stampAuthorities(snap, genesis); err != nil {
		return err
	}
	return s.store(genesis)
}

// ProduceBlock executes every pooled transaction at the next height. A failing
// transaction is recorded and discarded without touching state.
func (s *Service) ProduceBlock(ctx context.Context) (*Block, error) {
	height := s.state.Height() + 1
	txs := s.pool.Drain()
	block := &Block{
		Height: height,
		Time:   time.Now().UTC(),
		TxRoot: txs.MerkleHash(),
	}

	for _, t := range txs {
		block.Txs = append(block.Txs, cmn.HexBytes(t))
		block.Results = append(block.Results, s.execute(height, t))
	}

	// the height moves even for empty blocks
	if err := s.state.Begin(height).Commit(); err != nil {
		return nil, errors.Wrap(err, "commit block height")
	}
	snap := s.state.Snapshot()
	defer snap.Discard()
	if err := s.stampAuthorities(snap, block); err != nil {
		return nil, err
	}
	if err := s.store(block); err != nil {
		return nil, err
	}

	s.log.Info().Uint64("height", height).Int("txs", len(txs)).Msg("block committed")
	for _, h := range s.hooks {
		h(ctx, height, snap)
	}
	return block, nil
}

// stampAuthorities records which authority sets were in force after the
// block, so a reader can tell when a rotation took effect.
func (s *Service) stampAuthorities(snap *statedb.Tx, b *Block) error {
	lock, err := s.bridge.Authorities(snap, types.LockAuthorities)
	if err != nil {
		return errors.Wrap(err, "lock authorities")
	}
	detach, err := s.bridge.Authorities(snap, types.DetachAuthorities)
	if err != nil {
		return errors.Wrap(err, "detach authorities")
	}
	b.LockAuthoritiesHash = lock.Hash()
	b.DetachAuthoritiesHash = detach.Hash()
	return nil
}

func (s *Service) execute(height uint64, t tx.Tx) TxResult {
	res := TxResult{Hash: t.Hash()}
	env, err := tx.Decode(t)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Call = env.Call.CallName()

	st := s.state.Begin(height)
	defer st.Discard()
	if err := s.bridge.Apply(st, env); err != nil {
		res.Error = err.Error()
		s.log.Warn().Err(err).Str("call", res.Call).Msg("transaction failed")
		return res
	}
	if err := st.Commit(); err != nil {
		res.Error = err.Error()
		s.log.Error().Err(err).Str("call", res.Call).Msg("commit failed")
		return res
	}
	for _, ev := range st.Events() {
		s.log.Info().Str("event", ev.EventName()).Uint64("height", height).Msgf("%+v", ev)
	}
	if reqs := st.DetachRequests(); len(reqs) > 0 && s.queue != nil {
		if err := s.queue.EnqueueDetach(reqs...); err != nil {
			s.log.Error().Err(err).Msg("detach requests not queued")
		}
	}
	return res
}

func blockKey(height uint64) []byte {
	k := make([]byte, len(prefixBlock)+8)
	copy(k, prefixBlock)
	binary.BigEndian.PutUint64(k[len(prefixBlock):], height)
	return k
}

func txKey(hash []byte) []byte {
	return append(append([]byte(nil), prefixTx...), hash...)
}

// store writes the block and indexes its transactions by hash.
func (s *Service) store(b *Block) error {
	bz, err := cdc.MarshalBinaryBare(b)
	if err != nil {
		return errors.Wrap(err, "encode block")
	}
	batch := s.chain.NewBatch()
	batch.Set(blockKey(b.Height), bz)
	for _, r := range b.Results {
		batch.Set(txKey(r.Hash), blockKey(b.Height)[len(prefixBlock):])
	}
	return errors.Wrap(batch.Write(), "store block")
}

// GetBlockByHeight loads a stored block.
func (s *Service) GetBlockByHeight(height uint64) (*Block, error) {
	bz := s.chain.Get(blockKey(height))
	if bz == nil {
		return nil, fmt.Errorf("block %d not found", height)
	}
	b := &Block{}
	if err := cdc.UnmarshalBinaryBare(bz, b); err != nil {
		return nil, fmt.Errorf("failed to Unmarshal block: %v", err)
	}
	return b, nil
}

// GetTx finds the block that carried the transaction with hash and its
// position in that block.
func (s *Service) GetTx(hash []byte) (*Block, int, error) {
	bz := s.chain.Get(txKey(hash))
	if len(bz) != 8 {
		return nil, -1, fmt.Errorf("tx %X not found", hash)
	}
	b, err := s.GetBlockByHeight(binary.BigEndian.Uint64(bz))
	if err != nil {
		return nil, -1, err
	}
	txs := make(tx.Txs, len(b.Txs))
	for i, t := range b.Txs {
		txs[i] = tx.Tx(t)
	}
	idx := txs.IndexByHash(hash)
	if idx < 0 {
		return nil, -1, fmt.Errorf("tx %X not in block %d", hash, b.Height)
	}
	return b, idx, nil
}

// GetLastBlock loads the block at the committed height.
func (s *Service) GetLastBlock() (*Block, error) {
	return s.GetBlockByHeight(s.state.Height())
}

// Run produces a block every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.ProduceBlock(ctx); err != nil {
				s.log.Error().Err(err).Msg("block production failed")
			}
		}
	}
}
