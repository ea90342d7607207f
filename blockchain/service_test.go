package blockchain

import (
	"context"
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdius/herdius-bridge/bridge"
	"github.com/herdius/herdius-bridge/crypto/ed"
	"github.com/herdius/herdius-bridge/crypto/ethsig"
	"github.com/herdius/herdius-bridge/crypto/secp256k1"
	"github.com/herdius/herdius-bridge/storage/db"
	"github.com/herdius/herdius-bridge/storage/mempool"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
	"github.com/herdius/herdius-bridge/validator"
)

type memQueue struct {
	reqs []types.DetachRequest
}

func (q *memQueue) EnqueueDetach(reqs ...types.DetachRequest) error {
	q.reqs = append(q.reqs, reqs...)
	return nil
}

type fixture struct {
	service  *Service
	state    *statedb.Store
	pool     *mempool.MemPool
	queue    *memQueue
	lockKey  ed.PrivKeyEd25519
	root     ed.PrivKeyEd25519
	external *ecdsa.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stateDB, err := db.NewMemDB()
	require.NoError(t, err)
	t.Cleanup(stateDB.Close)
	chainDB, err := db.NewMemDB()
	require.NoError(t, err)
	t.Cleanup(chainDB.Close)

	f := &fixture{
		state:   statedb.New(stateDB),
		pool:    mempool.New(),
		queue:   &memQueue{},
		lockKey: ed.GenPrivKey(),
		root:    ed.GenPrivKey(),
	}
	f.external, err = ethcrypto.GenerateKey()
	require.NoError(t, err)

	b, err := bridge.New(bridge.Config{
		Chain:     types.Goerli,
		Threshold: 1,
		Domain:    ethsig.Domain{Name: "herdius", Version: "1", ChainID: 5},
		Root:      types.AccountID(f.root.PubKeyEd25519()),
	})
	require.NoError(t, err)
	f.service = NewService(chainDB, f.state, f.pool, b, f.queue)

	lockPub := f.lockKey.PubKeyEd25519()
	require.NoError(t, f.service.InitGenesis([][]byte{lockPub[:]}, nil))
	return f
}

func (f *fixture) sender() common.Address {
	return ethcrypto.PubkeyToAddress(f.external.PublicKey)
}

func (f *fixture) pushLock(t *testing.T, amount uint64) {
	a, p := uint256.NewInt(amount), uint256.NewInt(10)
	sig, err := ethcrypto.Sign(ethsig.ReplayDigest(true, f.sender(), 5, a, p), f.external)
	require.NoError(t, err)
	ev := tx.NewLockUpdateEvent(f.sender(), a, p, sig, true, 7)
	pub := f.lockKey.PubKeyEd25519()
	ev.SignerPubKey = pub[:]
	asig, err := f.lockKey.Sign(ev.Bytes())
	require.NoError(t, err)
	call := tx.SubmitLockUpdate{Payload: ev, Signature: asig}

	bz, err := tx.NewUnsigned(call).Encode()
	require.NoError(t, err)
	f.pool.AddTx(bz, call.Tag())
}

func (f *fixture) lockPub() []byte {
	pub := f.lockKey.PubKeyEd25519()
	return pub[:]
}

func (f *fixture) pushSigned(t *testing.T, key ed.PrivKeyEd25519, call tx.Call) {
	f.push(t, tx.OriginSigned, key, call)
}

func (f *fixture) push(t *testing.T, origin tx.Origin, key ed.PrivKeyEd25519, call tx.Call) {
	env := &tx.Envelope{Call: call}
	require.NoError(t, env.Sign(origin, key))
	bz, err := env.Encode()
	require.NoError(t, err)
	f.pool.AddTx(bz, bz.Hash())
}

func TestInitGenesisIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.service.InitGenesis(nil, nil))

	keys, err := f.state.Snapshot().AuthorityKeys(types.LockAuthorities)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	genesis, err := f.service.GetBlockByHeight(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), genesis.Height)
}

func TestProduceEmptyBlock(t *testing.T) {
	f := newFixture(t)
	b, err := f.service.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b.Height)
	assert.Empty(t, b.Txs)
	assert.Equal(t, uint64(1), f.state.Height())

	last, err := f.service.GetLastBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), last.Height)
}

func TestProduceBlockAppliesLock(t *testing.T) {
	f := newFixture(t)
	f.pushLock(t, 100)

	b, err := f.service.ProduceBlock(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Results, 1)
	assert.True(t, b.Results[0].OK(), b.Results[0].Error)
	assert.Equal(t, "submit_lock_update", b.Results[0].Call)
	assert.Equal(t, 0, f.pool.Len())

	snap := f.state.Snapshot()
	assert.Equal(t, uint64(100), snap.Reserved(f.sender()).Uint64())
	events, err := f.state.EventsAt(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Locked", events[0].EventName())
}

func TestProduceBlockRecordsFailures(t *testing.T) {
	f := newFixture(t)
	f.pushLock(t, 100)
	_, err := f.service.ProduceBlock(context.Background())
	require.NoError(t, err)

	// the same attestation again is already processed
	f.pushLock(t, 100)
	b, err := f.service.ProduceBlock(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Results, 1)
	assert.False(t, b.Results[0].OK())
	assert.Equal(t, uint64(2), f.state.Height())

	stored, err := f.service.GetBlockByHeight(2)
	require.NoError(t, err)
	assert.Equal(t, b.Results, stored.Results)
}

func TestProduceBlockQueuesDetachAfterCommit(t *testing.T) {
	f := newFixture(t)
	owner := ed.GenPrivKey()
	target := common.HexToAddress("0x00000000000000000000000000000000000000b0")

	f.pushSigned(t, owner, tx.RegisterAsset{Asset: []byte("asset")})
	f.pushSigned(t, owner, tx.RequestDetach{Asset: []byte("asset"), Chain: types.Goerli, Target: target})
	// not the owner
	f.pushSigned(t, ed.GenPrivKey(), tx.RequestDetach{Asset: []byte("asset"), Chain: types.Goerli, Target: target})

	b, err := f.service.ProduceBlock(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Results, 3)
	assert.True(t, b.Results[0].OK())
	assert.True(t, b.Results[1].OK())
	assert.False(t, b.Results[2].OK())

	require.Len(t, f.queue.reqs, 1)
	assert.Equal(t, target, f.queue.reqs[0].Target)
}

func TestHooksSeeCommittedState(t *testing.T) {
	f := newFixture(t)
	var seen []uint64
	f.service.AddHook(func(_ context.Context, height uint64, snap *statedb.Tx) {
		seen = append(seen, height)
		assert.Equal(t, uint64(100), snap.Reserved(f.sender()).Uint64())
	})
	f.pushLock(t, 100)
	_, err := f.service.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, seen)
}

func TestGetBlockByHeightMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.GetBlockByHeight(42)
	assert.Error(t, err)
}

func TestBlockCarriesAuthoritySetHashes(t *testing.T) {
	f := newFixture(t)
	genesis, err := f.service.GetBlockByHeight(0)
	require.NoError(t, err)
	want := validator.NewAuthoritySet([][]byte{f.lockPub()}).Hash()
	assert.Equal(t, want, []byte(genesis.LockAuthoritiesHash))
	assert.Empty(t, genesis.DetachAuthoritiesHash)

	detachPub := secp256k1.GenPrivKey().PubKeySecp256k1()
	f.push(t, tx.OriginRoot, f.root, tx.AddAuthority{Kind: types.DetachAuthorities, PubKey: detachPub[:]})
	b, err := f.service.ProduceBlock(context.Background())
	require.NoError(t, err)
	require.True(t, b.Results[0].OK(), b.Results[0].Error)
	assert.Equal(t, want, []byte(b.LockAuthoritiesHash))
	assert.Equal(t, validator.NewAuthoritySet([][]byte{detachPub[:]}).Hash(), []byte(b.DetachAuthoritiesHash))
}

func TestGetTx(t *testing.T) {
	f := newFixture(t)
	f.pushLock(t, 100)
	f.pushSigned(t, ed.GenPrivKey(), tx.RegisterAsset{Asset: []byte("asset")})
	_, err := f.service.ProduceBlock(context.Background())
	require.NoError(t, err)
	b, err := f.service.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Empty(t, b.Txs)

	first, err := f.service.GetBlockByHeight(1)
	require.NoError(t, err)
	require.Len(t, first.Txs, 2)

	got, idx, err := f.service.GetTx(first.Results[1].Hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Height)
	assert.Equal(t, 1, idx)
	assert.Equal(t, first.Txs[1], got.Txs[idx])

	_, _, err = f.service.GetTx([]byte("unknown"))
	assert.Error(t, err)
}
