package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdius/herdius-bridge/storage/db"
	"github.com/herdius/herdius-bridge/storage/offchain"
	"github.com/herdius/herdius-bridge/tx"
)

var (
	contract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	sender   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode is a minimal JSON-RPC endpoint answering eth_blockNumber and
// eth_getLogs.
type fakeNode struct {
	t       *testing.T
	head    uint64
	logs    []ethtypes.Log
	fail    bool
	queries []map[string]interface{}
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(n.t, http.MethodPost, r.Method)
	assert.Contains(n.t, r.Header.Get("Content-Type"), "application/json")
	if n.fail {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	var req rpcRequest
	require.NoError(n.t, json.NewDecoder(r.Body).Decode(&req))

	var result interface{}
	switch req.Method {
	case "eth_blockNumber":
		result = hexutil.Uint64(n.head)
	case "eth_getLogs":
		var q map[string]interface{}
		require.NoError(n.t, json.Unmarshal(req.Params[0], &q))
		n.queries = append(n.queries, q)
		result = n.logs
	default:
		n.t.Fatalf("unexpected method %s", req.Method)
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(n.t, json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	}))
}

func newLog(t *testing.T, topic common.Hash, amount, period uint64, block uint64) ethtypes.Log {
	data, err := EncodeLogData([]byte{0xde, 0xad}, uint256.NewInt(amount), uint256.NewInt(period))
	require.NoError(t, err)
	return ethtypes.Log{
		Address:     contract,
		Topics:      []common.Hash{topic, common.BytesToHash(sender.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.HexToHash("0x01"),
	}
}

func newSyncer(t *testing.T, node *fakeNode, handle Handler) (*EthSyncer, *offchain.Store) {
	t.Helper()
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	client, err := Dial(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	database, err := db.NewMemDB()
	require.NoError(t, err)
	store := offchain.New(database)
	t.Cleanup(store.Close)
	return NewEthSyncer(client, store, 6, handle), store
}

func TestSyncDeliversEventsAndAdvancesCursor(t *testing.T) {
	node := &fakeNode{t: t, head: 100}
	node.logs = []ethtypes.Log{
		newLog(t, LockTopic, 100, 1, 90),
		newLog(t, UnlockTopic, 0, 0, 92),
	}
	var got []tx.LockUpdateEvent
	es, store := newSyncer(t, node, func(_ context.Context, ev tx.LockUpdateEvent) error {
		got = append(got, ev)
		return nil
	})

	require.NoError(t, es.Sync(context.Background(), contract))
	require.Len(t, got, 2)
	assert.True(t, got[0].IsLock)
	assert.Equal(t, sender, got[0].Sender)
	assert.Equal(t, uint64(100), got[0].AmountInt().Uint64())
	assert.Equal(t, uint64(1), got[0].LockPeriodInt().Uint64())
	assert.Equal(t, []byte{0xde, 0xad}, got[0].Signature)
	assert.Equal(t, uint64(90), got[0].BlockNumber)
	assert.False(t, got[1].IsLock)

	cursor, ok := store.Cursor(contract)
	require.True(t, ok)
	assert.Equal(t, uint64(94), cursor)

	require.Len(t, node.queries, 1)
	q := node.queries[0]
	assert.Equal(t, "0x0", q["fromBlock"])
	assert.Equal(t, "0x5e", q["toBlock"])
	topics, ok := q["topics"].([]interface{})
	require.True(t, ok)
	require.Len(t, topics, 1)
	assert.ElementsMatch(t, []interface{}{LockTopic.Hex(), UnlockTopic.Hex()}, topics[0])
}

func TestSyncResumesFromCursor(t *testing.T) {
	node := &fakeNode{t: t, head: 120}
	es, store := newSyncer(t, node, func(context.Context, tx.LockUpdateEvent) error { return nil })
	store.SetCursor(contract, 94)

	require.NoError(t, es.Sync(context.Background(), contract))
	require.Len(t, node.queries, 1)
	assert.Equal(t, "0x5e", node.queries[0]["fromBlock"])
	assert.Equal(t, "0x72", node.queries[0]["toBlock"])
	cursor, _ := store.Cursor(contract)
	assert.Equal(t, uint64(114), cursor)
}

func TestSyncDoesNotRedeliverCursorBlock(t *testing.T) {
	node := &fakeNode{t: t, head: 100}
	node.logs = []ethtypes.Log{newLog(t, LockTopic, 100, 1, 94)}
	var got []uint64
	es, store := newSyncer(t, node, func(_ context.Context, ev tx.LockUpdateEvent) error {
		got = append(got, ev.BlockNumber)
		return nil
	})

	require.NoError(t, es.Sync(context.Background(), contract))
	require.NoError(t, es.Sync(context.Background(), contract))
	require.Len(t, node.queries, 2)
	assert.Equal(t, "0x5e", node.queries[1]["fromBlock"])
	assert.Equal(t, "0x5e", node.queries[1]["toBlock"])
	assert.Equal(t, []uint64{94}, got)

	node.head = 110
	node.logs = append(node.logs, newLog(t, LockTopic, 150, 1, 104))
	require.NoError(t, es.Sync(context.Background(), contract))
	assert.Equal(t, []uint64{94, 104}, got)
	cursor, _ := store.Cursor(contract)
	assert.Equal(t, uint64(104), cursor)
}

func TestSyncSkipsUnconfirmedChain(t *testing.T) {
	node := &fakeNode{t: t, head: 3}
	es, store := newSyncer(t, node, func(context.Context, tx.LockUpdateEvent) error { return nil })
	require.NoError(t, es.Sync(context.Background(), contract))
	assert.Empty(t, node.queries)
	_, ok := store.Cursor(contract)
	assert.False(t, ok)
}

func TestSyncHandlerErrorKeepsCursor(t *testing.T) {
	node := &fakeNode{t: t, head: 100}
	node.logs = []ethtypes.Log{newLog(t, LockTopic, 100, 1, 90)}
	es, store := newSyncer(t, node, func(context.Context, tx.LockUpdateEvent) error {
		return errors.New("pool full")
	})
	assert.Error(t, es.Sync(context.Background(), contract))
	_, ok := store.Cursor(contract)
	assert.False(t, ok)
}

func TestSyncBadLogKeepsCursor(t *testing.T) {
	node := &fakeNode{t: t, head: 100}
	bad := newLog(t, LockTopic, 100, 1, 90)
	bad.Data = bad.Data[:10]
	node.logs = []ethtypes.Log{bad}
	called := false
	es, store := newSyncer(t, node, func(context.Context, tx.LockUpdateEvent) error {
		called = true
		return nil
	})
	assert.Error(t, es.Sync(context.Background(), contract))
	assert.False(t, called)
	_, ok := store.Cursor(contract)
	assert.False(t, ok)
}

func TestSyncNetworkErrorKeepsCursor(t *testing.T) {
	node := &fakeNode{t: t, head: 100, fail: true}
	es, store := newSyncer(t, node, func(context.Context, tx.LockUpdateEvent) error { return nil })
	store.SetCursor(contract, 10)

	assert.Error(t, es.Sync(context.Background(), contract))
	es.SyncAll(context.Background(), []common.Address{contract})
	cursor, _ := store.Cursor(contract)
	assert.Equal(t, uint64(10), cursor)
}

func TestDecodeLog(t *testing.T) {
	ev, err := DecodeLog(newLog(t, UnlockTopic, 0, 0, 7))
	require.NoError(t, err)
	assert.False(t, ev.IsLock)
	assert.Equal(t, sender, ev.Sender)
	assert.Equal(t, uint64(7), ev.BlockNumber)

	l := newLog(t, common.HexToHash("0x01"), 1, 1, 1)
	_, err = DecodeLog(l)
	assert.Error(t, err)

	l = newLog(t, LockTopic, 1, 1, 1)
	l.Topics = l.Topics[:1]
	_, err = DecodeLog(l)
	assert.Error(t, err)
}
