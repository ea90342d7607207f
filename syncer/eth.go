// Package sync observes the partner contract on the external chain and turns
// its Lock and Unlock logs into lock update events.
package sync

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/herdius/herdius-bridge/libs/log"
	"github.com/herdius/herdius-bridge/tx"
)

var (
	// LockTopic is the topic of Lock(address indexed sender, bytes signature, uint256 amount, uint256 lockPeriod).
	LockTopic = ethcrypto.Keccak256Hash([]byte("Lock(address,bytes,uint256,uint256)"))
	// UnlockTopic is the topic of Unlock(address indexed sender, bytes signature, uint256 amount, uint256 lockPeriod).
	UnlockTopic = ethcrypto.Keccak256Hash([]byte("Unlock(address,bytes,uint256,uint256)"))

	logData abi.Arguments
)

func init() {
	bytesT, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	uintT, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	logData = abi.Arguments{
		{Name: "signature", Type: bytesT},
		{Name: "amount", Type: uintT},
		{Name: "lockPeriod", Type: uintT},
	}
}

// Client is the part of ethclient.Client the observer uses.
type Client interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
}

// Cursor persists the last synced external block per contract.
type Cursor interface {
	Cursor(contract common.Address) (uint64, bool)
	SetCursor(contract common.Address, block uint64)
}

// Handler receives every decoded event. An error aborts the round.
type Handler func(ctx context.Context, ev tx.LockUpdateEvent) error

// EthSyncer syncs Lock and Unlock logs of partner contracts.
type EthSyncer struct {
	client        Client
	cursor        Cursor
	confirmations uint64
	handle        Handler
	log           zerolog.Logger
}

// NewEthSyncer returns a syncer that never looks at the newest
// confirmations blocks.
func NewEthSyncer(client Client, cursor Cursor, confirmations uint64, handle Handler) *EthSyncer {
	return &EthSyncer{
		client:        client,
		cursor:        cursor,
		confirmations: confirmations,
		handle:        handle,
		log:           log.Component("syncer"),
	}
}

// Sync processes logs of contract from the stored cursor up to the newest
// confirmed block. The cursor moves only if every log was handled. The window
// includes the cursor block, whose logs were handled by the round that stored
// it, so they are not delivered again.
func (es *EthSyncer) Sync(ctx context.Context, contract common.Address) error {
	current, err := es.client.BlockNumber(ctx)
	if err != nil {
		return errors.Wrap(err, "eth_blockNumber")
	}
	if current < es.confirmations {
		return nil
	}
	safe := current - es.confirmations
	from, resumed := es.cursor.Cursor(contract)
	if from > safe {
		return nil
	}

	logs, err := es.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(safe),
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{LockTopic, UnlockTopic}},
	})
	if err != nil {
		return errors.Wrap(err, "eth_getLogs")
	}

	for _, l := range logs {
		if l.Removed || (resumed && l.BlockNumber == from) {
			continue
		}
		ev, err := DecodeLog(l)
		if err != nil {
			return errors.Wrapf(err, "decode log %s:%d", l.TxHash.Hex(), l.Index)
		}
		if err := es.handle(ctx, ev); err != nil {
			return errors.Wrap(err, "submit lock update")
		}
	}

	es.cursor.SetCursor(contract, safe)
	es.log.Debug().Str("contract", contract.Hex()).Uint64("from", from).Uint64("to", safe).Int("logs", len(logs)).Msg("synced")
	return nil
}

// SyncAll syncs each contract in turn. Failures are logged and only abort
// the failing contract's round.
func (es *EthSyncer) SyncAll(ctx context.Context, contracts []common.Address) {
	for _, c := range contracts {
		if err := es.Sync(ctx, c); err != nil {
			es.log.Error().Err(err).Str("contract", c.Hex()).Msg("sync round aborted")
		}
	}
}

// DecodeLog turns a Lock or Unlock log into an event.
func DecodeLog(l ethtypes.Log) (tx.LockUpdateEvent, error) {
	if len(l.Topics) < 2 {
		return tx.LockUpdateEvent{}, errors.Errorf("expected 2 topics, got %d", len(l.Topics))
	}
	var isLock bool
	switch l.Topics[0] {
	case LockTopic:
		isLock = true
	case UnlockTopic:
	default:
		return tx.LockUpdateEvent{}, errors.Errorf("unexpected topic %s", l.Topics[0].Hex())
	}
	sender := common.BytesToAddress(l.Topics[1].Bytes())

	values, err := logData.Unpack(l.Data)
	if err != nil {
		return tx.LockUpdateEvent{}, errors.Wrap(err, "unpack log data")
	}
	sig, ok := values[0].([]byte)
	if !ok {
		return tx.LockUpdateEvent{}, errors.New("signature is not bytes")
	}
	amount, err := toUint256(values[1])
	if err != nil {
		return tx.LockUpdateEvent{}, errors.Wrap(err, "amount")
	}
	period, err := toUint256(values[2])
	if err != nil {
		return tx.LockUpdateEvent{}, errors.Wrap(err, "lock period")
	}
	return tx.NewLockUpdateEvent(sender, amount, period, sig, isLock, l.BlockNumber), nil
}

func toUint256(v interface{}) (*uint256.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected type %T", v)
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.New("overflows 256 bits")
	}
	return u, nil
}

// EncodeLogData packs log data the way the partner contract emits it.
func EncodeLogData(sig []byte, amount, period *uint256.Int) ([]byte, error) {
	return logData.Pack(sig, amount.ToBig(), period.ToBig())
}
