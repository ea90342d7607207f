package statedb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/herdius/herdius-bridge/types"
)

// ErrBalanceOverflow is returned when a credit would exceed 2^256-1.
var ErrBalanceOverflow = errors.New("balance overflow")

// LockRecord is the last applied lock snapshot of an external address.
type LockRecord struct {
	Amount     [32]byte
	Block      uint64
	LockPeriod [32]byte
}

// AmountInt returns Amount as a uint256.
func (r LockRecord) AmountInt() *uint256.Int {
	return new(uint256.Int).SetBytes32(r.Amount[:])
}

// LockPeriodInt returns LockPeriod as a uint256.
func (r LockRecord) LockPeriodInt() *uint256.Int {
	return new(uint256.Int).SetBytes32(r.LockPeriod[:])
}

// ExportRecord marks an asset as exported for good.
type ExportRecord struct {
	Chain  types.ExternalChain
	Target common.Address
	Nonce  uint64
}

func (tx *Tx) getRecord(k []byte, ptr interface{}) (bool, error) {
	bz := tx.get(k)
	if bz == nil {
		return false, nil
	}
	if err := cdc.UnmarshalBinaryBare(bz, ptr); err != nil {
		return false, errors.Wrapf(err, "decode %q", k)
	}
	return true, nil
}

func (tx *Tx) setRecord(k []byte, v interface{}) error {
	bz, err := cdc.MarshalBinaryBare(v)
	if err != nil {
		return errors.Wrapf(err, "encode %q", k)
	}
	return tx.set(k, bz)
}

func (tx *Tx) getAmount(k []byte) *uint256.Int {
	bz := tx.get(k)
	if len(bz) != 32 {
		return new(uint256.Int)
	}
	return new(uint256.Int).SetBytes32(bz)
}

func (tx *Tx) setAmount(k []byte, v *uint256.Int) error {
	w := v.Bytes32()
	return tx.set(k, w[:])
}

// LockRecord returns the lock snapshot of addr.
func (tx *Tx) LockRecord(addr common.Address) (LockRecord, bool, error) {
	var r LockRecord
	ok, err := tx.getRecord(lockKey(addr), &r)
	return r, ok, err
}

// SetLockRecord overwrites the lock snapshot of addr.
func (tx *Tx) SetLockRecord(addr common.Address, r LockRecord) error {
	return tx.setRecord(lockKey(addr), r)
}

// Reserved returns the allocation held for an unlinked address.
func (tx *Tx) Reserved(addr common.Address) *uint256.Int {
	return tx.getAmount(reservedKey(addr))
}

// SetReserved replaces the allocation held for addr.
func (tx *Tx) SetReserved(addr common.Address, v *uint256.Int) error {
	return tx.setAmount(reservedKey(addr), v)
}

// ClearReserved drops the allocation held for addr.
func (tx *Tx) ClearReserved(addr common.Address) error {
	return tx.del(reservedKey(addr))
}

// LinkedAccount is the reverse link lookup.
func (tx *Tx) LinkedAccount(addr common.Address) (types.AccountID, bool) {
	var a types.AccountID
	bz := tx.get(linkExternalKey(addr))
	if len(bz) != len(a) {
		return a, false
	}
	copy(a[:], bz)
	return a, true
}

// LinkedExternal is the forward link lookup.
func (tx *Tx) LinkedExternal(account types.AccountID) (common.Address, bool) {
	bz := tx.get(linkNativeKey(account))
	if len(bz) != common.AddressLength {
		return common.Address{}, false
	}
	return common.BytesToAddress(bz), true
}

// InsertLink writes both link directions.
func (tx *Tx) InsertLink(account types.AccountID, addr common.Address) error {
	if err := tx.set(linkNativeKey(account), addr.Bytes()); err != nil {
		return err
	}
	return tx.set(linkExternalKey(addr), account[:])
}

// RemoveLink deletes both link directions.
func (tx *Tx) RemoveLink(account types.AccountID, addr common.Address) error {
	if err := tx.del(linkNativeKey(account)); err != nil {
		return err
	}
	return tx.del(linkExternalKey(addr))
}

// VoteCount returns the votes recorded for an event hash.
func (tx *Tx) VoteCount(h common.Hash) uint64 {
	return decodeUint64(tx.get(voteKey(h)))
}

// SetVoteCount stores the vote counter of h.
func (tx *Tx) SetVoteCount(h common.Hash, n uint64) error {
	return tx.set(voteKey(h), encodeUint64(n))
}

// ClearVotes removes the vote counter of h.
func (tx *Tx) ClearVotes(h common.Hash) error {
	return tx.del(voteKey(h))
}

// IsClosed reports whether h has already been applied.
func (tx *Tx) IsClosed(h common.Hash) bool {
	return tx.has(closedKey(h))
}

// ClosedAt returns the height at which h was applied.
func (tx *Tx) ClosedAt(h common.Hash) (uint64, bool) {
	bz := tx.get(closedKey(h))
	if bz == nil {
		return 0, false
	}
	return decodeUint64(bz), true
}

// MarkClosed permanently records h at the current height.
func (tx *Tx) MarkClosed(h common.Hash) error {
	return tx.set(closedKey(h), encodeUint64(tx.height))
}

// AuthorityKeys returns the encoded public keys of an authority set.
func (tx *Tx) AuthorityKeys(kind types.AuthorityKind) ([][]byte, error) {
	var keys [][]byte
	if _, err := tx.getRecord(authorityKey(kind), &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// SetAuthorityKeys replaces an authority set.
func (tx *Tx) SetAuthorityKeys(kind types.AuthorityKind, keys [][]byte) error {
	if len(keys) == 0 {
		return tx.del(authorityKey(kind))
	}
	return tx.setRecord(authorityKey(kind), keys)
}

// Export returns the export record of asset.
func (tx *Tx) Export(asset []byte) (ExportRecord, bool, error) {
	var r ExportRecord
	ok, err := tx.getRecord(exportKey(asset), &r)
	return r, ok, err
}

// SetExport records asset as exported.
func (tx *Tx) SetExport(asset []byte, r ExportRecord) error {
	return tx.setRecord(exportKey(asset), r)
}

// Nonce returns the last nonce used for (target, chain); zero if none.
func (tx *Tx) Nonce(target common.Address, chain types.ExternalChain) uint64 {
	return decodeUint64(tx.get(nonceKey(target, chain)))
}

// SetNonce stores the last nonce used for (target, chain).
func (tx *Tx) SetNonce(target common.Address, chain types.ExternalChain, n uint64) error {
	return tx.set(nonceKey(target, chain), encodeUint64(n))
}

// Balance returns the allocation balance of a native account.
func (tx *Tx) Balance(account types.AccountID) *uint256.Int {
	return tx.getAmount(balanceKey(account))
}

// Credit adds v to the balance of account.
func (tx *Tx) Credit(account types.AccountID, v *uint256.Int) error {
	sum, overflow := new(uint256.Int).AddOverflow(tx.Balance(account), v)
	if overflow {
		return ErrBalanceOverflow
	}
	return tx.setAmount(balanceKey(account), sum)
}

// AssetOwner returns the native owner of an asset.
func (tx *Tx) AssetOwner(asset []byte) (types.AccountID, bool) {
	var a types.AccountID
	bz := tx.get(assetKey(asset))
	if len(bz) != len(a) {
		return a, false
	}
	copy(a[:], bz)
	return a, true
}

// SetAssetOwner records the owner of an asset.
func (tx *Tx) SetAssetOwner(asset []byte, owner types.AccountID) error {
	return tx.set(assetKey(asset), owner[:])
}

// PushCleanup queues an unlinked account for downstream cleanup.
func (tx *Tx) PushCleanup(account types.AccountID) error {
	var last uint64
	found := false
	if err := tx.iterate(prefixCleanup, func(k, _ []byte) bool {
		last = decodeUint64(k[len(prefixCleanup):])
		found = true
		return true
	}); err != nil {
		return err
	}
	seq := uint64(0)
	if found {
		seq = last + 1
	}
	return tx.set(cleanupKey(seq), account[:])
}

// DrainCleanup removes and returns the queued accounts in order.
func (tx *Tx) DrainCleanup() ([]types.AccountID, error) {
	var (
		out  []types.AccountID
		keys [][]byte
	)
	if err := tx.iterate(prefixCleanup, func(k, v []byte) bool {
		var a types.AccountID
		copy(a[:], v)
		out = append(out, a)
		keys = append(keys, k)
		return true
	}); err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := tx.del(k); err != nil {
			return nil, err
		}
	}
	return out, nil
}
