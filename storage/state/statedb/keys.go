package statedb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/herdius/herdius-bridge/types"
)

var (
	keyHeight = []byte("meta/height")

	prefixLock      = []byte("lock/")
	prefixReserved  = []byte("reserved/")
	prefixLinkNat   = []byte("link/native/")
	prefixLinkExt   = []byte("link/external/")
	prefixVote      = []byte("vote/")
	prefixClosed    = []byte("closed/")
	prefixAuthority = []byte("authority/")
	prefixExport    = []byte("export/")
	prefixNonce     = []byte("nonce/")
	prefixBalance   = []byte("balance/")
	prefixAsset     = []byte("asset/")
	prefixCleanup   = []byte("cleanup/")
	prefixEvent     = []byte("event/")
)

func key(prefix []byte, parts ...[]byte) []byte {
	n := len(prefix)
	for _, p := range parts {
		n += len(p)
	}
	k := make([]byte, 0, n)
	k = append(k, prefix...)
	for _, p := range parts {
		k = append(k, p...)
	}
	return k
}

func lockKey(addr common.Address) []byte         { return key(prefixLock, addr[:]) }
func reservedKey(addr common.Address) []byte     { return key(prefixReserved, addr[:]) }
func linkNativeKey(a types.AccountID) []byte     { return key(prefixLinkNat, a[:]) }
func linkExternalKey(addr common.Address) []byte { return key(prefixLinkExt, addr[:]) }
func voteKey(h common.Hash) []byte               { return key(prefixVote, h[:]) }
func closedKey(h common.Hash) []byte             { return key(prefixClosed, h[:]) }
func exportKey(asset []byte) []byte              { return key(prefixExport, asset) }
func balanceKey(a types.AccountID) []byte        { return key(prefixBalance, a[:]) }
func assetKey(asset []byte) []byte               { return key(prefixAsset, asset) }

func authorityKey(kind types.AuthorityKind) []byte {
	return key(prefixAuthority, []byte(kind.String()))
}

func nonceKey(target common.Address, chain types.ExternalChain) []byte {
	return key(prefixNonce, target[:], []byte{byte(chain)})
}

func cleanupKey(seq uint64) []byte {
	return key(prefixCleanup, encodeUint64(seq))
}

func eventPrefix(height uint64) []byte {
	return key(prefixEvent, encodeUint64(height))
}

func eventKey(height uint64, seq uint32) []byte {
	var s [4]byte
	binary.BigEndian.PutUint32(s[:], seq)
	return key(eventPrefix(height), s[:])
}
