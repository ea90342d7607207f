// Package merkle computes the roots the node commits to: the transaction root
// of a block and the fingerprint of an authority set.
package merkle

import (
	"github.com/herdius/herdius-bridge/crypto/herhash"
)

// Leaves and inner nodes hash under distinct prefixes, so the encoding of two
// child hashes can never pass for a leaf.
var (
	leafPrefix  = []byte{0x00}
	innerPrefix = []byte{0x01}
)

// Root returns the Merkle root of items in the given order, or nil when there
// are none. The tree is split at the largest power of two below the item
// count.
func Root(items [][]byte) []byte {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return leafHash(items[0])
	}
	k := split(len(items))
	return innerHash(Root(items[:k]), Root(items[k:]))
}

func leafHash(item []byte) []byte {
	h := herhash.New()
	h.Write(leafPrefix)
	h.Write(item)
	return h.Sum(nil)
}

func innerHash(left, right []byte) []byte {
	h := herhash.New()
	h.Write(innerPrefix)
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// split returns the largest power of two strictly less than n (n > 1).
func split(n int) int {
	k := 1
	for k<<1 < n {
		k <<= 1
	}
	return k
}
