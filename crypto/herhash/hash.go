// Package herhash is the node's content hash: sha256 and its 20-byte truncation.
package herhash

import (
	"crypto/sha256"
	"hash"
)

const (
	// Size is the full digest size.
	Size = sha256.Size
	// BlockSize of the underlying hash.
	BlockSize = sha256.BlockSize
	// TruncatedSize is the size of addresses derived from a digest.
	TruncatedSize = 20
)

// New returns a new hash.Hash.
func New() hash.Hash {
	return sha256.New()
}

// Sum returns the SHA256 of the bz.
func Sum(bz []byte) []byte {
	h := sha256.Sum256(bz)
	return h[:]
}

// SumTruncated returns the first 20 bytes of SHA256 of the bz.
func SumTruncated(bz []byte) []byte {
	h := sha256.Sum256(bz)
	return h[:TruncatedSize]
}
