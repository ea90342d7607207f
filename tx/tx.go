package tx

import (
	"bytes"
	"fmt"

	"github.com/herdius/herdius-bridge/crypto/herhash"
	"github.com/herdius/herdius-bridge/crypto/merkle"
)

// Tx is an encoded Envelope.
type Tx []byte

// Hash computes the hash of the wire encoded transaction.
func (t Tx) Hash() []byte {
	return herhash.Sum(t)
}

// String returns the hex-encoded transaction as a string.
func (t Tx) String() string {
	return fmt.Sprintf("Tx{%X}", []byte(t))
}

// Txs is a slice of Tx.
type Txs []Tx

// MerkleHash returns the simple Merkle root hash of the transactions.
func (txs Txs) MerkleHash() []byte {
	bzs := make([][]byte, len(txs))
	for i, t := range txs {
		bzs[i] = t
	}
	return merkle.Root(bzs)
}

// IndexByHash returns the index of this transaction hash in the list, or -1 if not found
func (txs Txs) IndexByHash(hash []byte) int {
	for i := range txs {
		if bytes.Equal(txs[i].Hash(), hash) {
			return i
		}
	}
	return -1
}
