package blockchain

import (
	"time"

	cmn "github.com/herdius/herdius-bridge/libs/common"
)

// Block is the record of one executed block.
type Block struct {
	Height  uint64         `json:"height"`
	Time    time.Time      `json:"time"`
	TxRoot  cmn.HexBytes   `json:"tx_root"`
	Txs     []cmn.HexBytes `json:"txs"`
	Results []TxResult     `json:"results"`

	// Merkle roots of the authority sets after the block.
	LockAuthoritiesHash   cmn.HexBytes `json:"lock_authorities_hash"`
	DetachAuthoritiesHash cmn.HexBytes `json:"detach_authorities_hash"`
}

// TxResult is the outcome of one transaction in a block.
type TxResult struct {
	Hash  cmn.HexBytes `json:"hash"`
	Call  string       `json:"call"`
	Error string       `json:"error,omitempty"`
}

// OK reports whether the transaction was applied.
func (r TxResult) OK() bool {
	return r.Error == ""
}
