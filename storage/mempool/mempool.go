// Package mempool holds admitted submissions until the next block drains
// them.
package mempool

import (
	"sync"

	"github.com/herdius/herdius-bridge/tx"
)

// Service is what submitters need from the pool.
type Service interface {
	AddTx(t tx.Tx, tag []byte) (int, bool)
	Len() int
}

var _ Service = (*MemPool)(nil)

// MemPool is an ordered pool deduplicated by submission tag.
type MemPool struct {
	mu   sync.Mutex
	txs  []mempoolTx
	tags map[string]struct{}
}

// mempoolTx is a transaction that passed validation
type mempoolTx struct {
	tag string
	tx  tx.Tx
}

// New returns an empty pool.
func New() *MemPool {
	return &MemPool{tags: map[string]struct{}{}}
}

// AddTx adds t unless a transaction with the same tag is already pooled.
// It returns the pool size and whether t was added.
func (m *MemPool) AddTx(t tx.Tx, tag []byte) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.tags[string(tag)]; dup {
		return len(m.txs), false
	}
	m.txs = append(m.txs, mempoolTx{tag: string(tag), tx: t})
	m.tags[string(tag)] = struct{}{}
	return len(m.txs), true
}

// Drain removes and returns every pooled transaction.
func (m *MemPool) Drain() tx.Txs {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs := make(tx.Txs, 0, len(m.txs))
	for _, mt := range m.txs {
		txs = append(txs, mt.tx)
	}
	m.txs = nil
	m.tags = map[string]struct{}{}
	return txs
}

// Len is the number of pooled transactions.
func (m *MemPool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}
