package validator

import (
	"github.com/ethereum/go-ethereum/common"
)

// VoteStore persists one counter per event hash.
type VoteStore interface {
	VoteCount(h common.Hash) uint64
	SetVoteCount(h common.Hash, n uint64) error
	ClearVotes(h common.Hash) error
}

// Votes is a threshold counter over attestations.
//
// The counter does not track who voted: any accepted submission counts,
// so one authority resubmitting the same event can reach quorum alone.
type Votes struct {
	Threshold uint64
}

// Cast records a vote for h and reports whether quorum is reached. On quorum
// the counter is cleared. With a threshold of one or less nothing is stored.
func (v Votes) Cast(store VoteStore, h common.Hash) (bool, error) {
	if v.Threshold <= 1 {
		return true, nil
	}
	n := store.VoteCount(h) + 1
	if n < v.Threshold {
		return false, store.SetVoteCount(h, n)
	}
	return true, store.ClearVotes(h)
}
