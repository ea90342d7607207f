package validator

import (
	"bytes"
	"sort"

	"github.com/herdius/herdius-bridge/crypto/merkle"
)

// AuthoritySet is an allow-list of public keys kept sorted by key bytes so
// membership is a binary search.
type AuthoritySet struct {
	keys [][]byte
}

// NewAuthoritySet copies keys into a new set. Duplicates are collapsed.
func NewAuthoritySet(keys [][]byte) *AuthoritySet {
	set := &AuthoritySet{}
	for _, k := range keys {
		set.Add(k)
	}
	return set
}

// IsNilOrEmpty reports whether nobody is authorized.
func (s *AuthoritySet) IsNilOrEmpty() bool {
	return s == nil || len(s.keys) == 0
}

func (s *AuthoritySet) search(key []byte) int {
	return sort.Search(len(s.keys), func(i int) bool {
		return bytes.Compare(key, s.keys[i]) <= 0
	})
}

// Has returns true if key is in the set.
func (s *AuthoritySet) Has(key []byte) bool {
	if s == nil {
		return false
	}
	idx := s.search(key)
	return idx < len(s.keys) && bytes.Equal(s.keys[idx], key)
}

// Add inserts key and returns true. It returns false if key is already in
// the set.
func (s *AuthoritySet) Add(key []byte) (added bool) {
	idx := s.search(key)
	if idx < len(s.keys) && bytes.Equal(s.keys[idx], key) {
		return false
	}
	k := append([]byte(nil), key...)
	s.keys = append(s.keys, nil)
	copy(s.keys[idx+1:], s.keys[idx:])
	s.keys[idx] = k
	return true
}

// Remove deletes key and reports whether it was present.
func (s *AuthoritySet) Remove(key []byte) (removed bool) {
	idx := s.search(key)
	if idx >= len(s.keys) || !bytes.Equal(s.keys[idx], key) {
		return false
	}
	s.keys = append(s.keys[:idx], s.keys[idx+1:]...)
	return true
}

// Keys returns a copy of the sorted keys.
func (s *AuthoritySet) Keys() [][]byte {
	if s == nil {
		return nil
	}
	out := make([][]byte, len(s.keys))
	for i, k := range s.keys {
		out[i] = append([]byte(nil), k...)
	}
	return out
}

// Size returns the number of members.
func (s *AuthoritySet) Size() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Hash returns the Merkle root over the sorted keys.
func (s *AuthoritySet) Hash() []byte {
	if s.IsNilOrEmpty() {
		return nil
	}
	return merkle.Root(s.keys)
}
