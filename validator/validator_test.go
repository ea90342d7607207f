package validator

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdius/herdius-bridge/crypto"
	"github.com/herdius/herdius-bridge/crypto/ed"
	"github.com/herdius/herdius-bridge/crypto/herhash"
	"github.com/herdius/herdius-bridge/crypto/secp256k1"
)

func TestAuthoritySetMembership(t *testing.T) {
	a, b, c := []byte{3}, []byte{1}, []byte{2}
	set := NewAuthoritySet([][]byte{a, b, a})
	assert.Equal(t, 2, set.Size())
	assert.True(t, set.Has(a))
	assert.True(t, set.Has(b))
	assert.False(t, set.Has(c))

	assert.True(t, set.Add(c))
	assert.False(t, set.Add(c))
	assert.Equal(t, [][]byte{{1}, {2}, {3}}, set.Keys())

	assert.True(t, set.Remove(b))
	assert.False(t, set.Remove(b))
	assert.False(t, set.Has(b))
	assert.Equal(t, [][]byte{{2}, {3}}, set.Keys())
}

func TestAuthoritySetNil(t *testing.T) {
	var set *AuthoritySet
	assert.True(t, set.IsNilOrEmpty())
	assert.False(t, set.Has([]byte{1}))
	assert.Equal(t, 0, set.Size())
	assert.Nil(t, set.Hash())
}

func TestAuthoritySetHashOrderIndependent(t *testing.T) {
	s1 := NewAuthoritySet([][]byte{{1}, {2}, {3}})
	s2 := NewAuthoritySet([][]byte{{3}, {1}, {2}})
	assert.Equal(t, s1.Hash(), s2.Hash())
	s2.Remove([]byte{2})
	assert.NotEqual(t, s1.Hash(), s2.Hash())
}

func TestDecodeAuthority(t *testing.T) {
	edPub := ed.GenPrivKey().PubKeyEd25519()
	a, err := DecodeAuthority(crypto.KeyTypeEd25519, edPub[:])
	require.NoError(t, err)
	assert.Equal(t, edPub[:], a.Key())
	assert.Equal(t, fmt.Sprintf("Authority{ed25519 %X}", herhash.SumTruncated(edPub[:])), a.String())

	secPub := secp256k1.GenPrivKey().PubKeySecp256k1()
	a, err = DecodeAuthority(crypto.KeyTypeSecp256k1, secPub[:])
	require.NoError(t, err)
	assert.Equal(t, secPub[:], a.Key())

	_, err = DecodeAuthority(crypto.KeyTypeEd25519, secPub[:])
	assert.Error(t, err)
	_, err = DecodeAuthority("rsa", edPub[:])
	assert.Error(t, err)
}

type memVotes map[common.Hash]uint64

func (m memVotes) VoteCount(h common.Hash) uint64 { return m[h] }

func (m memVotes) SetVoteCount(h common.Hash, n uint64) error {
	m[h] = n
	return nil
}

func (m memVotes) ClearVotes(h common.Hash) error {
	delete(m, h)
	return nil
}

func TestVotesThreshold(t *testing.T) {
	h := common.HexToHash("0x01")
	store := memVotes{}
	v := Votes{Threshold: 3}

	for i := 1; i < 3; i++ {
		ok, err := v.Cast(store, h)
		require.NoError(t, err)
		assert.False(t, ok, "vote %d", i)
		assert.Equal(t, uint64(i), store[h])
	}
	ok, err := v.Cast(store, h)
	require.NoError(t, err)
	assert.True(t, ok)
	_, present := store[h]
	assert.False(t, present)
}

func TestVotesSingleThreshold(t *testing.T) {
	for _, th := range []uint64{0, 1} {
		store := memVotes{}
		ok, err := Votes{Threshold: th}.Cast(store, common.HexToHash("0x02"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, store)
	}
}
