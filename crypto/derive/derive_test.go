package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdius/herdius-bridge/crypto/ed"
)

type mapCache struct {
	m    map[string][]byte
	sets int
}

func (c *mapCache) DerivedKey(id []byte) ([]byte, bool) {
	v, ok := c.m[string(id)]
	return v, ok
}

func (c *mapCache) SetDerivedKey(id, derived []byte) error {
	c.sets++
	c.m[string(id)] = derived
	return nil
}

func TestDetachKeyIsDeterministic(t *testing.T) {
	identity := ed.GenPrivKeyFromSecret(make([]byte, ed.SeedSize))

	a, err := DetachKey(identity)
	require.NoError(t, err)
	b, err := DetachKey(identity)
	require.NoError(t, err)
	assert.True(t, a.Equals(b))

	other, err := DetachKey(ed.GenPrivKey())
	require.NoError(t, err)
	assert.False(t, a.Equals(other))
}

func TestDeriverCachesPubKey(t *testing.T) {
	identity := ed.GenPrivKey()
	cache := &mapCache{m: map[string][]byte{}}
	d := NewDeriver(identity, cache)

	pub, err := d.PubKey()
	require.NoError(t, err)
	pub2, err := d.PubKey()
	require.NoError(t, err)
	assert.True(t, pub.Equals(pub2))
	assert.Equal(t, 1, cache.sets)

	priv, err := d.PrivKey()
	require.NoError(t, err)
	assert.True(t, pub.Equals(priv.PubKey()))
}

func TestMessageIsDomainSeparated(t *testing.T) {
	pub := ed.GenPrivKey().PubKeyEd25519()
	msg := Message(pub)
	assert.Equal(t, Domain, string(msg[:len(Domain)]))
	assert.Equal(t, pub[:], msg[len(Domain):])
}
