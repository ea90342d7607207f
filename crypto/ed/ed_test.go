package ed_test

import (
	"testing"

	"github.com/herdius/herdius-bridge/crypto"
	ed25519 "github.com/herdius/herdius-bridge/crypto/ed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestSignAndValidateEd25519(t *testing.T) {
	privKey := ed25519.GenPrivKey()
	pubKey := privKey.PubKey()

	msg := crypto.CRandBytes(128)
	sig, err := privKey.Sign(msg)
	require.Nil(t, err)

	// Test the signature
	assert.True(t, pubKey.VerifyBytes(msg, sig))

	// Mutate the signature, just one bit.
	sig[7] ^= byte(0x01)

	assert.False(t, pubKey.VerifyBytes(msg, sig))
}

func TestSignAndValidateEd25519CreatingKeyFromSecret(t *testing.T) {
	salt := crypto.CRandBytes(16)
	key := argon2.Key([]byte("Secret Passphrase"), salt, 3, 32*1024, 4, 32)
	privKey := ed25519.GenPrivKeyFromSecret(key)

	// Deterministic for the same secret.
	assert.True(t, privKey.Equals(ed25519.GenPrivKeyFromSecret(key)))

	pubKey := privKey.PubKey()
	msg := crypto.CRandBytes(128)
	sig, err := privKey.Sign(msg)
	require.Nil(t, err)
	assert.True(t, pubKey.VerifyBytes(msg, sig))

	sig[7] ^= byte(0x01)
	assert.False(t, pubKey.VerifyBytes(msg, sig))
}

func TestPubKeyFromBytes(t *testing.T) {
	pub := ed25519.GenPrivKey().PubKeyEd25519()
	back, err := ed25519.PubKeyFromBytes(pub.Bytes())
	require.NoError(t, err)
	assert.True(t, pub.Equals(back))
	assert.Equal(t, crypto.KeyTypeEd25519, back.Type())

	_, err = ed25519.PubKeyFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}
