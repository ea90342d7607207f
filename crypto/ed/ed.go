// Package ed holds the Ed25519 keys validators are provisioned with.
package ed

import (
	"bytes"
	"fmt"

	"github.com/herdius/herdius-bridge/crypto"
	"golang.org/x/crypto/ed25519"
)

const (
	PubKeySize    = ed25519.PublicKeySize
	PrivKeySize   = ed25519.PrivateKeySize
	SignatureSize = ed25519.SignatureSize
	SeedSize      = ed25519.SeedSize
)

var (
	_ crypto.PrivKey = PrivKeyEd25519{}
	_ crypto.PubKey  = PubKeyEd25519{}
)

// PrivKeyEd25519 implements crypto.PrivKey.
type PrivKeyEd25519 [PrivKeySize]byte

// PubKeyEd25519 implements crypto.PubKey.
type PubKeyEd25519 [PubKeySize]byte

// GenPrivKey generates a new key from OS randomness.
func GenPrivKey() PrivKeyEd25519 {
	return GenPrivKeyFromSecret(crypto.CRandBytes(SeedSize))
}

// GenPrivKeyFromSecret deterministically expands a 32-byte secret into a key.
// Longer or shorter secrets are rejected by panicking, as in ed25519.NewKeyFromSeed.
func GenPrivKeyFromSecret(secret []byte) PrivKeyEd25519 {
	var pk PrivKeyEd25519
	copy(pk[:], ed25519.NewKeyFromSeed(secret))
	return pk
}

// PrivKeyFromBytes parses a 64-byte private key.
func PrivKeyFromBytes(bz []byte) (PrivKeyEd25519, error) {
	var pk PrivKeyEd25519
	if len(bz) != PrivKeySize {
		return pk, fmt.Errorf("ed25519: private key must be %d bytes, got %d", PrivKeySize, len(bz))
	}
	copy(pk[:], bz)
	return pk, nil
}

// PubKeyFromBytes parses a 32-byte public key.
func PubKeyFromBytes(bz []byte) (PubKeyEd25519, error) {
	var pub PubKeyEd25519
	if len(bz) != PubKeySize {
		return pub, fmt.Errorf("ed25519: public key must be %d bytes, got %d", PubKeySize, len(bz))
	}
	copy(pub[:], bz)
	return pub, nil
}

func (privKey PrivKeyEd25519) Bytes() []byte {
	return privKey[:]
}

// Sign produces a deterministic Ed25519 signature over msg.
func (privKey PrivKeyEd25519) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(ed25519.PrivateKey(privKey[:]), msg), nil
}

func (privKey PrivKeyEd25519) PubKey() crypto.PubKey {
	return privKey.PubKeyEd25519()
}

// PubKeyEd25519 returns the concrete public key.
func (privKey PrivKeyEd25519) PubKeyEd25519() PubKeyEd25519 {
	var pub PubKeyEd25519
	copy(pub[:], privKey[SeedSize:])
	return pub
}

func (privKey PrivKeyEd25519) Equals(other crypto.PrivKey) bool {
	o, ok := other.(PrivKeyEd25519)
	return ok && bytes.Equal(privKey[:], o[:])
}

func (pubKey PubKeyEd25519) Address() crypto.Address {
	return crypto.AddressHash(pubKey[:])
}

func (pubKey PubKeyEd25519) Bytes() []byte {
	return pubKey[:]
}

func (pubKey PubKeyEd25519) VerifyBytes(msg []byte, sig []byte) bool {
	if len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey[:]), msg, sig)
}

func (pubKey PubKeyEd25519) Equals(other crypto.PubKey) bool {
	o, ok := other.(PubKeyEd25519)
	return ok && bytes.Equal(pubKey[:], o[:])
}

func (pubKey PubKeyEd25519) Type() string {
	return crypto.KeyTypeEd25519
}

func (pubKey PubKeyEd25519) String() string {
	return fmt.Sprintf("PubKeyEd25519{%X}", pubKey[:])
}
