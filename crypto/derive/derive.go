// Package derive turns a validator's Ed25519 identity into the secp256k1 key
// used to sign detach exports, so only one long-term key is provisioned.
package derive

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/herdius/herdius-bridge/crypto/ed"
	"github.com/herdius/herdius-bridge/crypto/secp256k1"
)

// Domain is prepended to the Ed25519 public key before signing.
const Domain = "herdius-bridge/detach-key/v1:"

// Message returns the bytes the Ed25519 key signs to seed the derivation.
func Message(pub ed.PubKeyEd25519) []byte {
	msg := make([]byte, 0, len(Domain)+ed.PubKeySize)
	msg = append(msg, Domain...)
	return append(msg, pub[:]...)
}

// DetachKey derives the secp256k1 key: keccak256(ed25519_sign(Domain || pub)).
// Ed25519 signatures are deterministic, so the result is stable.
func DetachKey(identity ed.PrivKeyEd25519) (secp256k1.PrivKeySecp256k1, error) {
	sig, err := identity.Sign(Message(identity.PubKeyEd25519()))
	if err != nil {
		return secp256k1.PrivKeySecp256k1{}, errors.Wrap(err, "sign derivation message")
	}
	key, err := secp256k1.PrivKeyFromSeed(ethcrypto.Keccak256(sig))
	if err != nil {
		return secp256k1.PrivKeySecp256k1{}, errors.Wrap(err, "derive detach key")
	}
	return key, nil
}

// PubKeyCache stores derived public keys node-locally.
type PubKeyCache interface {
	DerivedKey(identity []byte) ([]byte, bool)
	SetDerivedKey(identity, derived []byte) error
}

// Deriver derives detach keys and remembers their public halves.
type Deriver struct {
	identity ed.PrivKeyEd25519
	cache    PubKeyCache
}

// NewDeriver returns a Deriver for the validator identity.
func NewDeriver(identity ed.PrivKeyEd25519, cache PubKeyCache) *Deriver {
	return &Deriver{identity: identity, cache: cache}
}

// PubKey returns the derived public key, using the cache when possible.
func (d *Deriver) PubKey() (secp256k1.PubKeySecp256k1, error) {
	id := d.identity.PubKeyEd25519()
	if d.cache != nil {
		if bz, ok := d.cache.DerivedKey(id[:]); ok {
			if pub, err := secp256k1.PubKeyFromBytes(bz); err == nil {
				return pub, nil
			}
		}
	}
	key, err := DetachKey(d.identity)
	if err != nil {
		return secp256k1.PubKeySecp256k1{}, err
	}
	pub := key.PubKeySecp256k1()
	if d.cache != nil {
		if err := d.cache.SetDerivedKey(id[:], pub[:]); err != nil {
			return pub, errors.Wrap(err, "cache derived key")
		}
	}
	return pub, nil
}

// PrivKey re-derives the private key. It is never cached.
func (d *Deriver) PrivKey() (secp256k1.PrivKeySecp256k1, error) {
	return DetachKey(d.identity)
}
