// Package secp256k1 wraps go-ethereum's secp256k1 keys so they can act as
// detach signers and authority-set members.
package secp256k1

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/herdius/herdius-bridge/crypto"
)

const (
	// PubKeySize is the compressed public key size.
	PubKeySize = 33
	// SignatureSize is R || S || V.
	SignatureSize = ethcrypto.SignatureLength
)

var (
	_ crypto.PrivKey = PrivKeySecp256k1{}
	_ crypto.PubKey  = PubKeySecp256k1{}
)

// PrivKeySecp256k1 is a 32-byte secp256k1 scalar.
type PrivKeySecp256k1 [32]byte

// PubKeySecp256k1 is a compressed secp256k1 point.
type PubKeySecp256k1 [PubKeySize]byte

// GenPrivKey generates a fresh key.
func GenPrivKey() PrivKeySecp256k1 {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return FromECDSA(key)
}

// PrivKeyFromSeed interprets a 32-byte seed as the private scalar. Seeds that
// are zero or not below the curve order are rejected.
func PrivKeyFromSeed(seed []byte) (PrivKeySecp256k1, error) {
	key, err := ethcrypto.ToECDSA(seed)
	if err != nil {
		return PrivKeySecp256k1{}, fmt.Errorf("secp256k1: invalid seed: %w", err)
	}
	return FromECDSA(key), nil
}

// FromECDSA converts a go-ethereum key.
func FromECDSA(key *ecdsa.PrivateKey) PrivKeySecp256k1 {
	var pk PrivKeySecp256k1
	copy(pk[:], ethcrypto.FromECDSA(key))
	return pk
}

// PubKeyFromBytes parses a compressed (33) or uncompressed (65) public key.
func PubKeyFromBytes(bz []byte) (PubKeySecp256k1, error) {
	var pub PubKeySecp256k1
	switch len(bz) {
	case PubKeySize:
		if _, err := ethcrypto.DecompressPubkey(bz); err != nil {
			return pub, fmt.Errorf("secp256k1: %w", err)
		}
		copy(pub[:], bz)
	case 65:
		key, err := ethcrypto.UnmarshalPubkey(bz)
		if err != nil {
			return pub, fmt.Errorf("secp256k1: %w", err)
		}
		copy(pub[:], ethcrypto.CompressPubkey(key))
	default:
		return pub, fmt.Errorf("secp256k1: public key must be 33 or 65 bytes, got %d", len(bz))
	}
	return pub, nil
}

// ECDSA returns the go-ethereum representation.
func (privKey PrivKeySecp256k1) ECDSA() *ecdsa.PrivateKey {
	key, err := ethcrypto.ToECDSA(privKey[:])
	if err != nil {
		panic(err)
	}
	return key
}

func (privKey PrivKeySecp256k1) Bytes() []byte {
	return privKey[:]
}

// Sign signs keccak256(msg) and returns R || S || V with V in {27, 28}.
func (privKey PrivKeySecp256k1) Sign(msg []byte) ([]byte, error) {
	return privKey.SignDigest(ethcrypto.Keccak256(msg))
}

// SignDigest signs an already hashed 32-byte digest; V is normalised to {27, 28}.
func (privKey PrivKeySecp256k1) SignDigest(digest []byte) ([]byte, error) {
	if len(digest) != ethcrypto.DigestLength {
		return nil, fmt.Errorf("digest must be %d bytes, got %d", ethcrypto.DigestLength, len(digest))
	}
	sig, err := ethcrypto.Sign(digest, privKey.ECDSA())
	if err != nil {
		return nil, err
	}
	sig[64] = (sig[64] & 1) + 27
	return sig, nil
}

func (privKey PrivKeySecp256k1) PubKey() crypto.PubKey {
	return privKey.PubKeySecp256k1()
}

// PubKeySecp256k1 returns the concrete compressed public key.
func (privKey PrivKeySecp256k1) PubKeySecp256k1() PubKeySecp256k1 {
	var pub PubKeySecp256k1
	copy(pub[:], ethcrypto.CompressPubkey(&privKey.ECDSA().PublicKey))
	return pub
}

func (privKey PrivKeySecp256k1) Equals(other crypto.PrivKey) bool {
	o, ok := other.(PrivKeySecp256k1)
	return ok && bytes.Equal(privKey[:], o[:])
}

// Address is the herhash-truncated address used inside the ledger.
func (pubKey PubKeySecp256k1) Address() crypto.Address {
	return crypto.AddressHash(pubKey[:])
}

// EthAddress is the external-chain address controlled by this key.
func (pubKey PubKeySecp256k1) EthAddress() common.Address {
	key, err := ethcrypto.DecompressPubkey(pubKey[:])
	if err != nil {
		return common.Address{}
	}
	return ethcrypto.PubkeyToAddress(*key)
}

func (pubKey PubKeySecp256k1) Bytes() []byte {
	return pubKey[:]
}

// VerifyBytes checks a 65-byte signature over keccak256(msg).
func (pubKey PubKeySecp256k1) VerifyBytes(msg []byte, sig []byte) bool {
	if len(sig) != SignatureSize {
		return false
	}
	return ethcrypto.VerifySignature(pubKey[:], ethcrypto.Keccak256(msg), sig[:64])
}

func (pubKey PubKeySecp256k1) Equals(other crypto.PubKey) bool {
	o, ok := other.(PubKeySecp256k1)
	return ok && bytes.Equal(pubKey[:], o[:])
}

func (pubKey PubKeySecp256k1) Type() string {
	return crypto.KeyTypeSecp256k1
}

func (pubKey PubKeySecp256k1) String() string {
	return fmt.Sprintf("PubKeySecp256k1{%X}", pubKey[:])
}
