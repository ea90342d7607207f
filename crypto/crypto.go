package crypto

import (
	"github.com/herdius/herdius-bridge/crypto/herhash"
	cmn "github.com/herdius/herdius-bridge/libs/common"
)

const (
	// AddressSize is the size of a pubkey address.
	AddressSize = herhash.TruncatedSize
)

// Address : An address is a []byte, but hex-encoded even in JSON.
type Address = cmn.HexBytes

// AddressHash returns the truncated herhash of bz.
func AddressHash(bz []byte) Address {
	return Address(herhash.SumTruncated(bz))
}

// Key types understood by the authorization gate.
const (
	KeyTypeEd25519   = "ed25519"
	KeyTypeSecp256k1 = "secp256k1"
)

// PubKey is a public key that can verify its own signatures.
type PubKey interface {
	Address() Address
	Bytes() []byte
	VerifyBytes(msg []byte, sig []byte) bool
	Equals(PubKey) bool
	Type() string
}

// PrivKey signs arbitrary messages.
type PrivKey interface {
	Bytes() []byte
	Sign(msg []byte) ([]byte, error)
	PubKey() PubKey
	Equals(PrivKey) bool
}
