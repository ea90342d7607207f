// Package validator holds the authority sets allowed to author bridge
// attestations and the threshold counter that reconciles their reports.
package validator

import (
	"fmt"

	"github.com/herdius/herdius-bridge/crypto"
	"github.com/herdius/herdius-bridge/crypto/ed"
	"github.com/herdius/herdius-bridge/crypto/secp256k1"
	cmn "github.com/herdius/herdius-bridge/libs/common"
)

// Authority is one member of an authority set.
type Authority struct {
	PubKey crypto.PubKey
}

// NewAuthority wraps a public key.
func NewAuthority(pubKey crypto.PubKey) *Authority {
	return &Authority{PubKey: pubKey}
}

// DecodeAuthority decodes raw key bytes of the given key type. Lock
// authorities are Ed25519 keys, detach authorities compressed secp256k1 keys.
func DecodeAuthority(keyType string, bz []byte) (*Authority, error) {
	switch keyType {
	case crypto.KeyTypeEd25519:
		pub, err := ed.PubKeyFromBytes(bz)
		if err != nil {
			return nil, err
		}
		return NewAuthority(pub), nil
	case crypto.KeyTypeSecp256k1:
		pub, err := secp256k1.PubKeyFromBytes(bz)
		if err != nil {
			return nil, err
		}
		return NewAuthority(pub), nil
	}
	return nil, cmn.NewError("unknown key type %q", keyType)
}

// Key returns the raw public key bytes the set is ordered by.
func (a *Authority) Key() []byte {
	return a.PubKey.Bytes()
}

func (a *Authority) String() string {
	if a == nil {
		return "nil-Authority"
	}
	return fmt.Sprintf("Authority{%s %X}", a.PubKey.Type(), []byte(a.PubKey.Address()))
}
