package tx

import (
	"github.com/pkg/errors"

	"github.com/herdius/herdius-bridge/crypto/ed"
	"github.com/herdius/herdius-bridge/types"
)

// Origin says who a transaction claims to be authorized by.
type Origin uint8

const (
	// OriginNone is an unsigned submission authorized by its payload.
	OriginNone Origin = iota
	// OriginSigned is signed by a native account.
	OriginSigned
	// OriginRoot is signed by the chain's administrative account.
	OriginRoot
)

func (o Origin) String() string {
	switch o {
	case OriginNone:
		return "none"
	case OriginSigned:
		return "signed"
	case OriginRoot:
		return "root"
	}
	return "unknown"
}

var (
	// ErrBadAccountSignature is returned when an envelope signature does not verify.
	ErrBadAccountSignature = errors.New("bad account signature")
	// ErrUnsignedCall is returned for unsigned envelopes around calls that need an account.
	ErrUnsignedCall = errors.New("call requires a signed origin")
)

// Envelope is the transaction wire format.
type Envelope struct {
	Origin    Origin
	Account   types.AccountID
	Call      Call
	Signature []byte
}

// NewUnsigned wraps an authority-signed call.
func NewUnsigned(c Unsigned) *Envelope {
	return &Envelope{Origin: OriginNone, Call: c}
}

type signDoc struct {
	Origin  Origin
	Account types.AccountID
	Call    Call
}

// SigningBytes is what the account signs.
func (e *Envelope) SigningBytes() ([]byte, error) {
	return cdc.MarshalBinaryBare(signDoc{Origin: e.Origin, Account: e.Account, Call: e.Call})
}

// Sign signs the envelope with an Ed25519 account key. The account id is the
// public key.
func (e *Envelope) Sign(origin Origin, key ed.PrivKeyEd25519) error {
	e.Origin = origin
	e.Account = types.AccountID(key.PubKeyEd25519())
	bz, err := e.SigningBytes()
	if err != nil {
		return err
	}
	sig, err := key.Sign(bz)
	if err != nil {
		return errors.Wrap(err, "sign envelope")
	}
	e.Signature = sig
	return nil
}

// VerifyAccount checks the account signature of a signed or root envelope.
func (e *Envelope) VerifyAccount() error {
	if e.Origin == OriginNone {
		return ErrUnsignedCall
	}
	bz, err := e.SigningBytes()
	if err != nil {
		return err
	}
	if !ed.PubKeyEd25519(e.Account).VerifyBytes(bz, e.Signature) {
		return ErrBadAccountSignature
	}
	return nil
}

// Encode serializes the envelope.
func (e *Envelope) Encode() (Tx, error) {
	bz, err := cdc.MarshalBinaryBare(e)
	if err != nil {
		return nil, errors.Wrap(err, "encode tx")
	}
	return bz, nil
}

// Decode parses a transaction.
func Decode(t Tx) (*Envelope, error) {
	var e Envelope
	if err := cdc.UnmarshalBinaryBare(t, &e); err != nil {
		return nil, errors.Wrap(err, "decode tx")
	}
	if e.Call == nil {
		return nil, errors.New("decode tx: missing call")
	}
	return &e, nil
}
