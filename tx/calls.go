package tx

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/herdius/herdius-bridge/crypto/herhash"
	"github.com/herdius/herdius-bridge/types"
)

// Call is one ledger entry point.
type Call interface {
	CallName() string
}

// Unsigned calls carry their own authority signature instead of an account
// signature.
type Unsigned interface {
	Call
	// SignerKey is the embedded authority public key.
	SignerKey() []byte
	// SigningBytes is what the authority signed.
	SigningBytes() []byte
	// AuthoritySignature is the authority's signature over SigningBytes.
	AuthoritySignature() []byte
	// Kind is the authority set the signer must belong to.
	Kind() types.AuthorityKind
	// Tag identifies the submission for pool deduplication.
	Tag() []byte
}

// LockUpdateEvent claims that as of BlockNumber on the external chain the
// total amount locked by Sender equals Amount.
type LockUpdateEvent struct {
	SignerPubKey []byte
	Amount       [32]byte
	LockPeriod   [32]byte
	Sender       common.Address
	Signature    []byte
	IsLock       bool
	BlockNumber  uint64
}

// NewLockUpdateEvent builds an event from 256-bit amounts.
func NewLockUpdateEvent(sender common.Address, amount, lockPeriod *uint256.Int, signature []byte, isLock bool, block uint64) LockUpdateEvent {
	ev := LockUpdateEvent{
		Sender:      sender,
		Signature:   signature,
		IsLock:      isLock,
		BlockNumber: block,
	}
	if amount != nil {
		ev.Amount = amount.Bytes32()
	}
	if lockPeriod != nil {
		ev.LockPeriod = lockPeriod.Bytes32()
	}
	return ev
}

// AmountInt returns Amount as a uint256.
func (e LockUpdateEvent) AmountInt() *uint256.Int {
	return new(uint256.Int).SetBytes32(e.Amount[:])
}

// LockPeriodInt returns LockPeriod as a uint256.
func (e LockUpdateEvent) LockPeriodInt() *uint256.Int {
	return new(uint256.Int).SetBytes32(e.LockPeriod[:])
}

// Hash identifies the observed fact. The signer key is excluded so reports of
// the same event by different authorities count toward the same vote.
func (e LockUpdateEvent) Hash() common.Hash {
	var flag byte
	if e.IsLock {
		flag = 1
	}
	var block [8]byte
	binary.BigEndian.PutUint64(block[:], e.BlockNumber)
	return ethcrypto.Keccak256Hash(
		e.Amount[:],
		e.LockPeriod[:],
		e.Sender[:],
		e.Signature,
		[]byte{flag},
		block[:],
	)
}

// Bytes is the canonical encoding the authority signs.
func (e LockUpdateEvent) Bytes() []byte {
	return cdc.MustMarshalBinaryBare(e)
}

// SubmitLockUpdate carries a LockUpdateEvent signed by a lock authority.
type SubmitLockUpdate struct {
	Payload   LockUpdateEvent
	Signature []byte
}

func (SubmitLockUpdate) CallName() string             { return "submit_lock_update" }
func (c SubmitLockUpdate) SignerKey() []byte          { return c.Payload.SignerPubKey }
func (c SubmitLockUpdate) SigningBytes() []byte       { return c.Payload.Bytes() }
func (c SubmitLockUpdate) AuthoritySignature() []byte { return c.Signature }
func (SubmitLockUpdate) Kind() types.AuthorityKind    { return types.LockAuthorities }
func (c SubmitLockUpdate) Tag() []byte                { return tag(c.SigningBytes(), c.Signature) }

// DetachFinalize reports a signed export of Asset to Target on Chain.
type DetachFinalize struct {
	SignerPubKey []byte
	Asset        []byte
	Chain        types.ExternalChain
	Target       common.Address
	Signature    []byte
	Nonce        uint64
}

// Bytes is the canonical encoding the authority signs.
func (d DetachFinalize) Bytes() []byte {
	return cdc.MustMarshalBinaryBare(d)
}

// SubmitDetachFinalize carries a DetachFinalize signed by a detach authority.
type SubmitDetachFinalize struct {
	Payload   DetachFinalize
	Signature []byte
}

func (SubmitDetachFinalize) CallName() string             { return "submit_detach_finalize" }
func (c SubmitDetachFinalize) SignerKey() []byte          { return c.Payload.SignerPubKey }
func (c SubmitDetachFinalize) SigningBytes() []byte       { return c.Payload.Bytes() }
func (c SubmitDetachFinalize) AuthoritySignature() []byte { return c.Signature }
func (SubmitDetachFinalize) Kind() types.AuthorityKind    { return types.DetachAuthorities }
func (c SubmitDetachFinalize) Tag() []byte                { return tag(c.SigningBytes(), c.Signature) }

// Link asks to link the signing account with the external address that
// produced Proof over the link digest.
type Link struct {
	Proof []byte
}

// Unlink removes the signing account's link to External.
type Unlink struct {
	External common.Address
}

// RequestDetach queues an export of an owned asset.
type RequestDetach struct {
	Asset  []byte
	Chain  types.ExternalChain
	Target common.Address
}

// RegisterAsset records the signing account as owner of Asset.
type RegisterAsset struct {
	Asset []byte
}

// AddAuthority adds PubKey to an authority set. Root only.
type AddAuthority struct {
	Kind   types.AuthorityKind
	PubKey []byte
}

// RemoveAuthority removes PubKey from an authority set. Root only.
type RemoveAuthority struct {
	Kind   types.AuthorityKind
	PubKey []byte
}

func (Link) CallName() string            { return "link" }
func (Unlink) CallName() string          { return "unlink" }
func (RequestDetach) CallName() string   { return "request_detach" }
func (RegisterAsset) CallName() string   { return "register_asset" }
func (AddAuthority) CallName() string    { return "add_authority" }
func (RemoveAuthority) CallName() string { return "remove_authority" }

func tag(payload, sig []byte) []byte {
	bz := make([]byte, 0, len(payload)+len(sig))
	bz = append(bz, payload...)
	return herhash.Sum(append(bz, sig...))
}
