package bridge

import (
	"github.com/herdius/herdius-bridge/crypto"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
	"github.com/herdius/herdius-bridge/validator"
)

// Validity is the outcome of admitting an unsigned submission.
type Validity struct {
	// Tag identifies the submission; equal tags are the same transaction.
	Tag []byte
	// Propagate says whether peers should receive it. Always false: every
	// node authors and includes its own attestations.
	Propagate bool
}

// keyTypes maps each authority set to the key type its members use.
var keyTypes = map[types.AuthorityKind]string{
	types.LockAuthorities:   crypto.KeyTypeEd25519,
	types.DetachAuthorities: crypto.KeyTypeSecp256k1,
}

// ValidateUnsigned admits an authority-signed submission into the pool or a
// block. It runs against a read-only view.
func (b *Bridge) ValidateUnsigned(st *statedb.Tx, source types.TransactionSource, call tx.Unsigned) (Validity, error) {
	if source != types.SourceLocal && source != types.SourceInBlock {
		return Validity{}, ErrBadSource
	}
	kind := call.Kind()
	signer, err := validator.DecodeAuthority(keyTypes[kind], call.SignerKey())
	if err != nil {
		return Validity{}, ErrBadSigner
	}
	set, err := b.authorities(st, kind)
	if err != nil {
		return Validity{}, err
	}
	if !set.Has(signer.Key()) {
		return Validity{}, ErrBadSigner
	}
	if !signer.PubKey.VerifyBytes(call.SigningBytes(), call.AuthoritySignature()) {
		return Validity{}, ErrBadProof
	}
	return Validity{Tag: call.Tag(), Propagate: false}, nil
}

func (b *Bridge) authorities(st *statedb.Tx, kind types.AuthorityKind) (*validator.AuthoritySet, error) {
	keys, err := st.AuthorityKeys(kind)
	if err != nil {
		return nil, systematic(err, "load %s authorities", kind)
	}
	return validator.NewAuthoritySet(keys), nil
}

// Authorities returns the current members of an authority set.
func (b *Bridge) Authorities(st *statedb.Tx, kind types.AuthorityKind) (*validator.AuthoritySet, error) {
	return b.authorities(st, kind)
}

func (b *Bridge) addAuthority(st *statedb.Tx, kind types.AuthorityKind, key []byte) error {
	if !kind.Valid() {
		return ErrUnknownAuthority
	}
	a, err := validator.DecodeAuthority(keyTypes[kind], key)
	if err != nil {
		return ErrBadSigner
	}
	set, err := b.authorities(st, kind)
	if err != nil {
		return err
	}
	if !set.Add(a.Key()) {
		return nil
	}
	b.log.Info().Str("set", kind.String()).Str("authority", a.String()).Msg("authority added")
	return st.SetAuthorityKeys(kind, set.Keys())
}

func (b *Bridge) removeAuthority(st *statedb.Tx, kind types.AuthorityKind, key []byte) error {
	if !kind.Valid() {
		return ErrUnknownAuthority
	}
	a, err := validator.DecodeAuthority(keyTypes[kind], key)
	if err != nil {
		return ErrBadSigner
	}
	set, err := b.authorities(st, kind)
	if err != nil {
		return err
	}
	if !set.Remove(a.Key()) {
		return ErrUnknownAuthority
	}
	b.log.Info().Str("set", kind.String()).Str("authority", a.String()).Msg("authority removed")
	return st.SetAuthorityKeys(kind, set.Keys())
}

// AddAuthority admits key to an authority set. Root only.
func (b *Bridge) AddAuthority(st *statedb.Tx, origin tx.Origin, who types.AccountID, kind types.AuthorityKind, key []byte) error {
	if err := b.ensureRoot(origin, who); err != nil {
		return err
	}
	return b.addAuthority(st, kind, key)
}

// RemoveAuthority drops key from an authority set. Root only.
func (b *Bridge) RemoveAuthority(st *statedb.Tx, origin tx.Origin, who types.AccountID, kind types.AuthorityKind, key []byte) error {
	if err := b.ensureRoot(origin, who); err != nil {
		return err
	}
	return b.removeAuthority(st, kind, key)
}

func (b *Bridge) AddLockAuthority(st *statedb.Tx, origin tx.Origin, who types.AccountID, key []byte) error {
	return b.AddAuthority(st, origin, who, types.LockAuthorities, key)
}

func (b *Bridge) RemoveLockAuthority(st *statedb.Tx, origin tx.Origin, who types.AccountID, key []byte) error {
	return b.RemoveAuthority(st, origin, who, types.LockAuthorities, key)
}

func (b *Bridge) AddDetachAuthority(st *statedb.Tx, origin tx.Origin, who types.AccountID, key []byte) error {
	return b.AddAuthority(st, origin, who, types.DetachAuthorities, key)
}

func (b *Bridge) RemoveDetachAuthority(st *statedb.Tx, origin tx.Origin, who types.AccountID, key []byte) error {
	return b.RemoveAuthority(st, origin, who, types.DetachAuthorities, key)
}
