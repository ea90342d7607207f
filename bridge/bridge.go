// Package bridge is the ledger side of the external-chain bridge. It admits
// authority-signed attestations, counts them toward a quorum and applies
// lock, unlock, link and detach transitions to state.
package bridge

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/herdius/herdius-bridge/crypto/ethsig"
	"github.com/herdius/herdius-bridge/libs/log"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
	"github.com/herdius/herdius-bridge/validator"
)

// Config is the chain-level bridge configuration.
type Config struct {
	// Chain is the external chain lock events are replayed against.
	Chain types.ExternalChain
	// Threshold is the number of attestations needed to apply an event.
	Threshold uint64
	// Genesis is the native chain's genesis hash, bound into link proofs.
	Genesis common.Hash
	// Domain separates link proofs from other typed-data signatures.
	Domain ethsig.Domain
	// Root is the administrative account.
	Root types.AccountID
}

// Bridge applies bridge calls to a state transaction.
type Bridge struct {
	cfg     Config
	chainID uint64
	votes   validator.Votes
	log     zerolog.Logger
}

// New returns a Bridge. The external chain must have a known chain id.
func New(cfg Config) (*Bridge, error) {
	id, ok := cfg.Chain.ChainID()
	if !ok {
		return nil, ErrUnknownChain
	}
	return &Bridge{
		cfg:     cfg,
		chainID: id,
		votes:   validator.Votes{Threshold: cfg.Threshold},
		log:     log.Component("bridge"),
	}, nil
}

// Config returns the configuration the bridge was built with.
func (b *Bridge) Config() Config {
	return b.cfg
}

// InitGenesis installs the genesis authority sets.
func (b *Bridge) InitGenesis(st *statedb.Tx, lockKeys, detachKeys [][]byte) error {
	for kind, keys := range map[types.AuthorityKind][][]byte{
		types.LockAuthorities:   lockKeys,
		types.DetachAuthorities: detachKeys,
	} {
		for _, k := range keys {
			if err := b.addAuthority(st, kind, k); err != nil {
				return err
			}
		}
	}
	return nil
}

// Apply executes one transaction against st.
func (b *Bridge) Apply(st *statedb.Tx, env *tx.Envelope) error {
	if u, ok := env.Call.(tx.Unsigned); ok {
		if env.Origin != tx.OriginNone {
			return ErrBadOrigin
		}
		if _, err := b.ValidateUnsigned(st, types.SourceInBlock, u); err != nil {
			return err
		}
		switch c := u.(type) {
		case tx.SubmitLockUpdate:
			return b.SubmitLockUpdate(st, c)
		case tx.SubmitDetachFinalize:
			return b.SubmitDetachFinalize(st, c)
		}
		return ErrUnknownCall
	}

	if err := env.VerifyAccount(); err != nil {
		return ErrBadOrigin
	}
	switch c := env.Call.(type) {
	case tx.Link:
		if env.Origin != tx.OriginSigned {
			return ErrBadOrigin
		}
		return b.Link(st, env.Account, c.Proof)
	case tx.Unlink:
		if env.Origin != tx.OriginSigned {
			return ErrBadOrigin
		}
		return b.Unlink(st, env.Account, c.External)
	case tx.RequestDetach:
		if env.Origin != tx.OriginSigned {
			return ErrBadOrigin
		}
		return b.RequestDetach(st, env.Account, types.DetachRequest{Asset: c.Asset, Chain: c.Chain, Target: c.Target})
	case tx.RegisterAsset:
		if env.Origin != tx.OriginSigned {
			return ErrBadOrigin
		}
		return b.RegisterAsset(st, env.Account, c.Asset)
	case tx.AddAuthority:
		return b.AddAuthority(st, env.Origin, env.Account, c.Kind, c.PubKey)
	case tx.RemoveAuthority:
		return b.RemoveAuthority(st, env.Origin, env.Account, c.Kind, c.PubKey)
	}
	return ErrUnknownCall
}

func (b *Bridge) ensureRoot(origin tx.Origin, who types.AccountID) error {
	if origin != tx.OriginRoot || who != b.cfg.Root {
		return ErrBadOrigin
	}
	return nil
}
