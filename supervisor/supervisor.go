// Package supervisor authors this node's attestations: it signs lock updates
// and detach finalizations with the local authority keys, runs them through
// the authorization gate and places them in the pool. Nothing it submits is
// gossiped; every node includes only what it authored itself.
package supervisor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/herdius/herdius-bridge/bridge"
	"github.com/herdius/herdius-bridge/crypto/ed"
	"github.com/herdius/herdius-bridge/crypto/secp256k1"
	"github.com/herdius/herdius-bridge/libs/log"
	"github.com/herdius/herdius-bridge/storage/mempool"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
)

// ErrNoLockKey is returned when the node has no lock authority key.
var ErrNoLockKey = errors.New("no lock authority key configured")

// Submitter signs and pools unsigned bridge calls.
type Submitter struct {
	bridge  *bridge.Bridge
	state   *statedb.Store
	pool    mempool.Service
	lockKey *ed.PrivKeyEd25519
	log     zerolog.Logger
}

// NewSubmitter returns a Submitter. lockKey may be nil on nodes that do not
// attest lock events.
func NewSubmitter(b *bridge.Bridge, state *statedb.Store, pool mempool.Service, lockKey *ed.PrivKeyEd25519) *Submitter {
	return &Submitter{
		bridge:  b,
		state:   state,
		pool:    pool,
		lockKey: lockKey,
		log:     log.Component("supervisor"),
	}
}

// SubmitLockUpdate attests an observed lock or unlock.
func (s *Submitter) SubmitLockUpdate(_ context.Context, ev tx.LockUpdateEvent) error {
	if s.lockKey == nil {
		return ErrNoLockKey
	}
	pub := s.lockKey.PubKeyEd25519()
	ev.SignerPubKey = pub[:]
	sig, err := s.lockKey.Sign(ev.Bytes())
	if err != nil {
		return errors.Wrap(err, "sign lock update")
	}
	return s.submit(tx.SubmitLockUpdate{Payload: ev, Signature: sig})
}

// SubmitDetachFinalize reports a signed export, authored by the detach key.
func (s *Submitter) SubmitDetachFinalize(_ context.Context, p tx.DetachFinalize, key secp256k1.PrivKeySecp256k1) error {
	pub := key.PubKeySecp256k1()
	p.SignerPubKey = pub[:]
	sig, err := key.Sign(p.Bytes())
	if err != nil {
		return errors.Wrap(bridge.ErrSigningFailed, err.Error())
	}
	return s.submit(tx.SubmitDetachFinalize{Payload: p, Signature: sig})
}

func (s *Submitter) submit(call tx.Unsigned) error {
	snap := s.state.Snapshot()
	validity, err := s.bridge.ValidateUnsigned(snap, types.SourceLocal, call)
	snap.Discard()
	if err != nil {
		return errors.Wrapf(err, "%s rejected", call.CallName())
	}
	bz, err := tx.NewUnsigned(call).Encode()
	if err != nil {
		return err
	}
	size, added := s.pool.AddTx(bz, validity.Tag)
	s.log.Debug().Str("call", call.CallName()).Bool("added", added).Int("pool", size).Msg("submitted")
	return nil
}

// HandleLockEvent is the observer callback. A node outside the lock authority
// set skips events so its cursor keeps moving.
func (s *Submitter) HandleLockEvent(ctx context.Context, ev tx.LockUpdateEvent) error {
	err := s.SubmitLockUpdate(ctx, ev)
	switch errors.Cause(err) {
	case nil:
		return nil
	case ErrNoLockKey, bridge.ErrBadSigner:
		s.log.Debug().Err(err).Str("sender", ev.Sender.Hex()).Msg("not attesting lock update")
		return nil
	default:
		return err
	}
}
