// Package detach turns queued detach requests into signed exports. It runs
// once per block against a read-only view of state.
package detach

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/herdius/herdius-bridge/bridge"
	"github.com/herdius/herdius-bridge/crypto/ethsig"
	"github.com/herdius/herdius-bridge/crypto/secp256k1"
	"github.com/herdius/herdius-bridge/libs/log"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
	"github.com/herdius/herdius-bridge/validator"
)

// Queue is the node-local detach request queue.
type Queue interface {
	DrainDetach() ([]types.DetachRequest, error)
	EnqueueDetach(reqs ...types.DetachRequest) error
}

// KeySource yields the detach signing key.
type KeySource interface {
	PubKey() (secp256k1.PubKeySecp256k1, error)
	PrivKey() (secp256k1.PrivKeySecp256k1, error)
}

// Submitter pools a signed export.
type Submitter interface {
	SubmitDetachFinalize(ctx context.Context, p tx.DetachFinalize, key secp256k1.PrivKeySecp256k1) error
}

// Worker drains the detach queue.
type Worker struct {
	queue  Queue
	keys   KeySource
	submit Submitter
	log    zerolog.Logger
}

// NewWorker returns a detach worker.
func NewWorker(queue Queue, keys KeySource, submit Submitter) *Worker {
	return &Worker{queue: queue, keys: keys, submit: submit, log: log.Component("detach")}
}

type destination struct {
	target common.Address
	chain  types.ExternalChain
}

// Run drains every queued request and submits a signed export for each.
// Requests that fail to submit go back on the queue; requests this node is
// not authorized to sign are dropped.
func (w *Worker) Run(ctx context.Context, snap *statedb.Tx) error {
	reqs, err := w.queue.DrainDetach()
	if err != nil {
		return errors.Wrap(err, "drain detach queue")
	}
	if len(reqs) == 0 {
		return nil
	}

	key, err := w.authorizedKey(snap)
	if err != nil {
		w.log.Debug().Err(err).Int("requests", len(reqs)).Msg("not signing detach requests")
		return nil
	}

	var retry []types.DetachRequest
	nonces := map[destination]uint64{}
	for _, req := range reqs {
		if ctx.Err() != nil {
			retry = append(retry, req)
			continue
		}
		dst := destination{target: req.Target, chain: req.Chain}
		nonce, ok := nonces[dst]
		if !ok {
			nonce = snap.Nonce(req.Target, req.Chain)
		}
		nonce++

		p, err := Sign(key, req, nonce)
		if err != nil {
			w.log.Error().Err(err).Hex("asset", req.Asset).Msg("detach not signed")
			continue
		}
		if err := w.submit.SubmitDetachFinalize(ctx, p, key); err != nil {
			w.log.Error().Err(err).Hex("asset", req.Asset).Msg("detach not submitted")
			retry = append(retry, req)
			continue
		}
		nonces[dst] = nonce
	}
	if len(retry) > 0 {
		return errors.Wrap(w.queue.EnqueueDetach(retry...), "requeue detach requests")
	}
	return nil
}

// authorizedKey derives the detach key and checks it is in the detach set.
func (w *Worker) authorizedKey(snap *statedb.Tx) (secp256k1.PrivKeySecp256k1, error) {
	pub, err := w.keys.PubKey()
	if err != nil {
		return secp256k1.PrivKeySecp256k1{}, errors.Wrap(bridge.ErrNoValidator, err.Error())
	}
	keys, err := snap.AuthorityKeys(types.DetachAuthorities)
	if err != nil {
		return secp256k1.PrivKeySecp256k1{}, err
	}
	if !validator.NewAuthoritySet(keys).Has(pub[:]) {
		return secp256k1.PrivKeySecp256k1{}, bridge.ErrNoValidator
	}
	key, err := w.keys.PrivKey()
	if err != nil {
		return secp256k1.PrivKeySecp256k1{}, errors.Wrap(bridge.ErrNoValidator, err.Error())
	}
	return key, nil
}

// Sign builds the finalize payload for req at nonce, carrying the export
// signature the external contract checks.
func Sign(key secp256k1.PrivKeySecp256k1, req types.DetachRequest, nonce uint64) (tx.DetachFinalize, error) {
	chainID, ok := req.Chain.ChainID()
	if !ok {
		return tx.DetachFinalize{}, bridge.ErrUnknownChain
	}
	sig, err := key.SignDigest(ethsig.ExportDigest(req.Asset, chainID, req.Target, nonce))
	if err != nil {
		return tx.DetachFinalize{}, errors.Wrap(bridge.ErrSigningFailed, err.Error())
	}
	return tx.DetachFinalize{
		Asset:     req.Asset,
		Chain:     req.Chain,
		Target:    req.Target,
		Signature: sig,
		Nonce:     nonce,
	}, nil
}
