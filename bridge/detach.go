package bridge

import (
	"github.com/herdius/herdius-bridge/crypto/ethsig"
	"github.com/herdius/herdius-bridge/crypto/secp256k1"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
)

// RegisterAsset records owner as the owner of a new asset.
func (b *Bridge) RegisterAsset(st *statedb.Tx, owner types.AccountID, asset []byte) error {
	if len(asset) == 0 {
		return ErrInvalidAsset
	}
	if _, ok := st.AssetOwner(asset); ok {
		return ErrAssetExists
	}
	return st.SetAssetOwner(asset, owner)
}

// RequestDetach queues an export of an asset owned by owner. The request
// reaches the node-local detach queue only if the block commits.
func (b *Bridge) RequestDetach(st *statedb.Tx, owner types.AccountID, req types.DetachRequest) error {
	if !req.Chain.Valid() {
		return ErrUnknownChain
	}
	if got, ok := st.AssetOwner(req.Asset); !ok || got != owner {
		return ErrNotAssetOwner
	}
	if _, done, err := st.Export(req.Asset); err != nil {
		return systematic(err, "load export record")
	} else if done {
		return ErrAlreadyDetached
	}
	if err := st.QueueDetach(req); err != nil {
		return systematic(err, "queue detach")
	}
	b.log.Info().Hex("asset", req.Asset).Str("chain", req.Chain.String()).Str("target", req.Target.Hex()).Msg("detach requested")
	return nil
}

// SubmitDetachFinalize records a signed export. The nonce must be the next
// one for (target, chain) and the export signature must come from the
// submitting detach authority.
func (b *Bridge) SubmitDetachFinalize(st *statedb.Tx, call tx.SubmitDetachFinalize) error {
	p := call.Payload
	chainID, ok := p.Chain.ChainID()
	if !ok {
		return ErrUnknownChain
	}
	if _, done, err := st.Export(p.Asset); err != nil {
		return systematic(err, "load export record")
	} else if done {
		return ErrAlreadyDetached
	}
	if p.Nonce != st.Nonce(p.Target, p.Chain)+1 {
		return ErrBadNonce
	}

	pub, err := secp256k1.PubKeyFromBytes(p.SignerPubKey)
	if err != nil {
		return ErrBadSigner
	}
	signer, err := ethsig.Recover(ethsig.ExportDigest(p.Asset, chainID, p.Target, p.Nonce), p.Signature)
	if err != nil || signer != pub.EthAddress() {
		return ErrBadProof
	}

	if err := st.SetExport(p.Asset, statedb.ExportRecord{Chain: p.Chain, Target: p.Target, Nonce: p.Nonce}); err != nil {
		return systematic(err, "store export record")
	}
	if err := st.SetNonce(p.Target, p.Chain, p.Nonce); err != nil {
		return systematic(err, "store nonce")
	}
	st.Emit(types.Detached{Asset: p.Asset, Chain: p.Chain, Target: p.Target, Nonce: p.Nonce})
	b.log.Info().Hex("asset", p.Asset).Str("chain", p.Chain.String()).Uint64("nonce", p.Nonce).Msg("detached")
	return nil
}
