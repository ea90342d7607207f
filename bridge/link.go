package bridge

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/herdius/herdius-bridge/crypto/ethsig"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/types"
)

// Link binds account to the external address that signed proof over the
// link digest. Any allocation reserved for that address moves to account.
func (b *Bridge) Link(st *statedb.Tx, account types.AccountID, proof []byte) error {
	digest, err := ethsig.LinkDigest(b.cfg.Domain, b.cfg.Genesis, account)
	if err != nil {
		return systematic(err, "link digest")
	}
	external, err := ethsig.Recover(digest, proof)
	if err != nil {
		return ErrVerificationFailed
	}
	if _, ok := st.LinkedExternal(account); ok {
		return ErrAccountAlreadyLinked
	}
	if _, ok := st.LinkedAccount(external); ok {
		return ErrAccountAlreadyLinked
	}
	if err := st.InsertLink(account, external); err != nil {
		return systematic(err, "insert link")
	}

	if reserved := st.Reserved(external); !reserved.IsZero() {
		if err := st.Credit(account, reserved); err != nil {
			return systematic(err, "release reserved allocation")
		}
		if err := st.ClearReserved(external); err != nil {
			return systematic(err, "clear reserved allocation")
		}
	}
	st.Emit(types.Linked{Account: account, External: external})
	b.log.Info().Str("account", account.String()).Str("external", external.Hex()).Msg("linked")
	return nil
}

// Unlink removes the link between account and external.
func (b *Bridge) Unlink(st *statedb.Tx, account types.AccountID, external common.Address) error {
	return b.forceUnlink(st, account, external)
}

// forceUnlink removes a link whose two directions agree and queues the
// account for downstream cleanup.
func (b *Bridge) forceUnlink(st *statedb.Tx, account types.AccountID, external common.Address) error {
	forward, ok := st.LinkedExternal(account)
	if !ok || forward != external {
		return ErrAccountNotLinked
	}
	reverse, ok := st.LinkedAccount(external)
	if !ok || reverse != account {
		return ErrAccountNotLinked
	}
	if err := st.RemoveLink(account, external); err != nil {
		return systematic(err, "remove link")
	}
	if err := st.PushCleanup(account); err != nil {
		return systematic(err, "queue cleanup")
	}
	st.Emit(types.Unlinked{Account: account, External: external})
	b.log.Info().Str("account", account.String()).Str("external", external.Hex()).Msg("unlinked")
	return nil
}
