package bridge

import (
	"github.com/holiman/uint256"

	"github.com/herdius/herdius-bridge/crypto/ethsig"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
)

// SubmitLockUpdate counts an admitted lock or unlock attestation and applies
// it once quorum is reached. The event hash is closed for good afterwards.
func (b *Bridge) SubmitLockUpdate(st *statedb.Tx, call tx.SubmitLockUpdate) error {
	ev := call.Payload
	h := ev.Hash()
	if st.IsClosed(h) {
		return ErrAlreadyProcessed
	}

	amount, period := ev.AmountInt(), ev.LockPeriodInt()
	digest := ethsig.ReplayDigest(ev.IsLock, ev.Sender, b.chainID, amount, period)
	signer, err := ethsig.Recover(digest, ev.Signature)
	if err != nil || signer != ev.Sender {
		return ErrVerificationFailed
	}
	if ev.IsLock == amount.IsZero() {
		return ErrInvalidAmount
	}

	quorum, err := b.votes.Cast(st, h)
	if err != nil {
		return systematic(err, "record vote")
	}
	if !quorum {
		b.log.Debug().Str("event", h.Hex()).Msg("attestation recorded")
		return nil
	}

	if ev.IsLock {
		err = b.applyLock(st, ev, amount, period)
	} else {
		err = b.applyUnlock(st, ev)
	}
	if err != nil {
		return err
	}
	if err := st.MarkClosed(h); err != nil {
		return systematic(err, "close event")
	}
	return nil
}

// allocation converts a locked amount into a native allocation.
// TODO: take the rate from the price oracle once it exists; 1:1 until then.
func allocation(amount *uint256.Int) *uint256.Int {
	return new(uint256.Int).Set(amount)
}

func (b *Bridge) applyLock(st *statedb.Tx, ev tx.LockUpdateEvent, amount, period *uint256.Int) error {
	alloc := allocation(amount)
	if account, linked := st.LinkedAccount(ev.Sender); linked {
		if err := st.Credit(account, alloc); err != nil {
			return systematic(err, "credit %s", account)
		}
	} else if err := st.SetReserved(ev.Sender, alloc); err != nil {
		return systematic(err, "reserve allocation")
	}

	rec := statedb.LockRecord{Amount: amount.Bytes32(), Block: st.Height(), LockPeriod: period.Bytes32()}
	if err := st.SetLockRecord(ev.Sender, rec); err != nil {
		return systematic(err, "store lock record")
	}
	st.Emit(types.Locked{Sender: ev.Sender, Amount: rec.Amount[:], LockPeriod: rec.LockPeriod[:]})
	b.log.Info().Str("sender", ev.Sender.Hex()).Str("amount", amount.Dec()).Uint64("block", ev.BlockNumber).Msg("lock applied")
	return nil
}

func (b *Bridge) applyUnlock(st *statedb.Tx, ev tx.LockUpdateEvent) error {
	if account, linked := st.LinkedAccount(ev.Sender); linked {
		if err := b.forceUnlink(st, account, ev.Sender); err != nil {
			return err
		}
	}
	if err := st.ClearReserved(ev.Sender); err != nil {
		return systematic(err, "clear reserved allocation")
	}
	if err := st.SetLockRecord(ev.Sender, statedb.LockRecord{Block: st.Height()}); err != nil {
		return systematic(err, "store lock record")
	}
	st.Emit(types.Unlocked{Sender: ev.Sender})
	b.log.Info().Str("sender", ev.Sender.Hex()).Uint64("block", ev.BlockNumber).Msg("unlock applied")
	return nil
}
