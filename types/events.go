package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// Event is emitted by the bridge when state changes.
type Event interface {
	EventName() string
}

// Linked is emitted when a native account and an external address are linked.
type Linked struct {
	Account  AccountID
	External common.Address
}

// Unlinked is emitted when a link is removed, either explicitly or by an unlock.
type Unlinked struct {
	Account  AccountID
	External common.Address
}

// Locked is emitted when a lock snapshot is applied.
type Locked struct {
	Sender     common.Address
	Amount     []byte // 32-byte big-endian
	LockPeriod []byte // 32-byte big-endian
}

// Unlocked is emitted when an unlock is applied.
type Unlocked struct {
	Sender common.Address
}

// Detached is emitted when an asset export is finalized.
type Detached struct {
	Asset  []byte
	Chain  ExternalChain
	Target common.Address
	Nonce  uint64
}

func (Linked) EventName() string   { return "Linked" }
func (Unlinked) EventName() string { return "Unlinked" }
func (Locked) EventName() string   { return "Locked" }
func (Unlocked) EventName() string { return "Unlocked" }
func (Detached) EventName() string { return "Detached" }
