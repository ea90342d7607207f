package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// DetachRequest asks to export Asset to Target on Chain.
type DetachRequest struct {
	Asset  []byte
	Chain  ExternalChain
	Target common.Address
}
