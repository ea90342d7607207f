package blockchain

import (
	amino "github.com/tendermint/go-amino"

	"github.com/herdius/herdius-bridge/tx"
)

var cdc = amino.NewCodec()

func init() {
	tx.RegisterTxAmino(cdc)
}
