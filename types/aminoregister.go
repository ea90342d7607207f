package types

import (
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

func init() {
	RegisterEventsAmino(cdc)
}

// RegisterEventsAmino registers the Event union so it can be persisted.
func RegisterEventsAmino(cdc *amino.Codec) {
	cdc.RegisterInterface((*Event)(nil), nil)
	cdc.RegisterConcrete(Linked{}, "herdius/bridge/Linked", nil)
	cdc.RegisterConcrete(Unlinked{}, "herdius/bridge/Unlinked", nil)
	cdc.RegisterConcrete(Locked{}, "herdius/bridge/Locked", nil)
	cdc.RegisterConcrete(Unlocked{}, "herdius/bridge/Unlocked", nil)
	cdc.RegisterConcrete(Detached{}, "herdius/bridge/Detached", nil)
}

// GetCodec returns a codec used by the package. For testing purposes only.
func GetCodec() *amino.Codec {
	return cdc
}
