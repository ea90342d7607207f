package tx

import (
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

func init() {
	RegisterTxAmino(cdc)
}

// RegisterTxAmino registers the Call union.
func RegisterTxAmino(cdc *amino.Codec) {
	cdc.RegisterInterface((*Call)(nil), nil)
	cdc.RegisterConcrete(SubmitLockUpdate{}, "herdius/bridge/SubmitLockUpdate", nil)
	cdc.RegisterConcrete(SubmitDetachFinalize{}, "herdius/bridge/SubmitDetachFinalize", nil)
	cdc.RegisterConcrete(Link{}, "herdius/bridge/Link", nil)
	cdc.RegisterConcrete(Unlink{}, "herdius/bridge/Unlink", nil)
	cdc.RegisterConcrete(RequestDetach{}, "herdius/bridge/RequestDetach", nil)
	cdc.RegisterConcrete(RegisterAsset{}, "herdius/bridge/RegisterAsset", nil)
	cdc.RegisterConcrete(AddAuthority{}, "herdius/bridge/AddAuthority", nil)
	cdc.RegisterConcrete(RemoveAuthority{}, "herdius/bridge/RemoveAuthority", nil)
}

// GetCodec returns a codec used by the package. For testing purposes only.
func GetCodec() *amino.Codec {
	return cdc
}
