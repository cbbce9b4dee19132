package types

import (
	"github.com/cosmos/cosmos-sdk/codec"
)

// RegisterCodec registers the necessary interfaces and concrete types
func RegisterCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterInterface((*Msg)(nil), nil)
	cdc.RegisterConcrete(&MsgTransfer{}, "defi/MsgTransfer", nil)
	cdc.RegisterConcrete(&MsgRegisterPair{}, "defi/MsgRegisterPair", nil)
	cdc.RegisterConcrete(&MsgFinalizeAddLiquidity{}, "defi/MsgFinalizeAddLiquidity", nil)
	cdc.RegisterConcrete(&MsgRemoveLiquidity{}, "defi/MsgRemoveLiquidity", nil)
	cdc.RegisterConcrete(&MsgSetWeight{}, "defi/MsgSetWeight", nil)
	cdc.RegisterConcrete(&MsgRemovePool{}, "defi/MsgRemovePool", nil)
	cdc.RegisterConcrete(&MsgDelegate{}, "defi/MsgDelegate", nil)
	cdc.RegisterConcrete(&MsgExitDelegation{}, "defi/MsgExitDelegation", nil)
	cdc.RegisterConcrete(&MsgClaimDelegation{}, "defi/MsgClaimDelegation", nil)
	cdc.RegisterConcrete(&MsgSettleDelegation{}, "defi/MsgSettleDelegation", nil)
}

var (
	amino     = codec.NewLegacyAmino()
	ModuleCdc = codec.NewAminoCodec(amino)
)

func init() {
	RegisterCodec(amino)
	amino.Seal()
}

// Amino returns the sealed codec used for the module's store values and
// transaction hashing.
func Amino() *codec.LegacyAmino {
	return amino
}
