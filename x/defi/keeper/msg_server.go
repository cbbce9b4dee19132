package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// handleMsg routes one msg of a settlement transaction to its handler.
func (k Keeper) handleMsg(ctx sdk.Context, msg types.Msg) error {
	switch m := msg.(type) {
	case *types.MsgTransfer:
		return k.handleTransfer(ctx, m)
	case *types.MsgRegisterPair:
		_, err := k.RegisterPair(ctx, m.Creator, m.AssetA, m.AssetB)
		return err
	case *types.MsgFinalizeAddLiquidity:
		_, err := k.FinalizeAddLiquidity(ctx, m.Provider, m.PoolID)
		return err
	case *types.MsgRemoveLiquidity:
		_, err := k.RemoveLiquidity(ctx, m.Provider, m.PoolID, m.Shares)
		return err
	case *types.MsgSetWeight:
		return k.SetWeight(ctx, m.Authority, m.PoolID, m.Kind, m.Weight)
	case *types.MsgRemovePool:
		return k.RemovePool(ctx, m.Authority, m.PoolID)
	case *types.MsgDelegate:
		return k.Delegate(ctx, m.Authority, m.PoolID, m.Venue, m.VenuePool, m.AmountA, m.AmountB)
	case *types.MsgExitDelegation:
		return k.ExitDelegation(ctx, m.Authority, m.Memo, m.Amount)
	case *types.MsgClaimDelegation:
		return k.ClaimDelegation(ctx, m.Authority)
	case *types.MsgSettleDelegation:
		return k.SettleDelegation(ctx, m.Authority)
	default:
		return types.ErrInvalidTx.Wrapf("unrecognized %s message type: %T", types.ModuleName, msg)
	}
}

// handleTransfer moves the funds into the module account and lets the memo
// decide what happens to them.
func (k Keeper) handleTransfer(ctx sdk.Context, msg *types.MsgTransfer) error {
	sender, err := sdk.AccAddressFromBech32(msg.Sender)
	if err != nil {
		return types.ErrInvalidAddress.Wrapf("sender: %s", err)
	}
	coins := sdk.NewCoins(msg.Funds.Coin())
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, sender, types.ModuleName, coins); err != nil {
		return err
	}
	return k.OnTransfer(ctx, msg.Sender, msg.Funds, msg.Memo)
}
