package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// OnTransfer handles funds that already arrived in the module account.
// Transfers from a configured venue feed the active delegation; every other
// transfer is dispatched on its memo.
func (k Keeper) OnTransfer(ctx context.Context, sender string, funds types.AssetAmount, memo string) error {
	if !funds.IsPositive() {
		return types.ErrZeroAmount.Wrap("transfer amount must be positive")
	}
	params := k.GetParams(ctx)

	if venue, ok := params.VenueBySender(sender); ok {
		return k.handleVenueTransfer(ctx, params, venue, sender, funds, memo)
	}

	parsed, err := types.ParseMemo(memo)
	if err != nil {
		return err
	}

	switch parsed.Kind {
	case types.MemoSwap:
		_, err := k.Swap(ctx, sender, funds, parsed.Route, parsed.MaxSlippageBps, parsed.ClientRef)
		return err

	case types.MemoAddLiquidity:
		return k.StageDeposit(ctx, sender, funds, parsed)

	case types.MemoMarketSettle:
		// held until the settle msg of this transaction consumes it
		sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeTransferHeld,
			sdk.NewAttribute(types.AttributeKeySender, sender),
			sdk.NewAttribute(types.AttributeKeyAmount, funds.String()),
			sdk.NewAttribute(types.AttributeKeyMemo, memo),
		))
		return nil

	default:
		if err := k.enqueue(ctx, types.NewTransferEffect(params.HoldingAccount, funds, memo)); err != nil {
			return err
		}
		sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeTransferForward,
			sdk.NewAttribute(types.AttributeKeySender, sender),
			sdk.NewAttribute(types.AttributeKeyRecipient, params.HoldingAccount),
			sdk.NewAttribute(types.AttributeKeyAmount, funds.String()),
			sdk.NewAttribute(types.AttributeKeyMemo, memo),
		))
		return nil
	}
}
