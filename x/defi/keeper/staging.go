package keeper

import (
	"context"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// GetPendingDeposit returns the staging slot.
func (k Keeper) GetPendingDeposit(ctx context.Context) (types.PendingDeposit, bool, error) {
	var slot types.PendingDeposit
	found, err := k.get(ctx, types.PendingDepositKey, &slot)
	return slot, found, err
}

func (k Keeper) setPendingDeposit(ctx context.Context, slot types.PendingDeposit) error {
	return k.set(ctx, types.PendingDepositKey, slot)
}

// StageDeposit records one leg of a two-leg deposit. Both legs must arrive in
// the same settlement transaction with the same memo; a leftover entry from
// an earlier transaction is refunded before the new one opens.
func (k Keeper) StageDeposit(ctx context.Context, sender string, funds types.AssetAmount, memo types.Memo) error {
	s, err := settlementFrom(ctx)
	if err != nil {
		return err
	}
	if memo.Kind != types.MemoAddLiquidity {
		return types.ErrInvalidMemo.Wrapf("%q is not a deposit memo", memo.Raw)
	}

	pool, err := k.GetPool(ctx, memo.PoolID)
	if err != nil {
		return err
	}
	if pool.SideOf(funds.Asset) == types.SideNone {
		return types.ErrTokenMismatch.Wrapf("%s is not traded in pool %d", funds.Asset, pool.ID)
	}

	leg := types.DepositLeg{Sender: sender, Funds: funds, Memo: memo.Raw}
	slot, found, err := k.GetPendingDeposit(ctx)
	if err != nil {
		return err
	}

	if found && slot.CorrelationID == s.correlationID {
		switch slot.State {
		case types.DepositAwaitingSecond:
			if leg.Memo != slot.Leg1.Memo {
				k.observeStaging("mismatch")
				return types.ErrLiquidityMismatch.Wrapf("leg memo %q, first leg memo %q", leg.Memo, slot.Leg1.Memo)
			}
			slot.Leg2 = leg
			slot.State = types.DepositReady
			if err := k.setPendingDeposit(ctx, slot); err != nil {
				return err
			}
			k.emitStaged(ctx, slot, leg, 2)
			return nil

		case types.DepositReady:
			k.observeStaging("already_paired")
			return types.ErrAlreadyPaired.Wrapf("pool %d", memo.PoolID)
		}
		// A consumed entry of this transaction is simply replaced.
	}

	if found && slot.CorrelationID != s.correlationID {
		if err := k.refundStaleDeposit(ctx, slot); err != nil {
			return err
		}
	}

	slot = types.PendingDeposit{
		CorrelationID: s.correlationID,
		Leg1:          leg,
		State:         types.DepositAwaitingSecond,
	}
	if err := k.setPendingDeposit(ctx, slot); err != nil {
		return err
	}
	k.emitStaged(ctx, slot, leg, 1)
	return nil
}

// refundStaleDeposit returns every leg still held by a staging entry of an
// earlier transaction to its sender.
func (k Keeper) refundStaleDeposit(ctx context.Context, slot types.PendingDeposit) error {
	for _, leg := range slot.StagedLegs() {
		if err := k.enqueue(ctx, types.NewTransferEffect(leg.Sender, leg.Funds, "addliquidity refund")); err != nil {
			return err
		}
		sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeDepositRefunded,
			sdk.NewAttribute(types.AttributeKeyRecipient, leg.Sender),
			sdk.NewAttribute(types.AttributeKeyAmount, leg.Funds.String()),
			sdk.NewAttribute(types.AttributeKeyCorrelationID, slot.CorrelationID),
		))
		k.observeStaging("refunded")
	}
	k.Logger(ctx).Info("stale deposit refunded",
		"correlation_id", slot.CorrelationID,
		"state", slot.State.String(),
	)
	return nil
}

func (k Keeper) emitStaged(ctx context.Context, slot types.PendingDeposit, leg types.DepositLeg, n int) {
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeDepositStaged,
		sdk.NewAttribute(types.AttributeKeySender, leg.Sender),
		sdk.NewAttribute(types.AttributeKeyAmount, leg.Funds.String()),
		sdk.NewAttribute(types.AttributeKeyMemo, leg.Memo),
		sdk.NewAttribute(types.AttributeKeyLeg, strconv.Itoa(n)),
		sdk.NewAttribute(types.AttributeKeyStatus, slot.State.String()),
	))
	k.observeStaging("staged")
}

func (k Keeper) observeStaging(outcome string) {
	if k.metrics != nil {
		k.metrics.StagedLegs.WithLabelValues(outcome).Inc()
	}
}
