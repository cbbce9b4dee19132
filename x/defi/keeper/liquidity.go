package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// DepositResult describes a finalized deposit.
type DepositResult struct {
	AcceptedA math.Int
	AcceptedB math.Int
	RefundA   math.Int
	RefundB   math.Int
	Shares    math.Int
}

// WithdrawResult describes a withdrawal.
type WithdrawResult struct {
	AmountA math.Int
	AmountB math.Int
}

// matchLegs assigns the two staged legs to pool sides.
func matchLegs(pool types.Pool, slot types.PendingDeposit) (legA, legB types.DepositLeg, err error) {
	side1, side2 := pool.SideOf(slot.Leg1.Funds.Asset), pool.SideOf(slot.Leg2.Funds.Asset)
	switch {
	case side1 == types.SideA && side2 == types.SideB:
		return slot.Leg1, slot.Leg2, nil
	case side1 == types.SideB && side2 == types.SideA:
		return slot.Leg2, slot.Leg1, nil
	default:
		return legA, legB, types.ErrSideMismatch.Wrapf(
			"legs %s and %s for pool %d (%s / %s)",
			slot.Leg1.Funds, slot.Leg2.Funds, pool.ID, pool.AssetA, pool.AssetB,
		)
	}
}

// depositAmounts computes the accepted amounts and minted shares for a deposit
// of qA and qB into pool. The side that is long relative to the reserve ratio
// is capped and its surplus is left for refund.
func depositAmounts(pool types.Pool, qA, qB math.Int) (DepositResult, error) {
	res := DepositResult{RefundA: math.ZeroInt(), RefundB: math.ZeroInt()}

	if pool.IsEmpty() {
		res.AcceptedA, res.AcceptedB = qA, qB
		res.Shares = types.GeometricMean(qA, qB)
	} else {
		impliedB, err := types.ProportionalShare(qA, pool.ReserveB, pool.ReserveA)
		if err != nil {
			return res, err
		}
		if impliedB.LTE(qB) {
			res.AcceptedA, res.AcceptedB = qA, impliedB
			res.RefundB = qB.Sub(impliedB)
		} else {
			impliedA, err := types.ProportionalShare(qB, pool.ReserveA, pool.ReserveB)
			if err != nil {
				return res, err
			}
			res.AcceptedA, res.AcceptedB = impliedA, qB
			res.RefundA = qA.Sub(impliedA)
		}
		if res.Shares, err = types.ProportionalShare(res.AcceptedA, pool.TotalShares, pool.ReserveA); err != nil {
			return res, err
		}
	}

	if !res.AcceptedA.IsPositive() || !res.AcceptedB.IsPositive() {
		return res, types.ErrZeroAmount.Wrapf("pool %d: accepted %s / %s", pool.ID, res.AcceptedA, res.AcceptedB)
	}
	if !res.Shares.IsPositive() {
		return res, types.ErrZeroAmount.Wrapf("pool %d: deposit mints no shares", pool.ID)
	}
	return res, nil
}

// FinalizeAddLiquidity credits the deposit staged earlier in this settlement
// transaction to pool poolID and mints shares to provider.
func (k Keeper) FinalizeAddLiquidity(ctx context.Context, provider string, poolID uint64) (DepositResult, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	s, err := settlementFrom(ctx)
	if err != nil {
		return DepositResult{}, err
	}

	// 1. The staged entry must belong to this transaction and be complete
	slot, found, err := k.GetPendingDeposit(ctx)
	if err != nil {
		return DepositResult{}, err
	}
	if !found || slot.CorrelationID != s.correlationID || slot.State != types.DepositReady {
		return DepositResult{}, types.ErrDepositNotReady.Wrap("both deposit legs must arrive earlier in this transaction")
	}
	stagedPool, err := slot.PoolID()
	if err != nil {
		return DepositResult{}, err
	}
	if stagedPool != poolID {
		return DepositResult{}, types.ErrLiquidityMismatch.Wrapf("legs were sent for pool %d, not %d", stagedPool, poolID)
	}
	if slot.Leg1.Sender != provider || slot.Leg2.Sender != provider {
		return DepositResult{}, types.ErrUnauthorized.Wrapf("deposit legs were sent by %s and %s", slot.Leg1.Sender, slot.Leg2.Sender)
	}

	// 2. Match legs to sides and price the deposit
	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return DepositResult{}, err
	}
	legA, legB, err := matchLegs(pool, slot)
	if err != nil {
		return DepositResult{}, err
	}
	res, err := depositAmounts(pool, legA.Funds.Amount, legB.Funds.Amount)
	if err != nil {
		return DepositResult{}, err
	}

	// 3. Pool and position move together
	if pool.ReserveA, err = types.SafeAdd(pool.ReserveA, res.AcceptedA); err != nil {
		return DepositResult{}, err
	}
	if pool.ReserveB, err = types.SafeAdd(pool.ReserveB, res.AcceptedB); err != nil {
		return DepositResult{}, err
	}
	if pool.TotalShares, err = types.SafeAdd(pool.TotalShares, res.Shares); err != nil {
		return DepositResult{}, err
	}
	if err := pool.RefreshPrices(); err != nil {
		return DepositResult{}, err
	}
	if err := k.SetPool(ctx, pool); err != nil {
		return DepositResult{}, err
	}

	pos, found, err := k.GetPosition(ctx, poolID, provider)
	if err != nil {
		return DepositResult{}, err
	}
	if !found {
		pos = types.NewPosition(poolID, provider, sdkCtx.BlockTime())
	}
	if pos.ContributedA, err = types.SafeAdd(pos.ContributedA, res.AcceptedA); err != nil {
		return DepositResult{}, err
	}
	if pos.ContributedB, err = types.SafeAdd(pos.ContributedB, res.AcceptedB); err != nil {
		return DepositResult{}, err
	}
	if pos.Shares, err = types.SafeAdd(pos.Shares, res.Shares); err != nil {
		return DepositResult{}, err
	}
	if err := k.SetPosition(ctx, pos); err != nil {
		return DepositResult{}, err
	}

	slot.State = types.DepositConsumed
	if err := k.setPendingDeposit(ctx, slot); err != nil {
		return DepositResult{}, err
	}

	// 4. Refund the surplus untouched
	if err := k.enqueue(ctx,
		types.NewTransferEffect(provider, types.NewAssetAmount(pool.AssetA, res.RefundA), "addliquidity surplus"),
		types.NewTransferEffect(provider, types.NewAssetAmount(pool.AssetB, res.RefundB), "addliquidity surplus"),
	); err != nil {
		return DepositResult{}, err
	}

	params := k.GetParams(ctx)
	if _, err := k.appendLiquidityAudit(ctx, params.LiquidityLogCap, types.LiquidityAuditEntry{
		Kind:          types.LiquidityDeposit,
		Provider:      provider,
		PoolID:        poolID,
		AmountA:       types.NewAssetAmount(pool.AssetA, res.AcceptedA),
		AmountB:       types.NewAssetAmount(pool.AssetB, res.AcceptedB),
		Shares:        res.Shares,
		BalanceShares: pos.Shares,
		CorrelationID: s.correlationID,
		Timestamp:     sdkCtx.BlockTime().UTC(),
	}); err != nil {
		return DepositResult{}, err
	}

	sdkCtx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeAddLiquidity,
		sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(poolID, 10)),
		sdk.NewAttribute(types.AttributeKeyProvider, provider),
		sdk.NewAttribute(types.AttributeKeyAmountA, res.AcceptedA.String()),
		sdk.NewAttribute(types.AttributeKeyAmountB, res.AcceptedB.String()),
		sdk.NewAttribute(types.AttributeKeyRefundA, res.RefundA.String()),
		sdk.NewAttribute(types.AttributeKeyRefundB, res.RefundB.String()),
		sdk.NewAttribute(types.AttributeKeyShares, res.Shares.String()),
	))
	k.observeLiquidity(poolID, types.LiquidityDeposit)

	k.Logger(ctx).Info("liquidity added",
		"pool_id", poolID,
		"provider", provider,
		"shares", res.Shares.String(),
	)

	return res, nil
}

// RemoveLiquidity redeems shares of provider's position for both reserves.
func (k Keeper) RemoveLiquidity(ctx context.Context, provider string, poolID uint64, shares math.Int) (WithdrawResult, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	correlationID, err := k.CorrelationID(ctx)
	if err != nil {
		return WithdrawResult{}, err
	}
	if shares.IsNil() || !shares.IsPositive() {
		return WithdrawResult{}, types.ErrInvalidAmount.Wrap("shares must be positive")
	}

	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return WithdrawResult{}, err
	}
	pos, found, err := k.GetPosition(ctx, poolID, provider)
	if err != nil {
		return WithdrawResult{}, err
	}
	if !found {
		return WithdrawResult{}, types.ErrPositionNotFound.Wrapf("%s in pool %d", provider, poolID)
	}
	if pos.Shares.LT(shares) {
		return WithdrawResult{}, types.ErrInsufficientShares.Wrapf("have %s, want %s", pos.Shares, shares)
	}

	var res WithdrawResult
	if res.AmountA, err = types.ProportionalShare(shares, pool.ReserveA, pool.TotalShares); err != nil {
		return WithdrawResult{}, err
	}
	if res.AmountB, err = types.ProportionalShare(shares, pool.ReserveB, pool.TotalShares); err != nil {
		return WithdrawResult{}, err
	}
	if !res.AmountA.IsPositive() || !res.AmountB.IsPositive() {
		return WithdrawResult{}, types.ErrZeroRedemption.Wrapf("%s shares redeem %s / %s", shares, res.AmountA, res.AmountB)
	}

	pos.Shares = pos.Shares.Sub(shares)
	pos.ContributedA = saturatingSub(pos.ContributedA, res.AmountA)
	pos.ContributedB = saturatingSub(pos.ContributedB, res.AmountB)
	if err := k.SetPosition(ctx, pos); err != nil {
		return WithdrawResult{}, err
	}

	pool.ReserveA = pool.ReserveA.Sub(res.AmountA)
	pool.ReserveB = pool.ReserveB.Sub(res.AmountB)
	pool.TotalShares = pool.TotalShares.Sub(shares)
	if err := pool.RefreshPrices(); err != nil {
		return WithdrawResult{}, err
	}
	if err := k.SetPool(ctx, pool); err != nil {
		return WithdrawResult{}, err
	}

	if err := k.enqueue(ctx,
		types.NewTransferEffect(provider, types.NewAssetAmount(pool.AssetA, res.AmountA), "withdraw"),
		types.NewTransferEffect(provider, types.NewAssetAmount(pool.AssetB, res.AmountB), "withdraw"),
	); err != nil {
		return WithdrawResult{}, err
	}

	params := k.GetParams(ctx)
	if _, err := k.appendLiquidityAudit(ctx, params.LiquidityLogCap, types.LiquidityAuditEntry{
		Kind:          types.LiquidityWithdraw,
		Provider:      provider,
		PoolID:        poolID,
		AmountA:       types.NewAssetAmount(pool.AssetA, res.AmountA),
		AmountB:       types.NewAssetAmount(pool.AssetB, res.AmountB),
		Shares:        shares,
		BalanceShares: pos.Shares,
		CorrelationID: correlationID,
		Timestamp:     sdkCtx.BlockTime().UTC(),
	}); err != nil {
		return WithdrawResult{}, err
	}

	sdkCtx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeRemoveLiquidity,
		sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(poolID, 10)),
		sdk.NewAttribute(types.AttributeKeyProvider, provider),
		sdk.NewAttribute(types.AttributeKeyAmountA, res.AmountA.String()),
		sdk.NewAttribute(types.AttributeKeyAmountB, res.AmountB.String()),
		sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
	))
	k.observeLiquidity(poolID, types.LiquidityWithdraw)

	return res, nil
}

func saturatingSub(a, b math.Int) math.Int {
	if a.LT(b) {
		return math.ZeroInt()
	}
	return a.Sub(b)
}

func (k Keeper) observeLiquidity(poolID uint64, kind string) {
	if k.metrics != nil {
		k.metrics.LiquidityEvents.WithLabelValues(strconv.FormatUint(poolID, 10), kind).Inc()
	}
}
