package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// GetActiveDelegation returns the active delegation session, if any.
func (k Keeper) GetActiveDelegation(ctx context.Context) (types.DelegationSession, bool, error) {
	var session types.DelegationSession
	found, err := k.get(ctx, types.ActiveDelegationKey, &session)
	return session, found, err
}

func (k Keeper) setActiveDelegation(ctx context.Context, session types.DelegationSession) error {
	return k.set(ctx, types.ActiveDelegationKey, session)
}

func (k Keeper) deleteActiveDelegation(ctx context.Context) {
	k.getStore(ctx).Delete(types.ActiveDelegationKey)
}

// activeSession loads the active session together with its venue strategy.
func (k Keeper) activeSession(ctx context.Context, params types.Params) (types.DelegationSession, types.VenueConfig, Venue, error) {
	session, found, err := k.GetActiveDelegation(ctx)
	if err != nil {
		return session, types.VenueConfig{}, nil, err
	}
	if !found {
		return session, types.VenueConfig{}, nil, types.ErrDelegationNotFound
	}
	cfg, ok := params.Venue(session.Venue)
	if !ok {
		return session, cfg, nil, types.ErrUnknownVenue.Wrapf("active delegation names venue %s", session.Venue)
	}
	venue, err := newVenue(cfg)
	return session, cfg, venue, err
}

// Delegate lends amountA and amountB of the peg pool's reserves to venue.
func (k Keeper) Delegate(ctx context.Context, authority string, poolID uint64, venueName string, venuePool uint64, amountA, amountB math.Int) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	params := k.GetParams(ctx)

	if _, found, err := k.GetActiveDelegation(ctx); err != nil {
		return err
	} else if found {
		return types.ErrDelegationAlreadyActive
	}
	if params.PegPoolID == 0 || poolID != params.PegPoolID {
		return types.ErrNotPegPool.Wrapf("pool %d, peg pool %d", poolID, params.PegPoolID)
	}
	cfg, ok := params.Venue(venueName)
	if !ok {
		return types.ErrUnknownVenue.Wrap(venueName)
	}
	venue, err := newVenue(cfg)
	if err != nil {
		return err
	}

	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	if amountA.IsNil() || amountB.IsNil() || !amountA.IsPositive() || !amountB.IsPositive() {
		return types.ErrInvalidAmount.Wrap("both delegated amounts must be positive")
	}
	if amountA.GT(pool.ReserveA) || amountB.GT(pool.ReserveB) {
		return types.ErrInsufficientPoolReserves.Wrapf(
			"lend %s / %s from reserves %s / %s", amountA, amountB, pool.ReserveA, pool.ReserveB,
		)
	}

	session := types.DelegationSession{
		PoolID:    poolID,
		Venue:     cfg.Name,
		VenuePool: venuePool,
		LentA:     types.NewAssetAmount(pool.AssetA, amountA),
		LentB:     types.NewAssetAmount(pool.AssetB, amountB),
		ReturnedA: types.ZeroAssetAmount(pool.AssetA),
		ReturnedB: types.ZeroAssetAmount(pool.AssetB),
		Profit:    types.AssetAmount{Amount: math.ZeroInt()},
		LPShares:  types.AssetAmount{Amount: math.ZeroInt()},
		Status:    types.DelegationLent,
		StartedAt: sdkCtx.BlockTime().UTC(),
	}
	if err := k.setActiveDelegation(ctx, session); err != nil {
		return err
	}
	if err := k.enqueue(ctx, venue.Activate(k.GetModuleAddress().String(), session)...); err != nil {
		return err
	}

	sdkCtx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeDelegationStart,
		sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(poolID, 10)),
		sdk.NewAttribute(types.AttributeKeyVenue, cfg.Name),
		sdk.NewAttribute(types.AttributeKeyAmountA, session.LentA.String()),
		sdk.NewAttribute(types.AttributeKeyAmountB, session.LentB.String()),
	))
	k.observeDelegation(cfg.Name, session.Status)
	k.Logger(ctx).Info("delegation started",
		"venue", cfg.Name,
		"venue_pool", venuePool,
		"lent_a", session.LentA.String(),
		"lent_b", session.LentB.String(),
	)
	return nil
}

// ExitDelegation asks the venue to return the lent reserves.
func (k Keeper) ExitDelegation(ctx context.Context, authority, memo string, amount math.Int) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	params := k.GetParams(ctx)
	session, cfg, venue, err := k.activeSession(ctx, params)
	if err != nil {
		return err
	}
	if session.Status != types.DelegationLent && session.Status != types.DelegationPartialBack {
		return types.ErrInvalidDelegationStatus.Wrapf("cannot exit in status %s", session.Status)
	}

	effects, err := venue.Exit(k.GetModuleAddress().String(), &session, memo, amount)
	if err != nil {
		return err
	}
	if err := k.setActiveDelegation(ctx, session); err != nil {
		return err
	}
	if err := k.enqueue(ctx, effects...); err != nil {
		return err
	}
	k.emitDelegationUpdate(ctx, cfg.Name, session, "exit")
	return nil
}

// ClaimDelegation collects the venue profit of a fully returned delegation.
func (k Keeper) ClaimDelegation(ctx context.Context, authority string) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	params := k.GetParams(ctx)
	session, cfg, venue, err := k.activeSession(ctx, params)
	if err != nil {
		return err
	}
	if session.Status != types.DelegationFullyBack {
		return types.ErrInvalidDelegationStatus.Wrapf("cannot claim in status %s", session.Status)
	}
	if !session.Profit.IsPositive() {
		return types.ErrInvalidDelegationStatus.Wrap("no profit recorded")
	}

	effects, err := venue.Claim(k.GetModuleAddress().String())
	if err != nil {
		return err
	}
	session.Status = types.DelegationClaimed
	if err := k.setActiveDelegation(ctx, session); err != nil {
		return err
	}
	if err := k.enqueue(ctx, effects...); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeDelegationClaim,
		sdk.NewAttribute(types.AttributeKeyVenue, cfg.Name),
		sdk.NewAttribute(types.AttributeKeyAmount, session.Profit.String()),
	))
	k.observeDelegation(cfg.Name, session.Status)
	return nil
}

// SettleDelegation reconciles the active delegation and archives it. Every
// side still short must be covered by a marketsettle transfer placed earlier
// in the same transaction.
func (k Keeper) SettleDelegation(ctx context.Context, authority string) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	s, err := settlementFrom(ctx)
	if err != nil {
		return err
	}
	params := k.GetParams(ctx)
	session, found, err := k.GetActiveDelegation(ctx)
	if err != nil {
		return err
	}
	if !found {
		return types.ErrDelegationNotFound
	}

	if err := checkSettlementTransfers(s, session); err != nil {
		return err
	}

	surplus := []types.Effect{
		types.NewTransferEffect(authority, types.NewAssetAmount(session.LentA.Asset, session.Surplus(types.SideA)), "market"),
		types.NewTransferEffect(authority, types.NewAssetAmount(session.LentB.Asset, session.Surplus(types.SideB)), "market"),
	}
	if err := k.enqueue(ctx, surplus...); err != nil {
		return err
	}

	record := types.DelegationRecord{Session: session, EndedAt: sdkCtx.BlockTime().UTC()}
	id, err := k.appendDelegationRecord(ctx, params.DelegationLogCap, record)
	if err != nil {
		return err
	}
	k.deleteActiveDelegation(ctx)

	sdkCtx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeDelegationSettle,
		sdk.NewAttribute(types.AttributeKeyVenue, session.Venue),
		sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(session.PoolID, 10)),
		sdk.NewAttribute(types.AttributeKeyRefundA, session.Shortfall(types.SideA).String()),
		sdk.NewAttribute(types.AttributeKeyRefundB, session.Shortfall(types.SideB).String()),
		sdk.NewAttribute(types.AttributeKeyCorrelationID, s.correlationID),
	))
	if k.metrics != nil {
		k.metrics.DelegationTransitions.WithLabelValues(session.Venue, "settled").Inc()
	}
	k.Logger(ctx).Info("delegation settled",
		"venue", session.Venue,
		"record_id", id,
		"status", session.Status.String(),
	)
	return nil
}

// checkSettlementTransfers verifies that the transaction carries exactly the
// corrective transfers that cover session's shortfall, ahead of the settle
// msg, and nothing else.
func checkSettlementTransfers(s *settlement, session types.DelegationSession) error {
	due := make(map[types.Side]math.Int, 2)
	for _, side := range []types.Side{types.SideA, types.SideB} {
		if short := session.Shortfall(side); short.IsPositive() {
			due[side] = short
		}
	}

	var transfers []*types.MsgTransfer
	for i, msg := range s.tx.Msgs {
		if i == s.msgIndex {
			continue
		}
		t, ok := msg.(*types.MsgTransfer)
		if !ok || i > s.msgIndex || t.Memo != types.MemoActionMarketSettle {
			return types.ErrSettlementIncomplete.Wrapf("msg %d is not a preceding %s transfer", i, types.MemoActionMarketSettle)
		}
		transfers = append(transfers, t)
	}
	if len(transfers) != len(due) {
		return types.ErrSettlementIncomplete.Wrapf("%d corrective transfers for %d short sides", len(transfers), len(due))
	}

	for _, t := range transfers {
		side := session.SideOf(t.Funds.Asset)
		want, ok := due[side]
		if !ok {
			return types.ErrSettlementIncomplete.Wrapf("%s covers no outstanding side", t.Funds)
		}
		if !t.Funds.Amount.Equal(want) {
			return types.ErrSettlementIncomplete.Wrapf("%s side short by %s, got %s", side, want, t.Funds.Amount)
		}
		delete(due, side)
	}
	return nil
}

// handleVenueTransfer applies a transfer received from a venue to the active
// delegation.
func (k Keeper) handleVenueTransfer(ctx context.Context, params types.Params, cfg types.VenueConfig, sender string, funds types.AssetAmount, memo string) error {
	venue, err := newVenue(cfg)
	if err != nil {
		return err
	}
	kind := venue.Classify(sender, funds, memo)
	if kind == InboundIgnored {
		return k.enqueue(ctx, types.NewTransferEffect(params.HoldingAccount, funds, memo))
	}

	session, found, err := k.GetActiveDelegation(ctx)
	if err != nil {
		return err
	}
	if !found {
		return types.ErrDelegationNotFound.Wrapf("%s transfer from %s", kind, sender)
	}
	if session.Venue != cfg.Name {
		return types.ErrUnauthorized.Wrapf("transfer from venue %s, active venue %s", cfg.Name, session.Venue)
	}

	switch kind {
	case InboundRefund:
		side := session.SideOf(funds.Asset)
		if side == types.SideNone {
			return types.ErrSideMismatch.Wrapf("refund in %s", funds.Asset)
		}
		lent := session.Lent(side)
		if funds.Amount.GT(lent.Amount) {
			return types.ErrInvalidAmount.Wrapf("refund %s above lent %s", funds, lent)
		}
		lent.Amount = lent.Amount.Sub(funds.Amount)
		if side == types.SideA {
			session.LentA = lent
		} else {
			session.LentB = lent
		}
		if session.Status != types.DelegationClaimed {
			session.Status = types.DelegationPartialBack
		}

	case InboundWithdraw:
		side := session.SideOf(funds.Asset)
		if side == types.SideNone {
			return types.ErrSideMismatch.Wrapf("withdrawal in %s", funds.Asset)
		}
		returned := session.Returned(side)
		total, err := types.SafeAdd(returned.Amount, funds.Amount)
		if err != nil {
			return err
		}
		if side == types.SideA {
			session.ReturnedA.Amount = total
		} else {
			session.ReturnedB.Amount = total
		}
		if session.Status != types.DelegationClaimed {
			if session.AllReturned() {
				session.Status = types.DelegationFullyBack
			} else {
				session.Status = types.DelegationPartialBack
			}
		}

	case InboundLPIssue:
		session.LPShares = funds

	case InboundProfit:
		if session.Profit.IsPositive() && !session.Profit.Asset.Equal(funds.Asset) {
			return types.ErrTokenMismatch.Wrapf("profit in %s, earlier profit in %s", funds.Asset, session.Profit.Asset)
		}
		profit, err := types.SafeAdd(session.Profit.Amount, funds.Amount)
		if err != nil {
			return err
		}
		session.Profit = types.NewAssetAmount(funds.Asset, profit)
		if err := k.enqueue(ctx, types.NewTransferEffect(cfg.ProfitRecipient, funds, "market mine reward")); err != nil {
			return err
		}
	}

	if err := k.setActiveDelegation(ctx, session); err != nil {
		return err
	}
	k.emitDelegationUpdate(ctx, cfg.Name, session, kind.String())
	return nil
}

func (k Keeper) emitDelegationUpdate(ctx context.Context, venue string, session types.DelegationSession, action string) {
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeDelegationUpdate,
		sdk.NewAttribute(types.AttributeKeyVenue, venue),
		sdk.NewAttribute(types.AttributeKeyMemo, action),
		sdk.NewAttribute(types.AttributeKeyStatus, session.Status.String()),
	))
	k.observeDelegation(venue, session.Status)
}

func (k Keeper) observeDelegation(venue string, status types.DelegationStatus) {
	if k.metrics != nil {
		k.metrics.DelegationTransitions.WithLabelValues(venue, status.String()).Inc()
	}
}
