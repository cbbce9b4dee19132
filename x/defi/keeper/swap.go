package keeper

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// hopResult is the outcome of one hop applied to a pool copy.
type hopResult struct {
	in          types.AssetAmount
	out         types.AssetAmount
	fundFee     math.Int
	dividendFee math.Int
	price       math.LegacyDec
}

// applyHop runs one hop of a swap against pool, mutating only the given copy.
// Protocol fees come off the hop input first; the remainder trades against
// the reserves under the constant-product rule.
func applyHop(params types.Params, pool *types.Pool, in types.AssetAmount, maxSlippageBps uint32) (hopResult, error) {
	sideIn := pool.SideOf(in.Asset)
	if sideIn == types.SideNone {
		return hopResult{}, types.ErrTokenMismatch.Wrapf("%s is not traded in pool %d", in.Asset, pool.ID)
	}
	if pool.IsEmpty() {
		return hopResult{}, types.ErrEmptyPool.Wrapf("pool %d", pool.ID)
	}
	sideOut := sideIn.Opposite()

	fundFee := types.FeeAmount(in.Amount, params.FundFee)
	dividendFee := types.FeeAmount(in.Amount, params.DividendFee)
	net := in.Amount.Sub(fundFee).Sub(dividendFee)

	quoted := pool.PriceOf(sideIn)
	reserveIn, reserveOut := pool.Reserve(sideIn), pool.Reserve(sideOut)

	out, err := types.ConstantProductOutput(net, reserveIn, reserveOut, params.SwapFee)
	if err != nil {
		return hopResult{}, err
	}
	if out.IsZero() {
		return hopResult{}, types.ErrZeroAmount.Wrapf("%s into pool %d yields nothing", in, pool.ID)
	}

	newReserveIn, err := types.SafeAdd(reserveIn, net)
	if err != nil {
		return hopResult{}, err
	}
	pool.SetReserve(sideIn, newReserveIn)
	pool.SetReserve(sideOut, reserveOut.Sub(out))
	if err := pool.RefreshPrices(); err != nil {
		return hopResult{}, err
	}

	realized, err := types.SpotPrice(in.Amount, out, pool.Precision(sideIn), pool.Precision(sideOut))
	if err != nil {
		return hopResult{}, err
	}
	if floor := types.SlippageFloor(quoted, maxSlippageBps); realized.LT(floor) {
		return hopResult{}, types.ErrSlippageExceeded.Wrapf(
			"pool %d: realized price %s below %s (quoted %s, bound %d bps)",
			pool.ID, realized, floor, quoted, maxSlippageBps,
		)
	}

	return hopResult{
		in:          in,
		out:         types.NewAssetAmount(pool.Asset(sideOut), out),
		fundFee:     fundFee,
		dividendFee: dividendFee,
		price:       realized,
	}, nil
}

func validateRoute(params types.Params, route []uint64, maxSlippageBps uint32) error {
	if len(route) == 0 {
		return types.ErrInvalidRoute.Wrap("route is empty")
	}
	if uint32(len(route)) > params.MaxRouteHops {
		return types.ErrInvalidRoute.Wrapf("route has %d hops, max %d", len(route), params.MaxRouteHops)
	}
	if maxSlippageBps > types.BasisPointsDenominator {
		return types.ErrInvalidSlippage.Wrapf("%d bps above %d", maxSlippageBps, types.BasisPointsDenominator)
	}
	return nil
}

// Swap trades input through every pool of route in order and delivers the
// final output to trader. Each hop charges the protocol fees on its own
// input and must respect maxSlippageBps against that pool's pre-trade price.
func (k Keeper) Swap(ctx context.Context, trader string, input types.AssetAmount, route []uint64, maxSlippageBps uint32, clientRef uint64) (types.AssetAmount, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	params := k.GetParams(ctx)

	if err := validateRoute(params, route, maxSlippageBps); err != nil {
		return types.AssetAmount{}, err
	}
	if !input.IsPositive() {
		return types.AssetAmount{}, types.ErrZeroAmount.Wrap("swap input must be positive")
	}
	correlationID, err := k.CorrelationID(ctx)
	if err != nil {
		return types.AssetAmount{}, err
	}

	var (
		current   = input
		firstPool types.Pool
	)
	for i, poolID := range route {
		pool, err := k.GetPool(ctx, poolID)
		if err != nil {
			return types.AssetAmount{}, err
		}
		if i == 0 {
			firstPool = pool
		}

		hop, err := applyHop(params, &pool, current, maxSlippageBps)
		if err != nil {
			if k.metrics != nil && errors.Is(err, types.ErrSlippageExceeded) {
				k.metrics.SwapSlippage.WithLabelValues(strconv.FormatUint(poolID, 10)).Inc()
			}
			return types.AssetAmount{}, err
		}
		if err := k.SetPool(ctx, pool); err != nil {
			return types.AssetAmount{}, err
		}

		if err := k.enqueue(ctx,
			types.NewTransferEffect(params.FundCollector, types.NewAssetAmount(current.Asset, hop.fundFee), "swap fund fee"),
			types.NewTransferEffect(params.DividendCollector, types.NewAssetAmount(current.Asset, hop.dividendFee), "swap dividend fee"),
		); err != nil {
			return types.AssetAmount{}, err
		}

		if _, err := k.appendSwapAudit(ctx, params.SwapLogCap, types.SwapAuditEntry{
			ClientRef:     clientRef,
			Trader:        trader,
			PoolID:        poolID,
			Hop:           uint32(i),
			In:            hop.in,
			Out:           hop.out,
			ProtocolFee:   hop.fundFee.Add(hop.dividendFee),
			Price:         hop.price,
			CorrelationID: correlationID,
			Timestamp:     sdkCtx.BlockTime().UTC(),
		}); err != nil {
			return types.AssetAmount{}, err
		}

		sdkCtx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeSwapHop,
			sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(poolID, 10)),
			sdk.NewAttribute(types.AttributeKeyHop, strconv.Itoa(i)),
			sdk.NewAttribute(types.AttributeKeyAmountIn, hop.in.String()),
			sdk.NewAttribute(types.AttributeKeyAmountOut, hop.out.String()),
			sdk.NewAttribute(types.AttributeKeyFee, hop.fundFee.Add(hop.dividendFee).String()),
			sdk.NewAttribute(types.AttributeKeyPrice, hop.price.String()),
		))
		k.observeHop(poolID, hop, params)

		current = hop.out
	}

	if err := k.enqueue(ctx, types.NewTransferEffect(trader, current, "swap")); err != nil {
		return types.AssetAmount{}, err
	}

	sdkCtx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeSwap,
		sdk.NewAttribute(types.AttributeKeyTrader, trader),
		sdk.NewAttribute(types.AttributeKeyRoute, formatRoute(route)),
		sdk.NewAttribute(types.AttributeKeyAmountIn, input.String()),
		sdk.NewAttribute(types.AttributeKeyAmountOut, current.String()),
		sdk.NewAttribute(types.AttributeKeyClientRef, strconv.FormatUint(clientRef, 10)),
		sdk.NewAttribute(types.AttributeKeyCorrelationID, correlationID),
	))

	if err := k.issueSwapReward(ctx, params, firstPool, trader, input); err != nil {
		return types.AssetAmount{}, err
	}

	return current, nil
}

// QuoteSwap returns what Swap would deliver right now, without touching state.
func (k Keeper) QuoteSwap(ctx context.Context, input types.AssetAmount, route []uint64, maxSlippageBps uint32) (types.AssetAmount, error) {
	params := k.GetParams(ctx)
	if err := validateRoute(params, route, maxSlippageBps); err != nil {
		return types.AssetAmount{}, err
	}

	touched := make(map[uint64]*types.Pool, len(route))
	current := input
	for _, poolID := range route {
		pool, ok := touched[poolID]
		if !ok {
			p, err := k.GetPool(ctx, poolID)
			if err != nil {
				return types.AssetAmount{}, err
			}
			pool = &p
			touched[poolID] = pool
		}
		hop, err := applyHop(params, pool, current, maxSlippageBps)
		if err != nil {
			return types.AssetAmount{}, err
		}
		current = hop.out
	}
	return current, nil
}

func formatRoute(route []uint64) string {
	ids := make([]string, len(route))
	for i, id := range route {
		ids[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(ids, "-")
}

func (k Keeper) observeHop(poolID uint64, hop hopResult, params types.Params) {
	if k.metrics == nil {
		return
	}
	id := strconv.FormatUint(poolID, 10)
	denom := hop.in.Asset.Denom()
	k.metrics.SwapHops.WithLabelValues(id).Inc()
	k.metrics.SwapVolume.WithLabelValues(id, denom).Add(toFloat(hop.in.Amount))
	k.metrics.ProtocolFees.WithLabelValues(params.FundCollector, denom).Add(toFloat(hop.fundFee))
	k.metrics.ProtocolFees.WithLabelValues(params.DividendCollector, denom).Add(toFloat(hop.dividendFee))
}
