package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// SwapMiningMethod is the reward issuer method called for swap-mining rewards.
const SwapMiningMethod = "mineswap"

// SwapReward returns the native-asset reward earned by swapping input through
// pool, or zero when no reward applies. Inputs that are not native are valued
// through the registered (native, input) pool's price.
func (k Keeper) SwapReward(ctx context.Context, params types.Params, pool types.Pool, input types.AssetAmount) (math.Int, error) {
	if pool.SwapWeight.IsNil() || !pool.SwapWeight.IsPositive() || !input.IsPositive() {
		return math.ZeroInt(), nil
	}

	native := params.NativeAsset
	var value math.LegacyDec
	if input.Asset.Equal(native) {
		value = math.LegacyNewDecFromInt(input.Amount)
	} else {
		refID, found := k.GetPoolIDByPair(ctx, native, input.Asset)
		if !found {
			return math.ZeroInt(), nil
		}
		ref, err := k.GetPool(ctx, refID)
		if err != nil {
			return math.ZeroInt(), err
		}
		side := ref.SideOf(input.Asset)
		price := ref.PriceOf(side)
		if !price.IsPositive() {
			return math.ZeroInt(), nil
		}
		// raw input -> display input -> display native -> raw native
		scaled, err := types.DecRatio(input.Amount, types.Pow10(ref.Precision(side.Opposite())), types.Pow10(ref.Precision(side)))
		if err != nil {
			return math.ZeroInt(), err
		}
		if value, err = types.SafeMulDec(scaled, price); err != nil {
			return math.ZeroInt(), err
		}
	}

	weighted, err := types.SafeMulDec(value, pool.SwapWeight)
	if err != nil {
		return math.ZeroInt(), err
	}
	reward := weighted.TruncateInt()
	if reward.LT(params.MinSwapReward) {
		return math.ZeroInt(), nil
	}
	return reward, nil
}

// issueSwapReward computes the reward for a completed swap and queues the
// call that issues it.
func (k Keeper) issueSwapReward(ctx context.Context, params types.Params, pool types.Pool, trader string, input types.AssetAmount) error {
	reward, err := k.SwapReward(ctx, params, pool, input)
	if err != nil {
		return err
	}
	if reward.IsZero() {
		if k.metrics != nil {
			k.metrics.SwapRewards.WithLabelValues("none").Inc()
		}
		return nil
	}

	denom := params.NativeAsset.Denom()
	if err := k.enqueue(ctx, types.NewCallEffect(params.RewardTarget, SwapMiningMethod, trader, reward.String(), denom)); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeSwapReward,
		sdk.NewAttribute(types.AttributeKeyTrader, trader),
		sdk.NewAttribute(types.AttributeKeyReward, reward.String()+denom),
	))
	if k.metrics != nil {
		k.metrics.SwapRewards.WithLabelValues("issued").Inc()
	}
	return nil
}
