package keeper

import (
	"context"
	"encoding/binary"
	"math/big"
	"strconv"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// GetNextPoolID returns the next pool ID and increments the counter
func (k Keeper) GetNextPoolID(ctx context.Context) uint64 {
	store := k.getStore(ctx)
	bz := store.Get(types.PoolCountKey)

	poolID := uint64(1)
	if bz != nil {
		poolID = binary.BigEndian.Uint64(bz)
	}

	k.SetNextPoolID(ctx, poolID+1)
	return poolID
}

// PeekNextPoolID returns the id the next pool will get.
func (k Keeper) PeekNextPoolID(ctx context.Context) uint64 {
	bz := k.getStore(ctx).Get(types.PoolCountKey)
	if bz == nil {
		return 1
	}
	return binary.BigEndian.Uint64(bz)
}

// SetNextPoolID sets the next pool ID counter
func (k Keeper) SetNextPoolID(ctx context.Context, poolID uint64) {
	k.getStore(ctx).Set(types.PoolCountKey, sdk.Uint64ToBigEndian(poolID))
}

// GetPool returns a pool by id.
func (k Keeper) GetPool(ctx context.Context, poolID uint64) (types.Pool, error) {
	var pool types.Pool
	found, err := k.get(ctx, types.PoolKey(poolID), &pool)
	if err != nil {
		return types.Pool{}, err
	}
	if !found {
		return types.Pool{}, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	return pool, nil
}

// SetPool stores a pool.
func (k Keeper) SetPool(ctx context.Context, pool types.Pool) error {
	if err := k.set(ctx, types.PoolKey(pool.ID), pool); err != nil {
		return err
	}
	k.observePool(pool)
	return nil
}

// IteratePools calls cb for every pool in id order until cb returns true.
func (k Keeper) IteratePools(ctx context.Context, cb func(types.Pool) (stop bool, err error)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.PoolKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := k.cdc.Unmarshal(iterator.Value(), &pool); err != nil {
			return err
		}
		stop, err := cb(pool)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}

// GetAllPools returns every pool in id order.
func (k Keeper) GetAllPools(ctx context.Context) ([]types.Pool, error) {
	pools := []types.Pool{}
	err := k.IteratePools(ctx, func(pool types.Pool) (bool, error) {
		pools = append(pools, pool)
		return false, nil
	})
	return pools, err
}

// SetWeight updates a pool's swap or liquidity mining weight.
func (k Keeper) SetWeight(ctx context.Context, authority string, poolID uint64, kind types.WeightKind, weight math.LegacyDec) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	if weight.IsNil() || weight.IsNegative() {
		return types.ErrInvalidWeight.Wrap("weight must be non-negative")
	}

	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return err
	}

	switch kind {
	case types.WeightKindSwap:
		pool.SwapWeight = weight
	case types.WeightKindLiquidity:
		pool.LiquidityWeight = weight
	default:
		return types.ErrInvalidWeight.Wrapf("unknown weight kind %d", uint32(kind))
	}

	if err := k.SetPool(ctx, pool); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeWeightUpdated,
		sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(poolID, 10)),
		sdk.NewAttribute(types.AttributeKeyWeightKind, kind.String()),
		sdk.NewAttribute(types.AttributeKeyWeight, weight.String()),
	))
	return nil
}

func (k Keeper) observePool(pool types.Pool) {
	if k.metrics == nil {
		return
	}
	id := strconv.FormatUint(pool.ID, 10)
	k.metrics.PoolReserves.WithLabelValues(id, "A").Set(toFloat(pool.ReserveA))
	k.metrics.PoolReserves.WithLabelValues(id, "B").Set(toFloat(pool.ReserveB))
}

func toFloat(x math.Int) float64 {
	if x.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(x.BigInt()).Float64()
	return f
}
