package keeper

import (
	"context"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// RegisterPair creates an empty pool for a new asset pair.
// The native asset, when present, always ends up in slot B.
func (k Keeper) RegisterPair(ctx context.Context, creator string, assetA, assetB types.AssetRef) (types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	// 1. Input validation
	if assetA.Equal(assetB) {
		return types.Pool{}, types.ErrSameAsset.Wrapf("%s", assetA)
	}
	params := k.GetParams(ctx)
	precA, err := k.assetPrecision(ctx, params, assetA)
	if err != nil {
		return types.Pool{}, err
	}
	precB, err := k.assetPrecision(ctx, params, assetB)
	if err != nil {
		return types.Pool{}, err
	}

	// 2. Canonical slot order
	if assetA.Equal(params.NativeAsset) {
		assetA, assetB = assetB, assetA
		precA, precB = precB, precA
	}

	// 3. Duplicate check on the order-independent digest
	digest := types.NewPairDigest(assetA, assetB)
	store := k.getStore(ctx)
	if store.Has(types.PairDigestKey(digest)) {
		return types.Pool{}, types.ErrDuplicatePair.Wrapf("%s / %s", assetA, assetB)
	}

	// 4. Pool row, digest mapping and secondary index
	pool := types.NewPool(k.GetNextPoolID(ctx), assetA, assetB, precA, precB, sdkCtx.BlockTime())
	if err := k.SetPool(ctx, pool); err != nil {
		return types.Pool{}, err
	}
	k.setPairDigest(ctx, digest, pool.ID)

	sdkCtx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypePairRegistered,
		sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(pool.ID, 10)),
		sdk.NewAttribute(types.AttributeKeyAssetA, assetA.String()),
		sdk.NewAttribute(types.AttributeKeyAssetB, assetB.String()),
		sdk.NewAttribute(types.AttributeKeyDigest, digest.String()),
		sdk.NewAttribute(types.AttributeKeySender, creator),
	))
	if k.metrics != nil {
		k.metrics.PoolsTotal.Inc()
	}
	k.Logger(ctx).Info("pair registered",
		"pool_id", pool.ID,
		"asset_a", assetA.String(),
		"asset_b", assetB.String(),
		"creator", creator,
	)

	return pool, nil
}

// assetPrecision returns the decimal precision of a recognized asset. An
// asset is recognized when the bank has metadata for its denom and its issuer
// is not blocked.
func (k Keeper) assetPrecision(ctx context.Context, params types.Params, asset types.AssetRef) (uint32, error) {
	if err := asset.Validate(); err != nil {
		return 0, err
	}
	if params.IsBlockedIssuer(asset.Issuer) {
		return 0, types.ErrUnknownAsset.Wrapf("issuer %s is blocked", asset.Issuer)
	}
	md, found := k.bankKeeper.GetDenomMetaData(ctx, asset.Denom())
	if !found {
		return 0, types.ErrUnknownAsset.Wrapf("%s", asset)
	}

	var (
		exp       uint32
		displayed bool
	)
	for _, unit := range md.DenomUnits {
		if unit == nil {
			continue
		}
		if unit.Denom == md.Display {
			exp, displayed = unit.Exponent, true
			break
		}
		if unit.Exponent > exp {
			exp = unit.Exponent
		}
	}
	if !displayed && md.Display != "" && md.Display != md.Base {
		return 0, types.ErrUnknownAsset.Wrapf("%s: display unit %s not listed", asset, md.Display)
	}
	if exp > types.MaxPrecision {
		return 0, types.ErrUnknownAsset.Wrapf("%s: precision %d above %d", asset, exp, types.MaxPrecision)
	}
	return exp, nil
}

func (k Keeper) setPairDigest(ctx context.Context, digest types.PairDigest, poolID uint64) {
	store := k.getStore(ctx)
	store.Set(types.PairDigestKey(digest), sdk.Uint64ToBigEndian(poolID))
	store.Set(types.PoolDigestKey(poolID), digest[:])
}

// GetPoolIDByPair returns the pool registered for the pair, in either order.
func (k Keeper) GetPoolIDByPair(ctx context.Context, a, b types.AssetRef) (uint64, bool) {
	bz := k.getStore(ctx).Get(types.PairDigestKey(types.NewPairDigest(a, b)))
	if bz == nil {
		return 0, false
	}
	return sdk.BigEndianToUint64(bz), true
}

// GetPairDigest returns the digest registered for a pool.
func (k Keeper) GetPairDigest(ctx context.Context, poolID uint64) (types.PairDigest, bool) {
	var digest types.PairDigest
	bz := k.getStore(ctx).Get(types.PoolDigestKey(poolID))
	if len(bz) != len(digest) {
		return digest, false
	}
	copy(digest[:], bz)
	return digest, true
}

// GetAllPairs returns every digest mapping.
func (k Keeper) GetAllPairs(ctx context.Context) ([]types.PairRecord, error) {
	pools, err := k.GetAllPools(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make([]types.PairRecord, 0, len(pools))
	for _, pool := range pools {
		digest, found := k.GetPairDigest(ctx, pool.ID)
		if !found {
			return nil, types.ErrInvariantBroken.Wrapf("pool %d has no pair digest", pool.ID)
		}
		pairs = append(pairs, types.PairRecord{Digest: append([]byte{}, digest[:]...), PoolID: pool.ID})
	}
	return pairs, nil
}

// RemovePool deletes an empty pool together with its pair registration.
func (k Keeper) RemovePool(ctx context.Context, authority string, poolID uint64) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	if !pool.TotalShares.IsZero() {
		return types.ErrPoolNotEmpty.Wrapf("pool %d has %s shares", poolID, pool.TotalShares)
	}
	if params := k.GetParams(ctx); params.PegPoolID == poolID {
		if _, active, err := k.GetActiveDelegation(ctx); err != nil {
			return err
		} else if active {
			return types.ErrDelegationAlreadyActive.Wrapf("pool %d is delegated", poolID)
		}
	}

	store := k.getStore(ctx)
	if digest, found := k.GetPairDigest(ctx, poolID); found {
		store.Delete(types.PairDigestKey(digest))
	}
	store.Delete(types.PoolDigestKey(poolID))
	store.Delete(types.PoolKey(poolID))

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypePoolRemoved,
		sdk.NewAttribute(types.AttributeKeyPoolID, strconv.FormatUint(poolID, 10)),
	))
	if k.metrics != nil {
		k.metrics.PoolsTotal.Dec()
	}
	k.Logger(ctx).Info("pool removed", "pool_id", poolID)
	return nil
}
