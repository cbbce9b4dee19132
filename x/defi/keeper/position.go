package keeper

import (
	"context"

	storetypes "cosmossdk.io/store/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// GetPosition returns a provider's position in a pool.
func (k Keeper) GetPosition(ctx context.Context, poolID uint64, owner string) (types.Position, bool, error) {
	var pos types.Position
	found, err := k.get(ctx, types.PositionKey(poolID, owner), &pos)
	return pos, found, err
}

// SetPosition stores a position, deleting it once its shares reach zero.
func (k Keeper) SetPosition(ctx context.Context, pos types.Position) error {
	if pos.Shares.IsZero() {
		k.getStore(ctx).Delete(types.PositionKey(pos.PoolID, pos.Owner))
		return nil
	}
	if pos.Shares.IsNegative() {
		return types.ErrInvariantBroken.Wrapf("position %d/%s: negative shares %s", pos.PoolID, pos.Owner, pos.Shares)
	}
	return k.set(ctx, types.PositionKey(pos.PoolID, pos.Owner), pos)
}

// IteratePositions calls cb for every position of a pool until cb returns true.
func (k Keeper) IteratePositions(ctx context.Context, poolID uint64, cb func(types.Position) (stop bool)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.PositionPoolPrefix(poolID))
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var pos types.Position
		if err := k.cdc.Unmarshal(iterator.Value(), &pos); err != nil {
			return err
		}
		if cb(pos) {
			break
		}
	}
	return nil
}

// GetPoolPositions returns every position of a pool.
func (k Keeper) GetPoolPositions(ctx context.Context, poolID uint64) ([]types.Position, error) {
	positions := []types.Position{}
	err := k.IteratePositions(ctx, poolID, func(pos types.Position) bool {
		positions = append(positions, pos)
		return false
	})
	return positions, err
}

// GetAllPositions returns every position of every pool.
func (k Keeper) GetAllPositions(ctx context.Context) ([]types.Position, error) {
	positions := []types.Position{}
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.PositionKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var pos types.Position
		if err := k.cdc.Unmarshal(iterator.Value(), &pos); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, nil
}
