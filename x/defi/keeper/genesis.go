package keeper

import (
	"context"
	"fmt"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// InitGenesis initializes the defi module's state from a genesis state
func (k Keeper) InitGenesis(ctx context.Context, genState types.GenesisState) error {
	if err := genState.Validate(); err != nil {
		return fmt.Errorf("invalid genesis state: %w", err)
	}

	if err := k.SetParams(ctx, genState.Params); err != nil {
		return fmt.Errorf("failed to set params: %w", err)
	}
	k.SetNextPoolID(ctx, genState.NextPoolID)

	for _, pool := range genState.Pools {
		if err := k.SetPool(ctx, pool); err != nil {
			return fmt.Errorf("failed to set pool %d: %w", pool.ID, err)
		}
	}

	for _, pair := range genState.Pairs {
		var digest types.PairDigest
		copy(digest[:], pair.Digest)
		k.setPairDigest(ctx, digest, pair.PoolID)
	}

	for _, pos := range genState.Positions {
		if err := k.SetPosition(ctx, pos); err != nil {
			return fmt.Errorf("failed to set position %d/%s: %w", pos.PoolID, pos.Owner, err)
		}
	}

	if k.metrics != nil {
		k.metrics.PoolsTotal.Set(float64(len(genState.Pools)))
	}
	return nil
}

// ExportGenesis returns the defi module's exported genesis
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	pools, err := k.GetAllPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export pools: %w", err)
	}
	pairs, err := k.GetAllPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export pairs: %w", err)
	}
	positions, err := k.GetAllPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export positions: %w", err)
	}

	return &types.GenesisState{
		Params:     k.GetParams(ctx),
		NextPoolID: k.PeekNextPoolID(ctx),
		Pools:      pools,
		Pairs:      pairs,
		Positions:  positions,
	}, nil
}
