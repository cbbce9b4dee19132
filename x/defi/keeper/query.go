package keeper

import (
	"context"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// Snapshot is a read-only view of the whole module state.
type Snapshot struct {
	Params           types.Params             `json:"params" yaml:"params"`
	Pools            []types.Pool             `json:"pools" yaml:"pools"`
	Positions        []types.Position         `json:"positions" yaml:"positions"`
	PendingDeposit   *types.PendingDeposit    `json:"pending_deposit,omitempty" yaml:"pending_deposit,omitempty"`
	ActiveDelegation *types.DelegationSession `json:"active_delegation,omitempty" yaml:"active_delegation,omitempty"`
	Delegations      []types.DelegationRecord `json:"delegations" yaml:"delegations"`
}

// PoolByPair returns the pool trading a and b, in either order.
func (k Keeper) PoolByPair(ctx context.Context, a, b types.AssetRef) (types.Pool, error) {
	poolID, found := k.GetPoolIDByPair(ctx, a, b)
	if !found {
		return types.Pool{}, types.ErrPoolNotFound.Wrapf("no pool for %s / %s", a, b)
	}
	return k.GetPool(ctx, poolID)
}

// Shares returns the shares owner holds in a pool, zero when it has no position.
func (k Keeper) Shares(ctx context.Context, poolID uint64, owner string) (types.Position, error) {
	pos, found, err := k.GetPosition(ctx, poolID, owner)
	if err != nil {
		return types.Position{}, err
	}
	if !found {
		return types.Position{}, types.ErrPositionNotFound.Wrapf("%s in pool %d", owner, poolID)
	}
	return pos, nil
}

// Snapshot collects the module state.
func (k Keeper) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	snap.Params = k.GetParams(ctx)
	if snap.Pools, err = k.GetAllPools(ctx); err != nil {
		return snap, err
	}
	if snap.Positions, err = k.GetAllPositions(ctx); err != nil {
		return snap, err
	}
	if snap.Delegations, err = k.DelegationLog(ctx, 0); err != nil {
		return snap, err
	}

	slot, found, err := k.GetPendingDeposit(ctx)
	if err != nil {
		return snap, err
	}
	if found && slot.State != types.DepositConsumed {
		snap.PendingDeposit = &slot
	}

	session, found, err := k.GetActiveDelegation(ctx)
	if err != nil {
		return snap, err
	}
	if found {
		snap.ActiveDelegation = &session
	}
	return snap, nil
}
