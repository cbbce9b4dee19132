package keeper

import (
	"context"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// appendLog stores the entry built for the next id of a ring log and prunes
// every entry older than the newest capacity entries.
func (k Keeper) appendLog(ctx context.Context, prefix []byte, capacity uint64, build func(id uint64) interface{}) (uint64, error) {
	store := k.getStore(ctx)

	counterKey := types.LogCounterKey(prefix)
	var last uint64
	if bz := store.Get(counterKey); bz != nil {
		last = sdk.BigEndianToUint64(bz)
	}
	id := last + 1

	if err := k.set(ctx, types.LogEntryKey(prefix, id), build(id)); err != nil {
		return 0, err
	}
	store.Set(counterKey, sdk.Uint64ToBigEndian(id))

	if capacity > 0 && id > capacity {
		k.pruneLog(ctx, prefix, id-capacity)
	}
	return id, nil
}

// pruneLog deletes entries with id <= upTo.
func (k Keeper) pruneLog(ctx context.Context, prefix []byte, upTo uint64) {
	store := k.getStore(ctx)
	iterator := store.Iterator(types.LogEntryKey(prefix, 0), types.LogEntryKey(prefix, upTo+1))
	var stale [][]byte
	for ; iterator.Valid(); iterator.Next() {
		stale = append(stale, append([]byte{}, iterator.Key()...))
	}
	iterator.Close()

	for _, key := range stale {
		store.Delete(key)
	}
}

// logLen returns how many entries a ring log holds.
func (k Keeper) logLen(ctx context.Context, prefix []byte) uint64 {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), prefix)
	defer iterator.Close()

	var n uint64
	for ; iterator.Valid(); iterator.Next() {
		n++
	}
	return n
}

// readLog decodes every entry of a ring log with id > after, oldest first.
func readLog[T any](k Keeper, ctx context.Context, prefix []byte, after uint64) ([]T, error) {
	store := k.getStore(ctx)
	iterator := store.Iterator(types.LogEntryKey(prefix, after+1), storetypes.PrefixEndBytes(prefix))
	defer iterator.Close()

	entries := []T{}
	for ; iterator.Valid(); iterator.Next() {
		var entry T
		if err := k.cdc.Unmarshal(iterator.Value(), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (k Keeper) appendSwapAudit(ctx context.Context, capacity uint64, entry types.SwapAuditEntry) (uint64, error) {
	return k.appendLog(ctx, types.SwapLogKeyPrefix, capacity, func(id uint64) interface{} {
		entry.ID = id
		return entry
	})
}

func (k Keeper) appendLiquidityAudit(ctx context.Context, capacity uint64, entry types.LiquidityAuditEntry) (uint64, error) {
	return k.appendLog(ctx, types.LiquidityLogKeyPrefix, capacity, func(id uint64) interface{} {
		entry.ID = id
		return entry
	})
}

func (k Keeper) appendDelegationRecord(ctx context.Context, capacity uint64, record types.DelegationRecord) (uint64, error) {
	return k.appendLog(ctx, types.DelegationLogKeyPrefix, capacity, func(id uint64) interface{} {
		record.ID = id
		return record
	})
}

// SwapLog returns swap audit entries with id > after.
func (k Keeper) SwapLog(ctx context.Context, after uint64) ([]types.SwapAuditEntry, error) {
	return readLog[types.SwapAuditEntry](k, ctx, types.SwapLogKeyPrefix, after)
}

// LiquidityLog returns liquidity audit entries with id > after.
func (k Keeper) LiquidityLog(ctx context.Context, after uint64) ([]types.LiquidityAuditEntry, error) {
	return readLog[types.LiquidityAuditEntry](k, ctx, types.LiquidityLogKeyPrefix, after)
}

// DelegationLog returns archived delegations with id > after.
func (k Keeper) DelegationLog(ctx context.Context, after uint64) ([]types.DelegationRecord, error) {
	return readLog[types.DelegationRecord](k, ctx, types.DelegationLogKeyPrefix, after)
}
