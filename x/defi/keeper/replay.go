package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// checkReplay rejects a transaction whose correlation id was already
// committed.
func (k Keeper) checkReplay(ctx context.Context, correlationID string) error {
	bz := k.getStore(ctx).Get(types.SettledTxKey(correlationID))
	if bz == nil {
		return nil
	}
	return types.ErrTxReplayed.Wrapf("%s committed at height %d", correlationID, sdk.BigEndianToUint64(bz))
}

// markSettled records correlationID with the current block height.
func (k Keeper) markSettled(ctx context.Context, correlationID string) {
	height := uint64(sdk.UnwrapSDKContext(ctx).BlockHeight())
	k.getStore(ctx).Set(types.SettledTxKey(correlationID), sdk.Uint64ToBigEndian(height))
}

// IsSettled reports whether a transaction with correlationID was committed.
func (k Keeper) IsSettled(ctx context.Context, correlationID string) bool {
	return k.getStore(ctx).Has(types.SettledTxKey(correlationID))
}
