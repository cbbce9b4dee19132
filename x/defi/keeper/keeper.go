package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// Keeper of the defi store
type Keeper struct {
	storeKey   storetypes.StoreKey
	cdc        *codec.LegacyAmino
	bankKeeper types.BankKeeper
	router     types.CallRouter
	authority  string
	metrics    *DefiMetrics
}

// NewKeeper creates a new defi Keeper instance. authority is the operations
// identity allowed to run privileged msgs.
func NewKeeper(
	cdc *codec.LegacyAmino,
	key storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	router types.CallRouter,
	authority string,
) *Keeper {
	if _, err := sdk.AccAddressFromBech32(authority); err != nil {
		panic(fmt.Errorf("invalid defi authority address: %w", err))
	}

	return &Keeper{
		storeKey:   key,
		cdc:        cdc,
		bankKeeper: bankKeeper,
		router:     router,
		authority:  authority,
		metrics:    NewDefiMetrics(),
	}
}

// getStore returns the KVStore for the defi module
func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return sdkCtx.KVStore(k.storeKey)
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// GetAuthority returns the operations identity.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// GetModuleAddress returns the account holding pool reserves and staged deposits.
func (k Keeper) GetModuleAddress() sdk.AccAddress {
	return authtypes.NewModuleAddress(types.ModuleName)
}

// get decodes the value under key into ptr. It reports false when the key is absent.
func (k Keeper) get(ctx context.Context, key []byte, ptr interface{}) (bool, error) {
	bz := k.getStore(ctx).Get(key)
	if bz == nil {
		return false, nil
	}
	if err := k.cdc.Unmarshal(bz, ptr); err != nil {
		return false, fmt.Errorf("decode %x: %w", key, err)
	}
	return true, nil
}

// set encodes v under key.
func (k Keeper) set(ctx context.Context, key []byte, v interface{}) error {
	bz, err := k.cdc.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %x: %w", key, err)
	}
	k.getStore(ctx).Set(key, bz)
	return nil
}
