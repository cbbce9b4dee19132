package keeper

import (
	"context"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// GetParams returns the module parameters, or the defaults if none are stored.
func (k Keeper) GetParams(ctx context.Context) types.Params {
	var params types.Params
	found, err := k.get(ctx, types.ParamsKey, &params)
	if err != nil {
		panic(err)
	}
	if !found {
		return types.DefaultParams()
	}
	return params
}

// SetParams validates and stores the module parameters.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return types.ErrInvalidParams.Wrap(err.Error())
	}
	return k.set(ctx, types.ParamsKey, params)
}
