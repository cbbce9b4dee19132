package keeper

import (
	"github.com/onesgame/onesdefi/x/defi/types"
)

// requireAuthority ensures actual is the operations identity.
func (k Keeper) requireAuthority(actual string) error {
	if k.authority != actual {
		return types.ErrUnauthorized.Wrapf("expected %s, got %s", k.authority, actual)
	}
	return nil
}
