package keeper_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	keepertest "github.com/onesgame/onesdefi/testutil/keeper"
	"github.com/onesgame/onesdefi/x/defi/simulation"
	"github.com/onesgame/onesdefi/x/defi/types"
)

func TestRegisterPair(t *testing.T) {
	creator := keepertest.TestAddr("creator")
	unknown := types.NewAssetRef("nobody", "XYZ")
	blocked := types.NewAssetRef("scam", "USD")

	tests := []struct {
		name    string
		setup   func(t *testing.T, env *simulation.Env)
		a, b    types.AssetRef
		wantErr error
	}{
		{
			name: "valid pair",
			a:    usd,
			b:    btc,
		},
		{
			name:    "unknown asset",
			a:       usd,
			b:       unknown,
			wantErr: types.ErrUnknownAsset,
		},
		{
			name:    "same asset",
			a:       usd,
			b:       usd,
			wantErr: types.ErrSameAsset,
		},
		{
			name: "duplicate in reverse order",
			setup: func(t *testing.T, env *simulation.Env) {
				keepertest.CreatePool(t, env, usd, 4, btc, 8)
			},
			a:       btc,
			b:       usd,
			wantErr: types.ErrDuplicatePair,
		},
		{
			name: "blocked issuer",
			setup: func(t *testing.T, env *simulation.Env) {
				env.Ledger.RegisterAsset(blocked, 2)
				setParams(t, env, func(p *types.Params) {
					p.BlockedIssuers = []string{"scam"}
				})
			},
			a:       blocked,
			b:       eos,
			wantErr: types.ErrUnknownAsset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			if tt.setup != nil {
				tt.setup(t, env)
			}
			_, err := env.Deliver([]string{creator}, &types.MsgRegisterPair{Creator: creator, AssetA: tt.a, AssetB: tt.b})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, types.ClassValidation, types.ClassOf(err))
				return
			}
			require.NoError(t, err)
			_, found := env.Keeper.GetPoolIDByPair(env.Ctx, tt.b, tt.a)
			require.True(t, found)
		})
	}
}

func TestRegisterPairNativeInSlotB(t *testing.T) {
	env := newEnv(t)
	pool := keepertest.CreatePool(t, env, eos, 4, usd, 2)

	require.Equal(t, uint64(1), pool.ID)
	require.Equal(t, usd, pool.AssetA)
	require.Equal(t, eos, pool.AssetB)
	require.Equal(t, uint32(2), pool.PrecisionA)
	require.Equal(t, uint32(4), pool.PrecisionB)
	require.True(t, pool.IsEmpty())
	require.False(t, pool.HasPrice())

	digest, found := env.Keeper.GetPairDigest(env.Ctx, pool.ID)
	require.True(t, found)
	require.Equal(t, types.NewPairDigest(usd, eos), digest)

	next := keepertest.CreatePool(t, env, usd, 2, btc, 8)
	require.Equal(t, uint64(2), next.ID, "pool ids are sequential")
}

func TestRemovePool(t *testing.T) {
	env := newEnv(t)
	pool := keepertest.CreatePool(t, env, usd, 4, eos, 4)
	alice := keepertest.TestAddr("alice")
	keepertest.AddLiquidity(t, env, alice, pool, 100, 200)
	authority := env.Authority()

	_, err := env.Deliver([]string{alice}, &types.MsgRemovePool{Authority: alice, PoolID: pool.ID})
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = env.Deliver([]string{authority}, &types.MsgRemovePool{Authority: authority, PoolID: pool.ID})
	require.ErrorIs(t, err, types.ErrPoolNotEmpty)

	pos, err := env.Keeper.Shares(env.Ctx, pool.ID, alice)
	require.NoError(t, err)
	_, err = env.Deliver([]string{alice}, &types.MsgRemoveLiquidity{Provider: alice, PoolID: pool.ID, Shares: pos.Shares})
	require.NoError(t, err)

	_, err = env.Deliver([]string{authority}, &types.MsgRemovePool{Authority: authority, PoolID: pool.ID})
	require.NoError(t, err)

	_, err = env.Keeper.GetPool(env.Ctx, pool.ID)
	require.ErrorIs(t, err, types.ErrPoolNotFound)
	_, found := env.Keeper.GetPoolIDByPair(env.Ctx, usd, eos)
	require.False(t, found)

	// the pair can be registered again under a fresh id
	again := keepertest.CreatePool(t, env, usd, 4, eos, 4)
	require.Equal(t, pool.ID+1, again.ID)
	requireInvariants(t, env)
}
