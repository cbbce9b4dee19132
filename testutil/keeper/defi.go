package keeper

import (
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/onesgame/onesdefi/x/defi/keeper"
	"github.com/onesgame/onesdefi/x/defi/simulation"
	"github.com/onesgame/onesdefi/x/defi/types"
)

// TB is the part of testing.TB the helpers use. *rapid.T satisfies it, so
// property tests can hand their own T to the helpers.
type TB = require.TestingT

type tHelper interface {
	Helper()
}

// DefiEnv creates a defi keeper over an in-memory store with a simulated bank
// and call router, loaded with the default genesis.
func DefiEnv(t TB) *simulation.Env {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	env, err := simulation.NewEnv(log.NewNopLogger(), "", *types.DefaultGenesis())
	require.NoError(t, err)
	return env
}

// DefiKeeper creates a test keeper for the defi module with the simulated
// ledger behind it.
func DefiKeeper(t TB) (*keeper.Keeper, sdk.Context, *simulation.Ledger, *simulation.Router) {
	env := DefiEnv(t)
	return env.Keeper, env.Ctx, env.Ledger, env.Router
}

// TestAddr returns a deterministic account address for name.
func TestAddr(name string) string {
	return sdk.AccAddress([]byte(name)).String()
}

// Fund mints amount of asset to addr.
func Fund(t TB, env *simulation.Env, addr string, asset types.AssetRef, amount int64) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	acc, err := sdk.AccAddressFromBech32(addr)
	require.NoError(t, err)
	require.NoError(t, env.Ledger.Mint(env.Ctx, acc, sdk.NewCoins(sdk.NewCoin(asset.Denom(), math.NewInt(amount)))))
}

// Balance returns the ledger balance of addr in asset.
func Balance(t TB, env *simulation.Env, addr string, asset types.AssetRef) math.Int {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	acc, err := sdk.AccAddressFromBech32(addr)
	require.NoError(t, err)
	return env.Ledger.GetBalance(env.Ctx, acc, asset.Denom()).Amount
}

// CreatePool registers both assets with the given precisions, registers the
// pair and returns the new pool.
func CreatePool(t TB, env *simulation.Env, a types.AssetRef, precA uint32, b types.AssetRef, precB uint32) types.Pool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	env.Ledger.RegisterAsset(a, precA)
	env.Ledger.RegisterAsset(b, precB)
	creator := TestAddr("pool-creator")
	res, err := env.Deliver([]string{creator}, &types.MsgRegisterPair{Creator: creator, AssetA: a, AssetB: b})
	require.NoError(t, err)
	require.NotNil(t, res)

	poolID, found := env.Keeper.GetPoolIDByPair(env.Ctx, a, b)
	require.True(t, found)
	pool, err := env.Keeper.GetPool(env.Ctx, poolID)
	require.NoError(t, err)
	return pool
}

// AddLiquidity funds provider and deposits both legs into pool in one
// settlement transaction.
func AddLiquidity(t TB, env *simulation.Env, provider string, pool types.Pool, amountA, amountB int64) *keeper.TxResult {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	Fund(t, env, provider, pool.AssetA, amountA)
	Fund(t, env, provider, pool.AssetB, amountB)
	memo := types.AddLiquidityMemo(pool.ID)
	res, err := env.Deliver([]string{provider},
		types.NewMsgTransfer(provider, types.NewAssetAmount(pool.AssetA, math.NewInt(amountA)), memo),
		types.NewMsgTransfer(provider, types.NewAssetAmount(pool.AssetB, math.NewInt(amountB)), memo),
		&types.MsgFinalizeAddLiquidity{Provider: provider, PoolID: pool.ID},
	)
	require.NoError(t, err)
	return res
}
