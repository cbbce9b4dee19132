package keeper_test

import (
	"encoding/json"
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	keepertest "github.com/onesgame/onesdefi/testutil/keeper"
	"github.com/onesgame/onesdefi/x/defi/simulation"
	"github.com/onesgame/onesdefi/x/defi/types"
)

func TestGenesisRoundTrip(t *testing.T) {
	env := newEnv(t)
	pool := keepertest.CreatePool(t, env, usd, 4, eos, 4)
	keepertest.AddLiquidity(t, env, keepertest.TestAddr("alice"), pool, 100, 200)
	keepertest.AddLiquidity(t, env, keepertest.TestAddr("bob"), pool, 50, 100)
	keepertest.CreatePool(t, env, btc, 8, eos, 4)

	exported, err := env.Keeper.ExportGenesis(env.Ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())
	require.Len(t, exported.Pools, 2)
	require.Len(t, exported.Pairs, 2)
	require.Len(t, exported.Positions, 2)
	require.Equal(t, uint64(3), exported.NextPoolID)

	imported, err := simulation.NewEnv(log.NewNopLogger(), "", *exported)
	require.NoError(t, err)
	reexported, err := imported.Keeper.ExportGenesis(imported.Ctx)
	require.NoError(t, err)

	want, err := json.Marshal(exported)
	require.NoError(t, err)
	got, err := json.Marshal(reexported)
	require.NoError(t, err)
	require.JSONEq(t, string(want), string(got))

	id, found := imported.Keeper.GetPoolIDByPair(imported.Ctx, eos, usd)
	require.True(t, found)
	require.Equal(t, pool.ID, id)
}

func TestInitGenesisRejectsInvalidState(t *testing.T) {
	gs := types.DefaultGenesis()
	gs.NextPoolID = 0

	_, err := simulation.NewEnv(log.NewNopLogger(), "", *gs)
	require.ErrorContains(t, err, "invalid genesis state")
}
