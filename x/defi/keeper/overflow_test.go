package keeper_test

import (
	"math/big"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	keepertest "github.com/onesgame/onesdefi/testutil/keeper"
	"github.com/onesgame/onesdefi/x/defi/simulation"
	"github.com/onesgame/onesdefi/x/defi/types"
)

// pow2 returns 2^n as an Int.
func pow2(n uint) math.Int {
	return math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), n))
}

func fundInt(t keepertest.TB, env *simulation.Env, addr string, asset types.AssetRef, amount math.Int) {
	acc, err := sdk.AccAddressFromBech32(addr)
	require.NoError(t, err)
	require.NoError(t, env.Ledger.Mint(env.Ctx, acc, sdk.NewCoins(sdk.NewCoin(asset.Denom(), amount))))
}

// deposit funds provider and delivers both legs plus the finalize msg.
func deposit(t keepertest.TB, env *simulation.Env, provider string, pool types.Pool, amountA, amountB math.Int) error {
	fundInt(t, env, provider, pool.AssetA, amountA)
	fundInt(t, env, provider, pool.AssetB, amountB)
	memo := types.AddLiquidityMemo(pool.ID)
	_, err := env.Deliver([]string{provider},
		types.NewMsgTransfer(provider, types.NewAssetAmount(pool.AssetA, amountA), memo),
		types.NewMsgTransfer(provider, types.NewAssetAmount(pool.AssetB, amountB), memo),
		&types.MsgFinalizeAddLiquidity{Provider: provider, PoolID: pool.ID},
	)
	return err
}

func TestLargeFirstDeposit(t *testing.T) {
	env := newEnv(t)
	pool := keepertest.CreatePool(t, env, usd, 4, eos, 4)
	alice := keepertest.TestAddr("alice")

	require.NotPanics(t, func() {
		require.NoError(t, deposit(t, env, alice, pool, pow2(200), pow2(200)))
	})

	pos, err := env.Keeper.Shares(env.Ctx, pool.ID, alice)
	require.NoError(t, err)
	require.Equal(t, pow2(200), pos.Shares)

	pool, err = env.Keeper.GetPool(env.Ctx, pool.ID)
	require.NoError(t, err)
	require.True(t, pool.PriceAInB.Equal(math.LegacyOneDec()))
	requireInvariants(t, env)
}

func TestOverflowFailsTransaction(t *testing.T) {
	alice, bob := keepertest.TestAddr("alice"), keepertest.TestAddr("bob")

	tests := []struct {
		name           string
		seedA, seedB   math.Int
		amountA        math.Int
		amountB        math.Int
		failingDeposit bool // the seed deposit itself overflows
	}{
		{
			name:           "first deposit price out of range",
			seedA:          math.OneInt(),
			seedB:          pow2(250),
			failingDeposit: true,
		},
		{
			name:    "implied amount out of range",
			seedA:   math.NewInt(1_000),
			seedB:   pow2(70),
			amountA: pow2(200),
			amountB: math.OneInt(),
		},
		{
			name:    "reserves out of range",
			seedA:   pow2(255),
			seedB:   pow2(255),
			amountA: pow2(255),
			amountB: pow2(255),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			pool := keepertest.CreatePool(t, env, usd, 4, eos, 4)

			var err error
			provider := alice
			require.NotPanics(t, func() {
				err = deposit(t, env, alice, pool, tt.seedA, tt.seedB)
			})
			if !tt.failingDeposit {
				require.NoError(t, err)
				provider = bob
				require.NotPanics(t, func() {
					err = deposit(t, env, bob, pool, tt.amountA, tt.amountB)
				})
			}

			require.ErrorIs(t, err, types.ErrOverflow)
			require.Equal(t, types.ClassInvariant, types.ClassOf(err))

			// the failed deposit leaves the provider's funds where they were
			wantA, wantB := tt.amountA, tt.amountB
			if tt.failingDeposit {
				wantA, wantB = tt.seedA, tt.seedB
			}
			require.Equal(t, wantA, keepertest.Balance(t, env, provider, usd))
			require.Equal(t, wantB, keepertest.Balance(t, env, provider, eos))
			_, found, getErr := env.Keeper.GetPendingDeposit(env.Ctx)
			require.NoError(t, getErr)
			require.False(t, found && tt.failingDeposit, "a failed first deposit stages nothing")
		})
	}
}

func TestSwapLargeInputs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		env := newEnv(rt)
		pool := keepertest.CreatePool(rt, env, usd, 4, eos, 4)
		lp := keepertest.TestAddr("lp")
		trader := keepertest.TestAddr("trader")

		reserve := pow2(uint(rapid.IntRange(1, 200).Draw(rt, "reserveBits")))
		require.NoError(rt, deposit(rt, env, lp, pool, reserve, reserve))

		amount := pow2(uint(rapid.IntRange(0, 254).Draw(rt, "amountBits")))
		fundInt(rt, env, trader, usd, amount)

		var err error
		require.NotPanics(rt, func() {
			_, err = env.Deliver([]string{trader},
				types.NewMsgTransfer(trader, types.NewAssetAmount(usd, amount), types.SwapMemo(1, types.BasisPointsDenominator, pool.ID)))
		})
		if err != nil {
			require.NotEqual(rt, types.ClassUnknown, types.ClassOf(err), err.Error())
			require.Equal(rt, amount, keepertest.Balance(rt, env, trader, usd))
		}

		after, getErr := env.Keeper.GetPool(env.Ctx, pool.ID)
		require.NoError(rt, getErr)
		require.True(rt, after.ReserveB.IsPositive(), "a swap never drains the output reserve")
		requireInvariants(rt, env)
	})
}
