package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	keepertest "github.com/onesgame/onesdefi/testutil/keeper"
	"github.com/onesgame/onesdefi/x/defi/keeper"
	"github.com/onesgame/onesdefi/x/defi/simulation"
	"github.com/onesgame/onesdefi/x/defi/types"
)

// liquidPool creates pool a/b holding reserveA/reserveB deposited by a
// dedicated provider.
func liquidPool(t keepertest.TB, env *simulation.Env, a, b types.AssetRef, reserveA, reserveB int64) types.Pool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	pool := keepertest.CreatePool(t, env, a, 4, b, 4)
	keepertest.AddLiquidity(t, env, keepertest.TestAddr("lp"), pool, reserveA, reserveB)
	pool, err := env.Keeper.GetPool(env.Ctx, pool.ID)
	require.NoError(t, err)
	return pool
}

func swapMsg(trader string, asset types.AssetRef, amount int64, bps uint32, route ...uint64) *types.MsgTransfer {
	return types.NewMsgTransfer(trader, types.NewAssetAmount(asset, math.NewInt(amount)), types.SwapMemo(42, bps, route...))
}

func (suite *KeeperTestSuite) TestSwapSingleHop() {
	env := suite.env
	pool := liquidPool(suite.T(), env, usd, eos, 1_000_000, 2_000_000)
	bob := keepertest.TestAddr("bob")
	keepertest.Fund(suite.T(), env, bob, usd, 1_000)
	params := env.Keeper.GetParams(env.Ctx)

	input := types.NewAssetAmount(usd, math.NewInt(1_000))
	quote, err := env.Keeper.QuoteSwap(env.Ctx, input, []uint64{pool.ID}, 100)
	suite.Require().NoError(err)

	res, err := env.Deliver([]string{bob}, swapMsg(bob, usd, 1_000, 100, pool.ID))
	suite.Require().NoError(err)

	// 1 + 1 protocol fee, 998 trades at a 0.1% swap fee
	suite.Require().Equal(math.NewInt(1_992), quote.Amount)
	suite.Require().Equal(math.NewInt(1_992), keepertest.Balance(suite.T(), env, bob, eos))
	suite.Require().True(keepertest.Balance(suite.T(), env, bob, usd).IsZero())
	suite.Require().Equal(math.NewInt(1), keepertest.Balance(suite.T(), env, params.FundCollector, usd))
	suite.Require().Equal(math.NewInt(1), keepertest.Balance(suite.T(), env, params.DividendCollector, usd))

	suite.Require().Len(res.Effects, 3)
	suite.Require().Equal("swap fund fee", res.Effects[0].Memo)
	suite.Require().Equal("swap dividend fee", res.Effects[1].Memo)
	suite.Require().Equal(bob, res.Effects[2].Recipient)

	pool, err = env.Keeper.GetPool(env.Ctx, pool.ID)
	suite.Require().NoError(err)
	suite.Require().Equal(math.NewInt(1_000_998), pool.ReserveA)
	suite.Require().Equal(math.NewInt(1_998_008), pool.ReserveB)

	entries, err := env.Keeper.SwapLog(env.Ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Require().Equal(uint64(42), entries[0].ClientRef)
	suite.Require().Equal(bob, entries[0].Trader)
	suite.Require().Equal(math.NewInt(2), entries[0].ProtocolFee)
	suite.Require().Equal(res.CorrelationID, entries[0].CorrelationID)
	suite.Require().True(entries[0].Price.Equal(math.LegacyMustNewDecFromStr("1.992")))
	requireInvariants(suite.T(), env)
}

func (suite *KeeperTestSuite) TestSwapSlippageAbort() {
	env := suite.env
	pool := liquidPool(suite.T(), env, usd, eos, 1_000_000, 2_000_000)
	bob := keepertest.TestAddr("bob")
	keepertest.Fund(suite.T(), env, bob, usd, 100_000)

	_, err := env.Deliver([]string{bob}, swapMsg(bob, usd, 100_000, 10, pool.ID))
	suite.Require().ErrorIs(err, types.ErrSlippageExceeded)
	suite.Require().Equal(types.ClassInvariant, types.ClassOf(err))

	after, err := env.Keeper.GetPool(env.Ctx, pool.ID)
	suite.Require().NoError(err)
	suite.Require().Equal(pool.ReserveA, after.ReserveA)
	suite.Require().Equal(pool.ReserveB, after.ReserveB)
	suite.Require().Equal(math.NewInt(100_000), keepertest.Balance(suite.T(), env, bob, usd))

	entries, err := env.Keeper.SwapLog(env.Ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Empty(entries)
}

func (suite *KeeperTestSuite) TestSwapErrors() {
	env := suite.env
	pool := liquidPool(suite.T(), env, usd, eos, 1_000_000, 2_000_000)
	empty := keepertest.CreatePool(suite.T(), env, usd, 4, btc, 8)
	bob := keepertest.TestAddr("bob")
	keepertest.Fund(suite.T(), env, bob, usd, 1_000)
	keepertest.Fund(suite.T(), env, bob, btc, 1_000)
	keepertest.Fund(suite.T(), env, bob, eos, 1_000)

	tests := []struct {
		name    string
		msg     *types.MsgTransfer
		wantErr error
	}{
		{"asset not in pool", swapMsg(bob, btc, 100, 100, pool.ID), types.ErrTokenMismatch},
		{"empty pool", swapMsg(bob, usd, 100, 100, empty.ID), types.ErrEmptyPool},
		{"unknown pool", swapMsg(bob, usd, 100, 100, 99), types.ErrPoolNotFound},
		{"too many hops", swapMsg(bob, usd, 100, 100, pool.ID, pool.ID, pool.ID, pool.ID, pool.ID, pool.ID, pool.ID, pool.ID, pool.ID), types.ErrInvalidRoute},
		{"slippage above 100%", swapMsg(bob, usd, 100, 10_001, pool.ID), types.ErrInvalidSlippage},
		{"output rounds to nothing", swapMsg(bob, eos, 1, 100, pool.ID), types.ErrZeroAmount},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := env.Deliver([]string{bob}, tt.msg)
			suite.Require().ErrorIs(err, tt.wantErr)
			suite.Require().NotEqual(types.ClassUnknown, types.ClassOf(err))
			suite.Require().Equal(math.NewInt(1_000), keepertest.Balance(suite.T(), env, bob, usd))
		})
	}
	requireInvariants(suite.T(), env)
}

func (suite *KeeperTestSuite) TestMultiHopSwap() {
	env := suite.env
	first := liquidPool(suite.T(), env, usd, eos, 1_000_000, 2_000_000)
	second := liquidPool(suite.T(), env, btc, eos, 1_000_000, 2_000_000)
	bob := keepertest.TestAddr("bob")
	keepertest.Fund(suite.T(), env, bob, usd, 10_000)
	params := env.Keeper.GetParams(env.Ctx)

	route := []uint64{first.ID, second.ID}
	quote, err := env.Keeper.QuoteSwap(env.Ctx, types.NewAssetAmount(usd, math.NewInt(10_000)), route, 500)
	suite.Require().NoError(err)
	suite.Require().Equal(btc, quote.Asset)

	_, err = env.Deliver([]string{bob}, swapMsg(bob, usd, 10_000, 500, route...))
	suite.Require().NoError(err)
	suite.Require().Equal(quote.Amount, keepertest.Balance(suite.T(), env, bob, btc))
	suite.Require().True(keepertest.Balance(suite.T(), env, bob, eos).IsZero(), "intermediate asset stays in the module")

	entries, err := env.Keeper.SwapLog(env.Ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)
	suite.Require().Equal(uint32(0), entries[0].Hop)
	suite.Require().Equal(uint32(1), entries[1].Hop)
	suite.Require().Equal(entries[0].Out, entries[1].In)
	suite.Require().Equal(entries[0].CorrelationID, entries[1].CorrelationID)

	// each hop pays the protocol fees on its own input
	hopFee := types.FeeAmount(entries[0].Out.Amount, params.FundFee)
	suite.Require().Equal(math.NewInt(10), keepertest.Balance(suite.T(), env, params.FundCollector, usd))
	suite.Require().Equal(hopFee, keepertest.Balance(suite.T(), env, params.FundCollector, eos))
	requireInvariants(suite.T(), env)
}

func (suite *KeeperTestSuite) TestSwapRewardIssued() {
	env := suite.env
	pool := liquidPool(suite.T(), env, usd, eos, 1_000_000, 2_000_000)
	bob := keepertest.TestAddr("bob")
	keepertest.Fund(suite.T(), env, bob, eos, 25_000)
	authority := env.Authority()

	_, err := env.Deliver([]string{bob}, &types.MsgSetWeight{
		Authority: bob, PoolID: pool.ID, Kind: types.WeightKindSwap, Weight: math.LegacyOneDec(),
	})
	suite.Require().ErrorIs(err, types.ErrUnauthorized)

	_, err = env.Deliver([]string{authority}, &types.MsgSetWeight{
		Authority: authority, PoolID: pool.ID, Kind: types.WeightKindSwap, Weight: math.LegacyOneDec(),
	})
	suite.Require().NoError(err)

	res, err := env.Deliver([]string{bob}, swapMsg(bob, eos, 20_000, 500, pool.ID))
	suite.Require().NoError(err)
	last := res.Effects[len(res.Effects)-1]
	suite.Require().Equal(types.EffectCall, last.Kind)
	suite.Require().Equal(types.DefaultRewardTarget, last.Call.Target)
	suite.Require().Equal(keeper.SwapMiningMethod, last.Call.Method)
	suite.Require().Equal([]string{bob, "20000", eos.Denom()}, last.Call.Args)

	// below the minimum reward nothing is issued
	res, err = env.Deliver([]string{bob}, swapMsg(bob, eos, 5_000, 500, pool.ID))
	suite.Require().NoError(err)
	for _, e := range res.Effects {
		suite.Require().Equal(types.EffectTransfer, e.Kind)
	}

	calls, err := env.Router.Calls(env.Ctx)
	suite.Require().NoError(err)
	suite.Require().Len(calls, 1)
	suite.Require().Equal(env.Keeper.GetModuleAddress().String(), calls[0].Sender)
}

func (suite *KeeperTestSuite) TestSwapRewardValuedThroughNativePool() {
	env := suite.env
	pool := liquidPool(suite.T(), env, usd, eos, 1_000_000, 2_000_000)
	params := env.Keeper.GetParams(env.Ctx)
	pool.SwapWeight = math.LegacyNewDecWithPrec(5, 1)

	// 10000 USD is worth 20000 EOS at 2 EOS per USD, half of it is rewarded
	reward, err := env.Keeper.SwapReward(env.Ctx, params, pool, types.NewAssetAmount(usd, math.NewInt(10_000)))
	suite.Require().NoError(err)
	suite.Require().Equal(math.NewInt(10_000), reward)

	reward, err = env.Keeper.SwapReward(env.Ctx, params, pool, types.NewAssetAmount(usd, math.NewInt(9_999)))
	suite.Require().NoError(err)
	suite.Require().True(reward.IsZero())

	reward, err = env.Keeper.SwapReward(env.Ctx, params, pool, types.NewAssetAmount(btc, math.NewInt(1_000_000)))
	suite.Require().NoError(err)
	suite.Require().True(reward.IsZero(), "no native pool for btc")
}

func (suite *KeeperTestSuite) TestSwapLogRingCap() {
	env := suite.env
	pool := liquidPool(suite.T(), env, usd, eos, 1_000_000, 2_000_000)
	setParams(suite.T(), env, func(p *types.Params) { p.SwapLogCap = 3 })
	bob := keepertest.TestAddr("bob")
	keepertest.Fund(suite.T(), env, bob, usd, 500)

	for i := 0; i < 5; i++ {
		_, err := env.Deliver([]string{bob}, swapMsg(bob, usd, 100, 1_000, pool.ID))
		suite.Require().NoError(err)
	}

	entries, err := env.Keeper.SwapLog(env.Ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 3)
	suite.Require().Equal(uint64(3), entries[0].ID)
	suite.Require().Equal(uint64(5), entries[2].ID)

	entries, err = env.Keeper.SwapLog(env.Ctx, 4)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	requireInvariants(suite.T(), env)
}

func TestSwapConstantProductProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		env := newEnv(rt)
		pool := liquidPool(rt, env, usd, eos, 1_000_000, 2_000_000)
		trader := keepertest.TestAddr("trader")

		steps := rapid.IntRange(1, 15).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			before, err := env.Keeper.GetPool(env.Ctx, pool.ID)
			require.NoError(rt, err)

			asset := rapid.SampledFrom([]types.AssetRef{usd, eos}).Draw(rt, "asset")
			amount := rapid.Int64Range(1, 500_000).Draw(rt, "amount")
			bps := rapid.Uint32Range(0, types.BasisPointsDenominator).Draw(rt, "bps")
			keepertest.Fund(rt, env, trader, asset, amount)

			_, err = env.Deliver([]string{trader}, swapMsg(trader, asset, amount, bps, pool.ID))
			if err != nil {
				require.NotEqual(rt, types.ClassUnknown, types.ClassOf(err), err.Error())
			}

			after, err := env.Keeper.GetPool(env.Ctx, pool.ID)
			require.NoError(rt, err)
			require.True(rt, after.ConstantProduct().GTE(before.ConstantProduct()),
				"k fell from %s to %s", before.ConstantProduct(), after.ConstantProduct())
			require.True(rt, after.ReserveA.IsPositive() && after.ReserveB.IsPositive())

			msg, broken := keeper.AllInvariants(*env.Keeper)(env.Ctx)
			require.False(rt, broken, msg)
			env.Commit()
		}
	})
}
