package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	keepertest "github.com/onesgame/onesdefi/testutil/keeper"
	"github.com/onesgame/onesdefi/x/defi/keeper"
	"github.com/onesgame/onesdefi/x/defi/simulation"
	"github.com/onesgame/onesdefi/x/defi/types"
)

type DelegationTestSuite struct {
	suite.Suite
	env       *simulation.Env
	pool      types.Pool
	authority string
	venue     types.VenueConfig
	lpAsset   types.AssetRef
}

func TestDelegationTestSuite(t *testing.T) {
	suite.Run(t, new(DelegationTestSuite))
}

func venueConfig(name string, kind types.VenueKind) types.VenueConfig {
	return types.VenueConfig{
		Name:            name,
		Kind:            kind,
		Account:         keepertest.TestAddr(name + "-account"),
		LPIssuer:        keepertest.TestAddr(name + "-lp"),
		RewardSource:    keepertest.TestAddr(name + "-rewards"),
		ProfitRecipient: keepertest.TestAddr(name + "-profit"),
		RefundTag:       "refund",
		WithdrawTag:     "withdraw",
		LPIssueTag:      "lp issue",
	}
}

// setup creates a liquid peg pool and configures one venue of kind.
func (suite *DelegationTestSuite) setup(kind types.VenueKind) {
	suite.env = newEnv(suite.T())
	suite.pool = liquidPool(suite.T(), suite.env, usd, eos, 100_000, 200_000)
	suite.authority = suite.env.Authority()
	suite.venue = venueConfig("box", kind)
	suite.lpAsset = types.NewAssetRef(suite.venue.LPIssuer, "BOXLP")
	setParams(suite.T(), suite.env, func(p *types.Params) {
		p.PegPoolID = suite.pool.ID
		p.Venues = []types.VenueConfig{suite.venue}
	})
}

func (suite *DelegationTestSuite) deliver(signer string, msgs ...types.Msg) (*keeper.TxResult, error) {
	res, err := suite.env.Deliver([]string{signer}, msgs...)
	if err == nil {
		requireInvariants(suite.T(), suite.env)
	}
	return res, err
}

// venueSends funds the venue account and delivers a transfer from it.
func (suite *DelegationTestSuite) venueSends(sender string, asset types.AssetRef, amount int64, memo string) error {
	keepertest.Fund(suite.T(), suite.env, sender, asset, amount)
	_, err := suite.deliver(sender, types.NewMsgTransfer(sender, types.NewAssetAmount(asset, math.NewInt(amount)), memo))
	return err
}

func (suite *DelegationTestSuite) session() types.DelegationSession {
	session, found, err := suite.env.Keeper.GetActiveDelegation(suite.env.Ctx)
	suite.Require().NoError(err)
	suite.Require().True(found)
	return session
}

func (suite *DelegationTestSuite) delegate(amountA, amountB int64) (*keeper.TxResult, error) {
	return suite.deliver(suite.authority, &types.MsgDelegate{
		Authority: suite.authority,
		PoolID:    suite.pool.ID,
		Venue:     suite.venue.Name,
		VenuePool: 7,
		AmountA:   math.NewInt(amountA),
		AmountB:   math.NewInt(amountB),
	})
}

func (suite *DelegationTestSuite) TestDelegateRejected() {
	suite.setup(types.VenueTransferFirst)
	env := suite.env

	_, err := suite.deliver(suite.authority, &types.MsgDelegate{
		Authority: suite.authority, PoolID: suite.pool.ID, Venue: "nowhere",
		AmountA: math.NewInt(1), AmountB: math.NewInt(1),
	})
	suite.Require().ErrorIs(err, types.ErrUnknownVenue)

	other := liquidPool(suite.T(), env, btc, eos, 1_000, 1_000)
	_, err = suite.deliver(suite.authority, &types.MsgDelegate{
		Authority: suite.authority, PoolID: other.ID, Venue: suite.venue.Name,
		AmountA: math.NewInt(1), AmountB: math.NewInt(1),
	})
	suite.Require().ErrorIs(err, types.ErrNotPegPool)

	_, err = suite.delegate(100_001, 1)
	suite.Require().ErrorIs(err, types.ErrInsufficientPoolReserves)

	bob := keepertest.TestAddr("bob")
	_, err = suite.deliver(bob, &types.MsgDelegate{
		Authority: bob, PoolID: suite.pool.ID, Venue: suite.venue.Name,
		AmountA: math.NewInt(1), AmountB: math.NewInt(1),
	})
	suite.Require().ErrorIs(err, types.ErrUnauthorized)

	_, err = suite.deliver(suite.authority, &types.MsgSettleDelegation{Authority: suite.authority})
	suite.Require().ErrorIs(err, types.ErrDelegationNotFound)

	_, err = suite.delegate(1_000, 2_000)
	suite.Require().NoError(err)
	_, err = suite.delegate(1_000, 2_000)
	suite.Require().ErrorIs(err, types.ErrDelegationAlreadyActive)

	_, err = suite.deliver(suite.authority, &types.MsgRemovePool{Authority: suite.authority, PoolID: suite.pool.ID})
	suite.Require().ErrorIs(err, types.ErrPoolNotEmpty)
}

func (suite *DelegationTestSuite) TestTransferFirstLifecycle() {
	suite.setup(types.VenueTransferFirst)
	env, venue := suite.env, suite.venue

	// lend: both legs go out before the deposit call
	res, err := suite.delegate(1_000, 2_000)
	suite.Require().NoError(err)
	suite.Require().Len(res.Effects, 3)
	suite.Require().Equal(types.EffectTransfer, res.Effects[0].Kind)
	suite.Require().Equal("deposit,7", res.Effects[0].Memo)
	suite.Require().Equal(types.EffectTransfer, res.Effects[1].Kind)
	suite.Require().Equal(types.EffectCall, res.Effects[2].Kind)
	suite.Require().Equal("deposit", res.Effects[2].Call.Method)
	suite.Require().Equal(math.NewInt(1_000), keepertest.Balance(suite.T(), env, venue.Account, usd))
	suite.Require().Equal(math.NewInt(2_000), keepertest.Balance(suite.T(), env, venue.Account, eos))
	suite.Require().Equal(types.DelegationLent, suite.session().Status)

	// the pool keeps its reserves while they are lent
	pool, err := env.Keeper.GetPool(env.Ctx, suite.pool.ID)
	suite.Require().NoError(err)
	suite.Require().Equal(suite.pool.ReserveA, pool.ReserveA)

	// exiting before LP tokens arrive is refused
	_, err = suite.deliver(suite.authority, &types.MsgExitDelegation{Authority: suite.authority, Memo: "withdraw all", Amount: math.ZeroInt()})
	suite.Require().ErrorIs(err, types.ErrInvalidDelegationStatus)

	// LP issue
	suite.Require().NoError(suite.venueSends(venue.Account, suite.lpAsset, 500, "lp issue"))
	suite.Require().Equal(types.NewAssetAmount(suite.lpAsset, math.NewInt(500)), suite.session().LPShares)

	// exit hands the LP tokens back
	res, err = suite.deliver(suite.authority, &types.MsgExitDelegation{Authority: suite.authority, Memo: "withdraw all", Amount: math.ZeroInt()})
	suite.Require().NoError(err)
	suite.Require().Len(res.Effects, 1)
	suite.Require().Equal(venue.Account, res.Effects[0].Recipient)
	suite.Require().Equal(math.NewInt(500), keepertest.Balance(suite.T(), env, venue.Account, suite.lpAsset))

	// returns arrive side by side
	suite.Require().NoError(suite.venueSends(venue.Account, usd, 1_000, "withdraw"))
	suite.Require().Equal(types.DelegationPartialBack, suite.session().Status)
	suite.Require().NoError(suite.venueSends(venue.Account, eos, 2_100, "withdraw"))
	session := suite.session()
	suite.Require().Equal(types.DelegationFullyBack, session.Status)
	suite.Require().Equal(math.NewInt(100), session.Surplus(types.SideB))

	// profit is forwarded as it arrives
	suite.Require().NoError(suite.venueSends(venue.RewardSource, eos, 50, "reward"))
	suite.Require().Equal(math.NewInt(50), keepertest.Balance(suite.T(), env, venue.ProfitRecipient, eos))
	suite.Require().Equal(math.NewInt(50), suite.session().Profit.Amount)

	// claim
	res, err = suite.deliver(suite.authority, &types.MsgClaimDelegation{Authority: suite.authority})
	suite.Require().NoError(err)
	suite.Require().Len(res.Effects, 1)
	suite.Require().Equal(venue.LPIssuer, res.Effects[0].Call.Target)
	suite.Require().Equal(types.DelegationClaimed, suite.session().Status)

	// nothing is short, so the settle msg stands alone and the surplus goes
	// to the authority
	res, err = suite.deliver(suite.authority, &types.MsgSettleDelegation{Authority: suite.authority})
	suite.Require().NoError(err)
	suite.Require().Len(res.Effects, 1)
	suite.Require().Equal("market", res.Effects[0].Memo)
	suite.Require().Equal(math.NewInt(100), keepertest.Balance(suite.T(), env, suite.authority, eos))

	_, found, err := env.Keeper.GetActiveDelegation(env.Ctx)
	suite.Require().NoError(err)
	suite.Require().False(found)

	records, err := env.Keeper.DelegationLog(env.Ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Len(records, 1)
	suite.Require().Equal(uint64(1), records[0].ID)
	suite.Require().Equal(types.DelegationClaimed, records[0].Session.Status)
	suite.Require().Equal(uint64(7), records[0].Session.VenuePool)
}

func (suite *DelegationTestSuite) TestCallFirstLifecycle() {
	suite.setup(types.VenueCallFirst)
	env, venue := suite.env, suite.venue

	// lend: the deposit call goes out before the legs
	res, err := suite.delegate(1_000, 2_000)
	suite.Require().NoError(err)
	suite.Require().Len(res.Effects, 3)
	suite.Require().Equal(types.EffectCall, res.Effects[0].Kind)
	suite.Require().Equal(types.EffectTransfer, res.Effects[1].Kind)
	suite.Require().Equal(types.EffectTransfer, res.Effects[2].Kind)

	// a refund shrinks what is lent
	suite.Require().NoError(suite.venueSends(venue.Account, usd, 100, "refund"))
	session := suite.session()
	suite.Require().Equal(math.NewInt(900), session.LentA.Amount)
	suite.Require().Equal(types.DelegationPartialBack, session.Status)

	_, err = suite.deliver(suite.authority, &types.MsgExitDelegation{Authority: suite.authority, Memo: "exit", Amount: math.ZeroInt()})
	suite.Require().ErrorIs(err, types.ErrInvalidAmount)

	res, err = suite.deliver(suite.authority, &types.MsgExitDelegation{Authority: suite.authority, Memo: "exit", Amount: math.NewInt(300)})
	suite.Require().NoError(err)
	suite.Require().Len(res.Effects, 1)
	suite.Require().Equal("withdraw", res.Effects[0].Call.Method)
	suite.Require().Equal([]string{env.Keeper.GetModuleAddress().String(), "exit", "300"}, res.Effects[0].Call.Args)

	suite.Require().NoError(suite.venueSends(venue.Account, usd, 800, "withdraw"))
	suite.Require().NoError(suite.venueSends(venue.Account, eos, 2_000, "withdraw"))
	session = suite.session()
	suite.Require().Equal(types.DelegationFullyBack, session.Status)
	suite.Require().Equal(math.NewInt(100), session.Shortfall(types.SideA))
	suite.Require().True(session.Shortfall(types.SideB).IsZero())

	// a venue transfer without a known tag is passed to the holding account
	holding := env.Keeper.GetParams(env.Ctx).HoldingAccount
	suite.Require().NoError(suite.venueSends(venue.Account, eos, 5, "airdrop"))
	suite.Require().Equal(math.NewInt(5), keepertest.Balance(suite.T(), env, holding, eos))

	suite.Require().NoError(suite.venueSends(venue.RewardSource, eos, 10, "reward"))
	_, err = suite.deliver(suite.authority, &types.MsgClaimDelegation{Authority: suite.authority})
	suite.Require().ErrorIs(err, types.ErrClaimUnsupported)

	// a settlement that underpays is rejected and the session stays open
	keepertest.Fund(suite.T(), env, suite.authority, usd, 100)
	settle := func(amount int64) error {
		_, err := suite.deliver(suite.authority,
			types.NewMsgTransfer(suite.authority, types.NewAssetAmount(usd, math.NewInt(amount)), types.MemoActionMarketSettle),
			&types.MsgSettleDelegation{Authority: suite.authority},
		)
		return err
	}
	err = settle(50)
	suite.Require().ErrorIs(err, types.ErrSettlementIncomplete)
	suite.Require().Equal(types.ClassInvariant, types.ClassOf(err))
	suite.Require().Equal(types.DelegationFullyBack, suite.session().Status)
	suite.Require().Equal(math.NewInt(100), keepertest.Balance(suite.T(), env, suite.authority, usd))

	// the settle msg alone does not cover a short side
	_, err = suite.deliver(suite.authority, &types.MsgSettleDelegation{Authority: suite.authority})
	suite.Require().ErrorIs(err, types.ErrSettlementIncomplete)

	suite.Require().NoError(settle(100))
	suite.Require().True(keepertest.Balance(suite.T(), env, suite.authority, usd).IsZero())

	_, found, err := env.Keeper.GetActiveDelegation(env.Ctx)
	suite.Require().NoError(err)
	suite.Require().False(found)

	records, err := env.Keeper.DelegationLog(env.Ctx, 0)
	suite.Require().NoError(err)
	suite.Require().Len(records, 1)
	suite.Require().Equal(math.NewInt(10), records[0].Session.Profit.Amount)
}

func (suite *DelegationTestSuite) TestVenueTransferWithoutSession() {
	suite.setup(types.VenueTransferFirst)

	err := suite.venueSends(suite.venue.Account, usd, 10, "withdraw")
	suite.Require().ErrorIs(err, types.ErrDelegationNotFound)
	suite.Require().Equal(types.ClassState, types.ClassOf(err))
}

func TestDelegationLogRingCap(t *testing.T) {
	s := new(DelegationTestSuite)
	s.SetT(t)
	s.setup(types.VenueTransferFirst)
	setParams(t, s.env, func(p *types.Params) { p.DelegationLogCap = 2 })

	for i := 0; i < 3; i++ {
		_, err := s.delegate(10, 20)
		require.NoError(t, err)
		require.NoError(t, s.venueSends(s.venue.Account, usd, 10, "withdraw"))
		require.NoError(t, s.venueSends(s.venue.Account, eos, 20, "withdraw"))
		_, err = s.deliver(s.authority, &types.MsgSettleDelegation{Authority: s.authority})
		require.NoError(t, err)
	}

	records, err := s.env.Keeper.DelegationLog(s.env.Ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, uint64(2), records[0].ID)
	require.Equal(t, uint64(3), records[1].ID)
}
