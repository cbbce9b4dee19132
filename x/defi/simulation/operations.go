package simulation

import (
	"errors"
	"fmt"
	"math/rand"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	simtypes "github.com/cosmos/cosmos-sdk/types/simulation"

	"github.com/onesgame/onesdefi/x/defi/keeper"
	"github.com/onesgame/onesdefi/x/defi/types"
)

// Simulation operation weights
const (
	DefaultWeightRegisterPair    = 5
	DefaultWeightAddLiquidity    = 30
	DefaultWeightRemoveLiquidity = 15
	DefaultWeightSwap            = 50
)

// SimSymbols are the assets random operations trade, all issued by one
// simulated issuer.
var SimSymbols = []string{"USD", "EUR", "BTC", "ETH", "ONES"}

// Operation runs one random settlement transaction against env.
type Operation func(r *rand.Rand, env *Env, accs []simtypes.Account) (simtypes.OperationMsg, error)

// WeightedOperation pairs an operation with its selection weight.
type WeightedOperation struct {
	Weight int
	Op     Operation
}

// WeightedOperations returns the defi operations with their default weights.
func WeightedOperations(issuer string) []WeightedOperation {
	return []WeightedOperation{
		{DefaultWeightRegisterPair, SimulateRegisterPair(issuer)},
		{DefaultWeightAddLiquidity, SimulateAddLiquidity()},
		{DefaultWeightRemoveLiquidity, SimulateRemoveLiquidity()},
		{DefaultWeightSwap, SimulateSwap()},
	}
}

// SimAssets returns the asset refs of SimSymbols under issuer.
func SimAssets(issuer string) []types.AssetRef {
	assets := make([]types.AssetRef, len(SimSymbols))
	for i, sym := range SimSymbols {
		assets[i] = types.NewAssetRef(issuer, sym)
	}
	return assets
}

// RandomSummary counts the outcomes of a random run.
type RandomSummary struct {
	Ops       int            `json:"ops" yaml:"ops"`
	Committed int            `json:"committed" yaml:"committed"`
	Skipped   map[string]int `json:"skipped" yaml:"skipped"`
}

// RunRandom executes numOps weighted random operations with numAccs funded
// accounts and checks every invariant after each operation. Rejected
// transactions are counted as skipped; errors the module does not classify
// stop the run.
func RunRandom(env *Env, r *rand.Rand, numAccs, numOps int) (RandomSummary, error) {
	issuer := sdk.AccAddress([]byte("sim-issuer")).String()
	for i, asset := range SimAssets(issuer) {
		env.Ledger.RegisterAsset(asset, uint32(6+i%3))
	}

	accs := simtypes.RandomAccounts(r, numAccs)
	for _, acc := range accs {
		var coins sdk.Coins
		for _, asset := range SimAssets(issuer) {
			coins = coins.Add(sdk.NewCoin(asset.Denom(), math.NewInt(int64(simtypes.RandIntBetween(r, 1_000_000, 1_000_000_000)))))
		}
		if err := env.Ledger.Mint(env.Ctx, acc.Address, coins); err != nil {
			return RandomSummary{}, err
		}
	}

	ops := WeightedOperations(issuer)
	totalWeight := 0
	for _, op := range ops {
		totalWeight += op.Weight
	}
	invariants := keeper.AllInvariants(*env.Keeper)

	summary := RandomSummary{Skipped: make(map[string]int)}
	for i := 0; i < numOps; i++ {
		pick := r.Intn(totalWeight)
		var op Operation
		for _, w := range ops {
			if pick < w.Weight {
				op = w.Op
				break
			}
			pick -= w.Weight
		}

		opMsg, err := op(r, env, accs)
		if err != nil {
			return summary, fmt.Errorf("op %d (%s): %w", i, opMsg.Name, err)
		}
		summary.Ops++
		if opMsg.OK {
			summary.Committed++
		} else {
			summary.Skipped[opMsg.Name]++
		}
		if msg, broken := invariants(env.Ctx); broken {
			return summary, fmt.Errorf("op %d (%s): invariant broken: %s", i, opMsg.Name, msg)
		}
		env.Commit()
	}
	return summary, nil
}

// deliverOp runs msgs as acc and maps expected rejections to a no-op.
func deliverOp(env *Env, acc simtypes.Account, msgType string, msgs ...types.Msg) (simtypes.OperationMsg, error) {
	signer := acc.Address.String()
	if _, err := env.Deliver([]string{signer}, msgs...); err != nil {
		// a rejected transaction is rolled back; the invariants decide
		// whether it left anything behind
		if types.ClassOf(err) != types.ClassUnknown || errors.Is(err, sdkerrors.ErrInsufficientFunds) {
			return simtypes.NoOpMsg(types.ModuleName, msgType, err.Error()), nil
		}
		return simtypes.NoOpMsg(types.ModuleName, msgType, ""), err
	}
	return simtypes.OperationMsg{Route: types.ModuleName, Name: msgType, OK: true}, nil
}

func randomPool(r *rand.Rand, env *Env) (types.Pool, bool) {
	pools, err := env.Keeper.GetAllPools(env.Ctx)
	if err != nil || len(pools) == 0 {
		return types.Pool{}, false
	}
	return pools[r.Intn(len(pools))], true
}

// SimulateRegisterPair registers a random pair of simulated assets.
func SimulateRegisterPair(issuer string) Operation {
	return func(r *rand.Rand, env *Env, accs []simtypes.Account) (simtypes.OperationMsg, error) {
		acc, _ := simtypes.RandomAcc(r, accs)
		assets := SimAssets(issuer)
		a := assets[r.Intn(len(assets))]
		b := assets[r.Intn(len(assets))]
		if a.Equal(b) {
			return simtypes.NoOpMsg(types.ModuleName, "register_pair", "same asset"), nil
		}
		return deliverOp(env, acc, "register_pair",
			&types.MsgRegisterPair{Creator: acc.Address.String(), AssetA: a, AssetB: b})
	}
}

// SimulateAddLiquidity stages both legs of a deposit and finalizes it in one
// transaction.
func SimulateAddLiquidity() Operation {
	return func(r *rand.Rand, env *Env, accs []simtypes.Account) (simtypes.OperationMsg, error) {
		pool, ok := randomPool(r, env)
		if !ok {
			return simtypes.NoOpMsg(types.ModuleName, "add_liquidity", "no pools"), nil
		}
		acc, _ := simtypes.RandomAcc(r, accs)
		provider := acc.Address.String()
		memo := types.AddLiquidityMemo(pool.ID)
		amountA := math.NewInt(int64(simtypes.RandIntBetween(r, 1_000, 10_000_000)))
		amountB := math.NewInt(int64(simtypes.RandIntBetween(r, 1_000, 10_000_000)))
		return deliverOp(env, acc, "add_liquidity",
			types.NewMsgTransfer(provider, types.NewAssetAmount(pool.AssetA, amountA), memo),
			types.NewMsgTransfer(provider, types.NewAssetAmount(pool.AssetB, amountB), memo),
			&types.MsgFinalizeAddLiquidity{Provider: provider, PoolID: pool.ID},
		)
	}
}

// SimulateRemoveLiquidity redeems part of a random provider's position.
func SimulateRemoveLiquidity() Operation {
	return func(r *rand.Rand, env *Env, accs []simtypes.Account) (simtypes.OperationMsg, error) {
		pool, ok := randomPool(r, env)
		if !ok {
			return simtypes.NoOpMsg(types.ModuleName, "remove_liquidity", "no pools"), nil
		}
		positions, err := env.Keeper.GetPoolPositions(env.Ctx, pool.ID)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, "remove_liquidity", ""), err
		}
		if len(positions) == 0 {
			return simtypes.NoOpMsg(types.ModuleName, "remove_liquidity", "no positions"), nil
		}
		pos := positions[r.Intn(len(positions))]
		var acc simtypes.Account
		found := false
		for _, a := range accs {
			if a.Address.String() == pos.Owner {
				acc, found = a, true
				break
			}
		}
		if !found || !pos.Shares.IsPositive() {
			return simtypes.NoOpMsg(types.ModuleName, "remove_liquidity", "owner not simulated"), nil
		}

		shares := pos.Shares
		if r.Intn(4) != 0 {
			// partial redemption, at least one share
			shares = shares.QuoRaw(int64(simtypes.RandIntBetween(r, 2, 10)))
			if !shares.IsPositive() {
				shares = math.OneInt()
			}
		}
		return deliverOp(env, acc, "remove_liquidity",
			&types.MsgRemoveLiquidity{Provider: pos.Owner, PoolID: pool.ID, Shares: shares})
	}
}

// SimulateSwap swaps a random amount through one or two pools with a loose
// slippage bound.
func SimulateSwap() Operation {
	return func(r *rand.Rand, env *Env, accs []simtypes.Account) (simtypes.OperationMsg, error) {
		pool, ok := randomPool(r, env)
		if !ok || pool.IsEmpty() {
			return simtypes.NoOpMsg(types.ModuleName, "swap", "no liquid pool"), nil
		}
		acc, _ := simtypes.RandomAcc(r, accs)
		trader := acc.Address.String()

		side := types.Side(r.Intn(2) + 1)
		in := pool.Asset(side)
		route := []uint64{pool.ID}
		if next, ok := randomPool(r, env); ok && next.ID != pool.ID && !next.IsEmpty() &&
			next.SideOf(pool.Asset(side.Opposite())) != types.SideNone {
			route = append(route, next.ID)
		}

		// keep the input small relative to the reserve so most swaps clear
		ceiling := pool.Reserve(side).QuoRaw(20)
		if !ceiling.IsPositive() {
			return simtypes.NoOpMsg(types.ModuleName, "swap", "reserve too small"), nil
		}
		amount := math.NewInt(1 + r.Int63n(min64(ceiling, 1_000_000_000)))
		memo := types.SwapMemo(uint64(r.Int63()), uint32(simtypes.RandIntBetween(r, 500, 5_000)), route...)
		return deliverOp(env, acc, "swap",
			types.NewMsgTransfer(trader, types.NewAssetAmount(in, amount), memo))
	}
}

func min64(x math.Int, cap int64) int64 {
	if x.IsInt64() && x.Int64() < cap {
		return x.Int64()
	}
	return cap
}
