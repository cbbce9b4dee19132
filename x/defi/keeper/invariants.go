package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// RegisterInvariants registers all defi invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "position-shares", PositionSharesInvariant(k))
	ir.RegisterRoute(types.ModuleName, "pool-reserves", PoolReservesInvariant(k))
	ir.RegisterRoute(types.ModuleName, "price-reciprocity", PriceReciprocityInvariant(k))
	ir.RegisterRoute(types.ModuleName, "ring-capacity", RingCapacityInvariant(k))
	ir.RegisterRoute(types.ModuleName, "module-solvency", ModuleSolvencyInvariant(k))
}

// AllInvariants runs all invariants of the defi module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{
			PositionSharesInvariant(k),
			PoolReservesInvariant(k),
			PriceReciprocityInvariant(k),
			RingCapacityInvariant(k),
			ModuleSolvencyInvariant(k),
		} {
			if res, stop := inv(ctx); stop {
				return res, stop
			}
		}
		return "", false
	}
}

// PositionSharesInvariant checks that the positions of every pool add up to
// its total shares.
func PositionSharesInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		pools, err := k.GetAllPools(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "position-shares", err.Error()), true
		}
		for _, pool := range pools {
			sum := math.ZeroInt()
			err := k.IteratePositions(ctx, pool.ID, func(pos types.Position) bool {
				sum = sum.Add(pos.Shares)
				return false
			})
			if err != nil {
				count++
				msg += fmt.Sprintf("pool %d: %s\n", pool.ID, err)
				continue
			}
			if !sum.Equal(pool.TotalShares) {
				count++
				msg += fmt.Sprintf("pool %d: positions hold %s shares, pool total %s\n",
					pool.ID, sum, pool.TotalShares)
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "position-shares",
			fmt.Sprintf("found %d pools with mismatched shares\n%s", count, msg),
		), broken
	}
}

// PoolReservesInvariant checks that reserves are non-negative and empty
// exactly when no shares are outstanding.
func PoolReservesInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		pools, err := k.GetAllPools(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "pool-reserves", err.Error()), true
		}
		for _, pool := range pools {
			if err := pool.Validate(); err != nil {
				count++
				msg += err.Error() + "\n"
			}
			if pool.IsEmpty() && (!pool.PriceAInB.IsZero() || !pool.PriceBInA.IsZero()) {
				count++
				msg += fmt.Sprintf("pool %d: empty pool keeps prices %s / %s\n",
					pool.ID, pool.PriceAInB, pool.PriceBInA)
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "pool-reserves",
			fmt.Sprintf("found %d inconsistent pools\n%s", count, msg),
		), broken
	}
}

// PriceReciprocityInvariant checks that both directional prices of a pool
// multiply to one within truncation error.
func PriceReciprocityInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		ulp := math.LegacyNewDecWithPrec(1, 17)
		pools, err := k.GetAllPools(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "price-reciprocity", err.Error()), true
		}
		for _, pool := range pools {
			if !pool.HasPrice() {
				continue
			}
			product := pool.PriceAInB.Mul(pool.PriceBInA)
			tolerance := pool.PriceAInB.Add(pool.PriceBInA).Add(math.LegacyOneDec()).Mul(ulp)
			if product.Sub(math.LegacyOneDec()).Abs().GT(tolerance) {
				count++
				msg += fmt.Sprintf("pool %d: %s * %s = %s\n",
					pool.ID, pool.PriceAInB, pool.PriceBInA, product)
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "price-reciprocity",
			fmt.Sprintf("found %d pools with inconsistent prices\n%s", count, msg),
		), broken
	}
}

// RingCapacityInvariant checks that no audit log holds more than its cap.
func RingCapacityInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		params := k.GetParams(ctx)
		for _, log := range []struct {
			name     string
			prefix   []byte
			capacity uint64
		}{
			{"swap", types.SwapLogKeyPrefix, params.SwapLogCap},
			{"liquidity", types.LiquidityLogKeyPrefix, params.LiquidityLogCap},
			{"delegation", types.DelegationLogKeyPrefix, params.DelegationLogCap},
		} {
			if n := k.logLen(ctx, log.prefix); n > log.capacity {
				count++
				msg += fmt.Sprintf("%s log holds %d entries, cap %d\n", log.name, n, log.capacity)
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "ring-capacity",
			fmt.Sprintf("found %d oversized logs\n%s", count, msg),
		), broken
	}
}

// ModuleSolvencyInvariant checks that the module account, together with the
// reserves still lent to a venue, covers every pool reserve.
func ModuleSolvencyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg   string
			count int
		)

		pools, err := k.GetAllPools(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "module-solvency", err.Error()), true
		}
		owed := make(map[string]math.Int)
		var denoms []string
		add := func(denom string, amt math.Int) {
			if cur, ok := owed[denom]; ok {
				owed[denom] = cur.Add(amt)
				return
			}
			owed[denom] = amt
			denoms = append(denoms, denom)
		}
		for _, pool := range pools {
			add(pool.AssetA.Denom(), pool.ReserveA)
			add(pool.AssetB.Denom(), pool.ReserveB)
		}

		outstanding := make(map[string]math.Int)
		session, found, err := k.GetActiveDelegation(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "module-solvency", err.Error()), true
		}
		if found {
			outstanding[session.LentA.Asset.Denom()] = session.Shortfall(types.SideA)
			outstanding[session.LentB.Asset.Denom()] = session.Shortfall(types.SideB)
		}

		moduleAddr := k.GetModuleAddress()
		for _, denom := range denoms {
			held := k.bankKeeper.GetBalance(ctx, moduleAddr, denom).Amount
			if lent, ok := outstanding[denom]; ok {
				held = held.Add(lent)
			}
			if held.LT(owed[denom]) {
				count++
				msg += fmt.Sprintf("%s: module holds %s, reserves total %s\n", denom, held, owed[denom])
			}
		}

		broken := count != 0
		return sdk.FormatInvariant(
			types.ModuleName, "module-solvency",
			fmt.Sprintf("found %d under-collateralized denoms\n%s", count, msg),
		), broken
	}
}
