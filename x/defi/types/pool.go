package types

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
)

// Side selects one of the two reserves of a pool.
type Side int32

const (
	SideNone Side = iota
	SideA
	SideB
)

// Opposite returns the other side of the pool.
func (s Side) Opposite() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "none"
	}
}

// Pool is a two-asset constant-product liquidity pool. A zero price means the
// price is undefined, which holds exactly while the pool is empty.
type Pool struct {
	ID              uint64         `json:"id"`
	AssetA          AssetRef       `json:"asset_a"`
	AssetB          AssetRef       `json:"asset_b"`
	PrecisionA      uint32         `json:"precision_a"`
	PrecisionB      uint32         `json:"precision_b"`
	ReserveA        math.Int       `json:"reserve_a"`
	ReserveB        math.Int       `json:"reserve_b"`
	TotalShares     math.Int       `json:"total_shares"`
	PriceAInB       math.LegacyDec `json:"price_a_in_b"`
	PriceBInA       math.LegacyDec `json:"price_b_in_a"`
	SwapWeight      math.LegacyDec `json:"swap_weight"`
	LiquidityWeight math.LegacyDec `json:"liquidity_weight"`
	CreatedAt       time.Time      `json:"created_at"`
}

// NewPool returns an empty pool with undefined prices.
func NewPool(id uint64, assetA, assetB AssetRef, precA, precB uint32, createdAt time.Time) Pool {
	return Pool{
		ID:              id,
		AssetA:          assetA,
		AssetB:          assetB,
		PrecisionA:      precA,
		PrecisionB:      precB,
		ReserveA:        math.ZeroInt(),
		ReserveB:        math.ZeroInt(),
		TotalShares:     math.ZeroInt(),
		PriceAInB:       math.LegacyZeroDec(),
		PriceBInA:       math.LegacyZeroDec(),
		SwapWeight:      math.LegacyZeroDec(),
		LiquidityWeight: math.LegacyZeroDec(),
		CreatedAt:       createdAt.UTC(),
	}
}

// SideOf returns which side holds asset.
func (p Pool) SideOf(asset AssetRef) Side {
	switch {
	case p.AssetA.Equal(asset):
		return SideA
	case p.AssetB.Equal(asset):
		return SideB
	default:
		return SideNone
	}
}

// Asset returns the asset on side s.
func (p Pool) Asset(s Side) AssetRef {
	if s == SideA {
		return p.AssetA
	}
	return p.AssetB
}

// Reserve returns the reserve on side s.
func (p Pool) Reserve(s Side) math.Int {
	if s == SideA {
		return p.ReserveA
	}
	return p.ReserveB
}

// Precision returns the decimal precision on side s.
func (p Pool) Precision(s Side) uint32 {
	if s == SideA {
		return p.PrecisionA
	}
	return p.PrecisionB
}

// SetReserve replaces the reserve on side s.
func (p *Pool) SetReserve(s Side, amount math.Int) {
	if s == SideA {
		p.ReserveA = amount
	} else {
		p.ReserveB = amount
	}
}

// PriceOf returns how much of the opposite asset one display unit of side s buys.
func (p Pool) PriceOf(s Side) math.LegacyDec {
	if s == SideA {
		return p.PriceAInB
	}
	return p.PriceBInA
}

// IsEmpty reports whether the pool holds no liquidity.
func (p Pool) IsEmpty() bool {
	return p.TotalShares.IsZero()
}

// HasPrice reports whether both directional prices are defined.
func (p Pool) HasPrice() bool {
	return p.PriceAInB.IsPositive() && p.PriceBInA.IsPositive()
}

// RefreshPrices recomputes both prices from the reserves, or clears them when
// the pool is empty.
func (p *Pool) RefreshPrices() error {
	if p.IsEmpty() || !p.ReserveA.IsPositive() || !p.ReserveB.IsPositive() {
		p.PriceAInB = math.LegacyZeroDec()
		p.PriceBInA = math.LegacyZeroDec()
		return nil
	}
	aInB, err := SpotPrice(p.ReserveA, p.ReserveB, p.PrecisionA, p.PrecisionB)
	if err != nil {
		return err
	}
	bInA, err := SpotPrice(p.ReserveB, p.ReserveA, p.PrecisionB, p.PrecisionA)
	if err != nil {
		return err
	}
	p.PriceAInB, p.PriceBInA = aInB, bInA
	return nil
}

// ConstantProduct returns reserveA * reserveB.
func (p Pool) ConstantProduct() math.Int {
	return p.ReserveA.Mul(p.ReserveB)
}

// Validate checks the pool's internal consistency.
func (p Pool) Validate() error {
	if p.ID == 0 {
		return fmt.Errorf("pool id must be positive")
	}
	if p.AssetA.Equal(p.AssetB) {
		return fmt.Errorf("pool %d: assets must differ", p.ID)
	}
	if err := p.AssetA.Validate(); err != nil {
		return fmt.Errorf("pool %d: %w", p.ID, err)
	}
	if err := p.AssetB.Validate(); err != nil {
		return fmt.Errorf("pool %d: %w", p.ID, err)
	}
	if p.PrecisionA > MaxPrecision || p.PrecisionB > MaxPrecision {
		return fmt.Errorf("pool %d: precision above %d", p.ID, MaxPrecision)
	}
	if p.ReserveA.IsNegative() || p.ReserveB.IsNegative() || p.TotalShares.IsNegative() {
		return fmt.Errorf("pool %d: reserves and shares must be non-negative", p.ID)
	}
	empty := p.ReserveA.IsZero() && p.ReserveB.IsZero()
	if p.TotalShares.IsZero() != empty {
		return fmt.Errorf("pool %d: shares %s inconsistent with reserves %s/%s",
			p.ID, p.TotalShares, p.ReserveA, p.ReserveB)
	}
	if p.SwapWeight.IsNegative() || p.LiquidityWeight.IsNegative() {
		return fmt.Errorf("pool %d: weights must be non-negative", p.ID)
	}
	return nil
}

// WeightKind selects which pool weight MsgSetWeight updates.
type WeightKind uint32

const (
	WeightKindLiquidity WeightKind = 1
	WeightKindSwap      WeightKind = 2
)

func (w WeightKind) String() string {
	switch w {
	case WeightKindLiquidity:
		return "liquidity"
	case WeightKindSwap:
		return "swap"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(w))
	}
}
