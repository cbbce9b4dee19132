package types

import (
	"time"

	"cosmossdk.io/math"
)

// Liquidity audit kinds.
const (
	LiquidityDeposit  = "deposit"
	LiquidityWithdraw = "withdraw"
)

// SwapAuditEntry records one hop of a swap.
type SwapAuditEntry struct {
	ID            uint64         `json:"id"`
	ClientRef     uint64         `json:"client_ref"`
	Trader        string         `json:"trader"`
	PoolID        uint64         `json:"pool_id"`
	Hop           uint32         `json:"hop"`
	In            AssetAmount    `json:"in"`
	Out           AssetAmount    `json:"out"`
	ProtocolFee   math.Int       `json:"protocol_fee"`
	Price         math.LegacyDec `json:"price"`
	CorrelationID string         `json:"correlation_id"`
	Timestamp     time.Time      `json:"timestamp"`
}

// LiquidityAuditEntry records a deposit or a withdrawal.
type LiquidityAuditEntry struct {
	ID            uint64      `json:"id"`
	Kind          string      `json:"kind"`
	Provider      string      `json:"provider"`
	PoolID        uint64      `json:"pool_id"`
	AmountA       AssetAmount `json:"amount_a"`
	AmountB       AssetAmount `json:"amount_b"`
	Shares        math.Int    `json:"shares"`
	BalanceShares math.Int    `json:"balance_shares"`
	CorrelationID string      `json:"correlation_id"`
	Timestamp     time.Time   `json:"timestamp"`
}
