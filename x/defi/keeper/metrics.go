package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefiMetrics holds all Prometheus metrics for the defi module
type DefiMetrics struct {
	// Settlement metrics
	TxTotal   *prometheus.CounterVec
	TxLatency prometheus.Histogram

	// Swap metrics
	SwapHops     *prometheus.CounterVec
	SwapVolume   *prometheus.CounterVec
	ProtocolFees *prometheus.CounterVec
	SwapRewards  *prometheus.CounterVec
	SwapSlippage *prometheus.CounterVec

	// Liquidity metrics
	LiquidityEvents *prometheus.CounterVec
	StagedLegs      *prometheus.CounterVec
	PoolReserves    *prometheus.GaugeVec
	PoolsTotal      prometheus.Gauge

	// Delegation metrics
	DelegationTransitions *prometheus.CounterVec
}

var (
	defiMetricsOnce sync.Once
	defiMetrics     *DefiMetrics
)

// NewDefiMetrics creates and registers defi metrics (singleton pattern)
func NewDefiMetrics() *DefiMetrics {
	defiMetricsOnce.Do(func() {
		defiMetrics = &DefiMetrics{
			TxTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "settlement_tx_total",
					Help:      "Settlement transactions by outcome",
				},
				[]string{"outcome"},
			),
			TxLatency: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "settlement_tx_seconds",
					Help:      "Time spent executing a settlement transaction",
					Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
				},
			),
			SwapHops: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "swap_hops_total",
					Help:      "Swap hops executed per pool",
				},
				[]string{"pool_id"},
			),
			SwapVolume: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "swap_volume_total",
					Help:      "Swap input volume in raw units",
				},
				[]string{"pool_id", "denom"},
			),
			ProtocolFees: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "protocol_fees_total",
					Help:      "Protocol fees paid to collectors in raw units",
				},
				[]string{"collector", "denom"},
			),
			SwapRewards: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "swap_rewards_total",
					Help:      "Swap-mining reward decisions",
				},
				[]string{"outcome"},
			),
			SwapSlippage: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "swap_slippage_rejections_total",
					Help:      "Swap hops rejected by the slippage bound",
				},
				[]string{"pool_id"},
			),
			LiquidityEvents: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "liquidity_events_total",
					Help:      "Deposits and withdrawals per pool",
				},
				[]string{"pool_id", "kind"},
			),
			StagedLegs: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "staged_deposit_legs_total",
					Help:      "Deposit legs by staging outcome",
				},
				[]string{"outcome"},
			),
			PoolReserves: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "pool_reserve",
					Help:      "Pool reserve in raw units",
				},
				[]string{"pool_id", "side"},
			),
			PoolsTotal: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "pools",
					Help:      "Registered pools",
				},
			),
			DelegationTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "onesdefi",
					Subsystem: "defi",
					Name:      "delegation_transitions_total",
					Help:      "Delegation session state transitions",
				},
				[]string{"venue", "status"},
			),
		}
	})
	return defiMetrics
}
