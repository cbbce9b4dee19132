package types

import (
	"strconv"
	"strings"
)

// Memo actions understood on inbound transfers.
const (
	MemoActionSwap         = "swap"
	MemoActionAddLiquidity = "addliquidity"
	MemoActionMarketSettle = "marketsettle"
)

// MemoKind classifies an inbound transfer memo.
type MemoKind int

const (
	// MemoOther is any memo without a recognized action. Such transfers are forwarded.
	MemoOther MemoKind = iota
	MemoSwap
	MemoAddLiquidity
	MemoMarketSettle
)

// Memo is a parsed inbound transfer memo.
type Memo struct {
	Kind           MemoKind
	Raw            string
	ClientRef      uint64
	MaxSlippageBps uint32
	Route          []uint64
	PoolID         uint64
}

// ParseMemo parses
//
//	swap,<clientRef>,<maxSlippageBps>,<poolId>[-<poolId>...]
//	addliquidity,<poolId>
//	marketsettle
//
// Any other memo parses as MemoOther. A memo that starts with a known action
// but is malformed returns ErrInvalidMemo.
func ParseMemo(raw string) (Memo, error) {
	parts := strings.Split(raw, ",")
	memo := Memo{Kind: MemoOther, Raw: raw}

	switch parts[0] {
	case MemoActionSwap:
		if len(parts) != 4 {
			return memo, ErrInvalidMemo.Wrapf("swap memo needs 4 fields, got %d", len(parts))
		}
		clientRef, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return memo, ErrInvalidMemo.Wrapf("client reference %q: %s", parts[1], err)
		}
		bps, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil {
			return memo, ErrInvalidMemo.Wrapf("slippage %q: %s", parts[2], err)
		}
		if bps > BasisPointsDenominator {
			return memo, ErrInvalidSlippage.Wrapf("slippage %d bps above %d", bps, BasisPointsDenominator)
		}
		route, err := ParseRoute(parts[3])
		if err != nil {
			return memo, err
		}
		memo.Kind = MemoSwap
		memo.ClientRef = clientRef
		memo.MaxSlippageBps = uint32(bps)
		memo.Route = route

	case MemoActionAddLiquidity:
		if len(parts) != 2 {
			return memo, ErrInvalidMemo.Wrapf("addliquidity memo needs 2 fields, got %d", len(parts))
		}
		poolID, err := parsePoolID(parts[1])
		if err != nil {
			return memo, err
		}
		memo.Kind = MemoAddLiquidity
		memo.PoolID = poolID

	case MemoActionMarketSettle:
		if len(parts) != 1 {
			return memo, ErrInvalidMemo.Wrap("marketsettle memo takes no fields")
		}
		memo.Kind = MemoMarketSettle
	}

	return memo, nil
}

// ParseRoute parses a dash-separated list of pool ids.
func ParseRoute(s string) ([]uint64, error) {
	if s == "" {
		return nil, ErrInvalidRoute.Wrap("route is empty")
	}
	fields := strings.Split(s, "-")
	route := make([]uint64, 0, len(fields))
	for _, f := range fields {
		id, err := parsePoolID(f)
		if err != nil {
			return nil, ErrInvalidRoute.Wrapf("route %q: %s", s, err)
		}
		route = append(route, id)
	}
	return route, nil
}

func parsePoolID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidMemo.Wrapf("pool id %q must be a positive integer", s)
	}
	return id, nil
}

// SwapMemo builds the memo that routes a transfer into the swap engine.
func SwapMemo(clientRef uint64, maxSlippageBps uint32, route ...uint64) string {
	ids := make([]string, len(route))
	for i, id := range route {
		ids[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join([]string{
		MemoActionSwap,
		strconv.FormatUint(clientRef, 10),
		strconv.FormatUint(uint64(maxSlippageBps), 10),
		strings.Join(ids, "-"),
	}, ",")
}

// AddLiquidityMemo builds the memo for one deposit leg.
func AddLiquidityMemo(poolID uint64) string {
	return MemoActionAddLiquidity + "," + strconv.FormatUint(poolID, 10)
}
