package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// VenueKind selects the delegation strategy of a venue.
type VenueKind string

const (
	// VenueTransferFirst venues take the funding legs before the deposit call
	// and issue LP tokens back.
	VenueTransferFirst VenueKind = "transfer-first"
	// VenueCallFirst venues take the deposit call before the funding legs and
	// are exited with a withdraw call.
	VenueCallFirst VenueKind = "call-first"
)

// VenueConfig describes an external market-making venue.
type VenueConfig struct {
	Name            string    `json:"name" yaml:"name"`
	Kind            VenueKind `json:"kind" yaml:"kind"`
	Account         string    `json:"account" yaml:"account"`
	LPIssuer        string    `json:"lp_issuer" yaml:"lp_issuer"`
	RewardSource    string    `json:"reward_source" yaml:"reward_source"`
	ProfitRecipient string    `json:"profit_recipient" yaml:"profit_recipient"`
	RefundTag       string    `json:"refund_tag" yaml:"refund_tag"`
	WithdrawTag     string    `json:"withdraw_tag" yaml:"withdraw_tag"`
	LPIssueTag      string    `json:"lp_issue_tag" yaml:"lp_issue_tag"`
}

// Validate checks the venue configuration.
func (v VenueConfig) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("venue name is required")
	}
	switch v.Kind {
	case VenueTransferFirst:
		if _, err := sdk.AccAddressFromBech32(v.LPIssuer); err != nil {
			return fmt.Errorf("venue %s: lp issuer: %w", v.Name, err)
		}
		if v.LPIssueTag == "" {
			return fmt.Errorf("venue %s: lp issue tag is required", v.Name)
		}
	case VenueCallFirst:
	default:
		return fmt.Errorf("venue %s: unknown kind %q", v.Name, v.Kind)
	}
	for field, addr := range map[string]string{
		"account":          v.Account,
		"reward source":    v.RewardSource,
		"profit recipient": v.ProfitRecipient,
	} {
		if _, err := sdk.AccAddressFromBech32(addr); err != nil {
			return fmt.Errorf("venue %s: %s: %w", v.Name, field, err)
		}
	}
	if v.RefundTag == "" || v.WithdrawTag == "" {
		return fmt.Errorf("venue %s: refund and withdraw tags are required", v.Name)
	}
	return nil
}

// Params defines the parameters for the defi module
type Params struct {
	NativeAsset       AssetRef       `json:"native_asset"`
	SwapFee           math.LegacyDec `json:"swap_fee"`
	FundFee           math.LegacyDec `json:"fund_fee"`
	DividendFee       math.LegacyDec `json:"dividend_fee"`
	FundCollector     string         `json:"fund_collector"`
	DividendCollector string         `json:"dividend_collector"`
	HoldingAccount    string         `json:"holding_account"`
	RewardTarget      string         `json:"reward_target"`
	MinSwapReward     math.Int       `json:"min_swap_reward"`
	MaxRouteHops      uint32         `json:"max_route_hops"`
	PegPoolID         uint64         `json:"peg_pool_id"`
	Venues            []VenueConfig  `json:"venues"`
	BlockedIssuers    []string       `json:"blocked_issuers"`
	SwapLogCap        uint64         `json:"swap_log_cap"`
	LiquidityLogCap   uint64         `json:"liquidity_log_cap"`
	DelegationLogCap  uint64         `json:"delegation_log_cap"`
}

// Default parameter values
var (
	DefaultNativeAsset  = NewAssetRef("eosio.token", "EOS")
	DefaultSwapFee      = math.LegacyNewDecWithPrec(1, 3) // 0.1%
	DefaultFundFee      = math.LegacyNewDecWithPrec(1, 3) // 0.1%
	DefaultDividendFee  = math.LegacyNewDecWithPrec(1, 3) // 0.1%
	DefaultRewardTarget = "mine"
	DefaultMinReward    = math.NewInt(10_000)
)

const (
	DefaultMaxRouteHops     = 8
	DefaultSwapLogCap       = 200
	DefaultLiquidityLogCap  = 200
	DefaultDelegationLogCap = 100
)

// DefaultParams returns default parameters
func DefaultParams() Params {
	return Params{
		NativeAsset:       DefaultNativeAsset,
		SwapFee:           DefaultSwapFee,
		FundFee:           DefaultFundFee,
		DividendFee:       DefaultDividendFee,
		FundCollector:     authtypes.NewModuleAddress(ModuleName + "_fund").String(),
		DividendCollector: authtypes.NewModuleAddress(ModuleName + "_dividend").String(),
		HoldingAccount:    authtypes.NewModuleAddress(ModuleName + "_holding").String(),
		RewardTarget:      DefaultRewardTarget,
		MinSwapReward:     DefaultMinReward,
		MaxRouteHops:      DefaultMaxRouteHops,
		PegPoolID:         0,
		Venues:            []VenueConfig{},
		BlockedIssuers:    []string{},
		SwapLogCap:        DefaultSwapLogCap,
		LiquidityLogCap:   DefaultLiquidityLogCap,
		DelegationLogCap:  DefaultDelegationLogCap,
	}
}

// Validate validates the params
func (p Params) Validate() error {
	if err := p.NativeAsset.Validate(); err != nil {
		return fmt.Errorf("native asset: %w", err)
	}
	for name, fee := range map[string]math.LegacyDec{
		"swap fee":     p.SwapFee,
		"fund fee":     p.FundFee,
		"dividend fee": p.DividendFee,
	} {
		if fee.IsNil() || fee.IsNegative() || fee.GTE(math.LegacyOneDec()) {
			return fmt.Errorf("%s must be in [0,1)", name)
		}
	}
	if p.FundFee.Add(p.DividendFee).GTE(math.LegacyOneDec()) {
		return fmt.Errorf("protocol fees must sum below 1")
	}
	for name, addr := range map[string]string{
		"fund collector":     p.FundCollector,
		"dividend collector": p.DividendCollector,
		"holding account":    p.HoldingAccount,
	} {
		if _, err := sdk.AccAddressFromBech32(addr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if p.RewardTarget == "" {
		return fmt.Errorf("reward target is required")
	}
	if p.MinSwapReward.IsNil() || p.MinSwapReward.IsNegative() {
		return fmt.Errorf("min swap reward must be non-negative")
	}
	if p.MaxRouteHops == 0 {
		return fmt.Errorf("max route hops must be positive")
	}
	if p.SwapLogCap == 0 || p.LiquidityLogCap == 0 || p.DelegationLogCap == 0 {
		return fmt.Errorf("audit log capacities must be positive")
	}
	seen := make(map[string]struct{}, len(p.Venues))
	for _, v := range p.Venues {
		if err := v.Validate(); err != nil {
			return err
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("duplicate venue %s", v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	return nil
}

// Venue returns the venue configured under name.
func (p Params) Venue(name string) (VenueConfig, bool) {
	for _, v := range p.Venues {
		if v.Name == name {
			return v, true
		}
	}
	return VenueConfig{}, false
}

// VenueBySender returns the venue that owns addr, if any.
func (p Params) VenueBySender(addr string) (VenueConfig, bool) {
	for _, v := range p.Venues {
		if v.Account == addr || v.LPIssuer == addr || v.RewardSource == addr {
			return v, true
		}
	}
	return VenueConfig{}, false
}

// IsBlockedIssuer reports whether new pairs may not use assets of issuer.
func (p Params) IsBlockedIssuer(issuer string) bool {
	for _, b := range p.BlockedIssuers {
		if b == issuer {
			return true
		}
	}
	return false
}
