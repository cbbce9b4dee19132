package simulation

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/onesgame/onesdefi/x/defi/auditsink"
	"github.com/onesgame/onesdefi/x/defi/keeper"
	"github.com/onesgame/onesdefi/x/defi/types"
)

// AuthorityName is the account name scenarios use for the operations identity.
const AuthorityName = "authority"

// Scenario is a scripted sequence of settlement transactions.
type Scenario struct {
	Name      string                   `yaml:"name"`
	Authority string                   `yaml:"authority"`
	Params    ParamsOverride           `yaml:"params"`
	Assets    []AssetSpec              `yaml:"assets"`
	Accounts  map[string][]BalanceSpec `yaml:"accounts"`
	Txs       []TxSpec                 `yaml:"txs"`
}

// AssetSpec registers an asset with the simulated bank.
type AssetSpec struct {
	Issuer    string `yaml:"issuer"`
	Symbol    string `yaml:"symbol"`
	Precision uint32 `yaml:"precision"`
}

// BalanceSpec is an initial balance. Asset is written issuer/symbol.
type BalanceSpec struct {
	Asset  string `yaml:"asset"`
	Amount string `yaml:"amount"`
}

// ParamsOverride replaces the non-empty fields of the default params.
type ParamsOverride struct {
	NativeAsset      string              `yaml:"native_asset"`
	SwapFee          string              `yaml:"swap_fee"`
	FundFee          string              `yaml:"fund_fee"`
	DividendFee      string              `yaml:"dividend_fee"`
	RewardTarget     string              `yaml:"reward_target"`
	MinSwapReward    string              `yaml:"min_swap_reward"`
	MaxRouteHops     uint32              `yaml:"max_route_hops"`
	PegPoolID        uint64              `yaml:"peg_pool_id"`
	Venues           []types.VenueConfig `yaml:"venues"`
	BlockedIssuers   []string            `yaml:"blocked_issuers"`
	SwapLogCap       uint64              `yaml:"swap_log_cap"`
	LiquidityLogCap  uint64              `yaml:"liquidity_log_cap"`
	DelegationLogCap uint64              `yaml:"delegation_log_cap"`
}

// TxSpec is one settlement transaction. Every msg acts as Signer. Expect is
// "ok" (the default) or the error class the transaction must fail with.
type TxSpec struct {
	Name   string    `yaml:"name"`
	Signer string    `yaml:"signer"`
	Expect string    `yaml:"expect"`
	Msgs   []MsgSpec `yaml:"msgs"`
}

// MsgSpec holds exactly one msg.
type MsgSpec struct {
	Transfer             *TransferSpec `yaml:"transfer"`
	RegisterPair         *PairSpec     `yaml:"register_pair"`
	FinalizeAddLiquidity *PoolSpec     `yaml:"finalize_add_liquidity"`
	RemoveLiquidity      *SharesSpec   `yaml:"remove_liquidity"`
	SetWeight            *WeightSpec   `yaml:"set_weight"`
	RemovePool           *PoolSpec     `yaml:"remove_pool"`
	Delegate             *DelegateSpec `yaml:"delegate"`
	ExitDelegation       *ExitSpec     `yaml:"exit_delegation"`
	ClaimDelegation      *struct{}     `yaml:"claim_delegation"`
	SettleDelegation     *struct{}     `yaml:"settle_delegation"`
}

type TransferSpec struct {
	Asset  string `yaml:"asset"`
	Amount string `yaml:"amount"`
	Memo   string `yaml:"memo"`
}

type PairSpec struct {
	AssetA string `yaml:"asset_a"`
	AssetB string `yaml:"asset_b"`
}

type PoolSpec struct {
	PoolID uint64 `yaml:"pool_id"`
}

type SharesSpec struct {
	PoolID uint64 `yaml:"pool_id"`
	Shares string `yaml:"shares"`
}

type WeightSpec struct {
	PoolID uint64 `yaml:"pool_id"`
	Kind   string `yaml:"kind"`
	Weight string `yaml:"weight"`
}

type DelegateSpec struct {
	PoolID    uint64 `yaml:"pool_id"`
	Venue     string `yaml:"venue"`
	VenuePool uint64 `yaml:"venue_pool"`
	AmountA   string `yaml:"amount_a"`
	AmountB   string `yaml:"amount_b"`
}

type ExitSpec struct {
	Memo   string `yaml:"memo"`
	Amount string `yaml:"amount"`
}

// TxOutcome is the result of one scenario transaction.
type TxOutcome struct {
	Name          string `json:"name" yaml:"name"`
	CorrelationID string `json:"correlation_id,omitempty" yaml:"correlation_id,omitempty"`
	Effects       int    `json:"effects" yaml:"effects"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
	Class         string `json:"class,omitempty" yaml:"class,omitempty"`
}

// Report is the result of a scenario run.
type Report struct {
	RunID    string            `json:"run_id" yaml:"run_id"`
	Scenario string            `json:"scenario" yaml:"scenario"`
	Txs      []TxOutcome       `json:"txs" yaml:"txs"`
	Relayed  int               `json:"relayed" yaml:"relayed"`
	State    keeper.Snapshot   `json:"state" yaml:"state"`
	Accounts map[string]string `json:"accounts" yaml:"accounts"`
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (Scenario, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	return ParseScenario(bz)
}

// ParseScenario decodes a YAML scenario.
func ParseScenario(bz []byte) (Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(bz))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	return sc, nil
}

// Runner executes scenarios against a fresh Env.
type Runner struct {
	Logger log.Logger
	Sinks  []auditsink.Sink
	// RelayRate caps audit records relayed per second; zero means no cap.
	RelayRate float64
}

// Run executes sc. Every transaction must end as its Expect says and every
// invariant must hold after each one.
func (r Runner) Run(ctx context.Context, sc Scenario) (*Report, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	accounts := newAccountBook(sc.Authority)

	params, err := sc.Params.Apply(types.DefaultParams(), accounts)
	if err != nil {
		return nil, err
	}
	genesis := types.DefaultGenesis()
	genesis.Params = params

	env, err := NewEnv(logger, accounts.resolve(AuthorityName), *genesis)
	if err != nil {
		return nil, err
	}
	for _, a := range sc.Assets {
		env.Ledger.RegisterAsset(types.NewAssetRef(a.Issuer, a.Symbol), a.Precision)
	}
	for name, balances := range sc.Accounts {
		addr := sdk.MustAccAddressFromBech32(accounts.resolve(name))
		for _, b := range balances {
			coin, err := parseCoin(b.Asset, b.Amount)
			if err != nil {
				return nil, fmt.Errorf("account %s: %w", name, err)
			}
			if err := env.Ledger.Mint(env.Ctx, addr, sdk.NewCoins(coin)); err != nil {
				return nil, err
			}
		}
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	relay := auditsink.NewRelay(env.Keeper, logger, r.Sinks...).WithRateLimit(r.RelayRate, 16)
	invariants := keeper.AllInvariants(*env.Keeper)
	report := &Report{RunID: runID, Scenario: sc.Name}

	for i, ts := range sc.Txs {
		name := ts.Name
		if name == "" {
			name = fmt.Sprintf("tx-%d", i+1)
		}
		signer := accounts.resolve(ts.Signer)
		msgs := make([]types.Msg, 0, len(ts.Msgs))
		for j, m := range ts.Msgs {
			msg, err := m.build(signer, accounts)
			if err != nil {
				return report, fmt.Errorf("%s msg %d: %w", name, j, err)
			}
			msgs = append(msgs, msg)
		}

		outcome := TxOutcome{Name: name}
		res, txErr := env.Deliver([]string{signer}, msgs...)
		if txErr != nil {
			outcome.Error = txErr.Error()
			outcome.Class = types.ClassOf(txErr).String()
		} else {
			outcome.CorrelationID = res.CorrelationID
			outcome.Effects = len(res.Effects)
		}
		report.Txs = append(report.Txs, outcome)

		if err := checkExpectation(ts.Expect, txErr); err != nil {
			return report, fmt.Errorf("%s: %w", name, err)
		}
		if msg, broken := invariants(env.Ctx); broken {
			return report, fmt.Errorf("%s: invariant broken: %s", name, msg)
		}
		n, err := relay.Sync(env.Ctx.WithContext(ctx))
		if err != nil {
			return report, fmt.Errorf("%s: relay: %w", name, err)
		}
		report.Relayed += n
		env.Commit()
	}

	if report.State, err = env.Keeper.Snapshot(env.Ctx); err != nil {
		return report, err
	}
	report.Accounts = accounts.names
	return report, nil
}

func checkExpectation(expect string, err error) error {
	expect = strings.ToLower(strings.TrimSpace(expect))
	if expect == "" || expect == "ok" {
		if err != nil {
			return fmt.Errorf("expected success: %w", err)
		}
		return nil
	}
	if err == nil {
		return fmt.Errorf("expected %s error, transaction committed", expect)
	}
	if got := types.ClassOf(err).String(); got != expect {
		return fmt.Errorf("expected %s error, got %s: %w", expect, got, err)
	}
	return nil
}

// accountBook maps scenario account names to addresses. Values that already
// are bech32 addresses pass through unchanged.
type accountBook struct {
	names map[string]string
}

func newAccountBook(authority string) *accountBook {
	book := &accountBook{names: make(map[string]string)}
	if authority == "" {
		authority = DefaultAuthority
	}
	book.names[AuthorityName] = authority
	return book
}

func (b *accountBook) resolve(name string) string {
	if name == "" {
		return ""
	}
	if addr, ok := b.names[name]; ok {
		return addr
	}
	if _, err := sdk.AccAddressFromBech32(name); err == nil {
		return name
	}
	addr := sdk.AccAddress([]byte(name)).String()
	b.names[name] = addr
	return addr
}

// Apply returns base with the override's non-empty fields replaced.
func (o ParamsOverride) Apply(base types.Params, accounts *accountBook) (types.Params, error) {
	p := base
	if o.NativeAsset != "" {
		ref, err := types.ParseDenom(o.NativeAsset)
		if err != nil {
			return p, fmt.Errorf("native asset: %w", err)
		}
		p.NativeAsset = ref
	}
	for _, f := range []struct {
		raw string
		dst *math.LegacyDec
	}{
		{o.SwapFee, &p.SwapFee},
		{o.FundFee, &p.FundFee},
		{o.DividendFee, &p.DividendFee},
	} {
		if f.raw == "" {
			continue
		}
		dec, err := math.LegacyNewDecFromStr(f.raw)
		if err != nil {
			return p, fmt.Errorf("fee %q: %w", f.raw, err)
		}
		*f.dst = dec
	}
	if o.RewardTarget != "" {
		p.RewardTarget = o.RewardTarget
	}
	if o.MinSwapReward != "" {
		v, ok := math.NewIntFromString(o.MinSwapReward)
		if !ok {
			return p, fmt.Errorf("min swap reward %q is not an integer", o.MinSwapReward)
		}
		p.MinSwapReward = v
	}
	if o.MaxRouteHops != 0 {
		p.MaxRouteHops = o.MaxRouteHops
	}
	if o.PegPoolID != 0 {
		p.PegPoolID = o.PegPoolID
	}
	for _, v := range o.Venues {
		v.Account = accounts.resolve(v.Account)
		v.LPIssuer = accounts.resolve(v.LPIssuer)
		v.RewardSource = accounts.resolve(v.RewardSource)
		v.ProfitRecipient = accounts.resolve(v.ProfitRecipient)
		p.Venues = append(p.Venues, v)
	}
	if len(o.BlockedIssuers) > 0 {
		p.BlockedIssuers = o.BlockedIssuers
	}
	if o.SwapLogCap != 0 {
		p.SwapLogCap = o.SwapLogCap
	}
	if o.LiquidityLogCap != 0 {
		p.LiquidityLogCap = o.LiquidityLogCap
	}
	if o.DelegationLogCap != 0 {
		p.DelegationLogCap = o.DelegationLogCap
	}
	return p, p.Validate()
}

func (m MsgSpec) build(signer string, accounts *accountBook) (types.Msg, error) {
	switch {
	case m.Transfer != nil:
		coin, err := parseCoin(m.Transfer.Asset, m.Transfer.Amount)
		if err != nil {
			return nil, err
		}
		funds, err := types.AssetAmountFromCoin(coin)
		if err != nil {
			return nil, err
		}
		return types.NewMsgTransfer(signer, funds, m.Transfer.Memo), nil

	case m.RegisterPair != nil:
		a, err := types.ParseDenom(m.RegisterPair.AssetA)
		if err != nil {
			return nil, err
		}
		b, err := types.ParseDenom(m.RegisterPair.AssetB)
		if err != nil {
			return nil, err
		}
		return &types.MsgRegisterPair{Creator: signer, AssetA: a, AssetB: b}, nil

	case m.FinalizeAddLiquidity != nil:
		return &types.MsgFinalizeAddLiquidity{Provider: signer, PoolID: m.FinalizeAddLiquidity.PoolID}, nil

	case m.RemoveLiquidity != nil:
		shares, err := parseInt("shares", m.RemoveLiquidity.Shares)
		if err != nil {
			return nil, err
		}
		return &types.MsgRemoveLiquidity{Provider: signer, PoolID: m.RemoveLiquidity.PoolID, Shares: shares}, nil

	case m.SetWeight != nil:
		kind := types.WeightKindSwap
		if m.SetWeight.Kind == types.WeightKindLiquidity.String() {
			kind = types.WeightKindLiquidity
		}
		weight, err := math.LegacyNewDecFromStr(m.SetWeight.Weight)
		if err != nil {
			return nil, fmt.Errorf("weight %q: %w", m.SetWeight.Weight, err)
		}
		return &types.MsgSetWeight{Authority: signer, PoolID: m.SetWeight.PoolID, Kind: kind, Weight: weight}, nil

	case m.RemovePool != nil:
		return &types.MsgRemovePool{Authority: signer, PoolID: m.RemovePool.PoolID}, nil

	case m.Delegate != nil:
		amountA, err := parseInt("amount_a", m.Delegate.AmountA)
		if err != nil {
			return nil, err
		}
		amountB, err := parseInt("amount_b", m.Delegate.AmountB)
		if err != nil {
			return nil, err
		}
		return &types.MsgDelegate{
			Authority: signer,
			PoolID:    m.Delegate.PoolID,
			Venue:     m.Delegate.Venue,
			VenuePool: m.Delegate.VenuePool,
			AmountA:   amountA,
			AmountB:   amountB,
		}, nil

	case m.ExitDelegation != nil:
		amount := math.ZeroInt()
		if m.ExitDelegation.Amount != "" {
			v, err := parseInt("amount", m.ExitDelegation.Amount)
			if err != nil {
				return nil, err
			}
			amount = v
		}
		return &types.MsgExitDelegation{Authority: signer, Memo: m.ExitDelegation.Memo, Amount: amount}, nil

	case m.ClaimDelegation != nil:
		return &types.MsgClaimDelegation{Authority: signer}, nil

	case m.SettleDelegation != nil:
		return &types.MsgSettleDelegation{Authority: signer}, nil

	default:
		return nil, fmt.Errorf("empty msg")
	}
}

func parseInt(field, raw string) (math.Int, error) {
	v, ok := math.NewIntFromString(raw)
	if !ok {
		return math.Int{}, fmt.Errorf("%s %q is not an integer", field, raw)
	}
	return v, nil
}

func parseCoin(denom, amount string) (sdk.Coin, error) {
	if _, err := types.ParseDenom(denom); err != nil {
		return sdk.Coin{}, err
	}
	v, err := parseInt("amount", amount)
	if err != nil {
		return sdk.Coin{}, err
	}
	if v.IsNegative() {
		return sdk.Coin{}, fmt.Errorf("amount %s is negative", v)
	}
	return sdk.NewCoin(denom, v), nil
}
