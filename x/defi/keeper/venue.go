package keeper

import (
	"strconv"
	"strings"

	"cosmossdk.io/math"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// InboundKind classifies a transfer received from a venue.
type InboundKind int

const (
	InboundIgnored InboundKind = iota
	InboundRefund
	InboundWithdraw
	InboundLPIssue
	InboundProfit
)

func (k InboundKind) String() string {
	switch k {
	case InboundRefund:
		return "refund"
	case InboundWithdraw:
		return "withdraw"
	case InboundLPIssue:
		return "lp_issue"
	case InboundProfit:
		return "profit"
	default:
		return "ignored"
	}
}

// Venue is the strategy of an external market-making venue.
type Venue interface {
	// Activate returns the effects that hand the lent reserves to the venue.
	Activate(self string, session types.DelegationSession) []types.Effect
	// Exit returns the effects that ask the venue to give the reserves back.
	// It may update the session.
	Exit(self string, session *types.DelegationSession, memo string, amount math.Int) ([]types.Effect, error)
	// Claim returns the effects that collect the venue's profit.
	Claim(self string) ([]types.Effect, error)
	// Classify tells what an inbound venue transfer means.
	Classify(sender string, funds types.AssetAmount, memo string) InboundKind
}

func newVenue(cfg types.VenueConfig) (Venue, error) {
	switch cfg.Kind {
	case types.VenueTransferFirst:
		return transferFirstVenue{cfg: cfg}, nil
	case types.VenueCallFirst:
		return callFirstVenue{cfg: cfg}, nil
	default:
		return nil, types.ErrUnknownVenue.Wrapf("venue %s has kind %q", cfg.Name, cfg.Kind)
	}
}

// classifyAccount handles the transfers both kinds of venue send from their
// main account.
func classifyAccount(cfg types.VenueConfig, sender, memo string) InboundKind {
	if sender != cfg.Account {
		return InboundIgnored
	}
	switch {
	case strings.Contains(memo, cfg.RefundTag):
		return InboundRefund
	case strings.Contains(memo, cfg.WithdrawTag):
		return InboundWithdraw
	default:
		return InboundIgnored
	}
}

const venueDepositMethod = "deposit"

// transferFirstVenue receives the funding legs before the deposit call and
// issues LP tokens in return.
type transferFirstVenue struct {
	cfg types.VenueConfig
}

func (v transferFirstVenue) Activate(self string, session types.DelegationSession) []types.Effect {
	memo := venueDepositMethod + "," + strconv.FormatUint(session.VenuePool, 10)
	return []types.Effect{
		types.NewTransferEffect(v.cfg.Account, session.LentA, memo),
		types.NewTransferEffect(v.cfg.Account, session.LentB, memo),
		types.NewCallEffect(v.cfg.Account, venueDepositMethod, self, strconv.FormatUint(session.VenuePool, 10)),
	}
}

func (v transferFirstVenue) Exit(_ string, session *types.DelegationSession, memo string, _ math.Int) ([]types.Effect, error) {
	if !session.LPShares.IsPositive() {
		return nil, types.ErrInvalidDelegationStatus.Wrapf("venue %s has not issued LP tokens yet", v.cfg.Name)
	}
	return []types.Effect{types.NewTransferEffect(v.cfg.Account, session.LPShares, memo)}, nil
}

func (v transferFirstVenue) Claim(self string) ([]types.Effect, error) {
	return []types.Effect{types.NewCallEffect(v.cfg.LPIssuer, "claim", self)}, nil
}

func (v transferFirstVenue) Classify(sender string, funds types.AssetAmount, memo string) InboundKind {
	if sender == v.cfg.RewardSource {
		return InboundProfit
	}
	if sender == v.cfg.Account && strings.Contains(memo, v.cfg.LPIssueTag) {
		if funds.Asset.Issuer == v.cfg.LPIssuer {
			return InboundLPIssue
		}
		return InboundIgnored
	}
	return classifyAccount(v.cfg, sender, memo)
}

// callFirstVenue takes the deposit call before the funding legs and is exited
// with a withdraw call naming the LP amount.
type callFirstVenue struct {
	cfg types.VenueConfig
}

func (v callFirstVenue) Activate(self string, session types.DelegationSession) []types.Effect {
	return []types.Effect{
		types.NewCallEffect(v.cfg.Account, venueDepositMethod, self, strconv.FormatUint(session.VenuePool, 10)),
		types.NewTransferEffect(v.cfg.Account, session.LentA, venueDepositMethod),
		types.NewTransferEffect(v.cfg.Account, session.LentB, venueDepositMethod),
	}
}

func (v callFirstVenue) Exit(self string, session *types.DelegationSession, memo string, amount math.Int) ([]types.Effect, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return nil, types.ErrInvalidAmount.Wrap("exit amount must be positive")
	}
	session.LPShares = types.NewAssetAmount(types.NewAssetRef(v.cfg.Account, "LP"), amount)
	return []types.Effect{
		types.NewCallEffect(v.cfg.Account, "withdraw", self, memo, amount.String()),
	}, nil
}

func (v callFirstVenue) Claim(string) ([]types.Effect, error) {
	return nil, types.ErrClaimUnsupported.Wrapf("venue %s", v.cfg.Name)
}

func (v callFirstVenue) Classify(sender string, _ types.AssetAmount, memo string) InboundKind {
	if sender == v.cfg.RewardSource {
		return InboundProfit
	}
	return classifyAccount(v.cfg, sender, memo)
}
