package types

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Msg is a single instruction inside a settlement transaction.
type Msg interface {
	Type() string
	GetSigner() string
	ValidateBasic() error
}

var (
	_ Msg = &MsgTransfer{}
	_ Msg = &MsgRegisterPair{}
	_ Msg = &MsgFinalizeAddLiquidity{}
	_ Msg = &MsgRemoveLiquidity{}
	_ Msg = &MsgSetWeight{}
	_ Msg = &MsgRemovePool{}
	_ Msg = &MsgDelegate{}
	_ Msg = &MsgExitDelegation{}
	_ Msg = &MsgClaimDelegation{}
	_ Msg = &MsgSettleDelegation{}
)

func validateAddress(field, addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return ErrInvalidAddress.Wrapf("invalid %s address %q: %s", field, addr, err)
	}
	return nil
}

func validatePoolID(id uint64) error {
	if id == 0 {
		return ErrPoolNotFound.Wrap("pool id must be positive")
	}
	return nil
}

// MsgTransfer moves funds from the sender into the module. The memo decides
// what the module does with them.
type MsgTransfer struct {
	Sender string      `json:"sender"`
	Funds  AssetAmount `json:"funds"`
	Memo   string      `json:"memo"`
}

// NewMsgTransfer creates a new MsgTransfer instance
func NewMsgTransfer(sender string, funds AssetAmount, memo string) *MsgTransfer {
	return &MsgTransfer{Sender: sender, Funds: funds, Memo: memo}
}

func (msg MsgTransfer) Type() string      { return "transfer" }
func (msg MsgTransfer) GetSigner() string { return msg.Sender }

// ValidateBasic implements Msg
func (msg MsgTransfer) ValidateBasic() error {
	if err := validateAddress("sender", msg.Sender); err != nil {
		return err
	}
	if err := msg.Funds.Validate(); err != nil {
		return err
	}
	if !msg.Funds.IsPositive() {
		return ErrInvalidAmount.Wrap("transfer amount must be positive")
	}
	return nil
}

// MsgRegisterPair registers a new trading pair.
type MsgRegisterPair struct {
	Creator string   `json:"creator"`
	AssetA  AssetRef `json:"asset_a"`
	AssetB  AssetRef `json:"asset_b"`
}

func (msg MsgRegisterPair) Type() string      { return "register_pair" }
func (msg MsgRegisterPair) GetSigner() string { return msg.Creator }

// ValidateBasic implements Msg
func (msg MsgRegisterPair) ValidateBasic() error {
	if err := validateAddress("creator", msg.Creator); err != nil {
		return err
	}
	if err := msg.AssetA.Validate(); err != nil {
		return err
	}
	if err := msg.AssetB.Validate(); err != nil {
		return err
	}
	if msg.AssetA.Equal(msg.AssetB) {
		return ErrSameAsset.Wrapf("%s", msg.AssetA)
	}
	return nil
}

// MsgFinalizeAddLiquidity credits the two deposit legs staged earlier in the
// same transaction.
type MsgFinalizeAddLiquidity struct {
	Provider string `json:"provider"`
	PoolID   uint64 `json:"pool_id"`
}

func (msg MsgFinalizeAddLiquidity) Type() string      { return "finalize_add_liquidity" }
func (msg MsgFinalizeAddLiquidity) GetSigner() string { return msg.Provider }

// ValidateBasic implements Msg
func (msg MsgFinalizeAddLiquidity) ValidateBasic() error {
	if err := validateAddress("provider", msg.Provider); err != nil {
		return err
	}
	return validatePoolID(msg.PoolID)
}

// MsgRemoveLiquidity redeems shares for both reserves.
type MsgRemoveLiquidity struct {
	Provider string   `json:"provider"`
	PoolID   uint64   `json:"pool_id"`
	Shares   math.Int `json:"shares"`
}

func (msg MsgRemoveLiquidity) Type() string      { return "remove_liquidity" }
func (msg MsgRemoveLiquidity) GetSigner() string { return msg.Provider }

// ValidateBasic implements Msg
func (msg MsgRemoveLiquidity) ValidateBasic() error {
	if err := validateAddress("provider", msg.Provider); err != nil {
		return err
	}
	if err := validatePoolID(msg.PoolID); err != nil {
		return err
	}
	if msg.Shares.IsNil() || !msg.Shares.IsPositive() {
		return ErrInvalidAmount.Wrap("shares must be positive")
	}
	return nil
}

// MsgSetWeight updates the swap or liquidity mining weight of a pool.
type MsgSetWeight struct {
	Authority string         `json:"authority"`
	PoolID    uint64         `json:"pool_id"`
	Kind      WeightKind     `json:"kind"`
	Weight    math.LegacyDec `json:"weight"`
}

func (msg MsgSetWeight) Type() string      { return "set_weight" }
func (msg MsgSetWeight) GetSigner() string { return msg.Authority }

// ValidateBasic implements Msg
func (msg MsgSetWeight) ValidateBasic() error {
	if err := validateAddress("authority", msg.Authority); err != nil {
		return err
	}
	if err := validatePoolID(msg.PoolID); err != nil {
		return err
	}
	if msg.Kind != WeightKindLiquidity && msg.Kind != WeightKindSwap {
		return ErrInvalidWeight.Wrapf("unknown weight kind %d", uint32(msg.Kind))
	}
	if msg.Weight.IsNil() || msg.Weight.IsNegative() {
		return ErrInvalidWeight.Wrap("weight must be non-negative")
	}
	return nil
}

// MsgRemovePool deletes an empty pool and its pair registration.
type MsgRemovePool struct {
	Authority string `json:"authority"`
	PoolID    uint64 `json:"pool_id"`
}

func (msg MsgRemovePool) Type() string      { return "remove_pool" }
func (msg MsgRemovePool) GetSigner() string { return msg.Authority }

// ValidateBasic implements Msg
func (msg MsgRemovePool) ValidateBasic() error {
	if err := validateAddress("authority", msg.Authority); err != nil {
		return err
	}
	return validatePoolID(msg.PoolID)
}

// MsgDelegate lends part of the peg pool's reserves to a venue.
type MsgDelegate struct {
	Authority string   `json:"authority"`
	PoolID    uint64   `json:"pool_id"`
	Venue     string   `json:"venue"`
	VenuePool uint64   `json:"venue_pool"`
	AmountA   math.Int `json:"amount_a"`
	AmountB   math.Int `json:"amount_b"`
}

func (msg MsgDelegate) Type() string      { return "delegate" }
func (msg MsgDelegate) GetSigner() string { return msg.Authority }

// ValidateBasic implements Msg
func (msg MsgDelegate) ValidateBasic() error {
	if err := validateAddress("authority", msg.Authority); err != nil {
		return err
	}
	if err := validatePoolID(msg.PoolID); err != nil {
		return err
	}
	if msg.Venue == "" {
		return ErrUnknownVenue.Wrap("venue is required")
	}
	if msg.AmountA.IsNil() || msg.AmountB.IsNil() || !msg.AmountA.IsPositive() || !msg.AmountB.IsPositive() {
		return ErrInvalidAmount.Wrap("both delegated amounts must be positive")
	}
	return nil
}

// MsgExitDelegation asks the venue to return the delegated funds.
type MsgExitDelegation struct {
	Authority string   `json:"authority"`
	Memo      string   `json:"memo"`
	Amount    math.Int `json:"amount"`
}

func (msg MsgExitDelegation) Type() string      { return "exit_delegation" }
func (msg MsgExitDelegation) GetSigner() string { return msg.Authority }

// ValidateBasic implements Msg
func (msg MsgExitDelegation) ValidateBasic() error {
	if err := validateAddress("authority", msg.Authority); err != nil {
		return err
	}
	if !msg.Amount.IsNil() && msg.Amount.IsNegative() {
		return ErrInvalidAmount.Wrap("exit amount must be non-negative")
	}
	return nil
}

// MsgClaimDelegation claims venue profit for a fully returned delegation.
type MsgClaimDelegation struct {
	Authority string `json:"authority"`
}

func (msg MsgClaimDelegation) Type() string      { return "claim_delegation" }
func (msg MsgClaimDelegation) GetSigner() string { return msg.Authority }

// ValidateBasic implements Msg
func (msg MsgClaimDelegation) ValidateBasic() error {
	return validateAddress("authority", msg.Authority)
}

// MsgSettleDelegation reconciles and archives the active delegation.
type MsgSettleDelegation struct {
	Authority string `json:"authority"`
}

func (msg MsgSettleDelegation) Type() string      { return "settle_delegation" }
func (msg MsgSettleDelegation) GetSigner() string { return msg.Authority }

// ValidateBasic implements Msg
func (msg MsgSettleDelegation) ValidateBasic() error {
	return validateAddress("authority", msg.Authority)
}
