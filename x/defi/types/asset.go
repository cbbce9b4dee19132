package types

import (
	"fmt"
	"strings"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// DenomSeparator joins the issuer and the symbol of an asset into a bank denom.
const DenomSeparator = "/"

// AssetRef identifies an issued currency by its issuing authority and symbol.
// Two refs are the same asset only when both fields match.
type AssetRef struct {
	Issuer string `json:"issuer"`
	Symbol string `json:"symbol"`
}

// NewAssetRef creates a new AssetRef
func NewAssetRef(issuer, symbol string) AssetRef {
	return AssetRef{Issuer: issuer, Symbol: symbol}
}

// Denom returns the bank denom that carries this asset.
func (a AssetRef) Denom() string {
	return a.Issuer + DenomSeparator + a.Symbol
}

func (a AssetRef) String() string {
	return a.Issuer + "-" + a.Symbol
}

// Equal reports whether both refs name the same asset.
func (a AssetRef) Equal(b AssetRef) bool {
	return a.Issuer == b.Issuer && a.Symbol == b.Symbol
}

// IsEmpty reports whether the ref is unset.
func (a AssetRef) IsEmpty() bool {
	return a.Issuer == "" && a.Symbol == ""
}

// Less orders refs by issuer, then symbol.
func (a AssetRef) Less(b AssetRef) bool {
	if a.Issuer != b.Issuer {
		return a.Issuer < b.Issuer
	}
	return a.Symbol < b.Symbol
}

// Validate performs stateless checks on the ref.
func (a AssetRef) Validate() error {
	if a.Issuer == "" || a.Symbol == "" {
		return ErrInvalidAsset.Wrapf("issuer and symbol are required, got %q", a.String())
	}
	if strings.Contains(a.Symbol, DenomSeparator) || strings.ContainsAny(a.Issuer, DenomSeparator+",") {
		return ErrInvalidAsset.Wrapf("asset %q contains a reserved character", a.String())
	}
	if err := sdk.ValidateDenom(a.Denom()); err != nil {
		return ErrInvalidAsset.Wrapf("asset %q: %s", a.String(), err)
	}
	return nil
}

// ParseDenom reverses Denom.
func ParseDenom(denom string) (AssetRef, error) {
	idx := strings.LastIndex(denom, DenomSeparator)
	if idx <= 0 || idx == len(denom)-1 {
		return AssetRef{}, ErrInvalidAsset.Wrapf("denom %q is not of the form issuer/symbol", denom)
	}
	ref := AssetRef{Issuer: denom[:idx], Symbol: denom[idx+1:]}
	return ref, ref.Validate()
}

// AssetAmount is a quantity of one asset.
type AssetAmount struct {
	Asset  AssetRef `json:"asset"`
	Amount math.Int `json:"amount"`
}

// NewAssetAmount creates a new AssetAmount
func NewAssetAmount(asset AssetRef, amount math.Int) AssetAmount {
	return AssetAmount{Asset: asset, Amount: amount}
}

// ZeroAssetAmount returns an empty quantity of asset.
func ZeroAssetAmount(asset AssetRef) AssetAmount {
	return AssetAmount{Asset: asset, Amount: math.ZeroInt()}
}

// IsPositive reports whether the amount is set and above zero.
func (a AssetAmount) IsPositive() bool {
	return !a.Amount.IsNil() && a.Amount.IsPositive()
}

// Coin converts the quantity into a bank coin.
func (a AssetAmount) Coin() sdk.Coin {
	return sdk.NewCoin(a.Asset.Denom(), a.Amount)
}

// Validate performs stateless checks on the quantity.
func (a AssetAmount) Validate() error {
	if err := a.Asset.Validate(); err != nil {
		return err
	}
	if a.Amount.IsNil() || a.Amount.IsNegative() {
		return ErrInvalidAmount.Wrapf("amount of %s must be non-negative", a.Asset)
	}
	return nil
}

func (a AssetAmount) String() string {
	if a.Amount.IsNil() {
		return fmt.Sprintf("0 %s", a.Asset)
	}
	return fmt.Sprintf("%s %s", a.Amount, a.Asset)
}

// AssetAmountFromCoin converts a bank coin into a quantity.
func AssetAmountFromCoin(coin sdk.Coin) (AssetAmount, error) {
	ref, err := ParseDenom(coin.Denom)
	if err != nil {
		return AssetAmount{}, err
	}
	return AssetAmount{Asset: ref, Amount: coin.Amount}, nil
}
