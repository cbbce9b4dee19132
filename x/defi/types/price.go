package types

import (
	"math/big"

	"cosmossdk.io/math"
)

// BasisPointsDenominator is 100% expressed in basis points.
const BasisPointsDenominator = 10_000

// MaxPrecision bounds the decimal precision accepted for an asset.
const MaxPrecision = 18

// Pow10 returns 10^exp as an Int.
func Pow10(exp uint32) math.Int {
	return math.NewIntFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
}

// SpotPrice returns how many display units of quote one display unit of base
// is worth, given raw reserves and the precision of each asset. A zero result
// means the price is undefined.
func SpotPrice(reserveBase, reserveQuote math.Int, precBase, precQuote uint32) (math.LegacyDec, error) {
	if !reserveBase.IsPositive() || !reserveQuote.IsPositive() {
		return math.LegacyZeroDec(), nil
	}
	num := new(big.Int).Mul(reserveQuote.BigInt(), Pow10(precBase).BigInt())
	num.Mul(num, decOne)
	den := new(big.Int).Mul(reserveBase.BigInt(), Pow10(precQuote).BigInt())
	return decFromRaw(num.Quo(num, den))
}

// ConstantProductOutput returns floor(reserveOut * in*r / (reserveIn + in*r))
// with r = 1 - fee. The result is always strictly below reserveOut.
func ConstantProductOutput(amountIn, reserveIn, reserveOut math.Int, fee math.LegacyDec) (math.Int, error) {
	if !amountIn.IsPositive() {
		return math.ZeroInt(), ErrZeroAmount.Wrap("swap input must be positive")
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return math.ZeroInt(), ErrEmptyPool
	}
	if fee.IsNegative() || fee.GTE(math.LegacyOneDec()) {
		return math.ZeroInt(), ErrInvalidParams.Wrapf("swap fee %s out of range", fee)
	}

	// in*r carried as a raw 18-decimal value
	keep := new(big.Int).Sub(decOne, fee.BigInt())
	effectiveIn := keep.Mul(amountIn.BigInt(), keep)
	numerator := new(big.Int).Mul(effectiveIn, reserveOut.BigInt())
	denominator := new(big.Int).Mul(reserveIn.BigInt(), decOne)
	denominator.Add(denominator, effectiveIn)

	return intFromBig(numerator.Quo(numerator, denominator))
}

// FeeAmount returns floor(amount * rate) for a rate of at most one.
func FeeAmount(amount math.Int, rate math.LegacyDec) math.Int {
	if rate.IsNil() || !rate.IsPositive() {
		return math.ZeroInt()
	}
	fee := new(big.Int).Mul(amount.BigInt(), rate.BigInt())
	return math.NewIntFromBigInt(fee.Quo(fee, decOne))
}

// SlippageFloor returns the worst price still acceptable for a quoted price
// and a bound in basis points.
func SlippageFloor(quoted math.LegacyDec, maxSlippageBps uint32) math.LegacyDec {
	tolerance := math.LegacyNewDecWithPrec(int64(maxSlippageBps), 4)
	if tolerance.GT(math.LegacyOneDec()) {
		tolerance = math.LegacyOneDec()
	}
	return quoted.MulTruncate(math.LegacyOneDec().Sub(tolerance))
}

// ProportionalShare returns floor(part * total / whole).
func ProportionalShare(part, total, whole math.Int) (math.Int, error) {
	if !whole.IsPositive() {
		return math.ZeroInt(), nil
	}
	return SafeMulDiv(part, total, whole)
}
