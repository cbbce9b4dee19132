package types

import (
	"math/big"

	"cosmossdk.io/math"
)

// Overflow-checked arithmetic for amounts, shares and prices. Products are
// formed at full width on big.Int, so only results that leave the Int range
// fail, and they fail with ErrOverflow instead of panicking.

// decOne is the raw value of 1.0 as a LegacyDec.
var decOne = new(big.Int).Exp(big.NewInt(10), big.NewInt(math.LegacyPrecision), nil)

// SafeAdd returns a + b.
func SafeAdd(a, b math.Int) (math.Int, error) {
	sum, err := a.SafeAdd(b)
	if err != nil {
		return math.Int{}, ErrOverflow.Wrapf("%s + %s", a, b)
	}
	return sum, nil
}

// SafeMul returns a * b.
func SafeMul(a, b math.Int) (math.Int, error) {
	if a.IsZero() || b.IsZero() {
		return math.ZeroInt(), nil
	}
	product, err := a.SafeMul(b)
	if err != nil {
		return math.Int{}, ErrOverflow.Wrapf("%s * %s", a, b)
	}
	return product, nil
}

// SafeMulDiv returns floor(a * b / c).
func SafeMulDiv(a, b, c math.Int) (math.Int, error) {
	if !c.IsPositive() {
		return math.Int{}, ErrInvalidAmount.Wrap("division by zero")
	}
	q := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return intFromBig(q.Quo(q, c.BigInt()))
}

// GeometricMean returns floor(sqrt(a * b)). It cannot overflow: the root of a
// product of two Ints always fits an Int.
func GeometricMean(a, b math.Int) math.Int {
	if !a.IsPositive() || !b.IsPositive() {
		return math.ZeroInt()
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return math.NewIntFromBigInt(product.Sqrt(product))
}

// DecRatio returns a * b / c as a decimal truncated to 18 places.
func DecRatio(a, b, c math.Int) (math.LegacyDec, error) {
	if !c.IsPositive() {
		return math.LegacyDec{}, ErrInvalidAmount.Wrap("division by zero")
	}
	raw := new(big.Int).Mul(a.BigInt(), b.BigInt())
	raw.Mul(raw, decOne)
	return decFromRaw(raw.Quo(raw, c.BigInt()))
}

// SafeMulDec returns a * b truncated to 18 places.
func SafeMulDec(a, b math.LegacyDec) (math.LegacyDec, error) {
	raw := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return decFromRaw(raw.Quo(raw, decOne))
}

func intFromBig(x *big.Int) (math.Int, error) {
	if x.BitLen() > math.MaxBitLen {
		return math.Int{}, ErrOverflow.Wrapf("result needs %d bits", x.BitLen())
	}
	return math.NewIntFromBigInt(x), nil
}

// decFromRaw wraps a raw 18-decimal value. Raw values are held to the Int
// range so later LegacyDec products on them stay in bounds.
func decFromRaw(raw *big.Int) (math.LegacyDec, error) {
	if raw.BitLen() > math.MaxBitLen {
		return math.LegacyDec{}, ErrOverflow.Wrapf("decimal needs %d bits", raw.BitLen())
	}
	return math.LegacyNewDecFromBigIntWithPrec(raw, math.LegacyPrecision), nil
}
