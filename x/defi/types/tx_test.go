package types

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestTxValidateBasic(t *testing.T) {
	alice, bob := testAddr("alice"), testAddr("bob")
	usd := NewAssetRef("bitstamp", "USD")
	transfer := NewMsgTransfer(alice, NewAssetAmount(usd, math.NewInt(10)), "hello")

	require.NoError(t, NewTx(1, []string{alice}, transfer).ValidateBasic())

	err := NewTx(1, []string{alice}).ValidateBasic()
	require.ErrorIs(t, err, ErrInvalidTx)

	err = NewTx(1, []string{bob}, transfer).ValidateBasic()
	require.ErrorIs(t, err, ErrUnauthorized)

	zero := NewMsgTransfer(alice, NewAssetAmount(usd, math.ZeroInt()), "")
	err = NewTx(1, []string{alice}, zero).ValidateBasic()
	require.ErrorIs(t, err, ErrInvalidAmount)

	err = NewTx(1, []string{alice}, &MsgRegisterPair{Creator: alice, AssetA: usd, AssetB: usd}).ValidateBasic()
	require.ErrorIs(t, err, ErrSameAsset)
}

func TestCorrelationID(t *testing.T) {
	alice := testAddr("alice")
	usd := NewAssetRef("bitstamp", "USD")
	msg := NewMsgTransfer(alice, NewAssetAmount(usd, math.NewInt(10)), "hello")

	bz1, err := NewTx(1, []string{alice}, msg).Bytes()
	require.NoError(t, err)
	bz2, err := NewTx(1, []string{alice}, msg).Bytes()
	require.NoError(t, err)
	bz3, err := NewTx(2, []string{alice}, msg).Bytes()
	require.NoError(t, err)

	require.Equal(t, CorrelationID(bz1), CorrelationID(bz2))
	require.NotEqual(t, CorrelationID(bz1), CorrelationID(bz3))
	require.Len(t, CorrelationID(bz1), 64)
}
