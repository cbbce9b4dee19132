package types

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestDelegationSessionAccounting(t *testing.T) {
	usd := NewAssetRef("bitstamp", "USD")
	eos := DefaultNativeAsset
	session := DelegationSession{
		LentA:     NewAssetAmount(usd, math.NewInt(100)),
		LentB:     NewAssetAmount(eos, math.NewInt(200)),
		ReturnedA: ZeroAssetAmount(usd),
		ReturnedB: ZeroAssetAmount(eos),
		Status:    DelegationLent,
	}

	require.Equal(t, SideA, session.SideOf(usd))
	require.Equal(t, SideB, session.SideOf(eos))
	require.Equal(t, SideNone, session.SideOf(NewAssetRef("x", "Y")))
	require.False(t, session.AllReturned())

	session.ReturnedA.Amount = math.NewInt(90)
	require.False(t, session.AllReturned())
	session.ReturnedB.Amount = math.NewInt(250)
	require.True(t, session.AllReturned())

	require.Equal(t, math.NewInt(10), session.Shortfall(SideA))
	require.True(t, session.Surplus(SideA).IsZero())
	require.True(t, session.Shortfall(SideB).IsZero())
	require.Equal(t, math.NewInt(50), session.Surplus(SideB))

	// a side refunded in full needs no return
	session.LentA.Amount = math.ZeroInt()
	session.ReturnedA.Amount = math.ZeroInt()
	require.True(t, session.AllReturned())
}
