package types

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func genAssetRef() *rapid.Generator[AssetRef] {
	return rapid.Custom(func(t *rapid.T) AssetRef {
		return NewAssetRef(
			rapid.StringMatching(`[a-z][a-z0-9.]{2,11}`).Draw(t, "issuer"),
			rapid.StringMatching(`[A-Z]{1,7}`).Draw(t, "symbol"),
		)
	})
}

func TestPairDigestIsOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genAssetRef().Draw(t, "a")
		b := genAssetRef().Draw(t, "b")

		if NewPairDigest(a, b) != NewPairDigest(b, a) {
			t.Fatalf("digest of (%s, %s) depends on order", a, b)
		}
		first, second := CanonicalPair(a, b)
		if second.Less(first) {
			t.Fatalf("canonical pair (%s, %s) is not ordered", first, second)
		}
	})
}

func TestPairDigestSeparatesPairs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genAssetRef().Draw(t, "a")
		b := genAssetRef().Draw(t, "b")
		c := genAssetRef().Draw(t, "c")
		if c.Equal(a) || c.Equal(b) {
			t.Skip("c must be a third asset")
		}
		if NewPairDigest(a, b) == NewPairDigest(a, c) {
			t.Fatalf("pairs (%s, %s) and (%s, %s) share a digest", a, b, a, c)
		}
	})
}

func TestPairKeyString(t *testing.T) {
	usd := NewAssetRef("bitstamp", "USD")
	eos := NewAssetRef("eosio.token", "EOS")

	require.Equal(t, "bitstamp-USD:eosio.token-EOS", PairKeyString(eos, usd))
	require.Equal(t, PairKeyString(usd, eos), PairKeyString(eos, usd))
	require.Len(t, NewPairDigest(usd, eos).String(), 64)
}
