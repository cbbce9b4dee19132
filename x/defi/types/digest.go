package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// PairDigest is the order-independent identity of an asset pair.
type PairDigest [32]byte

// CanonicalPair returns the two refs ordered by (issuer, symbol).
func CanonicalPair(a, b AssetRef) (AssetRef, AssetRef) {
	if b.Less(a) {
		return b, a
	}
	return a, b
}

// PairKeyString is the string hashed into a PairDigest.
func PairKeyString(a, b AssetRef) string {
	first, second := CanonicalPair(a, b)
	return fmt.Sprintf("%s-%s:%s-%s", first.Issuer, first.Symbol, second.Issuer, second.Symbol)
}

// NewPairDigest hashes the canonical form of the pair, so argument order never matters.
func NewPairDigest(a, b AssetRef) PairDigest {
	return PairDigest(sha256.Sum256([]byte(PairKeyString(a, b))))
}

func (d PairDigest) String() string {
	return hex.EncodeToString(d[:])
}

// PairRecord binds a digest to a pool id. It is the exported form of the digest table.
type PairRecord struct {
	Digest []byte `json:"digest"`
	PoolID uint64 `json:"pool_id"`
}
