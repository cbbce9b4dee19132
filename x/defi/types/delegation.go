package types

import (
	"time"

	"cosmossdk.io/math"
)

// DelegationStatus is the lifecycle state of the active delegation.
type DelegationStatus int32

const (
	DelegationLent DelegationStatus = iota + 1
	DelegationPartialBack
	DelegationFullyBack
	DelegationClaimed
)

func (s DelegationStatus) String() string {
	switch s {
	case DelegationLent:
		return "lent"
	case DelegationPartialBack:
		return "partial_back"
	case DelegationFullyBack:
		return "fully_back"
	case DelegationClaimed:
		return "claimed"
	default:
		return "unknown"
	}
}

// DelegationSession records reserves lent to an external venue.
type DelegationSession struct {
	PoolID    uint64           `json:"pool_id"`
	Venue     string           `json:"venue"`
	VenuePool uint64           `json:"venue_pool"`
	LentA     AssetAmount      `json:"lent_a"`
	LentB     AssetAmount      `json:"lent_b"`
	ReturnedA AssetAmount      `json:"returned_a"`
	ReturnedB AssetAmount      `json:"returned_b"`
	Profit    AssetAmount      `json:"profit"`
	LPShares  AssetAmount      `json:"lp_shares"`
	Status    DelegationStatus `json:"status"`
	StartedAt time.Time        `json:"started_at"`
}

// Lent returns the lent quantity on side s.
func (d DelegationSession) Lent(s Side) AssetAmount {
	if s == SideA {
		return d.LentA
	}
	return d.LentB
}

// Returned returns the returned quantity on side s.
func (d DelegationSession) Returned(s Side) AssetAmount {
	if s == SideA {
		return d.ReturnedA
	}
	return d.ReturnedB
}

// SideOf returns the side whose lent asset matches asset.
func (d DelegationSession) SideOf(asset AssetRef) Side {
	switch {
	case d.LentA.Asset.Equal(asset):
		return SideA
	case d.LentB.Asset.Equal(asset):
		return SideB
	default:
		return SideNone
	}
}

// Shortfall returns max(0, lent - returned) for side s.
func (d DelegationSession) Shortfall(s Side) math.Int {
	diff := d.Lent(s).Amount.Sub(d.Returned(s).Amount)
	if diff.IsNegative() {
		return math.ZeroInt()
	}
	return diff
}

// Surplus returns max(0, returned - lent) for side s.
func (d DelegationSession) Surplus(s Side) math.Int {
	diff := d.Returned(s).Amount.Sub(d.Lent(s).Amount)
	if diff.IsNegative() {
		return math.ZeroInt()
	}
	return diff
}

// AllReturned reports whether every side that still has funds lent has seen a return.
func (d DelegationSession) AllReturned() bool {
	for _, s := range []Side{SideA, SideB} {
		if d.Lent(s).IsPositive() && !d.Returned(s).IsPositive() {
			return false
		}
	}
	return true
}

// DelegationRecord is an archived delegation session.
type DelegationRecord struct {
	ID      uint64            `json:"id"`
	Session DelegationSession `json:"session"`
	EndedAt time.Time         `json:"ended_at"`
}
