package types

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
)

// Position is one provider's claim on a pool. Contributed amounts are
// informational; redemption always uses shares.
type Position struct {
	PoolID       uint64    `json:"pool_id"`
	Owner        string    `json:"owner"`
	ContributedA math.Int  `json:"contributed_a"`
	ContributedB math.Int  `json:"contributed_b"`
	Shares       math.Int  `json:"shares"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewPosition returns an empty position.
func NewPosition(poolID uint64, owner string, createdAt time.Time) Position {
	return Position{
		PoolID:       poolID,
		Owner:        owner,
		ContributedA: math.ZeroInt(),
		ContributedB: math.ZeroInt(),
		Shares:       math.ZeroInt(),
		CreatedAt:    createdAt.UTC(),
	}
}

// Validate checks the position's fields.
func (p Position) Validate() error {
	if p.PoolID == 0 {
		return fmt.Errorf("position pool id must be positive")
	}
	if p.Owner == "" {
		return fmt.Errorf("position owner is required")
	}
	if p.Shares.IsNil() || !p.Shares.IsPositive() {
		return fmt.Errorf("position %d/%s: shares must be positive", p.PoolID, p.Owner)
	}
	if p.ContributedA.IsNegative() || p.ContributedB.IsNegative() {
		return fmt.Errorf("position %d/%s: contributions must be non-negative", p.PoolID, p.Owner)
	}
	return nil
}
