package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// GenesisState defines the defi module's genesis state.
type GenesisState struct {
	Params     Params       `json:"params"`
	NextPoolID uint64       `json:"next_pool_id"`
	Pools      []Pool       `json:"pools"`
	Pairs      []PairRecord `json:"pairs"`
	Positions  []Position   `json:"positions"`
}

// DefaultGenesis returns the default genesis state for the defi module.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:     DefaultParams(),
		NextPoolID: 1,
		Pools:      []Pool{},
		Pairs:      []PairRecord{},
		Positions:  []Position{},
	}
}

// Validate ensures the genesis state is well-formed.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	if gs.NextPoolID == 0 {
		return fmt.Errorf("next pool id must be positive")
	}

	pools := make(map[uint64]Pool, len(gs.Pools))
	for _, pool := range gs.Pools {
		if err := pool.Validate(); err != nil {
			return err
		}
		if _, dup := pools[pool.ID]; dup {
			return fmt.Errorf("duplicate pool id %d", pool.ID)
		}
		if pool.ID >= gs.NextPoolID {
			return fmt.Errorf("pool id %d not below next pool id %d", pool.ID, gs.NextPoolID)
		}
		pools[pool.ID] = pool
	}

	digests := make(map[string]struct{}, len(gs.Pairs))
	paired := make(map[uint64]struct{}, len(gs.Pairs))
	for _, pair := range gs.Pairs {
		pool, ok := pools[pair.PoolID]
		if !ok {
			return fmt.Errorf("pair record for unknown pool %d", pair.PoolID)
		}
		want := NewPairDigest(pool.AssetA, pool.AssetB)
		if string(pair.Digest) != string(want[:]) {
			return fmt.Errorf("pair record for pool %d has wrong digest", pair.PoolID)
		}
		if _, dup := digests[string(pair.Digest)]; dup {
			return fmt.Errorf("duplicate pair digest for pool %d", pair.PoolID)
		}
		digests[string(pair.Digest)] = struct{}{}
		paired[pair.PoolID] = struct{}{}
	}
	if len(paired) != len(pools) {
		return fmt.Errorf("every pool needs exactly one pair record")
	}

	shares := make(map[uint64]math.Int, len(pools))
	owners := make(map[string]struct{}, len(gs.Positions))
	for _, pos := range gs.Positions {
		if err := pos.Validate(); err != nil {
			return err
		}
		if _, ok := pools[pos.PoolID]; !ok {
			return fmt.Errorf("position for unknown pool %d", pos.PoolID)
		}
		key := fmt.Sprintf("%d/%s", pos.PoolID, pos.Owner)
		if _, dup := owners[key]; dup {
			return fmt.Errorf("duplicate position %s", key)
		}
		owners[key] = struct{}{}
		if sum, ok := shares[pos.PoolID]; ok {
			shares[pos.PoolID] = sum.Add(pos.Shares)
		} else {
			shares[pos.PoolID] = pos.Shares
		}
	}
	for id, pool := range pools {
		sum, ok := shares[id]
		if !ok {
			sum = math.ZeroInt()
		}
		if !sum.Equal(pool.TotalShares) {
			return fmt.Errorf("pool %d: positions hold %s shares, pool records %s", id, sum, pool.TotalShares)
		}
	}
	return nil
}
