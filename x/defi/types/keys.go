package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// ModuleName defines the module name
	ModuleName = "defi"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName
)

// Store key prefixes
var (
	ParamsKey              = []byte{0x01} // module parameters
	PoolCountKey           = []byte{0x02} // next pool id
	PoolKeyPrefix          = []byte{0x03} // pool by id
	PairDigestKeyPrefix    = []byte{0x04} // pool id by pair digest
	PoolDigestKeyPrefix    = []byte{0x05} // pair digest by pool id (secondary index)
	PositionKeyPrefix      = []byte{0x06} // position by pool id + owner
	PendingDepositKey      = []byte{0x07} // the single staging slot
	ActiveDelegationKey    = []byte{0x08} // the single delegation slot
	SwapLogKeyPrefix       = []byte{0x10} // swap audit ring
	LiquidityLogKeyPrefix  = []byte{0x11} // liquidity audit ring
	DelegationLogKeyPrefix = []byte{0x12} // delegation archive ring
	LogCounterKeyPrefix    = []byte{0x13} // last id per ring
	SettledTxKeyPrefix     = []byte{0x14} // commit height by correlation id
)

// PoolKey returns the store key for a pool
func PoolKey(poolID uint64) []byte {
	return append(append([]byte{}, PoolKeyPrefix...), sdk.Uint64ToBigEndian(poolID)...)
}

// PairDigestKey returns the store key mapping a pair digest to its pool id
func PairDigestKey(digest PairDigest) []byte {
	return append(append([]byte{}, PairDigestKeyPrefix...), digest[:]...)
}

// PoolDigestKey returns the secondary index key from pool id to digest
func PoolDigestKey(poolID uint64) []byte {
	return append(append([]byte{}, PoolDigestKeyPrefix...), sdk.Uint64ToBigEndian(poolID)...)
}

// PositionPoolPrefix returns the prefix covering every position of a pool
func PositionPoolPrefix(poolID uint64) []byte {
	return append(append([]byte{}, PositionKeyPrefix...), sdk.Uint64ToBigEndian(poolID)...)
}

// PositionKey returns the store key for a provider's position in a pool
func PositionKey(poolID uint64, owner string) []byte {
	return append(PositionPoolPrefix(poolID), []byte(owner)...)
}

// LogEntryKey returns the key of one entry inside a ring log
func LogEntryKey(prefix []byte, id uint64) []byte {
	return append(append([]byte{}, prefix...), sdk.Uint64ToBigEndian(id)...)
}

// LogCounterKey returns the key holding the newest id of a ring log
func LogCounterKey(prefix []byte) []byte {
	return append(append([]byte{}, LogCounterKeyPrefix...), prefix...)
}

// SettledTxKey returns the key marking a committed transaction
func SettledTxKey(correlationID string) []byte {
	return append(append([]byte{}, SettledTxKeyPrefix...), []byte(correlationID)...)
}
