// Package keeper implements the defi module keeper.
//
// The module runs a constant-product exchange over pairs of issued assets and
// keeps the liquidity accounting behind it. All entry points run inside a
// settlement transaction (see DeliverTx): state changes go to a cache context
// and outbound transfers and calls are queued, then executed in order after
// each msg. Any failure discards both.
//
// # Core Functionality
//
// Pair Registry: one pool per unordered asset pair, found through a sha256
// digest of the canonical pair. The native asset always sits on side B.
//
// Swaps: inbound transfers with a swap memo trade through a route of pools.
// Every hop charges the protocol fees on its input and checks the realized
// price against the pool price and the caller's slippage bound.
//
// Liquidity: a deposit is two transfers plus MsgFinalizeAddLiquidity in one
// transaction. The legs are staged under the transaction's correlation id;
// a leftover stage from another transaction is refunded.
//
// Delegation: part of the peg pool's reserves can be lent to an external
// venue. Venue transfers move the session through Lent, PartialBack,
// FullyBack and Claimed until MsgSettleDelegation archives it.
//
// # Usage Patterns
//
// Swapping:
//
//	memo := types.SwapMemo(clientRef, 100, poolID)
//	tx := types.NewTx(nonce, []string{trader}, types.NewMsgTransfer(trader, input, memo))
//	res, err := k.DeliverTx(ctx, tx)
//
// Depositing:
//
//	memo := types.AddLiquidityMemo(poolID)
//	tx := types.NewTx(nonce, []string{provider},
//		types.NewMsgTransfer(provider, legA, memo),
//		types.NewMsgTransfer(provider, legB, memo),
//		&types.MsgFinalizeAddLiquidity{Provider: provider, PoolID: poolID},
//	)
package keeper
