package types

// Event types for the defi module
const (
	EventTypePairRegistered   = "pair_registered"
	EventTypePoolRemoved      = "pool_removed"
	EventTypeWeightUpdated    = "weight_updated"
	EventTypeSwapHop          = "swap_hop"
	EventTypeSwap             = "swap"
	EventTypeSwapReward       = "swap_reward"
	EventTypeDepositStaged    = "deposit_staged"
	EventTypeDepositRefunded  = "deposit_refunded"
	EventTypeAddLiquidity     = "add_liquidity"
	EventTypeRemoveLiquidity  = "remove_liquidity"
	EventTypeTransferHeld     = "transfer_held"
	EventTypeTransferForward  = "transfer_forwarded"
	EventTypeDelegationStart  = "delegation_started"
	EventTypeDelegationUpdate = "delegation_updated"
	EventTypeDelegationClaim  = "delegation_claimed"
	EventTypeDelegationSettle = "delegation_settled"
	EventTypeOutboundTransfer = "outbound_transfer"
	EventTypeOutboundCall     = "outbound_call"
)

// Event attribute keys
const (
	AttributeKeyPoolID        = "pool_id"
	AttributeKeyDigest        = "digest"
	AttributeKeyAssetA        = "asset_a"
	AttributeKeyAssetB        = "asset_b"
	AttributeKeySender        = "sender"
	AttributeKeyRecipient     = "recipient"
	AttributeKeyTrader        = "trader"
	AttributeKeyProvider      = "provider"
	AttributeKeyAmountIn      = "amount_in"
	AttributeKeyAmountOut     = "amount_out"
	AttributeKeyAmountA       = "amount_a"
	AttributeKeyAmountB       = "amount_b"
	AttributeKeyRefundA       = "refund_a"
	AttributeKeyRefundB       = "refund_b"
	AttributeKeyFee           = "fee"
	AttributeKeyPrice         = "price"
	AttributeKeyShares        = "shares"
	AttributeKeyRoute         = "route"
	AttributeKeyClientRef     = "client_ref"
	AttributeKeyHop           = "hop"
	AttributeKeyLeg           = "leg"
	AttributeKeyReward        = "reward"
	AttributeKeyWeightKind    = "weight_kind"
	AttributeKeyWeight        = "weight"
	AttributeKeyVenue         = "venue"
	AttributeKeyStatus        = "status"
	AttributeKeyAmount        = "amount"
	AttributeKeyMemo          = "memo"
	AttributeKeyTarget        = "target"
	AttributeKeyMethod        = "method"
	AttributeKeyCorrelationID = "correlation_id"
)
