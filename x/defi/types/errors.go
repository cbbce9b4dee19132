package types

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
)

// Error codes are grouped by class: 2-9 authorization, 10-39 validation,
// 40-69 state, 70-99 invariant.
var (
	// Authorization
	ErrUnauthorized = sdkerrors.Register(ModuleName, 2, "caller is not authorized")

	// Validation
	ErrInvalidAsset      = sdkerrors.Register(ModuleName, 10, "invalid asset")
	ErrSameAsset         = sdkerrors.Register(ModuleName, 11, "pair assets must differ")
	ErrUnknownAsset      = sdkerrors.Register(ModuleName, 12, "asset is not a recognized issued currency")
	ErrDuplicatePair     = sdkerrors.Register(ModuleName, 13, "pair already registered")
	ErrInvalidMemo       = sdkerrors.Register(ModuleName, 14, "malformed transfer memo")
	ErrTokenMismatch     = sdkerrors.Register(ModuleName, 15, "asset does not match either pool side")
	ErrSideMismatch      = sdkerrors.Register(ModuleName, 16, "deposit legs do not match pool sides")
	ErrLiquidityMismatch = sdkerrors.Register(ModuleName, 17, "deposit legs disagree")
	ErrInvalidAmount     = sdkerrors.Register(ModuleName, 18, "invalid amount")
	ErrInvalidAddress    = sdkerrors.Register(ModuleName, 19, "invalid address")
	ErrInvalidRoute      = sdkerrors.Register(ModuleName, 20, "invalid swap route")
	ErrInvalidSlippage   = sdkerrors.Register(ModuleName, 21, "invalid slippage bound")
	ErrInvalidWeight     = sdkerrors.Register(ModuleName, 22, "invalid weight")
	ErrInvalidParams     = sdkerrors.Register(ModuleName, 23, "invalid parameters")
	ErrUnknownVenue      = sdkerrors.Register(ModuleName, 24, "unknown delegation venue")
	ErrInvalidTx         = sdkerrors.Register(ModuleName, 25, "invalid transaction")

	// State
	ErrPoolNotFound             = sdkerrors.Register(ModuleName, 40, "pool not found")
	ErrPositionNotFound         = sdkerrors.Register(ModuleName, 41, "position not found")
	ErrDelegationNotFound       = sdkerrors.Register(ModuleName, 42, "no active delegation")
	ErrDelegationAlreadyActive  = sdkerrors.Register(ModuleName, 43, "a delegation is already active")
	ErrAlreadyPaired            = sdkerrors.Register(ModuleName, 44, "deposit already has both legs")
	ErrDepositNotReady          = sdkerrors.Register(ModuleName, 45, "no ready deposit in this transaction")
	ErrPoolNotEmpty             = sdkerrors.Register(ModuleName, 46, "pool still has outstanding shares")
	ErrEmptyPool                = sdkerrors.Register(ModuleName, 47, "pool has no liquidity")
	ErrNotPegPool               = sdkerrors.Register(ModuleName, 48, "pool is not the designated peg pool")
	ErrInvalidDelegationStatus  = sdkerrors.Register(ModuleName, 49, "delegation is in the wrong state")
	ErrClaimUnsupported         = sdkerrors.Register(ModuleName, 50, "venue does not support claims")
	ErrInsufficientPoolReserves = sdkerrors.Register(ModuleName, 51, "pool reserves too small")
	ErrNoSettlement             = sdkerrors.Register(ModuleName, 52, "called outside a settlement transaction")
	ErrTxReplayed               = sdkerrors.Register(ModuleName, 53, "transaction already settled")

	// Invariant
	ErrSlippageExceeded     = sdkerrors.Register(ModuleName, 70, "slippage exceeded")
	ErrSettlementIncomplete = sdkerrors.Register(ModuleName, 71, "settlement shortfall not reconciled")
	ErrZeroAmount           = sdkerrors.Register(ModuleName, 72, "amount rounds to zero")
	ErrZeroRedemption       = sdkerrors.Register(ModuleName, 73, "redemption rounds to zero")
	ErrInsufficientShares   = sdkerrors.Register(ModuleName, 74, "insufficient liquidity shares")
	ErrInvariantBroken      = sdkerrors.Register(ModuleName, 75, "ledger invariant broken")
	ErrOverflow             = sdkerrors.Register(ModuleName, 76, "arithmetic overflow")
)

// ErrorClass groups module errors by who can fix them.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	ClassAuthorization
	ClassValidation
	ClassState
	ClassInvariant
)

func (c ErrorClass) String() string {
	switch c {
	case ClassAuthorization:
		return "authorization"
	case ClassValidation:
		return "validation"
	case ClassState:
		return "state"
	case ClassInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// ClassOf returns the class of the first module error found in err's chain.
func ClassOf(err error) ErrorClass {
	var sdkErr *sdkerrors.Error
	if err == nil || !errors.As(err, &sdkErr) || sdkErr.Codespace() != ModuleName {
		return ClassUnknown
	}

	switch code := sdkErr.ABCICode(); {
	case code >= 2 && code < 10:
		return ClassAuthorization
	case code >= 10 && code < 40:
		return ClassValidation
	case code >= 40 && code < 70:
		return ClassState
	case code >= 70 && code < 100:
		return ClassInvariant
	default:
		return ClassUnknown
	}
}
