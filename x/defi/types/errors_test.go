package types

import (
	"errors"
	"fmt"
	"testing"

	errorsmod "cosmossdk.io/errors"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/stretchr/testify/require"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassUnknown},
		{"plain error", errors.New("boom"), ClassUnknown},
		{"foreign codespace", sdkerrors.ErrInsufficientFunds, ClassUnknown},
		{"unauthorized", ErrUnauthorized, ClassAuthorization},
		{"invalid memo", ErrInvalidMemo, ClassValidation},
		{"invalid tx", ErrInvalidTx, ClassValidation},
		{"pool not found", ErrPoolNotFound, ClassState},
		{"no settlement", ErrNoSettlement, ClassState},
		{"slippage", ErrSlippageExceeded, ClassInvariant},
		{"settlement incomplete", ErrSettlementIncomplete, ClassInvariant},
		{"overflow", ErrOverflow.Wrap("reserve"), ClassInvariant},
		{"wrapped", ErrDepositNotReady.Wrap("leg missing"), ClassState},
		{"wrapped twice", errorsmod.Wrapf(ErrZeroRedemption.Wrap("x"), "msg %d", 2), ClassInvariant},
		{"fmt wrapped", fmt.Errorf("msg 0 (transfer): %w", ErrInvalidRoute), ClassValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClassOf(tc.err))
		})
	}
}

func TestErrorClassString(t *testing.T) {
	require.Equal(t, "authorization", ClassAuthorization.String())
	require.Equal(t, "validation", ClassValidation.String())
	require.Equal(t, "state", ClassState.String())
	require.Equal(t, "invariant", ClassInvariant.String())
	require.Equal(t, "unknown", ClassUnknown.String())
}
