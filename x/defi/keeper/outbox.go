package keeper

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

type settlementKey struct{}

// settlement is the per-transaction state shared by every entry point of one
// settlement transaction.
type settlement struct {
	correlationID string
	tx            types.Tx
	msgIndex      int
	queue         []types.Effect
}

func withSettlement(ctx sdk.Context, s *settlement) sdk.Context {
	return ctx.WithValue(settlementKey{}, s)
}

func settlementFrom(ctx context.Context) (*settlement, error) {
	s, ok := sdk.UnwrapSDKContext(ctx).Value(settlementKey{}).(*settlement)
	if !ok || s == nil {
		return nil, types.ErrNoSettlement
	}
	return s, nil
}

// CorrelationID returns the identity of the settlement transaction running in ctx.
func (k Keeper) CorrelationID(ctx context.Context) (string, error) {
	s, err := settlementFrom(ctx)
	if err != nil {
		return "", err
	}
	return s.correlationID, nil
}

// enqueue appends an outbound effect. Transfers of nothing are dropped.
func (k Keeper) enqueue(ctx context.Context, effects ...types.Effect) error {
	s, err := settlementFrom(ctx)
	if err != nil {
		return err
	}
	for _, e := range effects {
		if e.Kind == types.EffectTransfer && !e.Funds.IsPositive() {
			continue
		}
		s.queue = append(s.queue, e)
	}
	return nil
}

// flush executes the queued effects in order and empties the queue.
func (k Keeper) flush(ctx sdk.Context, s *settlement) ([]types.Effect, error) {
	queued := s.queue
	s.queue = nil

	self := k.GetModuleAddress().String()
	for i, e := range queued {
		switch e.Kind {
		case types.EffectTransfer:
			to, err := sdk.AccAddressFromBech32(e.Recipient)
			if err != nil {
				return nil, types.ErrInvalidAddress.Wrapf("effect %d recipient %q: %s", i, e.Recipient, err)
			}
			coins := sdk.NewCoins(e.Funds.Coin())
			if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, to, coins); err != nil {
				return nil, fmt.Errorf("effect %d: send %s to %s: %w", i, coins, e.Recipient, err)
			}
			ctx.EventManager().EmitEvent(sdk.NewEvent(
				types.EventTypeOutboundTransfer,
				sdk.NewAttribute(types.AttributeKeyRecipient, e.Recipient),
				sdk.NewAttribute(types.AttributeKeyAmount, coins.String()),
				sdk.NewAttribute(types.AttributeKeyMemo, e.Memo),
			))

		case types.EffectCall:
			if k.router == nil {
				return nil, fmt.Errorf("effect %d: no call router configured for %s", i, e.Call)
			}
			if err := k.router.Dispatch(ctx, self, e.Call); err != nil {
				return nil, fmt.Errorf("effect %d: %s: %w", i, e.Call, err)
			}
			ctx.EventManager().EmitEvent(sdk.NewEvent(
				types.EventTypeOutboundCall,
				sdk.NewAttribute(types.AttributeKeyTarget, e.Call.Target),
				sdk.NewAttribute(types.AttributeKeyMethod, e.Call.Method),
			))

		default:
			return nil, fmt.Errorf("effect %d: unknown kind %d", i, e.Kind)
		}
	}
	return queued, nil
}
