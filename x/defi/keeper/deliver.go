package keeper

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdktelemetry "github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/hashicorp/go-metrics"

	"github.com/onesgame/onesdefi/app/telemetry"
	"github.com/onesgame/onesdefi/x/defi/types"
)

// TxResult describes a committed settlement transaction.
type TxResult struct {
	CorrelationID string
	Effects       []types.Effect
	Events        sdk.Events
}

// DeliverTx executes a settlement transaction atomically. Msgs run in order
// and the effects queued by each msg run right after it returns. If any msg
// or effect fails, nothing the transaction did is kept: no state, no effects
// and no events.
func (k Keeper) DeliverTx(ctx sdk.Context, tx types.Tx) (res *TxResult, err error) {
	start := time.Now()
	spanCtx, span := telemetry.StartTxSpan(ctx.Context(), tx, ctx.BlockHeight())
	ctx = ctx.WithContext(spanCtx)
	defer func() {
		var correlationID string
		if res != nil {
			correlationID = res.CorrelationID
		}
		telemetry.EndSpan(span, correlationID, err)
		k.observeTx(ctx, start, res, err)
	}()
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, k.recoverPanic(ctx, r)
		}
	}()

	if err := tx.ValidateBasic(); err != nil {
		return nil, err
	}
	txBytes, err := tx.Bytes()
	if err != nil {
		return nil, err
	}

	s := &settlement{
		correlationID: types.CorrelationID(txBytes),
		tx:            tx,
	}
	if err := k.checkReplay(ctx, s.correlationID); err != nil {
		return nil, k.abort(ctx, s, err)
	}
	cacheCtx, write := ctx.CacheContext()
	cacheCtx = withSettlement(cacheCtx.WithTxBytes(txBytes), s)

	var executed []types.Effect
	for i, msg := range tx.Msgs {
		s.msgIndex = i
		if err := k.runMsg(cacheCtx, i, msg); err != nil {
			return nil, k.abort(ctx, s, errorsmod.Wrapf(err, "msg %d (%s)", i, msg.Type()))
		}
		effects, err := k.flush(cacheCtx, s)
		if err != nil {
			return nil, k.abort(ctx, s, errorsmod.Wrapf(err, "msg %d (%s) effects", i, msg.Type()))
		}
		executed = append(executed, effects...)
	}

	k.markSettled(cacheCtx, s.correlationID)
	events := cacheCtx.EventManager().Events()
	write()

	k.Logger(ctx).Debug("settlement transaction committed",
		"correlation_id", s.correlationID,
		"msgs", len(tx.Msgs),
		"effects", len(executed),
	)

	return &TxResult{
		CorrelationID: s.correlationID,
		Effects:       executed,
		Events:        events,
	}, nil
}

// runMsg handles one msg inside its own span.
func (k Keeper) runMsg(ctx sdk.Context, index int, msg types.Msg) error {
	spanCtx, span := telemetry.StartMsgSpan(ctx.Context(), index, msg.Type())
	err := k.handleMsg(ctx.WithContext(spanCtx), msg)
	telemetry.EndSpan(span, "", err)
	return err
}

func (k Keeper) abort(ctx sdk.Context, s *settlement, err error) error {
	k.Logger(ctx).Info("settlement transaction aborted",
		"correlation_id", s.correlationID,
		"msg_index", s.msgIndex,
		"class", types.ClassOf(err).String(),
		"error", err.Error(),
	)
	return err
}

// recoverPanic turns a panic raised while executing a transaction into an
// aborting error. The cache context is dropped with it, so no state leaks.
func (k Keeper) recoverPanic(ctx sdk.Context, r any) error {
	msg := fmt.Sprintf("%v", r)
	k.Logger(ctx).Error("panic recovered in settlement transaction",
		"panic", msg,
		"stack_trace", string(debug.Stack()),
	)
	if strings.Contains(msg, "overflow") {
		return types.ErrOverflow.Wrap(msg)
	}
	return types.ErrInvariantBroken.Wrapf("panic: %s", msg)
}

func (k Keeper) observeTx(ctx sdk.Context, start time.Time, res *TxResult, err error) {
	outcome := "committed"
	if err != nil {
		outcome = types.ClassOf(err).String()
	}
	effects := 0
	if res != nil {
		effects = len(res.Effects)
	}

	telemetry.RecordSettlement(ctx.Context(), outcome, effects)
	sdktelemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "settlement", "tx"},
		1,
		[]metrics.Label{sdktelemetry.NewLabel("outcome", outcome)},
	)
	if k.metrics == nil {
		return
	}
	k.metrics.TxTotal.WithLabelValues(outcome).Inc()
	k.metrics.TxLatency.Observe(time.Since(start).Seconds())
}
