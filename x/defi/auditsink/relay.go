package auditsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cosmossdk.io/log"
	"golang.org/x/time/rate"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// Source reads the audit rings. The defi keeper implements it.
type Source interface {
	SwapLog(ctx context.Context, after uint64) ([]types.SwapAuditEntry, error)
	LiquidityLog(ctx context.Context, after uint64) ([]types.LiquidityAuditEntry, error)
	DelegationLog(ctx context.Context, after uint64) ([]types.DelegationRecord, error)
}

// Relay forwards audit entries newer than its cursors to every sink.
type Relay struct {
	source  Source
	sinks   []Sink
	logger  log.Logger
	cursors map[string]uint64
	limiter *rate.Limiter
}

// NewRelay returns a relay starting from the beginning of every ring.
func NewRelay(source Source, logger log.Logger, sinks ...Sink) *Relay {
	return &Relay{
		source:  source,
		sinks:   sinks,
		logger:  logger.With("module", "auditsink"),
		cursors: map[string]uint64{KindSwap: 0, KindLiquidity: 0, KindDelegation: 0},
	}
}

// WithRateLimit caps how many records per second the relay hands to its
// sinks. A non-positive perSecond removes the cap.
func (r *Relay) WithRateLimit(perSecond float64, burst int) *Relay {
	if perSecond <= 0 {
		r.limiter = nil
		return r
	}
	if burst < 1 {
		burst = 1
	}
	r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return r
}

// Cursor returns the id of the last entry relayed for kind.
func (r *Relay) Cursor(kind string) uint64 {
	return r.cursors[kind]
}

// Sync publishes every entry appended since the last call. ctx must be able
// to read the module store. It returns how many records were published.
func (r *Relay) Sync(ctx context.Context) (int, error) {
	var records []Record

	swaps, err := r.source.SwapLog(ctx, r.cursors[KindSwap])
	if err != nil {
		return 0, fmt.Errorf("read swap log: %w", err)
	}
	for _, e := range swaps {
		rec, err := newRecord(KindSwap, e.ID, e.CorrelationID, e)
		if err != nil {
			return 0, err
		}
		records = append(records, rec)
	}

	liquidity, err := r.source.LiquidityLog(ctx, r.cursors[KindLiquidity])
	if err != nil {
		return 0, fmt.Errorf("read liquidity log: %w", err)
	}
	for _, e := range liquidity {
		rec, err := newRecord(KindLiquidity, e.ID, e.CorrelationID, e)
		if err != nil {
			return 0, err
		}
		records = append(records, rec)
	}

	delegations, err := r.source.DelegationLog(ctx, r.cursors[KindDelegation])
	if err != nil {
		return 0, fmt.Errorf("read delegation log: %w", err)
	}
	for _, e := range delegations {
		rec, err := newRecord(KindDelegation, e.ID, "", e)
		if err != nil {
			return 0, err
		}
		records = append(records, rec)
	}

	published := 0
	for _, rec := range records {
		if last := r.cursors[rec.Kind]; rec.ID > last+1 {
			r.logger.Info("audit entries pruned before relay",
				"kind", rec.Kind,
				"from", last+1,
				"to", rec.ID-1,
			)
		}
		if err := r.publish(ctx, rec); err != nil {
			return published, err
		}
		r.cursors[rec.Kind] = rec.ID
		published++
	}
	return published, nil
}

func (r *Relay) publish(ctx context.Context, rec Record) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("publish %s/%d: %w", rec.Kind, rec.ID, err)
		}
	}
	var errs []error
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("publish %s/%d: %w", rec.Kind, rec.ID, err)
	}
	return nil
}

// Close closes every sink.
func (r *Relay) Close() error {
	var errs []error
	for _, sink := range r.sinks {
		errs = append(errs, sink.Close())
	}
	return errors.Join(errs...)
}

func newRecord(kind string, id uint64, correlationID string, entry interface{}) (Record, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s/%d: %w", kind, id, err)
	}
	return Record{Kind: kind, ID: id, CorrelationID: correlationID, Payload: payload}, nil
}
