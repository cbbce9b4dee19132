// Package auditsink relays the defi module's bounded audit logs to external
// collectors before the rings overwrite them.
package auditsink

import (
	"context"
	"encoding/json"
	"sync"
)

// Record kinds, one per audit log.
const (
	KindSwap       = "swap"
	KindLiquidity  = "liquidity"
	KindDelegation = "delegation"
)

// Record is one audit log entry in transport form.
type Record struct {
	Kind          string          `json:"kind"`
	ID            uint64          `json:"id"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Sink receives audit records. Publish must be idempotent on (Kind, ID).
type Sink interface {
	Publish(ctx context.Context, rec Record) error
	Close() error
}

// MemorySink keeps records in memory, deduplicated on (Kind, ID).
type MemorySink struct {
	mu      sync.Mutex
	records []Record
	seen    map[string]map[uint64]struct{}
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{seen: make(map[string]map[uint64]struct{})}
}

func (m *MemorySink) Publish(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, ok := m.seen[rec.Kind]
	if !ok {
		ids = make(map[uint64]struct{})
		m.seen[rec.Kind] = ids
	}
	if _, dup := ids[rec.ID]; dup {
		return nil
	}
	ids[rec.ID] = struct{}{}
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything published so far.
func (m *MemorySink) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

func (m *MemorySink) Close() error { return nil }
