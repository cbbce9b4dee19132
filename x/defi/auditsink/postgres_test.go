package auditsink_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onesgame/onesdefi/x/defi/auditsink"
)

// Set DEFI_TEST_PG_DSN to a scratch database to run the Postgres tests.
func postgresSink(t *testing.T) *auditsink.PostgresSink {
	t.Helper()
	dsn := os.Getenv("DEFI_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DEFI_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sink, err := auditsink.NewPostgresSink(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func TestPostgresSinkIdempotent(t *testing.T) {
	sink := postgresSink(t)
	ctx := context.Background()

	// a kind unique to this run keeps reruns against the same database clean
	kind := fmt.Sprintf("test-%d", time.Now().UnixNano())
	for _, id := range []uint64{1, 2, 2} {
		rec := auditsink.Record{Kind: kind, ID: id, CorrelationID: "c", Payload: json.RawMessage(fmt.Sprintf(`{"id":%d}`, id))}
		require.NoError(t, sink.Publish(ctx, rec))
	}

	got, err := sink.Load(ctx, kind, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, uint64(1), got[0].ID)

	got, err = sink.Load(ctx, kind, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, uint64(2), got[0].ID)
}

func TestPostgresSinkRequiresDSN(t *testing.T) {
	_, err := auditsink.NewPostgresSink(context.Background(), "")
	require.Error(t, err)
}
