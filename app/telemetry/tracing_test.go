package telemetry_test

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/onesgame/onesdefi/app/telemetry"
	keepertest "github.com/onesgame/onesdefi/testutil/keeper"
	"github.com/onesgame/onesdefi/x/defi/types"
)

func TestNewProviderConfig(t *testing.T) {
	p, err := telemetry.NewProvider(telemetry.Config{})
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(context.Background()))

	_, err = telemetry.NewProvider(telemetry.Config{Enabled: true})
	require.ErrorContains(t, err, "otlp endpoint is required")

	_, err = telemetry.NewProvider(telemetry.Config{Enabled: true, OTLPEndpoint: "localhost:4318", SampleRate: 2})
	require.ErrorContains(t, err, "sample rate")
}

func TestSettlementSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	env := keepertest.DefiEnv(t)
	usd := types.NewAssetRef("bitstamp", "USD")
	env.Ledger.RegisterAsset(usd, 4)
	alice := keepertest.TestAddr("alice")
	keepertest.Fund(t, env, alice, usd, 10)

	res, err := env.Deliver([]string{alice},
		types.NewMsgTransfer(alice, types.NewAssetAmount(usd, math.NewInt(10)), "tip"))
	require.NoError(t, err)
	_, err = env.Deliver([]string{alice},
		types.NewMsgTransfer(alice, types.NewAssetAmount(usd, math.NewInt(10)), "swap,1,50"))
	require.Error(t, err)

	var deliver []tracesdk.ReadOnlySpan
	msgSpans := 0
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case "settlement.deliver":
			deliver = append(deliver, span)
		case "settlement.msg.transfer":
			msgSpans++
		}
	}
	require.Len(t, deliver, 2)
	require.Equal(t, 2, msgSpans)

	require.Equal(t, codes.Ok, deliver[0].Status().Code)
	found := false
	for _, attr := range deliver[0].Attributes() {
		if attr.Key == "tx.correlation_id" {
			require.Equal(t, res.CorrelationID, attr.Value.AsString())
			found = true
		}
	}
	require.True(t, found)
	require.Equal(t, codes.Error, deliver[1].Status().Code)
}
