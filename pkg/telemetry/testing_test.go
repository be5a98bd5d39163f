package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func TestNewTestTelemetry(t *testing.T) {
	tt := NewTestTelemetry(t)

	ctx, span := tt.Tracer("testing").Start(context.Background(), "in-memory")
	span.End()

	counter, err := tt.Meter("testing").Int64Counter("requests")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	var rec otellog.Record
	rec.SetBody(otellog.StringValue("hello"))
	tt.Logger("testing").Emit(ctx, rec)

	spans := tt.EndedSpans(t)
	require.Len(t, spans, 1)
	assert.Equal(t, "in-memory", spans[0].Name)

	rm := tt.CollectMetrics(t)
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	assert.Equal(t, "requests", rm.ScopeMetrics[0].Metrics[0].Name)

	require.NoError(t, tt.Shutdown(context.Background()))
	require.Len(t, tt.Logs.Records(), 1)
	assert.Equal(t, "hello", tt.Logs.Records()[0].Body().AsString())
	assert.True(t, tt.Logs.IsShutdown())
	assert.Equal(t, "test", serviceName(tt.Resource()))
}
