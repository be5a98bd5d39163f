package telemetry

import (
	"context"
	"sync"
	"testing"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry is a Manager backed by in-memory exporters for tests.
type TestTelemetry struct {
	*Manager

	Spans        *tracetest.InMemoryExporter
	MetricReader *sdkmetric.ManualReader
	Logs         *InMemoryLogExporter
}

// NewTestTelemetry creates a Manager whose backends export to memory. It
// uses its own resource cache so tests do not touch the process-wide one.
func NewTestTelemetry(tb testing.TB, opts ...Option) *TestTelemetry {
	tb.Helper()

	spans := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()
	logs := &InMemoryLogExporter{}

	cfg := NewDefaultConfig()
	cfg.ServiceName = "test"
	cfg.Protocol = ProtocolJSON

	opts = append([]Option{
		WithResourceCache(&ResourceCache{}),
		WithTraceExporter(spans),
		WithMetricReader(reader),
		WithLogExporter(logs),
	}, opts...)

	m, err := New(context.Background(), cfg, opts...)
	if err != nil {
		tb.Fatalf("creating test telemetry: %v", err)
	}

	return &TestTelemetry{
		Manager:      m,
		Spans:        spans,
		MetricReader: reader,
		Logs:         logs,
	}
}

// EndedSpans flushes the trace backend and returns exported spans.
func (t *TestTelemetry) EndedSpans(tb testing.TB) tracetest.SpanStubs {
	tb.Helper()
	if tp, ok := t.backends[SignalTrace].(*trace.TracerProvider); ok {
		if err := tp.ForceFlush(context.Background()); err != nil {
			tb.Fatalf("flushing spans: %v", err)
		}
	}
	return t.Spans.GetSpans()
}

// CollectMetrics reads the current metric state.
func (t *TestTelemetry) CollectMetrics(tb testing.TB) metricdata.ResourceMetrics {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := t.MetricReader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collecting metrics: %v", err)
	}
	return rm
}

// InMemoryLogExporter stores exported log records.
type InMemoryLogExporter struct {
	mu       sync.Mutex
	records  []sdklog.Record
	shutdown bool
}

// Export implements sdklog.Exporter.
func (e *InMemoryLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

// Shutdown implements sdklog.Exporter.
func (e *InMemoryLogExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdown = true
	return nil
}

// ForceFlush implements sdklog.Exporter.
func (e *InMemoryLogExporter) ForceFlush(context.Context) error {
	return nil
}

// Records returns a copy of the exported records.
func (e *InMemoryLogExporter) Records() []sdklog.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]sdklog.Record, len(e.records))
	copy(out, e.records)
	return out
}

// IsShutdown reports whether the exporter was shut down.
func (e *InMemoryLogExporter) IsShutdown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown
}
