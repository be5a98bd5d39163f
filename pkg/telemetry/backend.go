package telemetry

import (
	"context"
	"fmt"
)

// Backend is one telemetry signal's export pipeline.
//
// *sdktrace.TracerProvider, *sdkmetric.MeterProvider and *sdklog.LoggerProvider
// all satisfy it. Copies of a provider pointer share the same pipeline, so
// shutting down through any copy shuts down all of them.
type Backend interface {
	Shutdown(ctx context.Context) error
}

// flusher is implemented by backends that can export buffered data on demand.
type flusher interface {
	ForceFlush(ctx context.Context) error
}

// Signal identifies a telemetry backend.
type Signal int

// Signals in shutdown order.
const (
	SignalTrace Signal = iota
	SignalMetric
	SignalLog

	signalCount = 3
)

// signals lists every signal in the fixed shutdown order.
var signals = [signalCount]Signal{SignalTrace, SignalMetric, SignalLog}

// Name returns the backend name used in error messages and metric labels.
func (s Signal) Name() string {
	switch s {
	case SignalTrace:
		return "tracer provider"
	case SignalMetric:
		return "meter provider"
	case SignalLog:
		return "logger provider"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Path returns the OTLP/HTTP path suffix for the signal.
func (s Signal) Path() string {
	switch s {
	case SignalTrace:
		return "/v1/traces"
	case SignalMetric:
		return "/v1/metrics"
	case SignalLog:
		return "/v1/logs"
	default:
		return ""
	}
}

// label is the short form used for Prometheus labels and log fields.
func (s Signal) label() string {
	switch s {
	case SignalTrace:
		return "trace"
	case SignalMetric:
		return "metric"
	case SignalLog:
		return "log"
	default:
		return "unknown"
	}
}

func (s Signal) String() string {
	return s.label()
}
