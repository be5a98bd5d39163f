package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// newTracerProvider creates a TracerProvider with a batching exporter.
func newTracerProvider(ctx context.Context, cfg *Config, o *options, res *resource.Resource) (*trace.TracerProvider, error) {
	exporter := o.spanExporter
	if exporter == nil {
		var err error
		exporter, err = newSpanExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating trace exporter: %w", err)
		}
	}

	var sampler trace.Sampler
	if cfg.Sampling.Rate >= 1.0 {
		sampler = trace.AlwaysSample()
	} else if cfg.Sampling.Rate <= 0 {
		sampler = trace.NeverSample()
	} else {
		sampler = trace.TraceIDRatioBased(cfg.Sampling.Rate)
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter, trace.WithBatchTimeout(cfg.Traces.Interval.Duration())),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(sampler)),
	), nil
}

func newSpanExporter(ctx context.Context, cfg *Config) (trace.SpanExporter, error) {
	switch cfg.Protocol {
	case ProtocolJSON:
		return stdouttrace.New(stdouttrace.WithWriter(cfg.jsonWriter()))
	case ProtocolGRPC:
		ep, err := parseEndpoint(cfg.Endpoint, cfg.Insecure)
		if err != nil {
			return nil, err
		}
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(ep.host),
		}
		if ep.insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else if tc := cfg.tlsConfig(); tc != nil {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tc)))
		}
		if h := cfg.headers(); h != nil {
			opts = append(opts, otlptracegrpc.WithHeaders(h))
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		ep, err := parseEndpoint(cfg.Endpoint, cfg.Insecure)
		if err != nil {
			return nil, err
		}
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(ep.host),
			otlptracehttp.WithURLPath(ep.basePath + SignalTrace.Path()),
		}
		if ep.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		} else if tc := cfg.tlsConfig(); tc != nil {
			opts = append(opts, otlptracehttp.WithTLSClientConfig(tc))
		}
		if h := cfg.headers(); h != nil {
			opts = append(opts, otlptracehttp.WithHeaders(h))
		}
		return otlptracehttp.New(ctx, opts...)
	}
}

// newMeterProvider creates a MeterProvider with a periodic reader.
func newMeterProvider(ctx context.Context, cfg *Config, o *options, res *resource.Resource) (*metric.MeterProvider, error) {
	reader := o.metricReader
	if reader == nil {
		exporter, err := newMetricExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		reader = metric.NewPeriodicReader(exporter,
			metric.WithInterval(cfg.Metrics.ExportInterval.Duration()),
		)
	}

	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
	), nil
}

func newMetricExporter(ctx context.Context, cfg *Config) (metric.Exporter, error) {
	// Pin cumulative temporality so an inherited
	// OTEL_EXPORTER_OTLP_METRICS_TEMPORALITY_PREFERENCE cannot change it.
	cumulative := func(metric.InstrumentKind) metricdata.Temporality {
		return metricdata.CumulativeTemporality
	}

	switch cfg.Protocol {
	case ProtocolJSON:
		return stdoutmetric.New(stdoutmetric.WithWriter(cfg.jsonWriter()))
	case ProtocolGRPC:
		ep, err := parseEndpoint(cfg.Endpoint, cfg.Insecure)
		if err != nil {
			return nil, err
		}
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(ep.host),
			otlpmetricgrpc.WithTemporalitySelector(cumulative),
		}
		if ep.insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		} else if tc := cfg.tlsConfig(); tc != nil {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(tc)))
		}
		if h := cfg.headers(); h != nil {
			opts = append(opts, otlpmetricgrpc.WithHeaders(h))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		ep, err := parseEndpoint(cfg.Endpoint, cfg.Insecure)
		if err != nil {
			return nil, err
		}
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(ep.host),
			otlpmetrichttp.WithURLPath(ep.basePath + SignalMetric.Path()),
			otlpmetrichttp.WithTemporalitySelector(cumulative),
		}
		if ep.insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		} else if tc := cfg.tlsConfig(); tc != nil {
			opts = append(opts, otlpmetrichttp.WithTLSClientConfig(tc))
		}
		if h := cfg.headers(); h != nil {
			opts = append(opts, otlpmetrichttp.WithHeaders(h))
		}
		return otlpmetrichttp.New(ctx, opts...)
	}
}

// newLoggerProvider creates a LoggerProvider with a batching processor.
func newLoggerProvider(ctx context.Context, cfg *Config, o *options, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	exporter := o.logExporter
	if exporter == nil {
		var err error
		exporter, err = newLogExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating log exporter: %w", err)
		}
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter,
			sdklog.WithExportInterval(cfg.Logs.Interval.Duration()),
		)),
	), nil
}

func newLogExporter(ctx context.Context, cfg *Config) (sdklog.Exporter, error) {
	switch cfg.Protocol {
	case ProtocolJSON:
		return stdoutlog.New(stdoutlog.WithWriter(cfg.jsonWriter()))
	case ProtocolGRPC:
		ep, err := parseEndpoint(cfg.Endpoint, cfg.Insecure)
		if err != nil {
			return nil, err
		}
		opts := []otlploggrpc.Option{
			otlploggrpc.WithEndpoint(ep.host),
		}
		if ep.insecure {
			opts = append(opts, otlploggrpc.WithInsecure())
		} else if tc := cfg.tlsConfig(); tc != nil {
			opts = append(opts, otlploggrpc.WithTLSCredentials(credentials.NewTLS(tc)))
		}
		if h := cfg.headers(); h != nil {
			opts = append(opts, otlploggrpc.WithHeaders(h))
		}
		return otlploggrpc.New(ctx, opts...)
	default:
		ep, err := parseEndpoint(cfg.Endpoint, cfg.Insecure)
		if err != nil {
			return nil, err
		}
		opts := []otlploghttp.Option{
			otlploghttp.WithEndpoint(ep.host),
			otlploghttp.WithURLPath(ep.basePath + SignalLog.Path()),
		}
		if ep.insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		} else if tc := cfg.tlsConfig(); tc != nil {
			opts = append(opts, otlploghttp.WithTLSClientConfig(tc))
		}
		if h := cfg.headers(); h != nil {
			opts = append(opts, otlploghttp.WithHeaders(h))
		}
		return otlploghttp.New(ctx, opts...)
	}
}

// tlsConfig returns a client TLS config when verification is disabled,
// nil to use the exporter defaults otherwise.
func (c *Config) tlsConfig() *tls.Config {
	if !c.TLSSkipVerify {
		return nil
	}
	return &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // User explicitly requested
	}
}

func (c *Config) jsonWriter() io.Writer {
	if c.JSONWriter != nil {
		return c.JSONWriter
	}
	return os.Stdout
}
