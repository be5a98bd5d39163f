package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Option configures Manager creation.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	cache      *ResourceCache
	resource   *resource.Resource
	attributes []attribute.KeyValue

	spanExporter trace.SpanExporter
	metricReader sdkmetric.Reader
	logExporter  sdklog.Exporter
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: zap.NewNop(),
		cache:  &processResource,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used for shutdown diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegisterer registers shutdown metrics on r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithResourceCache replaces the process-wide resource cache. Mainly useful
// for tests and for processes hosting several independent identities.
func WithResourceCache(c *ResourceCache) Option {
	return func(o *options) {
		if c != nil {
			o.cache = c
		}
	}
}

// WithResource records the resource a manager built by NewManager reports.
func WithResource(res *resource.Resource) Option {
	return func(o *options) {
		o.resource = res
	}
}

// WithAttributes adds resource attributes on top of Config.Attributes.
// They only take effect if this call initializes the resource cache.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(o *options) {
		o.attributes = append(o.attributes, attrs...)
	}
}

// WithTraceExporter overrides the exporter New builds from Config.
func WithTraceExporter(exp trace.SpanExporter) Option {
	return func(o *options) {
		o.spanExporter = exp
	}
}

// WithMetricReader overrides the periodic reader New builds from Config.
func WithMetricReader(r sdkmetric.Reader) Option {
	return func(o *options) {
		o.metricReader = r
	}
}

// WithLogExporter overrides the exporter New builds from Config.
func WithLogExporter(exp sdklog.Exporter) Option {
	return func(o *options) {
		o.logExporter = exp
	}
}
