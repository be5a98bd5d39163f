package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"
	logglobal "go.opentelemetry.io/otel/log/global"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Manager.
type State int32

const (
	StateInitialized State = iota
	StateShuttingDown
	// StateAwaitingDeadline: ShutdownWithDeadline is racing the worker
	// against its timer.
	StateAwaitingDeadline
	StateShutdownOK
	StateShutdownFailed
	// StateTimedOut: the caller gave up; the shutdown may still be running
	// and moves to a terminal state when it finishes.
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateShuttingDown:
		return "shutting_down"
	case StateAwaitingDeadline:
		return "awaiting_deadline"
	case StateShutdownOK:
		return "shutdown_ok"
	case StateShutdownFailed:
		return "shutdown_failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Manager owns the trace, metric and log backends of a process and shuts
// them down together.
//
// A Manager is single-use: shutdown is not idempotent, and a second
// Shutdown may report failures from backends that are already closed.
// Shutdown must not be called concurrently on the same Manager.
type Manager struct {
	backends [signalCount]Backend
	resource *resource.Resource
	logger   *zap.Logger
	metrics  *shutdownMetrics
	state    atomic.Int32

	mu   sync.Mutex
	done chan struct{} // closed when the latest deadline worker finishes
}

// NewManager builds a Manager from three existing backends. All three are
// required.
func NewManager(tracer, meter, logger Backend, opts ...Option) (*Manager, error) {
	o := newOptions(opts)
	return newManager([signalCount]Backend{tracer, meter, logger}, o.resource, o)
}

func newManager(backends [signalCount]Backend, res *resource.Resource, o *options) (*Manager, error) {
	for _, s := range signals {
		if backends[s] == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingBackend, s.Name())
		}
	}

	metrics, err := newShutdownMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("registering shutdown metrics: %w", err)
	}

	if res == nil {
		res = resource.Empty()
	}

	return &Manager{
		backends: backends,
		resource: res,
		logger:   o.logger,
		metrics:  metrics,
	}, nil
}

// New validates cfg, obtains the shared resource and builds the three
// backends pointed at cfg.Endpoint. Any construction failure aborts New;
// backends already built are shut down before it returns.
//
// The resource comes from a first-call-wins cache: if another caller
// initialized it first, cfg.ServiceName and attributes are ignored. The
// cache is filled before the backends are built, so a New that fails after
// validation still fixes the cached resource.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	o := newOptions(opts)
	attrs := append(cfg.resourceAttributes(), o.attributes...)
	res := o.cache.Get(cfg.ServiceName, attrs...)
	if cached := serviceName(res); cached != cfg.ServiceName {
		o.logger.Warn("telemetry resource already initialized, keeping first service name",
			zap.String("cached", cached),
			zap.String("requested", cfg.ServiceName))
	}

	tp, err := newTracerProvider(ctx, cfg, o, res)
	if err != nil {
		return nil, err
	}

	mp, err := newMeterProvider(ctx, cfg, o, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	lp, err := newLoggerProvider(ctx, cfg, o, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}

	m, err := newManager([signalCount]Backend{tp, mp, lp}, res, o)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		_ = lp.Shutdown(ctx)
		return nil, err
	}

	o.logger.Debug("telemetry initialized",
		zap.String("service", serviceName(res)),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("protocol", string(cfg.Protocol)))

	return m, nil
}

// Initialize is the shorthand for New with default settings, a service
// name, a base endpoint such as "127.0.0.1:4318" and resource attributes.
func Initialize(ctx context.Context, serviceName, endpoint string, attrs ...attribute.KeyValue) (*Manager, error) {
	cfg := NewDefaultConfig()
	cfg.ServiceName = serviceName
	cfg.Endpoint = endpoint
	return New(ctx, cfg, WithAttributes(attrs...))
}

// resourceAttributes returns the configured attributes with service.version
// and service.instance.id. Map attributes are sorted for stable output.
func (c *Config) resourceAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(c.Attributes)+2)
	if c.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(c.ServiceVersion))
	}
	instanceID := c.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	attrs = append(attrs, semconv.ServiceInstanceID(instanceID))

	keys := make([]string, 0, len(c.Attributes))
	for k := range c.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, c.Attributes[k]))
	}
	return attrs
}

// Shutdown shuts down the trace, metric and log backends, in that order,
// on the calling goroutine. Every backend is attempted even when an earlier
// one fails. It returns nil or a *ShutdownError naming each failed backend.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.state.Store(int32(StateShuttingDown))
	err := m.shutdownAll(ctx, pathBlocking)
	m.metrics.recordOutcome(pathBlocking, outcomeOf(err))
	return err
}

// shutdownAll is the coordinator shared by both shutdown paths. Callers
// record the outcome.
func (m *Manager) shutdownAll(ctx context.Context, path string) error {
	start := time.Now()

	var failures []BackendError
	for _, s := range signals {
		m.logger.Debug("shutting down telemetry backend", zap.Stringer("backend", s))
		if err := m.backends[s].Shutdown(ctx); err != nil {
			m.logger.Warn("telemetry backend shutdown failed",
				zap.Stringer("backend", s),
				zap.Error(err))
			m.metrics.recordBackendFailure(s)
			failures = append(failures, BackendError{Signal: s, Err: err})
		}
	}

	m.metrics.observeDuration(path, time.Since(start))

	if len(failures) > 0 {
		m.state.Store(int32(StateShutdownFailed))
		return &ShutdownError{Failures: failures}
	}

	m.state.Store(int32(StateShutdownOK))
	return nil
}

// outcomeOf maps a coordinator result to its metric label.
func outcomeOf(err error) string {
	var workerErr *WorkerError
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &workerErr):
		return outcomeWorkerError
	default:
		return outcomeFailed
	}
}

// ForceFlush exports all buffered telemetry, in shutdown order.
func (m *Manager) ForceFlush(ctx context.Context) error {
	var errs []error
	for _, s := range signals {
		f, ok := m.backends[s].(flusher)
		if !ok {
			continue
		}
		if err := f.ForceFlush(ctx); err != nil {
			errs = append(errs, BackendError{Signal: s, Err: err})
		}
	}
	return errors.Join(errs...)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Resource returns the resource attached to all exported telemetry.
func (m *Manager) Resource() *resource.Resource {
	return m.resource
}

// TracerProvider returns the trace backend as an API provider, or a no-op
// provider when the backend is not one.
func (m *Manager) TracerProvider() trace.TracerProvider {
	if tp, ok := m.backends[SignalTrace].(trace.TracerProvider); ok {
		return tp
	}
	return tracenoop.NewTracerProvider()
}

// MeterProvider returns the metric backend as an API provider, or a no-op
// provider when the backend is not one.
func (m *Manager) MeterProvider() metric.MeterProvider {
	if mp, ok := m.backends[SignalMetric].(metric.MeterProvider); ok {
		return mp
	}
	return metricnoop.NewMeterProvider()
}

// LoggerProvider returns the log backend as an API provider, or a no-op
// provider when the backend is not one.
func (m *Manager) LoggerProvider() log.LoggerProvider {
	if lp, ok := m.backends[SignalLog].(log.LoggerProvider); ok {
		return lp
	}
	return lognoop.NewLoggerProvider()
}

// Tracer returns a tracer for the given instrumentation scope.
func (m *Manager) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return m.TracerProvider().Tracer(name, opts...)
}

// Meter returns a meter for the given instrumentation scope.
func (m *Manager) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return m.MeterProvider().Meter(name, opts...)
}

// Logger returns an OTel logger for the given instrumentation scope.
func (m *Manager) Logger(name string, opts ...log.LoggerOption) log.Logger {
	return m.LoggerProvider().Logger(name, opts...)
}

// SetGlobal installs the manager's providers as the OTel globals and sets
// W3C trace context propagation. Prefer passing the Manager explicitly;
// this exists for libraries that only read the globals.
func (m *Manager) SetGlobal() {
	otel.SetTracerProvider(m.TracerProvider())
	otel.SetMeterProvider(m.MeterProvider())
	logglobal.SetLoggerProvider(m.LoggerProvider())
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}
