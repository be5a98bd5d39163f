package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Shutdown paths and outcomes used as metric labels.
const (
	pathBlocking = "blocking"
	pathDeadline = "deadline"
	// pathBackground labels a deadline shutdown that finished after its
	// caller had given up.
	pathBackground = "deadline_background"

	outcomeOK          = "ok"
	outcomeFailed      = "failed"
	outcomeTimeout     = "timeout"
	outcomeAbandoned   = "abandoned"
	outcomeWorkerError = "worker_error"
)

// shutdownMetrics holds Prometheus metrics for the shutdown coordinator.
//
// Metrics:
//   - observlib_shutdown_total{path,outcome} - shutdown calls by result, plus
//     path="deadline_background" for shutdowns finishing after the caller
//     gave up
//   - observlib_backend_shutdown_failures_total{backend} - per-backend failures
//   - observlib_shutdown_duration_seconds{path} - coordinator run time
//
// A nil *shutdownMetrics records nothing.
type shutdownMetrics struct {
	shutdownsTotal  *prometheus.CounterVec
	backendFailures *prometheus.CounterVec
	duration        *prometheus.HistogramVec
}

// newShutdownMetrics registers the coordinator metrics on reg. Collectors
// already registered by another Manager on the same registry are reused.
func newShutdownMetrics(reg prometheus.Registerer) (*shutdownMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	shutdowns, err := registerVec(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "observlib_shutdown_total",
			Help: "Total telemetry shutdown results by path and outcome; path=deadline_background counts shutdowns that finished after the caller gave up",
		},
		[]string{"path", "outcome"},
	))
	if err != nil {
		return nil, err
	}

	failures, err := registerVec(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "observlib_backend_shutdown_failures_total",
			Help: "Total telemetry backend shutdown failures by backend",
		},
		[]string{"backend"}, // "trace", "metric", "log"
	))
	if err != nil {
		return nil, err
	}

	duration, err := registerVec(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "observlib_shutdown_duration_seconds",
			Help:    "Duration of coordinated telemetry shutdown in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"path"},
	))
	if err != nil {
		return nil, err
	}

	return &shutdownMetrics{
		shutdownsTotal:  shutdowns,
		backendFailures: failures,
		duration:        duration,
	}, nil
}

func registerVec[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *shutdownMetrics) recordOutcome(path, outcome string) {
	if m == nil {
		return
	}
	m.shutdownsTotal.WithLabelValues(path, outcome).Inc()
}

func (m *shutdownMetrics) recordBackendFailure(s Signal) {
	if m == nil {
		return
	}
	m.backendFailures.WithLabelValues(s.label()).Inc()
}

func (m *shutdownMetrics) observeDuration(path string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(path).Observe(d.Seconds())
}
