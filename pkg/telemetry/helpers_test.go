package telemetry

import (
	"bytes"
	"io"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type observedLogger struct {
	logger   *zap.Logger
	observed *observer.ObservedLogs
}

func newObservedLogger() observedLogger {
	core, observed := observer.New(zapcore.DebugLevel)
	return observedLogger{logger: zap.New(core), observed: observed}
}

// jsonConfig returns a config exporting JSON to w, or discarding it.
func jsonConfig(serviceName string, w io.Writer) *Config {
	cfg := NewDefaultConfig()
	cfg.ServiceName = serviceName
	cfg.Protocol = ProtocolJSON
	if w == nil {
		w = io.Discard
	}
	cfg.JSONWriter = w
	return cfg
}

// syncBuffer is a bytes.Buffer safe for the exporters' goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
