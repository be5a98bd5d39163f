package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/observlib/pkg/telemetry"
)

func TestNameFilterCore(t *testing.T) {
	filters, err := parseFilters(map[string]string{
		"telemetry":   FilterOff,
		"grpc":        "error",
		"app.verbose": "debug",
	})
	require.NoError(t, err)

	inner, observed := observer.New(TraceLevel)
	logger := zap.New(&nameFilterCore{Core: inner, level: zapcore.InfoLevel, filters: filters})

	logger.Named("telemetry").Error("dropped")
	logger.Named("telemetry").Named("shutdown").Warn("dropped child")
	logger.Named("grpc").Warn("below override")
	logger.Named("grpc").Error("grpc error")
	logger.Named("app").Debug("below global")
	logger.Named("app").Named("verbose").Debug("verbose debug")
	logger.Info("root info")

	var msgs []string
	for _, e := range observed.All() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"grpc error", "verbose debug", "root info"}, msgs)
}

func TestNameFilterCore_Enabled(t *testing.T) {
	inner, _ := observer.New(TraceLevel)

	core := &nameFilterCore{Core: inner, level: zapcore.InfoLevel}
	assert.False(t, core.Enabled(zapcore.DebugLevel))
	assert.True(t, core.Enabled(zapcore.InfoLevel))

	core.filters = []nameFilter{{name: "app", level: zapcore.DebugLevel}}
	assert.True(t, core.Enabled(zapcore.DebugLevel))
	assert.False(t, core.Enabled(TraceLevel))
}

func TestNewLogger_ExportsToLogBackend(t *testing.T) {
	tt := telemetry.NewTestTelemetry(t)

	cfg := NewDefaultConfig()
	cfg.Output = OutputConfig{OTel: true}
	cfg.Sampling.Enabled = false

	logger, err := NewLogger(cfg, tt.LoggerProvider())
	require.NoError(t, err)

	ctx := context.Background()
	logger.Info(ctx, "exported")
	logger.Named("telemetry").Warn(ctx, "kept out of the backend")
	logger.Named("telemetry").Named("shutdown").Error(ctx, "also kept out")

	require.NoError(t, tt.ForceFlush(ctx))

	records := tt.Logs.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "exported", records[0].Body().AsString())
	assert.Equal(t, otelScope, records[0].InstrumentationScope().Name)

	require.NoError(t, tt.Shutdown(ctx))
}
