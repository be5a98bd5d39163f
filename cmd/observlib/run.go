package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/observlib/internal/config"
	adminhttp "github.com/fyrsmithlabs/observlib/internal/http"
	"github.com/fyrsmithlabs/observlib/internal/logging"
	"github.com/fyrsmithlabs/observlib/pkg/telemetry"
)

const instrumentationName = "github.com/fyrsmithlabs/observlib/cmd/observlib"

var runFlags struct {
	count     int
	interval  time.Duration
	adminAddr string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Initialize telemetry, emit records and shut down",
	Long: `Initialize the trace, metric and log pipelines, emit a span, a counter
increment and a log record per iteration, then shut the pipelines down
within the configured deadline.

With --count 0 it emits every --interval until interrupted. With
--admin-addr it also serves /health, /metrics and POST /api/v1/flush.

Examples:
  observlib run --service checkout --endpoint 127.0.0.1:4318
  observlib run --protocol json --count 3 --interval 500ms
  observlib run --count 0 --admin-addr 127.0.0.1:9464 --timeout 2s`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runFlags.count, "count", 1, "iterations to emit, 0 runs until interrupted")
	f.DurationVar(&runFlags.interval, "interval", time.Second, "pause between iterations")
	f.StringVar(&runFlags.adminAddr, "admin-addr", "", "serve admin endpoints on this address")
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if runFlags.count < 0 {
		return fmt.Errorf("--count cannot be negative")
	}
	if runFlags.interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Telemetry.Protocol == telemetry.ProtocolJSON {
		cfg.Telemetry.JSONWriter = cmd.OutOrStdout()
	}

	// The bootstrap logger has no OTel output: it logs telemetry setup and
	// shutdown, which must not feed the log backend being shut down.
	bootstrap, err := logging.NewLogger(consoleOnly(cfg.Logging), nil, logging.WithConsole(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = bootstrap.Sync() }()

	mgr, err := telemetry.New(ctx, cfg.Telemetry,
		telemetry.WithLogger(bootstrap.Underlying().Named("telemetry")),
		telemetry.WithRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	mgr.SetGlobal()
	bootstrap.Info(ctx, "telemetry initialized",
		zap.String("service", cfg.Telemetry.ServiceName),
		zap.String("endpoint", cfg.Telemetry.Endpoint),
		zap.String("protocol", string(cfg.Telemetry.Protocol)),
		logging.Headers("headers", cfg.Telemetry.Headers),
	)

	logger, err := logging.NewLogger(cfg.Logging, mgr.LoggerProvider(), logging.WithConsole(cmd.ErrOrStderr()))
	if err != nil {
		return errors.Join(fmt.Errorf("failed to create logger: %w", err), shutdown(ctx, mgr, cfg, bootstrap))
	}

	var admin *adminhttp.Server
	if runFlags.adminAddr != "" {
		admin, err = startAdmin(ctx, mgr, logger.Named("admin"))
		if err != nil {
			return errors.Join(err, shutdown(ctx, mgr, cfg, bootstrap))
		}
	}

	emitErr := emit(ctx, mgr, logger, runFlags.count, runFlags.interval)

	if admin != nil {
		adminCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := admin.Shutdown(adminCtx); err != nil {
			bootstrap.Warn(ctx, "admin server shutdown failed", zap.Error(err))
		}
		cancel()
	}
	_ = logger.Sync()

	return errors.Join(emitErr, shutdown(ctx, mgr, cfg, bootstrap))
}

// consoleOnly returns a copy of cfg without OTel output.
func consoleOnly(cfg *logging.Config) *logging.Config {
	c := *cfg
	c.Output.OTel = false
	if !c.Output.Stdout && !c.Output.Stderr {
		c.Output.Stderr = true
	}
	return &c
}

func startAdmin(ctx context.Context, mgr *telemetry.Manager, logger *logging.Logger) (*adminhttp.Server, error) {
	admin, err := adminhttp.NewServer(mgr, logger, &adminhttp.Config{
		Addr:  runFlags.adminAddr,
		Meter: mgr.Meter(adminhttp.InstrumentationName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin server: %w", err)
	}

	go func() {
		if err := admin.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "admin server failed", zap.Error(err))
		}
	}()
	return admin, nil
}

// emit records count iterations, or until ctx is done when count is 0.
func emit(ctx context.Context, mgr *telemetry.Manager, logger *logging.Logger, count int, interval time.Duration) error {
	tracer := mgr.Tracer(instrumentationName)
	emitted, err := mgr.Meter(instrumentationName).Int64Counter(
		"observlib.cli.iterations",
		metric.WithDescription("Iterations emitted by observlib run."),
		metric.WithUnit("{iteration}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create counter: %w", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; count == 0 || i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				logger.Info(ctx, "interrupted, shutting down", zap.Int("iterations", i))
				return nil
			case <-ticker.C:
			}
		}

		spanCtx, span := tracer.Start(ctx, "observlib.iteration",
			trace.WithAttributes(attribute.Int("iteration", i)))
		emitted.Add(spanCtx, 1)
		logger.Info(spanCtx, "emitted telemetry", zap.Int("iteration", i))
		span.End()
	}
	return nil
}

// shutdown shuts the manager down within the configured deadline. A
// cancelled ctx (e.g. SIGINT) does not cut the deadline short.
func shutdown(ctx context.Context, mgr *telemetry.Manager, cfg *config.Config, logger *logging.Logger) error {
	timeout := cfg.Telemetry.Shutdown.Timeout.Duration()
	err := mgr.ShutdownWithDeadline(context.WithoutCancel(ctx), timeout)
	switch {
	case err == nil:
		logger.Debug(ctx, "telemetry shut down")
		return nil
	case errors.Is(err, telemetry.ErrShutdownTimeout):
		logger.Warn(ctx, "telemetry shutdown timed out", zap.Duration("timeout", timeout))
	default:
		logger.Error(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	return fmt.Errorf("telemetry shutdown: %w", err)
}
