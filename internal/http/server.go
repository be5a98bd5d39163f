// Package http provides the observlib admin HTTP endpoints: health,
// Prometheus metrics and on-demand telemetry flushing.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/observlib/internal/logging"
	"github.com/fyrsmithlabs/observlib/pkg/telemetry"
)

// Telemetry is the part of *telemetry.Manager the server reports on.
type Telemetry interface {
	State() telemetry.State
	ForceFlush(ctx context.Context) error
}

// Server provides admin HTTP endpoints.
type Server struct {
	echo      *echo.Echo
	telemetry Telemetry
	logger    *logging.Logger
	config    *Config
}

// Config holds admin server configuration.
type Config struct {
	Addr string

	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Meter records request metrics. Nil disables them.
	Meter metric.Meter
}

// NewServer creates a new admin server.
func NewServer(tel Telemetry, logger *logging.Logger, cfg *Config) (*Server, error) {
	if tel == nil {
		return nil, fmt.Errorf("telemetry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Addr: "127.0.0.1:9464"}
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.Meter != nil {
		e.Use(NewHTTPMetrics(cfg.Meter, logger.Underlying()).MetricsMiddleware())
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := logging.WithLogger(c.Request().Context(), logger)

			// RequestID has already set the response header; a client-supplied
			// ID that fails validation is logged without correlation.
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if withID, err := logging.WithRequestID(ctx, requestID); err == nil {
				ctx = withID
			}
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			logger.Debug(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		telemetry: tel,
		logger:    logger,
		config:    cfg,
	}
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/flush", s.handleFlush)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Telemetry string `json:"telemetry"`
}

// FlushResponse is the response body for POST /api/v1/flush.
type FlushResponse struct {
	Flushed bool   `json:"flushed"`
	Error   string `json:"error,omitempty"`
}

// handleHealth reports ok while telemetry is live and 503 once a shutdown
// has begun.
func (s *Server) handleHealth(c echo.Context) error {
	state := s.telemetry.State()
	if state != telemetry.StateInitialized {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "draining", Telemetry: state.String()})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Telemetry: state.String()})
}

// handleFlush exports all buffered telemetry.
func (s *Server) handleFlush(c echo.Context) error {
	if s.telemetry.State() != telemetry.StateInitialized {
		return echo.NewHTTPError(http.StatusConflict, "telemetry is shutting down")
	}

	ctx := c.Request().Context()
	if err := s.telemetry.ForceFlush(ctx); err != nil {
		logging.FromContext(ctx).Warn(ctx, "telemetry flush failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, FlushResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, FlushResponse{Flushed: true})
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It blocks until Shutdown and then returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "starting admin server", zap.String("addr", s.config.Addr))
	return s.echo.Start(s.config.Addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down admin server")
	return s.echo.Shutdown(ctx)
}
