// Package logging provides structured logging for observlib on top of Zap.
//
// A Logger writes to the console (JSON or console encoding) and, once the
// telemetry manager exists, to the OpenTelemetry log backend through the
// otelzap bridge:
//
//	bootstrap, _ := logging.NewLogger(cfg, nil)
//	mgr, _ := telemetry.New(ctx, telCfg, telemetry.WithLogger(bootstrap.Underlying().Named("telemetry")))
//	logger, _ := logging.NewLogger(cfg, mgr.LoggerProvider())
//
// Context-aware methods add trace_id and span_id from the active span and
// the request ID stored by WithRequestID.
//
// # Filters
//
// Filters sets per-logger-name levels for the OTel output only. The default
// config turns off the "telemetry" logger there, so the manager's own
// shutdown diagnostics are printed but never sent into the log backend that
// is being shut down.
//
//	logging:
//	  level: info
//	  filters:
//	    telemetry: off
//	    grpc: warn
//
// # Redaction
//
// Console output passes through a RedactingEncoder that masks configured
// field names and value patterns. Headers logs exporter header names
// without their values.
package logging
