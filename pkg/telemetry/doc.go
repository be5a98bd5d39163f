// Package telemetry initializes the OpenTelemetry trace, metric and log
// pipelines of a process and coordinates their shutdown.
//
// # Overview
//
// A Manager owns exactly one backend per signal. Trace and log backends use
// batching export, the metric backend a periodic reader. All three share a
// resource built once per process (see ResourceCache) and export to the same
// base endpoint with the signal paths /v1/traces, /v1/metrics and /v1/logs.
//
// # Usage
//
//	m, err := telemetry.Initialize(ctx, "checkout", "127.0.0.1:4318",
//	    attribute.String("env", "dev"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tracer := m.Tracer("checkout/http")
//	meter := m.Meter("checkout/http")
//
//	// Blocking shutdown, on this goroutine.
//	if err := m.Shutdown(ctx); err != nil {
//	    log.Print(err)
//	}
//
// Or, bounded by a deadline:
//
//	err := m.ShutdownWithDeadline(ctx, 5*time.Second)
//	if errors.Is(err, telemetry.ErrShutdownTimeout) {
//	    // shutdown continues in the background; <-m.Done() to wait for it
//	}
//
// If ctx ends before the deadline the error wraps ErrShutdownAbandoned
// instead; the shutdown continues in the same way.
//
// # Shutdown semantics
//
// Backends are shut down in the fixed order trace, metric, log. A failure
// never skips a later backend; all failures are returned together as a
// *ShutdownError. Shutdown is not idempotent: treat a Manager as single-use
// once a shutdown was attempted.
//
// # Configuration
//
//	telemetry:
//	  service_name: "checkout"
//	  endpoint: "127.0.0.1:4318"
//	  protocol: "http/protobuf"   # or "grpc", "json"
//	  attributes:
//	    env: dev
//	  metrics:
//	    export_interval: "60s"
//	  shutdown:
//	    timeout: "5s"
package telemetry
