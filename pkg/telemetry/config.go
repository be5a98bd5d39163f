package telemetry

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/fyrsmithlabs/observlib/pkg/config"
)

// Protocol selects the wire encoding used by all three exporters.
type Protocol string

const (
	// ProtocolHTTPProtobuf exports binary protobuf over OTLP/HTTP. Default.
	ProtocolHTTPProtobuf Protocol = "http/protobuf"
	// ProtocolGRPC exports over OTLP/gRPC.
	ProtocolGRPC Protocol = "grpc"
	// ProtocolJSON writes JSON-encoded telemetry to Config.JSONWriter
	// (stdout when unset) instead of a network endpoint.
	ProtocolJSON Protocol = "json"
)

// Config holds telemetry configuration.
type Config struct {
	ServiceName    string                   `koanf:"service_name" yaml:"service_name"`
	ServiceVersion string                   `koanf:"service_version" yaml:"service_version"`
	InstanceID     string                   `koanf:"instance_id" yaml:"instance_id"` // generated when empty
	Endpoint       string                   `koanf:"endpoint" yaml:"endpoint"`
	Protocol       Protocol                 `koanf:"protocol" yaml:"protocol"`
	Insecure       bool                     `koanf:"insecure" yaml:"insecure"`
	TLSSkipVerify  bool                     `koanf:"tls_skip_verify" yaml:"tls_skip_verify"`
	Headers        map[string]config.Secret `koanf:"headers" yaml:"headers"`
	Attributes     map[string]string        `koanf:"attributes" yaml:"attributes"`
	Sampling       SamplingConfig           `koanf:"sampling" yaml:"sampling"`
	Traces         BatchConfig              `koanf:"traces" yaml:"traces"`
	Metrics        MetricsConfig            `koanf:"metrics" yaml:"metrics"`
	Logs           BatchConfig              `koanf:"logs" yaml:"logs"`
	Shutdown       ShutdownConfig           `koanf:"shutdown" yaml:"shutdown"`

	// JSONWriter receives output when Protocol is ProtocolJSON.
	JSONWriter io.Writer `koanf:"-" yaml:"-"`
}

// SamplingConfig controls trace sampling behavior.
type SamplingConfig struct {
	Rate float64 `koanf:"rate" yaml:"rate"` // 0.0-1.0, default 1.0
}

// BatchConfig controls the batching export strategy used by traces and logs.
type BatchConfig struct {
	Interval config.Duration `koanf:"interval" yaml:"interval"`
}

// MetricsConfig controls the periodic export strategy used by metrics.
type MetricsConfig struct {
	ExportInterval config.Duration `koanf:"export_interval" yaml:"export_interval"`
}

// ShutdownConfig controls graceful shutdown behavior.
type ShutdownConfig struct {
	// Timeout bounds ShutdownWithDeadline when callers use the configured
	// value. Zero waits for completion.
	Timeout config.Duration `koanf:"timeout" yaml:"timeout"`
}

// NewDefaultConfig returns defaults matching a local OTLP/HTTP collector.
func NewDefaultConfig() *Config {
	return &Config{
		ServiceName:    "observlib",
		ServiceVersion: "0.1.0",
		Endpoint:       "127.0.0.1:4318",
		Protocol:       ProtocolHTTPProtobuf,
		Insecure:       true,
		Sampling: SamplingConfig{
			Rate: 1.0,
		},
		Traces: BatchConfig{
			Interval: config.Duration(5 * time.Second),
		},
		Metrics: MetricsConfig{
			ExportInterval: config.Duration(60 * time.Second),
		},
		Logs: BatchConfig{
			Interval: config.Duration(time.Second),
		},
		Shutdown: ShutdownConfig{
			Timeout: config.Duration(5 * time.Second),
		},
	}
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	switch c.Protocol {
	case ProtocolHTTPProtobuf, ProtocolGRPC:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint is required for protocol %q", c.Protocol)
		}
		if _, err := parseEndpoint(c.Endpoint, c.Insecure); err != nil {
			return err
		}
	case ProtocolJSON:
	default:
		return fmt.Errorf("unsupported protocol %q (want %q, %q or %q)",
			c.Protocol, ProtocolHTTPProtobuf, ProtocolGRPC, ProtocolJSON)
	}

	if c.Sampling.Rate < 0 || c.Sampling.Rate > 1 {
		return fmt.Errorf("sampling.rate must be between 0 and 1, got %f", c.Sampling.Rate)
	}

	if c.Traces.Interval.Duration() <= 0 {
		return fmt.Errorf("traces.interval must be positive")
	}

	if c.Metrics.ExportInterval.Duration() <= 0 {
		return fmt.Errorf("metrics.export_interval must be positive")
	}

	if c.Logs.Interval.Duration() <= 0 {
		return fmt.Errorf("logs.interval must be positive")
	}

	for k := range c.Headers {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("header name cannot be empty")
		}
	}

	return nil
}

// headers returns plain header values for exporter options.
func (c *Config) headers() map[string]string {
	if len(c.Headers) == 0 {
		return nil
	}
	h := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		h[k] = v.Value()
	}
	return h
}

// endpoint is a parsed base endpoint.
type endpoint struct {
	host     string // host:port
	basePath string // path prefix before the signal suffix, no trailing slash
	insecure bool
}

// parseEndpoint accepts "host:port", "host:port/prefix" or a full http(s) URL.
// An explicit scheme overrides the insecure flag.
func parseEndpoint(raw string, insecure bool) (endpoint, error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "https://"):
		insecure = false
	case strings.HasPrefix(s, "http://"):
		insecure = true
	default:
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return endpoint{}, fmt.Errorf("malformed endpoint %q: %w", raw, err)
	}
	if u.Host == "" || u.Hostname() == "" {
		return endpoint{}, fmt.Errorf("malformed endpoint %q: missing host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return endpoint{}, fmt.Errorf("malformed endpoint %q: query and fragment are not allowed", raw)
	}

	return endpoint{
		host:     u.Host,
		basePath: strings.TrimSuffix(u.Path, "/"),
		insecure: insecure,
	}, nil
}
