package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/observlib/pkg/telemetry"
)

func writeConfig(t *testing.T, name, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, telemetry.NewDefaultConfig().Endpoint, cfg.Telemetry.Endpoint)
	assert.Equal(t, zapcore.InfoLevel, cfg.Logging.Level)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "observlib.yaml", `
telemetry:
  service_name: checkout
  endpoint: collector:4318/otlp
  protocol: grpc
  headers:
    Authorization: Bearer abc
  attributes:
    env: staging
  sampling:
    rate: 0.25
  shutdown:
    timeout: 2s
logging:
  level: debug
  filters:
    grpc: "off"
`, 0o600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.Telemetry.ServiceName)
	assert.Equal(t, "collector:4318/otlp", cfg.Telemetry.Endpoint)
	assert.Equal(t, telemetry.ProtocolGRPC, cfg.Telemetry.Protocol)
	assert.Equal(t, "Bearer abc", cfg.Telemetry.Headers["Authorization"].Value())
	assert.Equal(t, "staging", cfg.Telemetry.Attributes["env"])
	assert.Equal(t, 0.25, cfg.Telemetry.Sampling.Rate)
	assert.Equal(t, 2*time.Second, cfg.Telemetry.Shutdown.Timeout.Duration())
	assert.Equal(t, zapcore.DebugLevel, cfg.Logging.Level)
	assert.Equal(t, "off", cfg.Logging.Filters["grpc"])

	// Values the file does not set keep their defaults.
	assert.Equal(t, 60*time.Second, cfg.Telemetry.Metrics.ExportInterval.Duration())
	assert.True(t, cfg.Logging.Output.Stderr)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "observlib.toml", `
[telemetry]
service_name = "billing"
protocol = "json"

[telemetry.metrics]
export_interval = "10s"

[logging]
format = "console"
`, 0o600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "billing", cfg.Telemetry.ServiceName)
	assert.Equal(t, telemetry.ProtocolJSON, cfg.Telemetry.Protocol)
	assert.Equal(t, 10*time.Second, cfg.Telemetry.Metrics.ExportInterval.Duration())
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "observlib.yml", `
telemetry:
  service_name: from-file
  endpoint: file:4318
`, 0o600)

	t.Setenv("OBSERVLIB_TELEMETRY_SERVICE_NAME", "from-env")
	t.Setenv("OBSERVLIB_TELEMETRY_SHUTDOWN__TIMEOUT", "750ms")
	t.Setenv("OBSERVLIB_TELEMETRY_INSECURE", "false")
	t.Setenv("OBSERVLIB_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telemetry.ServiceName)
	assert.Equal(t, "file:4318", cfg.Telemetry.Endpoint)
	assert.Equal(t, 750*time.Millisecond, cfg.Telemetry.Shutdown.Timeout.Duration())
	assert.False(t, cfg.Telemetry.Insecure)
	assert.Equal(t, zapcore.WarnLevel, cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		perm    os.FileMode
		wantErr string
	}{
		{
			name:    "world readable",
			file:    "c.yaml",
			content: "telemetry: {}",
			perm:    0o644,
			wantErr: "insecure config file permissions",
		},
		{
			name:    "unknown extension",
			file:    "c.json",
			content: "{}",
			perm:    0o600,
			wantErr: "unsupported config file extension",
		},
		{
			name:    "malformed yaml",
			file:    "c.yaml",
			content: "telemetry: [",
			perm:    0o600,
			wantErr: "failed to load config file",
		},
		{
			name:    "invalid value",
			file:    "c.yaml",
			content: "telemetry:\n  protocol: thrift\n",
			perm:    0o600,
			wantErr: "unsupported protocol",
		},
		{
			name:    "negative duration",
			file:    "c.yaml",
			content: "telemetry:\n  shutdown:\n    timeout: -1s\n",
			perm:    0o600,
			wantErr: "negative",
		},
		{
			name:    "too large",
			file:    "c.yaml",
			content: "# " + strings.Repeat("x", maxConfigFileSize),
			perm:    0o600,
			wantErr: "too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content, tt.perm)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open config file")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"OBSERVLIB_TELEMETRY_ENDPOINT":                 "telemetry.endpoint",
		"OBSERVLIB_TELEMETRY_SERVICE_NAME":             "telemetry.service_name",
		"OBSERVLIB_TELEMETRY_METRICS__EXPORT_INTERVAL": "telemetry.metrics.export_interval",
		"OBSERVLIB_LOGGING_OUTPUT__OTEL":               "logging.output.otel",
		"OBSERVLIB_DEBUG":                              "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestTOMLParser_RoundTrip(t *testing.T) {
	p := TOML()
	out, err := p.Marshal(map[string]interface{}{
		"telemetry": map[string]interface{}{"service_name": "svc"},
	})
	require.NoError(t, err)

	back, err := p.Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, "svc", back["telemetry"].(map[string]interface{})["service_name"])
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Logging.Format = "xml"
	assert.ErrorContains(t, cfg.Validate(), "logging:")

	cfg = NewDefaultConfig()
	cfg.Telemetry = nil
	assert.ErrorContains(t, cfg.Validate(), "telemetry section is required")
}
