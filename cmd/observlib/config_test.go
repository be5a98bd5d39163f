package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCmd_FlagsOverride(t *testing.T) {
	t.Setenv("OBSERVLIB_TELEMETRY_ENDPOINT", "env-collector:4318")

	stdout, _, err := execute(t, "config",
		"--service", "checkout",
		"--protocol", "grpc",
		"--attr", "env=dev",
		"--attr", "team=obs",
		"--timeout", "3s",
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "service_name: checkout")
	assert.Contains(t, stdout, "endpoint: env-collector:4318")
	assert.Contains(t, stdout, "protocol: grpc")
	assert.Contains(t, stdout, "env: dev")
	assert.Contains(t, stdout, "team: obs")
	assert.Contains(t, stdout, "timeout: 3s")
	assert.Contains(t, stdout, "level: info")
}

func TestConfigCmd_FlagBeatsEnv(t *testing.T) {
	t.Setenv("OBSERVLIB_TELEMETRY_ENDPOINT", "env-collector:4318")

	stdout, _, err := execute(t, "config", "--endpoint", "flag-collector:4318")
	require.NoError(t, err)
	assert.Contains(t, stdout, "endpoint: flag-collector:4318")
}

func TestConfigCmd_RedactsHeaders(t *testing.T) {
	t.Setenv("OBSERVLIB_TELEMETRY_HEADERS__AUTHORIZATION", "Bearer zzz")

	stdout, _, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "authorization: '[REDACTED]'")
	assert.NotContains(t, stdout, "zzz")
}

func TestConfigCmd_InvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown protocol", args: []string{"--protocol", "thrift"}, wantErr: "unsupported protocol"},
		{name: "negative timeout", args: []string{"--timeout", "-1s"}, wantErr: "cannot be negative"},
		{name: "bad attr", args: []string{"--attr", "novalue"}, wantErr: "invalid --attr"},
		{name: "missing config file", args: []string{"--config", "/nonexistent/observlib.yaml"}, wantErr: "failed to open config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"config"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
