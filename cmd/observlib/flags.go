package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/observlib/internal/config"
	pkgconfig "github.com/fyrsmithlabs/observlib/pkg/config"
	"github.com/fyrsmithlabs/observlib/pkg/telemetry"
)

// loadConfig loads the config file and environment, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	tel := cfg.Telemetry
	if f.Changed("endpoint") {
		tel.Endpoint = rootFlags.endpoint
	}
	if f.Changed("service") {
		tel.ServiceName = rootFlags.service
	}
	if f.Changed("protocol") {
		tel.Protocol = telemetry.Protocol(rootFlags.protocol)
	}
	if f.Changed("timeout") {
		if rootFlags.timeout < 0 {
			return nil, fmt.Errorf("--timeout cannot be negative")
		}
		tel.Shutdown.Timeout = pkgconfig.Duration(rootFlags.timeout)
	}

	attrs, err := parseAttrs(rootFlags.attrs)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 && tel.Attributes == nil {
		tel.Attributes = make(map[string]string, len(attrs))
	}
	for k, v := range attrs {
		tel.Attributes[k] = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// parseAttrs parses key=value pairs. Later keys override earlier ones.
func parseAttrs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	attrs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --attr %q (want key=value)", p)
		}
		attrs[k] = v
	}
	return attrs, nil
}
