// Package config loads observlib configuration from a YAML or TOML file
// and OBSERVLIB_ environment variables.
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/observlib/internal/logging"
	"github.com/fyrsmithlabs/observlib/pkg/telemetry"
)

// Config is the top-level configuration of the observlib command.
type Config struct {
	Telemetry *telemetry.Config `koanf:"telemetry" yaml:"telemetry"`
	Logging   *logging.Config   `koanf:"logging" yaml:"logging"`
}

// NewDefaultConfig returns the built-in defaults every source overrides.
func NewDefaultConfig() *Config {
	return &Config{
		Telemetry: telemetry.NewDefaultConfig(),
		Logging:   logging.NewDefaultConfig(),
	}
}

// Validate validates every section.
func (c *Config) Validate() error {
	if c.Telemetry == nil {
		return fmt.Errorf("telemetry section is required")
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if c.Logging == nil {
		return fmt.Errorf("logging section is required")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
