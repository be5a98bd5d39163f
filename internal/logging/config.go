package logging

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/observlib/pkg/config"
)

// FilterOff disables a logger name entirely in a Filters entry.
const FilterOff = "off"

// Config holds logging configuration.
type Config struct {
	Level     zapcore.Level     `koanf:"level" yaml:"level"`
	Format    string            `koanf:"format" yaml:"format"`
	Output    OutputConfig      `koanf:"output" yaml:"output"`
	Sampling  SamplingConfig    `koanf:"sampling" yaml:"sampling"`
	Caller    bool              `koanf:"caller" yaml:"caller"`
	Fields    map[string]string `koanf:"fields" yaml:"fields,omitempty"`
	Redaction RedactionConfig   `koanf:"redaction" yaml:"redaction"`

	// Filters maps a logger name to the minimum level forwarded to the
	// OTel log backend, or "off". A name also matches its children, so
	// "telemetry" covers "telemetry.shutdown". Console output ignores it.
	Filters map[string]string `koanf:"filters" yaml:"filters,omitempty"`
}

// OutputConfig controls where logs are written.
type OutputConfig struct {
	Stdout bool `koanf:"stdout" yaml:"stdout"`
	Stderr bool `koanf:"stderr" yaml:"stderr"`
	OTel   bool `koanf:"otel" yaml:"otel"`
}

// SamplingConfig controls log volume reduction below error level.
type SamplingConfig struct {
	Enabled    bool            `koanf:"enabled" yaml:"enabled"`
	Tick       config.Duration `koanf:"tick" yaml:"tick"`
	Initial    int             `koanf:"initial" yaml:"initial"`
	Thereafter int             `koanf:"thereafter" yaml:"thereafter"`
}

// RedactionConfig controls sensitive data redaction.
type RedactionConfig struct {
	Enabled  bool     `koanf:"enabled" yaml:"enabled"`
	Fields   []string `koanf:"fields" yaml:"fields,omitempty"`
	Patterns []string `koanf:"patterns" yaml:"patterns,omitempty"`
}

// NewDefaultConfig returns console JSON logging on stderr with the
// telemetry package's own diagnostics kept out of the OTel backend.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Output: OutputConfig{
			Stderr: true,
			OTel:   true,
		},
		Sampling: SamplingConfig{
			Enabled:    true,
			Tick:       config.Duration(time.Second),
			Initial:    100,
			Thereafter: 10,
		},
		Caller: true,
		Redaction: RedactionConfig{
			Enabled: true,
			Fields: []string{
				"password", "secret", "token", "api_key",
				"authorization", "credential", "private_key",
			},
			Patterns: []string{
				`(?i)bearer\s+\S+`,
				`(?i)api[_-]?key[=:]\s*\S+`,
			},
		},
		Filters: map[string]string{
			"telemetry": FilterOff,
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if !c.Output.Stdout && !c.Output.Stderr && !c.Output.OTel {
		return fmt.Errorf("at least one output must be enabled (stdout, stderr or otel)")
	}
	if c.Output.Stdout && c.Output.Stderr {
		return fmt.Errorf("stdout and stderr outputs are mutually exclusive")
	}
	if c.Sampling.Enabled {
		if c.Sampling.Tick.Duration() <= 0 {
			return fmt.Errorf("sampling tick must be > 0 when sampling enabled")
		}
		if c.Sampling.Initial < 0 || c.Sampling.Thereafter < 0 {
			return fmt.Errorf("sampling initial and thereafter must be >= 0")
		}
	}

	if c.Redaction.Enabled {
		for _, pattern := range c.Redaction.Patterns {
			if len(pattern) > maxPatternLen {
				return fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, pattern)
			}
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("invalid redaction pattern %q: %w", pattern, err)
			}
		}
	}

	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}

	if _, err := parseFilters(c.Filters); err != nil {
		return err
	}

	return nil
}

// nameFilter is a parsed Filters entry.
type nameFilter struct {
	name  string
	level zapcore.Level
	off   bool
}

// matches reports whether loggerName is name or one of its children.
func (f nameFilter) matches(loggerName string) bool {
	return loggerName == f.name || strings.HasPrefix(loggerName, f.name+".")
}

// parseFilters parses Filters, most specific name first.
func parseFilters(m map[string]string) ([]nameFilter, error) {
	filters := make([]nameFilter, 0, len(m))
	for name, level := range m {
		if name == "" {
			return nil, fmt.Errorf("filter logger name cannot be empty")
		}
		if strings.EqualFold(level, FilterOff) {
			filters = append(filters, nameFilter{name: name, off: true})
			continue
		}
		lvl, err := LevelFromString(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid level %q for filter %q: %w", level, name, err)
		}
		filters = append(filters, nameFilter{name: name, level: lvl})
	}

	// Longest name first so "a.b" wins over "a".
	sort.Slice(filters, func(i, j int) bool {
		if len(filters[i].name) != len(filters[j].name) {
			return len(filters[i].name) > len(filters[j].name)
		}
		return filters[i].name < filters[j].name
	})
	return filters, nil
}
