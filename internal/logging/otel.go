package logging

import (
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// otelScope is the instrumentation scope of bridged log records.
const otelScope = "github.com/fyrsmithlabs/observlib"

// newDualCore creates a core writing to the console and, when a provider
// is given, to the OTel log backend.
func newDualCore(cfg *Config, otelProvider log.LoggerProvider, console io.Writer) (zapcore.Core, error) {
	cores := make([]zapcore.Core, 0, 2)

	if cfg.Output.Stdout || cfg.Output.Stderr {
		encoder, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
		if err != nil {
			return nil, fmt.Errorf("failed to create redacting encoder: %w", err)
		}
		if console == nil {
			console = os.Stdout
			if cfg.Output.Stderr {
				console = os.Stderr
			}
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(console), cfg.Level))
	}

	if cfg.Output.OTel && otelProvider != nil {
		filters, err := parseFilters(cfg.Filters)
		if err != nil {
			return nil, err
		}
		cores = append(cores, &nameFilterCore{
			Core:    otelzap.NewCore(otelScope, otelzap.WithLoggerProvider(otelProvider)),
			level:   cfg.Level,
			filters: filters,
		})
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("at least one output must be enabled and available")
	}

	var core zapcore.Core
	if len(cores) == 1 {
		core = cores[0]
	} else {
		core = zapcore.NewTee(cores...)
	}

	return newSampledCore(core, cfg.Sampling), nil
}

// nameFilterCore applies a global level and per-logger-name overrides.
// Entries whose logger name matches an "off" filter are dropped.
type nameFilterCore struct {
	zapcore.Core
	level   zapcore.Level
	filters []nameFilter
}

// Enabled reports whether any logger name could log at lvl.
func (c *nameFilterCore) Enabled(lvl zapcore.Level) bool {
	if lvl >= c.level {
		return c.Core.Enabled(lvl)
	}
	for _, f := range c.filters {
		if !f.off && lvl >= f.level {
			return c.Core.Enabled(lvl)
		}
	}
	return false
}

func (c *nameFilterCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	minLevel := c.level
	for _, f := range c.filters {
		if f.matches(e.LoggerName) {
			if f.off {
				return ce
			}
			minLevel = f.level
			break
		}
	}
	if e.Level < minLevel {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *nameFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &nameFilterCore{
		Core:    c.Core.With(fields),
		level:   c.level,
		filters: c.filters,
	}
}
