package pipeline

import (
	"fmt"

	"go.uber.org/zap"
)

// LogLevel orders the engine's diagnostic verbosity.
type LogLevel int

const (
	LogError LogLevel = iota
	LogInfo
	LogDebug
	LogTrace
)

func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "error"
	case LogInfo:
		return "info"
	case LogDebug:
		return "debug"
	case LogTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// SetLogLevel sets the minimum verbosity the engine emits. Default is
// LogError.
func (e *Engine) SetLogLevel(level LogLevel) { e.logLevel = level }

// SetLogSink registers a callback invoked with every formatted log line at
// or below the current level, in addition to the engine's zap logger. The
// zap logger is a no-op unless SetLogger installs one, so without a sink
// and without SetLogger the line is dropped.
func (e *Engine) SetLogSink(sink func(line string)) { e.logSink = sink }

// SetLogger overrides the zap logger the engine writes structured
// diagnostics to. Defaults to zap.NewNop() if never set.
func (e *Engine) SetLogger(logger *zap.Logger) { e.logger = logger }

func (e *Engine) logf(level LogLevel, format string, args ...any) {
	if level > e.logLevel {
		return
	}
	line := fmt.Sprintf(format, args...)
	if e.logSink != nil {
		e.logSink(line)
	}
	switch level {
	case LogError:
		e.logger.Error(line)
	case LogInfo:
		e.logger.Info(line)
	case LogDebug:
		e.logger.Debug(line)
	case LogTrace:
		e.logger.Debug(line, zap.Bool("trace", true))
	}
}
