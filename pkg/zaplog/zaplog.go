// Package zaplog adapts a *zap.Logger to versiontrack.Logger.
package zaplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-versiontrack"
)

type adapter struct {
	logger *zap.Logger
}

// New returns a versiontrack.Logger writing to logger. A nil logger yields a
// no-op zap logger.
func New(logger *zap.Logger) versiontrack.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return adapter{logger: logger.Named("versiontrack")}
}

func (a adapter) Log(event versiontrack.LogEvent) {
	level := toZapLevel(event.Level)
	ce := a.logger.Check(level, event.Message)
	if ce == nil {
		return
	}
	ce.Write(fields(event)...)
}

func toZapLevel(level versiontrack.LogLevel) zapcore.Level {
	switch level {
	case versiontrack.LogLevelDebug:
		return zapcore.DebugLevel
	case versiontrack.LogLevelWarn:
		return zapcore.WarnLevel
	case versiontrack.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func fields(event versiontrack.LogEvent) []zap.Field {
	out := make([]zap.Field, 0, 8+len(event.Fields))
	if event.Op != "" {
		out = append(out, zap.String("op", event.Op))
	}
	if event.Scope != "" {
		out = append(out, zap.String("scope", event.Scope))
	}
	if event.Key != "" {
		out = append(out, zap.String("key", event.Key))
	}
	if event.Engine != "" {
		out = append(out, zap.String("engine", event.Engine))
	}
	if event.Expr != "" {
		out = append(out, zap.String("expr", event.Expr))
	}
	if event.Duration > 0 {
		out = append(out, zap.Duration("duration", event.Duration))
	}
	if event.Err != nil {
		out = append(out, zap.Error(event.Err))
	}
	for key, value := range event.Fields {
		out = append(out, zap.Any(key, value))
	}
	return out
}
