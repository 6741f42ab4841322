// Package telemetry defines the structured logger interface shared by the
// planner, runner, and CLI, plus a zap-backed implementation and a no-op
// implementation for tests and library callers that don't want output.
package telemetry

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger abstracts structured, leveled logging so runtime code stays
// agnostic of the underlying backend.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// ZapLogger adapts *zap.Logger to Logger.
type ZapLogger struct {
	l *zap.Logger
}

// NewZapLogger builds a console-encoded zap logger at the given level
// ("debug", "info", "warn", "error"; unrecognized values fall back to
// "info"), writing to stderr so stdout stays free for CLI result output.
func NewZapLogger(level string) (Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("telemetry: build logger: %w", err)
	}
	return ZapLogger{l: l}, nil
}

func (z ZapLogger) Debug(_ context.Context, msg string, keyvals ...any) {
	z.l.Sugar().Debugw(msg, keyvals...)
}

func (z ZapLogger) Info(_ context.Context, msg string, keyvals ...any) {
	z.l.Sugar().Infow(msg, keyvals...)
}

func (z ZapLogger) Warn(_ context.Context, msg string, keyvals ...any) {
	z.l.Sugar().Warnw(msg, keyvals...)
}

func (z ZapLogger) Error(_ context.Context, msg string, keyvals ...any) {
	z.l.Sugar().Errorw(msg, keyvals...)
}

// NoopLogger discards every message. Used by tests and callers that don't
// want log output.
type NoopLogger struct{}

func (NoopLogger) Debug(context.Context, string, ...any) {}
func (NoopLogger) Info(context.Context, string, ...any)  {}
func (NoopLogger) Warn(context.Context, string, ...any)  {}
func (NoopLogger) Error(context.Context, string, ...any) {}

// NewNoopLogger constructs a Logger that discards all log messages.
func NewNoopLogger() Logger { return NoopLogger{} }
