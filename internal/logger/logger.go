// Package logger provides the structured logger shared by the backtest
// pipeline, the optimizer, and the CLI.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger embeds zap so call sites attach structured fields directly.
type Logger struct {
	*zap.Logger
}

// NewLogger builds the process logger: JSON to stdout at info level,
// errors to stderr. Setting BACKTEST_DEBUG lowers the threshold to
// debug, which surfaces per-symbol pipeline drops and entry decisions.
func NewLogger() (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if os.Getenv("BACKTEST_DEBUG") != "" {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: base}, nil
}

// NewNopLogger returns a logger that discards all output. Useful in
// tests and in optimizer workers where per-combination logs would
// drown the run.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Sync flushes buffered entries. Safe when the embedded logger is nil.
func (l *Logger) Sync() error {
	if l.Logger == nil {
		return nil
	}
	return l.Logger.Sync()
}
