package config

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

// DefaultLogger is the log factory used by LoggerFrom when no logger is found
// in the given context.
var DefaultLogger = ProductionLogger

// ProductionLogger works like zap.NewProduction but always returns a usable
// logger and no error.
func ProductionLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// DevelopmentLogger returns a human-oriented console logger for --verbose runs.
func DevelopmentLogger() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// WithLogger puts the given logger into the given context and returns the
// modified context.
func WithLogger(p context.Context, log *zap.Logger) context.Context {
	return context.WithValue(p, loggerKey{}, log)
}

// LoggerFrom returns the *zap.Logger for the given context. If no logger has
// been attached to that context, it returns DefaultLogger(), so the result is
// always non-nil.
func LoggerFrom(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*zap.Logger)
	if !ok {
		return DefaultLogger()
	}
	return logger
}
