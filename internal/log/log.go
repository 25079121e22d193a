// Package log configures the default slog logger and allows passing
// a logger around via context.
package log

import (
	"context"
	"log/slog"
	"os"
)

type ctxKey struct{}

// Debug is set once at startup, before InitializeDefaultLogger is called.
var Debug bool

func InitializeDefaultLogger() {
	level := slog.LevelInfo
	if Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
