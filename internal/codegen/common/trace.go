package common

import (
	"context"
	"log/slog"
)

// LevelTrace sits below Debug. Per-quad emission is logged at this level.
const LevelTrace slog.Level = slog.LevelDebug - 4

func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
