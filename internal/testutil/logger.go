package testutil

import (
	"io"
	"log/slog"

	"github.com/dtroode/accounts-server/internal/logger"
)

// MakeNoopLogger returns a logger that discards everything.
func MakeNoopLogger() *logger.Logger {
	return logger.NewWithFormat(int(slog.LevelError+1), "text", io.Discard)
}
