package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text output on stdout; handlers and
// services receive this via injection rather than the global default.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
