// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a text handler on stderr as the default logger and returns
// it. Debug lowers the level and adds file:line to each record.
func Setup(debug bool) *slog.Logger {
	return SetupTo(os.Stderr, debug)
}

// SetupTo is Setup writing to w
func SetupTo(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger := slog.New(h)
	slog.SetDefault(logger) // stdlib log.* now routes through slog
	return logger
}
