// Package logger configures structured logging and records crash reports.
package logger

import (
	"io"
	"log/slog"
)

// Setup installs a text slog handler on w as the default logger.
// Verbose enables debug records; otherwise only warnings and errors are shown
// so command output stays clean.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	return l
}
