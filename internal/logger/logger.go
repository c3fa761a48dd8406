package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns the service logger: JSON on stdout with level from string.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level, FormatJSON)
}

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text" // used by the CLI, which writes results to stdout
)

// NewWithWriter builds a logger on w.
func NewWithWriter(w io.Writer, level string, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == FormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
