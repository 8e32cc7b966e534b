// Package log builds the process slog logger from app configuration.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gimlabs/gim/internal/config"
)

// New builds a logger on stdout per the configured format and level and
// installs it as the slog default. Components constructed without an
// explicit logger fall back to slog.Default(), so the install keeps their
// output on the same handler.
func New(cfg config.AppConfig) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg.LogFormat(), cfg.LogLevel())
}

// NewWithWriter builds and installs a logger that writes to w. The stdio
// MCP command logs to stderr this way because stdout carries the protocol.
func NewWithWriter(w io.Writer, format config.LogFormat, level string) *slog.Logger {
	lvl := parseLevel(level)

	var handler slog.Handler
	switch format {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		handler = newTerminalHandler(w, &slog.HandlerOptions{Level: lvl})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLevel maps a LOG_LEVEL string to a slog level. Unknown values mean
// Info, not an error.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
