package log

import (
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// Configure sets up the global logger. Level is one of trace, debug,
// info, warn, error; format is console or json. Safe to call again to
// reconfigure, e.g. after CLI flags have been parsed.
func Configure(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "trace", "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger.Store(slog.New(handler))
}

// Debug logs a debug message with key/value pairs
func Debug(msg string, args ...any) {
	logger.Load().Debug(msg, args...)
}

// Info logs an informational message with key/value pairs
func Info(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}

// Warn logs a warning message with key/value pairs
func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

// Error logs an error message with key/value pairs
func Error(msg string, args ...any) {
	logger.Load().Error(msg, args...)
}
