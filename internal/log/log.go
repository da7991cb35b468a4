// Package log owns the process-wide slog logger. Components receive a
// *slog.Logger through their options; this package only decides the
// default handler from LOG_LEVEL and LOG_FORMAT.
package log

import (
	"log/slog"
	"os"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Init configures the default logger. level is one of debug, info,
// warn, error; format is json or text. Unknown values fall back to
// info and text.
func Init(level, format string) {
	once.Do(func() {
		var lvl slog.Level
		switch level {
		case "debug":
			lvl = slog.LevelDebug
		case "warn":
			lvl = slog.LevelWarn
		case "error":
			lvl = slog.LevelError
		default:
			lvl = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: lvl}

		if format == "json" {
			logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
		} else {
			logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
		}

		slog.SetDefault(logger)
	})
}

// L returns the process logger, initializing defaults on first use.
func L() *slog.Logger {
	if logger == nil {
		Init("info", "text")
	}
	return logger
}

// Info logs at info level on the process logger.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Error logs at error level on the process logger.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}
