package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the app-wide logger type (slog).
type Logger = *slog.Logger

// NewLogger builds the process logger for cfg and installs it as the slog default.
//
// Production gets JSON on stdout. Development gets the colored line format,
// with color dropped when stdout is not a terminal or NO_COLOR is set.
func NewLogger(cfg Config) *slog.Logger {
	color := isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == ""
	log := newLogger(os.Stdout, cfg.Env, cfg.LogLevel, color)
	slog.SetDefault(log)
	return log
}

func newLogger(w io.Writer, appEnv, level string, color bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(level),
		AddSource: true,
	}

	if appEnv == EnvProduction {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(newPrettyHandler(w, opts, color))
}

func parseLogLevel(level string) slog.Level {
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

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
