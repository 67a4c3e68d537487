package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs a JSON logger on stdout for long-running services.
func Setup(level string) {
	slog.SetDefault(New(os.Stdout, level, true))
}

// SetupCLI installs a text logger on stderr, leaving stdout to the
// command's own output.
func SetupCLI(level string) {
	slog.SetDefault(New(os.Stderr, level, false))
}

func New(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
