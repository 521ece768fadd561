// Package logger configures structured logging for the learning path engine.
// All components log through log/slog; this package owns handler setup so
// binaries agree on level and format.
// No external dependencies - uses only standard library.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures the logger setup.
type Options struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string

	// Format selects the handler: json or text.
	Format string

	// Output defaults to os.Stdout.
	Output io.Writer
}

// DefaultOptions returns sensible defaults: info-level JSON to stdout.
func DefaultOptions() Options {
	return Options{
		Level:  "info",
		Format: "json",
		Output: os.Stdout,
	}
}

// ParseLevel parses a level string. Unknown strings map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a *slog.Logger from the options and installs it as the
// process default.
func Setup(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text":
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// Component returns a child logger tagged with a component name. The engine
// uses one logger per infrastructure component so log lines can be filtered
// by origin.
func Component(log *slog.Logger, name string) *slog.Logger {
	if log == nil {
		log = slog.Default()
	}
	return log.With("component", name)
}
