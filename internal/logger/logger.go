// Package logger is the process-wide slog logger for gitguard. Hooks write
// their decision to stdout, so every log line goes to stderr (or a file).
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	log   *slog.Logger
	once  sync.Once
	level = new(slog.LevelVar)
)

// discard serves callers that log before Init.
var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// Options configures the logger.
type Options struct {
	// Verbose forces debug level, overriding Level.
	Verbose bool
	// Level is the threshold by name (debug, info, warn, error). Empty means error,
	// so a hook stays silent unless something is broken.
	Level string
	// Output defaults to os.Stderr.
	Output io.Writer
	JSON   bool
	// Attrs are attached to every record.
	Attrs []any
}

// ParseLevel parses a level name, case-insensitively. Offsets such as
// "warn+2" are accepted as slog does.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelError, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// Init sets up the global logger. Only the first call takes effect. An invalid
// Level is reported through the new logger and error level is used.
func Init(opts Options) {
	once.Do(func() {
		threshold := slog.LevelError
		var levelErr error
		if opts.Level != "" {
			threshold, levelErr = ParseLevel(opts.Level)
		}
		if opts.Verbose {
			threshold = slog.LevelDebug
		}
		level.Set(threshold)

		output := opts.Output
		if output == nil {
			output = os.Stderr
		}
		handlerOpts := &slog.HandlerOptions{Level: level}

		var handler slog.Handler = slog.NewTextHandler(output, handlerOpts)
		if opts.JSON {
			handler = slog.NewJSONHandler(output, handlerOpts)
		}
		log = slog.New(handler).With(opts.Attrs...)

		if levelErr != nil {
			log.Error("falling back to error level", "error", levelErr)
		}
	})
}

// Reset drops the global logger so tests can Init again.
func Reset() {
	once = sync.Once{}
	log = nil
	level.Set(slog.LevelInfo)
}

// Enabled reports whether a record at l would be written. Nothing is enabled
// before Init.
func Enabled(l slog.Level) bool {
	return log != nil && log.Enabled(context.Background(), l)
}

// IsVerbose reports whether debug records are written.
func IsVerbose() bool {
	return Enabled(slog.LevelDebug)
}

func logAt(l slog.Level, msg string, args []any) {
	if log != nil {
		log.Log(context.Background(), l, msg, args...)
	}
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { logAt(slog.LevelDebug, msg, args) }

// Info logs at info level.
func Info(msg string, args ...any) { logAt(slog.LevelInfo, msg, args) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { logAt(slog.LevelWarn, msg, args) }

// Error logs at error level.
func Error(msg string, args ...any) { logAt(slog.LevelError, msg, args) }

// With returns the global logger with extra attributes, or a discarding
// logger before Init.
func With(args ...any) *slog.Logger {
	if log == nil {
		return discard
	}
	return log.With(args...)
}
