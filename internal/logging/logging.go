// Package logging holds the process-wide slog logger. It starts as a text
// logger on stderr at info level and is reconfigured once at startup.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	envLevel = "LBSHIPPER_LOG_LEVEL"
	envJSON  = "LBSHIPPER_LOG_JSON"
)

type Options struct {
	Level  string    // debug|info|warn|error, default info
	JSON   bool      // JSON lines instead of logfmt-style text
	Output io.Writer // default os.Stderr
}

var current atomic.Pointer[slog.Logger]

func init() {
	Configure(Options{})
}

// Configure replaces the default logger.
func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: levelOf(opts.Level)}
	var h slog.Handler = slog.NewTextHandler(out, ho)
	if opts.JSON {
		h = slog.NewJSONHandler(out, ho)
	}
	current.Store(slog.New(h))
}

func levelOf(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// L returns the default logger.
func L() *slog.Logger { return current.Load() }

// Invocation returns the default logger tagged with a fresh invocation id, so
// every line logged while handling one trigger event can be correlated.
func Invocation() *slog.Logger {
	return L().With("invocation", uuid.NewString())
}

// InitFromEnv configures the default logger from LBSHIPPER_LOG_LEVEL and
// LBSHIPPER_LOG_JSON.
func InitFromEnv() {
	asJSON, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(envJSON)))
	Configure(Options{Level: os.Getenv(envLevel), JSON: asJSON})
}
