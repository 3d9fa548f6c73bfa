// Package log is a thin module-aware wrapper over log/slog. Every record carries the name of the
// module which emitted it.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wdamron/x64jit/internal/settings"
)

// Module names.
const (
	Publish = "execmem"
	Demo    = "demo"
	CLI     = "cli"
)

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
)

var (
	root     atomic.Pointer[slog.Logger]
	rootOnce sync.Once
)

// Build the root logger from X64JIT_LOG, unless Init or SetDefault already replaced it. An
// invalid level falls back to warn.
func configure() {
	rootOnce.Do(func() {
		lvl, err := ParseLevel(settings.Read().LogLevel)
		if err != nil {
			lvl = LevelWarn
		}
		root.CompareAndSwap(nil, slog.New(NewHandler(os.Stderr, lvl)))
	})
}

// ParseLevel converts a level name (trace, debug, info, warn, error) to a slog level.
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(lvl)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level: %q", lvl)
}

// LevelString returns the lower-case name of a level.
func LevelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "unknown"
}

// NewHandler returns a text handler writing records at or above lvl to w. The trace level is
// rendered as TRACE rather than DEBUG-4.
func NewHandler(w io.Writer, lvl slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
}

// Init replaces the root logger with one writing to stderr at the named level.
func Init(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	SetDefault(slog.New(NewHandler(os.Stderr, lvl)))
	return nil
}

// SetDefault sets the root logger.
func SetDefault(l *slog.Logger) { root.Store(l) }

// Root returns the root logger. Until Init or SetDefault is called, it writes to stderr at the
// level named by X64JIT_LOG.
func Root() *slog.Logger {
	if l := root.Load(); l != nil {
		return l
	}
	configure()
	return root.Load()
}

// Enabled reports whether the root logger emits records at lvl.
func Enabled(lvl slog.Level) bool { return Root().Enabled(context.Background(), lvl) }

func write(lvl slog.Level, module, msg string, attrs ...any) {
	l := Root()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), lvl, msg, pcs[0])
	r.AddAttrs(slog.String("module", module))
	r.Add(attrs...)
	_ = l.Handler().Handle(context.Background(), r)
}

// Trace logs a message at the trace level for a module.
func Trace(module, msg string, attrs ...any) { write(LevelTrace, module, msg, attrs...) }

// Debug logs a message at the debug level for a module.
func Debug(module, msg string, attrs ...any) { write(LevelDebug, module, msg, attrs...) }

// Info logs a message at the info level for a module.
func Info(module, msg string, attrs ...any) { write(LevelInfo, module, msg, attrs...) }

// Warn logs a message at the warn level for a module.
func Warn(module, msg string, attrs ...any) { write(LevelWarn, module, msg, attrs...) }

// Error logs a message at the error level for a module.
func Error(module, msg string, attrs ...any) { write(LevelError, module, msg, attrs...) }
