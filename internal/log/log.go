// Package log writes leveled, categorised key=value lines. Nothing is
// written until Init or InitWriter installs a sink; the CLI does so for
// --debug or CLSFORGE_DEBUG.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a config string such as "debug" or "WARN" to a Level.
// "warning" is accepted for LevelWarn. Anything else is LevelInfo.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LevelWarn
	}
	for l, name := range levelNames {
		if name == s {
			return Level(l)
		}
	}
	return LevelInfo
}

// Category groups related log messages.
type Category string

const (
	CatCatalog Category = "catalog" // part catalog loading and validation
	CatBuilder Category = "builder" // repository construction
	CatTypes   Category = "types"   // taxonomy and subtype checks
	CatDB      Category = "db"
	CatConfig  Category = "config"
	CatWatcher Category = "watcher"
	CatCache   Category = "cache"
	CatTrace   Category = "trace" // tracing and metrics export
)

// sink is one installed destination. enabled and minLevel may change after
// installation; writes are serialised by mu.
type sink struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	enabled  atomic.Bool
	minLevel atomic.Int32
}

var current atomic.Pointer[sink]

func install(w io.Writer, c io.Closer, minLevel Level) *sink {
	s := &sink{w: w, closer: c}
	s.enabled.Store(true)
	s.minLevel.Store(int32(minLevel))
	current.Store(s)
	return s
}

// Init appends every level to the file at path, replacing any earlier sink.
// The returned func closes the file and uninstalls it.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: debug log path comes from the user
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	s := install(f, f, LevelDebug)
	return func() {
		current.CompareAndSwap(s, nil)
		s.mu.Lock()
		defer s.mu.Unlock()
		_ = s.closer.Close()
		s.w = nil
	}, nil
}

// InitWriter sends entries at minLevel and above to w, replacing any
// earlier sink. The CLI points it at stderr; tests at a buffer.
func InitWriter(w io.Writer, minLevel Level) {
	install(w, nil, minLevel)
}

// SetEnabled toggles the current sink.
func SetEnabled(enabled bool) {
	if s := current.Load(); s != nil {
		s.enabled.Store(enabled)
	}
}

// SetMinLevel drops entries below level from now on.
func SetMinLevel(level Level) {
	if s := current.Load(); s != nil {
		s.minLevel.Store(int32(level))
	}
}

func Debug(cat Category, msg string, fields ...any) { write(LevelDebug, cat, msg, fields) }
func Info(cat Category, msg string, fields ...any)  { write(LevelInfo, cat, msg, fields) }
func Warn(cat Category, msg string, fields ...any)  { write(LevelWarn, cat, msg, fields) }
func Error(cat Category, msg string, fields ...any) { write(LevelError, cat, msg, fields) }

// ErrorErr logs at error level with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	text := "<nil>"
	if err != nil {
		text = err.Error()
	}
	write(LevelError, cat, msg, append(fields, "error", text))
}

// format renders one line:
//
//	2025-12-06T10:45:00 [WARN] [builder] message key=value other=<missing>
func format(now time.Time, level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	b.WriteString(now.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)
	for i := 0; i < len(fields); i += 2 {
		if i+1 == len(fields) {
			fmt.Fprintf(&b, " %v=<missing>", fields[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	b.WriteByte('\n')
	return b.String()
}

func write(level Level, cat Category, msg string, fields []any) {
	s := current.Load()
	if s == nil || !s.enabled.Load() || int32(level) < s.minLevel.Load() {
		return
	}
	line := format(time.Now(), level, cat, msg, fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != nil {
		_, _ = io.WriteString(s.w, line)
	}
}
