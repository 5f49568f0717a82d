package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Logger is a named component logger. Loggers derived with With share the
// underlying writer and debug settings of their parent component.
type Logger struct {
	name   string
	std    *log.Logger
	fields []field
}

type field struct {
	key   string
	value any
}

// writerHolder keeps atomic.Value storing a single concrete type.
type writerHolder struct {
	w io.Writer
}

var (
	globalDebug  atomic.Bool
	serviceDebug sync.Map // map[string]*atomic.Bool
	loggers      sync.Map // map[string]*Logger
	outputWriter atomic.Value
)

func init() {
	outputWriter.Store(writerHolder{w: os.Stderr})
}

// ForService returns (and memoizes) the logger for a component name such as
// "search", "backend" or "web".
func ForService(name string) *Logger {
	if name == "" {
		name = "unknown"
	}
	if l, ok := loggers.Load(name); ok {
		return l.(*Logger)
	}
	current := outputWriter.Load().(writerHolder).w
	std := log.New(current, "", log.LstdFlags|log.Lmicroseconds)
	logger := &Logger{name: name, std: std}
	actual, _ := loggers.LoadOrStore(name, logger)
	return actual.(*Logger)
}

// With returns a child logger that appends key=value to every line.
// The child is not memoized.
func (l *Logger) With(key string, value any) *Logger {
	fields := make([]field, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	fields = append(fields, field{key: key, value: value})
	return &Logger{name: l.name, std: l.std, fields: fields}
}

// SetGlobalDebug enables or disables debug logging for every component.
func SetGlobalDebug(enabled bool) {
	globalDebug.Store(enabled)
}

// GlobalDebug reports whether global debug logging is enabled.
func GlobalDebug() bool {
	return globalDebug.Load()
}

// EnableDebugFor enables debug logging for a single component.
func EnableDebugFor(name string) {
	if name == "" {
		return
	}
	val, _ := serviceDebug.LoadOrStore(name, &atomic.Bool{})
	val.(*atomic.Bool).Store(true)
}

// DisableDebugFor disables debug logging for a single component.
func DisableDebugFor(name string) {
	if name == "" {
		return
	}
	if val, ok := serviceDebug.Load(name); ok {
		val.(*atomic.Bool).Store(false)
	}
}

// EnableDebugForList enables debug for a comma separated component list,
// as accepted by the --debug-components flag.
func EnableDebugForList(list string) {
	for _, name := range strings.Split(list, ",") {
		EnableDebugFor(strings.TrimSpace(name))
	}
}

// DebugEnabledFor reports whether debug output is on for the component.
func DebugEnabledFor(name string) bool {
	if globalDebug.Load() {
		return true
	}
	if val, ok := serviceDebug.Load(name); ok {
		return val.(*atomic.Bool).Load()
	}
	return false
}

// SetOutput redirects all existing and future loggers to w.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	outputWriter.Store(writerHolder{w: w})
	loggers.Range(func(_, v any) bool {
		v.(*Logger).std.SetOutput(w)
		return true
	})
}

func (l *Logger) prefix() string {
	return "[" + l.name + "]"
}

func (l *Logger) suffix() string {
	if len(l.fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(l.fields))
	for _, f := range l.fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.key, quoteIfNeeded(f.value)))
	}
	return " " + strings.Join(parts, " ")
}

func quoteIfNeeded(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func (l *Logger) logInternal(level string, msg string) {
	l.std.Println(level + " " + l.prefix() + " " + msg + l.suffix())
}

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.logInternal(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf logs a warning.
func (l *Logger) Warnf(format string, args ...any) {
	l.logInternal(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf logs an error.
func (l *Logger) Errorf(format string, args ...any) {
	l.logInternal(LevelError, fmt.Sprintf(format, args...))
}

// Debugf logs only when debug is enabled globally or for this component.
func (l *Logger) Debugf(format string, args ...any) {
	if !DebugEnabledFor(l.name) {
		return
	}
	l.logInternal(LevelDebug, fmt.Sprintf(format, args...))
}

// Components returns the names of all loggers created so far, sorted.
func Components() []string {
	var names []string
	loggers.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}

const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelDebug = "DEBUG"
)
