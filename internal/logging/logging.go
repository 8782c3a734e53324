// Package logging implements the two-level Log contract of §6: an info
// sink for per-step summaries and a debug sink for per-node traces, gated
// by configuration the way the teacher gates its own fmt.Printf-based
// PrintInfo calls on config.Silent/config.Testing. No structured-logging
// library is pulled in here because the teacher repo itself never reaches
// for one — plain log.Printf/fmt.Printf is the idiom being imitated, not a
// gap to fill.
package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger is a minimal two-level logger bound to a single deobfuscation run.
type Logger struct {
	silent bool
	debug  bool
	out    *log.Logger
}

// New builds a Logger writing to stderr, suppressing Info when silent is
// true and emitting debug-level traces only when debug is true, whatever
// silent is.
func New(silent, debug bool) *Logger {
	return &Logger{
		silent: silent,
		debug:  debug,
		out:    log.New(os.Stderr, "", 0),
	}
}

// Info logs a per-step summary (target selected, pass completed, change
// count). Suppressed entirely when the logger is silent.
func (l *Logger) Info(format string, args ...any) {
	if l.silent {
		return
	}
	l.out.Printf("info: "+format, args...)
}

// Debug logs a per-node trace. Suppressed unless debug logging is enabled,
// independent of the silent flag so a caller can ask for debug traces on
// stderr while Info summaries stay off.
func (l *Logger) Debug(format string, args ...any) {
	if !l.debug {
		return
	}
	l.out.Printf("debug: "+format, args...)
}

// InfoFunc adapts Info to the target.Context callback signature.
func (l *Logger) InfoFunc() func(format string, args ...any) {
	return func(format string, args ...any) { l.Info(format, args...) }
}

// DebugFunc adapts Debug to the target.Context callback signature.
func (l *Logger) DebugFunc() func(format string, args ...any) {
	return func(format string, args ...any) { l.Debug(format, args...) }
}

// LogFunc adapts the logger to the target package's two-argument LogFunc
// shape, used by the registry's own internal logging.
func (l *Logger) LogFunc() func(level, message string) {
	return func(level, message string) {
		switch level {
		case "debug":
			l.Debug("%s", message)
		default:
			l.Info("%s", message)
		}
	}
}

// Fields renders a short "key=value key=value" suffix for Info/Debug calls
// that want to attach structured-ish context without a dependency, the way
// the teacher inlines detail into its own Printf format strings.
func Fields(kv ...any) string {
	s := ""
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%v=%v", kv[i], kv[i+1])
	}
	return s
}
