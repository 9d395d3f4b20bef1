// Package logger provides verbose logging for the policy store.
// When verbose mode is enabled via the --verbose flag or log.verbose,
// debug and info lines are printed to stderr so operators can follow
// artifact writes. Warnings and errors are always printed.
//
// Lines are rendered as "[LEVEL] message key=value key=value".
// Values containing spaces or quotes are quoted.
package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug logs a message with key/value pairs if verbose mode is enabled.
func Debug(msg string, kv ...any) {
	emit("DEBUG", true, msg, kv)
}

// Info logs a message with key/value pairs if verbose mode is enabled.
func Info(msg string, kv ...any) {
	emit("INFO", true, msg, kv)
}

// Warn logs a message with key/value pairs.
func Warn(msg string, kv ...any) {
	emit("WARN", false, msg, kv)
}

// Error logs a message with key/value pairs.
func Error(msg string, kv ...any) {
	emit("ERROR", false, msg, kv)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// emit holds the write lock so concurrent lines never interleave.
func emit(level string, verboseOnly bool, msg string, kv []any) {
	mu.Lock()
	defer mu.Unlock()
	if verboseOnly && !verbose {
		return
	}
	fmt.Fprintln(output, format(level, msg, kv))
}

// format renders one log line. A trailing key without a value is
// reported as "!MISSING".
func format(level, msg string, kv []any) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level)
	b.WriteString("] ")
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		if i+1 >= len(kv) {
			b.WriteString("!MISSING")
			break
		}
		b.WriteString(quote(fmt.Sprint(kv[i+1])))
	}
	return b.String()
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
