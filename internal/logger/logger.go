// Package logger prints progress and per-file diagnostics for rawrecon.
// Debug and Info lines appear only in verbose mode; warnings and errors are
// always printed.
//
// Files are processed on several goroutines, so every line is written under
// an exclusive lock and lines from different files never interleave.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose switches Debug, Info and Section output on or off.
func SetVerbose(on bool) {
	mu.Lock()
	verbose = on
	mu.Unlock()
}

// SetOutput redirects log lines to w. The CLI points it at the command's
// error stream.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(true, "[DEBUG] "+format+"\n", args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(true, "[INFO] "+format+"\n", args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	write(true, "\n=== %s ===\n", name)
}

// Warn prints a warning.
func Warn(format string, args ...any) {
	write(false, "Warning: "+format+"\n", args...)
}

// Error prints an error.
func Error(format string, args ...any) {
	write(false, "Error: "+format+"\n", args...)
}

func write(verboseOnly bool, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verboseOnly && !verbose {
		return
	}
	fmt.Fprintf(output, format, args...)
}
