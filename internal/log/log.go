// Package log holds the process-wide diagnostic loggers. Until Initialize is
// called every logger discards its output, so library packages can log
// unconditionally.
package log

import (
	"fmt"
	"io"
	golog "log"
	"os"
	"path/filepath"
	"sync"

	"tasksync/internal/sentry"
)

const logFlags = golog.Ldate | golog.Ltime | golog.Lshortfile

var (
	InfoLog    = golog.New(io.Discard, "INFO: ", logFlags)
	WarningLog = golog.New(io.Discard, "WARNING: ", logFlags)
	ErrorLog   = golog.New(io.Discard, "ERROR: ", logFlags)
	DebugLog   = golog.New(io.Discard, "DEBUG: ", logFlags)

	mu      sync.Mutex
	logFile *os.File
)

// DefaultPath returns the log file used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "tasksync.log")
}

// Initialize opens path for appending and points every logger at it. Error and
// warning lines are also forwarded to sentry when it is enabled. Debug lines
// are only written when debug is true.
func Initialize(path string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if path == "" {
		path = DefaultPath()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f

	setOutputs(f, debug)
	return nil
}

// SetOutput points every logger at w. Used by tests and by callers that want
// diagnostics on stderr.
func SetOutput(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()
	setOutputs(w, debug)
}

func setOutputs(w io.Writer, debug bool) {
	InfoLog.SetOutput(sentry.NewWriter(w, sentry.LevelInfo))
	WarningLog.SetOutput(sentry.NewWriter(w, sentry.LevelWarning))
	ErrorLog.SetOutput(sentry.NewWriter(w, sentry.LevelError))
	if debug {
		DebugLog.SetOutput(w)
	} else {
		DebugLog.SetOutput(io.Discard)
	}
}

// Close flushes and closes the log file and resets loggers to discard.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	setOutputs(io.Discard, false)
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
