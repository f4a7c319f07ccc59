// Package logger writes structured logs to a file. The terminal UI owns
// stdout, so nothing is ever logged to the console.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu       sync.Mutex
	levelVar = new(slog.LevelVar)
	current  = slog.New(slog.NewTextHandler(io.Discard, nil))
	logFile  *os.File
)

// Init opens (or creates) the log file at path and routes Get() to it.
// Calling Init again switches to the new file.
func Init(path string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	setDebugLocked(debug)
	current = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	current.Info("logger initialized", "path", path)
	return nil
}

// SetOutput routes logs to w. The CLI uses it for --verbose on commands
// that do not take over the terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	current = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar}))
}

// SetDebug toggles debug level output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	setDebugLocked(enabled)
}

func setDebugLocked(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// Get returns the process logger.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// With returns the process logger with extra attributes, typically a
// component name.
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	current = slog.New(slog.NewTextHandler(io.Discard, nil))
	return err
}
