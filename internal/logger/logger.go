// Package logger holds the process-wide structured logger. It discards
// everything until Init enables it.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// L is the global logger instance. It's initialized to discard all output by default.
var L = discard()

var (
	mu   sync.Mutex
	file *os.File
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Path    string     // Log file; empty logs to stderr
	Level   slog.Level // Minimum level
	JSON    bool       // JSON lines instead of logfmt-style text
}

// Init configures logging. Call from main() before any log calls.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()
	closeFile()

	if !opts.Enabled {
		L = discard()
		return nil
	}

	var w io.Writer = os.Stderr
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		file, w = f, f
	}
	L = New(w, opts.Level, opts.JSON)
	return nil
}

// New builds a logger writing to w.
func New(w io.Writer, level slog.Level, json bool) *slog.Logger {
	ho := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// Close flushes and closes the log file, if any, and reverts to discarding.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	L = discard()
	return closeFile()
}

func closeFile() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
