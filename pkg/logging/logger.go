// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for lintdispatch.
//
// The logger is built on log/slog and writes to two destinations:
//
//   - stderr (or a caller-supplied writer) in text or JSON format
//   - an optional daily JSON file in Config.LogDir
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("dispatch started", "run_id", runID)
//
// # File Logging
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelDebug,
//	    LogDir:  "~/.lintdispatch/logs",
//	    Service: "lintdispatch",
//	})
//	defer logger.Close()
//
// This creates log files named `{service}_{date}.log` in JSON format.
//
// # Thread Safety
//
// Logger is safe for concurrent use.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels.
//
// Levels are ordered by severity: Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for recoverable problems, such as a skipped target.
	LevelWarn

	// LevelError is for failed operations.
	LevelError
)

// String returns the human-readable name of the level.
//
// Returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string to a Level.
//
// # Description
//
// Accepts "debug", "info", "warn"/"warning" and "error" in any case.
// Unknown values return LevelInfo and an error so callers can report the
// bad setting without refusing to start.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// toSlogLevel converts our Level to slog.Level.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger behavior.
//
// A zero-value Config creates a logger that writes Info+ messages to
// stderr in text format.
type Config struct {
	// Level sets the minimum log level.
	// Default: LevelInfo
	Level Level

	// LogDir enables file logging to the specified directory.
	//
	// The file is named "{Service}_{YYYY-MM-DD}.log" and is always JSON.
	// The directory is created with 0750 permissions. Supports ~ expansion.
	LogDir string

	// Service is attached to every record as the "service" attribute.
	Service string

	// JSON selects JSON output for the primary writer.
	JSON bool

	// Quiet disables the primary writer. File logging is unaffected.
	Quiet bool

	// Output replaces stderr as the primary writer.
	Output io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger provides structured logging with multi-destination output.
//
// # Resource Management
//
// Always call Close() when file logging is configured:
//
//	logger := logging.New(config)
//	defer logger.Close()
type Logger struct {
	slog   *slog.Logger
	config Config

	// file is nil when file logging is disabled or the file could not be opened.
	file *os.File

	// owner is false for loggers derived with With; they never close the file.
	owner bool

	mu sync.Mutex
}

// New creates a new Logger with the given configuration.
//
// # Description
//
// Sets up the primary handler (unless Quiet) and the file handler (if
// LogDir is set). A LogDir that cannot be created or opened silently
// disables file logging; logging must never stop a dispatch.
//
// # Inputs
//
//   - config: Logger configuration
//
// # Outputs
//
//   - *Logger: Configured logger ready for use
func New(config Config) *Logger {
	var handlers []slog.Handler

	opts := &slog.HandlerOptions{
		Level: config.Level.toSlogLevel(),
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	if !config.Quiet {
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(out, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(out, opts))
		}
	}

	logger := &Logger{
		config: config,
		owner:  true,
	}

	if config.LogDir != "" {
		if file, err := openLogFile(config.LogDir, config.Service); err == nil {
			logger.file = file
			handlers = append(handlers, slog.NewJSONHandler(file, opts))
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", config.Service),
		})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Default returns an Info-level stderr logger for the "lintdispatch" service.
func Default() *Logger {
	return New(Config{
		Level:   LevelInfo,
		Service: "lintdispatch",
	})
}

// Debug logs a message at Debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs a message at Info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a message at Warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs a message at Error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a new Logger with additional attributes.
//
// The child shares the parent's file handle but does not own it; only the
// parent's Close releases it.
//
// Example:
//
//	runLogger := logger.With("run_id", runID)
//	runLogger.Info("dispatch started")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
		file:   l.file,
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// FilePath returns the path of the active log file, or "" when file
// logging is disabled.
func (l *Logger) FilePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close syncs and closes the log file, if this logger owns one.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.owner || l.file == nil {
		return nil
	}

	var errs []error
	if err := l.file.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("sync log file: %w", err))
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	l.file = nil

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// =============================================================================
// Multi-Handler (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers.
type multiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the level.
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

// WithAttrs returns a new handler with additional attributes.
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

// WithGroup returns a new handler with a group name.
func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// =============================================================================
// Helper Functions
// =============================================================================

// openLogFile creates dir and opens today's log file for appending.
func openLogFile(dir, service string) (*os.File, error) {
	logDir := expandPath(dir)
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, err
	}
	if service == "" {
		service = "lintdispatch"
	}
	filename := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(logDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
}

// expandPath expands a leading ~ to the user's home directory.
//
// Examples:
//   - "~/.lintdispatch/logs" -> "/home/user/.lintdispatch/logs"
//   - "/var/log" -> "/var/log" (unchanged)
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
