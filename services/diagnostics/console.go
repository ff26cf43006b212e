// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diagnostics

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/lintdispatch/pkg/logging"
)

var (
	remarkStyle  = lipgloss.NewStyle().Faint(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// ConsoleSink writes diagnostics as "severity: message" lines.
//
// Severity prefixes are coloured when the writer is a terminal. Remarks are
// only written when verbose is set; warnings and errors always are.
//
// Thread Safety: Safe for concurrent use.
type ConsoleSink struct {
	w       io.Writer
	verbose bool
	color   bool
	mu      sync.Mutex
}

// NewConsoleSink creates a ConsoleSink writing to w.
func NewConsoleSink(w io.Writer, verbose bool) *ConsoleSink {
	return &ConsoleSink{
		w:       w,
		verbose: verbose,
		color:   IsTerminal(w),
	}
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Remark writes msg when the sink is verbose.
func (c *ConsoleSink) Remark(msg string) {
	if !c.verbose {
		return
	}
	c.write(SeverityRemark, msg)
}

// Warning writes msg.
func (c *ConsoleSink) Warning(msg string) { c.write(SeverityWarning, msg) }

// Error writes msg.
func (c *ConsoleSink) Error(msg string) { c.write(SeverityError, msg) }

func (c *ConsoleSink) write(sev Severity, msg string) {
	prefix := sev.String() + ":"
	if c.color {
		switch sev {
		case SeverityRemark:
			prefix = remarkStyle.Render(prefix)
		case SeverityWarning:
			prefix = warningStyle.Render(prefix)
		case SeverityError:
			prefix = errorStyle.Render(prefix)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", prefix, msg)
}

// =============================================================================
// LoggerSink
// =============================================================================

// LoggerSink forwards diagnostics to a structured logger.
//
// Remarks map to Info, warnings to Warn and errors to Error. Each record
// carries a "diagnostic" attribute with the severity name.
type LoggerSink struct {
	logger *logging.Logger
}

// NewLoggerSink creates a LoggerSink.
func NewLoggerSink(logger *logging.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Remark logs msg at Info.
func (l *LoggerSink) Remark(msg string) {
	l.logger.Info(msg, "diagnostic", SeverityRemark.String())
}

// Warning logs msg at Warn.
func (l *LoggerSink) Warning(msg string) {
	l.logger.Warn(msg, "diagnostic", SeverityWarning.String())
}

// Error logs msg at Error.
func (l *LoggerSink) Error(msg string) {
	l.logger.Error(msg, "diagnostic", SeverityError.String())
}

var (
	_ Sink = (*ConsoleSink)(nil)
	_ Sink = (*LoggerSink)(nil)
)
