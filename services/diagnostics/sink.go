// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diagnostics carries user-facing remarks, warnings and errors
// emitted while dispatching lint invocations.
//
// Callers depend on the Sink interface. The CLI fans out to a ConsoleSink
// (terminal) and a LoggerSink (structured log file); tests use Recorder.
//
//	sink := diagnostics.Multi(
//	    diagnostics.NewConsoleSink(os.Stderr, verbose),
//	    diagnostics.NewLoggerSink(logger),
//	)
//	sink.Warning("Target 'Bin' is not a source module; skipping it")
package diagnostics

import (
	"fmt"
	"sync"
)

// Severity is the level of a diagnostic.
type Severity int

const (
	// SeverityRemark is informational output about a decision or result.
	SeverityRemark Severity = iota

	// SeverityWarning is a non-fatal condition, such as a skipped target.
	SeverityWarning

	// SeverityError is a failed invocation or a fatal configuration problem.
	SeverityError
)

// String returns "remark", "warning", "error" or "unknown".
func (s Severity) String() string {
	switch s {
	case SeverityRemark:
		return "remark"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a single emitted message.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// String formats the diagnostic as "severity: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Sink receives diagnostics.
//
// Implementations must not fail: diagnostics are observational and never
// change control flow.
type Sink interface {
	Remark(msg string)
	Warning(msg string)
	Error(msg string)
}

// =============================================================================
// Multi
// =============================================================================

type multiSink struct {
	sinks []Sink
}

// Multi returns a Sink that forwards every diagnostic to each non-nil sink
// in order.
func Multi(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &multiSink{sinks: filtered}
}

func (m *multiSink) Remark(msg string) {
	for _, s := range m.sinks {
		s.Remark(msg)
	}
}

func (m *multiSink) Warning(msg string) {
	for _, s := range m.sinks {
		s.Warning(msg)
	}
}

func (m *multiSink) Error(msg string) {
	for _, s := range m.sinks {
		s.Error(msg)
	}
}

// =============================================================================
// Discard
// =============================================================================

type discardSink struct{}

func (discardSink) Remark(string)  {}
func (discardSink) Warning(string) {}
func (discardSink) Error(string)   {}

// Discard is a Sink that drops everything.
var Discard Sink = discardSink{}

// =============================================================================
// Recorder
// =============================================================================

// Recorder captures diagnostics in memory.
//
// Thread Safety: Safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Remark records a remark.
func (r *Recorder) Remark(msg string) { r.add(SeverityRemark, msg) }

// Warning records a warning.
func (r *Recorder) Warning(msg string) { r.add(SeverityWarning, msg) }

// Error records an error.
func (r *Recorder) Error(msg string) { r.add(SeverityError, msg) }

func (r *Recorder) add(sev Severity, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, Diagnostic{Severity: sev, Message: msg})
}

// All returns a copy of every recorded diagnostic in emission order.
func (r *Recorder) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Filter returns the recorded diagnostics with the given severity.
func (r *Recorder) Filter(sev Severity) []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Diagnostic
	for _, d := range r.diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of recorded diagnostics with the given severity.
func (r *Recorder) Count(sev Severity) int {
	return len(r.Filter(sev))
}

// Reset clears all recorded diagnostics.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = nil
}

// Compile-time interface compliance check.
var (
	_ Sink = (*Recorder)(nil)
	_ Sink = (*multiSink)(nil)
	_ Sink = discardSink{}
)
