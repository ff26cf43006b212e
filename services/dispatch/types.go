// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dispatch

import (
	"fmt"
	"time"
)

// =============================================================================
// TERMINATION
// =============================================================================

// TerminationKind classifies how a tool process ended.
type TerminationKind int

const (
	// TerminationUnknown is any end state that is neither an exit nor a signal.
	TerminationUnknown TerminationKind = iota

	// TerminationExited means the process exited normally with a status.
	TerminationExited

	// TerminationSignaled means the process was killed by an uncaught signal.
	TerminationSignaled
)

// String returns "exit", "signal" or "unknown".
func (k TerminationKind) String() string {
	switch k {
	case TerminationExited:
		return "exit"
	case TerminationSignaled:
		return "signal"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k TerminationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name; unrecognised names become
// TerminationUnknown.
func (k *TerminationKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "exit":
		*k = TerminationExited
	case "signal":
		*k = TerminationSignaled
	default:
		*k = TerminationUnknown
	}
	return nil
}

// Termination is the raw result of running one process.
type Termination struct {
	Kind TerminationKind

	// ExitStatus is the exit code for TerminationExited and the signal
	// number for TerminationSignaled.
	ExitStatus int

	// Signal is the signal name (e.g. "SIGKILL") for TerminationSignaled.
	Signal string
}

// =============================================================================
// INVOCATION
// =============================================================================

// InvocationRequest is one planned tool run.
//
// Arguments never contain --cache-path or --target; the Dispatcher strips
// or rejects them before a request is created. Each request owns its
// Arguments slice.
type InvocationRequest struct {
	// RunID identifies the Dispatch call that created the request.
	RunID string

	// WorkingDirectory is the directory the tool is scoped to.
	WorkingDirectory string

	// TargetLabel is the target name, or "" for the whole package.
	TargetLabel string

	// Arguments are the pass-through arguments for the tool.
	Arguments []string
}

// Module describes the request's scope for diagnostics: "module 'Foo'" or
// "package".
func (r InvocationRequest) Module() string {
	return moduleLabel(r.TargetLabel)
}

func moduleLabel(target string) string {
	if target == "" {
		return "package"
	}
	return fmt.Sprintf("module '%s'", target)
}

// InvocationOutcome is the classified result of one tool run.
type InvocationOutcome struct {
	RunID       string          `json:"run_id"`
	TargetLabel string          `json:"target,omitempty"`
	Directory   string          `json:"directory"`
	Termination TerminationKind `json:"termination"`
	ExitStatus  int             `json:"exit_status"`
	Signal      string          `json:"signal,omitempty"`
	Arguments   []string        `json:"arguments"`
	StartedAt   time.Time       `json:"started_at"`
	Duration    time.Duration   `json:"duration"`
}

// Succeeded reports whether the tool exited normally with status 0.
func (o InvocationOutcome) Succeeded() bool {
	return o.Termination == TerminationExited && o.ExitStatus == 0
}

// Module describes the outcome's scope: "module 'Foo'" or "package".
func (o InvocationOutcome) Module() string {
	return moduleLabel(o.TargetLabel)
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary aggregates one Dispatch call.
type Summary struct {
	RunID     string
	Invoked   int
	Succeeded int
	Failed    int
	Skipped   int
	Outcomes  []InvocationOutcome
}

// HasFailures reports whether any invocation did not succeed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}

func (s *Summary) add(o InvocationOutcome) {
	s.Invoked++
	if o.Succeeded() {
		s.Succeeded++
	} else {
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}
