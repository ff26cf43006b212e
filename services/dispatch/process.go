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
	"context"
	"io"
	"os/exec"
	"sync"
)

// ProcessSpec describes one child process.
type ProcessSpec struct {
	// Path is the executable to run.
	Path string

	// Args are the arguments, not including Path itself.
	Args []string

	// Dir is the working directory.
	Dir string

	// Stdout and Stderr receive the child's output. nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// ProcessRunner abstracts running a child process to completion.
//
// # Description
//
// Run starts the process, blocks until it ends and classifies the end
// state. A non-nil error means the process never started; every process
// that did start yields a Termination and a nil error, whatever its exit
// status.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type ProcessRunner interface {
	Run(ctx context.Context, spec ProcessSpec) (Termination, error)
}

// DefaultProcessRunner implements ProcessRunner using os/exec.
//
// The context is not used to kill the child; an invocation always runs to
// completion once started.
type DefaultProcessRunner struct{}

// NewDefaultProcessRunner creates a new DefaultProcessRunner.
func NewDefaultProcessRunner() *DefaultProcessRunner {
	return &DefaultProcessRunner{}
}

// Run starts spec.Path and waits for it to finish.
func (r *DefaultProcessRunner) Run(_ context.Context, spec ProcessSpec) (Termination, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	if err := cmd.Start(); err != nil {
		return Termination{}, err
	}

	// Wait errors are either *exec.ExitError or output copy failures; the
	// process state is authoritative in both cases.
	_ = cmd.Wait()
	if cmd.ProcessState == nil {
		return Termination{Kind: TerminationUnknown}, nil
	}
	return classifyState(cmd.ProcessState), nil
}

// =============================================================================
// MOCK
// =============================================================================

// MockProcessRunner is a test double for ProcessRunner.
//
// # Examples
//
//	mock := &MockProcessRunner{
//	    RunFunc: func(ctx context.Context, spec ProcessSpec) (Termination, error) {
//	        return Termination{Kind: TerminationExited}, nil
//	    },
//	}
type MockProcessRunner struct {
	// RunFunc is called when Run is invoked.
	RunFunc func(ctx context.Context, spec ProcessSpec) (Termination, error)

	// Calls records all invocations for verification.
	Calls []ProcessSpec

	mu sync.Mutex
}

// Run records the call and delegates to RunFunc.
func (m *MockProcessRunner) Run(ctx context.Context, spec ProcessSpec) (Termination, error) {
	m.mu.Lock()
	recorded := spec
	recorded.Args = append([]string(nil), spec.Args...)
	m.Calls = append(m.Calls, recorded)
	fn := m.RunFunc
	m.mu.Unlock()

	if fn == nil {
		panic("MockProcessRunner.RunFunc not set")
	}
	return fn(ctx, spec)
}

// GetCalls returns a copy of all recorded calls.
func (m *MockProcessRunner) GetCalls() []ProcessSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]ProcessSpec, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// Reset clears all recorded calls.
func (m *MockProcessRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// Compile-time interface compliance check.
var (
	_ ProcessRunner = (*DefaultProcessRunner)(nil)
	_ ProcessRunner = (*MockProcessRunner)(nil)
)
