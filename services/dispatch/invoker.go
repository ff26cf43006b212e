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
	"fmt"
	"io"
	"time"

	"github.com/AleutianAI/lintdispatch/services/diagnostics"
)

// Invoker runs the lint tool for one InvocationRequest.
//
// A non-nil error is fatal and stops the dispatch; every tool run that
// started yields an outcome and a nil error.
type Invoker interface {
	Invoke(ctx context.Context, req InvocationRequest) (InvocationOutcome, error)
}

// OutcomeRecorder persists invocation outcomes.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome InvocationOutcome) error
}

// ToolInvoker runs the configured lint tool as a child process.
//
// # Thread Safety
//
// Safe for concurrent use if the runner, sink and recorder are.
type ToolInvoker struct {
	runner     ProcessRunner
	toolPath   string
	packageDir string
	cacheDir   string
	sink       diagnostics.Sink
	recorder   OutcomeRecorder
	stdout     io.Writer
	stderr     io.Writer
	now        func() time.Time
}

// InvokerOption configures a ToolInvoker.
type InvokerOption func(*ToolInvoker)

// WithSink sets where invocation diagnostics are reported.
func WithSink(sink diagnostics.Sink) InvokerOption {
	return func(i *ToolInvoker) {
		if sink != nil {
			i.sink = sink
		}
	}
}

// WithRecorder persists every outcome through r.
func WithRecorder(r OutcomeRecorder) InvokerOption {
	return func(i *ToolInvoker) {
		i.recorder = r
	}
}

// WithOutput connects the tool's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) InvokerOption {
	return func(i *ToolInvoker) {
		i.stdout = stdout
		i.stderr = stderr
	}
}

// NewToolInvoker creates a ToolInvoker.
//
// # Inputs
//
//   - runner: Starts and waits for the child process.
//   - toolPath: Executable of the lint tool.
//   - packageDir: Package root; the tool's working directory.
//   - cacheDir: Value passed with --cache-path.
//   - opts: Optional configuration.
//
// # Outputs
//
//   - *ToolInvoker: Ready to use. Diagnostics are discarded unless WithSink
//     is given.
func NewToolInvoker(runner ProcessRunner, toolPath, packageDir, cacheDir string, opts ...InvokerOption) *ToolInvoker {
	i := &ToolInvoker{
		runner:     runner,
		toolPath:   toolPath,
		packageDir: packageDir,
		cacheDir:   cacheDir,
		sink:       diagnostics.Discard,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Invoke runs the tool once for req.
//
// # Description
//
// Builds the tool arguments (pass-through arguments, then --cache-path
// unless the analyze subcommand is present, then req.WorkingDirectory),
// runs the tool from the package root, waits for it and reports exactly one
// diagnostic describing how it ended.
//
// # Outputs
//
//   - InvocationOutcome: How the tool ended.
//   - error: ConfigurationError wrapping ErrToolLaunch if the process could
//     not be started. Nothing else is treated as an error.
func (i *ToolInvoker) Invoke(ctx context.Context, req InvocationRequest) (InvocationOutcome, error) {
	ctx, span := startInvokeSpan(ctx, req)
	defer span.End()

	args := BuildToolArguments(req.Arguments, i.cacheDir, req.WorkingDirectory)

	i.sink.Remark(fmt.Sprintf("directory: %s, target: %s", req.WorkingDirectory, req.TargetLabel))
	i.sink.Remark(fmt.Sprintf("working directory: %s", i.packageDir))
	i.sink.Remark(fmt.Sprintf("executable: %s", i.toolPath))
	i.sink.Remark(fmt.Sprintf("arguments: %s", formatArgs(args)))

	start := i.now()
	term, err := i.runner.Run(ctx, ProcessSpec{
		Path:   i.toolPath,
		Args:   args,
		Dir:    i.packageDir,
		Stdout: i.stdout,
		Stderr: i.stderr,
	})
	if err != nil {
		cerr := newConfigurationError(fmt.Errorf("%w %s: %w", ErrToolLaunch, i.toolPath, err))
		recordSpanError(span, cerr)
		return InvocationOutcome{}, cerr
	}

	outcome := InvocationOutcome{
		RunID:       req.RunID,
		TargetLabel: req.TargetLabel,
		Directory:   req.WorkingDirectory,
		Termination: term.Kind,
		ExitStatus:  term.ExitStatus,
		Signal:      term.Signal,
		Arguments:   args,
		StartedAt:   start,
		Duration:    i.now().Sub(start),
	}

	i.report(outcome)
	setInvokeSpanResult(span, outcome)
	recordInvocationMetrics(ctx, outcome)

	if i.recorder != nil {
		if err := i.recorder.RecordOutcome(ctx, outcome); err != nil {
			i.sink.Warning(fmt.Sprintf("Could not record outcome for %s: %v", outcome.Module(), err))
		}
	}
	return outcome, nil
}

// report emits the single diagnostic describing how the tool ended.
func (i *ToolInvoker) report(o InvocationOutcome) {
	module := o.Module()
	switch o.Termination {
	case TerminationExited:
		if o.ExitStatus == 0 {
			i.sink.Remark(fmt.Sprintf("Finished running in %s", module))
			return
		}
		i.sink.Error(fmt.Sprintf(
			"Command found error violations or unsuccessfully stopped running with exit code %d in %s",
			o.ExitStatus, module))
	case TerminationSignaled:
		i.sink.Error(fmt.Sprintf("Got uncaught signal %s while running in %s", o.Signal, module))
	default:
		i.sink.Error(fmt.Sprintf("Stopped running in %s due to unexpected termination reason", module))
	}
}

// Compile-time interface compliance check.
var _ Invoker = (*ToolInvoker)(nil)
