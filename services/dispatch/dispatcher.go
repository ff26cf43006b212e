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
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/lintdispatch/services/diagnostics"
	"github.com/AleutianAI/lintdispatch/services/pkgmodel"
)

// Dispatcher plans and runs lint invocations for one package.
//
// # Thread Safety
//
// Dispatch may be called from multiple goroutines if the Invoker and sink
// are safe for concurrent use; each call runs its own invocations
// sequentially.
type Dispatcher struct {
	model   pkgmodel.Model
	invoker Invoker
	sink    diagnostics.Sink
	newID   func() string
}

// NewDispatcher creates a Dispatcher. A nil sink discards diagnostics.
func NewDispatcher(model pkgmodel.Model, invoker Invoker, sink diagnostics.Sink) *Dispatcher {
	if sink == nil {
		sink = diagnostics.Discard
	}
	return &Dispatcher{
		model:   model,
		invoker: invoker,
		sink:    sink,
		newID:   func() string { return uuid.New().String() },
	}
}

// Dispatch runs the lint tool for the targets selected by args.
//
// # Description
//
//  1. Rejects --cache-path anywhere in args.
//  2. Extracts every --target value (both "--target X" and "--target=X");
//     repeated names run once.
//  3. Resolves the names against the model. Without --target every package
//     target is selected.
//  4. If nothing was selected, invokes once for the package root.
//     Otherwise invokes once per source-module target in selection order
//     and skips the rest with a warning.
//
// Invocation failures are reported by the Invoker and counted in the
// Summary; they never stop later targets.
//
// # Outputs
//
//   - *Summary: Counts and outcomes, also returned alongside a launch error
//     with the invocations completed so far.
//   - error: A ConfigurationError (errors.Is ErrConfiguration) for rejected
//     arguments, unknown targets or a tool that could not be launched. The
//     error has already been reported to the sink.
func (d *Dispatcher) Dispatch(ctx context.Context, args []string) (*Summary, error) {
	summary := &Summary{RunID: d.newID()}

	ctx, span := startDispatchSpan(ctx, summary.RunID, len(args))
	defer span.End()

	d.sink.Remark(fmt.Sprintf("arguments: %s", formatArgs(args)))

	if HasFlag(args, CachePathFlag) {
		return nil, d.fail(span, ErrCachePathNotAllowed)
	}

	names, rest, err := ExtractOption(args, TargetFlag)
	if err != nil {
		return nil, d.fail(span, err)
	}
	names = uniqueStrings(names)
	d.sink.Remark(fmt.Sprintf("targets: %s", formatArgs(names)))

	var targets []pkgmodel.Target
	if len(names) == 0 {
		targets = d.model.Targets()
	} else {
		targets, err = d.model.TargetsNamed(names)
		if err != nil {
			return nil, d.fail(span, err)
		}
	}

	if len(targets) == 0 {
		err := d.invoke(ctx, summary, InvocationRequest{
			RunID:            summary.RunID,
			WorkingDirectory: d.model.Directory(),
			Arguments:        cloneArgs(rest),
		})
		setDispatchSpanResult(span, summary)
		if err != nil {
			return summary, d.fail(span, err)
		}
		return summary, nil
	}

	for _, target := range targets {
		d.sink.Remark(fmt.Sprintf("target: %s", target))

		if !target.IsSourceModule() {
			d.sink.Warning(fmt.Sprintf("Target '%s' is not a source module; skipping it", target.Name))
			summary.Skipped++
			recordSkippedTarget(ctx, string(target.Kind))
			continue
		}

		err := d.invoke(ctx, summary, InvocationRequest{
			RunID:            summary.RunID,
			WorkingDirectory: target.Directory,
			TargetLabel:      target.Name,
			Arguments:        cloneArgs(rest),
		})
		if err != nil {
			setDispatchSpanResult(span, summary)
			return summary, d.fail(span, err)
		}
	}

	setDispatchSpanResult(span, summary)
	return summary, nil
}

func (d *Dispatcher) invoke(ctx context.Context, summary *Summary, req InvocationRequest) error {
	outcome, err := d.invoker.Invoke(ctx, req)
	if err != nil {
		return err
	}
	summary.add(outcome)
	return nil
}

// fail reports err to the sink and returns it as a ConfigurationError.
func (d *Dispatcher) fail(span trace.Span, err error) error {
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		cerr = newConfigurationError(err)
	}
	recordSpanError(span, cerr)
	d.sink.Error(capitalize(cerr.Err.Error()))
	return cerr
}

func cloneArgs(args []string) []string {
	return append([]string(nil), args...)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
