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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for dispatch operations.
var (
	tracer = otel.Tracer("lintdispatch.dispatch")
	meter  = otel.Meter("lintdispatch.dispatch")
)

// Metrics for dispatch operations.
var (
	invocationDuration metric.Float64Histogram
	invocationTotal    metric.Int64Counter
	skippedTotal       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		invocationDuration, err = meter.Float64Histogram(
			"lintdispatch_invocation_duration_seconds",
			metric.WithDescription("Duration of lint tool invocations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		invocationTotal, err = meter.Int64Counter(
			"lintdispatch_invocations_total",
			metric.WithDescription("Total number of lint tool invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		skippedTotal, err = meter.Int64Counter(
			"lintdispatch_skipped_targets_total",
			metric.WithDescription("Targets skipped because they are not source modules"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startDispatchSpan creates a span for one Dispatch call.
func startDispatchSpan(ctx context.Context, runID string, argCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Dispatcher.Dispatch",
		trace.WithAttributes(
			attribute.String("dispatch.run_id", runID),
			attribute.Int("dispatch.arg_count", argCount),
		),
	)
}

// setDispatchSpanResult sets the summary attributes on a dispatch span.
func setDispatchSpanResult(span trace.Span, s *Summary) {
	span.SetAttributes(
		attribute.Int("dispatch.invoked", s.Invoked),
		attribute.Int("dispatch.succeeded", s.Succeeded),
		attribute.Int("dispatch.failed", s.Failed),
		attribute.Int("dispatch.skipped", s.Skipped),
	)
}

// startInvokeSpan creates a span for one tool invocation.
func startInvokeSpan(ctx context.Context, req InvocationRequest) (context.Context, trace.Span) {
	return tracer.Start(ctx, "lintdispatch.invoke",
		trace.WithAttributes(
			attribute.String("invoke.target", req.TargetLabel),
			attribute.String("invoke.directory", req.WorkingDirectory),
		),
	)
}

// setInvokeSpanResult sets the outcome attributes on an invoke span.
func setInvokeSpanResult(span trace.Span, o InvocationOutcome) {
	span.SetAttributes(
		attribute.String("invoke.termination", o.Termination.String()),
		attribute.Int("invoke.exit_status", o.ExitStatus),
		attribute.Bool("invoke.success", o.Succeeded()),
	)
	if o.Signal != "" {
		span.SetAttributes(attribute.String("invoke.signal", o.Signal))
	}
	if !o.Succeeded() {
		span.SetStatus(codes.Error, "lint tool reported failure")
	}
}

// recordSpanError marks span as failed with err.
func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// recordInvocationMetrics records metrics for one tool invocation.
func recordInvocationMetrics(ctx context.Context, o InvocationOutcome) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("termination", o.Termination.String()),
		attribute.Bool("success", o.Succeeded()),
	)
	invocationDuration.Record(ctx, o.Duration.Seconds(), attrs)
	invocationTotal.Add(ctx, 1, attrs)
}

// recordSkippedTarget counts a target that was not invoked.
func recordSkippedTarget(ctx context.Context, kind string) {
	if err := initMetrics(); err != nil {
		return
	}
	skippedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
