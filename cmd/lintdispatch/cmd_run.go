// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/lintdispatch/services/dispatch"
	"github.com/AleutianAI/lintdispatch/services/telemetry"
)

func newRunCmd(a *app) *cobra.Command {
	var flags toolFlags
	cmd := &cobra.Command{
		Use:   "run [flags] [--] [tool arguments...]",
		Short: "Run the lint tool for the selected targets",
		Long: `Runs the lint tool once per selected source-module target, or once for
the whole package when no target is selected. Exits 1 if any run failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runOnce(cmd.Context(), &flags, flags.passThrough(cmd, args))
		},
	}
	flags.register(cmd)
	return cmd
}

// runOnce performs one full dispatch.
func (a *app) runOnce(ctx context.Context, flags *toolFlags, args []string) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(context.Background())

	d, err := a.newDispatcher(ctx, s, flags.tool)
	if err != nil {
		return err
	}

	_, err = a.dispatch(ctx, s, d, args)
	return err
}

// dispatch runs d once and converts its result into a command error.
// Diagnostics for every returned error have already been emitted.
func (a *app) dispatch(ctx context.Context, s *session, d *dispatch.Dispatcher, args []string) (*dispatch.Summary, error) {
	ctx, span := otel.Tracer("lintdispatch.cli").Start(ctx, "lintdispatch.run")
	defer span.End()

	summary, err := d.Dispatch(ctx, args)
	if err != nil {
		return summary, reported(err)
	}

	span.SetAttributes(attribute.String("dispatch.run_id", summary.RunID))
	telemetry.LoggerWithTrace(ctx, s.logger.Slog()).Info("dispatch finished",
		"run_id", summary.RunID,
		"invoked", summary.Invoked,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)

	if summary.HasFailures() {
		return summary, reported(errLintFailed)
	}
	return summary, nil
}
