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
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/lintdispatch/services/dispatch"
	"github.com/AleutianAI/lintdispatch/services/pkgmodel"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func newTargetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the package's targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(context.Background())

			writeTargets(a.stdout, s.pkg)
			return nil
		},
	}
}

func writeTargets(w io.Writer, pkg *pkgmodel.Package) {
	targets := pkg.Targets()
	if len(targets) == 0 {
		fmt.Fprintf(w, "Package %s has no targets; runs lint the package root.\n", pkg.Name())
		return
	}

	t := newTable("NAME", "KIND", "LINTED", "DIRECTORY")
	for _, target := range targets {
		linted := "no"
		if target.IsSourceModule() {
			linted = "yes"
		}
		t.Row(target.Name, string(target.Kind), linted, relativeTo(pkg.Directory(), target.Directory))
	}
	fmt.Fprintln(w, t.Render())
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lint runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(context.Background())

			if !s.cfg.History.Enabled {
				return fmt.Errorf("history is disabled (history.enabled: false)")
			}
			if err := s.openJournal(); err != nil {
				return fmt.Errorf("open history: %w", err)
			}

			if !cmd.Flags().Changed("limit") {
				limit = s.cfg.History.Limit
			}
			outcomes, err := s.journal.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			writeHistory(a.stdout, s.pkg.Directory(), outcomes)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (default from config)")
	return cmd
}

func writeHistory(w io.Writer, pkgDir string, outcomes []dispatch.InvocationOutcome) {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, "No lint runs recorded.")
		return
	}

	t := newTable("STARTED", "RUN", "SCOPE", "RESULT", "DURATION")
	for _, o := range outcomes {
		scope := o.TargetLabel
		if scope == "" {
			scope = "(package) " + relativeTo(pkgDir, o.Directory)
		}
		t.Row(
			o.StartedAt.Local().Format(time.DateTime),
			shortID(o.RunID),
			scope,
			describeResult(o),
			o.Duration.Round(time.Millisecond).String(),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func describeResult(o dispatch.InvocationOutcome) string {
	switch o.Termination {
	case dispatch.TerminationExited:
		if o.ExitStatus == 0 {
			return "ok"
		}
		return "exit " + strconv.Itoa(o.ExitStatus)
	case dispatch.TerminationSignaled:
		return "signal " + o.Signal
	default:
		return "unknown"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func relativeTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lintdispatch version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "lintdispatch %s\n", version)
		},
	}
}
