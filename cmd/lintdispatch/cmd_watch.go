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
	"net"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/lintdispatch/services/pkgmodel"
)

func newWatchCmd(a *app) *cobra.Command {
	var flags toolFlags
	var statusAddr string
	cmd := &cobra.Command{
		Use:   "watch [flags] [--] [tool arguments...]",
		Short: "Re-run the lint tool whenever package sources change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), &flags, statusAddr, flags.passThrough(cmd, args))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "serve /healthz, /status and /metrics on this address")
	return cmd
}

func (a *app) watch(ctx context.Context, flags *toolFlags, statusAddr string, args []string) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(context.Background())

	d, err := a.newDispatcher(ctx, s, flags.tool)
	if err != nil {
		return err
	}

	status := newWatchStatus()
	w, err := newWatcher(watcherOptions{
		Roots:    watchRoots(s.pkg),
		Ignore:   []string{s.cfg.CacheDir, s.cfg.History.Dir, s.cfg.Logging.Dir},
		Debounce: s.cfg.Watch.Debounce,
		Interval: s.cfg.Watch.Interval,
	}, s.logger.Slog(), func(ctx context.Context) error {
		summary, err := a.dispatch(ctx, s, d, args)
		status.record(summary)
		return err
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if statusAddr != "" {
		ln, err := net.Listen("tcp", statusAddr)
		if err != nil {
			_ = w.fs.Close()
			return fmt.Errorf("status server: %w", err)
		}
		router := newStatusRouter(status)
		g.Go(func() error {
			return runStatusServer(gctx, ln, router, s.logger.Slog())
		})
	}

	s.sink.Remark("Watching for changes; press Ctrl-C to stop")
	g.Go(func() error {
		defer cancel()
		return w.Run(gctx)
	})
	return g.Wait()
}

// watchRoots returns the existing source-module directories, or the
// package directory when there are none.
func watchRoots(pkg *pkgmodel.Package) []string {
	var roots []string
	for _, t := range pkg.Targets() {
		if !t.IsSourceModule() {
			continue
		}
		if info, err := os.Stat(t.Directory); err == nil && info.IsDir() {
			roots = append(roots, t.Directory)
		}
	}
	if len(roots) == 0 {
		return []string{pkg.Directory()}
	}
	return roots
}
