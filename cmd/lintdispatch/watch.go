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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// watcher re-runs a dispatch whenever files under its roots change.
//
// # Description
//
// Events are collected until the debounce window passes without a new one.
// Consecutive runs are at least interval apart. A run that ends in
// errLintFailed keeps the watcher going; any other error stops it.
//
// # Thread Safety
//
// Run must be called once. run is never called concurrently.
type watcher struct {
	roots    []string
	ignore   []string
	debounce time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
	run      func(ctx context.Context) error

	fs *fsnotify.Watcher
}

// watcherOptions configures newWatcher.
type watcherOptions struct {
	// Roots are the directories watched recursively.
	Roots []string

	// Ignore lists absolute paths whose subtrees never trigger a run.
	Ignore []string

	// Debounce is the quiet period before a run starts.
	Debounce time.Duration

	// Interval is the minimum time between two runs.
	Interval time.Duration
}

func newWatcher(opts watcherOptions, logger *slog.Logger, run func(ctx context.Context) error) (*watcher, error) {
	if len(opts.Roots) == 0 {
		return nil, errors.New("watch: no directories to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}

	ignore := make([]string, 0, len(opts.Ignore))
	for _, p := range opts.Ignore {
		if p != "" {
			ignore = append(ignore, filepath.Clean(p))
		}
	}

	return &watcher{
		roots:    opts.Roots,
		ignore:   ignore,
		debounce: opts.Debounce,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
		run:      run,
		fs:       fsw,
	}, nil
}

// Run performs one run immediately and then one per settled batch of
// changes until ctx is canceled.
func (w *watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	for _, root := range w.roots {
		if err := w.addRecursive(root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}

	if err := w.trigger(ctx); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	pending := 0

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("watch: cannot add directory", "path", event.Name, "error", err)
					}
				}
			}
			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timerC:
			timer, timerC = nil, nil
			w.logger.Debug("changes settled", "events", pending)
			pending = 0
			if err := w.trigger(ctx); err != nil {
				return err
			}
		}
	}
}

// trigger waits for the rate limiter and runs once.
func (w *watcher) trigger(ctx context.Context) error {
	if err := w.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	err := w.run(ctx)
	if err == nil || errors.Is(err, errLintFailed) {
		return nil
	}
	return err
}

func (w *watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// ignored reports whether path is hidden or lies under an ignored path.
func (w *watcher) ignored(path string) bool {
	path = filepath.Clean(path)
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	for _, p := range w.ignore {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
