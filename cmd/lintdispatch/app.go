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
	"io"
	"os"

	"github.com/AleutianAI/lintdispatch/cmd/lintdispatch/config"
	"github.com/AleutianAI/lintdispatch/pkg/logging"
	"github.com/AleutianAI/lintdispatch/services/diagnostics"
	"github.com/AleutianAI/lintdispatch/services/dispatch"
	"github.com/AleutianAI/lintdispatch/services/history"
	"github.com/AleutianAI/lintdispatch/services/pkgmodel"
	"github.com/AleutianAI/lintdispatch/services/telemetry"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	packagePath string
	configPath  string
	verbose     bool
	logLevel    string
	logJSON     bool
}

// app carries the process-wide dependencies shared by all commands.
// Tests replace runner and probe.
type app struct {
	opts   rootOptions
	stdout io.Writer
	stderr io.Writer
	runner dispatch.ProcessRunner
	probe  dispatch.VersionProbe
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		opts:   rootOptions{packagePath: "."},
		stdout: stdout,
		stderr: stderr,
		runner: dispatch.NewDefaultProcessRunner(),
		probe:  dispatch.ExecVersionProbe,
	}
}

// session is the per-command state built from configuration.
type session struct {
	cfg     *config.Config
	pkg     *pkgmodel.Package
	logger  *logging.Logger
	sink    diagnostics.Sink
	journal *history.Journal

	shutdownTelemetry func(context.Context) error
}

// openSession loads configuration and the package and starts logging and
// telemetry. The caller must call close.
func (a *app) openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(config.LoadOptions{
		PackageDir: a.opts.packagePath,
		Path:       a.opts.configPath,
	})
	if err != nil {
		return nil, err
	}

	levelName := cfg.Logging.Level
	if a.opts.logLevel != "" {
		levelName = a.opts.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "lintdispatch",
		JSON:    cfg.Logging.JSON || a.opts.logJSON,
		Quiet:   !a.opts.verbose,
		Output:  a.stderr,
	})

	s := &session{cfg: cfg, logger: logger}

	sinks := []diagnostics.Sink{diagnostics.NewConsoleSink(a.stderr, a.opts.verbose)}
	if logger.FilePath() != "" {
		sinks = append(sinks, diagnostics.NewLoggerSink(logger))
	}
	s.sink = diagnostics.Multi(sinks...)

	telCfg := cfg.Telemetry
	telCfg.ServiceVersion = version
	telCfg.Writer = a.stderr
	s.shutdownTelemetry, err = telemetry.Init(ctx, telCfg)
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	s.pkg, err = pkgmodel.Load(a.opts.packagePath)
	if err != nil {
		s.close(ctx)
		return nil, err
	}

	logger.Debug("session opened",
		"package", s.pkg.Name(),
		"directory", s.pkg.Directory(),
		"targets", len(s.pkg.Targets()),
	)
	return s, nil
}

// openJournal opens the history journal if it is enabled.
func (s *session) openJournal() error {
	if !s.cfg.History.Enabled || s.journal != nil {
		return nil
	}
	hcfg := history.DefaultConfig(s.cfg.History.Dir)
	hcfg.Retain = s.cfg.History.Retain
	hcfg.Logger = s.logger.Slog()

	j, err := history.Open(hcfg)
	if err != nil {
		return err
	}
	s.journal = j
	return nil
}

func (s *session) close(ctx context.Context) {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("closing history journal", "error", err)
		}
	}
	if s.shutdownTelemetry != nil {
		if err := s.shutdownTelemetry(ctx); err != nil {
			s.logger.Warn("telemetry shutdown", "error", err)
		}
	}
	_ = s.logger.Close()
}

// newDispatcher resolves and checks the tool and assembles a Dispatcher.
// toolOverride, if set, replaces the configured tool path.
func (a *app) newDispatcher(ctx context.Context, s *session, toolOverride string) (*dispatch.Dispatcher, error) {
	toolPath := s.cfg.Tool.Path
	if toolOverride != "" {
		toolPath = toolOverride
	}
	resolved, err := dispatch.ResolveTool(s.cfg.Tool.Name, toolPath)
	if err != nil {
		return nil, err
	}

	if v, err := dispatch.CheckToolVersion(ctx, a.probe, resolved, s.cfg.Tool.VersionArgs, s.cfg.Tool.MinVersion); err != nil {
		return nil, err
	} else if v != "" {
		s.logger.Debug("tool version accepted", "tool", resolved, "version", v)
	}

	if err := os.MkdirAll(s.cfg.CacheDir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	opts := []dispatch.InvokerOption{
		dispatch.WithSink(s.sink),
		dispatch.WithOutput(a.stdout, a.stderr),
	}
	if err := s.openJournal(); err != nil {
		s.sink.Warning(fmt.Sprintf("History disabled: %v", err))
	} else if s.journal != nil {
		opts = append(opts, dispatch.WithRecorder(s.journal))
	}

	invoker := dispatch.NewToolInvoker(a.runner, resolved, s.pkg.Directory(), s.cfg.CacheDir, opts...)
	return dispatch.NewDispatcher(s.pkg, invoker, s.sink), nil
}

// =============================================================================
// Exit handling
// =============================================================================

// errLintFailed is returned when at least one invocation failed.
var errLintFailed = errors.New("lint tool reported failures")

// reportedError marks an error whose diagnostic has already been emitted.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// exitCode maps a command error to the process exit status and prints it
// unless it was already reported.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var r *reportedError
	if !errors.As(err, &r) {
		diagnostics.NewConsoleSink(stderr, false).Error(err.Error())
	}
	return 1
}
