// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads lintdispatch settings from .lintdispatch.yaml, a
// .env file and the environment.
package config

import (
	"time"

	"github.com/AleutianAI/lintdispatch/services/telemetry"
)

// FileName is the config file looked up in the package directory.
const FileName = ".lintdispatch.yaml"

// Config is the top-level lintdispatch configuration.
type Config struct {
	// Tool selects the lint tool executable.
	Tool ToolConfig `yaml:"tool"`

	// CacheDir is passed to the tool with --cache-path. Relative paths are
	// resolved against the package directory.
	CacheDir string `yaml:"cache_dir"`

	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	History   HistoryConfig    `yaml:"history"`
	Watch     WatchConfig      `yaml:"watch"`
}

// ToolConfig describes the lint tool.
type ToolConfig struct {
	// Name is looked up on PATH when Path is empty.
	Name string `yaml:"name" validate:"required_without=Path"`

	// Path is an explicit executable path.
	Path string `yaml:"path"`

	// MinVersion rejects older tools, e.g. "0.54.0".
	MinVersion string `yaml:"min_version" validate:"omitempty,toolversion"`

	// VersionArgs make the tool print its version.
	VersionArgs []string `yaml:"version_args"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// HistoryConfig configures the outcome journal.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`

	// Limit is the default number of entries shown by `history`.
	Limit int `yaml:"limit" validate:"gte=0"`

	// Retain is how many outcomes are kept. 0 keeps everything.
	Retain int `yaml:"retain" validate:"gte=0"`
}

// WatchConfig configures `watch`.
type WatchConfig struct {
	// Interval is the minimum time between two re-runs.
	Interval time.Duration `yaml:"interval" validate:"gte=0"`

	// Debounce is how long file events are collected before a re-run.
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Tool: ToolConfig{
			Name:        "swiftlint",
			VersionArgs: []string{"version"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: telemetry.DefaultConfig(),
		History: HistoryConfig{
			Enabled: true,
			Limit:   20,
			Retain:  500,
		},
		Watch: WatchConfig{
			Interval: 2 * time.Second,
			Debounce: 200 * time.Millisecond,
		},
	}
}
