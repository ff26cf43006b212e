// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvTool, EnvToolPath, EnvCacheDir, EnvLogLevel,
		"OTEL_TRACES_EXPORTER", "OTEL_METRICS_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(LoadOptions{PackageDir: dir})
	require.NoError(t, err)

	assert.Equal(t, "swiftlint", cfg.Tool.Name)
	assert.Equal(t, []string{"version"}, cfg.Tool.VersionArgs)
	assert.Equal(t, filepath.Join(dir, ".build", "lintdispatch"), cfg.CacheDir)
	assert.Equal(t, filepath.Join(dir, ".build", "lintdispatch", "history"), cfg.History.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.Interval)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, `
tool:
  name: mylint
  path: bin/mylint
  min_version: "1.2"
cache_dir: /var/cache/lint
logging:
  level: debug
  json: true
telemetry:
  metric_exporter: prometheus
  prometheus_textfile: metrics/lint.prom
history:
  enabled: false
  limit: 5
watch:
  interval: 5s
`)

	cfg, err := Load(LoadOptions{PackageDir: dir})
	require.NoError(t, err)

	assert.Equal(t, "mylint", cfg.Tool.Name)
	assert.Equal(t, filepath.Join(dir, "bin", "mylint"), cfg.Tool.Path)
	assert.Equal(t, "1.2", cfg.Tool.MinVersion)
	assert.Equal(t, []string{"version"}, cfg.Tool.VersionArgs)
	assert.Equal(t, "/var/cache/lint", cfg.CacheDir)
	assert.Equal(t, "/var/cache/lint/history", cfg.History.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
	assert.Equal(t, filepath.Join(dir, "metrics", "lint.prom"), cfg.Telemetry.PrometheusTextfile)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 5, cfg.History.Limit)
	assert.Equal(t, 5*time.Second, cfg.Watch.Interval)
}

func TestLoad_ExplicitPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	other := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(other, []byte("tool:\n  name: custom\n"), 0o644))
	writeConfig(t, dir, "tool:\n  name: ignored\n")

	cfg, err := Load(LoadOptions{PackageDir: dir, Path: other})
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Tool.Name)

	_, err = Load(LoadOptions{PackageDir: dir, Path: filepath.Join(dir, "missing.yaml")})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "tool:\n  name: fromfile\nlogging:\n  level: info\n")
	t.Setenv(EnvTool, "fromenv")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvCacheDir, "cache")
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")

	cfg, err := Load(LoadOptions{PackageDir: dir})
	require.NoError(t, err)

	assert.Equal(t, "fromenv", cfg.Tool.Name)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(dir, "cache"), cfg.CacheDir)
	assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv(EnvToolPath))
	t.Cleanup(func() { _ = os.Unsetenv(EnvToolPath) })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvToolPath+"=tools/linter\n"), 0o644))

	cfg, err := Load(LoadOptions{PackageDir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tools", "linter"), cfg.Tool.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "logging:\n  level: loud\n"},
		{"bad exporter", "telemetry:\n  trace_exporter: zipkin\n"},
		{"bad min version", "tool:\n  min_version: latest\n"},
		{"no tool", "tool:\n  name: \"\"\n"},
		{"negative limit", "history:\n  limit: -1\n"},
		{"malformed", "tool: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := Load(LoadOptions{PackageDir: dir})
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
