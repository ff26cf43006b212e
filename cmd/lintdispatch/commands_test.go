// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build unix

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture is a package with a fake lint tool that appends its arguments
// to a log file and fails for the Util module.
type fixture struct {
	dir   string
	tool  string
	log   string
	cache string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	for _, key := range []string{
		"LINTDISPATCH_TOOL", "LINTDISPATCH_TOOL_PATH", "LINTDISPATCH_CACHE_DIR", "LINTDISPATCH_LOG_LEVEL",
		"OTEL_TRACES_EXPORTER", "OTEL_METRICS_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	f := &fixture{
		dir:   dir,
		tool:  filepath.Join(dir, "bin", "fakelint"),
		log:   filepath.Join(dir, "tool.log"),
		cache: filepath.Join(dir, ".build", "lintdispatch"),
	}

	for _, sub := range []string{"bin", "Sources/Core", "Sources/Util", "Tests/CoreTests"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	writeFile(t, filepath.Join(dir, "lintdispatch.yaml"), `
name: Demo
targets:
  - name: Core
  - name: Util
  - name: CoreTests
    kind: test
  - name: Prebuilt
    kind: binary
    path: Frameworks/Prebuilt
`)
	writeFile(t, filepath.Join(dir, ".lintdispatch.yaml"), "tool:\n  path: bin/fakelint\n")

	script := "#!/bin/sh\n" +
		"echo \"$*\" >> '" + f.log + "'\n" +
		"case \"$*\" in *Sources/Util*) exit 2 ;; esac\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(f.tool, []byte(script), 0o755))
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// toolCalls returns one entry per tool invocation.
func (f *fixture) toolCalls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.log)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

type result struct {
	stdout string
	stderr string
	code   int
}

func execute(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	code := exitCode(err, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func TestRun_AllTargets(t *testing.T) {
	f := newFixture(t)

	res := execute(t, "run", "-p", f.dir, "--", "lint", "--strict")

	assert.Equal(t, 1, res.code)
	calls := f.toolCalls(t)
	require.Len(t, calls, 3)
	assert.Equal(t, "lint --strict --cache-path "+f.cache+" "+filepath.Join(f.dir, "Sources", "Core"), calls[0])
	assert.Contains(t, calls[1], filepath.Join(f.dir, "Sources", "Util"))
	assert.Contains(t, calls[2], filepath.Join(f.dir, "Tests", "CoreTests"))

	assert.Contains(t, res.stderr, "warning: Target 'Prebuilt' is not a source module; skipping it")
	assert.Contains(t, res.stderr,
		"error: Command found error violations or unsuccessfully stopped running with exit code 2 in module 'Util'")
	assert.Equal(t, 1, strings.Count(res.stderr, "error:"))
}

func TestRun_SelectedTarget(t *testing.T) {
	f := newFixture(t)

	res := execute(t, "run", "-p", f.dir, "--target", "Core", "--", "lint")

	assert.Equal(t, 0, res.code, res.stderr)
	calls := f.toolCalls(t)
	require.Len(t, calls, 1)
	assert.Equal(t, "lint --cache-path "+f.cache+" "+filepath.Join(f.dir, "Sources", "Core"), calls[0])
	assert.Empty(t, res.stderr)
}

func TestRun_TargetInToolArguments(t *testing.T) {
	f := newFixture(t)

	res := execute(t, "run", "-p", f.dir, "--", "--target", "Core", "lint")

	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, []string{"lint --cache-path " + f.cache + " " + filepath.Join(f.dir, "Sources", "Core")}, f.toolCalls(t))
}

func TestRun_VerboseReportsFinished(t *testing.T) {
	f := newFixture(t)

	res := execute(t, "run", "-v", "-p", f.dir, "--target", "Core", "--", "lint")

	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stderr, "remark: Finished running in module 'Core'")
}

func TestRun_AnalyzeHasNoCachePath(t *testing.T) {
	f := newFixture(t)

	res := execute(t, "run", "-p", f.dir, "--target", "Core", "--", "analyze", "--compiler-log-path", "build.log")

	assert.Equal(t, 0, res.code, res.stderr)
	calls := f.toolCalls(t)
	require.Len(t, calls, 1)
	assert.Equal(t, "analyze --compiler-log-path build.log "+filepath.Join(f.dir, "Sources", "Core"), calls[0])
}

func TestRun_CachePathRejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"tool argument", []string{"--", "lint", "--cache-path", "/tmp/x"}},
		{"tool argument with value", []string{"--", "--cache-path=/tmp/x", "lint"}},
		{"host flag", []string{"--cache-path", "/tmp/x", "--", "lint"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			res := execute(t, append([]string{"run", "-p", f.dir}, tt.args...)...)

			assert.Equal(t, 1, res.code)
			assert.Nil(t, f.toolCalls(t))
			assert.Contains(t, res.stderr, "--cache-path is not allowed")
			assert.Equal(t, 1, strings.Count(res.stderr, "error:"))
		})
	}
}

func TestRun_UnknownTarget(t *testing.T) {
	f := newFixture(t)

	res := execute(t, "run", "-p", f.dir, "--target", "Nope", "--", "lint")

	assert.Equal(t, 1, res.code)
	assert.Nil(t, f.toolCalls(t))
	assert.Contains(t, res.stderr, "Nope")
	assert.Equal(t, 1, strings.Count(res.stderr, "error:"))
}

func TestRun_NoTargetsLintsPackageRoot(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.dir, "lintdispatch.yaml")))
	require.NoError(t, os.RemoveAll(filepath.Join(f.dir, "Sources")))
	require.NoError(t, os.RemoveAll(filepath.Join(f.dir, "Tests")))

	res := execute(t, "run", "-p", f.dir, "--", "lint")

	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, []string{"lint --cache-path " + f.cache + " " + f.dir}, f.toolCalls(t))
}

func TestRun_MissingTool(t *testing.T) {
	f := newFixture(t)

	res := execute(t, "run", "-p", f.dir, "--tool", filepath.Join(f.dir, "bin", "missing"), "--", "lint")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "error:")
	assert.Contains(t, res.stderr, "missing")
}

func TestTargets(t *testing.T) {
	f := newFixture(t)

	res := execute(t, "targets", "-p", f.dir)

	require.Equal(t, 0, res.code, res.stderr)
	for _, want := range []string{"Core", "Util", "CoreTests", "Prebuilt", "binary", filepath.Join("Sources", "Util")} {
		assert.Contains(t, res.stdout, want)
	}
}

func TestHistory_AfterRun(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, 1, execute(t, "run", "-p", f.dir, "--", "lint").code)

	res := execute(t, "history", "-p", f.dir)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Core")
	assert.Contains(t, res.stdout, "exit 2")
	assert.Contains(t, res.stdout, "ok")

	res = execute(t, "history", "-p", f.dir, "--limit", "1")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "CoreTests")
	assert.NotContains(t, res.stdout, "exit 2")
}

func TestHistory_Empty(t *testing.T) {
	f := newFixture(t)

	res := execute(t, "history", "-p", f.dir)

	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "No lint runs recorded.")
}

func TestVersion(t *testing.T) {
	res := execute(t, "version")

	assert.Equal(t, 0, res.code)
	assert.Equal(t, "lintdispatch "+version+"\n", res.stdout)
}
