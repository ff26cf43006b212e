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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// versionPattern finds the first dotted version number in tool output.
var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.-]+)?`)

// ResolveTool locates the lint tool executable.
//
// # Description
//
// An explicit path wins and must name an existing regular file. Otherwise
// name is looked up on PATH.
//
// # Outputs
//
//   - string: Absolute path of the executable.
//   - error: ConfigurationError wrapping ErrToolNotFound.
func ResolveTool(name, path string) (string, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", newConfigurationError(fmt.Errorf("%w: %s: %w", ErrToolNotFound, path, err))
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", newConfigurationError(fmt.Errorf("%w: %s: %w", ErrToolNotFound, path, err))
		}
		if info.IsDir() {
			return "", newConfigurationError(fmt.Errorf("%w: %s is a directory", ErrToolNotFound, path))
		}
		return abs, nil
	}

	if name == "" {
		return "", newConfigurationError(fmt.Errorf("%w: no tool name configured", ErrToolNotFound))
	}
	found, err := exec.LookPath(name)
	if err != nil {
		return "", newConfigurationError(fmt.Errorf("%w: %s: %w", ErrToolNotFound, name, err))
	}
	return filepath.Abs(found)
}

// VersionProbe runs the tool with args and returns its stdout.
type VersionProbe func(ctx context.Context, toolPath string, args ...string) ([]byte, error)

// ExecVersionProbe runs the tool with os/exec.
func ExecVersionProbe(ctx context.Context, toolPath string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, toolPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// CheckToolVersion verifies the tool is at least minVersion.
//
// # Description
//
// Runs probe with versionArgs, takes the first version-looking token of the
// output and compares it with minVersion using semantic versioning. An empty
// minVersion skips the check.
//
// # Outputs
//
//   - string: The detected version in canonical "vX.Y.Z" form, or "" when
//     the check was skipped.
//   - error: ConfigurationError wrapping ErrToolVersion.
func CheckToolVersion(ctx context.Context, probe VersionProbe, toolPath string, versionArgs []string, minVersion string) (string, error) {
	if minVersion == "" {
		return "", nil
	}
	minimum := canonicalVersion(minVersion)
	if !semver.IsValid(minimum) {
		return "", newConfigurationError(fmt.Errorf("%w: invalid minimum version %q", ErrToolVersion, minVersion))
	}

	out, err := probe(ctx, toolPath, versionArgs...)
	if err != nil {
		return "", newConfigurationError(fmt.Errorf("%w: %s: %w", ErrToolVersion, toolPath, err))
	}

	raw := versionPattern.FindString(string(out))
	got := canonicalVersion(raw)
	if raw == "" || !semver.IsValid(got) {
		return "", newConfigurationError(fmt.Errorf("%w: cannot parse version from %q", ErrToolVersion, strings.TrimSpace(string(out))))
	}

	if semver.Compare(got, minimum) < 0 {
		return got, newConfigurationError(fmt.Errorf("%w: %s is older than required %s", ErrToolVersion, got, minimum))
	}
	return got, nil
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}
