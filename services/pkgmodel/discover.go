// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pkgmodel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AleutianAI/lintdispatch/pkg/validation"
)

// conventionRoots maps conventional top-level directories to the kind of
// target each of their sub-directories declares.
var conventionRoots = []struct {
	dir  string
	kind TargetKind
}{
	{"Sources", KindRegular},
	{"Tests", KindTest},
	{"Plugins", KindPlugin},
}

// Discover builds a Package from the conventional directory layout.
//
// # Description
//
// Every non-hidden sub-directory of Sources/, Tests/ and Plugins/ whose name
// is a valid target name becomes a target named after the directory. Targets are ordered by root (Sources,
// Tests, Plugins) and then by name. A package with none of these roots has
// no targets, which makes the dispatcher lint the package root.
func Discover(dir string) (*Package, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving package directory: %w", err)
	}

	var targets []Target
	for _, root := range conventionRoots {
		entries, err := os.ReadDir(filepath.Join(abs, root.dir))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", root.dir, err)
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") && validation.IsValidTargetName(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			targets = append(targets, Target{
				Name:      name,
				Directory: filepath.Join(abs, root.dir, name),
				Kind:      root.kind,
			})
		}
	}

	return NewPackage(filepath.Base(abs), abs, targets)
}
