// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pkgmodel describes a package and its build targets.
//
// The dispatcher only needs read access to a package: its root directory,
// its targets in declaration order, and a lookup of targets by name that
// fails on unknown names. Model captures that capability; Package is the
// concrete value produced by Load, either from a manifest file or by
// scanning the conventional Sources/, Tests/ and Plugins/ directories.
//
// # Manifest
//
// lintdispatch.yaml:
//
//	name: Demo
//	targets:
//	  - name: Core
//	  - name: CoreTests
//	    kind: test
//	  - name: Prebuilt
//	    kind: binary
//	    path: Frameworks/Prebuilt.xcframework
//
// lintdispatch.hcl:
//
//	name = "Demo"
//	target "Core" {}
//	target "CoreTests" {
//	  kind = "test"
//	}
package pkgmodel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/lintdispatch/pkg/validation"
)

// TargetKind classifies a target.
type TargetKind string

const (
	KindRegular    TargetKind = "regular"
	KindExecutable TargetKind = "executable"
	KindTest       TargetKind = "test"
	KindMacro      TargetKind = "macro"
	KindPlugin     TargetKind = "plugin"
	KindBinary     TargetKind = "binary"
	KindSystem     TargetKind = "system"
)

// IsSourceModule reports whether targets of this kind own a compilable
// source directory.
func (k TargetKind) IsSourceModule() bool {
	switch k {
	case KindRegular, KindExecutable, KindTest, KindMacro, KindPlugin:
		return true
	default:
		return false
	}
}

// Target is a named unit within a package.
//
// Thread Safety: Immutable after creation.
type Target struct {
	// Name is unique within the package.
	Name string

	// Directory is the absolute path of the target's sources.
	Directory string

	// Kind determines whether the target is a source module.
	Kind TargetKind
}

// IsSourceModule reports whether the target can be linted in isolation.
func (t Target) IsSourceModule() bool {
	return t.Kind.IsSourceModule()
}

// String returns a short description used in remarks.
func (t Target) String() string {
	return fmt.Sprintf("%s (%s, %s)", t.Name, t.Kind, t.Directory)
}

// Model is the read-only view of a package used by the dispatcher.
type Model interface {
	// Directory returns the package root.
	Directory() string

	// Targets returns every target in declaration order.
	Targets() []Target

	// TargetsNamed returns the named targets in the order requested.
	// Any unknown name fails the whole lookup with ErrUnknownTarget.
	TargetsNamed(names []string) ([]Target, error)
}

// Package is an in-memory Model.
//
// Thread Safety: Immutable after creation; safe for concurrent use.
type Package struct {
	name    string
	dir     string
	targets []Target
	byName  map[string]int
}

// NewPackage builds a Package from already-resolved targets.
//
// # Description
//
// Target order is preserved. Invalid names (see validation.ValidateTargetName)
// and duplicate names are rejected with ErrInvalidManifest.
func NewPackage(name, dir string, targets []Target) (*Package, error) {
	p := &Package{
		name:    name,
		dir:     dir,
		targets: make([]Target, len(targets)),
		byName:  make(map[string]int, len(targets)),
	}
	copy(p.targets, targets)
	for i, t := range p.targets {
		if err := validation.ValidateTargetName(t.Name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
		}
		if _, dup := p.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate target name %q", ErrInvalidManifest, t.Name)
		}
		p.byName[t.Name] = i
	}
	return p, nil
}

// Name returns the package name.
func (p *Package) Name() string { return p.name }

// Directory returns the package root.
func (p *Package) Directory() string { return p.dir }

// Targets returns a copy of the package's targets.
func (p *Package) Targets() []Target {
	out := make([]Target, len(p.targets))
	copy(out, p.targets)
	return out
}

// TargetsNamed resolves names to targets.
//
// # Outputs
//
//   - []Target: targets in the order of names
//   - error: ErrUnknownTarget naming every unresolved name
func (p *Package) TargetsNamed(names []string) ([]Target, error) {
	out := make([]Target, 0, len(names))
	var unknown []string
	for _, name := range names {
		idx, ok := p.byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, p.targets[idx])
	}
	if len(unknown) > 0 {
		quoted := make([]string, len(unknown))
		for i, n := range unknown {
			quoted[i] = fmt.Sprintf("'%s'", n)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, strings.Join(quoted, ", "))
	}
	return out, nil
}

// TargetNames returns the sorted names of all targets.
func (p *Package) TargetNames() []string {
	names := make([]string, 0, len(p.targets))
	for _, t := range p.targets {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

var _ Model = (*Package)(nil)
