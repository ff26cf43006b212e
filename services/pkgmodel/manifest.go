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

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"
)

// ManifestNames are the file names probed by Load, in priority order.
var ManifestNames = []string{
	"lintdispatch.yaml",
	"lintdispatch.yml",
	"lintdispatch.hcl",
}

// Manifest is the on-disk description of a package.
type Manifest struct {
	Name    string           `yaml:"name" hcl:"name,optional"`
	Targets []ManifestTarget `yaml:"targets" hcl:"target,block" validate:"unique=Name,dive"`
}

// ManifestTarget declares one target.
//
// Kind defaults to "regular". Path defaults by kind (see DefaultPath) and
// is resolved against the package directory when relative.
type ManifestTarget struct {
	Name string `yaml:"name" hcl:"name,label" validate:"required"`
	Kind string `yaml:"kind" hcl:"kind,optional" validate:"omitempty,targetkind"`
	Path string `yaml:"path" hcl:"path,optional"`
}

// manifestValidate is the validator instance for manifests.
var manifestValidate *validator.Validate

func init() {
	manifestValidate = validator.New()
	_ = manifestValidate.RegisterValidation("targetkind", validateTargetKind)
}

// validateTargetKind accepts the known TargetKind values.
func validateTargetKind(fl validator.FieldLevel) bool {
	switch TargetKind(fl.Field().String()) {
	case KindRegular, KindExecutable, KindTest, KindMacro, KindPlugin, KindBinary, KindSystem:
		return true
	default:
		return false
	}
}

// DefaultPath returns the conventional directory for a target, relative
// to the package root.
func DefaultPath(name string, kind TargetKind) string {
	switch kind {
	case KindTest:
		return filepath.Join("Tests", name)
	case KindPlugin:
		return filepath.Join("Plugins", name)
	default:
		return filepath.Join("Sources", name)
	}
}

// Load builds a Package for the directory dir.
//
// # Description
//
// Uses the first manifest from ManifestNames found in dir. Without a
// manifest, targets are discovered from the conventional layout (see
// Discover). The returned Package's directory is absolute.
//
// # Errors
//
//   - ErrPackageNotFound: dir does not exist or is not a directory
//   - ErrInvalidManifest: the manifest cannot be decoded or validated
func Load(dir string) (*Package, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving package directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, abs)
	}

	for _, name := range ManifestNames {
		path := filepath.Join(abs, name)
		if _, err := os.Stat(path); err == nil {
			return LoadManifest(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
		}
	}

	return Discover(abs)
}

// LoadManifest decodes and validates the manifest at path.
//
// The format is chosen by extension: .yaml/.yml use YAML, .hcl uses HCL.
// The package directory is the manifest's directory.
func LoadManifest(path string) (*Package, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving manifest path: %w", err)
	}

	var m Manifest
	switch filepath.Ext(abs) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, abs, err)
		}
	case ".hcl":
		if err := hclsimple.DecodeFile(abs, nil, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, abs, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported manifest format %q", ErrInvalidManifest, filepath.Ext(abs))
	}

	return m.Package(filepath.Dir(abs))
}

// Package validates the manifest and resolves it against dir.
func (m *Manifest) Package(dir string) (*Package, error) {
	if err := manifestValidate.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	name := m.Name
	if name == "" {
		name = filepath.Base(dir)
	}

	targets := make([]Target, 0, len(m.Targets))
	for _, mt := range m.Targets {
		kind := TargetKind(mt.Kind)
		if kind == "" {
			kind = KindRegular
		}
		path := mt.Path
		if path == "" {
			path = DefaultPath(mt.Name, kind)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		targets = append(targets, Target{
			Name:      mt.Name,
			Directory: filepath.Clean(path),
			Kind:      kind,
		})
	}

	return NewPackage(name, dir, targets)
}
