// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-supplied names before they reach file
// paths, history keys or diagnostics.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// targetNamePattern allows letters, digits, underscores, dots, hyphens,
// plus signs and inner spaces. The first character must be a letter, digit
// or underscore.
var targetNamePattern = regexp.MustCompile(`^[\p{L}\p{N}_][\p{L}\p{N}_.+\- ]{0,127}$`)

// ValidateTargetName validates a single target name.
//
// # Description
//
// Target names end up in remarks, history keys and directory defaults, so
// path separators, control characters and leading hyphens are rejected.
//
// # Outputs
//
//   - error: nil if the name is usable
func ValidateTargetName(name string) error {
	if name == "" {
		return fmt.Errorf("target name cannot be empty")
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("invalid target name %q: leading or trailing whitespace", name)
	}
	if !targetNamePattern.MatchString(name) {
		return fmt.Errorf("invalid target name %q (letters, digits, '_', '.', '-', '+' and spaces; at most 128 characters)", name)
	}
	return nil
}

// ValidateTargetNames validates multiple names.
// Returns an error listing all invalid names if any fail validation.
func ValidateTargetNames(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateTargetName(n); err != nil {
			invalid = append(invalid, fmt.Sprintf("%q", n))
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid target names: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// IsValidTargetName reports whether name passes ValidateTargetName.
func IsValidTargetName(name string) bool {
	return ValidateTargetName(name) == nil
}
