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

import "errors"

// Sentinel errors for the pkgmodel package.
var (
	// ErrUnknownTarget indicates a requested target name does not exist.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrInvalidManifest indicates the manifest could not be decoded or
	// failed validation.
	ErrInvalidManifest = errors.New("invalid package manifest")

	// ErrPackageNotFound indicates the package directory does not exist.
	ErrPackageNotFound = errors.New("package directory not found")
)
