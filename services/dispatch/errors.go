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
	"errors"
	"fmt"
)

// Sentinel errors for the dispatch package.
var (
	// ErrConfiguration is matched by every fatal error Dispatch returns.
	ErrConfiguration = errors.New("configuration error")

	// ErrCachePathNotAllowed indicates the caller passed --cache-path.
	ErrCachePathNotAllowed = errors.New("caching is managed by lintdispatch; --cache-path is not allowed")

	// ErrMissingOptionValue indicates an option such as --target had no value.
	ErrMissingOptionValue = errors.New("missing option value")

	// ErrToolNotFound indicates the tool binary could not be located.
	ErrToolNotFound = errors.New("lint tool not found")

	// ErrToolLaunch indicates the tool process could not be started.
	ErrToolLaunch = errors.New("failed to launch lint tool")

	// ErrToolVersion indicates the tool is older than the configured minimum
	// or its version could not be determined.
	ErrToolVersion = errors.New("unsupported lint tool version")
)

// ConfigurationError marks an error as fatal for the whole command.
//
// errors.Is matches both ErrConfiguration and the wrapped cause:
//
//	err := newConfigurationError(fmt.Errorf("%w: %s", ErrToolLaunch, path))
//	errors.Is(err, ErrConfiguration) // true
//	errors.Is(err, ErrToolLaunch)    // true
//
// Thread Safety: Immutable after creation.
type ConfigurationError struct {
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrConfiguration, e.Err)
}

// Unwrap returns ErrConfiguration and the cause for errors.Is/As support.
func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

func newConfigurationError(err error) *ConfigurationError {
	return &ConfigurationError{Err: err}
}
