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
	"fmt"
	"strings"
)

const (
	// CachePathFlag is managed by lintdispatch and rejected in user arguments.
	CachePathFlag = "--cache-path"

	// TargetFlag selects targets. It is consumed and never forwarded.
	TargetFlag = "--target"

	// AnalyzeSubcommand is the tool subcommand that does not accept CachePathFlag.
	AnalyzeSubcommand = "analyze"
)

// HasFlag reports whether args contain flag, either as its own element or
// in "flag=value" form.
func HasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag || strings.HasPrefix(a, flag+"=") {
			return true
		}
	}
	return false
}

// ContainsArgument reports whether any element of args equals arg.
func ContainsArgument(args []string, arg string) bool {
	for _, a := range args {
		if a == arg {
			return true
		}
	}
	return false
}

// ExtractOption removes every occurrence of an option from args.
//
// # Description
//
// Both "flag value" and "flag=value" forms are consumed, wherever they
// appear. The remaining arguments keep their relative order. args is not
// modified.
//
// # Outputs
//
//   - values: option values in the order they appeared
//   - rest: a new slice with the option occurrences removed
//   - error: ErrMissingOptionValue if flag is the last argument
func ExtractOption(args []string, flag string) (values []string, rest []string, err error) {
	rest = make([]string, 0, len(args))
	prefix := flag + "="

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == flag:
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("%w: %s", ErrMissingOptionValue, flag)
			}
			values = append(values, args[i+1])
			i++
		case strings.HasPrefix(a, prefix):
			values = append(values, strings.TrimPrefix(a, prefix))
		default:
			rest = append(rest, a)
		}
	}
	return values, rest, nil
}

// BuildToolArguments returns the argument vector for one tool invocation.
//
// # Description
//
// Starts from a copy of args, appends "--cache-path cacheDir" unless args
// contain the analyze subcommand, and appends directory as the final
// positional argument. args must already be stripped of --target.
//
// # Examples
//
//	BuildToolArguments([]string{"lint"}, "/w", "/pkg/Sources/Foo")
//	// ["lint", "--cache-path", "/w", "/pkg/Sources/Foo"]
//
//	BuildToolArguments([]string{"analyze"}, "/w", "/pkg/Sources/Foo")
//	// ["analyze", "/pkg/Sources/Foo"]
func BuildToolArguments(args []string, cacheDir, directory string) []string {
	out := make([]string, 0, len(args)+3)
	out = append(out, args...)
	if !ContainsArgument(args, AnalyzeSubcommand) {
		out = append(out, CachePathFlag, cacheDir)
	}
	return append(out, directory)
}

// uniqueStrings drops repeated values, keeping the first occurrence.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// formatArgs renders args as a bracketed, quoted list for remarks.
func formatArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
