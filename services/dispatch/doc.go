// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dispatch runs an external lint tool once per package target.
//
// The package has two layers:
//
//   - Dispatcher validates the pass-through argument list, extracts
//     --target options, resolves targets against a pkgmodel.Model and
//     calls the Invoker once per source-module target (or once for the
//     package root when nothing resolves).
//   - ToolInvoker builds the tool's argument vector for one unit, runs the
//     tool through a ProcessRunner with the package root as working
//     directory, waits for it, and reports how it terminated.
//
// # Argument Vector
//
// For pass-through arguments ["--target", "Foo", "lint"] and target Foo in
// /pkg/Sources/Foo the tool receives:
//
//	lint --cache-path <cacheDir> /pkg/Sources/Foo
//
// --cache-path is owned by lintdispatch. Callers may not pass it, and it is
// not injected when the arguments contain the "analyze" subcommand because
// the tool rejects it there.
//
// # Outcomes
//
//	| Termination      | Diagnostic | Effect on dispatch |
//	|------------------|------------|--------------------|
//	| exit 0           | remark     | continue           |
//	| exit N != 0      | error      | continue           |
//	| uncaught signal  | error      | continue           |
//	| unknown          | error      | continue           |
//	| launch failure   | error      | abort (fatal)      |
//
// Dispatch returns a Summary so the caller can pick an exit code; invocation
// failures never stop later targets.
//
// # Usage
//
//	invoker := dispatch.NewToolInvoker(dispatch.NewDefaultProcessRunner(),
//	    toolPath, pkg.Directory(), cacheDir,
//	    dispatch.WithSink(sink),
//	)
//	d := dispatch.NewDispatcher(pkg, invoker, sink)
//	summary, err := d.Dispatch(ctx, args)
//
// # Thread Safety
//
// Dispatcher and ToolInvoker hold no mutable state, but Dispatch runs its
// invocations strictly one after another and is meant to be called from a
// single goroutine.
package dispatch
