// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build !unix

package dispatch

import "os"

// classifyState maps a finished process to a Termination. Platforms without
// POSIX wait statuses never report signals.
func classifyState(state *os.ProcessState) Termination {
	if state.Exited() {
		return Termination{Kind: TerminationExited, ExitStatus: state.ExitCode()}
	}
	return Termination{Kind: TerminationUnknown, ExitStatus: state.ExitCode()}
}
