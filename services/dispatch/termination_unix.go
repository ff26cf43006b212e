// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build unix

package dispatch

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// classifyState maps a finished process to a Termination.
func classifyState(state *os.ProcessState) Termination {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		if state.Exited() {
			return Termination{Kind: TerminationExited, ExitStatus: state.ExitCode()}
		}
		return Termination{Kind: TerminationUnknown, ExitStatus: state.ExitCode()}
	}

	switch {
	case ws.Signaled():
		sig := ws.Signal()
		return Termination{
			Kind:       TerminationSignaled,
			ExitStatus: int(sig),
			Signal:     signalName(sig),
		}
	case ws.Exited():
		return Termination{Kind: TerminationExited, ExitStatus: ws.ExitStatus()}
	default:
		return Termination{Kind: TerminationUnknown, ExitStatus: state.ExitCode()}
	}
}

// signalName returns the conventional name ("SIGKILL") for sig.
func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", int(sig))
}
