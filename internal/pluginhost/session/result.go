// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package session

// Result is what a session hands back once the child has exited and its
// streams have drained. ExitedCleanly is exit_code==0 && !exit_early.
type Result struct {
	ExitedCleanly    bool
	ExitCode         int
	Output           []byte
	Diagnostics      []Diagnostic
	BuildCommands    []BuildCommand
	PrebuildCommands []PrebuildCommand
}
