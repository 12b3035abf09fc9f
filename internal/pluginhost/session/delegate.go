// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package session owns one plugin run end-to-end: it pumps the wire
// codec against a spawned sandbox.Child, routes inbound messages to a
// caller-supplied Delegate, and aggregates the result that is handed
// back once the child exits and its streams have drained.
package session

import "github.com/forgekit/buildplugin/internal/pluginhost/compiler"

// Severity mirrors wire.Severity without importing the wire package into
// every delegate implementation's dependency closure.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityRemark  Severity = "remark"
)

// Diagnostic is the host-side form of a plugin-emitted diagnostic. File
// is nil when the plugin omitted location metadata, or when it supplied
// metadata that failed validation — the diagnostic is still recorded,
// only the location is dropped.
type Diagnostic struct {
	Severity Severity
	Message  string
	File     *string
	Line     *int
}

// CommandConfig is the host-side form of wire.CommandConfig, already
// validated against the version=2 ABI boundary.
type CommandConfig struct {
	DisplayName      string
	Executable       string
	Arguments        []string
	Environment      map[string]string
	WorkingDirectory *string
}

// BuildCommand is a captured DefineBuildCommand. InputFiles is always
// sorted(toolPaths) followed by the plugin-declared inputs.
type BuildCommand struct {
	Config     CommandConfig
	InputFiles []string
	Outputs    []string
}

// PrebuildCommand is a captured DefinePrebuildCommand.
type PrebuildCommand struct {
	Config         CommandConfig
	OutputFilesDir string
}

// BuildOperationCompletion, TestOperationCompletion and
// SymbolGraphCompletion are the callbacks a Delegate invokes once a
// plugin-requested operation (build, test, symbol-graph) finishes.
// Exactly one of the two fields in each completion is populated.
type BuildOperationCompletion func(succeeded bool, err error)
type TestOperationCompletion func(succeeded bool, err error)
type SymbolGraphCompletion func(directoryURL string, err error)

// Delegate is the capability set a caller supplies to observe and
// participate in one plugin run. Embed NoopDelegate to get default
// "unimplemented" behavior for the three request kinds and no-ops for
// everything else.
type Delegate interface {
	CompilationStarted()
	CompilationEnded(result compiler.CompilationResult)
	CompilationSkipped()

	PluginEmittedOutput(chunk []byte)
	PluginEmittedDiagnostic(d Diagnostic)
	PluginEmittedProgress(message string)

	PluginDefinedBuildCommand(cmd BuildCommand)
	// PluginDefinedPrebuildCommand returns false to reject the command,
	// which the session then leaves out of the result's prebuild
	// commands. A command whose executable is a built tool path never
	// reaches this method: the session itself records an error
	// diagnostic and sets exit_early for it.
	PluginDefinedPrebuildCommand(cmd PrebuildCommand) bool

	PluginRequestedBuildOperation(subset []string, params map[string]string, completion BuildOperationCompletion)
	PluginRequestedTestOperation(subset []string, params map[string]string, completion TestOperationCompletion)
	PluginRequestedSymbolGraph(target string, options map[string]string, completion SymbolGraphCompletion)
}

// NoopDelegate implements Delegate with no-op observers and
// "unimplemented" completions for the three request kinds. Embed it and
// override only the methods a caller cares about.
type NoopDelegate struct{}

func (NoopDelegate) CompilationStarted()                           {}
func (NoopDelegate) CompilationEnded(compiler.CompilationResult)   {}
func (NoopDelegate) CompilationSkipped()                           {}
func (NoopDelegate) PluginEmittedOutput([]byte)                    {}
func (NoopDelegate) PluginEmittedDiagnostic(Diagnostic)            {}
func (NoopDelegate) PluginEmittedProgress(string)                  {}
func (NoopDelegate) PluginDefinedBuildCommand(BuildCommand)        {}

func (NoopDelegate) PluginDefinedPrebuildCommand(PrebuildCommand) bool {
	return true
}

func (NoopDelegate) PluginRequestedBuildOperation(_ []string, _ map[string]string, completion BuildOperationCompletion) {
	completion(false, errUnimplemented("build operation"))
}

func (NoopDelegate) PluginRequestedTestOperation(_ []string, _ map[string]string, completion TestOperationCompletion) {
	completion(false, errUnimplemented("test operation"))
}

func (NoopDelegate) PluginRequestedSymbolGraph(_ string, _ map[string]string, completion SymbolGraphCompletion) {
	completion("", errUnimplemented("symbol graph generation"))
}
