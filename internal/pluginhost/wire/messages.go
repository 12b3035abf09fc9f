// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package wire defines the structured message schema exchanged between
// host and plugin, and the pure encode/decode functions over it. Framing
// (how a message is delimited on the underlying byte stream) is a
// transport concern owned by the sandbox launcher and lives in frame.go,
// deliberately kept separate from the codec.
package wire

import (
	pctx "github.com/forgekit/buildplugin/internal/pluginhost/context"
	"github.com/forgekit/buildplugin/internal/pluginhost/ids"
)

// WireInput is the flattened context snapshot carried by every initial
// message. It is defined by the context package; aliased here so callers
// of wire need not import context directly.
type WireInput = pctx.WireInput

// CommandConfig is the configuration shared by DefineBuildCommand and
// DefinePrebuildCommand. Version is an ABI boundary: only 2 is accepted.
type CommandConfig struct {
	Version          int               `json:"version"`
	DisplayName      string            `json:"displayName"`
	Executable       string            `json:"executable"`
	Arguments        []string          `json:"arguments"`
	Environment      map[string]string `json:"environment"`
	WorkingDirectory *string           `json:"workingDirectory,omitempty"`
}

// Severity classifies a plugin-emitted diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityRemark  Severity = "remark"
)

// HostToPlugin is a sealed interface over the messages the host may send.
type HostToPlugin interface {
	hostToPlugin()
}

// CreateBuildToolCommands is the initial message for a build-tool-commands
// invocation.
type CreateBuildToolCommands struct {
	Input   WireInput     `json:"input"`
	Package ids.PackageID `json:"package"`
	Target  ids.TargetID  `json:"target"`

	GeneratedSources   []string `json:"generatedSources"`
	GeneratedResources []string `json:"generatedResources"`
}

func (CreateBuildToolCommands) hostToPlugin() {}

// CreateXcodeProjectBuildToolCommands is the Xcode-project analogue of
// CreateBuildToolCommands.
type CreateXcodeProjectBuildToolCommands struct {
	Input         WireInput           `json:"input"`
	Project       ids.ProjectID       `json:"project"`
	ProjectTarget ids.ProjectTargetID `json:"projectTarget"`

	GeneratedSources   []string `json:"generatedSources"`
	GeneratedResources []string `json:"generatedResources"`
}

func (CreateXcodeProjectBuildToolCommands) hostToPlugin() {}

// PerformCommand is the initial message for a free-form package command
// invocation.
type PerformCommand struct {
	Input     WireInput     `json:"input"`
	Package   ids.PackageID `json:"package"`
	Arguments []string      `json:"arguments"`
}

func (PerformCommand) hostToPlugin() {}

// PerformXcodeProjectCommand is the Xcode-project analogue of
// PerformCommand.
type PerformXcodeProjectCommand struct {
	Input     WireInput     `json:"input"`
	Project   ids.ProjectID `json:"project"`
	Arguments []string      `json:"arguments"`
}

func (PerformXcodeProjectCommand) hostToPlugin() {}

// BuildOperationResponse replies to a plugin-initiated BuildOperationRequest.
type BuildOperationResponse struct {
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

func (BuildOperationResponse) hostToPlugin() {}

// TestOperationResponse replies to a plugin-initiated TestOperationRequest.
type TestOperationResponse struct {
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

func (TestOperationResponse) hostToPlugin() {}

// SymbolGraphResponse replies to a plugin-initiated SymbolGraphRequest.
type SymbolGraphResponse struct {
	DirectoryURL string `json:"directoryURL"`
	Error        string `json:"error,omitempty"`
}

func (SymbolGraphResponse) hostToPlugin() {}

// ErrorResponse terminates any outstanding plugin-initiated request with
// an error's display string, when the request kind could not be
// determined or the delegate failed before producing a typed response.
type ErrorResponse struct {
	Message string `json:"message"`
}

func (ErrorResponse) hostToPlugin() {}

// PluginToHost is a sealed interface over the messages the plugin may
// send.
type PluginToHost interface {
	pluginToHost()
}

// EmitDiagnostic carries a single diagnostic from the plugin.
type EmitDiagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     *string  `json:"file,omitempty"`
	Line     *int     `json:"line,omitempty"`
}

func (EmitDiagnostic) pluginToHost() {}

// EmitProgress carries a free-form progress string.
type EmitProgress struct {
	Message string `json:"message"`
}

func (EmitProgress) pluginToHost() {}

// DefineBuildCommand declares a build command for the enclosing build
// graph to run on every build.
type DefineBuildCommand struct {
	Config  CommandConfig `json:"config"`
	Inputs  []string      `json:"inputs"`
	Outputs []string      `json:"outputs"`
}

func (DefineBuildCommand) pluginToHost() {}

// DefinePrebuildCommand declares a command the build graph runs before
// every build, whose outputs are discovered by scanning a directory.
type DefinePrebuildCommand struct {
	Config         CommandConfig `json:"config"`
	OutputFilesDir string        `json:"outputFilesDirectory"`
}

func (DefinePrebuildCommand) pluginToHost() {}

// BuildOperationRequest asks the host to perform a nested build.
type BuildOperationRequest struct {
	Subset []string          `json:"subset"`
	Params map[string]string `json:"parameters,omitempty"`
}

func (BuildOperationRequest) pluginToHost() {}

// TestOperationRequest asks the host to perform a nested test run.
type TestOperationRequest struct {
	Subset []string          `json:"subset"`
	Params map[string]string `json:"parameters,omitempty"`
}

func (TestOperationRequest) pluginToHost() {}

// SymbolGraphRequest asks the host to generate a symbol graph for a
// target.
type SymbolGraphRequest struct {
	Target  string            `json:"target"`
	Options map[string]string `json:"options,omitempty"`
}

func (SymbolGraphRequest) pluginToHost() {}
