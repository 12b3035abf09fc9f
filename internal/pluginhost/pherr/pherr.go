// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package pherr defines the error taxonomy the Accessor layer surfaces to
// callers: the six kinds enumerated for the plugin invocation core, each
// wrapping a samber/oops error so machine-checkable codes and
// human-readable context travel together, matching pkg/errutil.LogError's
// expectations.
package pherr

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Code constants double as oops.Code() values.
const (
	CodeCouldNotFindPackage          = "COULD_NOT_FIND_PACKAGE"
	CodeCouldNotCreateOutputDir      = "COULD_NOT_CREATE_OUTPUT_DIRECTORY"
	CodeCouldNotSerializePluginInput = "COULD_NOT_SERIALIZE_PLUGIN_INPUT"
	CodeRunningPluginFailed          = "RUNNING_PLUGIN_FAILED"
	CodeDecodingPluginOutputFailed   = "DECODING_PLUGIN_OUTPUT_FAILED"
	CodePluginIncompatibleVersion    = "PLUGIN_USES_INCOMPATIBLE_VERSION"
)

// Sentinel errors.Is targets for each kind below. The Wrap* constructors
// return a value-typed error carrying per-call detail, so each type
// implements Is against its sentinel rather than relying on equality.
var (
	ErrCouldNotFindPackage           = errors.New("could not find owning package for plugin")
	ErrCouldNotCreateOutputDirectory = errors.New("could not create output directory")
	ErrCouldNotSerializePluginInput  = errors.New("could not serialize plugin input")
	ErrRunningPluginFailed           = errors.New("running plugin failed")
	ErrDecodingPluginOutputFailed    = errors.New("decoding plugin output failed")
	ErrPluginUsesIncompatibleVersion = errors.New("plugin uses incompatible command config version")
)

// CouldNotFindPackage reports that a plugin module has no owning package
// in the caller's module graph.
type CouldNotFindPackage struct {
	Plugin string
}

func (e CouldNotFindPackage) Error() string {
	return fmt.Sprintf("could not find owning package for plugin %q", e.Plugin)
}

func (e CouldNotFindPackage) Is(target error) bool { return target == ErrCouldNotFindPackage }

// WrapCouldNotFindPackage builds the oops-wrapped, logged form of
// CouldNotFindPackage for a given plugin module name.
func WrapCouldNotFindPackage(plugin string) error {
	return oops.Code(CodeCouldNotFindPackage).With("plugin", plugin).Wrap(CouldNotFindPackage{Plugin: plugin})
}

// CouldNotCreateOutputDirectory reports a failed filesystem precondition
// (the plugin's working or output directory could not be created).
type CouldNotCreateOutputDirectory struct {
	Path      string
	Underlying error
}

func (e CouldNotCreateOutputDirectory) Error() string {
	return fmt.Sprintf("could not create output directory %q: %v", e.Path, e.Underlying)
}

func (e CouldNotCreateOutputDirectory) Unwrap() error { return e.Underlying }

func (e CouldNotCreateOutputDirectory) Is(target error) bool {
	return target == ErrCouldNotCreateOutputDirectory
}

// WrapCouldNotCreateOutputDirectory builds the oops-wrapped form.
func WrapCouldNotCreateOutputDirectory(path string, underlying error) error {
	return oops.Code(CodeCouldNotCreateOutputDir).With("path", path).
		Wrap(CouldNotCreateOutputDirectory{Path: path, Underlying: underlying})
}

// CouldNotSerializePluginInput reports a Context Serializer failure: a
// missing id, an unresolvable target, or a malformed path.
type CouldNotSerializePluginInput struct {
	Underlying error
}

func (e CouldNotSerializePluginInput) Error() string {
	return fmt.Sprintf("could not serialize plugin input: %v", e.Underlying)
}

func (e CouldNotSerializePluginInput) Unwrap() error { return e.Underlying }

func (e CouldNotSerializePluginInput) Is(target error) bool {
	return target == ErrCouldNotSerializePluginInput
}

// WrapCouldNotSerializePluginInput builds the oops-wrapped form.
func WrapCouldNotSerializePluginInput(underlying error) error {
	return oops.Code(CodeCouldNotSerializePluginInput).Wrap(CouldNotSerializePluginInput{Underlying: underlying})
}

// RunningPluginFailed reports a child spawn or I/O error inside the
// invocation session.
type RunningPluginFailed struct {
	Underlying error
}

func (e RunningPluginFailed) Error() string {
	return fmt.Sprintf("running plugin failed: %v", e.Underlying)
}

func (e RunningPluginFailed) Unwrap() error { return e.Underlying }

func (e RunningPluginFailed) Is(target error) bool { return target == ErrRunningPluginFailed }

// WrapRunningPluginFailed builds the oops-wrapped form.
func WrapRunningPluginFailed(underlying error) error {
	return oops.Code(CodeRunningPluginFailed).Wrap(RunningPluginFailed{Underlying: underlying})
}

// DecodingPluginOutputFailed reports that the wire codec rejected an
// inbound frame. Bytes is kept short (WrapDecodingPluginOutputFailed
// truncates it) so the error never balloons the log record.
type DecodingPluginOutputFailed struct {
	Bytes      []byte
	Underlying error
}

func (e DecodingPluginOutputFailed) Error() string {
	return fmt.Sprintf("decoding plugin output failed (%d bytes): %v", len(e.Bytes), e.Underlying)
}

func (e DecodingPluginOutputFailed) Unwrap() error { return e.Underlying }

func (e DecodingPluginOutputFailed) Is(target error) bool {
	return target == ErrDecodingPluginOutputFailed
}

// WrapDecodingPluginOutputFailed builds the oops-wrapped form. frame is
// truncated to its first 256 bytes before being attached as context.
func WrapDecodingPluginOutputFailed(frame []byte, underlying error) error {
	preview := frame
	if len(preview) > 256 {
		preview = preview[:256]
	}
	return oops.Code(CodeDecodingPluginOutputFailed).With("frame_preview_len", len(preview)).
		Wrap(DecodingPluginOutputFailed{Bytes: preview, Underlying: underlying})
}

// PluginUsesIncompatibleVersion reports a version mismatch in a
// DefineBuildCommand or DefinePrebuildCommand config. Expected is always
// 2 for the current wire ABI.
type PluginUsesIncompatibleVersion struct {
	Expected int
	Actual   int
}

func (e PluginUsesIncompatibleVersion) Error() string {
	return fmt.Sprintf("plugin uses incompatible command config version %d, expected %d", e.Actual, e.Expected)
}

func (e PluginUsesIncompatibleVersion) Is(target error) bool {
	return target == ErrPluginUsesIncompatibleVersion
}

// WrapPluginUsesIncompatibleVersion builds the oops-wrapped form.
func WrapPluginUsesIncompatibleVersion(expected, actual int) error {
	return oops.Code(CodePluginIncompatibleVersion).With("expected", expected).With("actual", actual).
		Wrap(PluginUsesIncompatibleVersion{Expected: expected, Actual: actual})
}
