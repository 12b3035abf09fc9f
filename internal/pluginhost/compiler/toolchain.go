// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package compiler

import (
	"context"
	"errors"
)

// CompileRequest is everything a Toolchain needs to produce one
// executable.
type CompileRequest struct {
	Sources      []SourceFile
	ToolsVersion string
	Flags        []string
	OutputPath   string
}

// CompileOutput carries non-fatal information about a successful
// compile.
type CompileOutput struct {
	Diagnostics string
}

// Toolchain is the external collaborator that actually invokes a
// compiler. Production callers shell out to the real toolchain; tests
// supply a fake.
type Toolchain interface {
	Compile(ctx context.Context, req CompileRequest) (CompileOutput, error)
}

// TransientError marks a Toolchain error as worth retrying — a flaky
// subprocess launch or a transient filesystem error from the toolchain
// invocation itself, never a compile error in the plugin's own source.
type TransientError struct {
	Err error
}

func (e TransientError) Error() string { return e.Err.Error() }
func (e TransientError) Unwrap() error { return e.Err }

// isTransient reports whether err (or anything it wraps) is a
// TransientError.
func isTransient(err error) bool {
	var t TransientError
	return errors.As(err, &t)
}
