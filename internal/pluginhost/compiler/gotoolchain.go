// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package compiler

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/samber/oops"
)

// GoToolchain compiles a plugin's sources with the host's own `go`
// binary: it lays sources out under a scratch module directory and runs
// `go build` against it. This is the concrete Toolchain a production
// Accessor wires into the Compiler Cache; tests use a fake instead.
type GoToolchain struct {
	// GoBin is the path to the go binary. Empty means "go", resolved via
	// PATH.
	GoBin string
	// ScratchDir holds the per-compile source tree go build. Empty
	// means os.TempDir().
	ScratchDir string
	// ModulePath is the module path declared in the scratch go.mod for
	// every compile; plugin sources never import anything outside the
	// shim library, so one fixed module path is sufficient.
	ModulePath string
}

// Identity reports the host toolchain's version and GOARCH/GOOS triple,
// for use as the Cache's ToolchainIdentity. go: download/file-lock
// errors while building always originate from this toolchain, so its
// version is part of every fingerprint.
func (g *GoToolchain) Identity(ctx context.Context) (ToolchainIdentity, error) {
	out, err := exec.CommandContext(ctx, g.goBin(), "version").Output() //nolint:gosec // fixed subcommand, no caller input
	if err != nil {
		return ToolchainIdentity{}, oops.Wrapf(err, "query go toolchain version")
	}
	return ToolchainIdentity{
		Version: strings.TrimSpace(string(out)),
		Triple:  runtime.GOARCH + "-" + runtime.GOOS,
	}, nil
}

// Compile implements Toolchain by writing sources into a scratch module
// directory and running `go build -o req.OutputPath`.
func (g *GoToolchain) Compile(ctx context.Context, req CompileRequest) (CompileOutput, error) {
	scratch, err := os.MkdirTemp(g.scratchDir(), "buildplugin-compile-")
	if err != nil {
		return CompileOutput{}, oops.Wrapf(err, "create scratch compile directory")
	}
	defer os.RemoveAll(scratch) //nolint:errcheck // best-effort cleanup of a temp dir

	if err := g.layout(scratch, req); err != nil {
		return CompileOutput{}, err
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o750); err != nil {
		return CompileOutput{}, oops.Wrapf(err, "create compile output directory")
	}

	args := append([]string{"build", "-o", req.OutputPath}, req.Flags...)
	args = append(args, ".")
	cmd := exec.CommandContext(ctx, g.goBin(), args...) //nolint:gosec // go binary + build flags, no shell
	cmd.Dir = scratch

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if isTransientToolchainError(stderr.String()) {
			return CompileOutput{Diagnostics: stderr.String()}, TransientError{Err: oops.Wrapf(err, "go build")}
		}
		return CompileOutput{Diagnostics: stderr.String()}, oops.Wrapf(err, "go build: %s", stderr.String())
	}
	return CompileOutput{Diagnostics: stderr.String()}, nil
}

// layout writes req.Sources and a minimal go.mod into dir.
func (g *GoToolchain) layout(dir string, req CompileRequest) error {
	modPath := g.ModulePath
	if modPath == "" {
		modPath = "buildplugin.invalid/scratch"
	}
	goMod := "module " + modPath + "\n\ngo 1.25\n"
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0o600); err != nil {
		return oops.Wrapf(err, "write scratch go.mod")
	}

	for _, src := range req.Sources {
		if strings.Contains(src.RelativePath, "..") {
			return oops.Errorf("plugin source path %q escapes its root", src.RelativePath)
		}
		dest := filepath.Join(dir, src.RelativePath)
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return oops.Wrapf(err, "create directory for plugin source %q", src.RelativePath)
		}
		if err := os.WriteFile(dest, src.Content, 0o600); err != nil {
			return oops.Wrapf(err, "write plugin source %q", src.RelativePath)
		}
	}
	return nil
}

func (g *GoToolchain) goBin() string {
	if g.GoBin != "" {
		return g.GoBin
	}
	return "go"
}

func (g *GoToolchain) scratchDir() string {
	if g.ScratchDir != "" {
		return g.ScratchDir
	}
	return os.TempDir()
}

// transientToolchainMarkers are substrings the go toolchain itself
// reports for launch-level flakiness, never for an error in the
// plugin's own source.
var transientToolchainMarkers = []string{
	"dial tcp",
	"connection reset by peer",
	"i/o timeout",
	"timeout while waiting for lock",
	"lock held by",
}

func isTransientToolchainError(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range transientToolchainMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
