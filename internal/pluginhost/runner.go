// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package pluginhost is the Accessor layer (component G): the single
// invoke(action, …) entry point that combines the Tool Broker, the
// Context Serializer, the Script Compiler Cache, the Sandbox Launcher,
// and the Invocation Session into one call.
package pluginhost

import (
	"context"
	"errors"
	"log/slog"

	"github.com/forgekit/buildplugin/internal/pluginhost/compiler"
	"github.com/forgekit/buildplugin/internal/pluginhost/pherr"
	"github.com/forgekit/buildplugin/internal/pluginhost/sandbox"
	"github.com/forgekit/buildplugin/internal/pluginhost/session"
	"github.com/forgekit/buildplugin/internal/pluginhost/wire"
)

// RunRequest is everything a ScriptRunner needs to compile (if
// necessary) and run one plugin invocation to completion.
type RunRequest struct {
	Sources          []compiler.SourceFile
	PluginName       string
	Initial          wire.HostToPlugin
	ToolsVersion     string
	WorkingDirectory string
	Policy           sandbox.Policy
	Env              map[string]string
	Args             []string

	ToolPaths      []string
	BuiltToolPaths []string
}

// ScriptRunner encapsulates compilation and sandboxed spawn, matching
// the PluginScriptRunner consumed interface from spec.md §6. The
// default implementation composes the Compiler Cache and Sandbox
// Launcher; tests substitute a fake that skips both.
type ScriptRunner interface {
	Run(ctx context.Context, req RunRequest, delegate session.Delegate) (session.Result, error)
}

// DefaultScriptRunner is the production ScriptRunner: it ensures a
// compiled executable via a Compiler Cache, spawns it via a Sandbox
// Launcher, and pumps the result through an Invocation Session.
type DefaultScriptRunner struct {
	Compiler *compiler.Cache
	Launcher *sandbox.Launcher
	Logger   *slog.Logger
}

// Run implements ScriptRunner.
func (r *DefaultScriptRunner) Run(ctx context.Context, req RunRequest, delegate session.Delegate) (session.Result, error) {
	if delegate == nil {
		delegate = session.NoopDelegate{}
	}

	compileResult, err := r.Compiler.Ensure(ctx, req.Sources, req.ToolsVersion, compileFlags(req.Policy))
	if err != nil {
		return session.Result{}, pherr.WrapRunningPluginFailed(err)
	}
	if compileResult.Skipped {
		delegate.CompilationSkipped()
	} else {
		delegate.CompilationStarted()
		delegate.CompilationEnded(compileResult)
	}

	child, err := r.Launcher.Spawn(ctx, compileResult.ExecutablePath, req.Args, req.Env, req.WorkingDirectory, req.Policy)
	if err != nil {
		return session.Result{}, pherr.WrapRunningPluginFailed(err)
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result, err := session.Run(ctx, session.StartParams{
		Child:          child,
		Initial:        req.Initial,
		ToolPaths:      req.ToolPaths,
		BuiltToolPaths: req.BuiltToolPaths,
		Logger:         logger.With("plugin", req.PluginName),
	}, delegate)
	if err != nil {
		return result, wrapSessionError(err)
	}
	return result, nil
}

// wrapSessionError passes a session error through unchanged when it
// already carries a recognized pherr sentinel (a version mismatch, a
// decode failure, or a runtime failure the session already wrapped
// itself, e.g. on cancellation) and collapses everything else (spawn
// failures, unexpected wire messages) into RunningPluginFailed so
// callers always see a pherr kind.
func wrapSessionError(err error) error {
	switch {
	case errors.Is(err, pherr.ErrPluginUsesIncompatibleVersion):
		return err
	case errors.Is(err, pherr.ErrDecodingPluginOutputFailed):
		return err
	case errors.Is(err, pherr.ErrRunningPluginFailed):
		return err
	default:
		return pherr.WrapRunningPluginFailed(err)
	}
}

// compileFlags derives the compilation flags contributed by policy, per
// §4.C: a sandboxed plugin cannot rely on the host's shared-library
// search path being bind-mounted, so anything but NetworkNone links
// statically to avoid a dynamic loader failure inside the sandbox.
func compileFlags(policy sandbox.Policy) []string {
	if _, none := policy.Network.(sandbox.NetworkNone); none {
		return nil
	}
	return []string{"-ldflags=-linkmode=external -extldflags=-static"}
}
