// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package pluginhost

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/forgekit/buildplugin/internal/pluginhost/action"
	"github.com/forgekit/buildplugin/internal/pluginhost/compiler"
	pctx "github.com/forgekit/buildplugin/internal/pluginhost/context"
	"github.com/forgekit/buildplugin/internal/pluginhost/ids"
	"github.com/forgekit/buildplugin/internal/pluginhost/pherr"
	"github.com/forgekit/buildplugin/internal/pluginhost/sandbox"
	"github.com/forgekit/buildplugin/internal/pluginhost/session"
	"github.com/forgekit/buildplugin/internal/pluginhost/toolbroker"
	plugindecl "github.com/forgekit/buildplugin/internal/plugin"
)

// BuildToolPluginInvocationResult is the caller-facing summary of one
// InvokeForPlugin call: Invoke's Result flattened into the shape a build
// scheduler actually consumes, plus timing.
type BuildToolPluginInvocationResult struct {
	Succeeded        bool
	Duration         time.Duration
	TextOutput       string
	Diagnostics      []session.Diagnostic
	BuildCommands    []session.BuildCommand
	PrebuildCommands []session.PrebuildCommand
}

// InvokeForPluginParams bundles the invoke(module, action, …) overload's
// inputs: a module graph to resolve the plugin's owning package and its
// dependencies, and the plugin's own parsed declaration in place of
// reading source-list metadata from the graph directly.
type InvokeForPluginParams struct {
	ModuleID    ids.ModuleID
	Graph       ModuleGraph
	FileSystem  pctx.FileSystem
	Declaration *plugindecl.Declaration
	Action      action.PluginAction
	Env         pctx.BuildEnvironment

	HostTriple       string
	ResolveBuiltTool toolbroker.BuiltToolResolver

	PluginWorkDir  string
	ToolSearchDirs []string

	WorkingDirectory string
	Args             []string
	EnvVars          map[string]string
	Policy           sandbox.Policy

	Delegate session.Delegate
}

// InvokeForPlugin is the invoke(module, action, …) overload: it resolves
// moduleID's owning package and dependencies from params.Graph, reads the
// plugin's own source files off params.FileSystem relative to that
// package's directory, and otherwise behaves exactly like Invoke.
func (a *Accessor) InvokeForPlugin(ctx context.Context, params InvokeForPluginParams) (BuildToolPluginInvocationResult, error) {
	pkg, ok := params.Graph.PackageFor(params.ModuleID)
	if !ok {
		return BuildToolPluginInvocationResult{}, pherr.WrapCouldNotFindPackage(string(params.ModuleID))
	}

	sources, err := readDeclarationSources(params.FileSystem, pkg.Directory, params.Declaration.Sources)
	if err != nil {
		return BuildToolPluginInvocationResult{}, pherr.WrapCouldNotSerializePluginInput(err)
	}

	ctxSerializer := pctx.NewSerializer()
	ctxSerializer.SerializePackage(pctx.PackagePayload{Name: pkg.Name, Directory: pkg.Directory})

	started := time.Now()
	clean, result, err := a.Invoke(ctx, params.Action, InvokeParams{
		Sources:          sources,
		PluginName:       params.Declaration.Name,
		ToolsVersion:     params.Declaration.ToolsVersion,
		Dependencies:     params.Graph.Dependencies(params.ModuleID, params.Env),
		HostTriple:       params.HostTriple,
		ResolveBuiltTool: params.ResolveBuiltTool,
		Context:          ctxSerializer,
		PluginWorkDir:    params.PluginWorkDir,
		ToolSearchDirs:   params.ToolSearchDirs,
		WorkingDirectory: params.WorkingDirectory,
		Args:             params.Args,
		Env:              params.EnvVars,
		Policy:           params.Policy,
		Delegate:         params.Delegate,
	})
	duration := time.Since(started)
	if err != nil {
		return BuildToolPluginInvocationResult{Duration: duration}, err
	}

	return BuildToolPluginInvocationResult{
		Succeeded:        clean,
		Duration:         duration,
		TextOutput:       strings.ToValidUTF8(string(result.Output), "�"),
		Diagnostics:      result.Diagnostics,
		BuildCommands:    result.BuildCommands,
		PrebuildCommands: result.PrebuildCommands,
	}, nil
}

// readDeclarationSources reads every relative source path in relPaths off
// fs, rooted at baseDir, preserving each path relative to baseDir in the
// returned SourceFile so the Compiler Cache's fingerprint is stable
// regardless of where the plugin's package happens to live on disk.
func readDeclarationSources(fs pctx.FileSystem, baseDir string, relPaths []string) ([]compiler.SourceFile, error) {
	sources := make([]compiler.SourceFile, 0, len(relPaths))
	for _, rel := range relPaths {
		content, err := fs.Read(filepath.Join(baseDir, rel))
		if err != nil {
			return nil, err
		}
		sources = append(sources, compiler.SourceFile{RelativePath: rel, Content: content})
	}
	return sources, nil
}
