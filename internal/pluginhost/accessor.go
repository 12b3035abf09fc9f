// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package pluginhost

import (
	"context"
	"sort"

	"github.com/forgekit/buildplugin/internal/pluginhost/action"
	"github.com/forgekit/buildplugin/internal/pluginhost/compiler"
	pctx "github.com/forgekit/buildplugin/internal/pluginhost/context"
	"github.com/forgekit/buildplugin/internal/pluginhost/pherr"
	"github.com/forgekit/buildplugin/internal/pluginhost/sandbox"
	"github.com/forgekit/buildplugin/internal/pluginhost/session"
	"github.com/forgekit/buildplugin/internal/pluginhost/toolbroker"
	"github.com/forgekit/buildplugin/internal/pluginhost/wire"
)

// InvokeParams bundles everything one invoke(action, …) call needs
// beyond the action itself. Callers construct Context ahead of time
// (serializing whatever packages/targets the action references) and
// hand ownership of it to Invoke for the duration of one call.
type InvokeParams struct {
	// Sources are the plugin's own source files, read by the caller.
	Sources      []compiler.SourceFile
	PluginName   string
	ToolsVersion string

	// Dependencies feeds the Tool Broker; HostTriple selects which
	// binary-dependency variants apply. ResolveBuiltTool maps a Built
	// tool to its produced absolute path; returning ok == false omits
	// that tool.
	Dependencies     []toolbroker.Dependency
	HostTriple       string
	ResolveBuiltTool toolbroker.BuiltToolResolver

	// Context accumulates packages/targets/projects the caller has
	// already serialized; Invoke adds the resolved accessible-tool map,
	// the plugin work directory, and the tool search directories to it
	// before building the WireInput.
	Context        *pctx.Serializer
	PluginWorkDir  string
	ToolSearchDirs []string

	WorkingDirectory string
	Args             []string
	Env              map[string]string
	Policy           sandbox.Policy

	Delegate session.Delegate
}

// Accessor is the single entry point combining the Tool Broker, Context
// Serializer, Script Compiler Cache, Sandbox Launcher, and Invocation
// Session. A zero-value Accessor is not ready to use; construct one with
// NewAccessor.
type Accessor struct {
	broker *toolbroker.Broker
	runner ScriptRunner
}

// NewAccessor returns an Accessor with a stateless Tool Broker that runs
// plugins through runner: a DefaultScriptRunner in production, or any
// fake ScriptRunner in tests.
func NewAccessor(runner ScriptRunner) *Accessor {
	return &Accessor{broker: toolbroker.NewBroker(), runner: runner}
}

// Invoke is the native blocking form of invoke(action, …). The returned
// bool is exited_cleanly; the Result carries every diagnostic and
// command captured before any failure point, per §7's user-visible
// behavior contract.
func (a *Accessor) Invoke(ctx context.Context, act action.PluginAction, params InvokeParams) (bool, session.Result, error) {
	resolvedTools, err := a.resolveTools(params)
	if err != nil {
		return false, session.Result{}, err
	}

	input, toolPaths, builtToolPaths, err := serializeContext(params, resolvedTools)
	if err != nil {
		return false, session.Result{}, pherr.WrapCouldNotSerializePluginInput(err)
	}

	initial, err := buildInitialMessage(act, input)
	if err != nil {
		return false, session.Result{}, pherr.WrapCouldNotSerializePluginInput(err)
	}

	result, err := a.runner.Run(ctx, RunRequest{
		Sources:          params.Sources,
		PluginName:       params.PluginName,
		Initial:          initial,
		ToolsVersion:     params.ToolsVersion,
		WorkingDirectory: params.WorkingDirectory,
		Policy:           params.Policy,
		Env:              params.Env,
		Args:             params.Args,
		ToolPaths:        toolPaths,
		BuiltToolPaths:   builtToolPaths,
	}, params.Delegate)
	if err != nil {
		return false, result, err
	}
	return result.ExitedCleanly, result, nil
}

// resolveTools runs the Tool Broker and resolves Built entries via
// ResolveBuiltTool.
func (a *Accessor) resolveTools(params InvokeParams) (map[string]toolbroker.ResolvedTool, error) {
	tools, err := a.broker.Compute(params.Dependencies, params.HostTriple)
	if err != nil {
		return nil, pherr.WrapRunningPluginFailed(err)
	}
	resolve := params.ResolveBuiltTool
	if resolve == nil {
		resolve = func(string, string) (string, bool) { return "", false }
	}
	return toolbroker.ResolveAll(tools, resolve), nil
}

// serializeContext records the resolved tools, plugin work directory,
// and tool search directories into params.Context and returns the
// finished WireInput plus the sorted tool-path lists the session needs.
func serializeContext(params InvokeParams, resolvedTools map[string]toolbroker.ResolvedTool) (wire.WireInput, []string, []string, error) {
	s := params.Context
	if s == nil {
		return wire.WireInput{}, nil, nil, errNilSerializer
	}

	var toolPaths, builtToolPaths []string
	for name, tool := range resolvedTools {
		s.AddAccessibleTool(name, tool.Path, tool.Origin, tool.Triples)
		toolPaths = append(toolPaths, tool.Path)
		if tool.Origin == "built" {
			builtToolPaths = append(builtToolPaths, tool.Path)
		}
	}
	sort.Strings(toolPaths)
	sort.Strings(builtToolPaths)

	if params.PluginWorkDir != "" {
		s.SetPluginWorkDir(params.PluginWorkDir)
	}
	for _, dir := range params.ToolSearchDirs {
		s.AddToolSearchDir(dir)
	}

	return s.Build(), toolPaths, builtToolPaths, nil
}

// buildInitialMessage flattens a PluginAction and its WireInput into the
// single HostToPlugin message the session sends at Ready→Running.
func buildInitialMessage(act action.PluginAction, input wire.WireInput) (wire.HostToPlugin, error) {
	switch a := act.(type) {
	case action.CreateBuildToolCommands:
		return wire.CreateBuildToolCommands{
			Input:              input,
			Package:            a.Package,
			Target:             a.Target,
			GeneratedSources:   a.GeneratedSources,
			GeneratedResources: a.GeneratedResources,
		}, nil
	case action.CreateXcodeProjectBuildToolCommands:
		return wire.CreateXcodeProjectBuildToolCommands{
			Input:              input,
			Project:            a.Project,
			ProjectTarget:      a.ProjectTarget,
			GeneratedSources:   a.GeneratedSources,
			GeneratedResources: a.GeneratedResources,
		}, nil
	case action.PerformCommand:
		return wire.PerformCommand{Input: input, Package: a.Package, Arguments: a.Arguments}, nil
	case action.PerformProjectCommand:
		return wire.PerformXcodeProjectCommand{Input: input, Project: a.Project, Arguments: a.Arguments}, nil
	default:
		return nil, errUnknownAction{action: act}
	}
}

// Queue is the minimal callback-queue abstraction InvokeAsync dispatches
// its completion onto, matching §4.G's "thin adapter over the completion
// form" contract.
type Queue interface {
	Dispatch(func())
}

// QueueFunc adapts a plain function into a Queue.
type QueueFunc func(func())

// Dispatch implements Queue.
func (f QueueFunc) Dispatch(fn func()) { f(fn) }

// Future is returned by InvokeAsync; Wait blocks until the completion
// has run on the caller-supplied Queue exactly once.
type Future struct {
	done      chan struct{}
	clean     bool
	result    session.Result
	invokeErr error
}

// Wait blocks until the invocation's completion has been dispatched,
// returning the same (exitedCleanly, result, error) Invoke would have
// returned synchronously.
func (f *Future) Wait() (bool, session.Result, error) {
	<-f.done
	return f.clean, f.result, f.invokeErr
}

// InvokeAsync is the suspend-and-resume adapter over Invoke: it starts
// Invoke in a goroutine and delivers the result to queue.Dispatch
// exactly once.
func (a *Accessor) InvokeAsync(ctx context.Context, act action.PluginAction, params InvokeParams, queue Queue) *Future {
	fut := &Future{done: make(chan struct{})}
	go func() {
		clean, result, err := a.Invoke(ctx, act, params)
		queue.Dispatch(func() {
			fut.clean = clean
			fut.result = result
			fut.invokeErr = err
			close(fut.done)
		})
	}()
	return fut
}
