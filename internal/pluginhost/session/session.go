// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/forgekit/buildplugin/internal/pluginhost/pherr"
	"github.com/forgekit/buildplugin/internal/pluginhost/wire"
)

// StartParams bundles everything one invocation session needs once the
// child is already spawned and the initial message is ready to send.
type StartParams struct {
	Child Child
	// Initial is the chosen action, already flattened into a single
	// HostToPlugin message by the caller (the Accessor layer).
	Initial wire.HostToPlugin
	// ToolPaths is every accessible tool's absolute path; its sorted
	// form prefixes every captured BuildCommand's InputFiles.
	ToolPaths []string
	// BuiltToolPaths is the subset of ToolPaths that came from a Built
	// (not Vended) accessible tool; a DefinePrebuildCommand naming one
	// of these as its executable is rejected.
	BuiltToolPaths []string
	Logger         *slog.Logger
}

// Run drives one plugin invocation to completion: it sends the initial
// message, pumps inbound frames and raw output concurrently, routes
// messages to delegate, and returns once the child has exited and all
// of its streams have drained. The returned Result is populated even
// when err is non-nil, reflecting everything captured before the
// failure point.
func Run(ctx context.Context, p StartParams, delegate Delegate) (Result, error) {
	if delegate == nil {
		delegate = NoopDelegate{}
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &actor{
		child:           p.Child,
		delegate:        delegate,
		logger:          logger,
		toolPathsSorted: sortedCopy(p.ToolPaths),
		builtToolPaths:  toSet(p.BuiltToolPaths),
		events:          make(chan event, 32),
	}

	initial, err := wire.EncodeHostToPlugin(p.Initial)
	if err != nil {
		return a.result(), oops.Wrapf(err, "encode initial message")
	}
	if err := wire.WriteFrame(p.Child.InitialMessage(), initial); err != nil {
		return a.result(), oops.Wrapf(err, "send initial message")
	}

	go a.pumpMessages()
	go a.pumpOutput()
	go a.pumpWait(ctx)

	return a.run()
}

// actor owns every piece of mutable session state. All fields below
// this comment are touched only from run(), never from the pump
// goroutines — those only ever send events.
type actor struct {
	child    Child
	delegate Delegate
	logger   *slog.Logger

	toolPathsSorted []string
	builtToolPaths  map[string]struct{}

	events chan event

	output           []byte
	buildCommands    []BuildCommand
	prebuildCommands []PrebuildCommand
	diagnostics      []Diagnostic
	hasReportedError bool
	exitEarly        bool

	messagesClosed bool
	outputClosed   bool
	exitReceived   bool
	exitCode       int
	exitErr        error

	pendingRequests int

	aborted    bool
	abortedErr error
}

func (a *actor) result() Result {
	exitedCleanly := a.exitReceived && a.exitCode == 0 && !a.exitEarly
	return Result{
		ExitedCleanly:    exitedCleanly,
		ExitCode:         a.exitCode,
		Output:           a.output,
		Diagnostics:      a.diagnostics,
		BuildCommands:    a.buildCommands,
		PrebuildCommands: a.prebuildCommands,
	}
}

func (a *actor) done() bool {
	return a.messagesClosed && a.outputClosed && a.exitReceived && a.pendingRequests == 0
}

func (a *actor) run() (Result, error) {
	for !a.done() {
		switch ev := (<-a.events).(type) {
		case inboundFrameEvent:
			a.handleFrame(ev.frame)
		case messagesClosedEvent:
			a.messagesClosed = true
		case outputChunkEvent:
			a.output = append(a.output, ev.chunk...)
			a.delegate.PluginEmittedOutput(ev.chunk)
		case outputClosedEvent:
			a.outputClosed = true
		case childExitedEvent:
			a.exitReceived = true
			a.exitCode = ev.code
			a.exitErr = ev.err
			a.logger.Debug("plugin child exited", "code", ev.code, "error", ev.err)
			// A dirty but uncancelled exit (nonzero code) is reported
			// through exitCode alone and handled by the synthetic
			// diagnostic below; only the enclosing context actually
			// being cancelled turns this into a hard invocation failure.
			if errors.Is(ev.err, context.Canceled) || errors.Is(ev.err, context.DeadlineExceeded) {
				a.abort(pherr.WrapRunningPluginFailed(ev.err))
			}
		case delegateReplyEvent:
			a.pendingRequests--
			a.sendReply(ev.requestID, ev.message)
		}
	}

	if a.aborted {
		return a.result(), a.abortedErr
	}

	// done() guarantees exitReceived by this point; §4.E synthesizes a
	// diagnostic only when the exit itself was dirty and unexplained.
	if a.exitCode != 0 && !a.hasReportedError {
		a.diagnostics = append(a.diagnostics, syntheticExitDiagnostic(a.exitCode))
	}

	return a.result(), nil
}

func syntheticExitDiagnostic(code int) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf("Plugin ended with exit code %d", code),
	}
}

func (a *actor) abort(err error) {
	if a.aborted {
		return
	}
	a.aborted = true
	a.abortedErr = err
	a.logger.Warn("aborting plugin invocation session", "error", err)
	if killErr := a.child.Kill(); killErr != nil {
		a.logger.Warn("failed to kill plugin child during abort", "error", killErr)
	}
}

func (a *actor) handleFrame(frame []byte) {
	if a.aborted {
		return
	}
	msg, err := wire.DecodePluginToHost(frame)
	if err != nil {
		a.abort(pherr.WrapDecodingPluginOutputFailed(frame, err))
		return
	}

	switch m := msg.(type) {
	case wire.EmitDiagnostic:
		a.handleEmitDiagnostic(m)
	case wire.EmitProgress:
		a.delegate.PluginEmittedProgress(m.Message)
	case wire.DefineBuildCommand:
		a.handleDefineBuildCommand(m)
	case wire.DefinePrebuildCommand:
		a.handleDefinePrebuildCommand(m)
	case wire.BuildOperationRequest:
		a.dispatchBuildOperation(m)
	case wire.TestOperationRequest:
		a.dispatchTestOperation(m)
	case wire.SymbolGraphRequest:
		a.dispatchSymbolGraph(m)
	default:
		a.abort(oops.Errorf("unexpected plugin-to-host message %T", msg))
	}
}

func (a *actor) handleEmitDiagnostic(m wire.EmitDiagnostic) {
	d := Diagnostic{Severity: Severity(m.Severity), Message: m.Message}
	if m.File != nil {
		if filepath.IsAbs(*m.File) {
			d.File = m.File
			d.Line = m.Line
		} else {
			a.logger.Warn("dropping invalid diagnostic file location", "file", *m.File)
		}
	}
	a.diagnostics = append(a.diagnostics, d)
	if d.Severity == SeverityError {
		a.hasReportedError = true
	}
	a.delegate.PluginEmittedDiagnostic(d)
}

func (a *actor) checkVersion(version int) bool {
	if version != 2 {
		a.abort(pherr.WrapPluginUsesIncompatibleVersion(2, version))
		return false
	}
	return true
}

func (a *actor) handleDefineBuildCommand(m wire.DefineBuildCommand) {
	if !a.checkVersion(m.Config.Version) {
		return
	}
	inputs := make([]string, 0, len(a.toolPathsSorted)+len(m.Inputs))
	inputs = append(inputs, a.toolPathsSorted...)
	inputs = append(inputs, m.Inputs...)

	cmd := BuildCommand{
		Config:     toCommandConfig(m.Config),
		InputFiles: inputs,
		Outputs:    m.Outputs,
	}
	a.buildCommands = append(a.buildCommands, cmd)
	a.delegate.PluginDefinedBuildCommand(cmd)
}

func (a *actor) handleDefinePrebuildCommand(m wire.DefinePrebuildCommand) {
	if !a.checkVersion(m.Config.Version) {
		return
	}
	if _, isBuiltTool := a.builtToolPaths[m.Config.Executable]; isBuiltTool {
		d := Diagnostic{
			Severity: SeverityError,
			Message:  fmt.Sprintf("prebuild command executable %q is a built tool and cannot be used as a prebuild command", filepath.Base(m.Config.Executable)),
		}
		a.diagnostics = append(a.diagnostics, d)
		a.hasReportedError = true
		a.exitEarly = true
		a.delegate.PluginEmittedDiagnostic(d)
		return
	}

	cmd := PrebuildCommand{
		Config:         toCommandConfig(m.Config),
		OutputFilesDir: m.OutputFilesDir,
	}
	if a.delegate.PluginDefinedPrebuildCommand(cmd) {
		a.prebuildCommands = append(a.prebuildCommands, cmd)
	}
}

func toCommandConfig(c wire.CommandConfig) CommandConfig {
	return CommandConfig{
		DisplayName:      c.DisplayName,
		Executable:       c.Executable,
		Arguments:        c.Arguments,
		Environment:      c.Environment,
		WorkingDirectory: c.WorkingDirectory,
	}
}

func (a *actor) dispatchBuildOperation(m wire.BuildOperationRequest) {
	requestID := ulid.Make().String()
	a.pendingRequests++
	a.logger.Debug("dispatching build operation request to delegate", "request_id", requestID, "subset", m.Subset)
	go a.delegate.PluginRequestedBuildOperation(m.Subset, m.Params, func(succeeded bool, err error) {
		resp := wire.BuildOperationResponse{Succeeded: succeeded}
		if err != nil {
			resp.Error = err.Error()
		}
		a.events <- delegateReplyEvent{requestID: requestID, message: resp}
	})
}

func (a *actor) dispatchTestOperation(m wire.TestOperationRequest) {
	requestID := ulid.Make().String()
	a.pendingRequests++
	a.logger.Debug("dispatching test operation request to delegate", "request_id", requestID, "subset", m.Subset)
	go a.delegate.PluginRequestedTestOperation(m.Subset, m.Params, func(succeeded bool, err error) {
		resp := wire.TestOperationResponse{Succeeded: succeeded}
		if err != nil {
			resp.Error = err.Error()
		}
		a.events <- delegateReplyEvent{requestID: requestID, message: resp}
	})
}

func (a *actor) dispatchSymbolGraph(m wire.SymbolGraphRequest) {
	requestID := ulid.Make().String()
	a.pendingRequests++
	a.logger.Debug("dispatching symbol graph request to delegate", "request_id", requestID, "target", m.Target)
	go a.delegate.PluginRequestedSymbolGraph(m.Target, m.Options, func(directoryURL string, err error) {
		if err != nil {
			a.events <- delegateReplyEvent{requestID: requestID, message: wire.SymbolGraphResponse{Error: err.Error()}}
			return
		}
		resp := wire.SymbolGraphResponse{DirectoryURL: directoryFileURL(directoryURL)}
		a.events <- delegateReplyEvent{requestID: requestID, message: resp}
	})
}

func directoryFileURL(path string) string {
	if path == "" {
		return ""
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

func (a *actor) sendReply(requestID string, msg wire.HostToPlugin) {
	data, err := wire.EncodeHostToPlugin(msg)
	if err != nil {
		a.logger.Warn("failed to encode delegate reply", "request_id", requestID, "error", err)
		return
	}
	if err := wire.WriteFrame(a.child.Replies(), data); err != nil {
		a.logger.Warn("failed to write delegate reply; plugin likely already exited", "request_id", requestID, "error", err)
	}
}

func (a *actor) pumpMessages() {
	for frame := range a.child.Messages() {
		a.events <- inboundFrameEvent{frame: frame}
	}
	a.events <- messagesClosedEvent{}
}

func (a *actor) pumpOutput() {
	buf := make([]byte, 32*1024)
	r := a.child.Output()
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			a.events <- outputChunkEvent{chunk: chunk}
		}
		if err != nil {
			a.events <- outputClosedEvent{}
			return
		}
	}
}

func (a *actor) pumpWait(ctx context.Context) {
	code, err := a.child.Wait(ctx)
	a.events <- childExitedEvent{code: code, err: err}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func toSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[s] = struct{}{}
	}
	return out
}
