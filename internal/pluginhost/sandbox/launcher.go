// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package sandbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/samber/oops"
)

const bubblewrapBinary = "bwrap"

// Launcher spawns compiled plugin executables under a Policy.
type Launcher struct {
	logger *slog.Logger
}

// NewLauncher returns a Launcher that logs degraded-sandbox warnings to
// logger. A nil logger falls back to slog.Default().
func NewLauncher(logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{logger: logger}
}

// Spawn starts exePath under policy and returns its Child handle.
// On Linux, enforcement shells out to bubblewrap when present on PATH;
// otherwise Spawn logs a warning and runs the child unsandboxed rather
// than failing the invocation.
func (l *Launcher) Spawn(ctx context.Context, exePath string, args []string, env map[string]string, cwd string, policy Policy) (*Child, error) {
	hostToPluginR, hostToPluginW, err := os.Pipe()
	if err != nil {
		return nil, oops.Wrapf(err, "open host-to-plugin pipe")
	}
	pluginToHostR, pluginToHostW, err := os.Pipe()
	if err != nil {
		_ = hostToPluginR.Close()
		_ = hostToPluginW.Close()
		return nil, oops.Wrapf(err, "open plugin-to-host pipe")
	}

	bwrapPath, lookErr := exec.LookPath(bubblewrapBinary)
	sandboxed := lookErr == nil
	if !sandboxed {
		l.logger.Warn("bubblewrap not found on PATH; running plugin unsandboxed",
			"plugin", exePath, "lookup_error", lookErr)
	}

	var cmd *exec.Cmd
	if sandboxed {
		bwArgs := append(buildBubblewrapArgs(policy, cwd), exePath)
		bwArgs = append(bwArgs, args...)
		cmd = exec.CommandContext(ctx, bwrapPath, bwArgs...) //nolint:gosec // exePath/args are host-controlled build inputs
	} else {
		cmd = exec.CommandContext(ctx, exePath, args...) //nolint:gosec // exePath/args are host-controlled build inputs
	}
	cmd.Dir = cwd
	cmd.Env = envSlice(env)
	cmd.ExtraFiles = []*os.File{hostToPluginR, pluginToHostW}

	outR, outW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = outW

	if err := cmd.Start(); err != nil {
		_ = hostToPluginR.Close()
		_ = hostToPluginW.Close()
		_ = pluginToHostR.Close()
		_ = pluginToHostW.Close()
		return nil, oops.Wrapf(err, "start plugin process")
	}

	// The child now owns its own copies of these descriptors; the
	// parent's copies must be closed so EOF propagates correctly.
	_ = hostToPluginR.Close()
	_ = pluginToHostW.Close()

	child := &Child{
		cmd:          cmd,
		hostToPlugin: hostToPluginW,
		pluginToHost: pluginToHostR,
		output:       outR,
		closeOutput:  func() { _ = outW.Close() },
		messages:     make(chan []byte, 16),
		waitDone:     make(chan struct{}),
	}

	go child.pumpMessages()
	go func() {
		err := cmd.Wait()
		code := 0
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		if err != nil && code == 0 {
			code = -1
		}
		child.finish(code, err)
	}()

	return child, nil
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// buildBubblewrapArgs translates policy into bubblewrap flags. Network
// enforcement beyond NetworkNone and NetworkUnixSockets (both of which
// unshare the network namespace) is advisory: bubblewrap has no
// host-pattern or protocol-aware primitive, so NetworkLocalhostTCP,
// NetworkDockerSocket, and NetworkHosts all leave the network namespace
// shared and rely on the policy's allow-list otherwise being narrow.
func buildBubblewrapArgs(policy Policy, cwd string) []string {
	args := []string{"--die-with-parent", "--unshare-pid", "--proc", "/proc", "--dev", "/dev"}

	for _, dir := range policy.ReadOnlyDirectories {
		args = append(args, "--ro-bind", dir, dir)
	}
	for _, dir := range policy.ToolSearchDirectories {
		args = append(args, "--ro-bind", dir, dir)
	}
	for _, dir := range policy.WritableDirectories {
		args = append(args, "--bind", dir, dir)
	}
	if cwd != "" {
		args = append(args, "--chdir", cwd)
	}

	switch policy.Network.(type) {
	case NetworkNone:
		args = append(args, "--unshare-net")
	case NetworkUnixSockets:
		args = append(args, "--unshare-net")
	}

	return args
}
