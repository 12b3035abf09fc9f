// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package sandbox spawns a compiled plugin executable under a declared
// policy and exposes its streams. On Linux, policy enforcement shells
// out to bubblewrap when it is present on PATH; otherwise the launcher
// logs a warning and runs the child unsandboxed rather than failing the
// invocation outright.
package sandbox

// Policy is an immutable description of what a spawned plugin may touch.
// It is a value, not code: platform enforcement lives entirely in the
// Launcher.
type Policy struct {
	WritableDirectories   []string
	ReadOnlyDirectories   []string
	ToolSearchDirectories []string
	Network               NetworkPolicy
}

// NetworkPolicy is a tagged variant over the network access a plugin may
// be granted.
type NetworkPolicy interface {
	isNetworkPolicy()
}

// NetworkNone denies all network access.
type NetworkNone struct{}

func (NetworkNone) isNetworkPolicy() {}

// NetworkUnixSockets permits connections to local unix domain sockets
// only.
type NetworkUnixSockets struct{}

func (NetworkUnixSockets) isNetworkPolicy() {}

// NetworkLocalhostTCP permits TCP connections to localhost only.
type NetworkLocalhostTCP struct{}

func (NetworkLocalhostTCP) isNetworkPolicy() {}

// NetworkDockerSocket permits connections to the docker daemon socket
// only.
type NetworkDockerSocket struct{}

func (NetworkDockerSocket) isNetworkPolicy() {}

// NetworkHosts permits connections to any destination matching one of
// Patterns.
type NetworkHosts struct {
	Patterns []HostPattern
}

func (NetworkHosts) isNetworkPolicy() {}
