// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package toolbroker computes the set of tools a plugin may invoke,
// merging module and product dependencies filtered by build environment
// into a name-keyed map of accessible tools. It holds no state between
// calls; every Compute call is independent.
package toolbroker

// AccessibleTool is a tagged variant: either a tool the build produces
// itself (Built, resolved later by a BuiltToolResolver) or a tool vended
// as a prebuilt binary artifact (Vended, already an absolute path).
type AccessibleTool interface {
	isAccessibleTool()
}

// Built names a tool the host's own build produces. Path is relative to
// the build products directory and is not yet meaningful outside the
// host build scheduler.
type Built struct {
	Name string
	Path string
}

func (Built) isAccessibleTool() {}

// Vended names a tool shipped as a prebuilt binary artifact, already
// resolved to an absolute path. Triples lists the platform triples the
// binary supports; an empty list means "unknown/unconstrained".
type Vended struct {
	Name    string
	Path    string
	Triples []string
}

func (Vended) isAccessibleTool() {}

// ResolvedTool restates an AccessibleTool after Built entries have been
// mapped to their produced location by a BuiltToolResolver.
type ResolvedTool struct {
	Name    string
	Path    string
	Triples []string
	Origin  string // "built" or "vended"
}

// BuiltToolResolver maps a Built tool's name and relative path to its
// produced absolute location. A false ok means the tool did not get
// built and must be omitted from the resolved map.
type BuiltToolResolver func(name, relativePath string) (absolutePath string, ok bool)
