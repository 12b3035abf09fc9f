// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package context

import "github.com/forgekit/buildplugin/internal/pluginhost/ids"

// BuildEnvironment describes the platform/configuration a plugin invocation
// runs under. ModuleGraph implementations use it to narrow which
// dependencies they return.
type BuildEnvironment struct {
	Platform      string
	Configuration string
}

// PackagePayload is the caller-supplied description of a package to
// serialize. Callers flatten their own graph's package representation into
// this shape before calling Serializer.SerializePackage.
type PackagePayload struct {
	Name      string
	Directory string // absolute path
}

// TargetPayload is the caller-supplied description of a target to
// serialize.
type TargetPayload struct {
	Name    string
	Package ids.PackageID
	Kind    string
}

// ProductPayload is the caller-supplied description of a product to
// serialize.
type ProductPayload struct {
	Name    string
	Targets []ids.TargetID
}

// ProjectPayload is the caller-supplied description of an Xcode-style
// project to serialize.
type ProjectPayload struct {
	Name      string
	Directory string // absolute path
}

// ProjectTargetPayload is the caller-supplied description of a project
// target to serialize.
type ProjectTargetPayload struct {
	Name    string
	Project ids.ProjectID
}

// SerializedTool restates an accessible tool using serialized path ids, for
// inclusion in a WireInput.
type SerializedTool struct {
	Path    ids.PathID
	Triples []string
	Origin  string // "built" or "vended"
}

// WireInput is the flattened context snapshot sent once at session start.
// Every id referenced elsewhere in the initial message must resolve in one
// of these tables.
type WireInput struct {
	Paths          map[ids.PathID]string
	Packages       map[ids.PackageID]PackagePayload
	Targets        map[ids.TargetID]TargetPayload
	Products       map[ids.ProductID]ProductPayload
	Projects       map[ids.ProjectID]ProjectPayload
	ProjectTargets map[ids.ProjectTargetID]ProjectTargetPayload

	PluginWorkDir   ids.PathID
	ToolSearchDirs  []ids.PathID
	AccessibleTools map[string]SerializedTool
}
