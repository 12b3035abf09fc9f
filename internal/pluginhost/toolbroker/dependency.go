// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package toolbroker

// Dependency is a tagged variant over the three dependency shapes the
// Broker understands. Callers filter their own module graph by build
// environment before handing dependencies here; the Broker never walks a
// graph itself.
type Dependency interface {
	isDependency()
}

// ExecutableModuleDependency is a dependency on a module of kind
// executable within the same build.
type ExecutableModuleDependency struct {
	ModuleName string
}

func (ExecutableModuleDependency) isDependency() {}

// ProductDependency is a dependency on a product. ExecutableModules lists
// the names of the product's constituent modules that are executables;
// the product must name exactly one for the Broker to resolve it.
type ProductDependency struct {
	ProductName       string
	ExecutableModules []string
}

func (ProductDependency) isDependency() {}

// BinaryModuleDependency is a dependency on a module of kind binary,
// shipping prebuilt artifacts for one or more platform triples.
type BinaryModuleDependency struct {
	ModuleName string
	Artifact   BinaryArtifactMetadata
}

func (BinaryModuleDependency) isDependency() {}

// BinaryArtifactVariant groups the executables a binary artifact
// provides for a set of supported triples.
type BinaryArtifactVariant struct {
	SupportedTriples []string
	Executables      []BinaryExecutableInfo
}

// BinaryExecutableInfo describes one executable contained in a binary
// artifact variant. Name may carry a version suffix (e.g.
// "protoc-3.21.1"); the Broker strips it before emitting a Vended entry.
type BinaryExecutableInfo struct {
	Name string
	Path string
}

// BinaryArtifactMetadata is the parsed metadata of a binary module's
// artifact, as produced by the host's artifact-bundle parser.
type BinaryArtifactMetadata struct {
	Variants []BinaryArtifactVariant
}
