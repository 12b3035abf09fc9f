// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package pluginhost

import "github.com/forgekit/buildplugin/internal/pluginhost/session"

// FileKind classifies a generated file as contributing to a target's
// sources or its resources.
type FileKind int

const (
	DerivedSource FileKind = iota
	DerivedResource
)

// FileClassifier classifies a generated file's absolute path, mirroring
// the host's own file-rules resolver (by extension, by directory
// convention, or whatever the host's build graph uses). Returning
// ok == false drops the path from both derived lists.
type FileClassifier interface {
	Classify(path string) (kind FileKind, ok bool)
}

// FileClassifierFunc adapts a plain function into a FileClassifier.
type FileClassifierFunc func(path string) (FileKind, bool)

// Classify implements FileClassifier.
func (f FileClassifierFunc) Classify(path string) (FileKind, bool) { return f(path) }

// DirectoryLister lists the immediate contents of a prebuild command's
// output-files directory. Scanning a real directory is a distinct,
// narrower concern than the context package's FileSystem, which covers
// directory creation, existence checks and reads, not listing.
type DirectoryLister interface {
	ListDirectory(path string) ([]string, error)
}

// PrebuildCommandResult pairs a captured PrebuildCommand with the files
// discovered by scanning its OutputFilesDir once the command has run.
type PrebuildCommandResult struct {
	Command         session.PrebuildCommand
	DiscoveredFiles []string
}

// DiscoverPrebuildOutputs scans every command's OutputFilesDir via
// lister, pairing each with its discovered files. A directory that fails
// to list (not yet created, the plugin chose not to populate it) yields
// a PrebuildCommandResult with no discovered files rather than aborting
// the whole scan.
func DiscoverPrebuildOutputs(lister DirectoryLister, commands []session.PrebuildCommand) []PrebuildCommandResult {
	results := make([]PrebuildCommandResult, 0, len(commands))
	for _, cmd := range commands {
		files, err := lister.ListDirectory(cmd.OutputFilesDir)
		if err != nil {
			results = append(results, PrebuildCommandResult{Command: cmd})
			continue
		}
		results = append(results, PrebuildCommandResult{Command: cmd, DiscoveredFiles: files})
	}
	return results
}

// ComputePluginGeneratedFiles aggregates every output path a build
// command named directly with every file discovered under a prebuild
// command's output-files directory, classifying each via classifier.
// Paths classifier rejects are dropped from both derived lists.
func ComputePluginGeneratedFiles(
	invocationResults []BuildToolPluginInvocationResult,
	prebuildResults []PrebuildCommandResult,
	classifier FileClassifier,
) (derivedSources, derivedResources []string) {
	add := func(path string) {
		kind, ok := classifier.Classify(path)
		if !ok {
			return
		}
		switch kind {
		case DerivedSource:
			derivedSources = append(derivedSources, path)
		case DerivedResource:
			derivedResources = append(derivedResources, path)
		}
	}

	for _, inv := range invocationResults {
		for _, cmd := range inv.BuildCommands {
			for _, out := range cmd.Outputs {
				add(out)
			}
		}
	}
	for _, pr := range prebuildResults {
		for _, f := range pr.DiscoveredFiles {
			add(f)
		}
	}
	return derivedSources, derivedResources
}
