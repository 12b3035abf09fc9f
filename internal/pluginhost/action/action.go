// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package action defines PluginAction, the immutable, tagged description of
// which plugin entry point a single invocation should run.
package action

import "github.com/forgekit/buildplugin/internal/pluginhost/ids"

// PluginAction is a sealed interface implemented by the four variants below.
// It is immutable for the lifetime of one invocation.
type PluginAction interface {
	// isPluginAction is unexported so no type outside this package may
	// implement PluginAction.
	isPluginAction()
}

// CreateBuildToolCommands asks the plugin to produce build commands for a
// target within a package, given sources/resources already generated by
// earlier build plan steps.
type CreateBuildToolCommands struct {
	Package            ids.PackageID
	Target             ids.TargetID
	GeneratedSources   []string
	GeneratedResources []string
}

func (CreateBuildToolCommands) isPluginAction() {}

// CreateXcodeProjectBuildToolCommands is the Xcode-project analogue of
// CreateBuildToolCommands, keyed on a project/project-target pair instead of
// a package/target pair.
type CreateXcodeProjectBuildToolCommands struct {
	Project            ids.ProjectID
	ProjectTarget      ids.ProjectTargetID
	GeneratedSources   []string
	GeneratedResources []string
}

func (CreateXcodeProjectBuildToolCommands) isPluginAction() {}

// PerformCommand asks the plugin to run a free-form command against a
// package with the given arguments.
type PerformCommand struct {
	Package   ids.PackageID
	Arguments []string
}

func (PerformCommand) isPluginAction() {}

// PerformProjectCommand is the Xcode-project analogue of PerformCommand.
type PerformProjectCommand struct {
	Project   ids.ProjectID
	Arguments []string
}

func (PerformProjectCommand) isPluginAction() {}
