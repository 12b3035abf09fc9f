// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package pluginhost

import (
	pctx "github.com/forgekit/buildplugin/internal/pluginhost/context"
	"github.com/forgekit/buildplugin/internal/pluginhost/ids"
	"github.com/forgekit/buildplugin/internal/pluginhost/toolbroker"
)

// Package restates the minimal package information Invoke needs once a
// plugin module has been resolved to its owning package.
type Package struct {
	ID        ids.PackageID
	Name      string
	Directory string
}

// ModuleGraph is the external collaborator that owns package resolution
// and dependency traversal; building and resolving that graph is a
// Non-goal of this core (see spec.md §1). Production callers back this
// with their real build graph, the CLI demo backs it with a graph built
// from a single internal/plugin.Declaration.
type ModuleGraph interface {
	// PackageFor returns the package that owns moduleID, or false if the
	// module has no owning package.
	PackageFor(moduleID ids.ModuleID) (Package, bool)
	// Dependencies returns moduleID's dependencies relevant to the Tool
	// Broker, already filtered by env.
	Dependencies(moduleID ids.ModuleID, env pctx.BuildEnvironment) []toolbroker.Dependency
	// PluginDependencies returns the plugin modules moduleID depends on,
	// already filtered by env.
	PluginDependencies(moduleID ids.ModuleID, env pctx.BuildEnvironment) []PluginDependency
	// Modules lists every module in the graph, for PluginsPerModule to
	// walk.
	Modules() []ids.ModuleID
}

// PluginDependency names one plugin module a dependent module uses.
type PluginDependency struct {
	ModuleID ids.ModuleID
	Name     string
}

// PluginModule restates a PluginDependency from PluginsPerModule's point
// of view: one plugin module, and the fact that some other module
// depends on it.
type PluginModule struct {
	ModuleID ids.ModuleID
	Name     string
}

// PluginsPerModule is a pure query over graph: for every module that
// declares at least one plugin dependency under env, the set of plugin
// modules it depends on. Modules with no plugin dependencies are
// omitted from the result.
func PluginsPerModule(graph ModuleGraph, env pctx.BuildEnvironment) map[ids.ModuleID][]PluginModule {
	result := make(map[ids.ModuleID][]PluginModule)
	for _, moduleID := range graph.Modules() {
		deps := graph.PluginDependencies(moduleID, env)
		if len(deps) == 0 {
			continue
		}
		modules := make([]PluginModule, 0, len(deps))
		for _, dep := range deps {
			modules = append(modules, PluginModule{ModuleID: dep.ModuleID, Name: dep.Name})
		}
		result[moduleID] = modules
	}
	return result
}
