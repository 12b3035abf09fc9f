// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package context

import (
	"sync"

	"github.com/forgekit/buildplugin/internal/pluginhost/ids"
)

// Serializer accumulates packages, targets, products, projects and paths
// into a single WireInput, assigning each a dense monotonic id the first
// time it is seen. Re-serializing an already-known value returns its
// existing id rather than minting a new one.
//
// A Serializer is scoped to exactly one invocation; its ids must never be
// reused across sessions.
type Serializer struct {
	mu sync.Mutex

	paths          map[string]ids.PathID
	pathOrder      []string
	packages       map[string]ids.PackageID
	packageOrder   []PackagePayload
	targets        map[targetKey]ids.TargetID
	targetOrder    []TargetPayload
	products       map[string]ids.ProductID
	productOrder   []ProductPayload
	projects       map[string]ids.ProjectID
	projectOrder   []ProjectPayload
	projectTargets map[projectTargetKey]ids.ProjectTargetID
	ptOrder        []ProjectTargetPayload

	pluginWorkDir  ids.PathID
	toolSearchDirs []ids.PathID
	tools          map[string]SerializedTool
}

type targetKey struct {
	pkg  ids.PackageID
	name string
}

type projectTargetKey struct {
	project ids.ProjectID
	name    string
}

// NewSerializer returns an empty Serializer.
func NewSerializer() *Serializer {
	return &Serializer{
		paths:          make(map[string]ids.PathID),
		packages:       make(map[string]ids.PackageID),
		targets:        make(map[targetKey]ids.TargetID),
		products:       make(map[string]ids.ProductID),
		projects:       make(map[string]ids.ProjectID),
		projectTargets: make(map[projectTargetKey]ids.ProjectTargetID),
		tools:          make(map[string]SerializedTool),
	}
}

// SerializePath interns path and returns its id, minting a new one on first
// sight.
func (s *Serializer) SerializePath(path string) ids.PathID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.internPathLocked(path)
}

func (s *Serializer) internPathLocked(path string) ids.PathID {
	if id, ok := s.paths[path]; ok {
		return id
	}
	id := ids.PathID(len(s.pathOrder))
	s.paths[path] = id
	s.pathOrder = append(s.pathOrder, path)
	return id
}

// SerializePackage interns a package by name, minting a new id on first
// sight. The directory is recorded against the first payload seen for a
// given name; later calls with the same name are treated as the same
// package and do not overwrite it.
func (s *Serializer) SerializePackage(p PackagePayload) ids.PackageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.packages[p.Name]; ok {
		return id
	}
	id := ids.PackageID(len(s.packageOrder))
	s.packages[p.Name] = id
	s.packageOrder = append(s.packageOrder, p)
	s.internPathLocked(p.Directory)
	return id
}

// SerializeTarget interns a target scoped to pkg, minting a new id on first
// sight.
func (s *Serializer) SerializeTarget(pkg ids.PackageID, t TargetPayload) ids.TargetID {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := targetKey{pkg: pkg, name: t.Name}
	if id, ok := s.targets[key]; ok {
		return id
	}
	t.Package = pkg
	id := ids.TargetID(len(s.targetOrder))
	s.targets[key] = id
	s.targetOrder = append(s.targetOrder, t)
	return id
}

// SerializeProduct interns a product by name, minting a new id on first
// sight.
func (s *Serializer) SerializeProduct(p ProductPayload) ids.ProductID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.products[p.Name]; ok {
		return id
	}
	id := ids.ProductID(len(s.productOrder))
	s.products[p.Name] = id
	s.productOrder = append(s.productOrder, p)
	return id
}

// SerializeProject interns an Xcode-style project by name, minting a new id
// on first sight.
func (s *Serializer) SerializeProject(p ProjectPayload) ids.ProjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.projects[p.Name]; ok {
		return id
	}
	id := ids.ProjectID(len(s.projectOrder))
	s.projects[p.Name] = id
	s.projectOrder = append(s.projectOrder, p)
	s.internPathLocked(p.Directory)
	return id
}

// SerializeProjectTarget interns a project target scoped to project,
// minting a new id on first sight.
func (s *Serializer) SerializeProjectTarget(project ids.ProjectID, t ProjectTargetPayload) ids.ProjectTargetID {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := projectTargetKey{project: project, name: t.Name}
	if id, ok := s.projectTargets[key]; ok {
		return id
	}
	t.Project = project
	id := ids.ProjectTargetID(len(s.ptOrder))
	s.projectTargets[key] = id
	s.ptOrder = append(s.ptOrder, t)
	return id
}

// SetPluginWorkDir records the plugin's private writable work directory.
func (s *Serializer) SetPluginWorkDir(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pluginWorkDir = s.internPathLocked(path)
}

// AddToolSearchDir appends path to the ordered list of directories the
// plugin may search for tools it was not granted direct access to.
func (s *Serializer) AddToolSearchDir(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolSearchDirs = append(s.toolSearchDirs, s.internPathLocked(path))
}

// AddAccessibleTool records a resolved tool under name, serializing its
// path against this Serializer's path table.
func (s *Serializer) AddAccessibleTool(name, path, origin string, triples []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[name] = SerializedTool{
		Path:    s.internPathLocked(path),
		Triples: triples,
		Origin:  origin,
	}
}

// Build finalizes the accumulated tables into a WireInput. The Serializer
// remains usable afterward; later Serialize calls mint further ids and a
// subsequent Build reflects them.
func (s *Serializer) Build() WireInput {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make(map[ids.PathID]string, len(s.pathOrder))
	for path, id := range s.paths {
		paths[id] = path
	}

	packages := make(map[ids.PackageID]PackagePayload, len(s.packageOrder))
	for id, p := range s.packageOrder {
		packages[ids.PackageID(id)] = p
	}

	targets := make(map[ids.TargetID]TargetPayload, len(s.targetOrder))
	for id, t := range s.targetOrder {
		targets[ids.TargetID(id)] = t
	}

	products := make(map[ids.ProductID]ProductPayload, len(s.productOrder))
	for id, p := range s.productOrder {
		products[ids.ProductID(id)] = p
	}

	projects := make(map[ids.ProjectID]ProjectPayload, len(s.projectOrder))
	for id, p := range s.projectOrder {
		projects[ids.ProjectID(id)] = p
	}

	projectTargets := make(map[ids.ProjectTargetID]ProjectTargetPayload, len(s.ptOrder))
	for id, t := range s.ptOrder {
		projectTargets[ids.ProjectTargetID(id)] = t
	}

	tools := make(map[string]SerializedTool, len(s.tools))
	for name, tool := range s.tools {
		tools[name] = tool
	}

	searchDirs := make([]ids.PathID, len(s.toolSearchDirs))
	copy(searchDirs, s.toolSearchDirs)

	return WireInput{
		Paths:           paths,
		Packages:        packages,
		Targets:         targets,
		Products:        products,
		Projects:        projects,
		ProjectTargets:  projectTargets,
		PluginWorkDir:   s.pluginWorkDir,
		ToolSearchDirs:  searchDirs,
		AccessibleTools: tools,
	}
}
