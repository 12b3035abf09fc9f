// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package toolbroker

import (
	"regexp"

	"github.com/samber/oops"
)

// NoSuchProduct is returned when a ProductDependency names no executable
// module, or more than one, leaving the Broker unable to pick a single
// tool to emit for it.
type NoSuchProduct struct {
	ProductName string
}

func (e NoSuchProduct) Error() string {
	return "product " + e.ProductName + " has no single executable module to vend as a tool"
}

var versionSuffix = regexp.MustCompile(`-\d+(?:\.\d+){0,3}(?:[-+][0-9A-Za-z.]+)?$`)

func stripVersionSuffix(name string) string {
	return versionSuffix.ReplaceAllString(name, "")
}

// Broker computes the accessible-tool map for a plugin's dependencies.
// Broker is stateless; a single zero-value Broker may be shared freely.
type Broker struct{}

// NewBroker returns a ready-to-use Broker.
func NewBroker() *Broker {
	return &Broker{}
}

// Compute walks deps in order and returns the merged accessible-tool map.
// Deps are assumed already filtered by build environment and host triple
// by the caller; Compute performs no further filtering beyond selecting
// the binary-artifact variant matching hostTriple.
func (b *Broker) Compute(deps []Dependency, hostTriple string) (map[string]AccessibleTool, error) {
	result := make(map[string]AccessibleTool)

	for _, dep := range deps {
		switch d := dep.(type) {
		case ExecutableModuleDependency:
			emit(result, d.ModuleName, Built{Name: d.ModuleName, Path: d.ModuleName})

		case ProductDependency:
			if len(d.ExecutableModules) != 1 {
				return nil, oops.Wrapf(NoSuchProduct{ProductName: d.ProductName}, "resolving product dependency")
			}
			module := d.ExecutableModules[0]
			emit(result, d.ProductName, Built{Name: d.ProductName, Path: module})

		case BinaryModuleDependency:
			for _, variant := range d.Artifact.Variants {
				// An empty SupportedTriples list means the variant is
				// unrestricted, not unmatchable.
				if len(variant.SupportedTriples) > 0 && !containsTriple(variant.SupportedTriples, hostTriple) {
					continue
				}
				for _, exe := range variant.Executables {
					name := stripVersionSuffix(exe.Name)
					emit(result, name, Vended{Name: name, Path: exe.Path, Triples: variant.SupportedTriples})
				}
			}

		default:
			return nil, oops.Errorf("unhandled dependency type %T", dep)
		}
	}

	return result, nil
}

func containsTriple(triples []string, want string) bool {
	for _, t := range triples {
		if t == want {
			return true
		}
	}
	return false
}

// emit applies the name-keyed merge rule: a Vended entry with an empty
// triple list is dropped once any entry for that name already exists;
// otherwise an incoming Vended entry replaces the stored path/name and
// accumulates triples onto whatever was already recorded.
func emit(result map[string]AccessibleTool, name string, incoming AccessibleTool) {
	existing, ok := result[name]
	if !ok {
		result[name] = incoming
		return
	}

	incomingVended, isVended := incoming.(Vended)
	if !isVended {
		result[name] = incoming
		return
	}

	if len(incomingVended.Triples) == 0 {
		return // dropped: empty-triple entry never overwrites an existing one
	}

	existingVended, existingIsVended := existing.(Vended)
	if !existingIsVended {
		result[name] = incoming
		return
	}

	merged := make([]string, 0, len(existingVended.Triples)+len(incomingVended.Triples))
	merged = append(merged, existingVended.Triples...)
	merged = append(merged, incomingVended.Triples...)
	result[name] = Vended{Name: name, Path: incomingVended.Path, Triples: merged}
}
