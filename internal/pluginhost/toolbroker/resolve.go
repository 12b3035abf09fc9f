// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package toolbroker

// ResolveAll maps every Built entry in tools to its produced absolute
// path via resolve, and restates every Vended entry unchanged. Built
// entries the resolver cannot locate (ok == false) are omitted from the
// result, per the BuiltToolResolver contract.
func ResolveAll(tools map[string]AccessibleTool, resolve BuiltToolResolver) map[string]ResolvedTool {
	out := make(map[string]ResolvedTool, len(tools))
	for name, tool := range tools {
		switch t := tool.(type) {
		case Built:
			abs, ok := resolve(t.Name, t.Path)
			if !ok {
				continue
			}
			out[name] = ResolvedTool{Name: name, Path: abs, Origin: "built"}
		case Vended:
			out[name] = ResolvedTool{Name: name, Path: t.Path, Triples: t.Triples, Origin: "vended"}
		}
	}
	return out
}
