// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package plugin parses and validates plugin.yaml declarations: the
// ambient stand-in for the plugin target discovery the invocation core
// treats as an external collaborator (see spec §1's Non-goals). A
// Declaration tells the Compiler Cache which source files make up a
// plugin, which tools-version it targets, and which capabilities —
// accessible tool names, network hosts — it asks to be granted.
package plugin

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern validates plugin names: must start with lowercase letter,
// followed by lowercase letters, digits, or hyphens. Cannot end with a
// hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// Declaration represents a plugin.yaml file: the metadata a host needs
// before it can compile and sandbox a plugin, independent of how the
// plugin's owning package was located in the build graph.
type Declaration struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// ToolsVersion is the plugin API/tools-version the plugin source was
	// written against. It is compared against the host's supported
	// range (see SupportsToolsVersion) before compilation is attempted,
	// distinct from the wire ABI's fixed version=2 command-config field.
	ToolsVersion string `yaml:"tools-version"`

	// Sources lists the plugin's source files, relative to the
	// directory containing this declaration.
	Sources []string `yaml:"sources"`

	// RequestedTools and RequestedNetworkHosts are the capability
	// patterns (see internal/plugin/capability) the plugin asks to be
	// granted; a host decides, out of band, whether to honor them when
	// building the sandbox.Policy for an invocation.
	RequestedTools        []string `yaml:"requested-tools,omitempty"`
	RequestedNetworkHosts []string `yaml:"requested-network-hosts,omitempty"`
}

// ParseDeclaration parses and validates a plugin.yaml file.
func ParseDeclaration(data []byte) (*Declaration, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("declaration data is empty")
	}

	var d Declaration
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return &d, nil
}

// Validate checks declaration constraints.
func (d *Declaration) Validate() error {
	if d.Name == "" || !namePattern.MatchString(d.Name) {
		return fmt.Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", d.Name)
	}
	if len(d.Name) > maxNameLength {
		return fmt.Errorf("name must be %d characters or less, got %d", maxNameLength, len(d.Name))
	}

	if d.Version == "" {
		return fmt.Errorf("version is required")
	}
	if _, err := semver.NewVersion(d.Version); err != nil {
		return fmt.Errorf("version %q is not valid semver: %w", d.Version, err)
	}

	if d.ToolsVersion == "" {
		return fmt.Errorf("tools-version is required")
	}
	if _, err := semver.NewVersion(d.ToolsVersion); err != nil {
		return fmt.Errorf("tools-version %q is not valid semver: %w", d.ToolsVersion, err)
	}

	if len(d.Sources) == 0 {
		return fmt.Errorf("sources must list at least one plugin source file")
	}

	return nil
}

// SupportsToolsVersion reports whether d's declared tools-version
// satisfies constraint (a Masterminds/semver constraint expression, e.g.
// ">= 2.0.0, < 3.0.0"). Hosts use this to reject a plugin before ever
// invoking the Compiler Cache, rather than discovering the mismatch only
// once the plugin emits a version=2 command config on the wire.
func (d *Declaration) SupportsToolsVersion(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid tools-version constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(d.ToolsVersion)
	if err != nil {
		return false, fmt.Errorf("declared tools-version %q is not valid semver: %w", d.ToolsVersion, err)
	}
	return c.Check(v), nil
}
