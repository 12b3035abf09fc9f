// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package ids defines the dense, serializer-scoped identifiers that flow
// through the wire codec. Ids are stable only within a single Serializer
// instance; they must never be persisted or compared across sessions.
package ids

import "fmt"

// PathID identifies an absolute filesystem path in a WireInput's path table.
type PathID uint32

// String implements fmt.Stringer for log output.
func (id PathID) String() string { return fmt.Sprintf("path#%d", uint32(id)) }

// PackageID identifies a package in a WireInput's package table.
type PackageID uint32

// String implements fmt.Stringer for log output.
func (id PackageID) String() string { return fmt.Sprintf("package#%d", uint32(id)) }

// TargetID identifies a target in a WireInput's target table.
type TargetID uint32

// String implements fmt.Stringer for log output.
func (id TargetID) String() string { return fmt.Sprintf("target#%d", uint32(id)) }

// ProductID identifies a product in a WireInput's product table.
type ProductID uint32

// String implements fmt.Stringer for log output.
func (id ProductID) String() string { return fmt.Sprintf("product#%d", uint32(id)) }

// ProjectID identifies an Xcode-style project in a WireInput's project table.
type ProjectID uint32

// String implements fmt.Stringer for log output.
func (id ProjectID) String() string { return fmt.Sprintf("project#%d", uint32(id)) }

// ProjectTargetID identifies a project target in a WireInput's project-target table.
type ProjectTargetID uint32

// String implements fmt.Stringer for log output.
func (id ProjectTargetID) String() string { return fmt.Sprintf("projecttarget#%d", uint32(id)) }

// ModuleID identifies a module within the external ModuleGraph collaborator.
// It is opaque to this core; callers supply whatever identity their own
// graph implementation uses.
type ModuleID string
