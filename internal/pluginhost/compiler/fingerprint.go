// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Package compiler compiles plugin sources to an executable, hitting a
// content-addressed cache when the inputs are unchanged. Concurrent
// requests for the same fingerprint coalesce to a single compile.
package compiler

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint is a content-addressed cache key over a plugin's source
// files, declared tools version, host toolchain identity, and
// compilation flags.
type Fingerprint [32]byte

// String renders the fingerprint as a lowercase hex string, suitable for
// use as a filename component.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// SourceFile is one plugin source file contributing to a fingerprint.
type SourceFile struct {
	// RelativePath is relative to the plugin's source root, not an
	// absolute filesystem path — moving the plugin directory must not
	// change its fingerprint.
	RelativePath string
	Content      []byte
}

// ToolchainIdentity names the host toolchain a fingerprint is scoped to.
// Two hosts with different compiler versions must never share a cache
// entry.
type ToolchainIdentity struct {
	Version string
	Triple  string
}

// ComputeFingerprint hashes sources (sorted by relative path for
// determinism regardless of caller-supplied order), toolsVersion, the
// toolchain identity, and flags into a single digest.
func ComputeFingerprint(sources []SourceFile, toolsVersion string, toolchain ToolchainIdentity, flags []string) Fingerprint {
	sorted := make([]SourceFile, len(sources))
	copy(sorted, sources)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelativePath < sorted[j].RelativePath })

	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for an oversized key, and we pass none.
		panic(err)
	}

	for _, src := range sorted {
		writeLengthPrefixed(h, []byte(src.RelativePath))
		writeLengthPrefixed(h, src.Content)
	}
	writeLengthPrefixed(h, []byte(toolsVersion))
	writeLengthPrefixed(h, []byte(toolchain.Version))
	writeLengthPrefixed(h, []byte(toolchain.Triple))
	for _, flag := range flags {
		writeLengthPrefixed(h, []byte(flag))
	}

	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}

// writeLengthPrefixed feeds b into h preceded by its length, so that
// e.g. hashing ("ab","c") never collides with hashing ("a","bc").
func writeLengthPrefixed(h interface{ Write([]byte) (int, error) }, b []byte) {
	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(b)))
	_, _ = h.Write(length[:])
	_, _ = h.Write(b)
}
