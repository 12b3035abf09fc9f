// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package context

import "os"

// CreateDirectory implements FileSystem using os.Mkdir/os.MkdirAll.
func (OSFileSystem) CreateDirectory(path string, recursive bool) error {
	if recursive {
		return os.MkdirAll(path, 0o750)
	}
	return os.Mkdir(path, 0o750)
}

// Exists implements FileSystem using os.Stat.
func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Read implements FileSystem using os.ReadFile.
func (OSFileSystem) Read(path string) ([]byte, error) {
	return os.ReadFile(path) //nolint:gosec // path is caller-controlled and validated upstream
}
