// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

// Command buildpluginctl drives the plugin invocation core from the
// command line: it compiles, sandboxes, and runs a single declared
// plugin against a package directory, and offers maintenance
// subcommands over the Script Compiler Cache.
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
