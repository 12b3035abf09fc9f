// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache subcommand group: maintenance
// operations over the Script Compiler Cache's on-disk work directory.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the compiler cache work directory",
	}

	cmd.AddCommand(newCacheListCmd())
	cmd.AddCommand(newCacheCleanCmd())

	return cmd
}

func newCacheListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached plugin executables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runCacheList(cmd, cfg)
		},
	}
	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove every cached plugin executable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runCacheClean(cmd, cfg)
		},
	}
	return cmd
}

// cacheEntry is one fingerprinted executable found under the cache work
// directory. The Script Compiler Cache keys each compiled executable by
// its fingerprint's hex string (see compiler.Fingerprint.String), so a
// cache entry is just a top-level file in the work directory.
type cacheEntry struct {
	fingerprint string
	size        int64
}

func listCacheEntries(workDir string) ([]cacheEntry, error) {
	dirEntries, err := os.ReadDir(workDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache work directory %q: %w", workDir, err)
	}

	entries := make([]cacheEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("stat cache entry %q: %w", de.Name(), err)
		}
		entries = append(entries, cacheEntry{fingerprint: de.Name(), size: info.Size()})
	}
	return entries, nil
}

func runCacheList(cmd *cobra.Command, cfg cliConfig) error {
	entries, err := listCacheEntries(cfg.WorkDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Println("cache is empty")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FINGERPRINT\tSIZE (bytes)")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\n", e.fingerprint, e.size)
	}
	return w.Flush()
}

func runCacheClean(cmd *cobra.Command, cfg cliConfig) error {
	entries, err := listCacheEntries(cfg.WorkDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(cfg.WorkDir, e.fingerprint)); err != nil {
			return fmt.Errorf("remove cache entry %q: %w", e.fingerprint, err)
		}
	}
	cmd.Printf("removed %d cache entries\n", len(entries))
	return nil
}
