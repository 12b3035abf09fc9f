// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package main

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// cliConfig is the merged configuration every subcommand reads once
// flags have been layered on top of an optional config file.
type cliConfig struct {
	WorkDir     string `koanf:"work-dir"`
	HostTriple  string `koanf:"host-triple"`
	LogFormat   string `koanf:"log-format"`
	MetricsAddr string `koanf:"metrics-addr"`
	ModulePath  string `koanf:"module-path"`
}

// defaultCLIConfig returns the config a subcommand starts from before a
// file or flags override any field.
func defaultCLIConfig() cliConfig {
	return cliConfig{
		WorkDir:    ".buildplugin-cache",
		HostTriple: "",
		LogFormat:  "text",
		ModulePath: "buildplugin.invalid/scratch",
	}
}

// loadConfig merges, in increasing priority, built-in defaults, an
// optional YAML config file, and the command's own flags.
func loadConfig(cmd *cobra.Command) (cliConfig, error) {
	k := koanf.New(".")
	cfg := defaultCLIConfig()

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return cliConfig{}, fmt.Errorf("load config file %q: %w", configFile, err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return cliConfig{}, fmt.Errorf("unmarshal config file %q: %w", configFile, err)
		}
	}

	if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
		return cliConfig{}, fmt.Errorf("merge flags into config: %w", err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cliConfig{}, fmt.Errorf("unmarshal merged config: %w", err)
	}

	return cfg, nil
}

// NewRootCmd creates the root command for the buildpluginctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buildpluginctl",
		Short: "buildpluginctl - drive the plugin invocation core",
		Long: `buildpluginctl compiles, sandboxes, and runs a declared build
plugin against a package directory, mediating the host/plugin wire
protocol until the plugin exits.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewInvokeCmd())
	cmd.AddCommand(NewCacheCmd())

	return cmd
}
