// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgekit/buildplugin/internal/logging"
	"github.com/forgekit/buildplugin/internal/observability"
	"github.com/forgekit/buildplugin/internal/plugin"
	"github.com/forgekit/buildplugin/internal/plugin/capability"
	"github.com/forgekit/buildplugin/internal/pluginhost"
	"github.com/forgekit/buildplugin/internal/pluginhost/action"
	"github.com/forgekit/buildplugin/internal/pluginhost/compiler"
	pctx "github.com/forgekit/buildplugin/internal/pluginhost/context"
	"github.com/forgekit/buildplugin/internal/pluginhost/ids"
	"github.com/forgekit/buildplugin/internal/pluginhost/sandbox"
	"github.com/forgekit/buildplugin/internal/pluginhost/toolbroker"
	"github.com/forgekit/buildplugin/pkg/errutil"
)

// invokeFlags holds the invoke subcommand's own flags, merged into
// cliConfig by loadConfig.
type invokeFlags struct {
	workDir     string
	hostTriple  string
	logFormat   string
	modulePath  string
	packageDir  string
	commandArgs []string
	allowHosts  []string
	metricsAddr string
	grants      []string
}

// NewInvokeCmd creates the invoke subcommand: compile, sandbox, and run
// one declared plugin's PerformCommand action against a package
// directory, printing its diagnostics and captured output.
func NewInvokeCmd() *cobra.Command {
	flags := &invokeFlags{}

	cmd := &cobra.Command{
		Use:   "invoke <plugin.yaml>",
		Short: "Compile and run a declared plugin against a package directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runInvoke(cmd, cfg, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.workDir, "work-dir", "", "compiler cache work directory (overrides config)")
	cmd.Flags().StringVar(&flags.hostTriple, "host-triple", "", "host platform triple presented to the Tool Broker")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "log format: text or json (overrides config)")
	cmd.Flags().StringVar(&flags.modulePath, "module-path", "", "scratch go.mod module path for plugin compiles")
	cmd.Flags().StringVar(&flags.packageDir, "package-dir", ".", "directory of the package the plugin runs against")
	cmd.Flags().StringArrayVar(&flags.commandArgs, "arg", nil, "argument passed to the plugin's PerformCommand action (repeatable)")
	cmd.Flags().StringArrayVar(&flags.allowHosts, "allow-host", nil, "network host pattern to allow beyond the declaration's own requests, kept only if a capability grant covers it (repeatable)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address for the duration of the invocation (overrides config)")
	cmd.Flags().StringArrayVar(&flags.grants, "grant", nil, "namespaced capability (tool.<name> or network.<pattern>) to grant this plugin (repeatable); "+
		"if unset, every tool and network host the declaration requests is granted")

	return cmd
}

func runInvoke(cmd *cobra.Command, cfg cliConfig, flags *invokeFlags, declPath string) error {
	logFormat := cfg.LogFormat
	if flags.logFormat != "" {
		logFormat = flags.logFormat
	}
	logger := logging.Setup("buildpluginctl", cmd.Root().Version, logFormat, cmd.ErrOrStderr())

	metricsAddr := cfg.MetricsAddr
	if flags.metricsAddr != "" {
		metricsAddr = flags.metricsAddr
	}
	var metrics *observability.Metrics
	if metricsAddr != "" {
		obsServer := observability.NewServer(metricsAddr, func() bool { return true })
		errCh, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("start metrics server on %q: %w", metricsAddr, err)
		}
		go func() {
			for obsErr := range errCh {
				logger.Error("metrics server error", "error", obsErr)
			}
		}()
		defer func() { _ = obsServer.Stop(cmd.Context()) }()
		metrics = obsServer.Metrics()
	}

	declData, err := os.ReadFile(declPath) //nolint:gosec // CLI argument, operator-controlled
	if err != nil {
		return fmt.Errorf("read plugin declaration %q: %w", declPath, err)
	}
	if err := plugin.ValidateSchema(declData); err != nil {
		return fmt.Errorf("plugin declaration %q failed schema validation: %w", declPath, err)
	}
	decl, err := plugin.ParseDeclaration(declData)
	if err != nil {
		return fmt.Errorf("parse plugin declaration %q: %w", declPath, err)
	}

	workDir := cfg.WorkDir
	if flags.workDir != "" {
		workDir = flags.workDir
	}
	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return fmt.Errorf("create compiler cache work directory %q: %w", workDir, err)
	}

	modulePath := cfg.ModulePath
	if flags.modulePath != "" {
		modulePath = flags.modulePath
	}
	toolchain := &compiler.GoToolchain{ScratchDir: workDir, ModulePath: modulePath}
	identity, err := toolchain.Identity(cmd.Context())
	if err != nil {
		return fmt.Errorf("query host toolchain identity: %w", err)
	}

	fs := pctx.OSFileSystem{}
	cache := compiler.NewCache(toolchain, identity, fs, workDir, nil)
	launcher := sandbox.NewLauncher(logger)
	runner := &pluginhost.DefaultScriptRunner{Compiler: cache, Launcher: launcher, Logger: logger}
	accessor := pluginhost.NewAccessor(runner)

	declDir, err := filepath.Abs(filepath.Dir(declPath))
	if err != nil {
		return fmt.Errorf("resolve plugin declaration directory: %w", err)
	}
	pkgDir, err := filepath.Abs(flags.packageDir)
	if err != nil {
		return fmt.Errorf("resolve package directory: %w", err)
	}

	// graph resolves the plugin module itself to the package holding its
	// declared sources (declDir), not the caller's target package
	// (pkgDir) — InvokeForPlugin reads Declaration.Sources relative to
	// the plugin module's own package.
	graph := &declarationGraph{
		moduleID: ids.ModuleID(decl.Name),
		pkg:      pluginhost.Package{ID: 0, Name: decl.Name, Directory: declDir},
	}

	hostTriple := cfg.HostTriple
	if flags.hostTriple != "" {
		hostTriple = flags.hostTriple
	}
	if hostTriple == "" {
		hostTriple = runtime.GOARCH + "-" + runtime.GOOS
	}

	enforcer := capability.NewEnforcer()
	grants := flags.grants
	if len(grants) == 0 {
		grants = defaultGrants(decl)
	}
	if err := enforcer.SetGrants(decl.Name, grants); err != nil {
		return fmt.Errorf("set capability grants for plugin %q: %w", decl.Name, err)
	}

	policy, err := buildPolicy(decl, flags.allowHosts, enforcer)
	if err != nil {
		return fmt.Errorf("build sandbox policy: %w", err)
	}

	act := action.PerformCommand{Package: ids.PackageID(0), Arguments: flags.commandArgs}

	invokeStarted := time.Now()
	result, err := accessor.InvokeForPlugin(cmd.Context(), pluginhost.InvokeForPluginParams{
		ModuleID:         graph.moduleID,
		Graph:            graph,
		FileSystem:       fs,
		Declaration:      decl,
		Action:           act,
		HostTriple:       hostTriple,
		WorkingDirectory: pkgDir,
		PluginWorkDir:    filepath.Join(workDir, "run", decl.Name),
		Policy:           policy,
	})
	recordInvocationMetrics(metrics, "perform-command", err == nil && result.Succeeded, time.Since(invokeStarted))

	if err != nil {
		errutil.LogError(logger, "plugin invocation failed", err)
		return fmt.Errorf("invoke plugin %q: %w", decl.Name, err)
	}

	printInvocationResult(cmd, decl.Name, result)
	if !result.Succeeded {
		return fmt.Errorf("plugin %q did not succeed", decl.Name)
	}
	return nil
}

// recordInvocationMetrics is a no-op when the invoke subcommand was run
// without --metrics-addr / metrics-addr.
func recordInvocationMetrics(metrics *observability.Metrics, actionName string, succeeded bool, duration time.Duration) {
	if metrics == nil {
		return
	}
	status := "success"
	if !succeeded {
		status = "failure"
	}
	metrics.InvocationsTotal.WithLabelValues(actionName, status).Inc()
	metrics.InvocationDuration.WithLabelValues(actionName).Observe(duration.Seconds())
}

func printInvocationResult(cmd *cobra.Command, pluginName string, result pluginhost.BuildToolPluginInvocationResult) {
	cmd.Printf("plugin %s: succeeded=%t duration=%s\n", pluginName, result.Succeeded, result.Duration)
	for _, d := range result.Diagnostics {
		loc := ""
		if d.File != nil {
			loc = fmt.Sprintf(" (%s)", *d.File)
		}
		cmd.Printf("  [%s] %s%s\n", d.Severity, d.Message, loc)
	}
	for _, c := range result.BuildCommands {
		cmd.Printf("  build command: %s\n", c.Config.DisplayName)
	}
	for _, c := range result.PrebuildCommands {
		cmd.Printf("  prebuild command: %s (outputs: %s)\n", c.Config.DisplayName, c.OutputFilesDir)
	}
	if len(result.TextOutput) > 0 {
		cmd.Println("  output:")
		for _, line := range strings.Split(strings.TrimRight(result.TextOutput, "\n"), "\n") {
			cmd.Printf("    %s\n", line)
		}
	}
}

// defaultGrants grants a plugin every capability its own declaration
// requests, for operators who haven't supplied --grant explicitly.
func defaultGrants(decl *plugin.Declaration) []string {
	grants := make([]string, 0, len(decl.RequestedTools)+len(decl.RequestedNetworkHosts))
	for _, tool := range decl.RequestedTools {
		grants = append(grants, capability.ToolCapability(tool))
	}
	for _, host := range decl.RequestedNetworkHosts {
		grants = append(grants, capability.NetworkCapability(host))
	}
	return grants
}

// buildPolicy derives a sandbox.Policy from decl's requested network
// hosts plus any operator-supplied extra hosts, keeping only the ones
// enforcer actually grants to decl.Name.
func buildPolicy(decl *plugin.Declaration, extraHosts []string, enforcer *capability.Enforcer) (sandbox.Policy, error) {
	hostLiterals := append(append([]string{}, decl.RequestedNetworkHosts...), extraHosts...)

	patterns := make([]sandbox.HostPattern, 0, len(hostLiterals))
	for _, literal := range hostLiterals {
		if !enforcer.CheckNetworkHost(decl.Name, literal) {
			continue
		}
		p, err := sandbox.ParseHostPattern(literal)
		if err != nil {
			return sandbox.Policy{}, err
		}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		return sandbox.Policy{Network: sandbox.NetworkNone{}}, nil
	}
	return sandbox.Policy{Network: sandbox.NetworkHosts{Patterns: patterns}}, nil
}

// declarationGraph is the minimal pluginhost.ModuleGraph the CLI demo
// backs Invoke with: one module (the plugin itself), resolved to the
// package holding its own declared sources, and no further dependencies
// beyond what the declaration itself names via RequestedTools — which
// this demo graph does not resolve to real build dependencies, since
// doing so requires the real build graph this core treats as an
// external collaborator.
type declarationGraph struct {
	moduleID ids.ModuleID
	pkg      pluginhost.Package
}

func (g *declarationGraph) PackageFor(moduleID ids.ModuleID) (pluginhost.Package, bool) {
	if moduleID != g.moduleID {
		return pluginhost.Package{}, false
	}
	return g.pkg, true
}

func (g *declarationGraph) Dependencies(ids.ModuleID, pctx.BuildEnvironment) []toolbroker.Dependency {
	return nil
}

func (g *declarationGraph) PluginDependencies(ids.ModuleID, pctx.BuildEnvironment) []pluginhost.PluginDependency {
	return nil
}

func (g *declarationGraph) Modules() []ids.ModuleID {
	return []ids.ModuleID{g.moduleID}
}
