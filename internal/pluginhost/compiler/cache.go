// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package compiler

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	pctx "github.com/forgekit/buildplugin/internal/pluginhost/context"
)

// CompilationResult is what Ensure returns on both a cache hit and a
// cache miss.
type CompilationResult struct {
	ExecutablePath string
	Fingerprint    Fingerprint
	Skipped        bool
	Duration       time.Duration
	Diagnostics    string
}

// Cache compiles plugin sources to an executable, reusing a previous
// build when its fingerprint is unchanged. It is process-wide: a single
// Cache instance should back every invocation in a process so that the
// coalescing guarantee holds.
type Cache struct {
	toolchain Toolchain
	identity  ToolchainIdentity
	fs        pctx.FileSystem
	workDir   string
	observer  Observer
	backoff   retry.Backoff

	mu       sync.Mutex
	inflight map[Fingerprint]*buildFuture
}

type buildFuture struct {
	done   chan struct{}
	result CompilationResult
	err    error
}

// Option configures a Cache at construction.
type Option func(*Cache)

// WithBackoff overrides the default retry backoff used for transient
// toolchain errors.
func WithBackoff(b retry.Backoff) Option {
	return func(c *Cache) { c.backoff = b }
}

// NewCache returns a Cache that compiles via toolchain, stores
// executables under workDir, and identifies the host toolchain as
// identity. fs is used only to check whether a previously-built
// executable still exists; callers needing a fake for tests can pass
// context.FileSystem backed by an in-memory implementation.
func NewCache(toolchain Toolchain, identity ToolchainIdentity, fs pctx.FileSystem, workDir string, observer Observer) *Cache {
	if observer == nil {
		observer = NoopObserver{}
	}
	backoff := retry.NewExponential(100 * time.Millisecond)
	return &Cache{
		toolchain: toolchain,
		identity:  identity,
		fs:        fs,
		workDir:   workDir,
		observer:  observer,
		backoff:   backoff,
		inflight:  make(map[Fingerprint]*buildFuture),
	}
}

// Ensure returns the absolute path to a ready-to-run executable for
// sources, compiling it if necessary. Concurrent Ensure calls sharing a
// fingerprint coalesce to a single compile; all callers observe the same
// result.
func (c *Cache) Ensure(ctx context.Context, sources []SourceFile, toolsVersion string, flags []string) (CompilationResult, error) {
	fp := ComputeFingerprint(sources, toolsVersion, c.identity, flags)
	outputPath := filepath.Join(c.workDir, fp.String())

	if c.fs.Exists(outputPath) {
		c.observer.CompilationSkipped(fp, outputPath)
		return CompilationResult{ExecutablePath: outputPath, Fingerprint: fp, Skipped: true}, nil
	}

	future, started := c.claim(fp)
	if !started {
		return c.await(ctx, future)
	}

	c.observer.CompilationStarted(fp)
	startedAt := time.Now()

	req := CompileRequest{Sources: sources, ToolsVersion: toolsVersion, Flags: flags, OutputPath: outputPath}
	output, err := c.compileWithRetry(ctx, req)

	result := CompilationResult{
		Fingerprint: fp,
		Duration:    time.Since(startedAt),
		Diagnostics: output.Diagnostics,
	}
	if err == nil {
		result.ExecutablePath = outputPath
	}

	c.observer.CompilationEnded(fp, result, err)
	c.resolve(fp, future, result, err)
	return result, err
}

// claim registers fp as in-flight if nothing is already building it,
// returning (future, true) when the caller owns the build, or the
// existing future and false when another goroutine already does.
func (c *Cache) claim(fp Fingerprint) (*buildFuture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.inflight[fp]; ok {
		return existing, false
	}
	future := &buildFuture{done: make(chan struct{})}
	c.inflight[fp] = future
	return future, true
}

func (c *Cache) resolve(fp Fingerprint, future *buildFuture, result CompilationResult, err error) {
	future.result = result
	future.err = err
	close(future.done)

	c.mu.Lock()
	delete(c.inflight, fp)
	c.mu.Unlock()
}

func (c *Cache) await(ctx context.Context, future *buildFuture) (CompilationResult, error) {
	select {
	case <-future.done:
		return future.result, future.err
	case <-ctx.Done():
		return CompilationResult{}, oops.Wrapf(ctx.Err(), "waiting for coalesced compile")
	}
}

// compileWithRetry invokes the toolchain, retrying only errors the
// toolchain explicitly marked transient. A compile error in the
// plugin's own source is never retried.
func (c *Cache) compileWithRetry(ctx context.Context, req CompileRequest) (CompileOutput, error) {
	var output CompileOutput
	err := retry.Do(ctx, retry.WithMaxRetries(3, c.backoff), func(ctx context.Context) error {
		out, err := c.toolchain.Compile(ctx, req)
		output = out
		if err == nil {
			return nil
		}
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return output, oops.Wrapf(err, "compile plugin for fingerprint")
	}
	return output, nil
}
