// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package compiler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgekit/buildplugin/internal/pluginhost/compiler"
)

// fakeFileSystem is an in-memory context.FileSystem sufficient for cache
// hit/miss checks.
type fakeFileSystem struct {
	mu      sync.Mutex
	written map[string]bool
}

func newFakeFileSystem() *fakeFileSystem { return &fakeFileSystem{written: make(map[string]bool)} }

func (f *fakeFileSystem) CreateDirectory(string, bool) error { return nil }

func (f *fakeFileSystem) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written[path]
}

func (f *fakeFileSystem) Read(path string) ([]byte, error) { return nil, nil }

func (f *fakeFileSystem) markWritten(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written[path] = true
}

// countingToolchain counts how many times Compile actually ran, marking
// the output as written in fs so subsequent Ensure calls hit cache.
type countingToolchain struct {
	fs        *fakeFileSystem
	calls     atomic.Int64
	failUntil int64
	transient bool
	permanent error
	delay     time.Duration
}

func (c *countingToolchain) Compile(ctx context.Context, req compiler.CompileRequest) (compiler.CompileOutput, error) {
	n := c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.permanent != nil {
		return compiler.CompileOutput{}, c.permanent
	}
	if c.transient && n <= c.failUntil {
		return compiler.CompileOutput{}, compiler.TransientError{Err: errors.New("toolchain launch failed")}
	}
	c.fs.markWritten(req.OutputPath)
	return compiler.CompileOutput{Diagnostics: "ok"}, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	started  int
	ended    int
	skipped  int
	lastDone compiler.CompilationResult
}

func (o *recordingObserver) CompilationStarted(compiler.Fingerprint) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *recordingObserver) CompilationEnded(fp compiler.Fingerprint, result compiler.CompilationResult, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ended++
	o.lastDone = result
}

func (o *recordingObserver) CompilationSkipped(compiler.Fingerprint, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped++
}

func identity() compiler.ToolchainIdentity {
	return compiler.ToolchainIdentity{Version: "1.0", Triple: "arm64-apple-macosi"}
}

func sources() []compiler.SourceFile {
	return []compiler.SourceFile{{RelativePath: "main.swift", Content: []byte("print(1)")}}
}

func TestCache_Ensure_CacheMissThenHit(t *testing.T) {
	fs := newFakeFileSystem()
	tc := &countingToolchain{fs: fs}
	obs := &recordingObserver{}
	cache := compiler.NewCache(tc, identity(), fs, "/cache", obs)

	result, err := cache.Ensure(context.Background(), sources(), "1", nil)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.NotEmpty(t, result.ExecutablePath)
	assert.EqualValues(t, 1, tc.calls.Load())
	assert.Equal(t, 1, obs.started)
	assert.Equal(t, 1, obs.ended)

	result2, err := cache.Ensure(context.Background(), sources(), "1", nil)
	require.NoError(t, err)
	assert.True(t, result2.Skipped)
	assert.Equal(t, result.ExecutablePath, result2.ExecutablePath)
	assert.EqualValues(t, 1, tc.calls.Load(), "second Ensure with the same fingerprint must not recompile")
	assert.Equal(t, 1, obs.skipped)
}

func TestCache_Ensure_DifferentSourcesDifferentFingerprint(t *testing.T) {
	fs := newFakeFileSystem()
	tc := &countingToolchain{fs: fs}
	cache := compiler.NewCache(tc, identity(), fs, "/cache", nil)

	r1, err := cache.Ensure(context.Background(), sources(), "1", nil)
	require.NoError(t, err)

	r2, err := cache.Ensure(context.Background(), []compiler.SourceFile{{RelativePath: "main.swift", Content: []byte("print(2)")}}, "1", nil)
	require.NoError(t, err)

	assert.NotEqual(t, r1.Fingerprint, r2.Fingerprint)
	assert.NotEqual(t, r1.ExecutablePath, r2.ExecutablePath)
	assert.EqualValues(t, 2, tc.calls.Load())
}

func TestCache_Ensure_ConcurrentCallsCoalesce(t *testing.T) {
	fs := newFakeFileSystem()
	tc := &countingToolchain{fs: fs, delay: 50 * time.Millisecond}
	cache := compiler.NewCache(tc, identity(), fs, "/cache", nil)

	const n = 8
	var wg sync.WaitGroup
	results := make([]compiler.CompilationResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Ensure(context.Background(), sources(), "1", nil)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ExecutablePath, results[i].ExecutablePath)
	}
	assert.EqualValues(t, 1, tc.calls.Load(), "concurrent Ensure calls for one fingerprint must coalesce to a single compile")
}

func TestCache_Ensure_RetriesTransientErrors(t *testing.T) {
	fs := newFakeFileSystem()
	tc := &countingToolchain{fs: fs, transient: true, failUntil: 2}
	cache := compiler.NewCache(tc, identity(), fs, "/cache", nil)

	result, err := cache.Ensure(context.Background(), sources(), "1", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ExecutablePath)
	assert.GreaterOrEqual(t, tc.calls.Load(), int64(3))
}

func TestCache_Ensure_DoesNotRetryPermanentCompileErrors(t *testing.T) {
	fs := newFakeFileSystem()
	tc := &countingToolchain{fs: fs, permanent: errors.New("syntax error in plugin source")}
	cache := compiler.NewCache(tc, identity(), fs, "/cache", nil)

	_, err := cache.Ensure(context.Background(), sources(), "1", nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, tc.calls.Load(), "a non-transient compile error must not be retried")
}
