// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package compiler

// Observer receives compile lifecycle notifications. A production caller
// typically forwards these onto the invocation delegate (§6); tests
// assert on them directly.
type Observer interface {
	CompilationStarted(fp Fingerprint)
	CompilationEnded(fp Fingerprint, result CompilationResult, err error)
	CompilationSkipped(fp Fingerprint, executablePath string)
}

// NoopObserver implements Observer with no-op methods, embeddable by
// callers who only want to override one hook.
type NoopObserver struct{}

func (NoopObserver) CompilationStarted(Fingerprint)                         {}
func (NoopObserver) CompilationEnded(Fingerprint, CompilationResult, error) {}
func (NoopObserver) CompilationSkipped(Fingerprint, string)                 {}
