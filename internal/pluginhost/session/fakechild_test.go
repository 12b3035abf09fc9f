// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package session_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/forgekit/buildplugin/internal/pluginhost/wire"
)

// fakeChild is an in-process stand-in for sandbox.Child, driven directly
// by test goroutines instead of a real spawned process.
type fakeChild struct {
	hostReader *io.PipeReader
	hostWriter *io.PipeWriter

	framesMu sync.Mutex
	frames   [][]byte

	initialOnce sync.Once
	initialSent chan struct{}

	messages chan []byte

	outputReader *io.PipeReader
	outputWriter *io.PipeWriter

	closeOnce sync.Once
	exitOnce  sync.Once
	exitCode  int
	exitErr   error
	waitDone  chan struct{}
}

func newFakeChild() *fakeChild {
	hostR, hostW := io.Pipe()
	outR, outW := io.Pipe()
	fc := &fakeChild{
		hostReader:   hostR,
		hostWriter:   hostW,
		initialSent:  make(chan struct{}),
		messages:     make(chan []byte, 16),
		outputReader: outR,
		outputWriter: outW,
		waitDone:     make(chan struct{}),
	}
	go fc.captureHostFrames()
	return fc
}

func (f *fakeChild) captureHostFrames() {
	for {
		frame, err := wire.ReadFrame(f.hostReader)
		if err != nil {
			return
		}
		f.framesMu.Lock()
		f.frames = append(f.frames, frame)
		f.framesMu.Unlock()
		f.initialOnce.Do(func() { close(f.initialSent) })
	}
}

func (f *fakeChild) capturedFrames() [][]byte {
	f.framesMu.Lock()
	defer f.framesMu.Unlock()
	return append([][]byte(nil), f.frames...)
}

func (f *fakeChild) InitialMessage() io.WriteCloser { return f.hostWriter }
func (f *fakeChild) Replies() io.WriteCloser        { return f.hostWriter }
func (f *fakeChild) Messages() <-chan []byte        { return f.messages }
func (f *fakeChild) Output() io.Reader              { return f.outputReader }

func (f *fakeChild) Wait(ctx context.Context) (int, error) {
	select {
	case <-f.waitDone:
		return f.exitCode, f.exitErr
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (f *fakeChild) Kill() error {
	f.terminate(-1, errors.New("killed"))
	return nil
}

// sendFromPlugin pushes one plugin→host message onto the (already
// de-framed) inbound channel, matching what sandbox.Child.Messages()
// delivers in production.
func (f *fakeChild) sendFromPlugin(msg wire.PluginToHost) {
	data, err := wire.EncodePluginToHost(msg)
	if err != nil {
		panic(err)
	}
	f.messages <- data
}

// sendRawFromPlugin pushes arbitrary, possibly malformed bytes onto the
// inbound channel, bypassing the codec so tests can drive a decode
// failure.
func (f *fakeChild) sendRawFromPlugin(data []byte) {
	f.messages <- data
}

// simulateExit waits until the host's initial message has arrived, as a
// real plugin reads it before doing anything else, then closes the
// inbound channel and output stream and reports the child's exit code,
// mirroring what the real launcher's pump goroutines do once the
// process dies.
func (f *fakeChild) simulateExit(code int) {
	<-f.initialSent
	f.terminate(code, nil)
}

// terminate closes the inbound channel, output stream and host-side
// pipe exactly once and records the exit result, whether triggered by a
// simulated natural exit or by Kill.
func (f *fakeChild) terminate(code int, err error) {
	f.closeOnce.Do(func() {
		close(f.messages)
		_ = f.outputWriter.Close()
		_ = f.hostWriter.Close()
	})
	f.exitOnce.Do(func() {
		f.exitCode = code
		f.exitErr = err
		close(f.waitDone)
	})
}
