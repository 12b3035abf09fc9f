// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package session

import (
	"context"
	"io"
)

// Child is the subset of sandbox.Child the session pump depends on. It
// is declared here, not imported, so tests can drive the actor loop
// against an in-process fake without spawning a real process.
type Child interface {
	InitialMessage() io.WriteCloser
	Replies() io.WriteCloser
	Messages() <-chan []byte
	Output() io.Reader
	Wait(ctx context.Context) (int, error)
	Kill() error
}
