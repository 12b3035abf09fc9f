// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package sandbox

import (
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/samber/oops"

	"github.com/forgekit/buildplugin/internal/pluginhost/wire"
)

// Child is a spawned plugin process. The host writes the initial
// message and subsequent replies through a length-framed control
// channel, reads inbound framed messages from the same channel's
// opposite leg, and reads merged stdout/stderr as a raw byte stream.
type Child struct {
	cmd *exec.Cmd

	hostToPlugin io.WriteCloser // initial message + replies, framed by the caller
	pluginToHost io.ReadCloser

	output      io.Reader
	closeOutput func()

	messages chan []byte

	waitOnce sync.Once
	waitCode int
	waitErr  error
	waitDone chan struct{}
}

// InitialMessage returns the writer for the single initial host→plugin
// message. Callers frame it with wire.WriteFrame and write it exactly
// once, before the plugin is expected to send anything back.
func (c *Child) InitialMessage() io.WriteCloser { return c.hostToPlugin }

// Replies returns the writer for ongoing responses to plugin-initiated
// requests, each framed by the caller with wire.WriteFrame. It is backed
// by the same control channel as InitialMessage.
func (c *Child) Replies() io.WriteCloser { return c.hostToPlugin }

// Messages returns the channel of inbound framed payloads from the
// plugin. It is closed once the plugin's control channel reaches EOF or
// a framing error occurs.
func (c *Child) Messages() <-chan []byte { return c.messages }

// Output returns the plugin's merged stdout+stderr byte stream.
func (c *Child) Output() io.Reader { return c.output }

// pumpMessages reads framed messages from the plugin's outbound control
// channel until EOF or an error, delivering each to Messages().
func (c *Child) pumpMessages() {
	defer close(c.messages)
	for {
		frame, err := wire.ReadFrame(c.pluginToHost)
		if err != nil {
			return
		}
		c.messages <- frame
	}
}

// Wait blocks until the child exits or ctx is cancelled, returning its
// exit code. It is safe to call Wait multiple times or concurrently; all
// callers observe the same result. Cancelling ctx kills the child before
// Wait returns, so a cancelled invocation never leaves the process
// running.
func (c *Child) Wait(ctx context.Context) (int, error) {
	select {
	case <-c.waitDone:
		return c.waitCode, c.waitErr
	case <-ctx.Done():
		_ = c.Kill()
		return 0, ctx.Err()
	}
}

// Kill terminates the child immediately (SIGKILL-equivalent), for
// cooperative cancellation.
func (c *Child) Kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	if err := c.cmd.Process.Kill(); err != nil {
		return oops.Wrapf(err, "kill plugin process")
	}
	return nil
}

// finish is called once by the goroutine that owns cmd.Wait(); it
// records the exit code/error, releases stream resources, and unblocks
// every Wait() caller.
func (c *Child) finish(code int, err error) {
	c.waitOnce.Do(func() {
		c.waitCode = code
		c.waitErr = err
		_ = c.hostToPlugin.Close()
		_ = c.pluginToHost.Close()
		if c.closeOutput != nil {
			c.closeOutput()
		}
		close(c.waitDone)
	})
}
