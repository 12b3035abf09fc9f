// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package session

import "github.com/forgekit/buildplugin/internal/pluginhost/wire"

// event is the sealed set of things the actor loop reacts to. Every
// event the session observes — a frame off the wire, a chunk of raw
// output, a delegate completion, or the child's exit — funnels through
// this one channel so session state is only ever touched from run().
type event interface {
	isSessionEvent()
}

type inboundFrameEvent struct{ frame []byte }

func (inboundFrameEvent) isSessionEvent() {}

type messagesClosedEvent struct{}

func (messagesClosedEvent) isSessionEvent() {}

type outputChunkEvent struct{ chunk []byte }

func (outputChunkEvent) isSessionEvent() {}

type outputClosedEvent struct{}

func (outputClosedEvent) isSessionEvent() {}

type childExitedEvent struct {
	code int
	err  error
}

func (childExitedEvent) isSessionEvent() {}

// delegateReplyEvent carries the response a delegate completion produced
// for a plugin-initiated request, ready to be framed and written back.
type delegateReplyEvent struct {
	requestID string
	message   wire.HostToPlugin
}

func (delegateReplyEvent) isSessionEvent() {}
