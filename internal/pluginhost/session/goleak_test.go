// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/forgekit/buildplugin/internal/pluginhost/ids"
	"github.com/forgekit/buildplugin/internal/pluginhost/session"
	"github.com/forgekit/buildplugin/internal/pluginhost/wire"
)

// TestSession_LeavesNoGoroutinesRunning checks the message, output and
// wait pump goroutines session.Run spawns all terminate once the session reaches
// Finished, per the one-goroutine-per-pump invariant described for the
// actor loop.
func TestSession_LeavesNoGoroutinesRunning(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fc := newFakeChild()
	go func() {
		fc.sendFromPlugin(wire.EmitProgress{Message: "hello"})
		fc.simulateExit(0)
	}()

	_, err := session.Run(context.Background(), session.StartParams{
		Child:   fc,
		Initial: wire.PerformCommand{Package: ids.PackageID(1)},
	}, session.NoopDelegate{})
	require.NoError(t, err)
}

func TestSession_LeavesNoGoroutinesRunningOnAbort(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fc := newFakeChild()
	go func() {
		fc.sendFromPlugin(wire.DefineBuildCommand{
			Config: wire.CommandConfig{Version: 1, Executable: "/u/gen"},
		})
	}()

	_, err := session.Run(context.Background(), session.StartParams{
		Child:   fc,
		Initial: wire.PerformCommand{Package: ids.PackageID(1)},
	}, session.NoopDelegate{})
	require.Error(t, err)
}
