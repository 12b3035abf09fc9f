// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package pluginhost

import (
	"errors"
	"fmt"

	"github.com/forgekit/buildplugin/internal/pluginhost/action"
)

// errNilSerializer reports a caller that forgot to supply an
// InvokeParams.Context before calling Invoke.
var errNilSerializer = errors.New("pluginhost: InvokeParams.Context is nil")

// errUnknownAction reports a PluginAction variant buildInitialMessage does
// not know how to flatten, which can only happen if this package adds a
// variant to action.PluginAction without adding the matching wire mapping.
type errUnknownAction struct {
	action action.PluginAction
}

func (e errUnknownAction) Error() string {
	return fmt.Sprintf("pluginhost: unknown plugin action variant %T", e.action)
}
