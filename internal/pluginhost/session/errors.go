// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package session

import "github.com/samber/oops"

func errUnimplemented(operation string) error {
	return oops.Code("UNIMPLEMENTED").Errorf("%s is not implemented by this delegate", operation)
}
