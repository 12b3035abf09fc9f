// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package pherr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgekit/buildplugin/internal/pluginhost/pherr"
)

func TestWrapErrors_MatchSentinelsViaErrorsIs(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"CouldNotFindPackage", pherr.WrapCouldNotFindPackage("codegen"), pherr.ErrCouldNotFindPackage},
		{"CouldNotCreateOutputDirectory", pherr.WrapCouldNotCreateOutputDirectory("/out", errors.New("denied")), pherr.ErrCouldNotCreateOutputDirectory},
		{"CouldNotSerializePluginInput", pherr.WrapCouldNotSerializePluginInput(errors.New("bad id")), pherr.ErrCouldNotSerializePluginInput},
		{"RunningPluginFailed", pherr.WrapRunningPluginFailed(errors.New("exit 1")), pherr.ErrRunningPluginFailed},
		{"DecodingPluginOutputFailed", pherr.WrapDecodingPluginOutputFailed([]byte("{"), errors.New("eof")), pherr.ErrDecodingPluginOutputFailed},
		{"PluginUsesIncompatibleVersion", pherr.WrapPluginUsesIncompatibleVersion(2, 1), pherr.ErrPluginUsesIncompatibleVersion},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.want)
		})
	}
}

func TestWrapErrors_DoNotMatchUnrelatedSentinels(t *testing.T) {
	err := pherr.WrapCouldNotFindPackage("codegen")
	assert.NotErrorIs(t, err, pherr.ErrRunningPluginFailed)
}
