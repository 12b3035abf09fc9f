// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pctx "github.com/forgekit/buildplugin/internal/pluginhost/context"
	"github.com/forgekit/buildplugin/internal/pluginhost/ids"
	"github.com/forgekit/buildplugin/internal/pluginhost/wire"
)

func TestEncodeDecode_HostToPlugin_RoundTrip(t *testing.T) {
	input := pctx.WireInput{
		Paths:    map[ids.PathID]string{0: "/repo/pkg"},
		Packages: map[ids.PackageID]pctx.PackagePayload{0: {Name: "pkg", Directory: "/repo/pkg"}},
	}

	cases := []struct {
		name string
		msg  wire.HostToPlugin
	}{
		{
			name: "CreateBuildToolCommands",
			msg: wire.CreateBuildToolCommands{
				Input:              input,
				Package:            0,
				Target:             0,
				GeneratedSources:   []string{"/gen/a.swift"},
				GeneratedResources: nil,
			},
		},
		{
			name: "CreateXcodeProjectBuildToolCommands",
			msg: wire.CreateXcodeProjectBuildToolCommands{
				Input:         input,
				Project:       0,
				ProjectTarget: 0,
			},
		},
		{
			name: "PerformCommand",
			msg: wire.PerformCommand{
				Input:     input,
				Package:   0,
				Arguments: []string{"--flag"},
			},
		},
		{
			name: "BuildOperationResponse",
			msg:  wire.BuildOperationResponse{Succeeded: true},
		},
		{
			name: "SymbolGraphResponse",
			msg:  wire.SymbolGraphResponse{DirectoryURL: "file:///sg"},
		},
		{
			name: "ErrorResponse",
			msg:  wire.ErrorResponse{Message: "boom"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := wire.EncodeHostToPlugin(tc.msg)
			require.NoError(t, err)

			decoded, err := wire.DecodeHostToPlugin(encoded)
			require.NoError(t, err)

			reencoded, err := wire.EncodeHostToPlugin(decoded)
			require.NoError(t, err)

			assert.JSONEq(t, string(encoded), string(reencoded), "encode(decode(frame)) must equal frame")
		})
	}
}

func TestEncodeDecode_PluginToHost_RoundTrip(t *testing.T) {
	file := "/x/y.swift"
	line := 12

	cases := []struct {
		name string
		msg  wire.PluginToHost
	}{
		{
			name: "EmitDiagnostic",
			msg: wire.EmitDiagnostic{
				Severity: wire.SeverityError,
				Message:  "failed",
				File:     &file,
				Line:     &line,
			},
		},
		{
			name: "EmitProgress",
			msg:  wire.EmitProgress{Message: "50%"},
		},
		{
			name: "DefineBuildCommand",
			msg: wire.DefineBuildCommand{
				Config: wire.CommandConfig{
					Version:     2,
					DisplayName: "gen",
					Executable:  "/u/gen",
					Arguments:   []string{"--in", "/x"},
					Environment: map[string]string{},
				},
				Inputs:  []string{"/x"},
				Outputs: []string{"/y"},
			},
		},
		{
			name: "DefinePrebuildCommand",
			msg: wire.DefinePrebuildCommand{
				Config: wire.CommandConfig{
					Version:     2,
					DisplayName: "pre",
					Executable:  "/u/pre",
				},
				OutputFilesDir: "/out",
			},
		},
		{
			name: "SymbolGraphRequest",
			msg:  wire.SymbolGraphRequest{Target: "t", Options: map[string]string{"minimumAccessLevel": "public"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := wire.EncodePluginToHost(tc.msg)
			require.NoError(t, err)

			decoded, err := wire.DecodePluginToHost(encoded)
			require.NoError(t, err)

			reencoded, err := wire.EncodePluginToHost(decoded)
			require.NoError(t, err)

			assert.JSONEq(t, string(encoded), string(reencoded))
		})
	}
}

func TestDecodePluginToHost_UnknownType(t *testing.T) {
	_, err := wire.DecodePluginToHost([]byte(`{"type":"somethingElse","payload":{}}`))
	assert.Error(t, err)
}

func TestDecodeHostToPlugin_MalformedEnvelope(t *testing.T) {
	_, err := wire.DecodeHostToPlugin([]byte(`not json`))
	assert.Error(t, err)
}
