// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgekit/buildplugin/internal/plugin"
)

func TestParseDeclaration_Valid(t *testing.T) {
	yaml := `
name: gen-protos
version: 1.0.0
tools-version: 2.0.0
sources:
  - main.go
  - codec.go
requested-tools:
  - protoc
requested-network-hosts:
  - "https://registry.internal"
`
	d, err := plugin.ParseDeclaration([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "gen-protos", d.Name)
	assert.Equal(t, "1.0.0", d.Version)
	assert.Equal(t, "2.0.0", d.ToolsVersion)
	assert.Equal(t, []string{"main.go", "codec.go"}, d.Sources)
	assert.Equal(t, []string{"protoc"}, d.RequestedTools)
	assert.Equal(t, []string{"https://registry.internal"}, d.RequestedNetworkHosts)
}

func TestParseDeclaration_InvalidName(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "uppercase not allowed",
			yaml: `
name: Invalid_Name
version: 1.0.0
tools-version: 2.0.0
sources: [main.go]
`,
		},
		{
			name: "underscore not allowed",
			yaml: `
name: invalid_name
version: 1.0.0
tools-version: 2.0.0
sources: [main.go]
`,
		},
		{
			name: "starts with number",
			yaml: `
name: 1plugin
version: 1.0.0
tools-version: 2.0.0
sources: [main.go]
`,
		},
		{
			name: "trailing hyphen",
			yaml: `
name: echo-
version: 1.0.0
tools-version: 2.0.0
sources: [main.go]
`,
		},
		{
			name: "name too long",
			yaml: `
name: this-is-a-very-long-plugin-name-that-exceeds-the-maximum-allowed-length
version: 1.0.0
tools-version: 2.0.0
sources: [main.go]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plugin.ParseDeclaration([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "name")
		})
	}
}

func TestParseDeclaration_ValidNames(t *testing.T) {
	names := []string{"echo", "echo-bot", "echo123", "echo-bot-v2", "a"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			yaml := "name: " + name + "\nversion: 1.0.0\ntools-version: 2.0.0\nsources: [main.go]\n"
			d, err := plugin.ParseDeclaration([]byte(yaml))
			require.NoError(t, err)
			assert.Equal(t, name, d.Name)
		})
	}
}

func TestParseDeclaration_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing version",
			yaml:    "name: test\ntools-version: 2.0.0\nsources: [main.go]\n",
			wantErr: "version",
		},
		{
			name:    "missing tools-version",
			yaml:    "name: test\nversion: 1.0.0\nsources: [main.go]\n",
			wantErr: "tools-version",
		},
		{
			name:    "missing sources",
			yaml:    "name: test\nversion: 1.0.0\ntools-version: 2.0.0\n",
			wantErr: "sources",
		},
		{
			name:    "invalid version",
			yaml:    "name: test\nversion: not-semver\ntools-version: 2.0.0\nsources: [main.go]\n",
			wantErr: "version",
		},
		{
			name:    "invalid tools-version",
			yaml:    "name: test\nversion: 1.0.0\ntools-version: not-semver\nsources: [main.go]\n",
			wantErr: "tools-version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plugin.ParseDeclaration([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseDeclaration_InvalidYAML(t *testing.T) {
	_, err := plugin.ParseDeclaration([]byte("name: test\nsources: [unterminated"))
	assert.Error(t, err)
}

func TestParseDeclaration_EmptyInput(t *testing.T) {
	for _, input := range [][]byte{nil, {}, []byte("   \n\t ")} {
		_, err := plugin.ParseDeclaration(input)
		assert.Error(t, err)
	}
}

func TestDeclaration_SupportsToolsVersion(t *testing.T) {
	d := &plugin.Declaration{ToolsVersion: "2.1.0"}

	ok, err := d.SupportsToolsVersion(">= 2.0.0, < 3.0.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.SupportsToolsVersion(">= 3.0.0")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = d.SupportsToolsVersion("not a constraint !!")
	assert.Error(t, err)
}

func TestDeclaration_SupportsToolsVersion_InvalidDeclared(t *testing.T) {
	d := &plugin.Declaration{ToolsVersion: "garbage"}
	_, err := d.SupportsToolsVersion(">= 1.0.0")
	assert.Error(t, err)
}
