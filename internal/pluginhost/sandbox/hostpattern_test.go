// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package sandbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgekit/buildplugin/internal/pluginhost/sandbox"
)

func TestParseHostPattern_ExactMatch(t *testing.T) {
	p, err := sandbox.ParseHostPattern("https://api.example.com:443")
	require.NoError(t, err)

	assert.True(t, p.Matches("https", "api.example.com", 443))
	assert.False(t, p.Matches("https", "api.example.com", 444))
	assert.False(t, p.Matches("http", "api.example.com", 443))
	assert.False(t, p.Matches("https", "other.example.com", 443))
}

func TestParseHostPattern_SingleSegmentWildcard(t *testing.T) {
	p, err := sandbox.ParseHostPattern("https://*.example.com:443")
	require.NoError(t, err)

	assert.True(t, p.Matches("https", "api.example.com", 443))
	assert.False(t, p.Matches("https", "a.b.example.com", 443), "'*' must not cross label boundaries")
	assert.False(t, p.Matches("https", "example.com", 443))
}

func TestParseHostPattern_MultiSegmentWildcard(t *testing.T) {
	p, err := sandbox.ParseHostPattern("https://**.example.com:443")
	require.NoError(t, err)

	assert.True(t, p.Matches("https", "api.example.com", 443))
	assert.True(t, p.Matches("https", "a.b.example.com", 443))
}

func TestParseHostPattern_WildcardScheme(t *testing.T) {
	p, err := sandbox.ParseHostPattern("*://internal.example.com:8080")
	require.NoError(t, err)

	assert.True(t, p.Matches("https", "internal.example.com", 8080))
	assert.True(t, p.Matches("grpc", "internal.example.com", 8080))
}

func TestParseHostPattern_AnyPort(t *testing.T) {
	p, err := sandbox.ParseHostPattern("tcp://localhost")
	require.NoError(t, err)

	assert.True(t, p.Matches("tcp", "localhost", 1))
	assert.True(t, p.Matches("tcp", "localhost", 65535))
}

func TestParseHostPattern_InvalidLiteral(t *testing.T) {
	_, err := sandbox.ParseHostPattern("not-a-host-pattern")
	assert.Error(t, err)
}
