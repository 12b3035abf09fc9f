// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package sandbox

import (
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// HostPattern is a single entry of a NetworkHosts policy, parsed from a
// literal of the form "scheme://host[:port]" where scheme, host labels,
// and port may each contain '*' wildcards. Host wildcards are
// segment-aware: '*' matches exactly one dot-separated label, '**'
// matches any number of labels.
type HostPattern struct {
	raw    string
	scheme string
	host   glob.Glob
	port   string // "" means any port, "*" behaves the same as ""
}

// ParseHostPattern compiles literal into a HostPattern.
func ParseHostPattern(literal string) (HostPattern, error) {
	ast, err := hostPatternParser.ParseString("", literal)
	if err != nil {
		return HostPattern{}, oops.Wrapf(err, "parse host pattern %q", literal)
	}

	hostGlob, err := glob.Compile(ast.Host, '.')
	if err != nil {
		return HostPattern{}, oops.Wrapf(err, "compile host glob %q", ast.Host)
	}

	return HostPattern{
		raw:    literal,
		scheme: ast.Scheme,
		host:   hostGlob,
		port:   ast.Port,
	}, nil
}

// String returns the literal HostPattern was parsed from.
func (p HostPattern) String() string { return p.raw }

// Matches reports whether scheme, host, and port satisfy this pattern.
// An empty pattern port (or "*") matches any port.
func (p HostPattern) Matches(scheme, host string, port int) bool {
	if p.scheme != "*" && !strings.EqualFold(p.scheme, scheme) {
		return false
	}
	if !p.host.Match(host) {
		return false
	}
	if p.port == "" || p.port == "*" {
		return true
	}
	wantPort, err := strconv.Atoi(p.port)
	if err != nil {
		return false
	}
	return wantPort == port
}
