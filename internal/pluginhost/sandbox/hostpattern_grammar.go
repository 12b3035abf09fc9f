// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package sandbox

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// hostPatternLexer tokenizes a host-pattern literal such as
// "https://*.internal.example.com:443" or "tcp://localhost:*". The
// default text/scanner lexer would split "://" into three tokens; a
// dedicated rule keeps it atomic.
var hostPatternLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "SchemeSep", Pattern: `://`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Word", Pattern: `[A-Za-z0-9*._-]+`},
	{Name: "whitespace", Pattern: `\s+`},
})

// hostPatternAST is the parsed form of a host-pattern literal.
//
// Grammar: scheme "://" host [ ":" port ]
type hostPatternAST struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Scheme string         `parser:"@Word '://'" json:"scheme"`
	Host   string         `parser:"@Word" json:"host"`
	Port   string         `parser:"(':' @Word)?" json:"port,omitempty"`
}

func newHostPatternParser() (*participle.Parser[hostPatternAST], error) {
	return participle.Build[hostPatternAST](participle.Lexer(hostPatternLexer))
}

var hostPatternParser = mustBuildHostPatternParser()

func mustBuildHostPatternParser() *participle.Parser[hostPatternAST] {
	p, err := newHostPatternParser()
	if err != nil {
		panic(err)
	}
	return p
}
