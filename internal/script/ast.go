// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package script defines the boss sequence DSL and compiles it into
// ordinary timelines. Bosses share the same execution substrate as
// recorded actors: a compiled script is indistinguishable from a recording
// at the query surface.
package script

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// scriptLexer defines the token types for the boss DSL.
var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "comment", Pattern: `//[^\n]*`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Punct", Pattern: `[(){},;]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Script is one boss sequence.
//
// Grammar: "boss" name "arena" id "{" step* "}"
type Script struct {
	Pos   lexer.Position `parser:""`
	Name  string         `parser:"'boss' @String"`
	Arena uint8          `parser:"'arena' @Number"`
	Steps []*Step        `parser:"'{' @@* '}'"`
}

// Step is one timed action: "at" seconds action ";"
type Step struct {
	Pos    lexer.Position `parser:""`
	At     float64        `parser:"'at' @Number"`
	Action *Action        `parser:"@@ ';'"`
}

// Action is the union of step kinds.
type Action struct {
	Pos     lexer.Position `parser:""`
	Move    *MoveAction    `parser:"  @@"`
	Cast    *CastAction    `parser:"| @@"`
	Release *ReleaseAction `parser:"| @@"`
	Die     *DieAction     `parser:"| @@"`
}

// MoveAction matches: "move" direction "for" seconds
type MoveAction struct {
	Dir string  `parser:"'move' @Ident"`
	For float64 `parser:"'for' @Number"`
}

// CastAction matches: "cast" slot "at" "(" x "," y ")" ["hold" seconds]
type CastAction struct {
	Slot uint8    `parser:"'cast' @Number"`
	X    uint16   `parser:"'at' '(' @Number"`
	Y    uint16   `parser:"',' @Number ')'"`
	Hold *float64 `parser:"('hold' @Number)?"`
}

// ReleaseAction matches: "release" slot
type ReleaseAction struct {
	Slot uint8 `parser:"'release' @Number"`
}

// DieAction matches: "die" "at" "(" x "," y ")"
type DieAction struct {
	X uint16 `parser:"'die' 'at' '(' @Number"`
	Y uint16 `parser:"',' @Number ')'"`
}

// NewParser constructs a participle parser for the Script grammar.
func NewParser() (*participle.Parser[Script], error) {
	return participle.Build[Script](
		participle.Lexer(scriptLexer),
		participle.Unquote("String"),
		participle.Elide("comment"),
	)
}
