// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package token defines the lexical token types for the neat language.
//
// Tokens are views into the source buffer: a token's Literal is a substring of
// the text handed to the lexer and its Pos is a byte offset into that text.
// Line and column information is recomputed on demand through File.
package token

import "fmt"

// Pos is a byte offset into a source buffer.
type Pos int

// NoPos is the zero position used for synthesized nodes.
const NoPos Pos = -1

// IsValid reports whether the position refers to a source offset.
func (p Pos) IsValid() bool { return p >= 0 }

// Token represents a lexical token.
type Token struct {
	Type    Type
	Literal string
	Pos     Pos
}

func (t Token) String() string {
	if t.Type == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s %q", t.Type, t.Literal)
}

// Is reports whether the token has the given type and literal text.
func (t Token) Is(typ Type, lit string) bool {
	return t.Type == typ && t.Literal == lit
}

// Type is the set of lexical token types.
type Type int

const (
	// Special tokens
	ILLEGAL Type = iota // unknown character
	EOF

	// Literals
	IDENT // main, x, _tmp0
	INT   // 42
	FLOAT // reserved, never produced

	// Operators. The exact operator is carried in the literal:
	// + += ++ - -= -- * *= / /= = ==
	OPER

	// Delimiters
	BRACKET   // { }
	PAREN     // ( )
	COLON     // :
	SEMICOLON // ;
	COMMA     // ,
	ARROW     // ->

	keywordStart
	FN       // fn
	VAR      // var
	IF       // if
	ELSE     // else
	WHILE    // while
	RETURN   // return
	BREAK    // break
	CONTINUE // continue
	keywordEnd
)

var tokenNames = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT: "IDENT",
	INT:   "INT",
	FLOAT: "FLOAT",

	OPER: "OPER",

	BRACKET:   "BRACKET",
	PAREN:     "PAREN",
	COLON:     ":",
	SEMICOLON: ";",
	COMMA:     ",",
	ARROW:     "->",

	FN:       "fn",
	VAR:      "var",
	IF:       "if",
	ELSE:     "else",
	WHILE:    "while",
	RETURN:   "return",
	BREAK:    "break",
	CONTINUE: "continue",
}

// String returns the string form of a token type.
func (t Type) String() string {
	if t >= 0 && int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// IsKeyword returns true if the token is a keyword.
func (t Type) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// keywords maps keyword strings to token types.
var keywords map[string]Type

func init() {
	keywords = make(map[string]Type)
	for i := keywordStart + 1; i < keywordEnd; i++ {
		keywords[tokenNames[i]] = i
	}
}

// LookupIdent checks if an identifier is a keyword.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
