// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package lexer implements the hand-written lexer for the neat language.
//
// Design principles:
//   - One current token, advanced on demand by ReadToken
//   - Tokens are views into the source string; nothing is copied
//   - Save/Load/Drop keep a stack of input positions so the parser can
//     consume speculatively and roll back
//   - Support // line comments and nested /* */ block comments
//   - Bad input never aborts lexing: an unknown character is reported and
//     skipped
package lexer

import (
	"unicode/utf8"

	"github.com/probechain/neatc/lang/diag"
	"github.com/probechain/neatc/lang/token"
)

// state is a saved lexer position.
type state struct {
	pos int
	cur token.Token
}

// Lexer holds the state for a tokenization run.
type Lexer struct {
	file *token.File
	src  string

	// pos is the offset of the remaining, not yet tokenized input.
	pos int
	cur token.Token

	saved []state
	msgs  *diag.Messages

	// reported is one past the offset of the last diagnostic, so input that
	// is rescanned after Load is not reported twice.
	reported int
}

// New creates a Lexer over src and reads the first token. Lexical
// diagnostics are recorded in msgs, which may be nil.
func New(filename, src string, msgs *diag.Messages) *Lexer {
	l := &Lexer{
		file: token.NewFile(filename, src),
		src:  src,
		msgs: msgs,
	}
	l.ReadToken()
	return l
}

// File returns the source file being lexed.
func (l *Lexer) File() *token.File { return l.file }

// Token returns the current token without consuming it.
func (l *Lexer) Token() token.Token { return l.cur }

// Remaining returns the input that has not been tokenized yet.
func (l *Lexer) Remaining() string { return l.src[l.pos:] }

// Expect consumes the current token if it has the given type.
func (l *Lexer) Expect(typ token.Type) bool {
	if l.cur.Type != typ {
		return false
	}
	l.ReadToken()
	return true
}

// ExpectLit consumes the current token if it has the given type and text.
func (l *Lexer) ExpectLit(typ token.Type, lit string) bool {
	if !l.cur.Is(typ, lit) {
		return false
	}
	l.ReadToken()
	return true
}

// Save pushes the current position onto the backtracking stack.
func (l *Lexer) Save() {
	l.saved = append(l.saved, state{pos: l.pos, cur: l.cur})
}

// Load pops the most recently saved position and rewinds to it.
func (l *Lexer) Load() {
	n := len(l.saved) - 1
	s := l.saved[n]
	l.saved = l.saved[:n]
	l.pos, l.cur = s.pos, s.cur
}

// Drop pops the most recently saved position, keeping the current one.
func (l *Lexer) Drop() {
	l.saved = l.saved[:len(l.saved)-1]
}

// LineInfo returns the position of the current token. The line and column
// are recomputed from the start of the buffer on every call.
func (l *Lexer) LineInfo() token.Position {
	return l.file.Position(l.cur.Pos)
}

// Tokenize returns the current token and every following token up to and
// including EOF.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		toks = append(toks, l.cur)
		if l.cur.Type == token.EOF {
			break
		}
		l.ReadToken()
	}
	return toks
}

// ReadToken advances past exactly one token, skipping whitespace and comments
// first. After EOF is reached, subsequent calls keep producing EOF.
func (l *Lexer) ReadToken() {
	for {
		l.skipWhitespace()
		if l.scan() {
			return
		}
	}
}

// scan classifies the token at the head of the remaining input. It returns
// false when an unknown character was skipped and scanning must restart.
func (l *Lexer) scan() bool {
	start := l.pos
	if start >= len(l.src) {
		l.cur = token.Token{Type: token.EOF, Pos: token.Pos(start)}
		return true
	}

	ch := l.src[start]
	switch ch {
	// -------------------------------------------------------------------------
	// Single-character punctuation
	// -------------------------------------------------------------------------
	case ';':
		return l.emit(token.SEMICOLON, 1)
	case '{', '}':
		return l.emit(token.BRACKET, 1)
	case '(', ')':
		return l.emit(token.PAREN, 1)
	case ':':
		return l.emit(token.COLON, 1)
	case ',':
		return l.emit(token.COMMA, 1)
	}

	// -------------------------------------------------------------------------
	// Arrow, longest match against '-'
	// -------------------------------------------------------------------------
	if ch == '-' && l.at(start+1) == '>' {
		return l.emit(token.ARROW, 2)
	}

	switch {
	// -------------------------------------------------------------------------
	// Identifiers and keywords
	// -------------------------------------------------------------------------
	case isIdentStart(ch):
		n := 1
		for isIdentContinue(l.at(start + n)) {
			n++
		}
		typ := token.LookupIdent(l.src[start : start+n])
		return l.emit(typ, n)

	// -------------------------------------------------------------------------
	// Integer literals; a sign is a parser-level operator
	// -------------------------------------------------------------------------
	case isDigit(ch):
		n := 1
		for isDigit(l.at(start + n)) {
			n++
		}
		return l.emit(token.INT, n)
	}

	// -------------------------------------------------------------------------
	// Operators: + += ++ - -= -- * *= / /= = ==
	// -------------------------------------------------------------------------
	switch ch {
	case '+', '-':
		next := l.at(start + 1)
		if next == '=' || next == ch {
			return l.emit(token.OPER, 2)
		}
		return l.emit(token.OPER, 1)
	case '*', '/', '=':
		if l.at(start+1) == '=' {
			return l.emit(token.OPER, 2)
		}
		return l.emit(token.OPER, 1)
	}

	// Anything else is reported and skipped.
	r, size := utf8.DecodeRuneInString(l.src[start:])
	l.errorf(token.Pos(start), "invalid character %q", r)
	l.pos += size
	return false
}

// emit makes the next n bytes the current token.
func (l *Lexer) emit(typ token.Type, n int) bool {
	l.cur = token.Token{
		Type:    typ,
		Literal: l.src[l.pos : l.pos+n],
		Pos:     token.Pos(l.pos),
	}
	l.pos += n
	return true
}

// at returns the byte at offset i, or 0 past the end of input.
func (l *Lexer) at(i int) byte {
	if i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

// skipWhitespace consumes whitespace, line comments and block comments.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		switch {
		case isSpace(ch):
			l.pos++
		case ch == '/' && l.at(l.pos+1) == '/':
			l.skipLineComment()
		case ch == '/' && l.at(l.pos+1) == '*':
			l.skipBlockComment()
		default:
			return
		}
	}
}

// skipLineComment consumes "//" up to, not including, the newline.
func (l *Lexer) skipLineComment() {
	l.pos += 2
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

// skipBlockComment consumes a possibly nested /* ... */ comment. An
// unterminated comment is reported and consumes the rest of the input.
func (l *Lexer) skipBlockComment() {
	start := l.pos
	l.pos += 2
	depth := 1
	for l.pos < len(l.src) {
		switch {
		case l.src[l.pos] == '/' && l.at(l.pos+1) == '*':
			depth++
			l.pos += 2
		case l.src[l.pos] == '*' && l.at(l.pos+1) == '/':
			depth--
			l.pos += 2
			if depth == 0 {
				return
			}
		default:
			l.pos++
		}
	}
	l.errorf(token.Pos(start), "unterminated block comment")
}

func (l *Lexer) errorf(pos token.Pos, format string, args ...interface{}) {
	if l.msgs == nil || int(pos) < l.reported {
		return
	}
	l.reported = int(pos) + 1
	l.msgs.Errorf(l.file.Position(pos), format, args...)
}

// ---------------------------------------------------------------------------
// Character classification helpers
// ---------------------------------------------------------------------------

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
