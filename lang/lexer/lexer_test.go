// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lexer_test

import (
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"

	"github.com/probechain/neatc/lang/diag"
	"github.com/probechain/neatc/lang/lexer"
	"github.com/probechain/neatc/lang/token"
)

// tokenCase is a single expected token in a table-driven test.
type tokenCase struct {
	typ     token.Type
	literal string
}

// runTokenize lexes input and checks that it produces exactly the expected
// sequence (plus a final EOF) without diagnostics.
func runTokenize(t *testing.T, name, input string, want []tokenCase) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		t.Helper()
		var msgs diag.Messages
		toks := lexer.New("test.neat", input, &msgs).Tokenize()
		if msgs.Len() != 0 {
			t.Fatalf("unexpected diagnostics: %v", msgs.Err())
		}

		last := toks[len(toks)-1]
		if last.Type != token.EOF {
			t.Errorf("last token is %s, want EOF", last.Type)
		}
		body := toks[:len(toks)-1]

		if len(body) != len(want) {
			t.Errorf("got %d tokens (excl. EOF), want %d", len(body), len(want))
			for i, tok := range body {
				t.Logf("  [%d] %s %q", i, tok.Type, tok.Literal)
			}
			return
		}
		for i, w := range want {
			got := body[i]
			if got.Type != w.typ {
				t.Errorf("token[%d]: type = %s, want %s (literal %q)", i, got.Type, w.typ, got.Literal)
			}
			if got.Literal != w.literal {
				t.Errorf("token[%d]: literal = %q, want %q", i, got.Literal, w.literal)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// Punctuation and operators
// ---------------------------------------------------------------------------

func TestPunctuation(t *testing.T) {
	cases := []struct {
		input   string
		wantTyp token.Type
	}{
		{";", token.SEMICOLON},
		{"{", token.BRACKET},
		{"}", token.BRACKET},
		{"(", token.PAREN},
		{")", token.PAREN},
		{":", token.COLON},
		{",", token.COMMA},
		{"->", token.ARROW},
	}
	for _, c := range cases {
		runTokenize(t, c.input, c.input, []tokenCase{{c.wantTyp, c.input}})
	}
}

func TestOperators(t *testing.T) {
	for _, op := range []string{"+", "+=", "++", "-", "-=", "--", "*", "*=", "/", "/=", "=", "=="} {
		runTokenize(t, op, op, []tokenCase{{token.OPER, op}})
	}
}

func TestLongestMatch(t *testing.T) {
	runTokenize(t, "triple plus", "+++", []tokenCase{
		{token.OPER, "++"},
		{token.OPER, "+"},
	})
	runTokenize(t, "assign eq", "===", []tokenCase{
		{token.OPER, "=="},
		{token.OPER, "="},
	})
	runTokenize(t, "arrow then minus", "->-", []tokenCase{
		{token.ARROW, "->"},
		{token.OPER, "-"},
	})
	runTokenize(t, "decrement not arrow", "--x", []tokenCase{
		{token.OPER, "--"},
		{token.IDENT, "x"},
	})
}

// ---------------------------------------------------------------------------
// Identifiers, keywords, literals
// ---------------------------------------------------------------------------

func TestKeywords(t *testing.T) {
	kws := map[string]token.Type{
		"fn": token.FN, "var": token.VAR, "if": token.IF, "else": token.ELSE,
		"while": token.WHILE, "return": token.RETURN, "break": token.BREAK,
		"continue": token.CONTINUE,
	}
	for kw, typ := range kws {
		runTokenize(t, kw, kw, []tokenCase{{typ, kw}})
	}
	runTokenize(t, "keyword prefix", "iffy fn_ returns", []tokenCase{
		{token.IDENT, "iffy"},
		{token.IDENT, "fn_"},
		{token.IDENT, "returns"},
	})
}

func TestIdentAndInt(t *testing.T) {
	runTokenize(t, "mixed", "_a1 42 x9 007", []tokenCase{
		{token.IDENT, "_a1"},
		{token.INT, "42"},
		{token.IDENT, "x9"},
		{token.INT, "007"},
	})
	runTokenize(t, "signed int", "-5", []tokenCase{
		{token.OPER, "-"},
		{token.INT, "5"},
	})
}

func TestFunctionHeader(t *testing.T) {
	runTokenize(t, "add", "fn add(a: int, b: int) -> int { return a + b; }", []tokenCase{
		{token.FN, "fn"},
		{token.IDENT, "add"},
		{token.PAREN, "("},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.IDENT, "int"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.COLON, ":"},
		{token.IDENT, "int"},
		{token.PAREN, ")"},
		{token.ARROW, "->"},
		{token.IDENT, "int"},
		{token.BRACKET, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "a"},
		{token.OPER, "+"},
		{token.IDENT, "b"},
		{token.SEMICOLON, ";"},
		{token.BRACKET, "}"},
	})
}

// ---------------------------------------------------------------------------
// Comments
// ---------------------------------------------------------------------------

func TestComments(t *testing.T) {
	runTokenize(t, "line", "a // b c\nd", []tokenCase{
		{token.IDENT, "a"},
		{token.IDENT, "d"},
	})
	runTokenize(t, "block", "a /* b */ c", []tokenCase{
		{token.IDENT, "a"},
		{token.IDENT, "c"},
	})
	runTokenize(t, "nested block", "a /* b /* c */ d */ e", []tokenCase{
		{token.IDENT, "a"},
		{token.IDENT, "e"},
	})
	runTokenize(t, "slash not comment", "a / b /= c", []tokenCase{
		{token.IDENT, "a"},
		{token.OPER, "/"},
		{token.IDENT, "b"},
		{token.OPER, "/="},
		{token.IDENT, "c"},
	})
}

func TestUnterminatedBlockComment(t *testing.T) {
	var msgs diag.Messages
	toks := lexer.New("test.neat", "a /* never closed", &msgs).Tokenize()
	if len(toks) != 2 || toks[0].Literal != "a" || toks[1].Type != token.EOF {
		t.Fatalf("unexpected tokens: %v", toks)
	}
	if msgs.Count(diag.Error) != 1 {
		t.Fatalf("want 1 error, got %d", msgs.Count(diag.Error))
	}
	if got := msgs.All()[0].String(); got != "test.neat:1:3: error: unterminated block comment" {
		t.Errorf("unexpected diagnostic %q", got)
	}
}

// ---------------------------------------------------------------------------
// Error handling
// ---------------------------------------------------------------------------

func TestUnknownCharacterSkipped(t *testing.T) {
	var msgs diag.Messages
	toks := lexer.New("test.neat", "a $ b\n  @", &msgs).Tokenize()
	if len(toks) != 3 {
		t.Fatalf("want a, b, EOF; got %v", toks)
	}
	if toks[0].Literal != "a" || toks[1].Literal != "b" {
		t.Errorf("unexpected tokens: %v", toks)
	}
	all := msgs.All()
	if len(all) != 2 {
		t.Fatalf("want 2 diagnostics, got %d", len(all))
	}
	if got := all[0].String(); got != `test.neat:1:3: error: invalid character '$'` {
		t.Errorf("diag[0] = %q", got)
	}
	if got := all[1].String(); got != `test.neat:2:3: error: invalid character '@'` {
		t.Errorf("diag[1] = %q", got)
	}
}

func TestNilSink(t *testing.T) {
	toks := lexer.New("test.neat", "#x", nil).Tokenize()
	if len(toks) != 2 || toks[0].Literal != "x" {
		t.Fatalf("unexpected tokens: %v", toks)
	}
}

// ---------------------------------------------------------------------------
// Backtracking and positions
// ---------------------------------------------------------------------------

func TestSaveLoadDrop(t *testing.T) {
	l := lexer.New("test.neat", "a b c d", nil)

	l.Save()
	l.ReadToken()
	l.ReadToken()
	if l.Token().Literal != "c" {
		t.Fatalf("want c, got %s", l.Token())
	}
	l.Load()
	if l.Token().Literal != "a" {
		t.Fatalf("after Load want a, got %s", l.Token())
	}

	l.Save()
	l.ReadToken()
	l.Save()
	l.ReadToken()
	l.Load() // back to b
	if l.Token().Literal != "b" {
		t.Fatalf("after nested Load want b, got %s", l.Token())
	}
	l.Drop() // commit to b
	l.ReadToken()
	if l.Token().Literal != "c" {
		t.Fatalf("after Drop want c, got %s", l.Token())
	}
}

func TestLoadDoesNotRepeatDiagnostics(t *testing.T) {
	var msgs diag.Messages
	l := lexer.New("test.neat", "a @ b", &msgs)
	l.Save()
	l.ReadToken()
	l.Load()
	l.ReadToken()
	if l.Token().Literal != "b" {
		t.Fatalf("want b, got %s", l.Token())
	}
	if msgs.Len() != 1 {
		t.Errorf("want 1 diagnostic, got %d", msgs.Len())
	}
}

func TestExpect(t *testing.T) {
	l := lexer.New("test.neat", "( x", nil)
	if l.ExpectLit(token.PAREN, ")") {
		t.Error("ExpectLit should not match ')'")
	}
	if !l.ExpectLit(token.PAREN, "(") {
		t.Error("ExpectLit should match '('")
	}
	if l.Expect(token.INT) {
		t.Error("Expect(INT) should not match IDENT")
	}
	if !l.Expect(token.IDENT) {
		t.Error("Expect(IDENT) should match")
	}
	if l.Token().Type != token.EOF {
		t.Errorf("want EOF, got %s", l.Token())
	}
	l.ReadToken()
	if l.Token().Type != token.EOF {
		t.Errorf("EOF should be sticky, got %s", l.Token())
	}
}

func TestLineInfo(t *testing.T) {
	l := lexer.New("pos.neat", "fn\n  main\n\t(", nil)
	want := []struct{ line, col int }{{1, 1}, {2, 3}, {3, 2}}
	for i, w := range want {
		p := l.LineInfo()
		if p.Line != w.line || p.Column != w.col {
			t.Errorf("token %d: got %d:%d, want %d:%d", i, p.Line, p.Column, w.line, w.col)
		}
		l.ReadToken()
	}
}

func TestTokensAreViews(t *testing.T) {
	src := "alpha beta"
	toks := lexer.New("test.neat", src, nil).Tokenize()
	for _, tok := range toks[:2] {
		if src[tok.Pos:int(tok.Pos)+len(tok.Literal)] != tok.Literal {
			t.Errorf("token %s does not match source at %d", tok, tok.Pos)
		}
	}
}

// ---------------------------------------------------------------------------
// Robustness
// ---------------------------------------------------------------------------

func TestFuzzNeverAborts(t *testing.T) {
	f := fuzz.New().NilChance(0)
	alphabet := "fn var if else while return{}();:,->+-*/=<>!@#$ \n\t/*01234abcXYZ_"
	for i := 0; i < 500; i++ {
		var raw []byte
		f.Fuzz(&raw)
		var b strings.Builder
		for _, c := range raw {
			b.WriteByte(alphabet[int(c)%len(alphabet)])
		}
		src := b.String()

		toks := lexer.New("fuzz.neat", src, &diag.Messages{}).Tokenize()
		if toks[len(toks)-1].Type != token.EOF {
			t.Fatalf("input %q: last token %s, want EOF", src, toks[len(toks)-1])
		}
		if len(toks) > len(src)+1 {
			t.Fatalf("input %q: %d tokens from %d bytes", src, len(toks), len(src))
		}
	}
}
