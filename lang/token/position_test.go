// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package token

import "testing"

func TestFilePosition(t *testing.T) {
	f := NewFile("a.neat", "fn f() {\n  return;\n}")
	tests := []struct {
		pos  Pos
		want string
	}{
		{0, "a.neat:1:1"},
		{3, "a.neat:1:4"},
		{11, "a.neat:2:3"},
		{100, "a.neat:3:2"},
		{NoPos, "a.neat"},
	}
	for _, tt := range tests {
		if got := f.Position(tt.pos).String(); got != tt.want {
			t.Errorf("Position(%d) = %q, want %q", tt.pos, got, tt.want)
		}
	}
}

func TestLookupIdent(t *testing.T) {
	if LookupIdent("while") != WHILE {
		t.Error("while is a keyword")
	}
	if LookupIdent("whilst") != IDENT {
		t.Error("whilst is an identifier")
	}
	if !BREAK.IsKeyword() || IDENT.IsKeyword() {
		t.Error("IsKeyword misclassifies tokens")
	}
}
