// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ir

import (
	"strings"
	"testing"

	"github.com/probechain/neatc/lang/types"
)

// buildAdd builds: define i32 @add(i32 %a, i32 %b) { return a + b }
func buildAdd(t *testing.T) (*Module, *Function) {
	t.Helper()
	m := NewModule("test")
	fn, ok := m.Declare("add", types.Int, []*Param{
		{Name: "a", Typ: types.Int},
		{Name: "b", Typ: types.Int},
	})
	if !ok {
		t.Fatal("Declare failed")
	}
	b := NewBuilder(m)
	b.StartFunction(fn)
	sa := b.EmitAlloca(types.Int, "a.addr")
	b.EmitStore(fn.Params[0], sa)
	sb := b.EmitAlloca(types.Int, "b.addr")
	b.EmitStore(fn.Params[1], sb)
	x := b.EmitLoad(sa)
	y := b.EmitLoad(sb)
	b.EmitReturn(b.EmitBinary(OpAdd, x, y))
	return m, fn
}

func TestBuilderBasic(t *testing.T) {
	m, fn := buildAdd(t)
	if len(m.Functions) != 1 || m.Lookup("add") != fn {
		t.Fatalf("expected module with function add, got %d functions", len(m.Functions))
	}
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(fn.Blocks))
	}
	entry := fn.Entry()
	if entry.Instructions[0].Op != OpAlloca || entry.Instructions[1].Op != OpAlloca {
		t.Errorf("allocas should lead the entry block:\n%s", entry)
	}
	if !entry.Sealed() {
		t.Error("entry should be sealed by the return")
	}
	if errs := Verify(m); len(errs) != 0 {
		t.Errorf("unexpected verify errors: %v", errs)
	}
}

func TestModulePrint(t *testing.T) {
	m, _ := buildAdd(t)
	want := `; ModuleID = 'test'

define i32 @add(i32 %a, i32 %b) {
entry:
  %a.addr = alloca i32
  %b.addr = alloca i32
  store i32 %a, i32* %a.addr
  store i32 %b, i32* %b.addr
  %0 = load i32, i32* %a.addr
  %1 = load i32, i32* %b.addr
  %2 = add i32 %0, %1
  ret i32 %2
}
`
	if got := m.String(); got != want {
		t.Errorf("module text mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestDeclareDuplicate(t *testing.T) {
	m := NewModule("test")
	if _, ok := m.Declare("f", types.Void, nil); !ok {
		t.Fatal("first Declare failed")
	}
	if _, ok := m.Declare("f", types.Int, nil); ok {
		t.Error("second Declare of f should fail")
	}
	f := m.Lookup("f")
	if !f.IsDeclaration() {
		t.Error("f has no body yet")
	}
	if got := f.String(); got != "declare void @f()\n" {
		t.Errorf("declaration text: got %q", got)
	}
	m.Remove(f)
	if m.Lookup("f") != nil || len(m.Functions) != 0 {
		t.Error("Remove should drop f")
	}
}

func TestUniqueNames(t *testing.T) {
	m := NewModule("test")
	fn, _ := m.Declare("f", types.Void, []*Param{{Name: "x", Typ: types.Int}, {Typ: types.Int}})
	b := NewBuilder(m)
	b.StartFunction(fn)
	s1 := b.EmitAlloca(types.Int, "x")
	s2 := b.EmitAlloca(types.Int, "x")
	if fn.Params[0].Ident() != "%x" || fn.Params[1].Ident() != "%arg1" {
		t.Errorf("param idents: %s %s", fn.Params[0].Ident(), fn.Params[1].Ident())
	}
	if s1.Ident() != "%x1" || s2.Ident() != "%x2" {
		t.Errorf("slot idents: %s %s", s1.Ident(), s2.Ident())
	}
	b1 := b.NewBlock("loop")
	b2 := b.NewBlock("loop")
	if b1.Label != "loop" || b2.Label != "loop1" {
		t.Errorf("labels: %s %s", b1.Label, b2.Label)
	}
}

func TestBuilderControlFlow(t *testing.T) {
	m := NewModule("test")
	fn, _ := m.Declare("abs", types.Int, []*Param{{Name: "x", Typ: types.Int}})
	b := NewBuilder(m)

	entry := b.StartFunction(fn)
	thenBlk := b.NewBlock("then")
	elseBlk := b.NewBlock("else")

	cmp := b.EmitICmp(OpICmpEQ, fn.Params[0], NewInt(types.Int, 0))
	b.EmitCondBranch(cmp, thenBlk, elseBlk)

	b.SetBlock(thenBlk)
	b.EmitReturn(b.EmitNeg(fn.Params[0]))

	b.SetBlock(elseBlk)
	b.EmitReturn(fn.Params[0])

	if len(entry.Succs) != 2 {
		t.Errorf("entry should have 2 successors, got %d", len(entry.Succs))
	}
	if len(thenBlk.Preds) != 1 || thenBlk.Preds[0] != entry {
		t.Error("then block should have entry as predecessor")
	}
	if errs := Verify(m); len(errs) != 0 {
		t.Errorf("unexpected verify errors: %v", errs)
	}
}

func TestBuilderDeadBlock(t *testing.T) {
	m := NewModule("test")
	fn, _ := m.Declare("f", types.Int, nil)
	b := NewBuilder(m)
	entry := b.StartFunction(fn)

	b.EmitReturn(NewInt(types.Int, 1))
	sum := b.EmitBinary(OpAdd, NewInt(types.Int, 2), NewInt(types.Int, 3))
	b.EmitReturn(sum)

	if len(entry.Instructions) != 0 {
		t.Errorf("entry got instructions after its return:\n%s", entry)
	}
	if len(fn.Blocks) != 2 {
		t.Fatalf("expected a dead block, got %d blocks", len(fn.Blocks))
	}
	dead := fn.Blocks[1]
	if dead.Label != "dead" || len(dead.Preds) != 0 || sum.Block != dead {
		t.Errorf("dead block not set up:\n%s", dead)
	}
	if Reachable(fn).Contains(dead) {
		t.Error("dead block should be unreachable")
	}
}

// ---------------------------------------------------------------------------
// Verifier
// ---------------------------------------------------------------------------

func TestVerifyMissingTerminator(t *testing.T) {
	m := NewModule("test")
	fn, _ := m.Declare("f", types.Void, nil)
	b := NewBuilder(m)
	b.StartFunction(fn)
	b.NewBlock("orphan")
	b.EmitReturn(nil)

	errs := Verify(m)
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %v", errs)
	}
	if errs[0].Block != "orphan" || !strings.Contains(errs[0].Message, "no terminator") {
		t.Errorf("unexpected error: %v", errs[0].Error())
	}
}

func TestVerifyTypeErrors(t *testing.T) {
	m := NewModule("test")
	callee, _ := m.Declare("g", types.Int, []*Param{{Name: "x", Typ: types.Int}})
	gb := NewBuilder(m)
	gb.StartFunction(callee)
	gb.EmitReturn(callee.Params[0])

	fn, _ := m.Declare("f", types.Int, nil)
	b := NewBuilder(m)
	b.StartFunction(fn)
	b.EmitCall(callee)
	b.EmitCondBranch(NewInt(types.Int, 1), fn.Entry(), fn.Entry())

	var msgs []string
	for _, e := range Verify(m) {
		msgs = append(msgs, e.Message)
	}
	joined := strings.Join(msgs, "\n")
	for _, want := range []string{"with 0 arguments, want 1", "branch condition of type int"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}

func TestVerifyReturnType(t *testing.T) {
	m := NewModule("test")
	fn, _ := m.Declare("f", types.Int, nil)
	b := NewBuilder(m)
	b.StartFunction(fn)
	b.EmitReturn(nil)

	errs := VerifyFunction(fn)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "ret void") {
		t.Errorf("want ret void error, got %v", errs)
	}
}

// ---------------------------------------------------------------------------
// Simplification
// ---------------------------------------------------------------------------

func TestFoldConstants(t *testing.T) {
	m := NewModule("test")
	fn, _ := m.Declare("f", types.Int, nil)
	b := NewBuilder(m)
	b.StartFunction(fn)
	two, three := NewInt(types.Int, 2), NewInt(types.Int, 3)
	prod := b.EmitBinary(OpMul, three, NewInt(types.Int, 4))
	sum := b.EmitBinary(OpAdd, two, prod)
	b.EmitReturn(sum)

	if n := FoldConstants(fn); n != 2 {
		t.Errorf("want 2 folds, got %d", n)
	}
	ret := fn.Entry().Terminator.(*TermReturn)
	c, ok := ret.Value.(*Const)
	if !ok || c.Val != 14 {
		t.Errorf("want ret i32 14, got %s", ret)
	}
	if len(fn.Entry().Instructions) != 0 {
		t.Errorf("folded instructions should be removed:\n%s", fn.Entry())
	}
}

func TestFoldKeepsDivisionByZero(t *testing.T) {
	m := NewModule("test")
	fn, _ := m.Declare("f", types.Int, nil)
	b := NewBuilder(m)
	b.StartFunction(fn)
	b.EmitReturn(b.EmitBinary(OpSDiv, NewInt(types.Int, 1), NewInt(types.Int, 0)))
	if n := FoldConstants(fn); n != 0 {
		t.Errorf("division by zero must not fold, got %d folds", n)
	}
}

func TestEvalWraps(t *testing.T) {
	tests := []struct {
		op   Op
		x, y int64
		want int64
	}{
		{OpAdd, 2147483647, 1, -2147483648},
		{OpSub, -2147483648, 1, 2147483647},
		{OpMul, 65536, 65536, 0},
		{OpSDiv, -7, 2, -3},
		{OpSDiv, -2147483648, -1, -2147483648},
		{OpICmpEQ, 3, 3, 1},
		{OpICmpNE, 3, 3, 0},
	}
	for _, tt := range tests {
		got, ok := Eval(tt.op, types.Int, tt.x, tt.y)
		if !ok || got != tt.want {
			t.Errorf("%s %d, %d = %d (%v), want %d", tt.op, tt.x, tt.y, got, ok, tt.want)
		}
	}
}

func TestSimplifyPrunesAndMerges(t *testing.T) {
	m := NewModule("test")
	fn, _ := m.Declare("f", types.Int, []*Param{{Name: "x", Typ: types.Int}})
	b := NewBuilder(m)
	b.StartFunction(fn)

	next := b.NewBlock("next")
	unused := b.NewBlock("unused")
	b.EmitBranch(next)

	b.SetBlock(unused)
	b.EmitBranch(next)

	b.SetBlock(next)
	b.EmitReturn(fn.Params[0])

	if !SimplifyFunction(fn) {
		t.Fatal("SimplifyFunction reported no change")
	}
	if len(fn.Blocks) != 1 {
		t.Fatalf("want a single block, got:\n%s", fn)
	}
	if _, ok := fn.Entry().Terminator.(*TermReturn); !ok {
		t.Errorf("entry should end in the merged return:\n%s", fn)
	}
	if errs := VerifyFunction(fn); len(errs) != 0 {
		t.Errorf("simplified function does not verify: %v", errs)
	}
}

func TestSimplifyConstantBranch(t *testing.T) {
	m := NewModule("test")
	fn, _ := m.Declare("f", types.Int, nil)
	b := NewBuilder(m)
	b.StartFunction(fn)
	yes := b.NewBlock("yes")
	no := b.NewBlock("no")
	cond := b.EmitICmp(OpICmpNE, NewInt(types.Int, 5), NewInt(types.Int, 0))
	b.EmitCondBranch(cond, yes, no)
	b.SetBlock(yes)
	b.EmitReturn(NewInt(types.Int, 1))
	b.SetBlock(no)
	b.EmitReturn(NewInt(types.Int, 0))

	Simplify(m)
	want := "define i32 @f() {\nentry:\n  ret i32 1\n}\n"
	if got := fn.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
