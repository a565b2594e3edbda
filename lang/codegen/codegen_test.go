// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package codegen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/neatc/lang/diag"
	"github.com/probechain/neatc/lang/interp"
	"github.com/probechain/neatc/lang/ir"
	"github.com/probechain/neatc/lang/parser"
	"github.com/probechain/neatc/lang/token"
)

const testFile = "test.neat"

func lower(t *testing.T, src string) (*ir.Module, *diag.Messages) {
	t.Helper()
	prog, msgs := parser.Parse(testFile, src)
	require.False(t, msgs.HasErrors(), "parse errors:\n%v", msgs.Err())
	m, err := New(token.NewFile(testFile, src), msgs).Generate(context.Background(), prog)
	require.NoError(t, err)
	return m, msgs
}

// mustLower lowers src and fails the test on any diagnostic or verifier
// complaint.
func mustLower(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, msgs := lower(t, src)
	require.False(t, msgs.HasErrors(), "lowering errors:\n%v", msgs.Err())
	require.Empty(t, ir.Verify(m), "module:\n%s", m)
	return m
}

// lowerError lowers src and returns the text of the first diagnostic.
func lowerError(t *testing.T, src string) (*ir.Module, string) {
	t.Helper()
	m, msgs := lower(t, src)
	require.True(t, msgs.HasErrors(), "expected a lowering error, module:\n%s", m)
	return m, msgs.All()[0].String()
}

func run(t *testing.T, src, fn string, args ...int64) int64 {
	t.Helper()
	m := mustLower(t, src)
	v, err := interp.New(m, 1_000_000).Call(context.Background(), fn, args...)
	require.NoError(t, err, "module:\n%s", m)
	return v
}

func TestLowerPrint(t *testing.T) {
	src := `fn f(a: int) -> int { return a; }`
	want := `; ModuleID = 'test.neat'

define i32 @f(i32 %a) {
entry:
  %a.addr = alloca i32
  store i32 %a, i32* %a.addr
  %0 = load i32, i32* %a.addr
  ret i32 %0
}
`
	assert.Equal(t, want, mustLower(t, src).String())
}

func TestLowerDeterministic(t *testing.T) {
	src := `
fn g(x: int) -> int { return x * 2; }
fn f(n: int) -> int {
	var s = 0;
	while n { s += g(n); n -= 1; }
	return s;
}`
	assert.Equal(t, mustLower(t, src).String(), mustLower(t, src).String())
}

func TestChainedAssignment(t *testing.T) {
	src := `fn f() -> int {
	var a = 0;
	var b = 0;
	a = b = 5;
	return a * 10 + b;
}`
	assert.EqualValues(t, 55, run(t, src, "f"))
}

func TestIncrementDecrement(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{"postfix", "var x = 1; var p = x++; var q = x++; return p*100 + q*10 + x;", 123},
		{"prefix", "var x = 1; var p = ++x; return p*10 + x;", 22},
		{"post-decrement", "var x = 5; var p = x--; return p*10 + x;", 54},
		{"pre-decrement", "var x = 5; return --x;", 4},
		{"compound", "var x = 7; x *= 3; x /= 2; x -= 1; return x;", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "fn f() -> int { " + tt.body + " }"
			assert.Equal(t, tt.want, run(t, src, "f"))
		})
	}
}

func TestArithmeticWraps(t *testing.T) {
	src := `fn f() -> int { var x = 2147483647; x += 1; return x; }`
	assert.EqualValues(t, -2147483648, run(t, src, "f"))
}

func TestComparisonWidened(t *testing.T) {
	src := `fn f(a: int) -> int { return a == 2; }`
	m := mustLower(t, src)
	assert.Contains(t, m.String(), "zext i1")
	assert.EqualValues(t, 1, run(t, src, "f", 2))
	assert.EqualValues(t, 0, run(t, src, "f", 3))
}

func TestNestedLoops(t *testing.T) {
	src := `fn f() -> int {
	var total = 0;
	var i = 3;
	while i {
		i -= 1;
		var j = 5;
		while j {
			j -= 1;
			if j == 2 { break; }
			total += 1;
		}
		if i == 1 { continue; }
		total += 100;
	}
	return total;
}`
	assert.EqualValues(t, 206, run(t, src, "f"))
}

func TestIfElse(t *testing.T) {
	src := `fn pick(x: int) -> int {
	var r = 0;
	if x == 3 { r = 30; } else { r = 10; }
	return r;
}
fn sign(x: int) -> int {
	if x { return 1; }
	return 0;
}`
	assert.EqualValues(t, 30, run(t, src, "pick", 3))
	assert.EqualValues(t, 10, run(t, src, "pick", 4))
	assert.EqualValues(t, 1, run(t, src, "sign", 7))
	assert.EqualValues(t, 0, run(t, src, "sign", 0))
}

func TestBothBranchesReturn(t *testing.T) {
	src := `fn f(a: int) -> int { if a { return 1; } else { return 2; } }`
	m := mustLower(t, src)
	fn := m.Lookup("f")

	var end *ir.Block
	for _, bb := range fn.Blocks {
		if bb.Label == "if.end" {
			end = bb
		}
	}
	require.NotNil(t, end, "module:\n%s", m)
	assert.Empty(t, end.Preds)
	assert.False(t, ir.Reachable(fn).Contains(end))

	vm := interp.New(m, 0)
	v, err := vm.Call(context.Background(), "f", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
	v, err = vm.Call(context.Background(), "f", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

func TestCodeAfterReturn(t *testing.T) {
	src := `fn f() -> int { return 1; var x = 2; }`
	m := mustLower(t, src)
	assert.Contains(t, m.String(), "\ndead:\n")

	ir.Simplify(m)
	require.Empty(t, ir.Verify(m))
	assert.NotContains(t, m.String(), "dead:")
}

func TestImplicitReturn(t *testing.T) {
	src := `fn f() -> int { } fn g() { }`
	m := mustLower(t, src)
	assert.Contains(t, m.String(), "ret i32 0")
	assert.Contains(t, m.String(), "ret void")
	assert.EqualValues(t, 0, run(t, src, "f"))
}

func TestForwardCallAndRecursion(t *testing.T) {
	src := `fn main() -> int { return fact(5); }
fn fact(n: int) -> int {
	if n == 0 { return 1; }
	return n * fact(n - 1);
}`
	assert.EqualValues(t, 120, run(t, src, "main"))
}

func TestUnnamedParameter(t *testing.T) {
	src := `fn second(int, b: int) -> int { return b; }
fn f() -> int { return second(1, 2); }`
	m := mustLower(t, src)
	assert.Contains(t, m.String(), "define i32 @second(i32 %arg0, i32 %b)")
	assert.EqualValues(t, 2, run(t, src, "f"))
}

func TestLowerErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"undefined", "fn f() -> int { return y; }",
			"test.neat:1:24: error: undefined: y"},
		{"redeclared in nested block", "fn f() { var x = 1; if 1 { var x = 2; } }",
			"test.neat:1:32: error: x redeclared"},
		{"redeclared parameter", "fn f(x: int) { var x = 1; }",
			"test.neat:1:20: error: x redeclared"},
		{"break outside loop", "fn f() { break; }",
			"test.neat:1:10: error: break is not in a loop"},
		{"continue outside loop", "fn f() { continue; }",
			"test.neat:1:10: error: continue is not in a loop"},
		{"arity", "fn g(a: int) -> int { return a; } fn f() -> int { return g(1, 2); }",
			"error: wrong number of arguments in call to g: have 2, want 1"},
		{"function redeclared", "fn f() { } fn f() { }",
			"test.neat:1:15: error: function f redeclared"},
		{"variable named like function", "fn g() { } fn f() { var g = 1; }",
			"test.neat:1:25: error: g is already declared as a function"},
		{"void value", "fn g() { } fn f() -> int { return g(); }",
			"(no value) used as a value"},
		{"function as value", "fn g() { } fn f() -> int { return g; }",
			"error: function g used as a value"},
		{"assign to literal", "fn f() { 1 = 2; }",
			"cannot assign to 1: not a variable"},
		{"increment function", "fn g() { } fn f() { g++; }",
			"cannot increment function g"},
		{"call non-function", "fn f() { var x = 1; x(); }",
			"cannot call non-function x"},
		{"missing return value", "fn f() -> int { return; }",
			"error: missing return value in function f returning int"},
		{"value from void", "fn f() { return 1; }",
			"error: function f returns no value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := lowerError(t, tt.src)
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestFailedFunctionKeepsDeclaration(t *testing.T) {
	src := `fn bad() -> int { return nope; }
fn good() -> int { return bad() + 1; }`
	m, msgs := lower(t, src)
	require.Equal(t, 1, msgs.Count(diag.Error))

	bad := m.Lookup("bad")
	require.NotNil(t, bad)
	assert.True(t, bad.IsDeclaration())
	assert.False(t, m.Lookup("good").IsDeclaration())
	assert.Empty(t, ir.Verify(m))
	assert.True(t, strings.Contains(m.String(), "declare i32 @bad()"))
}

func TestGenerateCancelled(t *testing.T) {
	src := `fn f() { } fn g() { }`
	prog, msgs := parser.Parse(testFile, src)
	require.False(t, msgs.HasErrors())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(token.NewFile(testFile, src), msgs).Generate(ctx, prog)
	assert.ErrorIs(t, err, context.Canceled)
}
