// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package compiler

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/neatc/lang/interp"
)

const factSrc = `fn fact(n: int) -> int {
	if n == 0 { return 1; }
	return n * fact(n - 1);
}`

func newCompiler(t *testing.T, cfg Config) *Compiler {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestBuildAndRun(t *testing.T) {
	c := newCompiler(t, Defaults)
	res, err := c.Build(context.Background(), "fact.neat", factSrc)
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.Contains(t, res.Text, "define i32 @fact(i32 %n)")

	v, err := c.Run(context.Background(), res, "fact", 6)
	require.NoError(t, err)
	assert.EqualValues(t, 720, v)
}

func TestCompileCaches(t *testing.T) {
	c := newCompiler(t, Defaults)
	ctx := context.Background()

	first, err := c.Compile(ctx, "fact.neat", factSrc)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := c.Compile(ctx, "fact.neat", factSrc)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Nil(t, second.Module)
	assert.Equal(t, first.Text, second.Text)

	_, err = c.Run(ctx, second, "fact", 3)
	assert.ErrorIs(t, err, ErrNoModule)
}

func TestCompileErrorsNotCached(t *testing.T) {
	c := newCompiler(t, Defaults)
	ctx := context.Background()
	src := `fn f() -> int { return y; }`

	for i := 0; i < 2; i++ {
		res, err := c.Compile(ctx, "bad.neat", src)
		require.NoError(t, err)
		assert.False(t, res.Cached)
		assert.EqualError(t, res.Err(), "bad.neat:1:24: error: undefined: y")
	}
}

func TestSyntaxError(t *testing.T) {
	c := newCompiler(t, Config{Verify: true})
	res, err := c.Build(context.Background(), "bad.neat", "fn f( { }")
	require.NoError(t, err)
	assert.Nil(t, res.Module)
	assert.Empty(t, res.Text)
	assert.Error(t, res.Err())
}

func TestOptimize(t *testing.T) {
	src := `fn f() -> int { return 2 + 3 * 4; var x = 1; }`
	plain := newCompiler(t, Config{Verify: true})
	opt := newCompiler(t, Config{Verify: true, Optimize: true})
	ctx := context.Background()

	a, err := plain.Build(ctx, "f.neat", src)
	require.NoError(t, err)
	b, err := opt.Build(ctx, "f.neat", src)
	require.NoError(t, err)
	require.NoError(t, b.Err())

	assert.Contains(t, a.Text, "dead:")
	assert.NotContains(t, b.Text, "dead:")
	assert.Contains(t, b.Text, "ret i32 14")
}

func TestKey(t *testing.T) {
	k := Key(Defaults, "a.neat", "fn f() { }")
	assert.Len(t, k, 32)
	assert.True(t, bytes.Equal(k, Key(Defaults, "a.neat", "fn f() { }")))

	opt := Defaults
	opt.Optimize = true
	assert.False(t, bytes.Equal(k, Key(opt, "a.neat", "fn f() { }")))
	assert.False(t, bytes.Equal(k, Key(Defaults, "b.neat", "fn f() { }")))
	// Length prefixes keep the name/source boundary unambiguous.
	assert.False(t, bytes.Equal(Key(Defaults, "ab", "c"), Key(Defaults, "a", "bc")))
}

func TestRunStepLimit(t *testing.T) {
	src := `fn spin() -> int { while 1 { } return 0; }`
	c := newCompiler(t, Config{Verify: true, MaxSteps: 1000})
	res, err := c.Build(context.Background(), "spin.neat", src)
	require.NoError(t, err)
	require.NoError(t, res.Err())

	_, err = c.Run(context.Background(), res, "spin")
	assert.True(t, errors.Is(err, interp.ErrStepLimit), "got %v", err)
}

func TestCancelled(t *testing.T) {
	c := newCompiler(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Compile(ctx, "fact.neat", factSrc)
	assert.ErrorIs(t, err, context.Canceled)
}
