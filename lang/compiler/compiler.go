// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package compiler drives a compilation unit through the front end: parse,
// lower, verify, simplify and print. Printed output of successful
// compilations is cached by a digest of the configuration, unit name and
// source text.
package compiler

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/probechain/neatc/internal/cache"
	"github.com/probechain/neatc/internal/log"
	"github.com/probechain/neatc/lang/codegen"
	"github.com/probechain/neatc/lang/diag"
	"github.com/probechain/neatc/lang/interp"
	"github.com/probechain/neatc/lang/ir"
	"github.com/probechain/neatc/lang/parser"
	"github.com/probechain/neatc/lang/token"
)

// keyVersion changes whenever the printed form of a module changes, so
// stale disk cache entries are never served.
const keyVersion = 1

// ErrNoModule is returned by Run for a result that carries no module.
var ErrNoModule = errors.New("compiler: result has no module")

// Result is the outcome of compiling one unit.
type Result struct {
	Name        string
	Module      *ir.Module // nil when the result came from the cache
	Text        string
	Diagnostics *diag.Messages
	Cached      bool
}

// Err returns the recorded errors as a single error, or nil.
func (r *Result) Err() error { return r.Diagnostics.Err() }

// Compiler compiles units with a fixed configuration.
type Compiler struct {
	config Config
	cache  *cache.Cache // nil when caching is off
	log    log.Logger
}

// New creates a compiler. The cache is opened here; call Close when done.
func New(config Config) (*Compiler, error) {
	c := &Compiler{config: config, log: log.New("module", "compiler")}
	if config.CacheSize > 0 {
		ch, err := cache.New(config.CacheSize, config.CacheDir)
		if err != nil {
			return nil, err
		}
		c.cache = ch
	}
	return c, nil
}

// Config returns the compiler's configuration.
func (c *Compiler) Config() Config { return c.config }

// Close releases the cache.
func (c *Compiler) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}

// Key returns the cache key of a unit under cfg.
func Key(cfg Config, name, src string) []byte {
	h := sha3.New256()
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[:2], keyVersion)
	if cfg.Optimize {
		hdr[2] = 1
	}
	if cfg.Verify {
		hdr[3] = 1
	}
	h.Write(hdr[:])
	writeString(h, name)
	writeString(h, src)
	return h.Sum(nil)
}

func writeString(h io.Writer, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}

// Compile compiles src and returns its printed module. Results without
// errors are cached; a cached result has no Module. The error is non-nil
// only when ctx was cancelled.
func (c *Compiler) Compile(ctx context.Context, name, src string) (*Result, error) {
	var key []byte
	if c.cache != nil {
		key = Key(c.config, name, src)
		if text, err := c.cache.Get(key); err == nil {
			c.log.Debug("Cache hit", "unit", name, "key", shortKey(key))
			return &Result{Name: name, Text: string(text), Diagnostics: new(diag.Messages), Cached: true}, nil
		} else if err != cache.ErrNotFound {
			c.log.Warn("Cache read failed", "unit", name, "err", err)
		}
	}
	res, err := c.Build(ctx, name, src)
	if err != nil {
		return nil, err
	}
	if c.cache != nil && !res.Diagnostics.HasErrors() {
		if err := c.cache.Put(key, []byte(res.Text)); err != nil {
			c.log.Warn("Cache write failed", "unit", name, "err", err)
		}
	}
	return res, nil
}

// Build compiles src without consulting the cache.
func (c *Compiler) Build(ctx context.Context, name, src string) (*Result, error) {
	start := time.Now()
	res := &Result{Name: name}

	prog, msgs := parser.Parse(name, src)
	res.Diagnostics = msgs
	if prog == nil {
		c.log.Warn("Parse failed", "unit", name, "errors", msgs.Count(diag.Error))
		return res, nil
	}
	c.log.Debug("Parsed unit", "unit", name, "functions", len(prog.Functions))

	m, err := codegen.New(token.NewFile(name, src), msgs).Generate(ctx, prog)
	if err != nil {
		return nil, err
	}
	res.Module = m

	if c.config.Optimize {
		ir.Simplify(m)
		c.log.Debug("Simplified module", "unit", name)
	}
	if c.config.Verify {
		pos := token.Position{File: name}
		for _, e := range ir.Verify(m) {
			msgs.Errorf(pos, "%v", &e)
		}
	}
	res.Text = m.String()

	if n := msgs.Count(diag.Error); n > 0 {
		c.log.Warn("Compilation failed", "unit", name, "errors", n, "elapsed", time.Since(start))
	} else {
		c.log.Info("Compiled unit", "unit", name, "functions", len(m.Functions), "elapsed", time.Since(start))
	}
	return res, nil
}

// Run calls fn in the module of res with the configured step budget.
func (c *Compiler) Run(ctx context.Context, res *Result, fn string, args ...int64) (int64, error) {
	if res.Module == nil {
		return 0, ErrNoModule
	}
	vm := interp.New(res.Module, c.config.MaxSteps)
	v, err := vm.Call(ctx, fn, args...)
	c.log.Debug("Executed function", "unit", res.Name, "fn", fn, "steps", vm.Steps(), "err", err)
	return v, err
}

func shortKey(key []byte) string {
	if len(key) > 4 {
		key = key[:4]
	}
	return hex.EncodeToString(key)
}
