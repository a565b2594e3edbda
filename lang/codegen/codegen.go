// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package codegen lowers a neat AST into the control-flow graph of package ir.
//
// Lowering works in two passes. The first declares every function signature
// in the module so calls can refer to functions defined later in the file.
// The second lowers each body with one insertion point and a chain of
// scopes. A failure aborts only the function it occurs in: the failure is
// reported with its source position and the function is left as a bodiless
// declaration.
package codegen

import (
	"context"
	"fmt"

	"github.com/probechain/neatc/lang/ast"
	"github.com/probechain/neatc/lang/diag"
	"github.com/probechain/neatc/lang/ir"
	"github.com/probechain/neatc/lang/scope"
	"github.com/probechain/neatc/lang/token"
	"github.com/probechain/neatc/lang/types"
)

// Error is a lowering failure at a source position.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func errorf(pos token.Pos, format string, args ...interface{}) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Generator translates an AST to IR.
type Generator struct {
	file   *token.File
	msgs   *diag.Messages
	module *ir.Module
	b      *ir.Builder

	fn   *ir.Function // function being lowered
	decl *ast.Function
}

// New creates a generator for a program parsed from file. Lowering errors
// are recorded in msgs.
func New(file *token.File, msgs *diag.Messages) *Generator {
	m := ir.NewModule(file.Name)
	return &Generator{
		file:   file,
		msgs:   msgs,
		module: m,
		b:      ir.NewBuilder(m),
	}
}

// Module returns the module being generated.
func (g *Generator) Module() *ir.Module { return g.module }

type pending struct {
	fn   *ir.Function
	decl *ast.Function
}

// Generate lowers prog. Lowering errors do not make Generate fail; they are
// recorded as diagnostics and the affected functions are left without a
// body. A non-nil error means ctx was cancelled between two functions.
func (g *Generator) Generate(ctx context.Context, prog *ast.Program) (*ir.Module, error) {
	var work []pending
	for _, decl := range prog.Functions {
		params := make([]*ir.Param, len(decl.Params))
		for i, p := range decl.Params {
			params[i] = &ir.Param{Name: p.Name, Typ: p.Type}
		}
		fn, ok := g.module.Declare(decl.Name, decl.ReturnType, params)
		if !ok {
			g.report(errorf(decl.NameToken.Pos, "function %s redeclared", decl.Name))
			continue
		}
		work = append(work, pending{fn: fn, decl: decl})
	}

	for _, w := range work {
		if err := ctx.Err(); err != nil {
			return g.module, err
		}
		if err := g.lowerFunction(w.fn, w.decl); err != nil {
			g.report(err)
			w.fn.Discard()
		}
	}
	return g.module, nil
}

func (g *Generator) report(err error) {
	pos := token.NoPos
	if e, ok := err.(*Error); ok {
		pos = e.Pos
	}
	g.msgs.Errorf(g.file.Position(pos), "%v", err)
}

// ---------------------------------------------------------------------------
// Functions and statements
// ---------------------------------------------------------------------------

func (g *Generator) lowerFunction(fn *ir.Function, decl *ast.Function) error {
	g.fn, g.decl = fn, decl
	g.b.StartFunction(fn)

	sc := scope.New()
	for i, p := range decl.Params {
		if p.Name == "" {
			continue
		}
		if err := g.checkNotFunction(p.Token.Pos, p.Name); err != nil {
			return err
		}
		slot := g.b.EmitAlloca(p.Type, p.Name+".addr")
		g.b.EmitStore(fn.Params[i], slot)
		if !sc.Define(p.Name, slot) {
			return errorf(p.Token.Pos, "duplicate parameter %s", p.Name)
		}
	}

	body := sc.Derive()
	if err := g.lowerBlock(body, decl.Body); err != nil {
		return err
	}

	if !g.b.Sealed() {
		if fn.ReturnType.IsVoid() {
			g.b.EmitReturn(nil)
		} else {
			g.b.EmitReturn(ir.NewInt(fn.ReturnType, 0))
		}
	}
	return nil
}

func (g *Generator) lowerBlock(sc *scope.Scope, stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := g.lowerStatement(sc, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) lowerStatement(sc *scope.Scope, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return g.lowerVar(sc, s)
	case *ast.ExpressionStmt:
		_, err := g.expr(sc, s.Expr)
		return err
	case *ast.IfStmt:
		return g.lowerIf(sc, s)
	case *ast.WhileStmt:
		return g.lowerWhile(sc, s)
	case *ast.ReturnStmt:
		return g.lowerReturn(sc, s)
	case *ast.BreakStmt:
		loop := sc.Block()
		if loop == nil {
			return errorf(s.Pos(), "break is not in a loop")
		}
		g.b.EmitBranch(loop.Break)
		return nil
	case *ast.ContinueStmt:
		loop := sc.Block()
		if loop == nil {
			return errorf(s.Pos(), "continue is not in a loop")
		}
		g.b.EmitBranch(loop.Continue)
		return nil
	}
	return errorf(stmt.Pos(), "unsupported statement %T", stmt)
}

// lowerVar allocates an int slot, stores the initializer and binds the
// name. The initializer is evaluated before the name is bound.
func (g *Generator) lowerVar(sc *scope.Scope, s *ast.VarDecl) error {
	if err := g.checkNotFunction(s.NameToken.Pos, s.Name); err != nil {
		return err
	}
	if sc.Has(s.Name) {
		return errorf(s.NameToken.Pos, "%s redeclared", s.Name)
	}
	init, err := g.value(sc, s.Init)
	if err != nil {
		return err
	}
	init, err = g.convert(s.Init.Pos(), init, types.Int)
	if err != nil {
		return err
	}
	slot := g.b.EmitAlloca(types.Int, s.Name)
	g.b.EmitStore(init, slot)
	sc.Define(s.Name, slot)
	return nil
}

func (g *Generator) lowerIf(sc *scope.Scope, s *ast.IfStmt) error {
	cond, err := g.condition(sc, s.Cond)
	if err != nil {
		return err
	}
	then := g.b.CreateBlock("if.then")
	var els *ir.Block
	if s.Else != nil {
		els = g.b.CreateBlock("if.else")
	}
	end := g.b.CreateBlock("if.end")
	if els != nil {
		g.b.EmitCondBranch(cond, then, els)
	} else {
		g.b.EmitCondBranch(cond, then, end)
	}

	g.b.InsertBlock(then)
	if err := g.lowerBlock(sc.Derive(), s.Then); err != nil {
		return err
	}
	if !g.b.Sealed() {
		g.b.EmitBranch(end)
	}

	if els != nil {
		g.b.InsertBlock(els)
		if err := g.lowerBlock(sc.Derive(), s.Else); err != nil {
			return err
		}
		if !g.b.Sealed() {
			g.b.EmitBranch(end)
		}
	}

	// When both branches return, end has no predecessors; it still becomes
	// the insertion point so later statements land in unreachable code.
	g.b.InsertBlock(end)
	return nil
}

func (g *Generator) lowerWhile(sc *scope.Scope, s *ast.WhileStmt) error {
	start := g.b.CreateBlock("while.cond")
	body := g.b.CreateBlock("while.body")
	end := g.b.CreateBlock("while.end")

	g.b.EmitBranch(start)
	g.b.InsertBlock(start)
	cond, err := g.condition(sc, s.Cond)
	if err != nil {
		return err
	}
	g.b.EmitCondBranch(cond, body, end)

	g.b.InsertBlock(body)
	if err := g.lowerBlock(sc.DeriveLoop(start, end), s.Body); err != nil {
		return err
	}
	if !g.b.Sealed() {
		g.b.EmitBranch(start)
	}

	g.b.InsertBlock(end)
	return nil
}

func (g *Generator) lowerReturn(sc *scope.Scope, s *ast.ReturnStmt) error {
	want := g.fn.ReturnType
	if s.Value == nil {
		if !want.IsVoid() {
			return errorf(s.Pos(), "missing return value in function %s returning %s", g.fn.Name, want)
		}
		g.b.EmitReturn(nil)
		return nil
	}
	if want.IsVoid() {
		return errorf(s.Value.Pos(), "function %s returns no value", g.fn.Name)
	}
	v, err := g.value(sc, s.Value)
	if err != nil {
		return err
	}
	if v, err = g.convert(s.Value.Pos(), v, want); err != nil {
		return err
	}
	g.b.EmitReturn(v)
	return nil
}

// condition evaluates e and compares it against zero of the same width.
func (g *Generator) condition(sc *scope.Scope, e ast.Expression) (ir.Value, error) {
	v, err := g.value(sc, e)
	if err != nil {
		return nil, err
	}
	if !v.Type().IsInteger() {
		return nil, errorf(e.Pos(), "condition has non-integer type %s", v.Type())
	}
	return g.b.EmitICmp(ir.OpICmpNE, v, ir.NewInt(v.Type(), 0)), nil
}

func (g *Generator) checkNotFunction(pos token.Pos, name string) error {
	if g.module.Lookup(name) != nil {
		return errorf(pos, "%s is already declared as a function", name)
	}
	return nil
}
