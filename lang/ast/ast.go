// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ast defines the Abstract Syntax Tree for the neat language.
//
// Design overview:
//
//   - All AST nodes implement the Node interface via Pos and String.
//   - Expressions and Statements each have a marker interface that embeds
//     Node to enable type-safe dispatch with a type switch.
//   - Every node exclusively owns its children. Subtrees are never shared.
//   - The tree is position-annotated via token.Token so lowering errors can
//     reference source locations.
package ast

import (
	"bytes"
	"strings"

	"github.com/probechain/neatc/lang/token"
	"github.com/probechain/neatc/lang/types"
)

// ---------------------------------------------------------------------------
// Core interfaces
// ---------------------------------------------------------------------------

// Node is the base interface that every AST node must implement.
type Node interface {
	// Pos returns the source offset of the token that originated this node.
	Pos() token.Pos

	// String returns a human-readable, parenthesised representation of the
	// node suitable for unit tests and debug output.
	String() string
}

// Expression is a marker interface for all expression nodes.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a marker interface for all statement nodes.
type Statement interface {
	Node
	statementNode()
}

// ---------------------------------------------------------------------------
// Program and functions
// ---------------------------------------------------------------------------

// Program is the root of every parse tree: the ordered top-level items of a
// compilation unit.
type Program struct {
	Functions []*Function
}

func (p *Program) Pos() token.Pos {
	if len(p.Functions) > 0 {
		return p.Functions[0].Pos()
	}
	return token.NoPos
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, f := range p.Functions {
		out.WriteString(f.String())
		out.WriteByte('\n')
	}
	return out.String()
}

// Param is a single (name, type) pair of a function signature. Name is empty
// for an unnamed parameter slot.
type Param struct {
	Token token.Token // the first IDENT of the parameter
	Name  string
	Type  types.Type
}

func (p Param) String() string {
	if p.Name == "" {
		return p.Type.String()
	}
	return p.Name + ": " + p.Type.String()
}

// Function is a top-level function definition.
type Function struct {
	Token      token.Token // 'fn'
	Name       string
	NameToken  token.Token
	Params     []Param
	ReturnType types.Type // types.Void when no "->" clause was written
	Body       []Statement
}

func (f *Function) Pos() token.Pos { return f.Token.Pos }
func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	s := "fn " + f.Name + "(" + strings.Join(params, ", ") + ")"
	if !f.ReturnType.IsVoid() {
		s += " -> " + f.ReturnType.String()
	}
	return s + " " + blockString(f.Body)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// VarDecl declares and initializes a local: var name = init;
type VarDecl struct {
	Token     token.Token // 'var'
	Name      string
	NameToken token.Token
	Init      Expression
}

func (s *VarDecl) statementNode() {}
func (s *VarDecl) Pos() token.Pos { return s.Token.Pos }
func (s *VarDecl) String() string {
	return "var " + s.Name + " = " + s.Init.String() + ";"
}

// ExpressionStmt evaluates an expression for its side effects.
type ExpressionStmt struct {
	Expr Expression
}

func (s *ExpressionStmt) statementNode() {}
func (s *ExpressionStmt) Pos() token.Pos { return s.Expr.Pos() }
func (s *ExpressionStmt) String() string { return s.Expr.String() + ";" }

// IfStmt is: if cond { then } [else { else }]
type IfStmt struct {
	Token token.Token // 'if'
	Cond  Expression
	Then  []Statement
	Else  []Statement
}

func (s *IfStmt) statementNode() {}
func (s *IfStmt) Pos() token.Pos { return s.Token.Pos }
func (s *IfStmt) String() string {
	out := "if " + s.Cond.String() + " " + blockString(s.Then)
	if len(s.Else) > 0 {
		out += " else " + blockString(s.Else)
	}
	return out
}

// WhileStmt is: while cond { body }
type WhileStmt struct {
	Token token.Token // 'while'
	Cond  Expression
	Body  []Statement
}

func (s *WhileStmt) statementNode() {}
func (s *WhileStmt) Pos() token.Pos { return s.Token.Pos }
func (s *WhileStmt) String() string {
	return "while " + s.Cond.String() + " " + blockString(s.Body)
}

// ReturnStmt is: return [value];
type ReturnStmt struct {
	Token token.Token // 'return'
	Value Expression  // nil for a bare return
}

func (s *ReturnStmt) statementNode() {}
func (s *ReturnStmt) Pos() token.Pos { return s.Token.Pos }
func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return;"
	}
	return "return " + s.Value.String() + ";"
}

// BreakStmt leaves the innermost enclosing loop.
type BreakStmt struct {
	Token token.Token
}

func (s *BreakStmt) statementNode() {}
func (s *BreakStmt) Pos() token.Pos { return s.Token.Pos }
func (s *BreakStmt) String() string { return "break;" }

// ContinueStmt jumps to the condition of the innermost enclosing loop.
type ContinueStmt struct {
	Token token.Token
}

func (s *ContinueStmt) statementNode() {}
func (s *ContinueStmt) Pos() token.Pos { return s.Token.Pos }
func (s *ContinueStmt) String() string { return "continue;" }

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// IntegerLiteral is a decimal integer constant.
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (e *IntegerLiteral) expressionNode() {}
func (e *IntegerLiteral) Pos() token.Pos  { return e.Token.Pos }
func (e *IntegerLiteral) String() string  { return e.Token.Literal }

// Variable references a named local, parameter or function.
type Variable struct {
	Token token.Token
	Name  string
}

func (e *Variable) expressionNode() {}
func (e *Variable) Pos() token.Pos  { return e.Token.Pos }
func (e *Variable) String() string  { return e.Name }

// UnaryExpr is a prefix operation (+x, -x, ++x, --x) or a postfix
// increment or decrement (x++, x--).
type UnaryExpr struct {
	Token   token.Token // the operator
	Op      UnaryOp
	Operand Expression
}

func (e *UnaryExpr) expressionNode() {}
func (e *UnaryExpr) Pos() token.Pos  { return e.Token.Pos }
func (e *UnaryExpr) String() string {
	if e.Op.IsPostfix() {
		return "(" + e.Operand.String() + e.Op.String() + ")"
	}
	return "(" + e.Op.String() + e.Operand.String() + ")"
}

// BinaryExpr is an infix operation.
type BinaryExpr struct {
	Token token.Token // the operator
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (e *BinaryExpr) expressionNode() {}
func (e *BinaryExpr) Pos() token.Pos  { return e.Token.Pos }
func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

// CallExpr applies a callee expression to arguments.
type CallExpr struct {
	Token  token.Token // '('
	Callee Expression
	Args   []Expression
}

func (e *CallExpr) expressionNode() {}
func (e *CallExpr) Pos() token.Pos  { return e.Token.Pos }
func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

func blockString(stmts []Statement) string {
	if len(stmts) == 0 {
		return "{ }"
	}
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}
