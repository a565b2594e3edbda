// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package parser implements a recursive-descent / precedence-climbing parser
// for the neat language.
//
// Design overview:
//
//   - Declarations and statements are parsed with straightforward recursive
//     descent. Every production either consumes its whole grammar and returns
//     a node, consumes nothing and returns no node ("no match"), or reports
//     a diagnostic and fails.
//   - Expressions are parsed by precedence climbing over a numeric table in
//     which the parity of a precedence encodes associativity.
//   - There is no error recovery: the first syntax error aborts the parse.
package parser

import (
	"fmt"
	"strconv"

	"github.com/probechain/neatc/lang/ast"
	"github.com/probechain/neatc/lang/diag"
	"github.com/probechain/neatc/lang/lexer"
	"github.com/probechain/neatc/lang/token"
	"github.com/probechain/neatc/lang/types"
)

// ---------------------------------------------------------------------------
// Precedence table
// ---------------------------------------------------------------------------

// binaryPrecedence gives each infix operator its binding power. A higher
// number binds tighter. An even number groups left-to-right, an odd number
// groups right-to-left.
var binaryPrecedence = map[ast.BinaryOp]int{
	ast.Mul:       40,
	ast.Div:       40,
	ast.Add:       20,
	ast.Sub:       20,
	ast.Eq:        10,
	ast.Assign:    5,
	ast.AddAssign: 5,
	ast.SubAssign: 5,
	ast.MulAssign: 5,
	ast.DivAssign: 5,
}

// precedenceOf returns the binding power of tok as an infix operator, or -1
// when tok is not one.
func precedenceOf(tok token.Token) int {
	if tok.Type != token.OPER {
		return -1
	}
	op, ok := ast.LookupBinary(tok.Literal)
	if !ok {
		return -1
	}
	return binaryPrecedence[op]
}

func rightAssoc(prec int) bool { return prec%2 == 1 }

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the mutable state for a single parse run.
type Parser struct {
	lex  *lexer.Lexer
	msgs *diag.Messages
}

func newParser(filename, source string) *Parser {
	msgs := new(diag.Messages)
	return &Parser{
		lex:  lexer.New(filename, source, msgs),
		msgs: msgs,
	}
}

// Parse is the public entry point. It returns the program AST, or nil when
// a syntax error was found, together with every lexical and syntactic
// diagnostic.
func Parse(filename, source string) (*ast.Program, *diag.Messages) {
	p := newParser(filename, source)
	prog, ok := p.parseProgram()
	if !ok {
		return nil, p.msgs
	}
	return prog, p.msgs
}

// ParseExpression parses source as a single expression followed by the end
// of input.
func ParseExpression(filename, source string) (ast.Expression, *diag.Messages) {
	p := newParser(filename, source)
	expr, ok := p.parseExpression()
	if !ok {
		return nil, p.msgs
	}
	if expr == nil {
		p.unexpected("expression")
		return nil, p.msgs
	}
	if !p.expect(token.EOF, "", "end of input") {
		return nil, p.msgs
	}
	return expr, p.msgs
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

func (p *Parser) cur() token.Token { return p.lex.Token() }

func (p *Parser) next() { p.lex.ReadToken() }

// expect consumes the current token if it matches typ (and lit, when lit is
// not empty). Otherwise it reports what was wanted and returns false.
func (p *Parser) expect(typ token.Type, lit, want string) bool {
	if lit != "" && p.lex.ExpectLit(typ, lit) {
		return true
	}
	if lit == "" && p.lex.Expect(typ) {
		return true
	}
	p.unexpected(want)
	return false
}

// unexpected reports the current token as a syntax error.
func (p *Parser) unexpected(want string) {
	p.errorf("unexpected %s, expected %s", describe(p.cur()), want)
}

// errorf records a syntax error at the current token.
func (p *Parser) errorf(format string, args ...interface{}) {
	p.msgs.Errorf(p.lex.LineInfo(), format, args...)
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case token.INT:
		return fmt.Sprintf("integer %s", tok.Literal)
	}
	return fmt.Sprintf("%q", tok.Literal)
}

// ---------------------------------------------------------------------------
// program = function* EOF ;
// ---------------------------------------------------------------------------

func (p *Parser) parseProgram() (*ast.Program, bool) {
	prog := &ast.Program{}
	for {
		fn, ok := p.parseFunction()
		if !ok {
			return nil, false
		}
		if fn == nil {
			break
		}
		prog.Functions = append(prog.Functions, fn)
	}
	if !p.expect(token.EOF, "", "'fn' or end of input") {
		return nil, false
	}
	return prog, true
}

// ---------------------------------------------------------------------------
// function = "fn" IDENT "(" params? ")" ("->" TYPE)? "{" stmt* "}" ;
// ---------------------------------------------------------------------------

func (p *Parser) parseFunction() (*ast.Function, bool) {
	fnTok := p.cur()
	if !p.lex.Expect(token.FN) {
		return nil, true
	}

	nameTok := p.cur()
	if !p.expect(token.IDENT, "", "function name") {
		return nil, false
	}
	fn := &ast.Function{
		Token:      fnTok,
		Name:       nameTok.Literal,
		NameToken:  nameTok,
		ReturnType: types.Void,
	}

	if !p.expect(token.PAREN, "(", "'('") {
		return nil, false
	}
	if !p.cur().Is(token.PAREN, ")") {
		for {
			param, ok := p.parseParam()
			if !ok {
				return nil, false
			}
			fn.Params = append(fn.Params, param)
			if !p.lex.Expect(token.COMMA) {
				break
			}
		}
	}
	if !p.expect(token.PAREN, ")", "',' or ')'") {
		return nil, false
	}

	if p.lex.Expect(token.ARROW) {
		typ, ok := p.parseType()
		if !ok {
			return nil, false
		}
		fn.ReturnType = typ
	}

	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	fn.Body = body
	return fn, true
}

// parseParam parses "IDENT [ ':' TYPE ]". Without a colon the identifier is
// the type of an unnamed parameter slot.
func (p *Parser) parseParam() (ast.Param, bool) {
	first := p.cur()
	if first.Type != token.IDENT {
		p.unexpected("parameter")
		return ast.Param{}, false
	}
	p.lex.Save()
	p.next()
	if !p.lex.Expect(token.COLON) {
		p.lex.Load()
		typ, ok := p.parseType()
		return ast.Param{Token: first, Type: typ}, ok
	}
	p.lex.Drop()
	typ, ok := p.parseType()
	return ast.Param{Token: first, Name: first.Literal, Type: typ}, ok
}

// parseType resolves a type name. Unknown names are a hard failure.
func (p *Parser) parseType() (types.Type, bool) {
	tok := p.cur()
	if tok.Type != token.IDENT {
		p.unexpected("type name")
		return types.Type{}, false
	}
	typ, ok := types.Lookup(tok.Literal)
	if !ok {
		p.errorf("unknown type %q", tok.Literal)
		return types.Type{}, false
	}
	p.next()
	return typ, true
}

// parseBlock parses "{" stmt* "}".
func (p *Parser) parseBlock() ([]ast.Statement, bool) {
	if !p.expect(token.BRACKET, "{", "'{'") {
		return nil, false
	}
	var stmts []ast.Statement
	for {
		stmt, ok := p.parseStatement()
		if !ok {
			return nil, false
		}
		if stmt == nil {
			break
		}
		stmts = append(stmts, stmt)
	}
	if !p.expect(token.BRACKET, "}", "statement or '}'") {
		return nil, false
	}
	return stmts, true
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// statementParsers are tried in order; the first to consume its leading
// token commits the parse.
var statementParsers = []func(*Parser) (ast.Statement, bool){
	(*Parser).parseVar,
	(*Parser).parseReturn,
	(*Parser).parseBreak,
	(*Parser).parseContinue,
	(*Parser).parseExpressionStmt,
}

// parseStatement parses one statement. Block-bodied if and while stand on
// their own; every other statement must be terminated by ';'.
func (p *Parser) parseStatement() (ast.Statement, bool) {
	if stmt, ok := p.parseIf(); !ok || stmt != nil {
		return stmt, ok
	}
	if stmt, ok := p.parseWhile(); !ok || stmt != nil {
		return stmt, ok
	}
	for _, parse := range statementParsers {
		stmt, ok := parse(p)
		if !ok {
			return nil, false
		}
		if stmt == nil {
			continue
		}
		if !p.expect(token.SEMICOLON, "", "';'") {
			return nil, false
		}
		return stmt, true
	}
	return nil, true
}

// parseVar parses "var" IDENT "=" expr.
func (p *Parser) parseVar() (ast.Statement, bool) {
	varTok := p.cur()
	if !p.lex.Expect(token.VAR) {
		return nil, true
	}
	nameTok := p.cur()
	if !p.expect(token.IDENT, "", "variable name") {
		return nil, false
	}
	if !p.expect(token.OPER, "=", "'='") {
		return nil, false
	}
	init, ok := p.parseRequiredExpression()
	if !ok {
		return nil, false
	}
	return &ast.VarDecl{Token: varTok, Name: nameTok.Literal, NameToken: nameTok, Init: init}, true
}

// parseIf parses "if" expr "{" stmt* "}" [ "else" "{" stmt* "}" ].
func (p *Parser) parseIf() (ast.Statement, bool) {
	ifTok := p.cur()
	if !p.lex.Expect(token.IF) {
		return nil, true
	}
	cond, ok := p.parseRequiredExpression()
	if !ok {
		return nil, false
	}
	then, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	stmt := &ast.IfStmt{Token: ifTok, Cond: cond, Then: then}
	if p.lex.Expect(token.ELSE) {
		els, ok := p.parseBlock()
		if !ok {
			return nil, false
		}
		stmt.Else = els
	}
	return stmt, true
}

// parseWhile parses "while" expr "{" stmt* "}".
func (p *Parser) parseWhile() (ast.Statement, bool) {
	whileTok := p.cur()
	if !p.lex.Expect(token.WHILE) {
		return nil, true
	}
	cond, ok := p.parseRequiredExpression()
	if !ok {
		return nil, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil, false
	}
	return &ast.WhileStmt{Token: whileTok, Cond: cond, Body: body}, true
}

// parseReturn parses "return" [expr].
func (p *Parser) parseReturn() (ast.Statement, bool) {
	retTok := p.cur()
	if !p.lex.Expect(token.RETURN) {
		return nil, true
	}
	value, ok := p.parseExpression()
	if !ok {
		return nil, false
	}
	return &ast.ReturnStmt{Token: retTok, Value: value}, true
}

func (p *Parser) parseBreak() (ast.Statement, bool) {
	tok := p.cur()
	if !p.lex.Expect(token.BREAK) {
		return nil, true
	}
	return &ast.BreakStmt{Token: tok}, true
}

func (p *Parser) parseContinue() (ast.Statement, bool) {
	tok := p.cur()
	if !p.lex.Expect(token.CONTINUE) {
		return nil, true
	}
	return &ast.ContinueStmt{Token: tok}, true
}

func (p *Parser) parseExpressionStmt() (ast.Statement, bool) {
	expr, ok := p.parseExpression()
	if !ok || expr == nil {
		return nil, ok
	}
	return &ast.ExpressionStmt{Expr: expr}, true
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// parseExpression parses "unary (binop expr)*". It returns no node without
// consuming anything when the current token cannot start an expression.
func (p *Parser) parseExpression() (ast.Expression, bool) {
	lhs, ok := p.parseUnary()
	if !ok || lhs == nil {
		return lhs, ok
	}
	return p.parseBinOpRHS(0, lhs)
}

// parseRequiredExpression is parseExpression where "no match" is an error.
func (p *Parser) parseRequiredExpression() (ast.Expression, bool) {
	expr, ok := p.parseExpression()
	if ok && expr == nil {
		p.unexpected("expression")
		return nil, false
	}
	return expr, ok
}

// parseBinOpRHS climbs the precedence table. It folds operators binding at
// least as tightly as minPrec onto lhs, and recurses into the right-hand side
// first when the following operator binds tighter, or equally tight with a
// right-associative precedence.
func (p *Parser) parseBinOpRHS(minPrec int, lhs ast.Expression) (ast.Expression, bool) {
	for {
		opTok := p.cur()
		prec := precedenceOf(opTok)
		if prec < 0 || prec < minPrec {
			return lhs, true
		}
		op, _ := ast.LookupBinary(opTok.Literal)
		p.next()

		rhs, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		if rhs == nil {
			p.unexpected("expression")
			return nil, false
		}

		nextPrec := precedenceOf(p.cur())
		if prec < nextPrec || (prec == nextPrec && rightAssoc(prec)) {
			sub := prec + 1
			if rightAssoc(prec) {
				sub = prec
			}
			if rhs, ok = p.parseBinOpRHS(sub, rhs); !ok {
				return nil, false
			}
		}
		lhs = &ast.BinaryExpr{Token: opTok, Op: op, Left: lhs, Right: rhs}
	}
}

// parseUnary parses an optional prefix operator applied to a primary. A
// leading operator that does not begin a valid operand is rolled back so the
// expression consumes nothing.
func (p *Parser) parseUnary() (ast.Expression, bool) {
	opTok := p.cur()
	if opTok.Type != token.OPER {
		return p.parsePrimary()
	}
	op, ok := ast.LookupUnary(opTok.Literal)
	if !ok {
		return nil, true
	}

	p.lex.Save()
	p.next()
	operand, ok := p.parseUnary()
	if !ok {
		p.lex.Drop()
		return nil, false
	}
	if operand == nil {
		p.lex.Load()
		return nil, true
	}
	p.lex.Drop()
	return &ast.UnaryExpr{Token: opTok, Op: op, Operand: operand}, true
}

// parsePrimary parses INT | IDENT | "(" expr ")" followed by suffixes.
func (p *Parser) parsePrimary() (ast.Expression, bool) {
	tok := p.cur()
	var expr ast.Expression
	switch {
	case tok.Type == token.INT:
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.errorf("integer literal %s out of range", tok.Literal)
			return nil, false
		}
		p.next()
		expr = &ast.IntegerLiteral{Token: tok, Value: v}

	case tok.Type == token.IDENT:
		p.next()
		expr = &ast.Variable{Token: tok, Name: tok.Literal}

	case tok.Is(token.PAREN, "("):
		p.next()
		inner, ok := p.parseRequiredExpression()
		if !ok {
			return nil, false
		}
		if !p.expect(token.PAREN, ")", "')'") {
			return nil, false
		}
		expr = inner

	default:
		return nil, true
	}
	return p.parseSuffixes(expr)
}

// parseSuffixes folds trailing call argument lists and postfix increments
// onto expr, left to right: f()() calls the result of f().
func (p *Parser) parseSuffixes(expr ast.Expression) (ast.Expression, bool) {
	for {
		tok := p.cur()
		switch {
		case tok.Is(token.PAREN, "("):
			p.next()
			call := &ast.CallExpr{Token: tok, Callee: expr}
			if !p.lex.ExpectLit(token.PAREN, ")") {
				for {
					arg, ok := p.parseRequiredExpression()
					if !ok {
						return nil, false
					}
					call.Args = append(call.Args, arg)
					if !p.lex.Expect(token.COMMA) {
						break
					}
				}
				if !p.expect(token.PAREN, ")", "',' or ')'") {
					return nil, false
				}
			}
			expr = call

		case tok.Type == token.OPER:
			op, ok := ast.LookupPostfix(tok.Literal)
			if !ok {
				return expr, true
			}
			p.next()
			expr = &ast.UnaryExpr{Token: tok, Op: op, Operand: expr}

		default:
			return expr, true
		}
	}
}
