// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package codegen

import (
	"github.com/probechain/neatc/lang/ast"
	"github.com/probechain/neatc/lang/ir"
	"github.com/probechain/neatc/lang/scope"
	"github.com/probechain/neatc/lang/token"
	"github.com/probechain/neatc/lang/types"
)

var arithOps = map[ast.BinaryOp]ir.Op{
	ast.Add: ir.OpAdd,
	ast.Sub: ir.OpSub,
	ast.Mul: ir.OpMul,
	ast.Div: ir.OpSDiv,
}

// expr lowers e. The result may be a function (for a bare function name) or
// a void call; value rejects both where a value is needed.
func (g *Generator) expr(sc *scope.Scope, e ast.Expression) (ir.Value, error) {
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		return ir.NewInt(types.Int, e.Value), nil

	case *ast.Variable:
		if fn := g.module.Lookup(e.Name); fn != nil {
			return fn, nil
		}
		slot := sc.Get(e.Name)
		if slot == nil {
			return nil, errorf(e.Pos(), "undefined: %s", e.Name)
		}
		return g.b.EmitLoad(slot), nil

	case *ast.UnaryExpr:
		return g.unary(sc, e)
	case *ast.BinaryExpr:
		return g.binary(sc, e)
	case *ast.CallExpr:
		return g.call(sc, e)
	}
	return nil, errorf(e.Pos(), "unsupported expression %T", e)
}

// value lowers e where a value is required.
func (g *Generator) value(sc *scope.Scope, e ast.Expression) (ir.Value, error) {
	v, err := g.expr(sc, e)
	if err != nil {
		return nil, err
	}
	if fn, ok := v.(*ir.Function); ok {
		return nil, errorf(e.Pos(), "function %s used as a value", fn.Name)
	}
	if v.Type().IsVoid() {
		return nil, errorf(e.Pos(), "%s (no value) used as a value", e)
	}
	return v, nil
}

// intValue lowers e to a value of the int type, widening comparison
// results.
func (g *Generator) intValue(sc *scope.Scope, e ast.Expression) (ir.Value, error) {
	v, err := g.value(sc, e)
	if err != nil {
		return nil, err
	}
	return g.convert(e.Pos(), v, types.Int)
}

// convert makes v usable where a value of type want is expected. Only the
// widening of an i1 comparison result to an integer is implicit.
func (g *Generator) convert(pos token.Pos, v ir.Value, want types.Type) (ir.Value, error) {
	have := v.Type()
	switch {
	case have == want:
		return v, nil
	case have == types.Bool && want.Kind == types.KindInt:
		return g.b.EmitZExt(v, want), nil
	}
	return nil, errorf(pos, "cannot use %s value as %s", have, want)
}

// lvalue resolves the stack slot e names. Only variables have one.
func (g *Generator) lvalue(sc *scope.Scope, e ast.Expression, what string) (*ir.Instruction, error) {
	v, ok := e.(*ast.Variable)
	if !ok {
		return nil, errorf(e.Pos(), "cannot %s %s: not a variable", what, e)
	}
	if g.module.Lookup(v.Name) != nil {
		return nil, errorf(e.Pos(), "cannot %s function %s", what, v.Name)
	}
	slot := sc.Get(v.Name)
	if slot == nil {
		return nil, errorf(e.Pos(), "undefined: %s", v.Name)
	}
	return slot, nil
}

func (g *Generator) unary(sc *scope.Scope, e *ast.UnaryExpr) (ir.Value, error) {
	switch e.Op {
	case ast.Plus:
		return g.value(sc, e.Operand)
	case ast.Neg:
		x, err := g.intValue(sc, e.Operand)
		if err != nil {
			return nil, err
		}
		return g.b.EmitNeg(x), nil
	}

	what, op := "increment", ir.OpAdd
	if e.Op == ast.PreDec || e.Op == ast.PostDec {
		what, op = "decrement", ir.OpSub
	}
	slot, err := g.lvalue(sc, e.Operand, what)
	if err != nil {
		return nil, err
	}
	if !slot.Typ.IsInteger() {
		return nil, errorf(e.Pos(), "cannot %s %s value", what, slot.Typ)
	}
	old := g.b.EmitLoad(slot)
	updated := g.b.EmitBinary(op, old, ir.NewInt(slot.Typ, 1))
	g.b.EmitStore(updated, slot)
	if e.Op.IsPostfix() {
		return old, nil
	}
	return updated, nil
}

func (g *Generator) binary(sc *scope.Scope, e *ast.BinaryExpr) (ir.Value, error) {
	switch {
	case e.Op == ast.Assign:
		slot, err := g.lvalue(sc, e.Left, "assign to")
		if err != nil {
			return nil, err
		}
		v, err := g.value(sc, e.Right)
		if err != nil {
			return nil, err
		}
		if v, err = g.convert(e.Right.Pos(), v, slot.Typ); err != nil {
			return nil, err
		}
		g.b.EmitStore(v, slot)
		return v, nil

	case e.Op.IsAssign():
		arith, _ := e.Op.Arith()
		slot, err := g.lvalue(sc, e.Left, "assign to")
		if err != nil {
			return nil, err
		}
		if !slot.Typ.IsInteger() {
			return nil, errorf(e.Pos(), "operator %s on %s value", e.Op, slot.Typ)
		}
		old := g.b.EmitLoad(slot)
		rhs, err := g.value(sc, e.Right)
		if err != nil {
			return nil, err
		}
		if rhs, err = g.convert(e.Right.Pos(), rhs, slot.Typ); err != nil {
			return nil, err
		}
		v := g.b.EmitBinary(arithOps[arith], old, rhs)
		g.b.EmitStore(v, slot)
		return v, nil

	case e.Op == ast.Eq:
		x, err := g.value(sc, e.Left)
		if err != nil {
			return nil, err
		}
		y, err := g.value(sc, e.Right)
		if err != nil {
			return nil, err
		}
		if x.Type() != y.Type() {
			if x, err = g.convert(e.Left.Pos(), x, types.Int); err != nil {
				return nil, err
			}
			if y, err = g.convert(e.Right.Pos(), y, types.Int); err != nil {
				return nil, err
			}
		}
		if !x.Type().IsInteger() {
			return nil, errorf(e.Pos(), "operator == on %s values", x.Type())
		}
		return g.b.EmitICmp(ir.OpICmpEQ, x, y), nil
	}

	op, ok := arithOps[e.Op]
	if !ok {
		return nil, errorf(e.Pos(), "unsupported operator %s", e.Op)
	}
	x, err := g.intValue(sc, e.Left)
	if err != nil {
		return nil, err
	}
	y, err := g.intValue(sc, e.Right)
	if err != nil {
		return nil, err
	}
	return g.b.EmitBinary(op, x, y), nil
}

func (g *Generator) call(sc *scope.Scope, e *ast.CallExpr) (ir.Value, error) {
	callee, err := g.expr(sc, e.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*ir.Function)
	if !ok {
		return nil, errorf(e.Callee.Pos(), "cannot call non-function %s", e.Callee)
	}
	if len(e.Args) != len(fn.Params) {
		return nil, errorf(e.Pos(), "wrong number of arguments in call to %s: have %d, want %d",
			fn.Name, len(e.Args), len(fn.Params))
	}
	args := make([]ir.Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := g.value(sc, arg)
		if err != nil {
			return nil, err
		}
		if args[i], err = g.convert(arg.Pos(), v, fn.Params[i].Typ); err != nil {
			return nil, err
		}
	}
	return g.b.EmitCall(fn, args...), nil
}
