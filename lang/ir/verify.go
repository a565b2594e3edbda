// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ir

import (
	"fmt"

	"github.com/probechain/neatc/lang/types"
)

// VerifyError describes a structural problem found by Verify.
type VerifyError struct {
	Function string
	Block    string // empty for function-level problems
	Message  string
}

func (e *VerifyError) Error() string {
	if e.Block == "" {
		return fmt.Sprintf("verify error in @%s: %s", e.Function, e.Message)
	}
	return fmt.Sprintf("verify error in @%s, block %s: %s", e.Function, e.Block, e.Message)
}

// Verify checks every function of m and returns the problems found:
//  1. Every defined function has an entry block
//  2. Every block ends in exactly one terminator
//  3. Branch targets are blocks of the same function
//  4. Operands are defined in the same function and have matching types
//  5. Calls target a function of the module with the right arity
//  6. Return values match the function's return type
func Verify(m *Module) []VerifyError {
	var errs []VerifyError
	for _, f := range m.Functions {
		errs = append(errs, VerifyFunction(f)...)
	}
	return errs
}

// VerifyFunction checks a single function.
func VerifyFunction(f *Function) []VerifyError {
	v := &verifier{fn: f, blocks: make(map[*Block]bool, len(f.Blocks))}
	if f.IsDeclaration() {
		return nil
	}
	for _, bb := range f.Blocks {
		v.blocks[bb] = true
	}
	for _, bb := range f.Blocks {
		v.block = bb
		if bb.Parent != f {
			v.errorf("block belongs to another function")
		}
		for _, inst := range bb.Instructions {
			v.instruction(inst)
		}
		v.terminator(bb.Terminator)
	}
	return v.errs
}

type verifier struct {
	fn     *Function
	block  *Block
	blocks map[*Block]bool
	errs   []VerifyError
}

func (v *verifier) errorf(format string, args ...interface{}) {
	label := ""
	if v.block != nil {
		label = v.block.Label
	}
	v.errs = append(v.errs, VerifyError{
		Function: v.fn.Name,
		Block:    label,
		Message:  fmt.Sprintf(format, args...),
	})
}

// operand checks that val is usable inside v.fn.
func (v *verifier) operand(val Value) bool {
	switch x := val.(type) {
	case nil:
		v.errorf("missing operand")
		return false
	case *Instruction:
		if x.Block == nil || x.Block.Parent != v.fn {
			v.errorf("operand %s is defined outside the function", x.Ident())
			return false
		}
		if !x.HasResult() {
			v.errorf("operand %s has no value", x.Ident())
			return false
		}
	case *Param:
		if x.fn != v.fn {
			v.errorf("parameter %s belongs to another function", x.Ident())
			return false
		}
	case *Function:
		v.errorf("function %s used as an operand", x.Ident())
		return false
	}
	return true
}

func (v *verifier) slot(val Value) bool {
	inst, ok := val.(*Instruction)
	if !ok || inst.Op != OpAlloca {
		v.errorf("%s is not a stack slot", val.Ident())
		return false
	}
	return true
}

func (v *verifier) instruction(inst *Instruction) {
	if inst.Block != v.block {
		v.errorf("instruction %q has a stale parent block", inst.String())
	}
	for _, op := range inst.Operands {
		if !v.operand(op) {
			return
		}
	}
	switch {
	case inst.Op == OpAlloca:
		if v.block != v.fn.Entry() {
			v.errorf("alloca %s outside the entry block", inst.Ident())
		}
	case inst.Op == OpLoad:
		if v.slot(inst.Operands[0]) && inst.Operands[0].Type() != inst.Typ {
			v.errorf("load of %s from %s slot", inst.Typ, inst.Operands[0].Type())
		}
	case inst.Op == OpStore:
		val, slot := inst.Operands[0], inst.Operands[1]
		if v.slot(slot) && val.Type() != slot.Type() {
			v.errorf("store of %s into %s slot %s", val.Type(), slot.Type(), slot.Ident())
		}
	case inst.Op.IsBinary():
		x, y := inst.Operands[0], inst.Operands[1]
		if !x.Type().IsInteger() || x.Type() != y.Type() || x.Type() != inst.Typ {
			v.errorf("%s with operand types %s and %s", inst.Op, x.Type(), y.Type())
		}
	case inst.Op == OpNeg:
		if !inst.Operands[0].Type().IsInteger() {
			v.errorf("neg of %s", inst.Operands[0].Type())
		}
	case inst.Op.IsCompare():
		x, y := inst.Operands[0], inst.Operands[1]
		if !x.Type().IsInteger() || x.Type() != y.Type() || inst.Typ != types.Bool {
			v.errorf("%s with operand types %s and %s", inst.Op, x.Type(), y.Type())
		}
	case inst.Op == OpZExt:
		from := inst.Operands[0].Type()
		if !from.IsInteger() || inst.Typ.Kind != types.KindInt || from.Bits >= inst.Typ.Bits {
			v.errorf("zext from %s to %s", from, inst.Typ)
		}
	case inst.Op == OpCall:
		v.call(inst)
	default:
		v.errorf("unknown opcode %s", inst.Op)
	}
}

func (v *verifier) call(inst *Instruction) {
	callee := inst.Callee
	if callee == nil {
		v.errorf("call without callee")
		return
	}
	if callee.module != v.fn.module || callee.module.Lookup(callee.Name) != callee {
		v.errorf("call to %s outside the module", callee.Ident())
		return
	}
	if len(inst.Operands) != len(callee.Params) {
		v.errorf("call to %s with %d arguments, want %d", callee.Ident(), len(inst.Operands), len(callee.Params))
		return
	}
	for i, arg := range inst.Operands {
		if arg.Type() != callee.Params[i].Typ {
			v.errorf("argument %d of %s is %s, want %s", i, callee.Ident(), arg.Type(), callee.Params[i].Typ)
		}
	}
	if inst.Typ != callee.ReturnType {
		v.errorf("call to %s typed %s, want %s", callee.Ident(), inst.Typ, callee.ReturnType)
	}
}

func (v *verifier) terminator(t Terminator) {
	switch t := t.(type) {
	case nil:
		v.errorf("block has no terminator")
	case *TermReturn:
		if t.Value == nil {
			if !v.fn.ReturnType.IsVoid() {
				v.errorf("ret void in function returning %s", v.fn.ReturnType)
			}
			return
		}
		if v.operand(t.Value) && t.Value.Type() != v.fn.ReturnType {
			v.errorf("ret %s in function returning %s", t.Value.Type(), v.fn.ReturnType)
		}
	case *TermBranch:
		v.target(t.Target)
	case *TermCondBranch:
		if v.operand(t.Cond) && t.Cond.Type() != types.Bool {
			v.errorf("branch condition of type %s", t.Cond.Type())
		}
		v.target(t.TrueBlk)
		v.target(t.FalseBlk)
	}
}

func (v *verifier) target(bb *Block) {
	if bb == nil || !v.blocks[bb] {
		v.errorf("branch target is not a block of the function")
	}
}
