// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package interp executes an ir.Module directly.
//
// Every value is held as an int64 and truncated to the width of its IR type
// after each operation, so i32 arithmetic wraps as it would on the target.
// Stack slots live in a per-call map. Execution is bounded by a step budget
// that counts instructions and terminators.
package interp

import (
	"context"
	"errors"
	"fmt"

	"github.com/probechain/neatc/lang/ir"
)

// ---- Error sentinels -------------------------------------------------------

// ErrStepLimit is returned when an execution exhausts its step budget.
var ErrStepLimit = errors.New("interp: step limit exceeded")

// ErrDivisionByZero is returned by sdiv when the divisor is zero.
var ErrDivisionByZero = errors.New("interp: division by zero")

// ErrNoFunction is returned when the entry function does not exist.
var ErrNoFunction = errors.New("interp: no such function")

// ErrNoBody is returned when a called function is only a declaration.
var ErrNoBody = errors.New("interp: function has no body")

// ErrArity is returned when the entry function gets the wrong number of
// arguments.
var ErrArity = errors.New("interp: wrong number of arguments")

// ErrCallDepth is returned when calls nest deeper than the depth limit.
var ErrCallDepth = errors.New("interp: call depth exceeded")

// ErrMalformed is returned for IR that the verifier would reject.
var ErrMalformed = errors.New("interp: malformed IR")

// MaxCallDepth bounds the nesting of calls.
const MaxCallDepth = 1024

// ctxCheckInterval is how many steps pass between context checks.
const ctxCheckInterval = 1024

// ---- Frame -----------------------------------------------------------------

// frame holds the state of one active call.
type frame struct {
	fn    *ir.Function
	args  []int64
	regs  map[*ir.Instruction]int64
	slots map[*ir.Instruction]int64
}

func (fr *frame) eval(v ir.Value) (int64, error) {
	switch v := v.(type) {
	case *ir.Const:
		return v.Val, nil
	case *ir.Param:
		if v.Index >= len(fr.args) {
			return 0, fmt.Errorf("%w: parameter %s out of range", ErrMalformed, v.Ident())
		}
		return fr.args[v.Index], nil
	case *ir.Instruction:
		x, ok := fr.regs[v]
		if !ok {
			return 0, fmt.Errorf("%w: %s used before definition in @%s", ErrMalformed, v.Ident(), fr.fn.Name)
		}
		return x, nil
	}
	return 0, fmt.Errorf("%w: operand %s", ErrMalformed, v.Ident())
}

// ---- Machine ---------------------------------------------------------------

// Machine runs functions of one module.
type Machine struct {
	module   *ir.Module
	maxSteps uint64 // 0 means unlimited
	steps    uint64
	depth    int
}

// New creates a machine for m. maxSteps bounds the number of instructions
// and terminators a single Call may execute; 0 disables the limit.
func New(m *ir.Module, maxSteps uint64) *Machine {
	return &Machine{module: m, maxSteps: maxSteps}
}

// Steps returns the number of steps taken by the last Call.
func (vm *Machine) Steps() uint64 { return vm.steps }

// Call runs the function called name with the given arguments and returns
// its result. A void function returns 0.
func (vm *Machine) Call(ctx context.Context, name string, args ...int64) (int64, error) {
	fn := vm.module.Lookup(name)
	if fn == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoFunction, name)
	}
	if len(args) != len(fn.Params) {
		return 0, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, name, len(fn.Params), len(args))
	}
	vm.steps, vm.depth = 0, 0
	return vm.run(ctx, fn, args)
}

func (vm *Machine) step(ctx context.Context) error {
	vm.steps++
	if vm.maxSteps > 0 && vm.steps > vm.maxSteps {
		return ErrStepLimit
	}
	if vm.steps%ctxCheckInterval == 0 {
		return ctx.Err()
	}
	return nil
}

func (vm *Machine) run(ctx context.Context, fn *ir.Function, args []int64) (int64, error) {
	if fn.IsDeclaration() {
		return 0, fmt.Errorf("%w: %s", ErrNoBody, fn.Name)
	}
	if vm.depth >= MaxCallDepth {
		return 0, ErrCallDepth
	}
	vm.depth++
	defer func() { vm.depth-- }()

	fr := &frame{
		fn:    fn,
		args:  make([]int64, len(args)),
		regs:  make(map[*ir.Instruction]int64),
		slots: make(map[*ir.Instruction]int64),
	}
	for i, a := range args {
		fr.args[i] = ir.Wrap(fn.Params[i].Typ, a)
	}

	bb := fn.Entry()
	for {
		for _, inst := range bb.Instructions {
			if err := vm.step(ctx); err != nil {
				return 0, err
			}
			if err := vm.execute(ctx, fr, inst); err != nil {
				return 0, err
			}
		}
		if err := vm.step(ctx); err != nil {
			return 0, err
		}
		switch t := bb.Terminator.(type) {
		case *ir.TermReturn:
			if t.Value == nil {
				return 0, nil
			}
			return fr.eval(t.Value)
		case *ir.TermBranch:
			bb = t.Target
		case *ir.TermCondBranch:
			c, err := fr.eval(t.Cond)
			if err != nil {
				return 0, err
			}
			if c != 0 {
				bb = t.TrueBlk
			} else {
				bb = t.FalseBlk
			}
		default:
			return 0, fmt.Errorf("%w: block %s of @%s has no terminator", ErrMalformed, bb.Label, fn.Name)
		}
	}
}

func (vm *Machine) execute(ctx context.Context, fr *frame, inst *ir.Instruction) error {
	switch {
	case inst.Op == ir.OpAlloca:
		fr.slots[inst] = 0
		return nil

	case inst.Op == ir.OpLoad:
		slot, ok := inst.Operands[0].(*ir.Instruction)
		if !ok {
			return fmt.Errorf("%w: load from %s", ErrMalformed, inst.Operands[0].Ident())
		}
		fr.regs[inst] = fr.slots[slot]
		return nil

	case inst.Op == ir.OpStore:
		slot, ok := inst.Operands[1].(*ir.Instruction)
		if !ok {
			return fmt.Errorf("%w: store to %s", ErrMalformed, inst.Operands[1].Ident())
		}
		v, err := fr.eval(inst.Operands[0])
		if err != nil {
			return err
		}
		fr.slots[slot] = v
		return nil

	case inst.Op == ir.OpCall:
		args := make([]int64, len(inst.Operands))
		for i, op := range inst.Operands {
			v, err := fr.eval(op)
			if err != nil {
				return err
			}
			args[i] = v
		}
		if len(args) != len(inst.Callee.Params) {
			return fmt.Errorf("%w: call to %s with %d arguments", ErrMalformed, inst.Callee.Ident(), len(args))
		}
		r, err := vm.run(ctx, inst.Callee, args)
		if err != nil {
			return err
		}
		fr.regs[inst] = r
		return nil
	}

	x, err := fr.eval(inst.Operands[0])
	if err != nil {
		return err
	}
	var y int64
	if len(inst.Operands) > 1 {
		if y, err = fr.eval(inst.Operands[1]); err != nil {
			return err
		}
	}
	typ := inst.Typ
	if inst.Op.IsCompare() {
		typ = inst.Operands[0].Type()
	}
	r, ok := ir.Eval(inst.Op, typ, x, y)
	if !ok {
		if inst.Op == ir.OpSDiv {
			return fmt.Errorf("%w in @%s", ErrDivisionByZero, fr.fn.Name)
		}
		return fmt.Errorf("%w: opcode %s", ErrMalformed, inst.Op)
	}
	fr.regs[inst] = r
	return nil
}
