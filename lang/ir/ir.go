// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ir defines the control-flow-graph representation the neat
// front end lowers into.
//
// A Module holds functions; a Function holds basic blocks; a Block holds a
// straight-line list of instructions closed by exactly one Terminator.
// Locals live in stack slots created by alloca and are accessed with explicit
// load and store instructions, so the graph needs no phi nodes.
package ir

import (
	"fmt"
	"strconv"

	"github.com/probechain/neatc/lang/types"
)

// Module is a translation unit: an ordered list of functions.
type Module struct {
	Name      string
	Functions []*Function

	byName map[string]*Function
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, byName: make(map[string]*Function)}
}

// Declare adds a function signature to the module. It returns false when a
// function of the same name already exists.
func (m *Module) Declare(name string, ret types.Type, params []*Param) (*Function, bool) {
	if _, ok := m.byName[name]; ok {
		return nil, false
	}
	f := &Function{
		Name:       name,
		ReturnType: ret,
		Params:     params,
		module:     m,
		labels:     make(map[string]int),
		names:      make(map[string]int),
	}
	for i, p := range params {
		p.Index = i
		p.fn = f
		if p.Name != "" {
			p.ident = f.uniqueName(p.Name)
		} else {
			p.ident = f.uniqueName("arg" + strconv.Itoa(i))
		}
	}
	m.Functions = append(m.Functions, f)
	m.byName[name] = f
	return f, true
}

// Lookup returns the function called name, or nil.
func (m *Module) Lookup(name string) *Function {
	return m.byName[name]
}

// Remove drops fn from the module.
func (m *Module) Remove(fn *Function) {
	if m.byName[fn.Name] != fn {
		return
	}
	delete(m.byName, fn.Name)
	for i, f := range m.Functions {
		if f == fn {
			m.Functions = append(m.Functions[:i], m.Functions[i+1:]...)
			break
		}
	}
}

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

// Value is an instruction operand.
type Value interface {
	Type() types.Type
	// Ident is the operand as printed, e.g. "%x", "%3", "7" or "@f".
	Ident() string
}

// Const is an integer constant.
type Const struct {
	Typ types.Type
	Val int64
}

// NewInt returns a constant of the given integer type, truncated to its width.
func NewInt(typ types.Type, v int64) *Const {
	return &Const{Typ: typ, Val: Wrap(typ, v)}
}

func (c *Const) Type() types.Type { return c.Typ }
func (c *Const) Ident() string {
	if c.Typ.IsFloat() {
		return strconv.FormatFloat(float64(c.Val), 'e', 6, 64)
	}
	return strconv.FormatInt(c.Val, 10)
}

// Param is a formal parameter of a function. Name is empty for an unnamed
// parameter slot.
type Param struct {
	Name  string
	Typ   types.Type
	Index int

	fn    *Function
	ident string
}

func (p *Param) Type() types.Type { return p.Typ }
func (p *Param) Ident() string    { return "%" + p.ident }

// Function is a function definition or, before its body is lowered, a
// declaration. A function used as a value is its own address, the callee of
// a call instruction.
type Function struct {
	Name       string
	Params     []*Param
	ReturnType types.Type
	Blocks     []*Block

	module *Module
	nextID int
	labels map[string]int // label -> uses, for unique block labels
	names  map[string]int // name -> uses, for unique value names
}

func (f *Function) Type() types.Type { return f.ReturnType }
func (f *Function) Ident() string    { return "@" + f.Name }

// Module returns the module the function was declared in.
func (f *Function) Module() *Module { return f.module }

// Entry returns the entry block, or nil for a declaration.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// IsDeclaration reports whether the function has no body.
func (f *Function) IsDeclaration() bool { return len(f.Blocks) == 0 }

// Discard drops the function's body, turning it back into a declaration.
func (f *Function) Discard() {
	f.Blocks = nil
	f.nextID = 0
	f.labels = make(map[string]int)
	f.names = make(map[string]int)
	for _, p := range f.Params {
		f.names[p.ident] = 1
	}
}

// NewBlock appends a block to the function. Labels are made unique by a
// numeric suffix.
func (f *Function) NewBlock(label string) *Block {
	bb := &Block{Label: f.uniqueLabel(label), Parent: f}
	f.Blocks = append(f.Blocks, bb)
	return bb
}

// RebuildCFG recomputes every block's predecessor and successor lists from
// the terminators, in block order.
func (f *Function) RebuildCFG() {
	for _, bb := range f.Blocks {
		bb.Preds = bb.Preds[:0]
		bb.Succs = bb.Succs[:0]
	}
	for _, bb := range f.Blocks {
		if bb.Terminator == nil {
			continue
		}
		for _, succ := range bb.Terminator.Successors() {
			bb.Succs = append(bb.Succs, succ)
			succ.Preds = append(succ.Preds, bb)
		}
	}
}

func (f *Function) uniqueLabel(label string) string {
	n := f.labels[label]
	f.labels[label] = n + 1
	if n == 0 {
		return label
	}
	return label + strconv.Itoa(n)
}

func (f *Function) uniqueName(name string) string {
	for {
		n := f.names[name]
		f.names[name] = n + 1
		if n == 0 {
			return name
		}
		cand := name + strconv.Itoa(n)
		if _, taken := f.names[cand]; !taken {
			f.names[cand] = 1
			return cand
		}
	}
}

// ---------------------------------------------------------------------------
// Blocks
// ---------------------------------------------------------------------------

// Block is a straight-line sequence of instructions with one terminator.
type Block struct {
	Label        string
	Instructions []*Instruction
	Terminator   Terminator
	Preds        []*Block
	Succs        []*Block
	Parent       *Function
}

// Sealed reports whether the block already has its terminator.
func (b *Block) Sealed() bool { return b.Terminator != nil }

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

// Op is an instruction opcode.
type Op int

const (
	OpAlloca Op = iota // stack slot
	OpLoad             // read a slot
	OpStore            // write a slot
	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpNeg
	OpICmpEQ
	OpICmpNE
	OpZExt // widen i1 to an integer type
	OpCall
)

var opNames = map[Op]string{
	OpAlloca: "alloca", OpLoad: "load", OpStore: "store",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpSDiv: "sdiv", OpNeg: "neg",
	OpICmpEQ: "icmp eq", OpICmpNE: "icmp ne",
	OpZExt: "zext", OpCall: "call",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", op)
}

// IsBinary reports whether op combines two operands of the result type.
func (op Op) IsBinary() bool { return op >= OpAdd && op <= OpSDiv }

// IsCompare reports whether op is an integer comparison.
func (op Op) IsCompare() bool { return op == OpICmpEQ || op == OpICmpNE }

// Instruction is a single non-terminating operation. For OpAlloca, Typ is
// the type of the slot's contents; the instruction itself is the slot's
// address.
type Instruction struct {
	Op       Op
	Typ      types.Type
	Operands []Value
	Callee   *Function // OpCall
	Block    *Block

	id   int    // result register when name is empty
	name string // result name, unique within the function
}

func (i *Instruction) Type() types.Type { return i.Typ }

func (i *Instruction) Ident() string {
	if i.name != "" {
		return "%" + i.name
	}
	return "%" + strconv.Itoa(i.id)
}

// HasResult reports whether the instruction defines a value.
func (i *Instruction) HasResult() bool {
	switch i.Op {
	case OpStore:
		return false
	case OpCall:
		return !i.Typ.IsVoid()
	}
	return true
}

func (i *Instruction) String() string {
	switch i.Op {
	case OpAlloca:
		return fmt.Sprintf("%s = alloca %s", i.Ident(), TypeString(i.Typ))
	case OpLoad:
		slot := i.Operands[0]
		return fmt.Sprintf("%s = load %s, %s* %s", i.Ident(), TypeString(i.Typ), TypeString(slot.Type()), slot.Ident())
	case OpStore:
		v, slot := i.Operands[0], i.Operands[1]
		return fmt.Sprintf("store %s %s, %s* %s", TypeString(v.Type()), v.Ident(), TypeString(slot.Type()), slot.Ident())
	case OpNeg:
		return fmt.Sprintf("%s = neg %s %s", i.Ident(), TypeString(i.Typ), i.Operands[0].Ident())
	case OpZExt:
		x := i.Operands[0]
		return fmt.Sprintf("%s = zext %s %s to %s", i.Ident(), TypeString(x.Type()), x.Ident(), TypeString(i.Typ))
	case OpCall:
		s := fmt.Sprintf("call %s %s(%s)", TypeString(i.Typ), i.Callee.Ident(), typedList(i.Operands))
		if i.HasResult() {
			s = i.Ident() + " = " + s
		}
		return s
	}
	x, y := i.Operands[0], i.Operands[1]
	return fmt.Sprintf("%s = %s %s %s, %s", i.Ident(), i.Op, TypeString(x.Type()), x.Ident(), y.Ident())
}

// ---------------------------------------------------------------------------
// Terminators
// ---------------------------------------------------------------------------

// Terminator ends a basic block.
type Terminator interface {
	terminator()
	Successors() []*Block
	String() string
}

// TermReturn returns from the function.
type TermReturn struct {
	Value Value // nil for void return
}

func (t *TermReturn) terminator()          {}
func (t *TermReturn) Successors() []*Block { return nil }
func (t *TermReturn) String() string {
	if t.Value != nil {
		return fmt.Sprintf("ret %s %s", TypeString(t.Value.Type()), t.Value.Ident())
	}
	return "ret void"
}

// TermBranch unconditionally branches to a block.
type TermBranch struct {
	Target *Block
}

func (t *TermBranch) terminator()          {}
func (t *TermBranch) Successors() []*Block { return []*Block{t.Target} }
func (t *TermBranch) String() string {
	return fmt.Sprintf("br label %%%s", t.Target.Label)
}

// TermCondBranch branches on an i1 condition.
type TermCondBranch struct {
	Cond     Value
	TrueBlk  *Block
	FalseBlk *Block
}

func (t *TermCondBranch) terminator()          {}
func (t *TermCondBranch) Successors() []*Block { return []*Block{t.TrueBlk, t.FalseBlk} }
func (t *TermCondBranch) String() string {
	return fmt.Sprintf("br %s %s, label %%%s, label %%%s",
		TypeString(t.Cond.Type()), t.Cond.Ident(), t.TrueBlk.Label, t.FalseBlk.Label)
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// TypeString returns the textual IR spelling of a type.
func TypeString(t types.Type) string {
	switch t.Kind {
	case types.KindVoid:
		return "void"
	case types.KindBool:
		return "i1"
	case types.KindInt:
		return "i" + strconv.Itoa(t.Bits)
	case types.KindFloat:
		return "float"
	case types.KindDouble:
		return "double"
	}
	return t.String()
}

// Wrap truncates v to the width of an integer type and sign-extends it back,
// giving two's complement wraparound. Other types are returned unchanged.
func Wrap(t types.Type, v int64) int64 {
	switch {
	case t.Kind == types.KindBool:
		return v & 1
	case t.Kind == types.KindInt && t.Bits > 0 && t.Bits < 64:
		shift := uint(64 - t.Bits)
		return v << shift >> shift
	}
	return v
}

func typedList(vals []Value) string {
	s := ""
	for i, v := range vals {
		if i > 0 {
			s += ", "
		}
		s += TypeString(v.Type()) + " " + v.Ident()
	}
	return s
}
