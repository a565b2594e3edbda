// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ir

import "github.com/probechain/neatc/lang/types"

// Builder appends instructions at an insertion point inside one function.
//
// Emitting into a block that already has its terminator would break the
// one-terminator-per-block rule, so the builder instead opens a fresh block
// labelled "dead". Nothing branches to it; the code after a return or break
// ends up there.
type Builder struct {
	module   *Module
	function *Function
	block    *Block
}

// NewBuilder creates a builder emitting into m.
func NewBuilder(m *Module) *Builder {
	return &Builder{module: m}
}

// Module returns the module being built.
func (b *Builder) Module() *Module { return b.module }

// Function returns the function being built.
func (b *Builder) Function() *Function { return b.function }

// StartFunction gives a declared function its entry block and moves the
// insertion point there.
func (b *Builder) StartFunction(fn *Function) *Block {
	b.function = fn
	b.block = fn.NewBlock("entry")
	return b.block
}

// NewBlock creates a new basic block in the current function.
func (b *Builder) NewBlock(label string) *Block {
	return b.function.NewBlock(label)
}

// CreateBlock creates a block that is not yet part of the function's block
// list. InsertBlock places it once code is emitted into it, so blocks print
// in the order their code was generated.
func (b *Builder) CreateBlock(label string) *Block {
	return &Block{Label: b.function.uniqueLabel(label), Parent: b.function}
}

// InsertBlock appends bb to the current function and moves the insertion
// point there.
func (b *Builder) InsertBlock(bb *Block) {
	b.function.Blocks = append(b.function.Blocks, bb)
	b.block = bb
}

// SetBlock sets the current insertion point.
func (b *Builder) SetBlock(bb *Block) {
	b.block = bb
}

// Block returns the current insertion block.
func (b *Builder) Block() *Block { return b.block }

// Sealed reports whether the current block already has its terminator.
func (b *Builder) Sealed() bool { return b.block != nil && b.block.Sealed() }

// open makes sure the insertion block can take another instruction.
func (b *Builder) open() *Block {
	if b.block == nil || b.block.Sealed() {
		b.block = b.function.NewBlock("dead")
	}
	return b.block
}

func (b *Builder) insert(inst *Instruction) *Instruction {
	bb := b.open()
	inst.Block = bb
	if inst.HasResult() && inst.name == "" {
		inst.id = b.function.nextID
		b.function.nextID++
	}
	bb.Instructions = append(bb.Instructions, inst)
	return inst
}

// EmitAlloca creates a named stack slot holding a value of type typ. Slots
// are placed at the top of the entry block, after any earlier slots, so each
// one is allocated exactly once per call.
func (b *Builder) EmitAlloca(typ types.Type, name string) *Instruction {
	entry := b.function.Entry()
	inst := &Instruction{Op: OpAlloca, Typ: typ, Block: entry}
	if name != "" {
		inst.name = b.function.uniqueName(name)
	} else {
		inst.id = b.function.nextID
		b.function.nextID++
	}
	n := 0
	for n < len(entry.Instructions) && entry.Instructions[n].Op == OpAlloca {
		n++
	}
	entry.Instructions = append(entry.Instructions, nil)
	copy(entry.Instructions[n+1:], entry.Instructions[n:])
	entry.Instructions[n] = inst
	return inst
}

// EmitLoad reads the value held in slot.
func (b *Builder) EmitLoad(slot *Instruction) *Instruction {
	return b.insert(&Instruction{Op: OpLoad, Typ: slot.Typ, Operands: []Value{slot}})
}

// EmitStore writes v into slot.
func (b *Builder) EmitStore(v Value, slot *Instruction) {
	b.insert(&Instruction{Op: OpStore, Typ: types.Void, Operands: []Value{v, slot}})
}

// EmitBinary emits an arithmetic instruction; the result has x's type.
func (b *Builder) EmitBinary(op Op, x, y Value) *Instruction {
	return b.insert(&Instruction{Op: op, Typ: x.Type(), Operands: []Value{x, y}})
}

// EmitNeg emits an arithmetic negation.
func (b *Builder) EmitNeg(x Value) *Instruction {
	return b.insert(&Instruction{Op: OpNeg, Typ: x.Type(), Operands: []Value{x}})
}

// EmitICmp emits an integer comparison yielding i1.
func (b *Builder) EmitICmp(op Op, x, y Value) *Instruction {
	return b.insert(&Instruction{Op: op, Typ: types.Bool, Operands: []Value{x, y}})
}

// EmitZExt zero-extends x to the integer type to.
func (b *Builder) EmitZExt(x Value, to types.Type) *Instruction {
	return b.insert(&Instruction{Op: OpZExt, Typ: to, Operands: []Value{x}})
}

// EmitCall emits a direct call. The result has the callee's return type.
func (b *Builder) EmitCall(callee *Function, args ...Value) *Instruction {
	return b.insert(&Instruction{Op: OpCall, Typ: callee.ReturnType, Callee: callee, Operands: args})
}

// terminate seals the current block with t and records the CFG edges.
func (b *Builder) terminate(t Terminator) {
	bb := b.open()
	bb.Terminator = t
	for _, succ := range t.Successors() {
		bb.Succs = append(bb.Succs, succ)
		succ.Preds = append(succ.Preds, bb)
	}
}

// EmitBranch sets an unconditional branch terminator.
func (b *Builder) EmitBranch(target *Block) {
	b.terminate(&TermBranch{Target: target})
}

// EmitCondBranch sets a conditional branch terminator.
func (b *Builder) EmitCondBranch(cond Value, trueBlk, falseBlk *Block) {
	b.terminate(&TermCondBranch{Cond: cond, TrueBlk: trueBlk, FalseBlk: falseBlk})
}

// EmitReturn sets a return terminator. A nil value returns void.
func (b *Builder) EmitReturn(val Value) {
	b.terminate(&TermReturn{Value: val})
}
