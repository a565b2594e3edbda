// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ir

import (
	mapset "github.com/deckarep/golang-set"

	"github.com/probechain/neatc/lang/types"
)

// Simplify runs the CFG clean-up passes on every function of m until none
// of them changes anything.
func Simplify(m *Module) {
	for _, fn := range m.Functions {
		SimplifyFunction(fn)
	}
}

// SimplifyFunction folds constants, prunes unreachable blocks and merges
// straight-line block chains in fn. It reports whether fn changed.
func SimplifyFunction(fn *Function) bool {
	if fn.IsDeclaration() {
		return false
	}
	changed := false
	for {
		n := FoldConstants(fn)
		n += RemoveUnreachable(fn)
		n += MergeBlocks(fn)
		if n == 0 {
			return changed
		}
		changed = true
	}
}

// Reachable returns the set of blocks reachable from the entry block.
func Reachable(fn *Function) mapset.Set {
	seen := mapset.NewThreadUnsafeSet()
	entry := fn.Entry()
	if entry == nil {
		return seen
	}
	work := []*Block{entry}
	seen.Add(entry)
	for len(work) > 0 {
		bb := work[len(work)-1]
		work = work[:len(work)-1]
		if bb.Terminator == nil {
			continue
		}
		for _, succ := range bb.Terminator.Successors() {
			if seen.Add(succ) {
				work = append(work, succ)
			}
		}
	}
	return seen
}

// RemoveUnreachable deletes blocks that cannot be reached from the entry
// block and returns how many were removed.
func RemoveUnreachable(fn *Function) int {
	live := Reachable(fn)
	if live.Cardinality() == len(fn.Blocks) {
		return 0
	}
	kept := fn.Blocks[:0]
	for _, bb := range fn.Blocks {
		if live.Contains(bb) {
			kept = append(kept, bb)
		}
	}
	removed := len(fn.Blocks) - len(kept)
	for i := len(kept); i < len(fn.Blocks); i++ {
		fn.Blocks[i] = nil
	}
	fn.Blocks = kept
	fn.RebuildCFG()
	return removed
}

// FoldConstants replaces arithmetic and comparisons on constant operands
// with their result, and turns conditional branches on a constant into
// unconditional ones. It returns the number of rewrites.
func FoldConstants(fn *Function) int {
	folded := 0
	for _, bb := range fn.Blocks {
		kept := bb.Instructions[:0]
		for _, inst := range bb.Instructions {
			if c, ok := foldInstruction(inst); ok {
				replaceUses(fn, inst, c)
				folded++
				continue
			}
			kept = append(kept, inst)
		}
		bb.Instructions = kept
	}
	cfgChanged := false
	for _, bb := range fn.Blocks {
		br, ok := bb.Terminator.(*TermCondBranch)
		if !ok {
			continue
		}
		c, ok := br.Cond.(*Const)
		if !ok {
			continue
		}
		target := br.FalseBlk
		if c.Val != 0 {
			target = br.TrueBlk
		}
		bb.Terminator = &TermBranch{Target: target}
		folded++
		cfgChanged = true
	}
	if cfgChanged {
		fn.RebuildCFG()
	}
	return folded
}

func foldInstruction(inst *Instruction) (*Const, bool) {
	switch {
	case inst.Op.IsBinary() || inst.Op.IsCompare():
		x, ok1 := inst.Operands[0].(*Const)
		y, ok2 := inst.Operands[1].(*Const)
		if !ok1 || !ok2 {
			return nil, false
		}
		v, ok := Eval(inst.Op, x.Typ, x.Val, y.Val)
		if !ok {
			return nil, false
		}
		return NewInt(inst.Typ, v), true
	case inst.Op == OpNeg || inst.Op == OpZExt:
		x, ok := inst.Operands[0].(*Const)
		if !ok {
			return nil, false
		}
		v, _ := Eval(inst.Op, inst.Typ, x.Val, 0)
		return NewInt(inst.Typ, v), true
	}
	return nil, false
}

// Eval computes an arithmetic or comparison instruction on operands of type
// typ with two's complement wraparound. It returns false for division by
// zero.
func Eval(op Op, typ types.Type, x, y int64) (int64, bool) {
	var r int64
	switch op {
	case OpAdd:
		r = x + y
	case OpSub:
		r = x - y
	case OpMul:
		r = x * y
	case OpSDiv:
		if y == 0 {
			return 0, false
		}
		if y == -1 {
			r = -x
		} else {
			r = x / y
		}
	case OpNeg:
		r = -x
	case OpICmpEQ:
		return b2i(x == y), true
	case OpICmpNE:
		return b2i(x != y), true
	case OpZExt:
		return x, true
	default:
		return 0, false
	}
	return Wrap(typ, r), true
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// replaceUses rewrites every use of old in fn to use v instead.
func replaceUses(fn *Function, old *Instruction, v Value) {
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instructions {
			for i, op := range inst.Operands {
				if op == Value(old) {
					inst.Operands[i] = v
				}
			}
		}
		switch t := bb.Terminator.(type) {
		case *TermReturn:
			if t.Value == Value(old) {
				t.Value = v
			}
		case *TermCondBranch:
			if t.Cond == Value(old) {
				t.Cond = v
			}
		}
	}
}

// MergeBlocks appends a block to its only predecessor when that predecessor
// ends in an unconditional branch to it. It returns the number of merges.
func MergeBlocks(fn *Function) int {
	fn.RebuildCFG()
	merged := 0
	for i := 0; i < len(fn.Blocks); i++ {
		bb := fn.Blocks[i]
		for {
			br, ok := bb.Terminator.(*TermBranch)
			if !ok {
				break
			}
			succ := br.Target
			if succ == bb || succ == fn.Entry() || len(succ.Preds) != 1 {
				break
			}
			for _, inst := range succ.Instructions {
				inst.Block = bb
			}
			bb.Instructions = append(bb.Instructions, succ.Instructions...)
			bb.Terminator = succ.Terminator
			fn.removeBlock(succ)
			fn.RebuildCFG()
			merged++
		}
		// removeBlock may have shifted blocks before i.
		for j, b := range fn.Blocks {
			if b == bb {
				i = j
				break
			}
		}
	}
	return merged
}

func (f *Function) removeBlock(bb *Block) {
	for i, b := range f.Blocks {
		if b == bb {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			return
		}
	}
}
