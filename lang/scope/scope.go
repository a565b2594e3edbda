// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package scope implements the lexical frames used while lowering a
// function body.
//
// A Scope maps names to stack slots and links to the frame it was derived
// from. A name may be bound at most once along the whole chain: a nested
// block cannot shadow a name its enclosing blocks already define. A frame
// derived for a loop body also records where break and continue jump to.
package scope

import "github.com/probechain/neatc/lang/ir"

// LoopBlock is the pair of jump targets of an enclosing loop.
type LoopBlock struct {
	Continue *ir.Block // re-evaluates the loop condition
	Break    *ir.Block // first block after the loop
}

// Scope is one lexical frame. Frames are only ever written through the
// innermost scope; parents are read-only to their children.
type Scope struct {
	parent *Scope
	vars   map[string]*ir.Instruction
	loop   *LoopBlock
}

// New returns a root scope.
func New() *Scope {
	return &Scope{vars: make(map[string]*ir.Instruction)}
}

// Derive returns a child frame of s.
func (s *Scope) Derive() *Scope {
	return &Scope{parent: s, vars: make(map[string]*ir.Instruction)}
}

// DeriveLoop returns a child frame of s for the body of a loop whose
// condition block is cont and whose exit block is brk.
func (s *Scope) DeriveLoop(cont, brk *ir.Block) *Scope {
	child := s.Derive()
	child.loop = &LoopBlock{Continue: cont, Break: brk}
	return child
}

// Parent returns the enclosing frame, or nil for a root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Get resolves name through the chain, returning nil when it is unbound.
func (s *Scope) Get(name string) *ir.Instruction {
	for f := s; f != nil; f = f.parent {
		if slot, ok := f.vars[name]; ok {
			return slot
		}
	}
	return nil
}

// Has reports whether name is bound anywhere in the chain.
func (s *Scope) Has(name string) bool {
	for f := s; f != nil; f = f.parent {
		if _, ok := f.vars[name]; ok {
			return true
		}
	}
	return false
}

// Define binds name to slot in this frame. It fails, binding nothing, when
// name is already bound in this frame or any ancestor.
func (s *Scope) Define(name string, slot *ir.Instruction) bool {
	if s.Has(name) {
		return false
	}
	s.vars[name] = slot
	return true
}

// Block returns the loop block of the nearest enclosing loop, or nil
// outside of any loop.
func (s *Scope) Block() *LoopBlock {
	for f := s; f != nil; f = f.parent {
		if f.loop != nil {
			return f.loop
		}
	}
	return nil
}
