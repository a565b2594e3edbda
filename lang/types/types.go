// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package types defines the declared primitive types of the neat language.
//
// Only four type names are recognized: void, int, float and double. Declared
// types shape function signatures; every runtime value is otherwise treated
// as a fixed-width integer.
package types

import "fmt"

// Kind categorizes the fundamental shape of a type.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDouble
)

var kindNames = [...]string{
	KindVoid:   "void",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindDouble: "double",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Type is a primitive type.
type Type struct {
	Kind Kind
	Bits int // storage width; 0 for void
}

// Predefined types.
var (
	Void   = Type{Kind: KindVoid}
	Bool   = Type{Kind: KindBool, Bits: 1}
	Int    = Type{Kind: KindInt, Bits: 32}
	Float  = Type{Kind: KindFloat, Bits: 32}
	Double = Type{Kind: KindDouble, Bits: 64}
)

// String returns the source-level name of the type.
func (t Type) String() string { return t.Kind.String() }

// IsVoid reports whether t is the void type.
func (t Type) IsVoid() bool { return t.Kind == KindVoid }

// IsInteger reports whether t holds an integer (including bool).
func (t Type) IsInteger() bool { return t.Kind == KindInt || t.Kind == KindBool }

// IsFloat reports whether t is a floating-point type.
func (t Type) IsFloat() bool { return t.Kind == KindFloat || t.Kind == KindDouble }

// declared maps source type names to types. bool is not nameable in source.
var declared = map[string]Type{
	"void":   Void,
	"int":    Int,
	"float":  Float,
	"double": Double,
}

// Lookup resolves a declared type name.
func Lookup(name string) (Type, bool) {
	t, ok := declared[name]
	return t, ok
}
