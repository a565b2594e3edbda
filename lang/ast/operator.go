// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ast

import "fmt"

// UnaryOp is the closed set of prefix and postfix operators.
type UnaryOp int

const (
	Plus UnaryOp = iota // +x
	Neg                 // -x
	PreInc              // ++x
	PreDec              // --x
	PostInc             // x++
	PostDec             // x--
)

var unaryNames = [...]string{
	Plus:    "+",
	Neg:     "-",
	PreInc:  "++",
	PreDec:  "--",
	PostInc: "++",
	PostDec: "--",
}

// IsPostfix reports whether the operator follows its operand.
func (op UnaryOp) IsPostfix() bool { return op == PostInc || op == PostDec }

func (op UnaryOp) String() string {
	if op >= 0 && int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return fmt.Sprintf("unary(%d)", op)
}

// BinaryOp is the closed set of infix operators.
type BinaryOp int

const (
	Add BinaryOp = iota // +
	Sub                 // -
	Mul                 // *
	Div                 // /
	Eq                  // ==
	Assign              // =
	AddAssign           // +=
	SubAssign           // -=
	MulAssign           // *=
	DivAssign           // /=
)

var binaryNames = [...]string{
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	Div:       "/",
	Eq:        "==",
	Assign:    "=",
	AddAssign: "+=",
	SubAssign: "-=",
	MulAssign: "*=",
	DivAssign: "/=",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return fmt.Sprintf("binary(%d)", op)
}

// IsAssign reports whether op stores into its left operand.
func (op BinaryOp) IsAssign() bool {
	return op >= Assign && op <= DivAssign
}

// Arith returns the arithmetic operator a compound assignment applies.
func (op BinaryOp) Arith() (BinaryOp, bool) {
	switch op {
	case AddAssign:
		return Add, true
	case SubAssign:
		return Sub, true
	case MulAssign:
		return Mul, true
	case DivAssign:
		return Div, true
	}
	return 0, false
}

var (
	unaryOps  = map[string]UnaryOp{}
	binaryOps = map[string]BinaryOp{}
)

func init() {
	for op := Plus; op <= PreDec; op++ {
		unaryOps[unaryNames[op]] = op
	}
	for op, name := range binaryNames {
		binaryOps[name] = BinaryOp(op)
	}
}

// LookupUnary maps operator text to a prefix operator.
func LookupUnary(text string) (UnaryOp, bool) {
	op, ok := unaryOps[text]
	return op, ok
}

// LookupPostfix maps operator text to a postfix operator.
func LookupPostfix(text string) (UnaryOp, bool) {
	switch text {
	case "++":
		return PostInc, true
	case "--":
		return PostDec, true
	}
	return 0, false
}

// LookupBinary maps operator text to an infix operator.
func LookupBinary(text string) (BinaryOp, bool) {
	op, ok := binaryOps[text]
	return op, ok
}
