package ir

import "crucible/internal/atom"

// OpCode tags one flattened RHS instruction (spec.md §9's design note:
// "flatten to a postfix byte stream" rather than an interpreter making
// per-node virtual calls on the hot path).
type OpCode int

const (
	// OpPushLiteral pushes a constant atom.
	OpPushLiteral OpCode = iota
	// OpPushVar pushes the current binding of a variable captured on the LHS.
	OpPushVar
	// OpExpandVar pushes a multifield variable's elements as a spliced
	// sequence rather than a single value — the desugared "expand-call"
	// node for the `$?` sequence-expansion operator (spec.md §9).
	OpExpandVar
	// OpCall invokes a named function (builtin or externally registered)
	// against the Argc values below it on the stack.
	OpCall
	// OpAssert/OpRetract/OpModify/OpDuplicate are the working-memory
	// mutation builtins, broken out from OpCall since they need engine
	// access beyond a plain function table (spec.md §6).
	OpAssert
	OpRetract
	OpModify
	OpDuplicate
)

// Expr is a single node of the RHS expression tree, as produced by the
// (external) parser before flattening.
type Expr struct {
	Op      OpCode
	Literal *atom.Atom
	Var     string
	Args    []*Expr
}

// Instr is one entry of a flattened postfix program.
type Instr struct {
	Op      OpCode
	Name    string
	Literal *atom.Atom
	Argc    int
}

// Program is the flattened postfix instruction stream compiled from an
// RHS action's expression tree.
type Program struct {
	Instrs []Instr
}

// Flatten walks an Expr tree depth-first, emitting child instructions
// before the parent's, producing the postfix stream internal/rhs
// executes with an explicit value stack.
func Flatten(root *Expr) *Program {
	p := &Program{}
	var walk func(*Expr)
	walk = func(e *Expr) {
		if e == nil {
			return
		}
		switch e.Op {
		case OpPushLiteral:
			p.Instrs = append(p.Instrs, Instr{Op: OpPushLiteral, Literal: e.Literal})
			return
		case OpPushVar, OpExpandVar:
			p.Instrs = append(p.Instrs, Instr{Op: e.Op, Name: e.Var})
			return
		}
		for _, arg := range e.Args {
			walk(arg)
		}
		p.Instrs = append(p.Instrs, Instr{Op: e.Op, Name: e.Var, Argc: len(e.Args)})
	}
	walk(root)
	return p
}

// FlattenAll flattens an ordered list of top-level RHS actions into one
// program, actions running in source order.
func FlattenAll(actions []*Expr) *Program {
	p := &Program{}
	for _, a := range actions {
		p.Instrs = append(p.Instrs, Flatten(a).Instrs...)
	}
	return p
}
