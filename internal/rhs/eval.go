// Package rhs evaluates a compiled internal/ir.Program against one
// firing's variable frame, using an explicit value stack rather than a
// tree-walking interpreter (spec.md §9's postfix-flattening design
// note). Working-memory mutation goes through the WorkingMemory
// interface so this package stays independent of internal/engine, which
// in turn depends on rhs to run fired rules' actions.
package rhs

import (
	"fmt"

	"crucible/internal/atom"
	"crucible/internal/fact"
	"crucible/internal/ir"
)

// WorkingMemory is the slice of engine state an RHS evaluation needs.
type WorkingMemory interface {
	Assert(template string, slots map[string]*atom.Atom) (*fact.Fact, error)
	Retract(f *fact.Fact) error
	Modify(f *fact.Fact, changes map[string]*atom.Atom) error
	Duplicate(f *fact.Fact, overrides map[string]*atom.Atom) (*fact.Fact, error)
	Lookup(addr atom.FactAddress) (*fact.Fact, bool)
}

// Frame binds the variables and fact-address captures a single rule
// firing has available to its RHS (spec.md §4.6, step 1: "Bind LHS
// variables from the satisfying partial match into a per-firing frame").
type Frame struct {
	Vars  map[string]*atom.Atom
	Facts map[string]*fact.Fact
}

// NewFrame constructs an empty frame ready to be populated by the engine
// driver from a partial match's bindings.
func NewFrame() *Frame {
	return &Frame{Vars: make(map[string]*atom.Atom), Facts: make(map[string]*fact.Fact)}
}

// Builtin is a non-mutating RHS function (arithmetic, string ops, and
// the like) that doesn't need WorkingMemory access.
type Builtin func(tbl *atom.Table, args []*atom.Atom) (*atom.Atom, error)

// Evaluator runs flattened RHS programs.
type Evaluator struct {
	Table    *atom.Table
	WM       WorkingMemory
	Builtins map[string]Builtin
	External *ExternalRegistry // nil if the rule set defines no external functions
}

// NewEvaluator builds an evaluator with the standard builtin function set.
func NewEvaluator(tbl *atom.Table, wm WorkingMemory) *Evaluator {
	return &Evaluator{Table: tbl, WM: wm, Builtins: defaultBuiltins()}
}

type stack struct{ vals []*atom.Atom }

func (s *stack) push(a *atom.Atom) { s.vals = append(s.vals, a) }

func (s *stack) popN(n int) ([]*atom.Atom, error) {
	if len(s.vals) < n {
		return nil, fmt.Errorf("rhs: stack underflow popping %d value(s), have %d", n, len(s.vals))
	}
	args := append([]*atom.Atom(nil), s.vals[len(s.vals)-n:]...)
	s.vals = s.vals[:len(s.vals)-n]
	return args, nil
}

// Run executes prog against frame, returning the last value left on the
// stack (the result of the final top-level action, if any produced one).
// Any instruction failure aborts evaluation and returns the error
// unwound, per spec.md §4.10's run-time-fault handling: the caller is
// responsible for treating this as a recoverable EvaluationError and
// rolling back any partially built fact.
func (e *Evaluator) Run(prog *ir.Program, frame *Frame) (*atom.Atom, error) {
	var s stack
	for _, instr := range prog.Instrs {
		if err := e.step(&s, instr, frame); err != nil {
			return nil, err
		}
	}
	if len(s.vals) == 0 {
		return nil, nil
	}
	return s.vals[len(s.vals)-1], nil
}

func (e *Evaluator) step(s *stack, instr ir.Instr, frame *Frame) error {
	switch instr.Op {
	case ir.OpPushLiteral:
		s.push(instr.Literal)
		return nil

	case ir.OpPushVar:
		v, ok := frame.Vars[instr.Name]
		if !ok {
			return fmt.Errorf("rhs: unbound variable %q", instr.Name)
		}
		s.push(v)
		return nil

	case ir.OpExpandVar:
		v, ok := frame.Vars[instr.Name]
		if !ok {
			return fmt.Errorf("rhs: unbound multifield variable %q", instr.Name)
		}
		mf, ok := v.Multifield()
		if !ok {
			return fmt.Errorf("rhs: $?%s does not hold a multifield", instr.Name)
		}
		for _, el := range mf.Elements() {
			s.push(el)
		}
		return nil

	case ir.OpCall:
		args, err := s.popN(instr.Argc)
		if err != nil {
			return err
		}
		result, err := e.call(instr.Name, args)
		if err != nil {
			return err
		}
		s.push(result)
		return nil

	case ir.OpAssert:
		args, err := s.popN(instr.Argc)
		if err != nil {
			return err
		}
		slots, err := pairsToSlots(args)
		if err != nil {
			return err
		}
		f, err := e.WM.Assert(instr.Name, slots)
		if err != nil {
			return err
		}
		if f != nil {
			s.push(atom.NewFactRef(f.Address()))
		}
		return nil

	case ir.OpRetract:
		args, err := s.popN(instr.Argc)
		if err != nil {
			return err
		}
		for _, a := range args {
			addr, ok := a.FactAddress()
			if !ok {
				return fmt.Errorf("rhs: retract argument is not a fact address")
			}
			f, ok := e.WM.Lookup(addr)
			if !ok {
				return fmt.Errorf("rhs: retract target %s no longer exists", a.String())
			}
			if err := e.WM.Retract(f); err != nil {
				return err
			}
		}
		return nil

	case ir.OpModify, ir.OpDuplicate:
		if instr.Argc < 1 {
			return fmt.Errorf("rhs: %v requires a target fact reference", instr.Op)
		}
		args, err := s.popN(instr.Argc)
		if err != nil {
			return err
		}
		target := args[0]
		addr, ok := target.FactAddress()
		if !ok {
			return fmt.Errorf("rhs: %v target is not a fact address", instr.Op)
		}
		f, ok := e.WM.Lookup(addr)
		if !ok {
			return fmt.Errorf("rhs: %v target no longer exists", instr.Op)
		}
		slots, err := pairsToSlots(args[1:])
		if err != nil {
			return err
		}
		if instr.Op == ir.OpModify {
			return e.WM.Modify(f, slots)
		}
		dup, err := e.WM.Duplicate(f, slots)
		if err != nil {
			return err
		}
		s.push(atom.NewFactRef(dup.Address()))
		return nil

	default:
		return fmt.Errorf("rhs: unhandled opcode %v", instr.Op)
	}
}

func (e *Evaluator) call(name string, args []*atom.Atom) (*atom.Atom, error) {
	if fn, ok := e.Builtins[name]; ok {
		return fn(e.Table, args)
	}
	if e.External != nil {
		return e.External.Call(e.Table, name, args)
	}
	return nil, fmt.Errorf("rhs: unknown function %q", name)
}

// pairsToSlots interprets args as alternating (slot-name-symbol, value)
// pairs, the shape `(assert (tmpl (x 1) (y 2)))` flattens to.
func pairsToSlots(args []*atom.Atom) (map[string]*atom.Atom, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("rhs: slot list has an odd number of elements")
	}
	slots := make(map[string]*atom.Atom, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if args[i].Tag() != atom.Sym {
			return nil, fmt.Errorf("rhs: slot name at position %d must be a symbol", i)
		}
		name, ok := args[i].SymbolText()
		if !ok {
			return nil, fmt.Errorf("rhs: slot name at position %d must be a symbol", i)
		}
		slots[name] = args[i+1]
	}
	return slots, nil
}
