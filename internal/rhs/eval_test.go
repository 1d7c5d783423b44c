package rhs

import (
	"testing"

	"crucible/internal/atom"
	"crucible/internal/fact"
	"crucible/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWM struct {
	store *fact.Store
	tmpl  *fact.Template
}

func (f *fakeWM) Assert(template string, slots map[string]*atom.Atom) (*fact.Fact, error) {
	ordered := make([]*atom.Atom, f.tmpl.SlotCount())
	for name, v := range slots {
		idx := f.tmpl.SlotIndex(name)
		if idx >= 0 {
			ordered[idx] = v
		}
	}
	return f.store.Assert(f.tmpl, ordered)
}

func (f *fakeWM) Retract(fct *fact.Fact) error {
	f.store.Retract(fct, false)
	return nil
}

func (f *fakeWM) Modify(fct *fact.Fact, changes map[string]*atom.Atom) error {
	updated := append([]*atom.Atom(nil), fct.Slots...)
	for name, v := range changes {
		idx := f.tmpl.SlotIndex(name)
		if idx >= 0 {
			updated[idx] = v
		}
	}
	return f.store.Modify(fct, updated)
}

func (f *fakeWM) Duplicate(fct *fact.Fact, overrides map[string]*atom.Atom) (*fact.Fact, error) {
	dup := append([]*atom.Atom(nil), fct.Slots...)
	for name, v := range overrides {
		idx := f.tmpl.SlotIndex(name)
		if idx >= 0 {
			dup[idx] = v
		}
	}
	return f.store.Assert(f.tmpl, dup)
}

func (f *fakeWM) Lookup(addr atom.FactAddress) (*fact.Fact, bool) {
	for _, fct := range f.store.All() {
		if fct.Address() == addr {
			return fct, true
		}
	}
	return nil, false
}

func newFakeWM() *fakeWM {
	s := fact.NewStore()
	s.DuplicateCheck = false
	tmpl := &fact.Template{Name: "pair", InScope: true, Slots: []fact.SlotDef{{Name: "v"}}}
	return &fakeWM{store: s, tmpl: tmpl}
}

func TestEvaluatorAssertPushesFactRef(t *testing.T) {
	tbl := atom.NewTable()
	wm := newFakeWM()
	ev := NewEvaluator(tbl, wm)

	vSym, err := tbl.InternSymbol("v")
	require.NoError(t, err)

	prog := &ir.Program{Instrs: []ir.Instr{
		{Op: ir.OpPushLiteral, Literal: vSym},
		{Op: ir.OpPushLiteral, Literal: tbl.InternInt(7)},
		{Op: ir.OpAssert, Name: "pair", Argc: 2},
	}}

	result, err := ev.Run(prog, NewFrame())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, atom.FactRef, result.Tag())
	assert.Equal(t, 1, wm.store.Count())
}

func TestEvaluatorArithmeticBuiltin(t *testing.T) {
	tbl := atom.NewTable()
	wm := newFakeWM()
	ev := NewEvaluator(tbl, wm)

	prog := &ir.Program{Instrs: []ir.Instr{
		{Op: ir.OpPushLiteral, Literal: tbl.InternInt(2)},
		{Op: ir.OpPushLiteral, Literal: tbl.InternInt(3)},
		{Op: ir.OpCall, Name: "+", Argc: 2},
	}}

	result, err := ev.Run(prog, NewFrame())
	require.NoError(t, err)
	v, ok := result.Number()
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestEvaluatorUnboundVariableErrors(t *testing.T) {
	tbl := atom.NewTable()
	wm := newFakeWM()
	ev := NewEvaluator(tbl, wm)

	prog := &ir.Program{Instrs: []ir.Instr{{Op: ir.OpPushVar, Name: "missing"}}}
	_, err := ev.Run(prog, NewFrame())
	assert.Error(t, err)
}

func TestEvaluatorRetractsByFactRef(t *testing.T) {
	tbl := atom.NewTable()
	wm := newFakeWM()
	ev := NewEvaluator(tbl, wm)

	f, err := wm.store.Assert(wm.tmpl, []*atom.Atom{tbl.InternInt(1)})
	require.NoError(t, err)

	frame := NewFrame()
	frame.Vars["f"] = atom.NewFactRef(f.Address())

	prog := &ir.Program{Instrs: []ir.Instr{
		{Op: ir.OpPushVar, Name: "f"},
		{Op: ir.OpRetract, Argc: 1},
	}}

	_, err = ev.Run(prog, frame)
	require.NoError(t, err)
	assert.True(t, f.Garbage)
}

func TestEvaluatorExpandVarSplicesMultifield(t *testing.T) {
	tbl := atom.NewTable()
	wm := newFakeWM()
	ev := NewEvaluator(tbl, wm)

	el1, el2 := tbl.InternInt(1), tbl.InternInt(2)

	frame := NewFrame()
	frame.Vars["xs"] = atom.NewMultifield(atom.NewMultifieldValue([]*atom.Atom{el1, el2}))

	prog := &ir.Program{Instrs: []ir.Instr{
		{Op: ir.OpExpandVar, Name: "xs"},
		{Op: ir.OpCall, Name: "+", Argc: 2},
	}}

	result, err := ev.Run(prog, frame)
	require.NoError(t, err)
	v, ok := result.Number()
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
}
