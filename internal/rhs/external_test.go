package rhs

import (
	"testing"

	"crucible/internal/atom"
	"crucible/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doubleSource = `
package main

func Double(args []interface{}) (interface{}, error) {
	n := args[0].(int64)
	return n * 2, nil
}
`

func TestExternalRegistryDefineAndCall(t *testing.T) {
	tbl := atom.NewTable()
	reg := NewExternalRegistry()
	require.NoError(t, reg.Define("double", "main.Double", doubleSource))

	result, err := reg.Call(tbl, "double", []*atom.Atom{tbl.InternInt(21)})
	require.NoError(t, err)
	v, ok := result.Number()
	require.True(t, ok)
	assert.Equal(t, 42.0, v)
}

func TestExternalRegistryRejectsDisallowedImport(t *testing.T) {
	reg := NewExternalRegistry()
	src := `
package main

import (
	"os"
)

func Bad(args []interface{}) (interface{}, error) {
	os.Exit(1)
	return nil, nil
}
`
	err := reg.Define("bad", "main.Bad", src)
	assert.Error(t, err)
}

func TestExternalRegistryCallUnknownFunction(t *testing.T) {
	tbl := atom.NewTable()
	reg := NewExternalRegistry()
	_, err := reg.Call(tbl, "nope", nil)
	assert.Error(t, err)
}

func TestEvaluatorDispatchesToExternalRegistry(t *testing.T) {
	tbl := atom.NewTable()
	wm := newFakeWM()
	ev := NewEvaluator(tbl, wm)
	ev.External = NewExternalRegistry()
	require.NoError(t, ev.External.Define("double", "main.Double", doubleSource))

	prog := &ir.Program{Instrs: []ir.Instr{
		{Op: ir.OpPushLiteral, Literal: tbl.InternInt(5)},
		{Op: ir.OpCall, Name: "double", Argc: 1},
	}}

	result, err := ev.Run(prog, NewFrame())
	require.NoError(t, err)
	v, ok := result.Number()
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
}
