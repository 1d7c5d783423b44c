package ir

import (
	"testing"

	"crucible/internal/atom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenProducesPostfixOrder(t *testing.T) {
	tbl := atom.NewTable()
	one := tbl.InternInt(1)

	// (assert (pair ?v 1)) flattens to: push ?v, push 1, assert(argc=2)
	call := &Expr{
		Op:  OpAssert,
		Var: "pair",
		Args: []*Expr{
			{Op: OpPushVar, Var: "v"},
			{Op: OpPushLiteral, Literal: one},
		},
	}

	prog := Flatten(call)
	require.Len(t, prog.Instrs, 3)
	assert.Equal(t, OpPushVar, prog.Instrs[0].Op)
	assert.Equal(t, "v", prog.Instrs[0].Name)
	assert.Equal(t, OpPushLiteral, prog.Instrs[1].Op)
	assert.Equal(t, OpAssert, prog.Instrs[2].Op)
	assert.Equal(t, "pair", prog.Instrs[2].Name)
	assert.Equal(t, 2, prog.Instrs[2].Argc)
}

func TestFlattenAllConcatenatesActionsInOrder(t *testing.T) {
	first := &Expr{Op: OpAssert, Var: "h", Args: nil}
	second := &Expr{Op: OpAssert, Var: "l", Args: nil}

	prog := FlattenAll([]*Expr{first, second})
	require.Len(t, prog.Instrs, 2)
	assert.Equal(t, "h", prog.Instrs[0].Name)
	assert.Equal(t, "l", prog.Instrs[1].Name)
}

func TestFlattenExpandVarEmitsExpandOpcode(t *testing.T) {
	call := &Expr{
		Op:  OpCall,
		Var: "str-cat",
		Args: []*Expr{
			{Op: OpExpandVar, Var: "items"},
		},
	}
	prog := Flatten(call)
	require.Len(t, prog.Instrs, 2)
	assert.Equal(t, OpExpandVar, prog.Instrs[0].Op)
	assert.Equal(t, "items", prog.Instrs[0].Name)
}
