package fact

import (
	"testing"

	"crucible/internal/atom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pTemplate() *Template {
	return &Template{
		Name:    "p",
		InScope: true,
		Slots: []SlotDef{
			{Name: "x", Kind: SingleSlot},
		},
	}
}

func TestAssertAssignsMonotoneIndex(t *testing.T) {
	tbl := atom.NewTable()
	s := NewStore()
	tmpl := pTemplate()

	one := tbl.InternInt(1)
	f1, err := s.Assert(tmpl, []*atom.Atom{one})
	require.NoError(t, err)
	require.NotNil(t, f1)
	assert.Equal(t, uint64(1), f1.Index)

	two := tbl.InternInt(2)
	f2, err := s.Assert(tmpl, []*atom.Atom{two})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f2.Index)
	assert.Equal(t, 2, s.Count())
}

func TestDuplicateSuppression(t *testing.T) {
	tbl := atom.NewTable()
	s := NewStore()
	tmpl := pTemplate()

	one := tbl.InternInt(1)
	f1, err := s.Assert(tmpl, []*atom.Atom{one})
	require.NoError(t, err)
	require.NotNil(t, f1)

	dupSlot := tbl.InternInt(1)
	f2, err := s.Assert(tmpl, []*atom.Atom{dupSlot})
	require.NoError(t, err)
	assert.Nil(t, f2, "a content-equal assert must be rejected when DuplicateCheck is on")
	assert.Equal(t, 1, s.Count())
}

func TestDuplicateSuppressionDisabled(t *testing.T) {
	tbl := atom.NewTable()
	s := NewStore()
	s.DuplicateCheck = false
	tmpl := pTemplate()

	one := tbl.InternInt(1)
	_, err := s.Assert(tmpl, []*atom.Atom{one})
	require.NoError(t, err)
	_, err = s.Assert(tmpl, []*atom.Atom{tbl.InternInt(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())
}

func TestRetractThenSweepReclaims(t *testing.T) {
	tbl := atom.NewTable()
	s := NewStore()
	tmpl := pTemplate()

	f, err := s.Assert(tmpl, []*atom.Atom{tbl.InternInt(7)})
	require.NoError(t, err)

	s.Retract(f, false)
	assert.True(t, f.Garbage)
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 1, s.GarbageLen())

	reclaimed := s.Sweep()
	assert.Len(t, reclaimed, 1)
	assert.Equal(t, 0, s.GarbageLen())
}

func TestRetractLeavesBusyFactOnGarbageUntilSwept(t *testing.T) {
	tbl := atom.NewTable()
	s := NewStore()
	tmpl := pTemplate()

	f, err := s.Assert(tmpl, []*atom.Atom{tbl.InternInt(9)})
	require.NoError(t, err)
	f.Retain()

	s.Retract(f, false)
	reclaimed := s.Sweep()
	assert.Empty(t, reclaimed, "a fact still referenced by a live partial match is not reclaimed")
	assert.Equal(t, 1, s.GarbageLen())

	f.Release()
	reclaimed = s.Sweep()
	assert.Len(t, reclaimed, 1)
}

func TestModifyPreservesIdentity(t *testing.T) {
	tbl := atom.NewTable()
	s := NewStore()
	tmpl := &Template{
		Name:    "rec",
		InScope: true,
		Slots: []SlotDef{
			{Name: "x", Kind: SingleSlot},
			{Name: "y", Kind: SingleSlot},
		},
	}

	f, err := s.Assert(tmpl, []*atom.Atom{tbl.InternInt(1), tbl.InternInt(2)})
	require.NoError(t, err)
	originalIndex := f.Index

	s.Retract(f, true)
	err = s.reassertPreservingIdentity(f, []*atom.Atom{tbl.InternInt(1), tbl.InternInt(9)})
	require.NoError(t, err)

	assert.Equal(t, originalIndex, f.Index, "modify must preserve fact index")
	assert.False(t, f.Garbage)
	assert.Equal(t, int64(1), mustInt(t, f.Slots[0]))
	assert.Equal(t, int64(9), mustInt(t, f.Slots[1]))
}

func TestNoDefaultRejectsVoidSlot(t *testing.T) {
	s := NewStore()
	tmpl := &Template{
		Name:    "strict",
		InScope: true,
		Slots: []SlotDef{
			{Name: "x", Kind: SingleSlot, Default: NoDefault},
		},
	}
	_, err := s.Assert(tmpl, []*atom.Atom{{}})
	require.Error(t, err, "a NoDefault slot left Void must reject the assert")
}

func mustInt(t *testing.T, a *atom.Atom) int64 {
	t.Helper()
	c, ok := a.AsConstant()
	require.True(t, ok)
	return c.NumValue
}
