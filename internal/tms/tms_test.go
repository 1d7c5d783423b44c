package tms

import (
	"testing"

	"crucible/internal/atom"
	"crucible/internal/beta"
	"crucible/internal/fact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pm(facts ...*fact.Fact) *beta.PartialMatch {
	return &beta.PartialMatch{Token: beta.Token{Facts: facts}}
}

func TestSingleSupportRetractedWhenLost(t *testing.T) {
	tbl := atom.NewTable()
	s := fact.NewStore()
	s.DuplicateCheck = false
	tmpl := &fact.Template{Name: "b", InScope: true, Slots: []fact.SlotDef{{Name: "x"}}}

	b, err := s.Assert(tmpl, []*atom.Atom{tbl.InternInt(1)})
	require.NoError(t, err)

	mgr := New()
	match := pm()
	mgr.RegisterSupport(match, b)
	assert.True(t, Supported(b))

	dead := mgr.ForceLogicalRetractions(match)
	assert.Equal(t, []*fact.Fact{b}, dead)
	assert.False(t, Supported(b), "a fact with no remaining support must report unsupported")
}

func TestMultipleSupportsAreORd(t *testing.T) {
	tbl := atom.NewTable()
	s := fact.NewStore()
	s.DuplicateCheck = false
	tmpl := &fact.Template{Name: "b", InScope: true, Slots: []fact.SlotDef{{Name: "x"}}}

	b, err := s.Assert(tmpl, []*atom.Atom{tbl.InternInt(1)})
	require.NoError(t, err)

	mgr := New()
	first := pm()
	second := pm()
	mgr.RegisterSupport(first, b)
	mgr.RegisterSupport(second, b)

	dead := mgr.ForceLogicalRetractions(first)
	assert.Empty(t, dead, "fact must survive while a second support remains")
	assert.True(t, Supported(b))

	dead = mgr.ForceLogicalRetractions(second)
	assert.Equal(t, []*fact.Fact{b}, dead, "fact must be retracted once every support is gone")
}

func TestRegisterSupportIsIdempotentPerPair(t *testing.T) {
	tbl := atom.NewTable()
	s := fact.NewStore()
	s.DuplicateCheck = false
	tmpl := &fact.Template{Name: "b", InScope: true, Slots: []fact.SlotDef{{Name: "x"}}}

	b, err := s.Assert(tmpl, []*atom.Atom{tbl.InternInt(1)})
	require.NoError(t, err)

	mgr := New()
	match := pm()
	mgr.RegisterSupport(match, b)
	mgr.RegisterSupport(match, b)
	assert.Len(t, b.Supports, 1, "registering the same support twice must not stack entries")

	dead := mgr.ForceLogicalRetractions(match)
	assert.Equal(t, []*fact.Fact{b}, dead)
}

func TestForgetClearsSupports(t *testing.T) {
	tbl := atom.NewTable()
	s := fact.NewStore()
	s.DuplicateCheck = false
	tmpl := &fact.Template{Name: "b", InScope: true, Slots: []fact.SlotDef{{Name: "x"}}}

	b, err := s.Assert(tmpl, []*atom.Atom{tbl.InternInt(1)})
	require.NoError(t, err)

	mgr := New()
	mgr.RegisterSupport(pm(), b)
	mgr.Forget(b)
	assert.False(t, Supported(b))
}
