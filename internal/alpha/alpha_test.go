package alpha

import (
	"testing"

	"crucible/internal/atom"
	"crucible/internal/fact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternNodeFiltersByConstant(t *testing.T) {
	tbl := atom.NewTable()
	store := fact.NewStore()
	store.DuplicateCheck = false
	tmpl := &fact.Template{Name: "p", InScope: true, Slots: []fact.SlotDef{{Name: "x"}}}

	red, err := tbl.InternSymbol("red")
	require.NoError(t, err)

	net := NewNetwork()
	node := net.AddPattern(&Pattern{
		Template:  tmpl,
		SlotTests: map[int]SlotTest{0: ConstTest{Value: red}},
	})

	fRed, err := store.Assert(tmpl, []*atom.Atom{mustSym(t, tbl, "red")})
	require.NoError(t, err)
	fBlue, err := store.Assert(tmpl, []*atom.Atom{mustSym(t, tbl, "blue")})
	require.NoError(t, err)

	net.Assert(fRed)
	net.Assert(fBlue)

	assert.Equal(t, 1, node.Len())
	assert.Len(t, fRed.Memberships, 1)
	assert.Len(t, fBlue.Memberships, 0)
}

func TestRetractRemovesFromAlphaMemory(t *testing.T) {
	tbl := atom.NewTable()
	store := fact.NewStore()
	store.DuplicateCheck = false
	tmpl := &fact.Template{Name: "p", InScope: true, Slots: []fact.SlotDef{{Name: "x"}}}

	net := NewNetwork()
	node := net.AddPattern(&Pattern{Template: tmpl})

	f, err := store.Assert(tmpl, []*atom.Atom{tbl.InternInt(1)})
	require.NoError(t, err)
	net.Assert(f)
	require.Equal(t, 1, node.Len())

	Retract(f)
	assert.Equal(t, 0, node.Len())
	assert.Empty(t, f.Memberships)
}

func TestEqualSlotsIntraPatternConstraint(t *testing.T) {
	tbl := atom.NewTable()
	store := fact.NewStore()
	store.DuplicateCheck = false
	tmpl := &fact.Template{Name: "pair", InScope: true, Slots: []fact.SlotDef{{Name: "a"}, {Name: "b"}}}

	net := NewNetwork()
	node := net.AddPattern(&Pattern{
		Template:   tmpl,
		EqualSlots: []EqualSlots{{A: 0, B: 1}},
	})

	same, err := store.Assert(tmpl, []*atom.Atom{tbl.InternInt(5), tbl.InternInt(5)})
	require.NoError(t, err)
	diff, err := store.Assert(tmpl, []*atom.Atom{tbl.InternInt(5), tbl.InternInt(6)})
	require.NoError(t, err)

	net.Assert(same)
	net.Assert(diff)

	assert.Equal(t, 1, node.Len())
}

func mustSym(t *testing.T, tbl *atom.Table, s string) *atom.Atom {
	t.Helper()
	a, err := tbl.InternSymbol(s)
	require.NoError(t, err)
	return a
}
