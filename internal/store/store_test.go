package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crucible/internal/atom"
	"crucible/internal/fact"
)

func TestBSaveThenBLoadRoundTripsFacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	tbl := atom.NewTable()
	tmpl := &fact.Template{
		Name:    "widget",
		InScope: true,
		Slots: []fact.SlotDef{
			{Name: "color", Kind: fact.SingleSlot},
			{Name: "count", Kind: fact.SingleSlot},
		},
	}
	fs := fact.NewStore()
	colorSym, err := tbl.InternSymbol("red")
	require.NoError(t, err)
	_, err = fs.Assert(tmpl, []*atom.Atom{colorSym, tbl.InternInt(3)})
	require.NoError(t, err)

	require.NoError(t, s.BSave([]*fact.Template{tmpl}))

	templates, facts, err := s.BLoad()
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "widget", templates[0].TemplateName)
	assert.Len(t, templates[0].Slots, 2)

	require.Len(t, facts, 1)
	assert.Equal(t, "widget", facts[0].TemplateName)
	require.Len(t, facts[0].Slots, 2)
	assert.Equal(t, "red", facts[0].Slots[0].Text)
	assert.Equal(t, float64(3), facts[0].Slots[1].Num)
}

func TestBSaveOverwritesPreviousImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	tmplA := &fact.Template{Name: "a", InScope: true, Slots: []fact.SlotDef{{Name: "v"}}}
	require.NoError(t, s.BSave([]*fact.Template{tmplA}))

	tmplB := &fact.Template{Name: "b", InScope: true, Slots: []fact.SlotDef{{Name: "v"}}}
	require.NoError(t, s.BSave([]*fact.Template{tmplB}))

	templates, _, err := s.BLoad()
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "b", templates[0].TemplateName)
}

func TestBLoadOnEmptyImageReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	templates, facts, err := s.BLoad()
	require.NoError(t, err)
	assert.Empty(t, templates)
	assert.Empty(t, facts)
}
