package atom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestInternSymbolIsPointerStable(t *testing.T) {
	tbl := NewTable()
	a, err := tbl.InternSymbol("foo")
	require.NoError(t, err)
	b, err := tbl.InternSymbol("foo")
	require.NoError(t, err)

	assert.Same(t, a, b, "interning the same symbol twice must return the same atom")
	assert.Equal(t, 2, a.Refcount())
}

func TestInternSymbolDistinctValues(t *testing.T) {
	tbl := NewTable()
	a, err := tbl.InternSymbol("foo")
	require.NoError(t, err)
	b, err := tbl.InternSymbol("bar")
	require.NoError(t, err)

	assert.False(t, Equal(a, b))
}

func TestReleaseEvictsAtZero(t *testing.T) {
	tbl := NewTable()
	a, err := tbl.InternSymbol("zap")
	require.NoError(t, err)
	require.Equal(t, 1, a.Refcount())

	a.Release(tbl)

	b, err := tbl.InternSymbol("zap")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Refcount(), "a fresh intern after full release should start a new refcount")
}

func TestIntAndFloatHashConsing(t *testing.T) {
	tbl := NewTable()
	i1 := tbl.InternInt(42)
	i2 := tbl.InternInt(42)
	assert.Same(t, i1, i2)

	f1 := tbl.InternFloat(3.5)
	f2 := tbl.InternFloat(3.5)
	assert.Same(t, f1, f2)

	assert.False(t, Equal(i1, f1), "an Int atom and a Float atom with unrelated values are never equal")
}

func TestExternalAddrIdentity(t *testing.T) {
	a := NewExternalAddr()
	b := NewExternalAddr()
	assert.False(t, Equal(a, b), "two fresh external addresses must not collide")
	assert.Equal(t, ExternalAddr, a.Tag())
}

func TestFactRefIdentity(t *testing.T) {
	a := NewFactRef(FactAddress{Index: 1, Generation: 0})
	b := NewFactRef(FactAddress{Index: 1, Generation: 0})
	c := NewFactRef(FactAddress{Index: 1, Generation: 1})

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c), "a stale generation must not compare equal")
}

func TestMultifieldValueString(t *testing.T) {
	tbl := NewTable()
	x, _ := tbl.InternSymbol("x")
	y := tbl.InternInt(1)
	mf := NewMultifieldValue([]*Atom{x, y})
	assert.Equal(t, "(x 1)", mf.String())
}

func TestVoidAtomIsZeroValue(t *testing.T) {
	var a *Atom
	assert.Equal(t, Void, a.Tag())
	assert.Equal(t, "<void>", a.String())
}
