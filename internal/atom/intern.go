package atom

import (
	"math"
	"sync"

	"github.com/google/mangle/ast"
	"github.com/google/uuid"
)

// Table is the process-wide intern table. Symbols, strings, and numerics
// are hash-consed here so that two installs of an equal value return the
// same *Atom; FactRef/ExternalAddr/Multifield atoms are boxed but not
// interned (their identity already is the generational index, the UUID,
// or the container pointer).
type Table struct {
	mu      sync.Mutex
	symbols map[string]*Atom
	strings map[string]*Atom
	ints    map[int64]*Atom
	floats  map[float64]*Atom
	names   map[string]*Atom
}

// NewTable constructs an empty intern table.
func NewTable() *Table {
	return &Table{
		symbols: make(map[string]*Atom),
		strings: make(map[string]*Atom),
		ints:    make(map[int64]*Atom),
		floats:  make(map[float64]*Atom),
		names:   make(map[string]*Atom),
	}
}

// InternSymbol installs (or retains) a symbol atom, backed by a Mangle Name
// constant; normalizeName gives the symbol the "/" prefix Mangle names carry.
func (t *Table) InternSymbol(sym string) (*Atom, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.symbols[sym]; ok {
		return a.retain(), nil
	}
	c, err := ast.Name(normalizeName(sym))
	if err != nil {
		return nil, err
	}
	a := &Atom{tag: Sym, constant: c, refcount: 1}
	t.symbols[sym] = a
	return a, nil
}

// InternInstanceName is identical to InternSymbol but tags the atom
// InstanceName so join tests can distinguish symbol-typed slots from
// instance-name-typed slots per spec.md's data model.
func (t *Table) InternInstanceName(sym string) (*Atom, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.names[sym]; ok {
		return a.retain(), nil
	}
	c, err := ast.Name(normalizeName(sym))
	if err != nil {
		return nil, err
	}
	a := &Atom{tag: InstanceName, constant: c, refcount: 1}
	t.names[sym] = a
	return a, nil
}

// InternString installs a string atom.
func (t *Table) InternString(s string) *Atom {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.strings[s]; ok {
		return a.retain()
	}
	a := &Atom{tag: Str, constant: ast.String(s), refcount: 1}
	t.strings[s] = a
	return a
}

// InternInt installs an integer atom, hash-consed by value.
func (t *Table) InternInt(v int64) *Atom {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.ints[v]; ok {
		return a.retain()
	}
	a := &Atom{tag: Int, constant: ast.Number(v), refcount: 1}
	t.ints[v] = a
	return a
}

// InternFloat installs a float atom, hash-consed by bit pattern via map key.
func (t *Table) InternFloat(v float64) *Atom {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.floats[v]; ok {
		return a.retain()
	}
	a := &Atom{tag: Float, constant: ast.Float64(v), refcount: 1}
	t.floats[v] = a
	return a
}

// NewFactRef boxes a generational fact address. Not interned: identity is
// the (index, generation) pair itself.
func NewFactRef(addr FactAddress) *Atom {
	return &Atom{tag: FactRef, fact: addr, refcount: 1}
}

// NewExternalAddr boxes a fresh UUID-backed external reference.
func NewExternalAddr() *Atom {
	return &Atom{tag: ExternalAddr, external: uuid.New(), refcount: 1}
}

// NewMultifield boxes a multifield container as an atom.
func NewMultifield(mf *MultifieldValue) *Atom {
	mf.busy++
	return &Atom{tag: Multifield, mf: mf, refcount: 1}
}

// evict drops a zero-refcount atom from its interning map. Safe to call
// for boxed (non-interned) atoms; it is simply a no-op for those.
func (t *Table) evict(a *Atom) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch a.tag {
	case Sym:
		delete(t.symbols, denormalizeName(a.constant.Symbol))
	case InstanceName:
		delete(t.names, denormalizeName(a.constant.Symbol))
	case Str:
		delete(t.strings, a.constant.Symbol)
	case Int:
		delete(t.ints, a.constant.NumValue)
	case Float:
		// Float keys are recovered from the constant's bit pattern via
		// constantFloat, since InternFloat keyed the map by float64.
		if f, ok := constantFloat(a.constant); ok {
			delete(t.floats, f)
		}
	}
}

func constantFloat(c ast.Constant) (float64, bool) {
	if c.Type != ast.Float64Type {
		return 0, false
	}
	return math.Float64frombits(uint64(c.NumValue)), true
}

// normalizeName ensures a CLIPS-style bare symbol is rendered with the
// leading "/" Mangle's Name constants require.
func normalizeName(sym string) string {
	if len(sym) > 0 && sym[0] == '/' {
		return sym
	}
	return "/" + sym
}

// denormalizeName recovers the bare CLIPS-style symbol text normalizeName
// produced a Mangle Name constant from, stripping the leading "/".
func denormalizeName(sym string) string {
	if len(sym) > 0 && sym[0] == '/' {
		return sym[1:]
	}
	return sym
}
