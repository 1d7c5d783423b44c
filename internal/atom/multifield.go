package atom

import "strings"

// MultifieldValue is an ordered, reference-counted sequence of atoms shared
// between a fact's slot vector and any basisSlots snapshot taken for a
// partial match. It is not interned (spec.md §4.1): two multifields with
// equal contents remain distinct containers unless explicitly shared.
type MultifieldValue struct {
	elems []*Atom
	busy  int
}

// NewMultifieldValue builds a container over the given elements, which it
// takes ownership of (the caller should not mutate the slice afterwards).
func NewMultifieldValue(elems []*Atom) *MultifieldValue {
	return &MultifieldValue{elems: elems}
}

// Len returns the number of elements.
func (m *MultifieldValue) Len() int {
	if m == nil {
		return 0
	}
	return len(m.elems)
}

// At returns the element at i, or nil if out of range.
func (m *MultifieldValue) At(i int) *Atom {
	if m == nil || i < 0 || i >= len(m.elems) {
		return nil
	}
	return m.elems[i]
}

// Elements returns the backing slice; callers must treat it as read-only.
func (m *MultifieldValue) Elements() []*Atom {
	if m == nil {
		return nil
	}
	return m.elems
}

// Slice returns a new MultifieldValue over elements [from, to), used by the
// `$?` sequence-expansion desugaring (spec.md §9) to splice sub-ranges.
func (m *MultifieldValue) Slice(from, to int) *MultifieldValue {
	if m == nil || from < 0 || to > len(m.elems) || from > to {
		return NewMultifieldValue(nil)
	}
	cp := make([]*Atom, to-from)
	copy(cp, m.elems[from:to])
	return NewMultifieldValue(cp)
}

// retain/release track how many live atoms or snapshots point at this
// container; it is returned to the caller's pool (here: simply dropped)
// once busy reaches zero, mirroring the Multifield "busy count" in
// spec.md's data model.
func (m *MultifieldValue) retain() { m.busy++ }

func (m *MultifieldValue) release() {
	m.busy--
}

// Busy reports the current reference count, for tests.
func (m *MultifieldValue) Busy() int { return m.busy }

// String renders the multifield CLIPS-style: space-separated elements.
func (m *MultifieldValue) String() string {
	if m == nil {
		return "()"
	}
	parts := make([]string, len(m.elems))
	for i, e := range m.elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Equal compares two multifields element-wise.
func (m *MultifieldValue) Equal(o *MultifieldValue) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	if len(m.elems) != len(o.elems) {
		return false
	}
	for i := range m.elems {
		if !Equal(m.elems[i], o.elems[i]) {
			return false
		}
	}
	return true
}
