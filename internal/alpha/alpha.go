// Package alpha implements the discrimination (alpha) network: a forest of
// single-pattern constraint nodes terminating in alpha memories, the set
// of facts currently satisfying one pattern's intra-pattern constraints
// (spec.md §4.3).
package alpha

import (
	"crucible/internal/atom"
	"crucible/internal/beta"
	"crucible/internal/fact"
)

// SlotTest is a single intra-pattern constraint: a constant test, a class
// (type) test, or a range test against one slot's value.
type SlotTest interface {
	Accepts(v *atom.Atom) bool
}

// ConstTest accepts only an exact atom match.
type ConstTest struct{ Value *atom.Atom }

func (c ConstTest) Accepts(v *atom.Atom) bool { return atom.Equal(v, c.Value) }

// ClassTest accepts any value of a given tag ("symbol class check",
// spec.md §4.3).
type ClassTest struct{ Tag atom.Tag }

func (c ClassTest) Accepts(v *atom.Atom) bool { return v.Tag() == c.Tag }

// RangeTest accepts Int/Float values within [Min, Max], comparing via the
// underlying Mangle constant's numeric value.
type RangeTest struct{ Min, Max *atom.Atom }

func (r RangeTest) Accepts(v *atom.Atom) bool {
	nv, ok := numericValue(v)
	if !ok {
		return false
	}
	if r.Min != nil {
		if mv, ok := numericValue(r.Min); ok && nv < mv {
			return false
		}
	}
	if r.Max != nil {
		if mv, ok := numericValue(r.Max); ok && nv > mv {
			return false
		}
	}
	return true
}

func numericValue(v *atom.Atom) (float64, bool) {
	return v.Number()
}

// EqualSlots is an intra-pattern variable co-occurrence constraint: the
// same variable bound twice within one pattern requires the two slots of
// a single fact to be equal (spec.md §4.3).
type EqualSlots struct{ A, B int }

// Pattern is one LHS pattern: a template plus its intra-pattern tests.
type Pattern struct {
	Template    *fact.Template
	SlotTests   map[int]SlotTest
	EqualSlots  []EqualSlots
}

func (p *Pattern) matches(f *fact.Fact) bool {
	if f.Template != p.Template {
		return false
	}
	for idx, test := range p.SlotTests {
		if idx >= len(f.Slots) || !test.Accepts(f.Slots[idx]) {
			return false
		}
	}
	for _, eq := range p.EqualSlots {
		if eq.A >= len(f.Slots) || eq.B >= len(f.Slots) || !atom.Equal(f.Slots[eq.A], f.Slots[eq.B]) {
			return false
		}
	}
	return true
}

// membership is the AlphaMembership handle installed on a Fact so retract
// can remove it from this node's memory in O(1) without re-testing every
// pattern (spec.md §4.3).
type membership struct {
	node *PatternNode
	fact *fact.Fact
}

func (m *membership) Remove() { m.node.remove(m.fact) }

// PatternNode is a terminal alpha node: a compiled Pattern plus the set of
// facts currently satisfying it (its alpha memory) and the join nodes that
// read from that memory.
type PatternNode struct {
	pattern   *Pattern
	members   []*fact.Fact
	listeners []beta.RightListener
}

// NewPatternNode compiles a Pattern into a standalone alpha node. Network
// groups PatternNodes per template for the assert/retract sweep.
func NewPatternNode(p *Pattern) *PatternNode {
	return &PatternNode{pattern: p}
}

// Tokens satisfies beta.RightSource: each member fact is a one-element
// token.
func (n *PatternNode) Tokens() []beta.Token {
	out := make([]beta.Token, len(n.members))
	for i, f := range n.members {
		out[i] = beta.Token{Facts: []*fact.Fact{f}}
	}
	return out
}

func (n *PatternNode) AddListener(l beta.RightListener) { n.listeners = append(n.listeners, l) }

func (n *PatternNode) RemoveListener(l beta.RightListener) {
	for i, x := range n.listeners {
		if x == l {
			n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
			return
		}
	}
}

// offer tests f against this node's pattern; on success the fact is added
// to the alpha memory, given an AlphaMembership handle, and propagated to
// successor join nodes as a right activation.
func (n *PatternNode) offer(f *fact.Fact) {
	if !n.pattern.matches(f) {
		return
	}
	n.members = append(n.members, f)
	f.Memberships = append(f.Memberships, &membership{node: n, fact: f})
	tok := beta.Token{Facts: []*fact.Fact{f}}
	for _, l := range n.listeners {
		l.RightActivate(tok, f)
	}
}

func (n *PatternNode) remove(f *fact.Fact) {
	for i, m := range n.members {
		if m == f {
			n.members = append(n.members[:i], n.members[i+1:]...)
			break
		}
	}
	tok := beta.Token{Facts: []*fact.Fact{f}}
	for _, l := range n.listeners {
		l.RightRetract(tok, f)
	}
}

// Len returns the number of facts currently in this node's alpha memory.
func (n *PatternNode) Len() int { return len(n.members) }
