// Package tms implements the logical-support truth-maintenance layer
// (spec.md §4.7): when an RHS runs inside a logically-supported context,
// the currently-firing partial match becomes the reason any facts it
// asserts exist. Losing that support schedules the dependent facts for
// retraction, unless another support still holds them up.
//
// This mirrors the teacher's proof-tree tracer
// (internal/mangle/proof_tree.go): there, a DerivationNode's Children
// record which facts justified a derived fact; here, a partial match's
// supported-fact list plays the same justification role, just walked
// backwards — from support to dependent instead of from conclusion to
// premise.
package tms

import (
	"crucible/internal/beta"
	"crucible/internal/fact"
)

// Manager tracks the partial-match → supported-facts relation. The
// forward direction (fact → its supports) lives on fact.Fact.Supports
// itself, so any code holding a *fact.Fact can already tell whether it is
// logically supported; Manager exists for the reverse lookup needed when
// a partial match goes away.
type Manager struct {
	supports map[*beta.PartialMatch][]*fact.Fact
}

// New constructs an empty truth-maintenance manager.
func New() *Manager {
	return &Manager{supports: make(map[*beta.PartialMatch][]*fact.Fact)}
}

// RegisterSupport records that pm justifies f's existence. Multiple
// registrations for the same (pm, f) pair are idempotent — CLIPS allows a
// rule to assert the same logical fact more than once across separate
// firings of the same activation without stacking duplicate support
// entries.
func (m *Manager) RegisterSupport(pm *beta.PartialMatch, f *fact.Fact) {
	if pm == nil || f == nil {
		return
	}
	for _, s := range f.Supports {
		if s == pm {
			return
		}
	}
	f.Supports = append(f.Supports, pm)
	m.supports[pm] = append(m.supports[pm], f)
}

// Supported reports whether f currently has at least one surviving
// logical support.
func Supported(f *fact.Fact) bool { return f != nil && len(f.Supports) > 0 }

// ForceLogicalRetractions is called when pm is destroyed (cascaded from a
// LeftRetract/RightRetract in the beta network). It withdraws pm as a
// support from every fact it backed and returns the facts left with zero
// remaining supports — those the caller must actually retract. Facts
// still held up by another support are left alone: supports are OR'd
// (spec.md §4.7).
func (m *Manager) ForceLogicalRetractions(pm *beta.PartialMatch) []*fact.Fact {
	facts := m.supports[pm]
	delete(m.supports, pm)

	var dead []*fact.Fact
	for _, f := range facts {
		f.Supports = removeSupport(f.Supports, pm)
		if len(f.Supports) == 0 {
			dead = append(dead, f)
		}
	}
	return dead
}

func removeSupport(supports []any, pm *beta.PartialMatch) []any {
	out := supports[:0]
	for _, s := range supports {
		if s != pm {
			out = append(out, s)
		}
	}
	return out
}

// Forget clears f's own support list, used once f has actually been
// retracted so a later Generation reusing f's slot doesn't inherit stale
// support entries. Manager's partial-match entries that list f are kept
// until that match goes away, when ForceLogicalRetractions reports f again.
func (m *Manager) Forget(f *fact.Fact) {
	f.Supports = nil
}
