package engine

import "crucible/internal/ir"

// Rule is a compiled production: its LHS conditional-element tree, its
// flattened RHS instruction stream, and the agenda-facing metadata
// (spec.md §3's Rule entity).
type Rule struct {
	Name        string
	Module      string
	SalienceVal int
	LHS         *ir.CE
	RHS         *ir.Program

	// Logical marks a rule whose RHS assertions are logically supported
	// by its own firing match, per spec.md §4.7 — every assert its RHS
	// performs while firing gets this treatment; there is no per-action
	// `(logical ...)` distinction. Rules without the flag assert unsupported facts.
	Logical bool

	Watch bool
}

// RuleName satisfies agenda.SalientRule.
func (r *Rule) RuleName() string { return r.Name }

// Salience satisfies agenda.SalientRule.
func (r *Rule) Salience() int { return r.SalienceVal }
