// Package agenda implements the per-module priority queue of activations
// and its pluggable conflict-resolution strategy (spec.md §4.5).
package agenda

import "crucible/internal/beta"

// SalientRule is the minimal contract the agenda needs from a rule: a
// display name and a salience used as the primary sort key.
type SalientRule interface {
	RuleName() string
	Salience() int
}

// Activation is a (rule, satisfying partial match) pair awaiting
// execution, carrying the salience at instantiation time and a global
// sequence number for deterministic tie-breaking (spec.md §3).
type Activation struct {
	Rule     SalientRule
	Match    *beta.PartialMatch
	Salience int
	Seq      uint64

	// depth/complexity are strategy-specific metadata (spec.md §4.5:
	// depth/breadth/complexity/simplicity). Activate fills Complexity from
	// complexityOf; Depth is not set by the agenda and stays zero.
	Depth      int
	Complexity int

	// Random is a fixed key drawn once at instantiation for
	// StrategyRandom, so the comparator is a consistent strict-weak
	// ordering (spec.md §3 invariant I6) instead of a coin flip on every
	// comparison.
	Random float64
}
