// Package ir is the parser-facing intermediate representation the core
// compiles into alpha/beta network nodes and RHS closures (spec.md §6):
// an LHS pattern tree and a flattened RHS instruction stream. Nothing in
// this package talks to a concrete surface-language parser — it only
// defines the shapes a parser (out of core scope) would hand to the
// compiler.
package ir

import "crucible/internal/atom"

// Connective joins conditional elements on a rule's LHS. And is implicit
// between top-level patterns; Or/Not/Exists group a nested set of CEs
// (spec.md §6: "connective (and/or/not)", extended with Exists to match
// the beta network's negated/exists join specialization, spec.md §4.4).
type Connective int

const (
	And Connective = iota
	Or
	Not
	Exists
)

func (c Connective) String() string {
	switch c {
	case And:
		return "and"
	case Or:
		return "or"
	case Not:
		return "not"
	case Exists:
		return "exists"
	default:
		return "unknown"
	}
}

// FieldKind classifies a single pattern field (spec.md §6: "field-kind").
type FieldKind int

const (
	// FieldConstant matches only the literal value it carries.
	FieldConstant FieldKind = iota
	// FieldVariable binds (or re-checks, if already bound) a single value.
	FieldVariable
	// FieldWildcard matches any single value without binding (`?`).
	FieldWildcard
	// FieldMultifieldVariable binds a contiguous run of slot values
	// (`$?name`).
	FieldMultifieldVariable
	// FieldMultifieldWildcard matches a contiguous run without binding
	// (`$?`).
	FieldMultifieldWildcard
	// FieldPredicate is an arbitrary constraint expression, e.g. `(> ?x 5)`,
	// evaluated after structural fields bind their variables.
	FieldPredicate
)

// Field is one slot-position entry within a Pattern.
type Field struct {
	Kind FieldKind

	// Variable names the bound symbol for FieldVariable/
	// FieldMultifieldVariable fields; empty for wildcards/constants.
	Variable string

	// Literal is the constant value for FieldConstant fields.
	Literal *atom.Atom

	// Predicate is the constraint expression for FieldPredicate fields,
	// expressed in the same RHS Expr grammar (rhs.go) since CLIPS
	// predicate constraints are just boolean-valued function calls.
	Predicate *Expr
}

// Pattern is a single conditional element matching one template's facts
// (spec.md §6: "slot-ref"). SlotFields is indexed the same way as the
// compiled fact.Template's slots.
type Pattern struct {
	Template   string
	SlotFields []Field

	// Binding names the fact-address variable bound by `?f <- (pattern)`,
	// if the rule captured one; empty otherwise.
	Binding string
}

// CE is one node of the LHS parse tree: either a leaf Pattern or a
// composite grouping of child CEs under a Connective.
type CE struct {
	Connective Connective
	Pattern    *Pattern // non-nil only for implicit single-pattern leaves
	Children   []*CE    // non-nil for Or/Not/Exists/explicit-And groups
}

// Leaf wraps a single pattern as a CE, the common case of an unadorned
// top-level pattern.
func Leaf(p *Pattern) *CE { return &CE{Connective: And, Pattern: p} }

// Patterns flattens the CE tree into the ordered list of leaf patterns a
// positive (non-negated, non-nested) LHS consists of. Or/Not/Exists
// groups contribute no patterns, since the join compiler handles those
// structurally rather than by position.
func (c *CE) Patterns() []*Pattern {
	if c == nil {
		return nil
	}
	if c.Pattern != nil {
		return []*Pattern{c.Pattern}
	}
	var out []*Pattern
	if c.Connective == And {
		for _, child := range c.Children {
			out = append(out, child.Patterns()...)
		}
	}
	return out
}
