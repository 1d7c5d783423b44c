package engine

import (
	"fmt"

	"crucible/internal/agenda"
	"crucible/internal/alpha"
	"crucible/internal/atom"
	"crucible/internal/beta"
	"crucible/internal/fact"
	"crucible/internal/ir"
	"crucible/internal/rhs"
)

// varLoc locates a bound LHS variable: which fact in a token carries it,
// and which of that fact's slots.
type varLoc struct {
	factIdx int
	slot    int
}

// frameSpec records everything Run needs to turn a terminal partial
// match's token into an RHS firing Frame (spec.md §4.6, step 1): the
// variable→(fact,slot) map and any `?f <- (pattern)` fact-address
// captures, by token position.
type frameSpec struct {
	vars         map[string]varLoc
	factBindings map[int]string
}

// branch is the compiler's in-progress state for one LHS alternative —
// plural because an `or` connective forks the join chain into one
// alternative per disjunct, each reaching its own terminal node but
// sharing the same Rule and RHS (spec.md §6: "connective (and/or/not)").
type branch struct {
	left   beta.TokenSource
	vars   map[string]varLoc
	bound  map[int]string // factIdx -> ?f-style binding variable
	nFacts int
}

func rootBranch() *branch {
	return &branch{
		left:  beta.NewDummyRoot(),
		vars:  make(map[string]varLoc),
		bound: make(map[int]string),
	}
}

// ruleActivation is the identity the beta network and agenda see for one
// compiled disjunct of a rule: it satisfies agenda.SalientRule by
// delegating to the real *Rule, while also carrying that disjunct's own
// frameSpec, since an `or`-LHS's branches can bind the same variable at
// different token positions (spec.md §3's Activation entity, specialized
// per branch).
type ruleActivation struct {
	rule  *Rule
	frame *frameSpec
}

func (r *ruleActivation) RuleName() string { return r.rule.Name }
func (r *ruleActivation) Salience() int    { return r.rule.SalienceVal }

// ruleSink adapts one module's agenda into a beta.ActivationSink that
// also runs the TMS hook (spec.md §4.7): when a terminal partial match
// is withdrawn, any logical support it carried is dropped, and facts left
// with none queue for retraction once the current operation unwinds
// (drainLogicalRetractions in commands_fact.go).
type ruleSink struct {
	env *Environment
	ag  *agenda.Agenda
}

func (s *ruleSink) Activate(rule any, pm *beta.PartialMatch) { s.ag.Activate(rule, pm) }

func (s *ruleSink) Deactivate(rule any, pm *beta.PartialMatch) {
	dead := s.env.TMS.ForceLogicalRetractions(pm)
	s.env.pendingLogical = append(s.env.pendingLogical, dead...)
	s.ag.Deactivate(rule, pm)
}

// DefineRule compiles rule.LHS into alpha/beta network nodes and wires a
// terminal node per `or`-disjunct into rule.Module's agenda. Callers
// build the Rule (name, module, salience, LHS, flattened RHS) and hand it
// here; compilation is the only place alpha.Pattern/beta.JoinNode values
// get constructed from the parser-facing IR (spec.md §6).
func (e *Environment) DefineRule(r *Rule) error {
	if r.Module == "" {
		r.Module = defaultModuleName
	}
	mod, ok := e.modules[r.Module]
	if !ok {
		mod = newModule(r.Module, strategyFromConfig(e.cfg))
		e.modules[r.Module] = mod
	}
	mod.Agenda.SetComplexityFunc(func(sr agenda.SalientRule) int {
		ra, ok := sr.(*ruleActivation)
		if !ok {
			return 0
		}
		return countPatterns(ra.rule.LHS)
	})

	branches, err := compileCE(e, []*branch{rootBranch()}, r.LHS)
	if err != nil {
		return wrapErr(SyntaxError, r.Module, 30, err, "compiling rule %s", r.Name)
	}
	if len(branches) == 0 {
		return newErr(SyntaxError, r.Module, 31, "rule %s has an empty left-hand side", r.Name)
	}

	sink := &ruleSink{env: e, ag: mod.Agenda}
	for _, br := range branches {
		fs := &frameSpec{vars: br.vars, factBindings: br.bound}
		ra := &ruleActivation{rule: r, frame: fs}
		beta.NewTerminalNode(ra, br.left, sink)
	}

	mod.Rules[r.Name] = r
	return nil
}

func countPatterns(ce *ir.CE) int {
	if ce == nil {
		return 0
	}
	if ce.Pattern != nil {
		return 1
	}
	n := 0
	for _, c := range ce.Children {
		n += countPatterns(c)
	}
	return n
}

// compileCE walks one LHS conditional-element tree, threading an
// in-progress set of branches through And/Or/Not/Exists connectives
// (spec.md §6, §4.4).
func compileCE(env *Environment, branches []*branch, ce *ir.CE) ([]*branch, error) {
	if ce == nil {
		return branches, nil
	}
	if ce.Pattern != nil {
		out := make([]*branch, 0, len(branches))
		for _, br := range branches {
			nb, err := compilePositiveLeaf(env, br, ce.Pattern)
			if err != nil {
				return nil, err
			}
			out = append(out, nb)
		}
		return out, nil
	}

	switch ce.Connective {
	case ir.And:
		cur := branches
		var err error
		for _, child := range ce.Children {
			cur, err = compileCE(env, cur, child)
			if err != nil {
				return nil, err
			}
		}
		return cur, nil

	case ir.Or:
		// Each disjunct is compiled against the same incoming branches
		// and its results fan out into the overall branch set — CLIPS's
		// own strategy of compiling `or` as separate parallel join
		// chains sharing one terminal RHS (spec.md §6).
		var out []*branch
		for _, child := range ce.Children {
			sub, err := compileCE(env, branches, child)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil

	case ir.Not, ir.Exists:
		out := make([]*branch, 0, len(branches))
		for _, br := range branches {
			nb, err := compileNegated(env, br, ce.Children, ce.Connective == ir.Exists)
			if err != nil {
				return nil, err
			}
			out = append(out, nb)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown connective %v", ce.Connective)
	}
}

// compilePositiveLeaf extends br with one more positive pattern: a fresh
// alpha node plus a join against br.left, carrying forward every
// variable binding already in scope (spec.md §4.3, §4.4).
func compilePositiveLeaf(env *Environment, br *branch, p *ir.Pattern) (*branch, error) {
	tmpl, ok := env.templates[p.Template]
	if !ok {
		return nil, fmt.Errorf("no such deftemplate %q", p.Template)
	}

	slotTests, equalSlots, predicates, firstOccurrence, err := compileIntraPattern(tmpl, p)
	if err != nil {
		return nil, err
	}

	node := env.Alpha.AddPattern(&alpha.Pattern{
		Template:   tmpl,
		SlotTests:  slotTests,
		EqualSlots: equalSlots,
	})

	eqs := crossRefEqualities(br, firstOccurrence)
	secondary := buildSecondary(env, br.vars, firstOccurrence, predicates)

	jn := beta.NewJoinNode(br.left, node, beta.JoinTest{Equalities: eqs, Secondary: secondary}, false, false)

	return extendBranch(br, node2branchVars(firstOccurrence, br.nFacts), jn, p.Binding), nil
}

// compileNegated builds a `not`/`exists` join against br: the inner
// conditional elements become either a single alpha node (the common
// case) or a small positive join subnetwork read from the right via
// beta.AsRightSource (spec.md §4's "join-from-the-right" flag). Only the
// last inner pattern's variables are visible to the outer branch's
// secondary test, since the join test only ever sees the right side's
// origin fact (the last fact of the inner token) — a deliberate
// simplification for multi-pattern not/exists groups; single-pattern
// negation (the common case, spec.md §8 scenario b) has no such limit.
func compileNegated(env *Environment, br *branch, children []*ir.CE, exists bool) (*branch, error) {
	var patterns []*ir.Pattern
	for _, c := range children {
		patterns = append(patterns, c.Patterns()...)
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("not/exists group has no patterns")
	}

	var right beta.RightSource
	var rightVars map[string]int

	if len(patterns) == 1 {
		tmpl, ok := env.templates[patterns[0].Template]
		if !ok {
			return nil, fmt.Errorf("no such deftemplate %q", patterns[0].Template)
		}
		slotTests, equalSlots, _, firstOccurrence, err := compileIntraPattern(tmpl, patterns[0])
		if err != nil {
			return nil, err
		}
		node := env.Alpha.AddPattern(&alpha.Pattern{Template: tmpl, SlotTests: slotTests, EqualSlots: equalSlots})
		right = node
		rightVars = firstOccurrence
	} else {
		inner := rootBranch()
		var cur *branch = inner
		var lastVars map[string]int
		for _, p := range patterns {
			nb, err := compilePositiveLeaf(env, cur, p)
			if err != nil {
				return nil, err
			}
			_, _, _, firstOccurrence, err2 := compileIntraPattern(env.templates[p.Template], p)
			if err2 != nil {
				return nil, err2
			}
			lastVars = firstOccurrence
			cur = nb
		}
		jn, ok := cur.left.(*beta.JoinNode)
		if !ok {
			return nil, fmt.Errorf("internal: not/exists subnetwork did not terminate in a join node")
		}
		right = beta.AsRightSource(jn)
		rightVars = lastVars
	}

	eqs := crossRefEqualities(br, rightVars)
	jn := beta.NewJoinNode(br.left, right, beta.JoinTest{Equalities: eqs}, !exists, exists)

	return &branch{left: jn, vars: br.vars, bound: br.bound, nFacts: br.nFacts}, nil
}

// compileIntraPattern translates one ir.Pattern's fields into the alpha
// network's single-pattern constraint vocabulary, plus a map of which
// slot first bound each variable (for cross-pattern join tests) and any
// predicate-constraint expressions to fold into a join's secondary test
// (spec.md §4.3).
func compileIntraPattern(tmpl *fact.Template, p *ir.Pattern) (map[int]alpha.SlotTest, []alpha.EqualSlots, []*ir.Expr, map[string]int, error) {
	slotTests := make(map[int]alpha.SlotTest)
	var equalSlots []alpha.EqualSlots
	var predicates []*ir.Expr
	firstOccurrence := make(map[string]int)

	for i, field := range p.SlotFields {
		switch field.Kind {
		case ir.FieldConstant:
			slotTests[i] = alpha.ConstTest{Value: field.Literal}
		case ir.FieldWildcard, ir.FieldMultifieldWildcard:
			// no constraint
		case ir.FieldVariable, ir.FieldMultifieldVariable:
			if seen, ok := firstOccurrence[field.Variable]; ok {
				equalSlots = append(equalSlots, alpha.EqualSlots{A: seen, B: i})
			} else {
				firstOccurrence[field.Variable] = i
			}
		case ir.FieldPredicate:
			predicates = append(predicates, field.Predicate)
		default:
			return nil, nil, nil, nil, fmt.Errorf("unknown field kind %v in pattern on %s", field.Kind, tmpl.Name)
		}
	}
	return slotTests, equalSlots, predicates, firstOccurrence, nil
}

// crossRefEqualities turns "this pattern's variable is already bound
// earlier in the token" into join-test equalities (spec.md §4.4,
// "variable equalities").
func crossRefEqualities(br *branch, rightVars map[string]int) []beta.EqualityTest {
	var eqs []beta.EqualityTest
	for name, slot := range rightVars {
		if loc, ok := br.vars[name]; ok {
			eqs = append(eqs, beta.EqualityTest{LeftPatternIndex: loc.factIdx, LeftSlot: loc.slot, RightSlot: slot})
		}
	}
	return eqs
}

// buildSecondary folds FieldPredicate constraints into a join's
// secondary test (spec.md §4.4): a closure evaluating the predicate
// expression tree against a frame built from every variable bound so
// far, structural equality having already been checked by the caller.
func buildSecondary(env *Environment, outerVars map[string]varLoc, rightVars map[string]int, predicates []*ir.Expr) func(beta.Token, *fact.Fact) bool {
	if len(predicates) == 0 {
		return nil
	}
	progs := make([]*ir.Program, len(predicates))
	for i, p := range predicates {
		progs[i] = ir.Flatten(p)
	}
	return func(left beta.Token, right *fact.Fact) bool {
		frame := rhs.NewFrame()
		for name, loc := range outerVars {
			if loc.factIdx >= len(left.Facts) {
				return false
			}
			frame.Vars[name] = left.Facts[loc.factIdx].Slots[loc.slot]
		}
		for name, slot := range rightVars {
			if slot >= len(right.Slots) {
				return false
			}
			frame.Vars[name] = right.Slots[slot]
		}
		for _, prog := range progs {
			result, err := env.Evaluator.Run(prog, frame)
			if err != nil || !isTruthy(result) {
				return false
			}
		}
		return true
	}
}

func isTruthy(a *atom.Atom) bool {
	if a == nil || a.Tag() != atom.Sym {
		return false
	}
	text, ok := a.SymbolText()
	return ok && text == "TRUE"
}

func node2branchVars(firstOccurrence map[string]int, nFactsBefore int) map[string]varLoc {
	out := make(map[string]varLoc, len(firstOccurrence))
	for name, slot := range firstOccurrence {
		out[name] = varLoc{factIdx: nFactsBefore, slot: slot}
	}
	return out
}

// extendBranch folds a newly-bound pattern's variables into br's scope
// and advances the token-length counter, recording a `?f <- (pattern)`
// capture by token position if the pattern declared one.
func extendBranch(br *branch, newVars map[string]varLoc, left beta.TokenSource, binding string) *branch {
	vars := make(map[string]varLoc, len(br.vars)+len(newVars))
	for k, v := range br.vars {
		vars[k] = v
	}
	for k, v := range newVars {
		vars[k] = v
	}
	bound := make(map[int]string, len(br.bound)+1)
	for k, v := range br.bound {
		bound[k] = v
	}
	if binding != "" {
		bound[br.nFacts] = binding
	}
	return &branch{left: left, vars: vars, bound: bound, nFacts: br.nFacts + 1}
}
