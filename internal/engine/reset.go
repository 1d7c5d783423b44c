package engine

import (
	"crucible/internal/alpha"
	"crucible/internal/atom"
	"crucible/internal/fact"
	"crucible/internal/logging"
	"crucible/internal/rhs"
	"crucible/internal/tms"
)

// initialFact is one deffacts-equivalent entry replayed by Reset.
type initialFact struct {
	template string
	values   map[string]*atom.Atom
}

// AddInitialFact registers a fact Reset re-asserts every time it runs —
// the Go-native stand-in for CLIPS's `deffacts` construct (spec.md §6:
// "reset: clears facts, re-asserts initial facts").
func (e *Environment) AddInitialFact(template string, values map[string]*atom.Atom) {
	e.initialFacts = append(e.initialFacts, initialFact{template: template, values: values})
}

// Reset clears working memory, empties every module's agenda, pushes
// MAIN as the sole focus, and replays the registered initial facts
// (spec.md §6).
func (e *Environment) Reset() error {
	if e.joinInProgress {
		return newErr(StateError, e.currentModuleName(), 40, "cannot reset while a join operation is in progress")
	}

	for _, f := range e.Facts.All() {
		if err := e.Retract(f); err != nil {
			logging.Get(logging.CategoryEngine).Warnf("reset: retracting f-%d: %v", f.Index, err)
		}
	}
	for _, mod := range e.modules {
		mod.Agenda.Clear()
	}
	e.ClearFocusStack()
	e.halt = false
	e.evaluationError = false

	for _, ifct := range e.initialFacts {
		if _, err := e.Assert(ifct.template, ifct.values); err != nil {
			return err
		}
	}
	logging.Get(logging.CategoryEngine).Debugf("reset complete: %d initial fact(s) replayed", len(e.initialFacts))
	return nil
}

// Clear tears down every construct — templates, rules, modules, the
// whole atom table — returning the Environment to the state New
// produces. It refuses to run while a join operation is mid-flight
// (spec.md §6, §7: StateError).
func (e *Environment) Clear() error {
	if e.joinInProgress {
		return newErr(StateError, e.currentModuleName(), 41, "cannot clear while a join operation is in progress")
	}

	e.Atoms = atom.NewTable()
	e.Facts = fact.NewStore()
	e.Alpha = alpha.NewNetwork()
	e.TMS = tms.New()
	e.Evaluator = rhs.NewEvaluator(e.Atoms, e)

	e.templates = make(map[string]*fact.Template)
	e.modules = make(map[string]*Module)
	e.modules[defaultModuleName] = newModule(defaultModuleName, strategyFromConfig(e.cfg))
	e.focusStack = []string{defaultModuleName}

	e.initialFacts = nil
	e.pendingLogical = nil
	e.poisoned = false
	e.halt = false
	e.evaluationError = false

	logging.Get(logging.CategoryEngine).Debugf("clear complete")
	return nil
}
