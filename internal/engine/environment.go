// Package engine implements the match-resolve-act driver: the
// Environment handle that owns every other subsystem (atom table, fact
// store, alpha/beta networks, agenda, TMS) and exposes the commands the
// outer shell invokes (spec.md §6, §9's "thread a single explicit
// Environment handle through every core operation; forbid hidden
// globals").
package engine

import (
	"fmt"

	"crucible/internal/agenda"
	"crucible/internal/alpha"
	"crucible/internal/atom"
	"crucible/internal/beta"
	"crucible/internal/config"
	"crucible/internal/fact"
	"crucible/internal/logging"
	"crucible/internal/rhs"
	"crucible/internal/tms"
)

// Environment is the single explicit handle every core operation threads
// through, replacing the source's process-wide globals (spec.md §9).
type Environment struct {
	cfg *config.Config

	Atoms     *atom.Table
	Facts     *fact.Store
	Alpha     *alpha.Network
	TMS       *tms.Manager
	Evaluator *rhs.Evaluator

	templates map[string]*fact.Template
	modules   map[string]*Module
	focusStack []string

	// running is spec.md §4.6's AlreadyRunning reentrancy guard.
	running bool
	// joinInProgress is invariant I5: excludes concurrent assert/retract/
	// clear while the match propagation for another one is still live.
	joinInProgress bool

	halt bool

	// evaluationError records whether the last command ended abnormally,
	// mirroring CLIPS's EvaluationError global (spec.md §7).
	evaluationError bool
	// poisoned marks a SystemError invariant breach; refuses further
	// commands until Clear (spec.md §7).
	poisoned bool

	watchCompilations bool
	watchStatistics   bool

	// logicalFrame, when non-nil, is the partial match currently firing
	// inside a logically-supported RHS context, so Assert can register
	// it as support (spec.md §4.7).
	logicalFrame *beta.PartialMatch

	// pendingLogical queues facts the TMS hook (compile.go's ruleSink)
	// found with zero remaining supports while a partial match was
	// withdrawn; drainLogicalRetractions (commands_fact.go) processes it
	// once the current top-level operation's epoch unwinds.
	pendingLogical []*fact.Fact

	// garbageEpoch counts nested top-level operations; Sweep only runs
	// when it returns to zero, the "scoped arena" spec.md §9 describes.
	garbageEpoch int

	beforeRule []func(rule *Rule, pm *beta.PartialMatch)
	afterRule  []func(rule *Rule, pm *beta.PartialMatch)

	initialFacts []initialFact
}

// New builds an Environment with a single MAIN module on the focus
// stack, the CLIPS-default boot state.
func New(cfg *config.Config) *Environment {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e := &Environment{
		cfg:        cfg,
		Atoms:      atom.NewTable(),
		Facts:      fact.NewStore(),
		Alpha:      alpha.NewNetwork(),
		TMS:        tms.New(),
		templates:  make(map[string]*fact.Template),
		modules:    make(map[string]*Module),
		focusStack: []string{defaultModuleName},
	}
	e.Facts.DuplicateCheck = true
	e.modules[defaultModuleName] = newModule(defaultModuleName, strategyFromConfig(cfg))
	e.Evaluator = rhs.NewEvaluator(e.Atoms, e)
	logging.Get(logging.CategoryEngine).Debugf("environment initialized, module %s focused", defaultModuleName)
	return e
}

func strategyFromConfig(cfg *config.Config) agenda.Strategy {
	switch cfg.Agenda.Strategy {
	case "breadth":
		return agenda.StrategyBreadth
	case "complexity":
		return agenda.StrategyComplexity
	case "simplicity":
		return agenda.StrategySimplicity
	case "lex":
		return agenda.StrategyLEX
	case "mea":
		return agenda.StrategyMEA
	case "random":
		return agenda.StrategyRandom
	default:
		return agenda.StrategyDepth
	}
}

// Halt sets the halt flag; checked between firings in Run (spec.md §4.6).
func (e *Environment) Halt() { e.halt = true }

// Halted reports whether a halt is pending.
func (e *Environment) Halted() bool { return e.halt }

// Poisoned reports whether a SystemError has left the environment unusable
// until Clear (spec.md §7).
func (e *Environment) Poisoned() bool { return e.poisoned }

func (e *Environment) poison(format string, args ...interface{}) *Error {
	e.poisoned = true
	e.halt = true
	msg := fmt.Sprintf(format, args...)
	logging.Get(logging.CategoryEngine).Errorf("SYSTEM ERROR: %s", msg)
	return newErr(SystemError, e.currentModuleName(), 1, msg)
}

func (e *Environment) currentModuleName() string {
	if len(e.focusStack) == 0 {
		return defaultModuleName
	}
	return e.focusStack[len(e.focusStack)-1]
}

// beginOp opens one level of the garbage-frame epoch (spec.md §9): the
// per-operation arena that defers fact reclamation until the outermost
// assert/retract/run-firing completes. Nested calls (an RHS action
// asserting a fact during a rule firing Run already opened an epoch for)
// simply deepen the same epoch rather than rejecting — the engine is
// single-threaded and cooperative (spec.md §5), so this is ordinary
// forward chaining, not the kind of reentrancy invariant I5 excludes.
// Invariant I5 itself is enforced at the *command* surface: Clear and
// Reset refuse to run while joinInProgress is still set, since those
// tear down state a still-unwinding assert/retract/run call depends on.
func (e *Environment) beginOp() error {
	if e.poisoned {
		return newErr(StateError, e.currentModuleName(), 2, "environment is poisoned, call clear")
	}
	e.joinInProgress = true
	e.garbageEpoch++
	return nil
}

// endOp closes one level of the garbage-frame epoch. Once it returns to
// zero it drains any logical retractions the just-completed propagation
// queued (spec.md §4.7) and runs Sweep (spec.md §9: "reclaim at epoch
// end").
func (e *Environment) endOp() {
	e.garbageEpoch--
	if e.garbageEpoch == 0 {
		e.drainLogicalRetractions()
		e.joinInProgress = false
		e.Facts.Sweep()
	}
}

// AddTemplate registers a compiled deftemplate, making it visible to
// assert/pattern-compile.
func (e *Environment) AddTemplate(t *fact.Template) {
	e.templates[t.Name] = t
}

// Template looks up a registered deftemplate by name.
func (e *Environment) Template(name string) (*fact.Template, bool) {
	t, ok := e.templates[name]
	return t, ok
}

// Templates returns every registered deftemplate.
func (e *Environment) Templates() []*fact.Template {
	out := make([]*fact.Template, 0, len(e.templates))
	for _, t := range e.templates {
		out = append(out, t)
	}
	return out
}

// AddBeforeRuleCallback registers a callback invoked before a rule's RHS
// runs (spec.md §4.6, step 2).
func (e *Environment) AddBeforeRuleCallback(f func(rule *Rule, pm *beta.PartialMatch)) {
	e.beforeRule = append(e.beforeRule, f)
}

// AddAfterRuleCallback registers a callback invoked after a rule's RHS
// runs (spec.md §4.6, step 4).
func (e *Environment) AddAfterRuleCallback(f func(rule *Rule, pm *beta.PartialMatch)) {
	e.afterRule = append(e.afterRule, f)
}
