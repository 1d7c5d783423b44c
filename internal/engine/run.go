package engine

import (
	"crucible/internal/agenda"
	"crucible/internal/logging"
	"crucible/internal/rhs"
)

// Run drains the focused module's agenda, firing at most n activations
// (or until the agenda empties / halt is set, when n < 0), per spec.md
// §4.6. n == 0 uses the configured MaxRuleFirings instead, where 0 again
// means no limit. It returns the number of rules actually fired.
func (e *Environment) Run(n int) (int, error) {
	if e.running {
		return 0, newErr(StateError, e.currentModuleName(), 50, "run is already in progress")
	}
	e.running = true
	e.halt = false
	defer func() { e.running = false }()

	if n == 0 {
		n = e.cfg.Engine.MaxRuleFirings
	}

	fired := 0
	for {
		if e.halt {
			break
		}
		if n > 0 && fired >= n {
			break
		}
		mod := e.currentModule()
		if mod == nil {
			break
		}
		act := mod.Agenda.Pop()
		if act == nil {
			break
		}
		e.fire(act)
		fired++
	}
	return fired, nil
}

// fire executes one activation's RHS: bind the frame, invoke before/after
// callbacks, run the flattened program inside a fresh garbage-frame epoch
// (spec.md §4.6, steps 1-4).
func (e *Environment) fire(act *agenda.Activation) {
	ra, ok := act.Rule.(*ruleActivation)
	if !ok {
		_ = e.poison("activation carries an unrecognized rule identity")
		return
	}
	rule := ra.rule
	pm := act.Match

	if err := e.beginOp(); err != nil {
		logging.Get(logging.CategoryEngine).Errorf("fire %s: %v", rule.Name, err)
		return
	}
	defer e.endOp()

	frame := rhs.NewFrame()
	facts := pm.Facts()
	for name, loc := range ra.frame.vars {
		if loc.factIdx < len(facts) {
			frame.Vars[name] = facts[loc.factIdx].Slots[loc.slot]
		}
	}
	for idx, name := range ra.frame.factBindings {
		if idx < len(facts) {
			frame.Facts[name] = facts[idx]
		}
	}

	for _, cb := range e.beforeRule {
		cb(rule, pm)
	}

	if rule.Watch || e.cfg.Engine.WatchRules {
		logging.Get(logging.CategoryEngine).Infof("FIRE %s", rule.Name)
	}

	prevLogical := e.logicalFrame
	if rule.Logical {
		e.logicalFrame = pm
	}
	_, err := e.Evaluator.Run(rule.RHS, frame)
	e.logicalFrame = prevLogical

	for _, cb := range e.afterRule {
		cb(rule, pm)
	}

	if err != nil {
		e.evaluationError = true
		logging.Get(logging.CategoryEngine).Warnf("EvaluationError firing %s: %v", rule.Name, err)
	}
}

// EvaluationError reports whether the last RHS execution aborted with a
// recoverable error (spec.md §7).
func (e *Environment) EvaluationError() bool { return e.evaluationError }

// ClearEvaluationError resets the evaluation-error flag, the way CLIPS's
// `(clear)` and a successful command both do.
func (e *Environment) ClearEvaluationError() { e.evaluationError = false }
