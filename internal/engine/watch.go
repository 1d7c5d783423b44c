package engine

// WatchItem names one of the `watch`/`unwatch` targets (spec.md §6).
type WatchItem string

const (
	WatchFacts         WatchItem = "facts"
	WatchRules         WatchItem = "rules"
	WatchActivations   WatchItem = "activations"
	WatchCompilations  WatchItem = "compilations"
	WatchStatistics    WatchItem = "statistics"
)

// Watch turns tracing on for one item (spec.md §6). Compilations and
// statistics aren't config-backed (internal/config's EngineConfig only
// models facts/rules/activations, the three spec.md's worked scenarios
// exercise), so they're tracked directly on the Environment.
func (e *Environment) Watch(item WatchItem) error {
	switch item {
	case WatchFacts:
		e.cfg.Engine.WatchFacts = true
	case WatchRules:
		e.cfg.Engine.WatchRules = true
	case WatchActivations:
		e.cfg.Engine.WatchActivations = true
	case WatchCompilations:
		e.watchCompilations = true
	case WatchStatistics:
		e.watchStatistics = true
	default:
		return newErr(NameError, e.currentModuleName(), 60, "unknown watch item %q", item)
	}
	return nil
}

// Unwatch turns tracing off for one item.
func (e *Environment) Unwatch(item WatchItem) error {
	switch item {
	case WatchFacts:
		e.cfg.Engine.WatchFacts = false
	case WatchRules:
		e.cfg.Engine.WatchRules = false
	case WatchActivations:
		e.cfg.Engine.WatchActivations = false
	case WatchCompilations:
		e.watchCompilations = false
	case WatchStatistics:
		e.watchStatistics = false
	default:
		return newErr(NameError, e.currentModuleName(), 61, "unknown watch item %q", item)
	}
	return nil
}

// Agenda exposes the current module's pending activations for the
// `(agenda)`/`(get-activation-list)` commands (spec.md §6).
func (e *Environment) Agenda() []*Activation {
	mod := e.currentModule()
	if mod == nil {
		return nil
	}
	var out []*Activation
	for _, act := range mod.Agenda.List() {
		ra, ok := act.Rule.(*ruleActivation)
		if !ok {
			continue
		}
		out = append(out, &Activation{Rule: ra.rule, Salience: act.Salience, Seq: act.Seq})
	}
	return out
}

// Activation is the engine-facing view of an agenda entry, hiding the
// internal ruleActivation/beta.PartialMatch plumbing from callers like
// cmd/crucible's renderer.
type Activation struct {
	Rule     *Rule
	Salience int
	Seq      uint64
}
