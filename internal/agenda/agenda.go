package agenda

import (
	"fmt"
	"math/rand"
	"sort"

	"crucible/internal/beta"
)

// Agenda is one module's prioritized collection of activations
// (spec.md §3, §4.5). It implements beta.ActivationSink so terminal nodes
// can post directly to it.
type Agenda struct {
	strategy    Strategy
	activations []*Activation
	nextSeq     uint64

	// complexityOf lets the compiler attach a per-rule complexity score
	// (the engine supplies the LHS pattern count) without the agenda depending on
	// the compiler; nil means "treat every rule as equally complex".
	complexityOf func(rule SalientRule) int
}

// New constructs an empty agenda with the given strategy.
func New(strategy Strategy) *Agenda {
	return &Agenda{strategy: strategy}
}

// SetComplexityFunc installs the callback used to score StrategyComplexity/
// StrategySimplicity activations.
func (a *Agenda) SetComplexityFunc(f func(rule SalientRule) int) { a.complexityOf = f }

// Strategy returns the agenda's current conflict-resolution strategy.
func (a *Agenda) Strategy() Strategy { return a.strategy }

// SetStrategy switches strategy and re-sorts the current contents
// (spec.md §4.5: "changing strategy re-sorts the agenda").
func (a *Agenda) SetStrategy(s Strategy) {
	a.strategy = s
	sort.SliceStable(a.activations, func(i, j int) bool {
		return a.strategy.less(a.activations[i], a.activations[j])
	})
}

// Activate implements beta.ActivationSink: a rule's LHS just matched.
func (a *Agenda) Activate(rule any, pm *beta.PartialMatch) {
	sr, ok := rule.(SalientRule)
	if !ok {
		panic(fmt.Sprintf("agenda: rule %v does not implement SalientRule", rule))
	}
	complexity := 0
	if a.complexityOf != nil {
		complexity = a.complexityOf(sr)
	}
	act := &Activation{
		Rule:       sr,
		Match:      pm,
		Salience:   sr.Salience(),
		Seq:        a.nextSeq,
		Complexity: complexity,
		Random:     rand.Float64(),
	}
	a.nextSeq++
	a.insert(act)
}

// Deactivate implements beta.ActivationSink: a previously matching token no
// longer does — the firing it would have produced is withdrawn
// (spec.md §3: "removed when match retracted or rule fires").
func (a *Agenda) Deactivate(rule any, pm *beta.PartialMatch) {
	a.Remove(pm)
}

func (a *Agenda) insert(act *Activation) {
	idx := sort.Search(len(a.activations), func(i int) bool {
		return a.strategy.less(act, a.activations[i]) || !a.strategy.less(a.activations[i], act)
	})
	a.activations = append(a.activations, nil)
	copy(a.activations[idx+1:], a.activations[idx:])
	a.activations[idx] = act
}

// Remove deletes the activation for a given partial match, if any
// (spec.md §4.5: "remove by match").
func (a *Agenda) Remove(pm *beta.PartialMatch) {
	for i, act := range a.activations {
		if act.Match == pm {
			a.activations = append(a.activations[:i], a.activations[i+1:]...)
			return
		}
	}
}

// Pop removes and returns the highest-priority activation, or nil if the
// agenda is empty.
func (a *Agenda) Pop() *Activation {
	if len(a.activations) == 0 {
		return nil
	}
	act := a.activations[0]
	a.activations = a.activations[1:]
	return act
}

// Peek returns the highest-priority activation without removing it.
func (a *Agenda) Peek() *Activation {
	if len(a.activations) == 0 {
		return nil
	}
	return a.activations[0]
}

// Len reports how many activations are currently pending.
func (a *Agenda) Len() int { return len(a.activations) }

// List returns a snapshot of all pending activations in priority order,
// for `(agenda)`/`(get-activation-list)` (spec.md §6).
func (a *Agenda) List() []*Activation {
	out := make([]*Activation, len(a.activations))
	copy(out, a.activations)
	return out
}

// Clear empties the agenda.
func (a *Agenda) Clear() { a.activations = nil }
