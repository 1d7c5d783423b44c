package engine

import (
	"crucible/internal/agenda"
	"crucible/internal/logging"
)

// Module is a named rule partition: its own deftemplates, rule set, and
// agenda, so `focus` can segment the conflict set the way spec.md §4.9
// describes ("equivalent to a segmented agenda").
type Module struct {
	Name   string
	Agenda *agenda.Agenda
	Rules  map[string]*Rule
}

func newModule(name string, strategy agenda.Strategy) *Module {
	return &Module{
		Name:   name,
		Agenda: agenda.New(strategy),
		Rules:  make(map[string]*Rule),
	}
}

const defaultModuleName = "MAIN"

// Focus pushes a module onto the focus stack, making it the active
// source of activations for `run` (spec.md §4.9).
func (e *Environment) Focus(name string) error {
	if _, ok := e.modules[name]; !ok {
		return newErr(NameError, name, 1, "no such module")
	}
	e.focusStack = append(e.focusStack, name)
	logging.Get(logging.CategoryEngine).Debugf("focus pushed: %s", name)
	return nil
}

// PopFocus removes the top of the focus stack, returning its name.
func (e *Environment) PopFocus() (string, error) {
	if len(e.focusStack) == 0 {
		return "", newErr(StateError, "", 2, "focus stack is empty")
	}
	top := e.focusStack[len(e.focusStack)-1]
	e.focusStack = e.focusStack[:len(e.focusStack)-1]
	return top, nil
}

// ClearFocusStack empties the focus stack back to just the default
// module.
func (e *Environment) ClearFocusStack() {
	e.focusStack = []string{defaultModuleName}
}

// GetFocusStack returns the stack top-first, for `get-focus-stack`.
func (e *Environment) GetFocusStack() []string {
	out := make([]string, len(e.focusStack))
	for i, name := range e.focusStack {
		out[i] = e.focusStack[len(e.focusStack)-1-i]
	}
	return out
}

func (e *Environment) currentModule() *Module {
	if len(e.focusStack) == 0 {
		return e.modules[defaultModuleName]
	}
	return e.modules[e.focusStack[len(e.focusStack)-1]]
}
