package engine

import (
	"strings"

	"crucible/internal/alpha"
	"crucible/internal/atom"
	"crucible/internal/fact"
	"crucible/internal/logging"
)

// Assert satisfies rhs.WorkingMemory and is also the command surface's
// `assert` entry point (spec.md §6): build a slot vector from named
// values, validate/default it, install it in the fact store, and
// propagate it through the alpha network. Returns (nil, nil) — not an
// error — when duplicate-checking rejects a content-equal fact, mirroring
// CLIPS's assert returning FALSE (spec.md §8, scenario f).
func (e *Environment) Assert(templateName string, slotValues map[string]*atom.Atom) (*fact.Fact, error) {
	if err := e.beginOp(); err != nil {
		return nil, err
	}
	defer e.endOp()

	tmpl, ok := e.templates[templateName]
	if !ok {
		return nil, newErr(NameError, e.currentModuleName(), 10, "no such deftemplate %q", templateName)
	}

	slots, err := e.buildSlotVector(tmpl, slotValues)
	if err != nil {
		return nil, wrapErr(ConstraintError, e.currentModuleName(), 11, err, "asserting %s", templateName)
	}

	f, err := e.Facts.Assert(tmpl, slots)
	if err != nil {
		return nil, wrapErr(ConstraintError, e.currentModuleName(), 12, err, "asserting %s", templateName)
	}
	if f == nil {
		logging.Get(logging.CategoryEngine).Debugf("assert %s rejected: duplicate", templateName)
		return nil, nil
	}

	e.Alpha.Assert(f)
	if e.logicalFrame != nil {
		e.TMS.RegisterSupport(e.logicalFrame, f)
	}
	if e.cfg.Engine.WatchFacts {
		logging.Get(logging.CategoryEngine).Infof("==> f-%d %s", f.Index, e.formatFact(f))
	}
	return f, nil
}

// buildSlotVector maps named slot values onto a template's positional
// slot vector, leaving unspecified slots Void for AssignDefaults to fill
// (spec.md §4.2).
func (e *Environment) buildSlotVector(tmpl *fact.Template, values map[string]*atom.Atom) ([]*atom.Atom, error) {
	slots := make([]*atom.Atom, tmpl.SlotCount())
	if tmpl.Implied {
		if v, ok := values["implied"]; ok {
			slots[0] = v
		}
		return slots, nil
	}
	for name, v := range values {
		idx := tmpl.SlotIndex(name)
		if idx < 0 {
			return nil, &fact.Violation{Reason: "no such slot " + name + " in deftemplate " + tmpl.Name}
		}
		slots[idx] = v
	}
	return slots, nil
}

// Retract satisfies rhs.WorkingMemory: moves a fact onto the garbage
// list, propagating the removal through the alpha/beta network first so
// every downstream partial match is tagged for removal before the fact's
// own memory is reclaimed (spec.md §4.3, §4.4).
func (e *Environment) Retract(f *fact.Fact) error {
	if err := e.beginOp(); err != nil {
		return err
	}
	defer e.endOp()
	return e.retractLocked(f, false)
}

func (e *Environment) retractLocked(f *fact.Fact, modifyOperation bool) error {
	if f == nil || f.IsDeleted() {
		return newErr(NameError, e.currentModuleName(), 20, "fact no longer exists")
	}
	if e.cfg.Engine.WatchFacts {
		logging.Get(logging.CategoryEngine).Infof("<== f-%d %s", f.Index, e.formatFact(f))
	}
	alpha.Retract(f)
	e.Facts.Retract(f, modifyOperation)
	if !modifyOperation {
		e.TMS.Forget(f)
	}
	return nil
}

// drainLogicalRetractions processes facts the TMS hook
// (ruleSink.Deactivate, compile.go) queued while a terminal partial match
// was withdrawn during the propagation just completed — spec.md §4.7's
// ForceLogicalRetractions, applied once the triggering top-level
// operation's own epoch has fully unwound (called from endOp so nested
// RHS-triggered asserts/retracts don't drain prematurely). Draining can
// itself destroy further partial matches, queuing more facts, so this
// loops until the queue is empty rather than a single pass.
func (e *Environment) drainLogicalRetractions() {
	for len(e.pendingLogical) > 0 {
		f := e.pendingLogical[0]
		e.pendingLogical = e.pendingLogical[1:]
		if f.IsDeleted() {
			continue
		}
		_ = e.retractLocked(f, false)
	}
}

// Modify satisfies rhs.WorkingMemory: spec.md §4.8's identity-preserving
// retract+reassert, applied as a partial slot update over the fact's
// current slot vector.
func (e *Environment) Modify(f *fact.Fact, changes map[string]*atom.Atom) error {
	if err := e.beginOp(); err != nil {
		return err
	}
	defer e.endOp()

	if f == nil || f.IsDeleted() {
		return newErr(NameError, e.currentModuleName(), 21, "fact no longer exists")
	}
	tmpl := f.Template
	newSlots := append([]*atom.Atom(nil), f.Slots...)
	for name, v := range changes {
		idx := tmpl.SlotIndex(name)
		if idx < 0 {
			return newErr(ConstraintError, e.currentModuleName(), 22, "no such slot %s in deftemplate %s", name, tmpl.Name)
		}
		newSlots[idx] = v
	}

	alpha.Retract(f)
	if err := e.Facts.Modify(f, newSlots); err != nil {
		return wrapErr(ConstraintError, e.currentModuleName(), 23, err, "modifying f-%d", f.Index)
	}
	e.Alpha.Assert(f)
	if e.cfg.Engine.WatchFacts {
		logging.Get(logging.CategoryEngine).Infof("<== f-%d (modify %s)", f.Index, e.formatChangedSlots(tmpl, changes))
	}
	return nil
}

// formatChangedSlots renders only the slots a modify call actually
// changed, in template slot order — spec.md §8(e) requires the watch
// trace to list just the changed slot, not the whole reasserted fact.
func (e *Environment) formatChangedSlots(tmpl *fact.Template, changes map[string]*atom.Atom) string {
	var parts []string
	for _, def := range tmpl.Slots {
		if v, ok := changes[def.Name]; ok {
			parts = append(parts, "("+def.Name+" "+v.String()+")")
		}
	}
	return strings.Join(parts, " ")
}

// Duplicate satisfies rhs.WorkingMemory: CLIPS's `duplicate` builtin
// (spec.md §6, supplemented per SPEC_FULL.md from original_source/
// factmngr.c) — copy an existing fact's slot values into a new assert,
// applying overrides on top.
func (e *Environment) Duplicate(f *fact.Fact, overrides map[string]*atom.Atom) (*fact.Fact, error) {
	if f == nil || f.IsDeleted() {
		return nil, newErr(NameError, e.currentModuleName(), 24, "fact no longer exists")
	}
	values := make(map[string]*atom.Atom, len(f.Template.Slots))
	if f.Template.Implied {
		values["implied"] = f.Slots[0]
	} else {
		for i, def := range f.Template.Slots {
			if i < len(f.Slots) {
				values[def.Name] = f.Slots[i]
			}
		}
	}
	for name, v := range overrides {
		values[name] = v
	}
	return e.Assert(f.Template.Name, values)
}

// Lookup satisfies rhs.WorkingMemory: resolves a FactAddress atom back to
// its live *fact.Fact, generation-checked so a stale reference into a
// reused index slot is reported as gone rather than returning the wrong
// fact (spec.md §9's generational-index design note).
func (e *Environment) Lookup(addr atom.FactAddress) (*fact.Fact, bool) {
	for _, f := range e.Facts.All() {
		if f.Index == addr.Index && f.Generation == addr.Generation {
			return f, true
		}
	}
	return nil, false
}

// formatFact renders a fact's slot values for the watch trace, e.g.
// "(p (x 1))" (spec.md §9, "watch traces print only changed slots" for
// modify; this is the full-slot form used on assert/retract).
func (e *Environment) formatFact(f *fact.Fact) string {
	if f.Template.Implied {
		if len(f.Slots) > 0 && f.Slots[0] != nil {
			return "(" + f.Template.Name + " " + f.Slots[0].String() + ")"
		}
		return "(" + f.Template.Name + ")"
	}
	out := "(" + f.Template.Name
	for i, def := range f.Template.Slots {
		if i >= len(f.Slots) || f.Slots[i] == nil {
			continue
		}
		out += " (" + def.Name + " " + f.Slots[i].String() + ")"
	}
	return out + ")"
}
