package engine

import (
	"fmt"

	"crucible/internal/atom"
	"crucible/internal/fact"
	"crucible/internal/logging"
	"crucible/internal/store"
)

// BSave writes every live deftemplate and fact to a sqlite-backed binary
// image at path (spec.md §6's `bsave`). The compiled alpha/beta network
// is not part of the image — reloading a join network is out of scope —
// so BLoad's job is to repopulate working memory and let the engine
// rediscover matches against whatever rules happen to be defined.
func (e *Environment) BSave(path string) error {
	s, err := store.Open(path)
	if err != nil {
		return wrapErr(ResourceError, e.currentModuleName(), 70, err, "bsave: opening %s", path)
	}
	defer s.Close()

	if err := s.BSave(e.Templates()); err != nil {
		return wrapErr(ResourceError, e.currentModuleName(), 71, err, "bsave")
	}
	logging.Get(logging.CategoryEngine).Infof("bsave: wrote %d fact(s) to %s", len(e.Facts.All()), path)
	return nil
}

// BLoad reads a binary image written by BSave, registering any
// deftemplate it doesn't already know about and reasserting every saved
// fact through the normal Assert path — so duplicate suppression, slot
// validation, and alpha/beta propagation all run exactly as they would
// for a freshly-typed assert (spec.md §6).
func (e *Environment) BLoad(path string) (int, error) {
	if e.joinInProgress {
		return 0, newErr(StateError, e.currentModuleName(), 72, "cannot bload while a join operation is in progress")
	}

	s, err := store.Open(path)
	if err != nil {
		return 0, wrapErr(ResourceError, e.currentModuleName(), 73, err, "bload: opening %s", path)
	}
	defer s.Close()

	tmplRows, factRows, err := s.BLoad()
	if err != nil {
		return 0, wrapErr(ResourceError, e.currentModuleName(), 74, err, "bload")
	}

	for _, row := range tmplRows {
		if _, ok := e.templates[row.TemplateName]; ok {
			continue
		}
		t := fact.NewOrderedTemplate(row.TemplateName)
		t.Implied = row.Implied
		t.Slots = row.Slots
		e.AddTemplate(t)
	}

	loaded := 0
	for _, row := range factRows {
		tmpl, ok := e.templates[row.TemplateName]
		if !ok {
			return loaded, newErr(NameError, e.currentModuleName(), 75, "bload: fact f-%d references unknown deftemplate %s", row.Index, row.TemplateName)
		}
		values := make(map[string]*atom.Atom, len(row.Slots))
		for pos, sv := range row.Slots {
			if pos >= len(tmpl.Slots) {
				continue
			}
			a, err := internScalar(e.Atoms, sv)
			if err != nil {
				return loaded, wrapErr(ResourceError, e.currentModuleName(), 76, err, "bload: fact f-%d slot %d", row.Index, pos)
			}
			values[tmpl.Slots[pos].Name] = a
		}
		if _, err := e.Assert(row.TemplateName, values); err != nil {
			return loaded, err
		}
		loaded++
	}
	logging.Get(logging.CategoryEngine).Infof("bload: reasserted %d fact(s) from %s", loaded, path)
	return loaded, nil
}

func internScalar(tbl *atom.Table, sv store.ScalarValue) (*atom.Atom, error) {
	switch sv.Tag {
	case atom.Sym:
		return tbl.InternSymbol(sv.Text)
	case atom.Str:
		return tbl.InternString(sv.Text), nil
	case atom.InstanceName:
		return tbl.InternInstanceName(sv.Text)
	case atom.Int:
		return tbl.InternInt(int64(sv.Num)), nil
	case atom.Float:
		return tbl.InternFloat(sv.Num), nil
	default:
		return nil, fmt.Errorf("unsupported scalar tag %v", sv.Tag)
	}
}
