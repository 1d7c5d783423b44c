// Package store implements the optional binary-image persistence surface
// (spec.md §6): "a binary image format... counts for templates, rules,
// facts, arrays of interned symbol strings." Reloading a compiled join
// network is explicitly out of scope (spec.md's Non-goals), so this
// package persists only the working-memory payload — templates and
// facts — as a small sqlite schema instead of a hand-rolled
// relocatable-offset format, grounded on the teacher's
// internal/store/local_core.go (NewLocalStore's sql.Open/PRAGMA
// sequence) and cmd/query-kb (modernc.org/sqlite's "sqlite" driver
// name) rather than its cgo-backed "sqlite3" driver variant.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"crucible/internal/atom"
	"crucible/internal/fact"
	"crucible/internal/logging"
)

// Store is a sqlite-backed binary image: one row per template slot
// schema, one row per live fact, with slot values pickled into a
// `symbols` table, one row per (fact, slot position).
type Store struct {
	db *sql.DB
}

// Open creates or attaches to the sqlite database at path, creating its
// schema on first use.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("store: creating directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.BootDebug("store: failed to set journal_mode=WAL: %v", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS templates (
			name TEXT PRIMARY KEY,
			implied INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS slots (
			template_name TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			kind INTEGER NOT NULL,
			PRIMARY KEY (template_name, position)
		)`,
		`CREATE TABLE IF NOT EXISTS facts (
			idx INTEGER PRIMARY KEY,
			generation INTEGER NOT NULL,
			template_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS symbols (
			fact_idx INTEGER NOT NULL,
			position INTEGER NOT NULL,
			tag INTEGER NOT NULL,
			text TEXT,
			num REAL,
			PRIMARY KEY (fact_idx, position)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: migrating schema: %w", err)
		}
	}
	return nil
}

// BSave writes every live template and fact in the store to the binary
// image, in the spirit of CLIPS's `bsave`.
func (s *Store) BSave(templates []*fact.Template) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: bsave: %w", err)
	}
	defer tx.Rollback()

	for _, tblStmt := range []string{"DELETE FROM symbols", "DELETE FROM facts", "DELETE FROM slots", "DELETE FROM templates"} {
		if _, err := tx.Exec(tblStmt); err != nil {
			return fmt.Errorf("store: bsave: clearing: %w", err)
		}
	}

	for _, tmpl := range templates {
		implied := 0
		if tmpl.Implied {
			implied = 1
		}
		if _, err := tx.Exec(`INSERT INTO templates (name, implied) VALUES (?, ?)`, tmpl.Name, implied); err != nil {
			return fmt.Errorf("store: bsave: template %s: %w", tmpl.Name, err)
		}
		for i, slot := range tmpl.Slots {
			if _, err := tx.Exec(`INSERT INTO slots (template_name, position, name, kind) VALUES (?, ?, ?, ?)`,
				tmpl.Name, i, slot.Name, int(slot.Kind)); err != nil {
				return fmt.Errorf("store: bsave: slot %s.%s: %w", tmpl.Name, slot.Name, err)
			}
		}
		for _, f := range tmpl.Facts() {
			if err := saveFact(tx, f); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func saveFact(tx *sql.Tx, f *fact.Fact) error {
	if _, err := tx.Exec(`INSERT INTO facts (idx, generation, template_name) VALUES (?, ?, ?)`,
		f.Index, f.Generation, f.Template.Name); err != nil {
		return fmt.Errorf("store: bsave: fact %d: %w", f.Index, err)
	}
	for pos, v := range f.Slots {
		tag, text, num := encodeScalar(v)
		if tag < 0 {
			// Multifield/FactRef/ExternalAddr slots are not durable across
			// a binary image — the compiled network they referenced is out
			// of scope for bsave/bload (spec.md's Non-goals). Skip rather
			// than fail the whole save.
			continue
		}
		if _, err := tx.Exec(`INSERT INTO symbols (fact_idx, position, tag, text, num) VALUES (?, ?, ?, ?, ?)`,
			f.Index, pos, tag, text, num); err != nil {
			return fmt.Errorf("store: bsave: fact %d slot %d: %w", f.Index, pos, err)
		}
	}
	return nil
}

func encodeScalar(v *atom.Atom) (tag int, text string, num float64) {
	if v == nil {
		return -1, "", 0
	}
	switch v.Tag() {
	case atom.Sym, atom.Str, atom.InstanceName:
		text, ok := v.SymbolText()
		if !ok {
			return -1, "", 0
		}
		return int(v.Tag()), text, 0
	case atom.Int, atom.Float:
		n, _ := v.Number()
		return int(v.Tag()), "", n
	default:
		return -1, "", 0
	}
}

// TemplateSlotRow is one row of a template's schema as recovered from the
// image by BLoad, before the caller rebuilds a live *fact.Template.
type TemplateSlotRow struct {
	TemplateName string
	Implied      bool
	Slots        []fact.SlotDef
}

// FactRow is one fact as recovered from the image by BLoad.
type FactRow struct {
	Index        uint64
	Generation   uint32
	TemplateName string
	Slots        []ScalarValue
}

// ScalarValue is a decoded slot value awaiting re-interning through an
// atom.Table, since BLoad runs before any Table exists to own it.
type ScalarValue struct {
	Tag  atom.Tag
	Text string
	Num  float64
}

// BLoad reads the image back into plain row structs; the caller (the
// engine's `bload` command) is responsible for re-interning
// scalar values through its own atom.Table and reasserting facts through
// fact.Store so generation/index bookkeeping stays consistent.
func (s *Store) BLoad() ([]TemplateSlotRow, []FactRow, error) {
	templates, err := s.loadTemplates()
	if err != nil {
		return nil, nil, err
	}
	facts, err := s.loadFacts()
	if err != nil {
		return nil, nil, err
	}
	return templates, facts, nil
}

func (s *Store) loadTemplates() ([]TemplateSlotRow, error) {
	rows, err := s.db.Query(`SELECT name, implied FROM templates`)
	if err != nil {
		return nil, fmt.Errorf("store: bload: templates: %w", err)
	}
	defer rows.Close()

	var out []TemplateSlotRow
	for rows.Next() {
		var t TemplateSlotRow
		var implied int
		if err := rows.Scan(&t.TemplateName, &implied); err != nil {
			return nil, fmt.Errorf("store: bload: scanning template: %w", err)
		}
		t.Implied = implied != 0

		slotRows, err := s.db.Query(`SELECT name, kind FROM slots WHERE template_name = ? ORDER BY position`, t.TemplateName)
		if err != nil {
			return nil, fmt.Errorf("store: bload: slots for %s: %w", t.TemplateName, err)
		}
		for slotRows.Next() {
			var def fact.SlotDef
			var kind int
			if err := slotRows.Scan(&def.Name, &kind); err != nil {
				slotRows.Close()
				return nil, fmt.Errorf("store: bload: scanning slot: %w", err)
			}
			def.Kind = fact.SlotKind(kind)
			t.Slots = append(t.Slots, def)
		}
		slotRows.Close()
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) loadFacts() ([]FactRow, error) {
	rows, err := s.db.Query(`SELECT idx, generation, template_name FROM facts ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("store: bload: facts: %w", err)
	}
	defer rows.Close()

	var out []FactRow
	for rows.Next() {
		var f FactRow
		if err := rows.Scan(&f.Index, &f.Generation, &f.TemplateName); err != nil {
			return nil, fmt.Errorf("store: bload: scanning fact: %w", err)
		}

		symRows, err := s.db.Query(`SELECT tag, text, num FROM symbols WHERE fact_idx = ? ORDER BY position`, f.Index)
		if err != nil {
			return nil, fmt.Errorf("store: bload: symbols for fact %d: %w", f.Index, err)
		}
		for symRows.Next() {
			var sv ScalarValue
			var tag int
			if err := symRows.Scan(&tag, &sv.Text, &sv.Num); err != nil {
				symRows.Close()
				return nil, fmt.Errorf("store: bload: scanning symbol: %w", err)
			}
			sv.Tag = atom.Tag(tag)
			f.Slots = append(f.Slots, sv)
		}
		symRows.Close()
		out = append(out, f)
	}
	return out, nil
}
