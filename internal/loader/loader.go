// Package loader decodes a declarative YAML ruleset file into deftemplates
// and rules registered on an *engine.Environment. It is not a surface-
// language parser for a CLIPS-like grammar — spec.md §6 explicitly keeps
// that out of core scope — it is a structured data-binding layer over the
// same ir.CE/ir.Expr shapes the compiler already consumes, in the spirit
// of internal/config's YAML-to-struct decoding.
package loader

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"crucible/internal/atom"
	"crucible/internal/engine"
	"crucible/internal/fact"
	"crucible/internal/ir"
)

// TemplateSpec is one deftemplate entry.
type TemplateSpec struct {
	Name  string   `yaml:"name"`
	Slots []string `yaml:"slots"`
}

// PatternSpec is one LHS conditional element: a template name plus a
// slot→binding map. A binding starting with `?` captures or re-checks a
// variable; anything else is matched as a literal symbol.
type PatternSpec struct {
	Template string            `yaml:"template"`
	Slots    map[string]string `yaml:"slots"`
}

// RuleSpec is one rule: a conjunctive LHS (with an optional negated group)
// and an ordered RHS of assert actions.
type RuleSpec struct {
	Name     string        `yaml:"name"`
	Module   string        `yaml:"module"`
	Salience int           `yaml:"salience"`
	Logical  bool          `yaml:"logical"`
	When     []PatternSpec `yaml:"when"`
	Unless   []PatternSpec `yaml:"unless"`
	Then     []AssertSpec  `yaml:"then"`
}

// AssertSpec is one RHS `(assert (template (slot value) ...))` action.
// Values starting with `?` push a bound LHS variable; anything else is
// parsed as an integer, float, or symbol literal.
type AssertSpec struct {
	Template string            `yaml:"template"`
	Slots    map[string]string `yaml:"slots"`
}

// Ruleset is the top-level document shape.
type Ruleset struct {
	Templates []TemplateSpec `yaml:"templates"`
	Rules     []RuleSpec     `yaml:"rules"`
}

// LoadFile reads and parses a ruleset document without installing it.
func LoadFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", path, err)
	}
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("loader: parsing %s: %w", path, err)
	}
	return &rs, nil
}

// Install registers every template and rule in rs onto env, in document
// order so later rules may reference earlier-declared templates.
func Install(env *engine.Environment, rs *Ruleset) error {
	for _, ts := range rs.Templates {
		defs := make([]fact.SlotDef, len(ts.Slots))
		for i, name := range ts.Slots {
			defs[i] = fact.SlotDef{Name: name}
		}
		env.AddTemplate(&fact.Template{Name: ts.Name, InScope: true, Slots: defs})
	}

	for _, rsp := range rs.Rules {
		rule, err := buildRule(env, rsp)
		if err != nil {
			return fmt.Errorf("loader: rule %s: %w", rsp.Name, err)
		}
		if err := env.DefineRule(rule); err != nil {
			return fmt.Errorf("loader: defining rule %s: %w", rsp.Name, err)
		}
	}
	return nil
}

func buildRule(env *engine.Environment, rsp RuleSpec) (*engine.Rule, error) {
	var children []*ir.CE
	for _, ps := range rsp.When {
		p, err := buildPattern(env, ps)
		if err != nil {
			return nil, err
		}
		children = append(children, ir.Leaf(p))
	}
	if len(rsp.Unless) > 0 {
		var notChildren []*ir.CE
		for _, ps := range rsp.Unless {
			p, err := buildPattern(env, ps)
			if err != nil {
				return nil, err
			}
			notChildren = append(notChildren, ir.Leaf(p))
		}
		children = append(children, &ir.CE{Connective: ir.Not, Children: notChildren})
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("rule has no `when` patterns")
	}
	lhs := &ir.CE{Connective: ir.And, Children: children}

	var actions []*ir.Expr
	for _, as := range rsp.Then {
		e, err := buildAssert(env, as)
		if err != nil {
			return nil, err
		}
		actions = append(actions, e)
	}

	return &engine.Rule{
		Name:        rsp.Name,
		Module:      rsp.Module,
		SalienceVal: rsp.Salience,
		Logical:     rsp.Logical,
		LHS:         lhs,
		RHS:         ir.FlattenAll(actions),
	}, nil
}

func buildPattern(env *engine.Environment, ps PatternSpec) (*ir.Pattern, error) {
	tmpl, ok := env.Template(ps.Template)
	if !ok {
		return nil, fmt.Errorf("no such deftemplate %q", ps.Template)
	}
	fields := make([]ir.Field, tmpl.SlotCount())
	for name, val := range ps.Slots {
		idx := tmpl.SlotIndex(name)
		if tmpl.Implied {
			idx = 0
		}
		if idx < 0 {
			return nil, fmt.Errorf("no such slot %q in deftemplate %s", name, ps.Template)
		}
		if strings.HasPrefix(val, "?") {
			fields[idx] = ir.Field{Kind: ir.FieldVariable, Variable: strings.TrimPrefix(val, "?")}
		} else {
			lit, err := literalAtom(env.Atoms, val)
			if err != nil {
				return nil, err
			}
			fields[idx] = ir.Field{Kind: ir.FieldConstant, Literal: lit}
		}
	}
	for i := range fields {
		if fields[i].Kind == ir.FieldConstant && fields[i].Literal == nil && fields[i].Variable == "" {
			fields[i] = ir.Field{Kind: ir.FieldWildcard}
		}
	}
	return &ir.Pattern{Template: ps.Template, SlotFields: fields}, nil
}

func buildAssert(env *engine.Environment, as AssertSpec) (*ir.Expr, error) {
	tmpl, ok := env.Template(as.Template)
	if !ok {
		return nil, fmt.Errorf("no such deftemplate %q", as.Template)
	}
	var args []*ir.Expr
	for name, val := range as.Slots {
		if !tmpl.Implied && tmpl.SlotIndex(name) < 0 {
			return nil, fmt.Errorf("no such slot %q in deftemplate %s", name, as.Template)
		}
		nameLit, err := env.Atoms.InternSymbol(name)
		if err != nil {
			return nil, err
		}
		args = append(args, &ir.Expr{Op: ir.OpPushLiteral, Literal: nameLit})
		if strings.HasPrefix(val, "?") {
			args = append(args, &ir.Expr{Op: ir.OpPushVar, Var: strings.TrimPrefix(val, "?")})
		} else {
			lit, err := literalAtom(env.Atoms, val)
			if err != nil {
				return nil, err
			}
			args = append(args, &ir.Expr{Op: ir.OpPushLiteral, Literal: lit})
		}
	}
	return &ir.Expr{Op: ir.OpAssert, Var: as.Template, Args: args}, nil
}

// literalAtom parses a bare YAML scalar as an int, a float, or a symbol —
// the same coercion order the teacher's config layer applies to untyped
// string fields.
func literalAtom(tbl *atom.Table, s string) (*atom.Atom, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return tbl.InternInt(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return tbl.InternFloat(f), nil
	}
	return tbl.InternSymbol(s)
}
