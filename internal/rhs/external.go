package rhs

import (
	"fmt"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"crucible/internal/atom"
)

// ExternalRegistry compiles user-defined RHS functions from plain Go
// source and hosts them with an embedded interpreter instead of shelling
// out to `go build`, the same tradeoff the teacher's autopoiesis package
// makes for its tool executor (internal/autopoiesis/yaegi_executor.go):
// no external-process compile step, no risk of a hung build, and a
// restricted stdlib import surface since the interpreted code runs
// in-process with the engine (spec.md §9's function-pointer-dispatch
// design note, read as "an escape hatch for user-defined RHS functions").
type ExternalRegistry struct {
	allowedPackages map[string]bool
	funcs           map[string]func([]interface{}) (interface{}, error)
}

// NewExternalRegistry builds a registry with the default safe stdlib
// whitelist — pure value-computation packages only, nothing touching the
// filesystem, network, or process.
func NewExternalRegistry() *ExternalRegistry {
	return &ExternalRegistry{
		allowedPackages: map[string]bool{
			"strings":  true,
			"strconv":  true,
			"fmt":      true,
			"math":     true,
			"sort":     true,
			"time":     true,
			"regexp":   true,
			"bytes":    true,
			"unicode":  true,
		},
		funcs: make(map[string]func([]interface{}) (interface{}, error)),
	}
}

// Define compiles source — a small Go file assigning funcIdent to a
// `func([]interface{}) (interface{}, error)` value — and registers it
// under name for RHS `(funcall name ...)` calls.
func (r *ExternalRegistry) Define(name, funcIdent, source string) error {
	if err := r.validateImports(source); err != nil {
		return err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("rhs: loading stdlib symbols: %w", err)
	}
	if _, err := i.Eval(source); err != nil {
		return fmt.Errorf("rhs: compiling external function %q: %w", name, err)
	}
	v, err := i.Eval(funcIdent)
	if err != nil {
		return fmt.Errorf("rhs: external function identifier %q not found: %w", funcIdent, err)
	}
	fn, ok := v.Interface().(func([]interface{}) (interface{}, error))
	if !ok {
		return fmt.Errorf("rhs: external function %q has the wrong signature, want func([]interface{}) (interface{}, error)", funcIdent)
	}
	r.funcs[name] = fn
	return nil
}

// Call invokes a previously Defined function, converting arguments and
// the result between Crucible atoms and plain Go values at the boundary
// — the interpreted code never needs to know about internal/atom.
func (r *ExternalRegistry) Call(tbl *atom.Table, name string, args []*atom.Atom) (*atom.Atom, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("rhs: no external function registered as %q", name)
	}
	native := make([]interface{}, len(args))
	for i, a := range args {
		native[i] = atomToNative(a)
	}
	result, err := fn(native)
	if err != nil {
		return nil, fmt.Errorf("rhs: external function %q: %w", name, err)
	}
	return nativeToAtom(tbl, result), nil
}

// validateImports rejects source importing anything outside the
// whitelist, scanning both single-line and block import forms.
func (r *ExternalRegistry) validateImports(source string) error {
	inBlock := false
	for _, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "import ("):
			inBlock = true
		case inBlock && line == ")":
			inBlock = false
		case inBlock:
			if pkg := strings.Trim(line, `"`); pkg != "" && !r.allowedPackages[pkg] {
				return fmt.Errorf("rhs: external function source imports disallowed package %q", pkg)
			}
		case strings.HasPrefix(line, "import "):
			pkg := strings.Trim(strings.TrimPrefix(line, "import "), `"`)
			if pkg != "" && !r.allowedPackages[pkg] {
				return fmt.Errorf("rhs: external function source imports disallowed package %q", pkg)
			}
		}
	}
	return nil
}

func atomToNative(a *atom.Atom) interface{} {
	if a == nil {
		return nil
	}
	switch a.Tag() {
	case atom.Int:
		v, _ := a.Number()
		return int64(v)
	case atom.Float:
		v, _ := a.Number()
		return v
	case atom.Str, atom.Sym, atom.InstanceName:
		text, _ := a.SymbolText()
		return text
	default:
		return a.String()
	}
}

func nativeToAtom(tbl *atom.Table, v interface{}) *atom.Atom {
	switch x := v.(type) {
	case int:
		return tbl.InternInt(int64(x))
	case int64:
		return tbl.InternInt(x)
	case float64:
		return tbl.InternFloat(x)
	case string:
		return tbl.InternString(x)
	case bool:
		sym := "FALSE"
		if x {
			sym = "TRUE"
		}
		a, _ := tbl.InternSymbol(sym)
		return a
	default:
		return tbl.InternString(fmt.Sprintf("%v", x))
	}
}
