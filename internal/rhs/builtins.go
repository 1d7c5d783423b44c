package rhs

import (
	"fmt"
	"strings"

	"crucible/internal/atom"
)

// defaultBuiltins is the small arithmetic/string/comparison function set
// every rule base gets for free, independent of any externally-defined
// function. Nothing in the retrieval pack implements a CLIPS-style
// expression evaluator, so this stays on the standard library by
// necessity — there is no ecosystem dependency whose concern is
// "evaluate a handful of scalar operators."
func defaultBuiltins() map[string]Builtin {
	return map[string]Builtin{
		"+":       arith(func(a, b float64) float64 { return a + b }),
		"-":       arith(func(a, b float64) float64 { return a - b }),
		"*":       arith(func(a, b float64) float64 { return a * b }),
		"/":       arith(func(a, b float64) float64 { return a / b }),
		">":       compare(func(a, b float64) bool { return a > b }),
		"<":       compare(func(a, b float64) bool { return a < b }),
		">=":      compare(func(a, b float64) bool { return a >= b }),
		"<=":      compare(func(a, b float64) bool { return a <= b }),
		"=":       numEq,
		"eq":      symEq,
		"str-cat": strCat,
	}
}

func arith(op func(a, b float64) float64) Builtin {
	return func(tbl *atom.Table, args []*atom.Atom) (*atom.Atom, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("rhs: arithmetic function requires at least one argument")
		}
		acc, ok := args[0].Number()
		if !ok {
			return nil, fmt.Errorf("rhs: arithmetic argument %s is not numeric", args[0].String())
		}
		for _, a := range args[1:] {
			v, ok := a.Number()
			if !ok {
				return nil, fmt.Errorf("rhs: arithmetic argument %s is not numeric", a.String())
			}
			acc = op(acc, v)
		}
		return tbl.InternFloat(acc), nil
	}
}

func compare(op func(a, b float64) bool) Builtin {
	return func(tbl *atom.Table, args []*atom.Atom) (*atom.Atom, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("rhs: comparison requires exactly 2 arguments, got %d", len(args))
		}
		a, ok1 := args[0].Number()
		b, ok2 := args[1].Number()
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("rhs: comparison arguments must be numeric")
		}
		return boolAtom(tbl, op(a, b)), nil
	}
}

func numEq(tbl *atom.Table, args []*atom.Atom) (*atom.Atom, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("rhs: = requires exactly 2 arguments, got %d", len(args))
	}
	a, ok1 := args[0].Number()
	b, ok2 := args[1].Number()
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("rhs: = requires numeric arguments")
	}
	return boolAtom(tbl, a == b), nil
}

func symEq(tbl *atom.Table, args []*atom.Atom) (*atom.Atom, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("rhs: eq requires exactly 2 arguments, got %d", len(args))
	}
	return boolAtom(tbl, atom.Equal(args[0], args[1])), nil
}

func strCat(tbl *atom.Table, args []*atom.Atom) (*atom.Atom, error) {
	var parts []string
	for _, a := range args {
		if c, ok := a.AsConstant(); ok && a.Tag() == atom.Str {
			parts = append(parts, c.Symbol)
			continue
		}
		parts = append(parts, a.String())
	}
	return tbl.InternString(strings.Join(parts, "")), nil
}

func boolAtom(tbl *atom.Table, v bool) *atom.Atom {
	sym := "FALSE"
	if v {
		sym = "TRUE"
	}
	a, err := tbl.InternSymbol(sym)
	if err != nil {
		// TRUE/FALSE are always valid symbol text; this path is unreachable.
		panic(err)
	}
	return a
}
