package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"crucible/internal/atom"
	"crucible/internal/engine"
)

// session holds the REPL's live state: one Environment plus where its
// transcript goes, so tests can swap out for an in-memory writer.
type session struct {
	env *engine.Environment
	out io.Writer
}

// repl reads one command per line until EOF or `quit`, the same
// line-oriented command surface spec.md §6 describes ("invoked as
// functions or strings by the REPL").
func (s *session) repl(scan *bufio.Scanner) {
	fmt.Fprint(s.out, "crucible> ")
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line != "" {
			if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
				return
			}
			s.dispatch(line)
		}
		fmt.Fprint(s.out, "crucible> ")
	}
}

func (s *session) dispatch(line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	var err error
	switch strings.ToLower(cmd) {
	case "assert":
		err = s.cmdAssert(args)
	case "retract":
		err = s.cmdRetract(args)
	case "run":
		err = s.cmdRun(args)
	case "reset":
		err = s.env.Reset()
	case "clear":
		err = s.env.Clear()
	case "halt":
		s.env.Halt()
	case "focus":
		if len(args) != 1 {
			err = fmt.Errorf("usage: focus <module>")
		} else {
			err = s.env.Focus(args[0])
		}
	case "pop-focus":
		var popped string
		popped, err = s.env.PopFocus()
		if err == nil {
			fmt.Fprintln(s.out, popped)
		}
	case "clear-focus-stack":
		s.env.ClearFocusStack()
	case "get-focus-stack":
		fmt.Fprintln(s.out, strings.Join(s.env.GetFocusStack(), " "))
	case "agenda":
		fmt.Fprint(s.out, renderAgenda(s.env.Agenda()))
	case "facts":
		s.cmdFacts()
	case "watch":
		err = s.watchToggle(args, s.env.Watch)
	case "unwatch":
		err = s.watchToggle(args, s.env.Unwatch)
	case "bsave":
		err = s.cmdBSave(args)
	case "bload":
		err = s.cmdBLoad(args)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintf(s.out, "[MAIN] %v\n", err)
	}
}

func (s *session) watchToggle(args []string, apply func(engine.WatchItem) error) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: watch|unwatch <facts|rules|activations|compilations|statistics>")
	}
	return apply(engine.WatchItem(args[0]))
}

// cmdAssert parses `assert <template> slot=value ...` and reports the new
// fact's index, or that duplicate-checking rejected it.
func (s *session) cmdAssert(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: assert <template> [slot=value ...]")
	}
	tmplName := args[0]
	tmpl, ok := s.env.Template(tmplName)
	if !ok {
		return fmt.Errorf("no such deftemplate %q", tmplName)
	}

	values := make(map[string]*atom.Atom)
	for _, pair := range args[1:] {
		k, v, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("malformed slot assignment %q, want slot=value", pair)
		}
		if tmpl.Implied {
			k = "implied"
		}
		a, err := parseLiteral(s.env, v)
		if err != nil {
			return err
		}
		values[k] = a
	}

	f, err := s.env.Assert(tmplName, values)
	if err != nil {
		return err
	}
	if f == nil {
		fmt.Fprintln(s.out, "assert rejected: duplicate fact")
		return nil
	}
	fmt.Fprintln(s.out, renderAssertTrace(fmt.Sprintf("f-%d asserted", f.Index)))
	return nil
}

func (s *session) cmdRetract(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: retract <fact-index>")
	}
	idx, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad fact index %q: %w", args[0], err)
	}
	for _, f := range s.env.Facts.All() {
		if f.Index == idx {
			if err := s.env.Retract(f); err != nil {
				return err
			}
			fmt.Fprintln(s.out, renderRetractTrace(fmt.Sprintf("f-%d retracted", idx)))
			return nil
		}
	}
	return fmt.Errorf("no such fact f-%d", idx)
}

func (s *session) cmdRun(args []string) error {
	n := 0
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad firing count %q: %w", args[0], err)
		}
		n = v
	}
	fired, err := s.env.Run(n)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d rule(s) fired\n", fired)
	return nil
}

// cmdBSave writes the live working memory to a sqlite binary image,
// CLIPS's `(bsave <path>)`.
func (s *session) cmdBSave(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bsave <path>")
	}
	if err := s.env.BSave(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "bsave: wrote %s\n", args[0])
	return nil
}

// cmdBLoad repopulates working memory from a binary image written by
// bsave, CLIPS's `(bload <path>)`.
func (s *session) cmdBLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bload <path>")
	}
	n, err := s.env.BLoad(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "bload: reasserted %d fact(s) from %s\n", n, args[0])
	return nil
}

func (s *session) cmdFacts() {
	for _, tmpl := range s.env.Templates() {
		for _, f := range tmpl.Facts() {
			fmt.Fprintf(s.out, "f-%d (%s)\n", f.Index, tmpl.Name)
		}
	}
}

// parseLiteral coerces a bare REPL token into an atom: an int, a float, or
// a symbol, the same order internal/loader applies to YAML scalars.
func parseLiteral(env *engine.Environment, s string) (*atom.Atom, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return env.Atoms.InternInt(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return env.Atoms.InternFloat(f), nil
	}
	return env.Atoms.InternSymbol(s)
}
