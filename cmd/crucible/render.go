package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"crucible/internal/engine"
)

var (
	styleAssert  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleRetract = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleFire    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	styleHeader  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Underline(true)
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderAgenda formats the current module's pending activations,
// highest-priority first, for the `agenda` REPL command.
func renderAgenda(acts []*engine.Activation) string {
	if len(acts) == 0 {
		return styleDim.Render("(agenda is empty)")
	}
	out := styleHeader.Render("salience  seq  rule") + "\n"
	for _, a := range acts {
		out += fmt.Sprintf("%8d  %3d  %s\n", a.Salience, a.Seq, a.Rule.Name)
	}
	return out
}

func renderFired(rule string) string {
	return styleFire.Render(fmt.Sprintf("FIRE %s", rule))
}

func renderAssertTrace(line string) string  { return styleAssert.Render(line) }
func renderRetractTrace(line string) string { return styleRetract.Render(line) }
