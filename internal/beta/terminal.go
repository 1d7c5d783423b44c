package beta

// ActivationSink receives terminal-node events: a rule's full left-hand
// side just matched (Activate) or a previously matching token no longer
// does (Deactivate). The agenda package implements this; beta does not
// import agenda to avoid a cycle — the engine wires the two together.
type ActivationSink interface {
	Activate(rule any, pm *PartialMatch)
	Deactivate(rule any, pm *PartialMatch)
}

// TerminalNode sits at the end of a rule's join chain and turns completed
// tokens into agenda activations (spec.md §3, "Activation").
type TerminalNode struct {
	Rule any
	sink ActivationSink
}

// NewTerminalNode attaches a terminal node to the last join in a rule's
// chain.
func NewTerminalNode(rule any, last TokenSource, sink ActivationSink) *TerminalNode {
	t := &TerminalNode{Rule: rule, sink: sink}
	last.AddListener(t)
	return t
}

func (t *TerminalNode) LeftActivate(pm *PartialMatch) { t.sink.Activate(t.Rule, pm) }
func (t *TerminalNode) LeftRetract(pm *PartialMatch)  { t.sink.Deactivate(t.Rule, pm) }
