package agenda

// Strategy is a total order over activations, used to keep the agenda
// sorted (spec.md §4.5, invariant I6: "strategy total-orders all
// activations").
type Strategy int

const (
	StrategyDepth Strategy = iota
	StrategyBreadth
	StrategyComplexity
	StrategySimplicity
	StrategyLEX
	StrategyMEA
	StrategyRandom
)

func (s Strategy) String() string {
	switch s {
	case StrategyDepth:
		return "depth"
	case StrategyBreadth:
		return "breadth"
	case StrategyComplexity:
		return "complexity"
	case StrategySimplicity:
		return "simplicity"
	case StrategyLEX:
		return "lex"
	case StrategyMEA:
		return "mea"
	case StrategyRandom:
		return "random"
	default:
		return "unknown"
	}
}

// less applies the strategy's tie-break rule once salience is equal.
// Salience always dominates (invariant I6); within equal salience, CLIPS's
// rulebsc.c inserts new activations at the head of the equal-salience run
// for depth (LIFO — most recently activated fires first) and at the tail
// for breadth (FIFO), which this models by comparing Seq directly (higher
// Seq = more recent).
func (s Strategy) less(a, b *Activation) bool {
	if a.Salience != b.Salience {
		return a.Salience > b.Salience
	}
	switch s {
	case StrategyBreadth:
		return a.Seq < b.Seq
	case StrategyComplexity:
		if a.Complexity != b.Complexity {
			return a.Complexity > b.Complexity
		}
		return a.Seq > b.Seq
	case StrategySimplicity:
		if a.Complexity != b.Complexity {
			return a.Complexity < b.Complexity
		}
		return a.Seq > b.Seq
	case StrategyLEX, StrategyMEA:
		// Without a generic-function based specificity ranking, LEX/MEA
		// degrade to most-recent-first, same as depth; a richer
		// specificity metric is an Open Question left for the compiler
		// that builds join tests (spec.md §9).
		return a.Seq > b.Seq
	case StrategyRandom:
		// Each activation's Random key is drawn once at instantiation
		// (Agenda.Activate), so comparing it here is a consistent
		// strict-weak ordering rather than a fresh coin flip per call.
		return a.Random < b.Random
	case StrategyDepth:
		fallthrough
	default:
		return a.Seq > b.Seq
	}
}
