// Package beta implements the join (beta) network: incremental join nodes
// that maintain partial matches over the alpha network's fact memberships,
// honoring inter-pattern variable bindings and negated/exists conditional
// elements (spec.md §4.4).
package beta

import "crucible/internal/fact"

// Token is an ordered tuple of facts satisfying every pattern up to some
// point in a rule's left-hand side.
type Token struct {
	Facts []*fact.Fact
}

// RootToken is the dummy top token every rule's first join starts from.
var RootToken = Token{}

// Extend returns a new token with f appended, used by a positive join when
// a left token and a right fact satisfy the join test.
func (t Token) Extend(f *fact.Fact) Token {
	facts := make([]*fact.Fact, len(t.Facts)+1)
	copy(facts, t.Facts)
	facts[len(t.Facts)] = f
	return Token{Facts: facts}
}

// PartialMatch is a token plus the join-network bookkeeping needed to
// retract it incrementally: which left parent and right fact produced it,
// and the list of matches it in turn produced at the next join, so that
// retracting this match cascades forward without a network-wide rescan
// (spec.md §3, "Partial match graph").
type PartialMatch struct {
	Token Token

	// owner is the JoinNode whose beta memory holds this match.
	owner *JoinNode

	// leftParent/rightFact identify what produced this match, for
	// negated/exists bookkeeping and for debugging/`watch` traces.
	leftParent *PartialMatch
	rightFact  *fact.Fact

	// deleted marks a match removed during the current traversal but not
	// yet physically unlinked, so in-flight iteration sees a stable view
	// (spec.md §4.4's "garbage partial match" list; spec.md §9's
	// deferred-free design note).
	deleted bool

	// children holds matches produced at the NEXT join from this match,
	// so LeftRetract can cascade without rescanning (spec.md §3).
	children []*PartialMatch
}

// Facts returns the tuple of facts this match is built from.
func (pm *PartialMatch) Facts() []*fact.Fact {
	if pm == nil {
		return nil
	}
	return pm.Token.Facts
}

// Deleted reports whether this match has been tagged for removal.
func (pm *PartialMatch) Deleted() bool { return pm == nil || pm.deleted }

func (pm *PartialMatch) addChild(child *PartialMatch) {
	pm.children = append(pm.children, child)
}

func (pm *PartialMatch) removeChild(child *PartialMatch) {
	for i, c := range pm.children {
		if c == child {
			pm.children = append(pm.children[:i], pm.children[i+1:]...)
			return
		}
	}
}
