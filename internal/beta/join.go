package beta

import (
	"crucible/internal/atom"
	"crucible/internal/fact"
)

// EqualityTest binds a slot of a fact newly offered to a join against a
// slot of a fact already present earlier in the token — the "variable
// equalities" spec.md §4.4 calls inter-pattern join tests.
type EqualityTest struct {
	LeftPatternIndex int // position within Token.Facts of the earlier fact
	LeftSlot         int
	RightSlot        int // slot within the fact being offered to this join
}

// JoinTest is the full test a join node runs: structural equalities first,
// then an arbitrary secondary boolean (spec.md §4.4's "secondary network
// test"), evaluated against the tentative combined binding.
type JoinTest struct {
	Equalities []EqualityTest
	Secondary  func(left Token, right *fact.Fact) bool
}

func (jt JoinTest) accepts(left Token, right *fact.Fact) bool {
	for _, eq := range jt.Equalities {
		if eq.LeftPatternIndex >= len(left.Facts) {
			return false
		}
		lv := left.Facts[eq.LeftPatternIndex].Slots[eq.LeftSlot]
		rv := right.Slots[eq.RightSlot]
		if !atom.Equal(lv, rv) {
			return false
		}
	}
	if jt.Secondary != nil && !jt.Secondary(left, right) {
		return false
	}
	return true
}

// RightListener is notified when a join's right source gains or loses a
// token (a single fact from an alpha memory, or a compound token when
// joining from the right against another join node).
type RightListener interface {
	RightActivate(tok Token, origin *fact.Fact)
	RightRetract(tok Token, origin *fact.Fact)
}

// RightSource is anything a join node can read its right memory from: an
// alpha memory (the common case) or another join node's beta memory
// (join-from-the-right, spec.md §4's join node flags).
type RightSource interface {
	Tokens() []Token
	AddListener(l RightListener)
	RemoveListener(l RightListener)
}

// TokenSource is a join node's left parent: either the dummy root or a
// preceding join node's beta memory.
type TokenSource interface {
	Matches() []*PartialMatch
	AddListener(l JoinListener)
	RemoveListener(l JoinListener)
}

// JoinListener is notified when a join node's output gains or loses a
// match; the next join node in a rule's chain, or a terminal node, plays
// this role.
type JoinListener interface {
	LeftActivate(pm *PartialMatch)
	LeftRetract(pm *PartialMatch)
}

// JoinNode implements an incremental join. Negated and exists joins are
// specializations that reuse the same right-activation/right-retraction
// machinery but emit the left token unchanged (never a combined tuple)
// and invert or existentially-quantify the polarity (spec.md §4.4,
// invariant I4).
type JoinNode struct {
	Negated bool
	Exists  bool

	test  JoinTest
	left  TokenSource
	right RightSource

	betaMemory []*PartialMatch
	listeners  []JoinListener

	// rightListeners holds listeners registered through AddRightListener.
	// emit/withdraw do not notify them; join-from-the-right (spec.md §4)
	// goes through RightAdapter (AsRightSource) instead.
	rightListeners []RightListener

	// blockCount, for negated/exists joins, counts how many right tokens
	// currently satisfy the secondary test against each left match.
	blockCount map[*PartialMatch]int

	// index of output PartialMatch by left match, for positive joins:
	// supports O(children) right-retract propagation.
	byLeft map[*PartialMatch][]*PartialMatch
}

// NewJoinNode wires a join node between a left parent and a right source.
func NewJoinNode(left TokenSource, right RightSource, test JoinTest, negated, exists bool) *JoinNode {
	n := &JoinNode{
		Negated:    negated,
		Exists:     exists,
		test:       test,
		left:       left,
		right:      right,
		blockCount: make(map[*PartialMatch]int),
		byLeft:     make(map[*PartialMatch][]*PartialMatch),
	}
	left.AddListener(n)
	right.AddListener(n)
	return n
}

// Matches returns this node's current output, satisfying TokenSource.
func (n *JoinNode) Matches() []*PartialMatch { return n.betaMemory }

func (n *JoinNode) AddListener(l JoinListener)    { n.listeners = append(n.listeners, l) }
func (n *JoinNode) RemoveListener(l JoinListener) {
	for i, x := range n.listeners {
		if x == l {
			n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
			return
		}
	}
}

// Tokens returns the tokens of this node's current output. A JoinNode is
// used as another join's right source through RightAdapter (AsRightSource),
// which forwards its JoinListener events to RightListeners.
func (n *JoinNode) Tokens() []Token {
	out := make([]Token, len(n.betaMemory))
	for i, pm := range n.betaMemory {
		out[i] = pm.Token
	}
	return out
}

func (n *JoinNode) AddRightListener(l RightListener) { n.rightListeners = append(n.rightListeners, l) }
func (n *JoinNode) RemoveRightListener(l RightListener) {
	for i, x := range n.rightListeners {
		if x == l {
			n.rightListeners = append(n.rightListeners[:i], n.rightListeners[i+1:]...)
			return
		}
	}
}

func (n *JoinNode) emit(pm *PartialMatch) {
	n.betaMemory = append(n.betaMemory, pm)
	for _, l := range n.listeners {
		l.LeftActivate(pm)
	}
}

func (n *JoinNode) withdraw(pm *PartialMatch) {
	pm.deleted = true
	for i, x := range n.betaMemory {
		if x == pm {
			n.betaMemory = append(n.betaMemory[:i], n.betaMemory[i+1:]...)
			break
		}
	}
	for _, l := range n.listeners {
		l.LeftRetract(pm)
	}
	// cascade: anything this match fed at the next join must go too.
	for _, child := range append([]*PartialMatch(nil), pm.children...) {
		if child.owner != nil {
			child.owner.leftRetractChild(child)
		}
	}
	if pm.leftParent != nil {
		pm.leftParent.removeChild(pm)
	}
	if pm.rightFact != nil {
		pm.rightFact.Release()
	}
}

// leftRetractChild removes a specific match this node produced, used when
// cascading from an upstream retraction.
func (n *JoinNode) leftRetractChild(pm *PartialMatch) {
	n.withdraw(pm)
}

// --- Left activation/retraction (new/removed token from the left parent) ---

// LeftActivate runs the join test for a newly arrived left token against
// every right token currently present.
func (n *JoinNode) LeftActivate(left *PartialMatch) {
	switch {
	case n.Negated:
		count := 0
		for _, rt := range n.right.Tokens() {
			if n.test.accepts(left.Token, originFact(rt)) {
				count++
			}
		}
		n.blockCount[left] = count
		if count == 0 {
			n.passThrough(left)
		}
	case n.Exists:
		count := 0
		for _, rt := range n.right.Tokens() {
			if n.test.accepts(left.Token, originFact(rt)) {
				count++
			}
		}
		n.blockCount[left] = count
		if count > 0 {
			n.passThrough(left)
		}
	default:
		for _, rt := range n.right.Tokens() {
			if rf := originFact(rt); n.test.accepts(left.Token, rf) {
				n.combine(left, rf)
			}
		}
	}
}

// LeftRetract removes every match this node produced from the given left
// token.
func (n *JoinNode) LeftRetract(left *PartialMatch) {
	delete(n.blockCount, left)
	for _, child := range append([]*PartialMatch(nil), n.byLeft[left]...) {
		n.withdraw(child)
	}
	delete(n.byLeft, left)
}

// --- Right activation/retraction (new/removed fact or token on the right) ---

func (n *JoinNode) RightActivate(tok Token, origin *fact.Fact) {
	for _, left := range n.left.Matches() {
		if left.deleted || !n.test.accepts(left.Token, origin) {
			continue
		}
		switch {
		case n.Negated:
			n.blockCount[left]++
			if n.blockCount[left] == 1 {
				// newly blocked: the previously-passed-through match must go.
				n.retractPassThrough(left)
			}
		case n.Exists:
			n.blockCount[left]++
			if n.blockCount[left] == 1 {
				n.passThrough(left)
			}
		default:
			n.combine(left, origin)
		}
	}
}

func (n *JoinNode) RightRetract(tok Token, origin *fact.Fact) {
	for _, left := range n.left.Matches() {
		if left.deleted || !n.test.accepts(left.Token, origin) {
			continue
		}
		switch {
		case n.Negated:
			if n.blockCount[left] > 0 {
				n.blockCount[left]--
			}
			if n.blockCount[left] == 0 {
				// unblocked: spec.md §8 scenario (b).
				n.passThrough(left)
			}
		case n.Exists:
			if n.blockCount[left] > 0 {
				n.blockCount[left]--
			}
			if n.blockCount[left] == 0 {
				n.retractPassThrough(left)
			}
		default:
			n.withdrawCombined(left, origin)
		}
	}
}

// combine builds a new positive-join match and indexes it for retraction.
func (n *JoinNode) combine(left *PartialMatch, right *fact.Fact) {
	right.Retain()
	child := &PartialMatch{
		Token:      left.Token.Extend(right),
		owner:      n,
		leftParent: left,
		rightFact:  right,
	}
	left.addChild(child)
	n.byLeft[left] = append(n.byLeft[left], child)
	n.emit(child)
}

func (n *JoinNode) withdrawCombined(left *PartialMatch, right *fact.Fact) {
	kept := n.byLeft[left][:0]
	for _, child := range n.byLeft[left] {
		if child.rightFact == right {
			n.withdraw(child)
		} else {
			kept = append(kept, child)
		}
	}
	n.byLeft[left] = kept
}

// passThrough emits the left token unchanged, the output shape for
// negated/exists joins (spec.md invariant I4).
func (n *JoinNode) passThrough(left *PartialMatch) {
	child := &PartialMatch{
		Token:      left.Token,
		owner:      n,
		leftParent: left,
	}
	left.addChild(child)
	n.byLeft[left] = append(n.byLeft[left], child)
	n.emit(child)
}

func (n *JoinNode) retractPassThrough(left *PartialMatch) {
	for _, child := range append([]*PartialMatch(nil), n.byLeft[left]...) {
		n.withdraw(child)
	}
	n.byLeft[left] = nil
}

func originFact(tok Token) *fact.Fact {
	if len(tok.Facts) == 0 {
		return nil
	}
	return tok.Facts[len(tok.Facts)-1]
}
