package beta

// RightAdapter lets a JoinNode's output serve as another join's right
// source, implementing the spec's "join-from-the-right" flag (spec.md
// §4's join node data model). It is a thin translator: JoinNode emits
// JoinListener events over *PartialMatch, RightSource wants Token-level
// RightListener events, so the adapter forwards one to the other.
type RightAdapter struct {
	node      *JoinNode
	listeners []RightListener
}

// AsRightSource wraps a join node so it can be passed wherever a
// RightSource is expected.
func AsRightSource(n *JoinNode) *RightAdapter {
	a := &RightAdapter{node: n}
	n.AddListener(a)
	return a
}

func (a *RightAdapter) Tokens() []Token { return a.node.Tokens() }

func (a *RightAdapter) AddListener(l RightListener) { a.listeners = append(a.listeners, l) }

func (a *RightAdapter) RemoveListener(l RightListener) {
	for i, x := range a.listeners {
		if x == l {
			a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
			return
		}
	}
}

// LeftActivate/LeftRetract satisfy JoinListener, translating the
// underlying join node's own output changes into RightActivate/
// RightRetract notifications for whoever joins against it from the right.
func (a *RightAdapter) LeftActivate(pm *PartialMatch) {
	origin := originFact(pm.Token)
	for _, l := range a.listeners {
		l.RightActivate(pm.Token, origin)
	}
}

func (a *RightAdapter) LeftRetract(pm *PartialMatch) {
	origin := originFact(pm.Token)
	for _, l := range a.listeners {
		l.RightRetract(pm.Token, origin)
	}
}
