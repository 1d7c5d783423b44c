package beta

// DummyRoot is the fixed top token every rule's first join starts from —
// the spec's "dummy top token" (spec.md §4). It never changes after
// construction, so its listener list exists only to satisfy TokenSource;
// LeftActivate is invoked exactly once per listener, immediately on
// registration, mirroring the right-prime pump during `reset`
// (spec.md §4.4).
type DummyRoot struct {
	token *PartialMatch
}

// NewDummyRoot builds the singleton root token.
func NewDummyRoot() *DummyRoot {
	return &DummyRoot{token: &PartialMatch{Token: RootToken}}
}

func (d *DummyRoot) Matches() []*PartialMatch { return []*PartialMatch{d.token} }

func (d *DummyRoot) AddListener(l JoinListener) { l.LeftActivate(d.token) }

func (d *DummyRoot) RemoveListener(l JoinListener) {}
