package alpha

import "crucible/internal/fact"

// Network is the forest of pattern nodes, organized per template so that
// asserting a fact of template T only tests T's patterns (spec.md §4.3:
// "walk the network once per template").
//
// Nodes with at least one ConstTest are additionally indexed by the
// (slot, value) of one of those ConstTests — the "hashed alpha" structure spec.md §4.3 describes —
// so that a fact carrying a value no pattern tests for skips straight
// past those nodes instead of evaluating every constraint.
type Network struct {
	byTemplate map[*fact.Template][]*PatternNode
	hashed     map[*fact.Template]map[hashKey][]*PatternNode
	unhashed   map[*fact.Template][]*PatternNode
}

type hashKey struct {
	slot int
	key  string
}

// NewNetwork constructs an empty alpha network.
func NewNetwork() *Network {
	return &Network{
		byTemplate: make(map[*fact.Template][]*PatternNode),
		hashed:     make(map[*fact.Template]map[hashKey][]*PatternNode),
		unhashed:   make(map[*fact.Template][]*PatternNode),
	}
}

// AddPattern compiles and installs a pattern node, returning it so the
// compiler can wire it as a join's right source.
func (n *Network) AddPattern(p *Pattern) *PatternNode {
	node := NewPatternNode(p)
	n.byTemplate[p.Template] = append(n.byTemplate[p.Template], node)

	if slot, val, ok := primaryConstTest(p); ok {
		if n.hashed[p.Template] == nil {
			n.hashed[p.Template] = make(map[hashKey][]*PatternNode)
		}
		key := hashKey{slot: slot, key: val.String()}
		n.hashed[p.Template][key] = append(n.hashed[p.Template][key], node)
	} else {
		n.unhashed[p.Template] = append(n.unhashed[p.Template], node)
	}
	return node
}

func primaryConstTest(p *Pattern) (int, interface{ String() string }, bool) {
	for idx, test := range p.SlotTests {
		if ct, ok := test.(ConstTest); ok {
			return idx, ct.Value, true
		}
	}
	return 0, nil, false
}

// Assert walks the alpha network once for f's template: candidates come
// from the hashed index (narrowed by f's own slot values) plus the
// unhashed fallback list, exactly as spec.md §4.3 describes.
func (n *Network) Assert(f *fact.Fact) {
	for _, node := range n.candidateNodes(f) {
		node.offer(f)
	}
}

func (n *Network) candidateNodes(f *fact.Fact) []*PatternNode {
	seen := make(map[*PatternNode]bool)
	var out []*PatternNode

	add := func(node *PatternNode) {
		if !seen[node] {
			seen[node] = true
			out = append(out, node)
		}
	}

	if byKey, ok := n.hashed[f.Template]; ok {
		for slot, slotVal := range f.Slots {
			key := hashKey{slot: slot, key: slotVal.String()}
			for _, node := range byKey[key] {
				add(node)
			}
		}
	}
	for _, node := range n.unhashed[f.Template] {
		add(node)
	}
	return out
}

// Retract walks f's precomputed alpha memberships, removing it from every
// node it belongs to (spec.md §4.3). The membership handles were recorded
// on f.Memberships at Assert time.
func Retract(f *fact.Fact) {
	for _, m := range f.Memberships {
		m.Remove()
	}
	f.Memberships = nil
}
