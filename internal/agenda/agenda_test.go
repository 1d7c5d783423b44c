package agenda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crucible/internal/beta"
)

type stubRule struct {
	name     string
	salience int
}

func (r stubRule) RuleName() string { return r.name }
func (r stubRule) Salience() int    { return r.salience }

func pm() *beta.PartialMatch {
	return &beta.PartialMatch{}
}

// TestSalienceDominatesDeclarationOrder covers spec.md §8 scenario (d):
// a high-salience rule activated after a low-salience one still fires
// first, regardless of activation order.
func TestSalienceDominatesDeclarationOrder(t *testing.T) {
	a := New(StrategyDepth)
	low := stubRule{name: "low", salience: 0}
	high := stubRule{name: "high", salience: 10}

	a.Activate(low, pm())
	a.Activate(high, pm())

	require.Equal(t, 2, a.Len())
	assert.Equal(t, "high", a.Peek().Rule.RuleName())

	first := a.Pop()
	second := a.Pop()
	assert.Equal(t, "high", first.Rule.RuleName())
	assert.Equal(t, "low", second.Rule.RuleName())
}

func TestDepthStrategyIsLIFOWithinSalience(t *testing.T) {
	a := New(StrategyDepth)
	r := stubRule{name: "r", salience: 0}

	a.Activate(r, pm())
	a.Activate(r, pm())
	a.Activate(r, pm())

	assert.Equal(t, uint64(2), a.Pop().Seq)
	assert.Equal(t, uint64(1), a.Pop().Seq)
	assert.Equal(t, uint64(0), a.Pop().Seq)
}

func TestBreadthStrategyIsFIFOWithinSalience(t *testing.T) {
	a := New(StrategyBreadth)
	r := stubRule{name: "r", salience: 0}

	a.Activate(r, pm())
	a.Activate(r, pm())
	a.Activate(r, pm())

	assert.Equal(t, uint64(0), a.Pop().Seq)
	assert.Equal(t, uint64(1), a.Pop().Seq)
	assert.Equal(t, uint64(2), a.Pop().Seq)
}

func TestComplexityStrategyPrefersHigherComplexity(t *testing.T) {
	a := New(StrategyComplexity)
	simple := stubRule{name: "simple", salience: 0}
	complex_ := stubRule{name: "complex", salience: 0}
	a.SetComplexityFunc(func(rule SalientRule) int {
		if rule.RuleName() == "complex" {
			return 5
		}
		return 1
	})

	a.Activate(simple, pm())
	a.Activate(complex_, pm())

	assert.Equal(t, "complex", a.Pop().Rule.RuleName())
	assert.Equal(t, "simple", a.Pop().Rule.RuleName())
}

func TestSimplicityStrategyPrefersLowerComplexity(t *testing.T) {
	a := New(StrategySimplicity)
	simple := stubRule{name: "simple", salience: 0}
	complex_ := stubRule{name: "complex", salience: 0}
	a.SetComplexityFunc(func(rule SalientRule) int {
		if rule.RuleName() == "complex" {
			return 5
		}
		return 1
	})

	a.Activate(complex_, pm())
	a.Activate(simple, pm())

	assert.Equal(t, "simple", a.Pop().Rule.RuleName())
	assert.Equal(t, "complex", a.Pop().Rule.RuleName())
}

func TestRemoveDropsMatchingActivation(t *testing.T) {
	a := New(StrategyDepth)
	r := stubRule{name: "r", salience: 0}
	target := pm()

	a.Activate(r, pm())
	a.Activate(r, target)
	a.Activate(r, pm())
	require.Equal(t, 3, a.Len())

	a.Remove(target)
	assert.Equal(t, 2, a.Len())
	for _, act := range a.List() {
		assert.NotEqual(t, target, act.Match)
	}
}

func TestDeactivateRemovesByPartialMatch(t *testing.T) {
	a := New(StrategyDepth)
	r := stubRule{name: "r", salience: 0}
	target := pm()

	a.Activate(r, target)
	require.Equal(t, 1, a.Len())

	a.Deactivate(r, target)
	assert.Equal(t, 0, a.Len())
}

func TestActivatePanicsWhenRuleDoesNotImplementSalientRule(t *testing.T) {
	a := New(StrategyDepth)
	assert.Panics(t, func() {
		a.Activate("not a rule", pm())
	})
}

func TestSetStrategyResortsExistingActivations(t *testing.T) {
	a := New(StrategyBreadth)
	r := stubRule{name: "r", salience: 0}

	a.Activate(r, pm())
	a.Activate(r, pm())
	a.Activate(r, pm())
	require.Equal(t, uint64(0), a.Peek().Seq)

	a.SetStrategy(StrategyDepth)
	assert.Equal(t, StrategyDepth, a.Strategy())
	assert.Equal(t, uint64(2), a.Peek().Seq)
}

func TestClearEmptiesAgenda(t *testing.T) {
	a := New(StrategyDepth)
	r := stubRule{name: "r", salience: 0}
	a.Activate(r, pm())
	a.Activate(r, pm())

	a.Clear()
	assert.Equal(t, 0, a.Len())
	assert.Nil(t, a.Pop())
	assert.Nil(t, a.Peek())
}

func TestListReturnsSnapshotCopy(t *testing.T) {
	a := New(StrategyDepth)
	r := stubRule{name: "r", salience: 0}
	a.Activate(r, pm())

	snap := a.List()
	a.Activate(r, pm())
	assert.Equal(t, 1, len(snap))
	assert.Equal(t, 2, a.Len())
}
