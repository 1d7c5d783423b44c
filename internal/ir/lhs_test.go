package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeafWrapsSinglePattern(t *testing.T) {
	p := &Pattern{Template: "p", SlotFields: []Field{{Kind: FieldVariable, Variable: "v"}}}
	ce := Leaf(p)
	assert.Equal(t, []*Pattern{p}, ce.Patterns())
}

func TestPatternsFlattensAndGroup(t *testing.T) {
	p1 := &Pattern{Template: "p"}
	p2 := &Pattern{Template: "q"}
	group := &CE{Connective: And, Children: []*CE{Leaf(p1), Leaf(p2)}}

	got := group.Patterns()
	assert.Equal(t, []*Pattern{p1, p2}, got)
}

func TestPatternsDoesNotDescendIntoNotGroup(t *testing.T) {
	inner := &Pattern{Template: "q"}
	notGroup := &CE{Connective: Not, Children: []*CE{Leaf(inner)}}
	top := &CE{Connective: And, Children: []*CE{notGroup}}

	// A Not-group is structural (the join compiler handles it directly);
	// it does not contribute to the flat positive-pattern list.
	assert.Empty(t, top.Patterns())
}

func TestConnectiveString(t *testing.T) {
	assert.Equal(t, "and", And.String())
	assert.Equal(t, "not", Not.String())
	assert.Equal(t, "exists", Exists.String())
	assert.Equal(t, "or", Or.String())
}
