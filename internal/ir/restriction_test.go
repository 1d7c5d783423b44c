package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPositionCountsSeparators(t *testing.T) {
	r := NewRestrictionSet("ln;s;n")
	assert.True(t, r.HasPosition(0))
	assert.True(t, r.HasPosition(1))
	assert.True(t, r.HasPosition(2))
	assert.False(t, r.HasPosition(3), "only 2 separators means positions 0-2 exist")
}

func TestHasPositionNoTrailingSeparatorStillMatchesLastSegment(t *testing.T) {
	// The defect this corrects dropped exactly this case: a restriction
	// string with no trailing ';' whose last segment still matched the
	// requested position.
	r := NewRestrictionSet("ln;s")
	assert.True(t, r.HasPosition(1), "the final segment, though unterminated by ';', is still a real restriction slot")
}

func TestHasPositionEmptyStringOnlyHasDefault(t *testing.T) {
	r := NewRestrictionSet("")
	assert.True(t, r.HasPosition(0))
	assert.False(t, r.HasPosition(1))
}

func TestTypeCodesAtFallsBackToDefault(t *testing.T) {
	r := NewRestrictionSet("ln;;n")
	assert.Equal(t, "ln", r.TypeCodesAt(0))
	assert.Equal(t, "ln", r.TypeCodesAt(1), "empty segment falls back to position 0's default")
	assert.Equal(t, "n", r.TypeCodesAt(2))
	assert.Equal(t, "ln", r.TypeCodesAt(5), "positions past the end fall back to the default too")
}
