package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeSetsDebugMode(t *testing.T) {
	require.NoError(t, Initialize(true))
	assert.True(t, IsDebugMode())

	require.NoError(t, Initialize(false))
	assert.False(t, IsDebugMode())
}

func TestGetReturnsStableLoggerPerCategory(t *testing.T) {
	require.NoError(t, Initialize(false))

	a := Get(CategoryAgenda)
	b := Get(CategoryAgenda)
	assert.Same(t, a, b)
}

func TestGetBeforeInitializeDoesNotPanic(t *testing.T) {
	mu.Lock()
	root = nil
	loggers = make(map[Category]*Logger)
	mu.Unlock()

	assert.NotPanics(t, func() {
		Get(CategoryTMS).Infof("ready")
	})
}

func TestWithAttachesFieldsWithoutMutatingParent(t *testing.T) {
	require.NoError(t, Initialize(false))
	base := Get(CategoryEngine)
	derived := base.With("rule", "r1")
	assert.NotSame(t, base, derived)
}
