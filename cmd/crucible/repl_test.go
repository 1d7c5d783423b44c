package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crucible/internal/config"
	"crucible/internal/engine"
	"crucible/internal/fact"
)

func newTestSession() (*session, *bytes.Buffer) {
	env := engine.New(config.DefaultConfig())
	env.AddTemplate(&fact.Template{
		Name:    "widget",
		InScope: true,
		Slots:   []fact.SlotDef{{Name: "color"}},
	})
	var buf bytes.Buffer
	return &session{env: env, out: &buf}, &buf
}

func TestCmdAssertAndFacts(t *testing.T) {
	s, buf := newTestSession()

	require.NoError(t, s.cmdAssert([]string{"widget", "color=red"}))
	assert.Contains(t, buf.String(), "f-1 asserted")

	buf.Reset()
	s.cmdFacts()
	assert.Contains(t, buf.String(), "f-1 (widget)")
}

func TestCmdAssertRejectsUnknownTemplate(t *testing.T) {
	s, _ := newTestSession()
	err := s.cmdAssert([]string{"nope"})
	assert.Error(t, err)
}

func TestCmdAssertRejectsDuplicate(t *testing.T) {
	s, buf := newTestSession()
	require.NoError(t, s.cmdAssert([]string{"widget", "color=red"}))
	buf.Reset()
	require.NoError(t, s.cmdAssert([]string{"widget", "color=red"}))
	assert.Contains(t, buf.String(), "duplicate")
}

func TestCmdRetract(t *testing.T) {
	s, buf := newTestSession()
	require.NoError(t, s.cmdAssert([]string{"widget", "color=red"}))
	buf.Reset()

	require.NoError(t, s.cmdRetract([]string{"1"}))
	assert.Contains(t, buf.String(), "f-1 retracted")
}

func TestCmdRetractUnknownFact(t *testing.T) {
	s, _ := newTestSession()
	err := s.cmdRetract([]string{"99"})
	assert.Error(t, err)
}

func TestCmdRunReportsFiringCount(t *testing.T) {
	s, buf := newTestSession()
	require.NoError(t, s.cmdRun(nil))
	assert.Contains(t, buf.String(), "0 rule(s) fired")
}

func TestDispatchUnknownCommand(t *testing.T) {
	s, buf := newTestSession()
	s.dispatch("frobnicate")
	assert.Contains(t, buf.String(), "unknown command")
}

func TestDispatchFocusRoundTrip(t *testing.T) {
	s, buf := newTestSession()
	s.dispatch("focus MAIN")
	assert.Empty(t, strings.TrimSpace(buf.String()))

	buf.Reset()
	s.dispatch("get-focus-stack")
	assert.Contains(t, buf.String(), "MAIN")
}

func TestBSaveThenBLoadRoundTripsThroughREPL(t *testing.T) {
	s, buf := newTestSession()
	require.NoError(t, s.cmdAssert([]string{"widget", "color=red"}))

	dir := t.TempDir()
	path := dir + "/image.db"
	buf.Reset()
	require.NoError(t, s.cmdBSave([]string{path}))
	assert.Contains(t, buf.String(), "bsave: wrote")

	fresh, buf2 := newTestSession()
	require.NoError(t, fresh.cmdBLoad([]string{path}))
	assert.Contains(t, buf2.String(), "reasserted 1 fact")
}
