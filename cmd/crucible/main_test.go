package main

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies no goroutine outlives its test — the rulesetWatcher
// is the only background goroutine cmd/crucible spins, and its Close
// blocks on the loop's exit, so a clean run here catches a watcher that
// forgets to close its Events/Errors select loop.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
