package testutil

import "testing"

// Given, When and Then name subtest phases so a scenario reads as a sentence
// in verbose output. A failed phase stops the scenario instead of reporting
// cascading failures from later phases.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	runPhase(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	runPhase(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	runPhase(t, "Then", desc, fn)
}

func runPhase(t *testing.T, phase, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(phase+" "+desc, fn) {
		t.FailNow()
	}
}
