package model

import "testing"

func TestSearchTerms(t *testing.T) {
	d := Definition{
		Name:    "Entropy",
		Aliases: []string{"thermodynamic entropy", "", "Boltzmann entropy"},
	}

	terms := d.SearchTerms()
	want := []string{"Entropy", "thermodynamic entropy", "Boltzmann entropy"}
	if len(terms) != len(want) {
		t.Fatalf("expected %d terms, got %d: %v", len(want), len(terms), terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("term %d: expected %q, got %q", i, want[i], terms[i])
		}
	}
}

func TestContentHashFor_AliasOrderIndependent(t *testing.T) {
	a := ContentHashFor("A measure of disorder.", []string{"alpha", "beta"})
	b := ContentHashFor("A measure of disorder.", []string{"Beta", "Alpha"})
	if a != b {
		t.Errorf("hash should not depend on alias order or case: %s vs %s", a, b)
	}
}

func TestContentHashFor_StatementChanges(t *testing.T) {
	a := ContentHashFor("A measure of disorder.", nil)
	b := ContentHashFor("A measure of order.", nil)
	if a == b {
		t.Error("different statements produced the same hash")
	}
}

func TestContentHashFor_TrimsStatement(t *testing.T) {
	a := ContentHashFor("A measure of disorder.", nil)
	b := ContentHashFor("  A measure of disorder.  \n", nil)
	if a != b {
		t.Error("surrounding whitespace should not change the hash")
	}
}

func TestSeverityRank(t *testing.T) {
	ordered := []Severity{SeverityNone, SeverityCompatibleExpansion, SeverityMinorDrift, SeverityContradiction}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("%s should rank above %s", ordered[i], ordered[i-1])
		}
	}
}

func TestMaxSeverity(t *testing.T) {
	if got := MaxSeverity(SeverityMinorDrift, SeverityContradiction); got != SeverityContradiction {
		t.Errorf("expected contradiction, got %s", got)
	}
	if got := MaxSeverity(SeverityCompatibleExpansion, SeverityNone); got != SeverityCompatibleExpansion {
		t.Errorf("expected compatible_expansion, got %s", got)
	}
	// Equal severities keep the first argument
	if got := MaxSeverity(SeverityMinorDrift, SeverityMinorDrift); got != SeverityMinorDrift {
		t.Errorf("expected minor_drift, got %s", got)
	}
}

func TestCountOutcome(t *testing.T) {
	var s RunSummary
	for _, o := range []Outcome{OutcomeSuccess, OutcomeSuccess, OutcomePartial, OutcomeFailed, OutcomeSkipped} {
		s.CountOutcome(o)
	}
	if s.Succeeded != 2 || s.Partial != 1 || s.Failed != 1 || s.Skipped != 1 {
		t.Errorf("unexpected counters: %+v", s)
	}
}
