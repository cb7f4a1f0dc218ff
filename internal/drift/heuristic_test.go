package drift

import (
	"context"
	"testing"

	"github.com/lexitect/lexitect/internal/model"
)

const canonical = "Entropy is a measure of the number of microscopic configurations consistent with a macroscopic state."

func TestHeuristic_Classify(t *testing.T) {
	h := NewHeuristic()
	ctx := context.Background()

	tests := []struct {
		name    string
		snippet string
		want    model.Severity
	}{
		{
			name:    "consistent usage",
			snippet: "The entropy of the system increased during the expansion.",
			want:    model.SeverityNone,
		},
		{
			name:    "empty snippet",
			snippet: "   ",
			want:    model.SeverityNone,
		},
		{
			name:    "local redefinition",
			snippet: "Here entropy is defined as the spiritual decay of a civilization.",
			want:    model.SeverityContradiction,
		},
		{
			name:    "explicit redefine",
			snippet: "We redefine entropy for the purposes of this chapter.",
			want:    model.SeverityContradiction,
		},
		{
			name:    "negation of canonical content",
			snippet: "Entropy is not a measure of configurations at all.",
			want:    model.SeverityContradiction,
		},
		{
			name: "negation without shared key term",
			// Negation cues alone are not contradiction when the snippet
			// says nothing about the canonical content.
			snippet: "The engine does not start on cold mornings.",
			want:    model.SeverityNone,
		},
		{
			name:    "divergent sense",
			snippet: "Here entropy is used loosely, as a metaphor for social decline.",
			want:    model.SeverityMinorDrift,
		},
		{
			name:    "adjacent sense with however",
			snippet: "However, in information theory the term carries a related but distinct sense.",
			want:    model.SeverityMinorDrift,
		},
		{
			name:    "specialization",
			snippet: "Shannon entropy is a special case applied to probability distributions.",
			want:    model.SeverityCompatibleExpansion,
		},
		{
			name:    "example usage",
			snippet: "Consider for instance the entropy of an ideal gas in a sealed box.",
			want:    model.SeverityCompatibleExpansion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Classify(ctx, "Entropy", canonical, tt.snippet)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHeuristic_MostSevereWins(t *testing.T) {
	h := NewHeuristic()

	// Contains both an expansion cue ("for example") and a redefinition
	// cue; contradiction must win.
	snippet := "For example, entropy is defined as cosmic sadness in this poem."
	got, err := h.Classify(context.Background(), "Entropy", canonical, snippet)
	if err != nil {
		t.Fatal(err)
	}
	if got != model.SeverityContradiction {
		t.Errorf("expected contradiction to win over expansion, got %s", got)
	}

	// Divergence cue plus expansion cue: minor_drift wins.
	snippet = "However, such as it is, the term drifts here."
	got, err = h.Classify(context.Background(), "Entropy", canonical, snippet)
	if err != nil {
		t.Fatal(err)
	}
	if got != model.SeverityMinorDrift {
		t.Errorf("expected minor_drift to win over expansion, got %s", got)
	}
}

func TestHeuristic_Deterministic(t *testing.T) {
	h := NewHeuristic()
	snippet := "However, the entropy concept is used loosely here."

	first, err := h.Classify(context.Background(), "Entropy", canonical, snippet)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		got, err := h.Classify(context.Background(), "Entropy", canonical, snippet)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("classification changed between runs: %s vs %s", first, got)
		}
	}
}

func TestHeuristic_Version(t *testing.T) {
	if NewHeuristic().Version() == "" {
		t.Error("version must be non-empty")
	}
}

func TestNew_BackendSelection(t *testing.T) {
	c, err := New(model.DriftConfig{Backend: "heuristic"}, model.LLMConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*Heuristic); !ok {
		t.Errorf("expected heuristic backend, got %T", c)
	}

	// Empty backend defaults to heuristic.
	c, err = New(model.DriftConfig{}, model.LLMConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*Heuristic); !ok {
		t.Errorf("expected heuristic backend for empty config, got %T", c)
	}

	// Model backend without a provider is a configuration error.
	if _, err := New(model.DriftConfig{Backend: "model"}, model.LLMConfig{}); err == nil {
		t.Error("expected error for model backend without provider")
	}
}
