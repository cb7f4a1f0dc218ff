// Package drift compares canonical statements against observed usages and
// classifies deviations. Two backends implement one Classifier capability:
// a rule-based comparator and a model-assisted one. Both are deterministic
// for a given version: identical (statement, snippet) inputs classify
// identically across runs.
package drift

import (
	"context"
	"fmt"

	"github.com/lexitect/lexitect/internal/llm"
	"github.com/lexitect/lexitect/internal/model"
)

// Classifier assigns a severity to one (canonical statement, snippet)
// pair. SeverityNone means the usage warrants no drift entry at all.
type Classifier interface {
	Classify(ctx context.Context, term, canonicalStatement, snippet string) (model.Severity, error)

	// Version identifies the classifier rules; recorded in run output so
	// drift logs can be tied to the rules that produced them.
	Version() string
}

// New builds the configured classifier backend.
func New(cfg model.DriftConfig, llmCfg model.LLMConfig) (Classifier, error) {
	switch cfg.Backend {
	case "", "heuristic":
		return NewHeuristic(), nil

	case "model":
		provider, err := llm.NewProvider(llm.ConfigFromModel(llmCfg))
		if err != nil {
			return nil, fmt.Errorf("create LLM provider: %w", err)
		}
		if provider == nil {
			return nil, fmt.Errorf("drift backend %q requires an LLM provider", cfg.Backend)
		}
		return NewModelClassifier(provider, llmCfg.Model), nil

	default:
		return nil, fmt.Errorf("unknown drift backend: %s (supported: heuristic, model)", cfg.Backend)
	}
}
