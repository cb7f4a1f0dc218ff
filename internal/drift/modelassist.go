package drift

import (
	"context"
	"fmt"
	"time"

	"github.com/lexitect/lexitect/internal/cache"
	"github.com/lexitect/lexitect/internal/llm"
	"github.com/lexitect/lexitect/internal/model"
)

// ModelClassifier consults an LLM comparator. The provider runs in
// deterministic mode (temperature zero, fixed seed) and verdicts are
// cached by content hash, so identical (statement, snippet) pairs are
// asked at most once and always classify identically within a version.
type ModelClassifier struct {
	provider  llm.Provider
	modelName string
	verdicts  cache.Cache
}

// NewModelClassifier wraps an LLM provider as a drift classifier.
func NewModelClassifier(provider llm.Provider, modelName string) *ModelClassifier {
	return &ModelClassifier{
		provider:  provider,
		modelName: modelName,
		verdicts:  cache.NewMemoryCache(12 * time.Hour),
	}
}

// Version implements Classifier. The provider and model are part of the
// version: verdicts from different models are not comparable.
func (c *ModelClassifier) Version() string {
	return fmt.Sprintf("model/%s/%s", c.provider.Name(), c.modelName)
}

// Classify implements Classifier. A provider failure or an
// out-of-vocabulary response is returned as an error, never converted
// into a guessed severity, so the orchestrator can record the occurrence
// as a classification failure.
func (c *ModelClassifier) Classify(ctx context.Context, term, canonicalStatement, snippet string) (model.Severity, error) {
	key := cache.Key("verdict", c.Version(), canonicalStatement, snippet)
	if raw, found := c.verdicts.Get(key); found {
		return model.Severity(raw), nil
	}

	resp, err := c.provider.Classify(ctx, llm.ClassifyRequest{
		Term:               term,
		CanonicalStatement: canonicalStatement,
		Snippet:            snippet,
	})
	if err != nil {
		return model.SeverityNone, fmt.Errorf("model comparison: %w", err)
	}

	_ = c.verdicts.Set(key, []byte(resp.Severity), 0)
	return resp.Severity, nil
}
