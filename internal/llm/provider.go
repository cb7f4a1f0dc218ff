// Package llm holds the model-assisted comparator providers. Every
// provider is driven deterministically: temperature zero, a fixed seed
// where the API supports one, and a response constrained to the severity
// vocabulary. Callers additionally cache verdicts by content hash, so a
// given (statement, snippet) pair is asked at most once per run.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexitect/lexitect/internal/model"
)

// Provider is one LLM backend able to compare a canonical statement with
// a usage snippet.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Classify compares the canonical statement against the snippet and
	// returns a severity from the fixed vocabulary.
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)

	// IsAvailable checks whether the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// ClassifyRequest carries one comparison.
type ClassifyRequest struct {
	// Term is the name of the term under comparison.
	Term string

	// CanonicalStatement is the authoritative one-sentence definition.
	CanonicalStatement string

	// Snippet is the bounded usage text observed in the corpus.
	Snippet string

	// Model overrides the configured model when non-empty.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// ClassifyResponse is a provider's verdict.
type ClassifyResponse struct {
	Severity   model.Severity
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", or "" for disabled.
	Provider string

	// Model name (provider-specific).
	Model string

	// APIKey for hosted providers.
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, OpenAI-compatible
	// gateways).
	BaseURL string

	// Timeout for API requests, in seconds.
	Timeout int

	// MaxTokens for response generation.
	MaxTokens int
}

// DefaultConfig returns provider defaults; disabled until a provider is
// named.
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 200,
	}
}

// classifySeed fixes the sampling seed for APIs that accept one, keeping
// verdicts reproducible across runs.
const classifySeed = 42

const classifySystemPrompt = "You are a terminology auditor. You compare a term's canonical " +
	"definition against one usage of the term and answer with exactly one " +
	"label from a fixed vocabulary. You never add commentary."

// BuildClassifyPrompt renders the comparison prompt. The answer is
// constrained to the four severity labels so parsing stays deterministic.
func BuildClassifyPrompt(req ClassifyRequest) string {
	return fmt.Sprintf(`Compare the canonical definition of the term %q against one usage of it.

CANONICAL DEFINITION:
%s

USAGE:
%s

Answer with exactly one of these labels and nothing else:
- contradiction: the usage asserts a property logically incompatible with the canonical definition
- minor_drift: the usage is in an adjacent but non-identical sense, without direct contradiction
- compatible_expansion: the usage is a specialization or narrower instance consistent with the canonical definition
- none: the usage is consistent with the canonical definition`,
		req.Term, req.CanonicalStatement, req.Snippet)
}

// ParseSeverity maps a model response to a severity. Responses are matched
// on the first label found so minor formatting (quotes, trailing period)
// does not break parsing; anything without a label is an error, never a
// guessed severity.
func ParseSeverity(response string) (model.Severity, error) {
	normalized := strings.ToLower(strings.TrimSpace(response))

	// Most-specific labels first: "compatible_expansion" and
	// "minor_drift" both contain no other label, but "none" appears
	// inside ordinary prose, so exact-prefix it last.
	for _, sev := range []model.Severity{
		model.SeverityContradiction,
		model.SeverityMinorDrift,
		model.SeverityCompatibleExpansion,
	} {
		if strings.Contains(normalized, string(sev)) {
			return sev, nil
		}
	}
	if strings.HasPrefix(normalized, "none") {
		return model.SeverityNone, nil
	}
	return model.SeverityNone, fmt.Errorf("unrecognized severity response: %q", response)
}
