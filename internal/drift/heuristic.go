package drift

import (
	"context"
	"regexp"
	"strings"

	"github.com/lexitect/lexitect/internal/model"
)

// heuristicVersion changes whenever a rule below changes; drift logs are
// only comparable within one version.
const heuristicVersion = "heuristic/v1"

// Rule cues, most severe first. When several rule families match one
// snippet, the most severe classification wins.
var (
	// A snippet that redefines the term locally contradicts the
	// canonical statement by construction.
	overridePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bredefined?\b`),
		regexp.MustCompile(`(?i)\bdefined?\s+(?:here\s+)?as\b`),
		regexp.MustCompile(`(?i)\bmeaning\s+here\b`),
		regexp.MustCompile(`(?i)\bin\s+this\s+context[\s,]+\w+.*\bmeans?\b`),
		regexp.MustCompile(`(?i)\bwe\s+use\b.*\bto\s+mean\b`),
	}

	// Negation cues only count as contradiction when the snippet is
	// talking about the canonical content, i.e. shares a key term.
	negationPattern = regexp.MustCompile(`(?i)\b(?:is\s+not|are\s+not|does\s+not|do\s+not|never|no\s+longer|cannot|contrary\s+to|the\s+opposite\s+of)\b`)

	divergencePattern = regexp.MustCompile(`(?i)\b(?:however|instead|rather|unlike|whereas|although|loosely|metaphorically|by\s+analogy|in\s+a\s+broader\s+sense)\b`)

	expansionPattern = regexp.MustCompile(`(?i)\b(?:specifically|in\s+particular|a\s+special\s+case|for\s+example|for\s+instance|e\.g\.|such\s+as|a\s+type\s+of|an\s+instance\s+of|a\s+form\s+of|narrower)\b`)

	keyTermPattern = regexp.MustCompile(`\b\w{4,}\b`)
)

// nonKeyWords are frequent 4+ letter words that say nothing about a
// definition's content.
var nonKeyWords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "which": true,
	"where": true, "when": true, "their": true, "there": true, "these": true,
	"those": true, "have": true, "been": true, "being": true, "will": true,
	"into": true, "such": true, "more": true, "than": true, "also": true,
	"over": true, "each": true, "between": true, "through": true,
}

// Heuristic is the rule-based classifier: a pure function of
// (canonical statement, snippet).
type Heuristic struct{}

// NewHeuristic creates the rule-based classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Version implements Classifier.
func (h *Heuristic) Version() string {
	return heuristicVersion
}

// Classify implements Classifier. Rules are evaluated from most to least
// severe; the first family that matches decides, which is the operational
// form of "most severe wins".
func (h *Heuristic) Classify(_ context.Context, _ string, canonicalStatement, snippet string) (model.Severity, error) {
	if strings.TrimSpace(snippet) == "" {
		return model.SeverityNone, nil
	}

	for _, p := range overridePatterns {
		if p.MatchString(snippet) {
			return model.SeverityContradiction, nil
		}
	}

	if negationPattern.MatchString(snippet) && sharesKeyTerm(canonicalStatement, snippet) {
		return model.SeverityContradiction, nil
	}

	if divergencePattern.MatchString(snippet) {
		return model.SeverityMinorDrift, nil
	}

	if expansionPattern.MatchString(snippet) {
		return model.SeverityCompatibleExpansion, nil
	}

	return model.SeverityNone, nil
}

// sharesKeyTerm reports whether the snippet mentions at least one
// substantive word of the canonical statement.
func sharesKeyTerm(canonicalStatement, snippet string) bool {
	canonical := keyTerms(canonicalStatement)
	for _, w := range keyTermPattern.FindAllString(strings.ToLower(snippet), -1) {
		if canonical[w] {
			return true
		}
	}
	return false
}

func keyTerms(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, w := range keyTermPattern.FindAllString(strings.ToLower(text), -1) {
		if !nonKeyWords[w] {
			terms[w] = true
		}
	}
	return terms
}
