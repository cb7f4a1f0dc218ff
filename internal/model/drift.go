package model

import "time"

// Severity classifies how far an observed usage deviates from the
// canonical statement.
type Severity string

const (
	// SeverityNone is the no-drift sentinel: the usage is consistent
	// enough that no log entry is warranted. Never recorded as a
	// DriftEntry.
	SeverityNone Severity = "none"

	// SeverityCompatibleExpansion marks a specialization or narrower
	// instance consistent with canonical meaning.
	SeverityCompatibleExpansion Severity = "compatible_expansion"

	// SeverityMinorDrift marks usage in an adjacent but non-identical
	// sense, without direct contradiction.
	SeverityMinorDrift Severity = "minor_drift"

	// SeverityContradiction marks usage asserting a property logically
	// incompatible with the canonical statement.
	SeverityContradiction Severity = "contradiction"
)

// Rank orders severities so that tie-breaks resolve to the most severe
// classification. Higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityContradiction:
		return 3
	case SeverityMinorDrift:
		return 2
	case SeverityCompatibleExpansion:
		return 1
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// DriftEntry records one detected deviation between a term's canonical
// meaning and an observed usage.
type DriftEntry struct {
	DefinitionID   string    `json:"definition_id"`
	LocationRef    string    `json:"location_ref"`
	SnippetExcerpt string    `json:"snippet_excerpt"`
	Severity       Severity  `json:"severity"`
	DetectedAt     time.Time `json:"detected_at"`
}
