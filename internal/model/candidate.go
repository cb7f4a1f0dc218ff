package model

import "time"

// SourceType classifies the origin of an auto-generated content block.
// USER content never enters the ledger; everything here is machine-produced.
type SourceType string

const (
	SourceTypeExternal      SourceType = "EXTERNAL"       // Fetched from a named external source
	SourceTypeDerived       SourceType = "DERIVED"        // Derived from corpus content
	SourceTypeHeuristic     SourceType = "HEURISTIC"      // Produced by a rule-based component
	SourceTypeModelAssisted SourceType = "MODEL_ASSISTED" // Produced with an LLM comparator
)

// ExternalCandidate is content retrieved from one named source for one
// definition. It exists only during a fetch attempt: rejected candidates
// are discarded, accepted ones are promoted into a ProvenanceEntry.
type ExternalCandidate struct {
	SourceName     string    `json:"source_name"`
	SourcePriority int       `json:"source_priority"` // Lower = checked first
	RetrievedText  string    `json:"retrieved_text"`
	Confidence     float64   `json:"confidence"` // 0.0-1.0, the source's nominal confidence
	URL            string    `json:"url,omitempty"`
	RetrievedAt    time.Time `json:"retrieved_at"`
}

// ProvenanceEntry is a durable record of one accepted auto-generated block.
// Entries are never edited after creation; corrections are new entries plus
// a superseded flag on the old one, preserving the audit trail.
type ProvenanceEntry struct {
	DefinitionID string     `json:"definition_id"`
	SourceType   SourceType `json:"source_type"`
	SourceName   string     `json:"source_name"`
	Confidence   float64    `json:"confidence"` // Always >= the run's gate threshold
	ContentHash  string     `json:"content_hash"`
	URL          string     `json:"url,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	Superseded   bool       `json:"superseded,omitempty"`
}
