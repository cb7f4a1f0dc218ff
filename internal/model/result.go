package model

import "time"

// Outcome is the aggregate result of processing one definition.
type Outcome string

const (
	OutcomeSuccess Outcome = "success" // At least one provenance entry accepted
	OutcomePartial Outcome = "partial" // Processed, but a sub-step failed non-fatally
	OutcomeFailed  Outcome = "failed"  // Unrecoverable for this definition
	OutcomeSkipped Outcome = "skipped" // Content hash unchanged since last successful run
)

// RunResult is the self-contained outcome of processing one definition.
type RunResult struct {
	DefinitionID      string            `json:"definition_id"`
	Outcome           Outcome           `json:"outcome"`
	ProvenanceEntries []ProvenanceEntry `json:"provenance_entries,omitempty"`
	DriftEntries      []DriftEntry      `json:"drift_entries,omitempty"`
	FailureReason     string            `json:"failure_reason,omitempty"`
}

// DefinitionIssue identifies one non-success definition in the summary,
// so the absence of a provenance entry is always explainable.
type DefinitionIssue struct {
	DefinitionID string  `json:"definition_id"`
	Outcome      Outcome `json:"outcome"`
	Reason       string  `json:"reason"`
}

// RunSummary is the aggregate outcome of one enrichment run.
type RunSummary struct {
	StartedAt         time.Time `json:"started_at"`
	ElapsedSeconds    float64   `json:"elapsed_seconds"`
	DefinitionsTotal  int       `json:"definitions_total"`
	Succeeded         int       `json:"succeeded"`
	Partial           int       `json:"partial"`
	Failed            int       `json:"failed"`
	Skipped           int       `json:"skipped"`
	Throughput        float64   `json:"throughput"` // definitions per second
	ProvenanceCount   int       `json:"provenance_count"` // entries produced by this run
	DriftCount        int       `json:"drift_count"`      // entries produced by this run
	ClassifierVersion string    `json:"classifier_version"`

	// Issues lists every definition with a non-success outcome and the
	// reason, sorted by definition ID. Silent partial failure is not
	// allowed.
	Issues []DefinitionIssue `json:"issues,omitempty"`
}

// CountOutcome records one result in the summary counters.
func (s *RunSummary) CountOutcome(o Outcome) {
	switch o {
	case OutcomeSuccess:
		s.Succeeded++
	case OutcomePartial:
		s.Partial++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	}
}
