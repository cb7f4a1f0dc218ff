// Package gate implements the confidence gate: the deterministic filter
// deciding whether fetched or derived content is trustworthy enough to
// persist.
package gate

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/lexitect/lexitect/internal/model"
)

// DefaultMinConfidence is the gate threshold when none is configured.
const DefaultMinConfidence = 0.90

// Gate accepts or rejects candidates against a fixed threshold. Rejection
// is final for a candidate within one run: the orchestrator never retries
// the same source/content pair at a different threshold.
type Gate struct {
	threshold float64
}

// New creates a gate. A negative threshold falls back to the default;
// zero is a valid threshold that accepts every candidate.
func New(threshold float64) *Gate {
	if threshold < 0 {
		threshold = DefaultMinConfidence
	}
	return &Gate{threshold: threshold}
}

// Threshold returns the gate's minimum confidence.
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// Accept reports whether a candidate passes. A confidence exactly at the
// threshold passes.
func (g *Gate) Accept(c model.ExternalCandidate) bool {
	return c.Confidence >= g.threshold
}

// Promote converts an accepted candidate into a provenance entry. The
// confidence is carried over unchanged; the gate never rounds or boosts.
func (g *Gate) Promote(definitionID string, c model.ExternalCandidate, sourceType model.SourceType) model.ProvenanceEntry {
	sum := sha256.Sum256([]byte(c.RetrievedText))
	return model.ProvenanceEntry{
		DefinitionID: definitionID,
		SourceType:   sourceType,
		SourceName:   c.SourceName,
		Confidence:   c.Confidence,
		ContentHash:  hex.EncodeToString(sum[:]),
		URL:          c.URL,
		Timestamp:    time.Now().UTC(),
	}
}
