package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Definition is a canonical term record produced by the external corpus
// indexer. The enrichment pipeline reads it and writes derived artifacts;
// it never mutates the record itself.
type Definition struct {
	ID                 string   `json:"id"`                  // Stable identifier, unique
	Name               string   `json:"name"`                // Display name of the term
	Symbol             string   `json:"symbol,omitempty"`    // Formal anchor symbol, if any
	Aliases            []string `json:"aliases,omitempty"`   // Case-insensitive alternates
	CanonicalStatement string   `json:"canonical_statement"` // One-sentence authoritative definition
	ContentHash        string   `json:"content_hash"`        // Hash of statement + aliases
}

// SearchTerms returns the queries a source lookup should try, in order:
// the term name first, then each alias.
func (d Definition) SearchTerms() []string {
	terms := make([]string, 0, len(d.Aliases)+1)
	if d.Name != "" {
		terms = append(terms, d.Name)
	}
	for _, a := range d.Aliases {
		if a != "" {
			terms = append(terms, a)
		}
	}
	return terms
}

// ContentHashFor computes the canonical content hash for a definition.
// Aliases are lowercased and sorted so the hash does not depend on the
// indexer's emission order.
func ContentHashFor(canonicalStatement string, aliases []string) string {
	normalized := make([]string, 0, len(aliases))
	for _, a := range aliases {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(a)))
	}
	sort.Strings(normalized)

	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(canonicalStatement)))
	for _, a := range normalized {
		h.Write([]byte{0})
		h.Write([]byte(a))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// UsageOccurrence is one place a term (or alias) appears in the corpus
// outside its own canonical note. Immutable once produced by the indexer;
// insertion order from the scan is preserved for reproducible drift logs.
type UsageOccurrence struct {
	DefinitionID string    `json:"definition_id"`
	LocationRef  string    `json:"location_ref"` // Opaque corpus pointer, e.g. "file.md#L42"
	Snippet      string    `json:"snippet"`      // Bounded surrounding text
	ObservedAt   time.Time `json:"observed_at"`  // Corpus scan timestamp
}
