// Package index consumes the corpus index produced by the external
// document scanner: canonical definitions, their aliases, and every
// location where a term or alias appears.
package index

import (
	"errors"
	"sort"

	"github.com/lexitect/lexitect/internal/model"
)

// ErrNotFound is returned when a definition ID is absent from the index.
var ErrNotFound = errors.New("definition not found in corpus index")

// Index is the read-only view of the corpus the enrichment pipeline
// consumes. Implementations must be safe for concurrent readers.
type Index interface {
	// GetDefinition returns the canonical record for id, or ErrNotFound.
	GetDefinition(id string) (model.Definition, error)

	// ListDefinitions returns every definition, sorted by ID so run
	// output is deterministic regardless of scan order.
	ListDefinitions() ([]model.Definition, error)

	// ListUsageOccurrences returns the occurrences for a definition in
	// stable scan order. A definition with no usages returns an empty
	// slice, not an error.
	ListUsageOccurrences(definitionID string) ([]model.UsageOccurrence, error)
}

// StaticIndex is an in-memory Index, used directly in tests and as the
// backing store of SnapshotIndex.
type StaticIndex struct {
	definitions map[string]model.Definition
	usages      map[string][]model.UsageOccurrence
}

// NewStaticIndex builds an index from already-materialized records.
func NewStaticIndex(defs []model.Definition, usages map[string][]model.UsageOccurrence) *StaticIndex {
	byID := make(map[string]model.Definition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	if usages == nil {
		usages = map[string][]model.UsageOccurrence{}
	}
	return &StaticIndex{definitions: byID, usages: usages}
}

// GetDefinition implements Index.
func (s *StaticIndex) GetDefinition(id string) (model.Definition, error) {
	def, ok := s.definitions[id]
	if !ok {
		return model.Definition{}, ErrNotFound
	}
	return def, nil
}

// ListDefinitions implements Index.
func (s *StaticIndex) ListDefinitions() ([]model.Definition, error) {
	out := make([]model.Definition, 0, len(s.definitions))
	for _, d := range s.definitions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListUsageOccurrences implements Index.
func (s *StaticIndex) ListUsageOccurrences(definitionID string) ([]model.UsageOccurrence, error) {
	occ := s.usages[definitionID]
	out := make([]model.UsageOccurrence, len(occ))
	copy(out, occ)
	return out, nil
}
