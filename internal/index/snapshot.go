package index

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lexitect/lexitect/internal/model"
)

// snapshotFile mirrors the JSON the corpus scanner writes: a definitions
// map keyed by ID and a usages map keyed by definition ID.
type snapshotFile struct {
	Definitions map[string]snapshotDefinition `json:"definitions"`
	Usages      map[string][]snapshotUsage    `json:"usages"`
	GeneratedAt time.Time                     `json:"last_indexed"`
}

type snapshotDefinition struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Symbol             string   `json:"symbol,omitempty"`
	Aliases            []string `json:"aliases,omitempty"`
	CanonicalStatement string   `json:"canonical_statement"`
	ContentHash        string   `json:"content_hash,omitempty"`
}

type snapshotUsage struct {
	LocationRef string    `json:"location_ref"`
	Snippet     string    `json:"snippet"`
	ObservedAt  time.Time `json:"observed_at"`
}

// SnapshotStats summarizes a loaded snapshot for inspection.
type SnapshotStats struct {
	Definitions int
	Usages      int
	GeneratedAt time.Time
}

// SnapshotIndex is the file-backed Index over one scan snapshot. The
// snapshot is immutable for the life of a run.
type SnapshotIndex struct {
	*StaticIndex
	stats SnapshotStats
}

// LoadSnapshot reads and validates a corpus index snapshot. Older
// snapshots may omit content hashes; they are recomputed on load so the
// skip mechanism always has a hash to compare.
func LoadSnapshot(path string) (*SnapshotIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus index: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse corpus index: %w", err)
	}

	defs := make([]model.Definition, 0, len(file.Definitions))
	usageTotal := 0
	usages := make(map[string][]model.UsageOccurrence, len(file.Usages))

	for id, sd := range file.Definitions {
		if sd.ID == "" {
			sd.ID = id
		}
		hash := sd.ContentHash
		if hash == "" {
			hash = model.ContentHashFor(sd.CanonicalStatement, sd.Aliases)
		}
		defs = append(defs, model.Definition{
			ID:                 sd.ID,
			Name:               sd.Name,
			Symbol:             sd.Symbol,
			Aliases:            sd.Aliases,
			CanonicalStatement: sd.CanonicalStatement,
			ContentHash:        hash,
		})
	}

	for id, list := range file.Usages {
		occ := make([]model.UsageOccurrence, 0, len(list))
		for _, su := range list {
			occ = append(occ, model.UsageOccurrence{
				DefinitionID: id,
				LocationRef:  su.LocationRef,
				Snippet:      su.Snippet,
				ObservedAt:   su.ObservedAt,
			})
		}
		usages[id] = occ
		usageTotal += len(occ)
	}

	return &SnapshotIndex{
		StaticIndex: NewStaticIndex(defs, usages),
		stats: SnapshotStats{
			Definitions: len(defs),
			Usages:      usageTotal,
			GeneratedAt: file.GeneratedAt,
		},
	}, nil
}

// Stats reports snapshot totals.
func (s *SnapshotIndex) Stats() SnapshotStats {
	return s.stats
}

// WriteSnapshot writes definitions and usages in the snapshot file format.
// Content hashes are computed here so the written snapshot is immediately
// usable by the skip mechanism.
func WriteSnapshot(path string, defs []model.Definition, usages map[string][]model.UsageOccurrence) error {
	file := snapshotFile{
		Definitions: make(map[string]snapshotDefinition, len(defs)),
		Usages:      make(map[string][]snapshotUsage, len(usages)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, d := range defs {
		hash := d.ContentHash
		if hash == "" {
			hash = model.ContentHashFor(d.CanonicalStatement, d.Aliases)
		}
		file.Definitions[d.ID] = snapshotDefinition{
			ID:                 d.ID,
			Name:               d.Name,
			Symbol:             d.Symbol,
			Aliases:            d.Aliases,
			CanonicalStatement: d.CanonicalStatement,
			ContentHash:        hash,
		}
	}

	for id, list := range usages {
		out := make([]snapshotUsage, 0, len(list))
		for _, u := range list {
			out = append(out, snapshotUsage{
				LocationRef: u.LocationRef,
				Snippet:     u.Snippet,
				ObservedAt:  u.ObservedAt,
			})
		}
		file.Usages[id] = out
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corpus index: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write corpus index: %w", err)
	}
	return nil
}
