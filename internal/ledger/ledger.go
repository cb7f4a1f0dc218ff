// Package ledger holds the run's append-only record of auto-generated
// content and detected drift. A single mutex guards both logs: workers
// append concurrently, entries are never edited in place, and duplicate
// appends for the same candidate are absorbed.
package ledger

import (
	"sort"
	"sync"

	"github.com/lexitect/lexitect/internal/model"
)

// Ledger is the shared append-only log. The zero value is not usable;
// construct with New.
type Ledger struct {
	mu         sync.Mutex
	provenance []model.ProvenanceEntry
	drift      []model.DriftEntry
	seen       map[string]int // candidate identity -> provenance slice index
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{seen: make(map[string]int)}
}

// Restore seeds the ledger with entries from a prior run so that
// re-enrichment supersedes instead of silently duplicating. Entries keep
// their recorded flags and order.
func (l *Ledger) Restore(entries []model.ProvenanceEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range entries {
		key := candidateKey(e)
		if _, dup := l.seen[key]; dup {
			continue
		}
		l.seen[key] = len(l.provenance)
		l.provenance = append(l.provenance, e)
	}
}

// ActiveEntry returns the most recent non-superseded provenance entry for
// a definition, if any.
func (l *Ledger) ActiveEntry(definitionID string) (model.ProvenanceEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.provenance) - 1; i >= 0; i-- {
		if l.provenance[i].DefinitionID == definitionID && !l.provenance[i].Superseded {
			return l.provenance[i], true
		}
	}
	return model.ProvenanceEntry{}, false
}

// AppendProvenance records one accepted block. It reports false when an
// entry for the same (definition, source, content hash) already exists,
// so a retried worker cannot double-record a candidate.
func (l *Ledger) AppendProvenance(e model.ProvenanceEntry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := candidateKey(e)
	if _, dup := l.seen[key]; dup {
		return false
	}
	l.seen[key] = len(l.provenance)
	l.provenance = append(l.provenance, e)
	return true
}

// Supersede appends a replacement entry and flags the prior entry for the
// same definition and source, if one exists. The old entry's content is
// untouched; only the superseded flag flips, preserving the audit trail.
func (l *Ledger) Supersede(old model.ProvenanceEntry, replacement model.ProvenanceEntry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx, ok := l.seen[candidateKey(old)]; ok {
		l.provenance[idx].Superseded = true
	}

	key := candidateKey(replacement)
	if _, dup := l.seen[key]; dup {
		return false
	}
	l.seen[key] = len(l.provenance)
	l.provenance = append(l.provenance, replacement)
	return true
}

// AppendDrift records one detected deviation.
func (l *Ledger) AppendDrift(e model.DriftEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drift = append(l.drift, e)
}

// RestoreDrift seeds the ledger with drift entries from a prior run.
// Skipped definitions keep their recorded deviations; re-classified ones
// shed theirs through DropDrift first.
func (l *Ledger) RestoreDrift(entries []model.DriftEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drift = append(l.drift, entries...)
}

// DropDrift removes all drift entries for one definition, making room for
// the entries a fresh classification pass is about to record.
func (l *Ledger) DropDrift(definitionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.drift[:0]
	for _, e := range l.drift {
		if e.DefinitionID != definitionID {
			kept = append(kept, e)
		}
	}
	l.drift = kept
}

// Provenance returns a copy of all provenance entries sorted by
// definition ID (then source priority order of append), for deterministic
// reports regardless of processing order.
func (l *Ledger) Provenance() []model.ProvenanceEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.ProvenanceEntry, len(l.provenance))
	copy(out, l.provenance)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DefinitionID < out[j].DefinitionID
	})
	return out
}

// Drift returns a copy of all drift entries sorted by definition ID,
// then location, preserving scan order within a location.
func (l *Ledger) Drift() []model.DriftEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.DriftEntry, len(l.drift))
	copy(out, l.drift)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DefinitionID != out[j].DefinitionID {
			return out[i].DefinitionID < out[j].DefinitionID
		}
		return out[i].LocationRef < out[j].LocationRef
	})
	return out
}

// DriftBySeverity counts drift entries per severity.
func (l *Ledger) DriftBySeverity() map[model.Severity]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	counts := make(map[model.Severity]int)
	for _, e := range l.drift {
		counts[e.Severity]++
	}
	return counts
}

// Counts returns the number of provenance and drift entries.
func (l *Ledger) Counts() (provenance, drift int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.provenance), len(l.drift)
}

func candidateKey(e model.ProvenanceEntry) string {
	return e.DefinitionID + "\x00" + e.SourceName + "\x00" + e.ContentHash
}
