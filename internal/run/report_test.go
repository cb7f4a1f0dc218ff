package run

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexitect/lexitect/internal/ledger"
	"github.com/lexitect/lexitect/internal/model"
)

func reportFixtures() (*model.RunSummary, *ledger.Ledger) {
	led := ledger.New()
	led.AppendProvenance(model.ProvenanceEntry{
		DefinitionID: "def:alpha",
		SourceType:   model.SourceTypeExternal,
		SourceName:   "Wikipedia",
		Confidence:   0.90,
		ContentHash:  "abc123",
		Timestamp:    time.Now().UTC(),
	})
	led.AppendDrift(model.DriftEntry{
		DefinitionID:   "def:alpha",
		LocationRef:    "notes/a.md:9",
		SnippetExcerpt: "Alpha is used loosely | with a pipe",
		Severity:       model.SeverityMinorDrift,
		DetectedAt:     time.Now().UTC(),
	})
	led.AppendDrift(model.DriftEntry{
		DefinitionID:   "def:beta",
		LocationRef:    "notes/b.md:4",
		SnippetExcerpt: "Beta is not a letter at all.",
		Severity:       model.SeverityContradiction,
		DetectedAt:     time.Now().UTC(),
	})

	summary := &model.RunSummary{
		StartedAt:         time.Now().UTC(),
		DefinitionsTotal:  3,
		Succeeded:         2,
		Failed:            1,
		ClassifierVersion: "heuristic/v1",
		Issues: []model.DefinitionIssue{
			{DefinitionID: "def:broken", Outcome: model.OutcomeFailed, Reason: "empty canonical statement"},
		},
	}
	summary.ProvenanceCount, summary.DriftCount = led.Counts()
	return summary, led
}

func TestWriteReports_ProducesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	summary, led := reportFixtures()

	if err := NewRenderer(true).WriteReports(dir, summary, led); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"provenance.json", "drift.json", "summary.json", "report.md"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	// The provenance log must roundtrip: the next run restores it.
	data, err := os.ReadFile(filepath.Join(dir, "provenance.json"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []model.ProvenanceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ContentHash != "abc123" {
		t.Errorf("provenance log did not roundtrip: %+v", entries)
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	summary, led := reportFixtures()
	md := NewRenderer(true).renderMarkdown(summary, led)

	for _, want := range []string{
		"# Definition Health Report",
		"## Run Summary",
		"## Detected Drift",
		"- contradiction: 1",
		"- minor_drift: 1",
		"## Accepted Enrichments",
		"| def:alpha | Wikipedia | 0.90 |",
		"## Issues",
		"empty canonical statement",
		"Generated by [lexitect]",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Pipes inside snippets must not break the table.
	if !strings.Contains(md, `loosely \| with`) {
		t.Error("snippet pipe not escaped in table cell")
	}

	plain := NewRenderer(false).renderMarkdown(summary, led)
	if strings.Contains(plain, "Generated by") {
		t.Error("footer rendered despite being disabled")
	}
}
