package run

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexitect/lexitect/internal/drift"
	"github.com/lexitect/lexitect/internal/index"
	"github.com/lexitect/lexitect/internal/model"
	"github.com/lexitect/lexitect/internal/source"
)

// stubSource serves scripted text per term without any network.
type stubSource struct {
	name       string
	rank       int
	confidence float64
	content    map[string]string
}

func (s *stubSource) Name() string        { return s.name }
func (s *stubSource) Rank() int           { return s.rank }
func (s *stubSource) Confidence() float64 { return s.confidence }

func (s *stubSource) Lookup(ctx context.Context, term string) (*source.Content, error) {
	if text, ok := s.content[term]; ok {
		return &source.Content{Text: text, URL: "https://stub/" + term}, nil
	}
	return nil, source.ErrNoContent
}

func testDefinitions() ([]model.Definition, map[string][]model.UsageOccurrence) {
	defs := []model.Definition{
		{
			ID:                 "def:alpha",
			Name:               "Alpha",
			CanonicalStatement: "Alpha is the first letter of the Greek alphabet.",
		},
		{
			ID:                 "def:beta",
			Name:               "Beta",
			CanonicalStatement: "Beta is the second letter of the Greek alphabet.",
		},
		{
			ID:   "def:broken",
			Name: "Broken",
			// No canonical statement: unprocessable.
		},
	}
	for i := range defs {
		defs[i].ContentHash = model.ContentHashFor(defs[i].CanonicalStatement, defs[i].Aliases)
	}

	usages := map[string][]model.UsageOccurrence{
		"def:alpha": {
			{DefinitionID: "def:alpha", LocationRef: "a.md:3",
				Snippet: "The alpha particle rises through the letter of the alphabet."},
			{DefinitionID: "def:alpha", LocationRef: "a.md:9",
				Snippet: "However, alpha is used loosely here for any first attempt."},
		},
	}
	return defs, usages
}

func newTestOrchestrator(t *testing.T, workers int, stateDir string) *Orchestrator {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.Run.Workers = workers
	cfg.Run.PerSourceCooldown = 0
	cfg.Run.StatePath = filepath.Join(stateDir, "state.json")
	cfg.Output.Dir = stateDir

	defs, usages := testDefinitions()
	idx := index.NewStaticIndex(defs, usages)

	stub := &stubSource{
		name: "stub", rank: 1, confidence: 0.95,
		content: map[string]string{"Alpha": "Alpha denotes the first of anything."},
	}
	catalog, err := source.NewCatalog([]source.Source{stub}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	orch, err := NewOrchestratorWith(cfg, idx, catalog, drift.NewHeuristic())
	if err != nil {
		t.Fatal(err)
	}
	return orch
}

func TestRun_EndToEnd(t *testing.T) {
	orch := newTestOrchestrator(t, 2, t.TempDir())

	summary, err := orch.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if summary.DefinitionsTotal != 3 {
		t.Errorf("total: %d", summary.DefinitionsTotal)
	}
	// alpha enriched, beta found nothing (partial), broken failed.
	if summary.Succeeded != 1 || summary.Partial != 1 || summary.Failed != 1 || summary.Skipped != 0 {
		t.Errorf("unexpected outcome counts: %+v", summary)
	}

	if summary.ProvenanceCount != 1 {
		t.Errorf("expected 1 provenance entry, got %d", summary.ProvenanceCount)
	}
	// Only the "however/loosely" usage drifts; the first is consistent.
	if summary.DriftCount != 1 {
		t.Errorf("expected 1 drift entry, got %d", summary.DriftCount)
	}

	entries := orch.Ledger().Provenance()
	if entries[0].DefinitionID != "def:alpha" || entries[0].SourceName != "stub" {
		t.Errorf("unexpected provenance: %+v", entries[0])
	}
	if entries[0].Confidence != 0.95 {
		t.Errorf("confidence should carry the source's nominal value: %v", entries[0].Confidence)
	}

	drifts := orch.Ledger().Drift()
	if drifts[0].LocationRef != "a.md:9" || drifts[0].Severity != model.SeverityMinorDrift {
		t.Errorf("unexpected drift: %+v", drifts[0])
	}

	// Every non-success definition appears in the issues list.
	if len(summary.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %+v", summary.Issues)
	}
	if summary.Issues[0].DefinitionID != "def:beta" || summary.Issues[1].DefinitionID != "def:broken" {
		t.Errorf("issues not sorted by definition ID: %+v", summary.Issues)
	}
	if summary.Issues[1].Outcome != model.OutcomeFailed {
		t.Errorf("empty statement should fail: %+v", summary.Issues[1])
	}

	if summary.ClassifierVersion == "" {
		t.Error("summary must record the classifier version")
	}
}

func TestRun_SecondRunSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()

	first := newTestOrchestrator(t, 2, dir)
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	second := newTestOrchestrator(t, 2, dir)
	summary, err := second.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Only alpha fully succeeded last run; beta's partial and broken's
	// failure are both retried.
	if summary.Skipped != 1 || summary.Partial != 1 || summary.Failed != 1 {
		t.Errorf("expected 1 skipped / 1 partial / 1 failed, got %+v", summary)
	}
	if summary.ProvenanceCount != 0 {
		t.Errorf("skipped definitions must produce no new entries, got %d", summary.ProvenanceCount)
	}
}

func TestRun_PartialIsRetriedAfterSourceRecovers(t *testing.T) {
	dir := t.TempDir()

	runWith := func(content map[string]string) *model.RunSummary {
		t.Helper()

		cfg := model.DefaultConfig()
		cfg.Run.Workers = 1
		cfg.Run.PerSourceCooldown = 0
		cfg.Run.StatePath = filepath.Join(dir, "state.json")
		cfg.Output.Dir = dir

		defs := []model.Definition{{
			ID: "def:alpha", Name: "Alpha",
			CanonicalStatement: "Alpha is the first letter.",
			ContentHash:        model.ContentHashFor("Alpha is the first letter.", nil),
		}}
		idx := index.NewStaticIndex(defs, nil)

		stub := &stubSource{name: "stub", rank: 1, confidence: 0.95, content: content}
		catalog, err := source.NewCatalog([]source.Source{stub}, nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		orch, err := NewOrchestratorWith(cfg, idx, catalog, drift.NewHeuristic())
		if err != nil {
			t.Fatal(err)
		}
		summary, err := orch.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return summary
	}

	// The source has nothing: the definition completes only partially.
	first := runWith(nil)
	if first.Partial != 1 || first.ProvenanceCount != 0 {
		t.Fatalf("expected a partial run with no entries, got %+v", first)
	}

	// The source recovers: the unchanged definition must be consulted
	// again, not skipped on its stale hash.
	second := runWith(map[string]string{"Alpha": "Alpha denotes the first of anything."})
	if second.Skipped != 0 {
		t.Errorf("partial outcome must not advance the skip state, got %+v", second)
	}
	if second.Succeeded != 1 || second.ProvenanceCount != 1 {
		t.Errorf("recovered source should enrich the definition, got %+v", second)
	}
}

func TestRun_ForceReprocess(t *testing.T) {
	dir := t.TempDir()

	first := newTestOrchestrator(t, 2, dir)
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	second := newTestOrchestrator(t, 2, dir)
	second.cfg.Run.ForceReprocess = true
	summary, err := second.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 0 {
		t.Errorf("force should disable the skip mechanism, got %d skipped", summary.Skipped)
	}
	if summary.Succeeded != 1 {
		t.Errorf("expected alpha to be reprocessed, got %+v", summary)
	}
}

func TestRun_WorkerCountDoesNotChangeResults(t *testing.T) {
	one := newTestOrchestrator(t, 1, t.TempDir())
	eight := newTestOrchestrator(t, 8, t.TempDir())

	sumOne, err := one.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	sumEight, err := eight.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if sumOne.Succeeded != sumEight.Succeeded ||
		sumOne.Partial != sumEight.Partial ||
		sumOne.Failed != sumEight.Failed ||
		sumOne.ProvenanceCount != sumEight.ProvenanceCount ||
		sumOne.DriftCount != sumEight.DriftCount {
		t.Errorf("1-worker and 8-worker runs disagree:\n%+v\n%+v", sumOne, sumEight)
	}

	provOne := one.Ledger().Provenance()
	provEight := eight.Ledger().Provenance()
	if len(provOne) != len(provEight) {
		t.Fatalf("provenance lengths differ: %d vs %d", len(provOne), len(provEight))
	}
	for i := range provOne {
		if provOne[i].DefinitionID != provEight[i].DefinitionID ||
			provOne[i].ContentHash != provEight[i].ContentHash {
			t.Errorf("entry %d differs: %+v vs %+v", i, provOne[i], provEight[i])
		}
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	orch := newTestOrchestrator(t, 2, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := orch.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Every definition still gets exactly one outcome.
	total := summary.Succeeded + summary.Partial + summary.Failed + summary.Skipped
	if total != summary.DefinitionsTotal {
		t.Errorf("outcomes (%d) do not cover all definitions (%d)", total, summary.DefinitionsTotal)
	}
	if summary.Failed != summary.DefinitionsTotal {
		t.Errorf("cancelled run should fail all unprocessed definitions, got %+v", summary)
	}
	if len(summary.Issues) != summary.DefinitionsTotal {
		t.Errorf("every failure needs an issue entry, got %d", len(summary.Issues))
	}
}

func TestRun_RejectsLowConfidenceCandidate(t *testing.T) {
	dir := t.TempDir()
	cfg := model.DefaultConfig()
	cfg.Run.Workers = 1
	cfg.Run.PerSourceCooldown = 0
	cfg.Run.StatePath = filepath.Join(dir, "state.json")
	cfg.Output.Dir = dir

	defs := []model.Definition{{
		ID: "def:alpha", Name: "Alpha",
		CanonicalStatement: "Alpha is the first letter.",
		ContentHash:        model.ContentHashFor("Alpha is the first letter.", nil),
	}}
	idx := index.NewStaticIndex(defs, nil)

	weak := &stubSource{name: "weak", rank: 1, confidence: 0.50,
		content: map[string]string{"Alpha": "Low-trust text."}}
	catalog, err := source.NewCatalog([]source.Source{weak}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	orch, err := NewOrchestratorWith(cfg, idx, catalog, drift.NewHeuristic())
	if err != nil {
		t.Fatal(err)
	}

	summary, err := orch.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Partial != 1 || summary.ProvenanceCount != 0 {
		t.Errorf("rejected candidate should leave no entry and a partial outcome: %+v", summary)
	}
	if len(summary.Issues) != 1 || summary.Issues[0].Reason == "" {
		t.Errorf("rejection must be explained in issues: %+v", summary.Issues)
	}
}

func TestRun_ReEnrichmentSupersedesPriorEntry(t *testing.T) {
	dir := t.TempDir()

	runWith := func(text string, force bool) *Orchestrator {
		t.Helper()

		cfg := model.DefaultConfig()
		cfg.Run.Workers = 1
		cfg.Run.PerSourceCooldown = 0
		cfg.Run.ForceReprocess = force
		cfg.Run.StatePath = filepath.Join(dir, "state.json")
		cfg.Output.Dir = dir

		defs := []model.Definition{{
			ID: "def:alpha", Name: "Alpha",
			CanonicalStatement: "Alpha is the first letter.",
			ContentHash:        model.ContentHashFor("Alpha is the first letter.", nil),
		}}
		idx := index.NewStaticIndex(defs, nil)

		stub := &stubSource{name: "stub", rank: 1, confidence: 0.95,
			content: map[string]string{"Alpha": text}}
		catalog, err := source.NewCatalog([]source.Source{stub}, nil, 0)
		if err != nil {
			t.Fatal(err)
		}

		orch, err := NewOrchestratorWith(cfg, idx, catalog, drift.NewHeuristic())
		if err != nil {
			t.Fatal(err)
		}
		summary, err := orch.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if err := NewRenderer(false).WriteReports(dir, summary, orch.Ledger()); err != nil {
			t.Fatal(err)
		}
		return orch
	}

	runWith("Alpha denotes the first of anything.", false)

	// The source revised its text; the old entry stays but is flagged.
	second := runWith("Alpha now denotes the best of anything.", true)

	entries := second.Ledger().Provenance()
	if len(entries) != 2 {
		t.Fatalf("expected old and replacement entries, got %d", len(entries))
	}
	var active, superseded int
	for _, e := range entries {
		if e.Superseded {
			superseded++
		} else {
			active++
		}
	}
	if active != 1 || superseded != 1 {
		t.Errorf("expected exactly one active and one superseded entry: %+v", entries)
	}

	got, ok := second.Ledger().ActiveEntry("def:alpha")
	if !ok {
		t.Fatal("no active entry after re-enrichment")
	}
	if got.Superseded {
		t.Errorf("active entry must not carry the superseded flag: %+v", got)
	}

	// Same content again: the dedupe absorbs it, nothing new is recorded.
	third := runWith("Alpha now denotes the best of anything.", true)
	if prov, _ := third.Ledger().Counts(); prov != 2 {
		t.Errorf("unchanged content must not grow the log, got %d entries", prov)
	}
}

func TestRun_DriftLogSurvivesSkippedRuns(t *testing.T) {
	dir := t.TempDir()

	runWith := func(usages map[string][]model.UsageOccurrence, force bool) *Orchestrator {
		t.Helper()

		cfg := model.DefaultConfig()
		cfg.Run.Workers = 1
		cfg.Run.PerSourceCooldown = 0
		cfg.Run.ForceReprocess = force
		cfg.Run.StatePath = filepath.Join(dir, "state.json")
		cfg.Output.Dir = dir

		defs := []model.Definition{{
			ID: "def:alpha", Name: "Alpha",
			CanonicalStatement: "Alpha is the first letter.",
			ContentHash:        model.ContentHashFor("Alpha is the first letter.", nil),
		}}
		idx := index.NewStaticIndex(defs, usages)

		stub := &stubSource{name: "stub", rank: 1, confidence: 0.95,
			content: map[string]string{"Alpha": "Alpha denotes the first of anything."}}
		catalog, err := source.NewCatalog([]source.Source{stub}, nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		orch, err := NewOrchestratorWith(cfg, idx, catalog, drift.NewHeuristic())
		if err != nil {
			t.Fatal(err)
		}
		summary, err := orch.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if err := NewRenderer(false).WriteReports(dir, summary, orch.Ledger()); err != nil {
			t.Fatal(err)
		}
		return orch
	}

	drifting := map[string][]model.UsageOccurrence{
		"def:alpha": {{DefinitionID: "def:alpha", LocationRef: "a.md:9",
			Snippet: "However, alpha is used loosely here for any first attempt."}},
	}

	first := runWith(drifting, false)
	if len(first.Ledger().Drift()) != 1 {
		t.Fatalf("expected 1 drift entry after the first run, got %d", len(first.Ledger().Drift()))
	}

	// Nothing changed: the definition is skipped, but the recorded drift
	// must survive the rewrite of drift.json.
	second := runWith(drifting, false)
	drifts := second.Ledger().Drift()
	if len(drifts) != 1 || drifts[0].LocationRef != "a.md:9" {
		t.Fatalf("skipped run must keep the prior drift record, got %+v", drifts)
	}

	var onDisk []model.DriftEntry
	data, err := os.ReadFile(filepath.Join(dir, "drift.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatal(err)
	}
	if len(onDisk) != 1 {
		t.Errorf("drift.json lost the audit record across a skipped run: %+v", onDisk)
	}

	// The usage was fixed: re-classification replaces the old entries.
	consistent := map[string][]model.UsageOccurrence{
		"def:alpha": {{DefinitionID: "def:alpha", LocationRef: "a.md:9",
			Snippet: "The alpha particle rises through the first letter of the alphabet."}},
	}
	third := runWith(consistent, true)
	if n := len(third.Ledger().Drift()); n != 0 {
		t.Errorf("re-classified definition must shed stale drift entries, got %d", n)
	}
}

func TestRun_DefinitionSubset(t *testing.T) {
	orch := newTestOrchestrator(t, 2, t.TempDir())
	orch.cfg.Run.Definitions = []string{"def:alpha"}

	summary, err := orch.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.DefinitionsTotal != 1 {
		t.Errorf("expected only the requested definition, got %d", summary.DefinitionsTotal)
	}
	if summary.Succeeded != 1 || summary.ProvenanceCount != 1 {
		t.Errorf("subset run should enrich the named definition, got %+v", summary)
	}
}

func TestRun_DefinitionSubsetUnknownID(t *testing.T) {
	orch := newTestOrchestrator(t, 2, t.TempDir())
	orch.cfg.Run.Definitions = []string{"def:alpha", "def:nonexistent"}

	if _, err := orch.Run(context.Background()); err == nil {
		t.Fatal("expected an error for an unknown definition ID")
	}
}

func TestRun_SkippedRunReportsNoNewEntries(t *testing.T) {
	dir := t.TempDir()

	runOnce := func() (*Orchestrator, *model.RunSummary) {
		t.Helper()

		cfg := model.DefaultConfig()
		cfg.Run.Workers = 1
		cfg.Run.PerSourceCooldown = 0
		cfg.Run.StatePath = filepath.Join(dir, "state.json")
		cfg.Output.Dir = dir

		defs, usages := testDefinitions()
		idx := index.NewStaticIndex(defs[:1], usages)

		stub := &stubSource{name: "stub", rank: 1, confidence: 0.95,
			content: map[string]string{"Alpha": "Alpha denotes the first of anything."}}
		catalog, err := source.NewCatalog([]source.Source{stub}, nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		orch, err := NewOrchestratorWith(cfg, idx, catalog, drift.NewHeuristic())
		if err != nil {
			t.Fatal(err)
		}
		summary, err := orch.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if err := NewRenderer(false).WriteReports(dir, summary, orch.Ledger()); err != nil {
			t.Fatal(err)
		}
		return orch, summary
	}

	_, first := runOnce()
	if first.ProvenanceCount != 1 || first.DriftCount != 1 {
		t.Fatalf("expected 1 provenance and 1 drift entry from the first run, got %+v", first)
	}

	second, summary := runOnce()
	if summary.Skipped != 1 {
		t.Fatalf("expected the unchanged definition to be skipped, got %+v", summary)
	}
	// Restored history stays in the ledger but must not count as output
	// of a run that produced nothing.
	if summary.ProvenanceCount != 0 || summary.DriftCount != 0 {
		t.Errorf("skipped run must report zero new entries, got %+v", summary)
	}
	if prov, drifts := second.Ledger().Counts(); prov != 1 || drifts != 1 {
		t.Errorf("restored ledger should retain the audit trail, got %d/%d", prov, drifts)
	}
}
