// Package run orchestrates one enrichment run: it fans definitions out to
// a bounded worker pool, applies the fetch-with-fallback and confidence
// gate per definition, scans recorded usages for drift, and reconciles
// every definition to exactly one outcome even when the run is cancelled.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lexitect/lexitect/internal/cache"
	"github.com/lexitect/lexitect/internal/drift"
	"github.com/lexitect/lexitect/internal/gate"
	"github.com/lexitect/lexitect/internal/index"
	"github.com/lexitect/lexitect/internal/ledger"
	"github.com/lexitect/lexitect/internal/model"
	"github.com/lexitect/lexitect/internal/source"
	"github.com/lexitect/lexitect/internal/worker"
)

// Orchestrator wires the run-scoped components together. One orchestrator
// serves one run; the catalog, gate, classifier, and ledger it holds are
// shared by all workers.
type Orchestrator struct {
	cfg        *model.Config
	idx        index.Index
	catalog    *source.Catalog
	gate       *gate.Gate
	classifier drift.Classifier
	ledger     *ledger.Ledger
	state      *HashState
}

// NewOrchestrator assembles an orchestrator from configuration and a
// loaded corpus index. Configuration errors (unknown source name, missing
// LLM provider for the model backend, unreadable state file) surface here,
// before any definition is dispatched.
func NewOrchestrator(cfg *model.Config, idx index.Index) (*Orchestrator, error) {
	var contentCache cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			contentCache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			contentCache = cache.NewMemoryCache(cfg.Cache.TTL)
		}
	}

	sources := source.DefaultSources(source.FetcherOptions{
		Timeout:      cfg.HTTP.Timeout,
		UserAgent:    cfg.HTTP.UserAgent,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		Cache:        contentCache,
		CacheTTL:     cfg.Cache.TTL,
		HTTPProxy:    cfg.HTTP.HTTPProxy,
		HTTPSProxy:   cfg.HTTP.HTTPSProxy,
	})

	catalog, err := source.NewCatalog(sources, cfg.Run.SourceOrder, cfg.Run.PerSourceCooldown)
	if err != nil {
		return nil, err
	}

	classifier, err := drift.New(cfg.Drift, cfg.LLM)
	if err != nil {
		return nil, err
	}

	return assemble(cfg, idx, catalog, classifier)
}

// NewOrchestratorWith assembles an orchestrator from pre-built components.
// Callers that already hold a catalog or classifier (or substitute their
// own) use this instead of NewOrchestrator.
func NewOrchestratorWith(cfg *model.Config, idx index.Index, catalog *source.Catalog, classifier drift.Classifier) (*Orchestrator, error) {
	return assemble(cfg, idx, catalog, classifier)
}

func assemble(cfg *model.Config, idx index.Index, catalog *source.Catalog, classifier drift.Classifier) (*Orchestrator, error) {
	state, err := LoadState(statePath(cfg))
	if err != nil {
		return nil, err
	}

	led, err := loadPriorLedger(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:        cfg,
		idx:        idx,
		catalog:    catalog,
		gate:       gate.New(cfg.Run.MinConfidence),
		classifier: classifier,
		ledger:     led,
		state:      state,
	}, nil
}

// filterDefinitions restricts a run to the requested definition IDs. An
// unknown ID is a configuration error and aborts before dispatch.
func filterDefinitions(defs []model.Definition, ids []string) ([]model.Definition, error) {
	if len(ids) == 0 {
		return defs, nil
	}

	byID := make(map[string]model.Definition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	out := make([]model.Definition, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		d, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("definition %q not found in the index", id)
		}
		out = append(out, d)
	}
	return out, nil
}

func statePath(cfg *model.Config) string {
	if cfg.Run.StatePath != "" {
		return cfg.Run.StatePath
	}
	return filepath.Join(cfg.Output.Dir, "state.json")
}

// loadPriorLedger seeds a ledger with the previous run's provenance and
// drift logs so the audit trail is cumulative: re-enrichment of a changed
// definition supersedes the old entry instead of recording a duplicate,
// and a skipped definition keeps its recorded drift. Missing logs start
// the ledger empty.
func loadPriorLedger(outputDir string) (*ledger.Ledger, error) {
	led := ledger.New()
	if outputDir == "" {
		return led, nil
	}

	var provenance []model.ProvenanceEntry
	if err := readJSONIfExists(filepath.Join(outputDir, "provenance.json"), &provenance); err != nil {
		return nil, err
	}
	led.Restore(provenance)

	var drifts []model.DriftEntry
	if err := readJSONIfExists(filepath.Join(outputDir, "drift.json"), &drifts); err != nil {
		return nil, err
	}
	led.RestoreDrift(drifts)

	return led, nil
}

func readJSONIfExists(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read prior log %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse prior log %s: %w", path, err)
	}
	return nil
}

// Ledger exposes the run's append-only record for report rendering.
func (o *Orchestrator) Ledger() *ledger.Ledger {
	return o.ledger
}

// Run processes every definition in the index and returns the aggregate
// summary. Cancelling ctx stops dispatch; definitions that never ran are
// reconciled to a failed outcome so the summary always accounts for the
// whole index.
func (o *Orchestrator) Run(ctx context.Context) (*model.RunSummary, error) {
	defs, err := o.idx.ListDefinitions()
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defs, err = filterDefinitions(defs, o.cfg.Run.Definitions)
	if err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	o.logf("⚙️  Processing %d definitions with %d workers...\n", len(defs), o.cfg.Run.Workers)

	pool := worker.NewPool(ctx, o.cfg.Run.Workers)
	pool.Start()

	for _, def := range defs {
		pool.Submit(&definitionJob{o: o, def: def})
	}

	results := pool.Wait()

	// Reconcile: every definition gets exactly one outcome. Jobs dropped
	// from the queue on cancellation never produced a result.
	byID := make(map[string]model.RunResult, len(results))
	for _, r := range results {
		jr := r.(*jobResult)
		byID[jr.res.DefinitionID] = jr.res
	}

	summary := &model.RunSummary{
		StartedAt:         started,
		DefinitionsTotal:  len(defs),
		ClassifierVersion: o.classifier.Version(),
	}

	stateDirty := false
	for _, def := range defs {
		res, ok := byID[def.ID]
		if !ok {
			res = model.RunResult{
				DefinitionID:  def.ID,
				Outcome:       model.OutcomeFailed,
				FailureReason: "cancelled before processing",
			}
		}

		summary.CountOutcome(res.Outcome)
		summary.ProvenanceCount += len(res.ProvenanceEntries)
		summary.DriftCount += len(res.DriftEntries)
		if res.Outcome != model.OutcomeSuccess {
			summary.Issues = append(summary.Issues, model.DefinitionIssue{
				DefinitionID: def.ID,
				Outcome:      res.Outcome,
				Reason:       res.FailureReason,
			})
		}

		// Only fully successful definitions advance the skip state. Partial
		// and failed ones are retried by the next run: a partial outcome
		// can mean every source was down, and skipping it would pin the
		// definition unenriched until its text changes.
		if res.Outcome == model.OutcomeSuccess {
			o.state.Set(def.ID, def.ContentHash)
			stateDirty = true
		}
	}

	sort.Slice(summary.Issues, func(i, j int) bool {
		return summary.Issues[i].DefinitionID < summary.Issues[j].DefinitionID
	})

	summary.ElapsedSeconds = time.Since(started).Seconds()
	if summary.ElapsedSeconds > 0 {
		summary.Throughput = float64(len(defs)) / summary.ElapsedSeconds
	}

	if stateDirty {
		if err := o.state.Save(); err != nil {
			return summary, fmt.Errorf("save state: %w", err)
		}
	}

	return summary, nil
}

// jobResult adapts a RunResult to the pool's Result interface.
type jobResult struct {
	res model.RunResult
}

func (r *jobResult) GetError() error {
	if r.res.Outcome == model.OutcomeFailed {
		return errors.New(r.res.FailureReason)
	}
	return nil
}

// definitionJob processes one definition end to end on one worker.
type definitionJob struct {
	o   *Orchestrator
	def model.Definition
}

func (j *definitionJob) Execute(ctx context.Context) worker.Result {
	return &jobResult{res: j.o.processDefinition(ctx, j.def)}
}

func (o *Orchestrator) processDefinition(ctx context.Context, def model.Definition) model.RunResult {
	res := model.RunResult{DefinitionID: def.ID}

	if ctx.Err() != nil {
		res.Outcome = model.OutcomeFailed
		res.FailureReason = "cancelled before processing"
		return res
	}

	if !o.cfg.Run.ForceReprocess {
		if prev, ok := o.state.Get(def.ID); ok && prev == def.ContentHash {
			res.Outcome = model.OutcomeSkipped
			res.FailureReason = "content hash unchanged since last successful run"
			o.logf("- %s: unchanged, skipped\n", def.ID)
			return res
		}
	}

	if strings.TrimSpace(def.CanonicalStatement) == "" {
		res.Outcome = model.OutcomeFailed
		res.FailureReason = "empty canonical statement"
		return res
	}

	var subFailures []string

	candidate, err := o.catalog.Lookup(ctx, def)
	switch {
	case err != nil && ctx.Err() != nil:
		res.Outcome = model.OutcomeFailed
		res.FailureReason = "cancelled during source lookup"
		return res
	case err != nil:
		subFailures = append(subFailures, fmt.Sprintf("source lookup: %v", err))
	case candidate == nil:
		subFailures = append(subFailures, "no source yielded content")
	case !o.gate.Accept(*candidate):
		subFailures = append(subFailures, fmt.Sprintf("candidate from %s below confidence threshold (%.2f < %.2f)",
			candidate.SourceName, candidate.Confidence, o.gate.Threshold()))
	default:
		entry := o.gate.Promote(def.ID, *candidate, model.SourceTypeExternal)
		prior, had := o.ledger.ActiveEntry(def.ID)
		var recorded bool
		if had && prior.ContentHash != entry.ContentHash {
			recorded = o.ledger.Supersede(prior, entry)
		} else {
			recorded = o.ledger.AppendProvenance(entry)
		}
		if recorded {
			res.ProvenanceEntries = append(res.ProvenanceEntries, entry)
		}
		o.logf("✓ %s: enriched from %s (confidence %.2f)\n", def.ID, candidate.SourceName, candidate.Confidence)
	}

	usages, err := o.idx.ListUsageOccurrences(def.ID)
	if err != nil {
		subFailures = append(subFailures, fmt.Sprintf("list usages: %v", err))
	}

	// This pass re-judges every usage, so the definition's drift entries
	// from prior runs are replaced rather than accumulated.
	o.ledger.DropDrift(def.ID)

	for _, u := range usages {
		if ctx.Err() != nil {
			res.Outcome = model.OutcomeFailed
			res.FailureReason = "cancelled during drift scan"
			return res
		}

		snippet := truncateRunes(u.Snippet, o.cfg.Drift.MaxSnippetChars)
		severity, cerr := o.classifier.Classify(ctx, def.Name, def.CanonicalStatement, snippet)
		if cerr != nil {
			if ctx.Err() != nil {
				res.Outcome = model.OutcomeFailed
				res.FailureReason = "cancelled during drift scan"
				return res
			}
			subFailures = append(subFailures, fmt.Sprintf("classify %s: %v", u.LocationRef, cerr))
			continue
		}
		if severity == model.SeverityNone {
			continue
		}

		entry := model.DriftEntry{
			DefinitionID:   def.ID,
			LocationRef:    u.LocationRef,
			SnippetExcerpt: snippet,
			Severity:       severity,
			DetectedAt:     time.Now().UTC(),
		}
		o.ledger.AppendDrift(entry)
		res.DriftEntries = append(res.DriftEntries, entry)
	}

	if len(subFailures) == 0 {
		res.Outcome = model.OutcomeSuccess
	} else {
		res.Outcome = model.OutcomePartial
		res.FailureReason = strings.Join(subFailures, "; ")
	}

	return res
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
