package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexitect/lexitect/internal/ledger"
	"github.com/lexitect/lexitect/internal/model"
)

// Renderer writes run output: machine-readable JSON logs plus a Markdown
// health report.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// WriteReports writes provenance.json, drift.json, summary.json, and
// report.md into dir.
func (r *Renderer) WriteReports(dir string, summary *model.RunSummary, led *ledger.Ledger) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "provenance.json"), led.Provenance()); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "drift.json"), led.Drift()); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "summary.json"), summary); err != nil {
		return err
	}

	md := r.renderMarkdown(summary, led)
	mdPath := filepath.Join(dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(md), 0644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) renderMarkdown(summary *model.RunSummary, led *ledger.Ledger) string {
	var b strings.Builder

	b.WriteString("# Definition Health Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", summary.StartedAt.Format(time.RFC3339))

	b.WriteString("## Run Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Definitions | %d |\n", summary.DefinitionsTotal)
	fmt.Fprintf(&b, "| Succeeded | %d |\n", summary.Succeeded)
	fmt.Fprintf(&b, "| Partial | %d |\n", summary.Partial)
	fmt.Fprintf(&b, "| Failed | %d |\n", summary.Failed)
	fmt.Fprintf(&b, "| Skipped | %d |\n", summary.Skipped)
	fmt.Fprintf(&b, "| New provenance entries | %d |\n", summary.ProvenanceCount)
	fmt.Fprintf(&b, "| New drift entries | %d |\n", summary.DriftCount)
	fmt.Fprintf(&b, "| Classifier | %s |\n", summary.ClassifierVersion)
	fmt.Fprintf(&b, "| Elapsed | %.1fs |\n\n", summary.ElapsedSeconds)

	drifts := led.Drift()
	if len(drifts) > 0 {
		b.WriteString("## Detected Drift\n\n")
		bySev := led.DriftBySeverity()
		for _, sev := range []model.Severity{model.SeverityContradiction, model.SeverityMinorDrift, model.SeverityCompatibleExpansion} {
			if n := bySev[sev]; n > 0 {
				fmt.Fprintf(&b, "- %s: %d\n", sev, n)
			}
		}
		b.WriteString("\n")
		b.WriteString("| Definition | Location | Severity | Excerpt |\n|---|---|---|---|\n")
		for _, d := range drifts {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				d.DefinitionID, d.LocationRef, d.Severity, mdCell(d.SnippetExcerpt, 80))
		}
		b.WriteString("\n")
	}

	entries := led.Provenance()
	if len(entries) > 0 {
		b.WriteString("## Accepted Enrichments\n\n")
		b.WriteString("| Definition | Source | Confidence | Superseded |\n|---|---|---|---|\n")
		for _, e := range entries {
			superseded := ""
			if e.Superseded {
				superseded = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s | %.2f | %s |\n", e.DefinitionID, e.SourceName, e.Confidence, superseded)
		}
		b.WriteString("\n")
	}

	if len(summary.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, iss := range summary.Issues {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", iss.DefinitionID, iss.Outcome, iss.Reason)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\nGenerated by [lexitect](https://github.com/lexitect/lexitect)\n")
	}

	return b.String()
}

// mdCell flattens a snippet into a single table cell.
func mdCell(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	runes := []rune(s)
	if len(runes) > max {
		s = string(runes[:max]) + "..."
	}
	return s
}

// RenderSummary prints the run summary box to stderr.
func (r *Renderer) RenderSummary(summary *model.RunSummary, outputDir string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Enrichment Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Definitions:  %d\n", summary.DefinitionsTotal)
	fmt.Fprintf(os.Stderr, "  Success:      %d\n", summary.Succeeded)
	fmt.Fprintf(os.Stderr, "  Partial:      %d\n", summary.Partial)
	fmt.Fprintf(os.Stderr, "  Failed:       %d\n", summary.Failed)
	fmt.Fprintf(os.Stderr, "  Skipped:      %d\n", summary.Skipped)
	fmt.Fprintf(os.Stderr, "  Provenance:   %d new entries\n", summary.ProvenanceCount)
	fmt.Fprintf(os.Stderr, "  Drift:        %d new entries\n", summary.DriftCount)
	fmt.Fprintf(os.Stderr, "  Throughput:   %.1f defs/sec\n", summary.Throughput)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")
}
