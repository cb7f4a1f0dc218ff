package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lexitect/lexitect/internal/drift"
	"github.com/lexitect/lexitect/internal/index"
	"github.com/lexitect/lexitect/internal/model"
	"github.com/spf13/cobra"
)

var (
	driftIndexPath string
	driftBackendF  string
	driftProvider  string
	driftModel     string
	driftTimeout   time.Duration
)

// driftCmd represents the drift command
var driftCmd = &cobra.Command{
	Use:   "drift <definition-id>",
	Short: "Classify one definition's recorded usages for drift",
	Long: `Drift runs the classifier over every recorded usage of a single
definition and prints the verdicts, without fetching external content or
touching the ledger. Useful for inspecting why a usage was (or was not)
flagged during a run.

Example:
  lexitect drift def:entropy --index definition_index.json
  lexitect drift def:entropy --backend model --llm-provider ollama`,
	Args: cobra.ExactArgs(1),
	RunE: runDrift,
}

func init() {
	rootCmd.AddCommand(driftCmd)

	driftCmd.Flags().StringVar(&driftIndexPath, "index", "definition_index.json", "corpus index snapshot (JSON)")
	driftCmd.Flags().StringVar(&driftBackendF, "backend", "heuristic", "drift classifier backend (heuristic, model)")
	driftCmd.Flags().StringVar(&driftProvider, "llm-provider", "", "LLM provider for the model backend (openai, anthropic, ollama)")
	driftCmd.Flags().StringVar(&driftModel, "llm-model", "", "LLM model name")
	driftCmd.Flags().DurationVar(&driftTimeout, "timeout", 5*time.Minute, "total timeout")
}

func runDrift(cmd *cobra.Command, args []string) error {
	definitionID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), driftTimeout)
	defer cancel()

	idx, err := index.LoadSnapshot(driftIndexPath)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	def, err := idx.GetDefinition(definitionID)
	if err != nil {
		return err
	}

	llmCfg := model.DefaultConfig().LLM
	if driftProvider != "" {
		llmCfg.Provider = driftProvider
		llmCfg.Model = driftModel
		switch driftProvider {
		case "openai":
			llmCfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			llmCfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	classifier, err := drift.New(model.DriftConfig{Backend: driftBackendF, MaxSnippetChars: 500}, llmCfg)
	if err != nil {
		return err
	}

	usages, err := idx.ListUsageOccurrences(definitionID)
	if err != nil {
		return err
	}
	if len(usages) == 0 {
		fmt.Printf("No recorded usages for %s\n", definitionID)
		return nil
	}

	fmt.Printf("Definition: %s (%s)\n", def.Name, def.ID)
	fmt.Printf("Canonical:  %s\n", def.CanonicalStatement)
	fmt.Printf("Classifier: %s\n\n", classifier.Version())

	flagged := 0
	for _, u := range usages {
		severity, err := classifier.Classify(ctx, def.Name, def.CanonicalStatement, u.Snippet)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", u.LocationRef, err)
			continue
		}
		if severity == model.SeverityNone {
			fmt.Printf("  %s: consistent\n", u.LocationRef)
			continue
		}
		flagged++
		fmt.Printf("! %s: %s\n", u.LocationRef, severity)
	}

	fmt.Printf("\n%d of %d usages flagged\n", flagged, len(usages))
	return nil
}
