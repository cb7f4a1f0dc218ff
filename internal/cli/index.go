package cli

import (
	"fmt"

	"github.com/lexitect/lexitect/internal/index"
	"github.com/spf13/cobra"
)

var inspectIndexPath string

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the corpus index snapshot",
	Long: `Index prints snapshot statistics: definition and usage counts, the
snapshot timestamp, and any definitions with an empty canonical statement.

Example:
  lexitect index --index definition_index.json`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVar(&inspectIndexPath, "index", "definition_index.json", "corpus index snapshot (JSON)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	idx, err := index.LoadSnapshot(inspectIndexPath)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	stats := idx.Stats()

	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Corpus Index")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Printf("  Path:         %s\n", inspectIndexPath)
	fmt.Printf("  Definitions:  %d\n", stats.Definitions)
	fmt.Printf("  Usages:       %d\n", stats.Usages)
	if !stats.GeneratedAt.IsZero() {
		fmt.Printf("  Indexed at:   %s\n", stats.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Println()

	defs, err := idx.ListDefinitions()
	if err != nil {
		return err
	}

	empty := 0
	for _, d := range defs {
		if d.CanonicalStatement == "" {
			empty++
			fmt.Printf("  ! %s has no canonical statement\n", d.ID)
		}
	}
	if empty > 0 {
		fmt.Printf("\n  %d definitions will fail enrichment until a statement is added\n\n", empty)
	}

	return nil
}
