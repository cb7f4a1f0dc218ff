package cli

import (
	"fmt"
	"os"

	"github.com/lexitect/lexitect/internal/index"
	"github.com/lexitect/lexitect/internal/scan"
	"github.com/spf13/cobra"
)

var scanOutPath string

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <corpus-dir>",
	Short: "Scan a corpus directory and write the index snapshot",
	Long: `Scan walks a directory of Markdown notes, extracts definition callout
blocks, records every sentence that mentions a defined term as a usage
occurrence, and writes the corpus index snapshot consumed by enrich.

A definition block looks like:

  > [!definition] Entropy (S)
  > aliases: thermodynamic entropy
  > A measure of the number of microscopic configurations
  > consistent with a macroscopic state.

Example:
  lexitect scan ./vault
  lexitect scan ./vault --out definition_index.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanOutPath, "out", "definition_index.json", "output path for the index snapshot")
}

func runScan(cmd *cobra.Command, args []string) error {
	dir := args[0]

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Scanning %s...\n", dir)
	}

	scanner := scan.NewScanner()
	result, err := scanner.Scan(dir)
	if err != nil {
		return fmt.Errorf("scan corpus: %w", err)
	}

	for _, name := range result.Duplicates {
		fmt.Fprintf(os.Stderr, "! duplicate definition %q ignored (first declaration wins)\n", name)
	}

	if err := index.WriteSnapshot(scanOutPath, result.Definitions, result.Usages); err != nil {
		return err
	}

	usageTotal := 0
	for _, list := range result.Usages {
		usageTotal += len(list)
	}

	fmt.Fprintf(os.Stderr, "✓ Scanned %d files\n", result.FilesScanned)
	fmt.Fprintf(os.Stderr, "✓ Found %d definitions, %d usages\n", len(result.Definitions), usageTotal)
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", scanOutPath)

	return nil
}
