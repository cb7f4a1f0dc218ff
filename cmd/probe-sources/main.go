// Probe program to exercise every external source for a single term.
// Shows which source would win the priority fallback and what each one
// actually returns, without a corpus index or the confidence gate.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lexitect/lexitect/internal/source"
)

func main() {
	timeout := flag.Duration("timeout", 15*time.Second, "per-source fetch timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: probe-sources [--timeout 15s] <term>")
		os.Exit(2)
	}
	term := flag.Arg(0)

	fmt.Printf("=== Source Probe: %q ===\n\n", term)

	sources := source.DefaultSources(source.FetcherOptions{
		Timeout:   *timeout,
		UserAgent: "Lexitect/0.1 (+https://github.com/lexitect/lexitect)",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(sources))*(*timeout))
	defer cancel()

	winner := ""
	for _, s := range sources {
		fmt.Printf("[%d] %s (confidence %.2f)\n", s.Rank(), s.Name(), s.Confidence())
		fmt.Println(strings.Repeat("-", 60))

		content, err := s.Lookup(ctx, term)
		switch {
		case errors.Is(err, source.ErrNoContent):
			fmt.Println("  - no content")
		case err != nil:
			fmt.Printf("  ✗ error: %v\n", err)
		default:
			excerpt := content.Text
			if runes := []rune(excerpt); len(runes) > 200 {
				excerpt = string(runes[:200]) + "..."
			}
			fmt.Printf("  ✓ %s\n", content.URL)
			fmt.Printf("    %s\n", excerpt)
			if winner == "" {
				winner = s.Name()
			}
		}
		fmt.Println()
	}

	if winner != "" {
		fmt.Printf("Priority fallback would accept: %s\n", winner)
	} else {
		fmt.Println("No source returned content for this term.")
	}
}
