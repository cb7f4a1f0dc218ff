package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lexitect/lexitect/internal/index"
	"github.com/lexitect/lexitect/internal/model"
	"github.com/lexitect/lexitect/internal/run"
	"github.com/spf13/cobra"
)

var (
	indexPath    string
	outputDir    string
	workers      int
	minConf      float64
	force        bool
	definitions  string
	sourceOrder  string
	cooldown     time.Duration
	runTimeout   time.Duration
	fetchTimeout time.Duration
	userAgent    string
	maxBytes     int64
	noCache      bool
	cacheDir     string
	httpProxy    string
	httpsProxy   string
	noFooter     bool
	driftBackend string
	llmProvider  string
	llmModel     string
	statePath    string
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich all definitions in the corpus index and scan for drift",
	Long: `Enrich processes every definition in the corpus index:
- Fetch an external summary, trying sources strictly in priority order
- Promote candidates that clear the confidence threshold into the ledger
- Classify every recorded usage of the term for drift
- Write provenance, drift, and summary reports

Definitions whose content hash is unchanged since the last completed run
are skipped unless --force is given.

Example:
  lexitect enrich --index definition_index.json
  lexitect enrich --workers 8 --min-confidence 0.95 --output-dir ./reports
  lexitect enrich --source-order "Wikipedia,arXiv" --cooldown 2s
  lexitect enrich --definitions "def:entropy,def:enthalpy" --force
  lexitect enrich --drift-backend model --llm-provider openai`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	// Input/output flags
	enrichCmd.Flags().StringVar(&indexPath, "index", "definition_index.json", "corpus index snapshot (JSON)")
	enrichCmd.Flags().StringVar(&outputDir, "output-dir", "./lexitect-reports", "output directory for reports")
	enrichCmd.Flags().StringVar(&statePath, "state", "", "state file for the skip mechanism (default: <output-dir>/state.json)")
	enrichCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Run flags
	enrichCmd.Flags().IntVar(&workers, "workers", 4, "number of concurrent workers")
	enrichCmd.Flags().Float64Var(&minConf, "min-confidence", 0.90, "confidence threshold for accepting external content")
	enrichCmd.Flags().BoolVar(&force, "force", false, "reprocess definitions even when unchanged")
	enrichCmd.Flags().StringVar(&definitions, "definitions", "", "comma-separated definition IDs to process (default: all)")
	enrichCmd.Flags().StringVar(&sourceOrder, "source-order", "", "comma-separated source names overriding the default priority order")
	enrichCmd.Flags().DurationVar(&cooldown, "cooldown", time.Second, "minimum delay between successive calls to the same source")
	enrichCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "total timeout for the run")

	// HTTP flags
	enrichCmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 15*time.Second, "timeout for individual source fetches")
	enrichCmd.Flags().StringVar(&userAgent, "ua", "Lexitect/0.1 (+https://github.com/lexitect/lexitect)", "HTTP User-Agent")
	enrichCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	enrichCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	enrichCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for the persistent fetch cache (empty: memory only)")
	enrichCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	enrichCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Drift flags
	enrichCmd.Flags().StringVar(&driftBackend, "drift-backend", "heuristic", "drift classifier backend (heuristic, model)")
	enrichCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for the model backend (openai, anthropic, ollama)")
	enrichCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	// Ctrl-C cancels the run; unfinished definitions are reconciled as
	// failed and reports are still written.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	idx, err := index.LoadSnapshot(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	stats := idx.Stats()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Lexitect Enrichment Run\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Index:        %s (%d definitions, %d usages)\n", cfg.Index.Path, stats.Definitions, stats.Usages)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Run.Workers)
	fmt.Fprintf(os.Stderr, "  Threshold:    %.2f\n", cfg.Run.MinConfidence)
	fmt.Fprintf(os.Stderr, "  Cooldown:     %v per source\n", cfg.Run.PerSourceCooldown)
	fmt.Fprintf(os.Stderr, "  Drift:        %s\n", cfg.Drift.Backend)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	orch, err := run.NewOrchestrator(cfg, idx)
	if err != nil {
		return err
	}

	summary, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	renderer := run.NewRenderer(cfg.Output.IncludeFooter)
	if err := renderer.WriteReports(cfg.Output.Dir, summary, orch.Ledger()); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	renderer.RenderSummary(summary, cfg.Output.Dir)

	if summary.Failed > 0 {
		return fmt.Errorf("%d definitions failed", summary.Failed)
	}
	return nil
}

// buildConfig assembles the run configuration from defaults plus flags,
// and pulls API keys from the environment.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Index.Path = indexPath
	cfg.Run.Workers = workers
	cfg.Run.MinConfidence = minConf
	cfg.Run.ForceReprocess = force
	cfg.Run.PerSourceCooldown = cooldown
	cfg.Run.StatePath = statePath
	cfg.HTTP.Timeout = fetchTimeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = cacheDir
	cfg.Drift.Backend = driftBackend
	cfg.Output.Dir = outputDir
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if sourceOrder != "" {
		for _, name := range strings.Split(sourceOrder, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.Run.SourceOrder = append(cfg.Run.SourceOrder, name)
			}
		}
	}

	if definitions != "" {
		for _, id := range strings.Split(definitions, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				cfg.Run.Definitions = append(cfg.Run.Definitions, id)
			}
		}
	}

	if cfg.Run.MinConfidence < 0 || cfg.Run.MinConfidence > 1 {
		return nil, fmt.Errorf("min-confidence must be between 0 and 1, got %v", cfg.Run.MinConfidence)
	}

	if driftBackend == "model" || llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		// Get API key from environment
		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			baseURL := os.Getenv("OLLAMA_BASE_URL")
			if baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		case "":
			return nil, fmt.Errorf("drift backend %q requires --llm-provider", driftBackend)
		}
	}

	return cfg, nil
}
