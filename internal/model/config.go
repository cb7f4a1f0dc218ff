package model

import "time"

// Config is the full runtime configuration, assembled from defaults, the
// config file, LEXITECT_* environment variables, and CLI flags.
type Config struct {
	Index  IndexConfig  `yaml:"index" json:"index"`
	Run    RunConfig    `yaml:"run" json:"run"`
	HTTP   HTTPConfig   `yaml:"http" json:"http"`
	Cache  CacheConfig  `yaml:"cache" json:"cache"`
	Drift  DriftConfig  `yaml:"drift" json:"drift"`
	LLM    LLMConfig    `yaml:"llm" json:"llm"`
	Output OutputConfig `yaml:"output" json:"output"`
}

// IndexConfig locates the corpus index snapshot.
type IndexConfig struct {
	Path string `yaml:"path" json:"path"` // JSON snapshot written by the corpus scanner
}

// RunConfig controls one enrichment run.
type RunConfig struct {
	Workers        int      `yaml:"workers" json:"workers"`
	MinConfidence  float64  `yaml:"min_confidence" json:"min_confidence"`
	ForceReprocess bool     `yaml:"force_reprocess" json:"force_reprocess"`
	SourceOrder    []string `yaml:"source_order,omitempty" json:"source_order,omitempty"` // Override of the default priority list

	// Definitions restricts the run to the listed definition IDs. Empty
	// means the whole index.
	Definitions []string `yaml:"definitions,omitempty" json:"definitions,omitempty"`

	// PerSourceCooldown is the minimum delay between successive calls to
	// the same source, shared across workers.
	PerSourceCooldown time.Duration `yaml:"per_source_cooldown" json:"per_source_cooldown"`

	// StatePath holds the definition-id -> content-hash map from prior
	// successful runs, used for the skip mechanism. Empty means
	// <output.dir>/state.json.
	StatePath string `yaml:"state_path,omitempty" json:"state_path,omitempty"`
}

// HTTPConfig controls outbound fetches to external sources.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"` // Per-fetch timeout
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`   // Overrides HTTP_PROXY
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"` // Overrides HTTPS_PROXY
}

// CacheConfig controls the fetched-content cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
	Dir     string        `yaml:"dir,omitempty" json:"dir,omitempty"` // Empty disables the disk layer
}

// DriftConfig selects and tunes the drift classifier backend.
type DriftConfig struct {
	// Backend is "heuristic" or "model".
	Backend string `yaml:"backend" json:"backend"`

	// MaxSnippetChars bounds the snippet text given to the classifier.
	MaxSnippetChars int `yaml:"max_snippet_chars" json:"max_snippet_chars"`
}

// LLMConfig configures the model-assisted comparator. The comparator is
// always run deterministically (temperature zero, fixed seed) and cached
// by content hash.
type LLMConfig struct {
	Provider  string `yaml:"provider,omitempty" json:"provider,omitempty"` // "openai", "ollama", or empty for disabled
	Model     string `yaml:"model,omitempty" json:"model,omitempty"`
	APIKey    string `yaml:"-" json:"-"` // From environment only, never persisted
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // Seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Dir           string `yaml:"dir" json:"dir"`
	Verbose       bool   `yaml:"verbose" json:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" json:"include_footer"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Path: "definition_index.json",
		},
		Run: RunConfig{
			Workers:           4,
			MinConfidence:     0.90,
			PerSourceCooldown: time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "Lexitect/0.1 (+https://github.com/lexitect/lexitect)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Drift: DriftConfig{
			Backend:         "heuristic",
			MaxSnippetChars: 500,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 200,
		},
		Output: OutputConfig{
			Dir:           "./lexitect-reports",
			IncludeFooter: true,
		},
	}
}
