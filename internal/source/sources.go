package source

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

// The fixed catalog order. Rank 1 is the most authoritative; Wikipedia is
// the rank-7 fallback.
const (
	NameStanford     = "Stanford Encyclopedia of Philosophy"
	NameArxiv        = "arXiv"
	NameIEP          = "Internet Encyclopedia of Philosophy"
	NamePhilPapers   = "PhilPapers"
	NameScholarpedia = "Scholarpedia"
	NameScholar      = "Google Scholar"
	NameWikipedia    = "Wikipedia"
)

// DefaultSources builds the full catalog in ascending rank order, sharing
// one fetcher (and therefore one response cache and robots cache).
func DefaultSources(opts FetcherOptions) []Source {
	f := newHTTPFetcher(opts)
	return []Source{
		&pageSource{
			name: NameStanford, rank: 1, confidence: 0.97, fetcher: f,
			urlFor: func(term string) string {
				return "https://plato.stanford.edu/entries/" + hyphenSlug(term) + "/"
			},
		},
		&arxivSource{rank: 2, confidence: 0.96, fetcher: f},
		&pageSource{
			name: NameIEP, rank: 3, confidence: 0.95, fetcher: f,
			urlFor: func(term string) string {
				return "https://iep.utm.edu/" + hyphenSlug(term) + "/"
			},
		},
		&pageSource{
			name: NamePhilPapers, rank: 4, confidence: 0.94, fetcher: f,
			urlFor: func(term string) string {
				return "https://philpapers.org/s/" + url.QueryEscape(term)
			},
		},
		&pageSource{
			name: NameScholarpedia, rank: 5, confidence: 0.93, fetcher: f,
			urlFor: func(term string) string {
				return "http://www.scholarpedia.org/article/" + underscoreTitle(term)
			},
		},
		&pageSource{
			name: NameScholar, rank: 6, confidence: 0.91, fetcher: f,
			urlFor: func(term string) string {
				return "https://scholar.google.com/scholar?q=" + url.QueryEscape(term)
			},
		},
		&wikipediaSource{rank: 7, confidence: 0.90, fetcher: f},
	}
}

// pageSource fetches one HTML page per query and keeps its first
// substantial paragraph. Covers the encyclopedia-style and search-style
// endpoints that share this shape.
type pageSource struct {
	name       string
	rank       int
	confidence float64
	fetcher    *httpFetcher
	urlFor     func(term string) string
}

func (s *pageSource) Name() string        { return s.name }
func (s *pageSource) Rank() int           { return s.rank }
func (s *pageSource) Confidence() float64 { return s.confidence }

func (s *pageSource) Lookup(ctx context.Context, term string) (*Content, error) {
	pageURL := s.urlFor(term)
	body, err := s.fetcher.get(ctx, pageURL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}

	text := firstParagraphText(body)
	if text == "" {
		return nil, ErrNoContent
	}
	return &Content{Text: text, URL: pageURL}, nil
}

// wikipediaSource uses the REST summary API rather than page scraping.
type wikipediaSource struct {
	rank       int
	confidence float64
	fetcher    *httpFetcher
}

type wikipediaSummary struct {
	Extract     string `json:"extract"`
	Type        string `json:"type"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (s *wikipediaSource) Name() string        { return NameWikipedia }
func (s *wikipediaSource) Rank() int           { return s.rank }
func (s *wikipediaSource) Confidence() float64 { return s.confidence }

func (s *wikipediaSource) Lookup(ctx context.Context, term string) (*Content, error) {
	apiURL := "https://en.wikipedia.org/api/rest_v1/page/summary/" + url.PathEscape(underscoreTitle(term))
	body, err := s.fetcher.get(ctx, apiURL, "application/json")
	if err != nil {
		return nil, err
	}

	var summary wikipediaSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("parse wikipedia summary: %w", err)
	}
	// Disambiguation pages describe many terms, none canonically
	if summary.Extract == "" || summary.Type == "disambiguation" {
		return nil, ErrNoContent
	}

	return &Content{
		Text: truncateRunes(collapseWhitespace(summary.Extract), maxExtractRunes),
		URL:  summary.ContentURLs.Desktop.Page,
	}, nil
}

// arxivSource queries the arXiv Atom export API and keeps the abstract of
// the first hit.
type arxivSource struct {
	rank       int
	confidence float64
	fetcher    *httpFetcher
}

type arxivFeed struct {
	Entries []struct {
		Title   string `xml:"title"`
		Summary string `xml:"summary"`
		ID      string `xml:"id"`
	} `xml:"entry"`
}

func (s *arxivSource) Name() string        { return NameArxiv }
func (s *arxivSource) Rank() int           { return s.rank }
func (s *arxivSource) Confidence() float64 { return s.confidence }

func (s *arxivSource) Lookup(ctx context.Context, term string) (*Content, error) {
	query := url.Values{
		"search_query": {fmt.Sprintf("all:%q", term)},
		"max_results":  {"1"},
	}
	apiURL := "http://export.arxiv.org/api/query?" + query.Encode()

	body, err := s.fetcher.get(ctx, apiURL, "application/atom+xml")
	if err != nil {
		return nil, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}
	if len(feed.Entries) == 0 {
		return nil, ErrNoContent
	}

	entry := feed.Entries[0]
	text := collapseWhitespace(entry.Summary)
	if text == "" {
		return nil, ErrNoContent
	}
	return &Content{Text: truncateRunes(text, maxExtractRunes), URL: entry.ID}, nil
}

// hyphenSlug converts a term to the lowercase-hyphen form SEP and IEP use
// for entry URLs.
func hyphenSlug(term string) string {
	slug := strings.ToLower(strings.TrimSpace(term))
	slug = strings.ReplaceAll(slug, " ", "-")
	return url.PathEscape(slug)
}

// underscoreTitle converts a term to the Title_With_Underscores form wiki
// engines use.
func underscoreTitle(term string) string {
	return strings.ReplaceAll(strings.TrimSpace(term), " ", "_")
}
