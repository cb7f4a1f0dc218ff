package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lexitect/lexitect/internal/cache"
)

// httpFetcher is the shared HTTP plumbing behind every concrete source:
// per-call timeout, redirect cap, robots.txt gate, bounded body reads, and
// an optional shared response cache keyed by URL.
type httpFetcher struct {
	client    *http.Client
	robots    *robotsChecker
	cache     cache.Cache
	cacheTTL  time.Duration
	userAgent string
	maxBytes  int64
}

// FetcherOptions configures the shared source fetcher.
type FetcherOptions struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Cache        cache.Cache // nil disables caching
	CacheTTL     time.Duration

	// Explicit proxy URLs. Empty values fall back to the standard
	// HTTP_PROXY/HTTPS_PROXY environment variables.
	HTTPProxy  string
	HTTPSProxy string
}

// proxyFunc builds the transport proxy selector from explicit options,
// falling back to the environment.
func proxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func newHTTPFetcher(opts FetcherOptions) *httpFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 2_000_000
	}
	return &httpFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc(opts.HTTPProxy, opts.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		robots:    newRobotsChecker(opts.UserAgent, opts.Timeout),
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBodyBytes,
	}
}

// get fetches a URL's body. A 404 or 410 maps to ErrNoContent so the
// caller falls through to the next source; other non-2xx statuses are
// transient failures.
func (f *httpFetcher) get(ctx context.Context, rawURL string, accept string) ([]byte, error) {
	if f.cache != nil {
		if body, found := f.cache.Get(cache.Key("page", rawURL)); found {
			return body, nil
		}
	}

	if !f.robots.allowed(ctx, rawURL) {
		return nil, ErrNoContent
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return nil, ErrNoContent
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.cache != nil {
		_ = f.cache.Set(cache.Key("page", rawURL), body, f.cacheTTL)
	}
	return body, nil
}
