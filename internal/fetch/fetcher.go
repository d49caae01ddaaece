// Package fetch looks up page metadata for URL inputs before analysis.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/securo/internal/model"
	"github.com/ppiankov/securo/internal/util"
)

// ErrDisallowed is returned when robots.txt forbids fetching the page
var ErrDisallowed = errors.New("disallowed by robots.txt")

const maxRedirects = 3

// Fetcher fetches HTML pages and extracts their metadata
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker
	publicOnly bool
}

// NewFetcher creates a new Fetcher with the given configuration.
// A nil robots checker skips robots.txt.
func NewFetcher(httpConfig model.HTTPConfig, maxBytes int64, robots *RobotsChecker) *Fetcher {
	client := util.NewHTTPClient(httpConfig.Timeout, httpConfig.HTTPProxy, httpConfig.HTTPSProxy)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	return &Fetcher{
		httpClient: client,
		userAgent:  httpConfig.UserAgent,
		maxBytes:   maxBytes,
		robots:     robots,
	}
}

// PublicOnly makes f, and its robots checker, refuse loopback, private
// and link-local targets
func (f *Fetcher) PublicOnly() *Fetcher {
	f.publicOnly = true
	restrictToPublic(f.httpClient)
	if f.robots != nil {
		restrictToPublic(f.robots.httpClient)
	}
	return f
}

// FromConfig builds the fetcher for cfg, or nil when enrichment is disabled.
// Internal addresses are refused unless enrich.allow_private is set.
func FromConfig(cfg *model.Config) *Fetcher {
	if !cfg.Enrich.Enabled {
		return nil
	}
	var robots *RobotsChecker
	if cfg.Enrich.RespectRobots {
		robots = NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy)
	}
	fetcher := NewFetcher(cfg.HTTP, cfg.Enrich.MaxBodyBytes, robots)
	if cfg.Enrich.AllowPrivate {
		return fetcher
	}
	return fetcher.PublicOnly()
}

// Page contains the metadata of a fetched page
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Title       string
	Description string
	FetchedAt   time.Time
}

// Fetch retrieves rawURL and extracts its title and description.
// Non-HTML responses return a Page without metadata.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target := NormalizeURL(rawURL)

	if f.publicOnly {
		if err := checkHost(target); err != nil {
			return nil, err
		}
	}

	if f.robots != nil && !f.robots.IsAllowed(ctx, target) {
		return nil, fmt.Errorf("%w: %s", ErrDisallowed, target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	page := &Page{
		URL:         target,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now(),
	}

	if !isHTML(page.ContentType) {
		return page, nil
	}

	// Read body with size limit
	meta, err := parseMeta(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	page.Title = meta.title
	page.Description = meta.description

	return page, nil
}

// NormalizeURL adds an https scheme to scheme-less input and drops any
// trailing words after the address.
func NormalizeURL(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	target := fields[0]
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	return target
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
