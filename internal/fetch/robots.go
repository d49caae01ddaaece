package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ppiankov/securo/internal/util"
	"github.com/temoto/robotstxt"
)

// robotsTTL bounds how long a host's robots.txt is trusted
const robotsTTL = time.Hour

// RobotsChecker answers whether the enrichment fetcher may read a page.
// Parsed robots.txt files are kept per scheme and host for robotsTTL.
type RobotsChecker struct {
	rules      *gocache.Cache
	httpClient *http.Client
	agent      string
}

// NewRobotsChecker creates a checker that matches rules for userAgent's product token
func NewRobotsChecker(userAgent string, timeout time.Duration, httpProxy, httpsProxy string) *RobotsChecker {
	return &RobotsChecker{
		rules:      gocache.New(robotsTTL, 2*robotsTTL),
		httpClient: util.NewHTTPClient(timeout, httpProxy, httpsProxy),
		agent:      NormalizeUserAgent(userAgent),
	}
}

// IsAllowed reports whether rawURL may be fetched. An unreachable robots.txt allows.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" {
		return false
	}

	data := r.robots(ctx, target)
	if data == nil {
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return data.TestAgent(path, r.agent)
}

// robots returns the parsed robots.txt of target's origin, or nil when it could not be read
func (r *RobotsChecker) robots(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	origin := target.Scheme + "://" + target.Host
	if cached, ok := r.rules.Get(origin); ok {
		return cached.(*robotstxt.RobotsData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse maps 4xx to allow-all and 5xx to disallow-all
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}

	r.rules.SetDefault(origin, data)
	return data
}

// NormalizeUserAgent reduces "Securo/0.1 (+url)" to the product token "Securo"
func NormalizeUserAgent(ua string) string {
	product, _, _ := strings.Cut(strings.TrimSpace(ua), " ")
	product, _, _ = strings.Cut(product, "/")
	return product
}
