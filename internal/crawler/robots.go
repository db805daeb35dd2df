package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/grabtools/webgrab/internal/httpclient"
	"github.com/grabtools/webgrab/internal/urlutil"
)

// robotsEntry is the cached verdict for one domain. Entries are immutable for
// the life of the policy; there is no TTL or refresh.
type robotsEntry struct {
	allowed bool
	delay   time.Duration
}

// RobotsPolicy caches per-domain robots.txt verdicts and crawl-delay
// directives. The cache is not synchronized: the policy is confined to the
// crawl loop goroutine, which is the only reader and writer.
type RobotsPolicy struct {
	client    *httpclient.Client
	userAgent string
	enabled   bool
	cache     map[string]robotsEntry
}

// NewRobotsPolicy creates a robots.txt policy. When enabled is false every
// check allows the URL without any network access.
func NewRobotsPolicy(client *httpclient.Client, userAgent string, enabled bool) *RobotsPolicy {
	return &RobotsPolicy{
		client:    client,
		userAgent: userAgent,
		enabled:   enabled,
		cache:     make(map[string]robotsEntry),
	}
}

// Check reports whether the URL may be fetched and the crawl delay requested
// by its domain. The first URL checked for a domain decides the cached
// verdict for the remainder of the run. A robots.txt that cannot be retrieved
// or parsed is never fatal: the domain defaults to allowed with no delay.
func (r *RobotsPolicy) Check(ctx context.Context, rawURL string) (bool, time.Duration) {
	if !r.enabled {
		return true, 0
	}

	domain := urlutil.Domain(rawURL)
	if entry, ok := r.cache[domain]; ok {
		return entry.allowed, entry.delay
	}

	entry := r.lookup(ctx, rawURL, domain)
	r.cache[domain] = entry
	return entry.allowed, entry.delay
}

// lookup fetches and evaluates robots.txt for one domain.
func (r *RobotsPolicy) lookup(ctx context.Context, rawURL, domain string) robotsEntry {
	robotsURL := urlutil.RobotsURL(rawURL)
	if robotsURL == "" {
		return robotsEntry{allowed: true}
	}

	resp, err := r.client.Get(ctx, robotsURL)
	if err != nil {
		slog.Warn("Failed to fetch robots.txt, allowing crawl", "domain", domain, "error", err)
		return robotsEntry{allowed: true}
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		slog.Warn("Failed to parse robots.txt, allowing crawl", "domain", domain, "error", err)
		return robotsEntry{allowed: true}
	}

	group := data.FindGroup(r.userAgent)

	parsed, err := url.Parse(rawURL)
	path := "/"
	if err == nil && parsed.Path != "" {
		path = parsed.Path
	}

	return robotsEntry{
		allowed: group.Test(path),
		delay:   group.CrawlDelay,
	}
}
