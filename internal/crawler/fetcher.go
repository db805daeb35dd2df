package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/grabtools/webgrab/internal/httpclient"
)

// ErrRobotsDisallowed is returned when robots.txt forbids fetching a page.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// PageFetcher retrieves one page at a time, honoring the robots policy and
// the courtesy delays before every request.
type PageFetcher struct {
	client  *httpclient.Client
	robots  *RobotsPolicy
	limiter *RateLimiter
}

// NewPageFetcher creates a page fetcher on top of the shared transport.
func NewPageFetcher(client *httpclient.Client, robots *RobotsPolicy, limiter *RateLimiter) *PageFetcher {
	return &PageFetcher{
		client:  client,
		robots:  robots,
		limiter: limiter,
	}
}

// Fetch retrieves and parses a page. Before the request it consults the
// robots policy, sleeps out any robots crawl-delay, then waits for the fixed
// inter-request delay; the two delays are additive. Transient HTTP failures
// are retried by the transport. Any unrecoverable error is returned; the
// caller records it and continues the crawl.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	allowed, robotsDelay := f.robots.Check(ctx, pageURL)
	if !allowed {
		slog.Info("Skipping URL due to robots.txt restrictions", "url", pageURL)
		return nil, ErrRobotsDisallowed
	}

	if robotsDelay > 0 {
		if err := sleep(ctx, robotsDelay); err != nil {
			return nil, err
		}
	}

	if err := f.limiter.Wait(ctx, pageURL); err != nil {
		return nil, err
	}

	slog.Info("Fetching page", "url", pageURL)

	resp, err := f.client.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}

	return doc, nil
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
