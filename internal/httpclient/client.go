// Package httpclient provides the HTTP transport shared by the page fetcher
// and the downloader. It applies the User-Agent, a fixed per-request timeout,
// and automatic retries on transient failures: response codes 429, 500, 502,
// 503 and 504 (and network errors) are retried up to the configured attempt
// count with multiplicative backoff between attempts.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// retryableStatus is the set of response codes treated as transient.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client wraps http.Client with webgrab's retry policy.
type Client struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	backoff    time.Duration
}

// Response contains a buffered HTTP response.
type Response struct {
	StatusCode    int
	Headers       http.Header
	Body          []byte
	ContentType   string
	ContentLength int64
	FinalURL      string // After following redirects
}

// New creates a new HTTP client. maxRetries is the number of additional
// attempts after the first; backoff is the initial delay between attempts and
// doubles after every failure.
func New(userAgent string, timeout time.Duration, maxRetries int, backoff time.Duration) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &Client{
		client:     client,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Get performs a GET request and buffers the full response body.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode:    resp.StatusCode,
		Headers:       resp.Header,
		Body:          body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		FinalURL:      resp.Request.URL.String(),
	}, nil
}

// Head performs a HEAD request, used as a lightweight size probe before
// transferring a body.
func (c *Client) Head(ctx context.Context, url string) (*Response, error) {
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return &Response{
		StatusCode:    resp.StatusCode,
		Headers:       resp.Header,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		FinalURL:      resp.Request.URL.String(),
	}, nil
}

// Stream performs a GET request and returns the raw response with an open
// body. The caller owns the body and must close it.
func (c *Client) Stream(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, url)
}

// do runs one request through the retry loop. Responses with a non-retryable
// status are returned as-is; status interpretation is the caller's concern.
func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	var lastErr error
	wait := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("Retrying request", "method", method, "url", url, "attempt", attempt, "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			wait *= 2
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "*/*")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if retryableStatus[resp.StatusCode] && attempt < c.maxRetries {
			lastErr = fmt.Errorf("transient status %d", resp.StatusCode)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// Close closes idle connections held by the client.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
