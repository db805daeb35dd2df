// Package downloader fetches media URLs into a local content store.
// A bounded worker pool downloads one page's batch in parallel, applying
// per-category size limits and content-hash deduplication within a run.
package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grabtools/webgrab/internal/config"
	"github.com/grabtools/webgrab/internal/httpclient"
	"github.com/grabtools/webgrab/internal/urlutil"
)

// Downloader downloads media files with size gating and duplicate
// suppression. The content-hash set and the statistics are shared by every
// worker in a batch and guarded by mutexes.
type Downloader struct {
	cfg    *config.Config
	client *httpclient.Client

	hashMu sync.Mutex
	hashes map[string]struct{}

	statsMu sync.Mutex
	stats   Stats
}

// New creates a downloader on top of the shared transport.
func New(cfg *config.Config, client *httpclient.Client) *Downloader {
	return &Downloader{
		cfg:    cfg,
		client: client,
		hashes: make(map[string]struct{}),
	}
}

// DownloadBatch downloads a batch of media URLs into outputDir using a
// bounded worker pool. Submission is rate-limited by the configured
// inter-request delay; the call blocks until every task has completed.
// Results are keyed by the submitted URL and carry no ordering guarantee.
func (d *Downloader) DownloadBatch(ctx context.Context, urls []string, outputDir string) map[string]*Result {
	results := make(map[string]*Result, len(urls))
	if len(urls) == 0 {
		return results
	}

	slog.Info("Starting batch download", "files", len(urls), "workers", d.cfg.MaxWorkers)

	var mu sync.Mutex
	g := &errgroup.Group{}
	g.SetLimit(d.cfg.MaxWorkers)

	delay := d.cfg.RequestDelay()

	for i, rawURL := range urls {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}

		rawURL := rawURL
		g.Go(func() error {
			res := d.downloadFile(ctx, rawURL, outputDir)
			d.record(res)

			mu.Lock()
			results[rawURL] = res
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	d.logSummary()
	return results
}

// downloadFile downloads one media URL.
func (d *Downloader) downloadFile(ctx context.Context, rawURL, outputDir string) *Result {
	normalized := urlutil.Normalize(rawURL)
	if normalized == "" {
		return failedResult(rawURL, "invalid URL", config.CategoryOther)
	}

	ext := ExtensionFromURL(normalized)
	cat := d.cfg.CategoryForExtension(ext)

	if !d.cfg.CategoryEnabled(cat) {
		return skippedResult(normalized, fmt.Sprintf("content category %q not enabled", cat), cat)
	}

	dir := d.cfg.ContentPath(outputDir, cat)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return failedResult(normalized, fmt.Sprintf("failed to create output directory %s: %v", dir, err), cat)
	}

	limit := d.cfg.SizeLimit(cat)

	// Header-only size probe before any body transfer.
	if head, err := d.client.Head(ctx, normalized); err != nil {
		slog.Warn("Could not probe file size", "url", normalized, "error", err)
	} else if limit > 0 && head.ContentLength > limit {
		return skippedResult(normalized, fmt.Sprintf("file too large: %s (limit: %s)",
			FormatSize(head.ContentLength), FormatSize(limit)), cat)
	}

	resp, err := d.client.Stream(ctx, normalized)
	if err != nil {
		return failedResult(normalized, fmt.Sprintf("HTTP error: %v", err), cat)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return failedResult(normalized, fmt.Sprintf("unexpected status %d", resp.StatusCode), cat)
	}

	// Re-check against the authoritative response size if reported.
	if limit > 0 && resp.ContentLength > limit {
		return skippedResult(normalized, fmt.Sprintf("file too large: %s", FormatSize(resp.ContentLength)), cat)
	}

	filename := FilenameFromURL(normalized)
	base := SanitizeFilename(strings.TrimSuffix(filename, filepath.Ext(filename)))
	filePath := filepath.Join(dir, UniqueFilename(dir, base, ext))

	written, err := writeStream(filePath, resp.Body)
	if err != nil {
		return failedResult(normalized, fmt.Sprintf("write failed: %v", err), cat)
	}

	hash, err := FileHash(filePath)
	if err != nil {
		_ = os.Remove(filePath)
		return failedResult(normalized, fmt.Sprintf("hash failed: %v", err), cat)
	}

	// check-then-insert must be atomic or two workers racing on identical
	// content both keep a copy
	d.hashMu.Lock()
	_, duplicate := d.hashes[hash]
	if !duplicate {
		d.hashes[hash] = struct{}{}
	}
	d.hashMu.Unlock()

	if duplicate {
		_ = os.Remove(filePath)
		return skippedResult(normalized, "duplicate file (same content)", cat)
	}

	slog.Info("Downloaded file", "url", normalized, "path", filePath, "size", FormatSize(written))
	return successResult(normalized, filePath, written, cat)
}

// SaveText saves a page's extracted text under the text category directory.
// Unlike media downloads, text saves do not perform hash-based duplicate
// suppression.
func (d *Downloader) SaveText(pageURL, content, outputDir string) *Result {
	normalized := urlutil.Normalize(pageURL)

	if !d.cfg.DownloadText {
		res := skippedResult(normalized, "text content download not enabled", config.CategoryText)
		d.record(res)
		return res
	}

	if limit := d.cfg.SizeLimit(config.CategoryText); limit > 0 && int64(len(content)) > limit {
		res := skippedResult(normalized, fmt.Sprintf("text too large: %s (limit: %s)",
			FormatSize(int64(len(content))), FormatSize(limit)), config.CategoryText)
		d.record(res)
		return res
	}

	dir := d.cfg.ContentPath(outputDir, config.CategoryText)
	if err := os.MkdirAll(dir, 0755); err != nil {
		res := failedResult(normalized, fmt.Sprintf("failed to create output directory %s: %v", dir, err), config.CategoryText)
		d.record(res)
		return res
	}

	base := SanitizeFilename(FilenameFromURL(normalized))
	filePath := filepath.Join(dir, UniqueFilename(dir, base, ".txt"))

	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		res := failedResult(normalized, fmt.Sprintf("write failed: %v", err), config.CategoryText)
		d.record(res)
		return res
	}

	slog.Info("Saved text content", "url", normalized, "path", filePath)
	res := successResult(normalized, filePath, int64(len(content)), config.CategoryText)
	d.record(res)
	return res
}

// Stats returns a snapshot of the running counters.
func (d *Downloader) Stats() Stats {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	return d.stats
}

// record updates the counters for one completed result.
func (d *Downloader) record(res *Result) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()

	d.stats.Attempted++
	switch res.Outcome {
	case OutcomeSuccess:
		d.stats.Succeeded++
		d.stats.TotalBytes += res.Size
	case OutcomeFailed:
		d.stats.Failed++
	case OutcomeSkipped:
		d.stats.Skipped++
	}
}

// logSummary logs the running totals after a batch completes.
func (d *Downloader) logSummary() {
	stats := d.Stats()
	slog.Info("Download summary",
		"attempted", stats.Attempted,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"total_size", FormatSize(stats.TotalBytes))
}

// writeStream streams a response body to path, removing the partial file on
// error.
func writeStream(path string, body io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}

	return written, nil
}
