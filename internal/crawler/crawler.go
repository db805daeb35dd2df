// Package crawler implements the breadth-first crawl-and-download pipeline.
// A single-threaded frontier drives page fetching, content extraction and
// media download batches; concurrency is confined to the downloader's worker
// pool, so the visited set and robots cache never cross goroutines.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/grabtools/webgrab/internal/config"
	"github.com/grabtools/webgrab/internal/downloader"
	"github.com/grabtools/webgrab/internal/httpclient"
	"github.com/grabtools/webgrab/internal/parser"
	"github.com/grabtools/webgrab/internal/urlutil"
)

const requestTimeout = 30 * time.Second

// Scraper owns one crawl's frontier and visited set. State is scoped to a
// single run; create a fresh Scraper per root URL.
type Scraper struct {
	cfg        *config.Config
	client     *httpclient.Client
	fetcher    *PageFetcher
	robots     *RobotsPolicy
	downloader *downloader.Downloader

	visited  map[string]struct{}
	recorder RunRecorder
	onPage   func(PageProgress)
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithRecorder sets a recorder that persists the run report when the crawl
// completes.
func WithRecorder(r RunRecorder) Option {
	return func(s *Scraper) {
		s.recorder = r
	}
}

// WithProgress sets a callback invoked after every completed page.
func WithProgress(fn func(PageProgress)) Option {
	return func(s *Scraper) {
		s.onPage = fn
	}
}

// New creates a scraper with the provided configuration. The configuration
// must already be validated.
func New(cfg *config.Config, opts ...Option) *Scraper {
	client := httpclient.New(cfg.UserAgent, requestTimeout, cfg.MaxRetries, cfg.RetryBackoff())
	robots := NewRobotsPolicy(client, cfg.UserAgent, cfg.RespectRobotsTxt)
	limiter := NewRateLimiter(cfg.RequestDelay())

	s := &Scraper{
		cfg:        cfg,
		client:     client,
		robots:     robots,
		fetcher:    NewPageFetcher(client, robots, limiter),
		downloader: downloader.New(cfg, client),
		visited:    make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the scraper's network resources.
func (s *Scraper) Close() {
	s.client.Close()
}

// ScrapeAndDownload crawls breadth-first from rootURL up to the configured
// depth, downloading qualifying media and text along the way. Individual page
// failures never abort the run.
func (s *Scraper) ScrapeAndDownload(ctx context.Context, rootURL string) (*RunResult, error) {
	root := urlutil.Normalize(rootURL)
	if !urlutil.IsValid(root) {
		return nil, fmt.Errorf("invalid root URL: %q", rootURL)
	}

	baseDomain := urlutil.Domain(root)
	outputDir := s.cfg.OutputPath(baseDomain)

	result := &RunResult{
		ID:        uuid.NewString(),
		RootURL:   root,
		StartedAt: time.Now().UTC(),
		Scrapes:   make(map[string]*ScrapeResult),
		Downloads: make(map[string]*downloader.Result),
	}

	slog.Info("Starting scrape", "run_id", result.ID, "url", root, "max_depth", s.cfg.MaxDepth)

	queue := []Task{{URL: root, Depth: 0}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			slog.Info("Scrape cancelled", "run_id", result.ID)
			break
		}

		task := queue[0]
		queue = queue[1:]

		// The same URL may have been enqueued from multiple parents.
		if _, seen := s.visited[task.URL]; seen {
			continue
		}
		s.visited[task.URL] = struct{}{}

		scrape := s.scrapePage(ctx, task.URL)
		result.Scrapes[task.URL] = scrape
		result.Stats.URLsScraped++

		if !scrape.Success {
			result.Stats.Failures++
			slog.Warn("Failed to scrape page", "url", task.URL, "error", scrape.Error)
			s.reportProgress(result.ID, task, scrape)
			continue
		}
		result.Stats.Successes++

		if s.cfg.DownloadText && scrape.Text != "" {
			result.Downloads[task.URL+"_text"] = s.downloader.SaveText(task.URL, scrape.Text, outputDir)
		}

		media := append(append([]string{}, scrape.Media.Images...), scrape.Media.Videos...)
		result.Stats.MediaFound += len(media)

		if len(media) > 0 {
			slog.Info("Found media on page", "url", task.URL, "count", len(media))
			for u, res := range s.downloader.DownloadBatch(ctx, media, outputDir) {
				result.Downloads[u] = res
			}
		}

		// Depth gating is against the parent: the deepest pages processed
		// sit exactly at the configured maximum.
		if task.Depth < s.cfg.MaxDepth {
			for _, link := range scrape.Links {
				if _, seen := s.visited[link]; seen {
					continue
				}
				if !s.cfg.FollowExternalLinks && urlutil.IsExternal(link, baseDomain) {
					continue
				}
				queue = append(queue, Task{URL: link, Depth: task.Depth + 1})
			}
		}

		s.reportProgress(result.ID, task, scrape)
	}

	result.Stats.Downloads = s.downloader.Stats()
	result.FinishedAt = time.Now().UTC()

	s.logRunSummary(result)
	s.recordRun(result)

	return result, nil
}

// scrapePage fetches one page and extracts its text, media and links.
func (s *Scraper) scrapePage(ctx context.Context, pageURL string) *ScrapeResult {
	result := &ScrapeResult{URL: pageURL}

	doc, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	extractor, err := parser.NewExtractor(pageURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	// Text extraction strips script/style nodes, so it runs first.
	result.Text = extractor.Text(doc)
	result.Media = extractor.MediaURLs(doc, s.cfg.DownloadImages, s.cfg.DownloadVideos)
	result.Links = extractor.Links(doc)
	result.Success = true

	return result
}

// reportProgress invokes the per-page callback if one is registered.
func (s *Scraper) reportProgress(runID string, task Task, scrape *ScrapeResult) {
	if s.onPage == nil {
		return
	}
	s.onPage(PageProgress{
		RunID:      runID,
		URL:        task.URL,
		Depth:      task.Depth,
		Success:    scrape.Success,
		MediaFound: len(scrape.Media.Images) + len(scrape.Media.Videos),
	})
}

// recordRun hands the completed report to the recorder, if any. Recording
// failures are logged, never fatal.
func (s *Scraper) recordRun(result *RunResult) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordRun(result); err != nil {
		slog.Error("Failed to record run", "run_id", result.ID, "error", err)
	}
}

// logRunSummary logs the final counters of one run.
func (s *Scraper) logRunSummary(result *RunResult) {
	slog.Info("Scraping completed",
		"run_id", result.ID,
		"urls_scraped", result.Stats.URLsScraped,
		"successful", result.Stats.Successes,
		"failed", result.Stats.Failures,
		"media_found", result.Stats.MediaFound,
		"downloaded", result.Stats.Downloads.Succeeded,
		"download_failures", result.Stats.Downloads.Failed,
		"skipped", result.Stats.Downloads.Skipped,
		"duration", result.FinishedAt.Sub(result.StartedAt))
}

// ScrapeMultiple runs an independent crawl per root URL and sums the per-run
// statistics. Each root gets a fresh scraper, so visited sets and robots
// caches are never shared between roots.
func ScrapeMultiple(ctx context.Context, cfg *config.Config, urls []string, opts ...Option) *CombinedResult {
	combined := &CombinedResult{
		Runs:  make(map[string]*RunResult, len(urls)),
		Stats: CombinedStats{TotalURLs: len(urls)},
	}

	for _, rootURL := range urls {
		slog.Info("Processing root URL", "url", rootURL)

		s := New(cfg, opts...)
		result, err := s.ScrapeAndDownload(ctx, rootURL)
		s.Close()

		if err != nil {
			slog.Error("Skipping root URL", "url", rootURL, "error", err)
			combined.Stats.Failures++
			continue
		}

		combined.Runs[rootURL] = result
		combined.Stats.Successes += result.Stats.Successes
		combined.Stats.Failures += result.Stats.Failures
		combined.Stats.MediaFound += result.Stats.MediaFound
		combined.Stats.Downloads += result.Stats.Downloads.Succeeded
	}

	slog.Info("Combined scraping completed",
		"total_urls", combined.Stats.TotalURLs,
		"successful", combined.Stats.Successes,
		"failed", combined.Stats.Failures,
		"media_found", combined.Stats.MediaFound,
		"downloads", combined.Stats.Downloads)

	return combined
}
