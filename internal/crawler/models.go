package crawler

import (
	"time"

	"github.com/grabtools/webgrab/internal/downloader"
	"github.com/grabtools/webgrab/internal/parser"
)

// Task is one pending frontier entry: a normalized URL and the depth it will
// be processed at.
type Task struct {
	URL   string
	Depth int
}

// ScrapeResult is the outcome of processing one dequeued task.
type ScrapeResult struct {
	URL     string       // Normalized page URL
	Success bool         // Whether fetch and extraction succeeded
	Text    string       // Cleaned visible text
	Media   parser.Media // Image and video references found on the page
	Links   []string     // Outbound links that passed filtering
	Error   string       // Failure description, set iff Success is false
}

// RunStats aggregates one run's crawl-level counters together with the
// downloader's statistics.
type RunStats struct {
	URLsScraped int              // Total tasks processed
	Successes   int              // Pages fetched and extracted
	Failures    int              // Pages that could not be processed
	MediaFound  int              // Media URLs discovered across all pages
	Downloads   downloader.Stats // Delegated download counters
}

// RunResult is the complete report of one ScrapeAndDownload run.
type RunResult struct {
	ID         string                         // Unique run identifier
	RootURL    string                         // Normalized root URL
	StartedAt  time.Time                      // Run start (UTC)
	FinishedAt time.Time                      // Run end (UTC)
	Scrapes    map[string]*ScrapeResult       // Per-URL scrape results
	Downloads  map[string]*downloader.Result  // Per-URL download results; text saves are keyed "<url>_text"
	Stats      RunStats
}

// CombinedStats sums statistics across the runs of a multi-URL scrape.
type CombinedStats struct {
	TotalURLs  int // Number of root URLs processed
	Successes  int
	Failures   int
	MediaFound int
	Downloads  int // Successful downloads across all runs
}

// CombinedResult is the report of a ScrapeMultiple invocation.
type CombinedResult struct {
	Runs  map[string]*RunResult // Keyed by the submitted root URL
	Stats CombinedStats
}

// PageProgress is delivered to the progress callback after each completed
// page.
type PageProgress struct {
	RunID      string
	URL        string
	Depth      int
	Success    bool
	MediaFound int
}

// RunRecorder persists completed run reports. Implementations live outside
// the core; a nil recorder disables persistence.
type RunRecorder interface {
	RecordRun(result *RunResult) error
}
