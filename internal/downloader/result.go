package downloader

import "github.com/grabtools/webgrab/internal/config"

// Outcome is the tri-state result of a download attempt. A skip is a policy
// decision (disabled category, size limit, duplicate content); a failure is
// an attempted operation that errored.
type Outcome int

// Download outcomes.
const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
	OutcomeSkipped
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result describes one attempted media URL or text save.
type Result struct {
	URL        string          // Normalized URL that was attempted
	Outcome    Outcome         // success, failed or skipped
	Path       string          // Written file path, set on success
	Error      string          // Error message, set on failure
	SkipReason string          // Reason, set on skip
	Size       int64           // Bytes written, set on success
	Category   config.Category // Content category of the URL
}

func successResult(url, path string, size int64, cat config.Category) *Result {
	return &Result{URL: url, Outcome: OutcomeSuccess, Path: path, Size: size, Category: cat}
}

func failedResult(url, errMsg string, cat config.Category) *Result {
	return &Result{URL: url, Outcome: OutcomeFailed, Error: errMsg, Category: cat}
}

func skippedResult(url, reason string, cat config.Category) *Result {
	return &Result{URL: url, Outcome: OutcomeSkipped, SkipReason: reason, Category: cat}
}

// Stats holds running download counters for one downloader's lifetime.
type Stats struct {
	Attempted  int
	Succeeded  int
	Failed     int
	Skipped    int
	TotalBytes int64
}
