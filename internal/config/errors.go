package config

import "errors"

var (
	// ErrEmptyOutputDir is returned when no output directory is configured
	ErrEmptyOutputDir = errors.New("output_dir cannot be empty")
	// ErrInvalidWorkers is returned when max_workers is less than 1
	ErrInvalidWorkers = errors.New("max_workers must be at least 1")
	// ErrNegativeDelay is returned when the request delay is negative
	ErrNegativeDelay = errors.New("delay cannot be negative")
	// ErrNegativeDepth is returned when max_depth is negative
	ErrNegativeDepth = errors.New("max_depth cannot be negative")
	// ErrNegativeRetries is returned when max_retries is negative
	ErrNegativeRetries = errors.New("max_retries cannot be negative")
	// ErrNegativeRetryDelay is returned when retry_delay is negative
	ErrNegativeRetryDelay = errors.New("retry_delay cannot be negative")
)
