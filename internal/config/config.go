// Package config provides configuration management for webgrab.
// It defines the settings surface for crawling, downloading and output
// layout, together with validation and path-resolution helpers.
package config

import (
	"path/filepath"
	"strings"
	"time"
)

// Category is the coarse content classification derived from a file
// extension. It is independent of any HTTP-reported content type.
type Category string

// Content categories used for output layout and per-category policy.
const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryText  Category = "text"
	CategoryOther Category = "other"
)

// Config holds all webgrab settings.
type Config struct {
	// General settings
	OutputDir  string  `mapstructure:"output_dir" yaml:"output_dir"`   // Root directory for downloaded content
	UserAgent  string  `mapstructure:"user_agent" yaml:"user_agent"`   // HTTP User-Agent header
	MaxWorkers int     `mapstructure:"max_workers" yaml:"max_workers"` // Download worker pool size
	Delay      float64 `mapstructure:"delay" yaml:"delay"`             // Delay between requests in seconds

	// Content category switches
	DownloadImages bool `mapstructure:"download_images" yaml:"download_images"`
	DownloadVideos bool `mapstructure:"download_videos" yaml:"download_videos"`
	DownloadText   bool `mapstructure:"download_text" yaml:"download_text"`

	// Extension allow-lists (without leading dots)
	ImageExtensions []string `mapstructure:"image_extensions" yaml:"image_extensions"`
	VideoExtensions []string `mapstructure:"video_extensions" yaml:"video_extensions"`

	// Size limits in MB, 0 = unlimited
	MaxFileSizeMB  int `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
	MaxImageSizeMB int `mapstructure:"max_image_size_mb" yaml:"max_image_size_mb"`
	MaxVideoSizeMB int `mapstructure:"max_video_size_mb" yaml:"max_video_size_mb"`

	// Crawl settings
	MaxDepth            int  `mapstructure:"max_depth" yaml:"max_depth"`                         // Maximum link-following depth from the root
	FollowExternalLinks bool `mapstructure:"follow_external_links" yaml:"follow_external_links"` // Follow links outside the root domain
	RespectRobotsTxt    bool `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`       // Honor robots.txt rules and crawl-delay

	// Transport retry settings
	MaxRetries int     `mapstructure:"max_retries" yaml:"max_retries"` // Retries per HTTP request on transient failures
	RetryDelay float64 `mapstructure:"retry_delay" yaml:"retry_delay"` // Base backoff in seconds between attempts

	// Output layout
	OrganizeByDomain  bool `mapstructure:"organize_by_domain" yaml:"organize_by_domain"`   // <output>/<domain>/...
	OrganizeByDate    bool `mapstructure:"organize_by_date" yaml:"organize_by_date"`       // .../<YYYY-MM-DD>/...
	CreateTypeSubdirs bool `mapstructure:"create_type_subdirs" yaml:"create_type_subdirs"` // images/videos/text/other subdirectories

	// Run manifest database, empty disables recording
	ManifestPath string `mapstructure:"manifest_path" yaml:"manifest_path"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:           "./scraped",
		UserAgent:           "WebGrab/1.0",
		MaxWorkers:          5,
		Delay:               1.0,
		DownloadImages:      true,
		DownloadVideos:      true,
		DownloadText:        true,
		ImageExtensions:     []string{"jpg", "jpeg", "png", "gif", "webp", "svg"},
		VideoExtensions:     []string{"mp4", "webm", "avi", "mov", "mkv"},
		MaxFileSizeMB:       100,
		MaxImageSizeMB:      50,
		MaxVideoSizeMB:      500,
		MaxDepth:            1,
		FollowExternalLinks: false,
		RespectRobotsTxt:    true,
		MaxRetries:          3,
		RetryDelay:          2.0,
		OrganizeByDomain:    true,
		OrganizeByDate:      false,
		CreateTypeSubdirs:   true,
		LogLevel:            "info",
	}
}

// Validate checks if the configuration is valid. Any error returned here is
// fatal: the caller must abort before starting a crawl.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return ErrEmptyOutputDir
	}

	if c.MaxWorkers < 1 {
		return ErrInvalidWorkers
	}

	if c.Delay < 0 {
		return ErrNegativeDelay
	}

	if c.MaxDepth < 0 {
		return ErrNegativeDepth
	}

	if c.MaxRetries < 0 {
		return ErrNegativeRetries
	}

	if c.RetryDelay < 0 {
		return ErrNegativeRetryDelay
	}

	return nil
}

// RequestDelay returns the configured inter-request delay as a duration.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.Delay * float64(time.Second))
}

// RetryBackoff returns the base retry backoff as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryDelay * float64(time.Second))
}

// CategoryForExtension classifies a file extension (with or without leading
// dot) against the configured allow-lists.
func (c *Config) CategoryForExtension(ext string) Category {
	e := strings.ToLower(strings.TrimPrefix(ext, "."))
	if e == "" {
		return CategoryOther
	}

	for _, allowed := range c.ImageExtensions {
		if e == strings.ToLower(allowed) {
			return CategoryImage
		}
	}
	for _, allowed := range c.VideoExtensions {
		if e == strings.ToLower(allowed) {
			return CategoryVideo
		}
	}
	if e == "txt" {
		return CategoryText
	}
	return CategoryOther
}

// CategoryEnabled reports whether downloads for a category are enabled.
// Uncategorized content is never downloaded.
func (c *Config) CategoryEnabled(cat Category) bool {
	switch cat {
	case CategoryImage:
		return c.DownloadImages
	case CategoryVideo:
		return c.DownloadVideos
	case CategoryText:
		return c.DownloadText
	default:
		return false
	}
}

// SizeLimit returns the size limit for a category in bytes, 0 = unlimited.
// Categories without a specific limit fall back to the general file limit.
func (c *Config) SizeLimit(cat Category) int64 {
	const mb = 1024 * 1024

	switch {
	case cat == CategoryImage && c.MaxImageSizeMB > 0:
		return int64(c.MaxImageSizeMB) * mb
	case cat == CategoryVideo && c.MaxVideoSizeMB > 0:
		return int64(c.MaxVideoSizeMB) * mb
	case c.MaxFileSizeMB > 0:
		return int64(c.MaxFileSizeMB) * mb
	}
	return 0
}

// OutputPath returns the output directory for a crawled domain, applying the
// domain and date segmentation switches.
func (c *Config) OutputPath(domain string) string {
	path := c.OutputDir

	if c.OrganizeByDomain && domain != "" {
		path = filepath.Join(path, domain)
	}
	if c.OrganizeByDate {
		path = filepath.Join(path, time.Now().Format("2006-01-02"))
	}
	return path
}

// ContentPath returns the directory for a content category beneath base,
// honoring the per-category subdirectory switch.
func (c *Config) ContentPath(base string, cat Category) string {
	if !c.CreateTypeSubdirs {
		return base
	}

	switch cat {
	case CategoryImage:
		return filepath.Join(base, "images")
	case CategoryVideo:
		return filepath.Join(base, "videos")
	case CategoryText:
		return filepath.Join(base, "text")
	default:
		return filepath.Join(base, "other")
	}
}
