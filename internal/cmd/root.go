// Package cmd provides the command-line interface for webgrab.
// It handles flag parsing, configuration loading and scraper execution.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/grabtools/webgrab/internal/config"
	"github.com/grabtools/webgrab/internal/crawler"
	"github.com/grabtools/webgrab/internal/downloader"
	"github.com/grabtools/webgrab/internal/logging"
	"github.com/grabtools/webgrab/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "webgrab [URLs...]",
	Short: "A breadth-first web scraper and media downloader",
	Long: `WebGrab crawls websites breadth-first from one or more root URLs,
extracts links, images, videos and page text, and downloads the media
concurrently with content-hash deduplication and per-category size limits.`,
	Args: cobra.ArbitraryArgs,
	RunE: runScrape,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./webgrab.yml)")
	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Crawl flags
	rootCmd.Flags().StringP("output", "o", defaults.OutputDir, "Root directory for downloaded content")
	rootCmd.Flags().IntP("workers", "w", defaults.MaxWorkers, "Number of concurrent download workers")
	rootCmd.Flags().Float64P("delay", "r", defaults.Delay, "Delay between requests in seconds")
	rootCmd.Flags().IntP("depth", "d", defaults.MaxDepth, "Maximum link-following depth from each root URL")
	rootCmd.Flags().StringP("user-agent", "u", defaults.UserAgent, "HTTP User-Agent header")
	rootCmd.Flags().Bool("ignore-robots", false, "Ignore robots.txt rules")
	rootCmd.Flags().Bool("follow-external", false, "Follow links outside the root domain")
	rootCmd.Flags().Int("retries", defaults.MaxRetries, "Retries per HTTP request on transient failures")
	rootCmd.Flags().Float64("retry-delay", defaults.RetryDelay, "Base backoff in seconds between retry attempts")

	// Content selection flags
	rootCmd.Flags().Bool("images", defaults.DownloadImages, "Download images")
	rootCmd.Flags().Bool("videos", defaults.DownloadVideos, "Download videos")
	rootCmd.Flags().Bool("text", defaults.DownloadText, "Save extracted page text")

	// Size limit flags (MB, 0=unlimited)
	rootCmd.Flags().Int("max-file-size", defaults.MaxFileSizeMB, "General file size limit in MB")
	rootCmd.Flags().Int("max-image-size", defaults.MaxImageSizeMB, "Image size limit in MB")
	rootCmd.Flags().Int("max-video-size", defaults.MaxVideoSizeMB, "Video size limit in MB")

	// Output layout flags
	rootCmd.Flags().Bool("by-domain", defaults.OrganizeByDomain, "Group output by domain")
	rootCmd.Flags().Bool("by-date", defaults.OrganizeByDate, "Group output by crawl date")
	rootCmd.Flags().Bool("type-subdirs", defaults.CreateTypeSubdirs, "Create images/videos/text subdirectories")

	// Reporting flags
	rootCmd.Flags().String("manifest", "", "Path to SQLite run manifest (empty disables recording)")
	rootCmd.Flags().String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	rootCmd.Flags().String("log-file", "", "Log file path (empty logs to stderr only)")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"output_dir", "output"},
		{"max_workers", "workers"},
		{"delay", "delay"},
		{"max_depth", "depth"},
		{"user_agent", "user-agent"},
		{"follow_external_links", "follow-external"},
		{"max_retries", "retries"},
		{"retry_delay", "retry-delay"},
		{"download_images", "images"},
		{"download_videos", "videos"},
		{"download_text", "text"},
		{"max_file_size_mb", "max-file-size"},
		{"max_image_size_mb", "max-image-size"},
		{"max_video_size_mb", "max-video-size"},
		{"organize_by_domain", "by-domain"},
		{"organize_by_date", "by-date"},
		{"create_type_subdirs", "type-subdirs"},
		{"manifest_path", "manifest"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("webgrab")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("WEBGRAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func showCurrentConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: configuration validation failed: %v\n\n", err)
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current WebGrab Configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Configuration file search paths: ./webgrab.yml\n")
	fmt.Printf("# Environment variables prefix: WEBGRAB_\n\n")
	fmt.Print(string(yamlData))

	return nil
}

// loadConfig merges defaults with the config file, environment and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The flag is a negation of the config field, so it cannot be bound
	// through viper like the others.
	if ignore, _ := cmd.Flags().GetBool("ignore-robots"); ignore {
		cfg.RespectRobotsTxt = false
	}

	return cfg, nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	if len(args) == 0 {
		return fmt.Errorf("no URLs provided\nUsage: %s [URLs...]", os.Args[0])
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logOpts := logging.DefaultOptions()
	logOpts.Level = cfg.LogLevel
	logOpts.FilePath = cfg.LogFile
	if err := logging.Setup(logOpts); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	var opts []crawler.Option
	if cfg.ManifestPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.ManifestPath), 0750); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
		manifest, err := storage.Open(cfg.ManifestPath)
		if err != nil {
			return fmt.Errorf("failed to open manifest: %w", err)
		}
		defer func() { _ = manifest.Close() }()
		opts = append(opts, crawler.WithRecorder(manifest))
	}
	opts = append(opts, crawler.WithProgress(printProgress))

	fmt.Printf("Starting scrape with configuration:\n")
	fmt.Printf("  URLs: %v\n", args)
	fmt.Printf("  Output: %s\n", cfg.OutputDir)
	fmt.Printf("  Depth: %d\n", cfg.MaxDepth)
	fmt.Printf("  Workers: %d\n", cfg.MaxWorkers)
	fmt.Printf("  Request Delay: %v\n", cfg.RequestDelay())
	fmt.Printf("  Respect Robots: %t\n", cfg.RespectRobotsTxt)

	if len(args) == 1 {
		scraper := crawler.New(cfg, opts...)
		defer scraper.Close()

		result, err := scraper.ScrapeAndDownload(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printRunSummary(result)
		return nil
	}

	combined := crawler.ScrapeMultiple(cmd.Context(), cfg, args, opts...)
	printCombinedSummary(combined)
	return nil
}

func printProgress(p crawler.PageProgress) {
	status := "ok"
	if !p.Success {
		status = "failed"
	}
	fmt.Printf("  [depth %d] %s (%s, %d media)\n", p.Depth, p.URL, status, p.MediaFound)
}

func printRunSummary(result *crawler.RunResult) {
	fmt.Printf("\nRun %s finished in %v\n", result.ID, result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	fmt.Printf("  Pages scraped:   %d (%d ok, %d failed)\n",
		result.Stats.URLsScraped, result.Stats.Successes, result.Stats.Failures)
	fmt.Printf("  Media found:     %d\n", result.Stats.MediaFound)
	fmt.Printf("  Downloads:       %d ok, %d failed, %d skipped\n",
		result.Stats.Downloads.Succeeded, result.Stats.Downloads.Failed,
		result.Stats.Downloads.Skipped)
	fmt.Printf("  Bytes written:   %s\n", downloader.FormatSize(result.Stats.Downloads.TotalBytes))
}

func printCombinedSummary(combined *crawler.CombinedResult) {
	var bytes int64
	for _, run := range combined.Runs {
		bytes += run.Stats.Downloads.TotalBytes
	}

	fmt.Printf("\nScraped %d root URLs\n", combined.Stats.TotalURLs)
	fmt.Printf("  Pages:           %d ok, %d failed\n", combined.Stats.Successes, combined.Stats.Failures)
	fmt.Printf("  Media found:     %d\n", combined.Stats.MediaFound)
	fmt.Printf("  Downloads:       %d\n", combined.Stats.Downloads)
	fmt.Printf("  Bytes written:   %s\n", downloader.FormatSize(bytes))
}
