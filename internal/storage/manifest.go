// Package storage provides optional persistence of run reports.
// It records each crawl run with its per-page scrape results and per-URL
// download results in a SQLite manifest for later inspection. The manifest is
// append-only reporting: it is never consulted by the crawl itself.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/grabtools/webgrab/internal/crawler"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// Manifest implements crawler.RunRecorder using SQLite.
type Manifest struct {
	db *sql.DB
}

// RunSummary is one recorded run's headline row.
type RunSummary struct {
	ID          string
	RootURL     string
	StartedAt   time.Time
	FinishedAt  time.Time
	URLsScraped int
	Successes   int
	Failures    int
	MediaFound  int
	Downloaded  int
	TotalBytes  int64
}

// Open opens (creating if necessary) a manifest database at the given path.
func Open(dbPath string) (*Manifest, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	m := &Manifest{db: db}
	if err := m.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return m, nil
}

// initSchema creates the manifest schema.
func (m *Manifest) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}

	for _, pragma := range pragmas {
		if _, err := m.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	root_url     TEXT NOT NULL,
	started_at   TIMESTAMP NOT NULL,
	finished_at  TIMESTAMP NOT NULL,
	urls_scraped INTEGER NOT NULL,
	successes    INTEGER NOT NULL,
	failures     INTEGER NOT NULL,
	media_found  INTEGER NOT NULL,
	dl_attempted INTEGER NOT NULL,
	dl_succeeded INTEGER NOT NULL,
	dl_failed    INTEGER NOT NULL,
	dl_skipped   INTEGER NOT NULL,
	dl_bytes     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id  TEXT NOT NULL REFERENCES runs(id),
	url     TEXT NOT NULL,
	success INTEGER NOT NULL,
	error   TEXT,
	links   INTEGER NOT NULL,
	images  INTEGER NOT NULL,
	videos  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS downloads (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	url         TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	path        TEXT,
	error       TEXT,
	skip_reason TEXT,
	size        INTEGER NOT NULL,
	category    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
CREATE INDEX IF NOT EXISTS idx_downloads_run ON downloads(run_id);
`
	if _, err := m.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordRun persists one completed run report in a single transaction.
func (m *Manifest) RecordRun(result *crawler.RunResult) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO runs (id, root_url, started_at, finished_at, urls_scraped,
			successes, failures, media_found, dl_attempted, dl_succeeded,
			dl_failed, dl_skipped, dl_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.RootURL, result.StartedAt, result.FinishedAt,
		result.Stats.URLsScraped, result.Stats.Successes, result.Stats.Failures,
		result.Stats.MediaFound, result.Stats.Downloads.Attempted,
		result.Stats.Downloads.Succeeded, result.Stats.Downloads.Failed,
		result.Stats.Downloads.Skipped, result.Stats.Downloads.TotalBytes)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	pageStmt, err := tx.Prepare(`
		INSERT INTO pages (run_id, url, success, error, links, images, videos)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer func() { _ = pageStmt.Close() }()

	for _, scrape := range result.Scrapes {
		_, err = pageStmt.Exec(result.ID, scrape.URL, scrape.Success, scrape.Error,
			len(scrape.Links), len(scrape.Media.Images), len(scrape.Media.Videos))
		if err != nil {
			return fmt.Errorf("failed to insert page: %w", err)
		}
	}

	dlStmt, err := tx.Prepare(`
		INSERT INTO downloads (run_id, url, outcome, path, error, skip_reason, size, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare download insert: %w", err)
	}
	defer func() { _ = dlStmt.Close() }()

	for _, dl := range result.Downloads {
		_, err = dlStmt.Exec(result.ID, dl.URL, dl.Outcome.String(), dl.Path,
			dl.Error, dl.SkipReason, dl.Size, string(dl.Category))
		if err != nil {
			return fmt.Errorf("failed to insert download: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns recorded runs, newest first.
func (m *Manifest) ListRuns() ([]RunSummary, error) {
	rows, err := m.db.Query(`
		SELECT id, root_url, started_at, finished_at, urls_scraped,
			successes, failures, media_found, dl_succeeded, dl_bytes
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.RootURL, &r.StartedAt, &r.FinishedAt,
			&r.URLsScraped, &r.Successes, &r.Failures, &r.MediaFound,
			&r.Downloaded, &r.TotalBytes); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Close closes the manifest database.
func (m *Manifest) Close() error {
	return m.db.Close()
}
