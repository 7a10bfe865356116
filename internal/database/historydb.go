package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/reviewscan/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "reviewscan.db"

// HistoryDB provides SQLite-based storage for analysis results.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per analyze call
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		host TEXT,
		timestamp DATETIME NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		fake_count INTEGER NOT NULL DEFAULT 0,
		genuine_count INTEGER NOT NULL DEFAULT 0,
		fake_percentage REAL NOT NULL DEFAULT 0,
		genuine_percentage REAL NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		scrape_time REAL NOT NULL DEFAULT 0,
		model_fingerprint TEXT,
		error TEXT,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_source ON analyses(source);
	CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);

	-- Last fetch of every analyzed URL
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		host TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		status_code INTEGER,
		content_type TEXT,
		raw_hash TEXT,
		size INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_pages_host ON pages(host);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Record is the stored summary of one analysis.
type Record struct {
	ID                int64
	Source            string
	Kind              model.SourceKind
	Host              string
	Timestamp         time.Time
	Total             int
	FakeCount         int
	GenuineCount      int
	FakePercentage    float64
	GenuinePercentage float64
	Skipped           int
	ScrapeTime        float64
	ModelFingerprint  string
	Error             string
}

// Succeeded reports whether the recorded analysis produced a result.
func (r Record) Succeeded() bool {
	return r.Error == ""
}

// SaveAnalysis stores an analysis and, for fetched URLs, the page metadata.
// It returns the ID of the new analysis row.
func (hdb *HistoryDB) SaveAnalysis(ctx context.Context, analysis *model.Analysis) (int64, error) {
	resultJSON, err := json.Marshal(analysis)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize analysis: %w", err)
	}

	var total, fake, genuine, skipped int
	var fakePct, genuinePct float64
	if r := analysis.Result; r != nil {
		total = r.TotalAnalyzed
		fake = r.FakeCount()
		genuine = r.GenuineCount()
		fakePct = r.FakePercentage
		genuinePct = r.GenuinePercentage
		skipped = r.Skipped
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO analyses (
		source, kind, host, timestamp, total, fake_count, genuine_count,
		fake_percentage, genuine_percentage, skipped, scrape_time,
		model_fingerprint, error, result_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		analysis.Source,
		string(analysis.Kind),
		analysis.Host(),
		analysis.DateAnalyzed.UTC().Format(time.RFC3339Nano),
		total,
		fake,
		genuine,
		fakePct,
		genuinePct,
		skipped,
		analysis.ScrapeSeconds(),
		analysis.ModelFingerprint,
		analysis.ErrorMessage,
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get analysis id: %w", err)
	}

	if analysis.Kind == model.SourceURL && analysis.Page != nil {
		if err := upsertPage(ctx, tx, analysis); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit analysis: %w", err)
	}
	return id, nil
}

// upsertPage records the fetch metadata of an analyzed URL.
// Uses UPSERT so a URL keeps only its latest fetch.
func upsertPage(ctx context.Context, tx *sql.Tx, analysis *model.Analysis) error {
	query := `
	INSERT INTO pages (url, host, status_code, content_type, raw_hash, size)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		host = excluded.host,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		raw_hash = excluded.raw_hash,
		size = excluded.size,
		timestamp = CURRENT_TIMESTAMP
	`

	page := analysis.Page
	_, err := tx.ExecContext(ctx, query,
		analysis.Source,
		analysis.Host(),
		page.StatusCode,
		page.ContentType,
		page.Hash,
		page.Size(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

// ListAnalyses returns the most recently saved analyses first.
// An empty source lists every source. A non-positive limit means no limit.
func (hdb *HistoryDB) ListAnalyses(ctx context.Context, source string, limit int) ([]Record, error) {
	query := `
	SELECT id, source, kind, host, timestamp, total, fake_count, genuine_count,
		fake_percentage, genuine_percentage, skipped, scrape_time,
		model_fingerprint, error
	FROM analyses
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var kind, timestamp string
		var host, fingerprint, errMsg sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.Source,
			&kind,
			&host,
			&timestamp,
			&rec.Total,
			&rec.FakeCount,
			&rec.GenuineCount,
			&rec.FakePercentage,
			&rec.GenuinePercentage,
			&rec.Skipped,
			&rec.ScrapeTime,
			&fingerprint,
			&errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}

		rec.Kind = model.SourceKind(kind)
		rec.Host = host.String
		rec.Timestamp = parseTimestamp(timestamp)
		rec.ModelFingerprint = fingerprint.String
		rec.Error = errMsg.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ListSources returns every distinct analyzed source, most recently saved first.
func (hdb *HistoryDB) ListSources(ctx context.Context) ([]string, error) {
	query := `
	SELECT source FROM analyses
	GROUP BY source
	ORDER BY MAX(id) DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// GetAnalysis retrieves a stored analysis by its ID.
// It returns nil without error when no analysis has that ID.
func (hdb *HistoryDB) GetAnalysis(ctx context.Context, id int64) (*model.Analysis, error) {
	query := `
	SELECT result_json FROM analyses
	WHERE id = ?
	`

	var resultJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(resultJSON), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	if analysis.ErrorMessage != "" {
		analysis.Error = errors.New(analysis.ErrorMessage)
	}

	return &analysis, nil
}

// PageRecord is the stored fetch metadata of a URL.
type PageRecord struct {
	ID          int64
	URL         string
	Host        string
	Timestamp   time.Time
	StatusCode  int
	ContentType string
	RawHash     string
	Size        int
}

// GetPage retrieves the last fetch metadata of a URL.
// It returns nil without error when the URL was never fetched.
func (hdb *HistoryDB) GetPage(ctx context.Context, url string) (*PageRecord, error) {
	query := `
	SELECT id, url, host, timestamp, status_code, content_type, raw_hash, size
	FROM pages
	WHERE url = ?
	`

	var rec PageRecord
	var timestamp string
	var host, contentType, rawHash sql.NullString

	err := hdb.db.QueryRowContext(ctx, query, url).Scan(
		&rec.ID,
		&rec.URL,
		&host,
		&timestamp,
		&rec.StatusCode,
		&contentType,
		&rawHash,
		&rec.Size,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	rec.Host = host.String
	rec.Timestamp = parseTimestamp(timestamp)
	rec.ContentType = contentType.String
	rec.RawHash = rawHash.String

	return &rec, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // written by SaveAnalysis
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
