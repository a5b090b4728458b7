package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ShredDB manages the SQLite database holding the shred audit history
type ShredDB struct {
	db *sql.DB
}

// EventRecord represents a single shred decision
type EventRecord struct {
	ID         int64
	EventID    string
	Timestamp  time.Time
	PID        int
	Path       string
	FileName   string
	Decision   string
	Outcome    string
	ExitCode   *int // nil unless the utility was invoked
	Size       int64
	DurationMs int64
	Detail     string
	CreatedAt  time.Time
}

// NewShredDB creates a new database connection and initializes schema
func NewShredDB(dbPath string) (*ShredDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables automatic DATETIME parsing; the busy timeout lets
	// several preloaded processes share one history file
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Test connection by executing a simple query instead of Ping()
	// This ensures the database file is created if it doesn't exist
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	// Enable WAL mode for better concurrency (multiple readers, one writer)
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	sdb := &ShredDB{db: db}
	if err = sdb.initSchema(); err != nil {
		return nil, err
	}

	return sdb, nil
}

// initSchema creates tables and indexes if they don't exist
func (d *ShredDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shred_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		pid INTEGER NOT NULL,
		path TEXT NOT NULL,
		file_name TEXT,
		decision TEXT NOT NULL,
		outcome TEXT,
		exit_code INTEGER,
		size INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		detail TEXT,

		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_event_id ON shred_events(event_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON shred_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_decision ON shred_events(decision);
	CREATE INDEX IF NOT EXISTS idx_outcome ON shred_events(outcome);
	CREATE INDEX IF NOT EXISTS idx_path ON shred_events(path);

	-- Metadata table for schema versioning
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := d.db.Exec(schema)
	return err
}

// RecordEvent inserts a shred decision into the database
func (d *ShredDB) RecordEvent(rec EventRecord) error {
	query := `
	INSERT INTO shred_events (
		event_id, timestamp, pid, path, file_name,
		decision, outcome, exit_code, size, duration_ms, detail
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	fileName := rec.FileName
	if fileName == "" {
		fileName = filepath.Base(rec.Path)
	}

	_, err := d.db.Exec(
		query,
		rec.EventID,
		rec.Timestamp,
		rec.PID,
		rec.Path,
		fileName,
		rec.Decision,
		nullString(rec.Outcome),
		rec.ExitCode,
		rec.Size,
		rec.DurationMs,
		nullString(rec.Detail),
	)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Close closes the database connection
func (d *ShredDB) Close() error {
	return d.db.Close()
}

// Vacuum optimizes the database (run periodically)
func (d *ShredDB) Vacuum() error {
	_, err := d.db.Exec("VACUUM")
	return err
}

// GetDatabaseStats returns database statistics
func (d *ShredDB) GetDatabaseStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalRecords int64
	err := d.db.QueryRow("SELECT COUNT(*) FROM shred_events").Scan(&totalRecords)
	if err != nil {
		return nil, err
	}
	stats["total_records"] = totalRecords

	var pageCount, pageSize int64
	if err = d.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, err
	}
	if err = d.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, err
	}
	stats["database_size_bytes"] = pageCount * pageSize

	var oldest, newest sql.NullString
	err = d.db.QueryRow("SELECT MIN(timestamp), MAX(timestamp) FROM shred_events").Scan(&oldest, &newest)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if t, ok := parseSQLiteTime(oldest); ok {
		stats["oldest_record"] = t
	}
	if t, ok := parseSQLiteTime(newest); ok {
		stats["newest_record"] = t
	}

	return stats, nil
}

// sqliteTimeFormats are the layouts go-sqlite3 may use when a time.Time is
// stored and later read back through an aggregate (which loses the column type)
var sqliteTimeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func parseSQLiteTime(s sql.NullString) (time.Time, bool) {
	if !s.Valid || s.String == "" {
		return time.Time{}, false
	}
	for _, layout := range sqliteTimeFormats {
		if t, err := time.Parse(layout, s.String); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
