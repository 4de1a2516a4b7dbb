package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Config selects the backing database. SQLite is the default for a
// single-user install; Postgres is available for shared deployments.
type Config struct {
	Driver string // "sqlite3" or "postgres"
	DSN    string // file path for sqlite3, connection URL for postgres
}

// Connect opens the database, applies driver-specific settings and
// makes sure the schema exists.
func Connect(cfg Config) (*sqlx.DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = "sqlite3"
	}
	if cfg.Driver == "sqlite3" && cfg.DSN == "" {
		dataDir := "data"
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %v", err)
		}
		cfg.DSN = filepath.Join(dataDir, "wordvault.db")
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if cfg.Driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist.
// Review state is stored flat on the words row; timestamps are Unix
// milliseconds so they round-trip the wire format unchanged.
func initializeSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS words (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT 'en',
			definition TEXT,
			part_of_speech TEXT,
			context TEXT,
			status TEXT NOT NULL DEFAULT 'learning',
			added_at INTEGER NOT NULL,
			due_at INTEGER NOT NULL,
			interval_days INTEGER NOT NULL DEFAULT 0,
			ease REAL NOT NULL DEFAULT 2.5,
			streak INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at INTEGER,
			review_count INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create words table: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			review_strength TEXT NOT NULL DEFAULT 'standard',
			daily_review_limit INTEGER NOT NULL DEFAULT 20,
			prioritize_difficult BOOLEAN NOT NULL DEFAULT false,
			notify_enabled BOOLEAN NOT NULL DEFAULT true,
			notify_start_hour INTEGER NOT NULL DEFAULT 9,
			notify_end_hour INTEGER NOT NULL DEFAULT 21
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create settings table: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS review_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			rating TEXT NOT NULL,
			time_spent_ms INTEGER NOT NULL DEFAULT 0,
			reviewed_at INTEGER NOT NULL,
			FOREIGN KEY (word_id) REFERENCES words(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create review_log table: %v", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_words_status_due ON words(status, due_at)`)
	if err != nil {
		return fmt.Errorf("failed to create words index: %v", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_review_log_session ON review_log(session_id)`)
	if err != nil {
		return fmt.Errorf("failed to create review_log index: %v", err)
	}
	return nil
}
