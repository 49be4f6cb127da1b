package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a brief or job posting does not exist
var ErrNotFound = errors.New("not found")

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate runs database migrations
func (db *DB) migrate() error {
	migrations := []string{
		// List columns hold JSON arrays; conversation_data and brief_summary hold the
		// message log and completion flags as JSON documents.
		`CREATE TABLE IF NOT EXISTS briefs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			missions TEXT NOT NULL DEFAULT '[]',
			hard_skills TEXT NOT NULL DEFAULT '[]',
			soft_skills TEXT NOT NULL DEFAULT '[]',
			project_context TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			constraints TEXT NOT NULL DEFAULT '[]',
			conversation_data TEXT NOT NULL DEFAULT '',
			brief_summary TEXT NOT NULL DEFAULT '',
			is_complete INTEGER NOT NULL DEFAULT 0,
			generated_job_posting_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS job_postings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			requirements TEXT NOT NULL DEFAULT '[]',
			missions TEXT NOT NULL DEFAULT '[]',
			hard_skills TEXT NOT NULL DEFAULT '[]',
			soft_skills TEXT NOT NULL DEFAULT '[]',
			location TEXT NOT NULL DEFAULT '',
			source_brief_id TEXT REFERENCES briefs(id) ON DELETE SET NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// FTS4 ships with the default go-sqlite3 build; FTS5 would need a build tag
		`CREATE VIRTUAL TABLE IF NOT EXISTS briefs_fts USING fts4(
			content="briefs",
			title,
			project_context,
			conversation_data
		)`,

		`CREATE TRIGGER IF NOT EXISTS briefs_bu BEFORE UPDATE ON briefs BEGIN
			DELETE FROM briefs_fts WHERE docid = old.rowid;
		END`,

		`CREATE TRIGGER IF NOT EXISTS briefs_bd BEFORE DELETE ON briefs BEGIN
			DELETE FROM briefs_fts WHERE docid = old.rowid;
		END`,

		`CREATE TRIGGER IF NOT EXISTS briefs_au AFTER UPDATE ON briefs BEGIN
			INSERT INTO briefs_fts(docid, title, project_context, conversation_data)
			VALUES (new.rowid, new.title, new.project_context, new.conversation_data);
		END`,

		`CREATE TRIGGER IF NOT EXISTS briefs_ai AFTER INSERT ON briefs BEGIN
			INSERT INTO briefs_fts(docid, title, project_context, conversation_data)
			VALUES (new.rowid, new.title, new.project_context, new.conversation_data);
		END`,

		`CREATE INDEX IF NOT EXISTS idx_briefs_user_created ON briefs(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_job_postings_user ON job_postings(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_job_postings_source ON job_postings(source_brief_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.conn.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	return nil
}

// Vacuum optimizes the database file
func (db *DB) Vacuum() error {
	_, err := db.conn.Exec("VACUUM")
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
