package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go's New function.
func InitSchema(db *sql.DB) error {
	if err := createCollegesTable(db); err != nil {
		return err
	}

	return createComparisonsTable(db)
}

// createCollegesTable stores the home college and all competitors in one
// table, distinguished by the is_home flag. Programs are a JSON array.
func createCollegesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS colleges (
		college_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT,
		programs TEXT NOT NULL DEFAULT '[]',
		tuition REAL,
		enrollment REAL,
		acceptance_rate REAL,
		avg_gpa REAL,
		avg_sat REAL,
		avg_act REAL,
		latitude REAL,
		longitude REAL,
		source_url TEXT,
		is_home INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_colleges_name ON colleges(name);
	CREATE INDEX IF NOT EXISTS idx_colleges_is_home ON colleges(is_home);
	CREATE INDEX IF NOT EXISTS idx_colleges_updated_at ON colleges(updated_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create colleges table: %w", err)
	}

	return nil
}

// createComparisonsTable stores one row per competitor; re-running an
// analysis overwrites the previous row for that competitor.
func createComparisonsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS comparisons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		competitor_id TEXT UNIQUE NOT NULL,
		similarity_score REAL NOT NULL,
		competition_level TEXT NOT NULL,
		analysis TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (competitor_id) REFERENCES colleges(college_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_comparisons_score ON comparisons(similarity_score DESC);
	CREATE INDEX IF NOT EXISTS idx_comparisons_level ON comparisons(competition_level);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create comparisons table: %w", err)
	}

	return nil
}
