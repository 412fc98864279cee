package journal

import (
	"fmt"
)

// Migrate runs all database migrations
func (db *DB) Migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

const migration001 = `
-- One row per daemon run
CREATE TABLE sessions (
    id TEXT PRIMARY KEY,
    started_at DATETIME NOT NULL,
    ended_at DATETIME
);

-- Ledger of firsts: one row per event that registered novelty
CREATE TABLE discoveries (
    id INTEGER PRIMARY KEY,
    session_id TEXT NOT NULL,
    observed_at DATETIME NOT NULL,
    essid TEXT NOT NULL DEFAULT '',
    bssid TEXT NOT NULL DEFAULT '',
    band TEXT NOT NULL DEFAULT '',
    place TEXT NOT NULL DEFAULT '',
    categories TEXT NOT NULL DEFAULT '[]',
    xp INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX idx_discoveries_observed_at ON discoveries(observed_at);
CREATE INDEX idx_discoveries_session_id ON discoveries(session_id);

-- Title threshold crossings; kept forever, retention does not touch these
CREATE TABLE title_unlocks (
    id INTEGER PRIMARY KEY,
    session_id TEXT NOT NULL,
    unlocked_at DATETIME NOT NULL,
    level INTEGER NOT NULL,
    title TEXT NOT NULL,
    total_xp INTEGER NOT NULL
);

CREATE INDEX idx_title_unlocks_unlocked_at ON title_unlocks(unlocked_at);

-- Daily aggregates of awards
CREATE TABLE daily_tallies (
    date DATE PRIMARY KEY,
    discoveries INTEGER DEFAULT 0,
    xp_gained INTEGER DEFAULT 0,
    new_places INTEGER DEFAULT 0
);
`
