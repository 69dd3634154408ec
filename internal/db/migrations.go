package db

import (
	"errors"
	"fmt"
)

// Migration is one versioned schema change. Each dialect carries its own SQL.
type Migration struct {
	Version     int
	Description string
	Postgres    string
	SQLite      string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "analytics_events table",
		Postgres: `
CREATE TABLE IF NOT EXISTS analytics_events (
    id               BIGSERIAL PRIMARY KEY,
    event_name       TEXT NOT NULL,
    event_time       TIMESTAMPTZ NOT NULL,
    request_id       TEXT,
    session_id       TEXT,
    platform         TEXT NOT NULL,
    app_version      TEXT NOT NULL DEFAULT '',
    device_locale    TEXT,
    source_event_key TEXT UNIQUE,
    strategy         TEXT NOT NULL,
    task_count       INTEGER NOT NULL,
    cycle_count      INTEGER NOT NULL DEFAULT 0,
    properties       JSONB NOT NULL DEFAULT '{}'::jsonb
);
CREATE INDEX IF NOT EXISTS idx_analytics_events_strategy ON analytics_events(strategy, event_time DESC);
`,
		SQLite: `
CREATE TABLE IF NOT EXISTS analytics_events (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    event_name       TEXT NOT NULL,
    event_time       DATETIME NOT NULL,
    request_id       TEXT,
    session_id       TEXT,
    platform         TEXT NOT NULL,
    app_version      TEXT NOT NULL DEFAULT '',
    device_locale    TEXT,
    source_event_key TEXT UNIQUE,
    strategy         TEXT NOT NULL,
    task_count       INTEGER NOT NULL,
    cycle_count      INTEGER NOT NULL DEFAULT 0,
    properties       TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_analytics_events_strategy ON analytics_events(strategy, event_time DESC);
`,
	},
}

// Migrate runs all pending migrations, one transaction each.
func Migrate(d *DB) error {
	if d == nil || d.sql == nil {
		return errors.New("db is nil")
	}

	if _, err := d.sql.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at TIMESTAMP)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := CurrentVersion(d)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		stmt := m.SQLite
		if d.dialect == Postgres {
			stmt = m.Postgres
		}

		tx, err := d.sql.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(d.Rebind(`INSERT INTO schema_version (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`), m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
		current = m.Version
	}

	return nil
}

// CurrentVersion returns the applied schema version, 0 if none.
func CurrentVersion(d *DB) (int, error) {
	if d == nil || d.sql == nil {
		return 0, errors.New("db is nil")
	}

	var version int
	if err := d.sql.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("query schema_version: %w", err)
	}
	return version, nil
}
