package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial climate source tables",
		SQL: `
CREATE TABLE IF NOT EXISTS temperature (
    year INTEGER PRIMARY KEY,
    anthropogenic_c REAL,
    observed_c REAL,
    anthropogenic_f REAL
);

CREATE TABLE IF NOT EXISTS co2_concentration (
    year INTEGER PRIMARY KEY,
    co2_ppm REAL
);

CREATE TABLE IF NOT EXISTS sea_level (
    year INTEGER PRIMARY KEY,
    gmsl REAL
);

CREATE INDEX IF NOT EXISTS idx_temperature_year ON temperature(year);
CREATE INDEX IF NOT EXISTS idx_co2_year ON co2_concentration(year);
CREATE INDEX IF NOT EXISTS idx_sea_level_year ON sea_level(year);
`,
	},
	{
		Version:     2,
		Description: "Add default prediction tables",
		SQL: `
CREATE TABLE IF NOT EXISTS future_predictions (
    year INTEGER PRIMARY KEY,
    prediction REAL
);

CREATE TABLE IF NOT EXISTS sea_level_predictions (
    year INTEGER PRIMARY KEY,
    prediction REAL
);
`,
	},
	{
		Version:     3,
		Description: "Add forecast_runs table for pipeline auditing",
		SQL: `
CREATE TABLE IF NOT EXISTS forecast_runs (
    id TEXT PRIMARY KEY,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    error_message TEXT,
    temperature_rows INTEGER,
    sea_level_rows INTEGER,
    trend_equation TEXT
);

CREATE INDEX IF NOT EXISTS idx_forecast_runs_started ON forecast_runs(started_at);
`,
	},
	{
		Version:     4,
		Description: "Add source_payloads table for raw import archives",
		SQL: `
CREATE TABLE IF NOT EXISTS source_payloads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fetched_at DATETIME NOT NULL,
    source TEXT NOT NULL,
    location TEXT NOT NULL,
    payload_compressed BLOB NOT NULL,
    payload_hash TEXT NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_source_payloads_fetched ON source_payloads(fetched_at);
`,
	},
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.ensureMigrationsTable(ctx); err != nil {
		return storeErr("ensure migrations table", err)
	}

	applied, err := s.getAppliedMigrations(ctx)
	if err != nil {
		return storeErr("get applied migrations", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Printf("migrations: applying %d - %s", m.Version, m.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return storeErr(fmt.Sprintf("begin tx for migration %d", m.Version), err)
		}

		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return storeErr(fmt.Sprintf("execute migration %d", m.Version), err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return storeErr(fmt.Sprintf("record migration %d", m.Version), err)
		}

		if err := tx.Commit(); err != nil {
			return storeErr(fmt.Sprintf("commit migration %d", m.Version), err)
		}

		log.Printf("migrations: completed %d", m.Version)
	}

	return nil
}

func (s *Store) ensureMigrationsTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, storeErr("migration version", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
