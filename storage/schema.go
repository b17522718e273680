package storage

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS dashboards (
		id         BIGSERIAL PRIMARY KEY,
		title      VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id           BIGSERIAL PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		description  TEXT,
		status       VARCHAR(16) NOT NULL DEFAULT 'TODO',
		priority     VARCHAR(16),
		due_date     TIMESTAMPTZ,
		dashboard_id BIGINT NOT NULL REFERENCES dashboards(id) ON DELETE CASCADE,
		position     BIGINT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_column_position_idx ON tasks (dashboard_id, status, position)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS dashboards (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		title        TEXT NOT NULL,
		description  TEXT,
		status       TEXT NOT NULL DEFAULT 'TODO',
		priority     TEXT,
		due_date     TIMESTAMP,
		dashboard_id INTEGER NOT NULL REFERENCES dashboards(id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_column_position_idx ON tasks (dashboard_id, status, position)`,
}

// Migrate creates the schema if it does not exist yet. It is safe to run on
// every start.
func (s *Storage) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if s.driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
