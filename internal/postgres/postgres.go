// Package postgres implements the persistence layer on PostgreSQL via pgx.
//
// Two concerns live here:
//   - Repository: the destination for imported records (imported_records)
//   - JobStore: durable import job state (import_jobs)
//
// Schema management is deliberately simple: EnsureSchema creates the tables
// if they do not exist. There is no migration framework.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS imported_records (
	id         UUID PRIMARY KEY,
	target     TEXT NOT NULL,
	fields     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_imported_records_target
	ON imported_records (target);

CREATE TABLE IF NOT EXISTS import_jobs (
	id                 UUID PRIMARY KEY,
	target             TEXT NOT NULL,
	file_name          TEXT NOT NULL,
	status             TEXT NOT NULL,
	mappings           JSONB NOT NULL DEFAULT '[]',
	total_rows         INTEGER NOT NULL DEFAULT 0,
	valid_rows         INTEGER NOT NULL DEFAULT 0,
	imported_rows      INTEGER NOT NULL DEFAULT 0,
	skipped_rows       INTEGER NOT NULL DEFAULT 0,
	issues             JSONB NOT NULL DEFAULT '[]',
	created_record_ids JSONB NOT NULL DEFAULT '[]',
	error              TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_jobs_status
	ON import_jobs (status);
`

// EnsureSchema creates the importer's tables and indexes if they are missing.
// Safe to call on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
