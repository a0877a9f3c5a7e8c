package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists imported records. Each record is one row in
// imported_records with its field map stored as JSONB, keyed by the target
// it was imported into. It satisfies core.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts one imported record and returns its generated ID.
func (r *Repository) Create(ctx context.Context, target string, fields map[string]string) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}

	id := uuid.New().String()

	_, err = r.pool.Exec(ctx,
		`INSERT INTO imported_records (id, target, fields) VALUES ($1, $2, $3)`,
		id, target, payload,
	)
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}

	return id, nil
}

// Delete removes one imported record by ID. Deleting a record that does not
// exist is an error so rollback can report it.
func (r *Repository) Delete(ctx context.Context, target, id string) error {
	var pgUUID pgtype.UUID
	if err := pgUUID.Scan(id); err != nil {
		return fmt.Errorf("invalid record ID: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM imported_records WHERE id = $1 AND target = $2`,
		pgUUID, target,
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record not found: %s", id)
	}

	return nil
}

// CountByTarget returns the number of imported records for one target.
func (r *Repository) CountByTarget(ctx context.Context, target string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM imported_records WHERE target = $1`,
		target,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}
