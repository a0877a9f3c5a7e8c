package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldline/importer/internal/core"
)

// JobStore persists import job records in the import_jobs table.
// Mappings, issues, and the created-record ID list are stored as JSONB so
// the table shape stays stable as those structures evolve. It satisfies
// core.JobStore.
type JobStore struct {
	pool *pgxpool.Pool
}

// NewJobStore creates a job store backed by the given pool.
func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

// Save upserts the full job record keyed by job ID.
func (s *JobStore) Save(ctx context.Context, job *core.Job) error {
	mappings, err := json.Marshal(job.Mappings)
	if err != nil {
		return fmt.Errorf("encode mappings: %w", err)
	}
	issues, err := json.Marshal(job.Issues)
	if err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	recordIDs, err := json.Marshal(job.CreatedRecordIDs)
	if err != nil {
		return fmt.Errorf("encode record ids: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO import_jobs (
			id, target, file_name, status, mappings,
			total_rows, valid_rows, imported_rows, skipped_rows,
			issues, created_record_ids, error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status             = EXCLUDED.status,
			mappings           = EXCLUDED.mappings,
			total_rows         = EXCLUDED.total_rows,
			valid_rows         = EXCLUDED.valid_rows,
			imported_rows      = EXCLUDED.imported_rows,
			skipped_rows       = EXCLUDED.skipped_rows,
			issues             = EXCLUDED.issues,
			created_record_ids = EXCLUDED.created_record_ids,
			error              = EXCLUDED.error,
			updated_at         = EXCLUDED.updated_at`,
		job.ID, job.Target, job.FileName, string(job.Status), mappings,
		job.TotalRows, job.ValidRows, job.ImportedRows, job.SkippedRows,
		issues, recordIDs, job.Error, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}

	return nil
}

const jobColumns = `
	id, target, file_name, status, mappings,
	total_rows, valid_rows, imported_rows, skipped_rows,
	issues, created_record_ids, error, created_at, updated_at`

// Get returns one job by ID, or core.ErrJobNotFound.
func (s *JobStore) Get(ctx context.Context, id string) (*core.Job, error) {
	var pgUUID pgtype.UUID
	if err := pgUUID.Scan(id); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT`+jobColumns+` FROM import_jobs WHERE id = $1`, pgUUID)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}

	return job, nil
}

// List returns all jobs, newest first.
func (s *JobStore) List(ctx context.Context) ([]*core.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+jobColumns+` FROM import_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*core.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return jobs, nil
}

// DeleteTerminalBefore prunes terminal jobs last updated before cutoff.
func (s *JobStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM import_jobs
		WHERE status IN ('completed', 'failed', 'rolled_back')
		  AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func scanJob(row pgx.Row) (*core.Job, error) {
	var (
		job       core.Job
		status    string
		mappings  []byte
		issues    []byte
		recordIDs []byte
	)

	err := row.Scan(
		&job.ID, &job.Target, &job.FileName, &status, &mappings,
		&job.TotalRows, &job.ValidRows, &job.ImportedRows, &job.SkippedRows,
		&issues, &recordIDs, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = core.Status(status)

	if err := json.Unmarshal(mappings, &job.Mappings); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	if err := json.Unmarshal(issues, &job.Issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	if err := json.Unmarshal(recordIDs, &job.CreatedRecordIDs); err != nil {
		return nil, fmt.Errorf("decode record ids: %w", err)
	}

	return &job, nil
}
