package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fieldline/importer/internal/schema"
	"github.com/fieldline/importer/internal/tabular"
)

// Repository persists imported entities. It is the only way the pipeline
// touches durable entity storage; implementations adapt it per backend.
type Repository interface {
	// Create persists one entity and returns its identifier.
	Create(ctx context.Context, target string, fields map[string]string) (string, error)
	// Delete removes a previously created entity.
	Delete(ctx context.Context, target, id string) error
}

// JobStore durably records job state transitions and counters so callers
// can poll and resume. The core defines the shape of Job, not where it
// lives.
type JobStore interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Sentinel errors surfaced to callers as usage errors.
var (
	ErrJobNotFound      = errors.New("import job not found")
	ErrUnknownTarget    = errors.New("unknown import target")
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrFileTooLarge     = errors.New("file exceeds the maximum allowed size")
	ErrRowsUnavailable  = errors.New("row data for this job is no longer held in memory; re-upload the file")
	ErrImportInProgress = errors.New("an import is already running for this job")
)

// MappingError blocks the mapping to validating transition. Reasons is one
// human-readable problem per entry, never a single opaque failure.
type MappingError struct {
	Reasons []string
}

func (e *MappingError) Error() string {
	return "mappings are not ready: " + strings.Join(e.Reasons, "; ")
}

// Options are the service-level knobs, normally populated from config.
type Options struct {
	MaxFileSize   int64
	BatchSize     int
	RepoTimeout   time.Duration
	MaxConcurrent int
	MaxWait       time.Duration
}

// DefaultOptions mirror the config defaults.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:   50 * 1024 * 1024,
		BatchSize:     100,
		RepoTimeout:   10 * time.Second,
		MaxConcurrent: DefaultMaxConcurrentImports,
		MaxWait:       DefaultMaxWaitTime,
	}
}

// Service orchestrates the import pipeline end to end: parse, map,
// validate, import, rollback. It is the only component with side effects
// outside memory, and all of those go through the injected Repository and
// JobStore.
type Service struct {
	repo    Repository
	store   JobStore
	limiter *ImportLimiter
	opts    Options

	mu       sync.RWMutex
	sessions map[string]*session
}

// session holds the per-job row data between pipeline stages. Rows live in
// memory only; the durable Job record carries counters and diagnostics.
// importing guards against two concurrent Import calls persisting the same
// row set twice.
type session struct {
	table     *tabular.Table
	validated []ValidatedRow
	importing bool
}

// NewService creates a Service backed by the given repository and job store.
func NewService(repo Repository, store JobStore, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.RepoTimeout <= 0 {
		opts.RepoTimeout = 10 * time.Second
	}

	return &Service{
		repo:     repo,
		store:    store,
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// CreateJob parses an uploaded file, proposes column mappings, and returns
// the new job in the mapping state. Structural parse failures (empty file)
// leave the job in uploading with a fatal issue attached; unsupported file
// types are rejected before parsing is attempted.
func (s *Service) CreateJob(ctx context.Context, target, fileName string, content []byte, parseOpts tabular.Options) (*Job, error) {
	cat, ok := schema.Get(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}

	if !tabular.SupportedFile(fileName) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, fileName)
	}

	if s.opts.MaxFileSize > 0 && int64(len(content)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, len(content))
	}

	job := NewJob(cat.Key, fileName)
	table := tabular.Parse(content, parseOpts)
	job.AddIssues(table.Issues...)

	if table.Fatal() {
		// Blocked at uploading; the job record still surfaces the issue.
		if err := s.store.Save(ctx, job); err != nil {
			return nil, fmt.Errorf("save job: %w", err)
		}
		return job, nil
	}

	job.Mappings = ProposeMappings(table.Headers, cat)
	job.TotalRows = len(table.Rows)

	if err := job.Transition(StatusMapping); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.mu.Lock()
	s.sessions[job.ID] = &session{table: table}
	s.mu.Unlock()

	slog.Info("import job created",
		"job_id", job.ID,
		"target", job.Target,
		"file", fileName,
		"rows", job.TotalRows,
	)

	return job, nil
}

// Job returns the durable job record.
func (s *Service) Job(ctx context.Context, id string) (*Job, error) {
	return s.store.Get(ctx, id)
}

// Jobs lists all job records.
func (s *Service) Jobs(ctx context.Context) ([]*Job, error) {
	return s.store.List(ctx)
}

// Headers returns the parsed header row for a job still held in memory.
func (s *Service) Headers(jobID string) ([]string, error) {
	sess, err := s.session(jobID)
	if err != nil {
		return nil, err
	}
	return sess.table.Headers, nil
}

// UpdateMapping overrides one column's target field while the job is in
// the mapping stage. Any other mapping claiming the same field is cleared.
func (s *Service) UpdateMapping(ctx context.Context, jobID, sourceColumn, targetField string) (*Job, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusMapping {
		return nil, fmt.Errorf("%w: cannot edit mappings in status %s", ErrInvalidTransition, job.Status)
	}

	cat, ok := schema.Get(job.Target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, job.Target)
	}

	updated, err := UpdateMapping(job.Mappings, sourceColumn, targetField, cat)
	if err != nil {
		return nil, err
	}
	job.Mappings = updated
	job.UpdatedAt = time.Now().UTC()

	if err := s.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	return job, nil
}

// Validate moves the job from mapping to validating and runs the
// validation engine over all rows. Mapping problems block the transition
// and come back as a *MappingError; the job stays in mapping.
func (s *Service) Validate(ctx context.Context, jobID string) (*Job, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	cat, ok := schema.Get(job.Target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, job.Target)
	}

	if ok, reasons := ValidateMappings(job.Mappings, cat); !ok {
		return job, &MappingError{Reasons: reasons}
	}

	if err := job.Transition(StatusValidating); err != nil {
		return nil, err
	}

	sess, err := s.session(jobID)
	if err != nil {
		return nil, err
	}

	validated, issues := ValidateRows(sess.table, job.Mappings)
	sess.validated = validated

	job.TotalRows = len(validated)
	job.ValidRows = 0
	for _, vr := range validated {
		if vr.Valid {
			job.ValidRows++
		}
	}
	job.SkippedRows = job.TotalRows - job.ValidRows
	job.AddIssues(issues...)

	if err := s.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	slog.Info("import job validated",
		"job_id", job.ID,
		"valid_rows", job.ValidRows,
		"skipped_rows", job.SkippedRows,
		"issues", len(issues),
	)

	return job, nil
}

// Import persists every valid row through the repository, in strict row
// order, appending each returned identifier to the job's record list. A
// single persistence failure aborts the remaining rows and moves the job
// to failed; records already created are preserved for explicit rollback,
// never deleted implicitly.
func (s *Service) Import(ctx context.Context, jobID string) (*Job, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusValidating {
		return nil, fmt.Errorf("%w: cannot import from status %s", ErrInvalidTransition, job.Status)
	}

	sess, err := s.session(jobID)
	if err != nil {
		return nil, err
	}

	// Two requests racing here would both see a validating job; only the
	// first may run the row set.
	s.mu.Lock()
	if sess.importing {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrImportInProgress, jobID)
	}
	sess.importing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		sess.importing = false
		s.mu.Unlock()
	}()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if err := job.Transition(StatusImporting); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	sinceSave := 0
	for _, vr := range sess.validated {
		if !vr.Valid {
			continue
		}

		record := BuildRecord(vr.Row, job.Mappings)

		callCtx, cancel := context.WithTimeout(ctx, s.opts.RepoTimeout)
		id, createErr := s.repo.Create(callCtx, job.Target, record)
		cancel()

		if createErr != nil {
			job.Error = fmt.Sprintf("row %d: %v", vr.Row.Number, createErr)
			if terr := job.Transition(StatusFailed); terr != nil {
				return nil, terr
			}
			if serr := s.store.Save(ctx, job); serr != nil {
				return nil, fmt.Errorf("save job: %w", serr)
			}
			slog.Error("import aborted",
				"job_id", job.ID,
				"row", vr.Row.Number,
				"created_records", len(job.CreatedRecordIDs),
				"error", createErr,
			)
			return job, nil
		}

		job.CreatedRecordIDs = append(job.CreatedRecordIDs, id)
		job.ImportedRows++
		sinceSave++

		// Persist counters in batches so a crash loses at most one batch
		// of progress, never the record list ordering.
		if sinceSave >= s.opts.BatchSize {
			job.UpdatedAt = time.Now().UTC()
			if serr := s.store.Save(ctx, job); serr != nil {
				return nil, fmt.Errorf("save job: %w", serr)
			}
			sinceSave = 0
		}
	}

	if err := job.Transition(StatusCompleted); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.dropSession(jobID)

	slog.Info("import job completed",
		"job_id", job.ID,
		"imported_rows", job.ImportedRows,
		"skipped_rows", job.SkippedRows,
	)

	return job, nil
}

// Rollback deletes every record the job created, newest first. Deletion is
// best-effort: a failed delete is recorded and the remaining deletions
// still run. Only when every record is gone does the job move to
// rolled_back with its counters cleared; otherwise the undeletable IDs
// stay on the job for manual cleanup.
func (s *Service) Rollback(ctx context.Context, jobID string) (*Job, *RollbackResult, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if !job.CanRollback() {
		return nil, nil, fmt.Errorf("%w: cannot roll back from status %s", ErrInvalidTransition, job.Status)
	}

	result := &RollbackResult{JobID: job.ID}
	var failed []string

	for i := len(job.CreatedRecordIDs) - 1; i >= 0; i-- {
		id := job.CreatedRecordIDs[i]

		callCtx, cancel := context.WithTimeout(ctx, s.opts.RepoTimeout)
		delErr := s.repo.Delete(callCtx, job.Target, id)
		cancel()

		if delErr != nil {
			failed = append([]string{id}, failed...)
			slog.Warn("rollback delete failed", "job_id", job.ID, "record_id", id, "error", delErr)
			continue
		}
		result.Deleted++
	}

	result.FailedIDs = failed
	result.Complete = len(failed) == 0

	if result.Complete {
		if err := job.Transition(StatusRolledBack); err != nil {
			return nil, nil, err
		}
		job.ImportedRows = 0
		job.CreatedRecordIDs = nil
		job.Error = ""
	} else {
		job.CreatedRecordIDs = failed
		job.Error = fmt.Sprintf("rollback incomplete: %d records could not be deleted", len(failed))
		job.UpdatedAt = time.Now().UTC()
	}

	if err := s.store.Save(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("save job: %w", err)
	}

	if result.Complete {
		s.dropSession(jobID)
	}

	slog.Info("import job rollback",
		"job_id", job.ID,
		"deleted", result.Deleted,
		"failed", len(failed),
	)

	return job, result, nil
}

// Duplicates runs the duplicate-detection diagnostic over a job's rows for
// one source column.
func (s *Service) Duplicates(jobID, column string) ([]DuplicateGroup, error) {
	sess, err := s.session(jobID)
	if err != nil {
		return nil, err
	}
	return FindDuplicates(sess.table.Rows, column), nil
}

// LimiterStatus exposes the import limiter state for monitoring.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports drain, for graceful
// shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) session(jobID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[jobID]
	if !ok {
		return nil, ErrRowsUnavailable
	}
	return sess, nil
}

func (s *Service) dropSession(jobID string) {
	s.mu.Lock()
	delete(s.sessions, jobID)
	s.mu.Unlock()
}
