package core

// job.go owns the import job lifecycle.
//
//	uploading → mapping → validating → importing → completed | failed
//	completed → rolled_back
//	failed    → rolled_back
//
// No other transition is legal. An illegal transition is a usage error
// reported to the caller, never silently ignored.

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is wrapped by every transition error so callers can
// distinguish usage errors from infrastructure failures.
var ErrInvalidTransition = errors.New("invalid job transition")

var allowedTransitions = map[Status][]Status{
	StatusUploading:  {StatusMapping},
	StatusMapping:    {StatusValidating},
	StatusValidating: {StatusImporting},
	StatusImporting:  {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusRolledBack},
	StatusFailed:     {StatusRolledBack},
}

// NewJob creates a job in the uploading state.
func NewJob(target, fileName string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New().String(),
		Target:    target,
		FileName:  fileName,
		Status:    StatusUploading,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the job to a new status, enforcing the state machine.
func (j *Job) Transition(to Status) error {
	for _, next := range allowedTransitions[j.Status] {
		if next == to {
			j.Status = to
			j.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, j.Status, to)
}

// CanRollback reports whether the job is in a state rollback accepts.
func (j *Job) CanRollback() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// AddIssues appends diagnostics to the job record.
func (j *Job) AddIssues(issues ...Issue) {
	j.Issues = append(j.Issues, issues...)
}
