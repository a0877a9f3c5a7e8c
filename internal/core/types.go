package core

import (
	"time"

	"github.com/fieldline/importer/internal/schema"
	"github.com/fieldline/importer/internal/tabular"
)

// Issue and Severity are shared with the parser so that parse, mapping, and
// validation diagnostics accumulate in one list on the job.
type (
	Issue    = tabular.Issue
	Severity = tabular.Severity
)

const (
	SeverityError   = tabular.SeverityError
	SeverityWarning = tabular.SeverityWarning
)

// Transform names a value transformation applied at persistence time.
// Validation always runs against the raw input, never the transformed value.
type Transform string

const (
	TransformNone           Transform = "none"
	TransformUppercase      Transform = "uppercase"
	TransformLowercase      Transform = "lowercase"
	TransformTrim           Transform = "trim"
	TransformPhoneFormat    Transform = "phone_format"
	TransformDateFormat     Transform = "date_format"
	TransformCurrencyFormat Transform = "currency_format"
)

// ColumnMapping binds one source column to at most one target field.
// An empty TargetField means the column is unmapped and ignored.
//
// Invariant: across all mappings of one job, no two mappings share a
// non-empty TargetField.
type ColumnMapping struct {
	SourceColumn string           `json:"sourceColumn"`
	TargetField  string           `json:"targetField"`
	DataType     schema.FieldType `json:"dataType,omitempty"`
	Required     bool             `json:"required"`
	Transform    Transform        `json:"transform,omitempty"`
	EnumValues   []string         `json:"enumValues,omitempty"`
	Confidence   float64          `json:"confidence"`
}

// ValidatedRow is a parsed row annotated with its validation outcome.
// A row is valid iff it has no error-severity issues; warnings do not
// block import.
type ValidatedRow struct {
	Row    tabular.Row `json:"row"`
	Valid  bool        `json:"valid"`
	Issues []Issue     `json:"issues,omitempty"`
}

// DuplicateGroup is a set of rows sharing the same normalized value in one
// source column. Diagnostic only; duplicates never block import.
type DuplicateGroup struct {
	Value      string `json:"value"`
	RowNumbers []int  `json:"rowNumbers"`
}

// Status is the lifecycle state of an import job.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusMapping    Status = "mapping"
	StatusValidating Status = "validating"
	StatusImporting  Status = "importing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
)

// Terminal reports whether the status admits no further pipeline work
// other than rollback.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusRolledBack
}

// Job is the durable record of one import run. CreatedRecordIDs is the sole
// input to rollback: every identifier the repository returned, in the order
// the records were persisted.
type Job struct {
	ID               string          `json:"id"`
	Target           string          `json:"target"`
	FileName         string          `json:"fileName"`
	Status           Status          `json:"status"`
	Mappings         []ColumnMapping `json:"mappings,omitempty"`
	TotalRows        int             `json:"totalRows"`
	ValidRows        int             `json:"validRows"`
	ImportedRows     int             `json:"importedRows"`
	SkippedRows      int             `json:"skippedRows"`
	Issues           []Issue         `json:"issues,omitempty"`
	CreatedRecordIDs []string        `json:"createdRecordIds,omitempty"`
	Error            string          `json:"error,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// RollbackResult reports the outcome of a rollback attempt. Deletions are
// best-effort: FailedIDs lists records that could not be deleted and need
// manual cleanup.
type RollbackResult struct {
	JobID     string   `json:"jobId"`
	Deleted   int      `json:"deleted"`
	FailedIDs []string `json:"failedIds,omitempty"`
	Complete  bool     `json:"complete"`
}
