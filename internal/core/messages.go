package core

// messages.go maps technical errors to user-facing messages with codes.
//
// When users hit an error, they can quote the code to support staff for
// faster diagnosis. Sentinel errors are matched with errors.Is first;
// everything else falls back to case-insensitive substring patterns over
// the error text. The first matching pattern wins, so more specific
// patterns come before general ones.
//
// Code ranges:
//
//	JOB001-JOB099  - job lifecycle and state machine
//	MAP001-MAP099  - column mapping
//	FILE001-FILE099 - file handling and parsing
//	DB001-DB099    - database and repository failures
//	RATE001        - request throttling
//	ERR000         - fallback

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrJobNotFound, UserMessage{
		Message: "Import job not found",
		Action:  "The job may have been pruned. Start a new import",
		Code:    "JOB001",
	}},
	{ErrInvalidTransition, UserMessage{
		Message: "This operation is not allowed in the job's current state",
		Action:  "Refresh the job status and follow the import steps in order",
		Code:    "JOB002",
	}},
	{ErrRowsUnavailable, UserMessage{
		Message: "The parsed rows for this job are no longer available",
		Action:  "Re-upload the file to start a new import",
		Code:    "JOB003",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "JOB004",
	}},
	{ErrImportInProgress, UserMessage{
		Message: "An import is already running for this job",
		Action:  "Wait for it to finish, then check the job status",
		Code:    "JOB005",
	}},
	{ErrUnknownTarget, UserMessage{
		Message: "Unknown import target",
		Action:  "Check the list of available targets",
		Code:    "MAP001",
	}},
	{ErrUnsupportedFile, UserMessage{
		Message: "Unsupported file type",
		Action:  "Upload a .csv, .tsv, or .txt file",
		Code:    "FILE001",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum allowed size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE002",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"mappings are not ready", UserMessage{
		Message: "Column mappings are incomplete",
		Action:  "Map every required field before validating",
		Code:    "MAP002",
	}},
	{"duplicate key", UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Review your data for duplicate key values",
		Code:    "DB001",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to the database",
		Action:  "Please try again in a few moments",
		Code:    "DB002",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB003",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB004",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB004",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000). Support staff
// should check application logs for the original technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	var me *MappingError
	if errors.As(err, &me) {
		return UserMessage{
			Message: "Column mappings are incomplete: " + strings.Join(me.Reasons, "; "),
			Action:  "Map every required field before validating",
			Code:    "MAP002",
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
