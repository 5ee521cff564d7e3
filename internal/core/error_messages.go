package core

// # Error Codes Reference
//
// This file defines the loader's sentinel errors and maps technical errors
// to user-friendly messages with codes for support reference. Operators can
// quote the code when reporting a failed run.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this ID already exists
//	DB002 - Unique constraint: This value must be unique but already exists
//	DB003 - Foreign key: Referenced record does not exist (load parents first)
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//	DB007 - Deadlock: Database was busy with conflicting operations
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date
//	VAL002 - Invalid number
//	VAL003 - Required field is empty
//	VAL004 - Required column is missing
//	VAL005 - Wrong number of columns in a row
//	VAL006 - Invalid boolean
//	VAL007 - Invalid integer
//	VAL008 - Record failed validation (negative price, return before issuance, ...)
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Encoding error
//	FILE004 - No file / data file not found
//	FILE005 - Empty file
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD001 - Another load of the same entity is running
//	LOAD002 - Header does not match the entity's columns
//	LOAD003 - Plan target already exists for the period and category
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// # Report Errors (RPT001-RPT099)
//
//	RPT001 - User has no credits
//	RPT002 - Year out of range
//
// # Entity, Request, Rate and Default
//
//	TBL002  - Unknown entity
//	REQ001  - Invalid path or query parameter
//	RATE001 - Too many requests
//	ERR000  - Unknown error; check the logs for the technical error
//
// Patterns are matched case-insensitively using strings.Contains and the
// first matching pattern wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUnknownEntity       = errors.New("unknown entity")
	ErrFileNotFound        = errors.New("file not found")
	ErrFileTooLarge        = errors.New("file too large")
	ErrEmptyFile           = errors.New("empty file")
	ErrInvalidCSV          = errors.New("invalid csv")
	ErrNoFile              = errors.New("no file provided")
	ErrHeaderMismatch      = errors.New("header mismatch")
	ErrLoadInProgress      = errors.New("load already in progress")
	ErrPlanTargetExists    = errors.New("plan target already exists")
	ErrUserCreditsNotFound = errors.New("user or credits not found")
	ErrInvalidYear         = errors.New("invalid year")
	ErrInvalidParameter    = errors.New("invalid parameter")
)

// RowError is a failure confined to a single row. The loader records it and
// continues with the next row.
type RowError struct {
	Reason string
}

func (e *RowError) Error() string { return e.Reason }

// RowErrorf formats a RowError.
func RowErrorf(format string, args ...any) error {
	return &RowError{Reason: fmt.Sprintf(format, args...)}
}

// IsRowError reports whether err only invalidates the current row:
// a RowError, a ValidationError, or a PostgreSQL data exception (class 22)
// or integrity constraint violation (class 23). Anything else is fatal.
func IsRowError(err error) bool {
	if err == nil {
		return false
	}
	var re *RowError
	if errors.As(err, &re) {
		return true
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database constraints
	{"duplicate key", UserMessage{"A record with this ID already exists", "Review the file for duplicate keys", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries in your CSV", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your data for duplicate key values", "DB002"}},
	{"foreign key constraint", UserMessage{"Referenced record does not exist", "Load dictionary, users, plans and credits before dependent files", "DB003"}},
	{"violates foreign key", UserMessage{"Referenced record does not exist", "Load dictionary, users, plans and credits before dependent files", "DB003"}},

	// Database connectivity
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	// Load (before validation: header mismatch messages mention missing columns)
	{"load already in progress", UserMessage{"Another load of this entity is running", "Wait for it to finish and try again", "LOAD001"}},
	{"header mismatch", UserMessage{"File header does not match the expected columns", "Compare the header row with GET /api/entities", "LOAD002"}},
	{"plan target already exists", UserMessage{"A plan for this period and category already exists", "Remove the row or pick another period", "LOAD003"}},

	// Validation
	{"invalid date", UserMessage{"Invalid date format detected", "Use DD.MM.YYYY or YYYY-MM-DD", "VAL001"}},
	{"invalid number", UserMessage{"Invalid number format detected", "Use a plain decimal such as 1234.50", "VAL002"}},
	{"required field", UserMessage{"Required field is empty", "Ensure all required columns have values", "VAL003"}},
	{"missing required column", UserMessage{"Required column is missing from CSV", "Check that all required columns are present in your file", "VAL004"}},
	{"columns, got", UserMessage{"Row has the wrong number of columns", "Check the delimiter and quoting of the row", "VAL005"}},
	{"wrong number of fields", UserMessage{"Row has the wrong number of columns", "Check the delimiter and quoting of the row", "VAL005"}},
	{"invalid bool", UserMessage{"Invalid yes/no value", "Use true/false, yes/no or 1/0", "VAL006"}},
	{"invalid integer", UserMessage{"Invalid whole number", "Remove fractions and keep values within range", "VAL007"}},
	{"validation failed", UserMessage{"Record failed validation", "Fix the listed fields", "VAL008"}},

	// Files
	{"file too large", UserMessage{"File exceeds maximum size limit", "Split the file into smaller chunks", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Check the delimiter and quoting", "FILE002"}},
	{"encoding error", UserMessage{"File contains invalid characters", "Save file as UTF-8 encoding", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE004"}},
	{"file not found", UserMessage{"Data file not found", "Place <entity>.csv in the data directory", "FILE004"}},
	{"empty file", UserMessage{"The file is empty", "Provide a header row", "FILE005"}},

	// Uploads and requests
	{"too many uploads", UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},
	{"invalid parameter", UserMessage{"Invalid request parameter", "Check the request path and query string", "REQ001"}},

	// Reports
	{"user or credits not found", UserMessage{"User or credits not found", "Check the user id", "RPT001"}},
	{"invalid year", UserMessage{"Year is out of range", "Use a year from 2000 to next year", "RPT002"}},

	// Entities and throttling
	{"unknown entity", UserMessage{"Unknown entity", "Use one of: dictionary, users, plans, credits, payments", "TBL002"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
