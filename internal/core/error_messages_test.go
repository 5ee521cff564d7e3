package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "duplicate key maps correctly",
			err:         errors.New("pq: duplicate key value violates unique constraint"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
		{
			name:        "unique constraint maps correctly",
			err:         errors.New("ERROR: unique constraint violated"),
			wantCode:    "DB002",
			wantMessage: "This value must be unique but already exists",
		},
		{
			name:        "foreign key maps correctly",
			err:         errors.New("violates foreign key constraint"),
			wantCode:    "DB003",
			wantMessage: "Referenced record does not exist",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "timeout maps correctly",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "file too large maps correctly",
			err:         errors.New("file too large: 200MB exceeds limit"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "header mismatch wins over missing column",
			err:         fmt.Errorf("%w: missing required columns: login", ErrHeaderMismatch),
			wantCode:    "LOAD002",
			wantMessage: "File header does not match the expected columns",
		},
		{
			name:        "missing column in a row",
			err:         ValidationError{Field: "login", Message: "missing required column"},
			wantCode:    "VAL004",
			wantMessage: "Required column is missing from CSV",
		},
		{
			name:        "column count mismatch",
			err:         RowErrorf("expected 4 columns, got 3"),
			wantCode:    "VAL005",
			wantMessage: "Row has the wrong number of columns",
		},
		{
			name:        "record validation",
			err:         errors.New("validation failed: price must be >= 0"),
			wantCode:    "VAL008",
			wantMessage: "Record failed validation",
		},
		{
			name:        "missing data file",
			err:         fmt.Errorf("%w: data/users.csv", ErrFileNotFound),
			wantCode:    "FILE004",
			wantMessage: "Data file not found",
		},
		{
			name:        "lease held",
			err:         fmt.Errorf("users: %w", ErrLoadInProgress),
			wantCode:    "LOAD001",
			wantMessage: "Another load of this entity is running",
		},
		{
			name:        "plan target exists",
			err:         fmt.Errorf("row 3: %w", ErrPlanTargetExists),
			wantCode:    "LOAD003",
			wantMessage: "A plan for this period and category already exists",
		},
		{
			name:        "user without credits",
			err:         ErrUserCreditsNotFound,
			wantCode:    "RPT001",
			wantMessage: "User or credits not found",
		},
		{
			name:        "unknown entity",
			err:         fmt.Errorf("%w: loans", ErrUnknownEntity),
			wantCode:    "TBL002",
			wantMessage: "Unknown entity",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "invalid parameter maps correctly",
			err:         fmt.Errorf("%w: user id %q", ErrInvalidParameter, "abc"),
			wantCode:    "REQ001",
			wantMessage: "Invalid request parameter",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("duplicate key value violates")
	result := FormatUserError(err)

	expected := "A record with this ID already exists (Code: DB001). Review the file for duplicate keys"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("duplicate key"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := errors.New("pq: duplicate key value")
		userErr := NewUserError(techErr)

		if userErr.Error() != "A record with this ID already exists" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}

func TestIsRowError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"row error", RowErrorf("login %q belongs to user %d", "olena", 3), true},
		{"wrapped validation error", fmt.Errorf("line 4: %w", ValidationError{Field: "price", Message: "invalid number"}), true},
		{"foreign key violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), true},
		{"invalid text representation", &pgconn.PgError{Code: "22P02"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, false},
		{"plain error", errors.New("conn closed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRowError(tt.err); got != tt.want {
				t.Errorf("IsRowError() = %v, want %v", got, tt.want)
			}
		})
	}
}
