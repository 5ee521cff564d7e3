// Package core provides the CSV table loader and the bookkeeping queries
// behind creditdesk. This package has no UI dependencies and is used by both
// the CLI and the web server.
package core

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TxBeginner starts database transactions. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
	FieldNumeric
	FieldDate
	FieldBool
)

// FieldSpec defines validation rules for a single CSV column.
type FieldSpec struct {
	Name       string              // Column header name (case-insensitive match)
	DBColumn   string              // Database column name (defaults to Name)
	Type       FieldType           // Expected data type
	Required   bool                // Column must exist in CSV header
	AllowEmpty bool                // If true, empty values are allowed even when Required
	Normalizer func(string) string // Optional transformation function
}

// Column returns the database column the field is stored in.
func (f FieldSpec) Column() string {
	if f.DBColumn != "" {
		return f.DBColumn
	}
	return strings.ToLower(f.Name)
}

// EntityInfo contains display information about a loadable entity.
type EntityInfo struct {
	Key        string   `json:"key"`         // Entity identifier: "credits"
	Label      string   `json:"label"`       // Display name: "Credits"
	Table      string   `json:"table"`       // Target table
	FileName   string   `json:"file_name"`   // Source file under the data directory
	Columns    []string `json:"columns"`     // Header column names
	NaturalKey string   `json:"natural_key"` // Column that identifies an existing row
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// Record is a validated domain value ready to be written.
type Record interface {
	NaturalKey() string
}

// BuildFunc converts a coerced row into a validated record.
type BuildFunc func(row Row) (Record, error)

// LookupFunc finds the stored record sharing rec's natural key.
// found is false when no such row exists.
type LookupFunc func(ctx context.Context, db DBTX, rec Record) (existing Record, found bool, err error)

// InsertFunc inserts a new row.
type InsertFunc func(ctx context.Context, db DBTX, rec Record) error

// UpdateFunc overwrites the stored row identified by existing with rec.
type UpdateFunc func(ctx context.Context, db DBTX, existing, rec Record) error

// EqualFunc reports whether two records hold the same values.
type EqualFunc func(a, b Record) bool

// EntityDefinition contains everything needed to load one entity.
type EntityDefinition struct {
	Info       EntityInfo
	FieldSpecs []FieldSpec
	Build      BuildFunc
	Lookup     LookupFunc
	Insert     InsertFunc
	Update     UpdateFunc
	Equal      EqualFunc // Optional; unchanged rows skip the UPDATE
}

// DuplicatePolicy decides what happens when a row's natural key already exists.
type DuplicatePolicy string

const (
	DuplicateUpdate DuplicatePolicy = "update"
	DuplicateSkip   DuplicatePolicy = "skip"
)

// CommitMode controls transaction granularity for a run.
type CommitMode string

const (
	// CommitFile runs the whole file in one transaction with a savepoint per row.
	CommitFile CommitMode = "file"
	// CommitRow commits every row in its own transaction.
	CommitRow CommitMode = "row"
)

// FailedRow contains information about a row that was not loaded.
type FailedRow struct {
	LineNumber int      `json:"line"`
	Reason     string   `json:"reason"`
	Data       []string `json:"data,omitempty"`
}

// LoadResult summarizes one import run.
// TotalRows == Inserted + Updated + Unchanged + Skipped + len(FailedRows).
type LoadResult struct {
	RunID      string        `json:"run_id"`
	Entity     string        `json:"entity"`
	FileName   string        `json:"file_name"`
	TotalRows  int           `json:"total_rows"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Unchanged  int           `json:"unchanged"`
	Skipped    int           `json:"skipped"`
	FailedRows []FailedRow   `json:"failed_rows"`
	Duration   time.Duration `json:"duration_ns"`
}

// Failed returns the number of rows that were not loaded.
func (r *LoadResult) Failed() int { return len(r.FailedRows) }

// Date is a calendar date rendered as YYYY-MM-DD in JSON.
type Date struct {
	time.Time
}

// NewDate wraps t, dropping the time of day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format(time.DateOnly) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// CreditSummary describes one credit of a user. Closed credits report the
// actual return date and total payments; open credits report the planned
// return date, overdue days and the body/percent payment split.
type CreditSummary struct {
	ID               int32            `json:"id"`
	IssuanceDate     Date             `json:"issuance_date"`
	Closed           bool             `json:"is_closed"`
	ActualReturnDate *Date            `json:"actual_return_date,omitempty"`
	ReturnDate       *Date            `json:"return_date,omitempty"`
	OverdueDays      *int             `json:"overdue_days,omitempty"`
	Body             int32            `json:"body"`
	Percent          decimal.Decimal  `json:"percent"`
	TotalPayments    *decimal.Decimal `json:"total_payments,omitempty"`
	BodyPayments     *decimal.Decimal `json:"body_payments,omitempty"`
	PercentPayments  *decimal.Decimal `json:"percent_payments,omitempty"`
}

// MonthPerformance compares one month's issuances and payments to plan.
// Percentages are rounded to two places and are zero when the plan is zero.
type MonthPerformance struct {
	Month               int             `json:"month"`
	Issuances           int64           `json:"issuances"`
	IssuancePlan        decimal.Decimal `json:"plan_sum_issuances"`
	IssuedSum           decimal.Decimal `json:"sum_issuances"`
	IssuancePlanPercent decimal.Decimal `json:"issuance_plan_percent"`
	Payments            int64           `json:"payments"`
	PaymentPlan         decimal.Decimal `json:"plan_sum_payments"`
	PaidSum             decimal.Decimal `json:"sum_payments"`
	PaymentPlanPercent  decimal.Decimal `json:"payment_plan_percent"`
	IssuanceYearShare   decimal.Decimal `json:"issuance_year_share_percent"`
	PaymentYearShare    decimal.Decimal `json:"payment_year_share_percent"`
}

// YearPerformance is the monthly breakdown plus yearly totals.
type YearPerformance struct {
	Year   int                `json:"year"`
	Months []MonthPerformance `json:"months"`
	Total  MonthPerformance   `json:"total"`
}

// ImportRun is a recorded load run.
type ImportRun struct {
	ID         string    `json:"id"`
	Entity     string    `json:"entity"`
	FileName   string    `json:"file_name"`
	TotalRows  int       `json:"total_rows"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Unchanged  int       `json:"unchanged"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
