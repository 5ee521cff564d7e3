package core

// convert.go turns raw CSV cells into typed values and typed values into
// pgtype parameters.
//
// The Parse* functions handle the messy reality of operator-provided files:
//   - Day-first and month-first dates with 2 or 4 digit years
//   - Currency symbols and thousand separators in numbers
//   - Accounting negatives like "(12.50)"
//   - Excel formula prefixes (="value")

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation with at most a
// three-digit exponent; larger exponents make decimal arithmetic unbounded.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d{1,3})?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

var errEmptyValue = errors.New("empty value")

// Unambiguous layouts, tried first regardless of day/month order.
var isoLayouts = []string{
	"2006-01-02", "2006/01/02", "2006.01.02",
	"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339,
	"Jan 2, 2006", "2 Jan 2006", "02-Jan-2006",
	"20060102",
}

var (
	dayFirstLayouts = []string{
		"02.01.2006", "2.1.2006", "02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006",
		"02.01.2006 15:04:05", "02/01/2006 15:04:05",
	}
	dayFirstShortLayouts = []string{
		"02.01.06", "2.1.06", "02/01/06", "2/1/06", "2-1-06",
	}
	monthFirstLayouts = []string{
		"01/02/2006", "1/2/2006", "01-02-2006", "1-2-2006", "01.02.2006", "1.2.2006",
		"01/02/2006 15:04:05",
	}
	monthFirstShortLayouts = []string{
		"01/02/06", "1/2/06", "1-2-06", "1.2.06", "01.02.06",
	}
)

// ParseDate parses a date cell. dayFirst selects between 02/01/2006 and
// 01/02/2006 readings of ambiguous dates. The result is midnight UTC.
func ParseDate(s string, dayFirst bool) (time.Time, error) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, errEmptyValue
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}

	long, short := monthFirstLayouts, monthFirstShortLayouts
	if dayFirst {
		long, short = dayFirstLayouts, dayFirstShortLayouts
	}

	for _, layout := range long {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range short {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return truncateDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDecimal parses a money or rate cell.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Zero, errEmptyValue
	}
	raw := s

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer(
		"$", "",
		"€", "", // Euro
		"£", "", // Pound
		"₴", "", // Hryvnia
		",", "",
		"\u00a0", "",
		" ", "",
	).Replace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid number %q", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", raw)
	}
	return d, nil
}

// ParseInteger parses a whole-number cell that must fit in int32.
// "1,200" and "100.0" are accepted; "1.5" is not.
func ParseInteger(s string) (int32, error) {
	raw := CleanCell(s)
	if raw == "" {
		return 0, errEmptyValue
	}

	d, err := ParseDecimal(raw)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	if d.LessThan(decimal.NewFromInt(math.MinInt32)) || d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, fmt.Errorf("invalid integer %q: out of range", raw)
	}
	return int32(d.IntPart()), nil
}

// ParseBool accepts various representations: true/false, yes/no, t/f, y/n, 1/0.
func ParseBool(s string) (bool, error) {
	v := strings.ToLower(CleanCell(s))
	switch v {
	case "":
		return false, errEmptyValue
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool %q", s)
	}
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// PgDate converts a date to pgtype.Date.
func PgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: truncateDay(t), Valid: true}
}

// PgDatePtr converts an optional date; nil becomes NULL.
func PgDatePtr(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{Valid: false}
	}
	return PgDate(*t)
}

// PgNumeric converts a decimal to pgtype.Numeric without losing precision.
func PgNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// PgInt4Ptr converts an optional integer; nil becomes NULL.
func PgInt4Ptr(i *int32) pgtype.Int4 {
	if i == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: *i, Valid: true}
}

// DateFromPg returns the date or the zero time for NULL.
func DateFromPg(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return truncateDay(d.Time)
}

// DatePtrFromPg returns nil for NULL.
func DatePtrFromPg(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := truncateDay(d.Time)
	return &t
}

// DecimalFromPg returns zero for NULL and NaN.
func DecimalFromPg(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// Int32PtrFromPg returns nil for NULL.
func Int32PtrFromPg(i pgtype.Int4) *int32 {
	if !i.Valid {
		return nil
	}
	v := i.Int32
	return &v
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func pgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; dup {
			continue // first occurrence wins
		}
		idx[key] = i
	}
	return idx
}

// CleanCell trims whitespace and unwraps the Excel text artifact ="...".
// Quotes and a leading = inside a value are data and are kept.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}

	return s
}
