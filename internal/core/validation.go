package core

// validation.go checks headers and coerces CSV rows before a record is built.
//
// Validation happens at two levels:
//  1. Header validation: required columns must be present (fatal for the run)
//  2. Row coercion: each cell is converted to its FieldSpec type (row failure)

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Row holds the coerced values of one CSV line keyed by lowercase column name.
// Empty optional cells are absent.
type Row struct {
	Line   int
	values map[string]any
}

// NewRow builds a Row from already typed values. Keys are matched case-insensitively.
func NewRow(line int, values map[string]any) Row {
	r := Row{Line: line, values: make(map[string]any, len(values))}
	for k, v := range values {
		r.values[strings.ToLower(k)] = v
	}
	return r
}

// Has reports whether the column holds a non-empty value.
func (r Row) Has(name string) bool {
	_, ok := r.values[strings.ToLower(name)]
	return ok
}

func (r Row) Text(name string) string {
	s, _ := r.values[strings.ToLower(name)].(string)
	return s
}

func (r Row) Int32(name string) int32 {
	i, _ := r.values[strings.ToLower(name)].(int32)
	return i
}

// OptInt32 returns nil when the cell was empty.
func (r Row) OptInt32(name string) *int32 {
	i, ok := r.values[strings.ToLower(name)].(int32)
	if !ok {
		return nil
	}
	return &i
}

func (r Row) Decimal(name string) decimal.Decimal {
	d, ok := r.values[strings.ToLower(name)].(decimal.Decimal)
	if !ok {
		return decimal.Zero
	}
	return d
}

func (r Row) Date(name string) time.Time {
	t, _ := r.values[strings.ToLower(name)].(time.Time)
	return t
}

// OptDate returns nil when the cell was empty.
func (r Row) OptDate(name string) *time.Time {
	t, ok := r.values[strings.ToLower(name)].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

func (r Row) Bool(name string) bool {
	b, _ := r.values[strings.ToLower(name)].(bool)
	return b
}

// CoerceRow converts the cells of record into typed values according to specs.
// The first failing cell is returned as a ValidationError.
func CoerceRow(line int, record []string, idx HeaderIndex, specs []FieldSpec, dayFirst bool) (Row, error) {
	row := Row{Line: line, values: make(map[string]any, len(specs))}

	for _, field := range specs {
		key := strings.ToLower(field.Name)
		pos, ok := idx[key]
		if !ok || pos >= len(record) {
			if field.Required {
				return Row{}, ValidationError{Field: field.Name, Message: "missing required column"}
			}
			continue
		}

		raw := CleanCell(record[pos])
		if field.Normalizer != nil && raw != "" {
			raw = field.Normalizer(raw)
		}

		if raw == "" {
			if field.Required && !field.AllowEmpty {
				return Row{}, ValidationError{Field: field.Name, Message: "required field is empty"}
			}
			continue
		}

		v, err := coerceCell(raw, field.Type, dayFirst)
		if err != nil {
			return Row{}, ValidationError{Field: field.Name, Value: raw, Message: err.Error()}
		}
		row.values[key] = v
	}

	return row, nil
}

func coerceCell(raw string, ft FieldType, dayFirst bool) (any, error) {
	switch ft {
	case FieldInteger:
		return ParseInteger(raw)
	case FieldNumeric:
		return ParseDecimal(raw)
	case FieldDate:
		return ParseDate(raw, dayFirst)
	case FieldBool:
		return ParseBool(raw)
	default:
		return raw, nil
	}
}

// ValidateHeaders validates that all required columns exist in the CSV headers.
// Returns a mapping from column name to index, or an ErrHeaderMismatch listing
// missing columns.
func ValidateHeaders(headers []string, specs []FieldSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, field := range specs {
		if field.Required {
			key := strings.ToLower(field.Name)
			if _, ok := idx[key]; !ok {
				missing = append(missing, field.Name)
			}
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrHeaderMismatch, strings.Join(missing, ", "))
	}

	return idx, nil
}

// fieldTypeName returns a human-readable name for a field type.
func fieldTypeName(ft FieldType) string {
	switch ft {
	case FieldText:
		return "text"
	case FieldInteger:
		return "integer"
	case FieldNumeric:
		return "numeric"
	case FieldDate:
		return "date"
	case FieldBool:
		return "bool"
	default:
		return "value"
	}
}

// String returns the type name used in entity listings.
func (ft FieldType) String() string { return fieldTypeName(ft) }
