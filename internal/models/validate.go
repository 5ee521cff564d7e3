package models

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their CSV column name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("csv"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// Compare decimals numerically for gte/gt/lte tags.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return decimalFloat(d)
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("firstofmonth", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && t.Day() == 1
	}); err != nil {
		panic(fmt.Sprintf("register firstofmonth validation: %v", err))
	}

	return v
}

// decimalFloat converts d without expanding its exponent. Magnitudes outside
// the float64 range become ±Inf or the smallest nonzero float of d's sign.
func decimalFloat(d decimal.Decimal) float64 {
	sign := d.Sign()
	if sign == 0 {
		return 0
	}
	switch mag := int(d.Exponent()) + d.NumDigits(); {
	case mag > 310:
		return math.Inf(sign)
	case mag < -325:
		return float64(sign) * math.SmallestNonzeroFloat64
	}
	return d.InexactFloat64()
}

// Validate checks a record against its struct tags.
// The returned error lists every failing field, e.g.
// "validation failed: price must be >= 0; name is required".
func Validate(record any) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, toColumn(fe.Param()))
	case "firstofmonth":
		return field + " must be the first day of the month"
	default:
		return fmt.Sprintf("%s failed %q check", field, fe.Tag())
	}
}

// toColumn converts a Go field name (IssuanceDate) to its column name (issuance_date).
func toColumn(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
