package core

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ----------------------------------------------------------------------------
// ParseDecimal Tests
// ----------------------------------------------------------------------------

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantValue string
	}{
		{name: "integer", input: "123", wantValue: "123"},
		{name: "decimal", input: "19.99", wantValue: "19.99"},
		{name: "negative", input: "-4.5", wantValue: "-4.5"},
		{name: "leading decimal point", input: ".99", wantValue: "0.99"},
		{name: "dollar sign", input: "$9.99", wantValue: "9.99"},
		{name: "euro sign", input: "€1,234.50", wantValue: "1234.5"},
		{name: "thousands separators", input: "1,234,567.89", wantValue: "1234567.89"},
		{name: "space separators", input: "1 234", wantValue: "1234"},
		{name: "accounting negative", input: "(12.50)", wantValue: "-12.5"},
		{name: "excel formula", input: `="42.10"`, wantValue: "42.1"},
		{name: "scientific", input: "1.5e3", wantValue: "1500"},
		{name: "three digit exponent", input: "1e-100", wantValue: "1e-100"},
		{name: "surrounding whitespace", input: "  7.25  ", wantValue: "7.25"},

		{name: "letters", input: "notanumber", wantErr: true},
		{name: "two points", input: "1.2.3", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "only currency", input: "$", wantErr: true},
		{name: "huge exponent", input: "1e999999999", wantErr: true},
		{name: "huge negative exponent", input: "2.5E-999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDecimal(%q) = %s, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimal(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.wantValue)) {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input, got, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseInteger Tests
// ----------------------------------------------------------------------------

func TestParseInteger(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int32
		wantErr bool
	}{
		{name: "plain", input: "100", want: 100},
		{name: "signed", input: "-7", want: -7},
		{name: "thousands", input: "1,200", want: 1200},
		{name: "float with zero fraction", input: "500.0", want: 500},
		{name: "max int32", input: "2147483647", want: 2147483647},

		{name: "fraction", input: "1.5", wantErr: true},
		{name: "overflow", input: "2147483648", wantErr: true},
		{name: "overflow by exponent", input: "1e999", wantErr: true},
		{name: "huge exponent", input: "1e999999999", wantErr: true},
		{name: "text", input: "abc", wantErr: true},
		{name: "empty", input: " ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInteger(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseInteger(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInteger(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseInteger(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	d := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		input    string
		dayFirst bool
		want     time.Time
		wantErr  bool
	}{
		{name: "iso", input: "2024-03-05", dayFirst: true, want: d(2024, 3, 5)},
		{name: "iso month first", input: "2024-03-05", want: d(2024, 3, 5)},
		{name: "iso with time", input: "2024-03-05 14:30:00", dayFirst: true, want: d(2024, 3, 5)},
		{name: "dotted day first", input: "05.03.2024", dayFirst: true, want: d(2024, 3, 5)},
		{name: "slashed day first", input: "05/03/2024", dayFirst: true, want: d(2024, 3, 5)},
		{name: "slashed month first", input: "05/03/2024", want: d(2024, 5, 3)},
		{name: "single digits day first", input: "5/3/2024", dayFirst: true, want: d(2024, 3, 5)},
		{name: "two digit year", input: "05.03.24", dayFirst: true, want: d(2024, 3, 5)},
		{name: "two digit year previous century", input: "05.03.85", dayFirst: true, want: d(1985, 3, 5)},
		{name: "month name", input: "Mar 5, 2024", want: d(2024, 3, 5)},
		{name: "compact", input: "20240305", dayFirst: true, want: d(2024, 3, 5)},

		{name: "day 13 read as month", input: "13/01/2024", wantErr: true},
		{name: "day 13 day first", input: "13/01/2024", dayFirst: true, want: d(2024, 1, 13)},
		{name: "impossible date", input: "31.02.2024", dayFirst: true, wantErr: true},
		{name: "garbage", input: "yesterday", dayFirst: true, wantErr: true},
		{name: "empty", input: "", dayFirst: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input, tt.dayFirst)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseBool Tests
// ----------------------------------------------------------------------------

func TestParseBool(t *testing.T) {
	for _, in := range []string{"true", "T", "yes", "Y", "1"} {
		if got, err := ParseBool(in); err != nil || !got {
			t.Errorf("ParseBool(%q) = %v, %v; want true", in, got, err)
		}
	}
	for _, in := range []string{"false", "F", "no", "n", "0"} {
		if got, err := ParseBool(in); err != nil || got {
			t.Errorf("ParseBool(%q) = %v, %v; want false", in, got, err)
		}
	}
	if _, err := ParseBool("maybe"); err == nil {
		t.Error("ParseBool(maybe) should fail")
	}
}

// ----------------------------------------------------------------------------
// pgtype conversion Tests
// ----------------------------------------------------------------------------

func TestPgNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "9.99", "-12.5", "1234567.89", "0.001"} {
		d := decimal.RequireFromString(s)
		n := PgNumeric(d)
		if !n.Valid {
			t.Fatalf("PgNumeric(%s) invalid", s)
		}
		if back := DecimalFromPg(n); !back.Equal(d) {
			t.Errorf("DecimalFromPg(PgNumeric(%s)) = %s", s, back)
		}
	}

	if got := DecimalFromPg(pgtype.Numeric{}); !got.IsZero() {
		t.Errorf("DecimalFromPg(NULL) = %s, want 0", got)
	}
}

func TestPgDateHelpers(t *testing.T) {
	if got := PgDatePtr(nil); got.Valid {
		t.Error("PgDatePtr(nil) should be NULL")
	}
	if got := DatePtrFromPg(pgtype.Date{}); got != nil {
		t.Errorf("DatePtrFromPg(NULL) = %v, want nil", got)
	}

	in := time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)
	back := DatePtrFromPg(PgDate(in))
	want := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if back == nil || !back.Equal(want) {
		t.Errorf("date round trip = %v, want %v", back, want)
	}
}

func TestPgInt4Helpers(t *testing.T) {
	if PgInt4Ptr(nil).Valid {
		t.Error("PgInt4Ptr(nil) should be NULL")
	}
	v := int32(7)
	if got := Int32PtrFromPg(PgInt4Ptr(&v)); got == nil || *got != 7 {
		t.Errorf("int4 round trip = %v", got)
	}
}

func TestPgUUID(t *testing.T) {
	id := "9b2f0d4e-6c53-4bb7-8d0e-6a1f3c2b9e10"
	if got := PgUUIDToString(ToPgUUID(id)); got != id {
		t.Errorf("uuid round trip = %q, want %q", got, id)
	}
	if ToPgUUID("not-a-uuid").Valid {
		t.Error("invalid uuid should be NULL")
	}
}

// ----------------------------------------------------------------------------
// CleanCell / MakeHeaderIndex Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{`="00123"`, "00123"},
		{`=" 7 "`, "7"},
		{"=Basic", "=Basic"},
		{`Pro "Plus"`, `Pro "Plus"`},
		{`"quoted"`, `"quoted"`},
		{"'Tis plan'", "'Tis plan'"},
		{`="`, `="`},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{" ID ", "Login", "registration_date", "login"})

	if idx["id"] != 0 {
		t.Errorf("id = %d, want 0", idx["id"])
	}
	if idx["login"] != 1 {
		t.Errorf("login = %d, want 1 (first occurrence wins)", idx["login"])
	}
	if idx["registration_date"] != 2 {
		t.Errorf("registration_date = %d, want 2", idx["registration_date"])
	}
}
