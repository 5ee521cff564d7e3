package tables

import "strings"

// DictionaryAliases maps alternative spellings of dictionary names to the
// names reports look up.
var DictionaryAliases = map[string]string{
	"principal":       "body",
	"loan body":       "body",
	"interest":        "percent",
	"percents":        "percent",
	"issue":           "issuance",
	"issuances":       "issuance",
	"disbursement":    "issuance",
	"collections":     "collection",
	"repayment":       "collection",
	"repayments":      "collection",
	"payment plan":    "collection",
	"issuance plan":   "issuance",
	"body payment":    "body",
	"percent payment": "percent",
}

// NormalizeDictionaryName lowercases s, collapses inner whitespace and
// resolves known aliases. Unknown names are returned cleaned but otherwise
// unchanged.
func NormalizeDictionaryName(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	if canonical, ok := DictionaryAliases[s]; ok {
		return canonical
	}
	return s
}

// NormalizeLogin trims surrounding whitespace. Logins keep their case.
func NormalizeLogin(s string) string {
	return strings.TrimSpace(s)
}
