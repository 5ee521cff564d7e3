package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/creditdesk/internal/core"
)

// ParseDelimiter converts LOADER_DELIMITER to a rune. "tab" and `\t` select
// a tab; anything else must be a single character.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", ",", "comma":
		return ',', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case "semicolon":
		return ';', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("%q is not a single character", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("%q cannot be used as a delimiter", s)
	}
	return r, nil
}

// Options converts the loader settings for core.NewLoader.
func (c LoaderConfig) Options() (core.LoaderOptions, error) {
	delim, err := ParseDelimiter(c.Delimiter)
	if err != nil {
		return core.LoaderOptions{}, fmt.Errorf("delimiter: %w", err)
	}
	opts := core.LoaderOptions{
		DataDir:     c.DataDir,
		Delimiter:   delim,
		DayFirst:    c.DayFirst,
		OnDuplicate: core.DuplicatePolicy(strings.ToLower(c.OnDuplicate)),
		Commit:      core.CommitMode(strings.ToLower(c.Commit)),
		MaxFileSize: c.MaxFileSize.Bytes(),
		Timeout:     c.Timeout,
	}
	if err := opts.Validate(); err != nil {
		return core.LoaderOptions{}, err
	}
	return opts, nil
}

// Core converts the report settings for core.NewService.
func (c ReportConfig) Core() core.ReportConfig {
	return core.ReportConfig{
		IssuanceCategory:   c.IssuanceCategory,
		CollectionCategory: c.CollectionCategory,
		BodyPaymentType:    c.BodyPaymentType,
		PercentPaymentType: c.PercentPaymentType,
	}
}
