// Package tables registers the creditdesk entities with the core registry.
// Import this package for its side effects before using the loader.
package tables

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/creditdesk/internal/core"
	"github.com/JonMunkholm/creditdesk/internal/models"
)

// Each entity file registers itself from init().

// validated runs the struct-tag checks on rec.
func validated[T core.Record](rec T) (core.Record, error) {
	if err := models.Validate(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// lookupResult converts a single-row query result into LookupFunc results.
func lookupResult[T core.Record](rec T, err error) (core.Record, bool, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func equalAs[T interface{ Equal(T) bool }](a, b core.Record) bool {
	return a.(T).Equal(b.(T))
}
