package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"

	db "github.com/JonMunkholm/creditdesk/internal/database"
	"github.com/JonMunkholm/creditdesk/internal/models"
)

// PlanTargetSpecs are the columns of a monthly plan-target file.
var PlanTargetSpecs = []FieldSpec{
	{Name: "period", Type: FieldDate, Required: true},
	{Name: "sum", Type: FieldInteger, Required: true},
	{Name: "category_id", Type: FieldInteger, Required: true},
}

const planTargetsTable = "plan_targets"

type lineTarget struct {
	line   int
	target models.PlanTarget
}

// ImportPlanTargets inserts the monthly targets in r. The import is
// all-or-nothing: the first invalid row, or a (period, category_id) pair
// that already exists, aborts it and nothing is written. It returns the
// number of targets inserted.
func (s *Service) ImportPlanTargets(ctx context.Context, fileName string, r io.Reader) (int, error) {
	opts := s.loader.Options()
	targets, err := readPlanTargets(r, opts.Delimiter, opts.DayFirst, opts.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", fileName, err)
	}
	if len(targets) == 0 {
		return 0, nil
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		q := s.targetsFor(tx)
		if err := q.AcquireTableLock(ctx, planTargetsTable); err != nil {
			return fmt.Errorf("lock %s: %w", planTargetsTable, err)
		}
		for _, lt := range targets {
			t := lt.target
			exists, err := q.PlanTargetExists(ctx, db.PlanTargetExistsParams{
				Period:     PgDate(t.Period),
				CategoryID: t.CategoryID,
			})
			if err != nil {
				return fmt.Errorf("line %d: check existing target: %w", lt.line, err)
			}
			if exists {
				return fmt.Errorf("line %d: %w for period %s and category %d",
					lt.line, ErrPlanTargetExists, NewDate(t.Period), t.CategoryID)
			}
			if err := q.InsertPlanTarget(ctx, db.InsertPlanTargetParams{
				Period:     PgDate(t.Period),
				Sum:        t.Sum,
				CategoryID: t.CategoryID,
			}); err != nil {
				return fmt.Errorf("line %d: insert target: %w", lt.line, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("plan targets imported", "file", fileName, "count", len(targets))
	return len(targets), nil
}

// readPlanTargets parses and validates every row before anything is written.
func readPlanTargets(r io.Reader, delimiter rune, dayFirst bool, maxBytes int64) ([]lineTarget, error) {
	reader := csv.NewReader(WrapInput(r, maxBytes))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", classifyReadErr(err))
	}
	idx, err := ValidateHeaders(header, PlanTargetSpecs)
	if err != nil {
		return nil, err
	}

	type key struct {
		period   string
		category int32
	}
	seen := make(map[key]int)

	var out []lineTarget
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) && pe.Err != ErrFileTooLarge {
				return nil, fmt.Errorf("line %d: %w", pe.Line, RowErrorf("%s: %v", ErrInvalidCSV, pe.Err))
			}
			return nil, classifyReadErr(err)
		}
		if isEmptyRow(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(header) {
			return nil, fmt.Errorf("line %d: %w", line, RowErrorf("expected %d columns, got %d", len(header), len(record)))
		}

		row, err := CoerceRow(line, record, idx, PlanTargetSpecs, dayFirst)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t := models.PlanTarget{
			Period:     row.Date("period"),
			Sum:        row.Int32("sum"),
			CategoryID: row.Int32("category_id"),
		}
		if err := models.Validate(t); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, &RowError{Reason: err.Error()})
		}

		k := key{NewDate(t.Period).String(), t.CategoryID}
		if first, dup := seen[k]; dup {
			return nil, fmt.Errorf("line %d: %w for period %s and category %d (repeats line %d)",
				line, ErrPlanTargetExists, k.period, k.category, first)
		}
		seen[k] = line
		out = append(out, lineTarget{line: line, target: t})
	}
}
