package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertImportRun = `-- name: InsertImportRun :exec
INSERT INTO import_runs (
    id, entity, file_name, total_rows, inserted, updated, unchanged, skipped, failed,
    error, started_at, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

type InsertImportRunParams struct {
	ID         pgtype.UUID
	Entity     string
	FileName   string
	TotalRows  int32
	Inserted   int32
	Updated    int32
	Unchanged  int32
	Skipped    int32
	Failed     int32
	Error      pgtype.Text
	StartedAt  pgtype.Timestamptz
	FinishedAt pgtype.Timestamptz
}

func (q *Queries) InsertImportRun(ctx context.Context, arg InsertImportRunParams) error {
	_, err := q.db.Exec(ctx, insertImportRun,
		arg.ID,
		arg.Entity,
		arg.FileName,
		arg.TotalRows,
		arg.Inserted,
		arg.Updated,
		arg.Unchanged,
		arg.Skipped,
		arg.Failed,
		arg.Error,
		arg.StartedAt,
		arg.FinishedAt,
	)
	return err
}

const listImportRuns = `-- name: ListImportRuns :many
SELECT id, entity, file_name, total_rows, inserted, updated, unchanged, skipped, failed,
       error, started_at, finished_at
FROM import_runs
WHERE ($1::text = '' OR entity = $1)
ORDER BY started_at DESC
LIMIT $2
`

type ListImportRunsParams struct {
	Entity string
	Limit  int32
}

func (q *Queries) ListImportRuns(ctx context.Context, arg ListImportRunsParams) ([]ImportRun, error) {
	rows, err := q.db.Query(ctx, listImportRuns, arg.Entity, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImportRun
	for rows.Next() {
		var i ImportRun
		if err := rows.Scan(
			&i.ID,
			&i.Entity,
			&i.FileName,
			&i.TotalRows,
			&i.Inserted,
			&i.Updated,
			&i.Unchanged,
			&i.Skipped,
			&i.Failed,
			&i.Error,
			&i.StartedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
