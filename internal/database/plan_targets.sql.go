package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const planTargetExists = `-- name: PlanTargetExists :one
SELECT EXISTS (
    SELECT 1 FROM plan_targets
    WHERE period = $1 AND category_id = $2
)
`

type PlanTargetExistsParams struct {
	Period     pgtype.Date
	CategoryID int32
}

func (q *Queries) PlanTargetExists(ctx context.Context, arg PlanTargetExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, planTargetExists, arg.Period, arg.CategoryID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertPlanTarget = `-- name: InsertPlanTarget :exec
INSERT INTO plan_targets (period, sum, category_id)
VALUES ($1, $2, $3)
`

type InsertPlanTargetParams struct {
	Period     pgtype.Date
	Sum        int32
	CategoryID int32
}

func (q *Queries) InsertPlanTarget(ctx context.Context, arg InsertPlanTargetParams) error {
	_, err := q.db.Exec(ctx, insertPlanTarget, arg.Period, arg.Sum, arg.CategoryID)
	return err
}
