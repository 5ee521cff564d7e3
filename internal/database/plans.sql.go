package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getPlan = `-- name: GetPlan :one
SELECT id, name, price, credits FROM plans
WHERE id = $1
`

func (q *Queries) GetPlan(ctx context.Context, id int32) (Plan, error) {
	row := q.db.QueryRow(ctx, getPlan, id)
	var i Plan
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.Credits)
	return i, err
}

const insertPlan = `-- name: InsertPlan :exec
INSERT INTO plans (id, name, price, credits)
VALUES ($1, $2, $3, $4)
`

type InsertPlanParams struct {
	ID      int32
	Name    string
	Price   pgtype.Numeric
	Credits int32
}

func (q *Queries) InsertPlan(ctx context.Context, arg InsertPlanParams) error {
	_, err := q.db.Exec(ctx, insertPlan, arg.ID, arg.Name, arg.Price, arg.Credits)
	return err
}

const updatePlan = `-- name: UpdatePlan :exec
UPDATE plans SET name = $2, price = $3, credits = $4
WHERE id = $1
`

type UpdatePlanParams struct {
	ID      int32
	Name    string
	Price   pgtype.Numeric
	Credits int32
}

func (q *Queries) UpdatePlan(ctx context.Context, arg UpdatePlanParams) error {
	_, err := q.db.Exec(ctx, updatePlan, arg.ID, arg.Name, arg.Price, arg.Credits)
	return err
}
