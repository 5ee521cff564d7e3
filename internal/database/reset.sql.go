package database

import (
	"context"
)

const resetPayments = `-- name: ResetPayments :exec
DELETE FROM payments
`

func (q *Queries) ResetPayments(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetPayments)
	return err
}

const resetCredits = `-- name: ResetCredits :exec
DELETE FROM credits
`

func (q *Queries) ResetCredits(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetCredits)
	return err
}

const resetPlanTargets = `-- name: ResetPlanTargets :exec
DELETE FROM plan_targets
`

func (q *Queries) ResetPlanTargets(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetPlanTargets)
	return err
}

const resetPlans = `-- name: ResetPlans :exec
DELETE FROM plans
`

func (q *Queries) ResetPlans(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetPlans)
	return err
}

const resetUsers = `-- name: ResetUsers :exec
DELETE FROM users
`

func (q *Queries) ResetUsers(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetUsers)
	return err
}

const resetDictionary = `-- name: ResetDictionary :exec
DELETE FROM dictionary
`

func (q *Queries) ResetDictionary(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetDictionary)
	return err
}

const resetImportRuns = `-- name: ResetImportRuns :exec
DELETE FROM import_runs
`

func (q *Queries) ResetImportRuns(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetImportRuns)
	return err
}
