// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/creditdesk/internal/core"
	db "github.com/JonMunkholm/creditdesk/internal/database"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// TxBeginner starts the transaction a reset runs in.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ResetDbs deletes loaded data.
type ResetDbs struct {
	Pool TxBeginner
}

type dbResetFn func(q *db.Queries, ctx context.Context) error

// resets lists each entity's reset, dependents first. plan_targets and
// import_runs are cleared with dictionary and by ResetAll respectively.
var resets = []struct {
	entity string
	fns    []dbResetFn
}{
	{"payments", []dbResetFn{(*db.Queries).ResetPayments}},
	{"credits", []dbResetFn{(*db.Queries).ResetCredits}},
	{"plans", []dbResetFn{(*db.Queries).ResetPlans}},
	{"users", []dbResetFn{(*db.Queries).ResetUsers}},
	{"dictionary", []dbResetFn{(*db.Queries).ResetPlanTargets, (*db.Queries).ResetDictionary}},
}

// ResetAll deletes every loaded row and the import history in one
// transaction. This is a destructive operation.
func (r *ResetDbs) ResetAll(ctx context.Context) error {
	var fns []dbResetFn
	for _, rs := range resets {
		fns = append(fns, rs.fns...)
	}
	fns = append(fns, (*db.Queries).ResetImportRuns)
	return r.runResets(ctx, fns)
}

// Reset deletes the rows of the named entities, dependents first. Rows still
// referenced by another table make the reset fail with a foreign key error
// and nothing is deleted.
func (r *ResetDbs) Reset(ctx context.Context, entities ...string) error {
	want := make(map[string]bool, len(entities))
	for _, e := range entities {
		want[e] = true
	}

	var fns []dbResetFn
	for _, rs := range resets {
		if want[rs.entity] {
			fns = append(fns, rs.fns...)
			delete(want, rs.entity)
		}
	}
	for e := range want {
		return fmt.Errorf("%w: %q", core.ErrUnknownEntity, e)
	}
	return r.runResets(ctx, fns)
}

func (r *ResetDbs) runResets(ctx context.Context, fns []dbResetFn) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback(ctx)

	q := db.New(tx)
	for _, reset := range fns {
		if err := reset(q, ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return tx.Commit(ctx)
}
