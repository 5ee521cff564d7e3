package database

import (
	"context"
)

const acquireTableLock = `-- name: AcquireTableLock :exec
SELECT pg_advisory_xact_lock(hashtext($1))
`

// AcquireTableLock blocks until the transaction-scoped advisory lock for the
// named table is held. The lock is released on commit or rollback.
func (q *Queries) AcquireTableLock(ctx context.Context, table string) error {
	_, err := q.db.Exec(ctx, acquireTableLock, table)
	return err
}
