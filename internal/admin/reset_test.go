package admin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/creditdesk/internal/core"
)

type recordingTx struct {
	pgx.Tx
	execs      []string
	failOn     string
	committed  bool
	rolledBack bool
}

func (t *recordingTx) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	stmt := strings.TrimSpace(sql[strings.Index(sql, "\n")+1:])
	t.execs = append(t.execs, stmt)
	if t.failOn != "" && stmt == t.failOn {
		return pgconn.CommandTag{}, &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"}
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (t *recordingTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *recordingTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakePool struct{ tx *recordingTx }

func (p *fakePool) Begin(context.Context) (pgx.Tx, error) { return p.tx, nil }

func TestResetAll(t *testing.T) {
	tx := &recordingTx{}
	r := &ResetDbs{Pool: &fakePool{tx: tx}}

	require.NoError(t, r.ResetAll(context.Background()))
	assert.Equal(t, []string{
		"DELETE FROM payments",
		"DELETE FROM credits",
		"DELETE FROM plans",
		"DELETE FROM users",
		"DELETE FROM plan_targets",
		"DELETE FROM dictionary",
		"DELETE FROM import_runs",
	}, tx.execs)
	assert.True(t, tx.committed)
}

func TestReset_OrdersDependentsFirst(t *testing.T) {
	tx := &recordingTx{}
	r := &ResetDbs{Pool: &fakePool{tx: tx}}

	require.NoError(t, r.Reset(context.Background(), "users", "payments"))
	assert.Equal(t, []string{"DELETE FROM payments", "DELETE FROM users"}, tx.execs)
}

func TestReset_ForeignKeyRollsBack(t *testing.T) {
	tx := &recordingTx{failOn: "DELETE FROM users"}
	r := &ResetDbs{Pool: &fakePool{tx: tx}}

	err := r.Reset(context.Background(), "users")
	require.Error(t, err)
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestReset_UnknownEntity(t *testing.T) {
	tx := &recordingTx{}
	r := &ResetDbs{Pool: &fakePool{tx: tx}}

	err := r.Reset(context.Background(), "loans")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownEntity)
	assert.Empty(t, tx.execs)
}
