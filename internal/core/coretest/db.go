// Package coretest provides an in-memory stand-in for the PostgreSQL pool
// and transactions used by the loader.
//
// Rows live in named tables keyed by natural key. Writes made through a Tx
// are journaled so SAVEPOINT, ROLLBACK TO SAVEPOINT and Rollback undo them
// the way PostgreSQL would.
package coretest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUnsupported is returned for SQL the fake does not interpret.
var ErrUnsupported = errors.New("coretest: unsupported statement")

// DB is a fake connection pool.
type DB struct {
	mu     sync.Mutex
	tables map[string]map[string]any

	// BeginErr, when set, is returned by Begin.
	BeginErr error
	// ExecErr, when set, is consulted for every Tx.Exec; a non-nil result
	// is returned instead of executing the statement.
	ExecErr func(sql string) error
	// CommitErr, when set, is returned by Tx.Commit.
	CommitErr error

	Begins     int
	Commits    int
	Rollbacks  int
	Locks      []string
	Statements []string
}

func NewDB() *DB {
	return &DB{tables: make(map[string]map[string]any)}
}

// Begin starts a fake transaction.
func (d *DB) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.BeginErr != nil {
		return nil, d.BeginErr
	}
	d.Begins++
	return &Tx{db: d}, nil
}

func (d *DB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, ErrUnsupported
}

func (d *DB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, ErrUnsupported
}

func (d *DB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return errRow{ErrUnsupported}
}

func (d *DB) Ping(context.Context) error { return nil }

// Seed stores a committed row.
func (d *DB) Seed(table, key string, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.put(table, key, v)
}

// Get returns the committed row for key.
func (d *DB) Get(table, key string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.tables[table][key]
	return v, ok
}

// Len returns the number of rows in table.
func (d *DB) Len(table string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tables[table])
}

// Keys returns the sorted keys of table.
func (d *DB) Keys(table string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.tables[table]))
	for k := range d.tables[table] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *DB) put(table, key string, v any) {
	t, ok := d.tables[table]
	if !ok {
		t = make(map[string]any)
		d.tables[table] = t
	}
	t[key] = v
}

func (d *DB) restore(e entry) {
	if e.existed {
		d.put(e.table, e.key, e.prev)
		return
	}
	delete(d.tables[e.table], e.key)
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// entry is either a savepoint marker or the prior state of one written row.
type entry struct {
	savepoint string
	table     string
	key       string
	prev      any
	existed   bool
}

// Tx is a fake pgx.Tx. Methods the loader does not use panic through the
// nil embedded interface.
type Tx struct {
	pgx.Tx
	db      *DB
	journal []entry
	done    bool
}

// Exec interprets savepoint statements and advisory locks.
func (t *Tx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if t.done {
		return pgconn.CommandTag{}, pgx.ErrTxClosed
	}
	if err := ctx.Err(); err != nil {
		return pgconn.CommandTag{}, err
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.db.Statements = append(t.db.Statements, sql)
	if t.db.ExecErr != nil {
		if err := t.db.ExecErr(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}

	stmt := strings.TrimSpace(sql)
	upper := strings.ToUpper(stmt)
	switch {
	case strings.HasPrefix(upper, "SAVEPOINT "):
		t.journal = append(t.journal, entry{savepoint: strings.TrimSpace(stmt[len("SAVEPOINT "):])})
		return pgconn.NewCommandTag("SAVEPOINT"), nil

	case strings.HasPrefix(upper, "ROLLBACK TO SAVEPOINT "):
		name := strings.TrimSpace(stmt[len("ROLLBACK TO SAVEPOINT "):])
		i := t.marker(name)
		if i < 0 {
			return pgconn.CommandTag{}, fmt.Errorf("savepoint %q does not exist", name)
		}
		for j := len(t.journal) - 1; j > i; j-- {
			if t.journal[j].savepoint == "" {
				t.db.restore(t.journal[j])
			}
		}
		t.journal = t.journal[:i+1]
		return pgconn.NewCommandTag("ROLLBACK"), nil

	case strings.HasPrefix(upper, "RELEASE SAVEPOINT "):
		name := strings.TrimSpace(stmt[len("RELEASE SAVEPOINT "):])
		i := t.marker(name)
		if i < 0 {
			return pgconn.CommandTag{}, fmt.Errorf("savepoint %q does not exist", name)
		}
		t.journal = append(t.journal[:i], t.journal[i+1:]...)
		return pgconn.NewCommandTag("RELEASE"), nil

	case strings.Contains(stmt, "pg_advisory_xact_lock"):
		if len(args) > 0 {
			t.db.Locks = append(t.db.Locks, fmt.Sprint(args[0]))
		}
		return pgconn.NewCommandTag("SELECT 1"), nil
	}

	return pgconn.CommandTag{}, fmt.Errorf("%w: %s", ErrUnsupported, stmt)
}

func (t *Tx) marker(name string) int {
	for i := len(t.journal) - 1; i >= 0; i-- {
		if t.journal[i].savepoint == name {
			return i
		}
	}
	return -1
}

func (t *Tx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, ErrUnsupported
}

func (t *Tx) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return errRow{ErrUnsupported}
}

// Get reads a row, including writes made earlier in this transaction.
func (t *Tx) Get(table, key string) (any, bool) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	v, ok := t.db.tables[table][key]
	return v, ok
}

// Put writes a row and journals its previous state.
func (t *Tx) Put(table, key string, v any) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	prev, existed := t.db.tables[table][key]
	t.journal = append(t.journal, entry{table: table, key: key, prev: prev, existed: existed})
	t.db.put(table, key, v)
	return nil
}

func (t *Tx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	if t.db.CommitErr != nil {
		t.rollbackLocked()
		return t.db.CommitErr
	}
	t.done = true
	t.journal = nil
	t.db.Commits++
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.rollbackLocked()
	return nil
}

func (t *Tx) rollbackLocked() {
	for j := len(t.journal) - 1; j >= 0; j-- {
		if t.journal[j].savepoint == "" {
			t.db.restore(t.journal[j])
		}
	}
	t.journal = nil
	t.done = true
	t.db.Rollbacks++
}

// Conn returns nil; the fake has no underlying connection.
func (t *Tx) Conn() *pgx.Conn { return nil }
