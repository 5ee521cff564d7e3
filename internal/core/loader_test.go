package core

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/creditdesk/internal/core/coretest"
	"github.com/JonMunkholm/creditdesk/internal/models"
)

const plansCSV = "id,name,price,credits\n" +
	"1,Basic,9.99,100\n" +
	"2,Pro,19.99,500\n" +
	"3,Bad,notanumber,50\n"

// memPlans is a plans definition backed by the coretest tables.
// Inserting an id listed in reject fails with a foreign key violation.
func memPlans(reject ...int32) EntityDefinition {
	rejected := make(map[int32]bool)
	for _, id := range reject {
		rejected[id] = true
	}
	put := func(q DBTX, rec Record) error {
		return q.(*coretest.Tx).Put("plans", rec.NaturalKey(), rec)
	}

	return EntityDefinition{
		Info: EntityInfo{Key: "plans", Label: "Plans", Table: "plans", FileName: "plans.csv", NaturalKey: "id"},
		FieldSpecs: []FieldSpec{
			{Name: "id", Type: FieldInteger, Required: true},
			{Name: "name", Type: FieldText, Required: true},
			{Name: "price", Type: FieldNumeric, Required: true},
			{Name: "credits", Type: FieldInteger, Required: true},
		},
		Build: func(row Row) (Record, error) {
			p := models.PaymentPlan{
				ID:      row.Int32("id"),
				Name:    row.Text("name"),
				Price:   row.Decimal("price"),
				Credits: row.Int32("credits"),
			}
			if err := models.Validate(p); err != nil {
				return nil, err
			}
			return p, nil
		},
		Lookup: func(_ context.Context, q DBTX, rec Record) (Record, bool, error) {
			v, ok := q.(*coretest.Tx).Get("plans", rec.NaturalKey())
			if !ok {
				return nil, false, nil
			}
			return v.(models.PaymentPlan), true, nil
		},
		Insert: func(_ context.Context, q DBTX, rec Record) error {
			if rejected[rec.(models.PaymentPlan).ID] {
				return &pgconn.PgError{Code: "23503", Message: "insert violates foreign key constraint"}
			}
			return put(q, rec)
		},
		Update: func(_ context.Context, q DBTX, _, rec Record) error {
			return put(q, rec)
		},
		Equal: func(a, b Record) bool {
			return a.(models.PaymentPlan).Equal(b.(models.PaymentPlan))
		},
	}
}

func storedPlan(t *testing.T, db *coretest.DB, id string) models.PaymentPlan {
	t.Helper()
	v, ok := db.Get("plans", id)
	require.True(t, ok, "plan %s not stored", id)
	return v.(models.PaymentPlan)
}

func registerForTest(t *testing.T, defs ...EntityDefinition) {
	t.Helper()
	Clear()
	for _, def := range defs {
		Register(def)
	}
	t.Cleanup(Clear)
}

type recordedRun struct {
	res *LoadResult
	err error
}

type fakeRecorder struct{ runs []recordedRun }

func (f *fakeRecorder) RecordRun(_ context.Context, res *LoadResult, _ time.Time, runErr error) error {
	f.runs = append(f.runs, recordedRun{res: res, err: runErr})
	return nil
}

func TestLoader_PlansExample(t *testing.T) {
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{}, nil)

	res, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(plansCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	require.Len(t, res.FailedRows, 1)
	assert.Equal(t, 4, res.FailedRows[0].LineNumber)
	assert.Contains(t, res.FailedRows[0].Reason, "price")
	assert.Contains(t, res.FailedRows[0].Reason, "invalid number")
	assert.Equal(t, []string{"3", "Bad", "notanumber", "50"}, res.FailedRows[0].Data)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, []string{"1", "2"}, db.Keys("plans"))
	basic := storedPlan(t, db, "1")
	assert.Equal(t, "Basic", basic.Name)
	assert.True(t, basic.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, int32(100), basic.Credits)

	assert.Equal(t, 1, db.Commits)
	assert.Equal(t, []string{"plans"}, db.Locks)
}

func TestLoader_Idempotent(t *testing.T) {
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{}, nil)
	ctx := context.Background()

	_, err := loader.Run(ctx, memPlans(), "plans.csv", strings.NewReader(plansCSV))
	require.NoError(t, err)

	res, err := loader.Run(ctx, memPlans(), "plans.csv", strings.NewReader(plansCSV))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 2, res.Unchanged)
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, 2, db.Len("plans"))

	changed := "id,name,price,credits\n1,Basic,12.50,100\n"
	res, err = loader.Run(ctx, memPlans(), "plans.csv", strings.NewReader(changed))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.True(t, storedPlan(t, db, "1").Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 2, db.Len("plans"))
}

func TestLoader_SkipDuplicates(t *testing.T) {
	db := coretest.NewDB()
	db.Seed("plans", "1", models.PaymentPlan{ID: 1, Name: "Old", Price: decimal.NewFromInt(1), Credits: 1})
	loader := NewLoader(db, LoaderOptions{OnDuplicate: DuplicateSkip}, nil)

	res, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(plansCSV))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "Old", storedPlan(t, db, "1").Name)
}

func TestLoader_ConstraintViolationIsRowFailure(t *testing.T) {
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{}, nil)

	res, err := loader.Run(context.Background(), memPlans(2), "plans.csv", strings.NewReader(plansCSV))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	require.Len(t, res.FailedRows, 2)
	assert.Equal(t, 3, res.FailedRows[0].LineNumber)
	assert.Contains(t, res.FailedRows[0].Reason, "foreign key")
	assert.Contains(t, db.Statements, "ROLLBACK TO SAVEPOINT sp_1")
	assert.Equal(t, []string{"1"}, db.Keys("plans"))
}

func TestLoader_FatalErrorRollsBack(t *testing.T) {
	db := coretest.NewDB()
	savepoints := 0
	db.ExecErr = func(sql string) error {
		if strings.HasPrefix(sql, "SAVEPOINT") {
			savepoints++
			if savepoints == 2 {
				return errors.New("connection reset by peer")
			}
		}
		return nil
	}
	rec := &fakeRecorder{}
	loader := NewLoader(db, LoaderOptions{}, nil)
	loader.SetRecorder(rec)

	res, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(plansCSV))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 0, db.Len("plans"), "first row must be rolled back")
	assert.Equal(t, 0, db.Commits)
	assert.Equal(t, 1, db.Rollbacks)

	require.Len(t, rec.runs, 1)
	assert.Error(t, rec.runs[0].err)
}

func TestLoader_CommitFailure(t *testing.T) {
	db := coretest.NewDB()
	db.CommitErr = errors.New("could not serialize access")
	loader := NewLoader(db, LoaderOptions{}, nil)

	_, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(plansCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")
	assert.Equal(t, 0, db.Len("plans"))
}

func TestLoader_RowCommitMode(t *testing.T) {
	db := coretest.NewDB()
	locks := 0
	db.ExecErr = func(sql string) error {
		if strings.Contains(sql, "pg_advisory_xact_lock") {
			locks++
			if locks == 3 {
				return errors.New("connection refused")
			}
		}
		return nil
	}
	input := plansCSV + "4,Team,49.00,2000\n"
	loader := NewLoader(db, LoaderOptions{Commit: CommitRow}, nil)

	res, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(input))
	require.Error(t, err)
	require.NotNil(t, res, "row mode returns the partial result")
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, []string{"1", "2"}, db.Keys("plans"), "committed rows are kept")
	assert.Equal(t, 2, db.Commits)
}

func TestLoader_HeaderOnly(t *testing.T) {
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{}, nil)

	res, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader("id,name,price,credits\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalRows)
	assert.Equal(t, 0, res.Inserted)
	assert.Empty(t, res.FailedRows)
}

func TestLoader_EmptyFile(t *testing.T) {
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{}, nil)

	_, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
	assert.Equal(t, 0, db.Begins)
}

func TestLoader_HeaderMismatch(t *testing.T) {
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{}, nil)

	_, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader("id,title,price\n1,x,2\n"))
	require.ErrorIs(t, err, ErrHeaderMismatch)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "credits")
	assert.Equal(t, 0, db.Begins)
}

func TestLoader_BlankLinesAndColumnCount(t *testing.T) {
	input := "\ufeffID,Name,Price,Credits\r\n" +
		"1,Basic,9.99,100\r\n" +
		"\r\n" +
		",,,\r\n" +
		"2,Pro,19.99\r\n" +
		"3,\"Team, annual\",\"1,200.00\",5000\r\n"
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{}, nil)

	res, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalRows, "blank lines are not counted")
	assert.Equal(t, 2, res.Inserted)
	require.Len(t, res.FailedRows, 1)
	assert.Equal(t, 5, res.FailedRows[0].LineNumber)
	assert.Contains(t, res.FailedRows[0].Reason, "expected 4 columns, got 3")

	team := storedPlan(t, db, "3")
	assert.Equal(t, "Team, annual", team.Name)
	assert.True(t, team.Price.Equal(decimal.NewFromInt(1200)))
}

func TestLoader_Delimiter(t *testing.T) {
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{Delimiter: '\t'}, nil)

	input := "id\tname\tprice\tcredits\n1\tBasic\t9,99\t100\n"
	res, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	// With a tab delimiter the comma is a thousands separator.
	assert.True(t, storedPlan(t, db, "1").Price.Equal(decimal.NewFromInt(999)))
}

func TestLoader_LeaseHeld(t *testing.T) {
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{}, nil)

	release, err := loader.leases.TryAcquire("plans")
	require.NoError(t, err)
	defer release()

	_, err = loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(plansCSV))
	assert.ErrorIs(t, err, ErrLoadInProgress)
	assert.Equal(t, 0, db.Begins)
}

func TestLoader_Cancelled(t *testing.T) {
	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Run(ctx, memPlans(), "plans.csv", strings.NewReader(plansCSV))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, db.Len("plans"))
}

func TestLoader_Recorder(t *testing.T) {
	db := coretest.NewDB()
	rec := &fakeRecorder{}
	loader := NewLoader(db, LoaderOptions{}, nil)
	loader.SetRecorder(rec)

	res, err := loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader(plansCSV))
	require.NoError(t, err)

	require.Len(t, rec.runs, 1)
	assert.Same(t, res, rec.runs[0].res)
	assert.NoError(t, rec.runs[0].err)

	// Header failures are not recorded.
	_, _ = loader.Run(context.Background(), memPlans(), "plans.csv", strings.NewReader("x\n"))
	assert.Len(t, rec.runs, 1)
}

func TestLoader_LoadFromDataDir(t *testing.T) {
	registerForTest(t, memPlans())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.csv"), []byte(plansCSV), 0o644))

	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{DataDir: dir}, nil)

	res, err := loader.Load(context.Background(), "plans")
	require.NoError(t, err)
	assert.Equal(t, "plans.csv", res.FileName)
	assert.Equal(t, 2, res.Inserted)
}

func TestLoader_MissingFile(t *testing.T) {
	registerForTest(t, memPlans())

	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{DataDir: t.TempDir()}, nil)

	_, err := loader.Load(context.Background(), "plans")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 0, db.Begins, "database must not be touched")
}

func TestLoader_FileTooLarge(t *testing.T) {
	registerForTest(t, memPlans())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.csv"), []byte(plansCSV), 0o644))

	db := coretest.NewDB()
	loader := NewLoader(db, LoaderOptions{DataDir: dir, MaxFileSize: 10}, nil)

	_, err := loader.Load(context.Background(), "plans")
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, 0, db.Begins)
}

func TestLoaderOptions_DataFile(t *testing.T) {
	registerForTest(t, memPlans())

	dir := t.TempDir()
	opts := LoaderOptions{DataDir: dir}

	_, _, err := opts.DataFile("plans")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, _, err = opts.DataFile("widgets")
	assert.ErrorIs(t, err, ErrUnknownEntity)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.csv"), []byte(plansCSV), 0o644))
	def, path, err := opts.DataFile("plans")
	require.NoError(t, err)
	assert.Equal(t, "plans", def.Info.Key)
	assert.Equal(t, filepath.Join(dir, "plans.csv"), path)
}

func TestLoader_UnknownEntity(t *testing.T) {
	registerForTest(t)

	loader := NewLoader(coretest.NewDB(), LoaderOptions{}, nil)

	_, err := loader.Load(context.Background(), "widgets")
	assert.ErrorIs(t, err, ErrUnknownEntity)

	_, err = loader.LoadReader(context.Background(), "widgets", "w.csv", strings.NewReader("id\n"))
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestLoader_LoadAllSkipsMissingFiles(t *testing.T) {
	users := memPlans()
	users.Info = EntityInfo{Key: "users", Table: "users", FileName: "users.csv"}
	registerForTest(t, memPlans(), users)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.csv"), []byte(plansCSV), 0o644))

	loader := NewLoader(coretest.NewDB(), LoaderOptions{DataDir: dir}, nil)
	results, err := loader.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "plans", results[0].Entity)
}

func TestLoaderOptions_Validate(t *testing.T) {
	assert.NoError(t, LoaderOptions{}.Validate())
	assert.NoError(t, LoaderOptions{OnDuplicate: DuplicateSkip, Commit: CommitRow, Delimiter: ';'}.Validate())
	assert.Error(t, LoaderOptions{OnDuplicate: "merge"}.Validate())
	assert.Error(t, LoaderOptions{Commit: "batch"}.Validate())
	assert.Error(t, LoaderOptions{Delimiter: '"'}.Validate())
}
