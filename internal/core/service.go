package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	db "github.com/JonMunkholm/creditdesk/internal/database"
)

// Store is the database handle a Service works with.
// Satisfied by *pgxpool.Pool.
type Store interface {
	DBTX
	TxBeginner
	Ping(ctx context.Context) error
}

// ReportConfig names the dictionary entries reports are keyed on.
type ReportConfig struct {
	IssuanceCategory   string // plan_targets category for credit issuance
	CollectionCategory string // plan_targets category for payment collection
	BodyPaymentType    string // payment type counted as body repayment
	PercentPaymentType string // payment type counted as interest
}

// DefaultReportConfig matches the dictionary shipped with the sample data.
var DefaultReportConfig = ReportConfig{
	IssuanceCategory:   "issuance",
	CollectionCategory: "collection",
	BodyPaymentType:    "body",
	PercentPaymentType: "percent",
}

// queries is the subset of *db.Queries the service reads and writes through
// the pool.
type queries interface {
	ListCreditsByUser(ctx context.Context, userID int32) ([]db.Credit, error)
	ListPaymentTotalsByUser(ctx context.Context, userID int32) ([]db.ListPaymentTotalsByUserRow, error)
	MonthlyIssuances(ctx context.Context, year int32) ([]db.MonthlyTotalRow, error)
	MonthlyPayments(ctx context.Context, year int32) ([]db.MonthlyTotalRow, error)
	MonthlyTargets(ctx context.Context, arg db.MonthlyTargetsParams) ([]db.MonthlyTotalRow, error)
	InsertImportRun(ctx context.Context, arg db.InsertImportRunParams) error
	ListImportRuns(ctx context.Context, arg db.ListImportRunsParams) ([]db.ImportRun, error)
}

// planTargetStore is what a plan-target import needs inside its transaction.
type planTargetStore interface {
	AcquireTableLock(ctx context.Context, table string) error
	PlanTargetExists(ctx context.Context, arg db.PlanTargetExistsParams) (bool, error)
	InsertPlanTarget(ctx context.Context, arg db.InsertPlanTargetParams) error
}

// Service ties the loader to the reporting queries. Both the CLI and the web
// server go through it.
type Service struct {
	store      Store
	loader     *Loader
	queries    queries
	targetsFor func(DBTX) planTargetStore
	report     ReportConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a Service and registers it as the loader's run recorder.
func NewService(store Store, loader *Loader, report ReportConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:      store,
		loader:     loader,
		queries:    db.New(store),
		targetsFor: func(d DBTX) planTargetStore { return db.New(d) },
		report:     report,
		logger:     logger,
		now:        time.Now,
	}
	loader.SetRecorder(s)
	return s
}

// Entities returns every registered entity in load order.
func (s *Service) Entities() []EntityInfo {
	defs := All()
	infos := make([]EntityInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Load loads <data_dir>/<entity>.csv.
func (s *Service) Load(ctx context.Context, entity string) (*LoadResult, error) {
	return s.loader.Load(ctx, entity)
}

// LoadAll loads every entity with a data file in LoadOrder.
func (s *Service) LoadAll(ctx context.Context) ([]*LoadResult, error) {
	return s.loader.LoadAll(ctx)
}

// LoadUpload runs an uploaded CSV through the loader.
func (s *Service) LoadUpload(ctx context.Context, entity, fileName string, r io.Reader) (*LoadResult, error) {
	return s.loader.LoadReader(ctx, entity, fileName, r)
}

// Ping checks database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// RecordRun writes one import_runs row. It implements RunRecorder.
func (s *Service) RecordRun(ctx context.Context, res *LoadResult, started time.Time, runErr error) error {
	params := db.InsertImportRunParams{
		ID:         ToPgUUID(res.RunID),
		Entity:     res.Entity,
		FileName:   res.FileName,
		TotalRows:  int32(res.TotalRows),
		Inserted:   int32(res.Inserted),
		Updated:    int32(res.Updated),
		Unchanged:  int32(res.Unchanged),
		Skipped:    int32(res.Skipped),
		Failed:     int32(res.Failed()),
		StartedAt:  pgTimestamptz(started),
		FinishedAt: pgTimestamptz(started.Add(res.Duration)),
	}
	if runErr != nil {
		params.Error = ToPgText(runErr.Error())
	}
	if err := s.queries.InsertImportRun(ctx, params); err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// DefaultRunsLimit and MaxRunsLimit bound ImportRuns.
const (
	DefaultRunsLimit = 50
	MaxRunsLimit     = 500
)

// ImportRuns lists recorded runs, newest first. entity may be empty.
func (s *Service) ImportRuns(ctx context.Context, entity string, limit int) ([]ImportRun, error) {
	if entity != "" {
		if _, ok := Get(entity); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
		}
	}
	if limit <= 0 {
		limit = DefaultRunsLimit
	}
	limit = min(limit, MaxRunsLimit)

	rows, err := s.queries.ListImportRuns(ctx, db.ListImportRunsParams{
		Entity: entity,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}

	runs := make([]ImportRun, len(rows))
	for i, r := range rows {
		runs[i] = ImportRun{
			ID:         PgUUIDToString(r.ID),
			Entity:     r.Entity,
			FileName:   r.FileName,
			TotalRows:  int(r.TotalRows),
			Inserted:   int(r.Inserted),
			Updated:    int(r.Updated),
			Unchanged:  int(r.Unchanged),
			Skipped:    int(r.Skipped),
			Failed:     int(r.Failed),
			Error:      r.Error.String,
			StartedAt:  r.StartedAt.Time,
			FinishedAt: r.FinishedAt.Time,
		}
	}
	return runs, nil
}

// withTx runs fn in a transaction, committing when fn succeeds.
func (s *Service) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
