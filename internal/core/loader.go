package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	db "github.com/JonMunkholm/creditdesk/internal/database"
	"github.com/JonMunkholm/creditdesk/internal/logging"
)

// DefaultMaxFileSize is the maximum accepted CSV size (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// ContextCheckInterval is how often (in rows) to check for cancellation.
var ContextCheckInterval = 100

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	DataDir     string          // Directory holding <entity>.csv files
	Delimiter   rune            // Field separator, ',' when zero
	DayFirst    bool            // Read 02/01/2006 as 2 January
	OnDuplicate DuplicatePolicy // update (default) or skip
	Commit      CommitMode      // file (default) or row
	MaxFileSize int64           // Bytes; DefaultMaxFileSize when zero
	Timeout     time.Duration   // Per-run deadline; none when zero
}

func (o LoaderOptions) withDefaults() LoaderOptions {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.OnDuplicate == "" {
		o.OnDuplicate = DuplicateUpdate
	}
	if o.Commit == "" {
		o.Commit = CommitFile
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	return o
}

// Validate reports unsupported option values.
func (o LoaderOptions) Validate() error {
	switch o.OnDuplicate {
	case "", DuplicateUpdate, DuplicateSkip:
	default:
		return fmt.Errorf("invalid duplicate policy %q (want update or skip)", o.OnDuplicate)
	}
	switch o.Commit {
	case "", CommitFile, CommitRow:
	default:
		return fmt.Errorf("invalid commit mode %q (want file or row)", o.Commit)
	}
	if o.Delimiter == '\r' || o.Delimiter == '\n' || o.Delimiter == '"' {
		return fmt.Errorf("invalid delimiter %q", o.Delimiter)
	}
	return nil
}

// RunRecorder persists the outcome of a run. runErr is nil for runs that
// completed (possibly with row failures).
type RunRecorder interface {
	RecordRun(ctx context.Context, res *LoadResult, started time.Time, runErr error) error
}

// Loader reads entity CSV files and writes them to the database.
type Loader struct {
	db       TxBeginner
	opts     LoaderOptions
	leases   *EntityLeases
	recorder RunRecorder
	logger   *slog.Logger
}

// NewLoader creates a Loader. logger may be nil.
func NewLoader(pool TxBeginner, opts LoaderOptions, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		db:     pool,
		opts:   opts.withDefaults(),
		leases: NewEntityLeases(),
		logger: logger,
	}
}

// SetRecorder installs the run recorder used for import history.
func (l *Loader) SetRecorder(r RunRecorder) { l.recorder = r }

// Options returns the effective options.
func (l *Loader) Options() LoaderOptions { return l.opts }

// Load runs the loader for entity on <DataDir>/<entity>.csv.
// A missing file fails with ErrFileNotFound before any database access.
func (l *Loader) Load(ctx context.Context, entity string) (*LoadResult, error) {
	def, path, err := l.opts.DataFile(entity)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return l.Run(ctx, def, def.Info.FileName, f)
}

// DataFile resolves the data file of entity and checks that it exists and
// is within MaxFileSize. It never touches the database.
func (o LoaderOptions) DataFile(entity string) (EntityDefinition, string, error) {
	def, ok := Get(entity)
	if !ok {
		return EntityDefinition{}, "", fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}

	o = o.withDefaults()
	path := filepath.Join(o.DataDir, def.Info.FileName)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return def, "", fmt.Errorf("%w: %s: %w", ErrFileNotFound, path, err)
		}
		return def, "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return def, "", fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	if info.Size() > o.MaxFileSize {
		return def, "", fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, path, info.Size(), o.MaxFileSize)
	}
	return def, path, nil
}

// LoadAll loads every registered entity in LoadOrder. Entities without a
// file are skipped; the first fatal error stops the sequence.
func (l *Loader) LoadAll(ctx context.Context) ([]*LoadResult, error) {
	var results []*LoadResult
	for _, def := range All() {
		res, err := l.Load(ctx, def.Info.Key)
		if errors.Is(err, ErrFileNotFound) {
			l.logger.Warn("no data file, skipping entity", "entity", def.Info.Key)
			continue
		}
		if err != nil {
			return results, fmt.Errorf("load %s: %w", def.Info.Key, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// LoadReader runs the loader for entity on an already open stream, such as
// an HTTP upload.
func (l *Loader) LoadReader(ctx context.Context, entity, fileName string, r io.Reader) (*LoadResult, error) {
	def, ok := Get(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return l.Run(ctx, def, fileName, r)
}

// Run loads r into def's table.
//
// In file mode a fatal error rolls back the whole run and Run returns a nil
// result. In row mode rows committed before the fatal error stay and the
// partial result is returned with the error.
func (l *Loader) Run(ctx context.Context, def EntityDefinition, fileName string, r io.Reader) (*LoadResult, error) {
	release, err := l.leases.TryAcquire(def.Info.Key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Info.Key, err)
	}
	defer release()

	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	started := time.Now()
	res := &LoadResult{
		RunID:      uuid.New().String(),
		Entity:     def.Info.Key,
		FileName:   fileName,
		FailedRows: []FailedRow{},
	}
	logger := logging.ForRun(l.logger, res.RunID, def.Info.Key).With("file", fileName)

	reader := csv.NewReader(WrapInput(r, l.opts.MaxFileSize))
	reader.Comma = l.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", fileName, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", fileName, classifyReadErr(err))
	}
	idx, err := ValidateHeaders(header, def.FieldSpecs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}

	run := &run{
		loader: l,
		def:    def,
		reader: reader,
		header: header,
		idx:    idx,
		res:    res,
		logger: logger,
	}

	if l.opts.Commit == CommitRow {
		err = run.perRow(ctx)
	} else {
		err = run.perFile(ctx)
	}
	res.Duration = time.Since(started)

	l.record(res, started, err, logger)

	if err != nil {
		logger.Error("load failed", "error", err, "rows", res.TotalRows)
		if l.opts.Commit == CommitRow {
			return res, err
		}
		return nil, err
	}

	logger.Info("load complete",
		"rows", res.TotalRows,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"unchanged", res.Unchanged,
		"skipped", res.Skipped,
		"failed", res.Failed(),
		"duration", res.Duration,
	)
	return res, nil
}

func (l *Loader) record(res *LoadResult, started time.Time, runErr error, logger *slog.Logger) {
	if l.recorder == nil {
		return
	}
	// The run context may already be cancelled; history is written regardless.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.recorder.RecordRun(ctx, res, started, runErr); err != nil {
		logger.Warn("record import run", "error", err)
	}
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeUpdated
	outcomeUnchanged
	outcomeSkipped
)

// run is the state of one Loader.Run call.
type run struct {
	loader *Loader
	def    EntityDefinition
	reader *csv.Reader
	header []string
	idx    HeaderIndex
	res    *LoadResult
	logger *slog.Logger
	rowNum int
}

// nextRecord returns the next non-blank record and its line number.
// Parse problems confined to a line are reported as rowErr.
func (r *run) nextRecord() (record []string, line int, rowErr error, err error) {
	for {
		record, err = r.reader.Read()
		if err == io.EOF {
			return nil, 0, nil, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) && pe.Err != ErrFileTooLarge {
				return record, pe.Line, RowErrorf("%s: %v", ErrInvalidCSV, pe.Err), nil
			}
			return nil, 0, nil, classifyReadErr(err)
		}
		if isEmptyRow(record) {
			continue
		}
		line, _ = r.reader.FieldPos(0)
		if len(record) != len(r.header) {
			return record, line, RowErrorf("expected %d columns, got %d", len(r.header), len(record)), nil
		}
		return record, line, nil, nil
	}
}

// build coerces and validates a record.
func (r *run) build(line int, record []string) (Record, error) {
	row, err := CoerceRow(line, record, r.idx, r.def.FieldSpecs, r.loader.opts.DayFirst)
	if err != nil {
		return nil, err
	}
	rec, err := r.def.Build(row)
	if err != nil {
		if IsRowError(err) {
			return nil, err
		}
		return nil, &RowError{Reason: err.Error()}
	}
	return rec, nil
}

func (r *run) fail(line int, record []string, err error) {
	r.res.FailedRows = append(r.res.FailedRows, FailedRow{
		LineNumber: line,
		Reason:     err.Error(),
		Data:       record,
	})
	r.logger.Debug("row failed", "line", line, "reason", err.Error())
}

func (r *run) count(o outcome) {
	switch o {
	case outcomeInserted:
		r.res.Inserted++
	case outcomeUpdated:
		r.res.Updated++
	case outcomeUnchanged:
		r.res.Unchanged++
	case outcomeSkipped:
		r.res.Skipped++
	}
}

func (r *run) checkContext(ctx context.Context) error {
	r.rowNum++
	if r.rowNum%ContextCheckInterval == 0 {
		return ctx.Err()
	}
	return nil
}

// perFile loads every row inside one transaction, isolating each row with a
// savepoint so a constraint violation only discards that row.
func (r *run) perFile(ctx context.Context) error {
	tx, err := r.loader.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := db.New(tx).AcquireTableLock(ctx, r.def.Info.Table); err != nil {
		return fmt.Errorf("lock %s: %w", r.def.Info.Table, err)
	}

	for i := 0; ; i++ {
		if err := r.checkContext(ctx); err != nil {
			return err
		}

		record, line, rowErr, err := r.nextRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		r.res.TotalRows++
		if rowErr != nil {
			r.fail(line, record, rowErr)
			continue
		}

		rec, err := r.build(line, record)
		if err != nil {
			r.fail(line, record, err)
			continue
		}

		savepoint := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
			return fmt.Errorf("create savepoint: %w", err)
		}

		o, err := r.apply(ctx, tx, rec)
		if err != nil {
			if !IsRowError(err) {
				return fmt.Errorf("line %d: %w", line, err)
			}
			if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
				return fmt.Errorf("rollback savepoint: %w", rbErr)
			}
			r.fail(line, record, err)
			continue
		}

		if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
		r.count(o)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// perRow commits each row in its own transaction.
func (r *run) perRow(ctx context.Context) error {
	for {
		if err := r.checkContext(ctx); err != nil {
			return err
		}

		record, line, rowErr, err := r.nextRecord()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		r.res.TotalRows++
		if rowErr != nil {
			r.fail(line, record, rowErr)
			continue
		}

		rec, err := r.build(line, record)
		if err != nil {
			r.fail(line, record, err)
			continue
		}

		o, err := r.applyInTx(ctx, rec)
		if err != nil {
			if !IsRowError(err) {
				r.res.TotalRows--
				return fmt.Errorf("line %d: %w", line, err)
			}
			r.fail(line, record, err)
			continue
		}
		r.count(o)
	}
}

func (r *run) applyInTx(ctx context.Context, rec Record) (outcome, error) {
	tx, err := r.loader.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := db.New(tx).AcquireTableLock(ctx, r.def.Info.Table); err != nil {
		return 0, fmt.Errorf("lock %s: %w", r.def.Info.Table, err)
	}

	o, err := r.apply(ctx, tx, rec)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

// apply looks up rec by natural key and inserts, updates or skips it.
func (r *run) apply(ctx context.Context, tx pgx.Tx, rec Record) (outcome, error) {
	existing, found, err := r.def.Lookup(ctx, tx, rec)
	if err != nil {
		return 0, fmt.Errorf("lookup %s: %w", rec.NaturalKey(), err)
	}

	if !found {
		if err := r.def.Insert(ctx, tx, rec); err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
		return outcomeInserted, nil
	}

	if r.loader.opts.OnDuplicate == DuplicateSkip {
		return outcomeSkipped, nil
	}
	if r.def.Equal != nil && r.def.Equal(existing, rec) {
		return outcomeUnchanged, nil
	}
	if err := r.def.Update(ctx, tx, existing, rec); err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	return outcomeUpdated, nil
}

// classifyReadErr marks reader failures that are not I/O problems.
func classifyReadErr(err error) error {
	if errors.Is(err, ErrFileTooLarge) {
		return err
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	return err
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
