// Package copier copies table data between two databases: it matches the
// columns both sides share, streams source rows in fixed-size batches and
// applies every batch in its own destination transaction.
package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/D3f0/dbglue/internal/database"
	"github.com/D3f0/dbglue/internal/state"
	"github.com/D3f0/dbglue/internal/utils"
)

// Source is the read side of a copy.
type Source interface {
	CountRows(ctx context.Context, table string) (int64, error)
	OpenReader(ctx context.Context, table *database.Table, columns ColumnSet, batchSize int) (BatchReader, error)
}

// Destination is the write side of a copy.
type Destination interface {
	WriteBatch(ctx context.Context, table string, batch *RowBatch) (int64, error)
}

// Copier runs the per-table copy state machine over a list of tables
type Copier struct {
	config        *Config
	source        Source
	dest          Destination
	sourceCatalog *database.Catalog
	destCatalog   *database.Catalog
	logger        *utils.Logger
	state         *state.CopyState
	closers       []io.Closer
}

// Option configures a Copier.
type Option func(*Copier)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *utils.Logger) Option {
	return func(c *Copier) { c.logger = logger }
}

// WithState makes the copier report into an existing run state.
func WithState(s *state.CopyState) Option {
	return func(c *Copier) { c.state = s }
}

func newCopier(config *Config, opts []Option) (*Copier, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", utils.ErrInvalidConfig)
	}
	if config.BatchSize < 1 {
		return nil, fmt.Errorf("%w: batch size must be at least 1", utils.ErrInvalidConfig)
	}

	c := &Copier{config: config}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = utils.NewSilentLogger()
	}
	if c.state == nil {
		c.state = NewState(config)
	}
	return c, nil
}

// NewState creates the run state for config with a fresh run id.
func NewState(config *Config) *state.CopyState {
	return state.NewCopyState(uuid.NewString(), state.OperationConfig{
		BatchSize:     config.BatchSize,
		WarnOnly:      config.WarnOnly,
		AllTables:     config.AllTables,
		Tables:        append([]string(nil), config.Tables...),
		ExcludeTables: append([]string(nil), config.ExcludeTables...),
		WriteMode:     config.Mode.String(),
	})
}

// New creates a Copier over already described source and destination.
func New(config *Config, source Source, dest Destination, sourceCatalog, destCatalog *database.Catalog, opts ...Option) (*Copier, error) {
	c, err := newCopier(config, opts)
	if err != nil {
		return nil, err
	}
	if source == nil || dest == nil {
		return nil, fmt.Errorf("%w: source and destination are required", utils.ErrInvalidConfig)
	}
	c.source = source
	c.dest = dest
	c.sourceCatalog = sourceCatalog
	c.destCatalog = destCatalog
	return c, nil
}

// Open validates config, connects to both databases and describes their
// catalogs concurrently. Any connection or introspection failure is fatal
// and wraps utils.ErrConnection.
func Open(ctx context.Context, config *Config, opts ...Option) (*Copier, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	sourceURL, err := ResolveConnection(config.SourceConn, config.SourceFile)
	if err != nil {
		return nil, err
	}
	destURL, err := ResolveConnection(config.DestConn, config.DestFile)
	if err != nil {
		return nil, err
	}

	c, err := newCopier(config, opts)
	if err != nil {
		return nil, err
	}

	var (
		sourceDB, destDB           *database.DB
		sourceCatalog, destCatalog *database.Catalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sourceDB, sourceCatalog, err = c.connect(gctx, "source", sourceURL)
		return err
	})
	g.Go(func() error {
		var err error
		destDB, destCatalog, err = c.connect(gctx, "destination", destURL)
		return err
	})
	if err := g.Wait(); err != nil {
		_ = sourceDB.Close()
		_ = destDB.Close()
		_ = c.state.SetStatus(state.StatusFailed)
		return nil, err
	}

	c.source = NewSQLSource(sourceDB)
	c.dest = NewSQLWriter(destDB, config.Mode, c.logger)
	c.sourceCatalog = sourceCatalog
	c.destCatalog = destCatalog
	c.closers = append(c.closers, sourceDB, destDB)
	_ = c.state.SetStatus(state.StatusPreparing)
	return c, nil
}

func (c *Copier) connect(ctx context.Context, role, url string) (*database.DB, *database.Catalog, error) {
	c.state.UpdateConnectionDetails(role, utils.MaskPassword(url), "", state.ConnectionStatusConnecting, 0)

	db, err := database.Open(ctx, url)
	if err != nil {
		c.state.UpdateConnectionDetails(role, utils.MaskPassword(url), "", state.ConnectionStatusError, 0)
		c.state.AddError("connection", err.Error(), "", true)
		return nil, nil, fmt.Errorf("%s: %w", role, err)
	}

	catalog, err := database.Describe(ctx, db)
	if err != nil {
		_ = db.Close()
		c.state.UpdateConnectionDetails(role, db.String(), db.Dialect.Name, state.ConnectionStatusError, 0)
		c.state.AddError("connection", err.Error(), "", true)
		return nil, nil, fmt.Errorf("%w: %s: %w", utils.ErrConnection, role, err)
	}

	c.state.UpdateConnectionDetails(role, db.String(), db.Dialect.Name, state.ConnectionStatusConnected, catalog.Len())
	c.logger.Info("Connected to %s %s (%s tables)", role, db, utils.HighlightNumber(catalog.Len()))
	return db, catalog, nil
}

// State returns the live run state.
func (c *Copier) State() *state.CopyState {
	return c.state
}

// SourceCatalog returns the described source catalog.
func (c *Copier) SourceCatalog() *database.Catalog {
	return c.sourceCatalog
}

// Close closes database connections opened by Open
func (c *Copier) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Run processes every selected table in order and returns the per-table
// results. Under the warn policy table failures are recorded and the run
// continues; under the strict policy the first failure stops the run and is
// returned, wrapped in utils.ErrCopyFailures, together with the partial
// result. Cancellation stops the run with utils.ErrCanceled.
func (c *Copier) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{ID: c.state.ID, StartTime: time.Now()}
	_ = c.state.SetStatus(state.StatusPreparing)

	tables := ResolveTables(c.config.Tables, c.config.AllTables, c.sourceCatalog, c.config.ExcludeTables)
	if len(tables) == 0 {
		c.logger.Warn("No tables to copy")
		_ = c.state.SetStatus(state.StatusCompleted)
		return result, nil
	}

	indexes := make([]int, len(tables))
	for i, name := range tables {
		indexes[i] = c.state.AddTable(name)
	}
	_ = c.state.SetStatus(state.StatusCopying)

	policy := "strict"
	if c.config.WarnOnly {
		policy = "warn-only"
	}
	c.logger.Info("Copying %s tables in batches of %s (%s, %s)",
		utils.HighlightNumber(len(tables)), utils.HighlightNumber(c.config.BatchSize), policy, c.config.Mode)

	for i, name := range tables {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(result.StartTime)
			_ = c.state.SetStatus(state.StatusCancelled)
			return result, fmt.Errorf("%w: %w", utils.ErrCanceled, err)
		}

		res, err := c.copyTable(ctx, indexes[i], name)
		result.Tables = append(result.Tables, res)
		c.logResult(indexes[i], res)

		if err != nil {
			result.Duration = time.Since(result.StartTime)
			if errors.Is(err, utils.ErrCanceled) {
				_ = c.state.SetStatus(state.StatusCancelled)
			} else {
				_ = c.state.SetStatus(state.StatusFailed)
			}
			return result, err
		}
	}

	if aborted := c.state.GetTablesByStatus(state.TableStatusAborted); len(aborted) > 0 {
		c.logger.Warn("Aborted tables: %s", strings.Join(aborted, ", "))
	}
	result.Duration = time.Since(result.StartTime)
	_ = c.state.SetStatus(state.StatusCompleted)
	return result, nil
}

// copyTable drives one table to a terminal status. The returned error is
// non-nil only when the run has to stop.
func (c *Copier) copyTable(ctx context.Context, idx int, name string) (*CopyResult, error) {
	start := time.Now()
	res := &CopyResult{Table: name, Status: state.TableStatusPending}
	defer func() { res.Duration = time.Since(start) }()

	src, ok := c.sourceCatalog.Table(name)
	if !ok {
		err := fmt.Errorf("%w: table %s not found in source", utils.ErrConfiguration, name)
		return res, c.skip(ctx, idx, res, state.TableStatusSkippedMissingSource, err)
	}
	dst, ok := c.destCatalog.Table(name)
	if !ok {
		err := fmt.Errorf("%w: table %s not found in destination", utils.ErrConfiguration, name)
		return res, c.skip(ctx, idx, res, state.TableStatusSkippedMissingDestination, err)
	}

	total, err := c.source.CountRows(ctx, name)
	if err != nil {
		return res, c.fail(ctx, idx, res, err, 0)
	}
	c.state.SetTableRows(idx, total)
	if total == 0 {
		c.transition(idx, res, state.TableStatusSkippedEmpty)
		return res, nil
	}

	c.transition(idx, res, state.TableStatusMatchingColumns)
	columns := MatchColumns(src, dst)
	if len(columns) == 0 {
		return res, c.fail(ctx, idx, res, fmt.Errorf("table %s: %w", name, utils.ErrSchemaMismatch), 0)
	}
	res.Columns = columns
	c.state.SetTableColumns(idx, columns)
	if dropped := len(src.Columns) - len(columns); dropped > 0 {
		c.logger.Debug("Copying %d of %d columns of %s", len(columns), len(src.Columns), utils.HighlightTableName(name))
	}

	c.transition(idx, res, state.TableStatusReading)
	reader, err := c.source.OpenReader(ctx, src, columns, c.config.BatchSize)
	if err != nil {
		return res, c.fail(ctx, idx, res, err, 1)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			c.logger.Debug("Failed to close reader for %s: %v", name, err)
		}
	}()

	for {
		batch, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			c.transition(idx, res, state.TableStatusCompleted)
			return res, nil
		}
		if err != nil {
			return res, c.fail(ctx, idx, res, err, res.Batches+1)
		}

		c.transition(idx, res, state.TableStatusWriting)
		n, err := c.dest.WriteBatch(ctx, name, batch)
		if err != nil {
			return res, c.fail(ctx, idx, res, err, batch.Number)
		}

		res.Rows += n
		res.Batches++
		c.state.UpdateTableProgress(idx, res.Rows, res.Batches)
		c.logger.Debug("Batch %d of %s committed: %s rows", batch.Number, utils.HighlightTableName(name), utils.HighlightNumber(n))

		if n < int64(c.config.BatchSize) {
			c.transition(idx, res, state.TableStatusCompleted)
			return res, nil
		}
		c.transition(idx, res, state.TableStatusReading)
	}
}

// skip ends a table whose counterpart is missing. Strict runs abort instead.
func (c *Copier) skip(ctx context.Context, idx int, res *CopyResult, status state.TableStatus, err error) error {
	if !c.config.WarnOnly {
		return c.fail(ctx, idx, res, err, 0)
	}
	res.Errors = append(res.Errors, err)
	c.state.AddTableError(idx, errorType(err), err.Error(), 0)
	c.transition(idx, res, status)
	return nil
}

// fail records err and aborts the table. It returns the error that stops
// the run, or nil when the warn policy lets the run continue.
func (c *Copier) fail(ctx context.Context, idx int, res *CopyResult, err error, batch int) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, utils.ErrCanceled) {
		err = fmt.Errorf("%w: %w", utils.ErrCanceled, ctxErr)
	}

	res.Errors = append(res.Errors, err)
	c.state.AddTableError(idx, errorType(err), err.Error(), batch)
	c.transition(idx, res, state.TableStatusAborted)

	if errors.Is(err, utils.ErrCanceled) {
		return err
	}
	if c.config.WarnOnly {
		return nil
	}
	c.state.AddError(errorType(err), err.Error(), res.Table, true)
	return fmt.Errorf("%w: %w", utils.ErrCopyFailures, err)
}

func (c *Copier) transition(idx int, res *CopyResult, status state.TableStatus) {
	res.Status = status
	if err := c.state.UpdateTableStatus(idx, status); err != nil {
		c.logger.Warn("%v", err)
	}
}

func errorType(err error) string {
	var wf *WriteFailure
	switch {
	case errors.As(err, &wf):
		return string(wf.Kind)
	case errors.Is(err, utils.ErrCanceled):
		return "canceled"
	case errors.Is(err, utils.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, utils.ErrConfiguration):
		return "configuration"
	case errors.Is(err, utils.ErrReadFailure):
		return "read"
	case errors.Is(err, utils.ErrUnsupportedWriteMode):
		return "unsupported_write_mode"
	}
	return "other"
}

// logResult emits the one summary line every processed table gets.
func (c *Copier) logResult(idx int, res *CopyResult) {
	msg := fmt.Sprintf("%s: %s rows in %d batches, %s",
		utils.HighlightTableName(res.Table),
		utils.HighlightNumber(res.Rows),
		res.Batches,
		utils.HighlightStatus(string(res.Status)))
	if ts, ok := c.state.GetTable(idx); ok && res.Status == state.TableStatusAborted && ts.TotalRows > 0 {
		msg += fmt.Sprintf(" at %.0f%% of %s source rows", ts.Progress, utils.FormatNumber(ts.TotalRows))
	}

	switch {
	case len(res.Errors) > 0 && res.Status == state.TableStatusAborted:
		c.logger.Error("%s, %d error(s): %v", msg, len(res.Errors), res.Err())
	case len(res.Errors) > 0:
		c.logger.Warn("%s: %v", msg, res.Err())
	case res.Status == state.TableStatusCompleted:
		c.logger.Success("%s in %s", msg, utils.FormatDuration(res.Duration))
	default:
		c.logger.Info("%s", msg)
	}
}
