package copier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/D3f0/dbglue/internal/database"
	"github.com/D3f0/dbglue/internal/utils"
)

// WriteFailure reports a batch that was rolled back on the destination.
type WriteFailure struct {
	Kind  database.ErrorClass
	Table string
	Batch int
	Rows  int
	Cause error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("%s write failure on %s batch %d (%d rows rolled back): %v",
		e.Kind, e.Table, e.Batch, e.Rows, e.Cause)
}

// Unwrap matches both utils.ErrWriteFailure and the driver error.
func (e *WriteFailure) Unwrap() []error {
	return []error{utils.ErrWriteFailure, e.Cause}
}

// SQLWriter applies batches to a destination database, one transaction per batch.
type SQLWriter struct {
	db     *database.DB
	mode   WriteMode
	logger *utils.Logger
}

// NewSQLWriter wraps an open database as a copy destination.
func NewSQLWriter(db *database.DB, mode WriteMode, logger *utils.Logger) *SQLWriter {
	if logger == nil {
		logger = utils.NewSilentLogger()
	}
	return &SQLWriter{db: db, mode: mode, logger: logger}
}

// WriteBatch inserts every row of batch into table and commits. On any error
// the whole batch is rolled back and a *WriteFailure is returned; nothing is
// retried. Cancellation is reported as utils.ErrCanceled instead.
func (w *SQLWriter) WriteBatch(ctx context.Context, table string, batch *RowBatch) (int64, error) {
	if w.mode.IsUpsert() {
		return 0, fmt.Errorf("%w: %s", utils.ErrUnsupportedWriteMode, w.mode)
	}
	if batch.Len() == 0 {
		return 0, nil
	}
	numCols := len(batch.Columns)
	if numCols == 0 {
		return 0, fmt.Errorf("table %s: %w", table, utils.ErrSchemaMismatch)
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", utils.ErrCanceled, err)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, w.failure(ctx, table, batch, fmt.Errorf("failed to begin transaction: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				w.logger.Error("Failed to rollback batch transaction: %v", err)
			}
		}
	}()

	dialect := w.db.Dialect
	insertHeader := "INSERT INTO " + dialect.QuoteIdent(table) + " (" + dialect.QuoteIdents(batch.Columns) + ") VALUES "
	maxRowsPerStmt := dialect.RowsPerStatement(numCols)

	var sb strings.Builder
	for start := 0; start < len(batch.Rows); start += maxRowsPerStmt {
		end := min(start+maxRowsPerStmt, len(batch.Rows))
		chunk := batch.Rows[start:end]

		sb.Reset()
		sb.WriteString(insertHeader)
		dialect.ValuesClause(&sb, numCols, len(chunk), 1)

		args := make([]any, 0, len(chunk)*numCols)
		for _, row := range chunk {
			args = append(args, row...)
		}

		w.logger.Debug("INSERT into %s: %d rows", utils.HighlightTableName(table), len(chunk))
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return 0, w.failure(ctx, table, batch, fmt.Errorf("failed to insert %d rows: %w", len(chunk), err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, w.failure(ctx, table, batch, fmt.Errorf("failed to commit transaction: %w", err))
	}
	committed = true
	return int64(len(batch.Rows)), nil
}

func (w *SQLWriter) failure(ctx context.Context, table string, batch *RowBatch, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", utils.ErrCanceled, ctxErr)
	}
	failure := &WriteFailure{
		Kind:  database.Classify(err),
		Table: table,
		Batch: batch.Number,
		Rows:  batch.Len(),
		Cause: err,
	}
	if batch.Len() > 0 {
		w.logger.With("table", table).Debug("Batch %d rolled back (%s), first row: %v", batch.Number, failure.Kind, batch.Record(0))
	}
	return failure
}
