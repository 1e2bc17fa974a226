package copier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/D3f0/dbglue/internal/database"
	"github.com/D3f0/dbglue/internal/utils"
)

// RowBatch is a group of rows written in one transaction. Rows are
// positional and follow Columns.
type RowBatch struct {
	Columns ColumnSet
	Rows    [][]any
	// Number is the 1-based position of the batch within its table.
	Number int
}

// Len returns the number of rows in the batch.
func (b *RowBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// Record returns row i keyed by column name.
func (b *RowBatch) Record(i int) map[string]any {
	row := b.Rows[i]
	rec := make(map[string]any, len(b.Columns))
	for j, col := range b.Columns {
		if j < len(row) {
			rec[col] = row[j]
		}
	}
	return rec
}

// BatchReader is a forward-only sequence of batches over one table.
// Next returns io.EOF once the table is exhausted.
type BatchReader interface {
	Next(ctx context.Context) (*RowBatch, error)
	Close() error
}

// SQLSource reads tables from a live database.
type SQLSource struct {
	db *database.DB
}

// NewSQLSource wraps an open database as a copy source.
func NewSQLSource(db *database.DB) *SQLSource {
	return &SQLSource{db: db}
}

// CountRows returns the exact number of rows in table.
func (s *SQLSource) CountRows(ctx context.Context, table string) (int64, error) {
	n, err := database.CountRows(ctx, s.db, table)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", utils.ErrReadFailure, err)
	}
	return n, nil
}

// OpenReader issues a single SELECT of columns and returns a reader that
// scans it batchSize rows at a time. Rows are ordered by the primary key
// when every key column is selected.
func (s *SQLSource) OpenReader(ctx context.Context, table *database.Table, columns ColumnSet, batchSize int) (BatchReader, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s: %w", table.Name, utils.ErrSchemaMismatch)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: batch size must be at least 1", utils.ErrInvalidConfig)
	}

	query := buildSelect(s.db.Dialect, table, columns)
	rows, err := s.db.QueryContext(ctx, query) // #nosec G701 - identifiers are quoted
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", utils.ErrCanceled, ctx.Err())
		}
		return nil, fmt.Errorf("%w: select from %s: %w", utils.ErrReadFailure, table.Name, err)
	}

	return &sqlReader{
		table:     table.Name,
		rows:      rows,
		columns:   columns,
		batchSize: batchSize,
		ptrs:      make([]any, len(columns)),
	}, nil
}

func buildSelect(d *database.Dialect, table *database.Table, columns ColumnSet) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(d.QuoteIdents(columns))
	sb.WriteString(" FROM ")
	sb.WriteString(d.QuoteIdent(table.Name))

	if len(table.PrimaryKey) > 0 {
		for _, pk := range table.PrimaryKey {
			if !columns.Contains(pk) {
				return sb.String()
			}
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(d.QuoteIdents(table.PrimaryKey))
	}
	return sb.String()
}

type sqlReader struct {
	table     string
	rows      *sql.Rows
	columns   ColumnSet
	batchSize int
	ptrs      []any
	batches   int
	done      bool
}

func (r *sqlReader) Next(ctx context.Context) (*RowBatch, error) {
	if r.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrCanceled, err)
	}

	batch := &RowBatch{
		Columns: r.columns,
		Rows:    make([][]any, 0, r.batchSize),
		Number:  r.batches + 1,
	}
	for len(batch.Rows) < r.batchSize {
		if !r.rows.Next() {
			r.done = true
			break
		}
		// each row keeps its own storage since the batch outlives the scan
		row := make([]any, len(r.columns))
		for i := range r.ptrs {
			r.ptrs[i] = &row[i]
		}
		if err := r.rows.Scan(r.ptrs...); err != nil {
			r.done = true
			return nil, fmt.Errorf("%w: scan %s batch %d: %w", utils.ErrReadFailure, r.table, batch.Number, err)
		}
		batch.Rows = append(batch.Rows, row)
	}

	if r.done {
		if err := r.rows.Err(); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %w", utils.ErrCanceled, err)
			}
			return nil, fmt.Errorf("%w: read %s batch %d: %w", utils.ErrReadFailure, r.table, batch.Number, err)
		}
	}
	if len(batch.Rows) == 0 {
		return nil, io.EOF
	}
	// a short batch means the cursor is drained
	if len(batch.Rows) < r.batchSize {
		r.done = true
	}
	r.batches++
	return batch, nil
}

func (r *sqlReader) Close() error {
	r.done = true
	return r.rows.Close()
}
