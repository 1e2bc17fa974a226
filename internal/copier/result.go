package copier

import (
	"errors"
	"time"

	"github.com/D3f0/dbglue/internal/state"
)

// CopyResult is the outcome of one requested table.
type CopyResult struct {
	Table    string
	Status   state.TableStatus
	Rows     int64
	Batches  int
	Columns  ColumnSet
	Errors   []error
	Duration time.Duration
}

// Err joins the recorded errors; nil when there are none.
func (r *CopyResult) Err() error {
	return errors.Join(r.Errors...)
}

// RunResult aggregates the per-table results of a run in processing order.
type RunResult struct {
	ID        string
	StartTime time.Time
	Duration  time.Duration
	Tables    []*CopyResult
}

// Result returns the result for name. When a name was requested more than
// once the last result wins.
func (r *RunResult) Result(name string) (*CopyResult, bool) {
	for i := len(r.Tables) - 1; i >= 0; i-- {
		if r.Tables[i].Table == name {
			return r.Tables[i], true
		}
	}
	return nil, false
}

// TotalRows sums the committed rows of every table.
func (r *RunResult) TotalRows() int64 {
	var total int64
	for _, t := range r.Tables {
		total += t.Rows
	}
	return total
}

// Count returns how many tables ended in status.
func (r *RunResult) Count(status state.TableStatus) int {
	n := 0
	for _, t := range r.Tables {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Skipped returns how many tables ended in any skipped status.
func (r *RunResult) Skipped() int {
	n := 0
	for _, t := range r.Tables {
		if t.Status.IsSkipped() {
			n++
		}
	}
	return n
}

// Errors returns every recorded error in processing order.
func (r *RunResult) Errors() []error {
	var errs []error
	for _, t := range r.Tables {
		errs = append(errs, t.Errors...)
	}
	return errs
}

// Err joins every recorded error; nil when there are none.
func (r *RunResult) Err() error {
	return errors.Join(r.Errors()...)
}
