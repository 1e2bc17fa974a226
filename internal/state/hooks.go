package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a status change is not in the
// transition tables below. The state is left unchanged.
var ErrInvalidTransition = errors.New("invalid state transition")

// validOperationTransitions defines allowed state transitions for the run.
var validOperationTransitions = map[OperationStatus][]OperationStatus{
	StatusInitializing: {StatusPreparing, StatusFailed, StatusCancelled},
	StatusPreparing:    {StatusCopying, StatusCompleted, StatusFailed, StatusCancelled},
	StatusCopying:      {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:    {}, // Terminal state
	StatusFailed:       {}, // Terminal state
	StatusCancelled:    {}, // Terminal state
}

// validTableTransitions is the per-table copy state machine:
//
//	pending → matching-columns → reading ⇄ writing → completed | aborted
//	pending → skipped-missing-source | skipped-missing-destination | skipped-empty
//	matching-columns → aborted
var validTableTransitions = map[TableStatus][]TableStatus{
	TableStatusPending: {
		TableStatusMatchingColumns,
		TableStatusSkippedMissingSource,
		TableStatusSkippedMissingDestination,
		TableStatusSkippedEmpty,
		TableStatusAborted, // row count failed or run cancelled
	},
	TableStatusMatchingColumns:           {TableStatusReading, TableStatusAborted},
	TableStatusReading:                   {TableStatusWriting, TableStatusCompleted, TableStatusAborted},
	TableStatusWriting:                   {TableStatusReading, TableStatusCompleted, TableStatusAborted},
	TableStatusCompleted:                 {}, // Terminal state
	TableStatusAborted:                   {}, // Terminal state
	TableStatusSkippedMissingSource:      {}, // Terminal state
	TableStatusSkippedMissingDestination: {}, // Terminal state
	TableStatusSkippedEmpty:              {}, // Terminal state
}

func isValidOperationTransition(old, new OperationStatus) bool {
	for _, s := range validOperationTransitions[old] {
		if s == new {
			return true
		}
	}
	return false
}

// IsValidTableTransition checks if moving a table from old to new is allowed.
func IsValidTableTransition(old, new TableStatus) bool {
	for _, s := range validTableTransitions[old] {
		if s == new {
			return true
		}
	}
	return false
}

// SetStatus updates the run status. Setting the current status again is a no-op.
func (s *CopyState) SetStatus(status OperationStatus) error {
	s.mu.Lock()
	oldStatus := s.Status
	if oldStatus == status {
		s.mu.Unlock()
		return nil
	}
	if !isValidOperationTransition(oldStatus, status) {
		s.mu.Unlock()
		return fmt.Errorf("%w: run %s -> %s", ErrInvalidTransition, oldStatus, status)
	}

	s.Status = status
	now := time.Now()
	eventType := EventOperationStatus
	if status == StatusCompleted || status == StatusFailed || status == StatusCancelled {
		s.EndTime = &now
		eventType = EventOperationCompleted
	}
	s.updateSummary()

	event := Event{
		Type:      eventType,
		Timestamp: now,
		Data: map[string]any{
			"oldStatus": oldStatus,
			"newStatus": status,
		},
	}
	s.mu.Unlock()

	s.emit(event)
	return nil
}

// AddTable queues a table in pending state and returns its index.
func (s *CopyState) AddTable(name string) int {
	s.mu.Lock()
	idx := len(s.Tables)
	s.Tables = append(s.Tables, TableState{
		Index:   idx,
		Name:    name,
		Status:  TableStatusPending,
		Columns: make([]string, 0),
		Errors:  make([]TableError, 0),
	})
	s.Summary.TotalTables++

	event := Event{
		Type:       EventTableAdded,
		Timestamp:  time.Now(),
		TableName:  name,
		TableIndex: idx,
	}
	s.mu.Unlock()

	s.emit(event)
	return idx
}

// SetTableRows records the source row count of a table.
func (s *CopyState) SetTableRows(idx int, totalRows int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.Tables) {
		return
	}
	s.Summary.TotalRows += totalRows - s.Tables[idx].TotalRows
	s.Tables[idx].TotalRows = totalRows
	s.updateSummary()
}

// SetTableColumns records the columns selected for copy.
func (s *CopyState) SetTableColumns(idx int, columns []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.Tables) {
		return
	}
	s.Tables[idx].Columns = append([]string(nil), columns...)
}

// UpdateTableStatus moves a table through its state machine.
func (s *CopyState) UpdateTableStatus(idx int, status TableStatus) error {
	s.mu.Lock()
	if idx < 0 || idx >= len(s.Tables) {
		s.mu.Unlock()
		return fmt.Errorf("%w: no table at index %d", ErrInvalidTransition, idx)
	}

	table := &s.Tables[idx]
	oldStatus := table.Status
	if oldStatus == status {
		s.mu.Unlock()
		return nil
	}
	if !IsValidTableTransition(oldStatus, status) {
		s.mu.Unlock()
		return fmt.Errorf("%w: table %s %s -> %s", ErrInvalidTransition, table.Name, oldStatus, status)
	}
	table.Status = status

	now := time.Now()
	if oldStatus == TableStatusPending {
		table.StartTime = &now
	}

	eventType := EventTableStatus
	if status.IsTerminal() {
		eventType = EventTableFinished
		table.EndTime = &now
		if table.StartTime != nil {
			duration := now.Sub(*table.StartTime).Milliseconds()
			table.Duration = &duration
		}
		switch {
		case status == TableStatusCompleted:
			table.Progress = 100
			s.Summary.CompletedTables++
		case status == TableStatusAborted:
			s.Summary.AbortedTables++
		case status.IsSkipped():
			s.Summary.SkippedTables++
		}
	}
	s.updateSummary()

	event := Event{
		Type:       eventType,
		Timestamp:  now,
		TableName:  table.Name,
		TableIndex: idx,
		Data: map[string]any{
			"oldStatus": oldStatus,
			"newStatus": status,
		},
	}
	s.mu.Unlock()

	s.emit(event)
	return nil
}

// UpdateTableProgress records a committed batch.
func (s *CopyState) UpdateTableProgress(idx int, syncedRows int64, batchesDone int) {
	s.mu.Lock()
	if idx < 0 || idx >= len(s.Tables) {
		s.mu.Unlock()
		return
	}

	table := &s.Tables[idx]
	s.Summary.SyncedRows += syncedRows - table.SyncedRows
	table.SyncedRows = syncedRows
	table.BatchesDone = batchesDone

	if table.TotalRows > 0 {
		table.Progress = float64(syncedRows) / float64(table.TotalRows) * 100
	}
	if table.StartTime != nil {
		if elapsed := time.Since(*table.StartTime).Seconds(); elapsed > 0 {
			table.Speed = float64(syncedRows) / elapsed
		}
	}
	s.updateSummary()

	event := Event{
		Type:       EventTableProgress,
		Timestamp:  time.Now(),
		TableName:  table.Name,
		TableIndex: idx,
		Data: map[string]any{
			"syncedRows": syncedRows,
			"batches":    batchesDone,
			"progress":   table.Progress,
		},
	}
	s.mu.Unlock()

	s.emit(event)
}

// AddTableError records an error against a table.
func (s *CopyState) AddTableError(idx int, errorType, message string, batch int) {
	s.mu.Lock()
	if idx < 0 || idx >= len(s.Tables) {
		s.mu.Unlock()
		return
	}

	table := &s.Tables[idx]
	tableError := TableError{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      errorType,
		Message:   message,
		Batch:     batch,
	}
	table.Errors = append(table.Errors, tableError)

	event := Event{
		Type:       EventErrorAdded,
		Timestamp:  tableError.Timestamp,
		TableName:  table.Name,
		TableIndex: idx,
		Data: map[string]any{
			"error": tableError,
		},
	}
	s.mu.Unlock()

	s.emit(event)
}

// AddError records a run-level error.
func (s *CopyState) AddError(errorType, message, table string, isFatal bool) {
	s.mu.Lock()
	entry := ErrorEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      errorType,
		Message:   message,
		Table:     table,
		IsFatal:   isFatal,
	}
	s.Errors = append(s.Errors, entry)

	event := Event{
		Type:      EventErrorAdded,
		Timestamp: entry.Timestamp,
		TableName: table,
		Data: map[string]any{
			"error": entry,
		},
	}
	s.mu.Unlock()

	s.emit(event)
}

// UpdateConnectionDetails updates connection information
func (s *CopyState) UpdateConnectionDetails(connType, display, dialect string, status ConnectionStatus, tables int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := ConnectionInfo{Display: display, Dialect: dialect, Status: status, Tables: tables}
	switch connType {
	case "source":
		s.Connections.Source = info
	case "destination":
		s.Connections.Destination = info
	}
}

// updateSummary recalculates derived summary fields; callers hold the lock.
func (s *CopyState) updateSummary() {
	summary := &s.Summary
	if summary.TotalRows > 0 {
		summary.OverallProgress = float64(summary.SyncedRows) / float64(summary.TotalRows) * 100
	}

	end := time.Now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	elapsed := end.Sub(s.StartTime).Seconds()
	if elapsed > 0 {
		summary.OverallSpeed = float64(summary.SyncedRows) / elapsed
	}
	summary.ElapsedTime = int64(elapsed)
}

// GetTablesByStatus returns the names of tables in the given status
func (s *CopyState) GetTablesByStatus(status TableStatus) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := make([]string, 0)
	for _, table := range s.Tables {
		if table.Status == status {
			tables = append(tables, table.Name)
		}
	}
	return tables
}

// GetTable returns a copy of the table at idx.
func (s *CopyState) GetTable(idx int) (TableState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx < 0 || idx >= len(s.Tables) {
		return TableState{}, false
	}
	return s.Tables[idx], true
}
