// Package state tracks a copy run as it happens: the run status, one entry
// per requested table with its own validated state machine, and listeners
// that are notified on every change.
package state

import (
	"sync"
	"time"
)

// CopyState represents the complete state of a copy run
type CopyState struct {
	mu        sync.RWMutex
	listeners []Listener

	// Run metadata
	ID          string            `json:"id"`
	Status      OperationStatus   `json:"status"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     *time.Time        `json:"endTime,omitempty"`
	Config      OperationConfig   `json:"config"`
	Connections ConnectionDetails `json:"connections"`

	// Progress tracking
	Tables  []TableState `json:"tables"`
	Summary Summary      `json:"summary"`
	Errors  []ErrorEntry `json:"errors"`
}

// OperationStatus represents the current status of the run
type OperationStatus string

const (
	// StatusInitializing indicates connections are being opened
	StatusInitializing OperationStatus = "initializing"
	// StatusPreparing indicates catalogs are being described and tables resolved
	StatusPreparing OperationStatus = "preparing"
	// StatusCopying indicates tables are being processed
	StatusCopying OperationStatus = "copying"
	// StatusCompleted indicates every requested table reached a terminal state
	StatusCompleted OperationStatus = "completed"
	// StatusFailed indicates the run was aborted
	StatusFailed OperationStatus = "failed"
	// StatusCancelled indicates the run was cancelled by the user
	StatusCancelled OperationStatus = "cancelled"
)

// OperationConfig is the part of the run configuration worth displaying.
type OperationConfig struct {
	BatchSize     int      `json:"batchSize"`
	WarnOnly      bool     `json:"warnOnly"`
	AllTables     bool     `json:"allTables"`
	Tables        []string `json:"tables"`
	ExcludeTables []string `json:"excludeTables"`
	WriteMode     string   `json:"writeMode"`
}

// ConnectionDetails holds information about source and destination connections
type ConnectionDetails struct {
	Source      ConnectionInfo `json:"source"`
	Destination ConnectionInfo `json:"destination"`
}

// ConnectionInfo represents connection information
type ConnectionInfo struct {
	Display string           `json:"display"`
	Dialect string           `json:"dialect"`
	Status  ConnectionStatus `json:"status"`
	Tables  int              `json:"tables"`
}

// ConnectionStatus represents the status of a database connection
type ConnectionStatus string

const (
	// ConnectionStatusUnknown indicates the connection status is unknown
	ConnectionStatusUnknown ConnectionStatus = ""
	// ConnectionStatusConnecting indicates the connection is being established
	ConnectionStatusConnecting ConnectionStatus = "connecting"
	// ConnectionStatusConnected indicates the connection is active
	ConnectionStatusConnected ConnectionStatus = "connected"
	// ConnectionStatusError indicates the connection has an error
	ConnectionStatusError ConnectionStatus = "error"
)

// TableState represents one requested table. The same name may appear more
// than once when it was requested twice; entries are addressed by index.
type TableState struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`

	TotalRows  int64 `json:"totalRows"`
	SyncedRows int64 `json:"syncedRows"`

	Status    TableStatus `json:"status"`
	StartTime *time.Time  `json:"startTime,omitempty"`
	EndTime   *time.Time  `json:"endTime,omitempty"`
	Duration  *int64      `json:"duration,omitempty"` // milliseconds

	Progress    float64 `json:"progress"` // 0-100
	Speed       float64 `json:"speed"`    // rows per second
	BatchesDone int     `json:"batchesDone"`

	Errors []TableError `json:"errors"`
}

// TableStatus is a state of the per-table copy state machine.
type TableStatus string

const (
	// TableStatusPending indicates the table has not been looked at yet
	TableStatusPending TableStatus = "pending"
	// TableStatusMatchingColumns indicates the column intersection is being computed
	TableStatusMatchingColumns TableStatus = "matching-columns"
	// TableStatusReading indicates a batch is being fetched from the source
	TableStatusReading TableStatus = "reading"
	// TableStatusWriting indicates a batch is being applied to the destination
	TableStatusWriting TableStatus = "writing"
	// TableStatusCompleted indicates the source was exhausted
	TableStatusCompleted TableStatus = "completed"
	// TableStatusAborted indicates the table stopped on an error
	TableStatusAborted TableStatus = "aborted"
	// TableStatusSkippedMissingSource indicates the table is absent from the source
	TableStatusSkippedMissingSource TableStatus = "skipped-missing-source"
	// TableStatusSkippedMissingDestination indicates the table is absent from the destination
	TableStatusSkippedMissingDestination TableStatus = "skipped-missing-destination"
	// TableStatusSkippedEmpty indicates the source table has no rows
	TableStatusSkippedEmpty TableStatus = "skipped-empty"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s TableStatus) IsTerminal() bool {
	allowed, ok := validTableTransitions[s]
	return ok && len(allowed) == 0
}

// IsSkipped reports whether s is one of the skipped states.
func (s TableStatus) IsSkipped() bool {
	switch s {
	case TableStatusSkippedMissingSource, TableStatusSkippedMissingDestination, TableStatusSkippedEmpty:
		return true
	}
	return false
}

// Summary provides overall statistics
type Summary struct {
	TotalTables     int     `json:"totalTables"`
	CompletedTables int     `json:"completedTables"`
	AbortedTables   int     `json:"abortedTables"`
	SkippedTables   int     `json:"skippedTables"`
	TotalRows       int64   `json:"totalRows"`
	SyncedRows      int64   `json:"syncedRows"`
	OverallProgress float64 `json:"overallProgress"` // 0-100
	OverallSpeed    float64 `json:"overallSpeed"`    // rows per second
	ElapsedTime     int64   `json:"elapsedTime"`     // seconds
}

// ErrorEntry represents an error that occurred during the run
type ErrorEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Table     string    `json:"table,omitempty"`
	IsFatal   bool      `json:"isFatal"`
}

// TableError represents an error specific to a table
type TableError struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Batch     int       `json:"batch,omitempty"`
}

// Listener defines the interface for state change listeners
type Listener interface {
	OnStateChange(state *CopyState, event Event)
}

// Event represents different types of state changes
type Event struct {
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data,omitempty"`
	TableName  string         `json:"tableName,omitempty"`
	TableIndex int            `json:"tableIndex"`
}

// EventType represents the type of state change event
type EventType string

const (
	// EventOperationStatus indicates the run status changed
	EventOperationStatus EventType = "operation_status"
	// EventOperationCompleted indicates the run reached a terminal status
	EventOperationCompleted EventType = "operation_completed"
	// EventTableAdded indicates a table was queued
	EventTableAdded EventType = "table_added"
	// EventTableStatus indicates a table moved to a non-terminal state
	EventTableStatus EventType = "table_status"
	// EventTableFinished indicates a table reached a terminal state
	EventTableFinished EventType = "table_finished"
	// EventTableProgress indicates a batch was committed
	EventTableProgress EventType = "table_progress"
	// EventErrorAdded indicates a new error was recorded
	EventErrorAdded EventType = "error_added"
)

// NewCopyState creates a new copy state instance
func NewCopyState(id string, config OperationConfig) *CopyState {
	return &CopyState{
		ID:        id,
		Status:    StatusInitializing,
		StartTime: time.Now(),
		Config:    config,
		Tables:    make([]TableState, 0),
		Errors:    make([]ErrorEntry, 0),
		listeners: make([]Listener, 0),
	}
}

// Subscribe adds a state listener
func (s *CopyState) Subscribe(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Unsubscribe removes a state listener
func (s *CopyState) Unsubscribe(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l == listener {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			break
		}
	}
}

// emit notifies all listeners of a state change without blocking the caller
func (s *CopyState) emit(event Event) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, listener := range listeners {
		go listener.OnStateChange(s, event)
	}
}

// CopyStateSnapshot represents a read-only snapshot of CopyState without mutex
type CopyStateSnapshot struct {
	ID          string            `json:"id"`
	Status      OperationStatus   `json:"status"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     *time.Time        `json:"endTime,omitempty"`
	Config      OperationConfig   `json:"config"`
	Connections ConnectionDetails `json:"connections"`
	Tables      []TableState      `json:"tables"`
	Summary     Summary           `json:"summary"`
	Errors      []ErrorEntry      `json:"errors"`
}

// GetSnapshot returns a read-only snapshot of the current state
func (s *CopyState) GetSnapshot() CopyStateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := CopyStateSnapshot{
		ID:          s.ID,
		Status:      s.Status,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Config:      s.Config,
		Connections: s.Connections,
		Summary:     s.Summary,
	}

	snapshot.Tables = make([]TableState, len(s.Tables))
	for i, t := range s.Tables {
		t.Columns = append([]string(nil), t.Columns...)
		t.Errors = append([]TableError(nil), t.Errors...)
		snapshot.Tables[i] = t
	}

	snapshot.Errors = make([]ErrorEntry, len(s.Errors))
	copy(snapshot.Errors, s.Errors)

	return snapshot
}
