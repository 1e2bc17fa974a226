package state

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewCopyState(t *testing.T) {
	config := OperationConfig{
		BatchSize: 1000,
		WarnOnly:  true,
		Tables:    []string{"orders"},
	}

	state := NewCopyState("test-id", config)

	if state.ID != "test-id" {
		t.Errorf("Expected ID 'test-id', got '%s'", state.ID)
	}
	if state.Status != StatusInitializing {
		t.Errorf("Expected status Initializing, got '%s'", state.Status)
	}
	if state.Config.BatchSize != 1000 {
		t.Errorf("Expected batch size 1000, got %d", state.Config.BatchSize)
	}
	if !state.Config.WarnOnly {
		t.Error("Expected warn-only to be carried over")
	}
	if state.Tables == nil {
		t.Error("Expected Tables to be initialized")
	}
	if state.Errors == nil {
		t.Error("Expected Errors to be initialized")
	}
}

func TestCopyState_SetStatus(t *testing.T) {
	state := NewCopyState("test", OperationConfig{})

	for _, status := range []OperationStatus{StatusPreparing, StatusCopying, StatusCompleted} {
		if err := state.SetStatus(status); err != nil {
			t.Fatalf("SetStatus(%s) returned error: %v", status, err)
		}
		if state.Status != status {
			t.Errorf("Expected status %s, got '%s'", status, state.Status)
		}
	}
	if state.EndTime == nil {
		t.Error("Expected EndTime to be set for completed status")
	}
}

func TestCopyState_SetStatus_Invalid(t *testing.T) {
	state := NewCopyState("test", OperationConfig{})

	err := state.SetStatus(StatusCompleted)
	if err == nil {
		t.Fatal("Expected initializing -> completed to be rejected")
	}
	if state.Status != StatusInitializing {
		t.Errorf("Expected status to stay initializing, got '%s'", state.Status)
	}

	// Same status is a no-op
	if err := state.SetStatus(StatusInitializing); err != nil {
		t.Errorf("Expected no error re-setting status, got %v", err)
	}
}

func TestCopyState_SetStatus_Terminal(t *testing.T) {
	tests := []struct {
		name           string
		terminalStatus OperationStatus
	}{
		{"completed", StatusCompleted},
		{"failed", StatusFailed},
		{"cancelled", StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewCopyState("test", OperationConfig{})
			_ = state.SetStatus(StatusPreparing)
			_ = state.SetStatus(StatusCopying)
			if err := state.SetStatus(tt.terminalStatus); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if state.EndTime == nil {
				t.Error("Expected EndTime to be set for terminal status")
			}
			if err := state.SetStatus(StatusCopying); err == nil {
				t.Error("Expected no transition out of a terminal status")
			}
		})
	}
}

func TestCopyState_AddTable(t *testing.T) {
	state := NewCopyState("test", OperationConfig{})

	idx := state.AddTable("users")
	state.SetTableRows(idx, 1000)

	if idx != 0 {
		t.Errorf("Expected index 0, got %d", idx)
	}
	if len(state.Tables) != 1 {
		t.Fatalf("Expected 1 table, got %d", len(state.Tables))
	}

	table := state.Tables[0]
	if table.Name != "users" {
		t.Errorf("Expected name 'users', got '%s'", table.Name)
	}
	if table.TotalRows != 1000 {
		t.Errorf("Expected total rows 1000, got %d", table.TotalRows)
	}
	if table.Status != TableStatusPending {
		t.Errorf("Expected status Pending, got '%s'", table.Status)
	}
	if state.Summary.TotalTables != 1 {
		t.Errorf("Expected total tables 1, got %d", state.Summary.TotalTables)
	}
	if state.Summary.TotalRows != 1000 {
		t.Errorf("Expected total rows 1000, got %d", state.Summary.TotalRows)
	}
}

func TestCopyState_AddTable_Duplicates(t *testing.T) {
	state := NewCopyState("test", OperationConfig{})

	first := state.AddTable("orders")
	second := state.AddTable("orders")

	if first == second {
		t.Fatalf("Expected distinct indexes for a repeated name, got %d twice", first)
	}
	if err := state.UpdateTableStatus(second, TableStatusSkippedEmpty); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Tables[first].Status != TableStatusPending {
		t.Errorf("Expected first entry to stay pending, got '%s'", state.Tables[first].Status)
	}
}

func TestCopyState_UpdateTableStatus(t *testing.T) {
	state := NewCopyState("test", OperationConfig{})
	idx := state.AddTable("users")

	path := []TableStatus{
		TableStatusMatchingColumns,
		TableStatusReading,
		TableStatusWriting,
		TableStatusReading,
		TableStatusWriting,
		TableStatusCompleted,
	}
	for _, status := range path {
		if err := state.UpdateTableStatus(idx, status); err != nil {
			t.Fatalf("UpdateTableStatus(%s) returned error: %v", status, err)
		}
	}

	table := state.Tables[0]
	if table.Status != TableStatusCompleted {
		t.Errorf("Expected status Completed, got '%s'", table.Status)
	}
	if table.StartTime == nil {
		t.Error("Expected StartTime to be set when leaving pending")
	}
	if table.EndTime == nil || table.Duration == nil {
		t.Error("Expected EndTime and Duration to be set when completed")
	}
	if table.Progress != 100 {
		t.Errorf("Expected progress 100, got %f", table.Progress)
	}
	if state.Summary.CompletedTables != 1 {
		t.Errorf("Expected completed tables 1, got %d", state.Summary.CompletedTables)
	}
}

func TestCopyState_UpdateTableStatus_Rejected(t *testing.T) {
	state := NewCopyState("test", OperationConfig{})
	idx := state.AddTable("users")

	if err := state.UpdateTableStatus(idx, TableStatusWriting); err == nil {
		t.Fatal("Expected pending -> writing to be rejected")
	}
	if state.Tables[idx].Status != TableStatusPending {
		t.Errorf("Expected status to stay pending, got '%s'", state.Tables[idx].Status)
	}
}

func TestCopyState_UpdateTableStatus_NonExistent(t *testing.T) {
	state := NewCopyState("test", OperationConfig{})

	if err := state.UpdateTableStatus(3, TableStatusMatchingColumns); err == nil {
		t.Error("Expected an error for an unknown index")
	}
	if len(state.Tables) != 0 {
		t.Error("Expected no tables to be added")
	}
}

func TestCopyState_UpdateTableProgress(t *testing.T) {
	state := NewCopyState("test", OperationConfig{})
	idx := state.AddTable("users")
	state.SetTableRows(idx, 1000)
	_ = state.UpdateTableStatus(idx, TableStatusMatchingColumns)

	// Wait a tiny bit for timing calculations
	time.Sleep(10 * time.Millisecond)

	state.UpdateTableProgress(idx, 500, 1)

	table := state.Tables[0]
	if table.SyncedRows != 500 {
		t.Errorf("Expected synced rows 500, got %d", table.SyncedRows)
	}
	if table.BatchesDone != 1 {
		t.Errorf("Expected 1 batch, got %d", table.BatchesDone)
	}
	if table.Progress != 50 {
		t.Errorf("Expected progress 50, got %f", table.Progress)
	}
	if table.Speed <= 0 {
		t.Error("Expected speed to be calculated")
	}
	if state.Summary.SyncedRows != 500 {
		t.Errorf("Expected summary synced rows 500, got %d", state.Summary.SyncedRows)
	}
}

func TestCopyState_UpdateTableProgress_NonExistent(_ *testing.T) {
	state := NewCopyState("test", OperationConfig{})

	// Should not panic when updating non-existent table
	state.UpdateTableProgress(7, 500, 1)
}

func TestCopyState_GetSnapshot(t *testing.T) {
	state := NewCopyState("test-id", OperationConfig{})
	idx := state.AddTable("users")
	state.SetTableColumns(idx, []string{"id", "name"})

	snapshot := state.GetSnapshot()

	if snapshot.ID != "test-id" {
		t.Errorf("Expected ID 'test-id', got '%s'", snapshot.ID)
	}
	if len(snapshot.Tables) != 1 {
		t.Errorf("Expected 1 table, got %d", len(snapshot.Tables))
	}

	// Ensure snapshot is independent (modifying original doesn't affect snapshot)
	state.AddTable("orders")
	state.SetTableColumns(idx, []string{"id"})
	if len(snapshot.Tables) != 1 {
		t.Error("Snapshot should be independent of original state")
	}
	if len(snapshot.Tables[0].Columns) != 2 {
		t.Error("Snapshot columns should be independent of original state")
	}

	if _, err := json.Marshal(snapshot); err != nil {
		t.Errorf("Snapshot should be JSON serializable: %v", err)
	}
}

func TestCopyState_Subscribe_Unsubscribe(t *testing.T) {
	state := NewCopyState("test", OperationConfig{})

	var receivedEvents []Event
	var mu sync.Mutex

	listener := &testListener{
		onStateChange: func(_ *CopyState, e Event) {
			mu.Lock()
			receivedEvents = append(receivedEvents, e)
			mu.Unlock()
		},
	}

	state.Subscribe(listener)

	_ = state.SetStatus(StatusPreparing)

	// Wait for async event
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	if len(receivedEvents) == 0 {
		t.Error("Expected to receive at least one event")
	}
	initialCount := len(receivedEvents)
	mu.Unlock()

	// Unsubscribe and verify no more events
	state.Unsubscribe(listener)

	_ = state.SetStatus(StatusCopying)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	if len(receivedEvents) != initialCount {
		t.Error("Should not receive events after unsubscribe")
	}
	mu.Unlock()
}

func TestCopyState_ConcurrentAccess(_ *testing.T) {
	state := NewCopyState("test", OperationConfig{})

	var wg sync.WaitGroup
	numGoroutines := 10
	numOperations := 100

	for i := 0; i < 5; i++ {
		idx := state.AddTable(fmt.Sprintf("table%d", i))
		state.SetTableRows(idx, int64(i*100))
	}

	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(_ int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				switch j % 4 {
				case 0:
					state.AddError("test", "message", "", false)
				case 1:
					state.UpdateTableProgress(0, int64(j), j)
				case 2:
					_ = state.GetSnapshot()
				case 3:
					_, _ = state.GetTable(1)
				}
			}
		}(i)
	}

	wg.Wait()
	// If we get here without deadlock or panic, test passes
}

// testListener implements Listener interface for testing
type testListener struct {
	onStateChange func(*CopyState, Event)
}

func (l *testListener) OnStateChange(state *CopyState, event Event) {
	if l.onStateChange != nil {
		l.onStateChange(state, event)
	}
}

func TestTableStatus_String(t *testing.T) {
	tests := []struct {
		status   TableStatus
		expected string
	}{
		{TableStatusPending, "pending"},
		{TableStatusMatchingColumns, "matching-columns"},
		{TableStatusReading, "reading"},
		{TableStatusWriting, "writing"},
		{TableStatusCompleted, "completed"},
		{TableStatusAborted, "aborted"},
		{TableStatusSkippedMissingSource, "skipped-missing-source"},
		{TableStatusSkippedMissingDestination, "skipped-missing-destination"},
		{TableStatusSkippedEmpty, "skipped-empty"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.status) != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, string(tt.status))
			}
		})
	}
}

func TestTableStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   TableStatus
		terminal bool
		skipped  bool
	}{
		{TableStatusPending, false, false},
		{TableStatusMatchingColumns, false, false},
		{TableStatusReading, false, false},
		{TableStatusWriting, false, false},
		{TableStatusCompleted, true, false},
		{TableStatusAborted, true, false},
		{TableStatusSkippedMissingSource, true, true},
		{TableStatusSkippedMissingDestination, true, true},
		{TableStatusSkippedEmpty, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.IsSkipped(); got != tt.skipped {
				t.Errorf("IsSkipped() = %v, want %v", got, tt.skipped)
			}
		})
	}
}
