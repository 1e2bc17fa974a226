package utils // nolint:revive // utils is an acceptable name for internal utility package

import "errors"

// Sentinel errors used for branching and classification across the application.
//
// Callers match them with errors.Is regardless of wrapping:
//
//	if errors.Is(err, utils.ErrConnection) {
//	    // no work can proceed
//	}
//
// When wrapping, always use %w to preserve the chain. Multiple errors are
// combined with errors.Join.
//
// # Error Hierarchy
//
// - ErrConnection: bad URL scheme target or unreachable server (always fatal)
// - ErrConfiguration: requested table missing on one side (fatal unless warn-only)
// - ErrSchemaMismatch: source and destination share no columns (a configuration error)
// - ErrWriteFailure: a destination batch was rolled back
// - ErrInvalidConfig: flags or URLs rejected before connecting
// - ErrCopyFailures: strict-policy escalation of table failures
// - ErrCanceled: context cancellation
var (
	// ErrConnection indicates a database could not be opened or pinged.
	ErrConnection = errors.New("connection error")

	// ErrConfiguration indicates the requested copy does not fit the schemas on either side.
	ErrConfiguration = errors.New("configuration error")

	// ErrSchemaMismatch indicates the column intersection of a table pair is empty.
	// It wraps ErrConfiguration so both match.
	ErrSchemaMismatch = &wrapped{msg: "schema mismatch: no common columns", parent: ErrConfiguration}

	// ErrWriteFailure indicates a batch could not be applied to the destination and was rolled back.
	ErrWriteFailure = errors.New("write failure")

	// ErrReadFailure indicates the source could not be queried or scanned.
	ErrReadFailure = errors.New("read failure")

	// ErrInvalidConfig indicates invalid or inconsistent configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCopyFailures aggregates one or more errors that aborted a strict run.
	ErrCopyFailures = errors.New("one or more copy operations failed")

	// ErrCanceled indicates the operation was canceled (typically via context cancellation).
	ErrCanceled = errors.New("operation canceled")

	// ErrUnsupportedWriteMode indicates a write mode that is modeled but not implemented.
	ErrUnsupportedWriteMode = errors.New("unsupported write mode")
)

// wrapped is a sentinel that also matches its parent sentinel.
type wrapped struct {
	msg    string
	parent error
}

func (w *wrapped) Error() string { return w.msg }

func (w *wrapped) Unwrap() error { return w.parent }
