package engine

import (
	"errors"
	"fmt"
)

// RunError represents a failure that aborts a document's run.
//
// Most faults are resolved inside the run and never surface as errors:
// missing inputs become "no data" violations, unparseable timestamps become
// nil instants, evaluator faults become minor violations, and catalog rules
// without evaluators are skipped with a count. What remains is I/O.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// DocID identifies the affected document.
	DocID string

	// Op names the failed operation, e.g. "load events".
	Op string

	// Err is the underlying cause.
	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeStorageFailure indicates a store read or write failed. Fatal
	// for this document's run only; the orchestrator decides retry policy.
	ErrCodeStorageFailure RunErrorCode = "STORAGE_FAILURE"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.DocID != "" {
		return fmt.Sprintf("%s: %s (doc=%s): %v", e.Code, e.Op, e.DocID, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *RunError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is a storage-failure run error.
// Uses errors.As to handle wrapped errors.
func IsStorageError(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStorageFailure
	}
	return false
}

// newStorageError wraps a store fault as a fatal run error.
func newStorageError(docID, op string, err error) *RunError {
	return &RunError{
		Code:  ErrCodeStorageFailure,
		DocID: docID,
		Op:    op,
		Err:   err,
	}
}
