package ordering

import (
	"errors"
	"fmt"

	"github.com/roach88/treeorder/internal/node"
)

// ErrorCode categorizes ordering errors.
type ErrorCode string

const (
	// ErrCodePersistence indicates a store write failed mid-operation.
	ErrCodePersistence ErrorCode = "PERSISTENCE_FAILED"

	// ErrCodeInvariantViolation indicates a sibling group read from the store
	// is not contiguous, or a neighbour the invariant guarantees is missing.
	// It signals upstream data corruption, not a bug in the move.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// Error is returned by engine operations that fail after validation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the engine operation that failed (e.g. "move_above").
	Op string

	// NodeID identifies the node being written (persistence) or moved.
	NodeID string

	// ParentID identifies the affected sibling group ("" for roots).
	ParentID string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
	if e.NodeID != "" {
		msg += fmt.Sprintf(" (node=%s)", e.NodeID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsPersistenceError returns true if err is or wraps a persistence failure.
func IsPersistenceError(err error) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == ErrCodePersistence
	}
	return false
}

// IsInvariantViolation returns true if err is or wraps an invariant violation.
func IsInvariantViolation(err error) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == ErrCodeInvariantViolation
	}
	return false
}

func newPersistenceError(op string, n node.Node, f node.Fields, err error) *Error {
	return &Error{
		Code:     ErrCodePersistence,
		Op:       op,
		NodeID:   n.ID,
		ParentID: n.ParentID,
		Message:  fmt.Sprintf("persist %s", f),
		Err:      err,
	}
}

func newInvariantViolation(op string, n node.Node, message string, err error) *Error {
	return &Error{
		Code:     ErrCodeInvariantViolation,
		Op:       op,
		NodeID:   n.ID,
		ParentID: n.ParentID,
		Message:  message,
		Err:      err,
	}
}
